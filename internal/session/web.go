package session

import (
	"github.com/contractor-desk/contractor-desk/internal/shared"
)

// WebStore persists the session inside the browser's cookie session.
type WebStore struct {
	sess *shared.Session
}

// NewWebStore binds a Store to a loaded browser session.
func NewWebStore(sess *shared.Session) *WebStore {
	return &WebStore{sess: sess}
}

func (w *WebStore) Token() string {
	if w == nil || w.sess == nil {
		return ""
	}
	return w.sess.Get(TokenKey)
}

func (w *WebStore) User() (User, bool) {
	if w == nil || w.sess == nil {
		return User{}, false
	}
	return decodeUser(w.sess.Get(UserKey))
}

func (w *WebStore) Save(token string, user User) error {
	if w == nil || w.sess == nil {
		return shared.ErrSessionExpired
	}
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	w.sess.Set(TokenKey, token)
	w.sess.Set(UserKey, raw)
	id := user.ID
	if id == "" {
		id = user.Email
	}
	w.sess.SetUser(id)
	return nil
}

func (w *WebStore) Clear() error {
	if w == nil || w.sess == nil {
		return nil
	}
	w.sess.Delete(TokenKey)
	w.sess.Delete(UserKey)
	w.sess.SetUser("")
	return nil
}

var _ Store = (*WebStore)(nil)
