// Package session holds the signed-in user's API token and profile.
//
// A Store is initialised by a successful login or registration and torn down
// by logout or by any backend call answered with 401. Front ends pick the
// implementation: the web server keeps it in the browser's cookie session,
// the CLI in a file, tests in memory.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/contractor-desk/contractor-desk/internal/shared"
)

// Fixed keys under which the token and profile are persisted.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// User is the profile returned by the backend on login/register.
type User struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// UnmarshalJSON accepts numeric ids and the document-store "_id" spelling.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var aux struct {
		alias
		ID      json.RawMessage `json:"id"`
		MongoID json.RawMessage `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.alias)
	u.ID = shared.FlexibleID(aux.ID)
	if u.ID == "" {
		u.ID = shared.FlexibleID(aux.MongoID)
	}
	return nil
}

// Store is the process-wide session state consumed by the backend client.
type Store interface {
	Token() string
	User() (User, bool)
	Save(token string, user User) error
	Clear() error
}

// Authenticated reports whether the store carries a token.
func Authenticated(s Store) bool {
	return s != nil && s.Token() != ""
}

func encodeUser(u User) (string, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeUser(raw string) (User, bool) {
	if raw == "" {
		return User{}, false
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, false
	}
	return u, true
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	user  *User
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *MemoryStore) User() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

func (m *MemoryStore) Save(token string, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = &user
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	return nil
}

var _ Store = (*MemoryStore)(nil)

type storeContextKey struct{}

// WithStore attaches a Store to ctx for the duration of one request.
func WithStore(ctx context.Context, s Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// FromContext returns the Store attached by WithStore, if any.
func FromContext(ctx context.Context) Store {
	s, _ := ctx.Value(storeContextKey{}).(Store)
	return s
}
