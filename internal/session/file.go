package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

type fileState struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// FileStore persists the session as a JSON file readable only by its owner.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath returns the per-user session file location.
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "contractor-desk", "session.json")
}

// Path returns the backing file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) load() fileState {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return fileState{}
	}
	var st fileState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fileState{}
	}
	return st
}

func (f *FileStore) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load().Token
}

func (f *FileStore) User() (User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.load()
	if st.User == nil {
		return User{}, false
	}
	return *st.User, true
}

func (f *FileStore) Save(token string, user User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.MarshalIndent(fileState{Token: token, User: &user}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	if err := os.WriteFile(f.path, raw, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: remove: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
