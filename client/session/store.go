package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

var ErrNoCredential = errors.New("no stored credential")

type MemoryStore struct {
	mu    sync.Mutex
	user  User
	token string
}

func (m *MemoryStore) Save(u User, token string) error {
	m.mu.Lock()
	m.user, m.token = u, token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load() (User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return User{}, "", ErrNoCredential
	}
	return m.user, m.token, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.user, m.token = User{}, ""
	m.mu.Unlock()
	return nil
}

// FileStore keeps the credential, and the session cookies issued with it, in a
// JSON file readable only by its owner. Every FileStore shares one lock, so a
// session and a backend client pointed at the same path do not lose each
// other's writes.
type FileStore struct {
	Path string
}

var fileMu sync.Mutex

type stored struct {
	User    User           `json:"user"`
	Token   string         `json:"token"`
	Cookies []storedCookie `json:"cookies,omitempty"`
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (f FileStore) Save(u User, token string) error {
	fileMu.Lock()
	defer fileMu.Unlock()

	s, err := f.read()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.User, s.Token = u, token
	return f.write(s)
}

func (f FileStore) Load() (User, string, error) {
	fileMu.Lock()
	defer fileMu.Unlock()

	s, err := f.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return User{}, "", ErrNoCredential
		}
		return User{}, "", err
	}
	if s.Token == "" {
		return User{}, "", ErrNoCredential
	}
	return s.User, s.Token, nil
}

func (f FileStore) Clear() error {
	fileMu.Lock()
	defer fileMu.Unlock()

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credential: %w", err)
	}
	return nil
}

// SaveCookies replaces the stored cookies and keeps the credential as it is.
func (f FileStore) SaveCookies(cookies []*http.Cookie) error {
	fileMu.Lock()
	defer fileMu.Unlock()

	s, err := f.read()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.Cookies = s.Cookies[:0]
	for _, c := range cookies {
		s.Cookies = append(s.Cookies, storedCookie{Name: c.Name, Value: c.Value})
	}
	return f.write(s)
}

// LoadCookies returns nothing, and no error, when no file exists yet.
func (f FileStore) LoadCookies() ([]*http.Cookie, error) {
	fileMu.Lock()
	defer fileMu.Unlock()

	s, err := f.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out, nil
}

func (f FileStore) read() (stored, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stored{}, err
		}
		return stored{}, fmt.Errorf("reading credential: %w", err)
	}

	var s stored
	if err := json.Unmarshal(b, &s); err != nil {
		return stored{}, fmt.Errorf("decoding credential %s: %w", f.Path, err)
	}
	return s, nil
}

func (f FileStore) write(s stored) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("creating credential dir: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	return os.Rename(tmp, f.Path)
}
