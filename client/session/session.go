// Package session is the single source of truth for who is signed in and which
// bearer token authorizes requests.
package session

import (
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Event is delivered to subscribers after every login and logout.
type Event struct {
	Authenticated bool
	User          User
}

// TokenStore persists the credential across process restarts.
type TokenStore interface {
	Save(u User, token string) error
	Load() (User, string, error)
	Clear() error
}

type Session struct {
	store TokenStore
	log   logrus.FieldLogger

	mu    sync.RWMutex
	user  User
	token string

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(Event)
}

func New(store TokenStore, log logrus.FieldLogger) *Session {
	if store == nil {
		store = &MemoryStore{}
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Session{store: store, log: log}
}

// Restore loads a previously saved credential. A missing one is not an error.
func (s *Session) Restore() error {
	u, tok, err := s.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return nil
		}
		return err
	}

	s.set(u, tok)
	s.publish(Event{Authenticated: true, User: u})
	return nil
}

func (s *Session) Login(u User, token string) error {
	if token == "" {
		return errors.New("login with an empty token")
	}
	if err := s.store.Save(u, token); err != nil {
		return err
	}

	s.set(u, token)
	s.log.WithField("user_id", u.ID).Info("logged in")
	s.publish(Event{Authenticated: true, User: u})
	return nil
}

// Logout is idempotent; subscribers are only told about an actual change.
func (s *Session) Logout() {
	s.mu.Lock()
	was := s.token != ""
	u := s.user
	s.user, s.token = User{}, ""
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		s.log.Warnf("clearing stored token: %v", err)
	}
	if !was {
		return
	}

	s.log.WithField("user_id", u.ID).Info("logged out")
	s.publish(Event{Authenticated: false, User: u})
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token != ""
}

// Token returns the bearer credential, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subscribe registers fn for login and logout events. Callbacks run synchronously
// on the goroutine that changed the state, in subscription order, with no session
// lock held, so they may call back into the session.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()

		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) set(u User, token string) {
	s.mu.Lock()
	s.user, s.token = u, token
	s.mu.Unlock()
}

func (s *Session) publish(ev Event) {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}
