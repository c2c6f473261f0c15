package user

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrExists   = errors.New("user already exists")
)

type ShippingAddress struct {
	FullName   string `json:"full_name" validate:"required,notblank"`
	Phone      string `json:"phone" validate:"required,phone"`
	Line1      string `json:"address_line1" validate:"required,notblank"`
	Line2      string `json:"address_line2,omitempty"`
	City       string `json:"city" validate:"required,notblank"`
	State      string `json:"state" validate:"required,notblank"`
	PostalCode string `json:"postal_code" validate:"required,notblank"`
	Country    string `json:"country" validate:"required,notblank"`
}

type User struct {
	ID              string           `json:"_id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Role            string           `json:"role"`
	Verified        bool             `json:"verified"`
	PasswordHash    []byte           `json:"-"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type ProfileUp struct {
	Name            *string          `json:"name"`
	ShippingAddress *ShippingAddress `json:"shipping_address"`
}

// Repo is the in-memory user table. Emails are matched case-insensitively.
type Repo struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

func NewRepo() *Repo {
	return &Repo{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repo) Create(u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normEmail(u.Email)
	if _, ok := r.byEmail[key]; ok {
		return ErrExists
	}
	r.byID[u.ID] = u
	r.byEmail[key] = u.ID
	return nil
}

func (r *Repo) Fetch(id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *Repo) FetchByEmail(email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normEmail(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *Repo) Update(u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}
