package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/irsalhamdi/e-commerce-food/core/claims"
	"github.com/irsalhamdi/e-commerce-food/email"
)

var (
	ErrInvalidOTP = errors.New("invalid or expired otp")
	ErrNoSuchKey  = errors.New("token not found")
)

// maxOTPAttempts bounds guesses against a single issued code.
const maxOTPAttempts = 5

// Tokens maps opaque bearer credentials to the claims they carry.
type Tokens struct {
	mu     sync.RWMutex
	claims map[string]claims.Claims
}

func NewTokens() *Tokens {
	return &Tokens{claims: make(map[string]claims.Claims)}
}

func (t *Tokens) Issue(c claims.Claims) string {
	tok := uuid.NewString()

	t.mu.Lock()
	t.claims[tok] = c
	t.mu.Unlock()
	return tok
}

func (t *Tokens) Lookup(tok string) (claims.Claims, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.claims[tok]
	if !ok {
		return claims.Claims{}, ErrNoSuchKey
	}
	return c, nil
}

func (t *Tokens) Revoke(tok string) {
	t.mu.Lock()
	delete(t.claims, tok)
	t.mu.Unlock()
}

// RevokeUser drops every credential of userID, e.g. after a password reset.
func (t *Tokens) RevokeUser(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for tok, c := range t.claims {
		if c.UserID == userID {
			delete(t.claims, tok)
		}
	}
}

type otp struct {
	code     string
	expires  time.Time
	attempts int
}

// OTPs holds at most one live code per email and purpose.
type OTPs struct {
	mu    sync.Mutex
	ttl   time.Duration
	codes map[string]*otp
	now   func() time.Time
}

func NewOTPs(ttl time.Duration) *OTPs {
	return &OTPs{
		ttl:   ttl,
		codes: make(map[string]*otp),
		now:   time.Now,
	}
}

func otpKey(addr string, p email.Purpose) string {
	return string(p) + ":" + strings.ToLower(strings.TrimSpace(addr))
}

func (o *OTPs) Put(addr string, p email.Purpose, code string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.codes[otpKey(addr, p)] = &otp{code: code, expires: o.now().Add(o.ttl)}
}

// Consume checks code and, on success, invalidates it.
func (o *OTPs) Consume(addr string, p email.Purpose, code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := otpKey(addr, p)
	cur, ok := o.codes[key]
	if !ok || o.now().After(cur.expires) {
		delete(o.codes, key)
		return ErrInvalidOTP
	}

	if subtle.ConstantTimeCompare([]byte(cur.code), []byte(code)) != 1 {
		cur.attempts++
		if cur.attempts >= maxOTPAttempts {
			delete(o.codes, key)
		}
		return ErrInvalidOTP
	}

	delete(o.codes, key)
	return nil
}
