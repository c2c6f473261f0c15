// Package claims carries the authenticated caller through request contexts.
package claims

import (
	"context"
	"errors"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var ErrMissing = errors.New("no authenticated caller in context")

type Claims struct {
	UserID string
	Role   string
}

func (c Claims) Admin() bool { return c.Role == RoleAdmin }

// Owns reports whether c may read a resource belonging to userID.
func (c Claims) Owns(userID string) bool {
	return c.UserID == userID || c.Admin()
}

type ctxKey struct{}

func Set(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func Get(ctx context.Context) (Claims, error) {
	c, ok := ctx.Value(ctxKey{}).(Claims)
	if !ok {
		return Claims{}, ErrMissing
	}
	return c, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	return err == nil && c.Admin()
}

func CanSee(ctx context.Context, userID string) bool {
	c, err := Get(ctx)
	return err == nil && c.Owns(userID)
}
