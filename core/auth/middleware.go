package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/irsalhamdi/e-commerce-food/api/weberr"
	"github.com/irsalhamdi/e-commerce-food/core/claims"
	"github.com/irsalhamdi/e-commerce-food/core/user"
)

const sessionUserKey = "user_id"

// LoadAndSave adapts scs' http middleware to the web.Handler chain.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			})
			sm.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}

// Authenticate requires a known bearer token.
func Authenticate(tokens *Tokens) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			tok := web.BearerToken(r)
			if tok == "" {
				return weberr.NotAuthorized(errors.New("missing bearer token"))
			}

			clm, err := tokens.Lookup(tok)
			if err != nil {
				return weberr.NotAuthorized(fmt.Errorf("looking up bearer token: %w", err))
			}
			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Admin must run after Authenticate.
func Admin() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.Forbidden(errors.New("admin role required"))
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Cookie authenticates through the session cookie set at login.
func Cookie(sm *scs.SessionManager, users *user.Repo) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := sm.GetString(ctx, sessionUserKey)
			if id == "" {
				return weberr.NotAuthorized(errors.New("no session cookie"))
			}

			u, err := users.Fetch(id)
			if err != nil {
				return weberr.NotAuthorized(fmt.Errorf("fetching session user[%s]: %w", id, err))
			}
			return handler(claims.Set(ctx, claims.Claims{UserID: u.ID, Role: u.Role}), w, r)
		}
		return h
	}
	return m
}
