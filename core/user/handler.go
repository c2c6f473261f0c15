package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/irsalhamdi/e-commerce-food/api/weberr"
	"github.com/irsalhamdi/e-commerce-food/core/claims"
	"github.com/irsalhamdi/e-commerce-food/validate"
)

type profileResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

func HandleShowProfile(users *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		u, err := users.Fetch(clm.UserID)
		if err != nil {
			return weberr.NotFound(fmt.Errorf("fetching user[%s]: %w", clm.UserID, err))
		}
		return web.Respond(ctx, w, profileResponse{Success: true, User: u}, http.StatusOK)
	}
}

func HandleUpdateProfile(users *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var up ProfileUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if up.ShippingAddress != nil {
			if err := validate.Check(*up.ShippingAddress); err != nil {
				return weberr.BadRequest(err)
			}
		}

		u, err := users.Fetch(clm.UserID)
		if err != nil {
			return weberr.NotFound(fmt.Errorf("fetching user[%s]: %w", clm.UserID, err))
		}
		if up.Name != nil {
			u.Name = *up.Name
		}
		if up.ShippingAddress != nil {
			addr := *up.ShippingAddress
			u.ShippingAddress = &addr
		}
		u.UpdatedAt = time.Now().UTC()

		if err := users.Update(u); err != nil {
			return fmt.Errorf("updating user[%s]: %w", u.ID, err)
		}
		return web.Respond(ctx, w, profileResponse{Success: true, User: u}, http.StatusOK)
	}
}
