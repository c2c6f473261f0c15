package cart

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

type showResponse struct {
	Items []Item `json:"Cart_Items"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func userID(ctx context.Context) (string, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return "", weberr.NotAuthorized(errors.New("user not authenticated"))
	}
	return clm.UserID, nil
}

func HandleShow(carts *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		uid, err := userID(ctx)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, showResponse{Items: carts.FetchItems(uid)}, http.StatusOK)
	}
}

func HandleCreateItem(carts *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		uid, err := userID(ctx)
		if err != nil {
			return err
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if in.Quantity == 0 {
			in.Quantity = 1
		}
		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(err)
		}

		now := time.Now().UTC()
		it := Item{
			ID:            validate.GenerateID(),
			UserID:        uid,
			Name:          in.Name,
			Image:         in.Image,
			Category:      in.Category,
			Description:   in.Description,
			OriginalPrice: in.OriginalPrice,
			DiscountPrice: in.DiscountPrice,
			Quantity:      in.Quantity,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := carts.CreateItem(it); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return weberr.BadRequest(err, weberr.Quiet())
			}
			return fmt.Errorf("adding %q to cart of user[%s]: %w", in.Name, uid, err)
		}
		return web.Respond(ctx, w, messageResponse{"item added to cart"}, http.StatusCreated)
	}
}

func HandleUpdateItem(carts *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		uid, err := userID(ctx)
		if err != nil {
			return err
		}

		var up QuantityUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.BadRequest(err)
		}

		id := web.Param(r, "id")
		if err := carts.UpdateQuantity(uid, id, up.Quantity, time.Now().UTC()); err != nil {
			return weberr.NotFound(fmt.Errorf("updating cart item[%s]: %w", id, err))
		}
		return web.Respond(ctx, w, messageResponse{"quantity updated"}, http.StatusOK)
	}
}

func HandleDeleteItem(carts *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		uid, err := userID(ctx)
		if err != nil {
			return err
		}

		name := web.Param(r, "name")
		if err := carts.DeleteItem(uid, name); err != nil {
			return weberr.NotFound(fmt.Errorf("deleting cart item %q: %w", name, err))
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDelete(carts *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		uid, err := userID(ctx)
		if err != nil {
			return err
		}

		carts.Delete(uid)
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
