package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/irsalhamdi/e-commerce-food/api/weberr"
	"github.com/irsalhamdi/e-commerce-food/core/cart"
	"github.com/irsalhamdi/e-commerce-food/core/claims"
	"github.com/irsalhamdi/e-commerce-food/core/payment"
	"github.com/irsalhamdi/e-commerce-food/validate"
)

type createResponse struct {
	Success bool  `json:"success"`
	Order   Order `json:"order"`
}

// HandleCreate turns the caller's cart into a placed order. The total must match
// the caller's payment order it names, and a payment order pays for a single
// order. The cart itself is cleared by the client with a separate call.
func HandleCreate(orders *Repo, carts *cart.Repo, payments *payment.Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in OrderNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(err)
		}

		items := carts.FetchItems(clm.UserID)
		if len(items) == 0 {
			err := errors.New("no items to checkout")
			return weberr.Unprocessable(err)
		}

		po, err := payments.Fetch(in.GatewayOrderID)
		if err != nil || po.UserID != clm.UserID {
			return weberr.BadRequest(fmt.Errorf("payment order[%s] not found", in.GatewayOrderID))
		}
		if amount := payment.MinorUnits(in.Total); amount != po.Amount {
			err := fmt.Errorf("total %s does not match payment order[%s] amount %d", in.Total, po.ID, po.Amount)
			return weberr.NewError(err, "order total does not match the payment", http.StatusBadRequest)
		}

		now := time.Now().UTC()
		ord := Order{
			ID:              validate.GenerateID(),
			UserID:          clm.UserID,
			Items:           items,
			PersonalInfo:    in.PersonalInfo,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			PaymentID:       in.PaymentID,
			GatewayOrderID:  in.GatewayOrderID,
			Total:           in.Total,
			Status:          Placed,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := orders.CreateOnce(ord); err != nil {
			return weberr.Conflict(err, "payment already used for another order")
		}

		return web.Respond(ctx, w, createResponse{Success: true, Order: ord}, http.StatusCreated)
	}
}

func HandleShow(orders *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		ord, err := orders.Fetch(id)
		if err != nil {
			return weberr.NotFound(fmt.Errorf("fetching order[%s]: %w", id, err))
		}

		if !claims.CanSee(ctx, ord.UserID) {
			return weberr.NotFound(fmt.Errorf("order[%s] not visible to caller", id))
		}
		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandleListMine(orders *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}
		return web.Respond(ctx, w, orders.List(clm.UserID), http.StatusOK)
	}
}

func HandleListAll(orders *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, orders.List(""), http.StatusOK)
	}
}

func HandleUpdateStatus(orders *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var up StatusUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.BadRequest(err)
		}

		id := web.Param(r, "id")
		ord, err := orders.UpdateStatus(id, up.Status, time.Now().UTC())
		if err != nil {
			return weberr.NotFound(fmt.Errorf("updating order[%s]: %w", id, err))
		}
		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}
