package product

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/irsalhamdi/e-commerce-food/api/weberr"
	"github.com/irsalhamdi/e-commerce-food/validate"
)

func HandleList(products *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, products.List(r.URL.Query().Get("category")), http.StatusOK)
	}
}

func HandleShow(products *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		p, err := products.Fetch(id)
		if err != nil {
			return weberr.NotFound(fmt.Errorf("fetching product[%s]: %w", id, err))
		}
		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCreate(products *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ProductNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(in); err != nil {
			return weberr.BadRequest(err)
		}
		if err := checkPrices(in.OriginalPrice, in.DiscountPrice); err != nil {
			return weberr.BadRequest(err)
		}

		p := Product{
			ID:            validate.GenerateID(),
			Name:          in.Name,
			Image:         in.Image,
			Category:      in.Category,
			Description:   in.Description,
			OriginalPrice: in.OriginalPrice,
			DiscountPrice: in.DiscountPrice,
			CreatedAt:     time.Now().UTC(),
		}
		products.Create(p)

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}
