package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/irsalhamdi/e-commerce-food/api/weberr"
	"github.com/irsalhamdi/e-commerce-food/core/claims"
	"github.com/irsalhamdi/e-commerce-food/random"
	"github.com/irsalhamdi/e-commerce-food/validate"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("payment order not found")

// Order is a gateway-side payment order. Amount is in the currency's minor unit.
type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Receipt   string    `json:"receipt,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type OrderNew struct {
	Amount   int64  `json:"amount" validate:"gt=0"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
	Receipt  string `json:"receipt"`
}

type Repo struct {
	mu     sync.RWMutex
	orders map[string]Order
}

func NewRepo() *Repo {
	return &Repo{orders: make(map[string]Order)}
}

func (r *Repo) Create(o Order) {
	r.mu.Lock()
	r.orders[o.ID] = o
	r.mu.Unlock()
}

func (r *Repo) Fetch(id string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

// MinorUnits converts a major-unit amount, rupees for example, to the minor
// unit a payment order carries.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (r *Repo) List() []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

type keyResponse struct {
	Key string `json:"key"`
}

type orderResponse struct {
	Order Order `json:"order"`
}

func HandleKey(key string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, keyResponse{key}, http.StatusOK)
	}
}

func HandleCreateOrder(orders *Repo, currency string) web.Handler {
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
		if in.Currency == "" {
			in.Currency = currency
		}

		suffix, err := random.String(14)
		if err != nil {
			return fmt.Errorf("generating payment order id: %w", err)
		}

		o := Order{
			ID:        "order_" + suffix,
			UserID:    clm.UserID,
			Amount:    in.Amount,
			Currency:  in.Currency,
			Receipt:   in.Receipt,
			CreatedAt: time.Now().UTC(),
		}
		orders.Create(o)

		return web.Respond(ctx, w, orderResponse{o}, http.StatusOK)
	}
}

func HandleList(orders *Repo) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, orders.List(), http.StatusOK)
	}
}
