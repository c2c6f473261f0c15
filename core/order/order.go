package order

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/irsalhamdi/e-commerce-food/core/cart"
	"github.com/irsalhamdi/e-commerce-food/core/user"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("order not found")
	ErrPaymentUsed = errors.New("payment order already used by another order")
)

type Status string

const (
	Placed    Status = "placed"
	Preparing Status = "preparing"
	Delivered Status = "delivered"
	Cancelled Status = "cancelled"
)

type PersonalInfo struct {
	FirstName string `json:"first_name" validate:"required,notblank"`
	LastName  string `json:"last_name" validate:"required,notblank"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phone"`
}

type Order struct {
	ID              string               `json:"_id"`
	UserID          string               `json:"user_id"`
	Items           []cart.Item          `json:"items"`
	PersonalInfo    PersonalInfo         `json:"personal_info"`
	ShippingAddress user.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string               `json:"payment_method"`
	PaymentID       string               `json:"payment_id"`
	GatewayOrderID  string               `json:"gateway_order_id,omitempty"`
	Total           decimal.Decimal      `json:"total"`
	Status          Status               `json:"status"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

type OrderNew struct {
	PersonalInfo    PersonalInfo         `json:"personal_info"`
	ShippingAddress user.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string               `json:"payment_method" validate:"required,notblank"`
	PaymentID       string               `json:"payment_id" validate:"required,notblank"`
	GatewayOrderID  string               `json:"gateway_order_id" validate:"required,notblank"`
	Total           decimal.Decimal      `json:"total"`
}

type StatusUp struct {
	Status Status `json:"status" validate:"required,oneof=placed preparing delivered cancelled"`
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

// CreateOnce stores o unless another order was already placed with the same
// gateway order.
func (r *Repo) CreateOnce(o Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, prev := range r.orders {
		if prev.GatewayOrderID == o.GatewayOrderID {
			return ErrPaymentUsed
		}
	}
	r.orders[o.ID] = o
	return nil
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

func (r *Repo) UpdateStatus(id string, st Status, now time.Time) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	o.Status = st
	o.UpdatedAt = now
	r.orders[id] = o
	return o, nil
}

// List returns the orders of userID, or every order when userID is empty, newest
// first.
func (r *Repo) List(userID string) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		if userID == "" || o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
