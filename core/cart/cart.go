package cart

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicate = errors.New("item already in cart")
	ErrNotFound  = errors.New("cart item not found")
)

type Item struct {
	ID            string          `json:"_id"`
	UserID        string          `json:"-"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Description   string          `json:"description,omitempty"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	Quantity      int             `json:"quantity"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type ItemNew struct {
	Name          string          `json:"name" validate:"required,notblank"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
}

type QuantityUp struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

// Repo keeps every user's cart in insertion order. A cart holds at most one line
// per product name.
type Repo struct {
	mu    sync.RWMutex
	carts map[string][]Item
}

func NewRepo() *Repo {
	return &Repo{carts: make(map[string][]Item)}
}

func (r *Repo) FetchItems(userID string) []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.carts[userID]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func (r *Repo) CreateItem(it Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cur := range r.carts[it.UserID] {
		if strings.EqualFold(cur.Name, it.Name) {
			return ErrDuplicate
		}
	}
	r.carts[it.UserID] = append(r.carts[it.UserID], it)
	return nil
}

func (r *Repo) UpdateQuantity(userID, itemID string, quantity int, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			items[i].UpdatedAt = now
			return nil
		}
	}
	return ErrNotFound
}

func (r *Repo) DeleteItem(userID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.carts[userID]
	for i := range items {
		if strings.EqualFold(items[i].Name, name) {
			r.carts[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *Repo) Delete(userID string) {
	r.mu.Lock()
	delete(r.carts, userID)
	r.mu.Unlock()
}
