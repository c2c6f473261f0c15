package product

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Description   string          `json:"description,omitempty"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type ProductNew struct {
	Name          string          `json:"name" validate:"required,notblank"`
	Image         string          `json:"image" validate:"required,notblank"`
	Category      string          `json:"category" validate:"required,notblank"`
	Description   string          `json:"description"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
}

type Repo struct {
	mu    sync.RWMutex
	items map[string]Product
}

func NewRepo() *Repo {
	return &Repo{items: make(map[string]Product)}
}

func (r *Repo) Create(p Product) {
	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()
}

func (r *Repo) Fetch(id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// List returns products of category, or all of them when category is empty,
// oldest first.
func (r *Repo) List(category string) []Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.items))
	for _, p := range r.items {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func checkPrices(original, discount decimal.Decimal) error {
	switch {
	case !discount.IsPositive():
		return errors.New("discount_price must be greater than 0")
	case original.LessThan(discount):
		return errors.New("original_price must not be lower than discount_price")
	}
	return nil
}
