package backend

import (
	"github.com/irsalhamdi/e-commerce-food/client/session"
	"github.com/shopspring/decimal"
)

type ShippingAddress struct {
	FullName   string `json:"full_name" validate:"required,notblank"`
	Phone      string `json:"phone" validate:"required,phone"`
	Line1      string `json:"address_line1" validate:"required,notblank"`
	Line2      string `json:"address_line2,omitempty"`
	City       string `json:"city" validate:"required,notblank"`
	State      string `json:"state" validate:"required,notblank"`
	PostalCode string `json:"postal_code" validate:"required,notblank"`
	Country    string `json:"country" validate:"required,notblank"`
}

type PersonalInfo struct {
	FirstName string `json:"first_name" validate:"required,notblank"`
	LastName  string `json:"last_name" validate:"required,notblank"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phone"`
}

type User struct {
	ID              string           `json:"_id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Role            string           `json:"role"`
	Verified        bool             `json:"verified"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
}

// Identity is the part of the user the session keeps.
func (u User) Identity() session.User {
	role := session.RoleUser
	if u.Role == string(session.RoleAdmin) {
		role = session.RoleAdmin
	}
	return session.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: role}
}

type Product struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Description   string          `json:"description,omitempty"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
}

// LineItem is one product entry of the cart. DiscountPrice is the unit price
// actually charged; OriginalPrice is informational.
type LineItem struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Description   string          `json:"description,omitempty"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	Quantity      int             `json:"quantity"`
}

type ItemNew struct {
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Description   string          `json:"description,omitempty"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	Quantity      int             `json:"quantity"`
}

// PaymentOrder is the gateway order created server-side. Amount is in the
// currency's smallest unit.
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type OrderNew struct {
	PersonalInfo    PersonalInfo    `json:"personal_info"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentID       string          `json:"payment_id"`
	GatewayOrderID  string          `json:"gateway_order_id,omitempty"`
	Total           decimal.Decimal `json:"total"`
}

type Signup struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string
	User  User
}
