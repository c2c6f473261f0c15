package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

func (c *Client) GetCart(ctx context.Context) ([]LineItem, error) {
	var resp struct {
		Items []LineItem `json:"Cart_Items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cart", authBearer, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AddCartItem returns the backend's confirmation message. A 400 answer means the
// product is already in the cart.
func (c *Client) AddCartItem(ctx context.Context, it ItemNew) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/cart", authBearer, it, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) UpdateCartQuantity(ctx context.Context, itemID string, quantity int) error {
	body := struct {
		Quantity int `json:"quantity"`
	}{quantity}
	return c.do(ctx, http.MethodPatch, "/api/cart/"+url.PathEscape(itemID), authBearer, body, nil)
}

func (c *Client) DeleteCartItem(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/items/"+url.PathEscape(name), authBearer, nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cart", authBearer, nil, nil)
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", authBearer, nil, &resp); err != nil {
		return User{}, err
	}
	if !resp.Success {
		return User{}, fmt.Errorf("fetching profile: %w", ErrRejected)
	}
	return resp.User, nil
}

// UpdateProfile stores addr as the user's shipping address.
func (c *Client) UpdateProfile(ctx context.Context, addr ShippingAddress) (User, error) {
	body := struct {
		ShippingAddress ShippingAddress `json:"shipping_address"`
	}{addr}

	var resp userResponse
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", authBearer, body, &resp); err != nil {
		return User{}, err
	}
	if !resp.Success {
		return User{}, fmt.Errorf("updating profile: %w", ErrRejected)
	}
	return resp.User, nil
}

func (c *Client) PaymentKey(ctx context.Context) (string, error) {
	var resp struct {
		Key string `json:"key"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/payment/key", authNone, nil, &resp); err != nil {
		return "", err
	}
	if resp.Key == "" {
		return "", fmt.Errorf("fetching payment key: %w", ErrRejected)
	}
	return resp.Key, nil
}

// CreatePaymentOrder authenticates with the session cookie set at login.
func (c *Client) CreatePaymentOrder(ctx context.Context, amount int64, currency string) (PaymentOrder, error) {
	body := struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency,omitempty"`
	}{amount, currency}

	var resp struct {
		Order PaymentOrder `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/payment/orders", authCookie, body, &resp); err != nil {
		return PaymentOrder{}, err
	}
	if resp.Order.ID == "" {
		return PaymentOrder{}, fmt.Errorf("creating payment order: %w", ErrRejected)
	}
	return resp.Order, nil
}

// CreateOrder places the order and returns its id.
func (c *Client) CreateOrder(ctx context.Context, o OrderNew) (string, error) {
	var resp struct {
		Success bool `json:"success"`
		Order   struct {
			ID string `json:"_id"`
		} `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/orders", authBearer, o, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Order.ID == "" {
		return "", fmt.Errorf("creating order: %w", ErrRejected)
	}
	return resp.Order.ID, nil
}

func (c *Client) ListProducts(ctx context.Context, category string) ([]Product, error) {
	p := "/api/products"
	if category != "" {
		p += "?category=" + url.QueryEscape(category)
	}

	var out []Product
	if err := c.do(ctx, http.MethodGet, p, authNone, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Signup(ctx context.Context, in Signup) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", authNone, in, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (LoginResult, error) {
	body := map[string]string{"email": email, "otp": strings.TrimSpace(otp)}
	return c.login(ctx, "/api/auth/verify-otp", body)
}

func (c *Client) ResendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/resend-otp", authNone, map[string]string{"email": email}, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	return c.login(ctx, "/api/auth/login", body)
}

func (c *Client) login(ctx context.Context, path string, body any) (LoginResult, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, path, authNone, body, &resp); err != nil {
		return LoginResult{}, err
	}
	if !resp.Success || resp.Token == "" {
		return LoginResult{}, fmt.Errorf("logging in: %w", ErrRejected)
	}
	return LoginResult{Token: resp.Token, User: resp.User}, nil
}

// Logout revokes the token server-side. It is best effort: the local session is
// cleared regardless by the caller.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", authBearer, nil, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", authNone, map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, password string) error {
	body := map[string]string{"email": email, "otp": strings.TrimSpace(otp), "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", authNone, body, nil)
}
