// Package config holds the settings of both binaries, parsed by ardanlabs/conf
// from flags and FOODSTORE_* environment variables.
package config

import "time"

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Session struct {
	Lifetime   time.Duration `conf:"default:24h"`
	CookieName string        `conf:"default:foodstore_session"`
	Secure     bool          `conf:"default:false"`
}

type OTP struct {
	Timeout     time.Duration `conf:"default:10m"`
	ResendEvery time.Duration `conf:"default:30s"`
	Burst       int           `conf:"default:3"`
	Expiry      time.Duration `conf:"default:1h"`
}

type Admin struct {
	Name     string `conf:"default:Admin"`
	Email    string `conf:"default:admin@foodstore.local"`
	Password string `conf:"default:change-me-please,mask"`
}

type Payment struct {
	Key      string `conf:"default:rzp_test_foodstore"`
	Currency string `conf:"default:INR"`
}

// Config is the development backend.
type Config struct {
	Web          Web
	Session      Session
	OTP          OTP
	Admin        Admin
	Payment      Payment
	SeedProducts bool   `conf:"default:true"`
	LogLevel     string `conf:"default:info"`
}

type Backend struct {
	URL     string        `conf:"default:http://localhost:8000"`
	Timeout time.Duration `conf:"default:15s"`
}

type Cart struct {
	PollInterval      time.Duration `conf:"default:10s"`
	DeliveryFee       string        `conf:"default:30"`
	FreeDeliveryAbove string        `conf:"default:200"`
}

type Checkout struct {
	Currency      string        `conf:"default:INR"`
	StoreName     string        `conf:"default:Food Store"`
	ThemeColor    string        `conf:"default:#F37254"`
	RedirectDelay time.Duration `conf:"default:2s"`
	OrderTimeout  time.Duration `conf:"default:30s"`
}

type PayPal struct {
	ClientID string
	Secret   string `conf:"mask"`
	APIBase  string `conf:"default:https://api.sandbox.paypal.com"`
}

type Stripe struct {
	WebhookSecret  string        `conf:"mask"`
	WebhookAddress string        `conf:"default:127.0.0.1:8089"`
	WaitTimeout    time.Duration `conf:"default:15m"`
}

// Gateway picks who confirms checkout payments: terminal, paypal or stripe.
type Gateway struct {
	Kind   string `conf:"default:terminal"`
	PayPal PayPal
	Stripe Stripe
}

// Storefront is the terminal client.
type Storefront struct {
	Backend     Backend
	Cart        Cart
	Checkout    Checkout
	Gateway     Gateway
	SessionFile string `conf:"default:.foodstore-session.json"`
	LogLevel    string `conf:"default:warn"`
}
