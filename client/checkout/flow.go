// Package checkout runs the three-stage checkout: personal info, shipping
// address, then payment through an external gateway widget.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/irsalhamdi/e-commerce-food/client/backend"
	"github.com/irsalhamdi/e-commerce-food/client/cart"
	"github.com/irsalhamdi/e-commerce-food/client/session"
	"github.com/irsalhamdi/e-commerce-food/client/ui"
	"github.com/irsalhamdi/e-commerce-food/validate"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotAuthenticated = errors.New("checkout requires a signed-in user")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrWrongStep        = errors.New("not allowed at this checkout step")
	ErrNoPaymentMethod  = errors.New("no payment method selected")
	ErrPaymentInFlight  = errors.New("a payment is already in progress")
	ErrAmountMismatch   = errors.New("payment order amount does not match the cart total")
	ErrClosed           = errors.New("checkout closed")
	ErrFinished         = errors.New("checkout already finished")
)

// PaymentMethods are the identifiers SelectPaymentMethod accepts.
var PaymentMethods = []string{"card", "upi", "netbanking", "wallet"}

// ValidationError is a form that did not pass; it never reaches the network.
type ValidationError struct {
	Step Step
	Err  error
}

func (e *ValidationError) Error() string { return e.Step.String() + ": " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// API is the subset of the backend checkout talks to.
type API interface {
	Profile(ctx context.Context) (backend.User, error)
	UpdateProfile(ctx context.Context, addr backend.ShippingAddress) (backend.User, error)
	PaymentKey(ctx context.Context) (string, error)
	CreatePaymentOrder(ctx context.Context, amount int64, currency string) (backend.PaymentOrder, error)
	CreateOrder(ctx context.Context, o backend.OrderNew) (string, error)
	ClearCart(ctx context.Context) error
}

type Config struct {
	API       API
	Cart      *cart.Store
	Session   *session.Session
	Widget    Widget
	Navigator ui.Navigator
	Notifier  ui.Notifier
	Log       logrus.FieldLogger

	// RedirectDelay is how long the empty-cart warning shows before going back to
	// the catalog.
	RedirectDelay time.Duration
	// OrderTimeout bounds order creation after a successful payment.
	OrderTimeout time.Duration
	Currency     string
	StoreName    string
	ThemeColor   string
}

func (c *Config) defaults() {
	if c.Navigator == nil {
		c.Navigator = ui.Discard{}
	}
	if c.Notifier == nil {
		c.Notifier = ui.Discard{}
	}
	if c.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.Log = l
	}
	if c.RedirectDelay == 0 {
		c.RedirectDelay = 2 * time.Second
	}
	if c.OrderTimeout == 0 {
		c.OrderTimeout = 30 * time.Second
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	if c.StoreName == "" {
		c.StoreName = "Food Store"
	}
	if c.ThemeColor == "" {
		c.ThemeColor = "#F37254"
	}
}

// Flow is one checkout attempt. It lives from entering checkout until the order
// is confirmed or the user leaves (Close).
type Flow struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	step     Step
	personal backend.PersonalInfo
	shipping backend.ShippingAddress
	method   string
	inFlight bool
	placing  bool
	attempt  int
	outcome  Outcome
	orderID  string
	closed   bool
}

// Begin enters checkout. A signed-out user is sent home; an empty cart shows a
// warning and goes back to the catalog after RedirectDelay. Requests made by the
// flow are cancelled by Close, except order creation after a captured payment.
func Begin(ctx context.Context, cfg Config) (*Flow, error) {
	cfg.defaults()

	if !cfg.Session.IsAuthenticated() {
		cfg.Navigator.Navigate(ui.Home())
		return nil, ErrNotAuthenticated
	}

	fctx, cancel := context.WithCancel(ctx)
	f := &Flow{cfg: cfg, ctx: fctx, cancel: cancel}

	if err := cfg.Cart.FetchCart(fctx); err != nil {
		cancel()
		if errors.Is(err, cart.ErrSessionExpired) || errors.Is(err, session.ErrNotAuthenticated) {
			cfg.Navigator.Navigate(ui.Home())
			return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		return nil, fmt.Errorf("loading cart: %w", err)
	}

	if cfg.Cart.Count() == 0 {
		cancel()
		cfg.Notifier.Warn("Your cart is empty. Add something before checking out.")
		time.AfterFunc(cfg.RedirectDelay, func() { cfg.Navigator.Navigate(ui.Catalog()) })
		return nil, ErrEmptyCart
	}

	if err := f.prefill(); err != nil {
		cancel()
		f.signOut(err)
		cfg.Navigator.Navigate(ui.Home())
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	return f, nil
}

// prefill seeds the forms from the signed-in user and the saved shipping
// address. Only a 401 is returned; a missing address just leaves the form empty.
func (f *Flow) prefill() error {
	if u, ok := f.cfg.Session.User(); ok {
		first, last, _ := strings.Cut(strings.TrimSpace(u.Name), " ")
		f.personal = backend.PersonalInfo{FirstName: first, LastName: strings.TrimSpace(last), Email: u.Email}
	}

	u, err := f.cfg.API.Profile(f.ctx)
	if err != nil {
		if backend.IsUnauthorized(err) {
			return fmt.Errorf("fetching profile: %w", err)
		}
		f.cfg.Log.Debugf("prefilling shipping address: %v", err)
		return nil
	}
	if u.ShippingAddress != nil {
		f.shipping = *u.ShippingAddress
	}
	return nil
}

// signOut ends the session after a 401. Logging out also empties the cart
// store bound to the session.
func (f *Flow) signOut(cause error) {
	f.cfg.Log.Warnf("checkout signed out, session expired: %v", cause)
	f.cfg.Session.Logout()
	f.cfg.Notifier.Warn("Your session has expired. Please log in again.")
}

func (f *Flow) usable() error {
	switch {
	case f.closed:
		return ErrClosed
	case f.outcome.terminal():
		return ErrFinished
	}
	return nil
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Outcome returns the state of the attempt and, once confirmed, the order id.
func (f *Flow) Outcome() (Outcome, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome, f.orderID
}

func (f *Flow) PersonalInfo() backend.PersonalInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.personal
}

func (f *Flow) ShippingAddress() backend.ShippingAddress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shipping
}

func (f *Flow) PaymentMethod() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method
}

// Totals is the order summary shown next to every step.
func (f *Flow) Totals() cart.Totals {
	return f.cfg.Cart.Totals()
}

func (f *Flow) SubmitPersonalInfo(p backend.PersonalInfo) error {
	return f.warnInvalid(f.submitPersonalInfo(p))
}

func (f *Flow) submitPersonalInfo(p backend.PersonalInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if f.step != StepPersonalInfo {
		return ErrWrongStep
	}
	if err := validate.Check(p); err != nil {
		return &ValidationError{Step: StepPersonalInfo, Err: err}
	}

	f.personal = p
	f.step = StepShipping
	return nil
}

// SubmitShipping records the address. It is saved to the profile only when the
// payment starts.
func (f *Flow) SubmitShipping(a backend.ShippingAddress) error {
	return f.warnInvalid(f.submitShipping(a))
}

func (f *Flow) submitShipping(a backend.ShippingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if f.step != StepShipping {
		return ErrWrongStep
	}
	if err := validate.Check(a); err != nil {
		return &ValidationError{Step: StepShipping, Err: err}
	}

	f.shipping = a
	f.step = StepPayment
	return nil
}

// warnInvalid shows validation failures to the user. It runs with f.mu released.
func (f *Flow) warnInvalid(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		f.cfg.Notifier.Warn(ve.Err.Error())
	}
	return err
}

// Back returns to the previous step, keeping what was entered.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if f.inFlight {
		return ErrPaymentInFlight
	}
	if f.step == StepPersonalInfo {
		return ErrWrongStep
	}
	f.step--
	return nil
}

func (f *Flow) SelectPaymentMethod(method string) error {
	return f.warnInvalid(f.selectPaymentMethod(method))
}

func (f *Flow) selectPaymentMethod(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if f.step != StepPayment {
		return ErrWrongStep
	}
	if f.inFlight {
		return ErrPaymentInFlight
	}
	if err := validate.Var("payment method", method, "required,oneof="+strings.Join(PaymentMethods, " ")); err != nil {
		return &ValidationError{Step: StepPayment, Err: err}
	}

	f.method = method
	return nil
}

// Close leaves checkout and cancels its requests. A payment already captured
// still gets its order created.
func (f *Flow) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	f.cancel()
}
