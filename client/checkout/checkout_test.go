package checkout_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/e-commerce-food/client/backend"
	"github.com/irsalhamdi/e-commerce-food/client/cart"
	"github.com/irsalhamdi/e-commerce-food/client/checkout"
	"github.com/irsalhamdi/e-commerce-food/client/session"
	"github.com/irsalhamdi/e-commerce-food/client/ui"
	"github.com/shopspring/decimal"
)

// fakeBackend serves both the cart and the checkout calls.
type fakeBackend struct {
	mu    sync.Mutex
	items []cart.LineItem
	calls []string

	address *backend.ShippingAddress
	saved   backend.ShippingAddress
	orders  []backend.OrderNew
	amount  int64

	updateProfileErr error
	paymentOrderErr  error
	orderErr         error
	amountOverride   int64

	// fail makes the named call return an error.
	fail map[string]error
}

// record logs call and returns the failure configured for it, if any.
func (f *fakeBackend) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail[call]
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) GetCart(ctx context.Context) ([]cart.LineItem, error) {
	if err := f.record("get-cart"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cart.LineItem(nil), f.items...), nil
}

func (f *fakeBackend) AddCartItem(ctx context.Context, it backend.ItemNew) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeBackend) UpdateCartQuantity(ctx context.Context, itemID string, quantity int) error {
	return errors.New("not used")
}

func (f *fakeBackend) DeleteCartItem(ctx context.Context, name string) error {
	return errors.New("not used")
}

func (f *fakeBackend) Profile(ctx context.Context) (backend.User, error) {
	if err := f.record("profile"); err != nil {
		return backend.User{}, err
	}
	return backend.User{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com", ShippingAddress: f.address}, nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, addr backend.ShippingAddress) (backend.User, error) {
	if err := f.record("update-profile"); err != nil {
		return backend.User{}, err
	}
	if f.updateProfileErr != nil {
		return backend.User{}, f.updateProfileErr
	}
	f.mu.Lock()
	f.saved = addr
	f.mu.Unlock()
	return backend.User{ID: "u1", ShippingAddress: &addr}, nil
}

func (f *fakeBackend) PaymentKey(ctx context.Context) (string, error) {
	if err := f.record("payment-key"); err != nil {
		return "", err
	}
	return "rzp_test_key", nil
}

func (f *fakeBackend) CreatePaymentOrder(ctx context.Context, amount int64, currency string) (backend.PaymentOrder, error) {
	if err := f.record("payment-order"); err != nil {
		return backend.PaymentOrder{}, err
	}
	if f.paymentOrderErr != nil {
		return backend.PaymentOrder{}, f.paymentOrderErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.amount = amount
	if f.amountOverride != 0 {
		amount = f.amountOverride
	}
	return backend.PaymentOrder{ID: "order_abc", Amount: amount, Currency: currency}, nil
}

func (f *fakeBackend) CreateOrder(ctx context.Context, o backend.OrderNew) (string, error) {
	if err := f.record("create-order"); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.orderErr != nil {
		return "", f.orderErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, o)
	return "ord-1", nil
}

func (f *fakeBackend) ClearCart(ctx context.Context) error {
	if err := f.record("clear-cart"); err != nil {
		return err
	}
	f.mu.Lock()
	f.items = nil
	f.mu.Unlock()
	return nil
}

type fakeWidget struct {
	mu     sync.Mutex
	opened []checkout.WidgetOptions
	h      []checkout.WidgetHandlers
}

func (w *fakeWidget) Open(ctx context.Context, opts checkout.WidgetOptions, h checkout.WidgetHandlers) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opened = append(w.opened, opts)
	w.h = append(w.h, h)
	return nil
}

func (w *fakeWidget) handlers(i int) checkout.WidgetHandlers {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.h[i]
}

type recorder struct {
	mu     sync.Mutex
	info   []string
	warn   []string
	errs   []string
	routes []ui.Route
	moved  chan ui.Route
}

func newRecorder() *recorder { return &recorder{moved: make(chan ui.Route, 8)} }

func (r *recorder) Info(msg string)  { r.mu.Lock(); r.info = append(r.info, msg); r.mu.Unlock() }
func (r *recorder) Warn(msg string)  { r.mu.Lock(); r.warn = append(r.warn, msg); r.mu.Unlock() }
func (r *recorder) Error(msg string) { r.mu.Lock(); r.errs = append(r.errs, msg); r.mu.Unlock() }

func (r *recorder) Navigate(to ui.Route) {
	r.mu.Lock()
	r.routes = append(r.routes, to)
	r.mu.Unlock()
	r.moved <- to
}

func (r *recorder) Routes() []ui.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ui.Route(nil), r.routes...)
}

type fixture struct {
	be     *fakeBackend
	sess   *session.Session
	store  *cart.Store
	widget *fakeWidget
	rec    *recorder
}

func newFixture(t *testing.T, items ...cart.LineItem) *fixture {
	t.Helper()

	fx := &fixture{
		be:     &fakeBackend{items: items},
		sess:   session.New(nil, nil),
		widget: &fakeWidget{},
		rec:    newRecorder(),
	}
	if err := fx.sess.Login(session.User{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com"}, "tok"); err != nil {
		t.Fatal(err)
	}
	fx.store = cart.New(cart.Config{API: fx.be, Session: fx.sess, Notifier: fx.rec, PollInterval: -1})
	fx.store.StopPolling()
	t.Cleanup(fx.store.Close)
	return fx
}

func (fx *fixture) config() checkout.Config {
	return checkout.Config{
		API:           fx.be,
		Cart:          fx.store,
		Session:       fx.sess,
		Widget:        fx.widget,
		Navigator:     fx.rec,
		Notifier:      fx.rec,
		RedirectDelay: 10 * time.Millisecond,
	}
}

func thali() cart.LineItem {
	return cart.LineItem{
		ID:            "id-thali",
		Name:          "Thali",
		OriginalPrice: decimal.NewFromInt(249),
		DiscountPrice: decimal.NewFromInt(199),
		Quantity:      1,
	}
}

var (
	personal = backend.PersonalInfo{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "+91 98765 43210"}
	address  = backend.ShippingAddress{
		FullName:   "Ada Lovelace",
		Phone:      "+91 98765 43210",
		Line1:      "12 Analytical Lane",
		City:       "Pune",
		State:      "MH",
		PostalCode: "411001",
		Country:    "India",
	}
)

// atPayment walks a new flow to the payment step with upi selected.
func atPayment(t *testing.T, fx *fixture) *checkout.Flow {
	t.Helper()

	f, err := checkout.Begin(context.Background(), fx.config())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(f.Close)

	if err := f.SubmitPersonalInfo(personal); err != nil {
		t.Fatal(err)
	}
	if err := f.SubmitShipping(address); err != nil {
		t.Fatal(err)
	}
	if err := f.SelectPaymentMethod("upi"); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestBeginSignedOut(t *testing.T) {
	fx := newFixture(t, thali())
	fx.sess.Logout()

	_, err := checkout.Begin(context.Background(), fx.config())
	if !errors.Is(err, checkout.ErrNotAuthenticated) {
		t.Fatalf("got %v, want %v", err, checkout.ErrNotAuthenticated)
	}
	if diff := cmp.Diff([]ui.Route{ui.Home()}, fx.rec.Routes()); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestBeginEmptyCart(t *testing.T) {
	fx := newFixture(t)

	_, err := checkout.Begin(context.Background(), fx.config())
	if !errors.Is(err, checkout.ErrEmptyCart) {
		t.Fatalf("got %v, want %v", err, checkout.ErrEmptyCart)
	}
	if len(fx.rec.warn) != 1 {
		t.Fatalf("expected an empty cart warning, got %v", fx.rec.warn)
	}

	select {
	case r := <-fx.rec.moved:
		if r != ui.Catalog() {
			t.Fatalf("navigated to %+v, want the catalog", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("never redirected to the catalog")
	}
}

func TestStepsInOrder(t *testing.T) {
	fx := newFixture(t, thali())
	fx.be.address = &address

	f, err := checkout.Begin(context.Background(), fx.config())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if f.Step() != checkout.StepPersonalInfo {
		t.Fatalf("step = %s", f.Step())
	}
	prefilled := backend.PersonalInfo{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	if diff := cmp.Diff(prefilled, f.PersonalInfo()); diff != "" {
		t.Fatalf("personal info prefill mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(address, f.ShippingAddress()); diff != "" {
		t.Fatalf("shipping prefill mismatch (-want +got):\n%s", diff)
	}

	if err := f.SubmitShipping(address); !errors.Is(err, checkout.ErrWrongStep) {
		t.Fatalf("shipping before personal info: got %v", err)
	}
	if err := f.SelectPaymentMethod("upi"); !errors.Is(err, checkout.ErrWrongStep) {
		t.Fatalf("payment method before payment step: got %v", err)
	}
	if err := f.Back(); !errors.Is(err, checkout.ErrWrongStep) {
		t.Fatalf("back from the first step: got %v", err)
	}

	bad := personal
	bad.Email = "not-an-email"
	var ve *checkout.ValidationError
	if err := f.SubmitPersonalInfo(bad); !errors.As(err, &ve) || ve.Step != checkout.StepPersonalInfo {
		t.Fatalf("invalid personal info: got %v", err)
	}
	if f.Step() != checkout.StepPersonalInfo || len(fx.rec.warn) != 1 {
		t.Fatalf("invalid input must warn and stay: step=%s warn=%v", f.Step(), fx.rec.warn)
	}

	if err := f.SubmitPersonalInfo(personal); err != nil {
		t.Fatal(err)
	}
	if err := f.Back(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(personal, f.PersonalInfo()); diff != "" {
		t.Fatalf("going back must keep input (-want +got):\n%s", diff)
	}
	if err := f.SubmitPersonalInfo(personal); err != nil {
		t.Fatal(err)
	}

	noCity := address
	noCity.City = ""
	if err := f.SubmitShipping(noCity); !errors.As(err, &ve) || ve.Step != checkout.StepShipping {
		t.Fatalf("invalid address: got %v", err)
	}
	if err := f.SubmitShipping(address); err != nil {
		t.Fatal(err)
	}
	if f.Step() != checkout.StepPayment {
		t.Fatalf("step = %s, want payment", f.Step())
	}

	if err := f.ProceedToPayment(context.Background()); !errors.Is(err, checkout.ErrNoPaymentMethod) {
		t.Fatalf("pay without a method: got %v", err)
	}
	if err := f.SelectPaymentMethod("bitcoin"); !errors.As(err, &ve) {
		t.Fatalf("unknown method: got %v", err)
	}
	if err := f.SelectPaymentMethod("card"); err != nil {
		t.Fatal(err)
	}

	for _, c := range fx.be.Calls() {
		if c == "update-profile" || c == "payment-order" {
			t.Fatalf("nothing may be sent before payment starts, saw %s", c)
		}
	}
}

func TestPaymentSucceeds(t *testing.T) {
	fx := newFixture(t, thali())
	f := atPayment(t, fx)

	if err := f.ProceedToPayment(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{"get-cart", "profile", "update-profile", "payment-key", "payment-order"}
	if diff := cmp.Diff(want, fx.be.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(address, fx.be.saved); diff != "" {
		t.Fatalf("saved address mismatch (-want +got):\n%s", diff)
	}

	opts := fx.widget.opened[0]
	expOpts := checkout.WidgetOptions{
		Key:         "rzp_test_key",
		OrderID:     "order_abc",
		Amount:      22900,
		Currency:    "INR",
		Name:        "Food Store",
		Description: "Order of 1 item(s)",
		Method:      "upi",
		Prefill:     checkout.Prefill{Name: "Ada Lovelace", Email: "ada@example.com", Contact: "+91 98765 43210"},
		ThemeColor:  "#F37254",
	}
	if diff := cmp.Diff(expOpts, opts); diff != "" {
		t.Fatalf("widget options mismatch (-want +got):\n%s", diff)
	}
	if o, _ := f.Outcome(); o != checkout.OutcomePending {
		t.Fatalf("outcome = %s while the widget is open", o)
	}

	h := fx.widget.handlers(0)
	h.OnSuccess(checkout.PaymentResult{PaymentID: "pay_1", GatewayOrderID: "order_abc"})
	h.OnSuccess(checkout.PaymentResult{PaymentID: "pay_1", GatewayOrderID: "order_abc"})

	if len(fx.be.orders) != 1 {
		t.Fatalf("created %d orders, want 1", len(fx.be.orders))
	}
	ord := fx.be.orders[0]
	if ord.PaymentID != "pay_1" || ord.PaymentMethod != "upi" || !ord.Total.Equal(decimal.NewFromInt(229)) {
		t.Fatalf("unexpected order %+v", ord)
	}
	if diff := cmp.Diff(personal, ord.PersonalInfo); diff != "" {
		t.Fatalf("order personal info mismatch (-want +got):\n%s", diff)
	}

	o, id := f.Outcome()
	if o != checkout.OutcomeConfirmed || id != "ord-1" {
		t.Fatalf("outcome = %s %q", o, id)
	}
	if fx.store.Count() != 0 {
		t.Fatal("the cart should be emptied")
	}
	if diff := cmp.Diff([]ui.Route{ui.OrderConfirmation("ord-1")}, fx.rec.Routes()); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}

	if err := f.SubmitPersonalInfo(personal); !errors.Is(err, checkout.ErrFinished) {
		t.Fatalf("after confirmation: got %v", err)
	}
}

func TestDismissThenRetry(t *testing.T) {
	fx := newFixture(t, thali())
	f := atPayment(t, fx)
	ctx := context.Background()

	if err := f.ProceedToPayment(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.ProceedToPayment(ctx); !errors.Is(err, checkout.ErrPaymentInFlight) {
		t.Fatalf("second payment while open: got %v", err)
	}
	if err := f.Back(); !errors.Is(err, checkout.ErrPaymentInFlight) {
		t.Fatalf("back while paying: got %v", err)
	}

	first := fx.widget.handlers(0)
	first.OnDismiss()
	if o, _ := f.Outcome(); o != checkout.OutcomeCancelled {
		t.Fatalf("outcome = %s, want cancelled", o)
	}
	if fx.store.Count() != 1 {
		t.Fatal("a dismissed payment keeps the cart")
	}

	if err := f.ProceedToPayment(ctx); err != nil {
		t.Fatal(err)
	}

	// Late callbacks of the first widget are ignored.
	first.OnSuccess(checkout.PaymentResult{PaymentID: "pay_stale"})
	if len(fx.be.orders) != 0 {
		t.Fatal("a stale callback must not create an order")
	}

	fx.widget.handlers(1).OnSuccess(checkout.PaymentResult{PaymentID: "pay_2"})
	if o, _ := f.Outcome(); o != checkout.OutcomeConfirmed {
		t.Fatalf("outcome = %s, want confirmed", o)
	}
	if len(fx.be.orders) != 1 || fx.be.orders[0].PaymentID != "pay_2" {
		t.Fatalf("unexpected orders %+v", fx.be.orders)
	}
}

func TestOrderCreationFails(t *testing.T) {
	fx := newFixture(t, thali())
	fx.be.orderErr = &backend.StatusError{Method: http.MethodPost, Path: "/api/orders", Status: http.StatusInternalServerError}
	f := atPayment(t, fx)

	if err := f.ProceedToPayment(context.Background()); err != nil {
		t.Fatal(err)
	}
	fx.widget.handlers(0).OnSuccess(checkout.PaymentResult{PaymentID: "pay_9"})

	if o, _ := f.Outcome(); o != checkout.OutcomeOrderFailed {
		t.Fatalf("outcome = %s, want order-failed", o)
	}
	if len(fx.rec.errs) != 1 || !strings.Contains(fx.rec.errs[0], "pay_9") {
		t.Fatalf("the error must name the payment id, got %v", fx.rec.errs)
	}
	for _, c := range fx.be.Calls() {
		if c == "clear-cart" {
			t.Fatal("the cart must not be cleared without an order")
		}
	}
	if fx.store.Count() != 1 {
		t.Fatal("the local cart must be kept")
	}
	if err := f.ProceedToPayment(context.Background()); !errors.Is(err, checkout.ErrFinished) {
		t.Fatalf("no retry after a captured payment: got %v", err)
	}
}

func TestUnauthorizedAborts(t *testing.T) {
	fx := newFixture(t, thali())
	fx.be.updateProfileErr = &backend.StatusError{Method: http.MethodPut, Path: "/api/users/profile", Status: http.StatusUnauthorized}
	f := atPayment(t, fx)

	if err := f.ProceedToPayment(context.Background()); !backend.IsUnauthorized(err) {
		t.Fatalf("got %v, want a 401", err)
	}
	if o, _ := f.Outcome(); o != checkout.OutcomeAborted {
		t.Fatalf("outcome = %s, want aborted", o)
	}
	if fx.sess.IsAuthenticated() {
		t.Fatal("the session should be signed out")
	}
	if diff := cmp.Diff([]ui.Route{ui.Home()}, fx.rec.Routes()); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
	if len(fx.widget.opened) != 0 {
		t.Fatal("the widget must not open")
	}
}

func TestAmountMismatch(t *testing.T) {
	fx := newFixture(t, thali())
	fx.be.amountOverride = 19900
	f := atPayment(t, fx)

	if err := f.ProceedToPayment(context.Background()); !errors.Is(err, checkout.ErrAmountMismatch) {
		t.Fatalf("got %v, want %v", err, checkout.ErrAmountMismatch)
	}
	if fx.be.amount != 22900 {
		t.Fatalf("requested %d, want the grand total 22900", fx.be.amount)
	}
	if len(fx.widget.opened) != 0 || len(fx.rec.errs) != 1 {
		t.Fatalf("expected no widget and one error, got %d widgets, errors %v", len(fx.widget.opened), fx.rec.errs)
	}

	fx.be.mu.Lock()
	fx.be.amountOverride = 0
	fx.be.mu.Unlock()
	if err := f.ProceedToPayment(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(fx.widget.opened) != 1 {
		t.Fatal("the retry should open the widget")
	}
}

func TestGatewayOrderFailureIsRetryable(t *testing.T) {
	fx := newFixture(t, thali())
	fx.be.paymentOrderErr = &backend.StatusError{Method: http.MethodPost, Path: "/api/payment/orders", Status: http.StatusBadGateway}
	f := atPayment(t, fx)

	if err := f.ProceedToPayment(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if o, _ := f.Outcome(); o != checkout.OutcomePending {
		t.Fatalf("outcome = %s, want pending", o)
	}
	if !fx.sess.IsAuthenticated() || len(fx.rec.errs) != 1 {
		t.Fatalf("expected one error and a live session, got %v", fx.rec.errs)
	}
	if err := f.Back(); err != nil {
		t.Fatalf("the flow should be usable again: %v", err)
	}
}

func TestCloseKeepsCapturedPayment(t *testing.T) {
	fx := newFixture(t, thali())
	f := atPayment(t, fx)

	if err := f.ProceedToPayment(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.Close()

	fx.widget.handlers(0).OnSuccess(checkout.PaymentResult{PaymentID: "pay_late"})
	if len(fx.be.orders) != 1 {
		t.Fatal("an order must be created for a payment captured after leaving checkout")
	}
	if err := f.SelectPaymentMethod("card"); !errors.Is(err, checkout.ErrClosed) {
		t.Fatalf("after close: got %v", err)
	}
}

func unauthorized(path string) error {
	return &backend.StatusError{Method: http.MethodPost, Path: path, Status: http.StatusUnauthorized}
}

// assertSignedOut checks the 401 rule: the session is gone and so is the cart.
func assertSignedOut(t *testing.T, fx *fixture) {
	t.Helper()

	if fx.sess.IsAuthenticated() {
		t.Fatal("the session should be signed out")
	}
	if n := len(fx.store.Items()); n != 0 {
		t.Fatalf("the cart should be empty, has %d lines", n)
	}
	fx.rec.mu.Lock()
	defer fx.rec.mu.Unlock()
	if len(fx.rec.warn) == 0 {
		t.Fatal("expected a session expired warning")
	}
}

func TestBeginProfileUnauthorized(t *testing.T) {
	fx := newFixture(t, thali())
	fx.be.fail = map[string]error{"profile": unauthorized("/api/users/profile")}

	f, err := checkout.Begin(context.Background(), fx.config())
	if !errors.Is(err, checkout.ErrNotAuthenticated) || f != nil {
		t.Fatalf("got flow=%v err=%v, want %v", f != nil, err, checkout.ErrNotAuthenticated)
	}
	assertSignedOut(t, fx)
	if diff := cmp.Diff([]ui.Route{ui.Home()}, fx.rec.Routes()); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestBeginCartUnauthorized(t *testing.T) {
	fx := newFixture(t, thali())
	fx.be.fail = map[string]error{"get-cart": unauthorized("/api/cart")}

	if _, err := checkout.Begin(context.Background(), fx.config()); !errors.Is(err, checkout.ErrNotAuthenticated) {
		t.Fatalf("got %v, want %v", err, checkout.ErrNotAuthenticated)
	}
	assertSignedOut(t, fx)
}

func TestPaymentCallsUnauthorized(t *testing.T) {
	tests := []struct {
		call string
		path string
	}{
		{"update-profile", "/api/users/profile"},
		{"payment-key", "/api/payment/key"},
		{"payment-order", "/api/payment/orders"},
	}

	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			fx := newFixture(t, thali())
			f := atPayment(t, fx)
			if err := fx.store.FetchCart(context.Background()); err != nil {
				t.Fatal(err)
			}

			fx.be.mu.Lock()
			fx.be.fail = map[string]error{tt.call: unauthorized(tt.path)}
			fx.be.mu.Unlock()

			if err := f.ProceedToPayment(context.Background()); !backend.IsUnauthorized(err) {
				t.Fatalf("got %v, want a 401", err)
			}
			if o, _ := f.Outcome(); o != checkout.OutcomeAborted {
				t.Fatalf("outcome = %s, want aborted", o)
			}
			assertSignedOut(t, fx)
			if diff := cmp.Diff([]ui.Route{ui.Home()}, fx.rec.Routes()); diff != "" {
				t.Fatalf("routes mismatch (-want +got):\n%s", diff)
			}
			if len(fx.widget.opened) != 0 {
				t.Fatal("the widget must not open")
			}
		})
	}
}

func TestOrderCreationUnauthorized(t *testing.T) {
	fx := newFixture(t, thali())
	f := atPayment(t, fx)
	if err := f.ProceedToPayment(context.Background()); err != nil {
		t.Fatal(err)
	}

	fx.be.mu.Lock()
	fx.be.fail = map[string]error{"create-order": unauthorized("/api/orders")}
	fx.be.mu.Unlock()
	fx.widget.handlers(0).OnSuccess(checkout.PaymentResult{PaymentID: "pay_401"})

	if o, _ := f.Outcome(); o != checkout.OutcomeOrderFailed {
		t.Fatalf("outcome = %s, want order-failed", o)
	}
	if len(fx.rec.errs) != 1 || !strings.Contains(fx.rec.errs[0], "pay_401") {
		t.Fatalf("the error must name the payment id, got %v", fx.rec.errs)
	}
	assertSignedOut(t, fx)
}

func TestClearCartUnauthorized(t *testing.T) {
	fx := newFixture(t, thali())
	f := atPayment(t, fx)
	if err := f.ProceedToPayment(context.Background()); err != nil {
		t.Fatal(err)
	}

	fx.be.mu.Lock()
	fx.be.fail = map[string]error{"clear-cart": unauthorized("/api/cart")}
	fx.be.mu.Unlock()
	fx.widget.handlers(0).OnSuccess(checkout.PaymentResult{PaymentID: "pay_2"})

	if o, id := f.Outcome(); o != checkout.OutcomeConfirmed || id != "ord-1" {
		t.Fatalf("outcome = %s %q, want the placed order confirmed", o, id)
	}
	if diff := cmp.Diff([]ui.Route{ui.OrderConfirmation("ord-1")}, fx.rec.Routes()); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
	assertSignedOut(t, fx)
}

func TestBlankFieldsRejected(t *testing.T) {
	fx := newFixture(t, thali())
	f, err := checkout.Begin(context.Background(), fx.config())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	blank := personal
	blank.FirstName = "   "
	var ve *checkout.ValidationError
	if err := f.SubmitPersonalInfo(blank); !errors.As(err, &ve) {
		t.Fatalf("blank first name: got %v", err)
	}
	if err := f.SubmitPersonalInfo(personal); err != nil {
		t.Fatal(err)
	}

	noCity := address
	noCity.City = " \t"
	if err := f.SubmitShipping(noCity); !errors.As(err, &ve) || ve.Step != checkout.StepShipping {
		t.Fatalf("blank city: got %v", err)
	}
}
