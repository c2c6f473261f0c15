package paypal_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/e-commerce-food/client/checkout"
	"github.com/irsalhamdi/e-commerce-food/client/gateway/paypal"
	paypalsdk "github.com/plutov/paypal/v4"
)

type mockPaypal struct {
	mu       sync.Mutex
	status   string
	captured []string
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		m.mu.Lock()
		m.captured = append(m.captured, id)
		status := m.status
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     id,
			"status": status,
			"purchase_units": []any{map[string]any{
				"reference_id": "default",
				"payments": map[string]any{
					"captures": []any{map[string]any{"id": "CAP-" + id, "status": status}},
				},
			}},
		})
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

func newWidget(t *testing.T, status string) (*paypal.Widget, *mockPaypal) {
	t.Helper()

	m := &mockPaypal{status: status}
	srv := httptest.NewServer(m.handle())
	t.Cleanup(srv.Close)

	pp, err := paypalsdk.NewClient("client-id", "secret", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pp.GetAccessToken(context.Background()); err != nil {
		t.Fatal(err)
	}
	return paypal.New(pp, nil), m
}

type recorder struct {
	mu        sync.Mutex
	results   []checkout.PaymentResult
	dismissed int
}

func (r *recorder) handlers() checkout.WidgetHandlers {
	return checkout.WidgetHandlers{
		OnSuccess: func(res checkout.PaymentResult) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.results = append(r.results, res)
		},
		OnDismiss: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.dismissed++
		},
	}
}

func TestApprove(t *testing.T) {
	w, m := newWidget(t, "COMPLETED")
	ctx := context.Background()

	var opened []string
	w.Opened = func(o checkout.WidgetOptions) { opened = append(opened, o.OrderID) }

	rec := &recorder{}
	if err := w.Open(ctx, checkout.WidgetOptions{OrderID: "ORDER-1", Amount: 22900, Currency: "INR"}, rec.handlers()); err != nil {
		t.Fatal(err)
	}
	if !w.Pending("ORDER-1") {
		t.Fatal("order should be pending after Open")
	}

	if err := w.Approve(ctx, "ORDER-1"); err != nil {
		t.Fatal(err)
	}

	exp := []checkout.PaymentResult{{PaymentID: "CAP-ORDER-1", GatewayOrderID: "ORDER-1"}}
	if diff := cmp.Diff(exp, rec.results); diff != "" {
		t.Fatalf("payment results mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ORDER-1"}, opened); diff != "" {
		t.Fatalf("opened mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ORDER-1"}, m.captured); diff != "" {
		t.Fatalf("captured mismatch (-want +got):\n%s", diff)
	}

	if err := w.Approve(ctx, "ORDER-1"); !errors.Is(err, paypal.ErrUnknownOrder) {
		t.Fatalf("second approve: got %v, want %v", err, paypal.ErrUnknownOrder)
	}
	if len(rec.results) != 1 {
		t.Fatalf("success fired %d times", len(rec.results))
	}
}

func TestApproveNotCompleted(t *testing.T) {
	w, _ := newWidget(t, "PAYER_ACTION_REQUIRED")
	ctx := context.Background()

	rec := &recorder{}
	if err := w.Open(ctx, checkout.WidgetOptions{OrderID: "ORDER-2"}, rec.handlers()); err != nil {
		t.Fatal(err)
	}

	if err := w.Approve(ctx, "ORDER-2"); err == nil {
		t.Fatal("expected an error for an incomplete capture")
	}
	if len(rec.results) != 0 || rec.dismissed != 0 {
		t.Fatalf("no handler should fire: %+v", rec)
	}
	if !w.Pending("ORDER-2") {
		t.Fatal("order should stay pending after a failed capture")
	}

	if err := w.Cancel("ORDER-2"); err != nil {
		t.Fatal(err)
	}
	if rec.dismissed != 1 {
		t.Fatalf("dismissed %d times, want 1", rec.dismissed)
	}
}

func TestCancelUnknown(t *testing.T) {
	w, _ := newWidget(t, "COMPLETED")

	if err := w.Cancel("nope"); !errors.Is(err, paypal.ErrUnknownOrder) {
		t.Fatalf("got %v, want %v", err, paypal.ErrUnknownOrder)
	}
	if err := w.Open(context.Background(), checkout.WidgetOptions{}, checkout.WidgetHandlers{}); err == nil {
		t.Fatal("expected an error without an order id")
	}
}
