package stripe_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/e-commerce-food/client/checkout"
	"github.com/irsalhamdi/e-commerce-food/client/gateway/stripe"
	stripesdk "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

const secret = "whsec_test"

type recorder struct {
	results   []checkout.PaymentResult
	dismissed int
}

func (r *recorder) handlers() checkout.WidgetHandlers {
	return checkout.WidgetHandlers{
		OnSuccess: func(res checkout.PaymentResult) { r.results = append(r.results, res) },
		OnDismiss: func() { r.dismissed++ },
	}
}

func deliver(t *testing.T, h http.Handler, typ string, obj map[string]any, sign bool) int {
	t.Helper()

	raw, err := json.Marshal(obj)
	if err != nil {
		t.Fatal(err)
	}

	evt := map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"api_version": stripesdk.APIVersion,
		"type":        typ,
		"data":        map[string]any{"object": json.RawMessage(raw)},
	}
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBuffer(b))
	if sign {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload:   b,
			Secret:    secret,
			Timestamp: time.Now(),
		})
		r.Header.Set("Stripe-Signature", signed.Header)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Code
}

func TestWebhookCompleted(t *testing.T) {
	w := stripe.New(secret, nil)
	rec := &recorder{}
	if err := w.Open(context.Background(), checkout.WidgetOptions{OrderID: "cs_1"}, rec.handlers()); err != nil {
		t.Fatal(err)
	}

	code := deliver(t, w.Webhook(), "checkout.session.completed", map[string]any{
		"id":             "cs_1",
		"mode":           stripesdk.CheckoutSessionModePayment,
		"payment_status": "paid",
		"payment_intent": "pi_1",
	}, true)
	if code != http.StatusNoContent {
		t.Fatalf("status %d, want %d", code, http.StatusNoContent)
	}

	exp := []checkout.PaymentResult{{PaymentID: "pi_1", GatewayOrderID: "cs_1"}}
	if diff := cmp.Diff(exp, rec.results); diff != "" {
		t.Fatalf("payment results mismatch (-want +got):\n%s", diff)
	}
	if w.Pending("cs_1") {
		t.Fatal("session should no longer be pending")
	}

	// Stripe retries deliveries; a repeat must not fire again.
	deliver(t, w.Webhook(), "checkout.session.completed", map[string]any{
		"id":             "cs_1",
		"mode":           stripesdk.CheckoutSessionModePayment,
		"payment_status": "paid",
	}, true)
	if len(rec.results) != 1 {
		t.Fatalf("success fired %d times", len(rec.results))
	}
}

func TestWebhookAsyncPayment(t *testing.T) {
	w := stripe.New(secret, nil)
	rec := &recorder{}
	if err := w.Open(context.Background(), checkout.WidgetOptions{OrderID: "cs_2"}, rec.handlers()); err != nil {
		t.Fatal(err)
	}

	session := map[string]any{
		"id":             "cs_2",
		"mode":           stripesdk.CheckoutSessionModePayment,
		"payment_status": "unpaid",
	}
	deliver(t, w.Webhook(), "checkout.session.completed", session, true)
	if len(rec.results) != 0 || !w.Pending("cs_2") {
		t.Fatal("an unpaid session must keep waiting")
	}

	session["payment_status"] = "paid"
	deliver(t, w.Webhook(), "checkout.session.async_payment_succeeded", session, true)

	exp := []checkout.PaymentResult{{PaymentID: "cs_2", GatewayOrderID: "cs_2"}}
	if diff := cmp.Diff(exp, rec.results); diff != "" {
		t.Fatalf("payment results mismatch (-want +got):\n%s", diff)
	}
}

func TestWebhookExpired(t *testing.T) {
	w := stripe.New(secret, nil)
	rec := &recorder{}
	if err := w.Open(context.Background(), checkout.WidgetOptions{OrderID: "cs_3"}, rec.handlers()); err != nil {
		t.Fatal(err)
	}

	code := deliver(t, w.Webhook(), "checkout.session.expired", map[string]any{
		"id":   "cs_3",
		"mode": stripesdk.CheckoutSessionModePayment,
	}, true)
	if code != http.StatusNoContent {
		t.Fatalf("status %d, want %d", code, http.StatusNoContent)
	}
	if rec.dismissed != 1 || len(rec.results) != 0 {
		t.Fatalf("got %+v, want a single dismiss", rec)
	}
}

func TestWebhookRejects(t *testing.T) {
	w := stripe.New(secret, nil)
	rec := &recorder{}
	if err := w.Open(context.Background(), checkout.WidgetOptions{OrderID: "cs_4"}, rec.handlers()); err != nil {
		t.Fatal(err)
	}

	obj := map[string]any{"id": "cs_4", "mode": stripesdk.CheckoutSessionModePayment, "payment_status": "paid"}
	if code := deliver(t, w.Webhook(), "checkout.session.completed", obj, false); code != http.StatusBadRequest {
		t.Fatalf("unsigned event: status %d, want %d", code, http.StatusBadRequest)
	}

	other := stripe.New("whsec_other", nil)
	if code := deliver(t, other.Webhook(), "checkout.session.completed", obj, true); code != http.StatusBadRequest {
		t.Fatalf("wrong secret: status %d, want %d", code, http.StatusBadRequest)
	}

	if code := deliver(t, w.Webhook(), "customer.created", map[string]any{"id": "cus_1"}, true); code != http.StatusNoContent {
		t.Fatalf("unrelated event: status %d, want %d", code, http.StatusNoContent)
	}
	if code := deliver(t, w.Webhook(), "checkout.session.completed", map[string]any{
		"id": "cs_unknown", "mode": stripesdk.CheckoutSessionModePayment, "payment_status": "paid",
	}, true); code != http.StatusNoContent {
		t.Fatalf("unknown session: status %d, want %d", code, http.StatusNoContent)
	}

	if len(rec.results) != 0 || !w.Pending("cs_4") {
		t.Fatal("rejected events must not complete the payment")
	}
}

func TestCancel(t *testing.T) {
	w := stripe.New(secret, nil)
	rec := &recorder{}
	if err := w.Open(context.Background(), checkout.WidgetOptions{OrderID: "cs_4"}, rec.handlers()); err != nil {
		t.Fatal(err)
	}

	if err := w.Cancel("cs_4"); err != nil {
		t.Fatal(err)
	}
	if rec.dismissed != 1 || w.Pending("cs_4") {
		t.Fatalf("dismissed=%d pending=%v, want 1 and false", rec.dismissed, w.Pending("cs_4"))
	}
	if err := w.Cancel("cs_4"); !errors.Is(err, stripe.ErrUnknownSession) {
		t.Fatalf("got %v, want %v", err, stripe.ErrUnknownSession)
	}

	// A completion arriving after the cancel is acknowledged and dropped.
	code := deliver(t, w.Webhook(), "checkout.session.completed", map[string]any{
		"id":             "cs_4",
		"mode":           stripesdk.CheckoutSessionModePayment,
		"payment_status": "paid",
	}, true)
	if code != http.StatusNoContent || len(rec.results) != 0 {
		t.Fatalf("code=%d results=%v", code, rec.results)
	}
}
