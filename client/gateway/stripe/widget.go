// Package stripe completes checkout payments through Stripe Checkout sessions,
// learning the result from Stripe's signed webhook events.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/irsalhamdi/e-commerce-food/client/checkout"
	"github.com/sirupsen/logrus"
	stripesdk "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

const maxBodyBytes = 65536

const (
	eventCompleted          = "checkout.session.completed"
	eventExpired            = "checkout.session.expired"
	eventAsyncPaymentOK     = "checkout.session.async_payment_succeeded"
	eventAsyncPaymentFailed = "checkout.session.async_payment_failed"
)

var ErrUnknownSession = errors.New("no open payment for this stripe session")

type Widget struct {
	secret string
	log    logrus.FieldLogger

	// Opened, when set, is called after a session is registered, e.g. to send the
	// buyer to the hosted page for opts.OrderID.
	Opened func(opts checkout.WidgetOptions)

	mu      sync.Mutex
	pending map[string]checkout.WidgetHandlers
}

// New returns a widget verifying webhook events with the endpoint secret.
func New(webhookSecret string, log logrus.FieldLogger) *Widget {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Widget{secret: webhookSecret, log: log, pending: make(map[string]checkout.WidgetHandlers)}
}

// Open registers a checkout session; opts.OrderID is the session id.
func (w *Widget) Open(ctx context.Context, opts checkout.WidgetOptions, h checkout.WidgetHandlers) error {
	if opts.OrderID == "" {
		return errors.New("stripe checkout session id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	w.pending[opts.OrderID] = h
	w.mu.Unlock()

	w.log.WithFields(logrus.Fields{"session_id": opts.OrderID, "amount": opts.Amount}).Debug("stripe session opened")
	if w.Opened != nil {
		w.Opened(opts)
	}
	return nil
}

func (w *Widget) Pending(sessionID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[sessionID]
	return ok
}

// Cancel gives up on a session whose result never arrived. Events delivered
// for it afterwards are ignored.
func (w *Widget) Cancel(sessionID string) error {
	h, ok := w.take(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	w.log.WithField("session_id", sessionID).Info("stripe payment abandoned")
	if h.OnDismiss != nil {
		h.OnDismiss()
	}
	return nil
}

// Webhook receives Stripe events. Events for sessions this widget did not open
// are acknowledged and ignored.
func (w *Widget) Webhook() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
		if err != nil {
			http.Error(rw, "cannot read the request body", http.StatusBadRequest)
			return
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			http.Error(rw, "received stripe event is not signed", http.StatusBadRequest)
			return
		}

		event, err := webhook.ConstructEvent(b, sig, w.secret)
		if err != nil {
			w.log.Warnf("rejecting stripe event: %v", err)
			http.Error(rw, "cannot construct stripe event", http.StatusBadRequest)
			return
		}

		if err := w.handle(event); err != nil {
			w.log.Warnf("stripe event[%s]: %v", event.ID, err)
			http.Error(rw, "unable to decode stripe event", http.StatusBadRequest)
			return
		}
		rw.WriteHeader(http.StatusNoContent)
	})
}

func (w *Widget) handle(event stripesdk.Event) error {
	switch event.Type {
	case eventCompleted, eventExpired, eventAsyncPaymentOK, eventAsyncPaymentFailed:
	default:
		return nil
	}

	var session stripesdk.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("decoding checkout session: %w", err)
	}
	if session.Mode != stripesdk.CheckoutSessionModePayment {
		return nil
	}

	log := w.log.WithFields(logrus.Fields{"session_id": session.ID, "event": event.Type})

	switch event.Type {
	case eventCompleted, eventAsyncPaymentOK:
		// Delayed methods complete the session unpaid and settle later.
		if session.PaymentStatus == stripesdk.CheckoutSessionPaymentStatusUnpaid {
			log.Debug("waiting for asynchronous payment")
			return nil
		}
		h, ok := w.take(session.ID)
		if !ok {
			log.Debug("ignoring event for unknown session")
			return nil
		}
		res := checkout.PaymentResult{PaymentID: paymentID(&session), GatewayOrderID: session.ID}
		log.WithField("payment_id", res.PaymentID).Info("stripe payment completed")
		if h.OnSuccess != nil {
			h.OnSuccess(res)
		}

	case eventExpired, eventAsyncPaymentFailed:
		h, ok := w.take(session.ID)
		if !ok {
			log.Debug("ignoring event for unknown session")
			return nil
		}
		log.Info("stripe payment not completed")
		if h.OnDismiss != nil {
			h.OnDismiss()
		}
	}
	return nil
}

func (w *Widget) take(sessionID string) (checkout.WidgetHandlers, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	h, ok := w.pending[sessionID]
	delete(w.pending, sessionID)
	return h, ok
}

func paymentID(s *stripesdk.CheckoutSession) string {
	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		return s.PaymentIntent.ID
	}
	return s.ID
}
