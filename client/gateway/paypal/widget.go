// Package paypal completes checkout payments through PayPal orders. The buyer
// approves the order on PayPal; Approve then captures it and reports the
// capture to the checkout.
package paypal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/irsalhamdi/e-commerce-food/client/checkout"
	paypalsdk "github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
)

const statusCompleted = "COMPLETED"

var ErrUnknownOrder = errors.New("no open payment for this paypal order")

// Capturer is satisfied by *paypal.Client.
type Capturer interface {
	CaptureOrder(ctx context.Context, orderID string, req paypalsdk.CaptureOrderRequest) (*paypalsdk.CaptureOrderResponse, error)
}

type Widget struct {
	pp  Capturer
	log logrus.FieldLogger

	// Opened, when set, is called after a payment is registered, e.g. to show
	// the approval link for opts.OrderID.
	Opened func(opts checkout.WidgetOptions)

	mu      sync.Mutex
	pending map[string]checkout.WidgetHandlers
}

func New(pp Capturer, log logrus.FieldLogger) *Widget {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Widget{pp: pp, log: log, pending: make(map[string]checkout.WidgetHandlers)}
}

func (w *Widget) Open(ctx context.Context, opts checkout.WidgetOptions, h checkout.WidgetHandlers) error {
	if opts.OrderID == "" {
		return errors.New("paypal order id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	w.pending[opts.OrderID] = h
	w.mu.Unlock()

	w.log.WithFields(logrus.Fields{
		"order_id": opts.OrderID,
		"amount":   opts.Amount,
		"currency": opts.Currency,
	}).Debug("paypal payment opened")

	if w.Opened != nil {
		w.Opened(opts)
	}
	return nil
}

// Pending reports whether orderID is waiting for approval or cancellation.
func (w *Widget) Pending(orderID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[orderID]
	return ok
}

// Approve captures an order the buyer approved. A failed capture keeps the
// payment open so it can be approved again or cancelled.
func (w *Widget) Approve(ctx context.Context, orderID string) error {
	w.mu.Lock()
	h, ok := w.pending[orderID]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}

	resp, err := w.pp.CaptureOrder(ctx, orderID, paypalsdk.CaptureOrderRequest{})
	if err != nil {
		return fmt.Errorf("capturing paypal order[%s]: %w", orderID, err)
	}
	if resp.Status != statusCompleted {
		return fmt.Errorf("captured order[%s] with status[%s] different from '%s'", orderID, resp.Status, statusCompleted)
	}

	if !w.take(orderID) {
		// Cancelled while the capture was running.
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}

	res := checkout.PaymentResult{PaymentID: captureID(resp), GatewayOrderID: orderID}
	w.log.WithFields(logrus.Fields{"order_id": orderID, "payment_id": res.PaymentID}).Info("paypal payment captured")
	if h.OnSuccess != nil {
		h.OnSuccess(res)
	}
	return nil
}

// Cancel reports that the buyer left PayPal without approving.
func (w *Widget) Cancel(orderID string) error {
	w.mu.Lock()
	h, ok := w.pending[orderID]
	delete(w.pending, orderID)
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}

	w.log.WithField("order_id", orderID).Info("paypal payment cancelled")
	if h.OnDismiss != nil {
		h.OnDismiss()
	}
	return nil
}

func (w *Widget) take(orderID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[orderID]
	delete(w.pending, orderID)
	return ok
}

// captureID is the id of the first capture, falling back to the order id.
func captureID(resp *paypalsdk.CaptureOrderResponse) string {
	for _, pu := range resp.PurchaseUnits {
		if pu.Payments == nil {
			continue
		}
		for _, c := range pu.Payments.Captures {
			if c.ID != "" {
				return c.ID
			}
		}
	}
	return resp.ID
}
