package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/e-commerce-food/client/backend"
	"github.com/irsalhamdi/e-commerce-food/client/cart"
	"github.com/irsalhamdi/e-commerce-food/client/ui"
	"github.com/sirupsen/logrus"
)

// attempt is what a single press of "Proceed to Payment" works with.
type attempt struct {
	seq      int
	personal backend.PersonalInfo
	shipping backend.ShippingAddress
	method   string
	totals   cart.Totals
	order    backend.PaymentOrder
}

// ProceedToPayment saves the shipping address, creates the gateway order for the
// grand total and opens the payment widget. It returns once the widget is open;
// the attempt then waits for the widget's success or dismiss callback. Any
// failure before that aborts the attempt, which may be retried, except a 401,
// which signs out and goes home.
func (f *Flow) ProceedToPayment(ctx context.Context) error {
	f.mu.Lock()
	if err := f.usable(); err != nil {
		f.mu.Unlock()
		return err
	}
	switch {
	case f.step != StepPayment:
		f.mu.Unlock()
		return ErrWrongStep
	case f.inFlight:
		f.mu.Unlock()
		return ErrPaymentInFlight
	case f.method == "":
		f.mu.Unlock()
		f.cfg.Notifier.Warn("Please select a payment method.")
		return ErrNoPaymentMethod
	}

	f.inFlight = true
	f.outcome = OutcomePending
	f.attempt++
	at := attempt{
		seq:      f.attempt,
		personal: f.personal,
		shipping: f.shipping,
		method:   f.method,
	}
	f.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(f.ctx, cancel)
	defer stop()

	log := f.cfg.Log.WithField("attempt", at.seq)

	at.totals = f.cfg.Cart.Totals()
	if at.totals.Count == 0 {
		return f.abort(at, ErrEmptyCart, "Your cart is empty.")
	}

	if _, err := f.cfg.API.UpdateProfile(ctx, at.shipping); err != nil {
		return f.abort(at, fmt.Errorf("saving shipping address: %w", err), "Could not save your shipping address. Please try again.")
	}

	key, err := f.cfg.API.PaymentKey(ctx)
	if err != nil {
		return f.abort(at, fmt.Errorf("fetching payment key: %w", err), "Could not reach the payment service. Please try again.")
	}

	amount := cart.MinorUnits(at.totals.GrandTotal)
	at.order, err = f.cfg.API.CreatePaymentOrder(ctx, amount, f.cfg.Currency)
	if err != nil {
		return f.abort(at, fmt.Errorf("creating payment order: %w", err), "Could not start the payment. Please try again.")
	}
	if at.order.Amount != amount {
		err := fmt.Errorf("%w: order %s is %d, cart is %d", ErrAmountMismatch, at.order.ID, at.order.Amount, amount)
		return f.abort(at, err, "The payment amount did not match your cart. Please try again.")
	}

	opts := WidgetOptions{
		Key:         key,
		OrderID:     at.order.ID,
		Amount:      at.order.Amount,
		Currency:    f.cfg.Currency,
		Name:        f.cfg.StoreName,
		Description: fmt.Sprintf("Order of %d item(s)", at.totals.Count),
		Method:      at.method,
		Prefill: Prefill{
			Name:    at.personal.FirstName + " " + at.personal.LastName,
			Email:   at.personal.Email,
			Contact: at.personal.Phone,
		},
		ThemeColor: f.cfg.ThemeColor,
	}
	handlers := WidgetHandlers{
		OnSuccess: func(r PaymentResult) { f.paymentSucceeded(at, r) },
		OnDismiss: func() { f.paymentDismissed(at) },
	}

	if err := f.cfg.Widget.Open(ctx, opts, handlers); err != nil {
		return f.abort(at, fmt.Errorf("opening payment widget: %w", err), "Could not open the payment window. Please try again.")
	}

	log.WithFields(logrus.Fields{
		"gateway_order_id": at.order.ID,
		"amount":           at.order.Amount,
	}).Info("payment widget opened")
	return nil
}

// abort ends the attempt before the widget opened.
func (f *Flow) abort(at attempt, err error, msg string) error {
	expired := backend.IsUnauthorized(err)

	f.mu.Lock()
	if f.attempt == at.seq {
		f.inFlight = false
		if expired {
			f.outcome = OutcomeAborted
		}
	}
	closed := f.closed
	f.mu.Unlock()

	if expired {
		f.signOut(err)
		f.cfg.Navigator.Navigate(ui.Home())
		return err
	}

	f.cfg.Log.WithField("attempt", at.seq).Warnf("payment attempt failed: %v", err)
	if !closed && !errors.Is(err, context.Canceled) {
		f.cfg.Notifier.Error(msg)
	}
	return err
}

// claimPlacing claims the attempt and marks its order as being created. inFlight
// stays set until then so no second payment can start.
func (f *Flow) claimPlacing(at attempt) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.claimable(at) {
		return false
	}
	f.placing = true
	return true
}

// claimable reports whether a callback for at is the first one of the current
// attempt. f.mu must be held.
func (f *Flow) claimable(at attempt) bool {
	if f.attempt != at.seq || !f.inFlight || f.placing || f.outcome.terminal() {
		return false
	}
	return true
}

func (f *Flow) paymentSucceeded(at attempt, r PaymentResult) {
	log := f.cfg.Log.WithFields(logrus.Fields{
		"attempt":          at.seq,
		"payment_id":       r.PaymentID,
		"gateway_order_id": at.order.ID,
	})

	if !f.claimPlacing(at) {
		log.Warn("ignoring payment callback for an attempt that is no longer active")
		return
	}

	gatewayOrderID := r.GatewayOrderID
	if gatewayOrderID == "" {
		gatewayOrderID = at.order.ID
	}

	// The payment is captured at this point, so leaving the page must not cancel
	// order creation.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(f.ctx), f.cfg.OrderTimeout)
	defer cancel()

	id, err := f.cfg.API.CreateOrder(ctx, backend.OrderNew{
		PersonalInfo:    at.personal,
		ShippingAddress: at.shipping,
		PaymentMethod:   at.method,
		PaymentID:       r.PaymentID,
		GatewayOrderID:  gatewayOrderID,
		Total:           at.totals.GrandTotal,
	})
	if err != nil {
		f.finish(OutcomeOrderFailed, "")
		log.Errorf("payment captured but order creation failed: %v", err)
		f.cfg.Notifier.Error(fmt.Sprintf(
			"Payment succeeded but we could not place your order. Please contact support with payment id %s.",
			r.PaymentID,
		))
		if backend.IsUnauthorized(err) {
			f.signOut(err)
			f.cfg.Navigator.Navigate(ui.Home())
		}
		return
	}

	clearErr := f.cfg.API.ClearCart(ctx)
	if clearErr != nil {
		log.Warnf("clearing cart after order %s: %v", id, clearErr)
	}
	f.cfg.Cart.Reset()
	f.cfg.Cart.Signal().Notify()

	f.finish(OutcomeConfirmed, id)
	log.WithField("order_id", id).Info("order placed")
	f.cfg.Notifier.Info("Order placed successfully!")
	f.cfg.Navigator.Navigate(ui.OrderConfirmation(id))

	// The order exists, so the confirmation is still shown before signing out.
	if backend.IsUnauthorized(clearErr) {
		f.signOut(clearErr)
	}
}

func (f *Flow) paymentDismissed(at attempt) {
	f.mu.Lock()
	if !f.claimable(at) {
		f.mu.Unlock()
		return
	}
	f.inFlight = false
	f.outcome = OutcomeCancelled
	f.mu.Unlock()

	f.cfg.Log.WithField("attempt", at.seq).Info("payment widget dismissed")
	f.cfg.Notifier.Info("Payment cancelled. You can try again whenever you are ready.")
}

func (f *Flow) finish(o Outcome, orderID string) {
	f.mu.Lock()
	f.inFlight = false
	f.placing = false
	f.outcome = o
	f.orderID = orderID
	f.mu.Unlock()
}
