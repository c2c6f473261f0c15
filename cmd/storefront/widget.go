package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/irsalhamdi/e-commerce-food/client/checkout"
	"github.com/shopspring/decimal"
)

// terminalWidget stands in for the gateway's hosted checkout: it prints the
// payment and lets the shell approve or dismiss it.
type terminalWidget struct {
	out io.Writer

	mu      sync.Mutex
	opts    checkout.WidgetOptions
	h       checkout.WidgetHandlers
	waiting bool
}

func (w *terminalWidget) Open(ctx context.Context, opts checkout.WidgetOptions, h checkout.WidgetHandlers) error {
	w.mu.Lock()
	w.opts, w.h, w.waiting = opts, h, true
	w.mu.Unlock()

	amount := decimal.New(opts.Amount, -2)
	fmt.Fprintf(w.out, "\n== %s ==\n", opts.Name)
	fmt.Fprintf(w.out, "%s\n", opts.Description)
	fmt.Fprintf(w.out, "pay %s %s by %s (order %s, key %s)\n", amount.StringFixed(2), opts.Currency, opts.Method, opts.OrderID, opts.Key)
	fmt.Fprintf(w.out, "billed to %s <%s> %s\n", opts.Prefill.Name, opts.Prefill.Email, opts.Prefill.Contact)
	return nil
}

// resolve settles the open payment; approved payments get a fresh payment id.
func (w *terminalWidget) resolve(approved bool) bool {
	w.mu.Lock()
	if !w.waiting {
		w.mu.Unlock()
		return false
	}
	w.waiting = false
	opts, h := w.opts, w.h
	w.mu.Unlock()

	if approved {
		h.OnSuccess(checkout.PaymentResult{
			PaymentID:      "pay_" + uuid.NewString(),
			GatewayOrderID: opts.OrderID,
		})
		return true
	}
	h.OnDismiss()
	return true
}
