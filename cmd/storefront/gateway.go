package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/irsalhamdi/e-commerce-food/client/checkout"
	"github.com/irsalhamdi/e-commerce-food/client/gateway/paypal"
	"github.com/irsalhamdi/e-commerce-food/client/gateway/stripe"
	"github.com/irsalhamdi/e-commerce-food/config"
	paypalsdk "github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
)

const (
	gatewayTerminal = "terminal"
	gatewayPayPal   = "paypal"
	gatewayStripe   = "stripe"
)

// gateway is the payment widget of the storefront plus the terminal side of
// it: settle runs once the widget is open and returns when the attempt has
// left the pending state.
type gateway interface {
	checkout.Widget
	settle(ctx context.Context, s *shell, f *checkout.Flow)
	Close(ctx context.Context) error
}

func newGateway(ctx context.Context, cfg config.Gateway, log logrus.FieldLogger, out io.Writer) (gateway, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", gatewayTerminal:
		return &terminalWidget{out: out}, nil
	case gatewayPayPal:
		return newPayPalGateway(ctx, cfg.PayPal, log, out)
	case gatewayStripe:
		return newStripeGateway(cfg.Stripe, log, out)
	}
	return nil, fmt.Errorf("unknown payment gateway %q, want %s, %s or %s", cfg.Kind, gatewayTerminal, gatewayPayPal, gatewayStripe)
}

func (w *terminalWidget) settle(ctx context.Context, s *shell, f *checkout.Flow) {
	answer, _ := s.ask("approve payment? [y/N] ")
	w.resolve(strings.EqualFold(answer, "y"))
}

func (w *terminalWidget) Close(ctx context.Context) error { return nil }

type payPalGateway struct {
	*paypal.Widget
	out io.Writer
	log logrus.FieldLogger

	mu      sync.Mutex
	orderID string
}

func newPayPalGateway(ctx context.Context, cfg config.PayPal, log logrus.FieldLogger, out io.Writer) (*payPalGateway, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, errors.New("paypal gateway needs a client id and secret")
	}

	pp, err := paypalsdk.NewClient(cfg.ClientID, cfg.Secret, cfg.APIBase)
	if err != nil {
		return nil, fmt.Errorf("creating paypal client: %w", err)
	}
	if _, err := pp.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("getting paypal access token: %w", err)
	}

	g := &payPalGateway{Widget: paypal.New(pp, log), out: out, log: log}
	g.Opened = g.opened
	return g, nil
}

func (g *payPalGateway) opened(opts checkout.WidgetOptions) {
	g.mu.Lock()
	g.orderID = opts.OrderID
	g.mu.Unlock()
	fmt.Fprintf(g.out, "approve paypal order %s, then come back here\n", opts.OrderID)
}

func (g *payPalGateway) settle(ctx context.Context, s *shell, f *checkout.Flow) {
	g.mu.Lock()
	id := g.orderID
	g.mu.Unlock()
	if !g.Pending(id) {
		return
	}

	answer, _ := s.ask("approved on paypal? [y/N] ")
	if strings.EqualFold(answer, "y") {
		err := g.Approve(ctx, id)
		if err == nil {
			return
		}
		g.log.Warnf("paypal approval: %v", err)
		fmt.Fprintf(g.out, "could not capture the paypal payment: %v\n", err)
	}
	if err := g.Cancel(id); err != nil && !errors.Is(err, paypal.ErrUnknownOrder) {
		g.log.Warnf("cancelling paypal order: %v", err)
	}
}

func (g *payPalGateway) Close(ctx context.Context) error { return nil }

type stripeGateway struct {
	*stripe.Widget
	out  io.Writer
	log  logrus.FieldLogger
	wait time.Duration
	srv  *http.Server
	addr net.Addr

	mu        sync.Mutex
	sessionID string
}

// newStripeGateway listens for Stripe's webhook events until Close.
func newStripeGateway(cfg config.Stripe, log logrus.FieldLogger, out io.Writer) (*stripeGateway, error) {
	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe gateway needs a webhook secret")
	}

	ln, err := net.Listen("tcp", cfg.WebhookAddress)
	if err != nil {
		return nil, fmt.Errorf("listening for stripe webhooks: %w", err)
	}

	g := &stripeGateway{
		Widget: stripe.New(cfg.WebhookSecret, log),
		out:    out,
		log:    log,
		wait:   cfg.WaitTimeout,
		addr:   ln.Addr(),
	}
	g.Opened = g.opened

	mux := http.NewServeMux()
	mux.Handle("/stripe/webhook", g.Webhook())
	g.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("stripe webhook listening on %s", ln.Addr())
		if err := g.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("stripe webhook server: %v", err)
		}
	}()
	return g, nil
}

func (g *stripeGateway) opened(opts checkout.WidgetOptions) {
	g.mu.Lock()
	g.sessionID = opts.OrderID
	g.mu.Unlock()
	fmt.Fprintf(g.out, "complete stripe checkout session %s, waiting for the result...\n", opts.OrderID)
}

// settle waits for the webhook to decide the attempt. Past the wait timeout the
// session is given up; an order already being placed is still waited for.
func (g *stripeGateway) settle(ctx context.Context, s *shell, f *checkout.Flow) {
	g.mu.Lock()
	id := g.sessionID
	g.mu.Unlock()

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	timeout := time.NewTimer(g.wait)
	defer timeout.Stop()

	for {
		if o, _ := f.Outcome(); o != checkout.OutcomePending {
			return
		}

		select {
		case <-ctx.Done():
			g.abandon(id)
			return
		case <-timeout.C:
			fmt.Fprintln(g.out, "no payment result from stripe, giving up")
			g.abandon(id)
		case <-tick.C:
		}
	}
}

func (g *stripeGateway) abandon(id string) {
	if err := g.Cancel(id); err != nil && !errors.Is(err, stripe.ErrUnknownSession) {
		g.log.Warnf("cancelling stripe session: %v", err)
	}
}

func (g *stripeGateway) Close(ctx context.Context) error {
	return g.srv.Shutdown(ctx)
}
