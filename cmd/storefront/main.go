package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/e-commerce-food/client/backend"
	"github.com/irsalhamdi/e-commerce-food/client/cart"
	"github.com/irsalhamdi/e-commerce-food/client/session"
	"github.com/irsalhamdi/e-commerce-food/client/ui"
	"github.com/irsalhamdi/e-commerce-food/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if err := Run(log); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return
		}
		log.Error(err)
		os.Exit(1)
	}
}

func Run(log *logrus.Logger) error {
	const prefix = "FOODSTORE"
	var cfg config.Storefront
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return err
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(lvl)

	pricing, err := parsePricing(cfg.Cart)
	if err != nil {
		return err
	}

	// The session cookie is stored next to the token, so cookie-authenticated
	// calls survive a restart too.
	fs := session.FileStore{Path: cfg.SessionFile}
	sess := session.New(fs, log)

	cl, err := backend.New(cfg.Backend.URL, sess,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(log),
		backend.WithCookieStore(fs),
	)
	if err != nil {
		return fmt.Errorf("building backend client: %w", err)
	}

	// Notifications are what the user reads, so they go to stdout regardless of
	// the log level.
	out := logrus.New()
	out.SetOutput(os.Stdout)
	out.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	notifier := ui.LogNotifier{Log: out}

	if err := sess.Restore(); err != nil {
		log.Warnf("restoring session: %v", err)
	}

	store := cart.New(cart.Config{
		API:          cl,
		Session:      sess,
		Notifier:     notifier,
		Log:          log,
		Pricing:      &pricing,
		PollInterval: cfg.Cart.PollInterval,
	})
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := newGateway(ctx, cfg.Gateway, log, os.Stdout)
	if err != nil {
		return fmt.Errorf("building payment gateway: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gw.Close(ctx); err != nil {
			log.Warnf("closing payment gateway: %v", err)
		}
	}()

	sh := &shell{
		cfg:      cfg,
		log:      log,
		api:      cl,
		sess:     sess,
		cart:     store,
		notifier: notifier,
		gateway:  gw,
		in:       bufio.NewScanner(os.Stdin),
		out:      os.Stdout,
	}
	return sh.run(ctx)
}

func parsePricing(c config.Cart) (cart.Pricing, error) {
	fee, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return cart.Pricing{}, fmt.Errorf("parsing delivery fee %q: %w", c.DeliveryFee, err)
	}
	free, err := decimal.NewFromString(c.FreeDeliveryAbove)
	if err != nil {
		return cart.Pricing{}, fmt.Errorf("parsing free delivery threshold %q: %w", c.FreeDeliveryAbove, err)
	}
	return cart.Pricing{DeliveryFee: fee, FreeDeliveryThreshold: free}, nil
}
