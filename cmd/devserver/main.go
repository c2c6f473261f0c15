package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/e-commerce-food/api"
	"github.com/irsalhamdi/e-commerce-food/api/background"
	"github.com/irsalhamdi/e-commerce-food/config"
	"github.com/irsalhamdi/e-commerce-food/core/claims"
	"github.com/irsalhamdi/e-commerce-food/core/product"
	"github.com/irsalhamdi/e-commerce-food/email"
	"github.com/irsalhamdi/e-commerce-food/rate"
	"github.com/irsalhamdi/e-commerce-food/validate"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return
		}
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	const prefix = "FOODSTORE"
	var cfg config.Config
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
	logger.SetLevel(lvl)

	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime
	sessionManager.Cookie.Name = cfg.Session.CookieName
	sessionManager.Cookie.Secure = cfg.Session.Secure
	sessionManager.Cookie.HttpOnly = true

	bg := background.New(logger)

	limiter := rate.NewLimiter(cfg.OTP.Burst, cfg.OTP.Expiry, rate.Every(cfg.OTP.ResendEvery))
	defer limiter.Stop()

	repos := api.NewRepos(cfg.OTP.Timeout)

	mux, svc := api.APIMux(api.APIConfig{
		Log:        logger,
		Session:    sessionManager,
		Mailer:     email.NewLogMailer(logger),
		OTPLimiter: limiter,
		Background: bg,
		PaymentKey: cfg.Payment.Key,
		Currency:   cfg.Payment.Currency,
	}, repos)

	if _, err := svc.Seed(cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password, claims.RoleAdmin); err != nil {
		return fmt.Errorf("seeding the administrator: %w", err)
	}
	if cfg.SeedProducts {
		seedProducts(repos.Products)
	}

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}

var menu = []struct {
	name, category, image string
	original, discount    int64
}{
	{"Margherita Pizza", "pizza", "/img/margherita.jpg", 249, 199},
	{"Farmhouse Pizza", "pizza", "/img/farmhouse.jpg", 329, 289},
	{"Paneer Tikka Burger", "burger", "/img/paneer-burger.jpg", 159, 129},
	{"Veg Biryani", "rice", "/img/veg-biryani.jpg", 219, 179},
	{"Masala Dosa", "south-indian", "/img/masala-dosa.jpg", 99, 89},
	{"Cold Coffee", "beverages", "/img/cold-coffee.jpg", 89, 69},
}

func seedProducts(products *product.Repo) {
	now := time.Now().UTC()
	for i, m := range menu {
		products.Create(product.Product{
			ID:            validate.GenerateID(),
			Name:          m.name,
			Image:         m.image,
			Category:      m.category,
			OriginalPrice: decimal.NewFromInt(m.original),
			DiscountPrice: decimal.NewFromInt(m.discount),
			CreatedAt:     now.Add(time.Duration(i) * time.Second),
		})
	}
}
