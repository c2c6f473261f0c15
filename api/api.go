// Package api wires the development backend: every endpoint the storefront client
// talks to, backed by in-memory repositories.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/e-commerce-food/api/background"
	"github.com/irsalhamdi/e-commerce-food/api/middleware"
	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/irsalhamdi/e-commerce-food/core/auth"
	"github.com/irsalhamdi/e-commerce-food/core/cart"
	"github.com/irsalhamdi/e-commerce-food/core/order"
	"github.com/irsalhamdi/e-commerce-food/core/payment"
	"github.com/irsalhamdi/e-commerce-food/core/product"
	"github.com/irsalhamdi/e-commerce-food/core/user"
	"github.com/irsalhamdi/e-commerce-food/rate"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	Log        logrus.FieldLogger
	Session    *scs.SessionManager
	Mailer     auth.Mailer
	OTPLimiter *rate.Limiter
	Background *background.Background
	PaymentKey string
	Currency   string
}

// Repos are the in-memory tables behind the API. They are exposed so the server
// can seed them and tests can inspect them.
type Repos struct {
	Users    *user.Repo
	Tokens   *auth.Tokens
	OTPs     *auth.OTPs
	Products *product.Repo
	Carts    *cart.Repo
	Payments *payment.Repo
	Orders   *order.Repo
}

func NewRepos(otpTimeout time.Duration) *Repos {
	return &Repos{
		Users:    user.NewRepo(),
		Tokens:   auth.NewTokens(),
		OTPs:     auth.NewOTPs(otpTimeout),
		Products: product.NewRepo(),
		Carts:    cart.NewRepo(),
		Payments: payment.NewRepo(),
		Orders:   order.NewRepo(),
	}
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig, repos *Repos) (http.Handler, *auth.Service) {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log, "/health"))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	svc := &auth.Service{
		Users:      repos.Users,
		Tokens:     repos.Tokens,
		OTPs:       repos.OTPs,
		Session:    cfg.Session,
		Mailer:     cfg.Mailer,
		Background: cfg.Background,
		Limiter:    cfg.OTPLimiter,
		Log:        cfg.Log,
	}

	authen := auth.Authenticate(repos.Tokens)
	admin := auth.Admin()
	cookie := auth.Cookie(cfg.Session, repos.Users)

	a.Handle(http.MethodGet, "/health", Ping)

	a.Handle(http.MethodPost, "/api/auth/signup", svc.HandleSignup())
	a.Handle(http.MethodPost, "/api/auth/verify-otp", svc.HandleVerifyOTP())
	a.Handle(http.MethodPost, "/api/auth/resend-otp", svc.HandleResendOTP())
	a.Handle(http.MethodPost, "/api/auth/login", svc.HandleLogin())
	a.Handle(http.MethodPost, "/api/auth/logout", svc.HandleLogout())
	a.Handle(http.MethodPost, "/api/auth/forgot-password", svc.HandleForgotPassword())
	a.Handle(http.MethodPost, "/api/auth/reset-password", svc.HandleResetPassword())

	a.Handle(http.MethodGet, "/api/users/profile", user.HandleShowProfile(repos.Users), authen)
	a.Handle(http.MethodPut, "/api/users/profile", user.HandleUpdateProfile(repos.Users), authen)

	a.Handle(http.MethodGet, "/api/products", product.HandleList(repos.Products))
	a.Handle(http.MethodGet, "/api/products/{id}", product.HandleShow(repos.Products))
	a.Handle(http.MethodPost, "/api/products", product.HandleCreate(repos.Products), authen, admin)

	a.Handle(http.MethodGet, "/api/cart", cart.HandleShow(repos.Carts), authen)
	a.Handle(http.MethodPost, "/api/cart", cart.HandleCreateItem(repos.Carts), authen)
	a.Handle(http.MethodDelete, "/api/cart", cart.HandleDelete(repos.Carts), authen)
	a.Handle(http.MethodPatch, "/api/cart/{id}", cart.HandleUpdateItem(repos.Carts), authen)
	a.Handle(http.MethodDelete, "/api/cart/items/{name}", cart.HandleDeleteItem(repos.Carts), authen)

	a.Handle(http.MethodGet, "/api/payment/key", payment.HandleKey(cfg.PaymentKey))
	a.Handle(http.MethodPost, "/api/payment/orders", payment.HandleCreateOrder(repos.Payments, cfg.Currency), cookie)
	a.Handle(http.MethodGet, "/api/admin/payments", payment.HandleList(repos.Payments), authen, admin)

	a.Handle(http.MethodPost, "/api/orders", order.HandleCreate(repos.Orders, repos.Carts, repos.Payments), authen)
	a.Handle(http.MethodGet, "/api/orders", order.HandleListMine(repos.Orders), authen)
	a.Handle(http.MethodGet, "/api/orders/{id}", order.HandleShow(repos.Orders), authen)
	a.Handle(http.MethodGet, "/api/admin/orders", order.HandleListAll(repos.Orders), authen, admin)
	a.Handle(http.MethodPatch, "/api/admin/orders/{id}/status", order.HandleUpdateStatus(repos.Orders), authen, admin)

	return a.Router, svc
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {
	handler = web.WrapMiddleware(mw, handler)
	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {
			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}

// Ping is used by health checks.
func Ping(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, map[string]string{"status": "ok"}, http.StatusOK)
}
