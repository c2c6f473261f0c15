package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/e-commerce-food/api/background"
	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/irsalhamdi/e-commerce-food/api/weberr"
	"github.com/irsalhamdi/e-commerce-food/core/claims"
	"github.com/irsalhamdi/e-commerce-food/core/user"
	"github.com/irsalhamdi/e-commerce-food/email"
	"github.com/irsalhamdi/e-commerce-food/random"
	"github.com/irsalhamdi/e-commerce-food/rate"
	"github.com/irsalhamdi/e-commerce-food/validate"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const otpLength = 6

type Mailer interface {
	SendOTP(ctx context.Context, to string, code string, purpose email.Purpose) error
}

// Service bundles what the auth handlers share.
type Service struct {
	Users      *user.Repo
	Tokens     *Tokens
	OTPs       *OTPs
	Session    *scs.SessionManager
	Mailer     Mailer
	Background *background.Background
	Limiter    *rate.Limiter
	Log        logrus.FieldLogger
}

type Signup struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,notblank"`
}

type OTPCheck struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric,len=6"`
}

type EmailOnly struct {
	Email string `json:"email" validate:"required,email"`
}

type Reset struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required,numeric,len=6"`
	Password string `json:"password" validate:"required,min=8"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    user.User `json:"user"`
}

func decodeChecked(w http.ResponseWriter, r *http.Request, val any) error {
	if err := web.Decode(w, r, val); err != nil {
		return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
	}
	if err := validate.Check(val); err != nil {
		return weberr.BadRequest(err)
	}
	return nil
}

// sendOTP issues a fresh code and mails it in the background.
func (s *Service) sendOTP(to string, purpose email.Purpose) error {
	code, err := random.Digits(otpLength)
	if err != nil {
		return fmt.Errorf("generating otp: %w", err)
	}
	s.OTPs.Put(to, purpose, code)

	s.Background.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.Mailer.SendOTP(ctx, to, code, purpose); err != nil {
			s.Log.WithField("to", to).Errorf("sending %s otp: %v", purpose, err)
		}
	})
	return nil
}

// login issues a bearer token and binds the user to the session cookie.
func (s *Service) login(ctx context.Context, w http.ResponseWriter, u user.User) error {
	if err := s.Session.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	s.Session.Put(ctx, sessionUserKey, u.ID)

	tok := s.Tokens.Issue(claims.Claims{UserID: u.ID, Role: u.Role})
	return web.Respond(ctx, w, loginResponse{Success: true, Token: tok, User: u}, http.StatusOK)
}

func (s *Service) HandleSignup() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in Signup
		if err := decodeChecked(w, r, &in); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Name:         in.Name,
			Email:        in.Email,
			Role:         claims.RoleUser,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := s.Users.Create(u); err != nil {
			if errors.Is(err, user.ErrExists) {
				return weberr.Conflict(err, "email already registered", weberr.Quiet())
			}
			return fmt.Errorf("creating user: %w", err)
		}

		if err := s.sendOTP(u.Email, email.Verification); err != nil {
			return err
		}
		return web.Respond(ctx, w, messageResponse{"verification code sent"}, http.StatusCreated)
	}
}

func (s *Service) HandleVerifyOTP() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in OTPCheck
		if err := decodeChecked(w, r, &in); err != nil {
			return err
		}

		if err := s.OTPs.Consume(in.Email, email.Verification, in.OTP); err != nil {
			return weberr.BadRequest(err, weberr.Quiet())
		}

		u, err := s.Users.FetchByEmail(in.Email)
		if err != nil {
			return weberr.NotFound(fmt.Errorf("fetching user by email: %w", err))
		}

		u.Verified = true
		u.UpdatedAt = time.Now().UTC()
		if err := s.Users.Update(u); err != nil {
			return fmt.Errorf("activating user[%s]: %w", u.ID, err)
		}
		return s.login(ctx, w, u)
	}
}

func (s *Service) HandleResendOTP() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in EmailOnly
		if err := decodeChecked(w, r, &in); err != nil {
			return err
		}

		if !s.Limiter.Check(in.Email) {
			return weberr.TooManyRequests(fmt.Errorf("otp resend throttled for %s", in.Email), weberr.Quiet())
		}

		u, err := s.Users.FetchByEmail(in.Email)
		if err != nil || u.Verified {
			return web.Respond(ctx, w, messageResponse{"if the account needs verification, a code was sent"}, http.StatusOK)
		}

		if err := s.sendOTP(u.Email, email.Verification); err != nil {
			return err
		}
		return web.Respond(ctx, w, messageResponse{"if the account needs verification, a code was sent"}, http.StatusOK)
	}
}

func (s *Service) HandleLogin() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in Login
		if err := decodeChecked(w, r, &in); err != nil {
			return err
		}

		u, err := s.Users.FetchByEmail(in.Email)
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("login for unknown email: %w", err), weberr.Quiet())
		}

		if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password)); err != nil {
			return weberr.NotAuthorized(fmt.Errorf("login for user[%s]: %w", u.ID, err), weberr.Quiet())
		}

		if !u.Verified {
			err := errors.New("email not verified")
			return weberr.NewError(err, err.Error(), http.StatusForbidden, weberr.Quiet())
		}
		return s.login(ctx, w, u)
	}
}

func (s *Service) HandleLogout() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if tok := web.BearerToken(r); tok != "" {
			s.Tokens.Revoke(tok)
		}
		if err := s.Session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func (s *Service) HandleForgotPassword() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in EmailOnly
		if err := decodeChecked(w, r, &in); err != nil {
			return err
		}

		if !s.Limiter.Check(in.Email) {
			return weberr.TooManyRequests(fmt.Errorf("password reset throttled for %s", in.Email), weberr.Quiet())
		}

		// Unknown emails get the same answer so accounts can't be enumerated.
		if u, err := s.Users.FetchByEmail(in.Email); err == nil {
			if err := s.sendOTP(u.Email, email.Recovery); err != nil {
				return err
			}
		}
		return web.Respond(ctx, w, messageResponse{"if the account exists, a reset code was sent"}, http.StatusOK)
	}
}

func (s *Service) HandleResetPassword() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in Reset
		if err := decodeChecked(w, r, &in); err != nil {
			return err
		}

		if err := s.OTPs.Consume(in.Email, email.Recovery, in.OTP); err != nil {
			return weberr.BadRequest(err, weberr.Quiet())
		}

		u, err := s.Users.FetchByEmail(in.Email)
		if err != nil {
			return weberr.NotFound(fmt.Errorf("fetching user by email: %w", err))
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		u.PasswordHash = hash
		u.UpdatedAt = time.Now().UTC()
		if err := s.Users.Update(u); err != nil {
			return fmt.Errorf("updating password of user[%s]: %w", u.ID, err)
		}
		s.Tokens.RevokeUser(u.ID)

		return web.Respond(ctx, w, messageResponse{"password updated"}, http.StatusOK)
	}
}

// Seed registers an already verified account, e.g. the administrator configured at
// startup.
func (s *Service) Seed(name, addr, password, role string) (user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           validate.GenerateID(),
		Name:         name,
		Email:        addr,
		Role:         role,
		Verified:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(u); err != nil {
		return user.User{}, fmt.Errorf("seeding user %s: %w", addr, err)
	}
	return u, nil
}
