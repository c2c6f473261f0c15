package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/irsalhamdi/e-commerce-food/client/backend"
	"github.com/irsalhamdi/e-commerce-food/client/cart"
	"github.com/irsalhamdi/e-commerce-food/client/checkout"
	"github.com/irsalhamdi/e-commerce-food/client/session"
	"github.com/irsalhamdi/e-commerce-food/client/ui"
	"github.com/irsalhamdi/e-commerce-food/config"
	"github.com/sirupsen/logrus"
)

const usage = `commands:
  signup | verify | login | logout | forgot | reset
  menu [category]       list products
  add <n> [qty]         add product n of the last menu listing
  cart                  show the cart and its totals
  qty <n> <qty>         change the quantity of cart line n
  rm <n>                remove cart line n
  checkout              place an order
  help | quit`

type shell struct {
	cfg      config.Storefront
	log      logrus.FieldLogger
	api      *backend.Client
	sess     *session.Session
	cart     *cart.Store
	notifier ui.Notifier
	gateway  gateway
	in       *bufio.Scanner
	out      io.Writer

	menu []backend.Product
	eof  bool
}

func (s *shell) run(ctx context.Context) error {
	if u, ok := s.sess.User(); ok {
		fmt.Fprintf(s.out, "signed in as %s\n", u.Email)
	}
	fmt.Fprintln(s.out, usage)

	for {
		line, ok := s.ask("> ")
		if !ok || ctx.Err() != nil {
			return nil
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		cmd, args := args[0], args[1:]
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := s.exec(ctx, cmd, args); err != nil {
			s.log.Debugf("%s: %v", cmd, err)
			fmt.Fprintf(s.out, "%s: %v\n", cmd, err)
		}
	}
}

func (s *shell) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup":
		return s.signup(ctx)
	case "verify":
		return s.verify(ctx)
	case "login":
		return s.login(ctx)
	case "logout":
		if err := s.api.Logout(ctx); err != nil {
			s.log.Warnf("server logout: %v", err)
		}
		s.sess.Logout()
		return nil
	case "forgot":
		addr, _ := s.ask("email: ")
		return s.api.ForgotPassword(ctx, addr)
	case "reset":
		addr, _ := s.ask("email: ")
		otp, _ := s.ask("code: ")
		pass, _ := s.ask("new password: ")
		return s.api.ResetPassword(ctx, addr, otp, pass)
	case "menu":
		var category string
		if len(args) > 0 {
			category = args[0]
		}
		return s.listMenu(ctx, category)
	case "add":
		return s.add(ctx, args)
	case "cart":
		if err := s.cart.FetchCart(ctx); err != nil {
			return err
		}
		s.printCart()
		return nil
	case "qty":
		return s.quantity(ctx, args)
	case "rm":
		it, err := s.line(args)
		if err != nil {
			return err
		}
		return s.cart.RemoveItem(ctx, it.Name)
	case "checkout":
		return s.checkout(ctx)
	case "help":
		fmt.Fprintln(s.out, usage)
		return nil
	}
	return fmt.Errorf("unknown command, try help")
}

func (s *shell) ask(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		s.eof = true
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// askDefault shows def and keeps it when the answer is empty.
func (s *shell) askDefault(prompt, def string) string {
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, def)
	}
	v, _ := s.ask(prompt + ": ")
	if v == "" {
		return def
	}
	return v
}

func (s *shell) signup(ctx context.Context) error {
	name, _ := s.ask("name: ")
	addr, _ := s.ask("email: ")
	pass, _ := s.ask("password: ")

	msg, err := s.api.Signup(ctx, backend.Signup{Name: name, Email: addr, Password: pass})
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, msg)
	return s.verifyEmail(ctx, addr)
}

func (s *shell) verify(ctx context.Context) error {
	addr, _ := s.ask("email: ")
	return s.verifyEmail(ctx, addr)
}

func (s *shell) verifyEmail(ctx context.Context, addr string) error {
	otp, _ := s.ask("code (empty to resend): ")
	if otp == "" {
		return s.api.ResendOTP(ctx, addr)
	}

	res, err := s.api.VerifyOTP(ctx, addr, otp)
	if err != nil {
		return err
	}
	return s.sess.Login(res.User.Identity(), res.Token)
}

func (s *shell) login(ctx context.Context) error {
	addr, _ := s.ask("email: ")
	pass, _ := s.ask("password: ")

	res, err := s.api.Login(ctx, addr, pass)
	if err != nil {
		return err
	}
	if err := s.sess.Login(res.User.Identity(), res.Token); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "welcome %s\n", res.User.Name)
	return nil
}

func (s *shell) listMenu(ctx context.Context, category string) error {
	ps, err := s.api.ListProducts(ctx, category)
	if err != nil {
		return err
	}

	s.menu = ps
	for i, p := range ps {
		fmt.Fprintf(s.out, "%2d  %-24s %-14s %8s (was %s)\n", i+1, p.Name, p.Category, p.DiscountPrice.StringFixed(2), p.OriginalPrice.StringFixed(2))
	}
	return nil
}

func (s *shell) add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: add <n> [qty]")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(s.menu) {
		return fmt.Errorf("no product %q in the last menu listing", args[0])
	}

	qty := 1
	if len(args) > 1 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("parsing quantity: %w", err)
		}
	}

	_, err = s.cart.AddItem(ctx, s.menu[n-1], qty)
	return err
}

func (s *shell) line(args []string) (cart.LineItem, error) {
	items := s.cart.Items()
	if len(args) == 0 {
		return cart.LineItem{}, errors.New("which cart line?")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(items) {
		return cart.LineItem{}, fmt.Errorf("no cart line %q", args[0])
	}
	return items[n-1], nil
}

func (s *shell) quantity(ctx context.Context, args []string) error {
	it, err := s.line(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errors.New("usage: qty <n> <qty>")
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("parsing quantity: %w", err)
	}
	return s.cart.UpdateQuantity(ctx, it.ID, qty)
}

func (s *shell) printCart() {
	items := s.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "your cart is empty")
		return
	}
	for i, it := range items {
		fmt.Fprintf(s.out, "%2d  %-24s x%-3d %8s\n", i+1, it.Name, it.Quantity, it.DiscountPrice.StringFixed(2))
	}
	s.printTotals(s.cart.Totals())
}

func (s *shell) printTotals(t cart.Totals) {
	fmt.Fprintf(s.out, "items %d  subtotal %s  you save %s\n", t.Count, t.Subtotal.StringFixed(2), t.Savings.StringFixed(2))
	if t.DeliveryWaived {
		fmt.Fprintln(s.out, "delivery FREE")
	} else {
		fmt.Fprintf(s.out, "delivery %s (free from %s)\n", t.DeliveryFee.StringFixed(2), s.cart.Pricing().FreeDeliveryThreshold.StringFixed(2))
	}
	fmt.Fprintf(s.out, "total %s\n", t.GrandTotal.StringFixed(2))
}

type navigator struct{ out io.Writer }

func (n navigator) Navigate(r ui.Route) {
	if r.Name == ui.RouteOrderConfirmation {
		fmt.Fprintf(n.out, "order %s confirmed, thank you!\n", r.OrderID)
		return
	}
	fmt.Fprintf(n.out, "(%s)\n", r.Name)
}

func (s *shell) checkout(ctx context.Context) error {
	f, err := checkout.Begin(ctx, checkout.Config{
		API:           s.api,
		Cart:          s.cart,
		Session:       s.sess,
		Widget:        s.gateway,
		Navigator:     navigator{out: s.out},
		Notifier:      s.notifier,
		Log:           s.log,
		RedirectDelay: s.cfg.Checkout.RedirectDelay,
		OrderTimeout:  s.cfg.Checkout.OrderTimeout,
		Currency:      s.cfg.Checkout.Currency,
		StoreName:     s.cfg.Checkout.StoreName,
		ThemeColor:    s.cfg.Checkout.ThemeColor,
	})
	if err != nil {
		return err
	}
	defer f.Close()

	s.printTotals(f.Totals())

	for !s.eof {
		var err error
		switch f.Step() {
		case checkout.StepPersonalInfo:
			p := f.PersonalInfo()
			err = f.SubmitPersonalInfo(backend.PersonalInfo{
				FirstName: s.askDefault("first name", p.FirstName),
				LastName:  s.askDefault("last name", p.LastName),
				Email:     s.askDefault("email", p.Email),
				Phone:     s.askDefault("phone", p.Phone),
			})

		case checkout.StepShipping:
			a := f.ShippingAddress()
			err = f.SubmitShipping(backend.ShippingAddress{
				FullName:   s.askDefault("full name", a.FullName),
				Phone:      s.askDefault("phone", a.Phone),
				Line1:      s.askDefault("address", a.Line1),
				Line2:      s.askDefault("address line 2", a.Line2),
				City:       s.askDefault("city", a.City),
				State:      s.askDefault("state", a.State),
				PostalCode: s.askDefault("postal code", a.PostalCode),
				Country:    s.askDefault("country", a.Country),
			})

		case checkout.StepPayment:
			method := s.askDefault("payment method ("+strings.Join(checkout.PaymentMethods, ", ")+", back or cancel)", f.PaymentMethod())
			if method == "cancel" {
				return nil
			}
			if method == "back" {
				err = f.Back()
				break
			}
			if err = f.SelectPaymentMethod(method); err != nil {
				break
			}
			if err = f.ProceedToPayment(ctx); err != nil {
				break
			}

			s.gateway.settle(ctx, s, f)

			switch o, _ := f.Outcome(); o {
			case checkout.OutcomeConfirmed, checkout.OutcomeOrderFailed, checkout.OutcomeAborted:
				return nil
			}
			again, _ := s.ask("try again? [y/N] ")
			if !strings.EqualFold(again, "y") {
				return nil
			}
		}

		if err == nil {
			continue
		}

		// Form and payment failures were already shown by the notifier.
		var ve *checkout.ValidationError
		switch {
		case errors.As(err, &ve), errors.Is(err, checkout.ErrNoPaymentMethod):
		case backend.IsUnauthorized(err), ctx.Err() != nil,
			errors.Is(err, checkout.ErrFinished), errors.Is(err, checkout.ErrClosed):
			return err
		default:
			s.log.Debugf("checkout: %v", err)
		}
	}
	return nil
}
