// Package cart holds the signed-in user's cart: it fetches and mutates the
// server-held cart, keeps a local copy for every view, and reconciles it in the
// background while the session is authenticated.
package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/irsalhamdi/e-commerce-food/client/backend"
	"github.com/irsalhamdi/e-commerce-food/client/session"
	"github.com/irsalhamdi/e-commerce-food/client/ui"
	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 10 * time.Second

var (
	ErrItemNotFound   = errors.New("item not in cart")
	ErrSessionExpired = errors.New("session expired")
	ErrStaleSession   = errors.New("request belonged to a previous session")
)

// API is the subset of the backend the store talks to.
type API interface {
	GetCart(ctx context.Context) ([]LineItem, error)
	AddCartItem(ctx context.Context, it backend.ItemNew) (string, error)
	UpdateCartQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteCartItem(ctx context.Context, name string) error
}

type Config struct {
	API      API
	Session  *session.Session
	Signal   *Signal
	Notifier ui.Notifier
	Log      logrus.FieldLogger
	Pricing  *Pricing

	// PollInterval defaults to DefaultPollInterval. A negative value disables the
	// timer; the change signal is still honored.
	PollInterval time.Duration
}

// Snapshot is what subscribers receive after every change of the local cart.
type Snapshot struct {
	Items  []LineItem
	Totals Totals
}

type Store struct {
	api      API
	sess     *session.Session
	signal   *Signal
	notify   ui.Notifier
	log      logrus.FieldLogger
	pricing  Pricing
	interval time.Duration

	mu    sync.Mutex
	items []LineItem
	epoch uint64

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int

	pollMu     sync.Mutex
	pollCancel context.CancelFunc
	pollDone   chan struct{}

	unsubSession func()
}

func New(cfg Config) *Store {
	s := &Store{
		api:      cfg.API,
		sess:     cfg.Session,
		signal:   cfg.Signal,
		notify:   cfg.Notifier,
		log:      cfg.Log,
		pricing:  DefaultPricing,
		interval: cfg.PollInterval,
		subs:     make(map[int]func(Snapshot)),
	}
	if s.signal == nil {
		s.signal = NewSignal()
	}
	if s.notify == nil {
		s.notify = ui.Discard{}
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}
	if cfg.Pricing != nil {
		s.pricing = *cfg.Pricing
	}
	if s.interval == 0 {
		s.interval = DefaultPollInterval
	}

	s.unsubSession = s.sess.Subscribe(s.onSession)
	if s.sess.IsAuthenticated() {
		s.StartPolling()
	}
	return s
}

// Close stops background reconciliation and detaches from the session. It waits
// for the reconciliation goroutine to exit.
func (s *Store) Close() {
	s.unsubSession()
	s.stopPolling(true)
}

func (s *Store) onSession(ev session.Event) {
	s.Reset()
	if ev.Authenticated {
		s.StartPolling()
		return
	}
	s.stopPolling(false)
}

func (s *Store) Signal() *Signal { return s.signal }

func (s *Store) Pricing() Pricing { return s.pricing }

// Items returns a copy of the line items.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the badge number: the sum of all quantities.
func (s *Store) Count() int {
	return s.Totals().Count
}

func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Compute(s.items, s.pricing)
}

func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Reset empties the local cart and invalidates any fetch still in flight.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = nil
	s.epoch++
	s.mu.Unlock()

	s.publish()
}

// FetchCart replaces the local items with the server's. Any 401 signs the
// session out.
func (s *Store) FetchCart(ctx context.Context) error {
	if err := s.fetch(ctx); err != nil {
		if !errors.Is(err, ErrSessionExpired) && !errors.Is(err, ErrStaleSession) && !errors.Is(err, session.ErrNotAuthenticated) {
			s.notify.Error("Could not load your cart. Please try again.")
		}
		return err
	}
	return nil
}

func (s *Store) fetch(ctx context.Context) error {
	if !s.sess.IsAuthenticated() {
		s.Reset()
		return session.ErrNotAuthenticated
	}

	epoch := s.currentEpoch()

	items, err := s.api.GetCart(ctx)
	if err != nil {
		if backend.IsUnauthorized(err) {
			return s.authFailure(err, epoch)
		}
		s.log.Warnf("fetching cart: %v", err)
		return fmt.Errorf("fetching cart: %w", err)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.log.Debug("dropping cart response from a previous session")
		return nil
	}
	s.items = items
	s.mu.Unlock()

	s.publish()
	return nil
}

// AddItem puts quantity units of p in the cart; a quantity below one adds a single
// unit. A product already in the cart is not an error: added is false and the
// user is told so.
func (s *Store) AddItem(ctx context.Context, p backend.Product, quantity int) (added bool, err error) {
	if !s.sess.IsAuthenticated() {
		s.notify.Info("Please log in to add items to your cart.")
		return false, session.ErrNotAuthenticated
	}
	if quantity < 1 {
		quantity = 1
	}

	epoch := s.currentEpoch()
	msg, err := s.api.AddCartItem(ctx, backend.ItemNew{
		Name:          p.Name,
		Image:         p.Image,
		Category:      p.Category,
		Description:   p.Description,
		OriginalPrice: p.OriginalPrice,
		DiscountPrice: p.DiscountPrice,
		Quantity:      quantity,
	})
	switch {
	case err == nil:
	case backend.IsStatus(err, 400):
		s.notify.Info(fmt.Sprintf("%s is already in your cart.", p.Name))
		return false, nil
	case backend.IsUnauthorized(err):
		return false, s.authFailure(err, epoch)
	default:
		s.log.WithField("item", p.Name).Warnf("adding to cart: %v", err)
		s.notify.Error("Could not add the item to your cart. Please try again.")
		return false, fmt.Errorf("adding %q to cart: %w", p.Name, err)
	}

	if msg == "" {
		msg = fmt.Sprintf("%s added to your cart.", p.Name)
	}
	s.notify.Info(msg)
	s.signal.Notify()
	return true, nil
}

// UpdateQuantity sets the quantity of line itemID, locally first. Quantities
// below one are ignored. When the server refuses, the local cart is reloaded from
// the server instead of being undone.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return nil
	}
	if !s.sess.IsAuthenticated() {
		return session.ErrNotAuthenticated
	}

	s.mu.Lock()
	idx := -1
	for i := range s.items {
		if s.items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	items[idx].Quantity = quantity
	s.items = items
	epoch := s.epoch
	s.mu.Unlock()
	s.publish()

	if err := s.api.UpdateCartQuantity(ctx, itemID, quantity); err != nil {
		if backend.IsUnauthorized(err) {
			return s.authFailure(err, epoch)
		}

		s.log.WithField("item_id", itemID).Warnf("updating quantity: %v", err)
		s.notify.Error("Could not update the quantity. Please try again.")
		if ferr := s.fetch(ctx); ferr != nil {
			s.log.Warnf("reloading cart after failed update: %v", ferr)
		}
		return fmt.Errorf("updating quantity of %s: %w", itemID, err)
	}

	s.signal.Notify()
	return nil
}

// RemoveItem drops the line named name, locally first. A failure is reported but
// not rolled back; the next reconciliation restores the server's view.
func (s *Store) RemoveItem(ctx context.Context, name string) error {
	if !s.sess.IsAuthenticated() {
		return session.ErrNotAuthenticated
	}

	s.mu.Lock()
	items := make([]LineItem, 0, len(s.items))
	for _, it := range s.items {
		if !strings.EqualFold(it.Name, name) {
			items = append(items, it)
		}
	}
	s.items = items
	epoch := s.epoch
	s.mu.Unlock()
	s.publish()

	if err := s.api.DeleteCartItem(ctx, name); err != nil {
		if backend.IsUnauthorized(err) {
			return s.authFailure(err, epoch)
		}

		s.log.WithField("item", name).Warnf("removing from cart: %v", err)
		s.notify.Error("Could not remove the item. Please try again.")
		return fmt.Errorf("removing %q from cart: %w", name, err)
	}

	s.signal.Notify()
	return nil
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// authFailure signs the session out, which empties this and every other store
// bound to it. A call started under an earlier epoch belongs to a session that
// is already gone, so its 401 leaves the current one alone. It must be called
// without s.mu held.
func (s *Store) authFailure(cause error, epoch uint64) error {
	if s.currentEpoch() != epoch {
		s.log.Debugf("ignoring 401 of a call from a previous session: %v", cause)
		return fmt.Errorf("%w: %v", ErrStaleSession, cause)
	}
	s.log.Warnf("cart call unauthorized: %v", cause)
	wasAuthenticated := s.sess.IsAuthenticated()

	s.sess.Logout()
	s.Reset()

	if wasAuthenticated {
		s.notify.Warn("Your session has expired. Please log in again.")
	}
	return fmt.Errorf("%w: %v", ErrSessionExpired, cause)
}

func (s *Store) publish() {
	items := s.Items()
	snap := Snapshot{Items: items, Totals: Compute(items, s.pricing)}

	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
