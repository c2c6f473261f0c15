package cart

import (
	"context"
	"errors"
	"time"

	"github.com/irsalhamdi/e-commerce-food/client/session"
)

// StartPolling begins background reconciliation: a refetch on every tick and on
// every change signal. It is a no-op when already running.
func (s *Store) StartPolling() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if s.pollCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	changed, unsubscribe := s.signal.Subscribe()

	s.pollCancel = cancel
	s.pollDone = done

	go func() {
		defer close(done)
		defer unsubscribe()
		s.poll(ctx, changed)
	}()
}

// StopPolling cancels background reconciliation without waiting for it.
func (s *Store) StopPolling() {
	s.stopPolling(false)
}

func (s *Store) stopPolling(wait bool) {
	s.pollMu.Lock()
	cancel, done := s.pollCancel, s.pollDone
	s.pollCancel, s.pollDone = nil, nil
	s.pollMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if wait {
		<-done
	}
}

// Polling reports whether background reconciliation is running.
func (s *Store) Polling() bool {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	return s.pollCancel != nil
}

func (s *Store) poll(ctx context.Context, changed <-chan struct{}) {
	var tick <-chan time.Time
	if s.interval > 0 {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-changed:
		}

		if err := s.fetch(ctx); err != nil {
			if errors.Is(err, session.ErrNotAuthenticated) || errors.Is(err, ErrSessionExpired) {
				return
			}
			if ctx.Err() != nil {
				return
			}
			s.log.Debugf("background cart refresh: %v", err)
		}
	}
}
