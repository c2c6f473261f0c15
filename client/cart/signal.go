package cart

import "sync"

// Signal broadcasts "the cart changed somewhere" to every listener. Notifications
// coalesce: a listener that has not drained its channel sees one pending signal.
type Signal struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

func NewSignal() *Signal {
	return &Signal{subs: make(map[int]chan struct{})}
}

func (s *Signal) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Signal) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
