package drag

import "sync"

// Subscription is the move/release listener set held for one drag.
// Release is idempotent, so callers can defer it on every exit path.
type Subscription struct {
	ctrl *Controller
	once sync.Once
	done bool
	mu   sync.Mutex
}

// Move forwards a pointer move to the controller. After release it
// returns the current position without moving.
func (s *Subscription) Move(pointer Coordinate) Coordinate {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done {
		return s.ctrl.Position()
	}

	c := s.ctrl
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.sub != s {
		return c.current
	}
	return c.moveLocked(c.active, pointer)
}

// Release ends the drag this subscription belongs to.
func (s *Subscription) Release() {
	s.once.Do(func() {
		s.mu.Lock()
		s.done = true
		s.mu.Unlock()
		s.ctrl.release(s)
	})
}

// Active reports whether the subscription still receives moves.
func (s *Subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.done
}
