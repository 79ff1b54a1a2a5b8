package slot

import "sync"

// Ticket identifies one request against a slot.
type Ticket uint64

// Slot holds the current value for one input (an uploaded image, say) and a
// generation counter. A result is applied only when its ticket is still the
// slot's latest, so completions from superseded requests are dropped.
type Slot[T any] struct {
	mu      sync.Mutex
	gen     Ticket
	value   T
	err     error
	present bool
	pending bool
}

// Begin invalidates the current value and any in-flight request.
func (s *Slot[T]) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	var zero T
	s.value, s.err, s.present, s.pending = zero, nil, false, true
	return s.gen
}

// Commit stores the result for t. It reports false when t is stale.
func (s *Slot[T]) Commit(t Ticket, value T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.gen {
		return false
	}
	s.pending = false
	s.err = err
	if err != nil {
		var zero T
		s.value, s.present = zero, false
		return true
	}
	s.value, s.present = value, true
	return true
}

// Set stores value directly as a fresh generation.
func (s *Slot[T]) Set(value T) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.value, s.err, s.present, s.pending = value, nil, true, false
	return s.gen
}

// Reset clears the slot and drops anything in flight.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	var zero T
	s.value, s.err, s.present, s.pending = zero, nil, false, false
}

func (s *Slot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.present
}

// Current reports whether t is still the slot's latest ticket.
func (s *Slot[T]) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t == s.gen
}

type State[T any] struct {
	Value   T
	Present bool
	Pending bool
	Err     error
}

func (s *Slot[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State[T]{Value: s.value, Present: s.present, Pending: s.pending, Err: s.err}
}
