// Package optimistic models a value shown to the shopper before the backend
// has confirmed it.
package optimistic

import "sync"

type State int

const (
	Confirmed State = iota
	Pending
)

func (s State) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Field holds a displayed value and the last value the backend confirmed.
//
// Transitions:
//
//	confirmed --Propose--> pending
//	pending   --Confirm--> confirmed(v)
//	pending   --Rollback--> confirmed(previous)
//	pending   --Abandon--> confirmed, tentative value still displayed
//	any       --Settle--> confirmed(v)
//
// Several proposals may be in flight; the field stays pending until every one
// of them has been resolved or a Settle supersedes them.
type Field[T comparable] struct {
	mu        sync.Mutex
	value     T
	confirmed T
	inflight  int
}

func NewField[T comparable](v T) *Field[T] {
	return &Field[T]{value: v, confirmed: v}
}

// Value is what should be displayed right now.
func (f *Field[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Confirmed is the last backend-confirmed value.
func (f *Field[T]) Confirmed() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed
}

func (f *Field[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inflight > 0 {
		return Pending
	}
	return Confirmed
}

// Propose displays next(current) ahead of confirmation and returns it.
func (f *Field[T]) Propose(next func(T) T) T {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = next(f.value)
	f.inflight++
	return f.value
}

func (f *Field[T]) Confirm(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	f.confirmed = v
	f.resolve()
}

func (f *Field[T]) Rollback() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = f.confirmed
	f.resolve()
}

// Abandon resolves a proposal without touching the displayed value, leaving
// it out of step with the confirmed one.
func (f *Field[T]) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolve()
}

// Settle adopts v as both displayed and confirmed, dropping every proposal.
func (f *Field[T]) Settle(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	f.confirmed = v
	f.inflight = 0
}

func (f *Field[T]) resolve() {
	if f.inflight > 0 {
		f.inflight--
	}
}
