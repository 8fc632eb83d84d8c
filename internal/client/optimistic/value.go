// Package optimistic implements a two-phase value for optimistic UI updates.
//
// A screen applies a tentative value immediately, then commits the
// server-confirmed value or rolls back to the previous one once the request
// finishes. Only the newest pending change may resolve; an older one that
// finishes late is ignored.
package optimistic

import "sync"

// Value holds a value that may be tentatively changed. Safe for concurrent use.
type Value[T any] struct {
	current   T
	confirmed T
	listeners []func(T)
	seq       uint64
	pending   bool
	mu        sync.Mutex
}

// Pending is a tentative change returned by Value.Apply.
type Pending[T any] struct {
	v   *Value[T]
	seq uint64
}

// New returns a Value holding initial as its confirmed value.
func New[T any](initial T) *Value[T] {
	return &Value[T]{current: initial, confirmed: initial}
}

// Get returns the displayed value, tentative or confirmed.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Confirmed returns the last value confirmed by Commit or Set.
func (v *Value[T]) Confirmed() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.confirmed
}

// IsPending reports whether a tentative change is waiting to be resolved.
func (v *Value[T]) IsPending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending
}

// Set replaces the value outright and supersedes any pending change.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	v.seq++
	v.pending = false
	v.current, v.confirmed = value, value
	listeners := v.listeners
	v.mu.Unlock()

	notify(listeners, value)
}

// Apply shows tentative right away and returns the handle that resolves it.
func (v *Value[T]) Apply(tentative T) *Pending[T] {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.pending = true
	v.current = tentative
	listeners := v.listeners
	v.mu.Unlock()

	notify(listeners, tentative)
	return &Pending[T]{v: v, seq: seq}
}

// OnChange registers fn to be called after every visible change.
// fn is called without the lock held and must not block.
func (v *Value[T]) OnChange(fn func(T)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// Commit makes final the confirmed value. It reports false if a newer
// change superseded this one.
func (p *Pending[T]) Commit(final T) bool {
	return p.resolve(func(v *Value[T]) T {
		v.confirmed = final
		return final
	})
}

// Rollback restores the last confirmed value. It reports false if a newer
// change superseded this one.
func (p *Pending[T]) Rollback() bool {
	return p.resolve(func(v *Value[T]) T {
		return v.confirmed
	})
}

func (p *Pending[T]) resolve(next func(v *Value[T]) T) bool {
	v := p.v
	v.mu.Lock()
	if !v.pending || v.seq != p.seq {
		v.mu.Unlock()
		return false
	}
	v.pending = false
	v.current = next(v)
	value := v.current
	listeners := v.listeners
	v.mu.Unlock()

	notify(listeners, value)
	return true
}

func notify[T any](listeners []func(T), value T) {
	for _, fn := range listeners {
		fn(value)
	}
}
