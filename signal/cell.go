// Package signal provides Cell, a small publish/subscribe value holder used
// to push state changes from flows to the presentation layer.
package signal

import "sync"

// Cell holds a value and notifies subscribers synchronously on every Set.
// Subscribers run on the goroutine that called Set, after the value has
// been stored, and must not call Set on the same cell.
type Cell[T any] struct {
	mu     sync.RWMutex
	value  T
	nextID int
	subs   map[int]func(T)
	order  []int
}

// New returns a Cell holding initial.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set stores v and notifies subscribers in subscription order.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	fns := c.subscribersLocked()
	c.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Update applies fn to the current value and stores the result. fn runs
// under the cell lock, so concurrent updates are not lost; it must not use
// the cell.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	next := fn(c.value)
	c.value = next
	fns := c.subscribersLocked()
	c.mu.Unlock()

	for _, f := range fns {
		f(next)
	}
	return next
}

func (c *Cell[T]) subscribersLocked() []func(T) {
	fns := make([]func(T), 0, len(c.order))
	for _, id := range c.order {
		fns = append(fns, c.subs[id])
	}
	return fns
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs == nil {
		c.subs = make(map[int]func(T))
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.order = append(c.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			for i, v := range c.order {
				if v == id {
					c.order = append(c.order[:i], c.order[i+1:]...)
					break
				}
			}
		})
	}
}
