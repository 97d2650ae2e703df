package state

import (
	"sync"

	"btmad/internal/model"
)

// Listener is called after every successful dispatch with the aggregate
// before and after the action.
type Listener func(prev, next model.State)

// Container owns the single in-memory aggregate for a session. All mutations
// go through Dispatch, which serializes them.
type Container struct {
	mu        sync.Mutex
	current   model.State
	listeners map[int]Listener
	nextID    int
}

// NewContainer creates a Container seeded with initial.
func NewContainer(initial model.State) *Container {
	initial.Bundle = initial.Bundle.Normalize()
	return &Container{
		current:   initial,
		listeners: make(map[int]Listener),
	}
}

// Current returns a copy of the current aggregate. Callers must treat the
// slices inside it as read-only; the reducer never mutates them in place.
func (c *Container) Current() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Dispatch checks a against the current aggregate, applies it, and notifies
// listeners. On a failed check the aggregate is left unchanged.
func (c *Container) Dispatch(a Action) (model.State, error) {
	c.mu.Lock()
	prev := c.current
	if err := Check(prev, a); err != nil {
		c.mu.Unlock()
		return prev, err
	}
	next := Reduce(prev, a)
	c.current = next
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(prev, next)
	}
	return next, nil
}

// Subscribe registers l and returns a function that removes it.
func (c *Container) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}
