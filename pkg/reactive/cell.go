package reactive

import (
	"reflect"
	"sync"

	"github.com/vango-dev/querysync/internal/errors"
)

// Cell is an observable value container. Writes that do not change the
// value are no-ops; every effective write is pushed to subscribers.
// Subscribers receive the current value as soon as they subscribe.
//
// A Cell either stores its value or wraps an existing getter/setter pair
// (see NewAccessorCell), in which case reads and writes go through the
// captured accessors.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	get   func() T
	set   func(T)
	equal func(T, T) bool

	subs   []*cellSub[T]
	nextID uint64

	// emitting and queue serialize re-entrant writes: a Set issued from
	// inside a subscriber is delivered after the current emission.
	emitting bool
	queue    []T
}

type cellSub[T any] struct {
	id uint64
	fn func(T)
}

// NewCell creates a Cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// NewAccessorCell creates a Cell whose value lives behind get and set.
// New subscribers are seeded with whatever get returns at that moment.
func NewAccessorCell[T any](get func() T, set func(T)) *Cell[T] {
	return &Cell[T]{get: get, set: set}
}

// WithEquals configures the equality used to detect no-op writes.
// The default is == for comparable primitives and reflect.DeepEqual
// otherwise.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.mu.Lock()
	c.equal = fn
	c.mu.Unlock()
	return c
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	get := c.get
	v := c.value
	c.mu.Unlock()
	if get != nil {
		return get()
	}
	return v
}

// Set writes v and notifies subscribers if it differs from the current
// value. It reports whether the value changed.
func (c *Cell[T]) Set(v T) bool {
	if c.equals(c.Get(), v) {
		return false
	}
	c.store(v)
	c.notify(c.Get())
	return true
}

// Update replaces the value with fn(current).
func (c *Cell[T]) Update(fn func(T) T) bool {
	return c.Set(fn(c.Get()))
}

func (c *Cell[T]) store(v T) {
	c.mu.Lock()
	set := c.set
	if set == nil {
		c.value = v
	}
	c.mu.Unlock()
	if set != nil {
		set(v)
	}
}

func (c *Cell[T]) equals(a, b T) bool {
	c.mu.Lock()
	eq := c.equal
	c.mu.Unlock()
	if eq != nil {
		return eq(a, b)
	}
	return defaultEquals(a, b)
}

// notify delivers v to all subscribers. Re-entrant calls are queued and
// delivered in order once the outer delivery finishes.
func (c *Cell[T]) notify(v T) {
	c.mu.Lock()
	if c.emitting {
		c.queue = append(c.queue, v)
		c.mu.Unlock()
		return
	}
	c.emitting = true
	c.mu.Unlock()

	for {
		c.mu.Lock()
		subs := make([]*cellSub[T], len(c.subs))
		copy(subs, c.subs)
		c.mu.Unlock()

		for _, s := range subs {
			if c.subscribed(s.id) {
				s.fn(v)
			}
		}

		c.mu.Lock()
		if len(c.queue) == 0 {
			c.emitting = false
			c.mu.Unlock()
			return
		}
		v = c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
	}
}

func (c *Cell[T]) subscribed(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		if s.id == id {
			return true
		}
	}
	return false
}

// Subscribe calls fn with the current value, then with every new value.
// The returned function unsubscribes.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, &cellSub[T]{id: id, fn: fn})
	c.mu.Unlock()

	fn(c.Get())

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Stream returns the Cell as a Stream that replays the current value.
// The stream never completes on its own.
func (c *Cell[T]) Stream() Stream[T] {
	return NewStream(func(e Emitter[T]) func() {
		return c.Subscribe(e.Next)
	})
}

// Type returns the Cell's value type.
func (c *Cell[T]) Type() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Value returns the current value as any.
func (c *Cell[T]) Value() any {
	return c.Get()
}

// SetValue writes v after checking it against the Cell's type. A nil v
// writes the zero value.
func (c *Cell[T]) SetValue(v any) error {
	if v == nil {
		var zero T
		c.Set(zero)
		return nil
	}
	if tv, ok := v.(T); ok {
		c.Set(tv)
		return nil
	}
	rv := reflect.ValueOf(v)
	if t := c.Type(); rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
		c.Set(rv.Convert(t).Interface().(T))
		return nil
	}
	return errors.New("Q006").
		WithDetailf("cannot assign %T to a property of type %s", v, c.Type())
}

// Changes returns the Cell's value stream as a Stream[any], with
// consecutive equal values dropped.
func (c *Cell[T]) Changes() Stream[any] {
	return Map(DistinctFunc(c.Stream(), c.equals), func(v T) any { return v })
}

// defaultEquals uses == for comparable primitives and reflect.DeepEqual
// for everything else.
func defaultEquals[T any](a, b T) bool {
	switch any(a).(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string, bool:
		return any(a) == any(b)
	default:
		return reflect.DeepEqual(a, b)
	}
}
