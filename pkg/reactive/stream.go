package reactive

import "sync"

// Observer receives the notifications of a Stream. Any field may be nil.
type Observer[T any] struct {
	Next func(T)
	Err  func(error)
	Done func()
}

// Subscription is the handle returned by Stream.Subscribe.
type Subscription interface {
	// Unsubscribe stops delivery and releases upstream resources.
	// It is idempotent.
	Unsubscribe()
}

// Emitter is what a stream producer pushes notifications into.
// After Error or Complete, further calls are ignored.
type Emitter[T any] interface {
	Next(T)
	Error(error)
	Complete()
	Closed() bool
}

// Stream is a lazy push sequence of values. Nothing runs until
// Subscribe is called; each subscription runs the producer again unless
// the stream is shared (see Share).
type Stream[T any] struct {
	produce func(Emitter[T]) func()
}

// NewStream creates a Stream from a producer. The producer is called once
// per subscription and may return a teardown, called when the
// subscription ends for any reason.
func NewStream[T any](produce func(e Emitter[T]) (teardown func())) Stream[T] {
	return Stream[T]{produce: produce}
}

// Subscribe starts the stream and delivers its notifications to o.
func (s Stream[T]) Subscribe(o Observer[T]) Subscription {
	k := &sink[T]{obs: o}
	if s.produce == nil {
		k.Complete()
		return k
	}
	if td := s.produce(k); td != nil {
		k.add(td)
	}
	return k
}

// Each subscribes with only a Next handler.
func (s Stream[T]) Each(next func(T)) Subscription {
	return s.Subscribe(Observer[T]{Next: next})
}

// sink guarantees the Observer contract: no notifications after the
// subscription closed, teardowns run exactly once.
type sink[T any] struct {
	obs Observer[T]

	mu        sync.Mutex
	closed    bool
	teardowns []func()
}

func (k *sink[T]) Closed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}

func (k *sink[T]) Next(v T) {
	if k.Closed() {
		return
	}
	if k.obs.Next != nil {
		k.obs.Next(v)
	}
}

func (k *sink[T]) Error(err error) {
	if !k.close() {
		return
	}
	if k.obs.Err != nil {
		k.obs.Err(err)
	}
}

func (k *sink[T]) Complete() {
	if !k.close() {
		return
	}
	if k.obs.Done != nil {
		k.obs.Done()
	}
}

func (k *sink[T]) Unsubscribe() {
	k.close()
}

// close marks the sink closed and runs teardowns. It reports whether this
// call performed the close.
func (k *sink[T]) close() bool {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return false
	}
	k.closed = true
	tds := k.teardowns
	k.teardowns = nil
	k.mu.Unlock()

	for i := len(tds) - 1; i >= 0; i-- {
		tds[i]()
	}
	return true
}

// add registers a teardown, running it at once if the sink is closed.
func (k *sink[T]) add(fn func()) {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		fn()
		return
	}
	k.teardowns = append(k.teardowns, fn)
	k.mu.Unlock()
}

// subscriptions collects inner subscriptions created by operators.
type subscriptions struct {
	mu   sync.Mutex
	subs []Subscription
	done bool
}

func (s *subscriptions) add(sub Subscription) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

func (s *subscriptions) unsubscribeAll() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.done = true
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
