package reactive

import (
	"context"
	"sync"
	"time"

	"github.com/vango-dev/querysync/pkg/loop"
)

// lift builds a single-upstream operator. next is called once per
// subscription so operators can keep per-subscription state.
func lift[T, U any](src Stream[T], next func(e Emitter[U]) func(T)) Stream[U] {
	return NewStream(func(e Emitter[U]) func() {
		sub := src.Subscribe(Observer[T]{
			Next: next(e),
			Err:  e.Error,
			Done: e.Complete,
		})
		return sub.Unsubscribe
	})
}

// Of emits the given values and completes.
func Of[T any](values ...T) Stream[T] {
	return NewStream(func(e Emitter[T]) func() {
		for _, v := range values {
			if e.Closed() {
				return nil
			}
			e.Next(v)
		}
		e.Complete()
		return nil
	})
}

// Fail errors immediately with err.
func Fail[T any](err error) Stream[T] {
	return NewStream(func(e Emitter[T]) func() {
		e.Error(err)
		return nil
	})
}

// Map transforms each value with fn.
func Map[T, U any](src Stream[T], fn func(T) U) Stream[U] {
	return lift(src, func(e Emitter[U]) func(T) {
		return func(v T) { e.Next(fn(v)) }
	})
}

// TryMap transforms each value with fn. An error from fn terminates the
// stream with that error.
func TryMap[T, U any](src Stream[T], fn func(T) (U, error)) Stream[U] {
	return lift(src, func(e Emitter[U]) func(T) {
		return func(v T) {
			out, err := fn(v)
			if err != nil {
				e.Error(err)
				return
			}
			e.Next(out)
		}
	})
}

// Filter passes through only values for which keep returns true.
func Filter[T any](src Stream[T], keep func(T) bool) Stream[T] {
	return lift(src, func(e Emitter[T]) func(T) {
		return func(v T) {
			if keep(v) {
				e.Next(v)
			}
		}
	})
}

// Tap calls fn for each value before passing it on.
func Tap[T any](src Stream[T], fn func(T)) Stream[T] {
	return lift(src, func(e Emitter[T]) func(T) {
		return func(v T) {
			fn(v)
			e.Next(v)
		}
	})
}

// Distinct drops values equal to the immediately preceding one.
func Distinct[T comparable](src Stream[T]) Stream[T] {
	return DistinctFunc(src, func(a, b T) bool { return a == b })
}

// DistinctFunc drops values that eq reports equal to the immediately
// preceding one.
func DistinctFunc[T any](src Stream[T], eq func(a, b T) bool) Stream[T] {
	return lift(src, func(e Emitter[T]) func(T) {
		var (
			last T
			has  bool
		)
		return func(v T) {
			if has && eq(last, v) {
				return
			}
			last, has = v, true
			e.Next(v)
		}
	})
}

// Debounce emits a value only after d has passed on l without another
// value arriving. A zero d defers to the next loop turn, so a burst of
// values within one turn collapses into its last value. A pending value
// is flushed when the source completes.
func Debounce[T any](src Stream[T], l *loop.Loop, d time.Duration) Stream[T] {
	return NewStream(func(e Emitter[T]) func() {
		var (
			pending *loop.Handle
			last    T
			has     bool
		)
		flush := func() {
			if !has {
				return
			}
			v := last
			var zero T
			last, has = zero, false
			e.Next(v)
		}
		sub := src.Subscribe(Observer[T]{
			Next: func(v T) {
				pending.Cancel()
				last, has = v, true
				pending = l.After(d, func() {
					pending = nil
					flush()
				})
			},
			Err: func(err error) {
				pending.Cancel()
				e.Error(err)
			},
			Done: func() {
				pending.Cancel()
				flush()
				e.Complete()
			},
		})
		return func() {
			pending.Cancel()
			sub.Unsubscribe()
		}
	})
}

// Merge interleaves the values of all sources. It completes when every
// source has completed and errors as soon as one source errors.
func Merge[T any](srcs ...Stream[T]) Stream[T] {
	return NewStream(func(e Emitter[T]) func() {
		if len(srcs) == 0 {
			e.Complete()
			return nil
		}
		var subs subscriptions
		active := len(srcs)
		for _, src := range srcs {
			subs.add(src.Subscribe(Observer[T]{
				Next: e.Next,
				Err:  e.Error,
				Done: func() {
					active--
					if active == 0 {
						e.Complete()
					}
				},
			}))
			if e.Closed() {
				break
			}
		}
		return subs.unsubscribeAll
	})
}

// CombineLatest emits the latest value of every source, in source order,
// each time any source emits once all of them have emitted at least once.
// Each emission is a fresh slice.
func CombineLatest[T any](srcs ...Stream[T]) Stream[[]T] {
	return NewStream(func(e Emitter[[]T]) func() {
		n := len(srcs)
		if n == 0 {
			e.Complete()
			return nil
		}
		var subs subscriptions
		values := make([]T, n)
		has := make([]bool, n)
		ready, active := 0, n
		for i, src := range srcs {
			i := i
			subs.add(src.Subscribe(Observer[T]{
				Next: func(v T) {
					values[i] = v
					if !has[i] {
						has[i] = true
						ready++
					}
					if ready == n {
						out := make([]T, n)
						copy(out, values)
						e.Next(out)
					}
				},
				Err: e.Error,
				Done: func() {
					active--
					// A source that completes without a value can never
					// contribute, so nothing more can be emitted.
					if active == 0 || !has[i] {
						e.Complete()
					}
				},
			}))
			if e.Closed() {
				break
			}
		}
		return subs.unsubscribeAll
	})
}

// TakeUntil completes the stream when scope is disposed. A nil scope
// leaves the stream unchanged.
func TakeUntil[T any](src Stream[T], scope *Scope) Stream[T] {
	if scope == nil {
		return src
	}
	return NewStream(func(e Emitter[T]) func() {
		if scope.IsDisposed() {
			e.Complete()
			return nil
		}
		remove := scope.OnCleanup(e.Complete)
		sub := src.Subscribe(Observer[T]{
			Next: e.Next,
			Err:  e.Error,
			Done: e.Complete,
		})
		return func() {
			remove()
			sub.Unsubscribe()
		}
	})
}

// SwitchMap maps each value to an inner stream and mirrors only the most
// recent inner stream, unsubscribing the previous one.
func SwitchMap[T, U any](src Stream[T], fn func(T) Stream[U]) Stream[U] {
	return NewStream(func(e Emitter[U]) func() {
		var (
			inner       Subscription
			gen         int
			innerActive bool
			outerDone   bool
		)
		sub := src.Subscribe(Observer[T]{
			Next: func(v T) {
				if inner != nil {
					inner.Unsubscribe()
				}
				gen++
				g := gen
				innerActive = true
				inner = fn(v).Subscribe(Observer[U]{
					Next: e.Next,
					Err:  e.Error,
					Done: func() {
						if g != gen {
							return
						}
						innerActive = false
						if outerDone {
							e.Complete()
						}
					},
				})
			},
			Err: e.Error,
			Done: func() {
				outerDone = true
				if !innerActive {
					e.Complete()
				}
			},
		})
		return func() {
			if inner != nil {
				inner.Unsubscribe()
			}
			sub.Unsubscribe()
		}
	})
}

// FromAsync runs fn on its own goroutine and delivers its result on l.
// Unsubscribing cancels the context passed to fn and drops the result.
func FromAsync[T any](l *loop.Loop, fn func(ctx context.Context) (T, error)) Stream[T] {
	return NewStream(func(e Emitter[T]) func() {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			v, err := fn(ctx)
			l.Post(func() {
				if ctx.Err() != nil {
					return
				}
				if err != nil {
					e.Error(err)
					return
				}
				e.Next(v)
				e.Complete()
			})
		}()
		return cancel
	})
}

// Share multicasts one upstream subscription to every subscriber. The
// upstream is subscribed when the first subscriber arrives and released
// when the last one leaves. Values are not replayed to late subscribers.
func Share[T any](src Stream[T]) Stream[T] {
	type member struct {
		id uint64
		e  Emitter[T]
	}
	type connection struct {
		sub    Subscription
		closed bool
	}
	var (
		mu      sync.Mutex
		members []member
		nextID  uint64
		conn    *connection
	)

	snapshot := func() []member {
		out := make([]member, len(members))
		copy(out, members)
		return out
	}
	terminate := func(c *connection) []member {
		mu.Lock()
		defer mu.Unlock()
		c.closed = true
		if conn != c {
			return nil
		}
		conn = nil
		ms := members
		members = nil
		return ms
	}

	return NewStream(func(e Emitter[T]) func() {
		mu.Lock()
		nextID++
		id := nextID
		members = append(members, member{id: id, e: e})
		var c *connection
		if conn == nil {
			c = &connection{}
			conn = c
		}
		mu.Unlock()

		if c != nil {
			sub := src.Subscribe(Observer[T]{
				Next: func(v T) {
					mu.Lock()
					ms := snapshot()
					mu.Unlock()
					for _, m := range ms {
						m.e.Next(v)
					}
				},
				Err: func(err error) {
					for _, m := range terminate(c) {
						m.e.Error(err)
					}
				},
				Done: func() {
					for _, m := range terminate(c) {
						m.e.Complete()
					}
				},
			})
			mu.Lock()
			if c.closed {
				mu.Unlock()
				sub.Unsubscribe()
			} else {
				c.sub = sub
				mu.Unlock()
			}
		}

		return func() {
			mu.Lock()
			for i, m := range members {
				if m.id == id {
					members = append(members[:i], members[i+1:]...)
					break
				}
			}
			var release Subscription
			if len(members) == 0 && conn != nil {
				conn.closed = true
				release = conn.sub
				conn = nil
			}
			mu.Unlock()
			if release != nil {
				release.Unsubscribe()
			}
		}
	})
}
