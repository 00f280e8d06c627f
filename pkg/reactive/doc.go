// Package reactive provides the observation core of querysync: observable
// cells, push streams and the scopes that own them.
//
// # Core Types
//
// Cell[T] is an observable value container:
//
//	search := reactive.NewCell("")
//	search.Set("abc")           // notifies subscribers
//	search.Set("abc")           // no-op: value unchanged
//	search.Subscribe(func(v string) { ... })  // receives "abc" at once
//
// Properties is a per-owner table of named cells, so code such as the
// query-parameter binder can address a component's fields by name:
//
//	props := reactive.NewProperties(scope)
//	search, _ := reactive.Define(props, "search", "")
//	values, _ := props.Observe(scope, "search")
//
// Stream[T] is a lazy push sequence with the operators the binder needs
// (Map, Filter, Distinct, Debounce, Merge, CombineLatest, Share, ...).
//
// Scope owns subscriptions and property tables. Disposing a Scope
// completes every stream created with TakeUntil(scope) and releases the
// property tables created for it.
//
// # Threading
//
// Cells guard their state with a mutex and may be read from any
// goroutine. Streams carry no locking of their own beyond what each
// operator needs; they are meant to be driven from a single loop.Loop.
package reactive
