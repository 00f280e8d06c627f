package queryparam

import (
	"log/slog"
	"net/url"
	"reflect"

	"github.com/vango-dev/querysync/internal/errors"
	"github.com/vango-dev/querysync/pkg/loop"
	"github.com/vango-dev/querysync/pkg/navigation"
	"github.com/vango-dev/querysync/pkg/reactive"
	"github.com/vango-dev/querysync/pkg/urlcodec"
)

// Binder creates bidirectional bindings between properties and URL query
// parameters. All bindings of a Binder run on its loop and write through
// its batcher.
type Binder struct {
	loop    *loop.Loop
	batcher *navigation.Batcher
	logger  *slog.Logger
	metrics *navigation.Metrics
}

// NewBinder creates a Binder running on l.
func NewBinder(l *loop.Loop, opts ...BinderOption) *Binder {
	b := &Binder{
		loop:   l,
		logger: slog.Default().With("component", "queryparam"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.batcher == nil {
		b.batcher = navigation.NewBatcher(l,
			navigation.WithLogger(b.logger),
			navigation.WithMetrics(b.metrics))
	}
	return b
}

// Loop returns the loop the bindings run on.
func (b *Binder) Loop() *loop.Loop {
	return b.loop
}

// Batcher returns the batcher URL writes go through.
func (b *Binder) Batcher() *navigation.Batcher {
	return b.batcher
}

// token is a parameter's text, or its absence.
type token struct {
	text    string
	present bool
}

func (t token) ptr() *string {
	if !t.present {
		return nil
	}
	s := t.text
	return &s
}

func lookup(q url.Values, param string) token {
	vs, ok := q[param]
	if !ok || len(vs) == 0 {
		return token{}
	}
	return token{text: vs[0], present: true}
}

// binding is the state of one property bound to one parameter. It is
// only touched from the loop.
type binding struct {
	b        *Binder
	property string
	param    string
	prop     reactive.Property
	codec    []urlcodec.Option
	router   navigation.Router

	// last is the last parameter text seen in either direction; nil
	// until the first event.
	last      *token
	lastValue any

	// def is the property's value when the binding was made. It is what
	// an absent parameter means, and it is never written to the URL.
	def     any
	defText token
}

func (bd *binding) seen(t token) bool {
	return bd.last != nil && *bd.last == t
}

func (bd *binding) encode(v any) token {
	s, ok := urlcodec.Encode(v, bd.codec...)
	return bd.normalize(token{text: s, present: ok})
}

// normalize maps the default's text to absence, so both directions
// record the default the same way.
func (bd *binding) normalize(t token) token {
	if t == bd.defText {
		return token{}
	}
	return t
}

func (bd *binding) decode(t token) (any, error) {
	if !t.present {
		return bd.def, nil
	}
	target := reflect.New(bd.prop.Type())
	if err := urlcodec.DecodeInto(t.text, target.Interface()); err != nil {
		return nil, errors.New("Q007").
			WithDetailf("query parameter %q has value %q", bd.param, t.text).
			WithSuggestion("reset the parameter or the property to a valid value").
			Wrap(err)
	}
	return target.Elem().Interface(), nil
}

// inbound applies URL changes to the property.
func (bd *binding) inbound(route navigation.Route) reactive.Stream[token] {
	tokens := reactive.Map(
		reactive.Debounce(route.QueryParams(), bd.b.loop, 0),
		func(q url.Values) token { return bd.normalize(lookup(q, bd.param)) })

	return reactive.TryMap(
		reactive.Filter(tokens, func(t token) bool { return !bd.seen(t) }),
		func(t token) (token, error) {
			bd.last = &t
			v, err := bd.decode(t)
			if err != nil {
				bd.b.metrics.DecodeError(bd.param)
				bd.b.logger.Warn("undecodable query parameter",
					"param", bd.param,
					"value", t.text,
					"error", err)
				return t, err
			}
			bd.lastValue = v
			bd.b.metrics.ParamUpdate(navigation.Inbound, bd.param)
			if err := bd.prop.SetValue(v); err != nil {
				return t, err
			}
			return t, nil
		})
}

// outbound writes property changes to the URL.
func (bd *binding) outbound() reactive.Stream[token] {
	tokens := reactive.Map(
		reactive.Debounce(bd.prop.Changes(), bd.b.loop, 0),
		func(v any) token {
			bd.lastValue = v
			return bd.encode(v)
		})

	return reactive.Tap(
		reactive.Filter(tokens, func(t token) bool { return !bd.seen(t) }),
		func(t token) {
			bd.last = &t
			bd.b.metrics.ParamUpdate(navigation.Outbound, bd.param)
			bd.b.logger.Debug("query parameter changed",
				"param", bd.param,
				"value", t.text,
				"present", t.present)
			bd.b.batcher.Enqueue(bd.param, t.ptr(), bd.router)
		})
}

// Bind keeps the named property and its query parameter in sync:
//
//   - when the URL changes, the parameter is decoded into the property;
//     an absent parameter restores the property's value at bind time
//   - when the property changes, it is encoded into the parameter
//     through the batcher; the bind-time value removes the parameter
//
// Writes coming from one side are not echoed back to the other.
//
// The returned stream emits the property's value once per logical
// change. The binding is active while the stream has subscribers and
// ends when scope is disposed. An undecodable parameter ends the stream
// with a Q007 error.
//
// Example:
//
//	search := reactive.MustDefine(props, "search", "")
//	values, err := binder.Bind(props, "search", router, router, scope)
//	if err != nil {
//	    return err
//	}
//	values.Each(func(v any) { reload(v.(string)) })
func (b *Binder) Bind(props *reactive.Properties, property string, route navigation.Route, router navigation.Router, scope *reactive.Scope, opts ...Option) (reactive.Stream[any], error) {
	if err := checkDeps(props, route, router, scope); err != nil {
		return reactive.Stream[any]{}, err
	}
	return b.bind(props, property, route, router, scope, newBindConfig(opts))
}

func (b *Binder) bind(props *reactive.Properties, property string, route navigation.Route, router navigation.Router, scope *reactive.Scope, cfg *bindConfig) (reactive.Stream[any], error) {
	prop, err := props.Property(property)
	if err != nil {
		return reactive.Stream[any]{}, err
	}

	bd := &binding{
		b:        b,
		property: property,
		param:    cfg.param(property),
		prop:     prop,
		codec:    cfg.codecOptions(property),
		router:   router,
		def:      prop.Value(),
	}
	s, ok := urlcodec.Encode(bd.def, bd.codec...)
	bd.defText = token{text: s, present: ok}
	bd.lastValue = bd.def

	// inbound is subscribed first so a parameter already in the URL wins
	// over the property's initial value.
	merged := reactive.Merge(bd.inbound(route), bd.outbound())
	values := reactive.Map(
		reactive.DistinctFunc(
			reactive.Debounce(merged, b.loop, 0),
			func(x, y token) bool { return x == y }),
		func(token) any { return bd.lastValue })

	return reactive.Share(reactive.TakeUntil(values, scope)), nil
}

// BindAll binds several properties and returns their values in the order
// given. It emits at most once per loop turn and only when a value
// changed.
//
// Example:
//
//	values, err := binder.BindAll(props, []string{"includeDeleted", "itemsPerPage"},
//	    router, router, scope)
func (b *Binder) BindAll(props *reactive.Properties, properties []string, route navigation.Route, router navigation.Router, scope *reactive.Scope, opts ...Option) (reactive.Stream[[]any], error) {
	if err := checkDeps(props, route, router, scope); err != nil {
		return reactive.Stream[[]any]{}, err
	}

	cfg := newBindConfig(opts)
	streams := make([]reactive.Stream[any], 0, len(properties))
	for _, property := range properties {
		s, err := b.bind(props, property, route, router, scope, cfg)
		if err != nil {
			return reactive.Stream[[]any]{}, err
		}
		streams = append(streams, s)
	}

	combined := reactive.DistinctFunc(
		reactive.Debounce(reactive.CombineLatest(streams...), b.loop, 0),
		func(x, y []any) bool { return reflect.DeepEqual(x, y) })

	return reactive.Share(reactive.TakeUntil(combined, scope)), nil
}

// BindValue is Bind for a property of type T.
func BindValue[T any](b *Binder, props *reactive.Properties, property string, route navigation.Route, router navigation.Router, scope *reactive.Scope, opts ...Option) (reactive.Stream[T], error) {
	if err := checkDeps(props, route, router, scope); err != nil {
		return reactive.Stream[T]{}, err
	}
	if _, err := reactive.Lookup[T](props, property); err != nil {
		return reactive.Stream[T]{}, err
	}
	s, err := b.Bind(props, property, route, router, scope, opts...)
	if err != nil {
		return reactive.Stream[T]{}, err
	}
	return reactive.Map(s, func(v any) T {
		t, _ := v.(T)
		return t
	}), nil
}

func checkDeps(props *reactive.Properties, route navigation.Route, router navigation.Router, scope *reactive.Scope) error {
	switch {
	case route == nil:
		return errors.New("Q001").
			WithSuggestion("pass the active route to the binder")
	case router == nil:
		return errors.New("Q002").
			WithSuggestion("pass the router to the binder")
	case scope == nil:
		return errors.New("Q003").
			WithSuggestion("pass the owning component's scope to the binder")
	case scope.IsDisposed():
		return errors.New("Q003").
			WithDetail("The scope has already been disposed.")
	case props == nil:
		return errors.New("Q004").
			WithDetail("No property table given.")
	}
	return nil
}
