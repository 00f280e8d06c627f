package reactive

import (
	"reflect"
	"sync"

	"github.com/vango-dev/querysync/internal/errors"
)

// Property is the type-erased view of a Cell used by code that works
// with properties by name, such as the query-parameter binder.
type Property interface {
	// Type returns the value type the property was defined with.
	Type() reflect.Type

	// Value returns the current value.
	Value() any

	// SetValue writes v, which must be assignable to Type.
	SetValue(v any) error

	// Changes replays the current value and emits every change.
	Changes() Stream[any]
}

var (
	_ Property = (*Cell[int])(nil)
	_ Property = (*Cell[any])(nil)
)

// Properties is a per-owner table of named, observable properties. It is
// the Go counterpart of "an object whose fields are observed": each field
// is a Cell registered under its name. The table is released together
// with the Scope that owns it.
type Properties struct {
	scope *Scope

	mu     sync.Mutex
	cells  map[string]Property
	order  []string
	frozen bool
}

// NewProperties creates a property table owned by scope. When scope is
// disposed the table is cleared and frozen. A nil scope means the table
// lives as long as it is referenced.
func NewProperties(scope *Scope) *Properties {
	p := &Properties{
		scope: scope,
		cells: make(map[string]Property),
	}
	if scope != nil {
		scope.OnCleanup(p.release)
	}
	return p
}

// Scope returns the owning scope, which may be nil.
func (p *Properties) Scope() *Scope {
	return p.scope
}

// Define registers a stored property named name with the given initial
// value and returns its Cell. Defining an existing name returns the
// existing Cell unchanged if the type matches.
func Define[T any](p *Properties, name string, initial T) (*Cell[T], error) {
	return define(p, name, func() *Cell[T] { return NewCell(initial) })
}

// DefineAccessor registers a property whose value lives behind an
// existing getter/setter pair. Idempotent like Define.
func DefineAccessor[T any](p *Properties, name string, get func() T, set func(T)) (*Cell[T], error) {
	return define(p, name, func() *Cell[T] { return NewAccessorCell(get, set) })
}

// MustDefine is like Define but panics on error. Intended for
// initialization code where the table is known to be live.
func MustDefine[T any](p *Properties, name string, initial T) *Cell[T] {
	c, err := Define(p, name, initial)
	if err != nil {
		panic(err)
	}
	return c
}

func define[T any](p *Properties, name string, create func() *Cell[T]) (*Cell[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.cells[name]; ok {
		c, ok := existing.(*Cell[T])
		if !ok {
			return nil, errors.New("Q006").
				WithDetailf("property %q is already defined with type %s", name, existing.Type())
		}
		return c, nil
	}
	if p.frozen {
		return nil, errors.New("Q005").
			WithDetailf("cannot define property %q", name)
	}

	c := create()
	p.cells[name] = c
	p.order = append(p.order, name)
	return c, nil
}

// Lookup returns the Cell registered under name.
func Lookup[T any](p *Properties, name string) (*Cell[T], error) {
	prop, err := p.Property(name)
	if err != nil {
		return nil, err
	}
	c, ok := prop.(*Cell[T])
	if !ok {
		var zero T
		return nil, errors.New("Q006").
			WithDetailf("property %q has type %s, not %T", name, prop.Type(), zero)
	}
	return c, nil
}

// Property returns the property registered under name.
func (p *Properties) Property(name string) (Property, error) {
	if p == nil {
		return nil, errors.New("Q004").WithDetail("no property table given")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	prop, ok := p.cells[name]
	if !ok {
		return nil, errors.New("Q004").
			WithDetailf("property %q is not defined", name).
			WithSuggestion("define it with reactive.Define before observing or binding it")
	}
	return prop, nil
}

// Names returns the defined property names in definition order.
func (p *Properties) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Freeze prevents new properties from being defined. Existing properties
// stay writable.
func (p *Properties) Freeze() {
	p.mu.Lock()
	p.frozen = true
	p.mu.Unlock()
}

// Frozen reports whether the table accepts new properties.
func (p *Properties) Frozen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frozen
}

func (p *Properties) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frozen = true
	p.cells = make(map[string]Property)
	p.order = nil
}
