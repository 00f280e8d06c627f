package reactive

// Observe returns a stream of c's value: the current value first, then
// every change. Consecutive equal values are dropped. The stream
// completes when until is disposed; c itself is not affected.
//
// Example:
//
//	includeDeleted := reactive.NewCell(false)
//	reactive.Observe(includeDeleted, scope).Each(func(v bool) {
//	    reload(v)
//	})
func Observe[T any](c *Cell[T], until *Scope) Stream[T] {
	return TakeUntil(DistinctFunc(c.Stream(), c.equals), until)
}

// ObserveOne returns a stream of the named property's value. See Observe.
func (p *Properties) ObserveOne(until *Scope, name string) (Stream[any], error) {
	prop, err := p.Property(name)
	if err != nil {
		return Stream[any]{}, err
	}
	return TakeUntil(prop.Changes(), until), nil
}

// Observe returns a stream of the latest values of the named properties,
// in the order given. It re-emits whenever any one property changes to a
// value different from its previous one. Unknown names fail immediately.
//
// Example:
//
//	values, err := props.Observe(scope, "includeDeleted", "itemsPerPage")
//	if err != nil {
//	    return err
//	}
//	values.Each(func(v []any) {
//	    load(v[0].(bool), v[1].(int))
//	})
func (p *Properties) Observe(until *Scope, names ...string) (Stream[[]any], error) {
	streams := make([]Stream[any], 0, len(names))
	for _, name := range names {
		prop, err := p.Property(name)
		if err != nil {
			return Stream[[]any]{}, err
		}
		streams = append(streams, prop.Changes())
	}
	return TakeUntil(CombineLatest(streams...), until), nil
}
