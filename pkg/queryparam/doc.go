// Package queryparam keeps observable properties in sync with URL query
// parameters.
//
// A Binder binds properties of a reactive.Properties table to parameters
// of the same name (or the name given with WithParamName). When the URL
// changes, the parameter is decoded with urlcodec and written into the
// property; when the property changes, its encoding is written to the URL
// through a navigation.Batcher, so writes made in one loop turn produce a
// single navigation. A value seen from one side is never echoed back to
// the other, and the property's value at bind time stands for an absent
// parameter.
//
// # Usage
//
//	l := loop.New()
//	binder := queryparam.NewBinder(l)
//
//	props := reactive.NewProperties(scope)
//	reactive.MustDefine(props, "includeDeleted", false)
//	reactive.MustDefine(props, "itemsPerPage", 15)
//
//	values, err := binder.BindAll(props, []string{"includeDeleted", "itemsPerPage"},
//	    route, router, scope)
//	if err != nil {
//	    return err
//	}
//	values.Each(func(v []any) {
//	    reload(v[0].(bool), v[1].(int))
//	})
//
// Bindings are cold: nothing happens until the returned stream is
// subscribed. Subscribers share one binding, which ends when scope is
// disposed.
package queryparam
