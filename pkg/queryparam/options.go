package queryparam

import (
	"log/slog"

	"github.com/vango-dev/querysync/pkg/navigation"
	"github.com/vango-dev/querysync/pkg/urlcodec"
)

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithBatcher sets the batcher URL writes go through. By default each
// Binder creates its own batcher on its loop.
func WithBatcher(b *navigation.Batcher) BinderOption {
	return func(bd *Binder) {
		bd.batcher = b
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) BinderOption {
	return func(bd *Binder) {
		bd.logger = logger.With("component", "queryparam")
	}
}

// WithMetrics records binding updates and decode failures in m.
func WithMetrics(m *navigation.Metrics) BinderOption {
	return func(bd *Binder) {
		bd.metrics = m
	}
}

// Option configures individual bindings. Options name the property they
// apply to, so one option list can be passed to BindAll.
type Option interface {
	applyBind(*bindConfig)
}

type bindConfig struct {
	params map[string]string
	attrs  map[string][]string
}

func newBindConfig(opts []Option) *bindConfig {
	c := &bindConfig{
		params: make(map[string]string),
		attrs:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt.applyBind(c)
	}
	return c
}

func (c *bindConfig) param(property string) string {
	if p, ok := c.params[property]; ok && p != "" {
		return p
	}
	return property
}

func (c *bindConfig) codecOptions(property string) []urlcodec.Option {
	if attrs := c.attrs[property]; len(attrs) > 0 {
		return []urlcodec.Option{urlcodec.Attrs(attrs...)}
	}
	return nil
}

type paramNameOption struct {
	property, param string
}

func (o paramNameOption) applyBind(c *bindConfig) {
	c.params[o.property] = o.param
}

// WithParamName binds property to the query parameter param instead of
// a parameter of the same name.
//
// Example:
//
//	binder.Bind(props, "search", route, router, scope,
//	    queryparam.WithParamName("search", "q"))
func WithParamName(property, param string) Option {
	return paramNameOption{property: property, param: param}
}

type attrsOption struct {
	property string
	attrs    []string
}

func (o attrsOption) applyBind(c *bindConfig) {
	c.attrs[o.property] = append(c.attrs[o.property], o.attrs...)
}

// WithAttrs restricts the encoding of property's record value to attrs.
func WithAttrs(property string, attrs ...string) Option {
	return attrsOption{property: property, attrs: attrs}
}
