package navigation

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/querysync/internal/errors"
	"github.com/vango-dev/querysync/pkg/loop"
)

const defaultTracerName = "querysync/navigation"

// Batcher coalesces query-parameter writes into one navigation per router
// per loop turn. The first Enqueue for a router schedules a flush on the
// loop; later writes in the same turn join the pending batch.
//
// Router implementations are used as map keys and must be comparable
// (pointer types are).
type Batcher struct {
	loop    *loop.Loop
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	mu      sync.Mutex
	pending map[Router]*batch
}

type batch struct {
	params Params
	flush  *loop.Handle
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Batcher) {
		b.logger = logger.With("component", "navigation")
	}
}

// WithMetrics records flushes and failures in m.
func WithMetrics(m *Metrics) Option {
	return func(b *Batcher) {
		b.metrics = m
	}
}

// WithTracer sets the tracer used for flush spans. Default: the global
// OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Batcher) {
		b.tracer = tracer
	}
}

// NewBatcher creates a Batcher that schedules flushes on l.
func NewBatcher(l *loop.Loop, opts ...Option) *Batcher {
	b := &Batcher{
		loop:    l,
		logger:  slog.Default().With("component", "navigation"),
		tracer:  otel.Tracer(defaultTracerName),
		pending: make(map[Router]*batch),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Enqueue records value for the parameter name on router. A nil value
// deletes the parameter.
func (b *Batcher) Enqueue(name string, value *string, router Router) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pb, ok := b.pending[router]
	if !ok {
		pb = &batch{params: make(Params)}
		b.pending[router] = pb
		pb.flush = b.loop.Defer(func() { b.flush(router) })
	}
	pb.params[name] = value
}

// Pending returns the parameters waiting to be sent to router.
func (b *Batcher) Pending(router Router) Params {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pb, ok := b.pending[router]; ok {
		return pb.params.Clone()
	}
	return nil
}

// Flush sends every pending batch now instead of on the next turn.
func (b *Batcher) Flush() {
	b.mu.Lock()
	routers := make([]Router, 0, len(b.pending))
	for r, pb := range b.pending {
		pb.flush.Cancel()
		routers = append(routers, r)
	}
	b.mu.Unlock()

	for _, r := range routers {
		b.flush(r)
	}
}

func (b *Batcher) flush(router Router) {
	b.mu.Lock()
	pb, ok := b.pending[router]
	delete(b.pending, router)
	b.mu.Unlock()
	if !ok {
		return
	}

	names := pb.params.Names()
	ctx, span := b.tracer.Start(context.Background(), "navigation.flush",
		trace.WithAttributes(
			attribute.Int("querysync.params", len(names)),
			attribute.StringSlice("querysync.param_names", names),
		))
	defer span.End()

	err := router.Navigate(ctx, Request{
		Query:            pb.params,
		Handling:         QueryMerge,
		PreserveFragment: true,
	})
	if err != nil {
		err = errors.FromError(err, "Q008")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.metrics.NavigationError()
		b.logger.Error("navigation failed",
			"params", names,
			"error", err)
		return
	}

	span.SetStatus(codes.Ok, "")
	b.metrics.ObserveFlush(len(names))
	b.logger.Debug("navigation flushed", "params", names)
}
