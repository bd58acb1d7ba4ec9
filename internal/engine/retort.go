package engine

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"retort/provider"
)

// Renderer turns a provider search failure into the description of a
// ProviderNotFoundError.
type Renderer func(err error) string

// Option configures a Retort.
type Option func(*Retort)

// WithLogger sets the logger receiving debug events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Retort) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRenderer replaces the failure tree renderer.
func WithRenderer(fn Renderer) Option {
	return func(r *Retort) {
		if fn != nil {
			r.render = fn
		}
	}
}

// Retort routes requests through an ordered recipe and caches the results.
// It is safe for concurrent use.
type Retort struct {
	recipe []provider.Provider
	routes map[reflect.Type][]provider.HandlerRecord
	logger *slog.Logger
	render Renderer

	mu    sync.RWMutex
	cache map[string]any
}

// New creates a retort over recipe. Providers earlier in the recipe take
// precedence.
func New(recipe []provider.Provider, opts ...Option) *Retort {
	r := &Retort{
		recipe: append([]provider.Provider(nil), recipe...),
		routes: make(map[reflect.Type][]provider.HandlerRecord),
		logger: slog.Default(),
		render: Describe,
		cache:  make(map[string]any),
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, p := range r.recipe {
		for _, rec := range p.RequestHandlers() {
			r.routes[rec.Request] = append(r.routes[rec.Request], rec)
		}
	}

	return r
}

// Recipe returns a copy of the recipe.
func (r *Retort) Recipe() []provider.Provider {
	return append([]provider.Provider(nil), r.recipe...)
}

// Logger returns the logger of the retort.
func (r *Retort) Logger() *slog.Logger { return r.logger }

func (r *Retort) lookup(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.cache[key]

	return v, ok
}

// commit stores the results of a successful call. Values already cached
// by a concurrent call win so every caller sees the same instance.
func (r *Retort) commit(results map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range results {
		if _, ok := r.cache[k]; !ok {
			r.cache[k] = v
		}
	}
}

// Provide resolves req. Failures are CannotProvide trees; any other error
// comes from a handler.
func (r *Retort) Provide(req provider.Request) (any, error) {
	return r.provide(context.Background(), req)
}

func (r *Retort) provide(ctx context.Context, req provider.Request) (any, error) {
	key := req.Key()
	if v, ok := r.lookup(key); ok {
		return v, nil
	}

	c := newCall(ctx, r)

	v, err := c.Provide(req)
	if err != nil {
		return nil, err
	}

	r.commit(c.results)

	if cached, ok := r.lookup(key); ok {
		return cached, nil
	}

	return v, nil
}

// Produce resolves a top level request and turns a failed search into a
// *provider.ProviderNotFoundError.
func (r *Retort) Produce(ctx context.Context, req provider.Request) (any, error) {
	kind, subj := requestKind(req), subject(req)
	start := time.Now()

	v, err := r.provide(ctx, req)
	if err == nil {
		emitBuilt(ctx, kind, subj, time.Since(start))

		return v, nil
	}

	if !provider.IsCannotProvide(err) {
		return nil, err
	}

	notFound := &provider.ProviderNotFoundError{
		Message:     fmt.Sprintf("Cannot produce %s for type %s", kind, subj),
		Description: r.render(err),
		Cause:       err,
	}

	r.logger.Debug("request cannot be satisfied", "request", kind, "type", subj)
	emitNotFound(ctx, kind, subj, notFound)

	return nil, notFound
}

func (r *Retort) fail(req provider.Request, errs []error) error {
	msg, notes := describe(req)

	return &provider.AggregateCannotProvide{
		CannotProvide: provider.CannotProvide{Message: msg, IsDemonstrative: true, Notes: notes},
		Errs:          errs,
	}
}
