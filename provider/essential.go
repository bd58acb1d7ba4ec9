package provider

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Provider answers some kinds of requests.
type Provider interface {
	RequestHandlers() []HandlerRecord
}

// Handler produces the value of a request or fails with a CannotProvide.
// Any other error aborts the whole search.
type Handler func(m Mediator, req Request) (any, error)

// HandlerRecord routes one request type to a handler. The checker filters
// located requests by their LocStack; nil accepts everything.
type HandlerRecord struct {
	Request reflect.Type
	Checker Checker
	Handler Handler
}

// Mediator is handed to handlers to issue sub-requests.
type Mediator interface {
	// Provide resolves a request through the whole recipe.
	Provide(req Request) (any, error)
	// ProvideFromNext resolves the current request with the providers
	// following the current one.
	ProvideFromNext() (any, error)
	// CachedCall memoizes fn under key for the lifetime of the retort.
	CachedCall(key string, fn func() (any, error)) (any, error)
}

// CannotProvide reports that a handler does not apply to a request.
type CannotProvide struct {
	Message string
	// IsTerminal stops the search for the current request.
	IsTerminal bool
	// IsDemonstrative shows the failure to the user.
	IsDemonstrative bool
	Notes           []string
}

func (e *CannotProvide) Error() string {
	if e.Message == "" {
		return "cannot provide"
	}

	return e.Message
}

// AggregateCannotProvide groups the failures of sub-requests or handlers.
type AggregateCannotProvide struct {
	CannotProvide
	Errs []error
}

func (e *AggregateCannotProvide) Error() string {
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = err.Error()
	}

	return fmt.Sprintf("%s (%s)", e.CannotProvide.Error(), strings.Join(parts, "; "))
}

func (e *AggregateCannotProvide) Unwrap() []error { return e.Errs }

// Cannot builds a demonstrative, non-terminal CannotProvide.
func Cannot(format string, args ...any) *CannotProvide {
	return &CannotProvide{Message: fmt.Sprintf(format, args...), IsDemonstrative: true}
}

// Silent builds a CannotProvide hidden from the user.
func Silent(format string, args ...any) *CannotProvide {
	return &CannotProvide{Message: fmt.Sprintf(format, args...)}
}

// Terminal builds a demonstrative CannotProvide that stops the search.
func Terminal(format string, args ...any) *CannotProvide {
	return &CannotProvide{Message: fmt.Sprintf(format, args...), IsTerminal: true, IsDemonstrative: true}
}

// NewAggregate groups errs. Failures that are not CannotProvide are kept
// as they are.
func NewAggregate(message string, errs []error, terminal, demonstrative bool) *AggregateCannotProvide {
	return &AggregateCannotProvide{
		CannotProvide: CannotProvide{Message: message, IsTerminal: terminal, IsDemonstrative: demonstrative},
		Errs:          errs,
	}
}

// AsCannotProvide returns the CannotProvide part of err, looking through
// aggregates and wrappers.
func AsCannotProvide(err error) (*CannotProvide, bool) {
	var agg *AggregateCannotProvide
	if errors.As(err, &agg) {
		return &agg.CannotProvide, true
	}

	var cp *CannotProvide
	if errors.As(err, &cp) {
		return cp, true
	}

	return nil, false
}

// IsCannotProvide reports whether err means "try the next provider".
func IsCannotProvide(err error) bool {
	_, ok := AsCannotProvide(err)

	return ok
}

// ProviderNotFoundError is returned to callers when a request cannot be
// satisfied. Description is the rendered tree of demonstrative causes.
type ProviderNotFoundError struct {
	Message     string
	Description string
	Cause       error
}

func (e *ProviderNotFoundError) Error() string {
	if e.Description == "" {
		return e.Message
	}

	return e.Message + "\n" + e.Description
}

func (e *ProviderNotFoundError) Unwrap() error { return e.Cause }

// Provide resolves req and asserts the result type.
func Provide[V any](m Mediator, req Request) (V, error) {
	var zero V

	v, err := m.Provide(req)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(V)
	if !ok {
		return zero, fmt.Errorf("request %T resolved to %T, want %s", req, v, reflect.TypeFor[V]())
	}

	return typed, nil
}

// ProvideFromNext is the typed form of Mediator.ProvideFromNext.
func ProvideFromNext[V any](m Mediator) (V, error) {
	var zero V

	v, err := m.ProvideFromNext()
	if err != nil {
		return zero, err
	}

	typed, ok := v.(V)
	if !ok {
		return zero, fmt.Errorf("next provider returned %T, want %s", v, reflect.TypeFor[V]())
	}

	return typed, nil
}

// ProvideAll resolves every request. All CannotProvide failures are
// collected into one terminal aggregate with the message built by describe.
func ProvideAll[V any](m Mediator, reqs []Request, describe func() string) ([]V, error) {
	results := make([]V, len(reqs))

	var errs []error

	for i, req := range reqs {
		v, err := Provide[V](m, req)
		if err != nil {
			if !IsCannotProvide(err) {
				return nil, err
			}

			errs = append(errs, err)

			continue
		}

		results[i] = v
	}

	if len(errs) > 0 {
		return nil, NewAggregate(describe(), errs, true, true)
	}

	return results, nil
}

// CachedCall is the typed form of Mediator.CachedCall.
func CachedCall[V any](m Mediator, key string, fn func() (V, error)) (V, error) {
	var zero V

	v, err := m.CachedCall(key, func() (any, error) { return fn() })
	if err != nil {
		return zero, err
	}

	return v.(V), nil
}
