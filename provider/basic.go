package provider

import (
	"fmt"
	"reflect"
)

// Handle builds a provider with one handler for requests of type R.
func Handle[R Request](checker Checker, fn func(m Mediator, req R) (any, error)) Provider {
	return handlers{record[R](checker, fn)}
}

func record[R Request](checker Checker, fn func(m Mediator, req R) (any, error)) HandlerRecord {
	return HandlerRecord{
		Request: RequestType[R](),
		Checker: checker,
		Handler: func(m Mediator, req Request) (any, error) {
			typed, ok := req.(R)
			if !ok {
				return nil, fmt.Errorf("handler for %s got %T", RequestType[R](), req)
			}

			return fn(m, typed)
		},
	}
}

// Record is the HandlerRecord form of Handle, for providers answering
// several request types.
func Record[R Request](checker Checker, fn func(m Mediator, req R) (any, error)) HandlerRecord {
	return record(checker, fn)
}

type handlers []HandlerRecord

func (h handlers) RequestHandlers() []HandlerRecord { return h }

// Records builds a provider from handler records.
func Records(records ...HandlerRecord) Provider { return handlers(records) }

// Value answers every request of type R whose location matches checker
// with value.
func Value[R Request](checker Checker, value any) Provider {
	return Handle(checker, func(Mediator, R) (any, error) { return value, nil })
}

// Bound restricts every handler of p to locations matching checker.
func Bound(checker Checker, p Provider) Provider {
	records := p.RequestHandlers()
	bound := make(handlers, len(records))

	for i, r := range records {
		if r.Checker != nil {
			r.Checker = And(checker, r.Checker)
		} else {
			r.Checker = checker
		}

		bound[i] = r
	}

	return bound
}

// Concat merges the handlers of several providers, keeping their order.
func Concat(ps ...Provider) Provider {
	var all handlers

	for _, p := range ps {
		all = append(all, p.RequestHandlers()...)
	}

	return all
}

// Accepts reports whether the record applies to req.
func (r HandlerRecord) Accepts(m Mediator, req Request) bool {
	if reflect.TypeOf(req) != r.Request {
		return false
	}

	if r.Checker == nil {
		return true
	}

	located, ok := req.(LocatedRequest)
	if !ok {
		return true
	}

	return r.Checker.Check(m, located.LocStack())
}
