package engine

import (
	"context"
	"errors"
	"reflect"

	"retort/provider"
)

var errNoCurrentRequest = errors.New("ProvideFromNext called outside of a handler")

type frame struct {
	req provider.Request
	// next is the index of the first handler record not tried yet.
	next int
}

// call is the mediator of one top level request.
type call struct {
	ctx     context.Context
	r       *Retort
	results map[string]any
	stubs   map[string]*stub
	frames  []frame
}

func newCall(ctx context.Context, r *Retort) *call {
	return &call{
		ctx:     ctx,
		r:       r,
		results: make(map[string]any),
		stubs:   make(map[string]*stub),
	}
}

func (c *call) Provide(req provider.Request) (any, error) {
	key := req.Key()
	if v, ok := c.results[key]; ok {
		return v, nil
	}

	if v, ok := c.r.lookup(key); ok {
		return v, nil
	}

	if s, ok := c.trackRequest(req); ok {
		return s, nil
	}

	v, err := c.search(req, 0)
	if err != nil {
		return nil, err
	}

	c.trackResponse(req, v)
	c.results[key] = v

	return v, nil
}

func (c *call) ProvideFromNext() (any, error) {
	if len(c.frames) == 0 {
		return nil, errNoCurrentRequest
	}

	f := c.frames[len(c.frames)-1]

	return c.search(f.req, f.next)
}

func (c *call) CachedCall(key string, fn func() (any, error)) (any, error) {
	key = "cached|" + key
	if v, ok := c.results[key]; ok {
		return v, nil
	}

	if v, ok := c.r.lookup(key); ok {
		return v, nil
	}

	v, err := fn()
	if err != nil {
		return nil, err
	}

	c.results[key] = v

	return v, nil
}

func (c *call) search(req provider.Request, from int) (any, error) {
	records := c.r.routes[reflect.TypeOf(req)]

	var errs []error

	for i := from; i < len(records); i++ {
		rec := records[i]
		if !rec.Accepts(c, req) {
			continue
		}

		c.frames = append(c.frames, frame{req: req, next: i + 1})
		v, err := rec.Handler(c, req)
		c.frames = c.frames[:len(c.frames)-1]

		if err == nil {
			return v, nil
		}

		cp, ok := provider.AsCannotProvide(err)
		if !ok {
			return nil, err
		}

		errs = append(errs, err)

		if cp.IsTerminal {
			break
		}
	}

	return nil, c.r.fail(req, errs)
}

// stub stands for a loader, dumper or coercer that is still being built.
type stub struct {
	fn     any
	target any
}

func newStub(kind string) *stub {
	s := &stub{}

	switch kind {
	case kindLoader:
		s.fn = provider.Loader(func(data any) (any, error) {
			return s.target.(provider.Loader)(data)
		})
	case kindDumper:
		s.fn = provider.Dumper(func(v any) (any, error) {
			return s.target.(provider.Dumper)(v)
		})
	case kindCoercer:
		s.fn = provider.Coercer(func(v any) (any, error) {
			return s.target.(provider.Coercer)(v)
		})
	}

	return s
}

// recursionKey returns the request kind and the key shared by every
// request building the same function, with the stack the repetition is
// looked for in.
func recursionKey(req provider.Request) (string, string, bool) {
	switch r := req.(type) {
	case provider.LoaderRequest, provider.DumperRequest:
		kind := requestKind(req)

		s := r.(provider.LocatedRequest).LocStack()
		if s.Len() == 0 {
			return "", "", false
		}

		return kind, kind + "|" + s.Last().Key(), true
	case provider.CoercerRequest:
		if r.Src.Len() == 0 || r.Dst.Len() == 0 {
			return "", "", false
		}

		return kindCoercer, kindCoercer + "|" + r.Src.Last().Key() + "|" + r.Dst.Last().Key(), true
	default:
		return "", "", false
	}
}

func repeated(req provider.Request) bool {
	switch r := req.(type) {
	case provider.CoercerRequest:
		return r.Src.Count(r.Src.Last()) > 1 && r.Dst.Count(r.Dst.Last()) > 1
	case provider.LocatedRequest:
		s := r.LocStack()

		return s.Count(s.Last()) > 1
	default:
		return false
	}
}

// trackRequest returns a stub when the location of req already occurs
// earlier in its own stack.
func (c *call) trackRequest(req provider.Request) (any, bool) {
	kind, key, ok := recursionKey(req)
	if !ok || !repeated(req) {
		return nil, false
	}

	if st, ok := c.stubs[key]; ok {
		return st.fn, true
	}

	st := newStub(kind)
	c.stubs[key] = st

	location := subjectLocation(req)
	c.r.logger.Debug("recursion stub installed", "request", kind, "location", location)
	emitRecursionStub(c.ctx, kind, location)

	return st.fn, true
}

func subjectLocation(req provider.Request) string {
	if r, ok := req.(provider.CoercerRequest); ok {
		return r.Src.String() + " ──▷ " + r.Dst.String()
	}

	return req.(provider.LocatedRequest).LocStack().String()
}

func (c *call) trackResponse(req provider.Request, v any) {
	_, key, ok := recursionKey(req)
	if !ok {
		return
	}

	if st, ok := c.stubs[key]; ok {
		st.target = v
		delete(c.stubs, key)
	}
}
