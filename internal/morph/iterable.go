package morph

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"retort/loaderr"
	"retort/provider"
	"retort/typing"
)

// IterableProvider handles slices, arrays, sets and tuples.
func IterableProvider() provider.Provider {
	return provider.Concat(
		both(provider.Or(provider.ExactOrigin(typing.Slice), provider.ExactOrigin(typing.Array)), loadSequence, dumpSequence),
		both(provider.ExactOrigin(typing.Set), loadSet, dumpSet),
		both(provider.ExactOrigin(typing.TupleOrigin), loadTuple, dumpTuple),
	)
}

// elements lists the items of an iterable input. Strict loading accepts
// only slices and arrays; otherwise sets are iterated in key order.
func elements(data any, strict bool) ([]any, bool) {
	if items, ok := data.([]any); ok {
		return items, true
	}

	if data == nil {
		return nil, false
	}

	rv := reflect.ValueOf(data)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if strict && rv.Type() == bytesType {
			return nil, false
		}

		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}

		return items, true
	case reflect.Map:
		if strict {
			return nil, false
		}

		return sortedKeys(rv), true
	default:
		return nil, false
	}
}

func sortedKeys(rv reflect.Value) []any {
	keys := make([]any, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.Interface())
	}

	slices.SortFunc(keys, func(a, b any) int {
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	})

	return keys
}

type sequenceLoader struct {
	tp     *typing.NormType
	rt     reflect.Type
	elem   provider.Loader
	length int
	strict bool
	trail  provider.DebugTrail
}

func loadSequence(m provider.Mediator, req provider.LoaderRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	l := &sequenceLoader{tp: n, rt: typing.GoType(n), length: -1}
	if n.Is(typing.Array) {
		l.length = n.Args()[1].(int)
	}

	if l.strict, err = strictAt(m, req.Stack); err != nil {
		return nil, err
	}

	if l.trail, err = trailAt(m, req.Stack); err != nil {
		return nil, err
	}

	if l.elem, err = loaderAt(m, paramStack(req.Stack, n, 0)); err != nil {
		return nil, err
	}

	return provider.Loader(l.load), nil
}

func (l *sequenceLoader) load(data any) (any, error) {
	items, ok := elements(data, l.strict)
	if !ok {
		return nil, &loaderr.TypeLoadError{Expected: l.tp, Input: data}
	}

	var out reflect.Value

	if l.length >= 0 {
		if err := checkLength(l.length, data, len(items)); err != nil {
			return nil, err
		}

		out = reflect.New(l.rt).Elem()
	} else {
		out = reflect.MakeSlice(l.rt, len(items), len(items))
	}

	c := collector{mode: l.trail}

	for i, item := range items {
		v, err := l.elem(item)
		if err != nil {
			if stop := c.add(err, i); stop != nil {
				return nil, stop
			}

			continue
		}

		fv, err := fit(v, l.rt.Elem())
		if err != nil {
			return nil, loaderr.AppendTrail(err, i)
		}

		out.Index(i).Set(fv)
	}

	if c.failed() {
		return nil, c.err(loadingMessage(l.tp))
	}

	return out.Interface(), nil
}

func checkLength(want int, data any, got int) error {
	switch {
	case got < want:
		return &loaderr.NoRequiredItemsError{ExpectedLen: want, Input: data}
	case got > want:
		return &loaderr.ExtraItemsError{ExpectedLen: want, Input: data}
	default:
		return nil
	}
}

func dumpSequence(m provider.Mediator, req provider.DumperRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	elem, err := dumperAt(m, paramStack(req.Stack, n, 0))
	if err != nil {
		return nil, err
	}

	return provider.Dumper(func(v any) (any, error) {
		if v == nil {
			return []any{}, nil
		}

		rv := reflect.ValueOf(v)
		out := make([]any, rv.Len())

		for i := range out {
			d, err := elem(rv.Index(i).Interface())
			if err != nil {
				return nil, loaderr.AppendTrail(err, i)
			}

			out[i] = d
		}

		return out, nil
	}), nil
}

func loadSet(m provider.Mediator, req provider.LoaderRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	strict, err := strictAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	trail, err := trailAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	elem, err := loaderAt(m, paramStack(req.Stack, n, 0))
	if err != nil {
		return nil, err
	}

	rt := typing.GoType(n)
	present := reflect.Zero(rt.Elem())

	return provider.Loader(func(data any) (any, error) {
		items, ok := elements(data, strict)
		if !ok {
			return nil, &loaderr.TypeLoadError{Expected: n, Input: data}
		}

		out := reflect.MakeMapWithSize(rt, len(items))
		c := collector{mode: trail}

		for i, item := range items {
			v, err := elem(item)
			if err != nil {
				if stop := c.add(err, i); stop != nil {
					return nil, stop
				}

				continue
			}

			key, err := fit(v, rt.Key())
			if err != nil {
				return nil, loaderr.AppendTrail(err, i)
			}

			out.SetMapIndex(key, present)
		}

		if c.failed() {
			return nil, c.err(loadingMessage(n))
		}

		return out.Interface(), nil
	}), nil
}

func dumpSet(m provider.Mediator, req provider.DumperRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	elem, err := dumperAt(m, paramStack(req.Stack, n, 0))
	if err != nil {
		return nil, err
	}

	return provider.Dumper(func(v any) (any, error) {
		if v == nil {
			return []any{}, nil
		}

		keys := sortedKeys(reflect.ValueOf(v))
		out := make([]any, len(keys))

		for i, k := range keys {
			d, err := elem(k)
			if err != nil {
				return nil, loaderr.AppendTrail(err, i)
			}

			out[i] = d
		}

		return out, nil
	}), nil
}

func loadTuple(m provider.Mediator, req provider.LoaderRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	if typing.IsVariadicTuple(n) {
		return loadSequence(m, req)
	}

	strict, err := strictAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	trail, err := trailAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	reqs := make([]provider.Request, len(n.Args()))
	for i := range reqs {
		reqs[i] = provider.LoaderRequest{Stack: paramStack(req.Stack, n, i)}
	}

	loaders, err := provider.ProvideAll[provider.Loader](m, reqs, func() string {
		return "Cannot create loader for tuple. Loaders for some elements cannot be created"
	})
	if err != nil {
		return nil, err
	}

	return provider.Loader(func(data any) (any, error) {
		items, ok := elements(data, strict)
		if !ok {
			return nil, &loaderr.TypeLoadError{Expected: n, Input: data}
		}

		if err := checkLength(len(loaders), data, len(items)); err != nil {
			return nil, err
		}

		out := make([]any, len(items))
		c := collector{mode: trail}

		for i, item := range items {
			v, err := loaders[i](item)
			if err != nil {
				if stop := c.add(err, i); stop != nil {
					return nil, stop
				}

				continue
			}

			out[i] = v
		}

		if c.failed() {
			return nil, c.err(loadingMessage(n))
		}

		return out, nil
	}), nil
}

func dumpTuple(m provider.Mediator, req provider.DumperRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	if typing.IsVariadicTuple(n) {
		return dumpSequence(m, req)
	}

	reqs := make([]provider.Request, len(n.Args()))
	for i := range reqs {
		reqs[i] = provider.DumperRequest{Stack: paramStack(req.Stack, n, i)}
	}

	dumpers, err := provider.ProvideAll[provider.Dumper](m, reqs, func() string {
		return "Cannot create dumper for tuple. Dumpers for some elements cannot be created"
	})
	if err != nil {
		return nil, err
	}

	return provider.Dumper(func(v any) (any, error) {
		items, ok := elements(v, true)
		if !ok || len(items) != len(dumpers) {
			return nil, fmt.Errorf("cannot dump %T as %s", v, n)
		}

		out := make([]any, len(items))

		for i, item := range items {
			d, err := dumpers[i](item)
			if err != nil {
				return nil, loaderr.AppendTrail(err, i)
			}

			out[i] = d
		}

		return out, nil
	}), nil
}
