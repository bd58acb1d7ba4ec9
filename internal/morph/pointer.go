package morph

import (
	"reflect"

	"retort/provider"
	"retort/typing"
)

// PointerProvider handles pointers: nil is None, anything else is the
// pointee.
func PointerProvider() provider.Provider {
	return both(provider.ExactOrigin(typing.Pointer), loadPointer, dumpPointer)
}

func loadPointer(m provider.Mediator, req provider.LoaderRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	elem, err := loaderAt(m, paramStack(req.Stack, n, 0))
	if err != nil {
		return nil, err
	}

	rt := typing.GoType(n)
	null := reflect.Zero(rt).Interface()

	return provider.Loader(func(data any) (any, error) {
		if data == nil {
			return null, nil
		}

		v, err := elem(data)
		if err != nil {
			return nil, err
		}

		pv, err := fit(v, rt)
		if err != nil {
			return nil, err
		}

		return pv.Interface(), nil
	}), nil
}

func dumpPointer(m provider.Mediator, req provider.DumperRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	elem, err := dumperAt(m, paramStack(req.Stack, n, 0))
	if err != nil {
		return nil, err
	}

	return provider.Dumper(func(v any) (any, error) {
		if isNil(v) {
			return nil, nil
		}

		return elem(reflect.ValueOf(v).Elem().Interface())
	}), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	return typing.IsNilable(rv.Type()) && rv.IsNil()
}
