package morph

import (
	"reflect"

	"retort/loaderr"
	"retort/provider"
	"retort/typing"
)

// WrapperProvider unwraps Annotated, InitVar and NewType locations, loads
// TypeOf values and routes named slice, array, map and pointer types
// through their unnamed form.
func WrapperProvider() provider.Provider {
	unwrap := provider.Or(
		provider.ExactOrigin(typing.AnnotatedOrigin),
		provider.ExactOrigin(typing.InitVarOrigin),
		provider.CheckerFunc(isNewType),
	)

	return provider.Concat(
		both(unwrap,
			func(m provider.Mediator, req provider.LoaderRequest) (any, error) {
				inner, err := unwrapped(req.Stack)
				if err != nil {
					return nil, err
				}

				return loaderAt(m, req.Stack.ReplaceLastType(inner))
			},
			func(m provider.Mediator, req provider.DumperRequest) (any, error) {
				inner, err := unwrapped(req.Stack)
				if err != nil {
					return nil, err
				}

				return dumperAt(m, req.Stack.ReplaceLastType(inner))
			},
		),
		both(provider.ExactOrigin(typing.TypeOfOrigin), loadTypeOf, func(provider.Mediator, provider.DumperRequest) (any, error) {
			return provider.Dumper(identity), nil
		}),
		both(kindChecker(reflect.Slice, reflect.Array, reflect.Map, reflect.Pointer), loadNamed, dumpNamed),
	)
}

func isNewType(_ provider.Mediator, s provider.LocStack) bool {
	n, err := typing.Normalize(s.Last().Type)
	if err != nil {
		return false
	}

	_, ok := n.Origin().(*typing.NewTypeDef)

	return ok
}

func unwrapped(s provider.LocStack) (typing.Expr, error) {
	n, err := lastType(s)
	if err != nil {
		return nil, err
	}

	if def, ok := n.Origin().(*typing.NewTypeDef); ok {
		return def.Super, nil
	}

	return n.Arg(0), nil
}

func loadTypeOf(_ provider.Mediator, req provider.LoaderRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	parent := n.Arg(0)

	return provider.Loader(func(data any) (any, error) {
		rt, ok := data.(reflect.Type)
		if !ok || !typing.IsSubclass(rt, parent) {
			return nil, &loaderr.TypeLoadError{Expected: n, Input: data}
		}

		return rt, nil
	}), nil
}

// unnamed returns the type literal a named composite type is defined
// with.
func unnamed(rt reflect.Type) reflect.Type {
	switch rt.Kind() {
	case reflect.Slice:
		return reflect.SliceOf(rt.Elem())
	case reflect.Array:
		return reflect.ArrayOf(rt.Len(), rt.Elem())
	case reflect.Map:
		return reflect.MapOf(rt.Key(), rt.Elem())
	default:
		return reflect.PointerTo(rt.Elem())
	}
}

func namedTypes(s provider.LocStack) (reflect.Type, reflect.Type, error) {
	n, err := lastType(s)
	if err != nil {
		return nil, nil, err
	}

	rt := n.Origin().(reflect.Type)
	if rt.Name() == "" {
		return nil, nil, provider.Cannot("%s is not a named type", rt)
	}

	return rt, unnamed(rt), nil
}

func loadNamed(m provider.Mediator, req provider.LoaderRequest) (any, error) {
	rt, base, err := namedTypes(req.Stack)
	if err != nil {
		return nil, err
	}

	load, err := loaderAt(m, req.Stack.ReplaceLastType(base))
	if err != nil {
		return nil, err
	}

	return provider.Loader(func(data any) (any, error) {
		v, err := load(data)
		if err != nil {
			return nil, err
		}

		return reflect.ValueOf(v).Convert(rt).Interface(), nil
	}), nil
}

func dumpNamed(m provider.Mediator, req provider.DumperRequest) (any, error) {
	_, base, err := namedTypes(req.Stack)
	if err != nil {
		return nil, err
	}

	dump, err := dumperAt(m, req.Stack.ReplaceLastType(base))
	if err != nil {
		return nil, err
	}

	return provider.Dumper(func(v any) (any, error) {
		return dump(reflect.ValueOf(v).Convert(base).Interface())
	}), nil
}
