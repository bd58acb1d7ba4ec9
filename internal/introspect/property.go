package introspect

import (
	"fmt"
	"reflect"
	"slices"

	"retort/provider"
	"retort/shape"
	"retort/typing"
)

// WithProperty adds an output field read from a method of the models
// matching checker. The field type is tp, or the first result of the
// method when tp is nil.
func WithProperty(checker provider.Checker, id, method string, tp typing.Expr) provider.Provider {
	return provider.Handle(checker, func(m provider.Mediator, req provider.OutputShapeRequest) (any, error) {
		sh, err := provider.ProvideFromNext[*shape.OutputShape](m)
		if err != nil {
			return nil, err
		}

		if _, taken := sh.Field(id); taken {
			return nil, provider.Terminal("%s already has a field %s", typing.Repr(req.Stack.Last().Type), id)
		}

		fieldType := tp
		if fieldType == nil {
			fieldType, err = methodResult(req.Stack.Last().Type, method)
			if err != nil {
				return nil, provider.Terminal("%v", err)
			}
		}

		out := *sh
		out.Fields = append(slices.Clone(sh.Fields), shape.OutputField{
			ID:       id,
			Type:     fieldType,
			Default:  shape.NoDefault{},
			Accessor: shape.MethodAccessor{Name: method, Required: true},
		})

		return &out, nil
	})
}

func methodResult(tp typing.Expr, name string) (reflect.Type, error) {
	n, err := typing.Normalize(tp)
	if err != nil {
		return nil, err
	}

	rt := n.ReflectType()
	if rt == nil {
		return nil, fmt.Errorf("%s is not a Go type", typing.Repr(tp))
	}

	m, ok := reflect.PointerTo(rt).MethodByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", shape.ErrMissingMethod, rt, name)
	}

	mt := m.Type
	if mt.NumIn() != 1 || mt.NumOut() < 1 || mt.NumOut() > 2 ||
		mt.NumOut() == 2 && mt.Out(1) != errorType {
		return nil, fmt.Errorf("method %s must take no arguments and return a value and optionally an error", name)
	}

	return mt.Out(0), nil
}
