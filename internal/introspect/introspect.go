package introspect

import (
	"errors"
	"reflect"

	"retort/shape"
	"retort/typing"
)

// Getter returns the shape of a type.
type Getter func(tp typing.Expr) (shape.Shape, error)

type backend struct {
	name string
	get  func(tp typing.Expr, n *typing.NormType) (shape.Shape, error)
}

var backends = []backend{
	{name: "record", get: recordShape},
	{name: "named tuple", get: namedTupleShape},
	{name: "registered", get: registeredShape},
	{name: "computed", get: computedShape},
	{name: "struct", get: structShape},
}

// Get returns the shape of tp. The result is not resolved: fields of
// generic records keep their type variables, see Resolve.
func Get(tp typing.Expr) (shape.Shape, error) {
	if fm, ok := tp.(*shape.FuncModel); ok {
		return funcShape(fm)
	}

	n, err := typing.Normalize(tp)
	if err != nil {
		return shape.Shape{}, err
	}

	n = typing.StripTags(n)

	for _, b := range backends {
		sh, err := b.get(tp, n)

		var notMine *IntrospectionImpossibleError
		if errors.As(err, &notMine) {
			continue
		}

		return sh, err
	}

	return shape.Shape{}, impossible(tp, "")
}

// structType returns the Go struct type behind n.
func structType(n *typing.NormType) (reflect.Type, bool) {
	rt, ok := n.Origin().(reflect.Type)
	if !ok || rt.Kind() != reflect.Struct {
		return nil, false
	}

	return rt, true
}
