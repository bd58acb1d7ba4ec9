package typing

import (
	"reflect"
	"regexp"
)

var (
	recordType  = reflect.TypeFor[map[string]any]()
	tupleType   = reflect.TypeFor[[]any]()
	classType   = reflect.TypeFor[reflect.Type]()
	patternType = reflect.TypeFor[*regexp.Regexp]()
	emptyType   = reflect.TypeFor[struct{}]()
)

// GoType returns the runtime representation of values of n.
//
// Types built from Go types map back to them. Models are records
// (map[string]any), fixed tuples are []any and sets are map[T]struct{}.
// Unions map to the common member type, to a nilable type for optionals and
// to any otherwise.
func GoType(n *NormType) reflect.Type {
	if n.rt != nil {
		return n.rt
	}

	switch o := n.origin.(type) {
	case reflect.Type:
		return o
	case *Model:
		return recordType
	case *NewTypeDef:
		super, err := Normalize(o.Super)
		if err != nil {
			return anyReflectType
		}

		return GoType(super)
	case *Origin:
		return originGoType(n, o)
	default:
		return anyReflectType
	}
}

func originGoType(n *NormType, o *Origin) reflect.Type {
	switch o {
	case Slice:
		return reflect.SliceOf(GoType(n.Arg(0)))
	case Array:
		return reflect.ArrayOf(n.args[1].(int), GoType(n.Arg(0)))
	case Map:
		return reflect.MapOf(GoType(n.Arg(0)), GoType(n.Arg(1)))
	case Set:
		return reflect.MapOf(GoType(n.Arg(0)), emptyType)
	case Pointer:
		return reflect.PointerTo(GoType(n.Arg(0)))
	case Pattern:
		return patternType
	case AnnotatedOrigin, InitVarOrigin:
		return GoType(n.Arg(0))
	case TypeOfOrigin:
		return classType
	case TupleOrigin:
		if isVariadicTuple(n) {
			return reflect.SliceOf(GoType(n.Arg(0)))
		}

		return tupleType
	case LiteralOrigin:
		return commonType(n.args, func(a any) reflect.Type { return reflect.TypeOf(a) })
	case UnionOrigin:
		return unionGoType(n)
	case CallableOrigin:
		return callableGoType(n)
	default:
		return anyReflectType
	}
}

func commonType(items []any, typeOf func(any) reflect.Type) reflect.Type {
	var common reflect.Type

	for _, item := range items {
		t := typeOf(item)
		if common != nil && common != t {
			return anyReflectType
		}

		common = t
	}

	if common == nil {
		return anyReflectType
	}

	return common
}

func unionGoType(n *NormType) reflect.Type {
	var rest []any

	hasNone := false

	for _, a := range n.args {
		if a.(*NormType).IsNone() {
			hasNone = true

			continue
		}

		rest = append(rest, a)
	}

	common := commonType(rest, func(a any) reflect.Type { return GoType(a.(*NormType)) })
	if !hasNone || IsNilable(common) {
		return common
	}

	return reflect.PointerTo(common)
}

// IsNilable reports whether nil is a valid value of t.
func IsNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

func callableGoType(n *NormType) reflect.Type {
	params, ok := n.args[0].([]*NormType)
	if !ok {
		return anyReflectType
	}

	in := make([]reflect.Type, len(params))
	for i, p := range params {
		in[i] = GoType(p)
	}

	var out []reflect.Type

	result := n.Arg(1)

	switch {
	case result.IsNone():
	case isFixedTuple(result):
		for i := range result.args {
			out = append(out, GoType(result.Arg(i)))
		}
	default:
		out = []reflect.Type{GoType(result)}
	}

	return reflect.FuncOf(in, out, false)
}
