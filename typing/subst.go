package typing

import (
	"fmt"
)

// Substitution maps type variables to their replacements.
//
// A *TypeVar maps to a *NormType; a *TypeVarTuple maps to a tuple *NormType
// whose elements are spliced in place; a *ParamSpec maps to a []*NormType,
// Ellipsis or a ParamSpec *NormType.
type Substitution map[Expr]any

// FreeVars returns the type variables of n in order of first appearance.
func FreeVars(n *NormType) []Expr {
	var (
		vars []Expr
		seen = make(map[Expr]struct{})
	)

	var walk func(a any)
	walk = func(a any) {
		switch a := a.(type) {
		case *NormType:
			switch o := a.origin.(type) {
			case *TypeVar, *ParamSpec, *TypeVarTuple:
				if _, ok := seen[o]; !ok {
					seen[o] = struct{}{}
					vars = append(vars, o)
				}
			}

			for _, arg := range a.args {
				walk(arg)
			}
		case []*NormType:
			for _, p := range a {
				walk(p)
			}
		}
	}

	walk(n)

	return vars
}

// Substitute replaces the type variables of n according to s and renormalizes
// the result.
func Substitute(n *NormType, s Substitution) (*NormType, error) {
	if len(s) == 0 {
		return n, nil
	}

	r, err := substitute(n, s)
	if err != nil {
		return nil, err
	}

	result, ok := r.(*NormType)
	if !ok {
		return nil, fmt.Errorf("%s: parameter list cannot stand for a type", n)
	}

	return result, nil
}

func substitute(n *NormType, s Substitution) (any, error) {
	switch o := n.origin.(type) {
	case *TypeVar, *ParamSpec, *TypeVarTuple:
		if r, ok := s[o]; ok {
			return r, nil
		}

		return n, nil
	}

	if len(n.args) == 0 {
		return n, nil
	}

	changed := false
	args := make([]any, len(n.args))

	for i, a := range n.args {
		r, err := substituteArg(a, s)
		if err != nil {
			return nil, err
		}

		args[i] = r
		changed = changed || !sameArg(a, r)
	}

	if !changed {
		return n, nil
	}

	expr, err := rebuild(n, args)
	if err != nil {
		return nil, err
	}

	return Normalize(expr)
}

func substituteArg(a any, s Substitution) (any, error) {
	switch a := a.(type) {
	case *NormType:
		return substitute(a, s)
	case []*NormType:
		result := make([]*NormType, len(a))

		for i, p := range a {
			r, err := Substitute(p, s)
			if err != nil {
				return nil, err
			}

			result[i] = r
		}

		return result, nil
	default:
		return a, nil
	}
}

func sameArg(a, b any) bool {
	switch a := a.(type) {
	case *NormType:
		bn, ok := b.(*NormType)
		return ok && a == bn
	case []*NormType:
		bl, ok := b.([]*NormType)
		if !ok || len(bl) != len(a) {
			return false
		}

		for i := range a {
			if a[i] != bl[i] {
				return false
			}
		}

		return true
	default:
		return true
	}
}

// rebuild turns a normalized type with replaced args back into an expression.
func rebuild(n *NormType, args []any) (Expr, error) {
	switch o := n.origin.(type) {
	case *Model:
		return Param(o, args...), nil
	case *Origin:
		switch o {
		case UnionOrigin:
			return Union(args...), nil
		case AnnotatedOrigin:
			return Annotated(args[0], args[1:]...), nil
		case TupleOrigin:
			if len(args) == 2 {
				if _, ok := args[1].(EllipsisType); ok {
					return TupleOf(args[0]), nil
				}
			}

			return Tuple(args...), nil
		case CallableOrigin:
			return Callable(callableParams(args[0]), args[1]), nil
		case TypeOfOrigin:
			return TypeOf(args[0]), nil
		case InitVarOrigin:
			return InitVar(args[0]), nil
		case UnpackOrigin:
			return Unpack(args[0]), nil
		case ParamSpecArgsOrigin, ParamSpecKwargsOrigin:
			return n, nil
		default:
			if o.arity > 0 {
				return Param(o, args...), nil
			}
		}
	}

	return nil, fmt.Errorf("cannot substitute inside %s", n)
}

func callableParams(a any) any {
	switch a := a.(type) {
	case []*NormType:
		params := make([]Expr, len(a))
		for i, p := range a {
			params[i] = p
		}

		return params
	case *NormType:
		if ps, ok := a.origin.(*ParamSpec); ok {
			return ps
		}

		return a
	default:
		return a
	}
}
