package typing

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Repr renders a type expression for messages.
func Repr(tp Expr) string {
	switch t := tp.(type) {
	case nil, NoneType:
		return "None"
	case AnyType:
		return "Any"
	case EllipsisType:
		return "..."
	case *NormType:
		return t.String()
	case reflect.Type:
		return t.String()
	case scopedExpr:
		return Repr(t.Expr)
	case UnionExpr:
		return "Union" + reprList(t.Args)
	case LiteralExpr:
		parts := make([]string, len(t.Values))
		for i, v := range t.Values {
			parts[i] = literalRepr(v)
		}

		return "Literal[" + strings.Join(parts, ", ") + "]"
	case AnnotatedExpr:
		parts := []string{Repr(t.Type)}
		for _, m := range t.Metadata {
			parts = append(parts, fmt.Sprintf("%v", m))
		}

		return "Annotated[" + strings.Join(parts, ", ") + "]"
	case TupleExpr:
		switch {
		case t.bare:
			return "tuple"
		case t.Variadic && len(t.Args) == 1:
			return "tuple[" + Repr(t.Args[0]) + ", ...]"
		case len(t.Args) == 0:
			return "tuple[()]"
		default:
			return "tuple" + reprList(t.Args)
		}
	case CallableExpr:
		if t.bare {
			return "Callable"
		}

		return "Callable[" + reprParams(t.Params) + ", " + Repr(t.Result) + "]"
	case TypeOfExpr:
		return "type[" + Repr(t.Type) + "]"
	case InitVarExpr:
		return "InitVar[" + Repr(t.Type) + "]"
	case UnpackExpr:
		return "*" + Repr(t.Type)
	case ParamExpr:
		return Repr(t.Origin) + reprList(t.Args)
	case RefExpr:
		return strconv.Quote(t.Name)
	case *NewTypeDef:
		return t.Name
	case *TypeVar:
		return t.String()
	case *ParamSpec:
		return t.String()
	case ParamSpecArgs:
		return t.Spec.name + ".args"
	case ParamSpecKwargs:
		return t.Spec.name + ".kwargs"
	case *TypeVarTuple:
		return t.String()
	case *Origin:
		return t.name
	case *Model:
		return t.String()
	case []Expr:
		return reprList(t)
	default:
		return fmt.Sprintf("%v", tp)
	}
}

func reprList(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Repr(a)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func reprParams(params any) string {
	switch p := params.(type) {
	case nil:
		return "[]"
	case []Expr:
		return reprList(p)
	default:
		return Repr(p)
	}
}
