package typing

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

// NormType is the canonical form of a type expression.
//
// Identity depends only on origin and args: two NormTypes are equal when
// their keys are equal and their unkeyed annotated metadata compare equal.
// Source is kept for messages only.
type NormType struct {
	origin any
	args   []any
	source Expr
	key    string

	// unkeyed holds annotated metadata that cannot take part in the key.
	unkeyed []any
	// rt is the Go type the expression was built from, if any.
	rt reflect.Type
	tv *varLimit
}

type varLimit struct {
	bound       *NormType
	constraints []*NormType
	variance    Variance
}

// reprConfig renders values with their type so keys over heterogeneous
// members stay distinct and deterministic.
var reprConfig = spew.ConfigState{
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

func newNorm(origin any, args []any, source Expr) *NormType {
	n := &NormType{origin: origin, args: args, source: source}
	n.key = n.computeKey()

	return n
}

// Origin returns the origin tag: a reflect.Type, an *Origin, a type variable,
// a *NewTypeDef or a *Model.
func (n *NormType) Origin() any { return n.origin }

// Args returns the normalized arguments.
func (n *NormType) Args() []any { return n.args }

// Source returns the expression n was built from.
func (n *NormType) Source() Expr { return n.source }

// Key is the identity key of n.
func (n *NormType) Key() string { return n.key }

// ReflectType returns the Go type n was built from, or nil.
func (n *NormType) ReflectType() reflect.Type { return n.rt }

// Arg returns the i-th argument if it is a normalized type.
func (n *NormType) Arg(i int) *NormType {
	if i < 0 || i >= len(n.args) {
		return nil
	}

	a, _ := n.args[i].(*NormType)

	return a
}

// Is reports whether n has the given special or generic origin.
func (n *NormType) Is(o *Origin) bool {
	origin, ok := n.origin.(*Origin)

	return ok && origin == o
}

func (n *NormType) IsNone() bool { return n.Is(NoneOrigin) }

func (n *NormType) IsAny() bool { return n.Is(AnyOrigin) }

// Bound returns the bound of a type variable, Any when unbounded.
func (n *NormType) Bound() *NormType {
	if n.tv == nil || n.tv.bound == nil {
		return normAny
	}

	return n.tv.bound
}

// Constraints returns the constraints of a type variable.
func (n *NormType) Constraints() []*NormType {
	if n.tv == nil {
		return nil
	}

	return n.tv.constraints
}

// Variance returns the variance of a type variable.
func (n *NormType) Variance() Variance {
	if n.tv == nil {
		return Invariant
	}

	return n.tv.variance
}

// Equal reports whether n and o denote the same type.
func (n *NormType) Equal(o *NormType) bool {
	if n == o {
		return true
	}

	if n == nil || o == nil || n.key != o.key {
		return false
	}

	if len(n.unkeyed) == 0 && len(o.unkeyed) == 0 {
		return true
	}

	return cmp.Equal(n.unkeyed, o.unkeyed, cmp.Exporter(func(reflect.Type) bool { return true }))
}

// withSource returns a copy of n carrying another source.
func (n *NormType) withSource(source Expr) *NormType {
	c := *n
	c.source = source

	return &c
}

func (n *NormType) computeKey() string {
	var b strings.Builder

	b.WriteString(originKey(n.origin))

	if len(n.args) == 0 {
		if n.Is(TupleOrigin) {
			b.WriteString("[()]")
		}

		return b.String()
	}

	b.WriteByte('[')

	keys := make([]string, 0, len(n.args))
	for i, a := range n.args {
		if n.Is(AnnotatedOrigin) && i > 0 && !isComparable(a) {
			continue
		}

		keys = append(keys, argKey(a))
	}

	b.WriteString(strings.Join(keys, ", "))
	b.WriteByte(']')

	return b.String()
}

func originKey(o any) string {
	switch o := o.(type) {
	case reflect.Type:
		if o.Name() != "" && o.PkgPath() != "" {
			return o.PkgPath() + "." + o.Name()
		}

		return o.String()
	case *Origin:
		return o.name
	case *TypeVar:
		return o.identity()
	case *ParamSpec:
		return o.identity()
	case *TypeVarTuple:
		return o.identity()
	case *NewTypeDef:
		return "NewType(" + o.Name + ")"
	case *Model:
		return o.String()
	default:
		return valueKey(o)
	}
}

func argKey(a any) string {
	switch a := a.(type) {
	case *NormType:
		return a.key
	case []*NormType:
		keys := make([]string, len(a))
		for i, p := range a {
			keys[i] = p.key
		}

		return "[" + strings.Join(keys, ", ") + "]"
	case EllipsisType:
		return "..."
	default:
		return valueKey(a)
	}
}

// valueKey renders v with its type; quoting keeps keys of composite args unambiguous.
func valueKey(v any) string {
	return strconv.Quote(reprConfig.Sprintf("%#v", v))
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}

	return reflect.ValueOf(v).Comparable()
}

// String renders n for messages.
func (n *NormType) String() string {
	if n == nil {
		return "<nil>"
	}

	if n.rt != nil {
		return n.rt.String()
	}

	switch o := n.origin.(type) {
	case reflect.Type:
		return o.String()
	case *TypeVar:
		return o.String()
	case *ParamSpec:
		return o.String()
	case *TypeVarTuple:
		return o.String()
	case *NewTypeDef:
		return o.Name
	case *Model:
		return o.String() + renderArgs(n.args)
	case *Origin:
		return n.renderSpecial(o)
	default:
		return Repr(n.source)
	}
}

func (n *NormType) renderSpecial(o *Origin) string {
	switch o {
	case NoneOrigin, AnyOrigin:
		return o.name
	case Slice:
		return "[]" + renderArg(n.args[0])
	case Array:
		return "[" + renderArg(n.args[1]) + "]" + renderArg(n.args[0])
	case Map:
		return "map[" + renderArg(n.args[0]) + "]" + renderArg(n.args[1])
	case Pointer:
		return "*" + renderArg(n.args[0])
	case Set, Pattern:
		return o.name + renderArgs(n.args)
	case TupleOrigin:
		if len(n.args) == 0 {
			return "tuple[()]"
		}

		return "tuple" + renderArgs(n.args)
	case LiteralOrigin:
		parts := make([]string, len(n.args))
		for i, a := range n.args {
			parts[i] = literalRepr(a)
		}

		return "Literal[" + strings.Join(parts, ", ") + "]"
	case UnionOrigin:
		return "Union" + renderArgs(n.args)
	case AnnotatedOrigin:
		return "Annotated" + renderArgs(n.args)
	case CallableOrigin:
		return "Callable" + renderArgs(n.args)
	case TypeOfOrigin:
		return "type" + renderArgs(n.args)
	default:
		return strings.TrimPrefix(o.name, "typing.") + renderArgs(n.args)
	}
}

func renderArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = renderArg(a)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func renderArg(a any) string {
	switch a := a.(type) {
	case *NormType:
		return a.String()
	case []*NormType:
		parts := make([]string, len(a))
		for i, p := range a {
			parts[i] = p.String()
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case EllipsisType:
		return "..."
	default:
		return literalRepr(a)
	}
}

func literalRepr(v any) string {
	if _, isNone := v.(NoneType); v == nil || isNone {
		return "None"
	}

	return fmt.Sprintf("%#v", v)
}

// IsVariadicTuple reports whether n is tuple[T, ...].
func IsVariadicTuple(n *NormType) bool { return isVariadicTuple(n) }
