package typing

import (
	"reflect"
)

// Expr is a type expression. See the package documentation for the accepted forms.
type Expr = any

// NoneType is the type of the None expression.
type NoneType struct{}

// AnyType is the type of the Any expression.
type AnyType struct{}

// EllipsisType marks variadic tuples and unconstrained callable parameters.
type EllipsisType struct{}

var (
	// None is the none type. A nil Expr means the same.
	None = NoneType{}
	// Any matches every value.
	Any = AnyType{}
	// Ellipsis is the "..." marker.
	Ellipsis = EllipsisType{}
)

// Of returns the reflect.Type of T as an expression.
func Of[T any]() Expr {
	return reflect.TypeFor[T]()
}

// UnionExpr is a union of alternatives.
type UnionExpr struct {
	Args []Expr
}

// Union builds a union of the given alternatives.
func Union(args ...Expr) UnionExpr {
	return UnionExpr{Args: args}
}

// Optional is a shortcut for Union(tp, None).
func Optional(tp Expr) UnionExpr {
	return UnionExpr{Args: []Expr{tp, None}}
}

// LiteralExpr is a type allowing only the listed values.
type LiteralExpr struct {
	Values []any
}

// Literal builds a literal type. A nil value or None stands for None.
func Literal(values ...any) LiteralExpr {
	return LiteralExpr{Values: values}
}

// AnnotatedExpr attaches metadata to a type.
type AnnotatedExpr struct {
	Type     Expr
	Metadata []any
}

// Annotated wraps tp with metadata.
func Annotated(tp Expr, metadata ...any) AnnotatedExpr {
	return AnnotatedExpr{Type: tp, Metadata: metadata}
}

// TupleExpr is a heterogeneous fixed tuple or, when Variadic, a homogeneous
// tuple of any length whose single element type is Args[0].
type TupleExpr struct {
	Args     []Expr
	Variadic bool
	bare     bool
}

var (
	// EmptyTuple is the tuple of no elements.
	EmptyTuple = TupleExpr{Args: []Expr{}}
	// BareTuple is an unparameterized tuple, equal to TupleOf(Any).
	BareTuple = TupleExpr{bare: true}
)

// Tuple builds a fixed tuple type.
func Tuple(args ...Expr) TupleExpr {
	if args == nil {
		args = []Expr{}
	}

	return TupleExpr{Args: args}
}

// TupleOf builds a variadic homogeneous tuple type.
func TupleOf(elem Expr) TupleExpr {
	return TupleExpr{Args: []Expr{elem}, Variadic: true}
}

// CallableExpr describes a function. Params is a []Expr, Ellipsis or a *ParamSpec.
type CallableExpr struct {
	Params any
	Result Expr
	bare   bool
}

// BareCallable is an unparameterized callable, equal to Callable(Ellipsis, Any).
var BareCallable = CallableExpr{bare: true}

// Callable builds a callable type.
func Callable(params any, result Expr) CallableExpr {
	return CallableExpr{Params: params, Result: result}
}

// TypeOfExpr is the type of class objects of Type.
type TypeOfExpr struct {
	Type Expr
}

// TypeOf builds a class-object type.
func TypeOf(tp Expr) TypeOfExpr {
	return TypeOfExpr{Type: tp}
}

// InitVarExpr marks a constructor-only pseudo field.
type InitVarExpr struct {
	Type Expr
}

// InitVar builds an init-only type.
func InitVar(tp Expr) InitVarExpr {
	return InitVarExpr{Type: tp}
}

// UnpackExpr unpacks a tuple or a type variable tuple in place.
type UnpackExpr struct {
	Type Expr
}

// Unpack builds an unpack expression.
func Unpack(tp Expr) UnpackExpr {
	return UnpackExpr{Type: tp}
}

// ParamExpr parameterizes a generic origin.
type ParamExpr struct {
	Origin Expr
	Args   []Expr
}

// Param parameterizes a generic origin such as Slice or a *Model.
func Param(origin Expr, args ...Expr) ParamExpr {
	return ParamExpr{Origin: origin, Args: args}
}

// RefExpr is a forward reference resolved by name.
type RefExpr struct {
	Name   string
	Module *Module
}

// Ref builds a forward reference resolved against the module of the
// enclosing declaration.
func Ref(name string) RefExpr {
	return RefExpr{Name: name}
}

// NewTypeDef is a distinct nominal type over Super.
type NewTypeDef struct {
	Name  string
	Super Expr
}

// NewType declares a new nominal type.
func NewType(name string, super Expr) *NewTypeDef {
	return &NewTypeDef{Name: name, Super: super}
}

// Origin is a built-in generic origin or a special form tag.
type Origin struct {
	name  string
	arity int
}

// Name returns the origin name.
func (o *Origin) Name() string { return o.name }

// Arity is the number of type parameters of a generic origin, -1 for special forms.
func (o *Origin) Arity() int { return o.arity }

func (o *Origin) String() string { return o.name }

// Generic origins.
var (
	Slice   = &Origin{name: "slice", arity: 1}
	Array   = &Origin{name: "array", arity: 2}
	Map     = &Origin{name: "map", arity: 2}
	Set     = &Origin{name: "set", arity: 1}
	Pointer = &Origin{name: "pointer", arity: 1}
	Pattern = &Origin{name: "pattern", arity: 1}
)

// Special form origins of normalized types.
var (
	NoneOrigin            = &Origin{name: "None", arity: -1}
	AnyOrigin             = &Origin{name: "Any", arity: -1}
	UnionOrigin           = &Origin{name: "typing.Union", arity: -1}
	LiteralOrigin         = &Origin{name: "typing.Literal", arity: -1}
	AnnotatedOrigin       = &Origin{name: "typing.Annotated", arity: -1}
	TupleOrigin           = &Origin{name: "tuple", arity: -1}
	CallableOrigin        = &Origin{name: "typing.Callable", arity: -1}
	TypeOfOrigin          = &Origin{name: "type", arity: -1}
	InitVarOrigin         = &Origin{name: "InitVar", arity: -1}
	UnpackOrigin          = &Origin{name: "typing.Unpack", arity: -1}
	ParamSpecArgsOrigin   = &Origin{name: "ParamSpecArgs", arity: -1}
	ParamSpecKwargsOrigin = &Origin{name: "ParamSpecKwargs", arity: -1}
)

// bareForms are special forms that require parameters.
var bareForms = map[*Origin]struct{}{
	UnionOrigin:     {},
	LiteralOrigin:   {},
	AnnotatedOrigin: {},
	UnpackOrigin:    {},
	InitVarOrigin:   {},
	TypeOfOrigin:    {},
}
