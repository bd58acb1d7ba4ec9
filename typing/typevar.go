package typing

import (
	"fmt"
	"sync/atomic"
)

// Variance of a type variable.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// String returns a human-readable variance name.
func (v Variance) String() string {
	switch v {
	case Invariant:
		return "invariant"
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	default:
		return unknownStr
	}
}

const unknownStr = "unknown"

var varSeq atomic.Int64

// TypeVar is a type variable. Identity is the pointer.
type TypeVar struct {
	name        string
	seq         int64
	bound       Expr
	constraints []Expr
	def         Expr
	hasDefault  bool
	variance    Variance
	module      *Module
	self        bool
}

// TypeVarOption configures a TypeVar.
type TypeVarOption func(*TypeVar)

// WithBound sets the upper bound.
func WithBound(bound Expr) TypeVarOption {
	return func(tv *TypeVar) { tv.bound = bound }
}

// WithConstraints restricts the variable to one of the given types.
func WithConstraints(constraints ...Expr) TypeVarOption {
	return func(tv *TypeVar) { tv.constraints = constraints }
}

// WithDefault sets the value used when no argument is supplied.
func WithDefault(def Expr) TypeVarOption {
	return func(tv *TypeVar) {
		tv.def = def
		tv.hasDefault = true
	}
}

// WithVariance sets the variance.
func WithVariance(v Variance) TypeVarOption {
	return func(tv *TypeVar) { tv.variance = v }
}

// InModule sets the namespace used to resolve references inside bound and constraints.
func InModule(m *Module) TypeVarOption {
	return func(tv *TypeVar) { tv.module = m }
}

// NewTypeVar declares a type variable.
func NewTypeVar(name string, opts ...TypeVarOption) *TypeVar {
	tv := &TypeVar{name: name, seq: varSeq.Add(1)}
	for _, opt := range opts {
		opt(tv)
	}

	return tv
}

// Self is the distinguished variable bound to the model being resolved.
var Self = &TypeVar{name: "Self", seq: 0, self: true}

func (tv *TypeVar) Name() string { return tv.name }

// Bound returns the upper bound or nil.
func (tv *TypeVar) Bound() Expr { return tv.bound }

// Constraints returns the allowed types, if constrained.
func (tv *TypeVar) Constraints() []Expr { return tv.constraints }

// Default returns the default argument and whether one is declared.
func (tv *TypeVar) Default() (Expr, bool) { return tv.def, tv.hasDefault }

func (tv *TypeVar) Variance() Variance { return tv.variance }

func (tv *TypeVar) Module() *Module { return tv.module }

// IsSelf reports whether tv is Self.
func (tv *TypeVar) IsSelf() bool { return tv.self }

func (tv *TypeVar) String() string { return "~" + tv.name }

func (tv *TypeVar) identity() string { return fmt.Sprintf("~%s#%d", tv.name, tv.seq) }

func (tv *TypeVar) defaultExpr() (Expr, bool) { return tv.def, tv.hasDefault }

// ParamSpec is a variable standing for a callable parameter list.
type ParamSpec struct {
	name       string
	seq        int64
	def        []Expr
	hasDefault bool
}

// NewParamSpec declares a parameter specification variable.
func NewParamSpec(name string) *ParamSpec {
	return &ParamSpec{name: name, seq: varSeq.Add(1)}
}

// WithParamsDefault sets the default parameter list.
func (ps *ParamSpec) WithParamsDefault(params ...Expr) *ParamSpec {
	ps.def = params
	ps.hasDefault = true

	return ps
}

func (ps *ParamSpec) Name() string { return ps.name }

func (ps *ParamSpec) String() string { return "~" + ps.name }

func (ps *ParamSpec) identity() string { return fmt.Sprintf("~%s#%d", ps.name, ps.seq) }

// Args is the positional-arguments marker of the ParamSpec.
func (ps *ParamSpec) Args() ParamSpecArgs { return ParamSpecArgs{Spec: ps} }

// Kwargs is the keyword-arguments marker of the ParamSpec.
func (ps *ParamSpec) Kwargs() ParamSpecKwargs { return ParamSpecKwargs{Spec: ps} }

// ParamSpecArgs stands for the positional arguments of a ParamSpec.
type ParamSpecArgs struct{ Spec *ParamSpec }

// ParamSpecKwargs stands for the keyword arguments of a ParamSpec.
type ParamSpecKwargs struct{ Spec *ParamSpec }

// TypeVarTuple is a variable standing for any number of types.
type TypeVarTuple struct {
	name       string
	seq        int64
	def        []Expr
	hasDefault bool
}

// NewTypeVarTuple declares a variadic type variable.
func NewTypeVarTuple(name string) *TypeVarTuple {
	return &TypeVarTuple{name: name, seq: varSeq.Add(1)}
}

// WithTypesDefault sets the default types.
func (tt *TypeVarTuple) WithTypesDefault(types ...Expr) *TypeVarTuple {
	tt.def = types
	tt.hasDefault = true

	return tt
}

func (tt *TypeVarTuple) Name() string { return tt.name }

func (tt *TypeVarTuple) String() string { return "*" + tt.name }

func (tt *TypeVarTuple) identity() string { return fmt.Sprintf("*%s#%d", tt.name, tt.seq) }

// implicitArgs returns the arguments filled in for a type parameter when none
// is given: the declared default, else the constraints union, else the bound,
// else Any.
func implicitArgs(param Expr) []Expr {
	switch p := param.(type) {
	case *TypeVar:
		if def, ok := p.defaultExpr(); ok {
			return []Expr{def}
		}

		if len(p.constraints) > 0 {
			return []Expr{Scoped(Union(p.constraints...), p.module)}
		}

		if p.bound != nil {
			return []Expr{Scoped(p.bound, p.module)}
		}

		return []Expr{Any}
	case *ParamSpec:
		if p.hasDefault {
			return []Expr{p.def}
		}

		return []Expr{Ellipsis}
	case UnpackExpr:
		if tt, ok := p.Type.(*TypeVarTuple); ok && tt.hasDefault {
			return tt.def
		}

		return []Expr{Unpack(TupleOf(Any))}
	case *TypeVarTuple:
		if p.hasDefault {
			return p.def
		}

		return []Expr{Unpack(TupleOf(Any))}
	default:
		return []Expr{Any}
	}
}

// Scoped binds forward references inside tp to the namespace m.
func Scoped(tp Expr, m *Module) Expr {
	if m == nil {
		return tp
	}

	return scopedExpr{Expr: tp, Module: m}
}

// scopedExpr normalizes Expr with Module as the reference namespace.
type scopedExpr struct {
	Expr   Expr
	Module *Module
}
