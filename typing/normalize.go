package typing

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrNotSubscribed is returned for special forms that require parameters.
	ErrNotSubscribed = errors.New("special form requires parameters")
	// ErrNotInstantiated is returned for nil type variables and new types.
	ErrNotInstantiated = errors.New("identifier is not instantiated")
	// ErrUnresolvedRef is returned when a forward reference cannot be resolved.
	ErrUnresolvedRef = errors.New("forward reference cannot be resolved")
	// ErrArgumentCount is returned when a generic gets a wrong number of arguments.
	ErrArgumentCount = errors.New("wrong number of type arguments")
)

// NormalizeError reports an expression that cannot be normalized.
type NormalizeError struct {
	Expr Expr
	Msg  string
	Err  error
}

func (e *NormalizeError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("can not normalize %s: %v", Repr(e.Expr), e.Err)
	}

	return fmt.Sprintf("can not normalize %s: %s", Repr(e.Expr), e.Msg)
}

func (e *NormalizeError) Unwrap() error { return e.Err }

func fail(tp Expr, err error, format string, args ...any) error {
	return &NormalizeError{Expr: tp, Msg: fmt.Sprintf(format, args...), Err: err}
}

const normCacheSize = 1024

var normCache = mustCache()

func mustCache() *lru.Cache[Expr, *NormType] {
	c, err := lru.New[Expr, *NormType](normCacheSize)
	if err != nil {
		panic(err)
	}

	return c
}

var (
	anyReflectType = reflect.TypeFor[any]()
	normNone       = newNorm(NoneOrigin, nil, None)
	normAny        = newNorm(AnyOrigin, nil, Any)
)

// Normalize reduces tp to its canonical form.
func Normalize(tp Expr) (*NormType, error) {
	return normalizeIn(tp, nil)
}

// MustNormalize is like Normalize but panics on error.
func MustNormalize(tp Expr) *NormType {
	n, err := Normalize(tp)
	if err != nil {
		panic(err)
	}

	return n
}

// KeyOf returns the identity key of tp. Expressions that do not normalize
// are keyed by their representation.
func KeyOf(tp Expr) string {
	n, err := Normalize(tp)
	if err != nil {
		return "!" + Repr(tp)
	}

	return n.Key()
}

// NormalizeIn normalizes tp resolving bare forward references in m.
func NormalizeIn(tp Expr, m *Module) (*NormType, error) {
	return normalizeIn(tp, m)
}

func normalizeIn(tp Expr, m *Module) (*NormType, error) {
	if n, ok := tp.(*NormType); ok {
		return n, nil
	}

	cacheable := m == nil && isComparable(tp)
	if cacheable {
		if n, ok := normCache.Get(tp); ok {
			return n, nil
		}
	}

	n, err := (&normalizer{module: m}).normalize(tp)
	if err != nil {
		return nil, err
	}

	if cacheable {
		normCache.Add(tp, n)
	}

	return n, nil
}

type normalizer struct {
	module *Module
}

// normalize tries the aspects in order; the first one whose guard matches wins.
func (nz *normalizer) normalize(tp Expr) (*NormType, error) {
	switch t := tp.(type) {
	case *NormType:
		return t, nil
	case scopedExpr:
		return normalizeIn(t.Expr, t.Module)
	case RefExpr:
		return nz.forwardRef(t)
	}

	if err := nz.rejectBadInput(tp); err != nil {
		return nil, err
	}

	switch t := tp.(type) {
	case nil, NoneType:
		return normNone.withSource(tp), nil
	case AnyType:
		return normAny, nil
	case AnnotatedExpr:
		return nz.annotated(t)
	case *TypeVar:
		return nz.typeVar(t)
	case *ParamSpec:
		return newNorm(t, nil, t), nil
	case ParamSpecArgs:
		return newNorm(ParamSpecArgsOrigin, []any{newNorm(t.Spec, nil, t.Spec)}, t), nil
	case ParamSpecKwargs:
		return newNorm(ParamSpecKwargsOrigin, []any{newNorm(t.Spec, nil, t.Spec)}, t), nil
	case *TypeVarTuple:
		return newNorm(t, nil, t), nil
	case InitVarExpr:
		return nz.wrapper(InitVarOrigin, t.Type, t)
	case *NewTypeDef:
		return nz.newType(t)
	case TupleExpr:
		return nz.tuple(t)
	case CallableExpr:
		return nz.callable(t, t)
	case LiteralExpr:
		return nz.literal(t)
	case UnionExpr:
		return nz.union(t)
	case TypeOfExpr:
		return nz.typeOf(t)
	case UnpackExpr:
		return nz.unpack(t)
	case ParamExpr:
		return nz.param(t.Origin, t.Args, t)
	case *Origin:
		return nz.bareOrigin(t)
	case *Model:
		return nz.bareModel(t)
	case reflect.Type:
		return nz.goType(t)
	default:
		return nil, fail(tp, nil, "unsupported type expression %T", tp)
	}
}

func (nz *normalizer) forwardRef(ref RefExpr) (*NormType, error) {
	m := ref.Module
	if m == nil {
		m = nz.module
	}

	if m == nil {
		return nil, fail(ref, ErrUnresolvedRef, "no module namespace")
	}

	tp, ok := m.Lookup(ref.Name)
	if !ok {
		return nil, fail(ref, ErrUnresolvedRef, "name %q is not defined in %s", ref.Name, m.Name())
	}

	return normalizeIn(tp, m)
}

func (nz *normalizer) rejectBadInput(tp Expr) error {
	switch t := tp.(type) {
	case *Origin:
		if _, ok := bareForms[t]; ok {
			return fail(tp, ErrNotSubscribed, "%s must be parameterized", t.name)
		}
	case *TypeVar:
		if t == nil {
			return fail(tp, ErrNotInstantiated, "nil TypeVar")
		}
	case *NewTypeDef:
		if t == nil {
			return fail(tp, ErrNotInstantiated, "nil NewType")
		}
	case *Model:
		if t == nil {
			return fail(tp, ErrNotInstantiated, "nil Model")
		}
	case UnionExpr:
		if len(t.Args) == 0 {
			return fail(tp, ErrNotSubscribed, "Union requires at least one argument")
		}
	case LiteralExpr:
		if len(t.Values) == 0 {
			return fail(tp, ErrNotSubscribed, "Literal requires at least one value")
		}
	case AnnotatedExpr:
		if len(t.Metadata) == 0 {
			return fail(tp, ErrNotSubscribed, "Annotated requires a type and at least one metadata element")
		}
	case EllipsisType:
		return fail(tp, nil, "Ellipsis is allowed only as a tuple or callable argument")
	}

	return nil
}

func (nz *normalizer) sub(tp Expr) (*NormType, error) {
	return normalizeIn(tp, nz.module)
}

func (nz *normalizer) subAll(tps []Expr) ([]*NormType, error) {
	result := make([]*NormType, 0, len(tps))
	for _, tp := range tps {
		n, err := nz.sub(tp)
		if err != nil {
			return nil, err
		}

		result = append(result, n)
	}

	return result, nil
}

func (nz *normalizer) annotated(t AnnotatedExpr) (*NormType, error) {
	inner, err := nz.sub(t.Type)
	if err != nil {
		return nil, err
	}

	args := []any{inner}

	// nested annotations flatten into one
	if inner.Is(AnnotatedOrigin) {
		args = slices.Clone(inner.args)
	}

	args = append(args, t.Metadata...)

	n := &NormType{origin: AnnotatedOrigin, args: args, source: t}
	n.key = n.computeKey()

	for _, meta := range args[1:] {
		if !isComparable(meta) {
			n.unkeyed = append(n.unkeyed, meta)
		}
	}

	return n, nil
}

func (nz *normalizer) typeVar(tv *TypeVar) (*NormType, error) {
	n := newNorm(tv, nil, tv)
	if tv.self {
		return n, nil
	}

	limit := &varLimit{variance: tv.variance}

	if tv.bound != nil {
		bound, err := normalizeIn(tv.bound, tv.module)
		if err != nil {
			return nil, fail(tv, err, "bad bound")
		}

		limit.bound = bound
	}

	for _, c := range tv.constraints {
		cn, err := normalizeIn(c, tv.module)
		if err != nil {
			return nil, fail(tv, err, "bad constraint")
		}

		limit.constraints = append(limit.constraints, cn)
	}

	n.tv = limit

	return n, nil
}

func (nz *normalizer) wrapper(origin *Origin, inner Expr, source Expr) (*NormType, error) {
	n, err := nz.sub(inner)
	if err != nil {
		return nil, err
	}

	return newNorm(origin, []any{n}, source), nil
}

func (nz *normalizer) newType(t *NewTypeDef) (*NormType, error) {
	if _, err := nz.sub(t.Super); err != nil {
		return nil, fail(t, err, "bad supertype")
	}

	return newNorm(t, nil, t), nil
}

func (nz *normalizer) tuple(t TupleExpr) (*NormType, error) {
	if t.bare {
		return newNorm(TupleOrigin, []any{normAny, Ellipsis}, t), nil
	}

	if t.Variadic {
		if len(t.Args) != 1 {
			return nil, fail(t, ErrArgumentCount, "variadic tuple takes exactly one element type")
		}

		elem, err := nz.sub(t.Args[0])
		if err != nil {
			return nil, err
		}

		return newNorm(TupleOrigin, []any{elem, Ellipsis}, t), nil
	}

	args := make([]any, 0, len(t.Args))

	for _, a := range t.Args {
		n, err := nz.sub(a)
		if err != nil {
			return nil, err
		}

		// a fixed tuple unpacked in place is spliced
		if n.Is(UnpackOrigin) && isFixedTuple(n.Arg(0)) {
			args = append(args, n.Arg(0).args...)

			continue
		}

		args = append(args, n)
	}

	// tuple[*tuple[T, ...]] is tuple[T, ...]
	if len(args) == 1 {
		if u, ok := args[0].(*NormType); ok && u.Is(UnpackOrigin) && isVariadicTuple(u.Arg(0)) {
			return u.Arg(0).withSource(t), nil
		}
	}

	return newNorm(TupleOrigin, args, t), nil
}

func isFixedTuple(n *NormType) bool {
	return n != nil && n.Is(TupleOrigin) && !isVariadicTuple(n)
}

func isVariadicTuple(n *NormType) bool {
	if n == nil || !n.Is(TupleOrigin) || len(n.args) != 2 {
		return false
	}

	_, ok := n.args[1].(EllipsisType)

	return ok
}

func (nz *normalizer) callable(t CallableExpr, source Expr) (*NormType, error) {
	if t.bare {
		return newNorm(CallableOrigin, []any{Ellipsis, normAny}, source), nil
	}

	var params any

	switch p := t.Params.(type) {
	case nil:
		params = []*NormType{}
	case EllipsisType:
		params = Ellipsis
	case *ParamSpec:
		params = newNorm(p, nil, p)
	case []Expr:
		ps, err := nz.subAll(p)
		if err != nil {
			return nil, err
		}

		params = ps
	default:
		return nil, fail(source, nil, "callable parameters must be a list, Ellipsis or a ParamSpec")
	}

	result, err := nz.sub(t.Result)
	if err != nil {
		return nil, err
	}

	return newNorm(CallableOrigin, []any{params, result}, source), nil
}

func (nz *normalizer) literal(t LiteralExpr) (*NormType, error) {
	hasNone := false
	values := make([]any, 0, len(t.Values))
	seen := make(map[string]struct{}, len(t.Values))

	for _, v := range t.Values {
		if _, isNone := v.(NoneType); v == nil || isNone {
			hasNone = true

			continue
		}

		if !isLiteralValue(v) {
			return nil, fail(t, nil, "literal values must be strings, numbers, booleans or None, got %T", v)
		}

		k := valueKey(v)
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		values = append(values, v)
	}

	if len(values) == 0 {
		return normNone.withSource(t), nil
	}

	slices.SortStableFunc(values, func(a, b any) int {
		return strings.Compare(valueKey(a), valueKey(b))
	})

	lit := newNorm(LiteralOrigin, values, t)
	if !hasNone {
		return lit, nil
	}

	n, err := nz.union(Union(None, lit))
	if err != nil {
		return nil, err
	}

	return n.withSource(t), nil
}

func isLiteralValue(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (nz *normalizer) union(t UnionExpr) (*NormType, error) {
	var members []*NormType

	for _, a := range t.Args {
		n, err := nz.sub(a)
		if err != nil {
			return nil, err
		}

		if n.Is(UnionOrigin) {
			for _, m := range n.args {
				members = append(members, m.(*NormType))
			}

			continue
		}

		members = append(members, n)
	}

	members, err := mergeLiterals(members)
	if err != nil {
		return nil, err
	}

	members = dedup(members)
	if len(members) == 1 {
		return members[0].withSource(t), nil
	}

	slices.SortStableFunc(members, func(a, b *NormType) int {
		return strings.Compare(a.key, b.key)
	})

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}

	return newNorm(UnionOrigin, args, t), nil
}

// mergeLiterals collapses all literal members into one placed at the first literal.
func mergeLiterals(members []*NormType) ([]*NormType, error) {
	first := -1

	var values []any

	for i, m := range members {
		if !m.Is(LiteralOrigin) {
			continue
		}

		if first < 0 {
			first = i
		}

		values = append(values, m.args...)
	}

	if first < 0 {
		return members, nil
	}

	merged, err := Normalize(Literal(values...))
	if err != nil {
		return nil, err
	}

	result := make([]*NormType, 0, len(members))
	for i, m := range members {
		switch {
		case i == first:
			result = append(result, merged)
		case m.Is(LiteralOrigin):
		default:
			result = append(result, m)
		}
	}

	return result, nil
}

func dedup(members []*NormType) []*NormType {
	result := make([]*NormType, 0, len(members))

	for _, m := range members {
		if !slices.ContainsFunc(result, m.Equal) {
			result = append(result, m)
		}
	}

	return result
}

func (nz *normalizer) typeOf(t TypeOfExpr) (*NormType, error) {
	inner, err := nz.sub(t.Type)
	if err != nil {
		return nil, err
	}

	if !inner.Is(UnionOrigin) {
		return newNorm(TypeOfOrigin, []any{inner}, t), nil
	}

	args := make([]Expr, len(inner.args))
	for i, a := range inner.args {
		args[i] = TypeOf(a)
	}

	n, err := nz.union(Union(args...))
	if err != nil {
		return nil, err
	}

	return n.withSource(t), nil
}

func (nz *normalizer) unpack(t UnpackExpr) (*NormType, error) {
	if t.Type == nil {
		return nil, fail(t, ErrNotSubscribed, "Unpack requires a tuple or a TypeVarTuple")
	}

	inner, err := nz.sub(t.Type)
	if err != nil {
		return nil, err
	}

	if _, ok := inner.origin.(*TypeVarTuple); !ok && !inner.Is(TupleOrigin) {
		return nil, fail(t, nil, "only tuples and TypeVarTuples can be unpacked")
	}

	return newNorm(UnpackOrigin, []any{inner}, t), nil
}

func (nz *normalizer) bareOrigin(o *Origin) (*NormType, error) {
	switch o {
	case NoneOrigin:
		return normNone, nil
	case AnyOrigin:
		return normAny, nil
	case TupleOrigin:
		return nz.tuple(BareTuple)
	case CallableOrigin:
		return nz.callable(BareCallable, o)
	case Pattern:
		return nz.param(o, []Expr{Union(Of[[]byte](), Of[string]())}, o)
	case Array:
		return nil, fail(o, ErrArgumentCount, "cannot derive implicit parameters")
	}

	if o.arity <= 0 {
		return nil, fail(o, nil, "cannot derive implicit parameters")
	}

	args := make([]Expr, o.arity)
	for i := range args {
		args[i] = Any
	}

	return nz.param(o, args, o)
}

func (nz *normalizer) bareModel(m *Model) (*NormType, error) {
	if len(m.TypeParams) == 0 {
		return newNorm(m, nil, m), nil
	}

	var args []Expr
	for _, p := range m.TypeParams {
		args = append(args, implicitArgs(p)...)
	}

	n, err := nz.param(m, args, m)
	if err != nil {
		return nil, fail(m, err, "cannot derive implicit parameters")
	}

	return n, nil
}

func (nz *normalizer) param(origin Expr, args []Expr, source Expr) (*NormType, error) {
	switch o := origin.(type) {
	case *Origin:
		return nz.paramOrigin(o, args, source)
	case *Model:
		return nz.paramModel(o, args, source)
	case ParamExpr, RefExpr, scopedExpr:
		base, err := nz.sub(o)
		if err != nil {
			return nil, err
		}

		return nz.resubscribe(base, args, source)
	default:
		return nil, fail(source, nil, "%s is not generic", Repr(origin))
	}
}

func (nz *normalizer) paramOrigin(o *Origin, args []Expr, source Expr) (*NormType, error) {
	if o.arity < 0 {
		return nil, fail(source, nil, "%s cannot be parameterized with Param", o.name)
	}

	if len(args) != o.arity {
		return nil, fail(source, ErrArgumentCount, "%s takes %d arguments, got %d", o.name, o.arity, len(args))
	}

	if o == Array {
		elem, err := nz.sub(args[0])
		if err != nil {
			return nil, err
		}

		length, ok := args[1].(int)
		if !ok || length < 0 {
			return nil, fail(source, nil, "array length must be a non-negative int")
		}

		return newNorm(Array, []any{elem, length}, source), nil
	}

	ns, err := nz.subAll(args)
	if err != nil {
		return nil, err
	}

	normArgs := make([]any, len(ns))
	for i, n := range ns {
		normArgs[i] = n
	}

	return newNorm(o, normArgs, source), nil
}

// paramModel matches args to the model type parameters. A single
// Unpack(TypeVarTuple) parameter takes the slice of args between the fixed
// parameters before and after it.
func (nz *normalizer) paramModel(m *Model, args []Expr, source Expr) (*NormType, error) {
	params := m.TypeParams
	if len(params) == 0 {
		if len(args) != 0 {
			return nil, fail(source, ErrArgumentCount, "%s is not generic", m)
		}

		return newNorm(m, nil, source), nil
	}

	if len(params) == 1 {
		if _, ok := params[0].(*ParamSpec); ok && !isParamsArg(args) {
			args = []Expr{args}
		}
	}

	variadic := slices.IndexFunc(params, isVariadicParam)
	if variadic >= 0 {
		before, after := variadic, len(params)-variadic-1
		if len(args) < before+after {
			return nil, fail(source, ErrArgumentCount, "%s takes at least %d arguments, got %d", m, before+after, len(args))
		}

		middle := args[before : len(args)-after]
		packed := make([]Expr, 0, len(params))
		packed = append(packed, args[:before]...)
		packed = append(packed, Unpack(Tuple(middle...)))
		packed = append(packed, args[len(args)-after:]...)
		args = packed
	} else {
		for i := len(args); i < len(params); i++ {
			def, ok := paramDefault(params[i])
			if !ok {
				return nil, fail(source, ErrArgumentCount, "%s takes %d arguments, got %d", m, len(params), len(args))
			}

			args = append(args, def)
		}

		if len(args) != len(params) {
			return nil, fail(source, ErrArgumentCount, "%s takes %d arguments, got %d", m, len(params), len(args))
		}
	}

	normArgs := make([]any, len(args))

	for i, a := range args {
		if _, ok := params[i].(*ParamSpec); ok {
			pa, err := nz.paramSpecArg(a, source)
			if err != nil {
				return nil, err
			}

			normArgs[i] = pa

			continue
		}

		n, err := nz.sub(a)
		if err != nil {
			return nil, err
		}

		normArgs[i] = n
	}

	return newNorm(m, normArgs, source), nil
}

func isParamsArg(args []Expr) bool {
	if len(args) != 1 {
		return false
	}

	switch a := args[0].(type) {
	case []Expr, []*NormType, EllipsisType, *ParamSpec:
		return true
	case *NormType:
		_, ok := a.origin.(*ParamSpec)
		return ok
	default:
		return false
	}
}

func isVariadicParam(p Expr) bool {
	switch p := p.(type) {
	case UnpackExpr:
		_, ok := p.Type.(*TypeVarTuple)
		return ok
	case *TypeVarTuple:
		return true
	default:
		return false
	}
}

func paramDefault(p Expr) (Expr, bool) {
	switch p := p.(type) {
	case *TypeVar:
		return p.defaultExpr()
	case *ParamSpec:
		if p.hasDefault {
			return p.def, true
		}
	}

	return nil, false
}

// paramSpecArg normalizes the argument of a ParamSpec slot: a parameter list,
// Ellipsis or another ParamSpec.
func (nz *normalizer) paramSpecArg(a Expr, source Expr) (any, error) {
	switch a := a.(type) {
	case []Expr:
		return nz.subAll(a)
	case []*NormType:
		return a, nil
	case EllipsisType:
		return Ellipsis, nil
	case *ParamSpec:
		return newNorm(a, nil, a), nil
	case *NormType:
		if _, ok := a.origin.(*ParamSpec); ok {
			return a, nil
		}

		return nil, fail(source, nil, "ParamSpec argument must be a parameter list, Ellipsis or a ParamSpec, got %s", a)
	default:
		return nil, fail(source, nil, "ParamSpec argument must be a parameter list, Ellipsis or a ParamSpec, got %s", Repr(a))
	}
}

// resubscribe substitutes the free variables of an already parameterized
// type with args, in order of first appearance.
func (nz *normalizer) resubscribe(base *NormType, args []Expr, source Expr) (*NormType, error) {
	vars := FreeVars(base)
	if len(vars) != len(args) {
		return nil, fail(source, ErrArgumentCount, "%s takes %d arguments, got %d", base, len(vars), len(args))
	}

	subst := make(Substitution, len(vars))

	for i, v := range vars {
		n, err := nz.sub(args[i])
		if err != nil {
			return nil, err
		}

		subst[v] = n
	}

	n, err := Substitute(base, subst)
	if err != nil {
		return nil, err
	}

	return n.withSource(source), nil
}

func (nz *normalizer) goType(rt reflect.Type) (*NormType, error) {
	if rt == anyReflectType {
		return normAny.withSource(rt), nil
	}

	if rt.Name() != "" {
		n := newNorm(rt, nil, rt)
		n.rt = rt

		return n, nil
	}

	var (
		n   *NormType
		err error
	)

	switch rt.Kind() {
	case reflect.Slice:
		n, err = nz.param(Slice, []Expr{rt.Elem()}, rt)
	case reflect.Array:
		n, err = nz.param(Array, []Expr{rt.Elem(), rt.Len()}, rt)
	case reflect.Map:
		n, err = nz.param(Map, []Expr{rt.Key(), rt.Elem()}, rt)
	case reflect.Pointer:
		n, err = nz.param(Pointer, []Expr{rt.Elem()}, rt)
	case reflect.Func:
		n, err = nz.callable(funcExpr(rt), rt)
	default:
		n = newNorm(rt, nil, rt)
	}

	if err != nil {
		return nil, err
	}

	n.rt = rt

	return n, nil
}

func funcExpr(rt reflect.Type) CallableExpr {
	params := make([]Expr, rt.NumIn())
	for i := range params {
		params[i] = rt.In(i)
	}

	var result Expr

	switch rt.NumOut() {
	case 0:
		result = None
	case 1:
		result = rt.Out(0)
	default:
		outs := make([]Expr, rt.NumOut())
		for i := range outs {
			outs[i] = rt.Out(i)
		}

		result = Tuple(outs...)
	}

	return Callable(params, result)
}
