package typing

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tInt    = Of[int]()
	tString = Of[string]()
	tBool   = Of[bool]()
)

func norm(t *testing.T, tp Expr) *NormType {
	t.Helper()

	n, err := Normalize(tp)
	require.NoError(t, err)

	return n
}

func TestNormalize_EqualForms(t *testing.T) {
	tests := []struct {
		name string
		a, b Expr
	}{
		{"union order", Union(tInt, tString), Union(tString, tInt)},
		{"union flatten", Union(tInt, Union(tString, tInt)), Union(tInt, tString)},
		{"union single member", Union(tInt, tInt), tInt},
		{"optional", Optional(tInt), Union(None, tInt)},
		{"literal order", Literal("b", "a"), Literal("a", "b")},
		{"literal dedup", Literal("a", "a"), Literal("a")},
		{"literal none", Literal(nil), None},
		{"literal none value", Literal(None), None},
		{"literal with none value", Literal("a", None), Literal("a", nil)},
		{"literal merge in union", Union(Literal("a"), Literal("b"), tInt), Union(tInt, Literal("a", "b"))},
		{"nested annotated", Annotated(Annotated(tInt, "x"), "y"), Annotated(tInt, "x", "y")},
		{"bare tuple", BareTuple, TupleOf(Any)},
		{"tuple splice", Tuple(tInt, Unpack(Tuple(tString, tBool))), Tuple(tInt, tString, tBool)},
		{"tuple of unpacked variadic", Tuple(Unpack(TupleOf(tInt))), TupleOf(tInt)},
		{"bare callable", BareCallable, Callable(Ellipsis, Any)},
		{"bare slice", Slice, Param(Slice, Any)},
		{"go slice", Of[[]string](), Param(Slice, tString)},
		{"go map", Of[map[string]int](), Param(Map, tString, tInt)},
		{"go array", Of[[3]int](), Param(Array, tInt, 3)},
		{"go pointer", Of[*int](), Param(Pointer, tInt)},
		{"go any", Of[any](), Any},
		{"go func", Of[func(int) string](), Callable([]Expr{tInt}, tString)},
		{"type of union", TypeOf(Union(tInt, tString)), Union(TypeOf(tInt), TypeOf(tString))},
		{"pattern implicit", Pattern, Param(Pattern, Union(Of[[]byte](), tString))},
		{"none nil", nil, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := norm(t, tt.a), norm(t, tt.b)
			assert.True(t, a.Equal(b), "%s != %s", a.Key(), b.Key())
			assert.Equal(t, a.Key(), b.Key())
		})
	}
}

func TestNormalize_DistinctForms(t *testing.T) {
	tests := []struct {
		name string
		a, b Expr
	}{
		{"literal int vs bool", Literal(0), Literal(false)},
		{"literal int vs string", Literal(1), Literal("1")},
		{"annotated metadata", Annotated(tInt, "x"), Annotated(tInt, "y")},
		{"annotated unkeyed metadata", Annotated(tInt, []string{"x"}), Annotated(tInt, []string{"y"})},
		{"annotated vs plain", Annotated(tInt, "x"), tInt},
		{"empty vs variadic tuple", EmptyTuple, TupleOf(tInt)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, norm(t, tt.a).Equal(norm(t, tt.b)))
		})
	}
}

func TestNormalize_LiteralKeepsTypedValues(t *testing.T) {
	n := norm(t, Literal(0, false))

	require.True(t, n.Is(LiteralOrigin))
	assert.Len(t, n.Args(), 2)
}

func TestNormalize_LiteralWithNone(t *testing.T) {
	src := Literal("a", nil)
	n := norm(t, src)

	require.True(t, n.Is(UnionOrigin))
	require.Len(t, n.Args(), 2)
	assert.True(t, n.Arg(0).IsNone())
	assert.True(t, n.Arg(1).Is(LiteralOrigin))
	assert.Equal(t, []any{"a"}, n.Arg(1).Args())
	assert.Equal(t, `Literal["a", None]`, Repr(n.Source()))
}

func TestNormalize_UnionKeepsSource(t *testing.T) {
	src := Union(tInt, tInt)
	n := norm(t, src)

	assert.Equal(t, reflect.TypeFor[int](), n.Origin())
	assert.Equal(t, src, n.Source())
}

func TestNormalize_AnnotatedUnkeyedMetadataEquality(t *testing.T) {
	a := norm(t, Annotated(tInt, []string{"x"}))
	b := norm(t, Annotated(tInt, []string{"x"}))

	assert.True(t, a.Equal(b))
}

func TestNormalize_Idempotent(t *testing.T) {
	exprs := []Expr{
		tInt,
		Union(tString, tInt),
		Literal("b", "a", nil),
		Annotated(Optional(tInt), "meta"),
		TupleOf(tString),
		Of[map[string][]int](),
		Callable([]Expr{tInt}, tBool),
	}

	for _, tp := range exprs {
		t.Run(Repr(tp), func(t *testing.T) {
			n := norm(t, tp)
			again := norm(t, n.Source())
			assert.True(t, n.Equal(again))
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		tp   Expr
		err  error
	}{
		{"bare union", UnionOrigin, ErrNotSubscribed},
		{"bare literal", LiteralOrigin, ErrNotSubscribed},
		{"empty union", Union(), ErrNotSubscribed},
		{"nil type var", (*TypeVar)(nil), ErrNotInstantiated},
		{"nil new type", (*NewTypeDef)(nil), ErrNotInstantiated},
		{"unresolved ref", Ref("Missing"), ErrUnresolvedRef},
		{"slice arity", Param(Slice, tInt, tString), ErrArgumentCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.tp)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			var nerr *NormalizeError
			assert.ErrorAs(t, err, &nerr)
		})
	}
}

func TestNormalize_UnsupportedExpression(t *testing.T) {
	_, err := Normalize(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "42")
}

func TestNormalize_TypeVarBoundResolvesInModule(t *testing.T) {
	m := NewModule("shop")
	m.Define("Money", Of[int64]())

	tv := NewTypeVar("T", WithBound(Ref("Money")), InModule(m), WithVariance(Covariant))
	n := norm(t, tv)

	assert.True(t, n.Bound().Equal(norm(t, Of[int64]())))
	assert.Equal(t, Covariant, n.Variance())
}

func TestNormalize_TypeVarConstraints(t *testing.T) {
	tv := NewTypeVar("S", WithConstraints(tInt, tString))
	n := norm(t, tv)

	require.Len(t, n.Constraints(), 2)
	assert.True(t, n.Bound().IsAny())
}

func TestNormalize_ForwardRef(t *testing.T) {
	m := NewModule("geo")
	m.Define("Coord", Of[float64]())

	n, err := NormalizeIn(Optional(Ref("Coord")), m)
	require.NoError(t, err)
	assert.True(t, n.Equal(norm(t, Optional(Of[float64]()))))

	n = norm(t, m.Ref("Coord"))
	assert.Equal(t, "float64", n.String())
}

func TestNormalize_GenericModel(t *testing.T) {
	m := NewModule("box")
	tv := NewTypeVar("T")
	box := m.Declare(&Model{
		Name:       "Box",
		TypeParams: []Expr{tv},
		Fields:     []ModelField{{Name: "value", Type: tv}},
	})

	n := norm(t, Param(box, tInt))
	assert.Equal(t, box, n.Origin())
	assert.True(t, n.Arg(0).Equal(norm(t, tInt)))
	assert.Equal(t, "box.Box[int]", n.String())

	bare := norm(t, box)
	assert.True(t, bare.Arg(0).IsAny())

	_, err := Normalize(Param(box, tInt, tString))
	assert.ErrorIs(t, err, ErrArgumentCount)
}

func TestNormalize_GenericModelDefaults(t *testing.T) {
	m := NewModule("pair")
	k := NewTypeVar("K")
	v := NewTypeVar("V", WithDefault(tString))
	pair := m.Declare(&Model{Name: "Pair", TypeParams: []Expr{k, v}})

	n := norm(t, Param(pair, tInt))
	assert.True(t, n.Arg(1).Equal(norm(t, tString)))

	bare := norm(t, pair)
	assert.True(t, bare.Arg(0).IsAny())
	assert.True(t, bare.Arg(1).Equal(norm(t, tString)))
}

func TestNormalize_VariadicModel(t *testing.T) {
	m := NewModule("vt")
	head := NewTypeVar("H")
	ts := NewTypeVarTuple("Ts")
	row := m.Declare(&Model{Name: "Row", TypeParams: []Expr{head, Unpack(ts)}})

	n := norm(t, Param(row, tBool, tInt, tString))
	require.Len(t, n.Args(), 2)

	unpacked := n.Arg(1)
	require.True(t, unpacked.Is(UnpackOrigin))
	assert.True(t, unpacked.Arg(0).Equal(norm(t, Tuple(tInt, tString))))

	bare := norm(t, row)
	assert.True(t, bare.Arg(1).Arg(0).Equal(norm(t, TupleOf(Any))))
}

func TestNormalize_ParamSpecModel(t *testing.T) {
	m := NewModule("ps")
	p := NewParamSpec("P")
	hook := m.Declare(&Model{Name: "Hook", TypeParams: []Expr{p}})

	a := norm(t, Param(hook, tInt, tString))
	b := norm(t, Param(hook, []Expr{tInt, tString}))
	assert.True(t, a.Equal(b))

	_, err := Normalize(Param(hook, Param(hook, tInt), tString, tBool))
	require.NoError(t, err)

	ell := norm(t, hook)
	assert.Equal(t, Ellipsis, ell.Args()[0])
}

func TestNormalize_NewType(t *testing.T) {
	userID := NewType("UserID", tInt)

	n := norm(t, userID)
	assert.Equal(t, userID, n.Origin())
	assert.Equal(t, reflect.TypeFor[int](), GoType(n))

	_, err := Normalize(NewType("Bad", Ref("nowhere")))
	assert.ErrorIs(t, err, ErrUnresolvedRef)
}

func TestSubstitute(t *testing.T) {
	tv := NewTypeVar("T")
	n := norm(t, Union(tv, tInt))

	r, err := Substitute(n, Substitution{tv: norm(t, tInt)})
	require.NoError(t, err)
	assert.True(t, r.Equal(norm(t, tInt)))

	r, err = Substitute(norm(t, Param(Map, tString, tv)), Substitution{tv: norm(t, tBool)})
	require.NoError(t, err)
	assert.True(t, r.Equal(norm(t, Of[map[string]bool]())))
}

func TestSubstitute_TypeVarTupleSplices(t *testing.T) {
	ts := NewTypeVarTuple("Ts")
	n := norm(t, Tuple(tBool, Unpack(ts)))

	r, err := Substitute(n, Substitution{ts: norm(t, Tuple(tInt, tString))})
	require.NoError(t, err)
	assert.True(t, r.Equal(norm(t, Tuple(tBool, tInt, tString))))
}

func TestSubstitute_ParamSpec(t *testing.T) {
	p := NewParamSpec("P")
	n := norm(t, Callable(p, tInt))

	r, err := Substitute(n, Substitution{p: []*NormType{norm(t, tString)}})
	require.NoError(t, err)
	assert.True(t, r.Equal(norm(t, Callable([]Expr{tString}, tInt))))
}

func TestFreeVars(t *testing.T) {
	a, b := NewTypeVar("A"), NewTypeVar("B")
	n := norm(t, Union(Param(Map, b, a), Param(Slice, b)))

	vars := FreeVars(n)
	require.Len(t, vars, 2)
	assert.ElementsMatch(t, []Expr{a, b}, vars)
}

func TestNormalize_Resubscribe(t *testing.T) {
	k, v := NewTypeVar("K"), NewTypeVar("V")
	alias := Param(Map, k, v)

	n := norm(t, Param(alias, tString, tInt))
	assert.True(t, n.Equal(norm(t, Of[map[string]int]())))
}
