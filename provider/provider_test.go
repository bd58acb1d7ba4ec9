package provider_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/provider"
	"retort/shape"
	"retort/typing"
)

type Weather struct {
	ID     int
	IconID string
}

type Forecast struct {
	Days []Weather
}

type Named interface{ Name() string }

type city struct{}

func (city) Name() string { return "" }

func field(tp typing.Expr, id string) provider.Loc {
	return provider.FieldLocOf(tp, provider.FieldLoc{ID: id, Default: shape.NoDefault{}, IsRequired: true})
}

func weatherIcon() provider.LocStack {
	return provider.NewLocStack(
		provider.TypeLoc(typing.Of[Forecast]()),
		field(typing.Of[[]Weather](), "Days"),
		provider.GenericParamLoc(typing.Of[Weather](), 0),
		field(typing.Of[string](), "IconID"),
	)
}

func TestLocStackString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "‹provider_test.Forecast›.Days[0].IconID ‹string›", weatherIcon().String())
	assert.Equal(t, "‹int›", provider.NewLocStack(provider.TypeLoc(typing.Of[int]())).String())
	assert.Equal(t, "‹›", provider.LocStack{}.String())
}

func TestLocStackOps(t *testing.T) {
	t.Parallel()

	s := weatherIcon()

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 3, s.Prefix(1).Len())
	assert.Equal(t, "IconID", s.Last().Field.ID)
	assert.True(t, s.Last().IsField())
	assert.True(t, s.At(2).IsGenericParam())
	assert.Equal(t, 1, s.Count(s.At(2)))

	replaced := s.ReplaceLastType(typing.Of[int]())
	assert.Equal(t, "IconID", replaced.Last().Field.ID)
	assert.NotEqual(t, s.Key(), replaced.Key())
	assert.Equal(t, typing.Of[string](), s.Last().Type, "stacks are immutable")

	twice := s.Append(s.At(2))
	assert.Equal(t, 2, twice.Count(s.At(2)))
}

func check(t *testing.T, pred any, s provider.LocStack) bool {
	t.Helper()

	c, err := provider.ToChecker(pred)
	require.NoError(t, err)

	return c.Check(nil, s)
}

func TestToChecker(t *testing.T) {
	t.Parallel()

	s := weatherIcon()

	tests := []struct {
		name string
		pred any
		want bool
	}{
		{name: "field id", pred: "IconID", want: true},
		{name: "other field id", pred: "ID", want: false},
		{name: "field regexp", pred: "Icon.*", want: true},
		{name: "partial regexp does not match", pred: "Icon.", want: false},
		{name: "compiled regexp", pred: regexp.MustCompile(".*ID"), want: true},
		{name: "exact type", pred: typing.Of[string](), want: true},
		{name: "wrong type", pred: typing.Of[int](), want: false},
		{name: "union type", pred: typing.Union(typing.Of[int](), typing.Of[string]()), want: false},
		{name: "checker", pred: provider.AnyLoc, want: true},
		{name: "pattern", pred: provider.P.Of(typing.Of[Weather]()).Of("IconID"), want: true},
		{name: "pattern too deep", pred: provider.P.Of(typing.Of[Forecast]()).Of("IconID"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, check(t, tt.pred, s))
		})
	}
}

func TestToCheckerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pred any
	}{
		{name: "nil", pred: nil},
		{name: "bad regexp", pred: "("},
		{name: "type variable", pred: typing.NewTypeVar("T")},
		{name: "empty pattern", pred: provider.P},
		{name: "nested pattern", pred: provider.P.Of(provider.P.Of("a"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := provider.ToChecker(tt.pred)
			assert.ErrorIs(t, err, provider.ErrBadPredicate)
		})
	}
}

func TestInterfaceChecker(t *testing.T) {
	t.Parallel()

	s := provider.NewLocStack(provider.TypeLoc(typing.Of[city]()))

	assert.True(t, check(t, typing.Of[Named](), s))
	assert.False(t, check(t, typing.Of[Named](), provider.NewLocStack(provider.TypeLoc(typing.Of[int]()))))
}

func TestCombinators(t *testing.T) {
	t.Parallel()

	s := weatherIcon()
	yes, no := provider.AnyLoc, provider.Not(provider.AnyLoc)

	assert.True(t, provider.And(yes, yes).Check(nil, s))
	assert.False(t, provider.And(yes, no).Check(nil, s))
	assert.True(t, provider.Or(no, yes).Check(nil, s))
	assert.False(t, provider.Or(no, no).Check(nil, s))
	assert.True(t, provider.Xor(yes, no).Check(nil, s))
	assert.False(t, provider.Xor(yes, yes).Check(nil, s))

	assert.True(t, check(t, provider.P.Of("IconID").Or("ID"), s))
	assert.False(t, check(t, provider.P.Of("IconID").And(typing.Of[int]()), s))
	assert.True(t, check(t, provider.P.Of("IconID").Not().Not(), s))
	assert.True(t, check(t, provider.P.OneOf("ID", "IconID"), s))
	assert.True(t, check(t, provider.P.Of("Days").Then(provider.P.GenericArg(0, typing.Of[Weather]())).Of("IconID"), s))
}

func TestBound(t *testing.T) {
	t.Parallel()

	p := provider.Value[provider.DebugTrailRequest](nil, provider.DebugTrailAll)
	bound := provider.Bound(provider.ExactField("IconID"), p)

	rec := bound.RequestHandlers()[0]

	assert.True(t, rec.Accepts(nil, provider.DebugTrailRequest{Stack: weatherIcon()}))
	assert.False(t, rec.Accepts(nil, provider.DebugTrailRequest{Stack: weatherIcon().Prefix(1)}))
	assert.False(t, rec.Accepts(nil, provider.LoaderRequest{Stack: weatherIcon()}))

	v, err := rec.Handler(nil, provider.DebugTrailRequest{Stack: weatherIcon()})
	require.NoError(t, err)
	assert.Equal(t, provider.DebugTrailAll, v)
}

func TestCannotProvide(t *testing.T) {
	t.Parallel()

	inner := provider.Cannot("no loader for %s", "int")
	agg := provider.NewAggregate("outer", []error{inner}, true, true)

	cp, ok := provider.AsCannotProvide(agg)
	require.True(t, ok)
	assert.True(t, cp.IsTerminal)
	assert.ErrorIs(t, agg, inner)
	assert.EqualError(t, agg, "outer (no loader for int)")
	assert.False(t, provider.Silent("x").IsDemonstrative)
	assert.True(t, provider.Terminal("x").IsTerminal)
	assert.False(t, provider.IsCannotProvide(assert.AnError))
}

func TestOmitted(t *testing.T) {
	t.Parallel()

	assert.True(t, provider.IsOmitted(provider.Omitted))
	assert.False(t, provider.IsOmitted(nil))
	assert.Equal(t, "first", provider.DebugTrailFirst.String())
}
