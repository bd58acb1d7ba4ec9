package retort_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort"
	"retort/internal/codegen"
	"retort/loaderr"
	"retort/typing"
)

type Point struct {
	X int
	Y int
}

type Weather struct {
	ID          int
	Name        string
	Description string
	IconID      string
}

type Node struct {
	Value    int
	Children []Node
}

type Src struct {
	A int
	B int
}

type Dst struct {
	A    int
	BDst int
}

type Order struct {
	Amount int
}

type Priced struct {
	Amount int
	Rate   int64
}

type Rect struct {
	W int
	H int
}

func (r Rect) Area() int { return r.W * r.H }

type Event struct {
	At time.Time
}

type level int

const (
	low level = iota
	high
)

func (l level) String() string {
	switch l {
	case low:
		return "Low"
	case high:
		return "High"
	default:
		return "level?"
	}
}

func TestPointRoundTrip(t *testing.T) {
	t.Parallel()

	r := retort.New()

	got, err := retort.Load[Point](r, map[string]any{"x": 1, "y": 2})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2}, got)

	out, err := retort.Dump(r, got)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, out)

	same, err := retort.DumpAs[Point](r, got)
	require.NoError(t, err)
	assert.Equal(t, out, same)
}

func TestNameMapping(t *testing.T) {
	t.Parallel()

	r := retort.New(retort.WithRecipe(
		retort.NameMapping(typing.Of[Weather](), retort.Map{"Name": "main", "IconID": "icon"}),
	))

	data := map[string]any{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}

	got, err := retort.Load[Weather](r, data)
	require.NoError(t, err)
	assert.Equal(t, Weather{ID: 500, Name: "Rain", Description: "light rain", IconID: "10d"}, got)

	out, err := retort.Dump(r, got)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("union collects every arm", func(t *testing.T) {
		t.Parallel()

		r := retort.New(retort.WithDebugTrail(retort.DebugTrailAll))

		load, err := r.LoaderFor(typing.Union(typing.Of[int](), typing.Of[string]()))
		require.NoError(t, err)

		_, err = load([]any{})

		var union *loaderr.UnionLoadError
		require.ErrorAs(t, err, &union)
		require.Len(t, union.Errs, 2)

		for _, e := range union.Errs {
			assert.IsType(t, &loaderr.TypeLoadError{}, loaderr.Unwrapped(e))
		}
	})

	t.Run("optional literal", func(t *testing.T) {
		t.Parallel()

		r := retort.New(retort.WithDebugTrail(retort.DebugTrailFirst))

		load, err := r.LoaderFor(typing.Literal("a", typing.None))
		require.NoError(t, err)

		_, err = load("b")

		var union *loaderr.UnionLoadError
		require.ErrorAs(t, err, &union)
		require.Len(t, union.Errs, 2)
		assert.IsType(t, &loaderr.TypeLoadError{}, union.Errs[0])
		assert.IsType(t, &loaderr.BadVariantLoadError{}, union.Errs[1])
		assert.Equal(t, `while loading Literal["a", None]`, union.Message)
	})

	t.Run("every element carries its index", func(t *testing.T) {
		t.Parallel()

		r := retort.New(retort.WithDebugTrail(retort.DebugTrailAll))

		_, err := retort.Load[[]string](r, []any{1, 2, 3})

		var agg *loaderr.AggregateLoadError
		require.ErrorAs(t, err, &agg)
		require.Len(t, agg.Errs, 3)

		for i, e := range agg.Errs {
			assert.Equal(t, []any{i}, loaderr.TrailOf(e))
		}
	})

	t.Run("strict coercion", func(t *testing.T) {
		t.Parallel()

		strict := retort.New(retort.WithStrictCoercion(true))

		_, err := retort.Load[int](strict, "12")
		assert.IsType(t, &loaderr.TypeLoadError{}, loaderr.Unwrapped(err))

		got, err := retort.Load[int](strict.Replace(retort.WithStrictCoercion(false)), "12")
		require.NoError(t, err)
		assert.Equal(t, 12, got)
	})
}

func TestRecursiveModel(t *testing.T) {
	t.Parallel()

	r := retort.New()
	data := map[string]any{
		"value": 1,
		"children": []any{
			map[string]any{"value": 2, "children": []any{}},
		},
	}

	got, err := retort.Load[Node](r, data)
	require.NoError(t, err)
	assert.Equal(t, Node{Value: 1, Children: []Node{{Value: 2, Children: []Node{}}}}, got)

	out, err := retort.Dump(r, got)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestConverters(t *testing.T) {
	t.Parallel()

	r := retort.New(retort.WithRecipe(retort.Link("B", "BDst")))

	t.Run("get converter", func(t *testing.T) {
		t.Parallel()

		conv, err := retort.GetConverter[Src, Dst](r)
		require.NoError(t, err)

		got, err := conv(Src{A: 1, B: 2})
		require.NoError(t, err)
		assert.Equal(t, Dst{A: 1, BDst: 2}, got)
	})

	t.Run("implement func without error", func(t *testing.T) {
		t.Parallel()

		var conv func(Src) Dst
		require.NoError(t, r.ImplConverter(&conv))
		assert.Equal(t, Dst{A: 3, BDst: 4}, conv(Src{A: 3, B: 4}))
	})

	t.Run("implement func with params", func(t *testing.T) {
		t.Parallel()

		var conv func(Order, int64) (Priced, error)
		require.NoError(t, retort.New().ImplConverter(&conv, "Rate"))

		got, err := conv(Order{Amount: 2}, 3)
		require.NoError(t, err)
		assert.Equal(t, Priced{Amount: 2, Rate: 3}, got)
	})

	t.Run("unlinked field", func(t *testing.T) {
		t.Parallel()

		_, err := retort.GetConverter[Src, Dst](retort.New())

		var notFound *retort.ProviderNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Contains(t, err.Error(), "Linkings for some fields are not found")
	})

	t.Run("bad targets", func(t *testing.T) {
		t.Parallel()

		var notFunc int
		require.ErrorIs(t, r.ImplConverter(&notFunc), retort.ErrNotAFuncPointer)

		var conv func(Src) Dst
		require.ErrorIs(t, r.ImplConverter(conv), retort.ErrNotAFuncPointer)
		require.ErrorIs(t, r.ImplConverter(&conv, "extra"), retort.ErrConverterSignature)

		var twoResults func(Src) (Dst, int)
		require.ErrorIs(t, r.ImplConverter(&twoResults), retort.ErrConverterSignature)
	})
}

func TestMissingLoader(t *testing.T) {
	t.Parallel()

	type withChan struct {
		Stream chan int
	}

	_, err := retort.GetLoader[withChan](retort.New())

	var notFound *retort.ProviderNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.False(t, loaderr.IsLoadError(err))
	assert.NotEmpty(t, notFound.Message)
}

func TestExtend(t *testing.T) {
	t.Parallel()

	base := retort.New()
	seven := base.Extend(retort.Loader(typing.Of[int](), func(any) (any, error) { return 7, nil }))

	got, err := retort.Load[int](seven, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	got, err = retort.Load[int](base, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	assert.Empty(t, base.Recipe())
	assert.Len(t, seven.Recipe(), 1)

	// providers added later come first
	eight := seven.Extend(retort.Loader(typing.Of[int](), func(any) (any, error) { return 8, nil }))

	got, err = retort.Load[int](eight, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, got)
}

func TestValidatorAndEnums(t *testing.T) {
	t.Parallel()

	r := retort.New(retort.WithRecipe(
		retort.Validator(typing.Of[int](), func(v any) bool { return v.(int) > 0 }, "must be positive"),
		retort.EnumByName(low, high),
	))

	_, err := retort.Load[int](r, -1)

	var invalid *loaderr.ValidationLoadError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "must be positive", invalid.Msg)

	lvl, err := retort.Load[level](r, "High")
	require.NoError(t, err)
	assert.Equal(t, high, lvl)

	name, err := retort.Dump(r, low)
	require.NoError(t, err)
	assert.Equal(t, "Low", name)
}

func TestCodeGenHook(t *testing.T) {
	t.Parallel()

	var hook codegen.AccumulatingHook

	r := retort.New(retort.WithCodeGenHook(hook.Hook()))

	_, err := retort.GetLoader[Point](r)
	require.NoError(t, err)

	sources := hook.Sources()
	require.NotEmpty(t, sources)
	assert.True(t, strings.HasPrefix(sources[0].Name, "load_"))
}

func TestRecipeFromYAML(t *testing.T) {
	t.Parallel()

	reg := retort.NewRecipeRegistry().Type("app.Weather", typing.Of[Weather]())

	recipe, err := retort.RecipeFromYAML([]byte(`
types:
  - type: Weather
    name_style: camelCase
    map:
      Name: [city, name]
`), reg)
	require.NoError(t, err)

	r := retort.New(retort.WithRecipe(recipe...))

	got, err := retort.Load[Weather](r, map[string]any{
		"id":          800,
		"city":        map[string]any{"name": "Clear"},
		"description": "clear sky",
		"iconId":      "01d",
	})
	require.NoError(t, err)
	assert.Equal(t, Weather{ID: 800, Name: "Clear", Description: "clear sky", IconID: "01d"}, got)

	_, err = retort.RecipeFromYAML([]byte("types:\n  - type: Wether\n"), reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type_not_found")
}

func TestConstructor(t *testing.T) {
	t.Parallel()

	errNegative := errors.New("negative coordinate")

	r := retort.New(retort.WithRecipe(
		retort.Constructor(typing.Of[Point](), func(x, y int) (Point, error) {
			if x < 0 || y < 0 {
				return Point{}, errNegative
			}

			return Point{X: x, Y: y}, nil
		}, "x", "y"),
	))

	got, err := retort.Load[Point](r, map[string]any{"x": 1, "y": 2})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2}, got)

	_, err = retort.Load[Point](r, map[string]any{"x": -1, "y": 2})
	require.ErrorIs(t, err, errNegative)
}

func TestAsIs(t *testing.T) {
	t.Parallel()

	r := retort.New(retort.WithRecipe(
		retort.AsIsLoader(typing.Of[time.Time]()),
		retort.AsIsDumper(typing.Of[time.Time]()),
	))

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := retort.Load[time.Time](r, at)
	require.NoError(t, err)
	assert.Equal(t, at, got)

	out, err := retort.Dump(r, at)
	require.NoError(t, err)
	assert.Equal(t, at, out)
}

func TestDatetimeProviders(t *testing.T) {
	t.Parallel()

	t.Run("by format", func(t *testing.T) {
		t.Parallel()

		r := retort.New(retort.WithRecipe(retort.DatetimeByFormat(nil, time.DateOnly)))

		got, err := retort.Load[Event](r, map[string]any{"at": "2024-03-01"})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got.At)

		out, err := retort.Dump(r, got)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"at": "2024-03-01"}, out)

		_, err = retort.Load[Event](r, map[string]any{"at": "01.03.2024"})

		var mismatch *loaderr.DatetimeFormatMismatchLoadError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, time.DateOnly, mismatch.Format)

		_, err = retort.Load[Event](r, map[string]any{"at": 1})

		var wrongType *loaderr.TypeLoadError
		require.ErrorAs(t, err, &wrongType)
	})

	t.Run("by timestamp", func(t *testing.T) {
		t.Parallel()

		r := retort.New(retort.WithRecipe(retort.DatetimeByTimestamp(typing.Of[time.Time](), nil)))

		got, err := retort.Load[Event](r, map[string]any{"at": 1700000000})
		require.NoError(t, err)
		assert.True(t, time.Unix(1700000000, 0).Equal(got.At))
		assert.Equal(t, time.UTC, got.At.Location())

		out, err := retort.Dump(r, got)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"at": float64(1700000000)}, out)

		half, err := retort.Load[time.Time](r, 1.5)
		require.NoError(t, err)
		assert.True(t, time.Unix(1, 500_000_000).Equal(half))

		_, err = retort.Load[time.Time](r, "1700000000")

		var wrongType *loaderr.TypeLoadError
		require.ErrorAs(t, err, &wrongType)
	})

	t.Run("date by timestamp", func(t *testing.T) {
		t.Parallel()

		r := retort.New(retort.WithRecipe(retort.DateByTimestamp(nil)))

		got, err := retort.Load[time.Time](r, 1700000000)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC), got)

		out, err := retort.Dump(r, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, float64(1699920000), out)

		_, err = retort.Load[time.Time](r, nil)
		require.Error(t, err)
	})
}

func TestWithProperty(t *testing.T) {
	t.Parallel()

	r := retort.New(retort.WithRecipe(retort.WithProperty(typing.Of[Rect](), "Area", "Area")))

	out, err := retort.Dump(r, Rect{W: 2, H: 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"w": 2, "h": 3, "area": 6}, out)

	got, err := retort.Load[Rect](r, map[string]any{"w": 2, "h": 3})
	require.NoError(t, err)
	assert.Equal(t, Rect{W: 2, H: 3}, got)

	_, err = retort.GetDumper[Rect](retort.New(retort.WithRecipe(
		retort.WithProperty(typing.Of[Rect](), "Perimeter", "Perimeter"),
	)))

	var notFound *retort.ProviderNotFoundError
	require.ErrorAs(t, err, &notFound)
}
