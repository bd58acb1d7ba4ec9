package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/internal/convert"
	"retort/internal/engine"
	"retort/internal/layout"
	"retort/internal/morph"
	"retort/provider"
	"retort/typing"
)

func recipeRetort(t *testing.T, text string) *engine.Retort {
	t.Helper()

	front, err := Providers(parse(t, text), testRegistry())
	require.NoError(t, err)

	recipe := append([]provider.Provider{}, front...)
	recipe = append(recipe, convert.Recipe()...)
	recipe = append(recipe, morph.Recipe()...)
	recipe = append(recipe, morph.Settings(true, provider.DebugTrailFirst, provider.ModelLoaderProps{}))

	return engine.New(recipe)
}

func TestProvidersNameMapping(t *testing.T) {
	t.Parallel()

	r := recipeRetort(t, validRecipe)
	stack := provider.NewLocStack(provider.TypeLoc(typing.Of[Weather]()))

	v, err := r.Produce(context.Background(), provider.LoaderRequest{Stack: stack})
	require.NoError(t, err)

	got, err := v.(provider.Loader)(map[string]any{
		"location":  map[string]any{"city": "Oslo"},
		"feelsLike": 3.5,
		"debug":     "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, Weather{City: "Oslo", FeelsLike: 3.5}, got)

	v, err = r.Produce(context.Background(), provider.DumperRequest{Stack: stack})
	require.NoError(t, err)

	dumped, err := v.(provider.Dumper)(Weather{City: "Oslo", FeelsLike: 3.5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"location":  map[string]any{"city": "Oslo"},
		"feelsLike": 3.5,
	}, dumped)
}

func TestProvidersConversion(t *testing.T) {
	t.Parallel()

	r := recipeRetort(t, validRecipe)

	v, err := r.Produce(context.Background(), provider.ConverterRequest{
		Src: typing.Of[Order](),
		Dst: typing.Of[Shipment](),
	})
	require.NoError(t, err)

	got, err := v.(provider.Converter)(Order{OrderID: 7, Price: 1250, Note: "fragile"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Shipment{ID: 7, Amount: 12.5, Status: "pending", Total: 2500}, got)
}

func TestProvidersWithoutIgnore(t *testing.T) {
	t.Parallel()

	r := recipeRetort(t, `
conversions:
  - source: Order
    target: Shipment
    121:
      OrderID: ID
    fields:
      - target: Amount
        source: Price
        transform: CentsToAmount
      - target: Status
        default: pending
      - target: Total
        func: OrderTotal
`)

	_, err := r.Produce(context.Background(), provider.ConverterRequest{
		Src: typing.Of[Order](),
		Dst: typing.Of[Shipment](),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Linkings for some fields are not found")
}

func TestProvidersInvalid(t *testing.T) {
	t.Parallel()

	_, err := Providers(parse(t, "types:\n  - type: Nope\n"), testRegistry())
	require.ErrorIs(t, err, ErrInvalidRecipe)
	assert.Contains(t, err.Error(), "type_not_found")
}

func TestExtraValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, layout.ExtraSkip, extraValue(StringOrArray{"skip"}))
	assert.Equal(t, layout.ExtraForbid, extraValue(StringOrArray{"forbid"}))
	assert.Equal(t, layout.ExtraKwargs{}, extraValue(StringOrArray{"kwargs"}))
	assert.Equal(t, "Extra", extraValue(StringOrArray{"Extra"}))
	assert.Equal(t, []string{"A", "B"}, extraValue(StringOrArray{"A", "B"}))
}
