package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/internal/diagnostic"
	"retort/shape"
	"retort/typing"
)

type Weather struct {
	City      string
	FeelsLike float64
	Debug     *string
}

type Order struct {
	OrderID int
	Price   int
	Note    string
}

type Shipment struct {
	ID     int
	Amount float64
	Status string
	Total  int
	Memo   *string
}

func centsToAmount(v any) (any, error) { return float64(v.(int)) / 100, nil }

func orderTotal(o Order) int { return o.Price * 2 }

func testRegistry() *Registry {
	return NewRegistry().
		Type("app.Weather", typing.Of[Weather]()).
		Type("store.Order", typing.Of[Order]()).
		Type("warehouse.Shipment", typing.Of[Shipment]()).
		Transform("CentsToAmount", centsToAmount).
		Func("OrderTotal", shape.Func(orderTotal, "order"))
}

func codes(d *diagnostic.Diagnostics) []string {
	out := make([]string, len(d.Errors))
	for i, e := range d.Errors {
		out[i] = e.Code
	}

	return out
}

func parse(t *testing.T, text string) *RecipeFile {
	t.Helper()

	rf, err := Parse([]byte(text))
	require.NoError(t, err)

	return rf
}

const validRecipe = `
types:
  - type: Weather
    name_style: camelCase
    map:
      City: [location, city]
    skip: Debug
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
    ignore: Memo
`

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		yaml  string
		codes []string
	}{
		{name: "valid", yaml: validRecipe},
		{
			name:  "unsupported version",
			yaml:  "version: \"2\"\n",
			codes: []string{"unsupported_version"},
		},
		{
			name:  "unknown type",
			yaml:  "types:\n  - type: Wether\n",
			codes: []string{"type_not_found"},
		},
		{
			name:  "duplicate type",
			yaml:  "types:\n  - type: Weather\n  - type: app.Weather\n  - type: Weather\n",
			codes: []string{"duplicate_type"},
		},
		{
			name:  "bad name style",
			yaml:  "types:\n  - type: Weather\n    name_style: shouting\n",
			codes: []string{"invalid_name_style"},
		},
		{
			name:  "unknown fields",
			yaml:  "types:\n  - type: Weather\n    map:\n      Citty: city\n    only: [Temp]\n",
			codes: []string{"field_not_found", "field_not_found"},
		},
		{
			name:  "bad pattern",
			yaml:  "types:\n  - type: Weather\n    skip: \"De(bug\"\n",
			codes: []string{"invalid_pattern"},
		},
		{
			name:  "extra policies",
			yaml:  "types:\n  - type: Weather\n    extra_in: kwargs\n    extra_out: forbid\n",
			codes: []string{"invalid_extra"},
		},
		{
			name: "ambiguous link",
			yaml: `
conversions:
  - source: Order
    target: Shipment
    fields:
      - target: Status
        source: Note
        default: pending
      - target: Total
`,
			codes: []string{"ambiguous_link", "ambiguous_link"},
		},
		{
			name: "unknown names",
			yaml: `
conversions:
  - source: Order
    target: Shipment
    121:
      Cost: Amount
    fields:
      - target: Totl
        func: Sum
      - target: Status
        default: x
        transform: Upper
`,
			codes: []string{
				"invalid_source",
				"invalid_target", "func_not_found",
				"transform_without_source", "transform_not_found",
			},
		},
		{
			name: "ignore",
			yaml: `
conversions:
  - source: Order
    target: Shipment
    ignore: [Memo, Status, Nope]
`,
			codes: []string{"ignore_required", "invalid_ignore"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			diag := Validate(parse(t, tt.yaml), testRegistry())
			if len(tt.codes) == 0 {
				assert.NoError(t, diag.Error())

				return
			}

			assert.Equal(t, tt.codes, codes(diag))
		})
	}
}

func TestValidateSuggestions(t *testing.T) {
	t.Parallel()

	diag := Validate(parse(t, "types:\n  - type: Weather\n    map:\n      Citty: city\n"), testRegistry())
	require.Len(t, diag.Errors, 1)
	assert.Equal(t, "City", diag.Errors[0].Suggestions[0])
	assert.Contains(t, diag.Error().Error(), `did you mean "City"`)
}

func TestValidateNil(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"recipe_is_nil"}, codes(Validate(nil, testRegistry())))
	assert.Equal(t, []string{"registry_is_nil"}, codes(Validate(&RecipeFile{Version: "1"}, nil)))
}
