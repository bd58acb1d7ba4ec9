package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecipe = `
version: "1"
types:
  - type: app.Weather
    name_style: camelCase
    map:
      Name: main
      IconID: [weather, 0, icon]
      Internal: null
    skip: Debug
    omit_default: [Comment, "^X.*"]
    as_list: false
    extra_in: forbid
    extra_out: [Extra, More]
conversions:
  - source: store.Order
    target: warehouse.Order
    121:
      OrderID: ID
      CustomerName: Customer
    fields:
      - target: Status
        default: pending
      - target: Amount
        source: Price
        transform: CentsToAmount
      - target: Total
        func: OrderTotal
    ignore: Note
`

func TestParse(t *testing.T) {
	t.Parallel()

	rf, err := Parse([]byte(sampleRecipe))
	require.NoError(t, err)
	require.NotNil(t, rf)

	assert.Equal(t, "1", rf.Version)
	require.Len(t, rf.Types, 1)

	tr := rf.Types[0]
	assert.Equal(t, "app.Weather", tr.Type)
	assert.Equal(t, "camelCase", tr.NameStyle)
	assert.Equal(t, []any{"main"}, tr.Map["Name"].Path)
	assert.Equal(t, []any{"weather", 0, "icon"}, tr.Map["IconID"].Path)
	assert.True(t, tr.Map["Internal"].Skipped())
	assert.Equal(t, StringOrArray{"Debug"}, tr.Skip)
	assert.Equal(t, StringOrArray{"Comment", "^X.*"}, tr.OmitDefault)
	require.NotNil(t, tr.AsList)
	assert.False(t, *tr.AsList)
	assert.Nil(t, tr.TrimTrailingUnderscore)
	assert.Equal(t, StringOrArray{"forbid"}, tr.ExtraIn)
	assert.Equal(t, StringOrArray{"Extra", "More"}, tr.ExtraOut)

	require.Len(t, rf.Conversions, 1)

	c := rf.Conversions[0]
	assert.Equal(t, "store.Order", c.Source)
	assert.Equal(t, "warehouse.Order", c.Target)
	assert.Equal(t, map[string]string{"OrderID": "ID", "CustomerName": "Customer"}, c.OneToOne)
	require.Len(t, c.Fields, 3)
	assert.Equal(t, "pending", c.Fields[0].Default)
	assert.Equal(t, "CentsToAmount", c.Fields[1].Transform)
	assert.Equal(t, "OrderTotal", c.Fields[2].Func)
	assert.Equal(t, StringOrArray{"Note"}, c.Ignore)
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	rf, err := Parse([]byte("types: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "1", rf.Version)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad map value", yaml: "types:\n  - type: T\n    map:\n      A: {x: 1}\n"},
		{name: "empty path", yaml: "types:\n  - type: T\n    map:\n      A: []\n"},
		{name: "nested path item", yaml: "types:\n  - type: T\n    map:\n      A: [[a]]\n"},
		{name: "skip as map", yaml: "types:\n  - type: T\n    skip: {a: b}\n"},
		{name: "not yaml", yaml: "types: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestKeyPathResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kp   KeyPath
		want any
	}{
		{name: "skip", kp: KeyPath{Skip: true}, want: nil},
		{name: "zero", kp: KeyPath{}, want: nil},
		{name: "key", kp: KeyPath{Path: []any{"a"}}, want: "a"},
		{name: "path", kp: KeyPath{Path: []any{"a", 1}}, want: []any{"a", 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.kp.Result())
		})
	}
}

func TestStringOrArray(t *testing.T) {
	t.Parallel()

	s := StringOrArray{"a", "b"}
	assert.Equal(t, "a", s.First())
	assert.False(t, s.IsSingle())
	assert.True(t, s.Contains("b"))
	assert.False(t, s.Contains("c"))
	assert.Equal(t, []any{"a", "b"}, s.Any())
	assert.Empty(t, StringOrArray{}.First())
}

func TestNormalizeConversion(t *testing.T) {
	t.Parallel()

	c := ConversionRecipe{
		OneToOne: map[string]string{"B": "Y", "A": "X"},
		Fields:   []FieldLink{{Target: "Z", Default: 1}},
	}

	NormalizeConversion(&c)

	assert.Nil(t, c.OneToOne)
	assert.Equal(t, []FieldLink{
		{Source: "A", Target: "X"},
		{Source: "B", Target: "Y"},
		{Target: "Z", Default: 1},
	}, c.Fields)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	rf, err := Parse([]byte(sampleRecipe))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, WriteFile(rf, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "IconID:")

	again, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rf.Types[0].Map["IconID"], again.Types[0].Map["IconID"])
	assert.Equal(t, rf.Conversions[0].OneToOne, again.Conversions[0].OneToOne)
}
