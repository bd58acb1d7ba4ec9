package loaderr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/typing"
)

func TestAppendTrail(t *testing.T) {
	leaf := &TypeLoadError{Expected: typing.Of[int](), Input: "x"}

	err := AppendTrail(leaf, "id")
	err = AppendTrail(err, 0)
	err = AppendTrail(err, "items")

	assert.Equal(t, []any{"items", 0, "id"}, TrailOf(err))
	assert.Equal(t, "items[0].id", FormatTrail(TrailOf(err)))

	var tle *TypeLoadError
	require.ErrorAs(t, err, &tle)
	assert.Same(t, leaf, tle)
	assert.Same(t, leaf, Unwrapped(err))
}

func TestExtendTrail(t *testing.T) {
	leaf := &ValueLoadError{Msg: "bad", Input: 1}

	err := ExtendTrail(AppendTrail(leaf, "c"), []any{"a", "b"})
	assert.Equal(t, []any{"a", "b", "c"}, TrailOf(err))

	assert.NoError(t, ExtendTrail(nil, []any{"a"}))
	assert.Same(t, leaf, ExtendTrail(leaf, nil))
	assert.Nil(t, TrailOf(leaf))
}

func TestFormatTrail(t *testing.T) {
	tests := []struct {
		trail []any
		want  string
	}{
		{nil, "$"},
		{[]any{"a"}, "a"},
		{[]any{1}, "[1]"},
		{[]any{1, "name"}, "[1].name"},
		{[]any{"m", "k", 2}, "m.k[2]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTrail(tt.trail))
		})
	}
}

func TestIsLoadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"type", &TypeLoadError{Expected: typing.Of[int]()}, true},
		{"datetime", &DatetimeFormatMismatchLoadError{FormatMismatchLoadError{Format: "2006"}}, true},
		{"trailed", AppendTrail(&ExtraFieldsError{Fields: []string{"x"}}, "a"), true},
		{"aggregate", &AggregateLoadError{Message: "m"}, true},
		{"union", &UnionLoadError{Message: "m"}, true},
		{"plain", errors.New("boom"), false},
		{"group", &Group{Message: "m"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLoadError(tt.err))
		})
	}
}

func TestNewGroup(t *testing.T) {
	loadErrs := []error{
		AppendTrail(&TypeLoadError{Expected: typing.Of[int](), Input: "a"}, 0),
		AppendTrail(&TypeLoadError{Expected: typing.Of[int](), Input: "b"}, 1),
	}

	agg := NewGroup("while loading iterable", loadErrs)
	require.IsType(t, &AggregateLoadError{}, agg)
	assert.Equal(t, "while loading iterable (2 sub-errors)", agg.Error())

	mixed := NewGroup("while loading iterable", append(loadErrs, errors.New("io")))
	require.IsType(t, &Group{}, mixed)

	var tle *TypeLoadError
	require.ErrorAs(t, mixed, &tle)
	assert.Equal(t, "a", tle.Input)
}

func TestMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ExtraFieldsError{Fields: []string{"a", "b"}}, `extra fields "a", "b"`},
		{&NoRequiredFieldsError{Fields: []string{"id"}}, `required fields "id" are missing`},
		{&ExtraItemsError{ExpectedLen: 2}, "expected at most 2 items"},
		{&NoRequiredItemsError{ExpectedLen: 3}, "expected at least 3 items"},
		{&OutOfRangeLoadError{Min: 0, Max: 255, Input: 300}, "value must be in range [0, 255], got 300"},
		{AppendTrail(&NoRequiredItemsError{ExpectedLen: 1}, "xs"), "at xs: expected at least 1 items"},
		{&TypeLoadError{Expected: typing.Of[int](), Input: "b"}, `expected int, got string "b"`},
		{&TypeLoadError{Expected: typing.Of[string](), Input: nil}, "expected string, got nil"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.err), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestMessagesOfComposites(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty slice", &TypeLoadError{Expected: typing.Of[int](), Input: []any{}}, "expected int, got []interface {}{}"},
		{
			"slice",
			&TypeLoadError{Expected: typing.Of[int](), Input: []any{1, 2}},
			"expected int, got []interface {}{int(1), int(2)}",
		},
		{"duplicates", &DuplicatedValuesLoadError{Input: []any{}}, "duplicated values in []interface {}{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.NotContains(t, tt.err.Error(), "\n")
		})
	}
}

func TestRender(t *testing.T) {
	err := &AggregateLoadError{
		Message: "while loading iterable",
		Errs: []error{
			AppendTrail(&ExtraItemsError{ExpectedLen: 1}, 0),
			AppendTrail(&UnionLoadError{
				Message: "while loading Union",
				Errs:    []error{&NoRequiredItemsError{ExpectedLen: 2}},
			}, 1),
		},
	}

	want := "while loading iterable\n" +
		"+-- [0]\n" +
		"|   [0]: expected at most 1 items\n" +
		"+-- [1]\n" +
		"|   [1]: while loading Union\n" +
		"|   +-- [0]\n" +
		"|   |   expected at least 2 items"

	assert.Equal(t, want, Render(err))
}
