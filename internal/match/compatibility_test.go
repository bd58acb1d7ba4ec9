package match

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type celsius float64

type pair struct{ A, B int }

type other struct{ A string }

func TestTypeCompatibility_String(t *testing.T) {
	tests := []struct {
		compat   TypeCompatibility
		expected string
	}{
		{TypeIdentical, "identical"},
		{TypeAssignable, "assignable"},
		{TypeConvertible, "convertible"},
		{TypeNeedsTransform, "needs_transform"},
		{TypeIncompatible, "incompatible"},
		{TypeCompatibility(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.compat.String())
		})
	}
}

func TestTypeCompatibility_Score(t *testing.T) {
	order := []TypeCompatibility{TypeIncompatible, TypeNeedsTransform, TypeConvertible, TypeAssignable, TypeIdentical}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1].Score(), order[i].Score(), "%s < %s", order[i-1], order[i])
	}
}

func TestScoreTypeCompatibility(t *testing.T) {
	var (
		intType     = reflect.TypeFor[int]()
		int64Type   = reflect.TypeFor[int64]()
		stringType  = reflect.TypeFor[string]()
		float64Type = reflect.TypeFor[float64]()
		anyType     = reflect.TypeFor[any]()
	)

	tests := []struct {
		name     string
		source   reflect.Type
		target   reflect.Type
		expected TypeCompatibility
	}{
		{name: "identical int", source: intType, target: intType, expected: TypeIdentical},
		{name: "identical string", source: stringType, target: stringType, expected: TypeIdentical},
		{name: "int to any assignable", source: intType, target: anyType, expected: TypeAssignable},
		{name: "int to int64 convertible", source: intType, target: int64Type, expected: TypeConvertible},
		{name: "float64 to named float convertible", source: float64Type, target: reflect.TypeFor[celsius](), expected: TypeConvertible},
		{name: "int to string is not a conversion", source: intType, target: stringType, expected: TypeIncompatible},
		{name: "string to int incompatible", source: stringType, target: intType, expected: TypeIncompatible},
		{name: "bool to string incompatible", source: reflect.TypeFor[bool](), target: stringType, expected: TypeIncompatible},
		{name: "identical *int", source: reflect.TypeFor[*int](), target: reflect.TypeFor[*int](), expected: TypeIdentical},
		{name: "*int to int needs transform", source: reflect.TypeFor[*int](), target: intType, expected: TypeNeedsTransform},
		{name: "int to *int needs transform", source: intType, target: reflect.TypeFor[*int](), expected: TypeNeedsTransform},
		{name: "**int to int incompatible", source: reflect.TypeFor[**int](), target: intType, expected: TypeIncompatible},
		{name: "[]int to []int64 needs transform", source: reflect.TypeFor[[]int](), target: reflect.TypeFor[[]int64](), expected: TypeNeedsTransform},
		{name: "[]int to []string incompatible", source: reflect.TypeFor[[]int](), target: reflect.TypeFor[[]string](), expected: TypeIncompatible},
		{name: "map values needing transform", source: reflect.TypeFor[map[string]int](), target: reflect.TypeFor[map[string]*int](), expected: TypeNeedsTransform},
		{name: "struct to struct", source: reflect.TypeFor[pair](), target: reflect.TypeFor[other](), expected: TypeNeedsTransform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreTypeCompatibility(tt.source, tt.target)
			assert.Equal(t, tt.expected, got.Compatibility, got.Reason)
			assert.Equal(t, tt.source.String(), got.SourceType)
			assert.Equal(t, tt.target.String(), got.TargetType)
		})
	}
}

func TestScorePointerCompatibility(t *testing.T) {
	tests := []struct {
		name     string
		source   reflect.Type
		target   reflect.Type
		expected TypeCompatibility
		reason   string
	}{
		{name: "deref", source: reflect.TypeFor[*int](), target: reflect.TypeFor[int](), expected: TypeNeedsTransform, reason: "requires pointer dereference"},
		{name: "addr", source: reflect.TypeFor[int](), target: reflect.TypeFor[*int](), expected: TypeNeedsTransform, reason: "requires taking address"},
		{name: "convertible kept", source: reflect.TypeFor[int](), target: reflect.TypeFor[int32](), expected: TypeConvertible, reason: "source is convertible to target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScorePointerCompatibility(tt.source, tt.target)
			assert.Equal(t, tt.expected, got.Compatibility)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestIsNumericType(t *testing.T) {
	assert.True(t, IsNumericType(reflect.TypeFor[int8]()))
	assert.True(t, IsNumericType(reflect.TypeFor[uint64]()))
	assert.True(t, IsNumericType(reflect.TypeFor[celsius]()))
	assert.False(t, IsNumericType(reflect.TypeFor[string]()))
	assert.False(t, IsNumericType(reflect.TypeFor[bool]()))
	assert.False(t, IsNumericType(reflect.TypeFor[complex128]()))
}

func TestIsStringType(t *testing.T) {
	type name string

	assert.True(t, IsStringType(reflect.TypeFor[string]()))
	assert.True(t, IsStringType(reflect.TypeFor[name]()))
	assert.False(t, IsStringType(reflect.TypeFor[[]byte]()))
}
