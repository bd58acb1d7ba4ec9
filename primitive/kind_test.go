package primitive_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/primitive"
)

func Example() {
	type IntEnum int
	type StringEnum string
	type Empty struct{}

	fmt.Println(primitive.FromReflectType(reflect.TypeOf(int(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf("")))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(IntEnum(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(StringEnum(""))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(time.Duration(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(time.Time{})))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(Empty{})))
	// Output:
	// KindInt
	// KindString
	// KindPrimitiveEnum
	// KindPrimitiveEnum
	// KindDuration
	// KindTime
	// KindEnum(0)
}

func ExampleCategoryOf() {
	fmt.Println(primitive.CategoryOf(primitive.ConversionPair{From: primitive.KindInt8, To: primitive.KindInt64}))
	fmt.Println(primitive.CategoryOf(primitive.ConversionPair{From: primitive.KindInt64, To: primitive.KindInt8}))
	fmt.Println(primitive.CategoryOf(primitive.ConversionPair{From: primitive.KindString, To: primitive.KindDuration}))
	// Output:
	// SafeNumber
	// UnsafeNumber
	// Duration
}

type Color string

func (c Color) IsValid() bool { return c == "red" || c == "green" }

func TestConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      any
		dst     reflect.Type
		allowed primitive.CategoryEnum
		want    any
		err     error
	}{
		{name: "widen", in: int8(7), dst: reflect.TypeFor[int64](), allowed: primitive.CategorySafeNumber, want: int64(7)},
		{name: "narrow", in: int64(7), dst: reflect.TypeFor[int8](), allowed: primitive.CategorySafeNumber, err: primitive.ErrNotAllowed},
		{name: "parse int", in: "42", dst: reflect.TypeFor[int](), allowed: primitive.CategoryTextNumber, want: 42},
		{name: "parse overflow", in: "300", dst: reflect.TypeFor[uint8](), allowed: primitive.CategoryTextNumber, err: primitive.ErrOutOfRange},
		{name: "parse garbage", in: "x", dst: reflect.TypeFor[float64](), allowed: primitive.CategoryTextNumber, err: primitive.ErrBadValue},
		{name: "format float", in: 1.5, dst: reflect.TypeFor[string](), allowed: primitive.CategoryTextNumber, want: "1.5"},
		{name: "numeric bool", in: 1, dst: reflect.TypeFor[bool](), allowed: primitive.CategoryNumericBool, want: true},
		{name: "numeric bool out of set", in: 2, dst: reflect.TypeFor[bool](), allowed: primitive.CategoryNumericBool, err: primitive.ErrBadValue},
		{name: "textual bool", in: "Yes", dst: reflect.TypeFor[bool](), allowed: primitive.CategoryTextualBool, want: true},
		{name: "duration", in: "1m30s", dst: reflect.TypeFor[time.Duration](), allowed: primitive.CategoryDuration, want: 90 * time.Second},
		{name: "seconds", in: 1.5, dst: reflect.TypeFor[time.Duration](), allowed: primitive.CategorySeconds, want: 1500 * time.Millisecond},
		{name: "nanoseconds", in: time.Second, dst: reflect.TypeFor[int64](), allowed: primitive.CategoryNanoseconds, want: int64(1e9)},
		{name: "timestamp", in: 0, dst: reflect.TypeFor[time.Time](), allowed: primitive.CategoryTimestamp, want: time.Unix(0, 0)},
		{name: "valid enum", in: "red", dst: reflect.TypeFor[Color](), allowed: primitive.CategoryEnumString, want: Color("red")},
		{name: "invalid enum", in: "blue", dst: reflect.TypeFor[Color](), allowed: primitive.CategoryEnumString, err: primitive.ErrBadValue},
		{name: "enum to string", in: Color("green"), dst: reflect.TypeFor[string](), allowed: primitive.CategoryEnumString, want: "green"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := primitive.Convert(tt.in, tt.dst, tt.allowed)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowed(t *testing.T) {
	t.Parallel()

	assert.True(t, primitive.Allowed(reflect.TypeFor[uint16](), reflect.TypeFor[int](), primitive.CategorySafeNumber))
	assert.False(t, primitive.Allowed(reflect.TypeFor[uint64](), reflect.TypeFor[int64](), primitive.CategorySafeNumber))
	assert.False(t, primitive.Allowed(reflect.TypeFor[struct{}](), reflect.TypeFor[int](), primitive.CategoryAll))
}
