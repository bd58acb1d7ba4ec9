package primitive

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotAllowed = errors.New("conversion is not allowed")
	ErrOutOfRange = errors.New("value is out of range")
	ErrBadValue   = errors.New("bad value")
)

var (
	stringerType      = reflect.TypeFor[fmt.Stringer]()
	validatorType     = reflect.TypeFor[interface{ IsValid() bool }]()
	textUnmarshalType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Allowed reports whether src converts to dst within the allowed categories.
func Allowed(src, dst reflect.Type, allowed CategoryEnum) bool {
	return pairCategory(src, dst)&allowed != 0
}

func pairCategory(src, dst reflect.Type) CategoryEnum {
	srcKind, dstKind := FromReflectType(src), FromReflectType(dst)
	if srcKind == 0 || dstKind == 0 {
		return CategoryNone
	}

	return CategoryOf(ConversionPair{srcKind, dstKind})
}

// Convert converts v to dst using the first allowed category holding the
// pair of kinds.
func Convert(v any, dst reflect.Type, allowed CategoryEnum) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil to %s", ErrNotAllowed, dst)
	}

	rv := reflect.ValueOf(v)
	cats := pairCategory(rv.Type(), dst) & allowed

	if cats == CategoryNone {
		return nil, fmt.Errorf("%w: %s to %s", ErrNotAllowed, rv.Type(), dst)
	}

	for category := CategoryEnum(1); category&CategoryAll > 0; category <<= 1 {
		if cats&category == 0 {
			continue
		}

		out, err := convert(rv, dst, category)
		if err != nil {
			return nil, err
		}

		return out.Interface(), nil
	}

	return nil, fmt.Errorf("%w: %s to %s", ErrNotAllowed, rv.Type(), dst)
}

func convert(rv reflect.Value, dst reflect.Type, category CategoryEnum) (reflect.Value, error) {
	srcKind, dstKind := FromReflectType(rv.Type()), FromReflectType(dst)

	switch category {
	case CategorySafeNumber, CategoryUnsafeNumber:
		return rv.Convert(dst), nil
	case CategoryTextNumber:
		if srcKind == KindString {
			return parseNumber(rv.String(), dst, dstKind)
		}

		return reflect.ValueOf(formatNumber(rv, srcKind)).Convert(dst), nil
	case CategoryNumericBool:
		if dstKind == KindBool {
			return intToBool(rv, srcKind)
		}

		n := int64(0)
		if rv.Bool() {
			n = 1
		}

		return reflect.ValueOf(n).Convert(dst), nil
	case CategoryTextualBool:
		if dstKind == KindBool {
			return textToBool(rv.String())
		}

		return reflect.ValueOf(strconv.FormatBool(rv.Bool())), nil
	case CategoryDatetime:
		if dstKind == KindTime {
			t, err := time.Parse(time.RFC3339Nano, rv.String())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrBadValue, err)
			}

			return reflect.ValueOf(t), nil
		}

		return reflect.ValueOf(rv.Interface().(time.Time).Format(time.RFC3339Nano)), nil
	case CategoryTimestamp:
		if dstKind == KindTime {
			return reflect.ValueOf(time.Unix(integer(rv, srcKind), 0)), nil
		}

		return fitInteger(rv.Interface().(time.Time).Unix(), dst)
	case CategoryDuration:
		if dstKind == KindDuration {
			d, err := time.ParseDuration(rv.String())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %w", ErrBadValue, err)
			}

			return reflect.ValueOf(d), nil
		}

		return reflect.ValueOf(rv.Interface().(time.Duration).String()), nil
	case CategoryNanoseconds:
		if dstKind == KindDuration {
			return reflect.ValueOf(time.Duration(integer(rv, srcKind))), nil
		}

		return fitInteger(rv.Interface().(time.Duration).Nanoseconds(), dst)
	case CategorySeconds:
		if dstKind == KindDuration {
			return reflect.ValueOf(time.Duration(rv.Float() * float64(time.Second))), nil
		}

		return reflect.ValueOf(rv.Interface().(time.Duration).Seconds()).Convert(dst), nil
	case CategoryEnumString:
		return enumString(rv, dst, srcKind, dstKind)
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrNotAllowed, rv.Type(), dst)
	}
}

func integer(rv reflect.Value, k KindEnum) int64 {
	if k.IsUnsigned() {
		return int64(rv.Uint())
	}

	return rv.Int()
}

func fitInteger(n int64, dst reflect.Type) (reflect.Value, error) {
	out := reflect.New(dst).Elem()

	if out.CanUint() {
		if n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, fmt.Errorf("%w: %d for %s", ErrOutOfRange, n, dst)
		}

		out.SetUint(uint64(n))

		return out, nil
	}

	if out.OverflowInt(n) {
		return reflect.Value{}, fmt.Errorf("%w: %d for %s", ErrOutOfRange, n, dst)
	}

	out.SetInt(n)

	return out, nil
}

func formatNumber(rv reflect.Value, k KindEnum) string {
	switch {
	case k.IsSigned():
		return strconv.FormatInt(rv.Int(), 10)
	case k.IsUnsigned():
		return strconv.FormatUint(rv.Uint(), 10)
	default:
		return strconv.FormatFloat(rv.Float(), 'f', -1, k.Bits())
	}
}

func parseNumber(s string, dst reflect.Type, k KindEnum) (reflect.Value, error) {
	out := reflect.New(dst).Elem()

	var err error

	switch {
	case k.IsSigned():
		var n int64
		if n, err = strconv.ParseInt(s, 10, k.Bits()); err == nil {
			out.SetInt(n)
		}
	case k.IsUnsigned():
		var n uint64
		if n, err = strconv.ParseUint(s, 10, k.Bits()); err == nil {
			out.SetUint(n)
		}
	default:
		var f float64
		if f, err = strconv.ParseFloat(s, k.Bits()); err == nil {
			out.SetFloat(f)
		}
	}

	switch {
	case errors.Is(err, strconv.ErrRange):
		return reflect.Value{}, fmt.Errorf("%w: %q for %s", ErrOutOfRange, s, dst)
	case err != nil:
		return reflect.Value{}, fmt.Errorf("%w: %w", ErrBadValue, err)
	}

	return out, nil
}

func intToBool(rv reflect.Value, k KindEnum) (reflect.Value, error) {
	switch integer(rv, k) {
	case 0:
		return reflect.ValueOf(false), nil
	case 1:
		return reflect.ValueOf(true), nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: only numbers 0 and 1 are allowed for bool, got: %v", ErrBadValue, rv)
	}
}

func textToBool(s string) (reflect.Value, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return reflect.ValueOf(true), nil
	case "false", "no", "off":
		return reflect.ValueOf(false), nil
	default:
		return reflect.Value{}, fmt.Errorf(
			"%w: only strings true/false, yes/no, on/off are allowed for bool, got: %s", ErrBadValue, s)
	}
}

// enumString goes through the textual form of the value: String for enums,
// UnmarshalText or a string conversion checked by IsValid for destinations.
func enumString(rv reflect.Value, dst reflect.Type, srcKind, dstKind KindEnum) (reflect.Value, error) {
	text := rv.String()

	if srcKind == KindPrimitiveEnum {
		switch {
		case rv.Type().Implements(stringerType):
			text = rv.Interface().(fmt.Stringer).String()
		case rv.Kind() != reflect.String:
			return reflect.Value{}, fmt.Errorf("%w: %s has no textual form", ErrNotAllowed, rv.Type())
		}
	}

	if dstKind != KindPrimitiveEnum {
		return reflect.ValueOf(text).Convert(dst), nil
	}

	if reflect.PointerTo(dst).Implements(textUnmarshalType) {
		out := reflect.New(dst)
		if err := out.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %w", ErrBadValue, err)
		}

		return out.Elem(), nil
	}

	if dst.Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("%w: %s cannot be parsed from text", ErrNotAllowed, dst)
	}

	out := reflect.ValueOf(text).Convert(dst)
	if dst.Implements(validatorType) && !out.Interface().(interface{ IsValid() bool }).IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %q is not a valid value for %s", ErrBadValue, text, dst)
	}

	return out, nil
}
