package morph

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"

	"retort/loaderr"
	"retort/primitive"
	"retort/provider"
	"retort/typing"
)

var (
	intKinds   = []reflect.Kind{reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64}
	uintKinds  = []reflect.Kind{reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64}
	floatKinds = []reflect.Kind{reflect.Float32, reflect.Float64}
)

func isInt(k reflect.Kind) bool   { return reflect.Int <= k && k <= reflect.Int64 }
func isUint(k reflect.Kind) bool  { return reflect.Uint <= k && k <= reflect.Uintptr }
func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

// ScalarProvider handles bool, integer, float and string kinds, named
// types included.
func ScalarProvider() provider.Provider {
	return provider.Concat(
		scalar(kindChecker(reflect.Bool), boolLoader),
		scalar(kindChecker(append(intKinds, uintKinds...)...), intLoader),
		scalar(kindChecker(floatKinds...), floatLoader),
		scalar(kindChecker(reflect.String), stringLoader),
	)
}

func scalar(checker provider.Checker, build func(rt reflect.Type, strict bool) provider.Loader) provider.Provider {
	return both(
		checker,
		func(m provider.Mediator, req provider.LoaderRequest) (any, error) {
			n, err := lastType(req.Stack)
			if err != nil {
				return nil, err
			}

			strict, err := strictAt(m, req.Stack)
			if err != nil {
				return nil, err
			}

			return build(n.Origin().(reflect.Type), strict), nil
		},
		func(provider.Mediator, provider.DumperRequest) (any, error) {
			return provider.Dumper(func(v any) (any, error) { return plain(v), nil }), nil
		},
	)
}

func boolLoader(rt reflect.Type, strict bool) provider.Loader {
	return func(data any) (any, error) {
		rv := reflect.ValueOf(data)
		if data != nil && rv.Kind() == reflect.Bool {
			return rv.Convert(rt).Interface(), nil
		}

		if strict || data == nil {
			return nil, &loaderr.TypeLoadError{Expected: rt, Input: data}
		}

		v, err := primitive.Convert(plain(data), baseTypes[reflect.Bool], primitive.CategoryNumericBool|primitive.CategoryTextualBool)
		if err != nil {
			return nil, convertError(rt, data, err)
		}

		return reflect.ValueOf(v).Convert(rt).Interface(), nil
	}
}

func intLoader(rt reflect.Type, strict bool) provider.Loader {
	return func(data any) (any, error) {
		out := reflect.New(rt).Elem()

		if data == nil {
			return nil, &loaderr.TypeLoadError{Expected: rt, Input: data}
		}

		if num, ok := data.(json.Number); ok {
			n, err := num.Int64()
			if err != nil {
				return nil, &loaderr.ValueLoadError{Msg: "number is not an integer", Input: data}
			}

			return setInt(out, n, data)
		}

		rv := reflect.ValueOf(data)

		switch k := rv.Kind(); {
		case isInt(k):
			return setInt(out, rv.Int(), data)
		case isUint(k):
			return setUint(out, rv.Uint(), data)
		case strict:
			return nil, &loaderr.TypeLoadError{Expected: rt, Input: data}
		case isFloat(k):
			f := rv.Float()
			if f != math.Trunc(f) || math.IsInf(f, 0) {
				return nil, &loaderr.ValueLoadError{Msg: "number is not an integer", Input: data}
			}

			if f < math.MinInt64 || f >= math.MaxInt64 {
				lo, hi := intBounds(rt)

				return nil, &loaderr.OutOfRangeLoadError{Min: lo, Max: hi, Input: data}
			}

			return setInt(out, int64(f), data)
		case k == reflect.String:
			v, err := primitive.Convert(rv.String(), baseTypes[rt.Kind()], primitive.CategoryTextNumber)
			if err != nil {
				return nil, convertError(rt, data, err)
			}

			return reflect.ValueOf(v).Convert(rt).Interface(), nil
		default:
			return nil, &loaderr.TypeLoadError{Expected: rt, Input: data}
		}
	}
}

func setInt(out reflect.Value, n int64, data any) (any, error) {
	if isUint(out.Kind()) {
		if n < 0 {
			return nil, outOfRange(out.Type(), data)
		}

		return setUint(out, uint64(n), data)
	}

	if out.OverflowInt(n) {
		return nil, outOfRange(out.Type(), data)
	}

	out.SetInt(n)

	return out.Interface(), nil
}

func setUint(out reflect.Value, u uint64, data any) (any, error) {
	if isInt(out.Kind()) {
		if u > math.MaxInt64 {
			return nil, outOfRange(out.Type(), data)
		}

		return setInt(out, int64(u), data)
	}

	if out.OverflowUint(u) {
		return nil, outOfRange(out.Type(), data)
	}

	out.SetUint(u)

	return out.Interface(), nil
}

func intBounds(rt reflect.Type) (any, any) {
	bits := rt.Bits()
	if isUint(rt.Kind()) {
		return uint64(0), uint64(math.MaxUint64) >> (64 - bits)
	}

	return int64(-1) << (bits - 1), int64(math.MaxInt64) >> (64 - bits)
}

func outOfRange(rt reflect.Type, data any) error {
	lo, hi := intBounds(rt)

	return &loaderr.OutOfRangeLoadError{Min: lo, Max: hi, Input: data}
}

func floatLoader(rt reflect.Type, strict bool) provider.Loader {
	return func(data any) (any, error) {
		out := reflect.New(rt).Elem()

		var f float64

		rv := reflect.ValueOf(data)

		switch k := rv.Kind(); {
		case data == nil:
			return nil, &loaderr.TypeLoadError{Expected: rt, Input: data}
		case rv.Type() == jsonNumberType:
			v, err := data.(json.Number).Float64()
			if err != nil {
				return nil, &loaderr.ValueLoadError{Msg: "bad number", Input: data}
			}

			f = v
		case isFloat(k):
			f = rv.Float()
		case isInt(k):
			f = float64(rv.Int())
		case isUint(k):
			f = float64(rv.Uint())
		case !strict && k == reflect.String:
			v, err := primitive.Convert(rv.String(), baseTypes[reflect.Float64], primitive.CategoryTextNumber)
			if err != nil {
				return nil, convertError(rt, data, err)
			}

			f = v.(float64)
		default:
			return nil, &loaderr.TypeLoadError{Expected: rt, Input: data}
		}

		if !math.IsInf(f, 0) && out.OverflowFloat(f) {
			return nil, &loaderr.OutOfRangeLoadError{Min: -math.MaxFloat32, Max: math.MaxFloat32, Input: data}
		}

		out.SetFloat(f)

		return out.Interface(), nil
	}
}

func stringLoader(rt reflect.Type, strict bool) provider.Loader {
	return func(data any) (any, error) {
		rv := reflect.ValueOf(data)
		if data == nil {
			return nil, &loaderr.TypeLoadError{Expected: rt, Input: data}
		}

		if rv.Kind() == reflect.String && (!strict || rv.Type() != jsonNumberType) {
			return rv.Convert(rt).Interface(), nil
		}

		return nil, &loaderr.TypeLoadError{Expected: rt, Input: data}
	}
}

// convertError maps a failed primitive conversion to a load error.
func convertError(rt reflect.Type, data any, err error) error {
	switch {
	case errors.Is(err, primitive.ErrOutOfRange):
		if isInt(rt.Kind()) || isUint(rt.Kind()) {
			return outOfRange(rt, data)
		}

		return &loaderr.ValueLoadError{Msg: "value is out of range", Input: data}
	case errors.Is(err, primitive.ErrBadValue):
		return &loaderr.ValueLoadError{Msg: "bad " + typing.Repr(rt) + " value", Input: data}
	default:
		return &loaderr.TypeLoadError{Expected: rt, Input: data}
	}
}
