package morph

import (
	"encoding/base64"
	"encoding/json"
	"reflect"
	"regexp"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"retort/loaderr"
	"retort/primitive"
	"retort/provider"
	"retort/typing"
)

var (
	jsonNumberType = reflect.TypeFor[json.Number]()
	bytesType      = reflect.TypeFor[[]byte]()
	timeType       = reflect.TypeFor[time.Time]()
	durationType   = reflect.TypeFor[time.Duration]()
	uuidType       = reflect.TypeFor[uuid.UUID]()
	decimalType    = reflect.TypeFor[apd.Decimal]()
	regexpType     = reflect.TypeFor[*regexp.Regexp]()
)

// leaf builds a provider for one exact type. The loader receives the
// strictness of its location.
func leaf(pred any, load func(strict bool) provider.Loader, dump provider.Dumper) provider.Provider {
	return both(
		provider.MustChecker(pred),
		func(m provider.Mediator, req provider.LoaderRequest) (any, error) {
			strict, err := strictAt(m, req.Stack)
			if err != nil {
				return nil, err
			}

			return load(strict), nil
		},
		func(provider.Mediator, provider.DumperRequest) (any, error) {
			return dump, nil
		},
	)
}

func identity(v any) (any, error) { return v, nil }

// SpecialProvider handles the leaf types with a textual data form:
// []byte, json.Number, time.Time, time.Duration, uuid.UUID, apd.Decimal
// and regular expressions. Any and None are passed through.
func SpecialProvider() provider.Provider {
	return provider.Concat(
		leaf(typing.Any, func(bool) provider.Loader { return identity }, identity),
		leaf(typing.None, func(bool) provider.Loader { return noneLoader }, func(any) (any, error) { return nil, nil }),
		leaf(bytesType, bytesLoader, identity),
		leaf(jsonNumberType, numberLoader, identity),
		leaf(timeType, timeLoader, dumpTime),
		leaf(durationType, durationLoader, dumpString),
		leaf(uuidType, uuidLoader, dumpString),
		leaf(decimalType, decimalLoader, dumpDecimal),
		leaf(typing.Pattern, patternLoader, dumpString),
		leaf(regexpType, patternLoader, dumpString),
	)
}

func noneLoader(data any) (any, error) {
	if data != nil {
		return nil, &loaderr.TypeLoadError{Expected: typing.None, Input: data}
	}

	return nil, nil
}

func bytesLoader(strict bool) provider.Loader {
	return func(data any) (any, error) {
		switch d := data.(type) {
		case []byte:
			return append([]byte(nil), d...), nil
		case string:
			if strict {
				break
			}

			b, err := base64.StdEncoding.DecodeString(d)
			if err != nil {
				return nil, &loaderr.ValueLoadError{Msg: "bad base64 string", Input: data}
			}

			return b, nil
		}

		return nil, &loaderr.TypeLoadError{Expected: bytesType, Input: data}
	}
}

func numberLoader(strict bool) provider.Loader {
	return func(data any) (any, error) {
		if data == nil {
			return nil, &loaderr.TypeLoadError{Expected: jsonNumberType, Input: data}
		}

		rv := reflect.ValueOf(data)

		switch k := rv.Kind(); {
		case rv.Type() == jsonNumberType:
			return data, nil
		case isInt(k):
			return json.Number(strconv.FormatInt(rv.Int(), 10)), nil
		case isUint(k):
			return json.Number(strconv.FormatUint(rv.Uint(), 10)), nil
		case isFloat(k):
			return json.Number(strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits())), nil
		case !strict && k == reflect.String:
			if _, err := strconv.ParseFloat(rv.String(), 64); err != nil {
				return nil, &loaderr.ValueLoadError{Msg: "bad number", Input: data}
			}

			return json.Number(rv.String()), nil
		default:
			return nil, &loaderr.TypeLoadError{Expected: jsonNumberType, Input: data}
		}
	}
}

func timeLoader(strict bool) provider.Loader {
	return func(data any) (any, error) {
		switch d := data.(type) {
		case time.Time:
			return d, nil
		case string:
			t, err := time.Parse(time.RFC3339Nano, d)
			if err != nil {
				return nil, &loaderr.DatetimeFormatMismatchLoadError{
					FormatMismatchLoadError: loaderr.FormatMismatchLoadError{Format: time.RFC3339Nano, Input: data},
				}
			}

			return t, nil
		}

		if !strict && data != nil && primitive.Allowed(reflect.TypeOf(plain(data)), timeType, primitive.CategoryTimestamp) {
			return primitive.Convert(plain(data), timeType, primitive.CategoryTimestamp)
		}

		return nil, &loaderr.TypeLoadError{Expected: timeType, Input: data}
	}
}

func dumpTime(v any) (any, error) {
	return v.(time.Time).Format(time.RFC3339Nano), nil
}

func durationLoader(strict bool) provider.Loader {
	return func(data any) (any, error) {
		switch d := data.(type) {
		case time.Duration:
			return d, nil
		case string:
			dur, err := time.ParseDuration(d)
			if err != nil {
				return nil, &loaderr.ValueLoadError{Msg: "bad duration", Input: data}
			}

			return dur, nil
		}

		if strict || data == nil {
			return nil, &loaderr.TypeLoadError{Expected: durationType, Input: data}
		}

		v, err := primitive.Convert(plain(data), durationType, primitive.CategoryNanoseconds|primitive.CategorySeconds)
		if err != nil {
			return nil, convertError(durationType, data, err)
		}

		return v, nil
	}
}

func dumpString(v any) (any, error) {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String(), nil
	}

	return v, nil
}

func uuidLoader(strict bool) provider.Loader {
	return func(data any) (any, error) {
		switch d := data.(type) {
		case uuid.UUID:
			return d, nil
		case string:
			id, err := uuid.Parse(d)
			if err != nil {
				return nil, &loaderr.ValueLoadError{Msg: "bad UUID", Input: data}
			}

			return id, nil
		case []byte:
			if strict {
				break
			}

			id, err := uuid.FromBytes(d)
			if err != nil {
				return nil, &loaderr.ValueLoadError{Msg: "bad UUID", Input: data}
			}

			return id, nil
		}

		return nil, &loaderr.TypeLoadError{Expected: uuidType, Input: data}
	}
}

func decimalLoader(strict bool) provider.Loader {
	parse := func(s string, data any) (any, error) {
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return nil, &loaderr.ValueLoadError{Msg: "bad decimal", Input: data}
		}

		return *d, nil
	}

	return func(data any) (any, error) {
		if data == nil {
			return nil, &loaderr.TypeLoadError{Expected: decimalType, Input: data}
		}

		rv := reflect.ValueOf(data)

		switch k := rv.Kind(); {
		case rv.Type() == decimalType:
			return data, nil
		case k == reflect.String:
			return parse(rv.String(), data)
		case isInt(k):
			return *apd.New(rv.Int(), 0), nil
		case isUint(k):
			return parse(strconv.FormatUint(rv.Uint(), 10), data)
		case !strict && isFloat(k):
			return parse(strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits()), data)
		default:
			return nil, &loaderr.TypeLoadError{Expected: decimalType, Input: data}
		}
	}
}

func dumpDecimal(v any) (any, error) {
	d := v.(apd.Decimal)

	return d.String(), nil
}

func patternLoader(bool) provider.Loader {
	return func(data any) (any, error) {
		switch d := data.(type) {
		case *regexp.Regexp:
			return d, nil
		case string:
			re, err := regexp.Compile(d)
			if err != nil {
				return nil, &loaderr.ValueLoadError{Msg: "bad regular expression", Input: data}
			}

			return re, nil
		}

		return nil, &loaderr.TypeLoadError{Expected: regexpType, Input: data}
	}
}
