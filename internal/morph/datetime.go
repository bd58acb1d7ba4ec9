package morph

import (
	"math"
	"reflect"
	"time"

	"retort/loaderr"
	"retort/provider"
	"retort/typing"
)

var timestampType = typing.Union(typing.Of[int](), typing.Of[float64]())

func timePred(pred any) any {
	if pred == nil {
		return timeType
	}

	return pred
}

// DatetimeByFormat loads and dumps time.Time values at locations matching
// pred as strings in layout. A nil pred matches time.Time.
func DatetimeByFormat(pred any, layout string) provider.Provider {
	return leaf(timePred(pred),
		func(bool) provider.Loader {
			return func(data any) (any, error) {
				s, ok := data.(string)
				if !ok {
					return nil, &loaderr.TypeLoadError{Expected: typing.Of[string](), Input: data}
				}

				t, err := time.Parse(layout, s)
				if err != nil {
					return nil, &loaderr.DatetimeFormatMismatchLoadError{
						FormatMismatchLoadError: loaderr.FormatMismatchLoadError{Format: layout, Input: data},
					}
				}

				return t, nil
			}
		},
		func(v any) (any, error) {
			return v.(time.Time).Format(layout), nil
		},
	)
}

// DatetimeByTimestamp loads and dumps time.Time values at locations
// matching pred as Unix timestamps in seconds. Loaded values are in loc,
// UTC when loc is nil.
func DatetimeByTimestamp(pred any, loc *time.Location) provider.Provider {
	if loc == nil {
		loc = time.UTC
	}

	return leaf(timePred(pred),
		func(bool) provider.Loader {
			return func(data any) (any, error) {
				t, err := fromTimestamp(data)
				if err != nil {
					return nil, err
				}

				return t.In(loc), nil
			}
		},
		func(v any) (any, error) {
			return toTimestamp(v.(time.Time)), nil
		},
	)
}

// DateByTimestamp loads and dumps dates, time.Time values at UTC midnight,
// at locations matching pred as Unix timestamps in seconds. Loading drops
// the time of day.
func DateByTimestamp(pred any) provider.Provider {
	return leaf(timePred(pred),
		func(bool) provider.Loader {
			return func(data any) (any, error) {
				t, err := fromTimestamp(data)
				if err != nil {
					return nil, err
				}

				return midnight(t), nil
			}
		},
		func(v any) (any, error) {
			return toTimestamp(midnight(v.(time.Time))), nil
		},
	)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fromTimestamp(data any) (time.Time, error) {
	if data == nil {
		return time.Time{}, &loaderr.TypeLoadError{Expected: timestampType, Input: data}
	}

	rv := reflect.ValueOf(data)

	switch k := rv.Kind(); {
	case isInt(k):
		return time.Unix(rv.Int(), 0), nil
	case isUint(k):
		if rv.Uint() > math.MaxInt64 {
			return time.Time{}, &loaderr.ValueLoadError{Msg: "timestamp out of range", Input: data}
		}

		return time.Unix(int64(rv.Uint()), 0), nil
	case isFloat(k):
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64/2 {
			return time.Time{}, &loaderr.ValueLoadError{Msg: "timestamp out of range", Input: data}
		}

		sec := math.Floor(f)

		return time.Unix(int64(sec), int64(math.Round((f-sec)*1e9))), nil
	default:
		return time.Time{}, &loaderr.TypeLoadError{Expected: timestampType, Input: data}
	}
}

func toTimestamp(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
