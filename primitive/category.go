package primitive

import (
	"maps"
	"strings"
)

// CategoryEnum is a bit set of coercion categories.
type CategoryEnum int

// ConversionPair is a directed pair of kinds.
type ConversionPair struct {
	From, To KindEnum
}

const (
	CategorySafeNumber   CategoryEnum = 1 << iota // int, uint, float without precision loss
	CategoryUnsafeNumber                          // int, uint, float with precision loss
	CategoryTextNumber                            // int, uint, float <-> string: textual number representation
	CategoryNumericBool                           // int <-> bool: 0, 1 representation of boolean values
	CategoryTextualBool                           // string <-> bool: yes, no, on, off, true, false
	CategoryDatetime                              // string(RFC3339Nano) <-> time.Time
	CategoryTimestamp                             // int(Unix seconds) <-> time.Time
	CategoryDuration                              // string(2h45m) <-> time.Duration
	CategoryNanoseconds                           // int(nanoseconds) <-> time.Duration
	CategorySeconds                               // float(seconds) <-> time.Duration
	CategoryEnumString                            // string <-> enum: String/IsValid/UnmarshalText methods

	CategoryAll  = (1 << iota) - 1 // all categories combined
	CategoryNone = 0               // no categories selected
)

var categoryNames = []string{
	"SafeNumber", "UnsafeNumber", "TextNumber", "NumericBool", "TextualBool", "Datetime",
	"Timestamp", "Duration", "Nanoseconds", "Seconds", "EnumString",
}

func (c CategoryEnum) String() string {
	if c == CategoryNone {
		return "None"
	}

	var names []string

	for i, name := range categoryNames {
		if c&(1<<i) != 0 {
			names = append(names, name)
		}
	}

	return strings.Join(names, "|")
}

type pairSet map[ConversionPair]struct{}

func (s pairSet) add(from, to KindEnum) { s[ConversionPair{from, to}] = struct{}{} }

func (s pairSet) both(a, b KindEnum) {
	s.add(a, b)
	s.add(b, a)
}

func (s pairSet) has(p ConversionPair) bool {
	_, ok := s[p]

	return ok
}

// kinds yields every valid kind matching pred.
func kinds(pred func(KindEnum) bool) []KindEnum {
	var res []KindEnum

	for k := KindEnum(1); int(k) < KindTotal; k++ {
		if pred(k) {
			res = append(res, k)
		}
	}

	return res
}

var conversionPairs = buildConversionPairs()

func buildConversionPairs() map[CategoryEnum]pairSet {
	res := map[CategoryEnum]pairSet{}

	safe := safeNumberConversionPairs()
	res[CategorySafeNumber] = safe

	unsafe := pairSet{}
	for _, from := range kinds(KindEnum.IsNumber) {
		for _, to := range kinds(KindEnum.IsNumber) {
			if !safe.has(ConversionPair{from, to}) {
				unsafe.add(from, to)
			}
		}
	}

	res[CategoryUnsafeNumber] = unsafe

	text := pairSet{}
	for _, k := range kinds(KindEnum.IsNumber) {
		text.both(k, KindString)
	}

	res[CategoryTextNumber] = text

	numericBool := pairSet{}
	for _, k := range kinds(KindEnum.IsInteger) {
		numericBool.both(k, KindBool)
	}

	res[CategoryNumericBool] = numericBool

	res[CategoryTextualBool] = pairSet{}
	res[CategoryTextualBool].both(KindString, KindBool)

	res[CategoryDatetime] = pairSet{}
	res[CategoryDatetime].both(KindString, KindTime)

	// uint64 cannot hold every Unix time nor every duration in nanoseconds
	timestamp, nanoseconds := pairSet{}, pairSet{}
	for _, k := range kinds(KindEnum.IsInteger) {
		if k == KindUint64 {
			continue
		}

		timestamp.both(k, KindTime)
		nanoseconds.both(k, KindDuration)
	}

	res[CategoryTimestamp] = timestamp
	res[CategoryNanoseconds] = nanoseconds

	res[CategoryDuration] = pairSet{}
	res[CategoryDuration].both(KindString, KindDuration)

	res[CategorySeconds] = pairSet{}
	res[CategorySeconds].both(KindFloat32, KindDuration)
	res[CategorySeconds].both(KindFloat64, KindDuration)

	res[CategoryEnumString] = pairSet{}
	res[CategoryEnumString].both(KindString, KindPrimitiveEnum)
	res[CategoryEnumString].add(KindPrimitiveEnum, KindPrimitiveEnum)

	return res
}

func safeNumberConversionPairs() pairSet {
	return pairSet{
		{KindInt, KindInt}:   {}, // int can be any wide from 32 upto 64
		{KindInt, KindInt64}: {},

		{KindInt8, KindInt}:     {}, // int8 can be safely converted to any signed int
		{KindInt8, KindInt8}:    {},
		{KindInt8, KindInt16}:   {},
		{KindInt8, KindInt32}:   {},
		{KindInt8, KindInt64}:   {},
		{KindInt8, KindFloat32}: {},
		{KindInt8, KindFloat64}: {},

		{KindInt16, KindInt}:     {},
		{KindInt16, KindInt16}:   {}, // int16 omitting narrowing to int8
		{KindInt16, KindInt32}:   {},
		{KindInt16, KindInt64}:   {},
		{KindInt16, KindFloat32}: {},
		{KindInt16, KindFloat64}: {},

		{KindInt32, KindInt}:     {},
		{KindInt32, KindInt32}:   {}, // int32 omitting narrowing to int8/16
		{KindInt32, KindInt64}:   {},
		{KindInt32, KindFloat64}: {}, // int32 is wider than float32 mantissa

		{KindInt64, KindInt64}: {}, // int64 is the widest signed integer type

		{KindUint, KindUint}:   {}, // uint can be any wide from 32 upto 64
		{KindUint, KindUint64}: {},

		{KindUint8, KindUint}:    {}, // uint8 can be safely converted to any unsigned int
		{KindUint8, KindUint8}:   {},
		{KindUint8, KindUint16}:  {},
		{KindUint8, KindUint32}:  {},
		{KindUint8, KindUint64}:  {},
		{KindUint8, KindInt}:     {}, // also uint8 can be converted to any wider signed int
		{KindUint8, KindInt16}:   {},
		{KindUint8, KindInt32}:   {},
		{KindUint8, KindInt64}:   {},
		{KindUint8, KindFloat32}: {},
		{KindUint8, KindFloat64}: {},

		{KindUint16, KindUint}:    {},
		{KindUint16, KindUint16}:  {}, // uint16 omitting narrowing to uint8
		{KindUint16, KindUint32}:  {},
		{KindUint16, KindUint64}:  {},
		{KindUint16, KindInt}:     {}, // also uint16 can be converted to any wider signed int
		{KindUint16, KindInt32}:   {},
		{KindUint16, KindInt64}:   {},
		{KindUint16, KindFloat32}: {},
		{KindUint16, KindFloat64}: {},

		{KindUint32, KindUint32}:  {},
		{KindUint32, KindUint64}:  {}, // uint32 omitting narrowing to uint8/16
		{KindUint32, KindInt64}:   {}, // also only int64 is wide enough to hold uint32
		{KindUint32, KindFloat64}: {}, // uint32 is wider than float32 mantissa

		{KindUint64, KindUint64}: {}, // uint64 is the widest unsigned integer type

		{KindFloat32, KindFloat32}: {},
		{KindFloat32, KindFloat64}: {},

		{KindFloat64, KindFloat64}: {},
	}
}

// CategoryOf returns the categories holding pair.
func CategoryOf(pair ConversionPair) CategoryEnum {
	var res CategoryEnum

	for category, pairs := range conversionPairs {
		if pairs.has(pair) {
			res |= category
		}
	}

	return res
}

func allowedSet(allowed CategoryEnum) pairSet {
	res := pairSet{}

	for category := CategoryEnum(1); category&CategoryAll > 0; category <<= 1 {
		if allowed&category == 0 {
			continue
		}

		maps.Copy(res, conversionPairs[category])
	}

	return res
}
