package loaderr

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kr/pretty"

	"retort/typing"
)

// LoadError is implemented by every error describing bad input data.
type LoadError interface {
	error
	loadError()
}

// IsLoadError reports whether err is or wraps a LoadError.
func IsLoadError(err error) bool {
	var le LoadError

	return errors.As(err, &le)
}

// value renders input data on one line. Scalars print as themselves,
// composite values through pretty with their Go type.
func value(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	}

	if isScalar(v) {
		return fmt.Sprint(v)
	}

	return oneLine(pretty.Sprint(v))
}

// typedValue is value prefixed with the Go type of scalars.
func typedValue(v any) string {
	if v == nil || !isScalar(v) {
		return value(v)
	}

	return fmt.Sprintf("%T %s", v, value(v))
}

func isScalar(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// oneLine joins the indented lines pretty emits for composite values.
func oneLine(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return s
	}

	var b strings.Builder

	b.WriteString(lines[0])

	for i, line := range lines[1:] {
		line = strings.TrimSpace(line)
		prev := lines[i]

		switch {
		case strings.HasPrefix(line, "}"):
			out := strings.TrimSuffix(b.String(), ",")
			b.Reset()
			b.WriteString(out)
		case strings.HasSuffix(strings.TrimSpace(prev), ","):
			b.WriteByte(' ')
		}

		b.WriteString(line)
	}

	return b.String()
}

// TypeLoadError reports input of an unexpected type.
type TypeLoadError struct {
	Expected typing.Expr
	Input    any
}

func (e *TypeLoadError) Error() string {
	return fmt.Sprintf("expected %s, got %s", typing.Repr(e.Expected), typedValue(e.Input))
}

func (*TypeLoadError) loadError() {}

// ExcludedTypeLoadError reports input of a type explicitly excluded from the expected one.
type ExcludedTypeLoadError struct {
	Expected typing.Expr
	Excluded typing.Expr
	Input    any
}

func (e *ExcludedTypeLoadError) Error() string {
	return fmt.Sprintf("expected %s excluding %s, got %s",
		typing.Repr(e.Expected), typing.Repr(e.Excluded), value(e.Input))
}

func (*ExcludedTypeLoadError) loadError() {}

// ValueLoadError reports input of the right type but a bad value.
type ValueLoadError struct {
	Msg   string
	Input any
}

func (e *ValueLoadError) Error() string {
	return fmt.Sprintf("%s, got %s", e.Msg, value(e.Input))
}

func (*ValueLoadError) loadError() {}

// ValidationLoadError reports a value rejected by a validator.
type ValidationLoadError struct {
	Msg   string
	Input any
}

func (e *ValidationLoadError) Error() string {
	return fmt.Sprintf("%s, got %s", e.Msg, value(e.Input))
}

func (*ValidationLoadError) loadError() {}

// FormatMismatchLoadError reports a string that does not follow the expected format.
type FormatMismatchLoadError struct {
	Format string
	Input  any
}

func (e *FormatMismatchLoadError) Error() string {
	return fmt.Sprintf("value does not match format %q, got %s", e.Format, value(e.Input))
}

func (*FormatMismatchLoadError) loadError() {}

// DatetimeFormatMismatchLoadError reports a date or time string in a wrong layout.
type DatetimeFormatMismatchLoadError struct {
	FormatMismatchLoadError
}

// BadVariantLoadError reports a value outside of the allowed set.
type BadVariantLoadError struct {
	AllowedValues []any
	Input         any
}

func (e *BadVariantLoadError) Error() string {
	return fmt.Sprintf("value must be one of %s, got %s", value(e.AllowedValues), value(e.Input))
}

func (*BadVariantLoadError) loadError() {}

// MultipleBadVariantLoadError reports several values outside of the allowed set.
type MultipleBadVariantLoadError struct {
	AllowedValues []any
	InvalidValues []any
	Input         any
}

func (e *MultipleBadVariantLoadError) Error() string {
	return fmt.Sprintf("values %s are not in %s", value(e.InvalidValues), value(e.AllowedValues))
}

func (*MultipleBadVariantLoadError) loadError() {}

// ExtraFieldsError reports unexpected keys of a mapping.
type ExtraFieldsError struct {
	Fields []string
	Input  any
}

func (e *ExtraFieldsError) Error() string {
	return fmt.Sprintf("extra fields %s", strings.Join(quoteAll(e.Fields), ", "))
}

func (*ExtraFieldsError) loadError() {}

// NoRequiredFieldsError reports missing keys of a mapping.
type NoRequiredFieldsError struct {
	Fields []string
	Input  any
}

func (e *NoRequiredFieldsError) Error() string {
	return fmt.Sprintf("required fields %s are missing", strings.Join(quoteAll(e.Fields), ", "))
}

func (*NoRequiredFieldsError) loadError() {}

// ExtraItemsError reports a sequence longer than expected.
type ExtraItemsError struct {
	ExpectedLen int
	Input       any
}

func (e *ExtraItemsError) Error() string {
	return fmt.Sprintf("expected at most %d items", e.ExpectedLen)
}

func (*ExtraItemsError) loadError() {}

// NoRequiredItemsError reports a sequence shorter than expected.
type NoRequiredItemsError struct {
	ExpectedLen int
	Input       any
}

func (e *NoRequiredItemsError) Error() string {
	return fmt.Sprintf("expected at least %d items", e.ExpectedLen)
}

func (*NoRequiredItemsError) loadError() {}

// DuplicatedValuesLoadError reports repeated values where uniqueness is required.
type DuplicatedValuesLoadError struct {
	Input any
}

func (e *DuplicatedValuesLoadError) Error() string {
	return fmt.Sprintf("duplicated values in %s", value(e.Input))
}

func (*DuplicatedValuesLoadError) loadError() {}

// OutOfRangeLoadError reports a number outside of the representable range.
type OutOfRangeLoadError struct {
	Min   any
	Max   any
	Input any
}

func (e *OutOfRangeLoadError) Error() string {
	return fmt.Sprintf("value must be in range [%v, %v], got %s", e.Min, e.Max, value(e.Input))
}

func (*OutOfRangeLoadError) loadError() {}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}

	return out
}
