package loaderr

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TrailedError attaches the location of a failure inside the input data.
// Trail elements are string keys and int indexes, root first.
type TrailedError struct {
	Err   error
	Trail []any
}

func (e *TrailedError) Error() string {
	return fmt.Sprintf("at %s: %v", FormatTrail(e.Trail), e.Err)
}

func (e *TrailedError) Unwrap() error { return e.Err }

// AppendTrail records that err happened under elem. Elements added later end
// up closer to the root.
func AppendTrail(err error, elem any) error {
	return ExtendTrail(err, []any{elem})
}

// ExtendTrail records that err happened under the path.
func ExtendTrail(err error, path []any) error {
	if err == nil || len(path) == 0 {
		return err
	}

	if t, ok := err.(*TrailedError); ok {
		trail := make([]any, 0, len(path)+len(t.Trail))
		trail = append(trail, path...)
		trail = append(trail, t.Trail...)

		return &TrailedError{Err: t.Err, Trail: trail}
	}

	return &TrailedError{Err: err, Trail: slices.Clone(path)}
}

// TrailOf returns the trail of err, nil when it has none. Only the single
// error chain is inspected: trails of errors inside a group belong to them.
func TrailOf(err error) []any {
	for err != nil {
		if t, ok := err.(*TrailedError); ok {
			return t.Trail
		}

		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}

		err = u.Unwrap()
	}

	return nil
}

// Unwrapped strips the trail from err.
func Unwrapped(err error) error {
	if t, ok := err.(*TrailedError); ok {
		return t.Err
	}

	return err
}

// FormatTrail renders a trail as a path: keys joined by dots, indexes in brackets.
func FormatTrail(trail []any) string {
	var b strings.Builder

	for _, elem := range trail {
		switch e := elem.(type) {
		case int:
			b.WriteString("[" + strconv.Itoa(e) + "]")
		case string:
			if b.Len() > 0 {
				b.WriteByte('.')
			}

			b.WriteString(e)
		default:
			fmt.Fprintf(&b, "[%v]", e)
		}
	}

	if b.Len() == 0 {
		return "$"
	}

	return b.String()
}
