package codegen

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Namespace binds the free names of a rendered source to values.
type Namespace struct {
	values map[string]any
	order  []string
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{values: make(map[string]any)}
}

// Add binds v under a fresh name derived from base and returns the name.
func (n *Namespace) Add(base string, v any) string {
	base = Ident(base)
	name := base

	for i := 2; ; i++ {
		if _, taken := n.values[name]; !taken {
			break
		}

		name = base + "_" + strconv.Itoa(i)
	}

	n.values[name] = v
	n.order = append(n.order, name)

	return name
}

// Expr returns the inline literal of v when it has one, else binds v under
// a fresh name.
func (n *Namespace) Expr(base string, v any) string {
	if lit, ok := Literal(v); ok {
		return lit
	}

	return n.Add(base, v)
}

// Value returns the value bound to name.
func (n *Namespace) Value(name string) (any, bool) {
	v, ok := n.values[name]

	return v, ok
}

// Names returns the bound names in binding order.
func (n *Namespace) Names() []string {
	return slices.Clone(n.order)
}

// Literal renders v as Go source when the text reads back to an equal
// value: strings, booleans, integers, floats and nil.
func Literal(v any) (string, bool) {
	if v == nil {
		return "nil", true
	}

	rv := reflect.ValueOf(v)
	if rv.Type().PkgPath() != "" {
		return "", false
	}

	switch rv.Kind() {
	case reflect.String:
		return strconv.Quote(rv.String()), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%s(%d)", rv.Type(), rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%s(%d)", rv.Type(), rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}

		if rv.Kind() == reflect.Float32 {
			return "float32(" + floatLiteral(f, 32) + ")", true
		}

		return floatLiteral(f, 64), true
	default:
		return "", false
	}
}

func floatLiteral(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}

// StringLiteral renders s as a Go string literal.
func StringLiteral(s string) string {
	return strconv.Quote(s)
}

// ListLiteral renders a []any literal of the given expressions.
func ListLiteral(items []string) string {
	return "[]any{" + strings.Join(items, ", ") + "}"
}

// DictLiteral renders a map[string]any literal with keys in the given order.
func DictLiteral(keys, values []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = StringLiteral(k) + ": " + values[i]
	}

	return "map[string]any{" + strings.Join(parts, ", ") + "}"
}

// Ident turns s into a Go identifier.
func Ident(s string) string {
	var b strings.Builder

	for i, r := range s {
		switch {
		case r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z'):
			b.WriteRune(r)
		case '0' <= r && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}

			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	if b.Len() == 0 {
		return "_v"
	}

	return b.String()
}
