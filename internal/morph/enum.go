package morph

import (
	"fmt"
	"math/bits"
	"reflect"

	"retort/loaderr"
	"retort/naming"
	"retort/provider"
	"retort/typing"
)

// Member is an enumeration member named by its String method.
type Member interface {
	comparable
	fmt.Stringer
}

// Flag is a bit flag member.
type Flag interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
	fmt.Stringer
}

// FlagOptions tunes FlagByListUsingName.
type FlagOptions struct {
	// AllowSingleValue accepts a bare name besides a list of names.
	AllowSingleValue bool
	// ForbidDuplicates rejects lists naming a member twice.
	ForbidDuplicates bool
	// Style converts member names, nil keeps them.
	Style *naming.Style
}

func enumProvider[T any](load func(strict bool) provider.Loader, dump provider.Dumper) provider.Provider {
	return leaf(reflect.TypeFor[T](), load, dump)
}

// EnumByValue loads members of T from their underlying values.
func EnumByValue[T comparable](values ...T) provider.Provider {
	allowed := make([]any, len(values))
	for i, v := range values {
		allowed[i] = plain(v)
	}

	return enumProvider[T](
		func(strict bool) provider.Loader {
			return func(data any) (any, error) {
				if i := literalIndex(allowed, plain(data), strict); i >= 0 {
					return values[i], nil
				}

				return nil, &loaderr.BadVariantLoadError{AllowedValues: allowed, Input: data}
			}
		},
		func(v any) (any, error) { return plain(v), nil },
	)
}

// EnumByName loads members of T from their names.
func EnumByName[T Member](values ...T) provider.Provider {
	p, err := EnumByNameStyled(nil, values...)
	if err != nil {
		panic(err)
	}

	return p
}

// EnumByNameStyled is EnumByName with member names converted to style.
func EnumByNameStyled[T Member](style *naming.Style, values ...T) (provider.Provider, error) {
	names, err := memberNames(style, values)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]T, len(values))
	allowed := make([]any, len(values))

	for i, v := range values {
		byName[names[i]] = v
		allowed[i] = names[i]
	}

	return enumProvider[T](
		func(bool) provider.Loader {
			return func(data any) (any, error) {
				s, ok := data.(string)
				if !ok {
					return nil, &loaderr.TypeLoadError{Expected: typing.Of[string](), Input: data}
				}

				if v, ok := byName[s]; ok {
					return v, nil
				}

				return nil, &loaderr.BadVariantLoadError{AllowedValues: allowed, Input: data}
			}
		},
		func(v any) (any, error) {
			for i, member := range values {
				if member == v.(T) {
					return names[i], nil
				}
			}

			return nil, fmt.Errorf("%v is not a member of %s", v, reflect.TypeFor[T]())
		},
	), nil
}

func memberNames[T fmt.Stringer](style *naming.Style, values []T) ([]string, error) {
	names := make([]string, len(values))
	seen := make(map[string]struct{}, len(values))

	for i, v := range values {
		name := v.String()

		if style != nil {
			converted, err := naming.Convert(name, *style)
			if err != nil {
				return nil, err
			}

			name = converted
		}

		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate member name %q of %s", name, reflect.TypeFor[T]())
		}

		seen[name] = struct{}{}
		names[i] = name
	}

	return names, nil
}

// FlagByListUsingName loads bit flags of T from lists of member names.
// Dumping lists the names of the single bit members set in the value.
func FlagByListUsingName[T Flag](opts FlagOptions, values ...T) (provider.Provider, error) {
	names, err := memberNames(opts.Style, values)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]uint64, len(values))
	allowed := make([]any, len(values))

	for i, v := range values {
		byName[names[i]] = flagBits(v)
		allowed[i] = names[i]
	}

	rt := reflect.TypeFor[T]()

	return enumProvider[T](
		func(bool) provider.Loader {
			return func(data any) (any, error) {
				items, ok := elements(data, true)
				if s, single := data.(string); single && opts.AllowSingleValue {
					items, ok = []any{s}, true
				}

				if !ok {
					return nil, &loaderr.TypeLoadError{Expected: typing.Of[[]string](), Input: data}
				}

				var (
					result  uint64
					invalid []any
				)

				seen := make(map[string]struct{}, len(items))

				for _, item := range items {
					name, _ := item.(string)

					b, known := byName[name]
					if !known {
						invalid = append(invalid, item)

						continue
					}

					if _, dup := seen[name]; dup && opts.ForbidDuplicates {
						return nil, &loaderr.DuplicatedValuesLoadError{Input: data}
					}

					seen[name] = struct{}{}
					result |= b
				}

				if len(invalid) > 0 {
					return nil, &loaderr.MultipleBadVariantLoadError{AllowedValues: allowed, InvalidValues: invalid, Input: data}
				}

				out := reflect.New(rt).Elem()
				if isInt(rt.Kind()) {
					out.SetInt(int64(result))
				} else {
					out.SetUint(result)
				}

				return out.Interface(), nil
			}
		},
		func(v any) (any, error) {
			rest := flagBits(v.(T))
			out := []any{}

			for i, member := range values {
				b := flagBits(member)
				if bits.OnesCount64(b) != 1 || rest&b == 0 {
					continue
				}

				out = append(out, names[i])
				rest &^= b
			}

			if rest != 0 {
				return nil, fmt.Errorf("%v has bits not covered by members of %s", v, rt)
			}

			return out, nil
		},
	), nil
}

func flagBits[T Flag](v T) uint64 {
	rv := reflect.ValueOf(v)
	if isInt(rv.Kind()) {
		return uint64(rv.Int())
	}

	return rv.Uint()
}
