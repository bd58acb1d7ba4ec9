// Package envflag reads flag structs from environment variables holding
// comma-separated name=value lists, e.g. RETORT_DEBUG=trail=first,codegen=/tmp/gen.
package envflag

import (
	"encoding"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Init uses Parse with the contents of the given environment variable as input.
func Init[T any](flags *T, envVar string) error {
	err := Parse(flags, os.Getenv(envVar))
	if err != nil {
		return fmt.Errorf("cannot parse %s: %w", envVar, err)
	}

	return nil
}

// Parse initializes the fields in flags from their struct tags and then
// from env.
//
// A tag may carry a default other than the zero value, such as
// `envflag:"default:true"`. A field may be renamed with
// `envflag:"name:trail"`; otherwise its name is the lowercased field name.
//
// env is a comma-separated list of name=value pairs. A bare name sets a
// boolean field to true. Names are matched case insensitively. Booleans are
// parsed by strconv.ParseBool, integers by strconv.Atoi, strings are taken
// as is and fields implementing encoding.TextUnmarshaler parse themselves.
func Parse[T any](flags *T, env string) error {
	indexByName := make(map[string]int)
	fv := reflect.ValueOf(flags).Elem()
	ft := fv.Type()

	for i := range ft.NumField() {
		field := ft.Field(i)
		name := strings.ToLower(field.Name)

		if tagStr, ok := field.Tag.Lookup("envflag"); ok {
			for _, f := range strings.Split(tagStr, ",") {
				key, rest, _ := strings.Cut(f, ":")

				switch key {
				case "default":
					if err := setValue(name, fv.Field(i), rest); err != nil {
						return err
					}
				case "name":
					name = strings.ToLower(rest)
				default:
					return fmt.Errorf("unknown envflag tag %q", f)
				}
			}
		}

		indexByName[name] = i
	}

	var errs []error

	for _, elem := range strings.Split(env, ",") {
		if elem == "" {
			continue
		}

		name, valueStr, hasValue := strings.Cut(elem, "=")
		name = strings.ToLower(strings.TrimSpace(name))

		index, knownFlag := indexByName[name]
		if !knownFlag {
			errs = append(errs, fmt.Errorf("unknown flag %q", elem))
			continue
		}

		field := fv.Field(index)

		if !hasValue {
			if field.Kind() != reflect.Bool {
				errs = append(errs, fmt.Errorf("value needed for flag %q", name))
				continue
			}

			valueStr = "true"
		}

		if err := setValue(name, field, valueStr); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

func setValue(name string, field reflect.Value, str string) error {
	if reflect.PointerTo(field.Type()).Implements(textUnmarshalerType) {
		u := field.Addr().Interface().(encoding.TextUnmarshaler)
		if err := u.UnmarshalText([]byte(str)); err != nil {
			return errInvalid{fmt.Errorf("invalid value for %s: %w", name, err)}
		}

		return nil
	}

	switch field.Kind() {
	case reflect.Bool:
		v, err := strconv.ParseBool(str)
		if err != nil {
			return errInvalid{fmt.Errorf("invalid bool value for %s: %w", name, err)}
		}

		field.SetBool(v)
	case reflect.Int:
		v, err := strconv.Atoi(str)
		if err != nil {
			return errInvalid{fmt.Errorf("invalid int value for %s: %w", name, err)}
		}

		field.SetInt(int64(v))
	case reflect.String:
		field.SetString(str)
	default:
		return errInvalid{fmt.Errorf("unsupported kind %s of %s", field.Kind(), name)}
	}

	return nil
}

// ErrInvalid indicates a malformed input string.
var ErrInvalid = errors.New("invalid value")

type errInvalid struct{ error }

func (errInvalid) Is(err error) bool {
	return err == ErrInvalid
}

func (e errInvalid) Unwrap() error { return e.error }
