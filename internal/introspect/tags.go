package introspect

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Struct tags read by the struct backends.
const (
	TagRetort   = "retort"
	TagJSON     = "json"
	TagDefault  = "default"
	TagOrMethod = "orMethod"
)

// Tag options of the retort tag.
const (
	OptOmitEmpty  = "omitempty"
	OptOutputOnly = "outputonly"
	OptInputOnly  = "inputonly"
	OptKWOnly     = "kwonly"
	OptExtra      = "extra"
)

// MetaName is the metadata key holding the explicit data key of a field.
const MetaName = "name"

type fieldTag struct {
	name string
	skip bool
	opts map[string]bool
}

func parseTag(raw string, present bool) fieldTag {
	if !present {
		return fieldTag{}
	}

	if raw == "-" {
		return fieldTag{skip: true}
	}

	parts := strings.Split(raw, ",")
	tag := fieldTag{name: parts[0], opts: make(map[string]bool, len(parts)-1)}

	for _, opt := range parts[1:] {
		tag.opts[strings.TrimSpace(opt)] = true
	}

	return tag
}

func (t fieldTag) has(opt string) bool { return t.opts[opt] }

var (
	durationType      = reflect.TypeFor[time.Duration]()
	textUnmarshalType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// parseDefault reads the text of a default tag as a value of rt. Scalars
// use strconv; composite values are read as YAML flow documents.
func parseDefault(rt reflect.Type, text string) (any, error) {
	if rt == durationType {
		return time.ParseDuration(text)
	}

	out := reflect.New(rt)

	if reflect.PointerTo(rt).Implements(textUnmarshalType) {
		if err := out.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return nil, err
		}

		return out.Elem().Interface(), nil
	}

	v := out.Elem()

	switch rt.Kind() {
	case reflect.String:
		v.SetString(text)
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, err
		}

		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, rt.Bits())
		if err != nil {
			return nil, err
		}

		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 10, rt.Bits())
		if err != nil {
			return nil, err
		}

		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, rt.Bits())
		if err != nil {
			return nil, err
		}

		v.SetFloat(f)
	case reflect.Slice, reflect.Map, reflect.Struct, reflect.Array:
		if err := yaml.Unmarshal([]byte(text), out.Interface()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("default values of kind %s are not supported", rt.Kind())
	}

	return v.Interface(), nil
}
