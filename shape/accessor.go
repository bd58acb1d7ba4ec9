package shape

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotAStruct    = errors.New("value is not a struct")
	ErrMissingMethod = errors.New("method not found")
	ErrNotIndexable  = errors.New("value does not support item access")
)

// Accessor reads a field from an instance.
//
// Access reports a missing optional value through the boolean; a missing
// required value is an error.
type Accessor interface {
	Access(v any) (any, bool, error)
	IsRequired() bool
	// TrailElement is the element recorded in a dumping error trail.
	TrailElement() any
}

// AttrAccessor reads a struct field by index path.
type AttrAccessor struct {
	Name     string
	Index    []int
	Required bool
}

func (a AttrAccessor) IsRequired() bool { return a.Required }

func (a AttrAccessor) TrailElement() any { return a.Name }

func (a AttrAccessor) Access(v any) (any, bool, error) {
	rv := indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil, false, fmt.Errorf("%w: reading %s from %T", ErrNotAStruct, a.Name, v)
	}

	fv, err := rv.FieldByIndexErr(a.Index)
	if err != nil {
		if a.Required {
			return nil, false, fmt.Errorf("reading %s: %w", a.Name, err)
		}

		return nil, false, nil
	}

	return fv.Interface(), true, nil
}

// ItemAccessor reads a map key or a positional item. Positional items of a
// struct are its exported fields in declaration order.
type ItemAccessor struct {
	Key      any
	Required bool
}

func (a ItemAccessor) IsRequired() bool { return a.Required }

func (a ItemAccessor) TrailElement() any { return a.Key }

func (a ItemAccessor) Access(v any) (any, bool, error) {
	val, ok, err := a.item(v)
	if err != nil {
		return nil, false, err
	}

	if !ok && a.Required {
		return nil, false, fmt.Errorf("required item %v is missing", a.Key)
	}

	return val, ok, nil
}

func (a ItemAccessor) item(v any) (any, bool, error) {
	if m, ok := v.(map[string]any); ok {
		key, isStr := a.Key.(string)
		if !isStr {
			return nil, false, fmt.Errorf("%w: key %v of map[string]any", ErrNotIndexable, a.Key)
		}

		val, found := m[key]

		return val, found, nil
	}

	rv := indirect(reflect.ValueOf(v))

	switch rv.Kind() {
	case reflect.Map:
		kv := reflect.ValueOf(a.Key)
		if !kv.Type().AssignableTo(rv.Type().Key()) {
			return nil, false, fmt.Errorf("%w: key %v of %s", ErrNotIndexable, a.Key, rv.Type())
		}

		val := rv.MapIndex(kv)
		if !val.IsValid() {
			return nil, false, nil
		}

		return val.Interface(), true, nil
	case reflect.Slice, reflect.Array:
		idx, isInt := a.Key.(int)
		if !isInt {
			return nil, false, fmt.Errorf("%w: index %v of %s", ErrNotIndexable, a.Key, rv.Type())
		}

		if idx >= rv.Len() {
			return nil, false, nil
		}

		return rv.Index(idx).Interface(), true, nil
	case reflect.Struct:
		idx, isInt := a.Key.(int)
		if !isInt {
			return nil, false, fmt.Errorf("%w: index %v of %s", ErrNotIndexable, a.Key, rv.Type())
		}

		items := TupleItems(rv.Type())
		if idx >= len(items) {
			return nil, false, nil
		}

		return rv.FieldByIndex(items[idx].Index).Interface(), true, nil
	default:
		return nil, false, fmt.Errorf("%w: %T", ErrNotIndexable, v)
	}
}

// MethodAccessor calls a method without arguments. Methods may return a
// single value or a value and an error.
type MethodAccessor struct {
	Name     string
	Required bool
}

func (a MethodAccessor) IsRequired() bool { return a.Required }

func (a MethodAccessor) TrailElement() any { return a.Name }

func (a MethodAccessor) Access(v any) (any, bool, error) {
	rv := reflect.ValueOf(v)

	m := rv.MethodByName(a.Name)
	if !m.IsValid() && rv.Kind() != reflect.Pointer {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		m = ptr.MethodByName(a.Name)
	}

	if !m.IsValid() {
		return nil, false, fmt.Errorf("%w: %s of %T", ErrMissingMethod, a.Name, v)
	}

	out := m.Call(nil)
	switch len(out) {
	case 1:
		return out[0].Interface(), true, nil
	case 2:
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, false, fmt.Errorf("calling %s: %w", a.Name, err)
		}

		return out[0].Interface(), true, nil
	default:
		return nil, false, fmt.Errorf("method %s of %T must return a value", a.Name, v)
	}
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}
		}

		rv = rv.Elem()
	}

	return rv
}

// TupleItems lists the positional fields of a struct: exported fields in
// declaration order, without the NamedTuple marker.
func TupleItems(rt reflect.Type) []reflect.StructField {
	items := make([]reflect.StructField, 0, rt.NumField())

	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() || sf.Type == namedTupleType {
			continue
		}

		items = append(items, sf)
	}

	return items
}
