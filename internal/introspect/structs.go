package introspect

import (
	"fmt"
	"reflect"

	"retort/shape"
	"retort/typing"
)

// structField is one analyzed field of a Go struct.
type structField struct {
	sf         reflect.StructField
	id         string
	tp         typing.Expr
	def        shape.Default
	required   bool
	inputOnly  bool
	outputOnly bool
	extra      bool
	metadata   map[string]string
}

func (f structField) own() bool { return len(f.sf.Index) == 1 }

func (f structField) inputField() shape.InputField {
	return shape.InputField{
		ID:         f.id,
		Type:       f.tp,
		Default:    f.def,
		IsRequired: f.required,
		Metadata:   f.metadata,
		Original:   f.sf,
	}
}

func (f structField) outputField() shape.OutputField {
	return shape.OutputField{
		ID:       f.id,
		Type:     f.tp,
		Default:  f.def,
		Accessor: shape.AttrAccessor{Name: f.sf.Name, Index: f.sf.Index, Required: true},
		Metadata: f.metadata,
		Original: f.sf,
	}
}

// structFields analyzes the visible exported fields of rt. Embedded
// structs contribute their promoted fields instead of themselves.
func structFields(tp typing.Expr, rt reflect.Type) ([]structField, error) {
	hints := typeHints(rt)

	var fields []structField

	for _, sf := range reflect.VisibleFields(rt) {
		if !sf.IsExported() || sf.Anonymous && indirectType(sf.Type).Kind() == reflect.Struct {
			continue
		}

		if !settablePath(rt, sf.Index) {
			continue
		}

		retortTag := parseTag(sf.Tag.Lookup(TagRetort))
		jsonTag := parseTag(sf.Tag.Lookup(TagJSON))

		if retortTag.skip || jsonTag.skip {
			continue
		}

		f := structField{
			sf:         sf,
			id:         sf.Name,
			tp:         sf.Type,
			inputOnly:  retortTag.has(OptInputOnly),
			outputOnly: retortTag.has(OptOutputOnly),
			extra:      retortTag.has(OptExtra),
			metadata:   map[string]string{},
		}

		for _, key := range []string{TagRetort, TagJSON, TagDefault, TagOrMethod} {
			if v, ok := sf.Tag.Lookup(key); ok {
				f.metadata[key] = v
			}
		}

		switch {
		case retortTag.name != "":
			f.metadata[MetaName] = retortTag.name
		case jsonTag.name != "":
			f.metadata[MetaName] = jsonTag.name
		}

		if hint, ok := hints[sf.Name]; ok {
			f.tp = hint
		}

		def, err := structDefault(rt, sf, retortTag.has(OptOmitEmpty) || jsonTag.has(OptOmitEmpty))
		if err != nil {
			return nil, clarified(tp, "field %s: %v", sf.Name, err)
		}

		f.def = def
		f.required = !shape.HasDefault(def)
		fields = append(fields, f)
	}

	return fields, nil
}

func structDefault(rt reflect.Type, sf reflect.StructField, omitEmpty bool) (shape.Default, error) {
	text, hasDefault := sf.Tag.Lookup(TagDefault)
	method, hasMethod := sf.Tag.Lookup(TagOrMethod)

	switch {
	case hasDefault && hasMethod:
		return nil, fmt.Errorf("both %s and %s tags are set", TagDefault, TagOrMethod)
	case hasDefault:
		v, err := parseDefault(sf.Type, text)
		if err != nil {
			return nil, fmt.Errorf("bad default %q: %w", text, err)
		}

		return shape.DefaultValue{Value: v}, nil
	case hasMethod:
		return methodDefault(rt, sf, method)
	case omitEmpty:
		return shape.DefaultValue{Value: reflect.Zero(sf.Type).Interface()}, nil
	case sf.Type.Kind() == reflect.Pointer:
		return shape.DefaultValue{Value: nil}, nil
	}

	return shape.NoDefault{}, nil
}

// methodDefault builds a default computed by a method of the partially
// constructed instance. The method returns the value and optionally an error.
func methodDefault(rt reflect.Type, sf reflect.StructField, name string) (shape.Default, error) {
	m, ok := reflect.PointerTo(rt).MethodByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", shape.ErrMissingMethod, rt, name)
	}

	mt := m.Type
	if mt.NumIn() != 1 || mt.NumOut() < 1 || mt.NumOut() > 2 ||
		mt.NumOut() == 2 && mt.Out(1) != errorType {
		return nil, fmt.Errorf("method %s must take no arguments and return a value and optionally an error", name)
	}

	if !mt.Out(0).AssignableTo(sf.Type) {
		return nil, fmt.Errorf("method %s returns %s, field is %s", name, mt.Out(0), sf.Type)
	}

	return shape.DefaultFactoryWithSelf{Factory: func(self any) any {
		out := reflect.ValueOf(self).MethodByName(name).Call(nil)
		if len(out) == 2 && !out[1].IsNil() {
			return defaultError{err: out[1].Interface().(error)}
		}

		return out[0].Interface()
	}}, nil
}

// defaultError carries a failing method default through Factory.
type defaultError struct{ err error }

var errorType = reflect.TypeFor[error]()

func typeHints(rt reflect.Type) map[string]typing.Expr {
	if h, ok := reflect.New(rt).Interface().(shape.TypeHinter); ok {
		return h.TypeHints()
	}

	return nil
}

func indirectType(rt reflect.Type) reflect.Type {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	return rt
}

// settablePath reports whether a constructor can reach the field: embedded
// pointers on the way must be exported to be allocated.
func settablePath(rt reflect.Type, index []int) bool {
	for i := range len(index) - 1 {
		sf := rt.FieldByIndex(index[:i+1])
		if sf.Type.Kind() == reflect.Pointer && !sf.IsExported() {
			return false
		}
	}

	return true
}

// fieldByIndexAlloc returns the field of v at index, allocating nil
// embedded pointers on the way.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}

			v = v.Elem()
		}

		v = v.Field(x)
	}

	return v
}

// assign stores val into dst. Values of a different type are converted
// when both sides have the same kind or are both numeric.
func assign(dst reflect.Value, val any) error {
	if val == nil {
		dst.SetZero()

		return nil
	}

	rv := reflect.ValueOf(val)

	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case rv.Type().ConvertibleTo(dst.Type()) && (rv.Kind() == dst.Kind() || isNumeric(rv.Kind()) && isNumeric(dst.Kind())):
		dst.Set(rv.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot use %T as %s", val, dst.Type())
	}

	return nil
}

func isNumeric(k reflect.Kind) bool {
	return reflect.Int <= k && k <= reflect.Float64
}

// constructor builds instances of rt from the input fields. Positional
// arguments follow the order of fields; keyword arguments are keyed by id.
// Keyword arguments matching no field go to the extra map when set.
func constructor(rt reflect.Type, fields []structField, extra *structField) shape.Constructor {
	ids := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		ids[f.id] = struct{}{}
	}

	return func(args []any, kwargs map[string]any) (any, error) {
		ptr := reflect.New(rt)
		v := ptr.Elem()

		var late []structField

		for i, f := range fields {
			var (
				val any
				ok  bool
			)

			if i < len(args) {
				val, ok = args[i], true
			} else {
				val, ok = kwargs[f.id]
			}

			if !ok {
				switch d := f.def.(type) {
				case shape.DefaultValue:
					val = d.Value
				case shape.DefaultFactory:
					val = d.Factory()
				case shape.DefaultFactoryWithSelf:
					late = append(late, f)

					continue
				default:
					return nil, fmt.Errorf("%s: missing value of required field %s", rt, f.id)
				}
			}

			if err := assign(fieldByIndexAlloc(v, f.sf.Index), val); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", rt, f.sf.Name, err)
			}
		}

		for _, f := range late {
			val := f.def.(shape.DefaultFactoryWithSelf).Factory(ptr.Interface())
			if de, ok := val.(defaultError); ok {
				return nil, fmt.Errorf("%s.%s: %w", rt, f.sf.Name, de.err)
			}

			if err := assign(fieldByIndexAlloc(v, f.sf.Index), val); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", rt, f.sf.Name, err)
			}
		}

		if extra != nil {
			if err := fillExtra(fieldByIndexAlloc(v, extra.sf.Index), kwargs, ids); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", rt, extra.sf.Name, err)
			}
		}

		if pi, ok := ptr.Interface().(shape.PostIniter); ok {
			if err := pi.PostInit(); err != nil {
				return nil, err
			}
		}

		return v.Interface(), nil
	}
}

func fillExtra(dst reflect.Value, kwargs map[string]any, known map[string]struct{}) error {
	m := reflect.MakeMap(dst.Type())
	elem := reflect.New(dst.Type().Elem()).Elem()

	for k, val := range kwargs {
		if _, ok := known[k]; ok {
			continue
		}

		if err := assign(elem, val); err != nil {
			return fmt.Errorf("extra %s: %w", k, err)
		}

		m.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), elem)
	}

	dst.Set(m)

	return nil
}

// structShape introspects plain structs: every field is a keyword-only
// parameter read back through its attribute.
func structShape(tp typing.Expr, n *typing.NormType) (shape.Shape, error) {
	rt, ok := structType(n)
	if !ok {
		return shape.Shape{}, impossible(tp, "struct")
	}

	fields, err := structFields(tp, rt)
	if err != nil {
		return shape.Shape{}, err
	}

	return buildStruct(tp, rt, fields, nil, nil)
}

func buildStruct(tp typing.Expr, rt reflect.Type, fields []structField, extra *structField, computed []shape.OutputField) (shape.Shape, error) {
	d := draft{overridden: shape.IDSet()}

	var inputs []structField

	for _, f := range fields {
		if f.own() {
			d.overridden[f.id] = struct{}{}
		}

		if !f.outputOnly {
			d.input(f.inputField(), shape.KWOnly)
			inputs = append(inputs, f)
		}

		if !f.inputOnly {
			d.output(f.outputField())
		}
	}

	for _, f := range computed {
		d.overridden[f.ID] = struct{}{}
		d.output(f)
	}

	if extra != nil {
		d.kwargs = &shape.ParamKwargs{Type: extra.tp}
	}

	d.ctor = constructor(rt, inputs, extra)

	return d.build(tp)
}
