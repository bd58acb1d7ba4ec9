package introspect

import (
	"reflect"
	"sync"

	"github.com/zoobzio/sentinel"

	"retort/shape"
	"retort/typing"
)

func init() {
	sentinel.Tag(TagRetort)
	sentinel.Tag(TagDefault)
	sentinel.Tag(TagOrMethod)
}

var registry = struct {
	sync.RWMutex
	types map[reflect.Type]sentinel.Metadata
}{types: map[reflect.Type]sentinel.Metadata{}}

// Register scans T and introspects it through its scanned metadata from
// now on. Field order and tags come from the scan.
func Register[T any]() sentinel.Metadata {
	md := sentinel.Scan[T]()

	registry.Lock()
	registry.types[reflect.TypeFor[T]()] = md
	registry.Unlock()

	return md
}

// Registered returns the metadata of a registered type.
func Registered(rt reflect.Type) (sentinel.Metadata, bool) {
	registry.RLock()
	defer registry.RUnlock()

	md, ok := registry.types[rt]

	return md, ok
}

// namedTupleShape introspects structs embedding shape.NamedTuple. Items are
// positional-or-keyword parameters and are read back by position.
func namedTupleShape(tp typing.Expr, n *typing.NormType) (shape.Shape, error) {
	rt, ok := structType(n)
	if !ok || !shape.IsNamedTuple(rt) {
		return shape.Shape{}, impossible(tp, "named tuple")
	}

	hints := typeHints(rt)
	d := draft{overridden: shape.IDSet()}

	var fields []structField

	for i, sf := range shape.TupleItems(rt) {
		f := structField{sf: sf, id: sf.Name, tp: sf.Type, def: shape.NoDefault{}, required: true}

		if hint, ok := hints[sf.Name]; ok {
			f.tp = hint
		}

		if text, ok := sf.Tag.Lookup(TagDefault); ok {
			v, err := parseDefault(sf.Type, text)
			if err != nil {
				return shape.Shape{}, clarified(tp, "field %s: bad default %q: %v", sf.Name, text, err)
			}

			f.def, f.required = shape.DefaultValue{Value: v}, false
		}

		fields = append(fields, f)
		d.overridden[f.id] = struct{}{}
		d.input(f.inputField(), shape.PosOrKW)
		d.output(shape.OutputField{
			ID:       f.id,
			Type:     f.tp,
			Default:  f.def,
			Accessor: shape.ItemAccessor{Key: i, Required: true},
			Original: sf,
		})
	}

	d.ctor = constructor(rt, fields, nil)

	return d.build(tp)
}

// registeredShape introspects types scanned by Register. Factories of
// shape.DefaultFactories take precedence over default tags.
func registeredShape(tp typing.Expr, n *typing.NormType) (shape.Shape, error) {
	rt, ok := structType(n)
	if !ok {
		return shape.Shape{}, impossible(tp, "registered")
	}

	md, ok := Registered(rt)
	if !ok {
		return shape.Shape{}, impossible(tp, "registered")
	}

	var factories map[string]func() any
	if df, ok := reflect.New(rt).Interface().(shape.DefaultFactories); ok {
		factories = df.DefaultFactories()
	}

	hints := typeHints(rt)
	fields := make([]structField, 0, len(md.Fields))

	for _, fm := range md.Fields {
		sf := rt.FieldByIndex(fm.Index)
		if !sf.IsExported() {
			continue
		}

		f := structField{
			sf:       sf,
			id:       fm.Name,
			tp:       fm.ReflectType,
			metadata: map[string]string{},
		}

		for k, v := range fm.Tags {
			f.metadata[k] = v
		}

		if name := parseTag(sf.Tag.Lookup(TagRetort)).name; name != "" {
			f.metadata[MetaName] = name
		}

		if hint, ok := hints[fm.Name]; ok {
			f.tp = hint
		}

		if factory, ok := factories[fm.Name]; ok {
			f.def = shape.DefaultFactory{Factory: factory}
		} else {
			def, err := structDefault(rt, sf, false)
			if err != nil {
				return shape.Shape{}, clarified(tp, "field %s: %v", fm.Name, err)
			}

			f.def = def
		}

		f.required = !shape.HasDefault(f.def)
		fields = append(fields, f)
	}

	return buildStruct(tp, rt, fields, nil, nil)
}

// computedShape introspects structs implementing shape.Computed: listed
// methods become output-only fields. With shape.ExtraAllowed, the field
// tagged retort:",extra" collects unknown keyword arguments.
func computedShape(tp typing.Expr, n *typing.NormType) (shape.Shape, error) {
	rt, ok := structType(n)
	if !ok {
		return shape.Shape{}, impossible(tp, "computed")
	}

	inst := reflect.New(rt).Interface()

	c, ok := inst.(shape.Computed)
	if !ok {
		return shape.Shape{}, impossible(tp, "computed")
	}

	fields, err := structFields(tp, rt)
	if err != nil {
		return shape.Shape{}, err
	}

	var extra *structField

	if ea, ok := inst.(shape.ExtraAllowed); ok && ea.ExtraAllowed() {
		for i, f := range fields {
			if !f.extra {
				continue
			}

			if f.sf.Type.Kind() != reflect.Map || f.sf.Type.Key().Kind() != reflect.String {
				return shape.Shape{}, clarified(tp, "extra field %s must be a map with string keys", f.sf.Name)
			}

			ex := f
			extra = &ex
			fields = append(fields[:i:i], fields[i+1:]...)

			break
		}

		if extra == nil {
			return shape.Shape{}, clarified(tp, "extra is allowed but no field is tagged %s:\",%s\"", TagRetort, OptExtra)
		}
	}

	var computed []shape.OutputField

	for _, name := range c.ComputedFields() {
		m, ok := reflect.PointerTo(rt).MethodByName(name)
		if !ok {
			return shape.Shape{}, clarified(tp, "computed field %s has no method", name)
		}

		if m.Type.NumIn() != 1 || m.Type.NumOut() < 1 || m.Type.NumOut() > 2 {
			return shape.Shape{}, clarified(tp, "computed field %s must take no arguments and return a value", name)
		}

		computed = append(computed, shape.OutputField{
			ID:       name,
			Type:     m.Type.Out(0),
			Default:  shape.NoDefault{},
			Accessor: shape.MethodAccessor{Name: name, Required: true},
			Original: m,
		})
	}

	return buildStruct(tp, rt, fields, extra, computed)
}
