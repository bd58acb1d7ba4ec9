package introspect

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"retort/internal/analyze"
	"retort/shape"
)

// funcShape introspects a function used as a model. Parameters are
// positional-only; a last name prefixed with ** marks the keyword channel,
// either a map with string keys or a struct whose fields become keyword-only
// parameters.
func funcShape(fm *shape.FuncModel) (shape.Shape, error) {
	if err := fm.Validate(); err != nil {
		return shape.Shape{}, clarified(fm, "%v", err)
	}

	ft := fm.Fn.Type()
	if ft.IsVariadic() {
		return shape.Shape{}, clarified(fm, "variadic positional parameters are not supported")
	}

	names, err := paramNames(fm)
	if err != nil {
		return shape.Shape{}, err
	}

	kwargsAt := -1

	for i, name := range names {
		if !strings.HasPrefix(name, shape.KwargsPrefix) {
			continue
		}

		if i != len(names)-1 {
			return shape.Shape{}, clarified(fm, "keyword parameter %s must be the last one", name)
		}

		kwargsAt = i
		names[i] = strings.TrimPrefix(name, shape.KwargsPrefix)
	}

	d := draft{noOutput: true}
	positional := ft.NumIn()

	var (
		unpack   reflect.Type
		unpacked []structField
	)

	if kwargsAt >= 0 {
		positional = kwargsAt
		pt := ft.In(kwargsAt)

		switch {
		case pt.Kind() == reflect.Map && pt.Key().Kind() == reflect.String:
			d.kwargs = &shape.ParamKwargs{Type: pt}
		case pt.Kind() == reflect.Struct:
			unpack = pt

			unpacked, err = structFields(fm, pt)
			if err != nil {
				return shape.Shape{}, err
			}
		default:
			return shape.Shape{}, clarified(fm, "keyword parameter %s must be a map with string keys or a struct, got %s", names[kwargsAt], pt)
		}
	}

	for i := range positional {
		d.input(shape.InputField{
			ID:         names[i],
			Type:       ft.In(i),
			Default:    shape.NoDefault{},
			IsRequired: true,
			Original:   i,
		}, shape.PosOnly)
	}

	var inputs []structField

	for _, f := range unpacked {
		if f.outputOnly {
			continue
		}

		inputs = append(inputs, f)
		d.input(f.inputField(), shape.KWOnly)
	}

	var build shape.Constructor
	if unpack != nil {
		build = constructor(unpack, inputs, nil)
	}

	d.ctor = func(args []any, kwargs map[string]any) (any, error) {
		in := make([]any, ft.NumIn())
		copy(in, args[:min(len(args), positional)])

		if kwargsAt >= 0 {
			var err error

			if build != nil {
				in[kwargsAt], err = build(nil, kwargs)
			} else {
				in[kwargsAt], err = kwargsMap(ft.In(kwargsAt), kwargs)
			}

			if err != nil {
				return nil, fmt.Errorf("%s: %w", fm.ShortName(), err)
			}
		}

		return fm.Call(in)
	}

	return d.build(fm)
}

func paramNames(fm *shape.FuncModel) ([]string, error) {
	ft := fm.Fn.Type()
	names := slices.Clone(fm.Names)

	if len(names) > ft.NumIn() {
		return nil, clarified(fm, "%d names given for %d parameters", len(names), ft.NumIn())
	}

	if len(names) == ft.NumIn() {
		return names, nil
	}

	recovered, err := analyze.ParamNames(fm.Name())
	if err != nil {
		return nil, clarified(fm, "cannot recover parameter names: %v", err)
	}

	if len(recovered) != ft.NumIn() {
		return nil, clarified(fm, "recovered %d parameter names for %d parameters", len(recovered), ft.NumIn())
	}

	return append(names, recovered[len(names):]...), nil
}

func kwargsMap(mt reflect.Type, kwargs map[string]any) (any, error) {
	m := reflect.New(mt).Elem()
	if err := fillExtra(m, kwargs, nil); err != nil {
		return nil, err
	}

	return m.Interface(), nil
}
