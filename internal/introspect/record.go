package introspect

import (
	"maps"
	"slices"

	"retort/shape"
	"retort/typing"
)

type recordField struct {
	typing.ModelField
	owner *typing.Model
}

// recordShape introspects declarative models. Fields of bases come first;
// a redeclared field keeps the position of its first declaration.
func recordShape(tp typing.Expr, n *typing.NormType) (shape.Shape, error) {
	model, ok := n.Origin().(*typing.Model)
	if !ok {
		return shape.Shape{}, impossible(tp, "record")
	}

	mro, err := typing.MRO(model)
	if err != nil {
		return shape.Shape{}, clarified(tp, "%v", err)
	}

	var (
		order  []string
		fields = map[string]recordField{}
	)

	for _, cls := range slices.Backward(mro) {
		m, ok := cls.(*typing.Model)
		if !ok {
			continue
		}

		for _, f := range m.Fields {
			if _, seen := fields[f.Name]; !seen {
				order = append(order, f.Name)
			}

			fields[f.Name] = recordField{ModelField: f, owner: m}
		}
	}

	own := shape.IDSet()
	for _, f := range model.Fields {
		own[f.Name] = struct{}{}
	}

	d := draft{
		overridden: own,
		ctor: func(_ []any, kwargs map[string]any) (any, error) {
			return maps.Clone(kwargs), nil
		},
	}

	for _, id := range order {
		f := fields[id]
		required := f.owner.IsRequired(f.Presence)

		ft, err := typing.NormalizeIn(f.Type, f.owner.Module)
		if err != nil {
			return shape.Shape{}, clarified(tp, "field %s: %v", id, err)
		}

		d.input(shape.InputField{
			ID:         id,
			Type:       ft,
			Default:    shape.NoDefault{},
			IsRequired: required,
			Metadata:   f.Metadata,
			Original:   f.ModelField,
		}, shape.KWOnly)
		d.output(shape.OutputField{
			ID:       id,
			Type:     ft,
			Default:  shape.NoDefault{},
			Accessor: shape.ItemAccessor{Key: id, Required: required},
			Metadata: f.Metadata,
			Original: f.ModelField,
		})
	}

	return d.build(tp)
}
