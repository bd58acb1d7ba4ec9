package introspect

import (
	"maps"

	"retort/shape"
	"retort/typing"
)

// draft accumulates the parts of a shape before validation.
type draft struct {
	inFields   []shape.InputField
	params     []shape.Param
	kwargs     *shape.ParamKwargs
	ctor       shape.Constructor
	outFields  []shape.OutputField
	overridden map[string]struct{}
	noOutput   bool
}

func (d *draft) input(f shape.InputField, kind shape.ParamKind) {
	d.inFields = append(d.inFields, f)
	d.params = append(d.params, shape.Param{FieldID: f.ID, Name: f.ID, Kind: kind})
}

func (d *draft) output(f shape.OutputField) {
	d.outFields = append(d.outFields, f)
}

func (d *draft) build(tp typing.Expr) (shape.Shape, error) {
	var sh shape.Shape

	inOverridden, outOverridden := shape.IDSet(), shape.IDSet()

	for id := range d.overridden {
		for _, f := range d.inFields {
			if f.ID == id {
				inOverridden[id] = struct{}{}
			}
		}

		for _, f := range d.outFields {
			if f.ID == id {
				outOverridden[id] = struct{}{}
			}
		}
	}

	input, err := shape.NewInputShape(d.inFields, d.params, d.kwargs, inOverridden, d.ctor)
	if err != nil {
		return shape.Shape{}, clarified(tp, "%v", err)
	}

	sh.Input = input

	if !d.noOutput {
		output, err := shape.NewOutputShape(d.outFields, maps.Clone(outOverridden))
		if err != nil {
			return shape.Shape{}, clarified(tp, "%v", err)
		}

		sh.Output = output
	}

	return sh, nil
}
