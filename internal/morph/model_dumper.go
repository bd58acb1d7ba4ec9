package morph

import (
	"fmt"
	"maps"

	"retort/internal/layout"
	"retort/loaderr"
	"retort/provider"
	"retort/shape"
	"retort/typing"
)

type modelDumper struct {
	tp      typing.Expr
	fields  map[string]shape.OutputField
	crown   layout.OutCrown
	move    layout.OutExtraMove
	dumpers map[string]provider.Dumper
}

func dumpModel(m provider.Mediator, req provider.DumperRequest) (any, error) {
	tp := req.Stack.Last().Type

	sh, err := provider.Provide[*shape.OutputShape](m, provider.OutputShapeRequest{Stack: req.Stack})
	if err != nil {
		return nil, err
	}

	nl, err := provider.Provide[layout.OutputNameLayout](m, provider.OutputNameLayoutRequest{Stack: req.Stack, Shape: sh})
	if err != nil {
		return nil, err
	}

	ids := layout.OutFields(nl.Crown)
	if targets, ok := nl.ExtraMove.(layout.ExtraTargets); ok {
		ids = append(ids, targets.Fields...)
	}

	d := &modelDumper{
		tp:      tp,
		fields:  make(map[string]shape.OutputField, len(ids)),
		crown:   nl.Crown,
		move:    nl.ExtraMove,
		dumpers: make(map[string]provider.Dumper, len(ids)),
	}

	reqs := make([]provider.Request, len(ids))

	for i, id := range ids {
		f, ok := sh.Field(id)
		if !ok {
			return nil, provider.Terminal("Field %s is not in the output shape of %s", id, typing.Repr(tp))
		}

		d.fields[id] = f
		reqs[i] = provider.DumperRequest{Stack: req.Stack.Append(provider.OutputFieldLoc(f))}
	}

	dumpers, err := provider.ProvideAll[provider.Dumper](m, reqs, func() string {
		return "Cannot create dumper for model. Dumpers for some fields cannot be created"
	})
	if err != nil {
		return nil, err
	}

	for i, id := range ids {
		d.dumpers[id] = dumpers[i]
	}

	if err := emitSource(m, renderDumper(d)); err != nil {
		return nil, err
	}

	return provider.Dumper(d.dump), nil
}

func (d *modelDumper) dump(inst any) (any, error) {
	out, err := d.walk(d.crown, inst)
	if err != nil {
		return nil, err
	}

	obj, ok := out.(map[string]any)
	if !ok {
		return out, nil
	}

	extra, err := d.extra(inst)
	if err != nil {
		return nil, err
	}

	for k, v := range extra {
		if _, taken := obj[k]; !taken {
			obj[k] = v
		}
	}

	return obj, nil
}

// field reads and dumps one field. The boolean is false when the value is
// absent and must be left out.
func (d *modelDumper) field(id string, inst any) (any, bool, error) {
	f := d.fields[id]

	v, ok, err := f.Accessor.Access(inst)
	if err != nil {
		return nil, false, loaderr.AppendTrail(err, f.Accessor.TrailElement())
	}

	if !ok {
		return nil, false, nil
	}

	if provider.IsOmitted(v) {
		if f.IsRequired() {
			return nil, false, loaderr.AppendTrail(&provider.SentinelDumpError{Sentinel: v}, f.Accessor.TrailElement())
		}

		return nil, false, nil
	}

	return v, true, nil
}

func (d *modelDumper) dumpField(id string, v any) (any, error) {
	out, err := d.dumpers[id](v)
	if err != nil {
		return nil, loaderr.AppendTrail(err, d.fields[id].Accessor.TrailElement())
	}

	return out, nil
}

func (d *modelDumper) walk(c layout.OutCrown, inst any) (any, error) {
	switch c := c.(type) {
	case *layout.OutDictCrown:
		out := make(map[string]any, len(c.Keys))

		for _, key := range c.Keys {
			sub := c.Map[key]

			fc, isField := sub.(layout.OutFieldCrown)
			if !isField {
				v, err := d.walk(sub, inst)
				if err != nil {
					return nil, err
				}

				out[key] = v

				continue
			}

			v, ok, err := d.field(fc.ID, inst)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}

			if sieve := c.Sieves[key]; sieve != nil && !sieve(inst, v) {
				continue
			}

			if out[key], err = d.dumpField(fc.ID, v); err != nil {
				return nil, err
			}
		}

		return out, nil
	case *layout.OutListCrown:
		out := make([]any, len(c.Items))

		for i, item := range c.Items {
			v, err := d.walk(item, inst)
			if err != nil {
				return nil, err
			}

			out[i] = v
		}

		return out, nil
	case layout.OutFieldCrown:
		v, ok, err := d.field(c.ID, inst)
		if err != nil || !ok {
			return nil, err
		}

		return d.dumpField(c.ID, v)
	case layout.OutNoneCrown:
		v, _ := shape.Materialize(c.Placeholder, inst)

		return v, nil
	default:
		return nil, fmt.Errorf("unexpected crown %T", c)
	}
}

// extra returns the extra data of inst merged into a dict dump.
func (d *modelDumper) extra(inst any) (map[string]any, error) {
	switch move := d.move.(type) {
	case layout.ExtraTargets:
		out := make(map[string]any)

		for _, id := range move.Fields {
			v, ok, err := d.field(id, inst)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}

			dumped, err := d.dumpField(id, v)
			if err != nil {
				return nil, err
			}

			obj, ok := asRecord(dumped)
			if !ok {
				return nil, fmt.Errorf("extra field %s of %s dumps to %T, want a mapping", id, typing.Repr(d.tp), dumped)
			}

			maps.Copy(out, obj)
		}

		return out, nil
	case layout.ExtraExtract:
		return move.Func(inst)
	default:
		return nil, nil
	}
}
