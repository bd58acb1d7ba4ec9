package layout

import (
	"fmt"
	"reflect"

	"retort/provider"
	"retort/shape"
)

// Provider answers name layout requests from the overlays in the recipe.
func Provider() provider.Provider {
	return provider.Records(
		provider.Record(provider.AnyLoc, provideInput),
		provider.Record(provider.AnyLoc, provideOutput),
	)
}

func provideInput(m provider.Mediator, req provider.InputNameLayoutRequest) (any, error) {
	extra, err := extraAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	move, policy, err := inputExtraMove(extra.In.Value, req.Shape)
	if err != nil {
		return nil, err
	}

	structure, err := structureAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	targets, _ := move.(ExtraTargets)

	mapped, err := mapFields(m, req.Stack, structure, inputFields(req.Shape), targets)
	if err != nil {
		return nil, err
	}

	if ids := skippedRequired(mapped); len(ids) > 0 {
		return nil, provider.Terminal("Required fields %v are skipped", ids)
	}

	ls, err := makeLeaves(mapped, func(id string) InpCrown { return InpFieldCrown{ID: id} },
		func() InpCrown { return InpNoneCrown{} })
	if err != nil {
		return nil, err
	}

	if err := validateStructure(mapped); err != nil {
		return nil, err
	}

	if policy == ExtraCollect && hasListKey(ls.paths) {
		return nil, provider.Terminal("Cannot use collecting extra_in=%v with mapping to list", describeExtra(extra.In.Value))
	}

	return InputNameLayout{
		Crown:     BuildInpCrown(ls.paths, ls.items, policy, structure.AsList.Value),
		ExtraMove: move,
	}, nil
}

func provideOutput(m provider.Mediator, req provider.OutputNameLayoutRequest) (any, error) {
	extra, err := extraAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	move, err := outputExtraMove(extra.Out.Value, req.Shape)
	if err != nil {
		return nil, err
	}

	structure, err := structureAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	targets, _ := move.(ExtraTargets)
	fields := outputFields(req.Shape)

	mapped, err := mapFields(m, req.Stack, structure, fields, targets)
	if err != nil {
		return nil, err
	}

	ls, err := makeLeaves(mapped, func(id string) OutCrown { return OutFieldCrown{ID: id} },
		func() OutCrown { return OutNoneCrown{Placeholder: shape.DefaultValue{}} })
	if err != nil {
		return nil, err
	}

	if err := validateStructure(mapped); err != nil {
		return nil, err
	}

	sieves, err := sievesAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	bySieve := map[string]Sieve{}

	for _, mf := range mapped {
		f := mf.field
		if mf.path != nil && shape.HasDefault(f.def) && applies(m, req.Stack, sieves.OmitDefault.Value, f) {
			bySieve[f.id] = omitDefault(f.def)
		}
	}

	return OutputNameLayout{
		Crown:     BuildOutCrown(ls.paths, ls.items, bySieve, structure.AsList.Value),
		ExtraMove: move,
	}, nil
}

// omitDefault keeps values that differ from the default.
func omitDefault(d shape.Default) Sieve {
	return func(instance, value any) bool {
		def, _ := shape.Materialize(d, instance)
		if isNil(def) {
			return !isNil(value)
		}

		return !reflect.DeepEqual(value, def)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func targetsOf(v any) (ExtraTargets, bool) {
	switch t := v.(type) {
	case string:
		return ExtraTargets{Fields: []string{t}}, true
	case []string:
		return ExtraTargets{Fields: t}, true
	case ExtraTargets:
		return t, true
	default:
		return ExtraTargets{}, false
	}
}

func checkTargets(t ExtraTargets, exists func(string) bool) error {
	var missing []string

	for _, id := range t.Fields {
		if !exists(id) {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		return provider.Terminal("Extra targets %v are not fields of the model", missing)
	}

	return nil
}

func inputExtraMove(v any, s *shape.InputShape) (InpExtraMove, ExtraPolicy, error) {
	if t, ok := targetsOf(v); ok {
		err := checkTargets(t, func(id string) bool { _, ok := s.Field(id); return ok })
		if err != nil {
			return nil, 0, err
		}

		return t, ExtraCollect, nil
	}

	switch v := v.(type) {
	case ExtraPolicy:
		if v == ExtraCollect {
			return nil, 0, provider.Terminal("extra_in=collect needs targets, kwargs or a saturator")
		}

		return nil, v, nil
	case ExtraKwargs:
		if s.Kwargs == nil {
			return nil, 0, provider.Terminal("Cannot pass extra data as kwargs: constructor has no variadic keyword parameter")
		}

		return v, ExtraCollect, nil
	case Saturator:
		return ExtraSaturate{Func: v}, ExtraCollect, nil
	case func(any, map[string]any) (any, error):
		return ExtraSaturate{Func: v}, ExtraCollect, nil
	default:
		return nil, 0, provider.Terminal("Unsupported extra_in value %T", v)
	}
}

func outputExtraMove(v any, s *shape.OutputShape) (OutExtraMove, error) {
	if t, ok := targetsOf(v); ok {
		err := checkTargets(t, func(id string) bool { _, ok := s.Field(id); return ok })
		if err != nil {
			return nil, err
		}

		return t, nil
	}

	switch v := v.(type) {
	case ExtraPolicy:
		if v != ExtraSkip {
			return nil, provider.Terminal("extra_out must be skip, targets or an extractor, got %s", v)
		}

		return nil, nil
	case Extractor:
		return ExtraExtract{Func: v}, nil
	case func(any) (map[string]any, error):
		return ExtraExtract{Func: v}, nil
	default:
		return nil, provider.Terminal("Unsupported extra_out value %T", v)
	}
}

func describeExtra(v any) string {
	switch v := v.(type) {
	case ExtraPolicy:
		return v.String()
	case string, []string, ExtraTargets:
		return fmt.Sprintf("%v", v)
	case ExtraKwargs:
		return "kwargs"
	default:
		return "saturator"
	}
}
