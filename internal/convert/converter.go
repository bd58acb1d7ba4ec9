package convert

import (
	"errors"
	"fmt"

	"retort/provider"
	"retort/shape"
	"retort/typing"
)

var ErrMissingParam = errors.New("converter parameter is not passed")

const (
	noteRequired = "Note: this is a required field, so it must take a value"
	noteOptional = "Note: current policy forbids unlinked optional fields, " +
		"so you need to link it to another field or explicitly confirm the desire to skip linking with AllowUnlinkedOptional"
)

type reader func(src any, params []any) (any, bool, error)

// fieldPlan fills one destination field.
type fieldPlan struct {
	id       string
	linking  provider.Linking
	srcStack provider.LocStack
	read     reader
	coerce   provider.Coercer
}

// plan fills a destination model from a source model.
type plan struct {
	name   string
	input  *shape.InputShape
	fields []fieldPlan
}

func (p *plan) convert(src any, params []any) (any, error) {
	values := make(map[string]any, len(p.fields))

	for _, f := range p.fields {
		v, ok, err := f.read(src, params)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", f.id, err)
		}

		if !ok {
			continue
		}

		if f.coerce != nil {
			if v, err = f.coerce(v); err != nil {
				return nil, fmt.Errorf("converting %s: %w", f.id, err)
			}
		}

		values[f.id] = v
	}

	args, kwargs, err := p.input.Arguments(values)
	if err != nil {
		return nil, err
	}

	return p.input.Constructor(args, kwargs)
}

func shapes(m provider.Mediator, src, dst provider.LocStack) (*shape.OutputShape, *shape.InputShape, error) {
	input, err := provider.Provide[*shape.InputShape](m, provider.InputShapeRequest{Stack: dst})
	if err != nil {
		return nil, nil, err
	}

	output, err := provider.Provide[*shape.OutputShape](m, provider.OutputShapeRequest{Stack: src})
	if err != nil {
		return nil, nil, err
	}

	return output, input, nil
}

// buildPlan links every destination field, then finds the coercers of the
// linked values. Failures of each phase are reported together.
func buildPlan(m provider.Mediator, output *shape.OutputShape, input *shape.InputShape,
	src, dst provider.LocStack, params []provider.ConverterParam,
) (*plan, error) {
	sources := provider.LinkingSources{Model: src, Fields: output.Fields, Params: params}

	type linked struct {
		field  shape.InputField
		stack  provider.LocStack
		result provider.LinkingResult
	}

	var (
		links []linked
		errs  []error
	)

	for _, f := range input.Fields {
		stack := dst.Append(provider.InputFieldLoc(f))

		res, err := provider.Provide[provider.LinkingResult](m, provider.LinkingRequest{Sources: sources, Destination: stack})
		if err == nil {
			links = append(links, linked{field: f, stack: stack, result: res})

			continue
		}

		if !provider.IsCannotProvide(err) {
			return nil, err
		}

		if f.IsRequired {
			errs = append(errs, noted(err, noteRequired))

			continue
		}

		allowed, perr := provider.Provide[bool](m, provider.UnlinkedOptionalPolicyRequest{Stack: stack})
		if perr != nil && !provider.IsCannotProvide(perr) {
			return nil, perr
		}

		if !allowed {
			errs = append(errs, noted(err, noteOptional))
		}
	}

	if len(errs) > 0 {
		return nil, provider.NewAggregate("Linkings for some fields are not found", errs, true, true)
	}

	p := &plan{input: input, fields: make([]fieldPlan, 0, len(links))}

	for _, l := range links {
		fp, err := planField(m, sources, l.field.ID, l.stack, l.result)
		if err != nil {
			if !provider.IsCannotProvide(err) {
				return nil, err
			}

			errs = append(errs, err)

			continue
		}

		p.fields = append(p.fields, fp)
	}

	if len(errs) > 0 {
		return nil, provider.NewAggregate("Coercers for some linkings are not found", errs, true, true)
	}

	return p, nil
}

func planField(m provider.Mediator, sources provider.LinkingSources, id string,
	dst provider.LocStack, res provider.LinkingResult,
) (fieldPlan, error) {
	fp := fieldPlan{id: id, linking: res.Linking}

	switch lk := res.Linking.(type) {
	case provider.FieldLinking:
		sf, ok := sources.SourceField(lk.SourceID)
		if !ok {
			return fp, provider.Terminal("Source field `%s` does not exist", lk.SourceID)
		}

		fp.srcStack = sources.FieldStack(sf)
		fp.read = fieldReader(sf.Accessor)
	case provider.ParamLinking:
		idx := paramIndex(sources.Params, lk.Name)
		if idx < 0 {
			return fp, provider.Terminal("Converter parameter `%s` does not exist", lk.Name)
		}

		fp.srcStack = sources.ParamStack(sources.Params[idx])
		fp.read = paramReader(idx, lk.Name)
	case provider.ConstantLinking:
		fp.read = constantReader(lk)

		return fp, nil
	case provider.ModelLinking:
		fp.srcStack = sources.Model
		fp.read = modelReader
	case provider.FunctionLinking:
		read, out, err := planFunction(m, sources, lk.Func)
		if err != nil {
			return fp, err
		}

		fp.srcStack = out
		fp.read = read
	default:
		return fp, provider.Terminal("Unknown linking %T", res.Linking)
	}

	if res.Coercer != nil {
		fp.coerce = res.Coercer

		return fp, nil
	}

	coercer, err := provider.Provide[provider.Coercer](m, provider.CoercerRequest{Src: fp.srcStack, Dst: dst})
	if err != nil {
		return fp, err
	}

	fp.coerce = coercer

	return fp, nil
}

func fieldReader(acc shape.Accessor) reader {
	return func(src any, _ []any) (any, bool, error) { return acc.Access(src) }
}

func paramReader(idx int, name string) reader {
	return func(_ any, params []any) (any, bool, error) {
		if idx >= len(params) {
			return nil, false, fmt.Errorf("%w: %s", ErrMissingParam, name)
		}

		return params[idx], true, nil
	}
}

func constantReader(lk provider.ConstantLinking) reader {
	if lk.Factory != nil {
		factory := lk.Factory

		return func(any, []any) (any, bool, error) { return factory(), true, nil }
	}

	value := lk.Value

	return func(any, []any) (any, bool, error) { return value, true, nil }
}

func modelReader(src any, _ []any) (any, bool, error) { return src, true, nil }

func paramIndex(params []provider.ConverterParam, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}

	return -1
}

// planFunction prepares the call of a linking function. The first
// parameter receives the source model; the others take the source field or
// the converter parameter of the same name. It returns the reader of the
// call result and the location of that result.
func planFunction(m provider.Mediator, sources provider.LinkingSources, fm *shape.FuncModel) (reader, provider.LocStack, error) {
	fin, err := provider.Provide[*shape.InputShape](m, provider.InputShapeRequest{Stack: provider.NewLocStack(provider.TypeLoc(fm))})
	if err != nil {
		return nil, provider.LocStack{}, err
	}

	type argument struct {
		id     string
		read   reader
		coerce provider.Coercer
	}

	var (
		arguments []argument
		errs      []error
	)

	for i, pf := range fin.Fields {
		var (
			srcStack provider.LocStack
			read     reader
		)

		if i == 0 {
			srcStack, read = sources.Model, modelReader
		} else if sf, ok := sources.SourceField(pf.ID); ok {
			srcStack, read = sources.FieldStack(sf), fieldReader(sf.Accessor)
		} else if idx := paramIndex(sources.Params, pf.ID); idx >= 0 {
			srcStack, read = sources.ParamStack(sources.Params[idx]), paramReader(idx, pf.ID)
		} else {
			errs = append(errs, provider.Terminal("No source field or parameter is named `%s`", pf.ID))

			continue
		}

		dst := provider.NewLocStack(provider.FieldLocOf(pf.Type, provider.FieldLoc{
			ID:         pf.ID,
			Default:    pf.Default,
			Metadata:   pf.Metadata,
			IsRequired: pf.IsRequired,
			Func:       fm,
		}))

		coercer, err := provider.Provide[provider.Coercer](m, provider.CoercerRequest{Src: srcStack, Dst: dst})
		if err != nil {
			if !provider.IsCannotProvide(err) {
				return nil, provider.LocStack{}, err
			}

			errs = append(errs, err)

			continue
		}

		arguments = append(arguments, argument{id: pf.ID, read: read, coerce: coercer})
	}

	if len(errs) > 0 {
		return nil, provider.LocStack{}, provider.NewAggregate(
			fmt.Sprintf("Cannot call %s for linking", fm.ShortName()), errs, true, true)
	}

	read := func(src any, params []any) (any, bool, error) {
		values := make(map[string]any, len(arguments))

		for _, a := range arguments {
			v, ok, err := a.read(src, params)
			if err != nil {
				return nil, false, err
			}

			if !ok {
				continue
			}

			if v, err = a.coerce(v); err != nil {
				return nil, false, fmt.Errorf("argument %s of %s: %w", a.id, fm.ShortName(), err)
			}

			values[a.id] = v
		}

		args, kwargs, err := fin.Arguments(values)
		if err != nil {
			return nil, false, err
		}

		v, err := fin.Constructor(args, kwargs)
		if err != nil {
			return nil, false, err
		}

		return v, true, nil
	}

	out := sources.Model.Append(provider.FieldLocOf(fm.Fn.Type().Out(0), provider.FieldLoc{
		ID:         fm.ShortName(),
		Default:    shape.NoDefault{},
		IsRequired: true,
		Func:       fm,
	}))

	return read, out, nil
}

// noted appends a note to the CannotProvide behind err.
func noted(err error, note string) error {
	if cp, ok := provider.AsCannotProvide(err); ok {
		cp.Notes = append(cp.Notes, note)
	}

	return err
}

// ModelCoercer converts between models field by field, using the same
// linkings and coercers as converters. Nested models get no converter
// parameters.
func ModelCoercer() provider.Provider {
	return provider.Handle(provider.AnyLoc, func(m provider.Mediator, req provider.CoercerRequest) (any, error) {
		output, input, err := shapes(m, req.Src, req.Dst)
		if err != nil {
			if provider.IsCannotProvide(err) {
				return nil, provider.Silent("%s ──▷ %s is not a pair of models", req.Src, req.Dst)
			}

			return nil, err
		}

		p, err := buildPlan(m, output, input, req.Src, req.Dst, nil)
		if err != nil {
			return nil, err
		}

		p.name = converterName("coerce", req.Src.Last().Type, req.Dst.Last().Type)
		if err := emitSource(m, renderPlan(p)); err != nil {
			return nil, err
		}

		return provider.Coercer(func(v any) (any, error) { return p.convert(v, nil) }), nil
	})
}

// ConverterProvider answers converter requests between two models.
func ConverterProvider() provider.Provider {
	return provider.Handle(nil, func(m provider.Mediator, req provider.ConverterRequest) (any, error) {
		src := provider.NewLocStack(provider.TypeLoc(req.Src))
		dst := provider.NewLocStack(provider.TypeLoc(req.Dst))

		output, input, err := shapes(m, src, dst)
		if err != nil {
			return nil, err
		}

		p, err := buildPlan(m, output, input, src, dst, req.Params)
		if err != nil {
			return nil, err
		}

		p.name = converterName("convert", req.Src, req.Dst)
		if err := emitSource(m, renderPlan(p)); err != nil {
			return nil, err
		}

		return provider.Converter(p.convert), nil
	})
}

func converterName(prefix string, src, dst typing.Expr) string {
	return prefix + "_" + typeIdent(src) + "_to_" + typeIdent(dst)
}
