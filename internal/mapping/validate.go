package mapping

import (
	"fmt"
	"regexp"

	"retort/internal/diagnostic"
	"retort/internal/introspect"
	"retort/internal/match"
	"retort/naming"
	"retort/shape"
	"retort/typing"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a recipe file against the registry and the shapes of
// the named types. It only checks what can be seen without building
// loaders or converters.
func Validate(rf *RecipeFile, reg *Registry) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if rf == nil {
		res.AddError("recipe_is_nil", "recipe file is nil", "", "")
		return res
	}

	if reg == nil {
		res.AddError("registry_is_nil", "registry is nil", "", "")
		return res
	}

	if rf.Version != "1" {
		res.AddError("unsupported_version", fmt.Sprintf("unsupported version %q", rf.Version), "", "")
	}

	seenTypes := map[string]struct{}{}

	for i := range rf.Types {
		tr := &rf.Types[i]

		if _, ok := seenTypes[tr.Type]; ok {
			res.AddError("duplicate_type", fmt.Sprintf("duplicate type %q", tr.Type), "", tr.Type)
			continue
		}

		seenTypes[tr.Type] = struct{}{}

		validateType(res, reg, tr)
	}

	for i := range rf.Conversions {
		validateConversion(res, reg, &rf.Conversions[i])
	}

	return res
}

// fields lists the input and output field ids of a model.
type fields struct {
	input    map[string]shape.InputField
	output   map[string]struct{}
	allNames []string
}

func (f fields) has(id string) bool {
	_, in := f.input[id]
	_, out := f.output[id]

	return in || out
}

func resolveModel(res *diagnostic.Diagnostics, reg *Registry, name, location string) (typing.Expr, fields, bool) {
	tp, ok := reg.ResolveType(name)
	if !ok {
		res.AddError("type_not_found", fmt.Sprintf("type %q not found", name), location, name,
			suggest(name, reg.TypeNames())...)

		return nil, fields{}, false
	}

	sh, err := introspect.Get(tp)
	if err != nil {
		res.AddError("not_a_model", fmt.Sprintf("type %q is not a model: %v", name, err), location, name)
		return nil, fields{}, false
	}

	f := fields{input: map[string]shape.InputField{}, output: map[string]struct{}{}}

	if sh.Input != nil {
		for _, fld := range sh.Input.Fields {
			f.input[fld.ID] = fld
			f.allNames = append(f.allNames, fld.ID)
		}
	}

	if sh.Output != nil {
		for _, fld := range sh.Output.Fields {
			if _, dup := f.input[fld.ID]; !dup {
				f.allNames = append(f.allNames, fld.ID)
			}

			f.output[fld.ID] = struct{}{}
		}
	}

	return tp, f, true
}

func validateType(res *diagnostic.Diagnostics, reg *Registry, tr *TypeRecipe) {
	_, f, ok := resolveModel(res, reg, tr.Type, "")
	if !ok {
		return
	}

	if tr.NameStyle != "" {
		if _, err := naming.ParseStyle(tr.NameStyle); err != nil {
			res.AddError("invalid_name_style", err.Error(), tr.Type, "name_style")
		}
	}

	for _, id := range sortedKeys(tr.Map) {
		if !f.has(id) {
			res.AddError("field_not_found", fmt.Sprintf("mapped field %q not found", id), tr.Type, id,
				suggest(id, f.allNames)...)
		}
	}

	validatePredicates(res, tr.Type, "skip", tr.Skip, f)
	validatePredicates(res, tr.Type, "only", tr.Only, f)
	validatePredicates(res, tr.Type, "omit_default", tr.OmitDefault, f)
	validateExtra(res, tr.Type, "extra_in", tr.ExtraIn, f, "skip", "forbid", "kwargs")
	validateExtra(res, tr.Type, "extra_out", tr.ExtraOut, f, "skip")
}

// validatePredicates checks field ids; other entries must be regular
// expressions.
func validatePredicates(res *diagnostic.Diagnostics, location, key string, preds StringOrArray, f fields) {
	for _, p := range preds {
		if identRe.MatchString(p) {
			if !f.has(p) {
				res.AddError("field_not_found", fmt.Sprintf("%s field %q not found", key, p), location, p,
					suggest(p, f.allNames)...)
			}

			continue
		}

		if _, err := regexp.Compile(p); err != nil {
			res.AddError("invalid_pattern", fmt.Sprintf("%s pattern %q: %v", key, p, err), location, p)
		}
	}
}

func validateExtra(res *diagnostic.Diagnostics, location, key string, values StringOrArray, f fields, keywords ...string) {
	if len(values) == 0 {
		return
	}

	if values.IsSingle() {
		for _, kw := range keywords {
			if values[0] == kw {
				return
			}
		}
	}

	for _, id := range values {
		if !f.has(id) {
			res.AddError("invalid_extra", fmt.Sprintf("%s %q is neither a policy nor a field", key, id), location, id,
				suggest(id, append(append([]string{}, keywords...), f.allNames...))...)
		}
	}
}

func validateConversion(res *diagnostic.Diagnostics, reg *Registry, c *ConversionRecipe) {
	pair := fmt.Sprintf("%s->%s", c.Source, c.Target)

	_, src, srcOK := resolveModel(res, reg, c.Source, pair)
	_, dst, dstOK := resolveModel(res, reg, c.Target, pair)

	if !srcOK || !dstOK {
		return
	}

	for _, sp := range sortedKeys(c.OneToOne) {
		validateLink(res, reg, pair, src, dst, FieldLink{Source: sp, Target: c.OneToOne[sp]})
	}

	for _, fl := range c.Fields {
		validateLink(res, reg, pair, src, dst, fl)
	}

	for _, id := range c.Ignore {
		fld, ok := dst.input[id]
		if !ok {
			res.AddError("invalid_ignore", fmt.Sprintf("ignored field %q not found", id), pair, id,
				suggest(id, dst.allNames)...)

			continue
		}

		if fld.IsRequired {
			res.AddError("ignore_required", fmt.Sprintf("required field %q cannot stay unlinked", id), pair, id)
		}
	}
}

func validateLink(res *diagnostic.Diagnostics, reg *Registry, pair string, src, dst fields, fl FieldLink) {
	if _, ok := dst.input[fl.Target]; !ok {
		res.AddError("invalid_target", fmt.Sprintf("target field %q not found", fl.Target), pair, fl.Target,
			suggest(fl.Target, dst.allNames)...)
	}

	kinds := 0

	for _, set := range []bool{fl.Source != "", fl.Default != nil, fl.Func != ""} {
		if set {
			kinds++
		}
	}

	if kinds != 1 {
		res.AddError("ambiguous_link", "exactly one of source, default and func must be set", pair, fl.Target)
	}

	if fl.Source != "" {
		if _, ok := src.output[fl.Source]; !ok {
			res.AddError("invalid_source", fmt.Sprintf("source field %q not found", fl.Source), pair, fl.Source,
				suggest(fl.Source, sortedKeys(src.output))...)
		}
	}

	if fl.Transform != "" {
		if fl.Source == "" {
			res.AddError("transform_without_source", "transform requires a source field", pair, fl.Target)
		}

		if _, ok := reg.ResolveTransform(fl.Transform); !ok {
			res.AddError("transform_not_found", fmt.Sprintf("transform %q not found", fl.Transform), pair, fl.Target,
				suggest(fl.Transform, reg.TransformNames())...)
		}
	}

	if fl.Func != "" {
		if _, ok := reg.ResolveFunc(fl.Func); !ok {
			res.AddError("func_not_found", fmt.Sprintf("function %q not found", fl.Func), pair, fl.Target,
				suggest(fl.Func, reg.FuncNames())...)
		}
	}
}

func suggest(name string, candidates []string) []string {
	fs := make([]match.Field, len(candidates))
	for i, c := range candidates {
		fs[i] = match.Field{Name: c}
	}

	return match.Suggest(match.Field{Name: name}, fs, match.DefaultSuggestScore)
}
