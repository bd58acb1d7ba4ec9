package layout

import (
	"fmt"
	"slices"
	"strings"

	"retort/internal/engine"
	"retort/internal/introspect"
	"retort/naming"
	"retort/provider"
	"retort/shape"
)

// layoutField is the side independent view of a shape field.
type layoutField struct {
	id       string
	loc      provider.Loc
	optional bool
	def      shape.Default
	metadata map[string]string
}

func inputFields(s *shape.InputShape) []layoutField {
	fields := make([]layoutField, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = layoutField{
			id:       f.ID,
			loc:      provider.InputFieldLoc(f),
			optional: !f.IsRequired,
			def:      f.Default,
			metadata: f.Metadata,
		}
	}

	return fields
}

func outputFields(s *shape.OutputShape) []layoutField {
	fields := make([]layoutField, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = layoutField{
			id:       f.ID,
			loc:      provider.OutputFieldLoc(f),
			optional: !f.IsRequired(),
			def:      f.Default,
			metadata: f.Metadata,
		}
	}

	return fields
}

type mappedField struct {
	field layoutField
	// path is nil for skipped fields.
	path Path
}

func applies(m provider.Mediator, stack provider.LocStack, c provider.Checker, f layoutField) bool {
	return c.Check(m, stack.Append(f.loc))
}

func generateKey(s Structure, index int, f layoutField) (any, error) {
	if s.AsList.Value {
		return index, nil
	}

	if name := f.metadata[introspect.MetaName]; name != "" {
		return name, nil
	}

	name := f.id
	if s.TrimTrailingUnderscore.Value && strings.HasSuffix(name, "_") && !strings.HasSuffix(name, "__") {
		name = strings.TrimRight(name, "_")
	}

	if s.Style.Value == nil {
		return name, nil
	}

	return naming.Convert(name, *s.Style.Value)
}

// mapFields resolves the path of every field. Extra targets are left out.
func mapFields(
	m provider.Mediator,
	stack provider.LocStack,
	s Structure,
	fields []layoutField,
	targets ExtraTargets,
) ([]mappedField, error) {
	mapper := engine.New(s.Map)
	mapped := make([]mappedField, 0, len(fields))

	for i, f := range fields {
		if targets.Has(f.id) {
			continue
		}

		generated, err := generateKey(s, i, f)
		if err != nil {
			return nil, provider.Terminal("cannot generate key of %s: %s", f.id, err)
		}

		path := Path{generated}

		v, err := mapper.Provide(provider.NameMappingRequest{Stack: stack.Append(f.loc), GeneratedKey: generated})

		switch {
		case err == nil && v == nil:
			path = nil
		case err == nil:
			path = v.(Path)
		case !provider.IsCannotProvide(err):
			return nil, err
		case hasTerminal(err):
			return nil, err
		}

		if path != nil && (applies(m, stack, s.Skip.Value, f) || !applies(m, stack, s.Only.Value, f)) {
			path = nil
		}

		mapped = append(mapped, mappedField{field: f, path: path})
	}

	return mapped, nil
}

func pathKey(p Path) string { return fmt.Sprintf("%#v", []any(p)) }

func isPrefix(prefix, p Path) bool {
	if len(prefix) >= len(p) {
		return false
	}

	for i := range prefix {
		if prefix[i] != p[i] {
			return false
		}
	}

	return true
}

func validateStructure(mapped []mappedField) error {
	var (
		order  []string
		byPath = map[string][]string{}
		paths  = map[string]Path{}
	)

	for _, mf := range mapped {
		if mf.path == nil {
			continue
		}

		k := pathKey(mf.path)
		if _, ok := byPath[k]; !ok {
			order = append(order, k)
			paths[k] = mf.path
		}

		byPath[k] = append(byPath[k], mf.field.id)
	}

	var dups []error

	for _, k := range order {
		if ids := byPath[k]; len(ids) > 1 {
			dups = append(dups, provider.Cannot("Fields %v point to the %s", ids, paths[k]))
		}
	}

	if len(dups) > 0 {
		return provider.NewAggregate("Some fields point to the same path (have same alias)", dups, true, true)
	}

	var prefixes []error

	for _, pk := range order {
		var nested []error

		for _, k := range order {
			if isPrefix(paths[pk], paths[k]) {
				nested = append(nested, provider.Cannot("Field %q points to %s", byPath[k][0], paths[k]))
			}
		}

		if len(nested) > 0 {
			msg := fmt.Sprintf("Field %q points to path %s which is prefix of:", byPath[pk][0], paths[pk])
			prefixes = append(prefixes, provider.NewAggregate(msg, nested, false, true))
		}
	}

	if len(prefixes) > 0 {
		return provider.NewAggregate("Path to the field must not be a prefix of another path", prefixes, true, true)
	}

	var optional []error

	for _, mf := range mapped {
		if mf.path == nil || !mf.field.optional {
			continue
		}

		if _, ok := mf.path[len(mf.path)-1].(int); ok {
			optional = append(optional, provider.Cannot("Field %q points to %s", mf.field.id, mf.path))
		}
	}

	if len(optional) > 0 {
		return provider.NewAggregate("Optional fields cannot be mapped to list elements", optional, true, true)
	}

	return nil
}

// listIndexes returns the indexes used under every path that addresses a
// list. Mixing string and int keys under one path is an error.
func listIndexes(paths []Path) (map[string][]int, map[string]Path, error) {
	lists := map[string][]int{}
	dicts := map[string]string{}
	prefixes := map[string]Path{}

	for _, p := range paths {
		for i := range p {
			sub := p[:i]
			k := pathKey(sub)

			switch key := p[i].(type) {
			case int:
				if example, ok := dicts[k]; ok {
					return nil, nil, provider.Terminal(
						"Inconsistent path elements at %s: got string (e.g. %q) and integer (e.g. %d) keys", sub, example, key)
				}

				if !slices.Contains(lists[k], key) {
					lists[k] = append(lists[k], key)
				}

				prefixes[k] = sub
			case string:
				if idx, ok := lists[k]; ok {
					return nil, nil, provider.Terminal(
						"Inconsistent path elements at %s: got string (e.g. %q) and integer (e.g. %d) keys", sub, key, idx[len(idx)-1])
				}

				dicts[k] = key
			}
		}
	}

	return lists, prefixes, nil
}

// leaves pairs paths with their leaf crowns in field order, gaps of lists
// filled by gap.
type leaves[L any] struct {
	paths []Path
	items []L
}

func makeLeaves[L any](mapped []mappedField, leaf func(id string) L, gap func() L) (leaves[L], error) {
	var out leaves[L]

	for _, mf := range mapped {
		if mf.path != nil {
			out.paths = append(out.paths, mf.path)
			out.items = append(out.items, leaf(mf.field.id))
		}
	}

	lists, prefixes, err := listIndexes(out.paths)
	if err != nil {
		return leaves[L]{}, err
	}

	for k, idx := range lists {
		if slices.Min(idx) < 0 {
			return leaves[L]{}, provider.Terminal("Negative list index at %s", prefixes[k])
		}

		for i := range slices.Max(idx) {
			if !slices.Contains(idx, i) {
				out.paths = append(out.paths, append(slices.Clone(prefixes[k]), i))
				out.items = append(out.items, gap())
			}
		}
	}

	return out, nil
}

func skippedRequired(mapped []mappedField) []string {
	var ids []string

	for _, mf := range mapped {
		if mf.path == nil && !mf.field.optional {
			ids = append(ids, mf.field.id)
		}
	}

	return ids
}

// hasTerminal reports whether a mapper failed with a terminal error rather
// than leaving the field unmapped.
func hasTerminal(err error) bool {
	switch e := err.(type) {
	case *provider.AggregateCannotProvide:
		if e.IsTerminal {
			return true
		}

		return slices.ContainsFunc(e.Errs, hasTerminal)
	case *provider.CannotProvide:
		return e.IsTerminal
	default:
		return false
	}
}
