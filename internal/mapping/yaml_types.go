package mapping

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RecipeFile is the root of a recipe file.
type RecipeFile struct {
	Version     string             `yaml:"version"`
	Types       []TypeRecipe       `yaml:"types,omitempty"`
	Conversions []ConversionRecipe `yaml:"conversions,omitempty"`
}

// TypeRecipe configures the name layout of one model.
type TypeRecipe struct {
	Type                   string             `yaml:"type"`
	NameStyle              string             `yaml:"name_style,omitempty"`
	Map                    map[string]KeyPath `yaml:"map,omitempty"`
	Skip                   StringOrArray      `yaml:"skip,omitempty"`
	Only                   StringOrArray      `yaml:"only,omitempty"`
	AsList                 *bool              `yaml:"as_list,omitempty"`
	TrimTrailingUnderscore *bool              `yaml:"trim_trailing_underscore,omitempty"`
	OmitDefault            StringOrArray      `yaml:"omit_default,omitempty"`
	ExtraIn                StringOrArray      `yaml:"extra_in,omitempty"`
	ExtraOut               StringOrArray      `yaml:"extra_out,omitempty"`
}

// ConversionRecipe configures the converter from Source to Target.
type ConversionRecipe struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	// OneToOne links source fields (keys) to target fields (values).
	OneToOne map[string]string `yaml:"121,omitempty"`
	Fields   []FieldLink       `yaml:"fields,omitempty"`
	Ignore   StringOrArray     `yaml:"ignore,omitempty"`
}

// FieldLink links one target field. Exactly one of Source, Default and
// Func is set; Transform only goes with Source.
type FieldLink struct {
	Target    string `yaml:"target"`
	Source    string `yaml:"source,omitempty"`
	Default   any    `yaml:"default,omitempty"`
	Transform string `yaml:"transform,omitempty"`
	Func      string `yaml:"func,omitempty"`
}

// StringOrArray is a list of strings written as a single string or a
// sequence.
type StringOrArray []string

// UnmarshalYAML implements custom YAML unmarshaling for StringOrArray.
// Accepts either a single string or an array of strings.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		if str != "" {
			*s = StringOrArray{str}
		} else {
			*s = StringOrArray{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("line %d: expected string or array, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for StringOrArray.
// Outputs a single string if length is 1, otherwise an array.
func (s StringOrArray) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}

// First returns the first element or empty string if empty.
func (s StringOrArray) First() string {
	if len(s) == 0 {
		return ""
	}

	return s[0]
}

// IsSingle returns true if the array has exactly one element.
func (s StringOrArray) IsSingle() bool { return len(s) == 1 }

// Contains returns true if the array contains the given string.
func (s StringOrArray) Contains(str string) bool {
	return slices.Contains(s, str)
}

// Any converts s to predicates.
func (s StringOrArray) Any() []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}

	return out
}

// KeyPath is the data location of a field: a single key, a path of keys
// and list indexes, or null to skip the field. A KeyPath without a path
// skips the field too, since YAML null values decode to the zero KeyPath.
type KeyPath struct {
	Path []any
	Skip bool
}

// Skipped reports whether k skips the field.
func (k KeyPath) Skipped() bool { return k.Skip || len(k.Path) == 0 }

// UnmarshalYAML accepts a scalar key, a sequence of keys and indexes or
// null.
func (k *KeyPath) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*k = KeyPath{Skip: true}

			return nil
		}

		*k = KeyPath{Path: []any{node.Value}}

		return nil

	case yaml.SequenceNode:
		path := make([]any, 0, len(node.Content))

		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: path items must be keys or indexes", item.Line)
			}

			if item.Tag == "!!int" {
				idx, err := strconv.Atoi(item.Value)
				if err != nil {
					return fmt.Errorf("line %d: %w", item.Line, err)
				}

				path = append(path, idx)

				continue
			}

			path = append(path, item.Value)
		}

		if len(path) == 0 {
			return fmt.Errorf("line %d: empty path", node.Line)
		}

		*k = KeyPath{Path: path}

		return nil

	default:
		return fmt.Errorf("line %d: expected key, path or null, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML writes the shortest form of k.
func (k KeyPath) MarshalYAML() (any, error) {
	switch {
	case k.Skipped():
		return nil, nil
	case len(k.Path) == 1:
		return k.Path[0], nil
	default:
		return k.Path, nil
	}
}

// Result is the name mapping result of k.
func (k KeyPath) Result() any {
	switch {
	case k.Skipped():
		return nil
	case len(k.Path) == 1:
		return k.Path[0]
	default:
		return slices.Clone(k.Path)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
