package layout

import (
	"fmt"
	"strings"

	"retort/provider"
)

type generatedKey struct{}

func (generatedKey) String() string { return "..." }

// Generated stands for the generated key inside a mapped path.
var Generated any = generatedKey{}

// resolvePath turns a mapping result into a path. A nil path means the
// field is skipped.
func resolvePath(generated, result any) (Path, error) {
	switch r := result.(type) {
	case nil:
		return nil, nil
	case generatedKey:
		return Path{generated}, nil
	case string, int:
		return Path{r}, nil
	case []string:
		p := make(Path, len(r))
		for i, k := range r {
			p[i] = k
		}

		return p, nil
	case Path:
		return resolveKeys(generated, r)
	case []any:
		return resolveKeys(generated, r)
	default:
		return nil, fmt.Errorf("name mapping result must be a key, a path or nil, got %T", result)
	}
}

func resolveKeys(generated any, keys []any) (Path, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("name mapping result is an empty path")
	}

	p := make(Path, len(keys))

	for i, k := range keys {
		switch k := k.(type) {
		case generatedKey:
			p[i] = generated
		case string, int:
			p[i] = k
		default:
			return nil, fmt.Errorf("path element %d must be a string or an int, got %T", i, k)
		}
	}

	return p, nil
}

func mappingResult(req provider.NameMappingRequest, result any) (any, error) {
	p, err := resolvePath(req.GeneratedKey, result)
	if err != nil {
		return nil, provider.Terminal("%s: %s", req.Stack.Last().Field.ID, err)
	}

	if p == nil {
		return nil, nil
	}

	return p, nil
}

func fieldOf(s provider.LocStack) *provider.FieldLoc {
	if s.Len() == 0 {
		return nil
	}

	return s.Last().Field
}

// DictMapper maps field ids to results: a key, a path, Generated or nil to
// skip the field. Fields absent from m are left to the next mapper.
func DictMapper(m map[string]any) provider.Provider {
	return provider.Handle(provider.AnyLoc, func(_ provider.Mediator, req provider.NameMappingRequest) (any, error) {
		f := fieldOf(req.Stack)
		if f == nil {
			return nil, provider.Silent("not a field")
		}

		result, ok := m[f.ID]
		if !ok {
			return nil, provider.Silent("%s is not mapped", f.ID)
		}

		return mappingResult(req, result)
	})
}

// ConstMapper maps every field matching checker to result.
func ConstMapper(checker provider.Checker, result any) provider.Provider {
	return provider.Handle(checker, func(_ provider.Mediator, req provider.NameMappingRequest) (any, error) {
		return mappingResult(req, result)
	})
}

// MapFunc computes the mapping result of a field from its location and its
// generated key.
type MapFunc func(field provider.FieldLoc, generated any) any

// FuncMapper maps every field matching checker through fn.
func FuncMapper(checker provider.Checker, fn MapFunc) provider.Provider {
	return provider.Handle(checker, func(_ provider.Mediator, req provider.NameMappingRequest) (any, error) {
		f := fieldOf(req.Stack)
		if f == nil {
			return nil, provider.Silent("not a field")
		}

		return mappingResult(req, fn(*f, req.GeneratedKey))
	})
}

// SkipPrivate skips output fields whose id starts with an underscore.
func SkipPrivate() provider.Provider {
	return provider.Handle(provider.AnyLoc, func(_ provider.Mediator, req provider.NameMappingRequest) (any, error) {
		f := fieldOf(req.Stack)
		if f == nil || f.Accessor == nil || !strings.HasPrefix(f.ID, "_") {
			return nil, provider.Silent("not a private output field")
		}

		return nil, nil
	})
}
