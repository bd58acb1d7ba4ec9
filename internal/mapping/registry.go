package mapping

import (
	"reflect"
	"strings"

	"retort/provider"
	"retort/shape"
	"retort/typing"
)

// Registry resolves the type, transform and function names of recipe
// files.
type Registry struct {
	types      map[string]typing.Expr
	transforms map[string]provider.Coercer
	funcs      map[string]*shape.FuncModel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:      make(map[string]typing.Expr),
		transforms: make(map[string]provider.Coercer),
		funcs:      make(map[string]*shape.FuncModel),
	}
}

// Type registers tp under name.
func (r *Registry) Type(name string, tp typing.Expr) *Registry {
	r.types[name] = tp

	return r
}

// Types registers Go types under their full names, e.g. "retort/app.Weather".
func (r *Registry) Types(tps ...reflect.Type) *Registry {
	for _, rt := range tps {
		r.types[rt.PkgPath()+"."+rt.Name()] = rt
	}

	return r
}

// Transform registers a coercer used by field links.
func (r *Registry) Transform(name string, fn provider.Coercer) *Registry {
	r.transforms[name] = fn

	return r
}

// Func registers a linking function.
func (r *Registry) Func(name string, fm *shape.FuncModel) *Registry {
	r.funcs[name] = fm

	return r
}

// ResolveType resolves a type name like:
// - "retort/app.Weather" (full)
// - "app.Weather" (short)
// - "Weather" (name only, when unique).
func (r *Registry) ResolveType(name string) (typing.Expr, bool) {
	if name == "" {
		return nil, false
	}

	if tp, ok := r.types[name]; ok {
		return tp, true
	}

	var found []typing.Expr

	for id, tp := range r.types {
		if strings.HasSuffix(id, "/"+name) || !strings.Contains(name, ".") && bareName(id) == name {
			found = append(found, tp)
		}
	}

	if len(found) != 1 {
		return nil, false
	}

	return found[0], true
}

func bareName(id string) string {
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		return id[i+1:]
	}

	return id
}

// TypeNames returns the registered type names.
func (r *Registry) TypeNames() []string { return sortedKeys(r.types) }

// ResolveTransform returns the coercer registered under name.
func (r *Registry) ResolveTransform(name string) (provider.Coercer, bool) {
	fn, ok := r.transforms[name]

	return fn, ok
}

// TransformNames returns the registered transform names.
func (r *Registry) TransformNames() []string { return sortedKeys(r.transforms) }

// ResolveFunc returns the linking function registered under name.
func (r *Registry) ResolveFunc(name string) (*shape.FuncModel, bool) {
	fm, ok := r.funcs[name]

	return fm, ok
}

// FuncNames returns the registered function names.
func (r *Registry) FuncNames() []string { return sortedKeys(r.funcs) }
