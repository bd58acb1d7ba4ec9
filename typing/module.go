package typing

import (
	"sync"
)

// Module is a namespace of declarations used to resolve forward references.
type Module struct {
	name string

	mu    sync.RWMutex
	decls map[string]Expr
}

// NewModule creates an empty namespace.
func NewModule(name string) *Module {
	return &Module{name: name, decls: make(map[string]Expr)}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Define binds name to tp and returns tp.
func (m *Module) Define(name string, tp Expr) Expr {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.decls[name] = tp

	return tp
}

// Lookup finds a declaration by name.
func (m *Module) Lookup(name string) (Expr, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tp, ok := m.decls[name]

	return tp, ok
}

// Ref returns a forward reference resolved in this module.
func (m *Module) Ref(name string) RefExpr {
	return RefExpr{Name: name, Module: m}
}

// Declare registers a model under its name and binds it to the module.
func (m *Module) Declare(model *Model) *Model {
	model.Module = m
	m.Define(model.Name, model)

	return model
}

// Presence overrides the required status of a model field.
type Presence int

const (
	// PresenceDefault follows Model.Partial.
	PresenceDefault Presence = iota
	PresenceRequired
	PresenceNotRequired
)

// ModelField is a field declared by a model.
type ModelField struct {
	Name     string
	Type     Expr
	Presence Presence
	Metadata map[string]string
}

// Model is a declarative record type. Instances are map[string]any.
//
// TypeParams holds *TypeVar, *ParamSpec or Unpack(*TypeVarTuple) entries.
// Bases are other models, possibly parameterized with Param.
type Model struct {
	Name       string
	Module     *Module
	TypeParams []Expr
	Bases      []Expr
	Fields     []ModelField
	// Partial makes fields not required unless marked PresenceRequired.
	Partial bool
}

func (m *Model) String() string {
	if m.Module == nil || m.Module.name == "" {
		return m.Name
	}

	return m.Module.name + "." + m.Name
}

// IsRequired reports whether the field with the given presence is required.
func (m *Model) IsRequired(p Presence) bool {
	switch p {
	case PresenceRequired:
		return true
	case PresenceNotRequired:
		return false
	default:
		return !m.Partial
	}
}

// Field finds a field declared directly on the model.
func (m *Model) Field(name string) (ModelField, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return ModelField{}, false
}
