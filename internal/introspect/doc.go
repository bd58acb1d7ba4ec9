// Package introspect builds shapes of models and resolves their generic
// parameters.
//
// Backends are tried in a fixed order: declarative records, named tuples,
// registered structs, structs with computed fields, plain structs and
// functions. A backend answers IntrospectionImpossibleError when the type
// is not of its kind.
package introspect
