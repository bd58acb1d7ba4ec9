// Package typing provides the type-expression language understood by retort
// and the normalizer that reduces any expression to a comparable NormType.
//
// An expression (Expr) is one of:
//   - a reflect.Type for ordinary Go types;
//   - a special form built by this package (Union, Optional, Literal,
//     Annotated, Tuple, Callable, TypeOf, InitVar, Unpack, Ref);
//   - a type variable (*TypeVar, *ParamSpec, *TypeVarTuple) or a *NewTypeDef;
//   - a generic origin (Slice, Map, Set, Pointer, Pattern) or a declarative
//     *Model, optionally parameterized with Param;
//   - nil or None for the none type, Any for the top type.
//
// Key capabilities:
//   - Normalize: canonical form with a stable identity key
//   - Substitute: replace type variables inside a normalized type
//   - GoType: runtime representation of a normalized type
//   - ClassDispatcher: closest-ancestor lookup under MRO
package typing
