// Package shape describes how a model is constructed and observed.
//
// A Shape pairs an InputShape (fields, constructor parameters and the
// constructor itself) with an OutputShape (fields and the accessors reading
// them). Every introspection backend produces the same types, so loader,
// dumper and converter generation never look at the kind of the model.
//
// Go structs opt into the less common backends with the markers defined
// here: embedding NamedTuple makes a struct positional, Computed adds
// method-backed output fields, TypeHinter refines field types with typing
// expressions and PostIniter runs after construction. Plain functions become
// models through Func.
package shape
