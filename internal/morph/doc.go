// Package morph builds loaders and dumpers.
//
// Every provider here answers provider.LoaderRequest or
// provider.DumperRequest for a family of types: scalar leaves, iterables,
// maps, pointers, unions, literals, enums, wrappers and models. Models are
// walked along the crowns of their name layout; the emitted closures are
// also rendered to Go source for the code generation hook.
//
// Loaders read the strictness of coercion and the debug trail mode through
// located requests, so both can be tuned per field with Settings bound to a
// predicate.
package morph
