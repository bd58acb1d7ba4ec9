// Package engine routes requests through a recipe of providers.
//
// A Retort owns the recipe and the cache of built values. Each top level
// Provide runs a private mediator that keeps the request stack, breaks
// recursion of loaders and dumpers with stubs and commits its results to
// the retort cache only when the whole call succeeds.
package engine
