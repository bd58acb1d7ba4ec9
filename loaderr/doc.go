// Package loaderr defines the errors returned by loaders.
//
// Every loading error implements LoadError. Location information is attached
// with AppendTrail and ExtendTrail as the error travels up through nested
// model and collection loaders, so the trail reads from the root of the input
// to the failing element. Errors from sibling fields or items are grouped in
// an AggregateLoadError (or a Group when non-load errors are involved), and
// failed union arms in a UnionLoadError.
package loaderr
