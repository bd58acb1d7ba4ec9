// Package match finds the names a user most likely meant. It splits and
// folds identifiers into words, measures their edit distance and scores
// the compatibility of field types, and ranks the fields of a model
// against a missing one for "did you mean" notes.
package match
