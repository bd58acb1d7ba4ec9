// Package layout decides where every model field lives in the data tree.
//
// A name layout is a crown: a tree of dict and list nodes whose leaves are
// model fields or placeholders. It is built from the model shape and the
// overlays configured by NameMapping.
package layout
