// Package analyze recovers source level facts that reflection cannot see.
//
// It uses golang.org/x/tools/go/packages with go/types to read the
// parameter names of package level functions used as model constructors.
//
// Key types:
//   - Analyzer: loads packages on demand and caches them
//   - FuncID: package import path + function name
package analyze
