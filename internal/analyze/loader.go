package analyze

import (
	"errors"
	"fmt"
	"go/types"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedTypes |
	packages.NeedImports

var (
	ErrNotPackageFunc = errors.New("not a package level function")
	ErrFuncNotFound   = errors.New("function not found")
)

// FuncID identifies a package level function.
type FuncID struct {
	PkgPath string
	Name    string
}

func (id FuncID) String() string {
	return id.PkgPath + "." + id.Name
}

// ParseFuncID splits a runtime function name such as "retort/shape.Func".
// Methods and closures have no stable source identity and are rejected.
func ParseFuncID(qualified string) (FuncID, error) {
	slash := strings.LastIndexByte(qualified, '/')
	rest := qualified[slash+1:]

	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return FuncID{}, fmt.Errorf("%w: %s", ErrNotPackageFunc, qualified)
	}

	id := FuncID{PkgPath: qualified[:slash+1+dot], Name: rest[dot+1:]}
	if id.Name == "" || strings.ContainsAny(id.Name, ".()*[") {
		return FuncID{}, fmt.Errorf("%w: %s", ErrNotPackageFunc, qualified)
	}

	return id, nil
}

// Analyzer loads packages and caches them by import path.
type Analyzer struct {
	mu       sync.Mutex
	packages map[string]*types.Package
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{packages: make(map[string]*types.Package)}
}

var defaultAnalyzer = NewAnalyzer()

// ParamNames returns the parameter names of the function with the given
// runtime name using the shared analyzer.
func ParamNames(qualified string) ([]string, error) {
	return defaultAnalyzer.ParamNames(qualified)
}

// ParamNames returns the parameter names of the function with the given
// runtime name.
func (a *Analyzer) ParamNames(qualified string) ([]string, error) {
	id, err := ParseFuncID(qualified)
	if err != nil {
		return nil, err
	}

	pkg, err := a.load(id.PkgPath)
	if err != nil {
		return nil, err
	}

	fn, ok := pkg.Scope().Lookup(id.Name).(*types.Func)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFuncNotFound, id)
	}

	params := fn.Type().(*types.Signature).Params()
	names := make([]string, params.Len())

	for i := range params.Len() {
		names[i] = params.At(i).Name()
	}

	return names, nil
}

func (a *Analyzer) load(pkgPath string) (*types.Package, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if pkg, ok := a.packages[pkgPath]; ok {
		return pkg, nil
	}

	pkgs, err := packages.Load(&packages.Config{Mode: LoadMode}, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load package %s: %w", pkgPath, err)
	}

	var errs []error

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	if len(pkgs) != 1 || pkgs[0].Types == nil {
		return nil, fmt.Errorf("failed to load package %s", pkgPath)
	}

	a.packages[pkgPath] = pkgs[0].Types

	return pkgs[0].Types, nil
}
