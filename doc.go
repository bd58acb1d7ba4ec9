// Package retort loads and dumps Go values from and to plain data trees
// (maps, slices and scalars) and converts between models, driven by the
// static types of the values involved.
//
// A Retort owns a recipe: an ordered list of providers answering requests
// for loaders, dumpers, converters and the settings they depend on. User
// providers come first, the built-in recipe last, and the first provider
// able to answer a request wins. Built functions are cached per retort.
//
//	r := retort.New(retort.WithRecipe(
//		retort.NameMapping(typing.Of[Weather](), retort.Map{"Name": "main"}),
//	))
//
//	w, err := retort.Load[Weather](r, data)
//	out, err := retort.Dump(r, w)
//
// Configuration problems, such as a field type no provider can handle,
// surface when the function is requested, as a *ProviderNotFoundError.
// Bad input surfaces while loading, as the errors of package loaderr.
//
// Process defaults are read from the RETORT_DEBUG environment variable:
//
//	RETORT_DEBUG=trail=first,strict=false,codegen=/tmp/retort
package retort
