// Package codegen renders the Go source equivalent of emitted closures.
//
// Loaders, dumpers and converters are composed at runtime; alongside each
// closure the builder produces a readable function with go/format and a
// namespace binding its free names to the captured values. Hooks receive
// the rendered sources for inspection or for writing to disk.
//
// Codegen patterns:
//   - Indented statement blocks
//   - Placeholder templates expanded at the placeholder indentation
//   - Inlined literals for round-trippable constants
//   - Error checks rendered as if err != nil blocks
package codegen
