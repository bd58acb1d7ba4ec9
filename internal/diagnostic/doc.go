// Package diagnostic collects configuration problems and renders failure
// trees for the retort.
//
// Key capabilities:
//   - Problem lists with codes and suggestions (name layout validation,
//     unlinked converter fields)
//   - Tree rendering of provider search failures
package diagnostic
