package morph

import (
	"retort/internal/introspect"
	"retort/internal/layout"
	"retort/provider"
)

// Recipe returns the built-in providers in the order they must be searched.
// User providers go in front of it. Settings answering the strictness,
// debug trail and loader props requests belong after it.
func Recipe() []provider.Provider {
	return []provider.Provider{
		SpecialProvider(),
		ScalarProvider(),
		IterableProvider(),
		DictProvider(),
		PointerProvider(),
		UnionProvider(),
		WrapperProvider(),
		ModelProvider(),
		introspect.ShapeProvider(),
		layout.Provider(),
		layout.Defaults(),
	}
}
