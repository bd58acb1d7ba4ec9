package convert

import "retort/provider"

// Recipe returns the converter providers in search order. Shapes come from
// the shape providers of the loading recipe. ForbidUnlinkedOptional is the
// fallback policy, so user policies go in front of it.
func Recipe() []provider.Provider {
	return []provider.Provider{
		DefaultLinking(),
		CoercerProvider(),
		ModelCoercer(),
		ConverterProvider(),
		ForbidUnlinkedOptional(),
	}
}
