package introspect

import (
	"errors"
	"fmt"

	"retort/provider"
	"retort/shape"
	"retort/typing"
)

// ShapeProvider answers input and output shape requests with Resolve.
// Types no backend supports fail silently; malformed models fail with a
// demonstrative description.
func ShapeProvider() provider.Provider {
	return provider.Records(
		provider.Record(nil, func(m provider.Mediator, req provider.InputShapeRequest) (any, error) {
			sh, err := cachedShape(m, req.Stack.Last().Type)
			if err != nil {
				return nil, err
			}

			if sh.Input == nil {
				return nil, provider.Silent("%s has no input shape", typing.Repr(req.Stack.Last().Type))
			}

			return sh.Input, nil
		}),
		provider.Record(nil, func(m provider.Mediator, req provider.OutputShapeRequest) (any, error) {
			sh, err := cachedShape(m, req.Stack.Last().Type)
			if err != nil {
				return nil, err
			}

			if sh.Output == nil {
				return nil, provider.Cannot("%s has no output shape", typing.Repr(req.Stack.Last().Type))
			}

			return sh.Output, nil
		}),
	)
}

func cachedShape(m provider.Mediator, tp typing.Expr) (shape.Shape, error) {
	key := "shape|" + typing.KeyOf(tp)
	if fm, ok := tp.(*shape.FuncModel); ok {
		key = fmt.Sprintf("shape|func|%p", fm)
	}

	sh, err := provider.CachedCall(m, key, func() (shape.Shape, error) {
		return Resolve(tp, Get)
	})
	if err == nil {
		return sh, nil
	}

	var notMine *IntrospectionImpossibleError
	if errors.As(err, &notMine) {
		return shape.Shape{}, provider.Silent("%v", err)
	}

	var bad *ClarifiedIntrospectionError
	if errors.As(err, &bad) {
		return shape.Shape{}, provider.Cannot("%s", bad.Description)
	}

	return shape.Shape{}, provider.Cannot("%v", err)
}
