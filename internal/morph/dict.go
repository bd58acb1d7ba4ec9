package morph

import (
	"reflect"

	"retort/loaderr"
	"retort/provider"
	"retort/typing"
)

// DictProvider handles maps. Keys are processed in the order of their
// text form so errors are reported deterministically.
func DictProvider() provider.Provider {
	return both(provider.ExactOrigin(typing.Map), loadDict, dumpDict)
}

func loadDict(m provider.Mediator, req provider.LoaderRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	trail, err := trailAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	loaders, err := provider.ProvideAll[provider.Loader](m, []provider.Request{
		provider.LoaderRequest{Stack: paramStack(req.Stack, n, 0)},
		provider.LoaderRequest{Stack: paramStack(req.Stack, n, 1)},
	}, func() string { return "Cannot create loader for map. Loaders for key or value cannot be created" })
	if err != nil {
		return nil, err
	}

	keyLoader, valueLoader := loaders[0], loaders[1]
	rt := typing.GoType(n)

	return provider.Loader(func(data any) (any, error) {
		if data == nil || reflect.TypeOf(data).Kind() != reflect.Map {
			return nil, &loaderr.TypeLoadError{Expected: n, Input: data}
		}

		rv := reflect.ValueOf(data)
		out := reflect.MakeMapWithSize(rt, rv.Len())
		c := collector{mode: trail}

		for _, k := range sortedKeys(rv) {
			key, err := keyLoader(k)
			if err != nil {
				if stop := c.add(err, k); stop != nil {
					return nil, stop
				}

				continue
			}

			value, err := valueLoader(rv.MapIndex(reflect.ValueOf(k)).Interface())
			if err != nil {
				if stop := c.add(err, k); stop != nil {
					return nil, stop
				}

				continue
			}

			kv, err := fit(key, rt.Key())
			if err != nil {
				return nil, loaderr.AppendTrail(err, k)
			}

			vv, err := fit(value, rt.Elem())
			if err != nil {
				return nil, loaderr.AppendTrail(err, k)
			}

			out.SetMapIndex(kv, vv)
		}

		if c.failed() {
			return nil, c.err(loadingMessage(n))
		}

		return out.Interface(), nil
	}), nil
}

func dumpDict(m provider.Mediator, req provider.DumperRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	dumpers, err := provider.ProvideAll[provider.Dumper](m, []provider.Request{
		provider.DumperRequest{Stack: paramStack(req.Stack, n, 0)},
		provider.DumperRequest{Stack: paramStack(req.Stack, n, 1)},
	}, func() string { return "Cannot create dumper for map. Dumpers for key or value cannot be created" })
	if err != nil {
		return nil, err
	}

	keyDumper, valueDumper := dumpers[0], dumpers[1]

	return provider.Dumper(func(v any) (any, error) {
		if v == nil {
			return map[string]any{}, nil
		}

		rv := reflect.ValueOf(v)
		keys := make([]any, 0, rv.Len())
		values := make([]any, 0, rv.Len())
		textual := true

		for _, k := range sortedKeys(rv) {
			key, err := keyDumper(k)
			if err != nil {
				return nil, loaderr.AppendTrail(err, k)
			}

			value, err := valueDumper(rv.MapIndex(reflect.ValueOf(k)).Interface())
			if err != nil {
				return nil, loaderr.AppendTrail(err, k)
			}

			if _, ok := key.(string); !ok {
				textual = false
			}

			keys = append(keys, key)
			values = append(values, value)
		}

		if !textual {
			out := make(map[any]any, len(keys))
			for i, k := range keys {
				out[k] = values[i]
			}

			return out, nil
		}

		out := make(map[string]any, len(keys))
		for i, k := range keys {
			out[k.(string)] = values[i]
		}

		return out, nil
	}), nil
}
