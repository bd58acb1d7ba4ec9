package morph

import (
	"fmt"
	"reflect"
	"slices"
	"sort"

	"retort/internal/layout"
	"retort/loaderr"
	"retort/provider"
	"retort/shape"
	"retort/typing"
)

var recordExpr = typing.Of[map[string]any]()

// ModelProvider builds loaders and dumpers of every type with a shape. It
// fails silently for other types, so it goes after the leaf providers.
func ModelProvider() provider.Provider {
	return both(provider.AnyLoc, loadModel, dumpModel)
}

type modelLoader struct {
	tp       typing.Expr
	shape    *shape.InputShape
	crown    layout.InpCrown
	move     layout.InpExtraMove
	loaders  map[string]provider.Loader
	required map[layout.InpCrown]bool
	order    map[*layout.InpDictCrown][]string
	trail    provider.DebugTrail
	props    provider.ModelLoaderProps
}

func loadModel(m provider.Mediator, req provider.LoaderRequest) (any, error) {
	tp := req.Stack.Last().Type

	sh, err := provider.Provide[*shape.InputShape](m, provider.InputShapeRequest{Stack: req.Stack})
	if err != nil {
		return nil, err
	}

	nl, err := provider.Provide[layout.InputNameLayout](m, provider.InputNameLayoutRequest{Stack: req.Stack, Shape: sh})
	if err != nil {
		return nil, err
	}

	ids := layout.InpFields(nl.Crown)
	if targets, ok := nl.ExtraMove.(layout.ExtraTargets); ok {
		ids = append(ids, targets.Fields...)
	}

	if err := checkRequiredUsed(sh, ids); err != nil {
		return nil, err
	}

	reqs := make([]provider.Request, len(ids))

	for i, id := range ids {
		f, _ := sh.Field(id)
		reqs[i] = provider.LoaderRequest{Stack: req.Stack.Append(provider.InputFieldLoc(f))}
	}

	loaders, err := provider.ProvideAll[provider.Loader](m, reqs, func() string {
		return "Cannot create loader for model. Loaders for some fields cannot be created"
	})
	if err != nil {
		return nil, err
	}

	l := &modelLoader{
		tp:       tp,
		shape:    sh,
		crown:    nl.Crown,
		move:     nl.ExtraMove,
		loaders:  make(map[string]provider.Loader, len(ids)),
		required: make(map[layout.InpCrown]bool),
		order:    make(map[*layout.InpDictCrown][]string),
	}

	for i, id := range ids {
		l.loaders[id] = loaders[i]
	}

	if l.trail, err = trailAt(m, req.Stack); err != nil {
		return nil, err
	}

	if l.props, err = provider.Provide[provider.ModelLoaderProps](m, provider.ModelLoaderPropsRequest{Stack: req.Stack}); err != nil {
		return nil, err
	}

	l.plan(nl.Crown)

	if err := emitSource(m, renderLoader(l)); err != nil {
		return nil, err
	}

	return provider.Loader(l.load), nil
}

func checkRequiredUsed(sh *shape.InputShape, ids []string) error {
	var skipped []string

	for _, f := range sh.Fields {
		if f.IsRequired && !slices.Contains(ids, f.ID) {
			skipped = append(skipped, f.ID)
		}
	}

	if len(skipped) > 0 {
		return provider.Terminal("Required fields %v are skipped", skipped)
	}

	return nil
}

// plan records which crowns hold required fields and orders dict keys so
// that required fields are extracted first.
func (l *modelLoader) plan(c layout.InpCrown) bool {
	required := false

	switch c := c.(type) {
	case *layout.InpDictCrown:
		var first, rest []string

		for _, key := range c.Keys {
			if l.plan(c.Map[key]) {
				required = true
				first = append(first, key)
			} else {
				rest = append(rest, key)
			}
		}

		l.order[c] = append(first, rest...)
	case *layout.InpListCrown:
		for _, item := range c.Items {
			if l.plan(item) {
				required = true
			}
		}
	case layout.InpFieldCrown:
		f, _ := l.shape.Field(c.ID)
		required = f.IsRequired
	}

	l.required[c] = required

	return required
}

type loadState struct {
	values map[string]any
	extra  map[string]any
	errs   collector
}

func (l *modelLoader) load(data any) (any, error) {
	st := &loadState{
		values: make(map[string]any, len(l.loaders)),
		errs:   collector{mode: l.trail},
	}

	if err := l.walk(st, l.crown, data, nil); err != nil {
		return nil, err
	}

	if err := l.loadTargets(st); err != nil {
		return nil, err
	}

	if st.errs.failed() {
		return nil, st.errs.err("while loading model " + typing.Repr(l.tp))
	}

	args, kwargs, err := l.arguments(st.values)
	if err != nil {
		return nil, err
	}

	if _, ok := l.move.(layout.ExtraKwargs); ok {
		for k, v := range st.extra {
			if _, taken := kwargs[k]; !taken {
				kwargs[k] = v
			}
		}
	}

	inst, err := l.shape.Constructor(args, kwargs)
	if err != nil {
		return nil, err
	}

	if sat, ok := l.move.(layout.ExtraSaturate); ok {
		return sat.Func(inst, st.extra)
	}

	return inst, nil
}

func (l *modelLoader) walk(st *loadState, c layout.InpCrown, data any, path []any) error {
	switch c := c.(type) {
	case *layout.InpDictCrown:
		return l.walkDict(st, c, data, path)
	case *layout.InpListCrown:
		return l.walkList(st, c, data, path)
	case layout.InpFieldCrown:
		v, err := l.loaders[c.ID](data)
		if err != nil {
			return st.errs.add(err, path...)
		}

		if l.props.UseDefaultForOmitted && provider.IsOmitted(v) {
			return nil
		}

		st.values[c.ID] = v
	}

	return nil
}

func child(path []any, elem any) []any {
	return append(path[:len(path):len(path)], elem)
}

func (l *modelLoader) walkDict(st *loadState, c *layout.InpDictCrown, data any, path []any) error {
	obj, ok := asRecord(data)
	if !ok {
		return st.errs.add(&loaderr.TypeLoadError{Expected: recordExpr, Input: data}, path...)
	}

	var missing []string

	for _, key := range l.order[c] {
		sub := c.Map[key]

		v, ok := obj[key]
		if !ok {
			if l.required[sub] {
				missing = append(missing, key)
			}

			continue
		}

		if err := l.walk(st, sub, v, child(path, key)); err != nil {
			return err
		}
	}

	if len(missing) > 0 {
		if err := st.errs.add(&loaderr.NoRequiredFieldsError{Fields: missing, Input: data}, path...); err != nil {
			return err
		}
	}

	if c.ExtraPolicy == layout.ExtraSkip {
		return nil
	}

	var extra []string

	for k := range obj {
		if _, known := c.Map[k]; !known {
			extra = append(extra, k)
		}
	}

	sort.Strings(extra)

	if c.ExtraPolicy == layout.ExtraForbid {
		if len(extra) > 0 {
			return st.errs.add(&loaderr.ExtraFieldsError{Fields: extra, Input: data}, path...)
		}

		return nil
	}

	if st.extra == nil {
		st.extra = make(map[string]any, len(extra))
	}

	for _, k := range extra {
		st.extra[k] = obj[k]
	}

	return nil
}

func (l *modelLoader) walkList(st *loadState, c *layout.InpListCrown, data any, path []any) error {
	items, ok := elements(data, true)
	if !ok {
		return st.errs.add(&loaderr.TypeLoadError{Expected: typing.Of[[]any](), Input: data}, path...)
	}

	if len(items) < len(c.Items) {
		return st.errs.add(&loaderr.NoRequiredItemsError{ExpectedLen: len(c.Items), Input: data}, path...)
	}

	if len(items) > len(c.Items) && c.ExtraPolicy == layout.ExtraForbid {
		if err := st.errs.add(&loaderr.ExtraItemsError{ExpectedLen: len(c.Items), Input: data}, path...); err != nil {
			return err
		}
	}

	for i, sub := range c.Items {
		if err := l.walk(st, sub, items[i], child(path, i)); err != nil {
			return err
		}
	}

	return nil
}

// loadTargets loads the collected extra data into every target field.
func (l *modelLoader) loadTargets(st *loadState) error {
	targets, ok := l.move.(layout.ExtraTargets)
	if !ok {
		return nil
	}

	extra := st.extra
	if extra == nil {
		extra = map[string]any{}
	}

	for _, id := range targets.Fields {
		v, err := l.loaders[id](extra)
		if err != nil {
			if err := st.errs.add(err); err != nil {
				return err
			}

			continue
		}

		st.values[id] = v
	}

	return nil
}

func (l *modelLoader) arguments(values map[string]any) ([]any, map[string]any, error) {
	args, kwargs, err := l.shape.Arguments(values)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", typing.Repr(l.tp), err)
	}

	return args, kwargs, nil
}

// asRecord views a mapping with string keys as map[string]any.
func asRecord(data any) (map[string]any, bool) {
	if obj, ok := data.(map[string]any); ok {
		return obj, true
	}

	if data == nil {
		return nil, false
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Map {
		return nil, false
	}

	obj := make(map[string]any, rv.Len())

	for it := rv.MapRange(); it.Next(); {
		k, ok := it.Key().Interface().(string)
		if !ok {
			if it.Key().Kind() != reflect.String {
				return nil, false
			}

			k = it.Key().String()
		}

		obj[k] = it.Value().Interface()
	}

	return obj, true
}
