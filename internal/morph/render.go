package morph

import (
	"fmt"
	"strconv"
	"strings"

	"retort/internal/codegen"
	"retort/internal/layout"
	"retort/provider"
	"retort/shape"
	"retort/typing"
)

// emitSource hands src to the code generation hook when one is set.
func emitSource(m provider.Mediator, src codegen.Source) error {
	hook, err := provider.Provide[codegen.Hook](m, provider.CodeGenHookRequest{})
	if err != nil {
		if provider.IsCannotProvide(err) {
			return nil
		}

		return err
	}

	hook(src)

	return nil
}

type renderer struct {
	b    *codegen.Builder
	ns   *codegen.Namespace
	seq  int
	mode provider.DebugTrail
}

func newRenderer(mode provider.DebugTrail) *renderer {
	return &renderer{b: codegen.NewBuilder(), ns: codegen.NewNamespace(), mode: mode}
}

func (r *renderer) fresh(base string) string {
	r.seq++

	return base + strconv.Itoa(r.seq)
}

func pathLiteral(path []any) string {
	items := make([]string, len(path))
	for i, p := range path {
		lit, _ := codegen.Literal(p)
		items[i] = lit
	}

	return codegen.ListLiteral(items)
}

// fail renders the return of err raised at path.
func (r *renderer) fail(err string, path []any) string {
	if r.mode == provider.DebugTrailDisable || len(path) == 0 {
		return "return nil, " + err
	}

	return "return nil, loaderr.ExtendTrail(" + err + ", " + pathLiteral(path) + ")"
}

func funcName(prefix string, tp typing.Expr) string {
	name := strings.NewReplacer("[", "_", "]", "", ", ", "_", ".", "_", "*", "ptr_").Replace(typing.Repr(tp))

	return prefix + "_" + codegen.Ident(name)
}

func renderLoader(l *modelLoader) codegen.Source {
	r := newRenderer(l.trail)
	r.b.Line("values := make(map[string]any)")
	r.b.Line("extra := make(map[string]any)")
	r.b.EmptyLine()
	r.inp(l, l.crown, "data", nil)
	r.b.EmptyLine()

	if targets, ok := l.move.(layout.ExtraTargets); ok {
		for _, id := range targets.Fields {
			loader := r.ns.Add("load_"+id, l.loaders[id])
			r.b.Linef("%s, err := %s(extra)", codegen.Ident(id), loader)
			r.b.CheckErr()
			r.b.Linef("values[%s] = %s", codegen.StringLiteral(id), codegen.Ident(id))
		}
	}

	ctor := r.ns.Add("constructor", l.shape.Constructor)
	args := r.ns.Add("arguments", l.arguments)
	r.b.Linef("args, kwargs, err := %s(values)", args)
	r.b.CheckErr()

	switch move := l.move.(type) {
	case layout.ExtraKwargs:
		r.b.Block("for k, v := range extra", func() {
			r.b.Line("kwargs[k] = v")
		})
	case layout.ExtraSaturate:
		sat := r.ns.Add("saturate", move.Func)
		r.b.Linef("inst, err := %s(args, kwargs)", ctor)
		r.b.CheckErr()
		r.b.EmptyLine()
		r.b.Linef("return %s(inst, extra)", sat)

		return codegen.Render(funcName("load", l.tp), "data any", "(any, error)", r.b, r.ns)
	}

	r.b.Linef("return %s(args, kwargs)", ctor)

	return codegen.Render(funcName("load", l.tp), "data any", "(any, error)", r.b, r.ns)
}

func (r *renderer) inp(l *modelLoader, c layout.InpCrown, src string, path []any) {
	switch c := c.(type) {
	case *layout.InpDictCrown:
		obj := r.fresh("obj")
		r.b.Linef("%s, ok := %s.(map[string]any)", obj, src)
		r.b.Block("if !ok", func() {
			r.b.Line(r.fail("&loaderr.TypeLoadError{Expected: recordType, Input: "+src+"}", path))
		})

		for _, key := range l.order[c] {
			sub := c.Map[key]
			v, ok := r.fresh("v"), r.fresh("ok")
			r.b.Linef("%s, %s := %s[%s]", v, ok, obj, codegen.StringLiteral(key))

			if l.required[sub] {
				r.b.Block("if !"+ok, func() {
					r.b.Line(r.fail("&loaderr.NoRequiredFieldsError{Fields: []string{"+codegen.StringLiteral(key)+"}, Input: "+obj+"}", path))
				})
				r.inp(l, sub, v, child(path, key))

				continue
			}

			r.b.Block("if "+ok, func() {
				r.inp(l, sub, v, child(path, key))
			})
		}

		switch c.ExtraPolicy {
		case layout.ExtraForbid:
			known := r.ns.Add("known", c.Keys)
			r.b.Block(fmt.Sprintf("if extra := unknownKeys(%s, %s); len(extra) > 0", obj, known), func() {
				r.b.Line(r.fail("&loaderr.ExtraFieldsError{Fields: extra, Input: "+obj+"}", path))
			})
		case layout.ExtraCollect:
			known := r.ns.Add("known", c.Keys)
			r.b.Block(fmt.Sprintf("for _, k := range unknownKeys(%s, %s)", obj, known), func() {
				r.b.Linef("extra[k] = %s[k]", obj)
			})
		}
	case *layout.InpListCrown:
		items := r.fresh("items")
		r.b.Linef("%s, ok := %s.([]any)", items, src)
		r.b.Block("if !ok", func() {
			r.b.Line(r.fail("&loaderr.TypeLoadError{Expected: listType, Input: "+src+"}", path))
		})
		r.b.Block(fmt.Sprintf("if len(%s) < %d", items, len(c.Items)), func() {
			r.b.Line(r.fail(fmt.Sprintf("&loaderr.NoRequiredItemsError{ExpectedLen: %d, Input: %s}", len(c.Items), src), path))
		})

		if c.ExtraPolicy == layout.ExtraForbid {
			r.b.Block(fmt.Sprintf("if len(%s) > %d", items, len(c.Items)), func() {
				r.b.Line(r.fail(fmt.Sprintf("&loaderr.ExtraItemsError{ExpectedLen: %d, Input: %s}", len(c.Items), src), path))
			})
		}

		for i, sub := range c.Items {
			r.inp(l, sub, fmt.Sprintf("%s[%d]", items, i), child(path, i))
		}
	case layout.InpFieldCrown:
		loader := r.ns.Add("load_"+c.ID, l.loaders[c.ID])
		value := r.fresh("value")
		r.b.Linef("%s, err := %s(%s)", value, loader, src)
		r.b.CheckErr(r.fail("err", path))
		r.b.Linef("values[%s] = %s", codegen.StringLiteral(c.ID), value)
	}
}

func renderDumper(d *modelDumper) codegen.Source {
	r := newRenderer(provider.DebugTrailFirst)
	out := r.out(d, d.crown)

	switch move := d.move.(type) {
	case layout.ExtraTargets:
		for _, id := range move.Fields {
			access := r.ns.Add("access_"+id, d.fields[id].Accessor)
			dumper := r.ns.Add("dump_"+id, d.dumpers[id])
			raw, extra := r.fresh("raw"), r.fresh("extra")
			r.b.Linef("%s, _, err := %s.Access(inst)", raw, access)
			r.b.CheckErr()
			r.b.Linef("%s, err := %s(%s)", extra, dumper, raw)
			r.b.CheckErr()
			r.b.Linef("mergeExtra(%s, %s)", out, extra)
		}
	case layout.ExtraExtract:
		extract := r.ns.Add("extract", move.Func)
		r.b.Linef("extra, err := %s(inst)", extract)
		r.b.CheckErr()
		r.b.Linef("mergeExtra(%s, extra)", out)
	}

	r.b.Linef("return %s, nil", out)

	return codegen.Render(funcName("dump", d.tp), "inst any", "(any, error)", r.b, r.ns)
}

// out renders the building of crown c and returns the expression holding
// the result.
func (r *renderer) out(d *modelDumper, c layout.OutCrown) string {
	switch c := c.(type) {
	case *layout.OutDictCrown:
		keys := make([]string, len(c.Keys))
		values := make([]string, len(c.Keys))

		for i, key := range c.Keys {
			keys[i] = key
			values[i] = r.out(d, c.Map[key])
		}

		obj := r.fresh("obj")
		r.b.Linef("%s := %s", obj, codegen.DictLiteral(keys, values))

		for _, key := range c.Keys {
			if sieve, ok := c.Sieves[key]; ok {
				name := r.ns.Add("sieve_"+key, sieve)
				r.b.Block(fmt.Sprintf("if !%s(inst, %s[%s])", name, obj, codegen.StringLiteral(key)), func() {
					r.b.Linef("delete(%s, %s)", obj, codegen.StringLiteral(key))
				})
			}
		}

		return obj
	case *layout.OutListCrown:
		items := make([]string, len(c.Items))
		for i, item := range c.Items {
			items[i] = r.out(d, item)
		}

		list := r.fresh("list")
		r.b.Linef("%s := %s", list, codegen.ListLiteral(items))

		return list
	case layout.OutFieldCrown:
		access := r.ns.Add("access_"+c.ID, d.fields[c.ID].Accessor)
		dumper := r.ns.Add("dump_"+c.ID, d.dumpers[c.ID])
		raw, value := r.fresh("raw"), r.fresh("value")
		r.b.Linef("%s, _, err := %s.Access(inst)", raw, access)
		r.b.CheckErr()
		r.b.Linef("%s, err := %s(%s)", value, dumper, raw)
		r.b.CheckErr(fmt.Sprintf("return nil, loaderr.AppendTrail(err, %s)", trailLiteral(d.fields[c.ID].Accessor.TrailElement())))

		return value
	case layout.OutNoneCrown:
		if dv, ok := c.Placeholder.(shape.DefaultValue); ok {
			return r.ns.Expr("placeholder", dv.Value)
		}

		return "nil"
	default:
		return "nil"
	}
}

func trailLiteral(elem any) string {
	if lit, ok := codegen.Literal(elem); ok {
		return lit
	}

	return fmt.Sprintf("%q", fmt.Sprint(elem))
}
