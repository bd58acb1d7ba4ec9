package convert

import (
	"strconv"
	"strings"

	"retort/internal/codegen"
	"retort/provider"
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

var identReplacer = strings.NewReplacer("[", "_", "]", "", ", ", "_", ".", "_", "*", "ptr_")

func typeIdent(tp typing.Expr) string {
	return codegen.Ident(identReplacer.Replace(typing.Repr(tp)))
}

// renderPlan renders the body of a converter. Readers, coercers and the
// constructor are bound in the namespace.
func renderPlan(p *plan) codegen.Source {
	b := codegen.NewBuilder()
	ns := codegen.NewNamespace()

	b.Linef("values := make(map[string]any, %d)", len(p.fields))

	for i, f := range p.fields {
		b.EmptyLine()

		key := codegen.StringLiteral(f.id)

		if c, ok := f.linking.(provider.ConstantLinking); ok {
			if c.Factory != nil {
				b.Linef("values[%s] = %s()", key, ns.Add("factory_"+f.id, c.Factory))
			} else {
				b.Linef("values[%s] = %s", key, ns.Expr("const_"+f.id, c.Value))
			}

			continue
		}

		v := "v" + strconv.Itoa(i)

		b.Linef("%s, ok, err := %s(src, params)", v, ns.Add("read_"+f.id, f.read))
		b.CheckErr()

		coerce := ns.Add("coerce_"+f.id, f.coerce)

		b.Block("if ok", func() {
			b.Linef("%s, err = %s(%s)", v, coerce, v)
			b.CheckErr()
			b.Linef("values[%s] = %s", key, v)
		})
	}

	b.EmptyLine()
	b.Linef("args, kwargs, err := %s(values)", ns.Add("arguments", p.input.Arguments))
	b.CheckErr()
	b.EmptyLine()
	b.Linef("return %s(args, kwargs)", ns.Add("constructor", p.input.Constructor))

	return codegen.Render(p.name, "src any, params []any", "(any, error)", b, ns)
}
