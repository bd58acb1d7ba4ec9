package codegen

import (
	"fmt"
	"regexp"
	"strings"
)

const indentUnit = "\t"

// Builder accumulates indented source lines.
type Builder struct {
	lines  []string
	indent int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) prefix() string {
	return strings.Repeat(indentUnit, b.indent)
}

// Line appends one line at the current indentation.
func (b *Builder) Line(s string) *Builder {
	if s == "" {
		b.lines = append(b.lines, "")

		return b
	}

	b.lines = append(b.lines, b.prefix()+s)

	return b
}

// Linef appends a formatted line.
func (b *Builder) Linef(format string, args ...any) *Builder {
	return b.Line(fmt.Sprintf(format, args...))
}

// Lines appends several lines.
func (b *Builder) Lines(ss ...string) *Builder {
	for _, s := range ss {
		b.Line(s)
	}

	return b
}

// EmptyLine appends a blank line unless the builder already ends with one.
func (b *Builder) EmptyLine() *Builder {
	if len(b.lines) > 0 && b.lines[len(b.lines)-1] != "" {
		b.lines = append(b.lines, "")
	}

	return b
}

// Block appends "header {", the body one level deeper and "}".
func (b *Builder) Block(header string, body func()) *Builder {
	b.Line(header + " {")
	b.indent++
	body()
	b.indent--

	return b.Line("}")
}

// Include appends a multi-line text, dedented, at the current indentation.
func (b *Builder) Include(text string) *Builder {
	for _, line := range dedent(text) {
		b.Line(line)
	}

	return b
}

// Extend appends the lines of other at the current indentation.
func (b *Builder) Extend(other *Builder) *Builder {
	for _, line := range other.lines {
		b.Line(line)
	}

	return b
}

// ExtendAbove prepends the lines of other.
func (b *Builder) ExtendAbove(other *Builder) *Builder {
	b.lines = append(append([]string(nil), other.lines...), b.lines...)

	return b
}

// CheckErr appends the error check of the previous statement. onErr is
// the body run on error; "return nil, err" when empty.
func (b *Builder) CheckErr(onErr ...string) *Builder {
	if len(onErr) == 0 {
		onErr = []string{"return nil, err"}
	}

	return b.Block("if err != nil", func() { b.Lines(onErr...) })
}

var placeholderRe = regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_]*)>`)

// Template appends text with <name> placeholders. A placeholder alone on a
// line is replaced by the lines of stmts[name] at that indentation; inline
// placeholders are replaced by the single line stmts[name] renders to.
func (b *Builder) Template(text string, stmts map[string]*Builder) *Builder {
	for _, line := range dedent(text) {
		trimmed := strings.TrimLeft(line, "\t")
		if m := placeholderRe.FindStringSubmatch(trimmed); m != nil && m[0] == strings.TrimSpace(trimmed) {
			if sub, ok := stmts[m[1]]; ok {
				depth := len(line) - len(trimmed)
				b.indent += depth
				b.Extend(sub)
				b.indent -= depth

				continue
			}
		}

		b.Line(placeholderRe.ReplaceAllStringFunc(line, func(ph string) string {
			sub, ok := stmts[ph[1:len(ph)-1]]
			if !ok {
				return ph
			}

			return strings.Join(sub.lines, "; ")
		}))
	}

	return b
}

// String returns the accumulated text.
func (b *Builder) String() string {
	return strings.Join(b.lines, "\n")
}

// Len is the number of lines.
func (b *Builder) Len() int { return len(b.lines) }

// dedent drops leading and trailing blank lines and the common tab
// indentation.
func dedent(text string) []string {
	lines := strings.Split(text, "\n")

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	common := -1

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		n := len(line) - len(strings.TrimLeft(line, "\t"))
		if common < 0 || n < common {
			common = n
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""

			continue
		}

		lines[i] = line[common:]
	}

	return lines
}
