package diagnostic

import (
	"strings"
)

// Node is one failure in a tree of provider search failures.
type Node struct {
	Message  string
	Notes    []string
	Children []Node
}

type marker struct {
	head, body, shift string
}

var (
	rootMarker  = marker{head: "× ", body: "│ ", shift: ""}
	childMarker = marker{head: "╰──▷ ", body: "   │ ", shift: "   "}
)

// Render draws the tree:
//
//	× Cannot create loader for model
//	│ Location: ‹app.Weather›
//	╰──▷ Cannot find loader
//	   │ Location: ‹app.Weather›.Stream ‹chan int›
func Render(nodes []Node) string {
	var b strings.Builder

	for _, n := range nodes {
		renderNode(&b, n, "", rootMarker)
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderNode(b *strings.Builder, n Node, indent string, m marker) {
	b.WriteString(indent + m.head + n.Message + "\n")

	for _, note := range n.Notes {
		b.WriteString(indent + m.body + note + "\n")
	}

	base := indent + m.shift

	if len(n.Children) == 1 {
		renderNode(b, n.Children[0], base, childMarker)

		return
	}

	for _, c := range n.Children {
		renderNode(b, c, base+"  ", rootMarker)
	}
}
