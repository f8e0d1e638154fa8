// Package jmx renders and repairs JMeter test-plan documents. The document is
// modeled as a small in-memory node tree with one serialize function that
// escapes leaf text exactly once, so user-controlled content can never be
// escaped twice or not at all.
package jmx

import "strings"

// Attr is an ordered XML attribute.
type Attr struct {
	Key   string
	Value string
}

// Node is one XML element: tag, ordered attributes, and either text content
// or ordered children.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// El creates a node with the given tag.
func El(tag string) *Node {
	return &Node{Tag: tag}
}

// Attr appends an attribute and returns the node for chaining.
func (n *Node) Attr(key, value string) *Node {
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
	return n
}

// SetText sets the node's text content and returns the node.
func (n *Node) SetText(text string) *Node {
	n.Text = text
	return n
}

// Add appends child nodes, skipping nils, and returns the node.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Escape replaces the five XML metacharacters with their entity equivalents.
// Ampersand first, so already-produced entities are not double-escaped.
func Escape(s string) string {
	return xmlEscaper.Replace(s)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

// Render serializes the tree as an indented UTF-8 XML document.
func Render(root *Node) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	writeNode(&b, root, 0)
	return b.String()
}

// RenderFragment serializes a subtree without the XML declaration, indented
// at the given depth. The repair pass splices these into existing documents.
func RenderFragment(n *Node, depth int) string {
	var b strings.Builder
	writeNode(&b, n, depth)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(Escape(a.Value))
		b.WriteByte('"')
	}

	switch {
	case len(n.Children) == 0 && n.Text == "":
		b.WriteString("/>\n")
	case len(n.Children) == 0:
		b.WriteByte('>')
		b.WriteString(Escape(n.Text))
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteString(">\n")
	default:
		b.WriteString(">\n")
		for _, c := range n.Children {
			writeNode(b, c, depth+1)
		}
		b.WriteString(indent)
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteString(">\n")
	}
}
