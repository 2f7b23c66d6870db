package render

import (
	"fmt"
	"strconv"
)

// Node is one element of a rendered drawing.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string // character data, written escaped before Children
	Children []*Node
}

// Attr is a single attribute. Value is written escaped.
type Attr struct {
	Name  string
	Value string
}

// El returns a node with the given tag and attributes.
func El(tag string, attrs ...Attr) *Node {
	return &Node{Tag: tag, Attrs: attrs}
}

// A builds an attribute, formatting numbers without trailing zeros.
func A(name string, value any) Attr {
	return Attr{Name: name, Value: formatValue(value)}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// Append adds children to n, skipping nil nodes, and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// WithText sets n's character data and returns n.
func (n *Node) WithText(s string) *Node {
	n.Text = s
	return n
}

// Set replaces the attribute called name, or appends it, and returns n.
func (n *Node) Set(name string, value any) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = formatValue(value)
			return n
		}
	}
	n.Attrs = append(n.Attrs, A(name, value))
	return n
}

// Attr returns the value of the attribute called name.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	c := 1
	for _, ch := range n.Children {
		c += ch.Count()
	}
	return c
}
