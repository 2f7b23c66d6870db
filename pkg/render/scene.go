package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

// Format selects the output of [RenderScene].
type Format string

// Supported scene formats.
const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ErrUnsupportedFormat is returned by RenderScene for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported scene format")

// SceneOptions configures scene diagram generation.
type SceneOptions struct {
	// Detailed adds each element's path and type-specific props to its label.
	Detailed bool
	// Groups draws a dashed edge from each element to the element named by
	// its groupId.
	Groups bool
}

// SceneDOT converts an element tree to Graphviz DOT. Each element becomes a
// box labeled with its type and a short id, and parent-child containment
// becomes an edge, so the diagram shows nesting and z-order (left to right).
func SceneDOT(root *tree.Element, opts SceneOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Board {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("\n")
	buf.WriteString("  \"root\" [label=\"board\", shape=ellipse, fillcolor=lightgrey];\n")

	var edges []string
	tree.Walk(root, func(el *tree.Element, p path.Path) bool {
		id := nodeID(p)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", id, sceneLabel(el, p, opts.Detailed))

		parent := "root"
		if len(p) > 1 {
			parent = nodeID(p[:len(p)-1])
		}
		edges = append(edges, fmt.Sprintf("  %q -> %q;", parent, id))
		return true
	})

	if opts.Groups {
		byID := make(map[string]string)
		tree.Walk(root, func(el *tree.Element, p path.Path) bool {
			byID[el.ID] = nodeID(p)
			return true
		})
		tree.Walk(root, func(el *tree.Element, p path.Path) bool {
			if g, ok := byID[el.GroupID]; ok && el.GroupID != "" {
				edges = append(edges, fmt.Sprintf("  %q -> %q [style=dashed, constraint=false];", nodeID(p), g))
			}
			return true
		})
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.String()
}

// nodeID keys DOT nodes by path, since element ids are not guaranteed to be
// present or unique in a damaged document.
func nodeID(p path.Path) string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = fmt.Sprint(n)
	}
	return "n" + strings.Join(parts, "_")
}

func sceneLabel(el *tree.Element, p path.Path, detailed bool) string {
	id := el.ID
	if len(id) > 8 {
		id = id[:8]
	}
	label := el.Type + "\n" + id
	if !detailed {
		return label
	}
	parts := []string{"path: " + p.String()}
	for _, k := range slices.Sorted(maps.Keys(el.Props)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, el.Props[k]))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

// RenderScene lays out a DOT graph with Graphviz and returns it in the
// requested format. FormatDOT returns the input unchanged.
func RenderScene(ctx context.Context, dot string, format Format) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
