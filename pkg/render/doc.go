// Package render provides the output side of the board engine.
//
// # Overview
//
// Plugins do not draw directly. A plugin's Render method returns a small
// virtual [Node] tree describing SVG elements, and the board assembles
// those trees in z-order. This package owns that tree and the encoders
// that turn it into bytes:
//
//   - [Node]: an element with ordered attributes, optional text and children
//   - [WriteSVG] / [SVG]: serialize rendered nodes as a standalone SVG
//     document framed by the board's viewport
//   - [SceneDOT]: describe the element tree itself (not its drawing) as a
//     Graphviz digraph, useful for inspecting nesting and grouping
//   - [RenderScene]: lay out a scene DOT graph with Graphviz in-process
//
// # Building Nodes
//
//	n := render.El("rect",
//	    render.A("x", 10), render.A("y", 20),
//	    render.A("width", 100), render.A("height", 50),
//	    render.A("fill", "#fff"))
//	g := render.El("g", render.A("id", el.ID)).Append(n)
//
// Attribute order is preserved, so output is deterministic and testable.
// Numbers are formatted with the shortest representation that round-trips.
//
// # Scene Diagrams
//
//	dot := render.SceneDOT(board.Root(), render.SceneOptions{})
//	png, err := render.RenderScene(ctx, dot, render.FormatPNG)
//
// This package uses [github.com/goccy/go-graphviz] for in-process layout;
// no external Graphviz installation is needed.
package render
