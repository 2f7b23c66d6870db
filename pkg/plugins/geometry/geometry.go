// Package geometry implements the built-in shape plugin.
//
// A geometry element is a rectangle, ellipse or diamond stored as flat
// properties:
//
//	{"id": "…", "type": "geometry", "shape": "ellipse",
//	 "x": 10, "y": 20, "width": 120, "height": 80,
//	 "fill": "#ffd43b", "stroke": "#343a40", "strokeWidth": 2}
//
// Width and height are kept non-negative; Move and Resize return the
// properties to change and leave applying them to the board.
package geometry

import (
	"math"
	"strings"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/core/geom"
	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
	"github.com/matzehuels/whiteboard/pkg/render"
)

// Type is the element type owned by the plugin.
const Type = "geometry"

// Shape selects the outline drawn inside an element's box.
type Shape string

const (
	Rect    Shape = "rect"
	Ellipse Shape = "ellipse"
	Diamond Shape = "diamond"
)

// Style holds the paint properties of a shape. Empty fields are omitted.
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// DefaultStyle is used by New when no style is given.
var DefaultStyle = Style{Fill: "none", Stroke: "#343a40", StrokeWidth: 2}

// Plugin is the geometry plugin. The zero value is ready to use.
type Plugin struct{}

var (
	_ board.Boxer     = Plugin{}
	_ board.HitTester = Plugin{}
	_ board.Mover     = Plugin{}
	_ board.Resizer   = Plugin{}
	_ board.Renderer  = Plugin{}
)

// Name returns Type.
func (Plugin) Name() string { return Type }

// New returns a geometry element with a fresh id.
func New(shape Shape, r geom.Rect, style ...Style) *tree.Element {
	s := DefaultStyle
	if len(style) > 0 {
		s = style[0]
	}
	r = r.Normalize()
	props := tree.Props{
		"shape":  string(shape),
		"x":      r.X,
		"y":      r.Y,
		"width":  r.Width,
		"height": r.Height,
	}
	if s.Fill != "" {
		props["fill"] = s.Fill
	}
	if s.Stroke != "" {
		props["stroke"] = s.Stroke
	}
	if s.StrokeWidth > 0 {
		props["strokeWidth"] = s.StrokeWidth
	}
	return tree.New(Type, props)
}

// Insert returns the operation that adds el on top of every root-level
// element of b.
func Insert(b *board.Board, el *tree.Element) op.InsertNode {
	return op.InsertNode{Path: path.Path{len(b.Children())}, Node: el}
}

// Bounds returns the box stored on el.
func Bounds(el *tree.Element) geom.Rect {
	x, _ := el.Props.Float("x")
	y, _ := el.Props.Float("y")
	w, _ := el.Props.Float("width")
	h, _ := el.Props.Float("height")
	return geom.Rect{X: x, Y: y, Width: w, Height: h}.Normalize()
}

// ShapeOf returns el's shape, defaulting to Rect.
func ShapeOf(el *tree.Element) Shape {
	if s, ok := el.Props.String("shape"); ok && s != "" {
		return Shape(s)
	}
	return Rect
}

// BBox returns the stored box, widened by half the stroke.
func (Plugin) BBox(_ *board.Board, el *tree.Element) (geom.Rect, bool) {
	r := Bounds(el)
	if sw, ok := el.Props.Float("strokeWidth"); ok && sw > 0 {
		r = r.Expand(sw / 2)
	}
	return r, true
}

// IsHit tests (x, y) against the outline of the shape, not just its box.
func (Plugin) IsHit(_ *board.Board, el *tree.Element, x, y float64) bool {
	r := Bounds(el)
	if !r.Contains(x, y) {
		return false
	}
	if r.Width == 0 || r.Height == 0 {
		return true
	}
	c := r.Center()
	nx := (x - c.X) / (r.Width / 2)
	ny := (y - c.Y) / (r.Height / 2)
	switch ShapeOf(el) {
	case Ellipse:
		return nx*nx+ny*ny <= 1
	case Diamond:
		return math.Abs(nx)+math.Abs(ny) <= 1
	}
	return true
}

// Move translates the box.
func (Plugin) Move(_ *board.Board, el *tree.Element, dx, dy float64) tree.Props {
	r := Bounds(el)
	return tree.Props{"x": r.X + dx, "y": r.Y + dy}
}

// Resize maps the box from the selection box from onto to.
func (Plugin) Resize(_ *board.Board, el *tree.Element, from, to geom.Rect) tree.Props {
	r := geom.MapRect(Bounds(el), from, to)
	return tree.Props{"x": r.X, "y": r.Y, "width": r.Width, "height": r.Height}
}

// Render draws the shape as an SVG element carrying the element id.
func (Plugin) Render(_ *board.Board, el *tree.Element, _ []*render.Node) *render.Node {
	r := Bounds(el)
	var n *render.Node
	switch ShapeOf(el) {
	case Ellipse:
		c := r.Center()
		n = render.El("ellipse",
			render.A("cx", c.X), render.A("cy", c.Y),
			render.A("rx", r.Width/2), render.A("ry", r.Height/2))
	case Diamond:
		c := r.Center()
		n = render.El("polygon", render.A("points", diamondPoints(r, c)))
	default:
		n = render.El("rect",
			render.A("x", r.X), render.A("y", r.Y),
			render.A("width", r.Width), render.A("height", r.Height))
	}
	n.Attrs = append([]render.Attr{render.A("id", el.ID)}, n.Attrs...)
	for _, key := range []string{"fill", "stroke"} {
		if v, ok := el.Props.String(key); ok {
			n.Set(key, v)
		}
	}
	if sw, ok := el.Props.Float("strokeWidth"); ok {
		n.Set("stroke-width", sw)
	}
	return n
}

func diamondPoints(r geom.Rect, c geom.Point) string {
	pts := []geom.Point{{X: c.X, Y: r.Y}, {X: r.MaxX(), Y: c.Y}, {X: c.X, Y: r.MaxY()}, {X: r.X, Y: c.Y}}
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = render.A("", p.X).Value + "," + render.A("", p.Y).Value
	}
	return strings.Join(parts, " ")
}
