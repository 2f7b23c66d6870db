package board

import (
	"fmt"

	"github.com/matzehuels/whiteboard/pkg/core/geom"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
	"github.com/matzehuels/whiteboard/pkg/render"
)

// boxPlugin owns "box" elements: rectangles stored as x, y, width, height.
type boxPlugin struct{}

func (boxPlugin) Name() string { return "box" }

func rectOf(el *tree.Element) geom.Rect {
	x, _ := el.Props.Float("x")
	y, _ := el.Props.Float("y")
	w, _ := el.Props.Float("width")
	h, _ := el.Props.Float("height")
	return geom.Rect{X: x, Y: y, Width: w, Height: h}
}

func (boxPlugin) BBox(_ *Board, el *tree.Element) (geom.Rect, bool) {
	return rectOf(el), true
}

func (boxPlugin) Move(_ *Board, el *tree.Element, dx, dy float64) tree.Props {
	r := rectOf(el)
	return tree.Props{"x": r.X + dx, "y": r.Y + dy}
}

func (boxPlugin) Resize(_ *Board, el *tree.Element, from, to geom.Rect) tree.Props {
	r := geom.MapRect(rectOf(el), from, to)
	return tree.Props{"x": r.X, "y": r.Y, "width": r.Width, "height": r.Height}
}

func (boxPlugin) Render(_ *Board, el *tree.Element, _ []*render.Node) *render.Node {
	r := rectOf(el)
	return render.El("rect", render.A("id", el.ID),
		render.A("x", r.X), render.A("y", r.Y),
		render.A("width", r.Width), render.A("height", r.Height))
}

// framePlugin owns "frame" containers; its box is the union of its
// children's.
type framePlugin struct{}

func (framePlugin) Name() string { return "frame" }

func (framePlugin) BBox(b *Board, el *tree.Element) (geom.Rect, bool) {
	return b.BBoxOf(el.Children)
}

func (framePlugin) Render(_ *Board, el *tree.Element, children []*render.Node) *render.Node {
	return render.El("g", render.A("id", el.ID)).Append(children...)
}

// recorder is an input-only plugin that logs the events it sees.
type recorder struct {
	name   string
	log    *[]string
	result bool
	init   int
	gone   int
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Handlers() Handlers {
	h := func(_ *Board, e *Event) bool {
		*r.log = append(*r.log, r.name+":"+string(e.Type))
		return r.result
	}
	return Handlers{MouseDown: h, KeyDown: h, GlobalKeyDown: h}
}

func (r *recorder) Init(*Board)    { r.init++ }
func (r *recorder) Destroy(*Board) { r.gone++ }

func box(id string, x, y float64) *tree.Element {
	return &tree.Element{ID: id, Type: "box", Props: tree.Props{"x": x, "y": y, "width": 10.0, "height": 10.0}}
}

func frame(id string, children ...*tree.Element) *tree.Element {
	if children == nil {
		children = []*tree.Element{}
	}
	return &tree.Element{ID: id, Type: "frame", Children: children}
}

func newBoard(children ...*tree.Element) *Board {
	b, err := New(WithData(Data{Children: children}), WithPlugins(boxPlugin{}, framePlugin{}))
	if err != nil {
		panic(err)
	}
	return b
}

func order(b *Board) string {
	ids := make([]string, len(b.Children()))
	for i, el := range b.Children() {
		ids[i] = el.ID
	}
	return fmt.Sprint(ids)
}

// funcPlugin is an input-only plugin built from a handler table.
type funcPlugin struct {
	name string
	h    Handlers
}

func (p funcPlugin) Name() string       { return p.name }
func (p funcPlugin) Handlers() Handlers { return p.h }
