package board

import (
	"github.com/matzehuels/whiteboard/pkg/core/geom"
	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

// IsHit reports whether the point (x, y) hits el. A plugin without a
// HitTester is hit inside its bounding box; an unregistered type is never
// hit.
func (b *Board) IsHit(el *tree.Element, x, y float64) bool {
	switch p := b.pluginFor(el).(type) {
	case HitTester:
		return p.IsHit(b, el, x, y)
	case Boxer:
		r, ok := p.BBox(b, el)
		return ok && r.Contains(x, y)
	}
	return false
}

// BBox returns el's bounding box. It reports false when el's plugin is
// unregistered or has no Boxer.
func (b *Board) BBox(el *tree.Element) (geom.Rect, bool) {
	if p, ok := b.pluginFor(el).(Boxer); ok {
		return p.BBox(b, el)
	}
	return geom.Rect{}, false
}

// BBoxOf returns the union of the bounding boxes of els.
func (b *Board) BBoxOf(els []*tree.Element) (geom.Rect, bool) {
	var rs []geom.Rect
	for _, el := range els {
		if r, ok := b.BBox(el); ok {
			rs = append(rs, r)
		}
	}
	return geom.UnionAll(rs)
}

// HitTest returns the topmost root-level element hit by (x, y), or nil.
func (b *Board) HitTest(x, y float64) *tree.Element {
	children := b.root.Children
	for i := len(children) - 1; i >= 0; i-- {
		if b.IsHit(children[i], x, y) {
			return children[i]
		}
	}
	return nil
}

// IsSelectedBy reports whether el is selected by a drawn area.
func (b *Board) IsSelectedBy(el *tree.Element, area geom.Rect) bool {
	if p, ok := b.pluginFor(el).(SelectionTester); ok {
		return p.IsSelected(b, el, area)
	}
	r, ok := b.BBox(el)
	return ok && area.ContainsRect(r)
}

// ElementsInArea returns the root-level elements selected by area, in
// z-order.
func (b *Board) ElementsInArea(area geom.Rect) []*tree.Element {
	area = area.Normalize()
	var out []*tree.Element
	for _, el := range b.root.Children {
		if b.IsSelectedBy(el, area) {
			out = append(out, el)
		}
	}
	return out
}

// MoveElements translates els by (dx, dy). Containers move with their
// descendants; every element is moved at most once even if it is listed
// together with an ancestor. Elements without a Mover are left in place.
func (b *Board) MoveElements(els []*tree.Element, dx, dy float64) (BatchResult, error) {
	return b.applySets(els, func(el *tree.Element) tree.Props {
		if m, ok := b.pluginFor(el).(Mover); ok {
			return m.Move(b, el, dx, dy)
		}
		return nil
	})
}

// ResizeElements resizes els as a unit, from the box from to the box to.
func (b *Board) ResizeElements(els []*tree.Element, from, to geom.Rect) (BatchResult, error) {
	return b.applySets(els, func(el *tree.Element) tree.Props {
		if r, ok := b.pluginFor(el).(Resizer); ok {
			return r.Resize(b, el, from, to)
		}
		return nil
	})
}

// applySets turns per-element property changes into one set_node batch.
func (b *Board) applySets(els []*tree.Element, change func(*tree.Element) tree.Props) (BatchResult, error) {
	seen := make(map[string]struct{})
	var ops []op.Operation
	var visit func(el *tree.Element, p path.Path)
	visit = func(el *tree.Element, p path.Path) {
		if _, dup := seen[el.ID]; dup {
			return
		}
		seen[el.ID] = struct{}{}
		if props := change(el); len(props) > 0 {
			ops = append(ops, op.SetNode{Path: p.Clone(), Properties: prior(el, props), NewProperties: props})
		}
		for i, ch := range el.Children {
			visit(ch, path.Child(p, i))
		}
	}
	for _, el := range els {
		current, p, ok := b.Find(el.ID)
		if !ok {
			continue
		}
		visit(current, p)
	}
	if len(ops) == 0 {
		return BatchResult{}, nil
	}
	return b.ApplyBatch(ops)
}

// prior returns el's current values for the keys of props, the Properties
// half of a set_node.
func prior(el *tree.Element, props tree.Props) tree.Props {
	out := make(tree.Props, len(props))
	for k := range props {
		if v, ok := el.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

// RemoveElements removes els in one batch. Paths are computed up front and
// rebased as the batch runs, so removing a group and one of its children
// removes the group and drops the child's operation.
func (b *Board) RemoveElements(els []*tree.Element) (BatchResult, error) {
	var ops []op.Operation
	for _, el := range els {
		current, p, ok := b.Find(el.ID)
		if !ok {
			continue
		}
		ops = append(ops, op.RemoveNode{Path: p, Node: current})
	}
	if len(ops) == 0 {
		return BatchResult{}, nil
	}
	return b.ApplyBatch(ops)
}

// Select replaces the selection with els and area (which may be nil).
func (b *Board) Select(area *geom.Rect, els ...*tree.Element) error {
	next := Selection{SelectArea: area, SelectedElements: els}
	return b.Apply(op.SetSelection{Properties: b.selection.Props(), NewProperties: next.Props()})
}

// SetViewPort replaces the viewport with v.
func (b *Board) SetViewPort(v ViewPort) error {
	return b.Apply(op.SetViewport{Properties: b.viewPort.Props(), NewProperties: v.Props()})
}
