// Package group implements the group container plugin.
//
// A group is an element of type "group" whose children are the grouped
// elements; every child carries the group's id in groupId. Groups have no
// geometry of their own: their box is the union of their children's, they
// are hit when a child is hit, and moving or resizing a group reaches the
// children through the board's descendant traversal.
//
// Grouping and ungrouping are expressed as batches built against the
// current snapshot; the board rebases the later operations of each batch
// across the earlier ones.
package group

import (
	"slices"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/core/geom"
	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
	"github.com/matzehuels/whiteboard/pkg/render"
)

// Type is the element type owned by the plugin.
const Type = "group"

// Plugin is the group plugin.
type Plugin struct{}

// Name returns Type.
func (Plugin) Name() string { return Type }

// BBox returns the union of the children's boxes.
func (Plugin) BBox(b *board.Board, el *tree.Element) (geom.Rect, bool) {
	return b.BBoxOf(el.Children)
}

// IsHit reports whether any child is hit.
func (Plugin) IsHit(b *board.Board, el *tree.Element, x, y float64) bool {
	for _, ch := range el.Children {
		if b.IsHit(ch, x, y) {
			return true
		}
	}
	return false
}

// Render wraps the rendered children in an SVG group.
func (Plugin) Render(_ *board.Board, el *tree.Element, children []*render.Node) *render.Node {
	return render.El("g", render.A("id", el.ID), render.A("class", Type)).Append(children...)
}

// Group returns the batch that replaces the root-level elements els with
// one group holding them, in z-order, at the position of the lowest of
// them. Elements that are not on the root level are ignored. It returns a
// nil batch when fewer than two elements qualify.
func Group(b *board.Board, els []*tree.Element) ([]op.Operation, *tree.Element) {
	var idx []int
	for _, el := range els {
		_, p, ok := b.Find(el.ID)
		if ok && len(p) == 1 && !slices.Contains(idx, p[0]) {
			idx = append(idx, p[0])
		}
	}
	if len(idx) < 2 {
		return nil, nil
	}
	slices.Sort(idx)

	g := tree.New(Type, nil)
	g.Children = make([]*tree.Element, 0, len(idx))
	ops := make([]op.Operation, 0, len(idx)+1)
	for _, i := range idx {
		cur := b.Children()[i]
		member := cur.Clone()
		member.GroupID = g.ID
		g.Children = append(g.Children, member)
		ops = append(ops, op.RemoveNode{Path: path.Path{i}, Node: cur})
	}
	ops = append(ops, op.InsertNode{Path: path.Path{idx[0]}, Node: g})
	return ops, g
}

// Ungroup returns the batch that replaces the group g with its children,
// in place. It returns nil if g is not a group on the board.
func Ungroup(b *board.Board, g *tree.Element) []op.Operation {
	cur, p, ok := b.Find(g.ID)
	if !ok || cur.Type != Type {
		return nil
	}
	ops := []op.Operation{op.RemoveNode{Path: p, Node: cur}}
	for _, ch := range cur.Children {
		member := ch.Clone()
		member.GroupID = ""
		// Every insert targets p; each one shifts the later ones past it.
		ops = append(ops, op.InsertNode{Path: p.Clone(), Node: member})
	}
	return ops
}
