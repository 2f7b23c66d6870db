// Package transform re-expresses pending operations after another
// operation has been applied.
//
// # Overview
//
// A batch of operations is usually computed from one snapshot: a drag
// gesture reads every selected element's path and produces one operation
// per element. Applying them one after another changes the tree under the
// later ones, because paths are positional. This package provides the pure
// functions that map a not-yet-applied path or operation across an applied
// one so that it still targets the same logical node.
//
// # Shift Rules
//
// For an applied operation at path P with index i at P's depth:
//
//   - insert_node: paths under P's parent whose index at that depth is >= i
//     move one index up (descendants included).
//   - remove_node: paths equal to P or below it are invalidated; later
//     siblings and their descendants move one index down.
//   - move_node P→P': paths inside the moved subtree follow the node to P';
//     every other path takes the remove rule at P, then the insert rule at
//     P' (P' is measured after the removal, so the order matters).
//   - set_node, set_selection, set_viewport: no change.
//
// # Nodes and Positions
//
// [Path] transforms the address of an existing node. [Point] transforms an
// insertion position, which addresses the gap before a node rather than the
// node itself. The two differ only under removal: a position equal to the
// removed path still names a valid gap and survives, a node path does not.
//
// # Totality
//
// Every function is defined for every input. Nothing is bounds-checked:
// an out-of-range index such as [999] is shifted like any other, and the
// error surfaces only when the result is applied to a real tree. Root-level
// paths get no special treatment, and the root path itself is never
// shifted by sibling rules.
package transform

import (
	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/path"
)

// Path maps the node address p across applied. It returns false when the
// node p addressed was removed by applied.
func Path(p path.Path, applied op.Operation) (path.Path, bool) {
	return transform(p, applied, false)
}

// Point maps the insertion position p across applied. It returns false
// when the container p points into was removed.
func Point(p path.Path, applied op.Operation) (path.Path, bool) {
	return transform(p, applied, true)
}

func transform(p path.Path, applied op.Operation, position bool) (path.Path, bool) {
	switch o := applied.(type) {
	case op.InsertNode:
		return afterInsert(p, o.Path), true
	case op.RemoveNode:
		return afterRemove(p, o.Path, position)
	case op.MoveNode:
		return afterMove(p, o.Path, o.NewPath, position)
	}
	return p.Clone(), true
}

func afterInsert(p, at path.Path) path.Path {
	out := p.Clone()
	if path.EndsAtOrBefore(at, p) {
		out[len(at)-1]++
	}
	return out
}

func afterRemove(p, at path.Path, position bool) (path.Path, bool) {
	if path.IsAncestor(at, p) {
		return nil, false
	}
	if path.Equal(p, at) {
		if position {
			return p.Clone(), true
		}
		return nil, false
	}
	out := p.Clone()
	if path.EndsBefore(at, p) {
		out[len(at)-1]--
	}
	return out, true
}

func afterMove(p, from, to path.Path, position bool) (path.Path, bool) {
	if path.Equal(from, to) {
		return p.Clone(), true
	}
	inside := path.IsAncestor(from, p) || (!position && path.Equal(from, p))
	if inside {
		out := make(path.Path, 0, len(to)+len(p)-len(from))
		out = append(out, to...)
		return append(out, p[len(from):]...), true
	}
	q, ok := afterRemove(p, from, position)
	if !ok {
		return nil, false
	}
	return afterInsert(q, to), true
}

// Operation maps pending across applied. It returns false when pending
// targets a node that applied removed; such an operation must be dropped,
// not applied against whatever node now occupies its old path.
func Operation(pending, applied op.Operation) (op.Operation, bool) {
	switch o := pending.(type) {
	case op.InsertNode:
		p, ok := Point(o.Path, applied)
		if !ok {
			return nil, false
		}
		return op.InsertNode{Path: p, Node: o.Node}, true
	case op.RemoveNode:
		p, ok := Path(o.Path, applied)
		if !ok {
			return nil, false
		}
		return op.RemoveNode{Path: p, Node: o.Node}, true
	case op.SetNode:
		p, ok := Path(o.Path, applied)
		if !ok {
			return nil, false
		}
		return op.SetNode{Path: p, Properties: o.Properties, NewProperties: o.NewProperties}, true
	case op.MoveNode:
		return moveOperation(o, applied)
	}
	return pending, true
}

// moveOperation transforms a pending move. Its NewPath is relative to the
// tree without its own source node, so it is first lifted into the frame
// where the source is still present, transformed there as a position, and
// lowered again against the transformed source.
func moveOperation(o op.MoveNode, applied op.Operation) (op.Operation, bool) {
	src, ok := Path(o.Path, applied)
	if !ok {
		return nil, false
	}
	lifted := afterInsert(o.NewPath, o.Path)
	dst, ok := Point(lifted, applied)
	if !ok {
		return nil, false
	}
	lowered, ok := afterRemove(dst, src, true)
	if !ok {
		// The destination now lies inside the node being moved.
		return nil, false
	}
	return op.MoveNode{Path: src, NewPath: lowered}, true
}

// Rebase maps every operation in pending across applied. It returns the
// surviving operations in their original order and the indices (into
// pending) of those that were invalidated.
func Rebase(pending []op.Operation, applied op.Operation) ([]op.Operation, []int) {
	if !op.IsStructural(applied) {
		return pending, nil
	}
	kept := make([]op.Operation, 0, len(pending))
	var dropped []int
	for i, o := range pending {
		t, ok := Operation(o, applied)
		if !ok {
			dropped = append(dropped, i)
			continue
		}
		kept = append(kept, t)
	}
	return kept, dropped
}
