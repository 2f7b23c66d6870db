package op

import (
	"fmt"

	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

// ApplyTree performs a tree operation on d. It returns an error wrapping
// tree.ErrPathNotFound when a path does not resolve; the draft may then
// hold partial copies and must be discarded.
//
// Selection and viewport operations are not tree operations and are
// rejected with ErrInvalidOperation.
func ApplyTree(d *tree.Draft, o Operation) error {
	if err := Validate(o); err != nil {
		return err
	}
	switch o := o.(type) {
	case InsertNode:
		return d.Insert(o.Path, o.Node.Clone())
	case RemoveNode:
		_, err := d.Remove(o.Path)
		return err
	case SetNode:
		return d.Merge(o.Path, o.Properties, o.NewProperties)
	case MoveNode:
		if path.Equal(o.Path, o.NewPath) {
			_, err := d.Get(o.Path)
			return err
		}
		node, err := d.Remove(o.Path)
		if err != nil {
			return err
		}
		return d.Insert(o.NewPath, node)
	}
	return fmt.Errorf("%w: %s is not a tree operation", ErrInvalidOperation, o.Type())
}

// MergeProps applies set semantics to a flat record held as props and
// returns the result; current is not modified.
func MergeProps(current, oldProps, newProps tree.Props) tree.Props {
	out := make(tree.Props, len(current)+len(newProps))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range newProps {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	for k := range oldProps {
		if _, kept := newProps[k]; !kept {
			delete(out, k)
		}
	}
	return out
}

// Inverse returns the operation that undoes o when applied right after it.
func Inverse(o Operation) Operation {
	switch o := o.(type) {
	case InsertNode:
		return RemoveNode{Path: o.Path.Clone(), Node: o.Node}
	case RemoveNode:
		return InsertNode{Path: o.Path.Clone(), Node: o.Node}
	case SetNode:
		oldProps, newProps := invertProps(o.Properties, o.NewProperties)
		return SetNode{Path: o.Path.Clone(), Properties: oldProps, NewProperties: newProps}
	case MoveNode:
		return invertMove(o)
	case SetSelection:
		oldProps, newProps := invertProps(o.Properties, o.NewProperties)
		return SetSelection{Properties: oldProps, NewProperties: newProps}
	case SetViewport:
		oldProps, newProps := invertProps(o.Properties, o.NewProperties)
		return SetViewport{Properties: oldProps, NewProperties: newProps}
	}
	return o
}

// invertProps swaps the two property sets. A key introduced by the forward
// operation (absent from its Properties) is deleted by the inverse through a
// nil value.
func invertProps(oldProps, newProps tree.Props) (tree.Props, tree.Props) {
	inv := make(tree.Props, len(oldProps)+len(newProps))
	for k, v := range oldProps {
		inv[k] = v
	}
	for k := range newProps {
		if _, ok := oldProps[k]; !ok {
			inv[k] = nil
		}
	}
	prior := make(tree.Props, len(newProps))
	for k, v := range newProps {
		if v != nil {
			prior[k] = v
		}
	}
	return prior, inv
}

// invertMove returns the move taking a node from NewPath back to Path.
// Removing the node from NewPath restores the intermediate tree of the
// forward move, in which Path is exactly the insertion point that rebuilds
// the original, so the two paths simply swap.
func invertMove(o MoveNode) MoveNode {
	return MoveNode{Path: o.NewPath.Clone(), NewPath: o.Path.Clone()}
}
