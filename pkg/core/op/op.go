// Package op defines the operations that mutate a whiteboard.
//
// # Overview
//
// Operations are the only sanctioned way to change the element tree, the
// viewport or the selection. Each is a small value describing one atomic
// mutation; the board applies them transactionally and emits change events.
//
// There are six variants:
//
//   - [InsertNode]: insert a node at a path, shifting later siblings up
//   - [RemoveNode]: remove the node at a path, shifting later siblings down
//   - [SetNode]: merge properties onto the node at a path
//   - [MoveNode]: remove a node and re-insert it at NewPath
//   - [SetSelection]: merge properties onto the selection record
//   - [SetViewport]: merge properties onto the viewport record
//
// # Set Semantics
//
// The three set-style operations carry the prior values (Properties) next
// to the new ones (NewProperties). Every key of NewProperties is written;
// a nil value deletes the key; a key present in Properties but missing from
// NewProperties is deleted as well. Keeping the prior values makes every
// operation invertible, see [Inverse].
//
// # Move Semantics
//
// MoveNode.NewPath is expressed against the tree after the node has been
// removed from Path. Moving the first of five siblings to the end is
// therefore Path [0], NewPath [4]. The engine never adjusts NewPath.
//
// # Wire Format
//
// Operations encode as JSON objects tagged by "type":
//
//	{"type":"insert_node","path":[1],"node":{"id":"a","type":"geometry"}}
//	{"type":"move_node","path":[0],"newPath":[2]}
//
// Use [Marshal], [Unmarshal] and [UnmarshalList].
package op

import (
	"errors"
	"fmt"

	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

// Type names an operation variant.
type Type string

// Operation types, as they appear on the wire.
const (
	TypeInsertNode   Type = "insert_node"
	TypeRemoveNode   Type = "remove_node"
	TypeSetNode      Type = "set_node"
	TypeMoveNode     Type = "move_node"
	TypeSetSelection Type = "set_selection"
	TypeSetViewport  Type = "set_viewport"
)

// ErrInvalidOperation is returned for operations that are malformed
// regardless of the tree they are applied to.
var ErrInvalidOperation = errors.New("invalid operation")

// Operation is one atomic mutation. The concrete types are InsertNode,
// RemoveNode, SetNode, MoveNode, SetSelection and SetViewport.
type Operation interface {
	Type() Type
	isOperation()
}

// InsertNode inserts Node at Path.
type InsertNode struct {
	Path path.Path     `json:"path"`
	Node *tree.Element `json:"node"`
}

// RemoveNode removes the node at Path. Node holds the removed value so the
// operation can be inverted; it is not checked on apply.
type RemoveNode struct {
	Path path.Path     `json:"path"`
	Node *tree.Element `json:"node,omitempty"`
}

// SetNode merges NewProperties onto the node at Path.
type SetNode struct {
	Path          path.Path  `json:"path"`
	Properties    tree.Props `json:"properties"`
	NewProperties tree.Props `json:"newProperties"`
}

// MoveNode moves the node at Path to NewPath. NewPath is computed against
// the tree after the node has been removed.
type MoveNode struct {
	Path    path.Path `json:"path"`
	NewPath path.Path `json:"newPath"`
}

// SetSelection merges NewProperties onto the selection record.
type SetSelection struct {
	Properties    tree.Props `json:"properties"`
	NewProperties tree.Props `json:"newProperties"`
}

// SetViewport merges NewProperties onto the viewport record.
type SetViewport struct {
	Properties    tree.Props `json:"properties"`
	NewProperties tree.Props `json:"newProperties"`
}

func (InsertNode) Type() Type   { return TypeInsertNode }
func (RemoveNode) Type() Type   { return TypeRemoveNode }
func (SetNode) Type() Type      { return TypeSetNode }
func (MoveNode) Type() Type     { return TypeMoveNode }
func (SetSelection) Type() Type { return TypeSetSelection }
func (SetViewport) Type() Type  { return TypeSetViewport }

func (InsertNode) isOperation()   {}
func (RemoveNode) isOperation()   {}
func (SetNode) isOperation()      {}
func (MoveNode) isOperation()     {}
func (SetSelection) isOperation() {}
func (SetViewport) isOperation()  {}

// IsTreeOperation reports whether o changes the element tree.
func IsTreeOperation(o Operation) bool {
	switch o.(type) {
	case InsertNode, RemoveNode, SetNode, MoveNode:
		return true
	}
	return false
}

// IsStructural reports whether o changes the shape of the tree, and so may
// invalidate paths computed before it.
func IsStructural(o Operation) bool {
	switch o.(type) {
	case InsertNode, RemoveNode, MoveNode:
		return true
	}
	return false
}

// Validate checks o for problems independent of any tree: missing paths,
// negative indices and root targets.
func Validate(o Operation) error {
	switch o := o.(type) {
	case InsertNode:
		if o.Node == nil {
			return fmt.Errorf("%w: insert_node without node", ErrInvalidOperation)
		}
		return checkNodePath(o.Type(), o.Path)
	case RemoveNode:
		return checkNodePath(o.Type(), o.Path)
	case SetNode:
		return checkNodePath(o.Type(), o.Path)
	case MoveNode:
		if err := checkNodePath(o.Type(), o.Path); err != nil {
			return err
		}
		// NewPath addresses the tree without the moved subtree, so it
		// cannot point inside it; only well-formedness is checked here.
		if err := checkNodePath(o.Type(), o.NewPath); err != nil {
			return err
		}
	case SetSelection, SetViewport:
	case nil:
		return fmt.Errorf("%w: nil operation", ErrInvalidOperation)
	default:
		return fmt.Errorf("%w: unknown operation %T", ErrInvalidOperation, o)
	}
	return nil
}

func checkNodePath(t Type, p path.Path) error {
	if p.IsRoot() {
		return fmt.Errorf("%w: %s cannot target the root", ErrInvalidOperation, t)
	}
	if !path.Valid(p) {
		return fmt.Errorf("%w: %s path %v has negative index", ErrInvalidOperation, t, p)
	}
	return nil
}

// Paths returns the node paths o addresses: Path for node operations, Path
// and NewPath for moves, nothing for selection and viewport operations.
func Paths(o Operation) []path.Path {
	switch o := o.(type) {
	case InsertNode:
		return []path.Path{o.Path}
	case RemoveNode:
		return []path.Path{o.Path}
	case SetNode:
		return []path.Path{o.Path}
	case MoveNode:
		return []path.Path{o.Path, o.NewPath}
	}
	return nil
}
