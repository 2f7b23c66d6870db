// Package tree implements the whiteboard scene tree: elements, path lookup
// and the copy-on-write draft used to produce new immutable snapshots.
//
// # Snapshots
//
// A tree is identified by its root container ([NewRoot]). Once a root has
// been handed out it is never modified. A [Draft] opened over a root copies
// an element the first time it is modified, and copies every ancestor on
// the way down so that the new parent points at the copy. [Draft.Finalize]
// returns the new root. Elements the draft never touched are shared, by
// pointer, between the old and the new snapshot:
//
//	d := tree.NewDraft(root)
//	el, _ := d.Mutable(path.Path{3})
//	// ... modify el through draft methods ...
//	next := d.Finalize() // root != next, root.Children[0] == next.Children[0]
//
// Discarding a draft without calling Finalize leaves the original root
// untouched, which is how failed operations are rolled back.
//
// # Lookup
//
// [GetNodeByPath] resolves a positional path and fails with
// [ErrPathNotFound] when an index is out of range or descends into an
// element without a children container. [GetPathByElement] goes the other
// way, searching depth-first by ID; a miss is reported with a boolean
// rather than an error because callers treat it as "no longer applicable".
package tree

import (
	"errors"
	"fmt"

	"github.com/matzehuels/whiteboard/pkg/core/path"
)

var (
	// ErrPathNotFound is returned when a path does not resolve against a tree.
	ErrPathNotFound = errors.New("path not found")

	// ErrReservedKey is returned when a draft is asked to set or delete a key
	// that cannot change through properties (id, children, and deleting type).
	ErrReservedKey = errors.New("reserved element key")

	// ErrInvalidValue is returned when a reserved key is set to a value of the
	// wrong type.
	ErrInvalidValue = errors.New("invalid element value")
)

// PathError records the path that failed to resolve and where.
type PathError struct {
	Path  path.Path
	Depth int    // index into Path at which resolution failed
	Cause string // short reason, e.g. "index out of range"
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("path %v: %s at depth %d: %v", e.Path, e.Cause, e.Depth, ErrPathNotFound)
}

// Unwrap returns ErrPathNotFound.
func (e *PathError) Unwrap() error { return ErrPathNotFound }

// GetNodeByPath returns the node addressed by p under root. The root path
// returns root itself.
func GetNodeByPath(root *Element, p path.Path) (*Element, error) {
	n := root
	for depth, i := range p {
		next, err := child(n, i)
		if err != nil {
			return nil, &PathError{Path: p.Clone(), Depth: depth, Cause: err.Error()}
		}
		n = next
	}
	return n, nil
}

func child(n *Element, i int) (*Element, error) {
	if n.Children == nil {
		return nil, errors.New("node has no children")
	}
	if i < 0 || i >= len(n.Children) {
		return nil, errors.New("index out of range")
	}
	return n.Children[i], nil
}

// Has reports whether p resolves under root.
func Has(root *Element, p path.Path) bool {
	_, err := GetNodeByPath(root, p)
	return err == nil
}

// GetPathByElement returns the path of the element with el's ID.
// It reports false when no such element exists under root.
func GetPathByElement(root *Element, el *Element) (path.Path, bool) {
	if el == nil {
		return nil, false
	}
	_, p, ok := Find(root, el.ID)
	return p, ok
}

// Find returns the element with the given ID and its path.
func Find(root *Element, id string) (*Element, path.Path, bool) {
	var (
		found *Element
		at    path.Path
	)
	Walk(root, func(el *Element, p path.Path) bool {
		if el.ID == id {
			found, at = el, p.Clone()
			return false
		}
		return true
	})
	return found, at, found != nil
}

// Walk visits every element below root depth-first in document order.
// Returning false from fn stops the walk. The path passed to fn is reused
// between calls; clone it to keep it.
func Walk(root *Element, fn func(el *Element, p path.Path) bool) {
	walk(root.Children, make(path.Path, 0, 8), fn)
}

func walk(children []*Element, p path.Path, fn func(*Element, path.Path) bool) bool {
	for i, ch := range children {
		cp := append(p, i)
		if !fn(ch, cp) {
			return false
		}
		if !walk(ch.Children, cp, fn) {
			return false
		}
	}
	return true
}

// Count returns the number of elements below root.
func Count(root *Element) int {
	n := 0
	Walk(root, func(*Element, path.Path) bool { n++; return true })
	return n
}
