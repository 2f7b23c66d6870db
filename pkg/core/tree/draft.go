package tree

import (
	"fmt"

	"github.com/matzehuels/whiteboard/pkg/core/path"
)

// Draft is a mutable working copy of a tree. It copies elements lazily,
// the first time each is modified, and never writes to the base tree.
// A Draft must not be used after Finalize.
type Draft struct {
	base  *Element
	root  *Element
	owned map[*Element]struct{}
}

// NewDraft opens a draft over root.
func NewDraft(root *Element) *Draft {
	return &Draft{base: root, root: root, owned: make(map[*Element]struct{})}
}

// Base returns the root the draft was opened over.
func (d *Draft) Base() *Element { return d.base }

// Root returns the draft's current root, which is the base root until the
// first modification.
func (d *Draft) Root() *Element { return d.root }

// Dirty reports whether the draft has modified anything.
func (d *Draft) Dirty() bool { return d.root != d.base }

// Get resolves p against the draft's current state.
func (d *Draft) Get(p path.Path) (*Element, error) {
	return GetNodeByPath(d.root, p)
}

// Finalize returns the new root and closes the draft. If nothing was
// modified, the base root is returned unchanged.
func (d *Draft) Finalize() *Element {
	root := d.root
	d.owned = nil
	return root
}

func (d *Draft) own(e *Element) *Element {
	if _, ok := d.owned[e]; ok {
		return e
	}
	c := e.shallowClone()
	d.owned[c] = struct{}{}
	return c
}

// Mutable returns a draft-owned copy of the node at p, copying it and each
// of its ancestors if they are still shared with the base tree.
func (d *Draft) Mutable(p path.Path) (*Element, error) {
	if _, err := d.Get(p); err != nil {
		return nil, err
	}
	d.root = d.own(d.root)
	n := d.root
	for _, i := range p {
		c := d.own(n.Children[i])
		n.Children[i] = c
		n = c
	}
	return n, nil
}

// Insert places el at p, shifting the node currently at p and its later
// siblings one index up. Index len(children) appends. The parent must be a
// container.
func (d *Draft) Insert(p path.Path, el *Element) error {
	if p.IsRoot() {
		return &PathError{Path: p.Clone(), Cause: "cannot insert at root"}
	}
	parentPath, index := path.Parent(p), path.Last(p)
	parent, err := d.Get(parentPath)
	if err != nil {
		return err
	}
	if parent.Children == nil {
		return &PathError{Path: p.Clone(), Depth: len(p) - 1, Cause: "parent has no children"}
	}
	if index < 0 || index > len(parent.Children) {
		return &PathError{Path: p.Clone(), Depth: len(p) - 1, Cause: "index out of range"}
	}
	parent, _ = d.Mutable(parentPath)
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[index+1:], parent.Children[index:])
	parent.Children[index] = el
	return nil
}

// Remove detaches and returns the node at p. Later siblings shift one
// index down.
func (d *Draft) Remove(p path.Path) (*Element, error) {
	if p.IsRoot() {
		return nil, &PathError{Path: p.Clone(), Cause: "cannot remove root"}
	}
	target, err := d.Get(p)
	if err != nil {
		return nil, err
	}
	parent, _ := d.Mutable(path.Parent(p))
	index := path.Last(p)
	parent.Children = append(parent.Children[:index], parent.Children[index+1:]...)
	return target, nil
}

// Merge applies set-style property semantics to the node at p: every key in
// newProps is set, nil values delete their key, and keys present in
// oldProps but absent from newProps are deleted.
func (d *Draft) Merge(p path.Path, oldProps, newProps Props) error {
	if p.IsRoot() {
		return &PathError{Path: p.Clone(), Cause: "cannot set properties on root"}
	}
	n, err := d.Mutable(p)
	if err != nil {
		return err
	}
	for k, v := range newProps {
		if v == nil {
			err = n.unset(k)
		} else {
			err = n.set(k, cloneValue(v))
		}
		if err != nil {
			return fmt.Errorf("set %s on %v: %w", k, p, err)
		}
	}
	for k := range oldProps {
		if _, kept := newProps[k]; kept {
			continue
		}
		if err := n.unset(k); err != nil {
			return fmt.Errorf("unset %s on %v: %w", k, p, err)
		}
	}
	return nil
}
