// Package path implements positional addresses into the whiteboard element
// tree.
//
// # Overview
//
// A [Path] is a sequence of child indices descending from the root
// container: the empty path addresses the root itself, [2] the third
// root-level element and [2 0] that element's first child.
//
// Paths are positional, not identity-stable. Inserting, removing or moving
// a node earlier in the same parent shifts the indices of every later
// sibling and all of their descendants. The op/transform package exists to
// re-express pending paths after such an edit.
//
// # Ordering
//
// [Compare] orders paths in depth-first document order by comparing the
// indices of their common prefix. A path and its ancestor compare equal:
// neither is "before" the other because one contains the other. [IsBefore]
// and [IsAfter] are strict on that ordering, [EndsBefore] answers the
// narrower question used by shift rules: does p end at a lower index under
// the same parent at which another path continues.
//
// All functions are pure and never mutate their arguments. Functions that
// return a Path always return a fresh slice.
package path

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned by [Parse] for strings that are not a
// comma- or slash-separated list of non-negative integers.
var ErrMalformed = errors.New("malformed path")

// Path addresses a node by the child indices leading to it from the root.
type Path []int

// Root is the empty path addressing the root container.
var Root = Path{}

// Clone returns a copy of p that does not share its backing array.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// IsRoot reports whether p addresses the root container.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Depth returns the number of indices in p.
func (p Path) Depth() int { return len(p) }

// String formats p as "[0 2 1]".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Parse reads a path written as "0,2,1", "0/2/1" or "[0 2 1]".
// The empty string and "[]" yield the root path.
func Parse(s string) (Path, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '/' || r == ' '
	})
	p := make(Path, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		p = append(p, n)
	}
	return p, nil
}

// Valid reports whether every index in p is non-negative.
// Valid does not check p against any tree.
func Valid(p Path) bool {
	for _, n := range p {
		if n < 0 {
			return false
		}
	}
	return true
}

// Parent returns the path of p's parent. The parent of a root-level path is
// the root. Parent panics on the root path, which has no parent.
func Parent(p Path) Path {
	if len(p) == 0 {
		panic("path: root has no parent")
	}
	return p[:len(p)-1].Clone()
}

// Last returns the index of p within its parent.
// Last panics on the root path.
func Last(p Path) int {
	if len(p) == 0 {
		panic("path: root has no index")
	}
	return p[len(p)-1]
}

// Child returns the path of the index-th child of p.
func Child(p Path, index int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, index)
}

// Next returns the path of the sibling immediately after p.
func Next(p Path) Path {
	out := p.Clone()
	out[len(out)-1]++
	return out
}

// Previous returns the path of the sibling immediately before p and false
// when p is the first child.
func Previous(p Path) (Path, bool) {
	if len(p) == 0 || p[len(p)-1] == 0 {
		return nil, false
	}
	out := p.Clone()
	out[len(out)-1]--
	return out, true
}

// Compare returns -1, 0 or 1 as a precedes, equals (or contains) or follows b
// in depth-first document order. Only the common prefix is compared, so an
// ancestor compares equal to its descendants.
func Compare(a, b Path) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Equal reports whether a and b address the same node.
func Equal(a, b Path) bool {
	return len(a) == len(b) && Compare(a, b) == 0
}

// IsBefore reports whether a precedes b in document order.
func IsBefore(a, b Path) bool { return Compare(a, b) == -1 }

// IsAfter reports whether a follows b in document order.
func IsAfter(a, b Path) bool { return Compare(a, b) == 1 }

// IsAncestor reports whether p is a strict ancestor of of.
// The root is an ancestor of every non-root path.
func IsAncestor(p, of Path) bool {
	return len(p) < len(of) && Compare(p, of) == 0
}

// IsDescendant reports whether p is a strict descendant of of.
func IsDescendant(p, of Path) bool { return IsAncestor(of, p) }

// IsSibling reports whether a and b are distinct children of the same parent.
func IsSibling(a, b Path) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	n := len(a) - 1
	return Equal(a[:n], b[:n]) && a[n] != b[n]
}

// EndsBefore reports whether p is a lower-indexed sibling of some ancestor
// of other (or of other itself). That is the exact condition under which
// removing p shifts other, and inserting at p does not.
func EndsBefore(p, other Path) bool {
	if len(p) == 0 || len(p) > len(other) {
		return false
	}
	i := len(p) - 1
	return Equal(p[:i], other[:i]) && p[i] < other[i]
}

// EndsAtOrBefore is like EndsBefore but also true when p and other share
// the index at p's depth. Insertions shift every path for which it holds.
func EndsAtOrBefore(p, other Path) bool {
	if len(p) == 0 || len(p) > len(other) {
		return false
	}
	i := len(p) - 1
	return Equal(p[:i], other[:i]) && p[i] <= other[i]
}

// Common returns the longest shared prefix of a and b.
func Common(a, b Path) Path {
	n := min(len(a), len(b))
	out := make(Path, 0, n)
	for i := 0; i < n && a[i] == b[i]; i++ {
		out = append(out, a[i])
	}
	return out
}

// Ancestors returns every strict ancestor of p from the root down,
// including the root path.
func Ancestors(p Path) []Path {
	out := make([]Path, 0, len(p))
	for i := 0; i < len(p); i++ {
		out = append(out, p[:i].Clone())
	}
	return out
}
