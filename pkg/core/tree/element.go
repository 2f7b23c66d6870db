package tree

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/google/uuid"
)

// Reserved element keys. They are stored in Element fields rather than Props.
const (
	KeyID       = "id"
	KeyType     = "type"
	KeyGroupID  = "groupId"
	KeyChildren = "children"
)

// RootType is the type of the synthetic container at path [].
const RootType = "root"

// Props holds the type-specific fields of an element. Values must be
// JSON-compatible (numbers, strings, bools, nil, []any, map[string]any).
type Props map[string]any

// Float returns the numeric value stored under key. JSON numbers decode as
// float64, values set from Go may be any integer or float type.
func (p Props) Float(key string) (float64, bool) {
	return ToFloat(p[key])
}

// String returns the string stored under key.
func (p Props) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// ToFloat converts a JSON-compatible numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Element is a node of the whiteboard scene tree.
//
// Committed elements are immutable: they may be shared between successive
// snapshots of the tree. All changes go through a [Draft], which copies
// every element it modifies.
type Element struct {
	ID      string
	Type    string
	GroupID string
	// Children is nil for leaf elements. A non-nil (possibly empty) slice
	// marks the element as a container that paths may descend into.
	Children []*Element
	Props    Props
}

// New returns an element of the given type with a fresh ID.
func New(typ string, props Props) *Element {
	if props == nil {
		props = Props{}
	}
	return &Element{ID: NewID(), Type: typ, Props: props}
}

// NewID returns a new globally unique element ID.
func NewID() string { return uuid.NewString() }

// NewRoot returns a root container holding children.
func NewRoot(children []*Element) *Element {
	if children == nil {
		children = []*Element{}
	}
	return &Element{Type: RootType, Children: children}
}

// HasChildren reports whether e is a container.
func (e *Element) HasChildren() bool { return e.Children != nil }

// Get returns the value stored under key, including reserved keys.
func (e *Element) Get(key string) (any, bool) {
	switch key {
	case KeyID:
		return e.ID, true
	case KeyType:
		return e.Type, true
	case KeyGroupID:
		return e.GroupID, e.GroupID != ""
	case KeyChildren:
		return e.Children, e.Children != nil
	}
	v, ok := e.Props[key]
	return v, ok
}

// set stores value under key. Only drafts call it, on elements they own.
func (e *Element) set(key string, value any) error {
	switch key {
	case KeyID, KeyChildren:
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	case KeyType:
		s, ok := value.(string)
		if !ok || s == "" {
			return fmt.Errorf("%w: type must be a non-empty string", ErrInvalidValue)
		}
		e.Type = s
		return nil
	case KeyGroupID:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: groupId must be a string", ErrInvalidValue)
		}
		e.GroupID = s
		return nil
	}
	if e.Props == nil {
		e.Props = Props{}
	}
	e.Props[key] = value
	return nil
}

// unset deletes key. Only drafts call it, on elements they own.
func (e *Element) unset(key string) error {
	switch key {
	case KeyID, KeyChildren, KeyType:
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	case KeyGroupID:
		e.GroupID = ""
		return nil
	}
	delete(e.Props, key)
	return nil
}

// shallowClone copies e's fields, its props map and its children slice.
// Child elements themselves are shared.
func (e *Element) shallowClone() *Element {
	c := *e
	c.Props = maps.Clone(e.Props)
	if e.Children != nil {
		c.Children = slices.Clone(e.Children)
		if c.Children == nil {
			c.Children = []*Element{}
		}
	}
	return &c
}

// Clone returns a deep copy of e. Prop values that are maps or slices are
// copied too, so the result shares nothing with e.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := &Element{ID: e.ID, Type: e.Type, GroupID: e.GroupID}
	if e.Props != nil {
		c.Props = make(Props, len(e.Props))
		for k, v := range e.Props {
			c.Props[k] = cloneValue(v)
		}
	}
	if e.Children != nil {
		c.Children = make([]*Element, len(e.Children))
		for i, ch := range e.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	}
	return v
}

// Equal reports whether a and b are deep-equal, including their subtrees.
// A nil Props map equals an empty one.
func Equal(a, b *Element) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.ID != b.ID || a.Type != b.Type || a.GroupID != b.GroupID {
		return false
	}
	if len(a.Props) != 0 || len(b.Props) != 0 {
		if !reflect.DeepEqual(a.Props, b.Props) {
			return false
		}
	}
	if (a.Children == nil) != (b.Children == nil) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes e as a flat object: type-specific props sit beside
// id, type, groupId and children.
func (e *Element) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Props)+4)
	for k, v := range e.Props {
		m[k] = v
	}
	m[KeyID] = e.ID
	m[KeyType] = e.Type
	if e.GroupID != "" {
		m[KeyGroupID] = e.GroupID
	}
	if e.Children != nil {
		m[KeyChildren] = e.Children
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the flat object form written by MarshalJSON.
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Element{}
	if v, ok := raw[KeyID]; ok {
		if err := json.Unmarshal(v, &e.ID); err != nil {
			return fmt.Errorf("element id: %w", err)
		}
	}
	if v, ok := raw[KeyType]; ok {
		if err := json.Unmarshal(v, &e.Type); err != nil {
			return fmt.Errorf("element type: %w", err)
		}
	}
	if v, ok := raw[KeyGroupID]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &e.GroupID); err != nil {
			return fmt.Errorf("element groupId: %w", err)
		}
	}
	if v, ok := raw[KeyChildren]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &e.Children); err != nil {
			return fmt.Errorf("element %s children: %w", e.ID, err)
		}
		if e.Children == nil {
			e.Children = []*Element{}
		}
	}
	for k, v := range raw {
		switch k {
		case KeyID, KeyType, KeyGroupID, KeyChildren:
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("element %s field %q: %w", e.ID, k, err)
		}
		if e.Props == nil {
			e.Props = Props{}
		}
		e.Props[k] = val
	}
	return nil
}
