package op

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

// wireOp is the union of every variant's fields plus the type tag.
type wireOp struct {
	Type          Type          `json:"type"`
	Path          path.Path     `json:"path,omitempty"`
	NewPath       path.Path     `json:"newPath,omitempty"`
	Node          *tree.Element `json:"node,omitempty"`
	Properties    tree.Props    `json:"properties,omitempty"`
	NewProperties tree.Props    `json:"newProperties,omitempty"`
}

// Marshal encodes o in its tagged wire form.
func Marshal(o Operation) ([]byte, error) {
	w, err := toWire(o)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// MarshalList encodes a batch as a JSON array.
func MarshalList(ops []Operation) ([]byte, error) {
	ws := make([]wireOp, len(ops))
	for i, o := range ops {
		w, err := toWire(o)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ws[i] = w
	}
	return json.Marshal(ws)
}

func toWire(o Operation) (wireOp, error) {
	switch o := o.(type) {
	case InsertNode:
		return wireOp{Type: o.Type(), Path: nonNil(o.Path), Node: o.Node}, nil
	case RemoveNode:
		return wireOp{Type: o.Type(), Path: nonNil(o.Path), Node: o.Node}, nil
	case SetNode:
		return wireOp{Type: o.Type(), Path: nonNil(o.Path), Properties: o.Properties, NewProperties: o.NewProperties}, nil
	case MoveNode:
		return wireOp{Type: o.Type(), Path: nonNil(o.Path), NewPath: nonNil(o.NewPath)}, nil
	case SetSelection:
		return wireOp{Type: o.Type(), Properties: o.Properties, NewProperties: o.NewProperties}, nil
	case SetViewport:
		return wireOp{Type: o.Type(), Properties: o.Properties, NewProperties: o.NewProperties}, nil
	}
	return wireOp{}, fmt.Errorf("%w: unknown operation %T", ErrInvalidOperation, o)
}

func nonNil(p path.Path) path.Path {
	if p == nil {
		return path.Path{}
	}
	return p
}

// Unmarshal decodes one tagged operation.
func Unmarshal(data []byte) (Operation, error) {
	var w wireOp
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	return fromWire(w)
}

// UnmarshalList decodes a JSON array of tagged operations.
func UnmarshalList(data []byte) ([]Operation, error) {
	var ws []wireOp
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	ops := make([]Operation, len(ws))
	for i, w := range ws {
		o, err := fromWire(w)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops[i] = o
	}
	return ops, nil
}

func fromWire(w wireOp) (Operation, error) {
	var o Operation
	switch w.Type {
	case TypeInsertNode:
		o = InsertNode{Path: w.Path, Node: w.Node}
	case TypeRemoveNode:
		o = RemoveNode{Path: w.Path, Node: w.Node}
	case TypeSetNode:
		o = SetNode{Path: w.Path, Properties: w.Properties, NewProperties: w.NewProperties}
	case TypeMoveNode:
		o = MoveNode{Path: w.Path, NewPath: w.NewPath}
	case TypeSetSelection:
		o = SetSelection{Properties: w.Properties, NewProperties: w.NewProperties}
	case TypeSetViewport:
		o = SetViewport{Properties: w.Properties, NewProperties: w.NewProperties}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidOperation, w.Type)
	}
	if err := Validate(o); err != nil {
		return nil, err
	}
	return o, nil
}
