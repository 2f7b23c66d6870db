package board

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/whiteboard/pkg/core/geom"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

// Record keys of the viewport and selection, as used in set_viewport and
// set_selection properties.
const (
	KeyMinX             = "minX"
	KeyMinY             = "minY"
	KeyWidth            = "width"
	KeyHeight           = "height"
	KeyZoom             = "zoom"
	KeySelectArea       = "selectArea"
	KeySelectedElements = "selectedElements"
)

// Data is the persisted form of a board. It round-trips through JSON.
type Data struct {
	Children  []*tree.Element `json:"children"`
	ViewPort  ViewPort        `json:"viewPort"`
	Selection Selection       `json:"selection"`
	// PresentationSequences belongs to the presentation feature and is
	// carried through unchanged.
	PresentationSequences json.RawMessage `json:"presentationSequences,omitempty"`
}

// Validate checks that every element has an id and a type and that ids are
// unique.
func (d Data) Validate() error {
	seen := make(map[string]struct{})
	var err error
	tree.Walk(tree.NewRoot(d.Children), func(el *tree.Element, p path.Path) bool {
		err = checkElement(el, seen)
		if err != nil {
			err = fmt.Errorf("element at %v: %w", p, err)
			return false
		}
		return true
	})
	return err
}

func checkElement(el *tree.Element, seen map[string]struct{}) error {
	switch {
	case el == nil:
		return fmt.Errorf("%w: nil element", ErrInvalidElement)
	case el.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidElement)
	case el.Type == "":
		return fmt.Errorf("%w: %s has no type", ErrInvalidElement, el.ID)
	}
	if _, dup := seen[el.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
	}
	seen[el.ID] = struct{}{}
	return nil
}

// ParseData decodes a persisted board. An empty document decodes to an
// empty board.
func ParseData(b []byte) (Data, error) {
	var d Data
	if len(b) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return Data{}, fmt.Errorf("decode board data: %w", err)
	}
	return d, d.Validate()
}

// ViewPort is the visible logical rectangle and zoom factor. Screen pixels
// map to logical units as screen = (logical - min) * zoom.
type ViewPort struct {
	MinX   float64 `json:"minX"`
	MinY   float64 `json:"minY"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Zoom   float64 `json:"zoom"`
}

// DefaultViewPort returns the viewport of a fresh board.
func DefaultViewPort() ViewPort {
	return ViewPort{Width: 800, Height: 600, Zoom: 1}
}

// Rect returns the visible logical rectangle.
func (v ViewPort) Rect() geom.Rect {
	return geom.Rect{X: v.MinX, Y: v.MinY, Width: v.Width, Height: v.Height}
}

func (v ViewPort) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToBoard converts a screen position, relative to the canvas origin, into
// logical board coordinates.
func (v ViewPort) ToBoard(sx, sy float64) geom.Point {
	z := v.zoom()
	return geom.Point{X: v.MinX + sx/z, Y: v.MinY + sy/z}
}

// ToScreen converts logical board coordinates into a screen position.
func (v ViewPort) ToScreen(x, y float64) geom.Point {
	z := v.zoom()
	return geom.Point{X: (x - v.MinX) * z, Y: (y - v.MinY) * z}
}

// Pan returns v scrolled by a screen-space delta.
func (v ViewPort) Pan(dsx, dsy float64) ViewPort {
	z := v.zoom()
	v.MinX += dsx / z
	v.MinY += dsy / z
	return v
}

// ZoomAt returns v zoomed to zoom while keeping the logical point under the
// screen position (sx, sy) in place.
func (v ViewPort) ZoomAt(zoom, sx, sy float64) ViewPort {
	if zoom <= 0 {
		return v
	}
	anchor := v.ToBoard(sx, sy)
	ratio := v.zoom() / zoom
	return ViewPort{
		MinX:   anchor.X - sx/zoom,
		MinY:   anchor.Y - sy/zoom,
		Width:  v.Width * ratio,
		Height: v.Height * ratio,
		Zoom:   zoom,
	}
}

// Fit returns a viewport of the same screen size centered on r, zoomed so
// that r plus padding is fully visible.
func (v ViewPort) Fit(r geom.Rect, padding float64) ViewPort {
	r = r.Normalize().Expand(padding)
	if r.IsEmpty() || v.Width <= 0 || v.Height <= 0 {
		return v
	}
	screenW, screenH := v.Width*v.zoom(), v.Height*v.zoom()
	zoom := min(screenW/r.Width, screenH/r.Height)
	w, h := screenW/zoom, screenH/zoom
	c := r.Center()
	return ViewPort{MinX: c.X - w/2, MinY: c.Y - h/2, Width: w, Height: h, Zoom: zoom}
}

// Props returns v as set_viewport properties.
func (v ViewPort) Props() tree.Props {
	return tree.Props{
		KeyMinX:   v.MinX,
		KeyMinY:   v.MinY,
		KeyWidth:  v.Width,
		KeyHeight: v.Height,
		KeyZoom:   v.Zoom,
	}
}

// viewPortFromProps reads the record produced by merging set_viewport
// properties. Unknown keys are ignored; missing keys read as zero.
func viewPortFromProps(p tree.Props) (ViewPort, error) {
	var v ViewPort
	fields := []struct {
		key string
		dst *float64
	}{
		{KeyMinX, &v.MinX}, {KeyMinY, &v.MinY},
		{KeyWidth, &v.Width}, {KeyHeight, &v.Height},
		{KeyZoom, &v.Zoom},
	}
	for _, f := range fields {
		raw, ok := p[f.key]
		if !ok {
			continue
		}
		n, ok := tree.ToFloat(raw)
		if !ok {
			return ViewPort{}, fmt.Errorf("%w: viewport %s = %v", ErrInvalidValue, f.key, raw)
		}
		*f.dst = n
	}
	return v, nil
}

// Selection is the interactive selection. SelectedElements references
// elements of the current tree; the board refreshes the references after
// every commit and drops elements that no longer exist.
type Selection struct {
	SelectArea       *geom.Rect      `json:"selectArea"`
	SelectedElements []*tree.Element `json:"selectedElements"`
}

// IsEmpty reports whether nothing is selected and no area is being drawn.
func (s Selection) IsEmpty() bool {
	return s.SelectArea == nil && len(s.SelectedElements) == 0
}

// Contains reports whether an element with el's id is selected.
func (s Selection) Contains(el *tree.Element) bool {
	if el == nil {
		return false
	}
	for _, sel := range s.SelectedElements {
		if sel.ID == el.ID {
			return true
		}
	}
	return false
}

// IDs returns the ids of the selected elements in selection order.
func (s Selection) IDs() []string {
	ids := make([]string, len(s.SelectedElements))
	for i, el := range s.SelectedElements {
		ids[i] = el.ID
	}
	return ids
}

// Props returns s as set_selection properties. Selected elements are
// recorded by id.
func (s Selection) Props() tree.Props {
	var area any
	if s.SelectArea != nil {
		area = *s.SelectArea
	}
	return tree.Props{KeySelectArea: area, KeySelectedElements: s.IDs()}
}

// selectionFromProps resolves a merged set_selection record against root.
// selectedElements may hold elements, ids, or decoded JSON objects with an
// "id" field; entries that do not resolve are dropped.
func selectionFromProps(p tree.Props, root *tree.Element) (Selection, error) {
	var s Selection
	if raw, ok := p[KeySelectArea]; ok && raw != nil {
		r, err := toRect(raw)
		if err != nil {
			return Selection{}, err
		}
		s.SelectArea = &r
	}
	ids, err := toIDs(p[KeySelectedElements])
	if err != nil {
		return Selection{}, err
	}
	s.SelectedElements = resolve(root, ids)
	return s, nil
}

func toRect(v any) (geom.Rect, error) {
	switch r := v.(type) {
	case geom.Rect:
		return r, nil
	case *geom.Rect:
		if r != nil {
			return *r, nil
		}
	case map[string]any:
		var out geom.Rect
		dst := map[string]*float64{"x": &out.X, "y": &out.Y, "width": &out.Width, "height": &out.Height}
		for k, ptr := range dst {
			n, ok := tree.ToFloat(r[k])
			if !ok {
				return geom.Rect{}, fmt.Errorf("%w: selectArea.%s = %v", ErrInvalidValue, k, r[k])
			}
			*ptr = n
		}
		return out, nil
	}
	return geom.Rect{}, fmt.Errorf("%w: selectArea = %v", ErrInvalidValue, v)
}

func toIDs(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []*tree.Element:
		ids := make([]string, 0, len(t))
		for _, el := range t {
			if el != nil {
				ids = append(ids, el.ID)
			}
		}
		return ids, nil
	case []any:
		ids := make([]string, 0, len(t))
		for _, item := range t {
			switch e := item.(type) {
			case string:
				ids = append(ids, e)
			case *tree.Element:
				ids = append(ids, e.ID)
			case map[string]any:
				if id, ok := e[tree.KeyID].(string); ok {
					ids = append(ids, id)
				}
			default:
				return nil, fmt.Errorf("%w: selectedElements item %v", ErrInvalidValue, item)
			}
		}
		return ids, nil
	}
	return nil, fmt.Errorf("%w: selectedElements = %v", ErrInvalidValue, v)
}

// resolve maps ids to the elements of root, in order, skipping misses and
// duplicates.
func resolve(root *tree.Element, ids []string) []*tree.Element {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := want[id]; !dup {
			want[id] = i
		}
	}
	found := make([]*tree.Element, len(ids))
	tree.Walk(root, func(el *tree.Element, _ path.Path) bool {
		if i, ok := want[el.ID]; ok && found[i] == nil {
			found[i] = el
		}
		return true
	})
	out := make([]*tree.Element, 0, len(ids))
	for _, el := range found {
		if el != nil {
			out = append(out, el)
		}
	}
	return out
}
