package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/whiteboard/pkg/core/geom"
	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
	"github.com/matzehuels/whiteboard/pkg/observability"
)

func TestNoopSetEmitsValueChange(t *testing.T) {
	b := newBoard(box("a", 0, 0), box("b", 20, 0))
	before := b.Root()

	kinds := map[EventKind]int{}
	for _, k := range []EventKind{EventValueChange, EventChange, EventViewPortChange, EventSelectionChange} {
		b.On(k, func(c Change) { kinds[c.Kind]++ })
	}

	err := b.Apply(op.SetNode{Path: path.Path{0}, Properties: tree.Props{"x": 0.0}, NewProperties: tree.Props{"x": 0.0}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !tree.Equal(before, b.Root()) {
		t.Error("no-op set changed the tree")
	}
	want := map[EventKind]int{EventValueChange: 1, EventChange: 1}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", kinds, want)
	}
}

func TestInsertThenInverse(t *testing.T) {
	b := newBoard(box("a", 0, 0), box("b", 20, 0))
	before := b.Root()

	ins := op.InsertNode{Path: path.Path{1}, Node: box("n", 5, 5)}
	if err := b.Apply(ins); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := order(b); got != "[a n b]" {
		t.Fatalf("order = %s, want [a n b]", got)
	}
	p, ok := b.PathOf(ins.Node)
	if !ok || !path.Equal(p, path.Path{1}) {
		t.Fatalf("PathOf(n) = %v, %v, want [1], true", p, ok)
	}
	if err := b.Apply(op.Inverse(ins)); err != nil {
		t.Fatalf("Apply(inverse): %v", err)
	}
	if !tree.Equal(before, b.Root()) {
		t.Errorf("tree after inverse = %s, want %s", order(b), "[a b]")
	}
}

func TestStructuralSharing(t *testing.T) {
	els := make([]*tree.Element, 100)
	for i := range els {
		els[i] = box(fmt.Sprintf("e%d", i), float64(i), 0)
	}
	b := newBoard(els...)
	oldRoot, before := b.Root(), b.Children()

	if err := b.Apply(op.SetNode{Path: path.Path{42}, Properties: tree.Props{}, NewProperties: tree.Props{"fill": "red"}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	after := b.Children()
	if b.Root() == oldRoot {
		t.Fatal("root was not replaced")
	}
	for i := range after {
		same := before[i] == after[i]
		if i == 42 && same {
			t.Error("modified element was not copied")
		}
		if i != 42 && !same {
			t.Errorf("element %d was copied", i)
		}
	}
	if _, ok := before[42].Props["fill"]; ok {
		t.Error("old snapshot was modified")
	}
}

func TestApplyErrorsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name string
		op   op.Operation
		want []error
	}{
		{"RemoveMissing", op.RemoveNode{Path: path.Path{5}}, []error{ErrNodeNotFound, tree.ErrPathNotFound}},
		{"SetMissing", op.SetNode{Path: path.Path{0, 1}, NewProperties: tree.Props{"x": 1.0}}, []error{ErrNodeNotFound}},
		{"MoveMissing", op.MoveNode{Path: path.Path{7}, NewPath: path.Path{0}}, []error{ErrNodeNotFound}},
		{"SetReservedID", op.SetNode{Path: path.Path{0}, NewProperties: tree.Props{"id": "x"}}, []error{tree.ErrReservedKey}},
		{"InsertDuplicate", op.InsertNode{Path: path.Path{0}, Node: box("b", 1, 1)}, []error{ErrDuplicateID}},
		{"InsertDuplicateChild", op.InsertNode{Path: path.Path{0}, Node: frame("f", box("a", 1, 1))}, []error{ErrDuplicateID}},
		{"InsertWithoutID", op.InsertNode{Path: path.Path{0}, Node: &tree.Element{Type: "box"}}, []error{ErrInvalidElement}},
		{"InsertWithoutType", op.InsertNode{Path: path.Path{0}, Node: &tree.Element{ID: "z"}}, []error{ErrInvalidElement}},
		{"BadZoom", op.SetViewport{NewProperties: tree.Props{KeyZoom: "big"}}, []error{ErrInvalidValue}},
		{"BadSelection", op.SetSelection{NewProperties: tree.Props{KeySelectedElements: 42}}, []error{ErrInvalidValue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(box("a", 0, 0), box("b", 20, 0))
			root, vp := b.Root(), b.ViewPort()
			events := 0
			b.On(EventChange, func(Change) { events++ })

			err := b.Apply(tt.op)
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("Apply err = %v, want %v", err, want)
				}
			}
			if b.Root() != root {
				t.Error("root changed after failed Apply")
			}
			if b.ViewPort() != vp {
				t.Errorf("viewport = %+v, want %+v", b.ViewPort(), vp)
			}
			if events != 0 {
				t.Errorf("events = %d, want 0", events)
			}
		})
	}
}

func TestApplyBatch(t *testing.T) {
	tests := []struct {
		name    string
		ops     []op.Operation
		order   string
		dropped string
	}{
		{
			name: "StaleSetDropped",
			ops: []op.Operation{
				op.RemoveNode{Path: path.Path{1}},
				op.SetNode{Path: path.Path{1}, NewProperties: tree.Props{"fill": "red"}},
				op.SetNode{Path: path.Path{2}, NewProperties: tree.Props{"fill": "red"}},
			},
			order:   "[a c d]",
			dropped: "[1]",
		},
		{
			name: "InsertShiftsLaterOps",
			ops: []op.Operation{
				op.InsertNode{Path: path.Path{0}, Node: box("n", 0, 0)},
				op.RemoveNode{Path: path.Path{3}},
			},
			order:   "[n a b c]",
			dropped: "[]",
		},
		{
			name: "RemoveThenMove",
			ops: []op.Operation{
				op.RemoveNode{Path: path.Path{0}},
				op.MoveNode{Path: path.Path{3}, NewPath: path.Path{0}},
			},
			order:   "[d b c]",
			dropped: "[]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(box("a", 0, 0), box("b", 0, 0), box("c", 0, 0), box("d", 0, 0))
			res, err := b.ApplyBatch(tt.ops)
			if err != nil {
				t.Fatalf("ApplyBatch: %v", err)
			}
			if got := order(b); got != tt.order {
				t.Errorf("order = %s, want %s", got, tt.order)
			}
			if got := fmt.Sprint(res.Dropped); got != tt.dropped {
				t.Errorf("Dropped = %s, want %s", got, tt.dropped)
			}
			if got, want := len(res.Applied)+len(res.Dropped), len(tt.ops); got != want {
				t.Errorf("applied+dropped = %d, want %d", got, want)
			}
		})
	}
}

func TestApplyBatchRebasesSet(t *testing.T) {
	b := newBoard(box("a", 0, 0), box("b", 0, 0), box("c", 0, 0))
	_, err := b.ApplyBatch([]op.Operation{
		op.RemoveNode{Path: path.Path{0}},
		op.SetNode{Path: path.Path{2}, NewProperties: tree.Props{"fill": "red"}},
	})
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	c, _, _ := b.Find("c")
	if got := c.Props["fill"]; got != "red" {
		t.Errorf("c.fill = %v, want red", got)
	}
}

func TestApplyBatchRollsBack(t *testing.T) {
	b := newBoard(box("a", 0, 0), box("b", 0, 0))
	root := b.Root()
	events := 0
	b.On(EventValueChange, func(Change) { events++ })

	_, err := b.ApplyBatch([]op.Operation{
		op.SetNode{Path: path.Path{0}, NewProperties: tree.Props{"fill": "red"}},
		op.SetViewport{NewProperties: tree.Props{KeyZoom: 3.0}},
		op.RemoveNode{Path: path.Path{9}},
	})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("ApplyBatch err = %v, want ErrNodeNotFound", err)
	}
	if !strings.Contains(err.Error(), "operation 2") {
		t.Errorf("err = %q, want the failing index", err)
	}
	if b.Root() != root {
		t.Error("root changed after failed batch")
	}
	if b.ViewPort().Zoom != 1 {
		t.Errorf("zoom = %v, want 1", b.ViewPort().Zoom)
	}
	if _, ok := b.Children()[0].Props["fill"]; ok {
		t.Error("partial batch leaked")
	}
	if events != 0 {
		t.Errorf("events = %d, want 0", events)
	}
}

func TestEvents(t *testing.T) {
	b := newBoard(box("a", 0, 0))
	var got []string
	record := func(c Change) { got = append(got, fmt.Sprintf("%s:%s", c.Kind, c.Operation.Type())) }
	var changes [][]op.Operation
	b.On(EventValueChange, record)
	b.On(EventViewPortChange, record)
	b.On(EventSelectionChange, record)
	b.On(EventChange, func(c Change) { changes = append(changes, c.Operations) })

	_, err := b.ApplyBatch([]op.Operation{
		op.InsertNode{Path: path.Path{1}, Node: box("b", 0, 0)},
		op.SetViewport{NewProperties: tree.Props{KeyZoom: 2.0}},
		op.SetSelection{NewProperties: tree.Props{KeySelectedElements: []string{"b"}}},
	})
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	want := "[onValueChange:insert_node onViewPortChange:set_viewport onSelectionChange:set_selection]"
	if fmt.Sprint(got) != want {
		t.Errorf("events = %v, want %s", got, want)
	}
	if len(changes) != 1 || len(changes[0]) != 3 {
		t.Errorf("onChange = %v, want one notification with 3 operations", changes)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := newBoard(box("a", 0, 0))
	var first, second int
	unsub := b.On(EventChange, func(Change) { first++ })
	b.On(EventChange, func(Change) { second++ })

	move := func() {
		if _, err := b.MoveElements(b.Children(), 1, 0); err != nil {
			t.Fatalf("MoveElements: %v", err)
		}
	}
	move()
	unsub()
	unsub()
	move()

	if first != 1 || second != 2 {
		t.Errorf("calls = %d, %d, want 1, 2", first, second)
	}
}

func TestListenerMayApply(t *testing.T) {
	b := newBoard(box("a", 0, 0))
	done := false
	b.On(EventValueChange, func(c Change) {
		if _, ok := c.Operation.(op.InsertNode); ok && !done {
			done = true
			if err := b.SetViewPort(b.ViewPort().Pan(10, 0)); err != nil {
				t.Errorf("SetViewPort: %v", err)
			}
		}
	})
	if err := b.Apply(op.InsertNode{Path: path.Path{1}, Node: box("b", 0, 0)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := b.ViewPort().MinX; got != 10 {
		t.Errorf("MinX = %v, want 10", got)
	}
	if got := order(b); got != "[a b]" {
		t.Errorf("order = %s, want [a b]", got)
	}
}

func TestSelectionFollowsTree(t *testing.T) {
	b := newBoard(box("a", 0, 0), box("b", 20, 0))
	if err := b.Select(nil, b.Children()[0]); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := b.MoveElements(b.Children()[:1], 50, 0); err != nil {
		t.Fatalf("MoveElements: %v", err)
	}
	sel := b.Selection()
	if len(sel.SelectedElements) != 1 || sel.SelectedElements[0] != b.Children()[0] {
		t.Fatalf("selection = %v, want the current a", sel.IDs())
	}
	if x := sel.SelectedElements[0].Props["x"]; x != 50.0 {
		t.Errorf("selected a.x = %v, want 50", x)
	}

	if err := b.Apply(op.RemoveNode{Path: path.Path{0}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !b.Selection().IsEmpty() {
		t.Errorf("selection = %v, want empty", b.Selection().IDs())
	}
}

func TestSelectionFromJSON(t *testing.T) {
	b := newBoard(box("a", 0, 0), box("b", 20, 0))
	o, err := op.Unmarshal([]byte(`{"type":"set_selection","properties":{},"newProperties":{"selectedElements":["b","gone"],"selectArea":{"x":0,"y":0,"width":5,"height":5}}}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if err := b.Apply(o); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	sel := b.Selection()
	if got := fmt.Sprint(sel.IDs()); got != "[b]" {
		t.Errorf("IDs = %s, want [b]", got)
	}
	if sel.SelectArea == nil || sel.SelectArea.Width != 5 {
		t.Errorf("SelectArea = %v, want width 5", sel.SelectArea)
	}
	if !sel.Contains(box("b", 0, 0)) {
		t.Error("Contains(b) = false, want true")
	}
}

func TestViewPortOperations(t *testing.T) {
	b := newBoard()
	v := ViewPort{MinX: 10, MinY: 20, Width: 400, Height: 300, Zoom: 2}
	if err := b.SetViewPort(v); err != nil {
		t.Fatalf("SetViewPort: %v", err)
	}
	if b.ViewPort() != v {
		t.Fatalf("ViewPort = %+v, want %+v", b.ViewPort(), v)
	}
	set := op.SetViewport{Properties: tree.Props{KeyZoom: 2.0}, NewProperties: tree.Props{KeyZoom: 4.0}}
	if err := b.Apply(set); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := b.ViewPort(); got.Zoom != 4 || got.MinX != 10 {
		t.Errorf("ViewPort = %+v, want zoom 4 and minX kept", got)
	}
	if err := b.Apply(op.Inverse(set)); err != nil {
		t.Fatalf("Apply(inverse): %v", err)
	}
	if b.ViewPort() != v {
		t.Errorf("ViewPort after inverse = %+v, want %+v", b.ViewPort(), v)
	}
}

func TestViewPortMath(t *testing.T) {
	v := ViewPort{MinX: 100, MinY: 50, Width: 400, Height: 300, Zoom: 2}

	if p := v.ToBoard(200, 100); p != (geom.Point{X: 200, Y: 100}) {
		t.Errorf("ToBoard = %v, want {200 100}", p)
	}
	if p := v.ToScreen(200, 100); p != (geom.Point{X: 200, Y: 100}) {
		t.Errorf("ToScreen = %v, want {200 100}", p)
	}
	if got := v.Pan(20, 10); got.MinX != 110 || got.MinY != 55 {
		t.Errorf("Pan = %+v, want min (110, 55)", got)
	}

	z := v.ZoomAt(4, 200, 100)
	if z.MinX != 150 || z.MinY != 75 || z.Width != 200 || z.Height != 150 {
		t.Errorf("ZoomAt = %+v, want {150 75 200 150 4}", z)
	}
	if p := z.ToBoard(200, 100); p != (geom.Point{X: 200, Y: 100}) {
		t.Errorf("anchor moved to %v", p)
	}

	fit := DefaultViewPort().Fit(geom.Rect{Width: 100, Height: 100}, 0)
	if fit.Zoom != 6 || fit.MinY != 0 || fit.Height != 100 {
		t.Errorf("Fit = %+v, want zoom 6, minY 0, height 100", fit)
	}
}

func TestDispatch(t *testing.T) {
	var log []string
	a := &recorder{name: "A", log: &log, result: true}
	bb := &recorder{name: "B", log: &log, result: false}
	c := &recorder{name: "C", log: &log, result: true}
	b := newBoard()
	b.InitPlugins(a, bb, c)

	if stopped := b.Dispatch(&Event{Type: MouseDown}); !stopped {
		t.Error("Dispatch did not report the stop")
	}
	if got := fmt.Sprint(log); got != "[A:onMouseDown B:onMouseDown]" {
		t.Errorf("log = %s, want [A:onMouseDown B:onMouseDown]", got)
	}
}

func TestDispatchPreventDefault(t *testing.T) {
	var log []string
	b := newBoard()
	b.InitPlugins(
		funcPlugin{name: "first", h: Handlers{Click: func(_ *Board, e *Event) bool {
			log = append(log, "first")
			e.PreventDefault()
			return true
		}}},
		&recorder{name: "second", log: &log, result: true},
		funcPlugin{name: "third", h: Handlers{Click: func(*Board, *Event) bool {
			log = append(log, "third")
			return true
		}}},
	)
	e := &Event{Type: Click}
	if !b.Dispatch(e) || !e.DefaultPrevented() {
		t.Error("prevented dispatch was not stopped")
	}
	if got := fmt.Sprint(log); got != "[first]" {
		t.Errorf("log = %s, want [first]", got)
	}
}

func TestDispatchFocus(t *testing.T) {
	var log []string
	b := newBoard()
	b.InitPlugins(&recorder{name: "A", log: &log, result: true})

	b.Dispatch(&Event{Type: KeyDown, Key: "a"})
	b.Dispatch(&Event{Type: GlobalKeyDown, Key: "a"})
	b.SetFocus(true)
	b.Dispatch(&Event{Type: KeyDown, Key: "a"})

	if got := fmt.Sprint(log); got != "[A:onGlobalKeyDown A:onKeyDown]" {
		t.Errorf("log = %s, want [A:onGlobalKeyDown A:onKeyDown]", got)
	}
}

func TestPluginLifecycle(t *testing.T) {
	var log1, log2, other []string
	r1 := &recorder{name: "tool", log: &log1, result: true}
	r2 := &recorder{name: "tool", log: &log2, result: true}
	o := &recorder{name: "other", log: &other, result: true}

	b := newBoard()
	b.InitPlugins(r1, o)
	b.AddPlugin(r2)

	if r1.init != 1 || r1.gone != 1 || r2.init != 1 {
		t.Errorf("r1 init/gone = %d/%d, r2 init = %d, want 1/1, 1", r1.init, r1.gone, r2.init)
	}
	ps := b.Plugins()
	if len(ps) != 2 || ps[0] != Plugin(r2) || ps[1] != Plugin(o) {
		t.Fatalf("Plugins = %v, want [r2 other]", ps)
	}
	b.Dispatch(&Event{Type: MouseDown})
	if len(log1) != 0 || len(log2) != 1 || len(other) != 1 {
		t.Errorf("handler calls = %d, %d, %d, want 0, 1, 1", len(log1), len(log2), len(other))
	}

	if !b.RemovePlugin("tool") {
		t.Error("RemovePlugin(tool) = false, want true")
	}
	if b.RemovePlugin("tool") {
		t.Error("second RemovePlugin(tool) = true, want false")
	}
	if r2.gone != 1 {
		t.Errorf("r2.gone = %d, want 1", r2.gone)
	}
	b.Dispatch(&Event{Type: MouseDown})
	if len(log2) != 1 || len(other) != 2 {
		t.Errorf("handler calls after remove = %d, %d, want 1, 2", len(log2), len(other))
	}

	b.InitPlugins()
	if o.gone != 1 || len(b.Plugins()) != 0 {
		t.Errorf("after reset: other.gone = %d, plugins = %d, want 1, 0", o.gone, len(b.Plugins()))
	}
}

func TestUnregisteredType(t *testing.T) {
	unknown := &tree.Element{ID: "u", Type: "sticker", Props: tree.Props{"x": 0.0}}
	b := newBoard(box("a", 0, 0), unknown, box("c", 40, 0), frame("f", box("d", 80, 0), &tree.Element{ID: "v", Type: "sticker"}))

	nodes := b.Render()
	var ids []string
	for _, n := range nodes {
		id, _ := n.Attr("id")
		ids = append(ids, id)
	}
	if got := fmt.Sprint(ids); got != "[a c f]" {
		t.Errorf("rendered = %s, want [a c f]", got)
	}
	if got := len(nodes[2].Children); got != 1 {
		t.Errorf("frame children = %d, want 1", got)
	}
	if b.IsHit(unknown, 0, 0) {
		t.Error("IsHit(unknown) = true, want false")
	}
	if _, ok := b.BBox(unknown); ok {
		t.Error("BBox(unknown) reported a box")
	}
	if _, err := b.MoveElements([]*tree.Element{unknown}, 5, 5); err != nil {
		t.Errorf("MoveElements(unknown): %v", err)
	}
	if !strings.Contains(string(b.SVG()), `<rect id="a"`) {
		t.Error("SVG is missing element a")
	}
}

func TestHitTest(t *testing.T) {
	b := newBoard(box("a", 0, 0), box("b", 5, 5), box("c", 100, 100))
	tests := []struct {
		x, y float64
		want string
	}{
		{7, 7, "b"},
		{2, 2, "a"},
		{105, 105, "c"},
		{50, 50, ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v,%v", tt.x, tt.y), func(t *testing.T) {
			var got string
			if el := b.HitTest(tt.x, tt.y); el != nil {
				got = el.ID
			}
			if got != tt.want {
				t.Errorf("HitTest = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestElementsInArea(t *testing.T) {
	b := newBoard(box("a", 0, 0), box("b", 5, 5), box("c", 100, 100))
	tests := []struct {
		name string
		area geom.Rect
		want string
	}{
		{"Forward", geom.Rect{X: -1, Y: -1, Width: 20, Height: 20}, "[a b]"},
		{"Backward", geom.Rect{X: 19, Y: 19, Width: -20, Height: -20}, "[a b]"},
		{"Partial", geom.Rect{X: 0, Y: 0, Width: 12, Height: 12}, "[a]"},
		{"Nothing", geom.Rect{X: 50, Y: 50, Width: 10, Height: 10}, "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, el := range b.ElementsInArea(tt.area) {
				ids = append(ids, el.ID)
			}
			if got := fmt.Sprint(ids); got != tt.want {
				t.Errorf("ElementsInArea = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMoveElements(t *testing.T) {
	child := box("d", 30, 0)
	b := newBoard(box("a", 0, 0), frame("f", child))

	f, _, _ := b.Find("f")
	res, err := b.MoveElements([]*tree.Element{b.Children()[0], f, child}, 5, 0)
	if err != nil {
		t.Fatalf("MoveElements: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Errorf("applied = %d, want 2", len(res.Applied))
	}
	for id, want := range map[string]float64{"a": 5, "d": 35} {
		el, _, _ := b.Find(id)
		if x := el.Props["x"]; x != want {
			t.Errorf("%s.x = %v, want %v", id, x, want)
		}
	}
	r, ok := b.BBox(b.Children()[1])
	if !ok || r.X != 35 {
		t.Errorf("frame box = %v, %v, want x 35", r, ok)
	}
}

func TestResizeElements(t *testing.T) {
	b := newBoard(box("a", 0, 0), box("b", 10, 10))
	from := geom.Rect{Width: 20, Height: 20}
	to := geom.Rect{Width: 40, Height: 40}
	if _, err := b.ResizeElements(b.Children(), from, to); err != nil {
		t.Fatalf("ResizeElements: %v", err)
	}
	want := []geom.Rect{{X: 0, Y: 0, Width: 20, Height: 20}, {X: 20, Y: 20, Width: 20, Height: 20}}
	for i, el := range b.Children() {
		if got := rectOf(el); got != want[i] {
			t.Errorf("%s = %v, want %v", el.ID, got, want[i])
		}
	}
}

func TestRemoveElements(t *testing.T) {
	child := box("d", 30, 0)
	b := newBoard(box("a", 0, 0), frame("f", child), box("c", 60, 0))
	f, _, _ := b.Find("f")

	res, err := b.RemoveElements([]*tree.Element{f, child, b.Children()[2]})
	if err != nil {
		t.Fatalf("RemoveElements: %v", err)
	}
	if got := fmt.Sprint(res.Dropped); got != "[1]" {
		t.Errorf("Dropped = %s, want [1]", got)
	}
	if got := order(b); got != "[a]" {
		t.Errorf("order = %s, want [a]", got)
	}
	if res, err := b.RemoveElements([]*tree.Element{f}); err != nil || len(res.Applied) != 0 {
		t.Errorf("RemoveElements(gone) = %v, %v, want nothing applied", res, err)
	}
}

func TestDataRoundTrip(t *testing.T) {
	b := newBoard(box("a", 0, 0), frame("f", box("d", 30, 0)))
	if err := b.Select(&geom.Rect{Width: 3, Height: 3}, b.Children()[0]); err != nil {
		t.Fatalf("Select: %v", err)
	}
	b.sequences = json.RawMessage(`[{"id":"s1"}]`)

	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	d, err := ParseData(raw)
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	got, err := New(WithData(d))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !tree.Equal(b.Root(), got.Root()) {
		t.Error("tree did not round-trip")
	}
	if got.ViewPort() != b.ViewPort() {
		t.Errorf("viewport = %+v, want %+v", got.ViewPort(), b.ViewPort())
	}
	sel := got.Selection()
	if len(sel.SelectedElements) != 1 || sel.SelectedElements[0] != got.Children()[0] {
		t.Errorf("selection = %v, want the board's a", sel.IDs())
	}
	if sel.SelectArea == nil || sel.SelectArea.Width != 3 {
		t.Errorf("SelectArea = %v, want width 3", sel.SelectArea)
	}
	if string(got.Snapshot().PresentationSequences) != `[{"id":"s1"}]` {
		t.Errorf("sequences = %s", got.Snapshot().PresentationSequences)
	}
}

func TestParseData(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"Empty", ``, nil},
		{"EmptyObject", `{}`, nil},
		{"Valid", `{"children":[{"id":"a","type":"box"}]}`, nil},
		{"MissingID", `{"children":[{"type":"box"}]}`, ErrInvalidElement},
		{"MissingType", `{"children":[{"id":"a"}]}`, ErrInvalidElement},
		{"DuplicateNested", `{"children":[{"id":"a","type":"frame","children":[{"id":"a","type":"box"}]}]}`, ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseData([]byte(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseData err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := ParseData([]byte(`{"children":`)); err == nil {
		t.Error("ParseData accepted truncated JSON")
	}
}

func TestNewDefaults(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.ViewPort() != DefaultViewPort() {
		t.Errorf("ViewPort = %+v, want default", b.ViewPort())
	}
	if len(b.Children()) != 0 || !b.Selection().IsEmpty() {
		t.Error("new board is not empty")
	}
	if _, err := New(WithData(Data{Children: []*tree.Element{{ID: "a"}}})); !errors.Is(err, ErrInvalidElement) {
		t.Errorf("New(invalid) err = %v, want ErrInvalidElement", err)
	}
}

type countingHooks struct {
	observability.NoopBoardHooks
	applies, drops int
}

func (h *countingHooks) OnApply(string, time.Duration, error) { h.applies++ }
func (h *countingHooks) OnBatchDrop(int, int)                 { h.drops++ }

func TestBoardHooks(t *testing.T) {
	h := &countingHooks{}
	observability.SetBoardHooks(h)
	defer observability.Reset()

	b := newBoard(box("a", 0, 0), box("b", 0, 0))
	if _, err := b.ApplyBatch([]op.Operation{
		op.RemoveNode{Path: path.Path{0}},
		op.RemoveNode{Path: path.Path{1}},
		op.SetNode{Path: path.Path{0}, NewProperties: tree.Props{"x": 1.0}},
	}); err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if h.applies != 2 || h.drops != 1 {
		t.Errorf("applies, drops = %d, %d, want 2, 1", h.applies, h.drops)
	}
}
