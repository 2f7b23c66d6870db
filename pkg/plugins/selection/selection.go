// Package selection implements the selection tool: an input-only plugin
// that selects elements by clicking or by dragging out an area, drags the
// selection around and handles the editing keys.
//
// Every change goes through the board: selections are set_selection
// operations, drags and nudges are set_node batches from
// [board.Board.MoveElements], and Delete removes the selection with one
// remove batch, so selecting a group together with one of its members is
// harmless.
package selection

import (
	"slices"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/core/geom"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

// Name is the plugin name. No element has this type.
const Name = "selection"

// Nudge distances for the arrow keys, in board units.
const (
	NudgeStep      = 1.0
	NudgeShiftStep = 10.0
)

type mode int

const (
	idle mode = iota
	dragging
	selectingArea
)

// Tool is the selection tool. It keeps gesture state between events, so
// each board needs its own Tool.
type Tool struct {
	mode  mode
	start geom.Point
	last  geom.Point
}

// New returns an idle selection tool.
func New() *Tool { return &Tool{} }

// Name returns Name.
func (*Tool) Name() string { return Name }

// Init resets any gesture in progress.
func (t *Tool) Init(*board.Board) { t.reset() }

// Destroy resets any gesture in progress.
func (t *Tool) Destroy(*board.Board) { t.reset() }

func (t *Tool) reset() { *t = Tool{} }

// Handlers binds the tool to pointer and keyboard events.
func (t *Tool) Handlers() board.Handlers {
	return board.Handlers{
		board.MouseDown:       t.down,
		board.MouseMove:       t.move,
		board.MouseUp:         t.up,
		board.GlobalPointerUp: t.up,
		board.KeyDown:         t.key,
	}
}

func (t *Tool) down(b *board.Board, e *board.Event) bool {
	if e.Button != 0 {
		return true
	}
	at := geom.Point{X: e.X, Y: e.Y}
	t.start, t.last = at, at

	hit := b.HitTest(e.X, e.Y)
	if hit == nil {
		t.mode = selectingArea
		var keep []*tree.Element
		if e.Shift {
			keep = b.Selection().SelectedElements
		}
		area := geom.Rect{X: at.X, Y: at.Y}
		report(b, "start area", b.Select(&area, keep...))
		return true
	}

	t.mode = dragging
	sel := b.Selection()
	switch {
	case e.Shift && sel.Contains(hit):
		t.mode = idle
		report(b, "deselect", b.Select(nil, without(sel.SelectedElements, hit)...))
	case e.Shift:
		report(b, "extend selection", b.Select(nil, append(slices.Clone(sel.SelectedElements), hit)...))
	case !sel.Contains(hit):
		report(b, "select", b.Select(nil, hit))
	}
	return true
}

func (t *Tool) move(b *board.Board, e *board.Event) bool {
	at := geom.Point{X: e.X, Y: e.Y}
	switch t.mode {
	case dragging:
		dx, dy := at.X-t.last.X, at.Y-t.last.Y
		if dx == 0 && dy == 0 {
			return true
		}
		t.last = at
		_, err := b.MoveElements(b.Selection().SelectedElements, dx, dy)
		report(b, "drag", err)
	case selectingArea:
		area := geom.Rect{X: t.start.X, Y: t.start.Y, Width: at.X - t.start.X, Height: at.Y - t.start.Y}
		report(b, "update area", b.Select(&area, b.ElementsInArea(area)...))
	}
	return true
}

func (t *Tool) up(b *board.Board, _ *board.Event) bool {
	if t.mode == selectingArea {
		report(b, "finish area", b.Select(nil, b.Selection().SelectedElements...))
	}
	t.mode = idle
	return true
}

func (t *Tool) key(b *board.Board, e *board.Event) bool {
	sel := b.Selection().SelectedElements
	switch e.Key {
	case "Delete", "Backspace":
		if len(sel) == 0 {
			return true
		}
		res, err := b.RemoveElements(sel)
		report(b, "delete", err)
		if len(res.Dropped) > 0 {
			b.Logger().Debug("selection contained nested elements", "dropped", len(res.Dropped))
		}
	case "Escape":
		report(b, "clear selection", b.Select(nil))
	case "a", "A":
		if !e.Ctrl && !e.Meta {
			return true
		}
		report(b, "select all", b.Select(nil, b.Children()...))
	case "ArrowLeft", "ArrowRight", "ArrowUp", "ArrowDown":
		if len(sel) == 0 {
			return true
		}
		step := NudgeStep
		if e.Shift {
			step = NudgeShiftStep
		}
		dx, dy := arrow(e.Key, step)
		_, err := b.MoveElements(sel, dx, dy)
		report(b, "nudge", err)
	default:
		return true
	}
	e.PreventDefault()
	return true
}

func arrow(key string, step float64) (dx, dy float64) {
	switch key {
	case "ArrowLeft":
		return -step, 0
	case "ArrowRight":
		return step, 0
	case "ArrowUp":
		return 0, -step
	}
	return 0, step
}

func without(els []*tree.Element, drop *tree.Element) []*tree.Element {
	out := make([]*tree.Element, 0, len(els))
	for _, el := range els {
		if el.ID != drop.ID {
			out = append(out, el)
		}
	}
	return out
}

// report logs a failed board update. Handlers cannot return errors; the
// board is unchanged when one fails.
func report(b *board.Board, action string, err error) {
	if err != nil {
		b.Logger().Warn("selection tool", "action", action, "err", err)
	}
}
