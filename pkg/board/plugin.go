package board

import (
	"strings"
	"time"

	"github.com/matzehuels/whiteboard/pkg/core/geom"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
	"github.com/matzehuels/whiteboard/pkg/observability"
	"github.com/matzehuels/whiteboard/pkg/render"
)

// Plugin contributes behavior for one element type. Name must be unique
// within a board and, by convention, equals the element type the plugin
// owns. Plugins that only handle input (a selection tool, say) use a name
// no element carries.
//
// Everything else is optional: a plugin implements whichever of the
// capability interfaces below it needs.
type Plugin interface {
	Name() string
}

// HitTester decides whether a point, in board coordinates, hits an element.
type HitTester interface {
	IsHit(b *Board, el *tree.Element, x, y float64) bool
}

// Boxer reports an element's bounding box in board coordinates.
type Boxer interface {
	BBox(b *Board, el *tree.Element) (geom.Rect, bool)
}

// SelectionTester decides whether an element is selected by a drawn area.
// Without it, an element is selected when its bounding box lies inside the
// area.
type SelectionTester interface {
	IsSelected(b *Board, el *tree.Element, area geom.Rect) bool
}

// Mover returns the properties that translate an element by (dx, dy).
type Mover interface {
	Move(b *Board, el *tree.Element, dx, dy float64) tree.Props
}

// Resizer returns the properties that resize an element when the selection
// box it belongs to changes from from to to.
type Resizer interface {
	Resize(b *Board, el *tree.Element, from, to geom.Rect) tree.Props
}

// Renderer draws an element. children holds the element's already rendered
// children, in z-order. Returning nil draws nothing.
type Renderer interface {
	Render(b *Board, el *tree.Element, children []*render.Node) *render.Node
}

// EventSource exposes input handlers. Handlers is called once, at
// registration.
type EventSource interface {
	Handlers() Handlers
}

// Initializer is called when a plugin is registered.
type Initializer interface {
	Init(b *Board)
}

// Destroyer is called when a plugin is replaced or removed, and when the
// board is destroyed.
type Destroyer interface {
	Destroy(b *Board)
}

// EventType names an input event.
type EventType string

// Input events. The Global variants are dispatched whether or not the board
// has focus.
const (
	MouseDown       EventType = "onMouseDown"
	MouseMove       EventType = "onMouseMove"
	MouseUp         EventType = "onMouseUp"
	MouseLeave      EventType = "onMouseLeave"
	PointerDown     EventType = "onPointerDown"
	PointerMove     EventType = "onPointerMove"
	PointerUp       EventType = "onPointerUp"
	Click           EventType = "onClick"
	DblClick        EventType = "onDblClick"
	Wheel           EventType = "onWheel"
	KeyDown         EventType = "onKeyDown"
	KeyUp           EventType = "onKeyUp"
	Paste           EventType = "onPaste"
	GlobalKeyDown   EventType = "onGlobalKeyDown"
	GlobalKeyUp     EventType = "onGlobalKeyUp"
	GlobalPointerUp EventType = "onGlobalPointerUp"
)

// IsGlobal reports whether t is dispatched regardless of focus.
func (t EventType) IsGlobal() bool {
	return strings.HasPrefix(string(t), "onGlobal")
}

// IsKeyboard reports whether t is a keyboard event.
func (t EventType) IsKeyboard() bool {
	return strings.Contains(string(t), "Key")
}

// Event is an input event. X and Y are in board coordinates; ScreenX and
// ScreenY are relative to the canvas.
type Event struct {
	Type             EventType
	X, Y             float64
	ScreenX, ScreenY float64
	Button           int
	DeltaX, DeltaY   float64
	Key              string
	Shift            bool
	Ctrl             bool
	Alt              bool
	Meta             bool
	Text             string // pasted text

	prevented bool
}

// NewPointerEvent returns a pointer or mouse event at a screen position,
// converting it to board coordinates through the board's viewport.
func (b *Board) NewPointerEvent(t EventType, sx, sy float64) *Event {
	p := b.viewPort.ToBoard(sx, sy)
	return &Event{Type: t, X: p.X, Y: p.Y, ScreenX: sx, ScreenY: sy}
}

// PreventDefault stops dispatch after the current handler.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a handler called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Handler handles an input event. Returning false stops dispatch; any
// other outcome lets the next plugin's handler run.
type Handler func(b *Board, e *Event) bool

// Handlers maps event types to handlers.
type Handlers map[EventType]Handler

type boundHandler struct {
	plugin string
	fn     Handler
}

// registry holds plugins in registration order plus the per-event handler
// index derived from them.
type registry struct {
	plugins []Plugin
	byName  map[string]int
	index   map[EventType][]boundHandler
}

func (r *registry) init() {
	r.plugins = nil
	r.byName = make(map[string]int)
	r.index = make(map[EventType][]boundHandler)
}

func (r *registry) rebuild() {
	r.byName = make(map[string]int, len(r.plugins))
	r.index = make(map[EventType][]boundHandler)
	for i, p := range r.plugins {
		r.byName[p.Name()] = i
		src, ok := p.(EventSource)
		if !ok {
			continue
		}
		for t, fn := range src.Handlers() {
			if fn != nil {
				r.index[t] = append(r.index[t], boundHandler{plugin: p.Name(), fn: fn})
			}
		}
	}
}

// InitPlugins replaces every registered plugin with ps. Plugins later in ps
// replace earlier ones of the same name.
func (b *Board) InitPlugins(ps ...Plugin) {
	for _, p := range b.registry.plugins {
		destroy(b, p)
	}
	b.registry.init()
	for _, p := range ps {
		b.add(p)
	}
	b.registry.rebuild()
}

// AddPlugin registers p. A plugin already registered under the same name is
// destroyed and replaced in place, keeping its position in the dispatch
// order.
func (b *Board) AddPlugin(p Plugin) {
	b.add(p)
	b.registry.rebuild()
}

func (b *Board) add(p Plugin) {
	if p == nil {
		return
	}
	r := &b.registry
	if i, ok := r.byName[p.Name()]; ok {
		destroy(b, r.plugins[i])
		r.plugins[i] = p
		b.logger.Debug("replaced plugin", "name", p.Name())
	} else {
		r.byName[p.Name()] = len(r.plugins)
		r.plugins = append(r.plugins, p)
		b.logger.Debug("registered plugin", "name", p.Name())
	}
	if in, ok := p.(Initializer); ok {
		in.Init(b)
	}
}

// RemovePlugin unregisters the plugin called name. It reports whether one
// was registered.
func (b *Board) RemovePlugin(name string) bool {
	r := &b.registry
	i, ok := r.byName[name]
	if !ok {
		return false
	}
	destroy(b, r.plugins[i])
	r.plugins = append(r.plugins[:i:i], r.plugins[i+1:]...)
	r.rebuild()
	return true
}

// Plugins returns the registered plugins in registration order.
func (b *Board) Plugins() []Plugin {
	out := make([]Plugin, len(b.registry.plugins))
	copy(out, b.registry.plugins)
	return out
}

// Plugin returns the plugin registered under name.
func (b *Board) Plugin(name string) (Plugin, bool) {
	i, ok := b.registry.byName[name]
	if !ok {
		return nil, false
	}
	return b.registry.plugins[i], true
}

// pluginFor returns the plugin owning el's type, or nil.
func (b *Board) pluginFor(el *tree.Element) Plugin {
	if el == nil {
		return nil
	}
	p, _ := b.Plugin(el.Type)
	return p
}

// Destroy tears the board down: every plugin is destroyed and unregistered
// and all listeners are removed.
func (b *Board) Destroy() {
	for _, p := range b.registry.plugins {
		destroy(b, p)
	}
	b.registry.init()
	b.listeners = listeners{}
}

func destroy(b *Board, p Plugin) {
	if d, ok := p.(Destroyer); ok {
		d.Destroy(b)
	}
}

// Dispatch delivers e to the handlers registered for e.Type, in plugin
// registration order, until one returns false or prevents the default. It
// reports whether the chain was stopped. Non-global keyboard events are
// dropped while the board does not have focus.
func (b *Board) Dispatch(e *Event) bool {
	if e.Type.IsKeyboard() && !e.Type.IsGlobal() && !b.focused {
		return false
	}
	// Handlers may register plugins; iterate the index as it was.
	handlers := b.registry.index[e.Type]
	ran, stopped := 0, false
	for _, h := range handlers {
		ran++
		if !h.fn(b, e) || e.prevented {
			stopped = true
			break
		}
	}
	observability.Board().OnDispatch(string(e.Type), ran, stopped)
	return stopped
}

// RenderElement renders el and its subtree. Children are rendered first and
// handed to the owning plugin. An element whose type has no registered
// renderer renders as nil, and so do its children.
func (b *Board) RenderElement(el *tree.Element) *render.Node {
	r, ok := b.pluginFor(el).(Renderer)
	if !ok {
		return nil
	}
	var children []*render.Node
	for _, ch := range el.Children {
		if n := b.RenderElement(ch); n != nil {
			children = append(children, n)
		}
	}
	return r.Render(b, el, children)
}

// Render renders every root-level element in z-order, skipping elements
// that render as nil.
func (b *Board) Render() []*render.Node {
	start := time.Now()
	var out []*render.Node
	for _, el := range b.root.Children {
		if n := b.RenderElement(el); n != nil {
			out = append(out, n)
		}
	}
	b.logger.Debug("rendered board", "elements", len(b.root.Children), "nodes", len(out), "took", time.Since(start))
	return out
}

// SVG renders the board as an SVG document framed by the current viewport.
// Options are applied after the viewport and can override it.
func (b *Board) SVG(opts ...render.SVGOption) []byte {
	all := append([]render.SVGOption{render.WithViewBox(b.viewPort.Rect())}, opts...)
	return render.SVG(b.Render(), all...)
}
