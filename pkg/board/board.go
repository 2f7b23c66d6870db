package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/op/transform"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
	"github.com/matzehuels/whiteboard/pkg/observability"
)

var (
	// ErrNodeNotFound is returned when an operation's path does not resolve.
	// It always wraps tree.ErrPathNotFound as well.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidElement is returned for inserted elements without an id or type.
	ErrInvalidElement = errors.New("invalid element")

	// ErrDuplicateID is returned when an inserted element reuses an id that is
	// already present in the tree.
	ErrDuplicateID = errors.New("duplicate element id")

	// ErrInvalidValue is returned when a viewport or selection property has a
	// value of the wrong shape.
	ErrInvalidValue = errors.New("invalid property value")
)

// Board is the engine of one open whiteboard document.
type Board struct {
	root      *tree.Element
	viewPort  ViewPort
	selection Selection
	sequences json.RawMessage

	focused bool
	logger  *log.Logger

	registry  registry
	listeners listeners
}

// Option configures a Board.
type Option func(*Board) error

// WithData initializes the board from persisted data.
func WithData(d Data) Option {
	return func(b *Board) error {
		if err := d.Validate(); err != nil {
			return err
		}
		b.root = tree.NewRoot(d.Children)
		if d.ViewPort != (ViewPort{}) {
			b.viewPort = d.ViewPort
		}
		b.selection = Selection{
			SelectArea:       d.Selection.SelectArea,
			SelectedElements: resolve(b.root, d.Selection.IDs()),
		}
		b.sequences = d.PresentationSequences
		return nil
	}
}

// WithLogger sets the logger used for debug output. The default discards
// everything.
func WithLogger(l *log.Logger) Option {
	return func(b *Board) error {
		if l != nil {
			b.logger = l
		}
		return nil
	}
}

// WithPlugins registers plugins as InitPlugins would.
func WithPlugins(ps ...Plugin) Option {
	return func(b *Board) error {
		b.InitPlugins(ps...)
		return nil
	}
}

// New creates a board. Without WithData it starts empty with the default
// viewport.
func New(opts ...Option) (*Board, error) {
	b := &Board{
		root:     tree.NewRoot(nil),
		viewPort: DefaultViewPort(),
		logger:   log.New(io.Discard),
	}
	b.registry.init()
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Root returns the root container of the current tree. The returned tree is
// an immutable snapshot and stays valid after later operations.
func (b *Board) Root() *tree.Element { return b.root }

// Children returns the root-level elements of the current tree.
func (b *Board) Children() []*tree.Element { return b.root.Children }

// ViewPort returns the current viewport.
func (b *Board) ViewPort() ViewPort { return b.viewPort }

// Selection returns the current selection.
func (b *Board) Selection() Selection { return b.selection }

// Logger returns the board's logger, for plugins.
func (b *Board) Logger() *log.Logger { return b.logger }

// Focused reports whether the board has keyboard focus.
func (b *Board) Focused() bool { return b.focused }

// SetFocus records whether the board has keyboard focus. Non-global
// keyboard events are only dispatched while it has.
func (b *Board) SetFocus(focused bool) { b.focused = focused }

// Get returns the element at p.
func (b *Board) Get(p path.Path) (*tree.Element, error) {
	el, err := tree.GetNodeByPath(b.root, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNodeNotFound, err)
	}
	return el, nil
}

// PathOf returns the current path of the element with el's id. It reports
// false when the element is no longer on the board; callers should treat
// that as "nothing to do".
func (b *Board) PathOf(el *tree.Element) (path.Path, bool) {
	return tree.GetPathByElement(b.root, el)
}

// Find returns the element with the given id and its path.
func (b *Board) Find(id string) (*tree.Element, path.Path, bool) {
	return tree.Find(b.root, id)
}

// Snapshot returns the board's persisted form. The element tree is shared,
// not copied.
func (b *Board) Snapshot() Data {
	children := b.root.Children
	if children == nil {
		children = []*tree.Element{}
	}
	return Data{
		Children:              children,
		ViewPort:              b.viewPort,
		Selection:             b.selection,
		PresentationSequences: b.sequences,
	}
}

// MarshalJSON encodes the board's snapshot.
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Snapshot())
}

// BatchResult describes the outcome of ApplyBatch.
type BatchResult struct {
	// Applied holds the operations as they were actually applied, after
	// rebasing.
	Applied []op.Operation
	// Dropped holds the indices, into the submitted batch, of operations
	// that targeted nodes removed by earlier operations of the batch.
	Dropped []int
}

// Apply applies one operation. On error the board is unchanged.
func (b *Board) Apply(o op.Operation) error {
	_, err := b.run([]op.Operation{o}, false)
	return err
}

// ApplyBatch applies ops, all computed against the current state, as one
// transaction. Each operation is rebased across the ones applied before it;
// invalidated operations are skipped and reported, not treated as errors.
// On error nothing is applied.
func (b *Board) ApplyBatch(ops []op.Operation) (BatchResult, error) {
	return b.run(ops, true)
}

// txn is the working state of one transaction.
type txn struct {
	draft     *tree.Draft
	viewPort  tree.Props
	selection tree.Props
	vpDirty   bool
	selDirty  bool
}

func (b *Board) run(ops []op.Operation, rebase bool) (BatchResult, error) {
	t := &txn{draft: tree.NewDraft(b.root)}
	var res BatchResult

	pending := ops
	index := make([]int, len(ops))
	for i := range index {
		index[i] = i
	}

	for len(pending) > 0 {
		o, at := pending[0], index[0]
		pending, index = pending[1:], index[1:]

		start := time.Now()
		err := b.step(t, o)
		observability.Board().OnApply(typeOf(o), time.Since(start), err)
		if err != nil {
			if len(ops) > 1 {
				err = fmt.Errorf("operation %d (%s): %w", at, typeOf(o), err)
			}
			b.logger.Debug("apply failed", "op", typeOf(o), "err", err)
			return BatchResult{}, err
		}
		res.Applied = append(res.Applied, o)

		if rebase && len(pending) > 0 && op.IsStructural(o) {
			kept, dropped := transform.Rebase(pending, o)
			if len(dropped) > 0 {
				index = removeIndices(index, dropped, &res.Dropped)
			}
			pending = kept
		}
	}

	if len(res.Dropped) > 0 {
		slices.Sort(res.Dropped)
		observability.Board().OnBatchDrop(len(ops), len(res.Dropped))
		b.logger.Debug("dropped stale batch operations", "batch", len(ops), "dropped", res.Dropped)
	}
	if err := b.commit(t); err != nil {
		return BatchResult{}, err
	}
	b.emitApplied(res.Applied)
	return res, nil
}

// removeIndices drops the entries at positions drop from index, appending
// the removed values to out.
func removeIndices(index, drop []int, out *[]int) []int {
	kept := index[:0:0]
	d := 0
	for i, v := range index {
		if d < len(drop) && drop[d] == i {
			*out = append(*out, v)
			d++
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

func typeOf(o op.Operation) string {
	if o == nil {
		return "<nil>"
	}
	return string(o.Type())
}

// step applies one operation to the transaction.
func (b *Board) step(t *txn, o op.Operation) error {
	if err := op.Validate(o); err != nil {
		return err
	}
	switch o := o.(type) {
	case op.SetViewport:
		if t.viewPort == nil {
			t.viewPort = b.viewPort.Props()
		}
		t.viewPort = op.MergeProps(t.viewPort, o.Properties, o.NewProperties)
		t.vpDirty = true
		return nil
	case op.SetSelection:
		if t.selection == nil {
			t.selection = b.selection.Props()
		}
		t.selection = op.MergeProps(t.selection, o.Properties, o.NewProperties)
		t.selDirty = true
		return nil
	case op.InsertNode:
		if err := b.checkInsert(t.draft.Root(), o.Node); err != nil {
			return err
		}
	}
	err := op.ApplyTree(t.draft, o)
	if errors.Is(err, tree.ErrPathNotFound) {
		return fmt.Errorf("%w: %w", ErrNodeNotFound, err)
	}
	return err
}

// checkInsert enforces id presence and uniqueness for an inserted subtree.
func (b *Board) checkInsert(root *tree.Element, node *tree.Element) error {
	seen := make(map[string]struct{})
	if err := checkElement(node, seen); err != nil {
		return err
	}
	var err error
	tree.Walk(tree.NewRoot(node.Children), func(el *tree.Element, _ path.Path) bool {
		err = checkElement(el, seen)
		return err == nil
	})
	if err != nil {
		return err
	}
	tree.Walk(root, func(el *tree.Element, _ path.Path) bool {
		if _, dup := seen[el.ID]; dup {
			err = fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
		}
		return err == nil
	})
	return err
}

// commit makes the transaction's state current. Decoding the viewport and
// selection records is the last thing that can fail.
func (b *Board) commit(t *txn) error {
	root := t.draft.Finalize()
	vp := b.viewPort
	if t.vpDirty {
		var err error
		if vp, err = viewPortFromProps(t.viewPort); err != nil {
			return err
		}
	}
	var sel Selection
	if t.selDirty {
		var err error
		if sel, err = selectionFromProps(t.selection, root); err != nil {
			return err
		}
	} else {
		sel = b.selection
		if root != b.root {
			sel.SelectedElements = resolve(root, sel.IDs())
		}
	}
	b.root, b.viewPort, b.selection = root, vp, sel
	return nil
}
