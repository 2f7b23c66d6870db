package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		id    string
		write bool
	)

	cmd := &cobra.Command{
		Use:   "browse [board.json]",
		Short: "Explore and edit a board interactively",
		Long: `Browse a board's element tree in the terminal.

Keys:
  ↑/k ↓/j   move the cursor
  K / J     raise or lower the element among its siblings
  s         select the element
  x         remove the element
  u         undo the last change
  q         quit

Changes are discarded on quit unless --write is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := sourceFromArgs(args, id)
			if err != nil {
				return err
			}
			if src.path == stdio {
				return fmt.Errorf("browse needs a terminal on stdin; pass a file or --id")
			}
			return c.runBrowse(cmd.Context(), src, write)
		},
	}

	addIDFlag(cmd, &id)
	cmd.Flags().BoolVar(&write, "write", false, "save changes on quit")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, src boardSource, write bool) error {
	lb, err := c.loadBoard(ctx, src)
	if err != nil {
		return err
	}
	defer lb.Close()

	final, err := tea.NewProgram(newBrowseModel(lb.Board, src.String()), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	m := final.(browseModel)
	if m.hist.commits == 0 {
		return nil
	}
	if !write {
		printInfo("Discarded %d changes (use --write to keep them)", m.hist.commits)
		return nil
	}
	dest, err := c.save(ctx, lb, "")
	if err != nil {
		return err
	}
	printSuccess("Saved %d changes", m.hist.commits)
	printFile(dest)
	return nil
}

// =============================================================================
// browseModel - Interactive element tree
// =============================================================================

// row is one line of the flattened element tree.
type row struct {
	el   *tree.Element
	path path.Path
}

// history records committed batches for undo. It is shared by every copy
// of the model and fed by the board's change listener.
type history struct {
	undo    [][]op.Operation
	commits int
	paused  bool
}

type browseModel struct {
	board  *board.Board
	title  string
	rows   []row
	hist   *history
	cursor int
	offset int
	height int
	status string
}

func newBrowseModel(b *board.Board, title string) browseModel {
	h := &history{}
	b.On(board.EventChange, func(c board.Change) {
		if h.paused {
			return
		}
		h.undo = append(h.undo, c.Operations)
		h.commits++
	})
	m := browseModel{board: b, title: title, hist: h, height: 15}
	m.refresh()
	return m
}

// flatten lists the elements of root depth-first.
func flatten(root *tree.Element) []row {
	var rows []row
	tree.Walk(root, func(el *tree.Element, p path.Path) bool {
		rows = append(rows, row{el: el, path: p.Clone()})
		return true
	})
	return rows
}

func (m *browseModel) refresh() {
	m.rows = flatten(m.board.Root())
	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
	m.clampOffset()
}

func (m *browseModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m browseModel) current() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.clampOffset()
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.clampOffset()
			}
		case "x", "delete":
			m.remove()
		case "K":
			m.shift(-1)
		case "J":
			m.shift(1)
		case "s":
			m.selectCurrent()
		case "u":
			m.undo()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.clampOffset()
	}
	return m, nil
}

func (m *browseModel) remove() {
	r, ok := m.current()
	if !ok {
		return
	}
	if _, err := m.board.RemoveElements([]*tree.Element{r.el}); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("removed %s", r.el.ID)
	m.refresh()
}

// shift moves the current element by delta among its siblings, changing
// its z-order.
func (m *browseModel) shift(delta int) {
	r, ok := m.current()
	if !ok {
		return
	}
	parent, err := m.board.Get(path.Parent(r.path))
	if err != nil {
		m.status = err.Error()
		return
	}
	to := path.Last(r.path) + delta
	if to < 0 || to >= len(parent.Children) {
		return
	}
	newPath := path.Child(path.Parent(r.path), to)
	if err := m.board.Apply(op.MoveNode{Path: r.path, NewPath: newPath}); err != nil {
		m.status = err.Error()
		return
	}
	m.refresh()
	m.moveCursorTo(r.el.ID)
}

func (m *browseModel) selectCurrent() {
	r, ok := m.current()
	if !ok {
		return
	}
	if err := m.board.Select(nil, r.el); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("selected %s", r.el.ID)
}

// undo reverts the last committed batch by applying the inverse of each
// of its operations in reverse order.
func (m *browseModel) undo() {
	h := m.hist
	if len(h.undo) == 0 {
		m.status = "nothing to undo"
		return
	}
	last := h.undo[len(h.undo)-1]
	h.paused = true
	defer func() { h.paused = false }()
	for i := len(last) - 1; i >= 0; i-- {
		if err := m.board.Apply(op.Inverse(last[i])); err != nil {
			m.status = err.Error()
			m.refresh()
			return
		}
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.commits--
	m.status = fmt.Sprintf("undid %d operations", len(last))
	m.refresh()
}

func (m *browseModel) moveCursorTo(id string) {
	for i, r := range m.rows {
		if r.el.ID == id {
			m.cursor = i
			m.clampOffset()
			return
		}
	}
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  K/J reorder  s select  x remove  u undo  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  (empty board)"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.offset+m.height, len(m.rows))
	sel := m.board.Selection()
	var list strings.Builder
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		marker := " "
		if sel.Contains(r.el) {
			marker = "*"
		}
		indent := strings.Repeat("  ", r.path.Depth()-1)
		list.WriteString(fmt.Sprintf("%s%s%s%s %s\n", cursor, marker, indent, style.Render(r.el.Type), listDimStyle.Render(shortID(r.el.ID))))
	}

	detail := ""
	if r, ok := m.current(); ok {
		detail = detailBoxStyle.Render(elementDetail(r))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "  ", detail))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))
	if m.status != "" {
		b.WriteString("  " + StyleWarning.Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}

// elementDetail renders an element's identity and props, keys sorted.
func elementDetail(r row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("id"), r.el.ID)
	fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("path"), r.path)
	if r.el.GroupID != "" {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("group"), r.el.GroupID)
	}
	if r.el.HasChildren() {
		fmt.Fprintf(&b, "%s %d\n", StyleDim.Render("children"), len(r.el.Children))
	}
	for _, k := range slices.Sorted(maps.Keys(r.el.Props)) {
		fmt.Fprintf(&b, "%s %v\n", StyleDim.Render(k), r.el.Props[k])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
