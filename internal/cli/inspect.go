package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

// boardStats summarizes a board's element tree.
type boardStats struct {
	Elements   int
	Depth      int
	Types      map[string]int
	Unrendered int // elements whose type has no registered plugin
}

func statsOf(b *board.Board) boardStats {
	s := boardStats{Types: make(map[string]int)}
	tree.Walk(b.Root(), func(el *tree.Element, p path.Path) bool {
		s.Elements++
		s.Depth = max(s.Depth, p.Depth())
		s.Types[el.Type]++
		if _, ok := b.Plugin(el.Type); !ok {
			s.Unrendered++
		}
		return true
	})
	return s
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		id       string
		showTree bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [board.json]",
		Short: "Print a summary of a board",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := sourceFromArgs(args, id)
			if err != nil {
				return err
			}
			return c.runInspect(cmd.Context(), src, showTree)
		},
	}

	addIDFlag(cmd, &id)
	cmd.Flags().BoolVar(&showTree, "tree", false, "print the element tree")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, src boardSource, showTree bool) error {
	lb, err := c.loadBoard(ctx, src)
	if err != nil {
		return err
	}
	defer lb.Close()

	b := lb.Board
	stats := statsOf(b)

	fmt.Fprintln(c.stdout, StyleTitle.Render(src.String()))
	if lb.title != "" {
		printKeyValue(c.stdout, "Title", lb.title)
	}
	printKeyValue(c.stdout, "Elements", fmt.Sprintf("%d (%d root-level, depth %d)", stats.Elements, len(b.Children()), stats.Depth))
	if bounds, ok := b.BBoxOf(b.Children()); ok {
		printKeyValue(c.stdout, "Bounds", fmt.Sprintf("%.0f,%.0f %.0f×%.0f", bounds.X, bounds.Y, bounds.Width, bounds.Height))
	}
	vp := b.ViewPort()
	printKeyValue(c.stdout, "Viewport", fmt.Sprintf("%.0f,%.0f %.0f×%.0f @ %.2gx", vp.MinX, vp.MinY, vp.Width, vp.Height, vp.Zoom))
	sel := b.Selection()
	if sel.IsEmpty() {
		printKeyValue(c.stdout, "Selection", StyleDim.Render("none"))
	} else {
		printKeyValue(c.stdout, "Selection", strings.Join(sel.IDs(), ", "))
	}
	if stats.Unrendered > 0 {
		printKeyValue(c.stdout, "Unknown", StyleWarning.Render(fmt.Sprintf("%d elements without a plugin", stats.Unrendered)))
	}

	fmt.Fprintln(c.stdout)
	fmt.Fprintln(c.stdout, typeTable(stats.Types))

	if showTree {
		fmt.Fprintln(c.stdout)
		writeTree(c.stdout, b.Root())
	}
	return nil
}

// typeTable renders element counts per type, most frequent first.
func typeTable(types map[string]int) string {
	names := slices.Collect(maps.Keys(types))
	slices.SortFunc(names, func(a, b string) int {
		if d := types[b] - types[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n, fmt.Sprint(types[n])}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Type", "Count").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return StyleNumber
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// writeTree prints one line per element, indented by depth.
func writeTree(w io.Writer, root *tree.Element) {
	tree.Walk(root, func(el *tree.Element, p path.Path) bool {
		indent := strings.Repeat("  ", p.Depth()-1)
		line := fmt.Sprintf("%s%s %s %s", indent, StyleDim.Render(p.String()), el.Type, StyleHighlight.Render(el.ID))
		if el.GroupID != "" {
			line += StyleDim.Render(" in " + el.GroupID)
		}
		fmt.Fprintln(w, line)
		return true
	})
}
