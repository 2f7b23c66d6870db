package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/pkg/store"
)

// storeCommand creates the store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored boards",
		Long: `Manage boards in the configured store.

The backend is chosen by the [store] section of the config file or the
WHITEBOARD_STORE environment variable: file (default), sqlite, redis, mongo
or memory.`,
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// withStore opens the store, runs fn and closes the store.
func (c *CLI) withStore(ctx context.Context, fn func(*store.Boards) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	var sp *spinner
	if remote(cfg.Store.Backend) {
		sp = newSpinner(ctx, os.Stderr, fmt.Sprintf("Connecting to %s...", cfg.Store.Backend))
		sp.Start()
	}
	st, err := c.openStore(ctx)
	if sp != nil {
		if err != nil {
			sp.StopWithError(fmt.Sprintf("Could not open %s store", cfg.Store.Backend))
		} else {
			sp.Stop()
		}
	}
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// remote reports whether opening the backend involves the network.
func remote(backend string) bool {
	return backend == store.BackendRedis || backend == store.BackendMongo
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored boards",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st *store.Boards) error {
				boards, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					if boards == nil {
						boards = []store.Summary{}
					}
					data, err := json.MarshalIndent(boards, "", "  ")
					if err != nil {
						return err
					}
					return c.writeOutput(stdio, append(data, '\n'))
				}
				if len(boards) == 0 {
					printInfo("No boards stored")
					return nil
				}
				fmt.Fprintln(c.stdout, summaryTable(boards))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print summaries as JSON")
	return cmd
}

func summaryTable(boards []store.Summary) string {
	rows := make([][]string, len(boards))
	for i, b := range boards {
		rows[i] = []string{b.ID, b.Title, formatSize(b.Size), formatRelativeTime(b.UpdatedAt)}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Title", "Size", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col >= 2:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// storeGetCommand creates the "store get" subcommand.
func (c *CLI) storeGetCommand() *cobra.Command {
	output := stdio
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Write a stored board's content to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st *store.Boards) error {
				doc, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				data, err := indentJSON(doc.Content)
				if err != nil {
					return err
				}
				if err := c.writeOutput(output, data); err != nil {
					return err
				}
				if output != stdio {
					printSuccess("Wrote %s", doc.ID)
					printFile(output)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", output, "output file")
	return cmd
}

// storePutCommand creates the "store put" subcommand.
func (c *CLI) storePutCommand() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "put <id> <board.json>",
		Short: "Create or replace a stored board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := c.readInput(args[1])
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st *store.Boards) error {
				if !cmd.Flags().Changed("title") {
					if prev, err := st.Get(cmd.Context(), args[0]); err == nil {
						title = prev.Title
					}
				}
				doc := &store.Document{ID: args[0], Title: title, Content: content}
				if err := st.Put(cmd.Context(), doc); err != nil {
					return err
				}
				printSuccess("Stored %s", doc.ID)
				printDetail("Digest: %s", doc.Digest)
				printNextStep("Render it", fmt.Sprintf("%s render --id %s", appName, doc.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "board title (default: keep the stored title)")
	return cmd
}

// storeDeleteCommand creates the "store delete" subcommand.
func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete stored boards",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st *store.Boards) error {
				for _, id := range args {
					if err := st.Delete(cmd.Context(), id); err != nil {
						return fmt.Errorf("delete %s: %w", id, err)
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

func indentJSON(raw json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// formatRelativeTime formats a timestamp as a short relative string.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.Format("Jan 2, 2006")
}
