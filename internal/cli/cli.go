// Package cli implements the whiteboard command-line interface.
//
// Commands work on board documents: JSON files holding an element tree,
// a viewport and a selection. Most commands accept either a file path or,
// with --id, a board from the configured store.
//
// # Commands
//
//   - apply: apply an operation batch to a board
//   - render: draw a board as SVG, or its element tree as DOT/PNG
//   - transform: rebase operations over an applied operation
//   - inspect: print a board summary
//   - browse: explore and edit a board interactively
//   - store: list, fetch, write and delete stored boards
//   - serve: run the HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The level
// otherwise comes from the [log] section of the config file.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/internal/config"
	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/buildinfo"
	"github.com/matzehuels/whiteboard/pkg/plugins"
	"github.com/matzehuels/whiteboard/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "whiteboard"

// stdio is the path meaning standard input or output.
const stdio = "-"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string

	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Whiteboard edits and renders whiteboard documents",
		Long:          `Whiteboard applies operations to whiteboard documents, renders them, and serves them over HTTP from a file, SQLite, Redis or MongoDB store.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			level, err := cfg.LogLevel()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			c.SetLogLevel(level)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/whiteboard/config.toml)")

	// Register all subcommands
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.transformCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Store
// =============================================================================

// config loads the configuration once.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	c.cfg = &cfg
	return cfg, nil
}

// openStore opens the configured store. Callers close it.
func (c *CLI) openStore(ctx context.Context) (*store.Boards, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.StoreConfig(), c.Logger)
}

// =============================================================================
// Board I/O
// =============================================================================

// boardSource names where a command reads a board from: a file path, "-"
// for stdin, or a store id.
type boardSource struct {
	path string
	id   string
}

func (s boardSource) String() string {
	if s.id != "" {
		return "store:" + s.id
	}
	if s.path == stdio {
		return "stdin"
	}
	return s.path
}

// loadedBoard is a board plus what is needed to write it back.
type loadedBoard struct {
	*board.Board
	src   boardSource
	title string
	st    *store.Boards
}

// loadBoard opens src with the built-in plugins registered.
func (c *CLI) loadBoard(ctx context.Context, src boardSource) (*loadedBoard, error) {
	opts := []board.Option{board.WithLogger(c.Logger), board.WithPlugins(plugins.BuiltIn()...)}
	if src.id != "" {
		st, err := c.openStore(ctx)
		if err != nil {
			return nil, err
		}
		b, doc, err := store.Load(ctx, st, src.id, opts...)
		if err != nil {
			st.Close()
			return nil, err
		}
		return &loadedBoard{Board: b, src: src, title: doc.Title, st: st}, nil
	}

	data, err := c.readInput(src.path)
	if err != nil {
		return nil, err
	}
	parsed, err := board.ParseData(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	b, err := board.New(append([]board.Option{board.WithData(parsed)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &loadedBoard{Board: b, src: src}, nil
}

// save writes the board to output, or back to its source if output is
// empty. A board read from stdin without an output goes to stdout.
func (c *CLI) save(ctx context.Context, lb *loadedBoard, output string) (string, error) {
	if output == "" && lb.st != nil {
		doc, err := store.Save(ctx, lb.st, lb.src.id, lb.title, lb.Board)
		if err != nil {
			return "", err
		}
		c.Logger.Debug("saved board", "id", doc.ID, "digest", doc.Digest)
		return lb.src.String(), nil
	}
	if output == "" {
		output = lb.src.path
	}
	data, err := marshalBoard(lb.Board)
	if err != nil {
		return "", err
	}
	if err := c.writeOutput(output, data); err != nil {
		return "", err
	}
	if output == stdio {
		return "stdout", nil
	}
	return output, nil
}

func (lb *loadedBoard) Close() error {
	lb.Destroy()
	if lb.st != nil {
		return lb.st.Close()
	}
	return nil
}

// readInput reads path, or stdin for "-".
func (c *CLI) readInput(path string) ([]byte, error) {
	if path == stdio {
		return io.ReadAll(c.stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or stdout for "-".
func (c *CLI) writeOutput(path string, data []byte) error {
	if path == stdio {
		_, err := c.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
