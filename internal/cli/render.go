package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/render"
)

const (
	formatSVG = "svg" // board drawing
	formatDOT = "dot" // element tree as Graphviz DOT
	formatPNG = "png" // element tree laid out by Graphviz

	defaultPadding = 20 // logical units around fitted content
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	id         string   // store id, instead of a board file
	output     string   // output file (single format) or base path (multiple)
	formats    []string // output formats: "svg", "dot", "png"
	fit        bool     // frame the content instead of the stored viewport
	padding    float64  // padding around fitted content
	width      float64  // SVG width attribute; 0 keeps the view box size
	height     float64  // SVG height attribute
	background string   // SVG background fill
	detailed   bool     // include paths and props in scene labels
	groups     bool     // draw groupId edges in scene diagrams
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{padding: defaultPadding}

	cmd := &cobra.Command{
		Use:   "render [board.json]",
		Short: "Render a board to SVG, or its element tree to DOT/PNG",
		Long: `Render a board.

The svg format draws the board through its plugins, framed by the stored
viewport (or the content, with --fit). The dot and png formats describe the
element tree itself: nesting, z-order and, with --groups, group membership.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := sourceFromArgs(args, opts.id)
			if err != nil {
				return err
			}
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), src, opts)
		},
	}

	addIDFlag(cmd, &opts.id)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.fit, "fit", false, "frame the content instead of the stored viewport")
	cmd.Flags().Float64Var(&opts.padding, "padding", opts.padding, "padding around fitted content")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "SVG width (default: view box width)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "SVG height (default: view box height)")
	cmd.Flags().StringVar(&opts.background, "background", "", "SVG background color")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show paths and properties in scene diagrams")
	cmd.Flags().BoolVar(&opts.groups, "groups", false, "draw group membership in scene diagrams")

	return cmd
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatSVG: true, formatDOT: true, formatPNG: true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'dot', or 'png')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input. If output has a
// format extension, it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == stdio {
			return "board"
		}
		return strings.TrimSuffix(strings.TrimSuffix(input, filepath.Ext(input)), ".board")
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns where format is written. A single format honors
// --output verbatim.
func outputPath(src boardSource, format string, opts renderOpts) string {
	if len(opts.formats) == 1 && opts.output != "" {
		return opts.output
	}
	input := src.path
	if src.id != "" {
		input = src.id
	}
	return basePath(opts.output, input) + "." + format
}

func (c *CLI) runRender(ctx context.Context, src boardSource, opts renderOpts) error {
	lb, err := c.loadBoard(ctx, src)
	if err != nil {
		return err
	}
	defer lb.Close()
	c.Logger.Infof("Rendering %s (%d elements)", src, len(lb.Children()))

	// Board rendering is read-only, so formats render concurrently.
	outputs := make([][]byte, len(opts.formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range opts.formats {
		g.Go(func() error {
			data, err := renderBoard(gctx, lb.Board, format, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", format, err)
			}
			outputs[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, format := range opts.formats {
		path := outputPath(src, format, opts)
		if err := c.writeOutput(path, outputs[i]); err != nil {
			return err
		}
		if path != stdio {
			printFile(path)
		}
	}
	return nil
}

// renderBoard produces one output format.
func renderBoard(ctx context.Context, b *board.Board, format string, opts renderOpts) ([]byte, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	switch format {
	case formatSVG:
		data := b.SVG(svgOptions(b, opts)...)
		prog.done(fmt.Sprintf("Rendered SVG: %d bytes", len(data)))
		return data, nil
	case formatDOT, formatPNG:
		dot := render.SceneDOT(b.Root(), render.SceneOptions{Detailed: opts.detailed, Groups: opts.groups})
		data, err := render.RenderScene(ctx, dot, render.Format(format))
		if err != nil {
			return nil, err
		}
		prog.done(fmt.Sprintf("Rendered scene %s: %d bytes", format, len(data)))
		return data, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

func svgOptions(b *board.Board, opts renderOpts) []render.SVGOption {
	var out []render.SVGOption
	if opts.fit {
		if bounds, ok := b.BBoxOf(b.Children()); ok {
			out = append(out, render.WithViewBox(b.ViewPort().Fit(bounds, opts.padding).Rect()))
		}
	}
	if opts.width > 0 && opts.height > 0 {
		out = append(out, render.WithSize(opts.width, opts.height))
	}
	if opts.background != "" {
		out = append(out, render.WithBackground(opts.background))
	}
	return out
}
