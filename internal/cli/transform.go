package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/op/transform"
	"github.com/matzehuels/whiteboard/pkg/core/path"
)

// transformOpts holds the command-line flags for the transform command.
type transformOpts struct {
	ops    string // pending operations file
	over   string // applied operations file
	path   string // a single path to map instead of --ops
	point  bool   // treat --path as an insertion position
	output string // output file for the rebased operations
}

// transformCommand creates the transform command.
func (c *CLI) transformCommand() *cobra.Command {
	opts := transformOpts{output: stdio}

	cmd := &cobra.Command{
		Use:   "transform --over applied.json (--ops pending.json | --path 0,1)",
		Short: "Rebase operations or a path over applied operations",
		Long: `Map not-yet-applied operations across operations that were applied first,
so each still targets the same logical node. Operations whose target was
removed are dropped and their indices reported.

With --path, a single path is mapped instead; --point maps it as an
insertion position rather than a node address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (opts.ops == "") == (opts.path == "") {
				return fmt.Errorf("exactly one of --ops or --path is required")
			}
			return c.runTransform(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.over, "over", "", "applied operations file (\"-\" for stdin)")
	cmd.Flags().StringVar(&opts.ops, "ops", "", "pending operations file")
	cmd.Flags().StringVar(&opts.path, "path", "", "path to map, e.g. 0,2,1")
	cmd.Flags().BoolVar(&opts.point, "point", false, "map --path as an insertion position")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output file for rebased operations")
	_ = cmd.MarkFlagRequired("over")

	return cmd
}

func (c *CLI) runTransform(_ context.Context, opts transformOpts) error {
	applied, err := c.readOps(opts.over)
	if err != nil {
		return err
	}

	if opts.path != "" {
		p, err := path.Parse(opts.path)
		if err != nil {
			return err
		}
		mapped, ok := mapPath(p, applied, opts.point)
		if !ok {
			printWarning("%s was removed", p)
			return nil
		}
		fmt.Fprintln(c.stdout, mapped)
		return nil
	}

	pending, err := c.readOps(opts.ops)
	if err != nil {
		return err
	}
	kept, dropped := rebaseAll(pending, applied)
	if len(dropped) > 0 {
		c.Logger.Warn("dropped operations", "indices", dropped)
	}
	c.Logger.Debugf("Rebased %d operations over %d: %d kept", len(pending), len(applied), len(kept))

	data, err := op.MarshalList(kept)
	if err != nil {
		return err
	}
	return c.writeOutput(opts.output, append(data, '\n'))
}

func (c *CLI) readOps(file string) ([]op.Operation, error) {
	raw, err := c.readInput(file)
	if err != nil {
		return nil, fmt.Errorf("read operations: %w", err)
	}
	ops, err := op.UnmarshalList(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return ops, nil
}

// rebaseAll maps pending across every operation of applied in order. The
// dropped indices refer to pending.
func rebaseAll(pending, applied []op.Operation) ([]op.Operation, []int) {
	index := make([]int, len(pending))
	for i := range index {
		index[i] = i
	}
	var dropped []int
	for _, a := range applied {
		kept, gone := transform.Rebase(pending, a)
		if len(gone) > 0 {
			next := index[:0:0]
			g := 0
			for i, at := range index {
				if g < len(gone) && gone[g] == i {
					dropped = append(dropped, at)
					g++
					continue
				}
				next = append(next, at)
			}
			index = next
		}
		pending = kept
	}
	slices.Sort(dropped)
	return pending, dropped
}

// mapPath maps p across every operation of applied.
func mapPath(p path.Path, applied []op.Operation, point bool) (path.Path, bool) {
	for _, a := range applied {
		var ok bool
		if point {
			p, ok = transform.Point(p, a)
		} else {
			p, ok = transform.Path(p, a)
		}
		if !ok {
			return nil, false
		}
	}
	return p, true
}
