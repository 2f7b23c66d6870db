package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/core/op"
)

// applyOpts holds the command-line flags for the apply command.
type applyOpts struct {
	id         string // store id, instead of a board file
	ops        string // operations file, "-" for stdin
	output     string // output path; default rewrites the source
	sequential bool   // apply one by one instead of as a rebased batch
	dryRun     bool   // report without writing
}

// applyCommand creates the apply command.
func (c *CLI) applyCommand() *cobra.Command {
	var opts applyOpts

	cmd := &cobra.Command{
		Use:   "apply [board.json] --ops ops.json",
		Short: "Apply an operation batch to a board",
		Long: `Apply a JSON array of operations to a board.

By default the operations are treated as one batch computed against the
board's current state: each is rebased over the ones applied before it, and
operations whose target was removed earlier in the batch are dropped. With
--sequential, each operation sees the result of the previous one instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := sourceFromArgs(args, opts.id)
			if err != nil {
				return err
			}
			return c.runApply(cmd.Context(), src, opts)
		},
	}

	addIDFlag(cmd, &opts.id)
	cmd.Flags().StringVar(&opts.ops, "ops", "", "operations file (\"-\" for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (\"-\" for stdout; default rewrites the source)")
	cmd.Flags().BoolVar(&opts.sequential, "sequential", false, "apply operations one after another instead of as a batch")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report the result without writing")
	_ = cmd.MarkFlagRequired("ops")

	return cmd
}

func (c *CLI) runApply(ctx context.Context, src boardSource, opts applyOpts) error {
	raw, err := c.readInput(opts.ops)
	if err != nil {
		return fmt.Errorf("read operations: %w", err)
	}
	ops, err := op.UnmarshalList(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.ops, err)
	}

	lb, err := c.loadBoard(ctx, src)
	if err != nil {
		return err
	}
	defer lb.Close()

	prog := newProgress(c.Logger)
	res, err := applyOps(lb.Board, ops, opts.sequential)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Applied %d of %d operations", len(res.Applied), len(ops)))
	if len(res.Dropped) > 0 {
		c.Logger.Warn("dropped stale operations", "indices", res.Dropped)
	}

	if opts.dryRun {
		printInfo("Dry run: %s", batchSummary(len(res.Applied), len(res.Dropped)))
		return nil
	}
	dest, err := c.save(ctx, lb, opts.output)
	if err != nil {
		return err
	}
	if dest != "stdout" {
		printSuccess("Saved board: %s", batchSummary(len(res.Applied), len(res.Dropped)))
		printFile(dest)
	}
	return nil
}

// applyOps applies ops as a batch or one at a time. In sequential mode the
// first failure stops, leaving earlier operations applied.
func applyOps(b *board.Board, ops []op.Operation, sequential bool) (board.BatchResult, error) {
	if !sequential {
		return b.ApplyBatch(ops)
	}
	var res board.BatchResult
	for i, o := range ops {
		if err := b.Apply(o); err != nil {
			return res, fmt.Errorf("operation %d: %w", i, err)
		}
		res.Applied = append(res.Applied, o)
	}
	return res, nil
}

// marshalBoard encodes a board as indented JSON.
func marshalBoard(b *board.Board) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// addIDFlag registers --id, selecting a stored board instead of a file.
func addIDFlag(cmd *cobra.Command, id *string) {
	cmd.Flags().StringVar(id, "id", "", "use the board with this id from the configured store")
}

// sourceFromArgs resolves the board argument against --id.
func sourceFromArgs(args []string, id string) (boardSource, error) {
	switch {
	case id != "" && len(args) > 0:
		return boardSource{}, fmt.Errorf("give either a board file or --id, not both")
	case id != "":
		return boardSource{id: id}, nil
	case len(args) == 0:
		return boardSource{}, fmt.Errorf("a board file (or \"-\" for stdin) or --id is required")
	}
	return boardSource{path: args[0]}, nil
}
