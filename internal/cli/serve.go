package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored boards over HTTP",
		Long: `Serve the board API backed by the configured store.

Routes:
  GET    /healthz
  GET    /boards
  GET    /boards/{id}
  PUT    /boards/{id}
  DELETE /boards/{id}
  POST   /boards/{id}/operations
  GET    /boards/{id}/render.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				cfg, err := c.config()
				if err != nil {
					return err
				}
				addr = cfg.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	c.Logger.Info("store ready", "backend", cfg.Store.Backend, "render_cache", cfg.Server.RenderCache)

	renders, err := cfg.RenderCache()
	if err != nil {
		return err
	}
	defer renders.Close()

	srv := server.New(st, c.Logger, server.WithRenderCache(renders, server.DefaultRenderTTL))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	// A clean shutdown only follows cancellation; main maps it to exit 130.
	return ctx.Err()
}
