package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spangrid/internal/server"
	"github.com/matzehuels/spangrid/pkg/cache"
	"github.com/matzehuels/spangrid/pkg/observability"
	"github.com/matzehuels/spangrid/pkg/pipeline"
	"github.com/matzehuels/spangrid/pkg/storage"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes packing, scroll simulation and anchor storage over HTTP.
Layouts are kept in memory unless server.mongo_uri is configured; anchors use
the configured anchor store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("mongo-uri", "", "MongoDB URI for layout documents")
	cmd.Flags().String("anchor-backend", "", "anchor store backend: file or redis")
	cmd.Flags().Bool("no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	cfg := c.settings()

	cc, err := c.newCache(ctx, false)
	if err != nil {
		return err
	}
	// API entries live beside CLI entries in a shared cache.
	runner := pipeline.NewRunner(cc, cache.WithPrefix(nil, "api:"), c.Logger)
	defer runner.Close()

	docs, err := storage.Open(ctx, cfg.Server.MongoURI, cfg.Server.MongoDatabase)
	if err != nil {
		return err
	}
	defer docs.Close(context.WithoutCancel(ctx))

	anchors, err := c.openAnchors(ctx)
	if err != nil {
		return err
	}
	defer anchors.Close()

	counters := observability.NewCounters()
	if c.hooks != nil {
		observability.SetLayoutHooks(observability.TeeLayout(counters, c.hooks))
		observability.SetCacheHooks(observability.TeeCache(counters, c.hooks))
	} else {
		observability.SetLayoutHooks(counters)
		observability.SetCacheHooks(counters)
	}

	srv := server.New(server.Config{
		Addr:      cfg.Server.Addr,
		Timeout:   cfg.Server.Timeout,
		AnchorTTL: cfg.Anchors.TTL,
		Counters:  counters,
	}, runner, docs, anchors, c.Logger)

	printInfo("Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
	return srv.Run(ctx)
}
