package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spangrid/pkg/session"
)

// anchorsCommand creates the anchors command for inspecting saved scroll
// positions.
func (c *CLI) anchorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anchors",
		Short: "Inspect saved scroll anchors",
	}

	cmd.PersistentFlags().String("anchor-backend", "", "anchor store backend: file or redis")

	cmd.AddCommand(c.anchorsListCommand())
	cmd.AddCommand(c.anchorsDeleteCommand())
	cmd.AddCommand(c.anchorsClearCommand())
	cmd.AddCommand(c.anchorsPathCommand())

	return cmd
}

// anchorsListCommand creates the "anchors list" subcommand.
func (c *CLI) anchorsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved anchors, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openAnchors(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Cleanup(ctx); err != nil {
				loggerFromContext(ctx).Warn("anchor cleanup failed", "err", err)
			}
			anchors, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(anchors) == 0 {
				printInfo("No saved anchors")
				return nil
			}
			fmt.Fprintln(stdout, anchorTable(anchors, time.Now()))
			return nil
		},
	}
}

// anchorsDeleteCommand creates the "anchors delete" subcommand.
func (c *CLI) anchorsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete saved anchors by ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openAnchors(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.Delete(ctx, id); err != nil {
					return fmt.Errorf("delete anchor %s: %w", id, err)
				}
			}
			printSuccess("Deleted %d anchors", len(args))
			return nil
		},
	}
}

// anchorsClearCommand creates the "anchors clear" subcommand.
func (c *CLI) anchorsClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved anchors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openAnchors(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			anchors, err := store.List(ctx)
			if err != nil {
				return err
			}
			for _, a := range anchors {
				if err := store.Delete(ctx, a.ID); err != nil {
					return fmt.Errorf("delete anchor %s: %w", a.ID, err)
				}
			}
			printSuccess("Cleared %d anchors", len(anchors))
			return nil
		},
	}
}

// anchorsPathCommand creates the "anchors path" subcommand.
func (c *CLI) anchorsPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where anchors are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings().Anchors
			if cfg.Backend == session.BackendRedis {
				fmt.Fprintln(stdout, cfg.RedisURL)
				return nil
			}
			if cfg.Dir != "" {
				fmt.Fprintln(stdout, cfg.Dir)
				return nil
			}
			dir, err := session.DefaultDir()
			if err != nil {
				return fmt.Errorf("get anchor dir: %w", err)
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	}
}

// anchorTable renders anchors with ages relative to now.
func anchorTable(anchors []*session.Anchor, now time.Time) string {
	t := newTable("ID", "Item", "Manifest", "Updated", "Expires")
	for _, a := range anchors {
		key := a.Key
		if len(key) > 12 {
			key = key[:12]
		}
		expires := "never"
		if !a.ExpiresAt.IsZero() {
			expires = "in " + formatDuration(a.ExpiresAt.Sub(now))
		}
		t.Row(a.ID, fmt.Sprint(a.FirstVisibleIndex), key, formatDuration(now.Sub(a.UpdatedAt))+" ago", expires)
	}
	return t.Render()
}

// formatDuration renders d in its largest whole unit.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
