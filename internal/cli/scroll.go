package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spangrid/pkg/manifest"
	"github.com/matzehuels/spangrid/pkg/pipeline"
	"github.com/matzehuels/spangrid/pkg/session"
)

// scrollOpts holds the command-line flags for the scroll command.
type scrollOpts struct {
	strip    stripFlags
	steps    []string
	stable   bool
	remember bool
	asJSON   bool
	noCache  bool
	refresh  bool
}

// scrollCommand creates the scroll command, which drives the layout engine
// through a script of steps and prints the realized window after each.
func (c *CLI) scrollCommand() *cobra.Command {
	var opts scrollOpts

	cmd := &cobra.Command{
		Use:   "scroll [manifest]",
		Short: "Run a scroll script through the layout engine",
		Long: `Scroll runs a script of engine steps and prints the realized window after
each one. Steps:

  rebuild          lay out a fresh window
  scroll:N         scroll by N pixels (negative scrolls back)
  offset:N         scroll to pixel offset N
  to:K             rebuild with item K at the leading edge
  save             record the first visible item
  restore[:K]      rebuild around the saved item (or item K)
  resize:WxH       change the viewport, then rebuild

Without --step the script is a single rebuild. With --remember the anchor
saved for this manifest is restored first and the final anchor is saved.`,
		Example: `  spangrid scroll --demo --step scroll:120 --step save --step to:30 --step restore
  spangrid scroll gallery.toml -s scroll:800 -s scroll:-200 --json
  spangrid scroll gallery.toml --stable --remember -s scroll:400`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScroll(cmd, args, &opts)
		},
	}

	opts.strip.register(cmd)
	cmd.Flags().StringArrayVarP(&opts.steps, "step", "s", nil, "script step (repeatable)")
	cmd.Flags().BoolVar(&opts.stable, "stable", false, "declare item order stable (enables save)")
	cmd.Flags().BoolVar(&opts.remember, "remember", false, "restore and save the anchor for this manifest")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the trace as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")

	return cmd
}

func (c *CLI) runScroll(cmd *cobra.Command, args []string, opts *scrollOpts) error {
	ctx := cmd.Context()

	m, err := loadManifest(args, opts.strip.demo)
	if err != nil {
		return err
	}
	steps, err := pipeline.ParseSteps(opts.steps)
	if err != nil {
		return err
	}

	po := c.options(cmd, &opts.strip, m)
	po.StableOrder = po.StableOrder || opts.stable
	po.Refresh = opts.refresh

	var store session.Store
	anchorID := session.KeyID(m.Hash())
	if opts.remember {
		store, err = c.openAnchors(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		steps, err = withStoredAnchor(ctx, store, anchorID, steps)
		if err != nil {
			return err
		}
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	trace, cached, err := runner.SimulateWithCacheInfo(ctx, m, po, steps)
	if err != nil {
		return err
	}
	prog.stage("simulated", "steps", len(steps), "cached", cached)

	if store != nil {
		if err := saveTraceAnchor(ctx, store, anchorID, m, trace, c.settings().Anchors.TTL); err != nil {
			return err
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trace)
	}

	fmt.Fprintln(stdout, traceTable(trace))
	printStats(runStats{items: trace.Count, slot: trace.SlotSize, cached: cached})
	switch {
	case trace.Anchor != nil:
		printKeyValue("Anchor", fmt.Sprintf("item %d", trace.Anchor.FirstVisibleIndex))
	case opts.remember:
		printWarning("Item order is not stable, no anchor saved (use --stable)")
	}
	return nil
}

// withStoredAnchor prepends a restore step when an anchor is stored under id.
// A lone rebuild is replaced, since the restore already rebuilds.
func withStoredAnchor(ctx context.Context, store session.Store, id string, steps []pipeline.Step) ([]pipeline.Step, error) {
	a, err := store.Get(ctx, id)
	if err != nil || a == nil {
		return steps, err
	}
	restore := pipeline.Step{Kind: pipeline.StepRestore, Arg: a.FirstVisibleIndex, HasArg: true}
	if len(steps) == 1 && steps[0].Kind == pipeline.StepRebuild {
		return []pipeline.Step{restore}, nil
	}
	return append([]pipeline.Step{restore}, steps...), nil
}

// saveTraceAnchor stores the trace's final anchor under id.
func saveTraceAnchor(ctx context.Context, store session.Store, id string, m *manifest.Manifest, trace *pipeline.Trace, ttl time.Duration) error {
	if trace.Anchor == nil {
		return nil
	}
	return store.Set(ctx, session.New(id, m.Hash(), *trace.Anchor, ttl))
}

// traceTable renders one row per snapshot.
func traceTable(trace *pipeline.Trace) string {
	t := newTable("Step", "Consumed", "Scroll", "Extent", "Window", "+Acq", "-Rel", "Live", "Saved")
	for _, s := range trace.Snapshots {
		window := "empty"
		if s.Last >= s.First {
			window = fmt.Sprintf("%d..%d", s.First, s.Last)
		}
		saved := ""
		if s.Saved != nil {
			saved = fmt.Sprint(s.Saved.FirstVisibleIndex)
		}
		t.Row(
			s.Step,
			signed(s.Consumed),
			fmt.Sprint(s.State.Scroll),
			fmt.Sprintf("%d..%d", s.State.LayoutStart, s.State.LayoutEnd),
			window,
			fmt.Sprint(s.Acquired),
			fmt.Sprint(s.Released),
			fmt.Sprint(s.Live),
			saved,
		)
	}
	return t.Render()
}

func signed(n int) string {
	if n == 0 {
		return "0"
	}
	return fmt.Sprintf("%+d", n)
}
