package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spangrid/pkg/pipeline"
)

// packOpts holds the command-line flags for the pack command.
type packOpts struct {
	strip   stripFlags
	formats string
	output  string
	labels  bool
	free    bool
	scale   float64
	palette string
	at      int
	noCache bool
	refresh bool
}

// packCommand creates the pack command, which places every item of a
// manifest and writes the rendered strip.
func (c *CLI) packCommand() *cobra.Command {
	var opts packOpts

	cmd := &cobra.Command{
		Use:   "pack [manifest]",
		Short: "Pack all items of a manifest and render the strip",
		Long: `Pack places every item of a manifest in index order and writes the
packed strip as SVG, PNG or JSON. Results are cached by manifest content and
options; --refresh recomputes and overwrites the cached entries.`,
		Example: `  spangrid pack gallery.toml
  spangrid pack gallery.toml -f svg,png --labels --free -o out/
  spangrid pack --demo --lanes 4 -f json
  spangrid pack --demo --viewport-at 600 --palette '#264653,#2a9d8f'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPack(cmd, args, &opts)
		},
	}

	opts.strip.register(cmd)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "draw item labels")
	cmd.Flags().BoolVar(&opts.free, "free", false, "outline the free-space rectangles")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "artifact scale factor")
	cmd.Flags().StringVar(&opts.palette, "palette", "", "comma-separated fill colors for items without one")
	cmd.Flags().IntVar(&opts.at, "viewport-at", 0, "outline the viewport at this scroll offset")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")

	return cmd
}

func (c *CLI) runPack(cmd *cobra.Command, args []string, opts *packOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	m, err := loadManifest(args, opts.strip.demo)
	if err != nil {
		return err
	}

	po := c.options(cmd, &opts.strip, m)
	po.Formats = parseFormats(opts.formats)
	po.Labels = opts.labels
	po.Free = opts.free
	po.Scale = opts.scale
	po.Palette = splitList(opts.palette)
	if cmd.Flags().Changed("viewport-at") {
		po.ViewportAt = &opts.at
	}
	po.Refresh = opts.refresh
	if err := pipeline.ValidateFormats(po.Formats); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spin := startSpinner(ctx, fmt.Sprintf("Packing %s...", m.Name))
	result, err := runner.Execute(ctx, m, po)
	spin.Stop()
	if err != nil {
		return err
	}
	prog.stage("packed and rendered",
		"pack", result.Stats.PackTime,
		"render", result.Stats.RenderTime,
		"layout_cached", result.CacheInfo.LayoutHit,
		"render_cached", result.CacheInfo.RenderHit)

	paths, err := writeArtifacts(ctx, opts.output, m.Name, result.Artifacts)
	if err != nil {
		return err
	}
	prog.stage("artifacts written", "files", len(paths))
	prog.done(fmt.Sprintf("Packed %d items", result.Stats.ItemCount), "slot", result.Layout.SlotSize)

	printSuccess("Packed %s", m.Name)
	printStats(runStats{
		items:  result.Stats.ItemCount,
		extent: result.Layout.Extent,
		slot:   result.Layout.SlotSize,
		cached: result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit,
	})
	for _, p := range paths {
		printFile(p)
	}
	if !slices.Contains(po.Formats, pipeline.FormatJSON) {
		printNextStep("Inspect the window while scrolling", fmt.Sprintf("%s scroll %s --step scroll:%d", appName, manifestArg(args, opts.strip.demo), po.Height))
	}
	return nil
}

// writeArtifacts writes one file per format as dir/name.format, in format
// order, and returns the paths written.
func writeArtifacts(ctx context.Context, dir, name string, artifacts map[string][]byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	slices.Sort(formats)

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, name+"."+f)
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func manifestArg(args []string, demo bool) string {
	if demo || len(args) == 0 {
		return "--demo"
	}
	return args[0]
}
