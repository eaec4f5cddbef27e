package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spangrid/pkg/pipeline"
	"github.com/matzehuels/spangrid/pkg/render"
)

// freespaceCommand creates the freespace command, a debugging aid that shows
// the tracker's free rectangles after the first N items are packed.
func (c *CLI) freespaceCommand() *cobra.Command {
	var (
		strip  stripFlags
		items  int
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "freespace [manifest]",
		Short: "Show the free-space rectangles after packing N items",
		Long: `Freespace packs the first N items of a manifest and prints the tracker's
free rectangles as a Graphviz DOT graph, or renders it to SVG. Each placed
item points at the free rectangles bordering it.`,
		Example: `  spangrid freespace --demo --items 5
  spangrid freespace gallery.toml --items 12 --format svg -o free.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManifest(args, strip.demo)
			if err != nil {
				return err
			}
			opts := c.options(cmd, &strip, m)
			opts.Limit = items

			l, tr, err := pipeline.Pack(m, opts)
			if err != nil {
				return err
			}
			spin := startSpinner(cmd.Context(), fmt.Sprintf("Rendering %d free rectangles...", len(l.Free)))
			data, err := render.RenderFreeSpace(cmd.Context(), tr, l.Labels(), format)
			spin.Stop()
			if err != nil {
				return err
			}

			if output == "" {
				_, err = stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("%d items placed, %d free rectangles", len(l.Items), len(l.Free))
			printFile(output)
			return nil
		},
	}

	strip.register(cmd)
	cmd.Flags().IntVarP(&items, "items", "n", 0, "number of items to pack (0 packs all)")
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatDOT, "output format: dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
