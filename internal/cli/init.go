package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spangrid/internal/config"
)

// initCommand creates the init command, which writes a commented config file.
func (c *CLI) initCommand() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				dir, err := config.Dir()
				if err != nil {
					return fmt.Errorf("get config dir: %w", err)
				}
				path = filepath.Join(dir, appName+".toml")
			}
			if _, err := os.Stat(path); err == nil && !force {
				printWarning("%s already exists (use --force to overwrite)", path)
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := os.WriteFile(path, []byte(config.Sample), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			printSuccess("Wrote config")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "config path (default ~/.config/spangrid/spangrid.toml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
