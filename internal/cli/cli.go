package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/spangrid/internal/config"
	"github.com/matzehuels/spangrid/pkg/buildinfo"
	"github.com/matzehuels/spangrid/pkg/cache"
	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/manifest"
	"github.com/matzehuels/spangrid/pkg/observability"
	"github.com/matzehuels/spangrid/pkg/pipeline"
	"github.com/matzehuels/spangrid/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "spangrid"

	// cachePrefix namespaces shared Redis cache keys.
	cachePrefix = "spangrid:cache:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// flagKeys maps command flags to the config keys they override.
// Strip flags are not bound here: they rank above manifest values and are
// applied per command instead.
var flagKeys = map[string]string{
	"no-cache":       "cache.disabled",
	"cache-dir":      "cache.dir",
	"addr":           "server.addr",
	"mongo-uri":      "server.mongo_uri",
	"anchor-backend": "anchors.backend",
}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	trace      bool
	hooks      *observability.LogHooks // set by --trace
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Spangrid lays out spanning grid items in a virtualized strip",
		Long: `Spangrid packs items spanning several lanes into a scrolling strip, realizes
only the window around the viewport, and keeps the scroll position anchored
to an item across data changes and restarts.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./spangrid.toml, then ~/.config/spangrid/spangrid.toml)")
	root.PersistentFlags().BoolVar(&c.trace, "trace", false, "log engine and cache events at debug level")

	root.AddCommand(c.packCommand())
	root.AddCommand(c.scrollCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.freespaceCommand())
	root.AddCommand(c.anchorsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig merges defaults, the config file, environment and the executing
// command's flags, then applies log settings.
func (c *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return err
	}
	cfg, err := config.Load(v, c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		c.SetLogLevel(level)
	} else {
		c.Logger.Warn("ignoring unknown log level", "level", cfg.Log.Level)
	}
	if c.trace {
		c.SetLogLevel(log.DebugLevel)
		c.hooks = observability.NewLogHooks(c.Logger)
		observability.SetLayoutHooks(c.hooks)
		observability.SetCacheHooks(c.hooks)
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// settings returns the loaded configuration, or defaults when a command runs
// without the root pre-run (tests).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		cfg, err := config.Load(viper.New(), "")
		if err != nil {
			c.Logger.Warn("using built-in defaults", "err", err)
			if cfg, err = config.Defaults(); err != nil {
				c.Logger.Error("decode built-in defaults", "err", err)
				cfg = &config.Config{}
			}
		}
		c.cfg = cfg
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// newCache picks the cache backend: none, shared Redis, or the file cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.settings().Cache
	if noCache || cfg.Disabled {
		return cache.Nop(), nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cachePrefix)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "err", err)
			return cache.Nop(), nil
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.Nop(), nil
	}
	return cache.NewFileCache(dir)
}

// openAnchors opens the configured anchor store.
func (c *CLI) openAnchors(ctx context.Context) (session.Store, error) {
	return session.Open(ctx, c.settings().Anchors.Session())
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default
// (~/.cache/spangrid/).
func (c *CLI) cacheDir() (string, error) {
	if dir := c.settings().Cache.Dir; dir != "" {
		return dir, nil
	}
	return defaultCacheDir()
}

func defaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// stripFlags are the strip options shared by commands that lay out items.
type stripFlags struct {
	orientation string
	lanes       int
	width       int
	height      int
	demo        bool
}

func (s *stripFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.orientation, "orientation", "", "scroll axis: vertical or horizontal")
	cmd.Flags().IntVar(&s.lanes, "lanes", 0, "number of lanes across the strip")
	cmd.Flags().IntVar(&s.width, "width", 0, "viewport width in pixels")
	cmd.Flags().IntVar(&s.height, "height", 0, "viewport height in pixels")
	cmd.Flags().BoolVar(&s.demo, "demo", false, "use the built-in demo data set instead of a manifest")
}

// options builds pipeline options with explicit flags first, then manifest
// values, then configured defaults.
func (c *CLI) options(cmd *cobra.Command, s *stripFlags, m *manifest.Manifest) pipeline.Options {
	var opts pipeline.Options
	if cmd.Flags().Changed("orientation") {
		opts.Orientation = s.orientation
	}
	if cmd.Flags().Changed("lanes") {
		opts.Lanes = s.lanes
	}
	if cmd.Flags().Changed("width") {
		opts.Width = s.width
	}
	if cmd.Flags().Changed("height") {
		opts.Height = s.height
	}
	opts.ApplyManifest(m)
	c.settings().Layout.Fill(&opts)
	opts.Logger = c.Logger
	return opts
}

// loadManifest reads the manifest named by args, or returns the demo set.
func loadManifest(args []string, demo bool) (*manifest.Manifest, error) {
	if demo {
		return manifest.Demo(), nil
	}
	if len(args) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "a manifest file is required (or pass --demo)")
	}
	return manifest.Load(args[0])
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if out := splitList(strings.ToLower(s)); len(out) > 0 {
		return out
	}
	return []string{pipeline.FormatSVG}
}
