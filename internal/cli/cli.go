package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pqtree/pkg/buildinfo"
	"github.com/matzehuels/pqtree/pkg/cache"
	"github.com/matzehuels/pqtree/pkg/render"
	"github.com/matzehuels/pqtree/pkg/scenario"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pqtree"

	// envCacheDir overrides the cache directory. The value "off" disables
	// the file cache.
	envCacheDir = "PQTREE_CACHE"

	// envRedisAddr selects a Redis cache for the serve command.
	envRedisAddr = "PQTREE_REDIS_ADDR"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
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
		Short: "pqtree runs and renders PQ-tree node-list scenarios",
		Long: `pqtree drives the PQ-tree node-list primitives from scenario files:
structural edits, label buckets and the trim/flatten steps of
partial-node reduction. Each step is checked against the tree invariants
and the final tree can be exported as JSON, DOT, SVG, PNG or PDF.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.runCommand())
	root.AddCommand(c.stepCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.permCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a scenario runner backed by the file cache.
func (c *CLI) newRunner(noCache bool) (*scenario.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return scenario.NewRunner(cache, nil, c.Logger), nil
}

// newRenderer creates a renderer sharing the file cache.
func (c *CLI) newRenderer(noCache bool) (*render.Renderer, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return render.New(render.WithCache(cache), render.WithLogger(c.Logger)), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache || os.Getenv(envCacheDir) == "off" {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory: $PQTREE_CACHE when set, otherwise
// the XDG location (~/.cache/pqtree/).
func cacheDir() (string, error) {
	if dir := os.Getenv(envCacheDir); dir != "" && dir != "off" {
		return dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
