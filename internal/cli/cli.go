package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chainflow/pkg/buildinfo"
	"github.com/matzehuels/chainflow/pkg/config"
)

// appName is the application name used for display.
const appName = "chainflow"

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

	// configPath is set by the persistent --config flag.
	configPath string
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
		Use:          appName,
		Short:        "Chainflow lays out a live blockchain feed as a scrolling 3D scene",
		Long:         `Chainflow turns a stream of prime, region and zone blocks, workshares and uncles into a continuously scrolling scene of cubes and connecting edges. It can replay recorded feeds, serve a live scene over HTTP, or monitor a feed in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")

	root.AddCommand(c.replayCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config
// =============================================================================

// loadConfig reads the --config file, if any, and applies defaults. Flag
// overrides are applied by the caller before validating.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		c.Logger.Debug("loaded config", "path", c.configPath)
	}
	return cfg, nil
}

// applyLogLevel raises or lowers the logger to the configured level. The
// --verbose flag wins over the file.
func (c *CLI) applyLogLevel(cfg *config.Config) {
	if c.Logger.GetLevel() == LogDebug {
		return
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		c.Logger.SetLevel(level)
	}
}
