// Package cli implements the gridshadow command-line interface.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/gekko3d/gridshadow"
	"github.com/gekko3d/gridshadow/config"
)

const appName = "gridshadow"

// CLI holds shared state for all commands.
type CLI struct {
	Out     io.Writer
	Console io.Writer

	configPath string
	verbose    bool
}

// New creates a CLI writing reports to out and logs to console.
func New(out, console io.Writer) *CLI {
	return &CLI{Out: out, Console: console}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Renders top-down shadow occlusion textures for scene grids",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.runCommand())
	return root
}

// loadConfig reads the --config file, or the defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

func (c *CLI) loggingModule(cfg *config.Config) gridshadow.LoggingModule {
	level := cfg.Logging.Level
	if c.verbose {
		level = "debug"
	}
	return gridshadow.LoggingModule{
		Prefix:  appName,
		Level:   level,
		File:    cfg.Logging.File,
		Console: c.Console,
	}
}

// newApp builds an app with logging and the frame clock installed.
func (c *CLI) newApp(cfg *config.Config) *gridshadow.App {
	return gridshadow.NewAppBuilder().
		UseModule(c.loggingModule(cfg)).
		UseModule(gridshadow.FrameModule{}).
		Build()
}

func syncLogger(app *gridshadow.App) {
	if l, ok := app.Logger().(*gridshadow.DefaultLogger); ok {
		_ = l.Sync()
	}
}
