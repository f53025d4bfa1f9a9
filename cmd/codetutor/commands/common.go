package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/codetutor/internal/config"
)

// Global carries process-wide state into every command's Run method.
type Global struct {
	Context context.Context
	Logger  *slog.Logger
}

func (g *Global) context() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: codetutor.yaml, optional)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" default:"withargs" help:"Generate a tutorial from a repository, directory, file or URL (default)"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Runs     RunsCmd     `cmd:"" help:"List journaled runs or the events of one run"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ConfigPath returns the configuration file to read and whether it must exist.
// An explicit --config must exist; the default path is optional.
func (c *CLI) ConfigPath() (string, bool) {
	if c.Config != "" {
		return c.Config, true
	}
	return config.DefaultConfigPath, false
}

// LoadConfig loads the configuration selected by the global flags.
func (c *CLI) LoadConfig() (*config.Config, error) {
	path, required := c.ConfigPath()
	return config.Load(path, required)
}
