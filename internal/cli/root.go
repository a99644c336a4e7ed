package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/forkline/pkg/buildinfo"
	"github.com/matzehuels/forkline/pkg/config"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Before any subcommand runs, the configuration is loaded from --config (or
// the default location) and the logger is adjusted to the configured level
// and format. --verbose always selects debug level.
func (c *CLI) RootCommand() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          appName,
		Short:        "Forkline lays out git commit graphs",
		Long:         `Forkline computes renderer-ready layouts of git commit histories: a main line in the first column, side branches in lanes next to it, and one colored loop per merge.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(configPath); err != nil {
				return err
			}
			c.Logger.SetFormatter(c.Config.LogFormatter())
			c.SetLogLevel(c.Config.LogLevel())
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			if c.configPath != "" {
				c.Logger.Debug("loaded config", "path", c.configPath)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/forkline/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig(path string) error {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		c.Config, c.configPath = cfg, path
		return nil
	}
	cfg, found, err := config.LoadDefault()
	if err != nil {
		return err
	}
	c.Config, c.configPath = cfg, found
	return nil
}
