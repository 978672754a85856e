package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/lattice/internal/config"
	"github.com/dyluth/lattice/internal/printer"
)

var versionString = "dev"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	instance   string
	redisURL   string
	verbose    bool
	debug      bool
}

// NewRootCmd builds the lattice command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "lattice",
		Short: "Lattice - versioned shard trees and guided pathways",
		Long: `Lattice manages two kinds of long-lived records on a Redis blackboard:

  Shards    - hierarchical, independently versioned documents with
              verification claims and an optional AI transform step
  Pathways  - DeltaShift progressions steered by guidance entries and,
              optionally, a curriculum that generates content per shift

Configuration is read from lattice.yml when present; flags override it.`,
		Version: versionString,
		// Prevent silent success when unknown flags are passed to root command
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
		SilenceErrors:      true,
		SilenceUsage:       true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to lattice.yml")
	flags.StringVarP(&opts.instance, "instance", "n", "", "Instance name (overrides config)")
	flags.StringVar(&opts.redisURL, "redis", "", "Redis URL (overrides config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log operations to stderr")
	flags.BoolVar(&opts.debug, "debug", false, "Log at debug level")

	rootCmd.AddCommand(
		newShardCmd(opts),
		newPathwayCmd(opts),
		newCatalogCmd(opts),
		newWatchCmd(opts),
		newInitCmd(opts),
	)
	return rootCmd
}

// Execute builds the command tree and runs it against os.Args.
func Execute() error {
	err := NewRootCmd().Execute()
	printer.Report(err)
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
