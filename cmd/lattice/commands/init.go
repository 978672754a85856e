package commands

import (
	"github.com/spf13/cobra"

	"github.com/dyluth/lattice/internal/printer"
	"github.com/dyluth/lattice/internal/scaffold"
)

func newInitCmd(root *rootOptions) *cobra.Command {
	var opts scaffold.Options
	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write a starter lattice.yml",
		Long: `Write a starter lattice.yml into DIR (default: the current directory).

With --with-catalog, the built-in catalog is also written to catalog.yml
and lattice.yml points at it, so guidance, strategies and curricula can be
edited.

Use --force to overwrite existing files.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			opts.Instance = root.instance
			opts.RedisURL = root.redisURL

			created, err := scaffold.Initialize(dir, opts)
			if err != nil {
				return printer.Error("initialization failed", err.Error(), nil)
			}

			printer.Success("Initialized lattice project\n")
			for _, path := range created {
				printer.Info("  ✓ %s\n", path)
			}
			printer.Hint("\nNext: export GEMINI_API_KEY=<key> to enable generation, then run 'lattice pathway create'\n")
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.WithCatalog, "with-catalog", false, "Also write the built-in catalog for editing")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing files")
	return cmd
}
