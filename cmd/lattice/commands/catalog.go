package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/lattice/internal/render"
	"github.com/dyluth/lattice/pkg/catalog"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse guidance, strategies, scales, curricula and shard types",
		Long: `The catalog is the reference data pathways and shards draw on. The
built-in catalog is used unless lattice.yml names a catalog file.`,
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table or json")

	section := func(use, short string, table func(io.Writer, *catalog.Catalog), items func(*catalog.Catalog) any) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				format, err := render.ParseFormat(output)
				if err != nil {
					return err
				}
				cfg, err := loadConfig(root)
				if err != nil {
					return err
				}
				cat, err := loadCatalog(cfg)
				if err != nil {
					return err
				}
				if format != render.FormatTable {
					return render.JSON(cmd.OutOrStdout(), items(cat))
				}
				table(cmd.OutOrStdout(), cat)
				return nil
			},
		}
	}

	cmd.AddCommand(
		section("guidance", "List guidance entries", writeGuidance, func(c *catalog.Catalog) any { return c.Guidance }),
		section("strategies", "List shift strategies and their protocols", writeStrategies, func(c *catalog.Catalog) any { return c.Strategies }),
		section("scales", "List shift scales", writeScales, func(c *catalog.Catalog) any { return c.Scales }),
		section("curricula", "List curricula and their steps", writeCurricula, func(c *catalog.Catalog) any { return c.Curricula }),
		section("shard-types", "List suggested shard types", writeShardTypes, func(c *catalog.Catalog) any { return c.ShardTypes }),
	)
	return cmd
}

func writeGuidance(w io.Writer, c *catalog.Catalog) {
	fmt.Fprintf(w, "%-36s %-28s %s\n", "ID", "TITLE", "CATEGORY")
	for _, g := range c.Guidance {
		fmt.Fprintf(w, "%-36s %-28s %s\n", g.ID, g.Title, g.Category)
	}
}

func writeStrategies(w io.Writer, c *catalog.Catalog) {
	for _, s := range c.Strategies {
		fmt.Fprintf(w, "%s\n  %s\n", s.ID, s.Description)
		for i, step := range s.Protocol {
			fmt.Fprintf(w, "  %d. %s\n", i+1, step)
		}
	}
}

func writeScales(w io.Writer, c *catalog.Catalog) {
	for _, s := range c.Scales {
		fmt.Fprintf(w, "%-16s %s\n", s.ID, s.Description)
	}
}

func writeCurricula(w io.Writer, c *catalog.Catalog) {
	for _, cur := range c.Curricula {
		fmt.Fprintf(w, "%s  %s [%s]\n", cur.ID, cur.Name, cur.Category)
		for i, step := range cur.Steps {
			fmt.Fprintf(w, "  %d. %s ×%d\n", i+1, step.Name, step.Iterations)
		}
	}
}

func writeShardTypes(w io.Writer, c *catalog.Catalog) {
	fmt.Fprintf(w, "%-24s %-7s %s\n", "TYPE", "ATOMIC", "DESCRIPTION")
	for _, t := range c.ShardTypes {
		fmt.Fprintf(w, "%-24s %-7t %s\n", t.Type, t.AtomicDefault, strings.TrimSpace(t.Description))
	}
}
