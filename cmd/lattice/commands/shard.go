package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/lattice/internal/host"
	"github.com/dyluth/lattice/internal/printer"
	"github.com/dyluth/lattice/internal/render"
	"github.com/dyluth/lattice/pkg/pathway"
	"github.com/dyluth/lattice/pkg/shard"
)

func newShardCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shard",
		Short: "Create, version and inspect shard trees",
		Long: `Shards are nested documents. Each root shard and its descendants are
stored as one tree; nested shards are addressed by their slash-delimited
ID path, e.g. SHD-1a2b/SHD-3c4d.

Every data change appends a version; verification claims attach to the
current version.`,
	}

	cmd.AddCommand(
		newShardCreateCmd(root),
		newShardAddCmd(root),
		newShardEditCmd(root),
		newShardVerifyCmd(root),
		newShardDeleteCmd(root),
		newShardShowCmd(root),
		newShardTreeCmd(root),
		newShardHistoryCmd(root),
		newShardTransformCmd(root),
	)
	return cmd
}

// shardFlags are the creation flags shared by create and add.
type shardFlags struct {
	name     string
	typ      string
	data     string
	dataFile string
	tags     []string
	atomic   bool
}

func (f *shardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Shard name (required)")
	cmd.Flags().StringVar(&f.typ, "type", "", "Shard type, e.g. evidence_item")
	cmd.Flags().StringVar(&f.data, "data", "", "Initial data: JSON, or plain text stored as a string")
	cmd.Flags().StringVar(&f.dataFile, "data-file", "", "Read initial data from a file")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().BoolVar(&f.atomic, "atomic", true, "Mark the shard as atomic")
	_ = cmd.MarkFlagRequired("name")
	cmd.MarkFlagsMutuallyExclusive("data", "data-file")
}

func (f *shardFlags) config(cmd *cobra.Command) (shard.CreationConfig, error) {
	data, err := readData(f.data, f.dataFile)
	if err != nil {
		return shard.CreationConfig{}, err
	}
	cfg := shard.CreationConfig{
		ShardName:   f.name,
		ShardType:   f.typ,
		InitialData: data,
		Tags:        f.tags,
	}
	if cmd.Flags().Changed("atomic") {
		atomic := f.atomic
		cfg.IsAtomic = &atomic
	}
	return cfg, nil
}

// readData parses --data or the contents of --data-file. Neither set means
// null data.
func readData(inline, file string) (shard.Data, error) {
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return shard.Data{}, fmt.Errorf("failed to read data file: %w", err)
		}
		inline = string(b)
	}
	if inline == "" {
		return shard.Null(), nil
	}
	return shard.ParseLoose(inline), nil
}

func newShardCreateCmd(root *rootOptions) *cobra.Command {
	var f shardFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a root shard",
		Example: `  lattice shard create --name "Case File" --type case
  lattice shard create --name Notes --data '{"summary": "tbd"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				created, err := e.shards.CreateRoot(ctx, cfg)
				if err != nil {
					return err
				}
				printer.Success("Created shard %s (%s)\n", created.ShardName, created.ShardID)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newShardAddCmd(root *rootOptions) *cobra.Command {
	var f shardFlags
	cmd := &cobra.Command{
		Use:     "add PARENT_PATH",
		Short:   "Add a nested shard under an existing shard",
		Example: `  lattice shard add SHD-1a2b --name Exhibit --type evidence_item --data "signed contract"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				child, path, err := e.shards.AddNested(ctx, args[0], cfg)
				if err != nil {
					return shardError(err, args[0])
				}
				printer.Success("Added shard %s at %s\n", child.ShardName, path)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newShardEditCmd(root *rootOptions) *cobra.Command {
	var (
		data, dataFile, author, summary string
	)
	cmd := &cobra.Command{
		Use:   "edit PATH",
		Short: "Record new data as the next version of a shard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" && dataFile == "" {
				return printer.Error("no data given", "edit needs the new data for the shard.",
					[]string{"Pass --data '<json or text>'", "Pass --data-file <path>"})
			}
			d, err := readData(data, dataFile)
			if err != nil {
				return err
			}
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				updated, err := e.shards.UpdateData(ctx, args[0], d, author, summary)
				if err != nil {
					return shardError(err, args[0])
				}
				printer.Success("Shard %s is now at %s\n", updated.ShardName, updated.CurrentVersion().VersionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "New data: JSON, or plain text stored as a string")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "Read new data from a file")
	cmd.Flags().StringVar(&author, "author", "user", "Author recorded on the version")
	cmd.Flags().StringVarP(&summary, "message", "m", "", "Summary of the change")
	cmd.MarkFlagsMutuallyExclusive("data", "data-file")
	return cmd
}

func newShardVerifyCmd(root *rootOptions) *cobra.Command {
	var (
		status, method, notes, actor string
		sources                      []string
		requiredMet                  bool
	)
	cmd := &cobra.Command{
		Use:   "verify PATH",
		Short: "Set the verification claim of a shard's current version",
		Example: `  lattice shard verify SHD-1a2b --status source_verified --method multi_source_consensus \
    --source url:https://example.org/report --source document_reference:"Annex B"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseSources(sources)
			if err != nil {
				return err
			}
			v := shard.VerificationDetails{
				Status:             shard.VerificationStatus(status),
				Method:             shard.VerificationMethod(method),
				Sources:            parsed,
				Notes:              notes,
				RequiredSourcesMet: requiredMet,
			}
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				updated, err := e.shards.UpdateVerification(ctx, args[0], v, actor)
				if err != nil {
					return shardError(err, args[0])
				}
				printer.Success("Shard %s marked %s\n", updated.ShardName, printer.Status(status))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Verification status, e.g. user_verified (required)")
	cmd.Flags().StringVar(&method, "method", string(shard.MethodUserAttestation), "Verification method")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes on the claim")
	cmd.Flags().StringVar(&actor, "by", "user", "Who is making the claim")
	cmd.Flags().StringArrayVar(&sources, "source", nil, "Source as TYPE:DESCRIPTION (repeatable)")
	cmd.Flags().BoolVar(&requiredMet, "required-sources-met", false, "Record that the required sources are met")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

// parseSources turns TYPE:DESCRIPTION flags into source details. IDs are
// assigned when the verification is stored.
func parseSources(specs []string) ([]shard.SourceDetail, error) {
	out := make([]shard.SourceDetail, 0, len(specs))
	for _, spec := range specs {
		typ, desc, ok := strings.Cut(spec, ":")
		if !ok || desc == "" {
			return nil, fmt.Errorf("invalid --source %q (expected TYPE:DESCRIPTION)", spec)
		}
		out = append(out, shard.SourceDetail{
			Description: desc,
			Type:        shard.SourceType(typ),
		})
	}
	return out, nil
}

func newShardDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PATH",
		Short: "Delete a shard and everything nested under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				if err := e.shards.Delete(ctx, args[0]); err != nil {
					return shardError(err, args[0])
				}
				printer.Success("Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newShardShowCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show PATH",
		Short: "Show one shard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				return err
			}
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				s, err := e.shards.Get(ctx, args[0])
				if err != nil {
					return shardError(err, args[0])
				}
				if format != render.FormatTable {
					return render.JSON(cmd.OutOrStdout(), s)
				}
				render.ShardDetail(cmd.OutOrStdout(), args[0], s)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table or json")
	return cmd
}

func newShardTreeCmd(root *rootOptions) *cobra.Command {
	var (
		output string
		paths  bool
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show every shard tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				return err
			}
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				forest, err := e.shards.Forest(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				switch {
				case paths:
					render.Paths(w, forest)
				case format == render.FormatJSON:
					return render.JSON(w, forest)
				case format == render.FormatJSONL:
					return render.JSONL(w, forest)
				default:
					render.Tree(w, forest)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or jsonl (one root per line)")
	cmd.Flags().BoolVar(&paths, "paths", false, "Print only the ID path of every shard")
	return cmd
}

func newShardHistoryCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "history PATH",
		Short: "Show the version history of a shard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				return err
			}
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				s, err := e.shards.Get(ctx, args[0])
				if err != nil {
					return shardError(err, args[0])
				}
				w := cmd.OutOrStdout()
				switch format {
				case render.FormatJSON:
					return render.JSON(w, s.Metadata.VersionHistory)
				case render.FormatJSONL:
					return render.JSONL(w, s.Metadata.VersionHistory)
				}
				render.History(w, s)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or jsonl")
	return cmd
}

func newShardTransformCmd(root *rootOptions) *cobra.Command {
	var request string
	cmd := &cobra.Command{
		Use:   "transform PATH",
		Short: "Rewrite a shard's data with the configured model",
		Long: `Sends the shard's name, type and data to the configured model along with
a request, and records the answer as a new version. Answers that parse as
JSON are stored as structured data.

Requires an API key in the environment variable named by
generation.api_key_env (GEMINI_API_KEY by default).`,
		Example: `  lattice shard transform SHD-1a2b --request "Summarise the findings as a list"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				updated, err := e.shards.Transform(ctx, args[0], request)
				switch {
				case errors.Is(err, pathway.ErrOffline):
					return printer.Error(
						"generation is offline",
						"No model is configured, so the shard was left unchanged.",
						[]string{fmt.Sprintf("Export an API key:\n  export %s=<key>", e.cfg.Generation.APIKeyEnv)},
					)
				case err != nil && updated != nil:
					return printer.ErrorWithContext(
						"transform failed",
						"The model call failed; the error was logged on the shard as a new version.",
						map[string]string{"Shard": args[0], "Version": updated.CurrentVersion().VersionID, "Error": err.Error()},
						nil,
						"Shard", "Version", "Error",
					)
				case err != nil:
					return shardError(err, args[0])
				}
				printer.Success("Shard %s transformed to %s\n", updated.ShardName, updated.CurrentVersion().VersionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&request, "request", "r", "", "What the model should do with the data (required)")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

// shardError turns a not-found error into a user-facing message.
func shardError(err error, path string) error {
	if host.IsNotFound(err) {
		return printer.Error(
			"shard not found",
			fmt.Sprintf("No shard exists at %s", path),
			[]string{"List shard paths:\n  lattice shard tree --paths"},
		)
	}
	return err
}
