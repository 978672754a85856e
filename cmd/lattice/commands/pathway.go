package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/lattice/internal/host"
	"github.com/dyluth/lattice/internal/printer"
	"github.com/dyluth/lattice/internal/render"
	"github.com/dyluth/lattice/internal/resolver"
	"github.com/dyluth/lattice/internal/timespec"
	"github.com/dyluth/lattice/internal/watch"
	"github.com/dyluth/lattice/pkg/pathway"
)

func newPathwayCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pathway",
		Aliases: []string{"pw"},
		Short:   "Configure and advance DeltaShift pathways",
		Long: `A pathway is a versioned progression. Each advance is one DeltaShift:
the version moves to v1.0.N and the active guidance is logged. Pathways
created with a curriculum also generate one piece of content per shift
until the curriculum completes.

Pathway IDs may be shortened to any unique prefix of 6 or more characters,
with or without the NP- prefix.`,
	}

	cmd.AddCommand(
		newPathwayCreateCmd(root),
		newPathwayAdvanceCmd(root),
		newPathwaySimpleCmd(root, "revert", "Reset a pathway to a fresh genesis state", revertPathway),
		newPathwaySimpleCmd(root, "snapshot", "Capture the pathway's current state", snapshotPathway),
		newPathwaySimpleCmd(root, "fork", "Copy a pathway into a new one", forkPathway),
		newPathwaySimpleCmd(root, "delete", "Delete a pathway", deletePathway),
		newPathwayAnnotateCmd(root),
		newPathwayAdviseCmd(root),
		newPathwayListCmd(root),
		newPathwayShowCmd(root),
		newPathwaySnapshotsCmd(root),
		newPathwayLogCmd(root),
		newPathwayWaitCmd(root),
	)
	return cmd
}

func newPathwayCreateCmd(root *rootOptions) *cobra.Command {
	var (
		bp                              pathway.Blueprint
		guidance                        []string
		linkMode, strategy, scale, base string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pathway from a blueprint",
		Example: `  lattice pathway create --name Exploration \
    --guidance guidance-turing-prime --guidance guidance-lovelace-visionary \
    --strategy standard_toggle --scale meso

  lattice pathway create --name Essay --curriculum <curriculum-id> --prompt "Write about tides"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bp.GuidanceIDs = guidance
			bp.LinkMode = pathway.LinkMode(linkMode)
			bp.Strategy = pathway.Strategy(strategy)
			bp.Scale = pathway.Scale(scale)
			bp.BasePrompt = base
			if err := bp.Validate(); err != nil {
				return printer.Error("invalid blueprint", err.Error(),
					[]string{"List the valid values:\n  lattice catalog strategies\n  lattice catalog scales"})
			}

			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				for _, id := range bp.GuidanceIDs {
					if _, ok := e.cat.GuidanceByID(id); !ok {
						printer.Warning("unknown guidance %q; it will display as Unknown\n", id)
					}
				}
				rec, err := e.pathways.Create(ctx, bp)
				if err != nil {
					return err
				}
				printer.Success("Created pathway %s (%s)\n", rec.Name, rec.ID)
				printer.Hint("  Advance it with: lattice pathway advance %s\n", rec.ID[:len(pathway.RecordIDPrefix)+8])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bp.Name, "name", "", "Pathway name (required)")
	cmd.Flags().StringSliceVarP(&guidance, "guidance", "g", nil, "Guidance ID (repeatable, order matters for toggle)")
	cmd.Flags().StringVar(&linkMode, "link", string(pathway.LinkToggle), "How guidance combines: toggle or fusion")
	cmd.Flags().StringVar(&strategy, "strategy", string(pathway.StrategyExploratory), "Shift strategy")
	cmd.Flags().StringVar(&scale, "scale", string(pathway.ScaleMeso), "Shift scale")
	cmd.Flags().StringVar(&bp.CurriculumID, "curriculum", "", "Curriculum to follow")
	cmd.Flags().StringVar(&base, "prompt", "", "Base prompt for the curriculum (defaults to the curriculum's own)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPathwayAdvanceCmd(root *rootOptions) *cobra.Command {
	var times int
	cmd := &cobra.Command{
		Use:   "advance ID",
		Short: "Perform one or more DeltaShifts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if times < 1 {
				return fmt.Errorf("--times must be >= 1, got %d", times)
			}
			return withPathway(cmd, root, args[0], func(ctx context.Context, e *env, id string) error {
				rec, err := e.pathways.Get(ctx, id)
				if err != nil {
					return err
				}
				seen := len(rec.Outputs)
				for i := 0; i < times; i++ {
					rec, err = e.pathways.Advance(ctx, id)
					if err != nil {
						return err
					}
					printer.Step("%s  %s\n", rec.State.CurrentVersion, rec.State.ActiveEchoDisplay)
					for _, out := range rec.Outputs[seen:] {
						printer.Info("    generated %s\n", out.Path)
					}
					seen = len(rec.Outputs)
				}
				if rec.Progress != nil {
					printer.Info("%s\n", rec.Progress.StatusMessage)
				}
				printer.Success("%s is at %s\n", rec.Name, rec.State.CurrentVersion)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&times, "times", 1, "Number of shifts to perform")
	return cmd
}

type pathwayAction func(ctx context.Context, e *env, id string) error

func newPathwaySimpleCmd(root *rootOptions, use, short string, action pathwayAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPathway(cmd, root, args[0], action)
		},
	}
}

func revertPathway(ctx context.Context, e *env, id string) error {
	rec, err := e.pathways.Revert(ctx, id)
	if err != nil {
		return err
	}
	printer.Success("%s reverted to %s\n", rec.Name, rec.State.CurrentVersion)
	return nil
}

func snapshotPathway(ctx context.Context, e *env, id string) error {
	_, snap, err := e.pathways.Snapshot(ctx, id)
	if err != nil {
		return err
	}
	printer.Success("Snapshot %s taken at %s\n", snap.ID, snap.State.CurrentVersion)
	return nil
}

func forkPathway(ctx context.Context, e *env, id string) error {
	fork, err := e.pathways.Fork(ctx, id)
	if err != nil {
		return err
	}
	printer.Success("Forked into %s (%s)\n", fork.Name, fork.ID)
	return nil
}

func deletePathway(ctx context.Context, e *env, id string) error {
	if err := e.pathways.Delete(ctx, id); err != nil {
		return err
	}
	printer.Success("Deleted pathway %s\n", id)
	return nil
}

func newPathwayAnnotateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate ID ENTRY_ID TEXT",
		Short: "Attach a note to a trace entry",
		Long: `Attach a note to a trace entry. Find entry IDs with:

  lattice pathway log ID --ids

An ENTRY_ID that matches no entry adds a new info entry carrying TEXT.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPathway(cmd, root, args[0], func(ctx context.Context, e *env, id string) error {
				if _, err := e.pathways.Annotate(ctx, id, args[1], args[2]); err != nil {
					return err
				}
				printer.Success("Annotated %s\n", args[1])
				return nil
			})
		},
	}
}

func newPathwayAdviseCmd(root *rootOptions) *cobra.Command {
	var goal string
	cmd := &cobra.Command{
		Use:   "advise ID",
		Short: "Ask the model how to steer a pathway towards a goal",
		Long: `Sends the pathway's version, strategy, scale, guidance and curriculum
position to the configured model together with a goal, prints the advice,
and records the exchange in the trace log as an advisor-log entry.

Requires an API key in the environment variable named by
generation.api_key_env (GEMINI_API_KEY by default).`,
		Example: `  lattice pathway advise NP-1a2b3c --goal "Reach a publishable draft in five shifts"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPathway(cmd, root, args[0], func(ctx context.Context, e *env, id string) error {
				updated, advice, err := e.pathways.Advise(ctx, id, goal)
				switch {
				case errors.Is(err, pathway.ErrOffline):
					return printer.Error(
						"advisor is offline",
						"No model is configured, so no advice was recorded.",
						[]string{fmt.Sprintf("Export an API key:\n  export %s=<key>", e.cfg.Generation.APIKeyEnv)},
					)
				case errors.Is(err, pathway.ErrEmptyGoal):
					return printer.Error("goal is empty", "The advisor needs a goal to work towards.",
						[]string{"Pass one with --goal:\n  lattice pathway advise " + args[0] + ` --goal "..."`})
				case err != nil && updated != nil:
					return printer.ErrorWithContext(
						"advice failed",
						"The model call failed; the error was logged in the pathway's trace log.",
						map[string]string{"Pathway": id, "Error": err.Error()},
						nil,
						"Pathway", "Error",
					)
				case err != nil:
					return err
				}
				printer.Println(advice)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "What the pathway should achieve (required)")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

func newPathwayListCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pathways in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				return err
			}
			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				summaries, err := e.pathways.List(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				switch format {
				case render.FormatJSON:
					return render.JSON(w, summaries)
				case render.FormatJSONL:
					return render.JSONL(w, summaries)
				}
				render.PathwayTable(w, summaries, e.cfg.Instance, time.Now())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or jsonl")
	return cmd
}

func newPathwayShowCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a pathway's configuration and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				return err
			}
			return withPathway(cmd, root, args[0], func(ctx context.Context, e *env, id string) error {
				rec, err := e.pathways.Get(ctx, id)
				if err != nil {
					return err
				}
				if format != render.FormatTable {
					return render.JSON(cmd.OutOrStdout(), rec)
				}
				render.PathwayDetail(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table or json")
	return cmd
}

func newPathwaySnapshotsCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "snapshots ID",
		Short: "List a pathway's snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				return err
			}
			return withPathway(cmd, root, args[0], func(ctx context.Context, e *env, id string) error {
				rec, err := e.pathways.Get(ctx, id)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				switch format {
				case render.FormatJSON:
					return render.JSON(w, rec.Snapshots)
				case render.FormatJSONL:
					return render.JSONL(w, rec.Snapshots)
				}
				render.Snapshots(w, rec)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or jsonl")
	return cmd
}

func newPathwayLogCmd(root *rootOptions) *cobra.Command {
	var (
		output, since, until string
		types                []string
		ids                  bool
	)
	cmd := &cobra.Command{
		Use:   "log ID",
		Short: "Show a pathway's trace log",
		Example: `  lattice pathway log NP-3f2a9c --since 1h
  lattice pathway log NP-3f2a9c --type echo-log --type curriculum-log
  lattice pathway log NP-3f2a9c -o jsonl | jq -r .text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				return err
			}
			window, err := timespec.ParseRange(since, until)
			if err != nil {
				return printer.Error("invalid time range", err.Error(),
					[]string{"Use a duration like 2h or an RFC3339 time like 2025-10-29T13:00:00Z"})
			}
			traceTypes := make([]pathway.TraceType, 0, len(types))
			for _, t := range types {
				tt := pathway.TraceType(t)
				if err := tt.Validate(); err != nil {
					return err
				}
				traceTypes = append(traceTypes, tt)
			}

			return withPathway(cmd, root, args[0], func(ctx context.Context, e *env, id string) error {
				rec, err := e.pathways.Get(ctx, id)
				if err != nil {
					return err
				}
				entries := timespec.FilterTrace(rec.State.TraceLog, window, traceTypes...)
				w := cmd.OutOrStdout()
				switch {
				case format == render.FormatJSON:
					return render.JSON(w, entries)
				case format == render.FormatJSONL:
					return render.JSONL(w, entries)
				case ids:
					render.TraceLogVerbose(w, entries)
				default:
					render.TraceLog(w, entries)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or jsonl")
	cmd.Flags().StringVar(&since, "since", "", "Show entries after time (duration or RFC3339)")
	cmd.Flags().StringVar(&until, "until", "", "Show entries before time (duration or RFC3339)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Only show entries of this type (repeatable)")
	cmd.Flags().BoolVar(&ids, "ids", false, "Include entry IDs")
	return cmd
}

func newPathwayWaitCmd(root *rootOptions) *cobra.Command {
	var (
		shift   int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "wait ID",
		Short: "Block until a pathway reaches a shift count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPathway(cmd, root, args[0], func(ctx context.Context, e *env, id string) error {
				rec, err := watch.PollForShift(ctx, e.bb, id, shift, 200*time.Millisecond, timeout)
				if err != nil {
					return err
				}
				printer.Success("%s reached %s\n", rec.Name, rec.State.CurrentVersion)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&shift, "shift", 1, "Shift count to wait for")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "How long to wait")
	return cmd
}

// withPathway opens the environment and resolves a possibly shortened
// pathway ID before calling fn.
func withPathway(cmd *cobra.Command, root *rootOptions, shortID string, fn pathwayAction) error {
	return withEnv(cmd, root, func(ctx context.Context, e *env) error {
		id, err := resolver.ResolvePathwayID(ctx, e.bb, shortID)
		if err != nil {
			return pathwayError(err, shortID)
		}
		if err := fn(ctx, e, id); err != nil {
			return pathwayError(err, shortID)
		}
		return nil
	})
}

// pathwayError turns lookup failures into user-facing messages.
func pathwayError(err error, shortID string) error {
	var amb *resolver.AmbiguousError
	switch {
	case errors.As(err, &amb):
		return printer.Error("ambiguous pathway ID", resolver.FormatAmbiguousError(amb), nil)
	case resolver.IsNotFoundError(err), host.IsNotFound(err):
		return printer.Error(
			"pathway not found",
			fmt.Sprintf("No pathway matches '%s'", shortID),
			[]string{"List pathways:\n  lattice pathway list"},
		)
	}
	return err
}
