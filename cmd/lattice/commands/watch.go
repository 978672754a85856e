package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dyluth/lattice/internal/printer"
	"github.com/dyluth/lattice/internal/watch"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream shard and pathway changes as they happen",
		Long: `Stream blackboard change events for the instance until interrupted.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch the default instance
  lattice watch

  # Export events as JSON
  lattice watch --output=json > events.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var format watch.OutputFormat
			switch output {
			case "default":
				format = watch.OutputFormatDefault
			case "json":
				format = watch.OutputFormatJSON
			default:
				return printer.Error(
					"invalid output format",
					fmt.Sprintf("Unknown format: %s", output),
					[]string{"Valid formats: default, json"},
				)
			}

			return withEnv(cmd, root, func(ctx context.Context, e *env) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				sub, err := e.bb.SubscribeEvents(ctx)
				if err != nil {
					return err
				}
				defer sub.Close()

				if format == watch.OutputFormatDefault {
					printer.Info("Watching instance '%s' (Ctrl+C to stop)\n", e.cfg.Instance)
				}
				return watch.StreamEvents(ctx, sub, format, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "default", "Output format (default or json)")
	return cmd
}
