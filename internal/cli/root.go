package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"mlfq/internal/logging"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the ticksched CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ticksched",
		Short: "Tick-driven multilevel feedback queue scheduler",
		Long: `ticksched boots a workload on a simulated uniprocessor and schedules it
with a three-tier feedback queue: shortest remaining burst first (L1),
highest priority first (L2) and round robin (L3), with aging.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.CheckFormat(flagLogFormat); err != nil {
				return err
			}
			logger = newLogger(cmd, flagLogLevel, flagLogFormat)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newConfigCmd(),
	)
	return root
}

func newLogger(cmd *cobra.Command, level, format string) *slog.Logger {
	if flagDebug {
		level = "debug"
	}
	return logging.NewLoggerWithWriter(logging.ParseLevel(level), format, cmd.ErrOrStderr())
}
