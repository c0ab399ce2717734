package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2
)

// errPartial reports that output was written but some groups or courses failed
var errPartial = errors.New("some groups or courses could not be extracted")

// globalOptions are shared by every command
type globalOptions struct {
	verbose  bool
	logLevel string
	logOut   io.Writer
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	g := &globalOptions{logOut: os.Stderr}

	cmd := &cobra.Command{
		Use:   "uqam-horaire",
		Short: "Extract UQAM course schedules",
		Long: `A CLI tool to extract the groups of UQAM courses from the public schedule
pages: group number, available places, teachers and weekly periods.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setupLogger(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logMetrics()
		},
	}

	cmd.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	cmd.AddCommand(
		newGroupsCmd(),
		newParseCmd(),
		newBatchCmd(g),
		newServeCmd(),
	)

	return cmd
}

// setupLogger installs the default logger. --verbose wins over --log-level.
func (g *globalOptions) setupLogger(cmd *cobra.Command) error {
	level := logger.LevelDebug
	if !g.verbose {
		var err error
		level, err = logger.ParseLevel(g.logLevel)
		if err != nil {
			return err
		}
	}
	logger.SetDefault(logger.New(level, g.logOut))
	return nil
}

// explicitLevel reports whether the user chose a log level on the command line
func (g *globalOptions) explicitLevel(cmd *cobra.Command) bool {
	return g.verbose || cmd.Flags().Changed("log-level")
}

func logMetrics() {
	snap := logger.GetMetricsSnapshot()
	timings := make(map[string]float64, len(snap.Timings))
	for name, t := range snap.Timings {
		timings[name] = float64(t.Average.Microseconds()) / 1000
	}
	logger.Debug("Metrics", logger.Fields{
		"counters":       snap.Counters,
		"gauges":         snap.Gauges,
		"avg_timings_ms": timings,
	})
}

// exitCode maps a command error to a process exit code
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errPartial):
		return ExitPartial
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().Execute()
	if err != nil && !errors.Is(err, errPartial) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
