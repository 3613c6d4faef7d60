package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nirvanameow/seedsweep/internal/store"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Database string
}

// statsReport is the stats command's output payload.
type statsReport struct {
	Tried   int64 `json:"tried"`
	Found   int64 `json:"found"`
	LastSeq int64 `json:"last_seq"`
}

func (r statsReport) String() string {
	return fmt.Sprintf("tried=%d found=%d last_seq=%d", r.Tried, r.Found, r.LastSeq)
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show checkpoint ledger totals",
		Long: `Show tried/found counts and the last assigned sequence number.

Example:
  seedsweep stats --db ./sweep.db
  seedsweep stats --db ./sweep.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to checkpoint database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open checkpoint database", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := st.Counts(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ledger counts", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(statsReport{
		Tried:   counts.Tried,
		Found:   counts.Found,
		LastSeq: counts.LastSeq,
	})
}
