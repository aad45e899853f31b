package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/gamzia/internal/histogram"
)

type histogramRow struct {
	Outcome int64   `json:"outcome"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

type histogramOutput struct {
	Expression string         `json:"expression"`
	RPN        string         `json:"rpn"`
	Trials     int64          `json:"trials"`
	Mean       int64          `json:"mean"`
	Mode       int64          `json:"mode"`
	ModeCount  int64          `json:"mode_count"`
	Rows       []histogramRow `json:"rows"`
	ElapsedMS  float64        `json:"elapsed_ms"`
	RunID      *uuid.UUID     `json:"run_id,omitempty"`
}

func newHistogramOutput(r *histogram.Report) histogramOutput {
	out := histogramOutput{
		Expression: r.Expression,
		RPN:        r.RPN,
		Trials:     r.Trials,
		Mean:       r.Mean,
		Mode:       r.Mode,
		ModeCount:  r.ModeCount,
		Rows:       make([]histogramRow, 0, len(r.Rows)),
		ElapsedMS:  float64(r.Elapsed) / float64(time.Millisecond),
	}
	for _, row := range r.Rows {
		out.Rows = append(out.Rows, histogramRow{Outcome: row.Outcome, Count: row.Count, Percent: row.Percent})
	}
	return out
}

// NewHistogramCommand creates the histogram subcommand.
func NewHistogramCommand(root *RootOptions) *cobra.Command {
	var (
		color  bool
		record bool
	)

	cmd := &cobra.Command{
		Use:     "histogram <expr|preset>...",
		Aliases: []string{"hist", "h"},
		Short:   "Sample an expression and print its distribution",
		Long: `Resolve an expression repeatedly and print the distribution of the
outcomes with a pictorial histogram scaled so the mode fills --columns.
Trial counts are clamped to [1, histogram.max_trials].`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := root.Presets.Expand(strings.Join(args, " "))
			cfg := root.Config.Histogram
			ctx := cmd.Context()

			report, err := root.Sampler(cfg.SamplerConfig()).Sample(ctx, expr, cfg.DefaultTrials)
			if err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("sampling %q", expr), err)
			}

			f := root.formatter(cmd)
			out := newHistogramOutput(report)
			if record {
				repo, closeStore, err := root.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeStore()
				run, err := repo.Save(ctx, report)
				if err != nil {
					return WrapExitError(ExitFailure, "recording run", err)
				}
				out.RunID = &run.ID
			}

			var dec histogram.Decorator
			if color {
				dec = reportDecorator()
			}
			return f.Emit(out, func(w io.Writer) error {
				if err := report.Render(w, dec); err != nil {
					return err
				}
				if out.RunID != nil {
					fmt.Fprintf(f.ErrWriter, "recorded run %s\n", out.RunID)
				}
				f.VerboseLog("rpn: %s elapsed: %s", report.RPN, report.Elapsed)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.Int64P("trials", "t", 10_000, "number of samples")
	flags.IntP("workers", "w", 1, "sampling goroutines")
	flags.Int("columns", histogram.DefaultColumns, "width of the modal bar")
	flags.Duration("budget", 0, "sampling time limit (0 for none)")
	flags.BoolVar(&color, "color", false, "style the report with ANSI colors")
	flags.BoolVar(&record, "record", false, "save the run to the configured run store")
	_ = root.v.BindPFlag("histogram.default_trials", flags.Lookup("trials"))
	_ = root.v.BindPFlag("histogram.workers", flags.Lookup("workers"))
	_ = root.v.BindPFlag("histogram.columns", flags.Lookup("columns"))
	_ = root.v.BindPFlag("histogram.budget", flags.Lookup("budget"))

	return cmd
}
