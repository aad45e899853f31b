package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/gamzia/internal/dice"
	"github.com/cory-johannsen/gamzia/internal/timer"
)

type resolveOutput struct {
	Expression string  `json:"expression"`
	RPN        string  `json:"rpn,omitempty"`
	Totals     []int64 `json:"totals"`
	Failure    string  `json:"lenient_error,omitempty"`
	Elapsed    float64 `json:"elapsed,omitempty"`
	Unit       string  `json:"unit,omitempty"`
}

// NewResolveCommand creates the resolve subcommand.
func NewResolveCommand(root *RootOptions) *cobra.Command {
	var (
		times    int
		showTime bool
		unit     string
	)

	cmd := &cobra.Command{
		Use:     "resolve <expr|preset>...",
		Aliases: []string{"roll", "r"},
		Short:   "Resolve an expression to an integer",
		Long: `Resolve an infix expression. Arguments are joined with spaces, so
"dice resolve 2d6 + 3" and "dice resolve 2d6+3" are the same expression.
With --times the expression is parsed once and evaluated repeatedly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if times < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("--times must be at least 1, got %d", times))
			}
			if showTime && timer.Convert(1, unit) == 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown time unit %q", unit))
			}
			expr := root.Presets.Expand(strings.Join(args, " "))
			return runResolve(cmd, root, expr, times, showTime, unit)
		},
	}

	cmd.Flags().IntVarP(&times, "times", "n", 1, "number of evaluations; repeats reuse the parsed expression")
	cmd.Flags().BoolVar(&showTime, "time", false, "print the elapsed time")
	cmd.Flags().StringVar(&unit, "unit", "ms", "elapsed time unit (ns|us|ms|s|m|h|d)")

	return cmd
}

func runResolve(cmd *cobra.Command, root *RootOptions, expr string, times int, showTime bool, unit string) error {
	roller := root.Roller()
	out := resolveOutput{Expression: expr, Totals: make([]int64, 0, times)}
	var lines []string

	sw := timer.New(nil)
	var resolveErr error
	sw.Time(func() {
		for i := 0; i < times; i++ {
			var res dice.RollResult
			var err error
			if i == 0 || out.Failure != "" {
				res, err = roller.Roll(expr)
			} else {
				res, err = roller.Again()
			}
			if err != nil {
				resolveErr = err
				return
			}
			out.Totals = append(out.Totals, res.Total)
			if r := roller.Resolver(); r.Failed() {
				out.Failure = r.Err().Error()
				lines = append(lines, fmt.Sprintf("%s = 0 (%v)", expr, r.Err()))
				continue
			}
			out.RPN = res.RPN
			lines = append(lines, res.String())
		}
	})
	if resolveErr != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("resolving %q", expr), resolveErr)
	}
	if showTime {
		out.Elapsed = sw.Elapsed(unit)
		out.Unit = unit
		lines = append(lines, fmt.Sprintf("elapsed: %.3f %s", out.Elapsed, unit))
	}

	return root.formatter(cmd).Emit(out, func(w io.Writer) error {
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	})
}
