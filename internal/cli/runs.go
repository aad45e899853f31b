package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/gamzia/internal/storage/postgres"
)

type runOutput struct {
	ID        string    `json:"id"`
	Trials    int64     `json:"trials"`
	Mean      int64     `json:"mean"`
	Mode      int64     `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRunsCommand creates the runs subcommand, which lists recorded
// histogram runs of an expression.
func NewRunsCommand(root *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "runs <expr|preset>...",
		Aliases: []string{"history"},
		Short:   "List recorded histogram runs of an expression",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("--limit must be at least 1, got %d", limit))
			}
			expr := root.Presets.Expand(strings.Join(args, " "))
			repo, closeStore, err := root.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			runs, err := repo.ListByExpression(cmd.Context(), expr, limit)
			if err != nil {
				return WrapExitError(ExitFailure, "listing runs", err)
			}
			out := make([]runOutput, 0, len(runs))
			for _, r := range runs {
				out = append(out, runOutput{ID: r.ID.String(), Trials: r.Trials, Mean: r.Mean, Mode: r.Mode, CreatedAt: r.CreatedAt})
			}
			return root.formatter(cmd).Emit(out, func(w io.Writer) error {
				if len(out) == 0 {
					_, err := fmt.Fprintf(w, "No recorded runs of %s.\n", expr)
					return err
				}
				for _, r := range out {
					if _, err := fmt.Fprintf(w, "%s  %s  trials=%d mean=%d mode=%d\n",
						r.CreatedAt.UTC().Format(time.RFC3339), r.ID, r.Trials, r.Mean, r.Mode); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", postgres.DefaultListLimit, "maximum number of runs to list")
	return cmd
}
