package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type rpnOutput struct {
	Expression string `json:"expression"`
	RPN        string `json:"rpn"`
	Tokens     int    `json:"tokens"`
}

// NewRPNCommand creates the rpn subcommand, which prints the postfix form of
// an expression without evaluating it.
func NewRPNCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rpn <expr|preset>...",
		Aliases: []string{"postfix"},
		Short:   "Print the postfix form of an expression",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := root.Presets.Expand(strings.Join(args, " "))
			parsed, err := root.Roller().Resolver().Parse(expr)
			if err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("parsing %q", expr), err)
			}
			out := rpnOutput{Expression: expr, RPN: parsed.String(), Tokens: parsed.Len()}
			return root.formatter(cmd).Emit(out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, out.RPN)
				return err
			})
		},
	}
}
