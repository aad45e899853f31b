package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/gamzia/internal/preset"
)

// NewPresetsCommand creates the presets subcommand.
func NewPresetsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the configured expression presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := root.Presets.All()
			if all == nil {
				all = []preset.Preset{}
			}
			return root.formatter(cmd).Emit(all, func(w io.Writer) error {
				if len(all) == 0 {
					_, err := fmt.Fprintln(w, "No presets configured.")
					return err
				}
				for _, p := range all {
					if _, err := fmt.Fprintf(w, "%-16s %-12s %s\n", p.Name, p.Expression, p.Description); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
