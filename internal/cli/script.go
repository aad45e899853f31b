package cli

import (
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/gamzia/internal/scripting"
)

// NewScriptCommand creates the script subcommand, which runs Lua files in
// the dice sandbox.
func NewScriptCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "script <file.lua>...",
		Short: "Run Lua scripts against the resolver",
		Long: `Run each Lua file once in a sandbox exposing engine.dice.roll,
engine.dice.again, engine.dice.rpn, engine.dice.histogram and engine.log.
Files run in order; the first failure stops the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.Config
			mgr := scripting.NewManager(root.Roller(), root.Sampler(cfg.Histogram.SamplerConfig()), root.Logger, cfg.Scripting.InstructionLimit)
			defer mgr.Close()

			f := root.formatter(cmd)
			for _, path := range args {
				f.VerboseLog("running %s", path)
				if err := mgr.RunFile(cmd.Context(), path); err != nil {
					return WrapExitError(ExitFailure, "script failed", err)
				}
			}
			return nil
		},
	}
}
