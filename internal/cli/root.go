// Package cli implements the dice command-line interface.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gamzia/internal/config"
	"github.com/cory-johannsen/gamzia/internal/dice"
	"github.com/cory-johannsen/gamzia/internal/histogram"
	"github.com/cory-johannsen/gamzia/internal/observability"
	"github.com/cory-johannsen/gamzia/internal/preset"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and the state built from them before any
// subcommand runs.
type RootOptions struct {
	ConfigPath string
	Format     string
	Verbose    bool
	Lenient    bool

	v *viper.Viper

	// Populated by PersistentPreRunE.
	Config  config.Config
	Logger  *zap.Logger
	Presets *preset.Set
	Sources dice.SourceFactory
}

// DiceOptions returns the resolver options selected by the configuration.
func (o *RootOptions) DiceOptions() dice.Options {
	return dice.Options{MaxDice: o.Config.Resolver.MaxDice, Lenient: o.Config.Resolver.Lenient()}
}

// Roller returns a logged roller over a fresh source.
func (o *RootOptions) Roller() *dice.Roller {
	return dice.NewLoggedRoller(o.Sources(0), o.DiceOptions(), o.Logger)
}

// Sampler returns a histogram sampler configured by cfg.
func (o *RootOptions) Sampler(cfg histogram.Config) *histogram.Sampler {
	return histogram.NewSampler(dice.Factory(o.Sources, o.DiceOptions()), cfg, o.Logger)
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// NewRootCommand creates the root command for the dice CLI.
func NewRootCommand() *cobra.Command {
	v := config.New()
	// Reports go to stdout; keep routine run logs out of the terminal.
	v.SetDefault("logging.level", "warn")
	opts := &RootOptions{v: v}

	cmd := &cobra.Command{
		Use:   "dice",
		Short: "Integer expression and dice resolver",
		Long: `Resolve infix integer expressions with + - * / % ^ ! C and the dice
operator NdM, show their postfix form, and sample their distributions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML configuration file")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logging")
	flags.BoolVarP(&opts.Lenient, "lenient", "l", false, "resolve malformed expressions to 0 instead of failing")
	flags.String("source", "time", "random source (time|crypto|seeded)")
	flags.Uint64("seed", 0, "seed for the seeded random source")
	flags.String("presets", "", "path to a presets YAML file")
	flags.String("log-level", "warn", "log level (debug|info|warn|error)")
	_ = opts.v.BindPFlag("resolver.source", flags.Lookup("source"))
	_ = opts.v.BindPFlag("resolver.seed", flags.Lookup("seed"))
	_ = opts.v.BindPFlag("presets.path", flags.Lookup("presets"))
	_ = opts.v.BindPFlag("logging.level", flags.Lookup("log-level"))

	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewRPNCommand(opts))
	cmd.AddCommand(NewHistogramCommand(opts))
	cmd.AddCommand(NewPresetsCommand(opts))
	cmd.AddCommand(NewScriptCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

// prepare loads configuration, the logger, presets, and the random source.
func (o *RootOptions) prepare() error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	if o.ConfigPath != "" {
		o.v.SetConfigFile(o.ConfigPath)
		if err := o.v.ReadInConfig(); err != nil {
			return WrapExitError(ExitCommandError, "reading config file", err)
		}
	}
	if o.Lenient {
		o.v.Set("resolver.mode", "lenient")
	}
	if o.Verbose {
		o.v.Set("logging.level", "debug")
	}

	cfg, err := config.LoadFromViper(o.v)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg

	logger, err := observability.NewLogger(cfg.Logging, "dice")
	if err != nil {
		return WrapExitError(ExitCommandError, "initializing logger", err)
	}
	o.Logger = logger

	if cfg.Presets.Path != "" {
		set, err := preset.Load(cfg.Presets.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "loading presets", err)
		}
		o.Presets = set
	}

	sources, err := dice.NamedFactory(cfg.Resolver.Source, cfg.Resolver.Seed)
	if err != nil {
		return WrapExitError(ExitCommandError, "selecting random source", err)
	}
	o.Sources = sources
	return nil
}
