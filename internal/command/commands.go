// Package command provides the dice shell command registry, parser, and
// built-in command definitions.
package command

// Categories for organizing commands.
const (
	CategoryDice    = "dice"
	CategoryLibrary = "library"
	CategorySystem  = "system"
)

// Handler identifiers dispatched by the shell.
const (
	HandlerRoll    = "roll"
	HandlerAgain   = "again"
	HandlerRPN     = "rpn"
	HandlerHist    = "hist"
	HandlerHistory = "history"
	HandlerPresets = "presets"
	HandlerColors  = "colors"
	HandlerHelp    = "help"
	HandlerQuit    = "quit"
)

// Command defines a shell command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument form, e.g. "hist <expr> [trials]".
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command.
	Category string
	// Handler selects the shell routine that runs the command.
	Handler string
}

// BuiltinCommands returns all built-in shell commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "roll", Aliases: []string{"r", "resolve"}, Usage: "roll <expr|preset>", Help: "Resolve an expression once", Category: CategoryDice, Handler: HandlerRoll},
		{Name: "again", Aliases: []string{"a", "repeat"}, Usage: "again", Help: "Re-roll the last expression without re-parsing", Category: CategoryDice, Handler: HandlerAgain},
		{Name: "rpn", Aliases: []string{"postfix"}, Usage: "rpn <expr|preset>", Help: "Show the postfix form of an expression", Category: CategoryDice, Handler: HandlerRPN},
		{Name: "hist", Aliases: []string{"histogram", "h"}, Usage: "hist <expr|preset> [trials]", Help: "Sample an expression and draw its distribution", Category: CategoryDice, Handler: HandlerHist},
		{Name: "history", Aliases: []string{"runs"}, Usage: "history <expr|preset>", Help: "List recorded histogram runs of an expression", Category: CategoryLibrary, Handler: HandlerHistory},
		{Name: "presets", Aliases: []string{"p"}, Usage: "presets", Help: "List named expressions", Category: CategoryLibrary, Handler: HandlerPresets},
		{Name: "colors", Aliases: []string{"colours"}, Usage: "colors", Help: "Show the color macros", Category: CategorySystem, Handler: HandlerColors},
		{Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Usage: "quit", Help: "Disconnect", Category: CategorySystem, Handler: HandlerQuit},
	}
}
