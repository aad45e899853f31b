package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/gamzia/internal/command"
	"github.com/cory-johannsen/gamzia/internal/dice"
	"github.com/cory-johannsen/gamzia/internal/frontend/telnet"
	"github.com/cory-johannsen/gamzia/internal/histogram"
	"github.com/cory-johannsen/gamzia/internal/preset"
	"github.com/cory-johannsen/gamzia/internal/storage/postgres"
)

// RenderRoll formats a resolution as a colored audit line.
func RenderRoll(res dice.RollResult, elapsed time.Duration) string {
	return telnet.Colorize(telnet.BrightGreen, res.String()) +
		telnet.Colorf(telnet.Dim, " [%s]", elapsed)
}

// RenderLenientFailure formats a resolution that lenient mode turned into 0.
func RenderLenientFailure(expr string, cause error) string {
	return telnet.Colorf(telnet.Yellow, "%s = 0 (%v)", expr, cause)
}

// RenderError formats err as red Telnet text.
func RenderError(err error) string {
	return telnet.Colorf(telnet.Red, "error: %v", err)
}

// RenderReport formats a histogram report with its footer. Every line ends
// with \r\n.
func RenderReport(r *histogram.Report) string {
	var b strings.Builder
	for _, line := range r.Lines(telnet.ReportDecorator()) {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	b.WriteString(telnet.Colorf(telnet.Dim, "RPN: %s  elapsed: %s", r.RPN, r.Elapsed))
	b.WriteString("\r\n")
	return b.String()
}

// RenderRuns formats recorded runs of expr, newest first.
func RenderRuns(expr string, runs []postgres.Run) string {
	if len(runs) == 0 {
		return telnet.Colorf(telnet.Dim, "No recorded runs of %s.", expr) + "\r\n"
	}
	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.BrightCyan, "Runs of %s:", expr))
	b.WriteString("\r\n")
	for _, run := range runs {
		fmt.Fprintf(&b, "  %s%s%s  %s  trials=%d mean=%d mode=%d\r\n",
			telnet.Dim, run.CreatedAt.UTC().Format(time.RFC3339), telnet.Reset,
			run.ID, run.Trials, run.Mean, run.Mode)
	}
	return b.String()
}

// RenderPresets formats the preset list in file order.
func RenderPresets(presets []preset.Preset) string {
	if len(presets) == 0 {
		return telnet.Colorize(telnet.Dim, "No presets loaded.") + "\r\n"
	}
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightCyan, "Presets:"))
	b.WriteString("\r\n")
	for _, p := range presets {
		fmt.Fprintf(&b, "  %s%-16s%s %s", telnet.Green, p.Name, telnet.Reset, p.Expression)
		if p.Description != "" {
			b.WriteString(telnet.Colorf(telnet.Dim, "  %s", p.Description))
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

// RenderHelp formats the command list.
func RenderHelp(cmds []*command.Command) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.Bold+telnet.BrightCyan, "Commands:"))
	b.WriteString("\r\n")
	for _, cmd := range cmds {
		fmt.Fprintf(&b, "  %s%-28s%s %s", telnet.Green, cmd.Usage, telnet.Reset, cmd.Help)
		if len(cmd.Aliases) > 0 {
			b.WriteString(telnet.Colorf(telnet.Dim, " (%s)", strings.Join(cmd.Aliases, ", ")))
		}
		b.WriteString("\r\n")
	}
	b.WriteString("  Bare expressions and preset names are rolled.\r\n")
	return b.String()
}
