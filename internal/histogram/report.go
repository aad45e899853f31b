package histogram

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// DefaultColumns is the width of the modal bar in the pictorial section.
const DefaultColumns = 70

// LineKind identifies a rendered report line for decorators.
type LineKind int

const (
	LineTitle LineKind = iota
	LineStat
	LineRow
	LineBlank
	LinePictureTitle
	LineBar
)

// Decorator may restyle a rendered line. It must not change the line's text
// content, only wrap it.
type Decorator func(kind LineKind, line string) string

// Row is one outcome of the distribution.
type Row struct {
	Outcome int64
	Count   int64
	Percent float64 // Count / Trials * 100
	Bar     int     // stars in the pictorial section
}

// Report is the result of a sampling run.
type Report struct {
	Expression string
	RPN        string
	Trials     int64
	Mean       int64
	Mode       int64
	ModeCount  int64
	Columns    int
	Rows       []Row
	Elapsed    time.Duration
}

// NewReport builds a Report from h.
//
// Precondition: h.Trials() > 0.
// Postcondition: Rows are in ascending outcome order and the modal row's Bar
// equals columns.
func NewReport(expression string, h *Histogram, columns int) *Report {
	if columns <= 0 {
		columns = DefaultColumns
	}
	mode, modeCount := h.Mode()
	r := &Report{
		Expression: expression,
		Trials:     h.Trials(),
		Mean:       h.Mean(),
		Mode:       mode,
		ModeCount:  modeCount,
		Columns:    columns,
	}

	for _, outcome := range h.Outcomes() {
		r.Rows = append(r.Rows, NewRow(outcome, h.Count(outcome), r.Trials, modeCount, columns))
	}
	return r
}

// NewRow computes the percentage and bar length of one outcome.
//
// Precondition: trials > 0 and modeCount > 0.
func NewRow(outcome, count, trials, modeCount int64, columns int) Row {
	return Row{
		Outcome: outcome,
		Count:   count,
		Percent: float64(count) / float64(trials) * 100.0,
		Bar:     int(math.Round(float64(count) * float64(columns) / float64(modeCount))),
	}
}

// Counts returns the outcome → count map of the report.
func (r *Report) Counts() map[int64]int64 {
	out := make(map[int64]int64, len(r.Rows))
	for _, row := range r.Rows {
		out[row.Outcome] = row.Count
	}
	return out
}

// Lines renders the report, applying dec to every line when non-nil.
func (r *Report) Lines(dec Decorator) []string {
	if dec == nil {
		dec = func(_ LineKind, line string) string { return line }
	}
	lines := make([]string, 0, 2*len(r.Rows)+6)
	add := func(kind LineKind, format string, args ...any) {
		lines = append(lines, dec(kind, fmt.Sprintf(format, args...)))
	}

	add(LineTitle, "DISTRIBUTION HISTOGRAM (%d trials):", r.Trials)
	add(LineStat, "Mean: %d", r.Mean)
	add(LineStat, "Mode: %d", r.Mode)
	for _, row := range r.Rows {
		add(LineRow, "[%3d] ==> %d (%.2f%%)", row.Outcome, row.Count, row.Percent)
	}
	add(LineBlank, "")
	add(LinePictureTitle, "PICTORIAL HISTOGRAM")
	for _, row := range r.Rows {
		add(LineBar, "[%3d] %s", row.Outcome, strings.Repeat("*", row.Bar))
	}
	return lines
}

// Render writes the report to w, one line per row, decorated by dec.
func (r *Report) Render(w io.Writer, dec Decorator) error {
	for _, line := range r.Lines(dec) {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// String returns the undecorated report text.
func (r *Report) String() string {
	var b strings.Builder
	_ = r.Render(&b, nil)
	return b.String()
}
