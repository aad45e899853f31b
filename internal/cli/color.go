package cli

import (
	"strings"

	"github.com/fatih/color"

	"github.com/cory-johannsen/gamzia/internal/histogram"
)

// reportDecorator styles histogram lines for a terminal. Colors are forced
// on because the caller asked for them explicitly, even when stdout is not a
// TTY.
func reportDecorator() histogram.Decorator {
	title := color.New(color.Bold, color.FgHiCyan)
	stat := color.New(color.FgHiYellow)
	bar := color.New(color.FgGreen)
	for _, c := range []*color.Color{title, stat, bar} {
		c.EnableColor()
	}

	return func(kind histogram.LineKind, line string) string {
		switch kind {
		case histogram.LineTitle, histogram.LinePictureTitle:
			return title.Sprint(line)
		case histogram.LineStat:
			return stat.Sprint(line)
		case histogram.LineBar:
			if i := strings.IndexByte(line, '*'); i >= 0 {
				return line[:i] + bar.Sprint(line[i:])
			}
			return line
		default:
			return line
		}
	}
}
