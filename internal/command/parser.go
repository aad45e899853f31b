package command

import (
	"strconv"
	"strings"
)

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command, preserving inner spacing.
	RawArgs string
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return ParseResult{Command: strings.ToLower(line)}
	}

	rest := strings.TrimSpace(line[idx+1:])
	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}
	return ParseResult{
		Command: strings.ToLower(line[:idx]),
		Args:    args,
		RawArgs: rest,
	}
}

// SplitCount separates a trailing positive count from the expression in
// RawArgs, as in "hist 3d6 5000". The count is only recognised when at least
// two arguments are present and the last one is all digits.
//
// Postcondition: Returns the expression text and the count, or (RawArgs, 0, false).
func (p ParseResult) SplitCount() (expr string, count int64, ok bool) {
	if len(p.Args) < 2 {
		return p.RawArgs, 0, false
	}
	last := p.Args[len(p.Args)-1]
	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil || n <= 0 || strings.HasPrefix(last, "+") {
		return p.RawArgs, 0, false
	}
	return strings.TrimSpace(strings.TrimSuffix(p.RawArgs, last)), n, true
}
