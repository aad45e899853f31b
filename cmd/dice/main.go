// Package main provides the dice command-line resolver.
package main

import (
	"fmt"
	"os"

	"github.com/cory-johannsen/gamzia/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dice: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
