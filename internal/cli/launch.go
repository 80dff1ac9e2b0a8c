package cli

import (
	"os"

	"golang.org/x/term"
)

// LaunchArgs picks the command line to run. With no arguments an
// interactive terminal opens the UI; anything else goes to the CLI, which
// prints help for an empty command line.
func LaunchArgs(args []string, interactive bool) []string {
	if len(args) == 0 && interactive {
		return []string{"ui"}
	}
	return args
}

// Interactive reports whether stdin and stdout are both terminals.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
