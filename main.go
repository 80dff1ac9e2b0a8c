// InstantShare - share files through a short-lived retrieval code.
//
// - No args on a terminal → terminal UI
// - No args piped → CLI help
// - Subcommands/flags → CLI
package main

import (
	"os"

	"github.com/instantshare/instantshare/internal/cli"
)

func main() {
	if err := cli.Execute(cli.LaunchArgs(os.Args[1:], cli.Interactive())); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
