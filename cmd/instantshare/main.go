// Command instantshare is the CLI-only build. It never opens the terminal UI
// implicitly; run 'instantshare ui' for that.
package main

import (
	"os"

	"github.com/instantshare/instantshare/internal/cli"
)

func main() {
	if err := cli.Execute(os.Args[1:]); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
