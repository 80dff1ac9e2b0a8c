package cli

import (
	"github.com/spf13/cobra"

	"github.com/instantshare/instantshare/internal/logging"
	"github.com/instantshare/instantshare/internal/tui"
)

// newUICmd creates the 'ui' command.
func newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive terminal UI",
		Long: `Open the terminal UI with an upload panel and a download panel.

Keys:
  tab      switch panel
  enter    add typed or dropped paths, upload, or redeem a code
  ctrl+x   clear the selection
  ctrl+y   copy the code, ctrl+l copy the link
  ctrl+t   toggle light/dark
  esc      quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI()
		},
	}
}

// runUI starts the terminal UI with the resolved configuration.
func runUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logging.ModeTUI)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(GetContext(), a.ctl)
}
