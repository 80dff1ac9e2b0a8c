package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/instantshare/instantshare/internal/config"
	"github.com/instantshare/instantshare/internal/theme"
)

// themeStorePath is replaced in tests.
var themeStorePath = func() string { return theme.DefaultPath(config.StateDirectory()) }

// newThemeCmd creates the 'theme' command.
func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme [toggle]",
		Short: "Show or toggle the light/dark theme",
		Long: `Show the current display theme, or switch between light and dark with
'theme toggle'. The choice is remembered for the terminal UI.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store := theme.NewFileStore(afero.NewOsFs(), themeStorePath())
			pref, err := theme.Load(store, nil)
			if err != nil {
				GetLogger().Warn().Err(err).Str("path", store.Path()).Msg("Failed to read theme preference")
			}

			if len(args) == 1 {
				if _, err := pref.Toggle(); err != nil {
					return fmt.Errorf("failed to save theme: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", pref.Indicator(), pref.Mode())
			return nil
		},
	}
	return cmd
}
