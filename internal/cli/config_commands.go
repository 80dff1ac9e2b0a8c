package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/instantshare/instantshare/internal/config"
	"github.com/instantshare/instantshare/internal/http"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage instantshare configuration",
		Long: `Configuration management commands for instantshare.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test the server connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for instantshare.

The configuration is saved to the path shown by 'config path'.
Use --force to overwrite an existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			out := cmd.OutOrStdout()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := promptConfig(newPrompter(cmd.InOrStdin(), out), config.NewConfig())
			if err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			GetLogger().Info().Str("path", path).Msg("Configuration saved")

			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			fmt.Fprintln(out, "Test your configuration with: instantshare config test")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// promptConfig asks for every setting, starting from defaults.
func promptConfig(p *prompter, cfg *config.Config) (*config.Config, error) {
	fmt.Fprintln(p.out, "InstantShare Configuration Setup")
	fmt.Fprintln(p.out, "================================")
	fmt.Fprintln(p.out)

	cfg.ServerURL = p.String("Server URL", cfg.ServerURL)
	cfg.DownloadDir = p.String("Download directory", cfg.DownloadDir)
	cfg.ExpirySeconds = p.Int("Countdown seconds", cfg.ExpirySeconds)

	fmt.Fprintln(p.out)
	if p.YesNo("Configure proxy?", false) {
		cfg.ProxyMode = p.Choice("Proxy mode",
			[]string{config.ProxyModeNone, config.ProxyModeSystem, config.ProxyModeBasic, config.ProxyModeNTLM},
			config.ProxyModeSystem)
		if cfg.ProxyMode == config.ProxyModeBasic || cfg.ProxyMode == config.ProxyModeNTLM {
			cfg.ProxyHost = p.String("Proxy host", "")
			cfg.ProxyPort = p.Int("Proxy port", 8080)
			cfg.ProxyUser = p.String("Proxy user (empty for none)", "")
		}
		cfg.NoProxy = p.String("Hosts that bypass the proxy (comma separated)", "")
	}

	cfg.DesktopNotifications = p.YesNo("Show desktop notifications?", false)
	cfg.FileLogging = p.YesNo("Write a log file?", false)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file
  2. Environment variables (INSTANTSHARE_SERVER_URL, INSTANTSHARE_DOWNLOAD_DIR, ...)
  3. Command-line flags (--server)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if serverURL != "" {
				cfg.ServerURL = serverURL
			}
			printConfig(cmd.OutOrStdout(), cfg, path)
			return nil
		},
	}
}

func printConfig(out io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(out, "Current Configuration")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Server:")
	fmt.Fprintf(out, "  URL: %s\n", cfg.ServerURL)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Proxy Settings:")
	fmt.Fprintf(out, "  Proxy Mode: %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(out, "  Proxy Host: %s\n", cfg.ProxyHost)
		fmt.Fprintf(out, "  Proxy Port: %d\n", cfg.ProxyPort)
	}
	if cfg.ProxyUser != "" {
		fmt.Fprintf(out, "  Proxy User: %s\n", cfg.ProxyUser)
	}
	if cfg.NoProxy != "" {
		fmt.Fprintf(out, "  No Proxy:   %s\n", cfg.NoProxy)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Transfers:")
	fmt.Fprintf(out, "  Download Directory: %s\n", cfg.DownloadDir)
	fmt.Fprintf(out, "  Countdown Seconds:  %d\n", cfg.ExpirySeconds)
	fmt.Fprintf(out, "  Notice Seconds:     %d\n", cfg.NoticeSeconds)
	fmt.Fprintf(out, "  QR Retries:         %d\n", cfg.QRRetryMax)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Desktop Notifications: %t\n", cfg.DesktopNotifications)
	fmt.Fprintf(out, "File Logging:          %t\n", cfg.FileLogging)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Configuration file: %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "  (file does not exist - using defaults)")
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the server connection",
		Long: `Test the connection to the configured server, through the configured
proxy if any.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return testConnection(GetContext(), cfg, out)
		},
	}
}

func testConnection(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger := GetLogger()

	fmt.Fprintln(out, "Testing Server Connection")
	fmt.Fprintln(out, "=========================")
	fmt.Fprintf(out, "Server: %s\n", cfg.BaseURL())
	fmt.Fprintf(out, "Proxy:  %s\n", cfg.ProxyMode)
	fmt.Fprintln(out)

	client, err := http.CreateAssetClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	status, err := http.CheckConnection(ctx, client, cfg.BaseURL())
	if err != nil {
		logger.Error().Err(err).Msg("Connection test failed")
		fmt.Fprintln(out, "✗ Connection FAILED")
		fmt.Fprintf(out, "  Error: %v\n", err)
		return fmt.Errorf("connection test failed")
	}

	logger.Info().Int("status", status).Msg("Connection test successful")
	fmt.Fprintln(out, "✓ Connection SUCCESSFUL")
	fmt.Fprintf(out, "  HTTP status: %d\n", status)
	return nil
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()
			if cfgFile == "" {
				fmt.Fprintln(out, "Default configuration path:")
			} else {
				fmt.Fprintln(out, "Configuration path (from --config flag):")
			}
			fmt.Fprintf(out, "  %s\n", path)
			fmt.Fprintln(out)

			if info, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Status: ✓ File exists")
				fmt.Fprintf(out, "Size:   %d bytes\n", info.Size())
				fmt.Fprintf(out, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status: File does not exist")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Create a configuration file with: instantshare config init")
			}
			return nil
		},
	}
}
