// Package config provides configuration management for instantshare.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	env "github.com/Netflix/go-env"
	"gopkg.in/ini.v1"

	"github.com/instantshare/instantshare/internal/constants"
)

// Config is the client configuration.
//
// Resolution order: built-in defaults, then the INI file, then environment
// variables, then command-line flags (applied by the cli package).
//
// INI format:
//
//	[server]
//	url = http://127.0.0.1:5000
//	proxy_mode = system
//	proxy_host =
//	proxy_port = 0
//	proxy_user =
//	no_proxy =
//
//	[transfer]
//	download_dir = /home/me/Downloads
//	expiry_seconds = 300
//	notice_seconds = 3
//	qr_retry_max = 3
//
//	[notifications]
//	desktop = false
//
//	[logging]
//	file = false
type Config struct {
	// Backend connection
	ServerURL string `env:"INSTANTSHARE_SERVER_URL"`

	// Proxy settings. ProxyMode is one of no-proxy, system, basic, ntlm.
	ProxyMode     string `env:"INSTANTSHARE_PROXY_MODE"`
	ProxyHost     string `env:"INSTANTSHARE_PROXY_HOST"`
	ProxyPort     int    `env:"INSTANTSHARE_PROXY_PORT"`
	ProxyUser     string `env:"INSTANTSHARE_PROXY_USER"`
	ProxyPassword string `env:"INSTANTSHARE_PROXY_PASSWORD"` // never written to disk
	NoProxy       string `env:"INSTANTSHARE_NO_PROXY"`

	// Transfers
	DownloadDir   string `env:"INSTANTSHARE_DOWNLOAD_DIR"`
	ExpirySeconds int    `env:"INSTANTSHARE_EXPIRY_SECONDS"`
	NoticeSeconds int    `env:"INSTANTSHARE_NOTICE_SECONDS"`
	QRRetryMax    int    `env:"INSTANTSHARE_QR_RETRY_MAX"`

	// Desktop notifications mirror toasts through the OS notification center.
	DesktopNotifications bool `env:"INSTANTSHARE_DESKTOP_NOTIFICATIONS"`

	// FileLogging writes a rotating log under the state directory.
	FileLogging bool `env:"INSTANTSHARE_FILE_LOGGING"`
}

// Proxy modes
const (
	ProxyModeNone   = "no-proxy"
	ProxyModeSystem = "system"
	ProxyModeBasic  = "basic"
	ProxyModeNTLM   = "ntlm"
)

// Validation errors
var (
	ErrMissingServerURL     = errors.New("server url is required")
	ErrInvalidServerURL     = errors.New("server url must be an absolute http or https URL")
	ErrInvalidProxyMode     = errors.New("proxy_mode must be one of no-proxy, system, basic, ntlm")
	ErrMissingProxyHost     = errors.New("proxy_host is required for basic and ntlm proxy modes")
	ErrInvalidProxyPort     = errors.New("proxy_port must be between 0 and 65535")
	ErrInvalidExpirySeconds = errors.New("expiry_seconds must be between 1 and 86400")
	ErrInvalidNoticeSeconds = errors.New("notice_seconds must be between 1 and 60")
	ErrInvalidQRRetryMax    = errors.New("qr_retry_max must be between 0 and 10")
)

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ServerURL:     constants.DefaultServerURL,
		ProxyMode:     ProxyModeSystem,
		DownloadDir:   DefaultDownloadDirectory(),
		ExpirySeconds: constants.ExpirySeconds,
		NoticeSeconds: int(constants.NoticeDuration.Seconds()),
		QRRetryMax:    constants.QRRetryMax,
	}
}

// Load reads configuration from an INI file and applies environment overrides.
// If the file doesn't exist, defaults are used and no error is returned.
// If the file exists but is invalid, an error is returned.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from an INI file only.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	server := iniFile.Section("server")
	cfg.ServerURL = server.Key("url").MustString(cfg.ServerURL)
	cfg.ProxyMode = server.Key("proxy_mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = server.Key("proxy_host").String()
	cfg.ProxyPort = server.Key("proxy_port").MustInt(0)
	cfg.ProxyUser = server.Key("proxy_user").String()
	cfg.NoProxy = server.Key("no_proxy").String()

	transfer := iniFile.Section("transfer")
	cfg.DownloadDir = expandHome(transfer.Key("download_dir").MustString(cfg.DownloadDir))
	cfg.ExpirySeconds = transfer.Key("expiry_seconds").MustInt(cfg.ExpirySeconds)
	cfg.NoticeSeconds = transfer.Key("notice_seconds").MustInt(cfg.NoticeSeconds)
	cfg.QRRetryMax = transfer.Key("qr_retry_max").MustInt(cfg.QRRetryMax)

	cfg.DesktopNotifications = iniFile.Section("notifications").Key("desktop").MustBool(false)
	cfg.FileLogging = iniFile.Section("logging").Key("file").MustBool(false)

	return cfg, nil
}

// ApplyEnv overrides fields from INSTANTSHARE_* environment variables.
// Unset variables leave the current value untouched.
func (cfg *Config) ApplyEnv() error {
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	cfg.DownloadDir = expandHome(cfg.DownloadDir)
	return nil
}

// Save writes the configuration to an INI file.
// Creates parent directories if they don't exist. The proxy password is
// never persisted.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	server, err := iniFile.NewSection("server")
	if err != nil {
		return fmt.Errorf("failed to create server section: %w", err)
	}
	server.Key("url").SetValue(cfg.ServerURL)
	server.Key("proxy_mode").SetValue(cfg.ProxyMode)
	server.Key("proxy_host").SetValue(cfg.ProxyHost)
	server.Key("proxy_port").SetValue(fmt.Sprintf("%d", cfg.ProxyPort))
	server.Key("proxy_user").SetValue(cfg.ProxyUser)
	server.Key("no_proxy").SetValue(cfg.NoProxy)

	transfer, err := iniFile.NewSection("transfer")
	if err != nil {
		return fmt.Errorf("failed to create transfer section: %w", err)
	}
	transfer.Key("download_dir").SetValue(cfg.DownloadDir)
	transfer.Key("expiry_seconds").SetValue(fmt.Sprintf("%d", cfg.ExpirySeconds))
	transfer.Key("notice_seconds").SetValue(fmt.Sprintf("%d", cfg.NoticeSeconds))
	transfer.Key("qr_retry_max").SetValue(fmt.Sprintf("%d", cfg.QRRetryMax))

	notifications, err := iniFile.NewSection("notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notifications.Key("desktop").SetValue(fmt.Sprintf("%t", cfg.DesktopNotifications))

	logging, err := iniFile.NewSection("logging")
	if err != nil {
		return fmt.Errorf("failed to create logging section: %w", err)
	}
	logging.Key("file").SetValue(fmt.Sprintf("%t", cfg.FileLogging))

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is usable.
// Returns nil if valid, or one of the Err* values describing what's wrong.
func (cfg *Config) Validate() error {
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		return ErrMissingServerURL
	}
	u, err := url.Parse(serverURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidServerURL
	}

	switch strings.ToLower(cfg.ProxyMode) {
	case "", ProxyModeNone, ProxyModeSystem:
	case ProxyModeBasic, ProxyModeNTLM:
		if strings.TrimSpace(cfg.ProxyHost) == "" {
			return ErrMissingProxyHost
		}
	default:
		return ErrInvalidProxyMode
	}
	if cfg.ProxyPort < 0 || cfg.ProxyPort > 65535 {
		return ErrInvalidProxyPort
	}

	if cfg.ExpirySeconds < 1 || cfg.ExpirySeconds > 86400 {
		return ErrInvalidExpirySeconds
	}
	if cfg.NoticeSeconds < 1 || cfg.NoticeSeconds > 60 {
		return ErrInvalidNoticeSeconds
	}
	if cfg.QRRetryMax < 0 || cfg.QRRetryMax > 10 {
		return ErrInvalidQRRetryMax
	}

	return nil
}

// BaseURL returns the server URL without a trailing slash.
func (cfg *Config) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
