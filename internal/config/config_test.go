package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.ServerURL != "http://127.0.0.1:5000" {
		t.Errorf("expected default ServerURL http://127.0.0.1:5000, got %s", cfg.ServerURL)
	}
	if cfg.ProxyMode != ProxyModeSystem {
		t.Errorf("expected default ProxyMode system, got %s", cfg.ProxyMode)
	}
	if cfg.ExpirySeconds != 300 {
		t.Errorf("expected default ExpirySeconds 300, got %d", cfg.ExpirySeconds)
	}
	if cfg.NoticeSeconds != 3 {
		t.Errorf("expected default NoticeSeconds 3, got %d", cfg.NoticeSeconds)
	}
	if cfg.DesktopNotifications {
		t.Error("expected DesktopNotifications to default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.ini")

	cfg := &Config{
		ServerURL:            "https://share.example.com",
		ProxyMode:            ProxyModeBasic,
		ProxyHost:            "proxy.corp",
		ProxyPort:            3128,
		ProxyUser:            "alice",
		ProxyPassword:        "secret",
		NoProxy:              "localhost,10.0.0.0/8",
		DownloadDir:          "/tmp/downloads",
		ExpirySeconds:        120,
		NoticeSeconds:        5,
		QRRetryMax:           1,
		DesktopNotifications: true,
		FileLogging:          true,
	}

	if err := Save(cfg, configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if strings.Contains(string(raw), "secret") {
		t.Error("proxy password must not be written to disk")
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	want := *cfg
	want.ProxyPassword = ""
	if *loaded != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *loaded, want)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.ini"))
	if err != nil {
		t.Fatalf("LoadFile error = %v", err)
	}
	if cfg.ServerURL != NewConfig().ServerURL {
		t.Errorf("expected default server URL, got %s", cfg.ServerURL)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte("[server\nurl = x"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed INI")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	content := "[server]\nurl = http://10.0.0.5:8000\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error = %v", err)
	}
	if cfg.ServerURL != "http://10.0.0.5:8000" {
		t.Errorf("ServerURL = %s", cfg.ServerURL)
	}
	if cfg.ExpirySeconds != 300 {
		t.Errorf("ExpirySeconds = %d, want default 300", cfg.ExpirySeconds)
	}
	if cfg.ProxyMode != ProxyModeSystem {
		t.Errorf("ProxyMode = %s, want default system", cfg.ProxyMode)
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	content := "[server]\nurl = http://from-file:5000\n[transfer]\nexpiry_seconds = 60\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("INSTANTSHARE_SERVER_URL", "http://from-env:9000")
	t.Setenv("INSTANTSHARE_DESKTOP_NOTIFICATIONS", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.ServerURL != "http://from-env:9000" {
		t.Errorf("ServerURL = %s, want env override", cfg.ServerURL)
	}
	if cfg.ExpirySeconds != 60 {
		t.Errorf("ExpirySeconds = %d, want file value 60", cfg.ExpirySeconds)
	}
	if !cfg.DesktopNotifications {
		t.Error("DesktopNotifications should be enabled by env")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(c *Config) {}, nil},
		{"empty url", func(c *Config) { c.ServerURL = "  " }, ErrMissingServerURL},
		{"relative url", func(c *Config) { c.ServerURL = "share.example.com" }, ErrInvalidServerURL},
		{"ftp url", func(c *Config) { c.ServerURL = "ftp://share.example.com" }, ErrInvalidServerURL},
		{"bad proxy mode", func(c *Config) { c.ProxyMode = "socks" }, ErrInvalidProxyMode},
		{"basic without host", func(c *Config) { c.ProxyMode = ProxyModeBasic }, ErrMissingProxyHost},
		{"ntlm with host", func(c *Config) { c.ProxyMode = ProxyModeNTLM; c.ProxyHost = "p" }, nil},
		{"bad port", func(c *Config) { c.ProxyPort = 70000 }, ErrInvalidProxyPort},
		{"zero expiry", func(c *Config) { c.ExpirySeconds = 0 }, ErrInvalidExpirySeconds},
		{"zero notice", func(c *Config) { c.NoticeSeconds = 0 }, ErrInvalidNoticeSeconds},
		{"too many retries", func(c *Config) { c.QRRetryMax = 11 }, ErrInvalidQRRetryMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	cfg := NewConfig()
	cfg.ServerURL = " https://share.example.com/ "
	if got := cfg.BaseURL(); got != "https://share.example.com" {
		t.Errorf("BaseURL() = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/Downloads"); got != filepath.Join(home, "Downloads") {
		t.Errorf("expandHome(~/Downloads) = %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("expandHome(/abs/path) = %q", got)
	}
}

func TestPaths(t *testing.T) {
	if !strings.HasSuffix(DefaultConfigPath(), filepath.Join("instantshare", ConfigFileName)) {
		t.Errorf("DefaultConfigPath() = %q", DefaultConfigPath())
	}
	if !strings.HasPrefix(LogDirectory(), StateDirectory()) {
		t.Errorf("LogDirectory() %q should be under StateDirectory() %q", LogDirectory(), StateDirectory())
	}
	if DefaultDownloadDirectory() == "" {
		t.Error("DefaultDownloadDirectory() is empty")
	}
}
