package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/instantshare/instantshare/internal/config"
	"github.com/instantshare/instantshare/internal/logging"
)

// TestProxyFuncWithBypass_EmptyNoProxy verifies that an empty noProxy always routes through proxy.
func TestProxyFuncWithBypass_EmptyNoProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "", logging.NewNopLogger())

	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_WildcardDomain verifies *.example.com bypasses api.example.com.
func TestProxyFuncWithBypass_WildcardDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com", logging.NewNopLogger())

	// Subdomain should bypass proxy
	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result)
	}
}

// TestProxyFuncWithBypass_ExactDomain verifies example.com bypasses root and subdomains.
func TestProxyFuncWithBypass_ExactDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "example.com", logging.NewNopLogger())

	// Root domain should bypass
	req, _ := http.NewRequest("GET", "https://example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for example.com, got %v", result)
	}

	// A domain without a leading dot also matches its subdomains
	req2, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result2, err := proxyFunc(req2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2 != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result2)
	}
}

// TestProxyFuncWithBypass_CIDR verifies IP/CIDR range matching.
func TestProxyFuncWithBypass_CIDR(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "10.0.0.0/8", logging.NewNopLogger())

	// IP in range should bypass
	req, _ := http.NewRequest("GET", "http://10.1.2.3:8080/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for 10.1.2.3, got %v", result)
	}
}

// TestProxyFuncWithBypass_NonMatchingHost verifies non-matching hosts route through proxy.
func TestProxyFuncWithBypass_NonMatchingHost(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.internal.corp,10.0.0.0/8", logging.NewNopLogger())

	// External host should use proxy
	req, _ := http.NewRequest("GET", "https://share.example.org/upload_ajax", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL for share.example.org, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_MultiplePatterns verifies comma-separated patterns work.
func TestProxyFuncWithBypass_MultiplePatterns(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com, 192.168.0.0/16, internal.corp", logging.NewNopLogger())

	tests := []struct {
		name       string
		url        string
		wantBypass bool
	}{
		{"wildcard match", "https://api.example.com/data", true},
		{"cidr match", "http://192.168.1.100/api", true},
		{"exact domain match", "https://internal.corp/status", true},
		{"non-match", "https://share.example.org/upload_ajax", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.url, nil)
			result, err := proxyFunc(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBypass && result != nil {
				t.Errorf("expected bypass (nil) for %s, got %v", tt.url, result)
			}
			if !tt.wantBypass && result == nil {
				t.Errorf("expected proxy for %s, got nil (bypass)", tt.url)
			}
		})
	}
}

func TestConfigureHTTPClient_Modes(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		host      string
		wantProxy bool
		wantNTLM  bool
		wantErr   bool
	}{
		{"no proxy", config.ProxyModeNone, "", false, false, false},
		{"empty mode", "", "", false, false, false},
		{"basic", config.ProxyModeBasic, "proxy.corp", true, false, false},
		{"basic without host", config.ProxyModeBasic, "", false, false, false},
		{"ntlm", config.ProxyModeNTLM, "proxy.corp", true, true, false},
		{"unknown", "socks", "proxy.corp", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			cfg.ProxyMode = tt.mode
			cfg.ProxyHost = tt.host
			cfg.ProxyPort = 3128

			client, err := ConfigureHTTPClient(cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ConfigureHTTPClient() error = %v", err)
			}

			var tr *http.Transport
			switch rt := client.Transport.(type) {
			case *http.Transport:
				if tt.wantNTLM {
					t.Fatal("expected NTLM negotiator")
				}
				tr = rt
			default:
				if !tt.wantNTLM {
					t.Fatalf("unexpected transport %T", rt)
				}
				return
			}

			if (tr.Proxy != nil) != tt.wantProxy {
				t.Errorf("proxy configured = %v, want %v", tr.Proxy != nil, tt.wantProxy)
			}
			if tt.wantProxy {
				req, _ := http.NewRequest("GET", "http://share.example.org/", nil)
				u, err := tr.Proxy(req)
				if err != nil || u == nil || u.Host != "proxy.corp:3128" {
					t.Errorf("proxy for request = %v, %v", u, err)
				}
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ProxyHost = "proxy.corp"

	u := buildProxyURL(cfg)
	if u.Host != "proxy.corp:8080" {
		t.Errorf("default port not applied: %s", u.Host)
	}
	if u.User != nil {
		t.Error("credentials embedded without a password")
	}

	cfg.ProxyUser = "alice"
	cfg.ProxyPassword = "s3cret"
	u = buildProxyURL(cfg)
	if pw, ok := u.User.Password(); !ok || pw != "s3cret" || u.User.Username() != "alice" {
		t.Errorf("credentials = %v", u.User)
	}
}

func TestNeedsProxyPassword(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ProxyMode = config.ProxyModeBasic
	cfg.ProxyUser = "alice"
	if !NeedsProxyPassword(cfg) {
		t.Error("expected password prompt for basic mode with user and no password")
	}
	cfg.ProxyPassword = "x"
	if NeedsProxyPassword(cfg) {
		t.Error("password already set")
	}
	cfg.ProxyMode = config.ProxyModeSystem
	cfg.ProxyPassword = ""
	if NeedsProxyPassword(cfg) {
		t.Error("system mode never needs a password")
	}
}
