// Package http builds the HTTP clients used to talk to the share server,
// including proxy configuration and error classification.
package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"

	"github.com/instantshare/instantshare/internal/config"
	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/logging"
)

// defaultProxyPort is used when a proxy host is configured without a port.
const defaultProxyPort = 8080

// ConfigureHTTPClient returns a client honouring the configured proxy mode.
// basic and ntlm modes without a host fall back to a direct connection so a
// half-written config does not lock the user out.
func ConfigureHTTPClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}
	client := &nethttp.Client{Transport: transport}

	switch strings.ToLower(cfg.ProxyMode) {
	case config.ProxyModeNone, "":
		transport.Proxy = nil

	case config.ProxyModeSystem:
		transport.Proxy = nethttp.ProxyFromEnvironment

	case config.ProxyModeBasic, config.ProxyModeNTLM:
		if cfg.ProxyHost == "" {
			logger.Warn().Str("mode", cfg.ProxyMode).Msg("Proxy host is missing, connecting directly")
			transport.Proxy = nil
			return client, nil
		}
		if NeedsProxyPassword(cfg) {
			logger.Warn().Str("user", cfg.ProxyUser).Msg("Proxy password missing, proxy auth disabled until it is set")
		}

		proxyURL := buildProxyURL(cfg)
		transport.Proxy = proxyFuncWithBypass(proxyURL, cfg.NoProxy, logger)

		if strings.ToLower(cfg.ProxyMode) == config.ProxyModeNTLM {
			client.Transport = ntlmssp.Negotiator{RoundTripper: transport}
		}

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.ProxyMode)
	}

	return client, nil
}

// buildProxyURL constructs a proxy URL from config. Credentials are embedded
// only when both user and password are known.
func buildProxyURL(cfg *config.Config) *url.URL {
	port := cfg.ProxyPort
	if port == 0 {
		port = defaultProxyPort
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(cfg.ProxyHost, fmt.Sprint(port)),
	}
	if cfg.ProxyUser != "" && cfg.ProxyPassword != "" {
		proxyURL.User = url.UserPassword(cfg.ProxyUser, cfg.ProxyPassword)
	}
	return proxyURL
}

// proxyFuncWithBypass routes every request through proxyURL except hosts
// matching noProxy (domains, wildcards and CIDRs, as understood by
// golang.org/x/net/http/httpproxy).
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string, logger *logging.Logger) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := proxyFunc(req.URL)
		if result == nil {
			logger.Debug().Str("host", req.URL.Host).Msg("Proxy bypass, direct connection")
		} else {
			logger.Debug().Str("host", req.URL.Host).Str("proxy", result.Host).Msg("Proxied")
		}
		return result, err
	}
}

// NeedsProxyPassword returns true if the proxy configuration names a user
// but no password. The CLI prompts for it in that case.
func NeedsProxyPassword(cfg *config.Config) bool {
	mode := strings.ToLower(cfg.ProxyMode)
	if mode != config.ProxyModeBasic && mode != config.ProxyModeNTLM {
		return false
	}
	return cfg.ProxyUser != "" && cfg.ProxyPassword == ""
}

// CheckConnection performs a GET on baseURL and reports whether the server
// answered. Any status below 500 counts as reachable.
func CheckConnection(ctx context.Context, client *nethttp.Client, baseURL string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ConnectionTestTimeout)
	defer cancel()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, baseURL+"/", nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("connection test failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return resp.StatusCode, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
