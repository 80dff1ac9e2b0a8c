package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/instantshare/instantshare/internal/config"
	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/logging"
)

// CreateTransferClient returns the client used for uploads and downloads.
// It has no overall timeout: bundles can be large and callers bound each
// request with a context instead.
//
// HTTP/2 is negotiated when talking to the server directly. It is turned off
// when a proxy is active (FORCE_HTTP2=true overrides) or when
// DISABLE_HTTP2=true is set.
func CreateTransferClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	baseClient, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	baseClient.Timeout = 0

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM wraps the transport in a negotiator; leave it untouched.
		return baseClient, nil
	}

	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	disable := os.Getenv("DISABLE_HTTP2") == "true"
	if proxyActive(cfg) && os.Getenv("FORCE_HTTP2") != "true" {
		disable = true
	}
	if disable {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	return baseClient, nil
}

// CreateAssetClient returns a client for small idempotent fetches such as
// QR images. Requests time out after constants.HTTPClientTimeout.
func CreateAssetClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	c, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Timeout = constants.HTTPClientTimeout
	return c, nil
}

func proxyActive(cfg *config.Config) bool {
	switch cfg.ProxyMode {
	case config.ProxyModeNone, "":
		return false
	case config.ProxyModeSystem:
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}
