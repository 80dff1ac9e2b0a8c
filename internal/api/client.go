// Package api implements the HTTP contract of the share server: the upload
// endpoint, the direct download endpoint and the static QR assets.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/instantshare/instantshare/internal/config"
	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/http"
	"github.com/instantshare/instantshare/internal/logging"
)

// maxResponseBody bounds JSON bodies read from the server.
const maxResponseBody = 1 << 20

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

// Client talks to one share server.
type Client struct {
	transfer *nethttp.Client // uploads and downloads, never retried
	assets   *nethttp.Client // QR images, retried
	baseURL  string
	logger   *logging.Logger
}

// NewClient creates a client for the server in cfg.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	base := cfg.BaseURL()
	if base == "" {
		return nil, ErrEmptyBaseURL
	}

	transfer, err := http.CreateTransferClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	assetBase, err := http.CreateAssetClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = assetBase
	retryClient.RetryMax = cfg.QRRetryMax
	retryClient.RetryWaitMin = constants.RetryInitialDelay
	retryClient.RetryWaitMax = constants.RetryMaxDelay
	retryClient.CheckRetry = http.RetryPolicy
	retryClient.Backoff = http.RetryBackoff
	retryClient.Logger = &retryLogger{logger: logger}

	return &Client{
		transfer: transfer,
		assets:   retryClient.StandardClient(),
		baseURL:  base,
		logger:   logger,
	}, nil
}

// NewClientWithHTTP creates a client around existing HTTP clients. A nil
// assets client reuses transfer.
func NewClientWithHTTP(baseURL string, transfer, assets *nethttp.Client, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if assets == nil {
		assets = transfer
	}
	return &Client{
		transfer: transfer,
		assets:   assets,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:   logger,
	}
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadURL returns the multipart upload endpoint.
func (c *Client) UploadURL() string {
	return c.baseURL + constants.UploadPath
}

// DownloadURL returns the direct download link for code. It is also the link
// users share.
func (c *Client) DownloadURL(code string) string {
	return c.baseURL + constants.DownloadPath + url.PathEscape(code)
}

// UploadResponse is the JSON document returned by the upload endpoint.
type UploadResponse struct {
	Success bool     `json:"success"`
	Code    string   `json:"code,omitempty"`
	Codes   []string `json:"codes,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// UploadResult is a successful upload.
type UploadResult struct {
	Code  string   // primary retrieval code
	Codes []string // every code returned, primary first
}

// Upload posts a prepared multipart body. length is the exact body size, or
// -1 when unknown. The request is never retried.
func (c *Client) Upload(ctx context.Context, body io.Reader, contentType string, length int64) (*UploadResult, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.UploadURL(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = length
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.transfer.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("url", req.URL.String()).Msg("Upload request failed")
		return nil, &NetworkError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &NetworkError{Op: "read upload response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: ErrorMessage(data)}
	}
	return ParseUploadResponse(data)
}

// ParseUploadResponse interprets a 2xx upload body. codes[0] is preferred
// over code; both are trimmed and upper-cased.
func ParseUploadResponse(data []byte) (*UploadResult, error) {
	var r UploadResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !r.Success {
		return nil, &BackendError{Message: r.Error}
	}

	var codes []string
	for _, code := range r.Codes {
		if code = NormalizeCode(code); code != "" {
			codes = append(codes, code)
		}
	}
	if code := NormalizeCode(r.Code); code != "" && len(codes) == 0 {
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, ErrMissingCode
	}
	return &UploadResult{Code: codes[0], Codes: codes}, nil
}

// Download starts a GET of the bundle behind code. The caller owns the
// response body. Transport failures are returned as *NetworkError.
func (c *Client) Download(ctx context.Context, code string) (*nethttp.Response, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, c.DownloadURL(code), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.transfer.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("code", code).Msg("Download request failed")
		return nil, &NetworkError{Op: "download", Err: err}
	}
	return resp, nil
}

// FetchAsset GETs a small static asset, retrying transient failures. It
// returns the body and its media type.
func (c *Client) FetchAsset(ctx context.Context, assetURL string) ([]byte, string, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, assetURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.assets.Do(req)
	if err != nil {
		return nil, "", &NetworkError{Op: "fetch asset", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, "", &StatusError{StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, "", &NetworkError{Op: "read asset", Err: err}
	}
	return data, MediaType(resp.Header.Get("Content-Type")), nil
}

// ErrorMessage extracts the error field of a JSON error envelope, or "".
func ErrorMessage(data []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(data), &envelope); err != nil {
		return ""
	}
	return envelope.Error
}

// MediaType returns the lower-cased media type of a Content-Type header
// without parameters.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mt
}

// NormalizeCode trims and upper-cases a retrieval code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
