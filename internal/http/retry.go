package http

import (
	"context"
	"errors"
	"math/rand"
	"net"
	nethttp "net/http"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrorType classifies a failed request.
type ErrorType int

const (
	// ErrorTypeSuccess indicates the request succeeded
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeNetwork indicates connection problems: refused, reset, DNS, timeouts
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates a server-side condition worth retrying (429, 5xx)
	ErrorTypeRetryable
	// ErrorTypeCanceled indicates the caller gave up
	ErrorTypeCanceled
	// ErrorTypeFatal indicates anything else
	ErrorTypeFatal
)

// ClassifyError determines the error type of a failed request.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}
	if errors.Is(err, context.Canceled) {
		return ErrorTypeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return ErrorTypeNetwork
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorTypeNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorTypeNetwork
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "tls handshake timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "timeout") {
		return ErrorTypeNetwork
	}

	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "service unavailable") {
		return ErrorTypeRetryable
	}

	return ErrorTypeFatal
}

// ClassifyStatus maps a response status to an ErrorType.
func ClassifyStatus(status int) ErrorType {
	switch {
	case status < 400:
		return ErrorTypeSuccess
	case status == nethttp.StatusTooManyRequests, status >= 500 && status != nethttp.StatusNotImplemented:
		return ErrorTypeRetryable
	default:
		return ErrorTypeFatal
	}
}

// CalculateBackoff returns exponential backoff with full jitter:
// random(0, min(maxDelay, initialDelay * 2^attempt)).
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 || initialDelay <= 0 {
		return 0
	}

	base := time.Duration(1<<uint(attempt)) * initialDelay
	if base > maxDelay || base <= 0 {
		base = maxDelay
	}
	return time.Duration(rand.Int63n(int64(base)))
}

// RetryPolicy decides whether retryablehttp should retry a request. Network
// failures and retryable statuses are retried; cancellation and other
// failures are not.
func RetryPolicy(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		switch ClassifyError(err) {
		case ErrorTypeNetwork, ErrorTypeRetryable:
			return true, err
		default:
			return false, err
		}
	}
	return ClassifyStatus(resp.StatusCode) == ErrorTypeRetryable, nil
}

// RetryBackoff adapts CalculateBackoff to retryablehttp.Backoff.
func RetryBackoff(min, max time.Duration, attemptNum int, resp *nethttp.Response) time.Duration {
	return CalculateBackoff(attemptNum+1, min, max)
}

var (
	_ retryablehttp.CheckRetry = RetryPolicy
	_ retryablehttp.Backoff    = RetryBackoff
)

// ErrorTypeName returns a human-readable name for an ErrorType
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeCanceled:
		return "canceled"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
