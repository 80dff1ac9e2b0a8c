// Package constants holds the fixed values shared across instantshare packages.
package constants

import (
	"time"
)

// Application identity
const (
	// AppName is used for the config/state directory names and notification titles.
	AppName = "instantshare"

	// AppTitle is the human-readable name shown in the terminal UI header.
	AppTitle = "InstantShare"
)

// Retrieval codes
const (
	// CodeLength - every code issued by the backend is exactly 6 characters
	CodeLength = 6

	// CodeInputLimit - room for padding and invisible characters around a pasted code
	CodeInputLimit = 32

	// ExpirySeconds - window during which an issued code stays redeemable (300 seconds)
	// The backend enforces expiry; the client countdown is display only.
	ExpirySeconds = 300
)

// Notices
const (
	// NoticeDuration - how long a toast stays visible before auto-dismissing (3 seconds)
	NoticeDuration = 3 * time.Second

	// CountdownTick - countdown resolution (1 second)
	CountdownTick = 1 * time.Second
)

// Backend endpoints (relative to the server URL)
const (
	// UploadPath accepts a multipart body with one or more "file" parts.
	UploadPath = "/upload_ajax"

	// DownloadPath is followed by the retrieval code.
	DownloadPath = "/download_direct/"

	// QRPathPrefix and QRPathSuffix surround the code of the QR asset.
	QRPathPrefix = "/static/"
	QRPathSuffix = ".png"

	// UploadFieldName is the multipart field name of every file part.
	UploadFieldName = "file"

	// DefaultServerURL - Flask development server default
	DefaultServerURL = "http://127.0.0.1:5000"
)

// Theme persistence
const (
	// ThemeKey is the single persisted preference key.
	ThemeKey = "theme"

	// ThemeSection is the INI section holding ThemeKey.
	ThemeSection = "ui"

	// PreferencesFileName lives under the XDG state directory.
	PreferencesFileName = "preferences.ini"
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	// 1000 events covers a full upload worth of progress updates per subscriber
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios (5000)
	EventBusMaxBuffer = 5000
)

// UI Updates
const (
	// ProgressUpdateInterval - interval for progress bar updates (250ms)
	// Balances responsiveness with performance
	ProgressUpdateInterval = 250 * time.Millisecond

	// UploadCopyBufferSize - chunk size used when streaming files into the multipart body (32 KB)
	// Smaller chunks give finer progress granularity on slow links.
	UploadCopyBufferSize = 32 * 1024
)

// Disk space safety margin
const (
	// DiskSpaceBufferPercent - additional space to require beyond the announced bundle size (15%)
	DiskSpaceBufferPercent = 0.15
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPClientTimeout - overall timeout for short requests (QR asset, connection test)
	HTTPClientTimeout = 30 * time.Second

	// ConnectionTestTimeout - timeout for 'config test' (10 seconds)
	ConnectionTestTimeout = 10 * time.Second
)

// Retry configuration (QR asset fetch only; uploads are never retried)
const (
	// QRRetryMax - retries for the idempotent QR asset request
	QRRetryMax = 3

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (5s)
	RetryMaxDelay = 5 * time.Second
)

// Log rotation
const (
	// LogMaxSizeMB - rotate the log file after this many megabytes
	LogMaxSizeMB = 10

	// LogMaxBackups - number of rotated log files to keep
	LogMaxBackups = 5

	// LogMaxAgeDays - days to retain rotated log files
	LogMaxAgeDays = 30
)
