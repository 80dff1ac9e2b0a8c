package notify

import (
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/logging"
)

// Seams for tests; beeep talks to D-Bus, NSUserNotificationCenter or toast.
var (
	desktopNotify = func(title, message string) error { return beeep.Notify(title, message, "") }
	desktopAlert  = func(title, message string) error { return beeep.Alert(title, message, "") }
)

// Desktop mirrors notices to the operating system notification center.
type Desktop struct {
	logger  *logging.Logger
	enabled bool
	mu      sync.RWMutex
}

// NewDesktop creates a desktop notifier. A nil logger discards send failures.
func NewDesktop(enabled bool, logger *logging.Logger) *Desktop {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Desktop{
		logger:  logger,
		enabled: enabled,
	}
}

// SetEnabled enables or disables notifications.
func (d *Desktop) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (d *Desktop) IsEnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// Send shows message as a regular notification, or as an alert for errors.
func (d *Desktop) Send(message string, kind Kind) {
	if !d.IsEnabled() {
		return
	}

	title := constants.AppTitle
	message = truncate(message, 100)

	if kind == KindError {
		if err := desktopAlert(title, message); err == nil {
			return
		}
		// Fall back to regular notify
	}
	if err := desktopNotify(title, message); err != nil {
		d.logger.Warn().Err(err).Str("message", message).Msg("Failed to send desktop notification")
	}
}

// DownloadSaved announces a completed download with a shortened path.
func (d *Desktop) DownloadSaved(path string) {
	d.Send("Saved "+shortenPath(path), KindSuccess)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	// Try to show ... + parent + file
	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))
	short := filepath.Join("...", parentDir, file)

	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}
	return short
}
