package retrieval

import (
	"errors"
	"fmt"
)

// Notice texts shown for download outcomes.
const (
	MsgInvalidCode     = "Please enter a valid 6-character code."
	MsgDownloadStarted = "Download started!"
	MsgDownloadFailed  = "Download failed."
	MsgNetworkError    = "Network error!"
)

// ErrInvalidCodeFormat is returned for codes that are not exactly six
// characters after trimming. No request is made.
var ErrInvalidCodeFormat = errors.New("retrieval code must be 6 characters")

// DownloadError is a failed download. Message is the user-facing text:
// the server's error envelope verbatim when Envelope is set.
type DownloadError struct {
	Code       string
	Message    string
	Envelope   bool
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("download %s: %s", e.Code, e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Reason returns the user-facing message for any Redeem error.
func Reason(err error) string {
	var de *DownloadError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCodeFormat):
		return MsgInvalidCode
	case errors.As(err, &de):
		return de.Message
	default:
		return MsgDownloadFailed
	}
}
