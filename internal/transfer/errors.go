package transfer

import (
	"context"
	"errors"

	"github.com/instantshare/instantshare/internal/api"
)

// Notice texts shown for upload outcomes.
const (
	MsgNoFiles       = "Please select a file."
	MsgUploadSuccess = "Upload successful!"
	MsgUploadFailed  = "Upload failed."
	MsgNetworkError  = "Network error!"
)

var (
	// ErrNoFilesSelected is returned by Submit when nothing is staged.
	ErrNoFilesSelected = errors.New("no files selected")

	// ErrTransferInFlight is returned by Submit while another upload runs.
	ErrTransferInFlight = errors.New("an upload is already in progress")

	// ErrFileChanged is returned when a staged file no longer has the size
	// it had when it was staged.
	ErrFileChanged = errors.New("file changed since it was staged")
)

// Kind classifies a failed upload.
type Kind int

const (
	// KindTransport covers unreachable servers and non-2xx statuses.
	KindTransport Kind = iota
	// KindApplication covers 2xx responses the server marked unsuccessful or
	// that could not be understood.
	KindApplication
	// KindLocal covers staged files that could not be read.
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindApplication:
		return "application"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// TransferError is a failed upload. Reason is the user-facing message.
type TransferError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *TransferError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + " (" + e.Err.Error() + ")"
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// classify maps an api failure to a TransferError.
func classify(err error) *TransferError {
	var (
		statusErr  *api.StatusError
		backendErr *api.BackendError
		netErr     *api.NetworkError
	)
	switch {
	case errors.As(err, &statusErr):
		reason := statusErr.Message
		if reason == "" {
			reason = MsgUploadFailed
		}
		return &TransferError{Kind: KindTransport, Reason: reason, Err: err}
	case errors.As(err, &backendErr):
		reason := backendErr.Message
		if reason == "" {
			reason = MsgUploadFailed
		}
		return &TransferError{Kind: KindApplication, Reason: reason, Err: err}
	case errors.Is(err, api.ErrMalformedResponse), errors.Is(err, api.ErrMissingCode):
		return &TransferError{Kind: KindApplication, Reason: MsgUploadFailed, Err: err}
	case errors.As(err, &netErr), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &TransferError{Kind: KindTransport, Reason: MsgNetworkError, Err: err}
	default:
		return &TransferError{Kind: KindTransport, Reason: MsgUploadFailed, Err: err}
	}
}

// Reason returns the user-facing message for any Submit error.
func Reason(err error) string {
	var te *TransferError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoFilesSelected):
		return MsgNoFiles
	case errors.As(err, &te):
		return te.Reason
	default:
		return MsgUploadFailed
	}
}
