// Package transfer uploads a staged set of files as one multipart request
// and reports byte-accurate progress.
package transfer

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/api"
	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/logging"
	"github.com/instantshare/instantshare/internal/staging"
)

// errAbandoned closes the payload pipe once the server has answered.
var errAbandoned = errors.New("upload request finished")

// Uploader posts a prepared multipart body. *api.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, contentType string, length int64) (*api.UploadResult, error)
}

// Progress is a snapshot of one upload.
type Progress struct {
	SessionID  string
	FileIndex  int
	FileCount  int
	BytesSent  int64
	BytesTotal int64
}

// Percent returns completion in [0, 100].
func (p Progress) Percent() float64 {
	if p.BytesTotal <= 0 {
		return 0
	}
	pct := float64(p.BytesSent) / float64(p.BytesTotal) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// Outcome is a successful upload.
type Outcome struct {
	SessionID string
	Code      string
	Codes     []string
	FileCount int
	Bytes     int64
	Duration  time.Duration
}

// Session serialises uploads: at most one Submit runs at a time.
type Session struct {
	uploader Uploader
	fs       afero.Fs
	bus      *events.EventBus
	logger   *logging.Logger

	// Interval throttles progress reports. Zero reports every write; the
	// final report is never throttled.
	Interval time.Duration

	mu       sync.Mutex
	inFlight bool
}

// NewSession creates an upload session reading staged files from fs.
func NewSession(uploader Uploader, fs afero.Fs, bus *events.EventBus, logger *logging.Logger) *Session {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Session{
		uploader: uploader,
		fs:       fs,
		bus:      bus,
		logger:   logger,
		Interval: constants.ProgressUpdateInterval,
	}
}

// InFlight reports whether an upload is running.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Submit uploads files in one request. onProgress, which may be nil, is
// called in order from a single goroutine and never after Submit returns.
// Failures other than ErrNoFilesSelected and ErrTransferInFlight are
// *TransferError.
func (s *Session) Submit(ctx context.Context, files []staging.File, onProgress func(Progress)) (Outcome, error) {
	if len(files) == 0 {
		return Outcome{}, ErrNoFilesSelected
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return Outcome{}, ErrTransferInFlight
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	id := uuid.NewString()
	start := time.Now()

	boundary := multipart.NewWriter(io.Discard).Boundary()
	total, err := payloadLength(files, boundary)
	if err != nil {
		return s.fail(id, len(files), &TransferError{Kind: KindLocal, Reason: MsgUploadFailed, Err: err})
	}

	s.bus.Publish(&events.TransferEvent{
		BaseEvent:  events.NewBase(events.EventTransferStarted),
		SessionID:  id,
		FileCount:  len(files),
		FileIndex:  -1,
		BytesTotal: total,
	})
	s.logger.Info().Str("session", id).Int("files", len(files)).
		Str("size", humanize.Bytes(uint64(total))).Msg("Upload started")

	pr, pw := io.Pipe()
	index := 0
	var last time.Time
	var lastSent int64 = -1
	report := func(sent int64) {
		now := time.Now()
		if sent != total && s.Interval > 0 && now.Sub(last) < s.Interval {
			return
		}
		if sent <= lastSent {
			return
		}
		last, lastSent = now, sent
		p := Progress{SessionID: id, FileIndex: index, FileCount: len(files), BytesSent: sent, BytesTotal: total}
		if onProgress != nil {
			onProgress(p)
		}
		s.bus.Publish(&events.TransferEvent{
			BaseEvent:  events.NewBase(events.EventTransferProgress),
			SessionID:  id,
			FileCount:  len(files),
			FileIndex:  index,
			BytesSent:  sent,
			BytesTotal: total,
			Percent:    p.Percent(),
		})
	}

	var writeErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw2 := &progressWriter{w: pw, report: report}
		writeErr = writePayload(pw2, s.fs, files, boundary, func(i int) { index = i })
		pw.CloseWithError(writeErr)
	}()

	result, upErr := s.uploader.Upload(ctx, pr, multipartContentType(boundary), total)
	pr.CloseWithError(errAbandoned)
	<-done

	var le *localError
	if errors.As(writeErr, &le) {
		return s.fail(id, len(files), &TransferError{Kind: KindLocal, Reason: MsgUploadFailed, Err: le.err})
	}
	if upErr != nil {
		return s.fail(id, len(files), classify(upErr))
	}

	out := Outcome{
		SessionID: id,
		Code:      result.Code,
		Codes:     result.Codes,
		FileCount: len(files),
		Bytes:     total,
		Duration:  time.Since(start),
	}
	s.bus.Publish(&events.TransferEvent{
		BaseEvent:  events.NewBase(events.EventTransferSucceeded),
		SessionID:  id,
		FileCount:  len(files),
		FileIndex:  -1,
		BytesSent:  total,
		BytesTotal: total,
		Percent:    100,
		Code:       out.Code,
	})
	s.logger.Info().Str("session", id).Str("code", out.Code).
		Dur("elapsed", out.Duration).Msg("Upload complete")
	return out, nil
}

func (s *Session) fail(id string, count int, te *TransferError) (Outcome, error) {
	s.bus.Publish(&events.TransferEvent{
		BaseEvent: events.NewBase(events.EventTransferFailed),
		SessionID: id,
		FileCount: count,
		FileIndex: -1,
		Error:     te,
	})
	s.logger.Warn().Str("session", id).Str("kind", te.Kind.String()).Err(te.Err).Msg(te.Reason)
	return Outcome{}, te
}

func multipartContentType(boundary string) string {
	return "multipart/form-data; boundary=" + boundary
}
