// Package retrieval redeems a retrieval code: it validates the code, fetches
// the bundle and saves it to the download directory.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/api"
	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/diskspace"
	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/logging"
	"github.com/instantshare/instantshare/internal/validation"
)

// Downloader starts the GET for a code. *api.Client implements it.
type Downloader interface {
	Download(ctx context.Context, code string) (*nethttp.Response, error)
}

// Progress is a snapshot of one download.
type Progress struct {
	Code          string
	BytesReceived int64
	BytesTotal    int64 // -1 when unknown
}

// Result is a saved bundle.
type Result struct {
	Code     string
	Path     string
	FileName string
	Bytes    int64
	Duration time.Duration
}

// Controller redeems codes into a destination directory.
type Controller struct {
	client Downloader
	fs     afero.Fs
	dst    string
	bus    *events.EventBus
	logger *logging.Logger

	// Interval throttles progress reports; the final report is never
	// throttled.
	Interval time.Duration

	// CheckSpace verifies free space before writing. Tests replace it.
	CheckSpace func(path string, size int64) error
}

// NewController creates a controller saving into dst on fs.
func NewController(client Downloader, fs afero.Fs, dst string, bus *events.EventBus, logger *logging.Logger) *Controller {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		client:   client,
		fs:       fs,
		dst:      dst,
		bus:      bus,
		logger:   logger,
		Interval: constants.ProgressUpdateInterval,
		CheckSpace: func(path string, size int64) error {
			return diskspace.CheckAvailableSpace(path, size, 1+constants.DiskSpaceBufferPercent)
		},
	}
}

// Destination returns the default download directory.
func (c *Controller) Destination() string {
	return c.dst
}

// Normalize trims, strips pasted zero-width characters and upper-cases
// user input.
func Normalize(codeText string) string {
	return strings.ToUpper(validation.StripInvisible(codeText))
}

// Validate normalises codeText and checks its length.
func Validate(codeText string) (string, error) {
	code := Normalize(codeText)
	if utf8.RuneCountInString(code) != constants.CodeLength {
		return "", ErrInvalidCodeFormat
	}
	return code, nil
}

// Redeem downloads the bundle for codeText into the default directory.
func (c *Controller) Redeem(ctx context.Context, codeText string, onProgress func(Progress)) (Result, error) {
	return c.RedeemTo(ctx, codeText, "", onProgress)
}

// RedeemTo downloads the bundle for codeText into dst, or the default
// directory when dst is empty. Failures after validation are *DownloadError.
func (c *Controller) RedeemTo(ctx context.Context, codeText, dst string, onProgress func(Progress)) (Result, error) {
	code, err := Validate(codeText)
	if err != nil {
		return Result{}, err
	}
	if dst == "" {
		dst = c.dst
	}
	start := time.Now()

	c.bus.Publish(&events.RedeemEvent{BaseEvent: events.NewBase(events.EventRedeemStarted), Code: code, BytesTotal: -1})

	resp, err := c.client.Download(ctx, code)
	if err != nil {
		return c.fail(&DownloadError{Code: code, Message: MsgNetworkError, Err: err})
	}
	defer resp.Body.Close()

	if api.MediaType(resp.Header.Get("Content-Type")) == "application/json" {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		msg := api.ErrorMessage(data)
		if msg == "" {
			msg = MsgDownloadFailed
		}
		return c.fail(&DownloadError{Code: code, Message: msg, Envelope: true, StatusCode: resp.StatusCode})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(&DownloadError{Code: code, Message: MsgDownloadFailed, StatusCode: resp.StatusCode})
	}

	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = fallbackName(code)
	}

	path, written, derr := c.save(ctx, code, dst, name, resp, onProgress)
	if derr != nil {
		return c.fail(derr)
	}

	res := Result{Code: code, Path: path, FileName: name, Bytes: written, Duration: time.Since(start)}
	c.bus.Publish(&events.RedeemEvent{
		BaseEvent:     events.NewBase(events.EventRedeemCompleted),
		Code:          code,
		Path:          path,
		BytesReceived: written,
		BytesTotal:    written,
	})
	c.logger.Info().Str("code", code).Str("path", path).
		Str("size", humanize.Bytes(uint64(written))).Msg("Download saved")
	return res, nil
}

// save streams the body to a .part file next to the final path and renames
// it once complete.
func (c *Controller) save(ctx context.Context, code, dir, name string, resp *nethttp.Response, onProgress func(Progress)) (string, int64, *DownloadError) {
	saveErr := func(err error) *DownloadError {
		return &DownloadError{Code: code, Message: MsgDownloadFailed, Err: err}
	}

	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return "", 0, saveErr(fmt.Errorf("failed to create %s: %w", dir, err))
	}
	final, err := uniquePath(c.fs, dir, name)
	if err != nil {
		return "", 0, saveErr(err)
	}
	abs, err := filepath.Abs(final)
	if err == nil {
		err = validation.ValidatePathInDirectory(abs, dir)
	}
	if err != nil {
		return "", 0, saveErr(err)
	}

	total := resp.ContentLength
	if total > 0 && c.CheckSpace != nil {
		if err := c.CheckSpace(final, total); err != nil {
			return "", 0, &DownloadError{Code: code, Message: err.Error(), Err: err}
		}
	}

	part := final + partSuffix
	f, err := c.fs.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", 0, saveErr(fmt.Errorf("failed to create %s: %w", part, err))
	}

	pr := &progressReader{
		r:        resp.Body,
		total:    total,
		interval: c.Interval,
		report: func(received int64) {
			p := Progress{Code: code, BytesReceived: received, BytesTotal: total}
			if onProgress != nil {
				onProgress(p)
			}
			c.bus.Publish(&events.RedeemEvent{
				BaseEvent:     events.NewBase(events.EventRedeemProgress),
				Code:          code,
				BytesReceived: received,
				BytesTotal:    total,
			})
		},
	}

	written, copyErr := io.Copy(f, readerWithContext(ctx, pr))
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && total >= 0 && written != total {
		copyErr = io.ErrUnexpectedEOF
	}
	if copyErr != nil {
		_ = c.fs.Remove(part)
		if errors.Is(copyErr, context.Canceled) || api.IsNetworkError(copyErr) {
			return "", 0, &DownloadError{Code: code, Message: MsgNetworkError, Err: copyErr}
		}
		return "", 0, saveErr(copyErr)
	}
	pr.flush()

	if err := c.fs.Rename(part, final); err != nil {
		_ = c.fs.Remove(part)
		return "", 0, saveErr(fmt.Errorf("failed to finalize %s: %w", final, err))
	}
	return final, written, nil
}

func (c *Controller) fail(de *DownloadError) (Result, error) {
	c.bus.Publish(&events.RedeemEvent{
		BaseEvent:  events.NewBase(events.EventRedeemFailed),
		Code:       de.Code,
		BytesTotal: -1,
		Error:      de,
	})
	c.logger.Warn().Str("code", de.Code).Int("status", de.StatusCode).Err(de.Err).Msg(de.Message)
	return Result{}, de
}

// progressReader reports bytes read from the response body.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	reported int64
	interval time.Duration
	last     time.Time
	report   func(int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		now := time.Now()
		if p.read == p.total || p.interval <= 0 || now.Sub(p.last) >= p.interval {
			p.last = now
			p.emit()
		}
	}
	return n, err
}

// flush emits the final count if throttling skipped it.
func (p *progressReader) flush() {
	if p.read != p.reported {
		p.emit()
	}
}

func (p *progressReader) emit() {
	p.reported = p.read
	p.report(p.read)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
