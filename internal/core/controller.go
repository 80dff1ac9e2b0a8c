// Package core ties the instantshare components together: it stages files,
// runs uploads and downloads, owns the expiry countdown and routes every
// outcome through the notice channel. Front ends (CLI, terminal UI) drive a
// Controller and render the events it publishes.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/api"
	"github.com/instantshare/instantshare/internal/config"
	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/expiry"
	"github.com/instantshare/instantshare/internal/logging"
	"github.com/instantshare/instantshare/internal/notify"
	"github.com/instantshare/instantshare/internal/qr"
	"github.com/instantshare/instantshare/internal/retrieval"
	"github.com/instantshare/instantshare/internal/staging"
	"github.com/instantshare/instantshare/internal/tabs"
	"github.com/instantshare/instantshare/internal/theme"
	"github.com/instantshare/instantshare/internal/transfer"
)

// Notice texts not owned by a component package.
const (
	MsgFileExpired = "File expired!"
	MsgCodeCopied  = "Code copied!"
	MsgLinkCopied  = "Download link copied!"
	MsgCopyFailed  = "Copy failed."
)

// ErrNoResult is returned by the copy operations before any upload succeeded.
var ErrNoResult = errors.New("no retrieval code issued yet")

// clipboardWrite is replaced in tests; the real clipboard needs a display
// server or pbcopy/clip.exe.
var clipboardWrite = clipboard.WriteAll

// ResultView is the result surface shown after a successful upload.
type ResultView struct {
	Visible   bool
	Code      string
	Codes     []string
	QRURL     string
	LinkURL   string
	Countdown string // mm:ss or "Expired"
	Remaining int
	Expired   bool
	FileCount int
	QRReady   bool // the QR asset was served as a PNG
}

// Options configures a Controller. Only Config and Client are required.
type Options struct {
	Config *config.Config
	Client *api.Client

	Fs         afero.Fs         // default OS filesystem
	Clock      expiry.Clock     // default wall clock
	Bus        *events.EventBus // default new bus, closed by Close
	Logger     *logging.Logger
	ThemeStore theme.Store // nil keeps the theme in memory
	Desktop    *notify.Desktop
}

// Controller is the upload/download lifecycle controller.
type Controller struct {
	cfg     *config.Config
	client  *api.Client
	bus     *events.EventBus
	ownsBus bool
	logger  *logging.Logger
	clock   expiry.Clock

	staging   *staging.Area
	session   *transfer.Session
	countdown *expiry.Countdown
	retrieval *retrieval.Controller
	tabs      *tabs.Controller
	theme     *theme.Preference
	notifier  *notify.Notifier
	desktop   *notify.Desktop
	qr        *qr.Fetcher

	mu     sync.RWMutex
	result ResultView

	// lifeMu orders Submit side effects against Close.
	lifeMu sync.Mutex
	closed bool

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWg     sync.WaitGroup

	closeOnce sync.Once
}

// New creates a controller. A theme load failure is logged and the default
// theme is used.
func New(opts Options) (*Controller, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Client == nil {
		return nil, errors.New("api client is required")
	}

	c := &Controller{
		cfg:     opts.Config,
		client:  opts.Client,
		bus:     opts.Bus,
		logger:  opts.Logger,
		clock:   opts.Clock,
		desktop: opts.Desktop,
	}
	if c.bus == nil {
		c.bus = events.NewEventBus(constants.EventBusDefaultBuffer)
		c.ownsBus = true
	}
	if c.logger == nil {
		c.logger = logging.NewNopLogger()
	}
	if c.clock == nil {
		c.clock = expiry.RealClock{}
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	c.staging = staging.NewArea(fs, c.bus)
	c.session = transfer.NewSession(c.client, fs, c.bus, c.logger)
	c.retrieval = retrieval.NewController(c.client, fs, c.cfg.DownloadDir, c.bus, c.logger)
	c.tabs = tabs.NewController(c.bus)
	c.notifier = notify.NewNotifier(&notify.Config{
		Duration: time.Duration(c.cfg.NoticeSeconds) * time.Second,
		Desktop:  c.desktop,
	}, c.bus)
	c.qr = qr.NewFetcher(c.client, c.bus, c.logger)

	pref, err := theme.Load(opts.ThemeStore, c.bus)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read theme preference, using default")
	}
	c.theme = pref

	c.countdown = expiry.New(c.clock, c.bus)
	c.countdown.OnExpire(c.expire)

	c.bgCtx, c.bgCancel = context.WithCancel(context.Background())
	return c, nil
}

// Bus returns the event bus front ends subscribe to.
func (c *Controller) Bus() *events.EventBus { return c.bus }

// Config returns the active configuration.
func (c *Controller) Config() *config.Config { return c.cfg }

// Staging returns the staging area.
func (c *Controller) Staging() *staging.Area { return c.staging }

// Notifier returns the notice channel.
func (c *Controller) Notifier() *notify.Notifier { return c.notifier }

// Theme returns the theme preference.
func (c *Controller) Theme() *theme.Preference { return c.theme }

// ActiveTab returns the visible panel.
func (c *Controller) ActiveTab() string { return c.tabs.Active() }

// DownloadDir returns the default download destination.
func (c *Controller) DownloadDir() string { return c.retrieval.Destination() }

// Uploading reports whether an upload is in flight.
func (c *Controller) Uploading() bool { return c.session.InFlight() }

// StageFiles replaces the staged set with the files at paths (picker flow).
// Errors are shown as notices and returned; the previous set is kept.
func (c *Controller) StageFiles(paths []string) error {
	if err := c.staging.StagePaths(paths); err != nil {
		c.notifier.Error(stagingMessage(err))
		return err
	}
	return nil
}

// DropFiles stages a drop payload. An empty payload is ignored silently.
func (c *Controller) DropFiles(paths []string) error {
	if err := c.staging.Drop(paths); err != nil {
		c.notifier.Error(stagingMessage(err))
		return err
	}
	return nil
}

// DropText stages the paths in a raw terminal drop payload.
func (c *Controller) DropText(text string) error {
	return c.DropFiles(staging.ParseDropPayload(text))
}

// ClearStaged empties the staged set.
func (c *Controller) ClearStaged() {
	c.staging.Clear()
}

// Submit uploads the staged set. On success the result surface is revealed,
// the QR asset is requested, the download panel is shown, the countdown is
// armed and the staged set is cleared. Every outcome is announced through
// the notifier except ErrTransferInFlight, which is returned silently.
func (c *Controller) Submit(ctx context.Context, onProgress func(transfer.Progress)) (transfer.Outcome, error) {
	files := c.staging.Current()
	out, err := c.session.Submit(ctx, files, onProgress)
	if err != nil {
		if !errors.Is(err, transfer.ErrTransferInFlight) {
			c.notifier.Error(transfer.Reason(err))
		}
		return out, err
	}

	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.closed {
		c.logger.Info().Str("code", out.Code).Msg("Upload finished after close, result discarded")
		return out, nil
	}

	qrURL := qr.AssetURL(c.client.BaseURL(), out.Code, c.clock.Now())
	view := ResultView{
		Visible:   true,
		Code:      out.Code,
		Codes:     out.Codes,
		QRURL:     qrURL,
		LinkURL:   c.client.DownloadURL(out.Code),
		FileCount: out.FileCount,
	}
	c.mu.Lock()
	c.result = view
	c.mu.Unlock()
	c.publishResult(view)

	c.fetchQR(out.Code, qrURL)
	c.tabs.SwitchTo(tabs.Download)
	c.countdown.Start(out.Code, c.cfg.ExpirySeconds)
	c.staging.Clear()
	c.notifier.Success(transfer.MsgUploadSuccess)
	return out, nil
}

// Redeem downloads the bundle for codeText into dst, or into the configured
// download directory when dst is empty.
func (c *Controller) Redeem(ctx context.Context, codeText, dst string, onProgress func(retrieval.Progress)) (retrieval.Result, error) {
	if _, err := retrieval.Validate(codeText); err != nil {
		c.notifier.Error(retrieval.Reason(err))
		return retrieval.Result{}, err
	}
	c.notifier.Success(retrieval.MsgDownloadStarted)

	res, err := c.retrieval.RedeemTo(ctx, codeText, dst, onProgress)
	if err != nil {
		c.notifier.Error(retrieval.Reason(err))
		return res, err
	}
	if c.desktop != nil {
		c.desktop.DownloadSaved(res.Path)
	}
	return res, nil
}

// Result returns the result surface with the live countdown.
func (c *Controller) Result() ResultView {
	c.mu.RLock()
	view := c.result
	c.mu.RUnlock()
	if !view.Visible {
		return view
	}
	st := c.countdown.State()
	if st.Code == view.Code {
		view.Countdown = st.Display
		view.Remaining = st.Remaining
		if st.Status == expiry.Expired {
			view.Expired = true
		}
	}
	return view
}

// CopyCode copies the issued code to the clipboard.
func (c *Controller) CopyCode() error {
	view := c.Result()
	if !view.Visible {
		return ErrNoResult
	}
	return c.copy("code", view.Code, MsgCodeCopied)
}

// CopyLink copies the direct download link to the clipboard.
func (c *Controller) CopyLink() error {
	view := c.Result()
	if !view.Visible {
		return ErrNoResult
	}
	return c.copy("link", view.LinkURL, MsgLinkCopied)
}

func (c *Controller) copy(what, text, notice string) error {
	if err := clipboardWrite(text); err != nil {
		c.logger.Warn().Err(err).Str("what", what).Msg("Clipboard unavailable")
		c.notifier.Error(MsgCopyFailed)
		return fmt.Errorf("failed to copy %s: %w", what, err)
	}
	c.bus.Publish(&events.ClipboardEvent{
		BaseEvent: events.NewBase(events.EventClipboardCopy),
		What:      what,
		Text:      text,
	})
	c.notifier.Success(notice)
	return nil
}

// ToggleTheme flips light/dark and persists it. A persist failure is
// logged; the flip stands for this process.
func (c *Controller) ToggleTheme() (theme.Mode, error) {
	mode, err := c.theme.Toggle()
	if err != nil {
		c.logger.Warn().Err(err).Str("theme", string(mode)).Msg("Failed to save theme preference")
	}
	return mode, err
}

// SwitchTab shows the named panel. Unknown names are ignored.
func (c *Controller) SwitchTab(name string) bool {
	return c.tabs.SwitchTo(name)
}

// NextTab cycles to the other panel.
func (c *Controller) NextTab() string {
	return c.tabs.Next()
}

// Close stops the countdown and background work. An in-flight upload or
// download is abandoned: its caller still receives the outcome, but an
// upload finishing later no longer touches the result or the countdown.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.lifeMu.Lock()
		c.closed = true
		c.lifeMu.Unlock()

		c.countdown.Stop()
		c.bgCancel()
		c.bgWg.Wait()
		c.notifier.Close()
		if c.ownsBus {
			c.bus.Close()
		}
	})
}

// expire invalidates the result surface once the countdown for code ends.
func (c *Controller) expire(code string) {
	c.mu.Lock()
	if !c.result.Visible || c.result.Code != code {
		c.mu.Unlock()
		return
	}
	c.result.Expired = true
	c.result.Countdown = expiry.ExpiredLabel
	c.result.Remaining = -1
	view := c.result
	c.mu.Unlock()

	c.logger.Info().Str("code", code).Msg("Retrieval code expired")
	c.publishResult(view)
	c.notifier.Error(MsgFileExpired)
}

func (c *Controller) fetchQR(code, assetURL string) {
	c.bgWg.Add(1)
	go func() {
		defer c.bgWg.Done()
		ctx, cancel := context.WithTimeout(c.bgCtx, constants.HTTPClientTimeout)
		defer cancel()
		if _, err := c.qr.Fetch(ctx, code, assetURL); err != nil {
			return
		}
		c.mu.Lock()
		if c.result.Code == code && c.result.QRURL == assetURL {
			c.result.QRReady = true
		}
		c.mu.Unlock()
	}()
}

func (c *Controller) publishResult(view ResultView) {
	c.bus.Publish(&events.ResultEvent{
		BaseEvent: events.NewBase(events.EventResultChanged),
		Visible:   view.Visible,
		Expired:   view.Expired,
		Code:      view.Code,
		QRURL:     view.QRURL,
	})
}

func stagingMessage(err error) string {
	switch {
	case errors.Is(err, staging.ErrIsDirectory):
		return "Folders cannot be shared."
	case errors.Is(err, staging.ErrNotRegular):
		return "Only regular files can be shared."
	default:
		return "File not found."
	}
}
