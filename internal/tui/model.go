// Package tui is the interactive terminal front end: an upload panel, a
// download panel, the toast line and the light/dark theme, all driven by a
// core.Controller.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/core"
	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/retrieval"
	"github.com/instantshare/instantshare/internal/tabs"
	"github.com/instantshare/instantshare/internal/transfer"
)

// busMsg wraps one controller event.
type busMsg struct{ event events.Event }

// uploadDoneMsg and redeemDoneMsg end a background operation.
type uploadDoneMsg struct {
	outcome transfer.Outcome
	err     error
}

type redeemDoneMsg struct {
	result retrieval.Result
	err    error
}

type model struct {
	ctx    context.Context
	ctl    *core.Controller
	events <-chan events.Event

	pathInput textinput.Model
	codeInput textinput.Model
	bar       progress.Model
	spinner   spinner.Model

	uploading   bool
	downloading bool
	sent, total int64
	received    int64
	lastSaved   string

	// qrCode caches the terminal QR for qrLink.
	qrLink string
	qrCode string

	width  int
	height int
}

func newModel(ctx context.Context, ctl *core.Controller) *model {
	pi := textinput.New()
	pi.Placeholder = "Drop files here or type a path"
	pi.CharLimit = 4096
	pi.Width = 56
	pi.Focus()

	ci := textinput.New()
	ci.Placeholder = "6-character code"
	ci.CharLimit = constants.CodeInputLimit
	ci.Width = 12

	pal := ctl.Theme().Palette()
	bar := progress.New(progress.WithGradient(pal.ProgressFrom, pal.ProgressTo))
	bar.Width = 56

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &model{
		ctx:       ctx,
		ctl:       ctl,
		events:    ctl.Bus().SubscribeAll(),
		pathInput: pi,
		codeInput: ci,
		bar:       bar,
		spinner:   sp,
	}
}

// listenForEvents reads the next controller event.
func (m *model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.events
		if !ok {
			return nil
		}
		return busMsg{event: e}
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.listenForEvents())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case busMsg:
		m.handleEvent(msg.event)
		return m, m.listenForEvents()

	case uploadDoneMsg:
		m.uploading = false
		if msg.err == nil {
			m.switchFocus(tabs.Download)
		}
		return m, nil

	case redeemDoneMsg:
		m.downloading = false
		if msg.err == nil {
			m.lastSaved = msg.result.Path
			m.codeInput.Reset()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	if m.ctl.ActiveTab() == tabs.Upload {
		m.pathInput, cmd = m.pathInput.Update(msg)
	} else {
		m.codeInput, cmd = m.codeInput.Update(msg)
	}
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return tea.Quit, true
	case "tab", "shift+tab":
		m.switchFocus(m.ctl.NextTab())
		return nil, true
	case "ctrl+t":
		m.ctl.ToggleTheme()
		pal := m.ctl.Theme().Palette()
		m.bar = progress.New(progress.WithGradient(pal.ProgressFrom, pal.ProgressTo))
		m.bar.Width = 56
		return nil, true
	case "ctrl+y":
		m.ctl.CopyCode()
		return nil, true
	case "ctrl+l":
		m.ctl.CopyLink()
		return nil, true
	case "ctrl+x":
		if m.ctl.ActiveTab() == tabs.Upload {
			m.ctl.ClearStaged()
			return nil, true
		}
	case "enter":
		if m.ctl.ActiveTab() == tabs.Upload {
			return m.enterUpload(), true
		}
		return m.enterDownload(), true
	}
	return nil, false
}

// enterUpload stages the typed paths, or submits when nothing is typed.
func (m *model) enterUpload() tea.Cmd {
	if text := strings.TrimSpace(m.pathInput.Value()); text != "" {
		if err := m.ctl.DropText(text); err == nil {
			m.pathInput.Reset()
		}
		return nil
	}
	if m.uploading {
		return nil
	}
	if m.ctl.Staging().Empty() {
		// Submit reports the missing selection.
		m.ctl.Submit(m.ctx, nil)
		return nil
	}
	m.uploading = true
	m.sent, m.total = 0, m.ctl.Staging().TotalSize()
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		out, err := ctl.Submit(ctx, nil)
		return uploadDoneMsg{outcome: out, err: err}
	}
}

func (m *model) enterDownload() tea.Cmd {
	if m.downloading {
		return nil
	}
	code := m.codeInput.Value()
	if _, err := retrieval.Validate(code); err != nil {
		m.ctl.Redeem(m.ctx, code, "", nil)
		return nil
	}
	m.downloading = true
	m.received = 0
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		res, err := ctl.Redeem(ctx, code, "", nil)
		return redeemDoneMsg{result: res, err: err}
	}
}

func (m *model) switchFocus(tab string) {
	m.ctl.SwitchTab(tab)
	m.focus(tab)
}

func (m *model) focus(tab string) {
	if tab == tabs.Upload {
		m.codeInput.Blur()
		m.pathInput.Focus()
	} else {
		m.pathInput.Blur()
		m.codeInput.Focus()
	}
}

func (m *model) handleEvent(e events.Event) {
	switch ev := e.(type) {
	case *events.TransferEvent:
		switch ev.Type() {
		case events.EventTransferStarted:
			m.sent, m.total = 0, ev.BytesTotal
		case events.EventTransferProgress, events.EventTransferSucceeded:
			m.sent, m.total = ev.BytesSent, ev.BytesTotal
		}
	case *events.RedeemEvent:
		m.received = ev.BytesReceived
	case *events.TabEvent:
		m.focus(ev.Tab)
	}
}

// Run starts the terminal UI and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, ctl *core.Controller) error {
	m := newModel(ctx, ctl)
	defer ctl.Bus().Unsubscribe(m.events)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
