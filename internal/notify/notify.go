// Package notify provides the transient notice channel ("toast") shared by
// every instantshare component, with an optional desktop notification mirror
// built on github.com/gen2brain/beeep.
package notify

import (
	"sync"
	"time"

	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/events"
)

// Kind classifies a notice for styling.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notice is one visible toast.
type Notice struct {
	ID      uint64
	Message string
	Kind    Kind
	ShownAt time.Time
}

// Config holds notifier settings.
type Config struct {
	// Duration is how long a notice stays visible. Zero means 3 seconds.
	Duration time.Duration

	// Desktop mirrors notices to the OS notification center when non-nil.
	Desktop *Desktop
}

// DefaultConfig returns the default notifier configuration.
func DefaultConfig() *Config {
	return &Config{Duration: constants.NoticeDuration}
}

// Notifier holds at most one visible notice. Showing a new notice replaces
// the current one and restarts the dismiss timer.
type Notifier struct {
	mu       sync.Mutex
	current  *Notice
	timer    *time.Timer
	seq      uint64
	duration time.Duration
	desktop  *Desktop
	bus      *events.EventBus
	closed   bool
}

// NewNotifier creates a notifier publishing on bus. Both cfg and bus may be nil.
func NewNotifier(cfg *Config, bus *events.EventBus) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	d := cfg.Duration
	if d <= 0 {
		d = constants.NoticeDuration
	}
	return &Notifier{
		duration: d,
		desktop:  cfg.Desktop,
		bus:      bus,
	}
}

// Show displays message, replacing any visible notice.
func (n *Notifier) Show(message string, kind Kind) Notice {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return Notice{}
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	notice := Notice{ID: n.seq, Message: message, Kind: kind, ShownAt: time.Now()}
	n.current = &notice
	id := notice.ID
	n.timer = time.AfterFunc(n.duration, func() { n.expire(id) })
	n.mu.Unlock()

	n.bus.PublishNotice(message, string(kind))
	if n.desktop != nil {
		n.desktop.Send(message, kind)
	}
	return notice
}

// Success shows a success notice.
func (n *Notifier) Success(message string) Notice {
	return n.Show(message, KindSuccess)
}

// Error shows an error notice.
func (n *Notifier) Error(message string) Notice {
	return n.Show(message, KindError)
}

// Current returns the visible notice, if any.
func (n *Notifier) Current() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notice{}, false
	}
	return *n.current, true
}

// Dismiss hides the visible notice immediately.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	if n.current == nil {
		n.mu.Unlock()
		return
	}
	id := n.current.ID
	n.mu.Unlock()
	n.expire(id)
}

// Close stops the dismiss timer. Later Show calls are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.current = nil
	n.closed = true
}

// expire clears the notice with the given id; a newer notice is left alone.
func (n *Notifier) expire(id uint64) {
	n.mu.Lock()
	if n.current == nil || n.current.ID != id {
		n.mu.Unlock()
		return
	}
	n.current = nil
	n.mu.Unlock()

	n.bus.Publish(&events.NoticeEvent{BaseEvent: events.NewBase(events.EventNoticeCleared)})
}
