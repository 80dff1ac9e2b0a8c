package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/instantshare/instantshare/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog EventType = "log"

	// Staging area
	EventStaged        EventType = "staged"         // Staged set replaced
	EventStagedCleared EventType = "staged_cleared" // Staged set emptied

	// Transfer session lifecycle
	EventTransferStarted   EventType = "transfer_started"   // Submit accepted, request being sent
	EventTransferProgress  EventType = "transfer_progress"  // Bytes handed to the transport
	EventTransferSucceeded EventType = "transfer_succeeded" // Backend issued a code
	EventTransferFailed    EventType = "transfer_failed"    // Transport or application failure

	// Countdown
	EventCountdownTick    EventType = "countdown_tick"    // mm:ss render
	EventCountdownExpired EventType = "countdown_expired" // Terminal, fires once per code

	// Retrieval
	EventRedeemStarted   EventType = "redeem_started"
	EventRedeemProgress  EventType = "redeem_progress"
	EventRedeemCompleted EventType = "redeem_completed"
	EventRedeemFailed    EventType = "redeem_failed"

	// Presentation
	EventNotice         EventType = "notice"           // Toast shown
	EventNoticeCleared  EventType = "notice_cleared"   // Toast auto-dismissed
	EventTabChanged     EventType = "tab_changed"      // Active panel switched
	EventThemeChanged   EventType = "theme_changed"    // Light/dark toggled
	EventResultChanged  EventType = "result_changed"   // Result surface revealed or invalidated
	EventClipboardCopy  EventType = "clipboard_copy"   // Code or link copied
	EventQRAssetFetched EventType = "qr_asset_fetched" // QR image downloaded for display
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NewBase stamps an event header with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Error   error
}

// StagedEvent is published whenever the staged set changes.
type StagedEvent struct {
	BaseEvent
	Files      int
	TotalBytes int64
}

// TransferEvent covers every stage of one upload session.
type TransferEvent struct {
	BaseEvent
	SessionID  string
	FileCount  int
	FileIndex  int // index of the file currently being streamed, -1 when unknown
	BytesSent  int64
	BytesTotal int64
	Percent    float64 // 0 to 100
	Code       string  // set on success
	Error      error   // set on failure
}

// CountdownEvent carries one countdown render.
type CountdownEvent struct {
	BaseEvent
	Code      string
	Remaining int    // seconds, -1 once expired
	Display   string // "mm:ss" or "Expired"
}

// RedeemEvent covers a download started from a retrieval code.
type RedeemEvent struct {
	BaseEvent
	Code          string
	Path          string // destination, set on completion
	BytesReceived int64
	BytesTotal    int64 // -1 when the server did not announce a length
	Error         error
}

// NoticeEvent is a toast shown to the user.
type NoticeEvent struct {
	BaseEvent
	Message string
	Kind    string // "success" or "error"
}

// TabEvent reports the newly active panel.
type TabEvent struct {
	BaseEvent
	Tab string
}

// ThemeEvent reports a theme toggle.
type ThemeEvent struct {
	BaseEvent
	Mode      string // "light" or "dark"
	Indicator string
}

// ResultEvent reports a change to the result surface.
type ResultEvent struct {
	BaseEvent
	Visible bool
	Expired bool
	Code    string
	QRURL   string
}

// ClipboardEvent reports what was copied.
type ClipboardEvent struct {
	BaseEvent
	What string // "code" or "link"
	Text string
}

// QRAssetEvent carries the downloaded QR image.
type QRAssetEvent struct {
	BaseEvent
	Code  string
	URL   string
	Bytes int
	Error error
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to the given event types.
// Events of all listed types share one channel so their relative order is kept.
func (eb *EventBus) Subscribe(eventTypes ...EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	for _, t := range eventTypes {
		eb.subscribers[t] = append(eb.subscribers[t], ch)
	}
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// An event is dropped for a subscriber whose buffer is full.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	// A channel subscribed to several types appears several times.
	seen := make(map[chan Event]struct{})
	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			if _, ok := seen[ch]; ok {
				continue
			}
			seen[ch] = struct{}{}
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: NewBase(EventLog),
		Level:     level,
		Message:   message,
		Error:     err,
	})
}

// PublishNotice is a convenience method for publishing toast events
func (eb *EventBus) PublishNotice(message, kind string) {
	eb.Publish(&NoticeEvent{
		BaseEvent: NewBase(EventNotice),
		Message:   message,
		Kind:      kind,
	})
}

// Unsubscribe removes a subscription channel from every event type and from
// the all-events list. The channel is not closed.
func (eb *EventBus) Unsubscribe(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
