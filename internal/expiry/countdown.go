// Package expiry runs the countdown bound to an issued retrieval code.
package expiry

import (
	"sync"
	"time"

	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/format"
)

// Status is the countdown lifecycle state.
type Status int

const (
	Idle Status = iota
	Running
	Expired
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Expired:
		return "expired"
	default:
		return "idle"
	}
}

// ExpiredLabel replaces the mm:ss display once the code has expired.
const ExpiredLabel = "Expired"

// State is a snapshot of the countdown.
type State struct {
	Code      string
	Remaining int // -1 once expired
	Status    Status
	Display   string
}

// Countdown is a single-owner timer. Starting a new countdown cancels the
// running one and waits for its goroutine to exit, so a replaced countdown
// never renders again.
type Countdown struct {
	clock    Clock
	interval time.Duration
	bus      *events.EventBus

	ctl      sync.Mutex // serialises Start and Stop
	mu       sync.Mutex
	state    State
	cancel   chan struct{}
	done     chan struct{}
	onExpire func(code string)
}

// New creates an idle countdown. A nil clock means the wall clock.
func New(clock Clock, bus *events.EventBus) *Countdown {
	if clock == nil {
		clock = RealClock{}
	}
	return &Countdown{
		clock:    clock,
		interval: constants.CountdownTick,
		bus:      bus,
	}
}

// OnExpire registers fn to run once per countdown when it expires. fn runs on
// the countdown goroutine and must not call Start or Stop.
func (c *Countdown) OnExpire(fn func(code string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpire = fn
}

// Start binds a new countdown of seconds to code and renders it immediately.
func (c *Countdown) Start(code string, seconds int) {
	c.ctl.Lock()
	defer c.ctl.Unlock()
	c.stop()

	if seconds < 0 {
		seconds = 0
	}
	ticker := c.clock.NewTicker(c.interval)
	cancel := make(chan struct{})
	done := make(chan struct{})

	c.mu.Lock()
	c.state = State{
		Code:      code,
		Remaining: seconds,
		Status:    Running,
		Display:   format.Clock(seconds),
	}
	c.cancel = cancel
	c.done = done
	snapshot := c.state
	c.mu.Unlock()

	c.publish(events.EventCountdownTick, snapshot)
	go c.run(ticker, cancel, done)
}

// Stop cancels the running countdown and waits for it to exit. The last
// rendered state is kept; a running countdown becomes Idle.
func (c *Countdown) Stop() {
	c.ctl.Lock()
	defer c.ctl.Unlock()
	c.stop()
}

func (c *Countdown) stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	if cancel != nil {
		close(cancel)
	}
	if c.state.Status == Running {
		c.state.Status = Idle
	}
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// State returns a snapshot of the countdown.
func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining returns the seconds left, or -1 once expired.
func (c *Countdown) Remaining() int {
	return c.State().Remaining
}

// Status returns the lifecycle state.
func (c *Countdown) Status() Status {
	return c.State().Status
}

// Display returns the current countdown text.
func (c *Countdown) Display() string {
	return c.State().Display
}

func (c *Countdown) run(ticker Ticker, cancel, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C():
			if c.tick(cancel) {
				return
			}
		}
	}
}

// tick applies one second and reports whether the countdown is finished.
func (c *Countdown) tick(cancel chan struct{}) bool {
	c.mu.Lock()
	select {
	case <-cancel:
		c.mu.Unlock()
		return true
	default:
	}

	c.state.Remaining--
	if c.state.Remaining >= 0 {
		c.state.Display = format.Clock(c.state.Remaining)
		snapshot := c.state
		c.mu.Unlock()
		c.publish(events.EventCountdownTick, snapshot)
		return false
	}

	c.state.Remaining = -1
	c.state.Status = Expired
	c.state.Display = ExpiredLabel
	snapshot := c.state
	onExpire := c.onExpire
	c.mu.Unlock()

	c.publish(events.EventCountdownExpired, snapshot)
	if onExpire != nil {
		onExpire(snapshot.Code)
	}
	return true
}

func (c *Countdown) publish(t events.EventType, s State) {
	c.bus.Publish(&events.CountdownEvent{
		BaseEvent: events.NewBase(t),
		Code:      s.Code,
		Remaining: s.Remaining,
		Display:   s.Display,
	})
}
