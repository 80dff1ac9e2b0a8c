package expiry

import (
	"sync"
	"time"
)

// Clock creates the tickers that drive a countdown.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// ManualClock only ticks when told to. Tick blocks until every live ticker
// has received the tick or been stopped, so callers observe ticks one at a
// time.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	step    time.Duration
	tickers []*manualTicker
}

// NewManualClock returns a manual clock starting at start that advances one
// second per tick.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start, step: time.Second}
}

func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *ManualClock) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{c: make(chan time.Time), stopped: make(chan struct{})}
	m.tickers = append(m.tickers, t)
	return t
}

// Tick advances the clock and delivers one tick. It returns the number of
// tickers that received it.
func (m *ManualClock) Tick() int {
	m.mu.Lock()
	m.now = m.now.Add(m.step)
	now := m.now
	live := m.liveLocked()
	m.mu.Unlock()

	delivered := 0
	for _, t := range live {
		select {
		case t.c <- now:
			delivered++
		case <-t.stopped:
		}
	}
	return delivered
}

// Live returns the number of tickers that have not been stopped.
func (m *ManualClock) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.liveLocked())
}

func (m *ManualClock) liveLocked() []*manualTicker {
	live := m.tickers[:0]
	for _, t := range m.tickers {
		select {
		case <-t.stopped:
		default:
			live = append(live, t)
		}
	}
	m.tickers = live
	out := make([]*manualTicker, len(live))
	copy(out, live)
	return out
}

type manualTicker struct {
	c       chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}
