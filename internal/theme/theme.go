// Package theme holds the persisted light/dark display preference.
package theme

import (
	"strings"
	"sync"

	"github.com/instantshare/instantshare/internal/events"
)

// Mode is a display theme.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// Default is used until the user toggles.
const Default = Dark

// ParseMode accepts "light" or "dark" in any case.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Indicator is the toggle glyph: a sun in light mode, a moon in dark mode.
func (m Mode) Indicator() string {
	if m == Light {
		return "☀️"
	}
	return "🌙"
}

// Opposite returns the other mode.
func (m Mode) Opposite() Mode {
	if m == Light {
		return Dark
	}
	return Light
}

// Preference is the process-wide theme. It is read once from the store and
// written back on every toggle.
type Preference struct {
	mu    sync.RWMutex
	mode  Mode
	store Store
	bus   *events.EventBus
}

// Load reads the stored preference. Absence yields Dark and writes nothing.
// A read error also yields Dark; the error is returned for logging and the
// preference stays usable.
func Load(store Store, bus *events.EventBus) (*Preference, error) {
	p := &Preference{mode: Default, store: store, bus: bus}
	if store == nil {
		return p, nil
	}
	mode, ok, err := store.Load()
	if err != nil {
		return p, err
	}
	if ok {
		p.mode = mode
	}
	return p, nil
}

// Mode returns the current mode.
func (p *Preference) Mode() Mode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// Indicator returns the glyph for the current mode.
func (p *Preference) Indicator() string {
	return p.Mode().Indicator()
}

// Palette returns the styles for the current mode.
func (p *Preference) Palette() Palette {
	return PaletteFor(p.Mode())
}

// Toggle flips the mode and persists it before returning. If persisting
// fails the in-memory mode is still flipped and the error is returned.
func (p *Preference) Toggle() (Mode, error) {
	p.mu.Lock()
	p.mode = p.mode.Opposite()
	mode := p.mode
	var err error
	if p.store != nil {
		err = p.store.Save(mode)
	}
	p.mu.Unlock()

	p.bus.Publish(&events.ThemeEvent{
		BaseEvent: events.NewBase(events.EventThemeChanged),
		Mode:      string(mode),
		Indicator: mode.Indicator(),
	})
	return mode, err
}
