// Package tabs switches between the mutually exclusive upload and download
// panels.
package tabs

import (
	"sync"

	"github.com/instantshare/instantshare/internal/events"
)

// Panel names.
const (
	Upload   = "upload"
	Download = "download"
)

// Names lists the panels in display order.
var Names = []string{Upload, Download}

// Controller tracks the active panel. Exactly one panel is active at a time.
type Controller struct {
	mu     sync.RWMutex
	active string
	bus    *events.EventBus
}

// NewController starts with the upload panel active.
func NewController(bus *events.EventBus) *Controller {
	return &Controller{active: Upload, bus: bus}
}

// Active returns the active panel name.
func (c *Controller) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// SwitchTo activates the named panel. An unknown name changes nothing and
// returns false.
func (c *Controller) SwitchTo(name string) bool {
	if !Known(name) {
		return false
	}
	c.mu.Lock()
	c.active = name
	c.mu.Unlock()

	c.bus.Publish(&events.TabEvent{BaseEvent: events.NewBase(events.EventTabChanged), Tab: name})
	return true
}

// Next activates the panel after the active one, wrapping around.
func (c *Controller) Next() string {
	active := c.Active()
	next := Names[0]
	for i, n := range Names {
		if n == active {
			next = Names[(i+1)%len(Names)]
			break
		}
	}
	c.SwitchTo(next)
	return next
}

// Known reports whether name is a panel.
func Known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}
