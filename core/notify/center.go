package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notice for display.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is one short, dismissible message shown to the user. Message carries
// the server or transport text verbatim when one is available.
type Notice struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Center collects notices until the user dismisses them. Failures are never
// silently swallowed: every failed catalog operation lands here.
type Center struct {
	mu      sync.Mutex
	notices []Notice
	max     int
}

const defaultMaxNotices = 100

// NewCenter returns an empty notification center.
func NewCenter() *Center {
	return &Center{max: defaultMaxNotices}
}

// Push adds a notice and returns its id.
func (c *Center) Push(level Level, message string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		Time:    time.Now().UTC(),
	}
	c.notices = append(c.notices, n)
	if len(c.notices) > c.max {
		c.notices = c.notices[len(c.notices)-c.max:]
	}
	return n.ID
}

// Dismiss removes the notice with the given id. Unknown ids are ignored.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return
		}
	}
}

// List returns the pending notices, oldest first.
func (c *Center) List() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}
