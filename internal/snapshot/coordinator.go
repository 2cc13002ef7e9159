package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// DefaultDebounce is how long the coordinator waits after the last
// Schedule before writing.
const DefaultDebounce = 260 * time.Millisecond

// Saver persists an envelope for a profile.
type Saver interface {
	SaveSnapshot(ctx context.Context, profileID string, env Envelope) error
}

// Coordinator debounces snapshot writes. Each Schedule replaces the
// pending envelope and restarts the timer; only the latest state ever
// reaches the saver. Save failures are logged and dropped, never
// surfaced to gameplay.
type Coordinator struct {
	clock     quartz.Clock
	logger    *log.Logger
	saver     Saver
	profileID string
	debounce  time.Duration

	mu      sync.Mutex
	pending *Envelope
	timer   *quartz.Timer
}

// NewCoordinator returns a coordinator for one profile.
func NewCoordinator(clock quartz.Clock, logger *log.Logger, saver Saver, profileID string, debounce time.Duration) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Coordinator{
		clock:     clock,
		logger:    logger.WithPrefix("snapshot"),
		saver:     saver,
		profileID: profileID,
		debounce:  debounce,
	}
}

// Schedule queues env for a debounced write, replacing any pending
// envelope.
func (c *Coordinator) Schedule(env Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	env.SchemaVersion = SchemaVersion
	c.pending = &env
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.clock.AfterFunc(c.debounce, c.flushPending)
}

func (c *Coordinator) flushPending() {
	c.mu.Lock()
	env := c.pending
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()
	if env == nil {
		return
	}
	if err := c.saver.SaveSnapshot(context.Background(), c.profileID, *env); err != nil {
		c.logger.Warn("snapshot save failed", "profile", c.profileID, "error", err)
	}
}

// Flush writes any pending envelope immediately, cancelling the
// debounce timer. Used on shutdown and before restores.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	env := c.pending
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	if env == nil {
		return nil
	}
	return c.saver.SaveSnapshot(ctx, c.profileID, *env)
}

// PendingSave reports whether a write is queued.
func (c *Coordinator) PendingSave() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}
