// Package schedule drives the table event queue. Exactly one timer is
// armed at a time, keyed to the head event's delay; manual stepping
// and auto-play share the same pop-and-apply path.
package schedule

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertrainer/internal/event"
)

// Applier consumes events as the scheduler releases them.
type Applier interface {
	ApplyEvent(ev event.TableEvent)
}

// Scheduler replays queued table events with per-kind pacing. With
// auto-play enabled the head event fires after its delay; with it
// disabled events wait for StepOnce.
type Scheduler struct {
	clock   quartz.Clock
	logger  *log.Logger
	applier Applier
	delayFn func(event.TableEvent) time.Duration

	mu       sync.Mutex
	queue    []event.TableEvent
	timer    *quartz.Timer
	autoPlay bool
	gen      uint64
}

// New returns a scheduler with auto-play enabled.
func New(clock quartz.Clock, logger *log.Logger, applier Applier) *Scheduler {
	return &Scheduler{
		clock:    clock,
		logger:   logger.WithPrefix("schedule"),
		applier:  applier,
		delayFn:  event.Delay,
		autoPlay: true,
	}
}

// Enqueue appends events and arms the timer if needed.
func (s *Scheduler) Enqueue(events ...event.TableEvent) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, events...)
	s.armLocked()
	s.mu.Unlock()
}

// SetAutoPlay toggles automatic replay. Enabling it with a non-empty
// queue arms the head timer immediately; disabling cancels it.
func (s *Scheduler) SetAutoPlay(enabled bool) {
	s.mu.Lock()
	s.autoPlay = enabled
	s.armLocked()
	s.mu.Unlock()
}

// AutoPlay reports whether automatic replay is on.
func (s *Scheduler) AutoPlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoPlay
}

// Pending returns the number of queued events.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// StepOnce releases the head event immediately. Manual stepping only
// applies while auto-play is off; with it on, StepOnce reports false
// and leaves the queue to the timer. It reports whether an event was
// applied.
func (s *Scheduler) StepOnce() bool {
	s.mu.Lock()
	auto := s.autoPlay
	s.mu.Unlock()
	if auto {
		return false
	}
	return s.fire()
}

// Drain applies every queued event back to back with no delays. Used
// when the player skips ahead to their decision.
func (s *Scheduler) Drain() {
	for s.fire() {
	}
}

// Clear drops all queued events and cancels the pending timer. The
// generation bump invalidates any event a racing timer has already
// popped but not yet applied.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	s.queue = nil
	s.gen++
	s.stopTimerLocked()
	s.mu.Unlock()
}

// armLocked reconciles the single timer with the queue head. Caller
// holds s.mu.
func (s *Scheduler) armLocked() {
	s.stopTimerLocked()
	if !s.autoPlay || len(s.queue) == 0 {
		return
	}
	delay := s.delayFn(s.queue[0])
	s.timer = s.clock.AfterFunc(delay, func() {
		s.fire()
	})
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire pops the head event and hands it to the applier outside the
// lock, then re-arms for the next head. A Clear landing between the
// pop and the apply drops the event instead of replaying it stale.
func (s *Scheduler) fire() bool {
	s.mu.Lock()
	s.stopTimerLocked()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return false
	}
	head := s.queue[0]
	s.queue = s.queue[1:]
	gen := s.gen
	s.mu.Unlock()

	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return false
	}

	s.logger.Debug("applying table event", "id", head.ID, "kind", head.Kind, "seat", head.SeatID)
	s.applier.ApplyEvent(head)

	s.mu.Lock()
	if gen == s.gen {
		s.armLocked()
	}
	s.mu.Unlock()
	return true
}
