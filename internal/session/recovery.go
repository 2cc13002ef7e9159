package session

import (
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/pokertrainer/internal/ledger"
	"github.com/lox/pokertrainer/internal/table"
)

// recoveryState is the bankroll rescue overlay: a forced-return timer
// and a once-per-second countdown that mirrors it. Both are armed and
// torn down together.
type recoveryState struct {
	overlay      bool
	countdown    int
	delay        time.Duration
	returnTimer  *quartz.Timer
	tickTimer    *quartz.Timer
	promptedHand string
}

// RecoveryActive reports whether the rescue overlay is up, and the
// seconds left before the forced lobby return.
func (s *Session) RecoveryActive() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovery.overlay, s.recovery.countdown
}

// shouldPromptRescueLocked decides whether a just-settled hand leaves
// the career hero broke at the table.
func (s *Session) shouldPromptRescueLocked(st ledger.ZoneState) bool {
	if s.mode != ledger.ModeCareer || !s.atTable {
		return false
	}
	if s.hand == nil || !s.hand.Over {
		return false
	}
	if s.recovery.overlay || s.recovery.promptedHand == s.hand.ID {
		return false
	}
	return st.Bankroll[table.HeroSeatID] <= 0
}

func (s *Session) startRecoveryLocked() {
	s.recovery.overlay = true
	s.recovery.promptedHand = s.hand.ID
	s.recovery.countdown = int((s.recovery.delay + time.Second - 1) / time.Second)
	if s.recovery.countdown < 1 {
		s.recovery.countdown = 1
	}
	s.recovery.returnTimer = s.clock.AfterFunc(s.recovery.delay, s.forceReturn)
	s.recovery.tickTimer = s.clock.AfterFunc(time.Second, s.countdownTick)
	s.logger.Info("hero busted", "countdown", s.recovery.countdown)
}

func (s *Session) countdownTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recovery.overlay {
		return
	}
	if s.recovery.countdown > 0 {
		s.recovery.countdown--
	}
	if s.recovery.countdown > 0 {
		s.recovery.tickTimer = s.clock.AfterFunc(time.Second, s.countdownTick)
	}
}

func (s *Session) forceReturn() {
	s.mu.Lock()
	if !s.recovery.overlay {
		s.mu.Unlock()
		return
	}
	s.teardownRecoveryLocked()
	s.atTable = false
	s.hand = nil
	s.displayedBoard = 0
	s.lastHint = ""
	s.visuals = table.VisualMap(s.seats)
	s.logger.Info("rescue window expired, returning to lobby")
	s.scheduleSnapshotLocked()
	s.mu.Unlock()
}

func (s *Session) teardownRecoveryLocked() {
	if s.recovery.returnTimer != nil {
		s.recovery.returnTimer.Stop()
		s.recovery.returnTimer = nil
	}
	if s.recovery.tickTimer != nil {
		s.recovery.tickTimer.Stop()
		s.recovery.tickTimer = nil
	}
	s.recovery.overlay = false
	s.recovery.countdown = 0
}

// Rescue accepts a bankroll rescue from the overlay. A subsidy tops
// the hero up for free once per calendar day; a loan always works but
// adds to the debt repaid out of future winnings. The next hand is
// dealt immediately against the same opponent.
func (s *Session) Rescue(kind ledger.RescueKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recovery.overlay {
		return fmt.Errorf("session: no rescue pending")
	}
	zone := s.zone()
	st := s.zoneTraining[zone.ID]
	today := s.clock.Now().Format("2006-01-02")
	next, err := ledger.ApplyRescue(zone, s.seats, st, kind, today)
	if err != nil {
		return err
	}
	s.zoneTraining[zone.ID] = next
	s.teardownRecoveryLocked()
	s.logger.Info("rescue accepted", "kind", kind, "bankroll", next.Bankroll[table.HeroSeatID], "debt", next.LoanDebt)
	s.redealAfterRecoveryLocked()
	s.scheduleSnapshotLocked()
	return nil
}

// ContinueInPractice dismisses the overlay by switching to practice
// mode, where hands play on fixed stacks and the bankroll is ignored.
// The next hand is dealt immediately.
func (s *Session) ContinueInPractice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recovery.overlay {
		return fmt.Errorf("session: no rescue pending")
	}
	s.mode = ledger.ModePractice
	s.teardownRecoveryLocked()
	s.logger.Info("continuing in practice mode")
	s.redealAfterRecoveryLocked()
	s.scheduleSnapshotLocked()
	return nil
}

// redealAfterRecoveryLocked rolls straight into the next hand once the
// overlay resolves, so the hero never sits on the bust frame. A failed
// deal leaves the hero seated; the next deal command retries.
func (s *Session) redealAfterRecoveryLocked() {
	if err := s.startHandLocked(); err != nil {
		s.logger.Warn("redeal after recovery failed", "error", err)
	}
}
