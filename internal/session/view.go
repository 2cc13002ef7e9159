package session

import (
	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/ledger"
	"github.com/lox/pokertrainer/internal/progress"
	"github.com/lox/pokertrainer/internal/table"
)

// View is a consistent read of everything a renderer needs. All
// nested state is copied; mutating a View never touches the session.
type View struct {
	Zone              engine.Zone
	Mode              ledger.Mode
	AtTable           bool
	AutoPlay          bool
	Hand              *engine.Hand
	DisplayedBoard    int
	Hint              string
	Seats             []table.Seat
	Visuals           map[string]table.Visual
	ButtonSeatID      string
	SelectedSeat      string
	BattleSeat        string
	PendingSeats      []string
	PendingEvents     int
	Progress          progress.State
	ZoneState         ledger.ZoneState
	UnlockedZone      int
	RecoveryActive    bool
	RecoveryCountdown int
}

// View captures the current session state.
func (s *Session) View() View {
	pendingEvents := s.scheduler.Pending()
	autoPlay := s.scheduler.AutoPlay()

	s.mu.Lock()
	defer s.mu.Unlock()

	zone := s.zone()
	v := View{
		Zone:              zone,
		Mode:              s.mode,
		AtTable:           s.atTable,
		AutoPlay:          autoPlay,
		DisplayedBoard:    s.displayedBoard,
		Hint:              s.lastHint,
		Seats:             append([]table.Seat(nil), s.seats...),
		Visuals:           make(map[string]table.Visual, len(s.visuals)),
		ButtonSeatID:      s.buttonSeatID,
		SelectedSeat:      s.selectedSeat,
		BattleSeat:        s.battleSeat,
		PendingEvents:     pendingEvents,
		Progress:          s.prog.Clone(),
		ZoneState:         s.zoneStateLocked(zone),
		UnlockedZone:      progress.UnlockedZone(s.prog, s.zoneTraining),
		RecoveryActive:    s.recovery.overlay,
		RecoveryCountdown: s.recovery.countdown,
	}
	if s.hand != nil {
		v.Hand = s.hand.Clone()
	}
	for id, vis := range s.visuals {
		v.Visuals[id] = vis
	}
	for _, anchor := range table.Layout {
		if s.pending[anchor.ID] {
			v.PendingSeats = append(v.PendingSeats, anchor.ID)
		}
	}
	return v
}
