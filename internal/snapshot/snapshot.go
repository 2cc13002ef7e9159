// Package snapshot persists and restores the session's full state.
// Saves are debounced so bursts of state churn collapse into a single
// write; restores repair whatever they find and merge recorded hand
// counts back in as ground truth.
package snapshot

import (
	"time"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/ledger"
	"github.com/lox/pokertrainer/internal/progress"
	"github.com/lox/pokertrainer/internal/table"
)

// SchemaVersion guards the envelope layout. Bump on breaking changes;
// restore rejects mismatched versions and starts fresh.
const SchemaVersion = 1

// PersistedSeat is the durable form of a seat: occupancy plus the
// opponent's profile id, resolved back against the catalog on restore.
type PersistedSeat struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	ProfileID string `json:"profileId,omitempty"`
}

// Envelope is the complete durable session state.
type Envelope struct {
	SchemaVersion int                         `json:"schemaVersion"`
	SavedAt       time.Time                   `json:"savedAt"`
	ZoneIndex     int                         `json:"zoneIndex"`
	LobbyZone     int                         `json:"lobbyZone"`
	Progress      progress.State              `json:"progress"`
	ZoneTraining  map[string]ledger.ZoneState `json:"zoneTrainingById"`
	Seats         []PersistedSeat             `json:"seats"`
	ButtonSeatID  string                      `json:"buttonSeatId"`
	SelectedSeat  string                      `json:"selectedSeatId"`
	BattleSeat    string                      `json:"battleSeatId,omitempty"`
	AutoPlay      bool                        `json:"autoPlayEvents"`
	Mode          ledger.Mode                 `json:"trainingMode"`
}

// SerializeSeats converts live seats to their persisted form.
func SerializeSeats(seats []table.Seat) []PersistedSeat {
	out := make([]PersistedSeat, len(seats))
	for i, seat := range seats {
		ps := PersistedSeat{ID: seat.ID, Role: string(seat.Role)}
		if seat.Role == table.RoleOpponent && seat.Profile != nil {
			ps.ProfileID = seat.Profile.ID
		}
		out[i] = ps
	}
	return out
}

// RestoreSeats rebuilds seats from a snapshot. The hero seat is always
// forced back to its anchor, unknown profile ids are re-drawn from the
// zone pool, and a table with no opponents gets one seeded so play can
// resume. pick supplies replacement profiles.
func RestoreSeats(persisted []PersistedSeat, zone engine.Zone, pick func(engine.Zone) *engine.Profile) []table.Seat {
	byID := make(map[string]PersistedSeat, len(persisted))
	for _, ps := range persisted {
		byID[ps.ID] = ps
	}

	seats := make([]table.Seat, len(table.Layout))
	for i, anchor := range table.Layout {
		seat := table.Seat{ID: anchor.ID, Pos: anchor.Pos, Role: table.RoleEmpty}
		if anchor.ID == table.HeroSeatID {
			seat.Role = table.RoleHero
		} else if ps, ok := byID[anchor.ID]; ok && ps.Role == string(table.RoleOpponent) {
			seat.Role = table.RoleOpponent
			if profile := engine.FindProfile(ps.ProfileID); profile != nil {
				seat.Profile = profile
			} else {
				seat.Profile = pick(zone)
			}
		}
		seats[i] = seat
	}

	if len(persisted) == 0 {
		return seats
	}
	for _, seat := range seats {
		if seat.Role == table.RoleOpponent {
			return seats
		}
	}
	// no opponents survived the restore; seat one at the first open anchor
	for i := range seats {
		if seats[i].ID != table.HeroSeatID && seats[i].Role == table.RoleEmpty {
			seats[i].Role = table.RoleOpponent
			seats[i].Profile = pick(zone)
			break
		}
	}
	return seats
}

// RestoreZoneTraining rebuilds the per-zone ledgers, syncing each
// against default seats so every catalog zone has a valid entry.
func RestoreZoneTraining(stored map[string]ledger.ZoneState, defaultSeats func(engine.Zone) []table.Seat) map[string]ledger.ZoneState {
	out := make(map[string]ledger.ZoneState, len(engine.Zones()))
	for _, zone := range engine.Zones() {
		seats := defaultSeats(zone)
		if st, ok := stored[zone.ID]; ok {
			out[zone.ID] = ledger.Sync(zone, seats, &st)
		} else {
			out[zone.ID] = ledger.NewZoneState(zone, seats)
		}
	}
	return out
}

// ZoneStats are aggregate hand counts recomputed from recorded hands.
type ZoneStats struct {
	ZoneID      string
	HandsPlayed int
	HandsWon    int
	HandsTied   int
}

// MergeRecordedStats overwrites snapshot hand counters with counts
// derived from the hand record store. Recorded hands are ground truth:
// a snapshot that raced a crash can undercount, the store cannot. Won
// and tied are clamped to stay consistent with played.
func MergeRecordedStats(zoneTraining map[string]ledger.ZoneState, stats []ZoneStats) map[string]ledger.ZoneState {
	byZone := make(map[string]ZoneStats, len(stats))
	for _, s := range stats {
		byZone[s.ZoneID] = s
	}
	out := make(map[string]ledger.ZoneState, len(zoneTraining))
	for id, st := range zoneTraining {
		if s, ok := byZone[id]; ok {
			played := ledger.NormalizeCounter(s.HandsPlayed)
			won := min(played, ledger.NormalizeCounter(s.HandsWon))
			tied := min(max(0, played-won), ledger.NormalizeCounter(s.HandsTied))
			st.HandsPlayed = played
			st.HandsWon = won
			st.HandsTied = tied
		}
		out[id] = st
	}
	return out
}
