// Package progress tracks career advancement: XP, the highest zone
// reached, lifetime hand counts, and the hero's observed leak tallies.
package progress

import (
	"math"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/ledger"
)

// XP awards.
const (
	BestDecisionXP   = 14
	OtherDecisionXP  = 6
	HandBaseXP       = 25
	HandWinBonusXP   = 16
	HandTieBonusXP   = 8
	LeakGuessRightXP = 24
	LeakGuessWrongXP = 6
)

// LeakKind labels a recurring hero mistake.
type LeakKind string

const (
	LeakOverFold     LeakKind = "overFold"
	LeakOverCall     LeakKind = "overCall"
	LeakOverBluff    LeakKind = "overBluff"
	LeakMissedValue  LeakKind = "missedValue"
	LeakPassiveCheck LeakKind = "passiveCheck"
)

// LeakKinds is the fixed order for display and normalization.
var LeakKinds = []LeakKind{LeakOverFold, LeakOverCall, LeakOverBluff, LeakMissedValue, LeakPassiveCheck}

// State is the career progress record.
type State struct {
	XP          int              `json:"xp"`
	ZoneIndex   int              `json:"zoneIndex"`
	HandsPlayed int              `json:"handsPlayed"`
	HandsWon    int              `json:"handsWon"`
	Leaks       map[LeakKind]int `json:"leaks"`
}

// New returns zeroed progress with all leak counters present.
func New() State {
	leaks := make(map[LeakKind]int, len(LeakKinds))
	for _, k := range LeakKinds {
		leaks[k] = 0
	}
	return State{Leaks: leaks}
}

// Clone deep-copies the state.
func (s State) Clone() State {
	next := s
	next.Leaks = make(map[LeakKind]int, len(LeakKinds))
	for _, k := range LeakKinds {
		next.Leaks[k] = s.Leaks[k]
	}
	return next
}

// Normalize repairs a state read from storage: negative counters are
// clamped and missing leak keys restored.
func Normalize(s State) State {
	next := New()
	next.XP = max(0, s.XP)
	next.ZoneIndex = engine.ClampZoneIndex(s.ZoneIndex)
	next.HandsPlayed = max(0, s.HandsPlayed)
	next.HandsWon = max(0, s.HandsWon)
	for _, k := range LeakKinds {
		next.Leaks[k] = max(0, s.Leaks[k])
	}
	return next
}

// UnlockedZoneByXP returns the highest zone index whose XP threshold
// the given total meets.
func UnlockedZoneByXP(xp int) int {
	idx := 0
	for i, z := range engine.Zones() {
		if xp >= z.UnlockXP {
			idx = i
		}
	}
	return idx
}

// AddXP grants XP and raises ZoneIndex if a threshold was crossed.
// ZoneIndex never decreases.
func AddXP(s State, delta int) State {
	next := s.Clone()
	next.XP += delta
	next.ZoneIndex = max(next.ZoneIndex, UnlockedZoneByXP(next.XP))
	return next
}

// RecordLeak bumps one leak counter.
func RecordLeak(s State, leak LeakKind) State {
	next := s.Clone()
	next.Leaks[leak]++
	return next
}

// ApplyHandResult grants the per-hand XP and advances lifetime counts.
func ApplyHandResult(s State, winner string) State {
	next := s.Clone()
	next.HandsPlayed++
	bonus := 0
	switch winner {
	case engine.WinnerHero:
		next.HandsWon++
		bonus = HandWinBonusXP
	case engine.WinnerTie:
		bonus = HandTieBonusXP
	}
	return AddXP(next, HandBaseXP+bonus)
}

// ApplyXPMultiplier rescales the XP gained between prev and next.
// Multipliers at or above ~1 are a no-op, as are XP losses; the
// unlocked zone is re-derived from the scaled total.
func ApplyXPMultiplier(prev, next State, multiplier float64) State {
	if multiplier >= 0.999 {
		return next
	}
	delta := next.XP - prev.XP
	if delta <= 0 {
		return next
	}
	scaled := prev.XP + int(math.Round(float64(delta)*math.Max(0, multiplier)))
	out := next.Clone()
	out.XP = scaled
	out.ZoneIndex = max(prev.ZoneIndex, UnlockedZoneByXP(scaled))
	return out
}

// UnlockedZoneByMissions returns the zone index unlocked purely by
// clearing every mission of each preceding zone in order.
func UnlockedZoneByMissions(zoneTraining map[string]ledger.ZoneState) int {
	zones := engine.Zones()
	idx := 0
	for i := 0; i < len(zones)-1; i++ {
		st, ok := zoneTraining[zones[i].ID]
		if !ok || !ledger.MissionsCompleted(st) {
			break
		}
		idx = i + 1
	}
	return idx
}

// UnlockedZone resolves the effective unlocked zone: the stored index,
// the XP-derived index, and the mission-derived index never regress
// each other.
func UnlockedZone(s State, zoneTraining map[string]ledger.ZoneState) int {
	return max(s.ZoneIndex, UnlockedZoneByXP(s.XP), UnlockedZoneByMissions(zoneTraining))
}

// WinRate returns the lifetime win percentage, rounded.
func WinRate(s State) int {
	if s.HandsPlayed == 0 {
		return 0
	}
	return int(math.Round(float64(s.HandsWon) / float64(s.HandsPlayed) * 100))
}

// TopLeak returns the most frequent leak, ties broken by LeakKinds
// order.
func TopLeak(s State) LeakKind {
	top := LeakKinds[0]
	for _, k := range LeakKinds {
		if s.Leaks[k] > s.Leaks[top] {
			top = k
		}
	}
	return top
}
