// Package ledger tracks per-zone training state: seat bankrolls, the
// hero's profit baseline, coach missions, hero frequency stats, rescue
// usage, and loan debt. All transitions are pure functions over
// ZoneState values so callers can diff before/after freely.
package ledger

import (
	"fmt"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/table"
)

// Mode selects how hand results feed the ledger. Career hands move
// bankrolls and missions; practice hands only accumulate stats.
type Mode string

const (
	ModeCareer   Mode = "career"
	ModePractice Mode = "practice"
)

// NormalizeMode maps unknown values to career.
func NormalizeMode(m Mode) Mode {
	if m == ModePractice {
		return ModePractice
	}
	return ModeCareer
}

// Economy constants, denominated in big blinds where suffixed.
const (
	SubsidyBB       = 40
	LoanBB          = 100
	LoanRepayRate   = 0.25
	PracticeXPScale = 0.35
	RescueXPPenalty = 0.3
	RescueXPFloor   = 0.4
)

// MissionKind identifies what a mission counts.
type MissionKind string

const (
	MissionStealPreflop MissionKind = "steal_preflop"
	MissionBluffCatch   MissionKind = "bluff_catch"
	MissionTripleBarrel MissionKind = "triple_barrel"
	MissionWinHands     MissionKind = "win_hands"
	MissionProfitBB     MissionKind = "profit_bb"
)

// Mission is one coach objective. Completed latches once reached;
// Rewarded guards the XP payout so it is granted exactly once even if
// progress later recomputes below target.
type Mission struct {
	ID        string      `json:"id"`
	Kind      MissionKind `json:"kind"`
	Title     string      `json:"title"`
	Detail    string      `json:"detail"`
	Target    int         `json:"target"`
	RewardXP  int         `json:"rewardXp"`
	Progress  int         `json:"progress"`
	Completed bool        `json:"completed"`
	Rewarded  bool        `json:"rewarded"`
}

// ZoneState is the training ledger for one zone.
type ZoneState struct {
	Bankroll         map[string]int `json:"bankroll"`
	HeroBaseline     int            `json:"heroBaseline"`
	Missions         []Mission      `json:"missions"`
	HeroStats        HeroStats      `json:"heroStats"`
	HandsPlayed      int            `json:"handsPlayed"`
	HandsWon         int            `json:"handsWon"`
	HandsTied        int            `json:"handsTied"`
	RescueUses       int            `json:"rescueUses"`
	SubsidyClaimDate string         `json:"subsidyClaimDate,omitempty"`
	LoanDebt         int            `json:"loanDebt"`
}

// MissionTemplates returns the mission set for a zone. Unknown zone
// ids fall back to the legend tier set.
func MissionTemplates(zoneID string) []Mission {
	switch zoneID {
	case "rookie":
		return []Mission{
			{ID: "rk-steal", Kind: MissionStealPreflop, Title: "Blind steal basics", Detail: "Take the pot with a preflop raise 3 times", Target: 3, RewardXP: 38},
			{ID: "rk-win", Kind: MissionWinHands, Title: "Steady pots", Detail: "Win 4 hands to build a base win rate", Target: 4, RewardXP: 34},
			{ID: "rk-profit", Kind: MissionProfitBB, Title: "Net +80bb", Detail: "Grow this zone's bankroll 80bb above baseline", Target: 80, RewardXP: 90},
		}
	case "starter":
		return []Mission{
			{ID: "st-steal", Kind: MissionStealPreflop, Title: "Positional steals", Detail: "Steal the blinds from late position 4 times", Target: 4, RewardXP: 56},
			{ID: "st-catch", Kind: MissionBluffCatch, Title: "River bluff catcher", Detail: "Call down a river bluff and win 2 times", Target: 2, RewardXP: 72},
			{ID: "st-profit", Kind: MissionProfitBB, Title: "Net +120bb", Detail: "Grow this zone's bankroll by 120bb", Target: 120, RewardXP: 120},
		}
	case "advanced":
		return []Mission{
			{ID: "ad-catch", Kind: MissionBluffCatch, Title: "Pressure bluff catch", Detail: "Make the right river call and win 3 times", Target: 3, RewardXP: 92},
			{ID: "ad-3barrel", Kind: MissionTripleBarrel, Title: "Triple barrel", Detail: "Fire flop, turn and river and take the pot 2 times", Target: 2, RewardXP: 108},
			{ID: "ad-profit", Kind: MissionProfitBB, Title: "Net +180bb", Detail: "Grow this zone's bankroll by 180bb", Target: 180, RewardXP: 155},
		}
	case "pro":
		return []Mission{
			{ID: "pr-catch", Kind: MissionBluffCatch, Title: "Precision calls", Detail: "Catch strong opponents bluffing 4 times", Target: 4, RewardXP: 118},
			{ID: "pr-3barrel", Kind: MissionTripleBarrel, Title: "Multi-street lines", Detail: "Complete a triple barrel and win 3 times", Target: 3, RewardXP: 142},
			{ID: "pr-profit", Kind: MissionProfitBB, Title: "Net +240bb", Detail: "Grow this zone's bankroll by 240bb", Target: 240, RewardXP: 188},
		}
	case "godrealm":
		return []Mission{
			{ID: "gr-catch", Kind: MissionBluffCatch, Title: "God-realm reads", Detail: "Win a high pressure river bluff catch 6 times", Target: 6, RewardXP: 176},
			{ID: "gr-3barrel", Kind: MissionTripleBarrel, Title: "Endgame pressure", Detail: "Complete a triple barrel 5 times", Target: 5, RewardXP: 228},
			{ID: "gr-profit", Kind: MissionProfitBB, Title: "Net +380bb", Detail: "Grow this zone's bankroll by 380bb", Target: 380, RewardXP: 320},
		}
	default: // legend tier is also the fallback
		return []Mission{
			{ID: "lg-catch", Kind: MissionBluffCatch, Title: "Master class calls", Detail: "Win a river bluff catch 5 times", Target: 5, RewardXP: 146},
			{ID: "lg-3barrel", Kind: MissionTripleBarrel, Title: "Relentless barrels", Detail: "Complete a triple barrel 4 times", Target: 4, RewardXP: 182},
			{ID: "lg-profit", Kind: MissionProfitBB, Title: "Net +300bb", Detail: "Grow this zone's bankroll by 300bb", Target: 300, RewardXP: 260},
		}
	}
}

// NormalizeCounter clamps negative values to zero.
func NormalizeCounter(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// NormalizeBankroll fills a bankroll map for the occupied seats,
// carrying over known values and defaulting the rest to the zone's
// starting stack.
func NormalizeBankroll(zone engine.Zone, seats []table.Seat, bankroll map[string]int) map[string]int {
	next := make(map[string]int, len(seats))
	for _, seat := range seats {
		if !seat.Occupied() {
			continue
		}
		if v, ok := bankroll[seat.ID]; ok && v >= 0 {
			next[seat.ID] = v
			continue
		}
		next[seat.ID] = zone.StartingStack
	}
	return next
}

// NewZoneState builds a fresh ledger for a zone and seat set.
func NewZoneState(zone engine.Zone, seats []table.Seat) ZoneState {
	bankroll := NormalizeBankroll(zone, seats, nil)
	baseline := zone.StartingStack
	if v, ok := bankroll[table.HeroSeatID]; ok {
		baseline = v
	}
	return ZoneState{
		Bankroll:     bankroll,
		HeroBaseline: baseline,
		Missions:     MissionTemplates(zone.ID),
		HeroStats:    HeroStats{},
	}
}

// Sync reconciles a stored ledger against the current seat set,
// normalizing counters and date keys that may have been corrupted or
// written by an older build. A nil current yields a fresh state.
func Sync(zone engine.Zone, seats []table.Seat, current *ZoneState) ZoneState {
	if current == nil {
		return NewZoneState(zone, seats)
	}
	next := *current
	next.Bankroll = NormalizeBankroll(zone, seats, current.Bankroll)
	next.Missions = append([]Mission(nil), current.Missions...)
	if len(next.Missions) == 0 {
		next.Missions = MissionTemplates(zone.ID)
	}
	next.HandsPlayed = NormalizeCounter(current.HandsPlayed)
	next.HandsWon = NormalizeCounter(current.HandsWon)
	next.HandsTied = NormalizeCounter(current.HandsTied)
	next.RescueUses = NormalizeCounter(current.RescueUses)
	next.SubsidyClaimDate = NormalizeDateKey(current.SubsidyClaimDate)
	next.LoanDebt = NormalizeCounter(current.LoanDebt)
	return next
}

// Reset discards the ledger and starts the zone over.
func Reset(zone engine.Zone, seats []table.Seat) ZoneState {
	return NewZoneState(zone, seats)
}

// NormalizeDateKey keeps only well-formed YYYY-MM-DD keys.
func NormalizeDateKey(raw string) string {
	if len(raw) != 10 || raw[4] != '-' || raw[7] != '-' {
		return ""
	}
	for i, c := range raw {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return ""
		}
	}
	return raw
}

// MissionsCompleted reports whether every mission in the ledger is
// done. An empty mission list never counts as complete.
func MissionsCompleted(st ZoneState) bool {
	if len(st.Missions) == 0 {
		return false
	}
	for _, m := range st.Missions {
		if !m.Completed {
			return false
		}
	}
	return true
}

// WinRate returns the rounded win percentage for the ledger's counts.
func WinRate(st ZoneState) int {
	played := NormalizeCounter(st.HandsPlayed)
	if played == 0 {
		return 0
	}
	won := min(played, NormalizeCounter(st.HandsWon))
	return int(float64(won)/float64(played)*100 + 0.5)
}

// ChipsToBB converts chips to whole big blinds, flooring.
func ChipsToBB(chips, bigBlind int) int {
	if chips < 0 {
		chips = 0
	}
	if bigBlind < 1 {
		bigBlind = 1
	}
	return chips / bigBlind
}

// ExtractBankroll reads post-hand stacks for occupied seats out of a
// completed hand, falling back to the prior bankroll for seats that
// did not play.
func ExtractBankroll(zone engine.Zone, seats []table.Seat, h *engine.Hand, prior map[string]int) map[string]int {
	next := NormalizeBankroll(zone, seats, prior)
	for _, seat := range seats {
		if !seat.Occupied() {
			continue
		}
		if p := h.Player(seat.ID); p != nil {
			next[seat.ID] = max(0, p.Stack)
		}
	}
	return next
}

// HandStacks builds the stack map handed to the engine for a new
// hand. Career uses ledger bankrolls as-is; practice floors every
// stack at the zone's starting stack so no one can be short-bought.
func HandStacks(mode Mode, zone engine.Zone, seats []table.Seat, bankroll map[string]int) map[string]int {
	if NormalizeMode(mode) == ModeCareer {
		return NormalizeBankroll(zone, seats, bankroll)
	}
	next := make(map[string]int, len(seats))
	for _, seat := range seats {
		if !seat.Occupied() {
			continue
		}
		v, ok := bankroll[seat.ID]
		if !ok {
			v = zone.StartingStack
		}
		next[seat.ID] = max(zone.StartingStack, v)
	}
	return next
}

// RescueKind selects a bankruptcy recovery path.
type RescueKind string

const (
	RescueSubsidy RescueKind = "subsidy"
	RescueLoan    RescueKind = "loan"
)

// ErrSubsidyClaimed is returned when today's subsidy was already used.
var ErrSubsidyClaimed = fmt.Errorf("ledger: daily subsidy already claimed")

// ApplyRescue credits the hero with rescue chips. A subsidy is free
// but limited to once per local day; a loan adds the same chips to
// LoanDebt. Both paths count a rescue use for the XP penalty.
func ApplyRescue(zone engine.Zone, seats []table.Seat, st ZoneState, kind RescueKind, today string) (ZoneState, error) {
	next := Sync(zone, seats, &st)
	if kind == RescueSubsidy && next.SubsidyClaimDate == today {
		return st, ErrSubsidyClaimed
	}
	rescueBB := LoanBB
	if kind == RescueSubsidy {
		rescueBB = SubsidyBB
	}
	chips := rescueBB * zone.BigBlind

	bankroll := make(map[string]int, len(next.Bankroll))
	for k, v := range next.Bankroll {
		bankroll[k] = v
	}
	bankroll[table.HeroSeatID] = max(0, bankroll[table.HeroSeatID]+chips)
	next.Bankroll = bankroll
	next.RescueUses++
	if kind == RescueSubsidy {
		next.SubsidyClaimDate = today
	} else {
		next.LoanDebt += chips
	}
	return next, nil
}

// CareerXPMultiplier decays with each rescue use, floored at
// RescueXPFloor.
func CareerXPMultiplier(rescueUses int) float64 {
	m := 1 - float64(NormalizeCounter(rescueUses))*RescueXPPenalty
	if m < RescueXPFloor {
		return RescueXPFloor
	}
	return m
}

// XPMultiplier resolves the active XP scale for a mode and ledger.
func XPMultiplier(mode Mode, st ZoneState) float64 {
	if NormalizeMode(mode) == ModePractice {
		return PracticeXPScale
	}
	return CareerXPMultiplier(st.RescueUses)
}
