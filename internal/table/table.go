// Package table models the seven fixed seats around the training
// table and the per-seat presentation state the session keeps in sync
// with the event choreography.
package table

import (
	"math/rand"

	"github.com/lox/pokertrainer/internal/engine"
)

// HeroSeatID is the hero's fixed seat. The hero always plays from the
// button anchor; the logical button position rotates independently.
const HeroSeatID = "btn"

// Role of a seat. Empty seats keep their anchor but hold no player.
type Role string

const (
	RoleHero     Role = "hero"
	RoleOpponent Role = "opponent"
	RoleEmpty    Role = "empty"
)

// Anchor pins a seat id to its table position.
type Anchor struct {
	ID  string
	Pos engine.Position
}

// Layout is the clockwise seat layout. Seat ids double as player ids
// inside hands.
var Layout = []Anchor{
	{ID: "utg", Pos: engine.UTG},
	{ID: "lj", Pos: engine.LJ},
	{ID: "hj", Pos: engine.HJ},
	{ID: "co", Pos: engine.CO},
	{ID: "btn", Pos: engine.BTN},
	{ID: "sb", Pos: engine.SB},
	{ID: "bb", Pos: engine.BB},
}

// Seat is one seat's occupancy.
type Seat struct {
	ID      string          `json:"id"`
	Pos     engine.Position `json:"pos"`
	Role    Role            `json:"role"`
	Profile *engine.Profile `json:"profile,omitempty"`
}

// Name returns the display name for the seat's occupant.
func (s Seat) Name() string {
	switch s.Role {
	case RoleHero:
		return "Hero"
	case RoleOpponent:
		if s.Profile != nil {
			return s.Profile.Name
		}
		return "Opponent"
	default:
		return "Empty"
	}
}

// Occupied reports whether a player sits here.
func (s Seat) Occupied() bool {
	return s.Role != RoleEmpty
}

// ByID returns the seat with the given id, or nil.
func ByID(seats []Seat, id string) *Seat {
	for i := range seats {
		if seats[i].ID == id {
			return &seats[i]
		}
	}
	return nil
}

// ByPos returns the seat at the given position, or nil.
func ByPos(seats []Seat, pos engine.Position) *Seat {
	for i := range seats {
		if seats[i].Pos == pos {
			return &seats[i]
		}
	}
	return nil
}

// PickOpponent draws a random profile from the zone pool.
func PickOpponent(zone engine.Zone, rng *rand.Rand) *engine.Profile {
	if len(zone.Pool) == 0 {
		return nil
	}
	p := zone.Pool[rng.Intn(len(zone.Pool))]
	return &p
}

// DefaultSeats seats the hero on the button anchor and two zone
// opponents at UTG and BB, leaving the rest empty.
func DefaultSeats(zone engine.Zone, rng *rand.Rand) []Seat {
	seats := make([]Seat, len(Layout))
	for i, anchor := range Layout {
		role := RoleEmpty
		if anchor.ID == HeroSeatID {
			role = RoleHero
		}
		seats[i] = Seat{ID: anchor.ID, Pos: anchor.Pos, Role: role}
	}
	for _, id := range []string{"utg", "bb"} {
		if seat := ByID(seats, id); seat != nil && seat.Role == RoleEmpty {
			seat.Role = RoleOpponent
			seat.Profile = PickOpponent(zone, rng)
		}
	}
	return seats
}

// NextButton advances the button to the next occupied seat clockwise.
// With no occupied seats the current id is returned unchanged.
func NextButton(seats []Seat, current string) string {
	var occupied []string
	for _, anchor := range Layout {
		if seat := ByID(seats, anchor.ID); seat != nil && seat.Occupied() {
			occupied = append(occupied, anchor.ID)
		}
	}
	if len(occupied) == 0 {
		return current
	}
	for i, id := range occupied {
		if id == current {
			return occupied[(i+1)%len(occupied)]
		}
	}
	currentIdx := -1
	for i, anchor := range Layout {
		if anchor.ID == current {
			currentIdx = i
			break
		}
	}
	if currentIdx == -1 {
		return occupied[0]
	}
	occupiedSet := map[string]bool{}
	for _, id := range occupied {
		occupiedSet[id] = true
	}
	for step := 1; step <= len(Layout); step++ {
		candidate := Layout[(currentIdx+step)%len(Layout)].ID
		if occupiedSet[candidate] {
			return candidate
		}
	}
	return occupied[0]
}

// HandSeats converts occupied seats into engine seat assignments.
func HandSeats(seats []Seat) []engine.Seat {
	var out []engine.Seat
	for _, seat := range seats {
		if !seat.Occupied() {
			continue
		}
		role := engine.RoleOpponent
		if seat.Role == RoleHero {
			role = engine.RoleHero
		}
		out = append(out, engine.Seat{
			ID:       seat.ID,
			Name:     seat.Name(),
			Position: seat.Pos,
			Role:     role,
			Profile:  seat.Profile,
		})
	}
	return out
}

// Visual is the presentation state of one seat, advanced event by
// event rather than snapped to the latest hand state.
type Visual struct {
	CardsDealt int    `json:"cardsDealt"`
	InHand     bool   `json:"inHand"`
	Folded     bool   `json:"folded"`
	LastAction string `json:"lastAction"`
}

// VisualMap builds the initial pre-deal visuals for a seat set.
func VisualMap(seats []Seat) map[string]Visual {
	out := make(map[string]Visual, len(seats))
	for _, seat := range seats {
		v := Visual{InHand: seat.Occupied(), Folded: !seat.Occupied(), LastAction: "Waiting"}
		if !seat.Occupied() {
			v.LastAction = "Open seat"
		}
		out[seat.ID] = v
	}
	return out
}
