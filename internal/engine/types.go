// Package engine defines the hand-state model shared between the game
// engine and the session controller, plus the Engine interface the
// controller drives hands through. The controller treats Hand values as
// read-only history: it never mutates chips or cards itself.
package engine

// Street identifies a betting round.
type Street string

const (
	Preflop  Street = "preflop"
	Flop     Street = "flop"
	Turn     Street = "turn"
	River    Street = "river"
	Showdown Street = "showdown"
)

// BoardCards returns how many community cards are face-up on the given
// street. Preflop and showdown report 0 and 5 respectively.
func (s Street) BoardCards() int {
	switch s {
	case Flop:
		return 3
	case Turn:
		return 4
	case River, Showdown:
		return 5
	default:
		return 0
	}
}

// RevealCount returns the number of board cards revealed once the given
// street begins. Unlike BoardCards it reports 0 for showdown, matching
// the reveal choreography which never deals extra cards at showdown.
func (s Street) RevealCount() int {
	switch s {
	case Flop:
		return 3
	case Turn:
		return 4
	case River:
		return 5
	default:
		return 0
	}
}

// Action is a betting decision.
type Action string

const (
	Fold  Action = "fold"
	Check Action = "check"
	Call  Action = "call"
	Raise Action = "raise"
)

// Position is a named table position.
type Position string

const (
	UTG Position = "UTG"
	LJ  Position = "LJ"
	HJ  Position = "HJ"
	CO  Position = "CO"
	BTN Position = "BTN"
	SB  Position = "SB"
	BB  Position = "BB"
)

// TableOrder is the clockwise seating order used for dealing and action
// sequencing.
var TableOrder = []Position{UTG, LJ, HJ, CO, BTN, SB, BB}

// PositionIndex returns the index of pos in TableOrder, or -1.
func PositionIndex(pos Position) int {
	for i, p := range TableOrder {
		if p == pos {
			return i
		}
	}
	return -1
}

// NextPosition returns the next occupied position clockwise from pos.
// Players with a zero stack at hand start are skipped.
func NextPosition(pos Position, players []PlayerState) Position {
	idx := PositionIndex(pos)
	if idx == -1 {
		return pos
	}
	for step := 1; step <= len(TableOrder); step++ {
		candidate := TableOrder[(idx+step)%len(TableOrder)]
		for i := range players {
			if players[i].Position == candidate && players[i].InHand {
				return candidate
			}
		}
	}
	return pos
}

// Role distinguishes the human trainee from scripted opponents.
type Role string

const (
	RoleHero     Role = "hero"
	RoleOpponent Role = "opponent"
)

// Winner labels for a completed hand.
const (
	WinnerHero     = "hero"
	WinnerOpponent = "opponent"
	WinnerTie      = "tie"
)

// LeakProfile flags the deliberate weaknesses baked into an opponent.
type LeakProfile struct {
	OverFoldsToRaise bool `json:"overFoldsToRaise"`
	CallsTooWide     bool `json:"callsTooWide"`
	OverBluffsRiver  bool `json:"overBluffsRiver"`
	CBetsTooMuch     bool `json:"cBetsTooMuch"`
	MissesThinValue  bool `json:"missesThinValue"`
}

// Tags lists the set leak flags as stable identifiers.
func (l LeakProfile) Tags() []string {
	var tags []string
	if l.OverFoldsToRaise {
		tags = append(tags, "overFoldsToRaise")
	}
	if l.CallsTooWide {
		tags = append(tags, "callsTooWide")
	}
	if l.OverBluffsRiver {
		tags = append(tags, "overBluffsRiver")
	}
	if l.CBetsTooMuch {
		tags = append(tags, "cBetsTooMuch")
	}
	if l.MissesThinValue {
		tags = append(tags, "missesThinValue")
	}
	return tags
}

// Profile describes a scripted opponent.
type Profile struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Archetype  string      `json:"archetype"`
	Skill      float64     `json:"skill"`
	Aggression float64     `json:"aggression"`
	BluffRate  float64     `json:"bluffRate"`
	Leaks      LeakProfile `json:"leaks"`
}

// LogEntry records a single event in a hand's action history. Forced
// blind posts are recorded as raises with ForcedBlind set to "sb" or
// "bb" so downstream consumers can tell them apart from voluntary
// aggression.
type LogEntry struct {
	Street      Street `json:"street"`
	ActorID     string `json:"actorId"`
	ActorName   string `json:"actorName"`
	Action      Action `json:"action"`
	Amount      int    `json:"amount"`
	AllIn       bool   `json:"allIn,omitempty"`
	ForcedBlind string `json:"forcedBlind,omitempty"`
	Text        string `json:"text"`
}

// Voluntary reports whether the entry is a chosen action rather than a
// forced blind post.
func (e LogEntry) Voluntary() bool {
	return e.ForcedBlind == ""
}

// PlayerState is one player's view within a hand.
type PlayerState struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Position       Position `json:"position"`
	Role           Role     `json:"role"`
	Profile        *Profile `json:"profile,omitempty"`
	Cards          []string `json:"cards"`
	StartingStack  int      `json:"startingStack"`
	Stack          int      `json:"stack"`
	CommittedRound int      `json:"committedRound"`
	TotalCommitted int      `json:"totalCommitted"`
	InHand         bool     `json:"inHand"`
	Folded         bool     `json:"folded"`
	AllIn          bool     `json:"allIn"`
}
