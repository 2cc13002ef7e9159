package engine

// Hand is the full state of one hand. The session controller reads it
// to build table events and settle bankrolls; only the engine writes
// it. ActingID is empty once no pending decision remains.
type Hand struct {
	ID                 string        `json:"id"`
	Street             Street        `json:"street"`
	Board              []string      `json:"board"`
	RevealedBoardCount int           `json:"revealedBoardCount"`
	Players            []PlayerState `json:"players"`
	HeroID             string        `json:"heroPlayerId"`
	FocusOpponentID    string        `json:"focusOpponentId"`
	ActingID           string        `json:"actingPlayerId"`
	PendingActors      []string      `json:"pendingActors"`
	Pot                int           `json:"pot"`
	CurrentBet         int           `json:"currentBet"`
	MinRaise           int           `json:"minRaise"`
	SmallBlind         int           `json:"smallBlind"`
	BigBlind           int           `json:"bigBlind"`
	ButtonPosition     Position      `json:"buttonPosition"`
	SmallBlindPosition Position      `json:"smallBlindPosition"`
	BigBlindPosition   Position      `json:"bigBlindPosition"`
	History            []LogEntry    `json:"history"`
	Over               bool          `json:"isOver"`
	Winner             string        `json:"winner,omitempty"`
	ResultText         string        `json:"resultText"`
}

// Player returns the player with the given id, or nil.
func (h *Hand) Player(id string) *PlayerState {
	for i := range h.Players {
		if h.Players[i].ID == id {
			return &h.Players[i]
		}
	}
	return nil
}

// PlayerAt returns the player seated at the given position, or nil.
func (h *Hand) PlayerAt(pos Position) *PlayerState {
	for i := range h.Players {
		if h.Players[i].Position == pos {
			return &h.Players[i]
		}
	}
	return nil
}

// Hero returns the hero player, or nil.
func (h *Hand) Hero() *PlayerState {
	return h.Player(h.HeroID)
}

// HeroStack returns the hero's current stack, or 0 if the hero is
// missing from the hand.
func (h *Hand) HeroStack() int {
	if hero := h.Hero(); hero != nil {
		return hero.Stack
	}
	return 0
}

// HeroTurn reports whether the pending decision belongs to the hero.
func (h *Hand) HeroTurn() bool {
	return !h.Over && h.ActingID == h.HeroID
}

// ToCall returns the amount the given player must add to match the
// current bet.
func (h *Hand) ToCall(id string) int {
	p := h.Player(id)
	if p == nil {
		return 0
	}
	if diff := h.CurrentBet - p.CommittedRound; diff > 0 {
		return diff
	}
	return 0
}

// Clone deep-copies the hand. The engine returns fresh clones from
// every action so callers can diff history suffixes between states.
func (h *Hand) Clone() *Hand {
	next := *h
	next.Board = append([]string(nil), h.Board...)
	next.PendingActors = append([]string(nil), h.PendingActors...)
	next.History = append([]LogEntry(nil), h.History...)
	next.Players = make([]PlayerState, len(h.Players))
	for i, p := range h.Players {
		cp := p
		cp.Cards = append([]string(nil), p.Cards...)
		next.Players[i] = cp
	}
	return &next
}

// Seat assigns one player into a new hand.
type Seat struct {
	ID       string
	Name     string
	Position Position
	Role     Role
	Profile  *Profile
}

// Setup carries per-hand configuration from the session controller.
// Stacks maps player id to carried bankroll; ids absent from the map
// start with the zone's default stack.
type Setup struct {
	Seats           []Seat
	FocusOpponentID string
	ButtonPosition  Position
	Stacks          map[string]int
	StartingStack   int
}

// Engine produces and advances hands. Implementations must treat the
// input hand as immutable and return an advanced clone.
type Engine interface {
	NewHand(zone Zone, setup Setup) (*Hand, error)
	HeroAction(h *Hand, action Action, raiseAmount int) (*Hand, error)
}
