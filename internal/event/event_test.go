package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/table"
)

func threeSeats() []table.Seat {
	nit := &engine.Profile{ID: "rk-milo", Name: "Milo"}
	lag := &engine.Profile{ID: "rk-tina", Name: "Tina"}
	return []table.Seat{
		{ID: "utg", Pos: engine.UTG, Role: table.RoleOpponent, Profile: nit},
		{ID: "btn", Pos: engine.BTN, Role: table.RoleHero},
		{ID: "bb", Pos: engine.BB, Role: table.RoleOpponent, Profile: lag},
	}
}

func openedHand() *engine.Hand {
	return &engine.Hand{
		ID:                 "h1",
		Street:             engine.Preflop,
		HeroID:             "btn",
		ActingID:           "btn",
		SmallBlindPosition: engine.BB,
		BigBlindPosition:   engine.UTG,
		ButtonPosition:     engine.BTN,
		Players: []engine.PlayerState{
			{ID: "utg", Name: "Milo", Position: engine.UTG, InHand: true},
			{ID: "btn", Name: "Hero", Position: engine.BTN, Role: engine.RoleHero, InHand: true},
			{ID: "bb", Name: "Tina", Position: engine.BB, InHand: true},
		},
		History: []engine.LogEntry{
			{Street: engine.Preflop, ActorID: "bb", ActorName: "Tina", Action: engine.Raise, Amount: 1, ForcedBlind: "sb",
				Text: "Tina posts small blind 1"},
			{Street: engine.Preflop, ActorID: "utg", ActorName: "Milo", Action: engine.Raise, Amount: 2, ForcedBlind: "bb",
				Text: "Milo posts big blind 2"},
		},
	}
}

func kinds(events []TableEvent) []Kind {
	out := make([]Kind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestOpeningEventsChoreography(t *testing.T) {
	b := NewBuilder()
	events := b.OpeningEvents(threeSeats(), openedHand())

	// Two deal rounds over three players, two blinds, one hint.
	require.Len(t, events, 9)
	assert.Equal(t, []Kind{
		KindDeal, KindDeal, KindDeal,
		KindDeal, KindDeal, KindDeal,
		KindBlind, KindBlind,
		KindHint,
	}, kinds(events))

	// Dealing starts at the small blind and proceeds clockwise.
	assert.Equal(t, "bb", events[0].SeatID)
	assert.Equal(t, "utg", events[1].SeatID)
	assert.Equal(t, "btn", events[2].SeatID)
	assert.Equal(t, "bb", events[3].SeatID)

	assert.Equal(t, "Your turn.", events[8].Text)

	// Every event carries a unique id.
	seen := map[string]bool{}
	for _, ev := range events {
		require.NotEmpty(t, ev.ID)
		assert.False(t, seen[ev.ID])
		seen[ev.ID] = true
	}
}

func TestOpeningEventsFinishedHandHintsResult(t *testing.T) {
	h := openedHand()
	h.Over = true
	h.ResultText = "Tina wins 3"
	events := NewBuilder().OpeningEvents(threeSeats(), h)
	last := events[len(events)-1]
	assert.Equal(t, KindHint, last.Kind)
	assert.Equal(t, "Tina wins 3", last.Text)
}

func TestTransitionEventsEmitsHistorySuffix(t *testing.T) {
	prev := openedHand()
	next := prev.Clone()
	next.Street = engine.Flop
	next.RevealedBoardCount = 3
	next.History = append(next.History,
		engine.LogEntry{Street: engine.Preflop, ActorID: "btn", ActorName: "Hero", Action: engine.Raise, Amount: 6, Text: "Hero raises 6"},
		engine.LogEntry{Street: engine.Preflop, ActorID: "bb", ActorName: "Tina", Action: engine.Call, Amount: 5, Text: "Tina calls 5"},
		engine.LogEntry{Street: engine.Preflop, ActorID: "utg", ActorName: "Milo", Action: engine.Fold, Text: "Milo folds"},
		engine.LogEntry{Street: engine.Flop, Action: engine.Check, Text: "Entering flop"},
		engine.LogEntry{Street: engine.Flop, ActorID: "bb", ActorName: "Tina", Action: engine.Check, Text: "Tina checks"},
	)

	events := NewBuilder().TransitionEvents(prev, next)
	assert.Equal(t, []Kind{
		KindAction, KindAction, KindAction,
		KindStreet, KindReveal, KindReveal, KindReveal,
		KindAction,
	}, kinds(events))

	assert.Equal(t, "btn", events[0].SeatID)
	assert.Equal(t, "bb", events[7].SeatID)
}

func TestHistoryEventsFallBackToActionText(t *testing.T) {
	prev := openedHand()
	prev.History = nil
	next := prev.Clone()
	next.History = []engine.LogEntry{
		{Street: engine.Preflop, ActorID: "bb", Action: engine.Raise, Amount: 1, ForcedBlind: "sb"},
		{Street: engine.Preflop, ActorID: "utg", Action: engine.Raise, Amount: 2, ForcedBlind: "bb"},
		{Street: engine.Preflop, ActorID: "btn", Action: engine.Call, Amount: 2},
		{Street: engine.Preflop, ActorID: "bb", Action: engine.Raise, Amount: 10, AllIn: true},
		{Street: engine.Preflop, ActorID: "utg", Action: engine.Fold, Text: "Milo gives up"},
	}

	events := NewBuilder().TransitionEvents(prev, next)
	require.Len(t, events, 5)
	assert.Equal(t, "Posts small blind 1", events[0].Text)
	assert.Equal(t, "Posts big blind 2", events[1].Text)
	assert.Equal(t, "Call 2", events[2].Text)
	assert.Equal(t, "All-in 10", events[3].Text)
	assert.Equal(t, "Milo gives up", events[4].Text, "engine text wins over the fallback")
}

func TestTransitionEventsNoChange(t *testing.T) {
	prev := openedHand()
	next := prev.Clone()
	assert.Empty(t, NewBuilder().TransitionEvents(prev, next))
}

func TestTransitionEventsTerminalHint(t *testing.T) {
	prev := openedHand()
	next := prev.Clone()
	next.Over = true
	next.Winner = engine.WinnerHero
	next.ResultText = "Hero wins 3"
	next.History = append(next.History,
		engine.LogEntry{Street: engine.Preflop, ActorID: "bb", ActorName: "Tina", Action: engine.Fold, Text: "Tina folds"},
	)

	events := NewBuilder().TransitionEvents(prev, next)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, KindHint, last.Kind)
	assert.Equal(t, "Hero wins 3", last.Text)
}

func TestActionText(t *testing.T) {
	assert.Equal(t, "Fold", ActionText(engine.Fold, 0, false))
	assert.Equal(t, "Check", ActionText(engine.Check, 0, false))
	assert.Equal(t, "Call 5", ActionText(engine.Call, 5, false))
	assert.Equal(t, "Raise 12", ActionText(engine.Raise, 12, false))
	assert.Equal(t, "All-in 40", ActionText(engine.Raise, 40, true))
}

func TestDelayPerKind(t *testing.T) {
	assert.Equal(t, 260*time.Millisecond, Delay(TableEvent{Kind: KindDeal}))
	assert.Equal(t, 320*time.Millisecond, Delay(TableEvent{Kind: KindBlind}))
	assert.Equal(t, 360*time.Millisecond, Delay(TableEvent{Kind: KindAction, Action: engine.Call}))
	assert.Equal(t, 300*time.Millisecond, Delay(TableEvent{Kind: KindAction, Action: engine.Fold}))
	assert.Equal(t, 420*time.Millisecond, Delay(TableEvent{Kind: KindReveal}))
	assert.Equal(t, 260*time.Millisecond, Delay(TableEvent{Kind: KindHint}))
}
