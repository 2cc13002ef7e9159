// Package event turns hand history into the ordered table events the
// scheduler replays: card deals, blind posts, actions, street markers,
// board reveals, and status hints.
package event

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/table"
)

// Kind classifies a table event.
type Kind string

const (
	KindDeal   Kind = "deal"
	KindBlind  Kind = "blind"
	KindAction Kind = "action"
	KindStreet Kind = "street"
	KindReveal Kind = "reveal"
	KindHint   Kind = "hint"
)

// TableEvent is one choreography step. SeatID is empty for events not
// tied to a seat (street markers, reveals, hints).
type TableEvent struct {
	ID     string        `json:"id"`
	Kind   Kind          `json:"kind"`
	SeatID string        `json:"seatId,omitempty"`
	Action engine.Action `json:"action,omitempty"`
	Amount int           `json:"amount,omitempty"`
	AllIn  bool          `json:"allIn,omitempty"`
	Text   string        `json:"text"`
}

// Delay returns how long the scheduler waits before applying the
// event. Folds play slightly faster than other actions.
func Delay(ev TableEvent) time.Duration {
	switch ev.Kind {
	case KindDeal:
		return 260 * time.Millisecond
	case KindBlind:
		return 320 * time.Millisecond
	case KindAction:
		if ev.Action == engine.Fold {
			return 300 * time.Millisecond
		}
		return 360 * time.Millisecond
	case KindStreet:
		return 360 * time.Millisecond
	case KindReveal:
		return 420 * time.Millisecond
	default:
		return 260 * time.Millisecond
	}
}

// Builder assigns monotonically increasing event ids. The counter is
// process-wide monotonic; ids stay unique across hands.
type Builder struct {
	seq atomic.Int64
}

// NewBuilder returns a builder starting from sequence 0.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) nextID() string {
	return fmt.Sprintf("ev-%d-%d", b.seq.Add(1), time.Now().UnixMilli())
}

func (b *Builder) push(events *[]TableEvent, ev TableEvent) {
	ev.ID = b.nextID()
	*events = append(*events, ev)
}

// dealOrder lists in-hand positions clockwise from the small blind.
// Everyone dealt in stays in the order even if they folded before the
// replay catches up.
func dealOrder(h *engine.Hand) []engine.Position {
	var dealt []engine.Position
	for _, pos := range engine.TableOrder {
		p := h.PlayerAt(pos)
		if p != nil && p.InHand {
			dealt = append(dealt, pos)
		}
	}
	if len(dealt) == 0 {
		return nil
	}
	start := 0
	for i, pos := range dealt {
		if pos == h.SmallBlindPosition {
			start = i
			break
		}
	}
	order := make([]engine.Position, 0, len(dealt))
	for i := 0; i < len(dealt); i++ {
		order = append(order, dealt[(start+i)%len(dealt)])
	}
	return order
}

// appendHistory converts a run of history entries into events,
// inserting street markers and board reveals whenever an entry's
// street advances past fromStreet.
func (b *Builder) appendHistory(events *[]TableEvent, entries []engine.LogEntry, fromStreet engine.Street) {
	tracked := fromStreet
	for _, entry := range entries {
		if entry.Street != tracked {
			delta := entry.Street.RevealCount() - tracked.RevealCount()
			if delta > 0 {
				b.push(events, TableEvent{Kind: KindStreet, Text: fmt.Sprintf("Entering %s", entry.Street)})
				for i := 0; i < delta; i++ {
					b.push(events, TableEvent{
						Kind: KindReveal,
						Text: fmt.Sprintf("Reveal %s board card %d", entry.Street, i+1),
					})
				}
			}
			tracked = entry.Street
		}
		// street markers carry no actor and are fully represented by
		// the street/reveal events above
		if entry.ActorID == "" {
			continue
		}
		kind := KindAction
		if entry.ForcedBlind != "" {
			kind = KindBlind
		}
		text := entry.Text
		if text == "" {
			if entry.ForcedBlind != "" {
				text = blindText(entry.ForcedBlind, entry.Amount)
			} else {
				text = ActionText(entry.Action, entry.Amount, entry.AllIn)
			}
		}
		b.push(events, TableEvent{
			Kind:   kind,
			SeatID: entry.ActorID,
			Action: entry.Action,
			Amount: entry.Amount,
			AllIn:  entry.AllIn,
			Text:   text,
		})
	}
}

// OpeningEvents builds the full choreography for a freshly dealt hand:
// two deal rounds clockwise from the small blind, then every history
// entry so far, then a closing hint.
func (b *Builder) OpeningEvents(seats []table.Seat, h *engine.Hand) []TableEvent {
	var events []TableEvent

	order := dealOrder(h)
	for round := 0; round < 2; round++ {
		for _, pos := range order {
			seat := table.ByPos(seats, pos)
			if seat == nil || !seat.Occupied() {
				continue
			}
			b.push(&events, TableEvent{
				Kind:   KindDeal,
				SeatID: seat.ID,
				Text:   fmt.Sprintf("Deal: %s receives card %d", seat.Name(), round+1),
			})
		}
	}

	b.appendHistory(&events, h.History, engine.Preflop)

	hint := "Your turn."
	if h.Over {
		hint = h.ResultText
	}
	b.push(&events, TableEvent{Kind: KindHint, Text: hint})
	return events
}

// TransitionEvents builds events for the history suffix added between
// prev and next. A terminal hint is appended only when next is over.
func (b *Builder) TransitionEvents(prev, next *engine.Hand) []TableEvent {
	var events []TableEvent
	if len(next.History) > len(prev.History) {
		b.appendHistory(&events, next.History[len(prev.History):], prev.Street)
	}
	if next.Over {
		text := next.ResultText
		if text == "" {
			text = "Hand complete"
		}
		b.push(&events, TableEvent{Kind: KindHint, Text: text})
	}
	return events
}

// blindText is the fallback label for a forced blind post.
func blindText(kind string, amount int) string {
	switch kind {
	case "sb":
		return fmt.Sprintf("Posts small blind %d", amount)
	case "bb":
		return fmt.Sprintf("Posts big blind %d", amount)
	default:
		return fmt.Sprintf("Posts blind %d", amount)
	}
}

// ActionText renders a short display label for an action event.
func ActionText(action engine.Action, amount int, allIn bool) string {
	if allIn {
		if amount > 0 {
			return fmt.Sprintf("All-in %d", amount)
		}
		return "All-in"
	}
	label := map[engine.Action]string{
		engine.Fold:  "Fold",
		engine.Check: "Check",
		engine.Call:  "Call",
		engine.Raise: "Raise",
	}[action]
	if label == "" {
		label = "Action"
	}
	if amount > 0 && action != engine.Fold && action != engine.Check {
		return fmt.Sprintf("%s %d", label, amount)
	}
	return label
}
