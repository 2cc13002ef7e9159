// Package sim is a self-contained hold'em engine for training sessions.
// It deals real cards, runs the multiway betting loop, and plays the
// scripted opponents with leak-aware heuristics. Results are
// deterministic for a given seed, which the tests rely on.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/handid"
)

// Engine implements engine.Engine with a seeded RNG. Not safe for
// concurrent use; the session controller serializes all calls.
type Engine struct {
	rng *rand.Rand
}

// New returns an engine seeded with the given value.
func New(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// NewHand deals a fresh hand for the configured seats, posts blinds,
// and advances scripted opponents until it is the hero's turn or the
// hand ends.
func (e *Engine) NewHand(zone engine.Zone, setup engine.Setup) (*engine.Hand, error) {
	if len(setup.Seats) < 2 {
		return nil, fmt.Errorf("new hand: need at least 2 seated players, got %d", len(setup.Seats))
	}

	defaultStack := setup.StartingStack
	if defaultStack <= 0 {
		defaultStack = zone.StartingStack
	}

	deck := newDeck(e.rng)
	draw := func(n int) []string {
		cards := append([]string(nil), deck[:n]...)
		deck = deck[n:]
		return cards
	}

	players := make([]engine.PlayerState, 0, len(setup.Seats))
	var hero *engine.Seat
	for i := range setup.Seats {
		seat := setup.Seats[i]
		stack := defaultStack
		if v, ok := setup.Stacks[seat.ID]; ok {
			stack = max(0, v)
		}
		canPlay := stack > 0
		name := seat.Name
		if name == "" {
			if seat.Role == engine.RoleHero {
				name = "Hero"
			} else if seat.Profile != nil {
				name = seat.Profile.Name
			} else {
				name = "Opponent"
			}
		}
		players = append(players, engine.PlayerState{
			ID:            seat.ID,
			Name:          name,
			Position:      seat.Position,
			Role:          seat.Role,
			Profile:       seat.Profile,
			Cards:         draw(2),
			StartingStack: stack,
			Stack:         stack,
			InHand:        canPlay,
			Folded:        !canPlay,
			AllIn:         !canPlay,
		})
		if seat.Role == engine.RoleHero {
			hero = &setup.Seats[i]
		}
	}
	if hero == nil {
		return nil, fmt.Errorf("new hand: no hero seat configured")
	}

	h := &engine.Hand{
		ID:         handid.Generate(),
		Street:     engine.Preflop,
		Board:      draw(5),
		Players:    players,
		HeroID:     hero.ID,
		SmallBlind: zone.SmallBlind,
		BigBlind:   zone.BigBlind,
		MinRaise:   zone.BigBlind,
	}

	h.FocusOpponentID = setup.FocusOpponentID
	syncFocus(h)

	button := setup.ButtonPosition
	if btn := h.PlayerAt(button); btn == nil || !btn.InHand {
		button = hero.Position
	}
	h.ButtonPosition = button

	headsUp := len(activePlayers(h)) == 2
	if headsUp {
		h.SmallBlindPosition = button
	} else {
		h.SmallBlindPosition = engine.NextPosition(button, h.Players)
	}
	h.BigBlindPosition = engine.NextPosition(h.SmallBlindPosition, h.Players)

	postBlind(h, h.SmallBlindPosition, zone.SmallBlind, "sb")
	postBlind(h, h.BigBlindPosition, zone.BigBlind, "bb")
	h.MinRaise = zone.BigBlind

	h.PendingActors = buildStreetQueue(h)
	if len(h.PendingActors) > 0 {
		h.ActingID = h.PendingActors[0]
	}

	e.runOpponents(h)
	return h, nil
}

// Advise returns the action the scripted policy would take in the
// acting player's spot. The session uses it to grade hero decisions.
func (e *Engine) Advise(h *engine.Hand) (engine.Action, int) {
	if h == nil || h.Over || h.ActingID == "" {
		return engine.Check, 0
	}
	p := h.Player(h.ActingID)
	if p == nil {
		return engine.Check, 0
	}
	return e.chooseAction(h, p)
}

// HeroAction applies the hero's decision to a clone of h, then
// advances opponents until the hero acts again or the hand ends. The
// action is normalized first: folding with nothing to call becomes a
// check, and a raise the hero cannot cover degrades to a call.
func (e *Engine) HeroAction(h *engine.Hand, action engine.Action, raiseAmount int) (*engine.Hand, error) {
	if h.Over {
		return h, fmt.Errorf("hero action: hand is already over")
	}
	next := h.Clone()
	hero := next.Hero()
	if hero == nil {
		return next, fmt.Errorf("hero action: hero %q missing from hand", next.HeroID)
	}
	if !canAct(hero) {
		removePending(next, hero.ID)
		e.runOpponents(next)
		return next, nil
	}
	if next.ActingID != hero.ID {
		return next, fmt.Errorf("hero action: action is on %q, not hero", next.ActingID)
	}

	applyAction(next, hero.ID, normalizeAction(action, next.ToCall(hero.ID)), raiseAmount)
	if !next.Over {
		e.runOpponents(next)
	}
	return next, nil
}

func syncFocus(h *engine.Hand) {
	focus := h.Player(h.FocusOpponentID)
	if focus == nil || focus.Role != engine.RoleOpponent || !focus.InHand || focus.Folded {
		for i := range h.Players {
			p := &h.Players[i]
			if p.Role == engine.RoleOpponent && p.InHand && !p.Folded {
				h.FocusOpponentID = p.ID
				return
			}
		}
	}
}

func activePlayers(h *engine.Hand) []*engine.PlayerState {
	var out []*engine.PlayerState
	for i := range h.Players {
		if h.Players[i].InHand && !h.Players[i].Folded {
			out = append(out, &h.Players[i])
		}
	}
	return out
}

func canAct(p *engine.PlayerState) bool {
	return p != nil && p.InHand && !p.Folded && !p.AllIn && p.Stack > 0
}

func postBlind(h *engine.Hand, pos engine.Position, blind int, kind string) {
	p := h.PlayerAt(pos)
	if p == nil || !p.InHand {
		return
	}
	posted := min(blind, p.Stack)
	p.Stack -= posted
	p.CommittedRound += posted
	p.TotalCommitted += posted
	if p.Stack <= 0 {
		p.AllIn = true
	}
	h.Pot += posted
	if kind == "bb" {
		h.CurrentBet = posted
	}
	label := "small blind"
	if kind == "bb" {
		label = "big blind"
	}
	h.History = append(h.History, engine.LogEntry{
		Street:      engine.Preflop,
		ActorID:     p.ID,
		ActorName:   p.Name,
		Action:      engine.Raise,
		Amount:      posted,
		ForcedBlind: kind,
		Text:        fmt.Sprintf("%s posts %s %d", p.Name, label, posted),
	})
}

// actionOrderFrom walks TableOrder clockwise from start over players
// still contesting the pot.
func actionOrderFrom(h *engine.Hand, start engine.Position) []*engine.PlayerState {
	var positions []engine.Position
	for _, pos := range engine.TableOrder {
		if p := h.PlayerAt(pos); p != nil && p.InHand && !p.Folded {
			positions = append(positions, pos)
		}
	}
	if len(positions) == 0 {
		return nil
	}
	startIdx := 0
	for i, pos := range positions {
		if pos == start {
			startIdx = i
			break
		}
	}
	order := make([]*engine.PlayerState, 0, len(positions))
	for i := 0; i < len(positions); i++ {
		order = append(order, h.PlayerAt(positions[(startIdx+i)%len(positions)]))
	}
	return order
}

func buildStreetQueue(h *engine.Hand) []string {
	actable := 0
	for i := range h.Players {
		if canAct(&h.Players[i]) {
			actable++
		}
	}
	if actable <= 1 {
		return nil
	}
	start := engine.NextPosition(h.ButtonPosition, h.Players)
	if h.Street == engine.Preflop {
		start = engine.NextPosition(h.BigBlindPosition, h.Players)
	}
	var queue []string
	for _, p := range actionOrderFrom(h, start) {
		if canAct(p) {
			queue = append(queue, p.ID)
		}
	}
	return queue
}

// buildReopenQueue rebuilds the action queue after a raise: everyone
// still able to act, in order after the raiser, gets another turn.
func buildReopenQueue(h *engine.Hand, raiserID string) []string {
	raiser := h.Player(raiserID)
	if raiser == nil {
		return nil
	}
	start := engine.NextPosition(raiser.Position, h.Players)
	var queue []string
	for _, p := range actionOrderFrom(h, start) {
		if p.ID != raiserID && canAct(p) {
			queue = append(queue, p.ID)
		}
	}
	return queue
}

func removePending(h *engine.Hand, id string) {
	out := h.PendingActors[:0]
	for _, pid := range h.PendingActors {
		if pid != id {
			out = append(out, pid)
		}
	}
	h.PendingActors = out
	h.ActingID = ""
	if len(h.PendingActors) > 0 {
		h.ActingID = h.PendingActors[0]
	}
}

func normalizeAction(action engine.Action, toCall int) engine.Action {
	switch action {
	case engine.Fold:
		if toCall == 0 {
			return engine.Check
		}
	case engine.Check:
		if toCall > 0 {
			return engine.Call
		}
	case engine.Call:
		if toCall == 0 {
			return engine.Check
		}
	}
	return action
}

func applyAction(h *engine.Hand, playerID string, action engine.Action, requested int) {
	if h.Over {
		return
	}
	if h.ActingID != "" && h.ActingID != playerID {
		return
	}
	p := h.Player(playerID)
	if !canAct(p) {
		removePending(h, playerID)
		finalizeRound(h)
		return
	}
	removePending(h, playerID)

	toCall := h.ToCall(playerID)
	stackBefore := p.Stack
	spent := 0

	switch action {
	case engine.Fold:
		p.Folded = true
		p.InHand = false
	case engine.Check:
	case engine.Call:
		spent = min(toCall, p.Stack)
	case engine.Raise:
		minSpend := toCall + h.MinRaise
		if p.Stack < minSpend {
			if toCall > 0 {
				action = engine.Call
				spent = min(toCall, p.Stack)
			} else {
				action = engine.Check
			}
		} else {
			desired := requested
			if desired <= 0 {
				desired = minSpend
			}
			spent = clamp(desired, minSpend, p.Stack)
			if spent <= toCall {
				action = engine.Call
				spent = min(toCall, p.Stack)
			}
		}
	}

	spent = clamp(spent, 0, p.Stack)
	p.Stack -= spent
	p.CommittedRound += spent
	p.TotalCommitted += spent
	h.Pot += spent
	if p.Stack <= 0 {
		p.AllIn = true
	}
	allIn := action != engine.Fold && spent > 0 && spent >= stackBefore

	if action == engine.Raise {
		raiseDelta := p.CommittedRound - h.CurrentBet
		h.CurrentBet = p.CommittedRound
		if raiseDelta > h.BigBlind {
			h.MinRaise = raiseDelta
		} else {
			h.MinRaise = h.BigBlind
		}
		h.PendingActors = buildReopenQueue(h, playerID)
		h.ActingID = ""
		if len(h.PendingActors) > 0 {
			h.ActingID = h.PendingActors[0]
		}
	}

	h.History = append(h.History, engine.LogEntry{
		Street:    h.Street,
		ActorID:   p.ID,
		ActorName: p.Name,
		Action:    action,
		Amount:    spent,
		AllIn:     allIn,
		Text:      actionText(p.Name, action, spent, allIn),
	})

	syncFocus(h)
	finalizeRound(h)
}

func actionText(name string, action engine.Action, amount int, allIn bool) string {
	switch action {
	case engine.Fold:
		return fmt.Sprintf("%s folds", name)
	case engine.Check:
		return fmt.Sprintf("%s checks", name)
	case engine.Call:
		if allIn {
			return fmt.Sprintf("%s calls all-in %d", name, amount)
		}
		return fmt.Sprintf("%s calls %d", name, amount)
	default:
		if allIn {
			return fmt.Sprintf("%s raises all-in %d", name, amount)
		}
		return fmt.Sprintf("%s raises %d", name, amount)
	}
}

func finalizeRound(h *engine.Hand) {
	alive := activePlayers(h)
	if len(alive) <= 1 {
		if len(alive) == 1 {
			settleSingleWinner(h, alive[0])
		} else {
			settleShowdown(h)
		}
		return
	}

	// drop pending actors that can no longer act
	kept := h.PendingActors[:0]
	for _, id := range h.PendingActors {
		if canAct(h.Player(id)) {
			kept = append(kept, id)
		}
	}
	h.PendingActors = kept
	if len(h.PendingActors) > 0 {
		h.ActingID = h.PendingActors[0]
		return
	}
	h.ActingID = ""

	if h.Street == engine.River {
		settleShowdown(h)
		return
	}
	beginNextStreet(h)
	if !h.Over && len(h.PendingActors) == 0 {
		// everyone left is all-in, run the board out
		finalizeRound(h)
	}
}

func nextStreet(s engine.Street) engine.Street {
	switch s {
	case engine.Preflop:
		return engine.Flop
	case engine.Flop:
		return engine.Turn
	case engine.Turn:
		return engine.River
	default:
		return engine.Showdown
	}
}

func beginNextStreet(h *engine.Hand) {
	next := nextStreet(h.Street)
	if next == engine.Showdown {
		h.Street = engine.Showdown
		h.RevealedBoardCount = 5
		h.PendingActors = nil
		h.ActingID = ""
		return
	}
	h.Street = next
	h.RevealedBoardCount = next.BoardCards()
	for i := range h.Players {
		h.Players[i].CommittedRound = 0
	}
	h.CurrentBet = 0
	h.MinRaise = h.BigBlind
	h.PendingActors = buildStreetQueue(h)
	h.ActingID = ""
	if len(h.PendingActors) > 0 {
		h.ActingID = h.PendingActors[0]
	}
	// street marker entry: no actor, drives board reveal choreography
	h.History = append(h.History, engine.LogEntry{
		Street: next,
		Action: engine.Check,
		Text:   fmt.Sprintf("Entering %s", next),
	})
}

func settleSingleWinner(h *engine.Hand, winner *engine.PlayerState) {
	winner.Stack += h.Pot
	if winner.Role == engine.RoleHero {
		h.Winner = engine.WinnerHero
	} else {
		h.Winner = engine.WinnerOpponent
	}
	h.ResultText = fmt.Sprintf("%s takes the pot of %d", winner.Name, h.Pot)
	h.Over = true
	h.Street = engine.Showdown
	h.RevealedBoardCount = 5
	h.PendingActors = nil
	h.ActingID = ""
	finalizeBusted(h)
	syncFocus(h)
}

type sidePot struct {
	amount      int
	eligibleIDs []string
}

// buildSidePots splits total commitments into main and side pots by
// contribution level.
func buildSidePots(h *engine.Hand) []sidePot {
	var levels []int
	seen := map[int]bool{}
	for i := range h.Players {
		v := h.Players[i].TotalCommitted
		if v > 0 && !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	sortAsc(levels)

	var pots []sidePot
	previous := 0
	for _, level := range levels {
		var contenders, eligible []string
		for i := range h.Players {
			p := &h.Players[i]
			if p.TotalCommitted >= level {
				contenders = append(contenders, p.ID)
				if p.InHand && !p.Folded {
					eligible = append(eligible, p.ID)
				}
			}
		}
		amount := (level - previous) * len(contenders)
		previous = level
		if amount <= 0 {
			continue
		}
		pots = append(pots, sidePot{amount: amount, eligibleIDs: eligible})
	}
	return pots
}

// payoutOrder lists positions clockwise starting left of the button,
// used to hand out odd chips deterministically.
func payoutOrder(h *engine.Hand) map[engine.Position]int {
	idx := engine.PositionIndex(h.ButtonPosition)
	if idx == -1 {
		idx = 0
	}
	order := map[engine.Position]int{}
	for i := 1; i <= len(engine.TableOrder); i++ {
		order[engine.TableOrder[(idx+i)%len(engine.TableOrder)]] = i
	}
	return order
}

func settleShowdown(h *engine.Hand) {
	h.Street = engine.Showdown
	h.RevealedBoardCount = 5
	h.PendingActors = nil
	h.ActingID = ""
	h.Over = true

	alive := activePlayers(h)
	if len(alive) == 0 {
		h.Winner = engine.WinnerTie
		h.ResultText = "Everyone folded; dead hand"
		finalizeBusted(h)
		return
	}

	scores := map[string]int{}
	for _, p := range alive {
		scores[p.ID] = evaluate(append(append([]string(nil), p.Cards...), h.Board...))
	}

	order := payoutOrder(h)
	payouts := map[string]int{}
	for _, pot := range buildSidePots(h) {
		best := -1
		for _, id := range pot.eligibleIDs {
			if scores[id] > best {
				best = scores[id]
			}
		}
		var winners []*engine.PlayerState
		for _, id := range pot.eligibleIDs {
			if scores[id] == best {
				winners = append(winners, h.Player(id))
			}
		}
		if len(winners) == 0 {
			continue
		}
		// stable split order: clockwise from the button
		for i := 1; i < len(winners); i++ {
			for j := i; j > 0 && order[winners[j].Position] < order[winners[j-1].Position]; j-- {
				winners[j], winners[j-1] = winners[j-1], winners[j]
			}
		}
		base := pot.amount / len(winners)
		remainder := pot.amount % len(winners)
		for _, w := range winners {
			gain := base
			if remainder > 0 {
				gain++
				remainder--
			}
			w.Stack += gain
			payouts[w.ID] += gain
		}
	}

	heroPayout := payouts[h.HeroID]
	maxPayout := 0
	for _, v := range payouts {
		if v > maxPayout {
			maxPayout = v
		}
	}
	topCount := 0
	heroTop := false
	for id, v := range payouts {
		if v == maxPayout && maxPayout > 0 {
			topCount++
			if id == h.HeroID {
				heroTop = true
			}
		}
	}
	switch {
	case heroTop && topCount > 1:
		h.Winner = engine.WinnerTie
	case heroTop:
		h.Winner = engine.WinnerHero
	default:
		h.Winner = engine.WinnerOpponent
	}
	h.ResultText = fmt.Sprintf("Showdown settled. Hero collects %d", heroPayout)
	finalizeBusted(h)
	syncFocus(h)
}

func finalizeBusted(h *engine.Hand) {
	for i := range h.Players {
		p := &h.Players[i]
		if p.Stack > 0 {
			continue
		}
		p.Stack = 0
		p.InHand = false
		p.Folded = true
		p.AllIn = true
	}
}

// runOpponents advances scripted players until the hero has the
// pending decision or the hand is over.
func (e *Engine) runOpponents(h *engine.Hand) {
	for !h.Over {
		if h.ActingID == "" {
			finalizeRound(h)
			if h.Over {
				break
			}
			continue
		}
		actor := h.Player(h.ActingID)
		if !canAct(actor) {
			removePending(h, h.ActingID)
			continue
		}
		if actor.Role == engine.RoleHero {
			break
		}
		action, amount := e.chooseAction(h, actor)
		applyAction(h, actor.ID, action, amount)
	}
	syncFocus(h)
}

// chooseAction is the scripted opponent policy. It mixes a crude made-
// hand strength estimate with the profile's aggression, bluff rate and
// deliberate leaks.
func (e *Engine) chooseAction(h *engine.Hand, p *engine.PlayerState) (engine.Action, int) {
	strength := e.handStrength(h, p)
	profile := p.Profile
	if profile == nil {
		profile = &engine.Profile{Aggression: 0.4, BluffRate: 0.15, Skill: 0.4}
	}
	toCall := h.ToCall(p.ID)
	roll := e.rng.Float64()

	raiseSpend := func() int {
		target := toCall + h.MinRaise + int(float64(h.Pot)*0.4*(0.6+profile.Aggression))
		return clamp(target, toCall+h.MinRaise, p.Stack)
	}

	if toCall == 0 {
		betChance := profile.Aggression * (0.35 + strength)
		if h.Street == engine.Flop && profile.Leaks.CBetsTooMuch {
			betChance += 0.22
		}
		if h.Street == engine.River {
			if profile.Leaks.OverBluffsRiver {
				betChance += profile.BluffRate
			}
			if profile.Leaks.MissesThinValue && strength > 0.5 && strength < 0.75 {
				betChance -= 0.3
			}
		}
		if roll < betChance {
			return engine.Raise, raiseSpend()
		}
		return engine.Check, 0
	}

	potOdds := float64(toCall) / float64(h.Pot+toCall)
	callEdge := strength - potOdds
	if profile.Leaks.CallsTooWide {
		callEdge += 0.18
	}
	if profile.Leaks.OverFoldsToRaise {
		callEdge -= 0.2
	}

	if callEdge < -0.08 && roll > profile.BluffRate*0.5 {
		return engine.Fold, 0
	}
	raiseChance := profile.Aggression * (strength - 0.45)
	if h.Street == engine.River && profile.Leaks.OverBluffsRiver {
		raiseChance += profile.BluffRate * 0.6
	}
	if roll < raiseChance {
		return engine.Raise, raiseSpend()
	}
	return engine.Call, 0
}

// handStrength estimates a 0..1 made-hand strength from the revealed
// board plus a small dose of positional noise.
func (e *Engine) handStrength(h *engine.Hand, p *engine.PlayerState) float64 {
	cards := append([]string(nil), p.Cards...)
	cards = append(cards, h.Board[:h.RevealedBoardCount]...)
	score := evaluate(cards)
	cat := float64(score >> 20)
	high := float64((score >> 16) & 0xf)
	strength := (cat*14 + high) / (8*14 + 14)
	if h.Street == engine.Preflop {
		// preflop: hole card quality only
		a, b := rankValue(p.Cards[0]), rankValue(p.Cards[1])
		strength = float64(a+b) / 28
		if a == b {
			strength += 0.25
		}
		if suitOf(p.Cards[0]) == suitOf(p.Cards[1]) {
			strength += 0.05
		}
	}
	strength += (e.rng.Float64() - 0.5) * 0.1
	return clampF(strength, 0, 1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sortAsc(vs []int) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j] < vs[j-1]; j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}
