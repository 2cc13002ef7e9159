package ledger

import "github.com/lox/pokertrainer/internal/engine"

// Signals summarizes a completed hand for mission counting.
type Signals struct {
	HeroWon         bool
	StealWin        bool
	BluffCatchWin   bool
	TripleBarrelWin bool
}

// HandSignals derives mission signals from a completed hand's history.
// A steal win requires a voluntary hero preflop raise and no player
// action on any later street; a bluff catch win is a winning river
// call; a triple barrel win is a winning hand with hero raises on
// flop, turn and river.
func HandSignals(h *engine.Hand) Signals {
	heroID := h.HeroID
	heroWon := h.Winner == engine.WinnerHero

	heroRaised := func(street engine.Street) bool {
		for _, e := range h.History {
			if e.ActorID == heroID && e.Street == street && e.Action == engine.Raise && e.Voluntary() {
				return true
			}
		}
		return false
	}

	postflopAction := false
	riverCall := false
	for _, e := range h.History {
		if e.ActorID == "" {
			continue
		}
		switch e.Street {
		case engine.Flop, engine.Turn, engine.River:
			postflopAction = true
		}
		if e.ActorID == heroID && e.Street == engine.River && e.Action == engine.Call {
			riverCall = true
		}
	}

	return Signals{
		HeroWon:         heroWon,
		StealWin:        heroWon && heroRaised(engine.Preflop) && !postflopAction,
		BluffCatchWin:   heroWon && riverCall,
		TripleBarrelWin: heroWon && heroRaised(engine.Flop) && heroRaised(engine.Turn) && heroRaised(engine.River),
	}
}

// missionIncrement maps a signal set onto a counting mission.
func missionIncrement(kind MissionKind, sig Signals) int {
	hit := false
	switch kind {
	case MissionStealPreflop:
		hit = sig.StealWin
	case MissionBluffCatch:
		hit = sig.BluffCatchWin
	case MissionTripleBarrel:
		hit = sig.TripleBarrelWin
	case MissionWinHands:
		hit = sig.HeroWon
	}
	if hit {
		return 1
	}
	return 0
}

// MissionResolution is the outcome of applying a hand to the mission
// ledger.
type MissionResolution struct {
	Next            ZoneState
	RewardXP        int
	CompletedTitles []string
}

// ApplyMissionUpdates advances missions for a completed hand.
// profit_bb recomputes from the hero's post-hand stack against the
// zone baseline; counting missions increment only while incomplete.
// Each mission pays XP exactly once, when it first completes.
func ApplyMissionUpdates(st ZoneState, h *engine.Hand, bankrollAfter map[string]int) MissionResolution {
	heroStack, ok := bankrollAfter[h.HeroID]
	if !ok {
		heroStack = h.HeroStack()
	}
	bigBlind := h.BigBlind
	if bigBlind < 1 {
		bigBlind = engine.BigBlindSize
	}
	sig := HandSignals(h)

	rewardXP := 0
	var completedTitles []string
	missions := make([]Mission, len(st.Missions))
	for i, m := range st.Missions {
		progress := m.Progress
		if m.Kind == MissionProfitBB {
			progress = max(0, (heroStack-st.HeroBaseline)/bigBlind)
		} else if !m.Completed {
			progress += missionIncrement(m.Kind, sig)
		}

		completed := m.Completed || progress >= m.Target
		rewarded := m.Rewarded
		if completed && !rewarded {
			rewarded = true
			rewardXP += m.RewardXP
			completedTitles = append(completedTitles, m.Title)
		}

		// clamp: completed missions display full progress even if
		// profit later dips below target
		if m.Completed && progress < m.Target {
			progress = m.Target
		}
		if progress > m.Target {
			progress = m.Target
		}
		if progress < 0 {
			progress = 0
		}

		m.Progress = progress
		m.Completed = completed
		m.Rewarded = rewarded
		missions[i] = m
	}

	next := st
	next.Bankroll = bankrollAfter
	next.Missions = missions
	return MissionResolution{Next: next, RewardXP: rewardXP, CompletedTitles: completedTitles}
}
