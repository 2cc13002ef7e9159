package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/pokertrainer/internal/engine"
)

func entry(street engine.Street, actor string, action engine.Action, amount int) engine.LogEntry {
	return engine.LogEntry{Street: street, ActorID: actor, ActorName: actor, Action: action, Amount: amount}
}

func blind(actor, kind string, amount int) engine.LogEntry {
	return engine.LogEntry{Street: engine.Preflop, ActorID: actor, ActorName: actor,
		Action: engine.Raise, Amount: amount, ForcedBlind: kind}
}

func TestHeroStatsVPIPAndPFR(t *testing.T) {
	h := finishedHand(engine.WinnerHero, 210, 190, []engine.LogEntry{
		blind("btn", "sb", 1),
		blind("bb", "bb", 2),
		entry(engine.Preflop, "btn", engine.Raise, 5),
		entry(engine.Preflop, "bb", engine.Fold, 0),
	})
	stats := AccumulateHeroStats(HeroStats{}, h)

	assert.Equal(t, 1, stats.Hands)
	assert.Equal(t, Ratio{Hits: 1, Opportunities: 1}, stats.VPIP)
	assert.Equal(t, Ratio{Hits: 1, Opportunities: 1}, stats.PFR)
	assert.Zero(t, stats.ThreeBetPreflop.Opportunities, "no opponent open, no 3-bet spot")
}

func TestHeroStatsBlindPostsAreNotVoluntary(t *testing.T) {
	h := finishedHand(engine.WinnerOpponent, 198, 202, []engine.LogEntry{
		blind("btn", "sb", 1),
		blind("bb", "bb", 2),
		entry(engine.Preflop, "btn", engine.Fold, 0),
	})
	stats := AccumulateHeroStats(HeroStats{}, h)

	assert.Equal(t, Ratio{Hits: 0, Opportunities: 1}, stats.VPIP)
	assert.Equal(t, Ratio{Hits: 0, Opportunities: 1}, stats.PFR)
}

func TestHeroStatsThreeBet(t *testing.T) {
	// Opponent opens, hero re-raises: a taken 3-bet opportunity.
	h := finishedHand(engine.WinnerHero, 240, 160, []engine.LogEntry{
		blind("btn", "sb", 1),
		blind("bb", "bb", 2),
		entry(engine.Preflop, "bb", engine.Raise, 6),
		entry(engine.Preflop, "btn", engine.Raise, 18),
		entry(engine.Preflop, "bb", engine.Fold, 0),
	})
	stats := AccumulateHeroStats(HeroStats{}, h)
	assert.Equal(t, Ratio{Hits: 1, Opportunities: 1}, stats.ThreeBetPreflop)

	// Opponent opens, hero just calls: opportunity missed.
	h2 := finishedHand(engine.WinnerOpponent, 180, 220, []engine.LogEntry{
		blind("btn", "sb", 1),
		blind("bb", "bb", 2),
		entry(engine.Preflop, "bb", engine.Raise, 6),
		entry(engine.Preflop, "btn", engine.Call, 5),
	})
	stats = AccumulateHeroStats(stats, h2)
	assert.Equal(t, Ratio{Hits: 1, Opportunities: 2}, stats.ThreeBetPreflop)
}

func TestHeroStatsFoldToThreeBet(t *testing.T) {
	h := finishedHand(engine.WinnerOpponent, 194, 206, []engine.LogEntry{
		blind("btn", "sb", 1),
		blind("bb", "bb", 2),
		entry(engine.Preflop, "btn", engine.Raise, 6),
		entry(engine.Preflop, "bb", engine.Raise, 20),
		entry(engine.Preflop, "btn", engine.Fold, 0),
	})
	stats := AccumulateHeroStats(HeroStats{}, h)
	assert.Equal(t, Ratio{Hits: 1, Opportunities: 1}, stats.FoldToThreeBet)
}

func TestHeroStatsFlopCBet(t *testing.T) {
	// Hero is the last preflop aggressor, then bets the flop.
	h := finishedHand(engine.WinnerHero, 230, 170, []engine.LogEntry{
		blind("btn", "sb", 1),
		blind("bb", "bb", 2),
		entry(engine.Preflop, "btn", engine.Raise, 6),
		entry(engine.Preflop, "bb", engine.Call, 4),
		entry(engine.Flop, "bb", engine.Check, 0),
		entry(engine.Flop, "btn", engine.Raise, 8),
		entry(engine.Flop, "bb", engine.Fold, 0),
	})
	stats := AccumulateHeroStats(HeroStats{}, h)
	assert.Equal(t, Ratio{Hits: 1, Opportunities: 1}, stats.FlopCBet)
	assert.Zero(t, stats.FoldVsFlopCBet.Opportunities)
}

func TestHeroStatsFoldVsCBet(t *testing.T) {
	// Opponent keeps the initiative and c-bets; hero folds.
	h := finishedHand(engine.WinnerOpponent, 194, 206, []engine.LogEntry{
		blind("btn", "sb", 1),
		blind("bb", "bb", 2),
		entry(engine.Preflop, "bb", engine.Raise, 6),
		entry(engine.Preflop, "btn", engine.Call, 5),
		entry(engine.Flop, "bb", engine.Raise, 8),
		entry(engine.Flop, "btn", engine.Fold, 0),
	})
	stats := AccumulateHeroStats(HeroStats{}, h)
	assert.Equal(t, Ratio{Hits: 1, Opportunities: 1}, stats.FoldVsFlopCBet)
	assert.Zero(t, stats.FlopCBet.Opportunities)
}

func TestHeroStatsPostflopReraisePerStreet(t *testing.T) {
	h := finishedHand(engine.WinnerHero, 260, 140, []engine.LogEntry{
		blind("btn", "sb", 1),
		blind("bb", "bb", 2),
		entry(engine.Preflop, "btn", engine.Call, 1),
		entry(engine.Preflop, "bb", engine.Check, 0),
		entry(engine.Flop, "bb", engine.Raise, 6),
		entry(engine.Flop, "btn", engine.Raise, 18),
		entry(engine.Turn, "bb", engine.Raise, 20),
		entry(engine.Turn, "btn", engine.Call, 20),
	})
	stats := AccumulateHeroStats(HeroStats{}, h)
	assert.Equal(t, Ratio{Hits: 1, Opportunities: 2}, stats.PostflopReraise)
}

func TestRatioPercent(t *testing.T) {
	assert.Zero(t, Ratio{}.Percent())
	assert.InDelta(t, 50.0, Ratio{Hits: 1, Opportunities: 2}.Percent(), 1e-9)
}

func TestHandSignals(t *testing.T) {
	t.Run("steal win", func(t *testing.T) {
		h := finishedHand(engine.WinnerHero, 203, 197, []engine.LogEntry{
			blind("btn", "sb", 1),
			blind("bb", "bb", 2),
			entry(engine.Preflop, "btn", engine.Raise, 5),
			entry(engine.Preflop, "bb", engine.Fold, 0),
		})
		sig := HandSignals(h)
		assert.True(t, sig.StealWin)
		assert.True(t, sig.HeroWon)
		assert.False(t, sig.BluffCatchWin)
	})

	t.Run("postflop action voids the steal", func(t *testing.T) {
		h := finishedHand(engine.WinnerHero, 210, 190, []engine.LogEntry{
			blind("btn", "sb", 1),
			blind("bb", "bb", 2),
			entry(engine.Preflop, "btn", engine.Raise, 5),
			entry(engine.Preflop, "bb", engine.Call, 3),
			entry(engine.Flop, "bb", engine.Fold, 0),
		})
		assert.False(t, HandSignals(h).StealWin)
	})

	t.Run("bluff catch win", func(t *testing.T) {
		h := finishedHand(engine.WinnerHero, 240, 160, []engine.LogEntry{
			entry(engine.River, "bb", engine.Raise, 20),
			entry(engine.River, "btn", engine.Call, 20),
		})
		assert.True(t, HandSignals(h).BluffCatchWin)
	})

	t.Run("triple barrel win", func(t *testing.T) {
		h := finishedHand(engine.WinnerHero, 280, 120, []engine.LogEntry{
			entry(engine.Flop, "btn", engine.Raise, 8),
			entry(engine.Flop, "bb", engine.Call, 8),
			entry(engine.Turn, "btn", engine.Raise, 16),
			entry(engine.Turn, "bb", engine.Call, 16),
			entry(engine.River, "btn", engine.Raise, 30),
			entry(engine.River, "bb", engine.Fold, 0),
		})
		assert.True(t, HandSignals(h).TripleBarrelWin)
	})

	t.Run("losing hand earns nothing", func(t *testing.T) {
		h := finishedHand(engine.WinnerOpponent, 100, 300, []engine.LogEntry{
			entry(engine.Preflop, "btn", engine.Raise, 5),
		})
		sig := HandSignals(h)
		assert.False(t, sig.StealWin)
		assert.False(t, sig.HeroWon)
	})
}
