package ledger

import (
	"math"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/table"
)

// Settlement is everything the session needs after folding a finished
// hand into the ledger.
type Settlement struct {
	State           ZoneState
	RewardXP        int
	CompletedTitles []string
	Repaid          int
	LoanPaidOff     bool
	BustedSeatIDs   []string
}

// SettleHand applies a completed hand to the zone ledger.
//
// Career: read post-hand stacks, auto-repay outstanding loan debt from
// profit, detect busted opponents, advance missions, then fold stats
// and win counters in. Practice: stats and counters only; bankrolls
// and missions stay untouched.
func SettleHand(mode Mode, zone engine.Zone, seats []table.Seat, st ZoneState, h *engine.Hand) Settlement {
	state := Sync(zone, seats, &st)
	heroWon := h.Winner == engine.WinnerHero
	heroTied := h.Winner == engine.WinnerTie

	out := Settlement{}

	if NormalizeMode(mode) == ModeCareer {
		startStack := state.Bankroll[table.HeroSeatID]
		bankrollAfter := ExtractBankroll(zone, seats, h, state.Bankroll)

		if state.LoanDebt > 0 {
			heroAfter := bankrollAfter[table.HeroSeatID]
			profit := max(0, heroAfter-startStack)
			repay := min(state.LoanDebt, int(math.Floor(float64(profit)*LoanRepayRate)))
			if repay > 0 {
				bankrollAfter[table.HeroSeatID] = max(0, heroAfter-repay)
				state.LoanDebt -= repay
				out.Repaid = repay
				out.LoanPaidOff = state.LoanDebt <= 0
			}
		}

		for _, seat := range seats {
			if seat.Role == table.RoleOpponent && bankrollAfter[seat.ID] <= 0 {
				out.BustedSeatIDs = append(out.BustedSeatIDs, seat.ID)
			}
		}

		res := ApplyMissionUpdates(state, h, bankrollAfter)
		loanDebt := state.LoanDebt
		state = res.Next
		state.LoanDebt = loanDebt
		out.RewardXP = res.RewardXP
		out.CompletedTitles = res.CompletedTitles
	}

	state.HeroStats = AccumulateHeroStats(state.HeroStats, h)
	state.HandsPlayed++
	if heroWon {
		state.HandsWon++
	}
	if heroTied {
		state.HandsTied++
	}

	out.State = state
	return out
}
