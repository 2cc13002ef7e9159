package ledger

import "github.com/lox/pokertrainer/internal/engine"

// Ratio is a hit/opportunity frequency counter.
type Ratio struct {
	Hits          int `json:"hits"`
	Opportunities int `json:"opportunities"`
}

func (r *Ratio) observe(hit bool) {
	r.Opportunities++
	if hit {
		r.Hits++
	}
}

// Percent returns the rate as a percentage, 0 with no sample.
func (r Ratio) Percent() float64 {
	if r.Opportunities <= 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Opportunities) * 100
}

// HeroStats tracks the hero's frequency profile across hands.
type HeroStats struct {
	Hands           int   `json:"hands"`
	VPIP            Ratio `json:"vpip"`
	PFR             Ratio `json:"pfr"`
	ThreeBetPreflop Ratio `json:"threeBetPreflop"`
	FoldToThreeBet  Ratio `json:"foldToThreeBet"`
	FlopCBet        Ratio `json:"flopCBet"`
	FoldVsFlopCBet  Ratio `json:"foldVsFlopCBet"`
	PostflopReraise Ratio `json:"postflopReraise"`
}

// Benchmark is the coaching target band for one stat, in percent.
type Benchmark struct {
	Min float64
	Max float64
}

// Benchmarks are the target frequency bands shown alongside hero
// stats in the zone report.
var Benchmarks = map[string]Benchmark{
	"vpip":            {Min: 22, Max: 32},
	"pfr":             {Min: 16, Max: 26},
	"threeBetPreflop": {Min: 6, Max: 12},
	"foldToThreeBet":  {Min: 45, Max: 65},
	"flopCBet":        {Min: 48, Max: 68},
	"foldVsFlopCBet":  {Min: 35, Max: 55},
	"postflopReraise": {Min: 8, Max: 18},
}

func isVoluntaryRaise(e engine.LogEntry) bool {
	return e.Street == engine.Preflop && e.Voluntary() && e.Action == engine.Raise && e.Amount > 0
}

func isVoluntaryEntry(e engine.LogEntry) bool {
	return e.Street == engine.Preflop && e.Voluntary() && e.Amount > 0 &&
		(e.Action == engine.Call || e.Action == engine.Raise)
}

func streetEntries(history []engine.LogEntry, street engine.Street) []engine.LogEntry {
	var out []engine.LogEntry
	for _, e := range history {
		if e.Street == street && e.ActorID != "" {
			out = append(out, e)
		}
	}
	return out
}

// AccumulateHeroStats folds one completed hand into the stats. Every
// opportunity-based stat records at most one observation per hand.
func AccumulateHeroStats(current HeroStats, h *engine.Hand) HeroStats {
	heroID := h.HeroID
	next := current
	next.Hands++

	preflop := streetEntries(h.History, engine.Preflop)

	vpip, pfr := false, false
	for _, e := range preflop {
		if e.ActorID != heroID || !e.Voluntary() {
			continue
		}
		if isVoluntaryEntry(e) {
			vpip = true
		}
		if isVoluntaryRaise(e) {
			pfr = true
		}
	}
	next.VPIP.observe(vpip)
	next.PFR.observe(pfr)

	// 3-bet: hero's first voluntary response after an opponent open
	firstOppRaise := -1
	for i, e := range preflop {
		if e.ActorID != heroID && isVoluntaryRaise(e) {
			firstOppRaise = i
			break
		}
	}
	if firstOppRaise >= 0 {
		for i := firstOppRaise + 1; i < len(preflop); i++ {
			e := preflop[i]
			if e.ActorID == heroID && e.Voluntary() {
				next.ThreeBetPreflop.observe(e.Action == engine.Raise && e.Amount > 0)
				break
			}
		}
	}

	// fold-to-3bet: hero opens, opponent re-raises, hero responds
	heroRaiseIdx := -1
	for i, e := range preflop {
		if e.ActorID == heroID && isVoluntaryRaise(e) {
			heroRaiseIdx = i
			break
		}
	}
	if heroRaiseIdx >= 0 {
		reraiseIdx := -1
		for i := heroRaiseIdx + 1; i < len(preflop); i++ {
			if preflop[i].ActorID != heroID && isVoluntaryRaise(preflop[i]) {
				reraiseIdx = i
				break
			}
		}
		if reraiseIdx >= 0 {
			for i := reraiseIdx + 1; i < len(preflop); i++ {
				e := preflop[i]
				if e.ActorID == heroID && e.Voluntary() {
					next.FoldToThreeBet.observe(e.Action == engine.Fold)
					break
				}
			}
		}
	}

	// last voluntary preflop raiser carries the flop initiative
	aggressorID := ""
	for i := len(preflop) - 1; i >= 0; i-- {
		if isVoluntaryRaise(preflop[i]) {
			aggressorID = preflop[i].ActorID
			break
		}
	}
	flop := streetEntries(h.History, engine.Flop)
	if aggressorID == heroID {
		for _, e := range flop {
			if e.ActorID == heroID {
				next.FlopCBet.observe(e.Action == engine.Raise && e.Amount > 0)
				break
			}
		}
	} else if aggressorID != "" {
		cbetIdx := -1
		for i, e := range flop {
			if e.ActorID == aggressorID && e.Action == engine.Raise && e.Amount > 0 {
				cbetIdx = i
				break
			}
		}
		if cbetIdx >= 0 {
			for i := cbetIdx + 1; i < len(flop); i++ {
				if flop[i].ActorID == heroID {
					next.FoldVsFlopCBet.observe(flop[i].Action == engine.Fold)
					break
				}
			}
		}
	}

	// postflop re-raise: hero's first response after facing a bet,
	// one opportunity per street
	for _, street := range []engine.Street{engine.Flop, engine.Turn, engine.River} {
		entries := streetEntries(h.History, street)
		oppRaised := false
		for _, e := range entries {
			if e.ActorID != heroID && e.Action == engine.Raise && e.Amount > 0 {
				oppRaised = true
				continue
			}
			if e.ActorID == heroID && oppRaised {
				next.PostflopReraise.observe(e.Action == engine.Raise && e.Amount > 0)
				break
			}
		}
	}

	return next
}
