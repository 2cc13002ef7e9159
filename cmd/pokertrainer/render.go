package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/ledger"
	"github.com/lox/pokertrainer/internal/progress"
	"github.com/lox/pokertrainer/internal/session"
	"github.com/lox/pokertrainer/internal/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	heroStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	foldedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("220"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func renderError(err error) string {
	return errStyle.Render("error: " + err.Error())
}

func renderView(v session.View) string {
	var b strings.Builder

	mode := string(v.Mode)
	header := fmt.Sprintf("%s — %s", v.Zone.Name, mode)
	if !v.AtTable {
		header = fmt.Sprintf("Lobby — %s selected", v.Zone.Name)
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("XP %d  •  win rate %d%%  •  zones unlocked %d/%d",
		v.Progress.XP, progress.WinRate(v.Progress), v.UnlockedZone+1, len(engine.Zones()))))
	b.WriteString("\n")

	if v.Mode == ledger.ModeCareer {
		hero := v.ZoneState.Bankroll[table.HeroSeatID]
		line := fmt.Sprintf("Bankroll %d chips (%dbb)", hero, ledger.ChipsToBB(hero, v.Zone.BigBlind))
		if v.ZoneState.LoanDebt > 0 {
			line += alertStyle.Render(fmt.Sprintf("  debt %d", v.ZoneState.LoanDebt))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if v.RecoveryActive {
		b.WriteString(alertStyle.Render(fmt.Sprintf(
			"BANKRUPT — rescue, loan, or practice. Returning to lobby in %ds.", v.RecoveryCountdown)))
		b.WriteString("\n")
	}

	if v.Hand != nil {
		h := v.Hand
		board := "—"
		if v.DisplayedBoard > 0 {
			board = strings.Join(h.Board[:v.DisplayedBoard], " ")
		}
		b.WriteString(fmt.Sprintf("%s  board: %s  pot: %d\n", h.Street, board, h.Pot))
		if hero := h.Hero(); hero != nil {
			b.WriteString(heroStyle.Render(fmt.Sprintf("Hero: %s  stack %d", strings.Join(hero.Cards, " "), hero.Stack)))
			if !h.Over && h.HeroTurn() {
				toCall := h.ToCall(h.HeroID)
				if toCall > 0 {
					b.WriteString(fmt.Sprintf("  to call: %d", toCall))
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(renderSeats(v))
	b.WriteString("\n")

	if v.Hint != "" {
		b.WriteString(hintStyle.Render(v.Hint))
		b.WriteString("\n")
	}
	if v.PendingEvents > 0 {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%d queued events", v.PendingEvents)))
		b.WriteString("\n")
	}
	if len(v.PendingSeats) > 0 {
		b.WriteString(alertStyle.Render(fmt.Sprintf(
			"Busted seats await fill/skip: %s", strings.Join(v.PendingSeats, ", "))))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSeats(v session.View) string {
	var rows []string
	for _, seat := range v.Seats {
		vis := v.Visuals[seat.ID]
		mark := " "
		if seat.ID == v.ButtonSeatID {
			mark = "D"
		}
		name := seat.Name()
		stack := ""
		if v.Hand != nil {
			if p := v.Hand.Player(seat.ID); p != nil {
				stack = fmt.Sprintf(" %d", p.Stack)
			}
		} else if v.Mode == ledger.ModeCareer && seat.Occupied() {
			stack = fmt.Sprintf(" %d", v.ZoneState.Bankroll[seat.ID])
		}
		line := fmt.Sprintf("%s %-3s %-12s%s  %s", mark, seat.ID, name, stack, vis.LastAction)
		switch {
		case seat.Role == table.RoleHero:
			line = heroStyle.Render(line)
		case !seat.Occupied() || vis.Folded:
			line = foldedStyle.Render(line)
		}
		if seat.ID == v.BattleSeat {
			line += labelStyle.Render(" (focus)")
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}

func renderStats(v session.View) string {
	stats := v.ZoneState.HeroStats
	type row struct {
		key   string
		label string
		r     ledger.Ratio
	}
	rows := []row{
		{"vpip", "VPIP", stats.VPIP},
		{"pfr", "PFR", stats.PFR},
		{"threeBetPreflop", "3-bet preflop", stats.ThreeBetPreflop},
		{"foldToThreeBet", "Fold to 3-bet", stats.FoldToThreeBet},
		{"flopCBet", "Flop c-bet", stats.FlopCBet},
		{"foldVsFlopCBet", "Fold vs c-bet", stats.FoldVsFlopCBet},
		{"postflopReraise", "Postflop reraise", stats.PostflopReraise},
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Hero stats — %d hands tracked", stats.Hands)))
	b.WriteString("\n")
	for _, r := range rows {
		bench := ledger.Benchmarks[r.key]
		pct := r.r.Percent()
		line := fmt.Sprintf("%-17s %5.1f%%  (target %.0f-%.0f%%, %d/%d)",
			r.label, pct, bench.Min, bench.Max, r.r.Hits, r.r.Opportunities)
		if r.r.Opportunities == 0 {
			line = foldedStyle.Render(line)
		} else if pct >= bench.Min && pct <= bench.Max {
			line = okStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render(fmt.Sprintf("Zone record: %d played, %d won, %d tied (%d%% win rate)",
		v.ZoneState.HandsPlayed, v.ZoneState.HandsWon, v.ZoneState.HandsTied, ledger.WinRate(v.ZoneState))))
	return b.String()
}

func renderMissions(v session.View) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s missions", v.Zone.Name)))
	b.WriteString("\n")
	for _, m := range v.ZoneState.Missions {
		status := fmt.Sprintf("%d/%d", m.Progress, m.Target)
		line := fmt.Sprintf("%-24s %-8s +%dxp  %s", m.Title, status, m.RewardXP, m.Detail)
		if m.Completed {
			line = okStyle.Render("✓ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if ledger.MissionsCompleted(v.ZoneState) {
		b.WriteString(okStyle.Render("Zone complete — next zone unlocked."))
	}
	return strings.TrimRight(b.String(), "\n")
}
