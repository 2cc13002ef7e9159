package main

import (
	"fmt"
	"strings"

	"github.com/lox/pokertrainer/internal/config"
	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/store"
)

// ReviewCmd browses recorded hands: a summary list by default, or one
// hand's full action history with --id.
type ReviewCmd struct {
	ID    string `help:"Show a single hand record"`
	Limit int    `help:"Number of hands to list" default:"20"`
}

func (c *ReviewCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.DB != "" {
		cfg.Trainer.DBPath = cli.DB
	}
	logger := setupLogger(cli.Debug, cfg.Trainer.LogLevel)

	db, err := store.Open(cfg.Trainer.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := signalContext(logger)

	if c.ID != "" {
		rec, err := db.GetHandRecord(ctx, c.ID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no hand record %q", c.ID)
		}
		printRecord(rec)
		return nil
	}

	records, err := db.ListHandRecords(ctx, cfg.Trainer.Profile, c.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no recorded hands yet")
		return nil
	}
	total, err := db.CountHandRecords(ctx, cfg.Trainer.Profile)
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("Recent hands (%d of %d)", len(records), total)))
	for _, r := range records {
		outcome := r.Winner
		switch r.Winner {
		case engine.WinnerHero:
			outcome = okStyle.Render("won")
		case engine.WinnerOpponent:
			outcome = foldedStyle.Render("lost")
		case engine.WinnerTie:
			outcome = labelStyle.Render("tied")
		}
		fmt.Printf("%s  %s  %-9s pot %-5d %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.ID, r.ZoneID, r.Pot, outcome)
		if r.ResultText != "" {
			fmt.Println(labelStyle.Render("    " + r.ResultText))
		}
	}
	return nil
}

func printRecord(rec *store.HandRecord) {
	h := rec.Hand
	fmt.Println(titleStyle.Render(fmt.Sprintf("Hand %s — %s", rec.ID, rec.ZoneID)))
	fmt.Printf("%s  pot %d  winner %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Pot, rec.Winner)
	if len(h.Board) > 0 {
		fmt.Printf("board: %s\n", strings.Join(h.Board[:h.RevealedBoardCount], " "))
	}
	for _, p := range h.Players {
		fmt.Printf("  %-3s %-12s %s  start %d, end %d\n",
			p.ID, p.Name, strings.Join(p.Cards, " "), p.StartingStack, p.Stack)
	}
	fmt.Println(titleStyle.Render("Action"))
	street := engine.Street("")
	for _, e := range rec.ActionHistory {
		if e.Street != street {
			street = e.Street
			fmt.Println(labelStyle.Render("  -- " + string(street)))
		}
		if e.ActorID == "" {
			continue
		}
		line := fmt.Sprintf("  %-12s %s", e.ActorName, e.Action)
		if e.Amount > 0 {
			line += fmt.Sprintf(" %d", e.Amount)
		}
		if e.AllIn {
			line += " (all-in)"
		}
		if e.ForcedBlind != "" {
			line += fmt.Sprintf(" [%s]", e.ForcedBlind)
		}
		fmt.Println(line)
	}
	if h.ResultText != "" {
		fmt.Println(hintStyle.Render(h.ResultText))
	}
}
