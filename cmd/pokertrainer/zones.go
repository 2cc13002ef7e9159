package main

import (
	"fmt"
	"strings"

	"github.com/lox/pokertrainer/internal/config"
	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/ledger"
	"github.com/lox/pokertrainer/internal/progress"
	"github.com/lox/pokertrainer/internal/store"
	"github.com/lox/pokertrainer/internal/table"
)

// ZonesCmd lists the training zones with the saved profile's unlock
// and mission state.
type ZonesCmd struct{}

func (c *ZonesCmd) Run(cli *CLI) error {
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
	env, err := db.LoadSnapshot(ctx, cfg.Trainer.Profile)
	if err != nil {
		logger.Warn("snapshot load failed", "error", err)
	}

	prog := progress.New()
	training := map[string]ledger.ZoneState{}
	if env != nil {
		prog = progress.Normalize(env.Progress)
		training = env.ZoneTraining
	}
	unlocked := progress.UnlockedZone(prog, training)

	for i, zone := range engine.Zones() {
		status := okStyle.Render("unlocked")
		if i > unlocked {
			status = foldedStyle.Render(fmt.Sprintf("locked (needs %d XP)", zone.UnlockXP))
		}
		fmt.Printf("%s %d. %s — %s [%s]\n",
			titleStyle.Render("▸"), i, zone.Name, zone.Subtitle, status)

		if st, ok := training[zone.ID]; ok {
			done := 0
			for _, m := range st.Missions {
				if m.Completed {
					done++
				}
			}
			fmt.Println(labelStyle.Render(fmt.Sprintf(
				"   bankroll %d  •  %d/%d missions  •  %d hands (%d%% won)",
				st.Bankroll[table.HeroSeatID], done, len(st.Missions),
				st.HandsPlayed, ledger.WinRate(st))))
		}

		names := make([]string, 0, len(zone.Pool))
		for _, p := range zone.Pool {
			names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Archetype))
		}
		fmt.Println(labelStyle.Render("   pool: " + strings.Join(names, ", ")))
	}
	return nil
}
