package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokertrainer/internal/config"
	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/engine/sim"
	"github.com/lox/pokertrainer/internal/feed"
	"github.com/lox/pokertrainer/internal/ledger"
	"github.com/lox/pokertrainer/internal/session"
	"github.com/lox/pokertrainer/internal/store"
)

// PlayCmd runs the interactive trainer loop.
type PlayCmd struct {
	Zone     int    `help:"Zone index to enter" default:"-1"`
	Practice bool   `help:"Start in practice mode (fixed stacks, reduced XP)"`
	Seed     *int64 `help:"Deterministic RNG seed"`
	Fresh    bool   `help:"Ignore any saved session"`
	Feed     bool   `help:"Serve the spectator WebSocket feed"`
}

func (c *PlayCmd) Run(cli *CLI) error {
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
	profile, err := db.EnsureProfile(ctx, cfg.Trainer.Profile, "Hero")
	if err != nil {
		return err
	}

	seed := cfg.Trainer.Seed
	if c.Seed != nil {
		seed = *c.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Debug("rng seeded", "seed", seed)

	sess := session.New(session.Config{
		Clock:            quartz.NewReal(),
		Logger:           logger,
		Engine:           sim.New(seed),
		Saver:            db,
		Recorder:         db,
		ProfileID:        profile.ID,
		Seed:             seed,
		SnapshotDebounce: cfg.Trainer.SnapshotDebounce(),
		BankruptcyDelay:  cfg.Trainer.BankruptcyDelay(),
	})

	if !c.Fresh {
		env, err := db.LoadSnapshot(ctx, profile.ID)
		if err != nil {
			logger.Warn("snapshot load failed, rebuilding from hand history", "error", err)
			env = nil
		}
		recorded, err := db.ListZoneStats(ctx, profile.ID)
		if err != nil {
			logger.Warn("zone stats load failed", "error", err)
		}
		sess.Restore(env, recorded)
	}
	if cfg.Trainer.AutoPlay != nil {
		sess.SetAutoPlay(*cfg.Trainer.AutoPlay)
	}
	if c.Practice {
		if err := sess.SetMode(ledger.ModePractice); err != nil {
			return err
		}
	}

	zoneIdx := c.Zone
	if zoneIdx < 0 {
		zoneIdx = zoneIndex(sess.View().Zone)
	}
	if err := sess.EnterZone(zoneIdx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if c.Feed || cfg.Feed.Enabled {
		feedSrv := feed.NewServer(sess, logger)
		g.Go(func() error {
			return feedSrv.Run(gctx, cfg.Feed.Listen)
		})
	}
	g.Go(func() error {
		return runREPL(gctx, sess)
	})

	err = g.Wait()
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if flushErr := sess.Flush(flushCtx); flushErr != nil {
		logger.Warn("final snapshot flush failed", "error", flushErr)
	}
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func zoneIndex(z engine.Zone) int {
	for i, candidate := range engine.Zones() {
		if candidate.ID == z.ID {
			return i
		}
	}
	return 0
}

// runREPL reads commands from stdin until quit or cancellation.
func runREPL(ctx context.Context, sess *session.Session) error {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println(renderView(sess.View()))
	fmt.Println(helpText)

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := dispatch(sess, strings.Fields(strings.TrimSpace(line)))
			if err != nil {
				fmt.Println(renderError(err))
			}
			if quit {
				return nil
			}
		}
	}
}

const helpText = `Commands:
  deal                 start the next hand
  fold|check|call      act on the hero's turn
  raise <chips>        raise by adding <chips> to the pot
  step | drain         release queued table events (auto off)
  auto on|off          toggle event auto-play
  table                redraw the table
  stats | missions     zone report
  seats                list seats
  sit <seat> [id]      seat an opponent
  kick <seat>          empty a seat
  focus <seat>         pick the battle opponent
  fill | skip          resolve emptied seats
  guess <seat> <leak>  call an opponent's leak
  rescue subsidy|loan  recover from bankruptcy
  practice             continue bankrupt in practice mode
  zone <index>         move to another zone
  reset                reset this zone's ledger
  lobby                stand up from the table
  quit`

func dispatch(sess *session.Session, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Println(renderView(sess.View()))
		return false, nil
	}
	cmd := strings.ToLower(args[0])
	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "h", "?":
		fmt.Println(helpText)
		return false, nil
	case "deal", "d":
		if err := sess.StartHand(); err != nil {
			return false, err
		}
	case "fold", "check", "call":
		if err := sess.HeroAction(engine.Action(cmd), 0); err != nil {
			return false, err
		}
	case "raise", "bet", "r":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: raise <chips>")
		}
		amount, err := strconv.Atoi(args[1])
		if err != nil || amount <= 0 {
			return false, fmt.Errorf("raise amount must be a positive number")
		}
		if err := sess.HeroAction(engine.Raise, amount); err != nil {
			return false, err
		}
	case "step", "s":
		if !sess.StepEvent() {
			fmt.Println("nothing to step (queue empty or auto-play on)")
		}
	case "drain":
		sess.DrainEvents()
	case "auto":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: auto on|off")
		}
		sess.SetAutoPlay(args[1] == "on")
	case "table", "t":
		// fallthrough to render below
	case "stats":
		fmt.Println(renderStats(sess.View()))
		return false, nil
	case "missions", "m":
		fmt.Println(renderMissions(sess.View()))
		return false, nil
	case "seats":
		fmt.Println(renderSeats(sess.View()))
		return false, nil
	case "sit":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: sit <seat> [profile-id]")
		}
		profileID := ""
		if len(args) > 2 {
			profileID = args[2]
		}
		if err := sess.AddOpponent(args[1], profileID); err != nil {
			return false, err
		}
	case "kick":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: kick <seat>")
		}
		if err := sess.RemoveOpponent(args[1]); err != nil {
			return false, err
		}
	case "focus":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: focus <seat>")
		}
		if err := sess.SelectSeat(args[1]); err != nil {
			return false, err
		}
	case "fill":
		if err := sess.FillPendingSeats(); err != nil {
			return false, err
		}
	case "skip":
		if err := sess.SkipPendingSeats(); err != nil {
			return false, err
		}
	case "guess":
		if len(args) < 3 {
			return false, fmt.Errorf("usage: guess <seat> <leak>")
		}
		correct, err := sess.GuessLeak(args[1], args[2])
		if err != nil {
			return false, err
		}
		if correct {
			fmt.Println("Good read.")
		} else {
			fmt.Println("Not this one.")
		}
		return false, nil
	case "rescue":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: rescue subsidy|loan")
		}
		if err := sess.Rescue(ledger.RescueKind(args[1])); err != nil {
			return false, err
		}
	case "practice":
		if err := sess.ContinueInPractice(); err != nil {
			return false, err
		}
	case "zone":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: zone <index>")
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return false, fmt.Errorf("zone index must be a number")
		}
		if err := sess.EnterZone(idx); err != nil {
			return false, err
		}
	case "reset":
		if err := sess.ResetZone(); err != nil {
			return false, err
		}
	case "lobby":
		sess.ReturnToLobby()
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	fmt.Println(renderView(sess.View()))
	return false, nil
}
