package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/ledger"
	"github.com/lox/pokertrainer/internal/progress"
	"github.com/lox/pokertrainer/internal/snapshot"
)

// HandRecord is the durable trace of one completed hand: the full
// final hand state plus the bankroll, stats, and progress snapshots
// taken after settlement.
type HandRecord struct {
	ID            string
	ProfileID     string
	ZoneID        string
	CreatedAt     time.Time
	Winner        string
	HeroSeat      string
	Pot           int
	BigBlind      int
	ResultText    string
	StageChips    map[engine.Street]int
	ActionHistory []engine.LogEntry
	Bankroll      map[string]int
	HeroStats     ledger.HeroStats
	Progress      progress.State
	Hand          engine.Hand
}

// RecordSummary is the list view of a hand record.
type RecordSummary struct {
	ID         string
	ZoneID     string
	CreatedAt  time.Time
	Winner     string
	Pot        int
	BigBlind   int
	ResultText string
}

// SaveHandRecord appends a completed hand.
func (s *Store) SaveHandRecord(ctx context.Context, rec HandRecord) error {
	if rec.ID == "" || rec.ProfileID == "" {
		return fmt.Errorf("store: hand record requires id and profile id")
	}
	stageChips, err := json.Marshal(rec.StageChips)
	if err != nil {
		return fmt.Errorf("store: encode stage chips: %w", err)
	}
	history, err := json.Marshal(rec.ActionHistory)
	if err != nil {
		return fmt.Errorf("store: encode action history: %w", err)
	}
	bankroll, err := json.Marshal(rec.Bankroll)
	if err != nil {
		return fmt.Errorf("store: encode bankroll: %w", err)
	}
	heroStats, err := json.Marshal(rec.HeroStats)
	if err != nil {
		return fmt.Errorf("store: encode hero stats: %w", err)
	}
	prog, err := json.Marshal(rec.Progress)
	if err != nil {
		return fmt.Errorf("store: encode progress: %w", err)
	}
	hand, err := json.Marshal(rec.Hand)
	if err != nil {
		return fmt.Errorf("store: encode hand: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hand_records (
			id, profile_id, zone_id, created_at, winner, hero_seat, pot, big_blind, result_text,
			stage_chips_json, action_history_json, bankroll_json, hero_stats_json, progress_json, hand_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProfileID, rec.ZoneID, createdAt.UnixMilli(), rec.Winner, rec.HeroSeat,
		rec.Pot, rec.BigBlind, rec.ResultText,
		string(stageChips), string(history), string(bankroll), string(heroStats), string(prog), string(hand),
	)
	if err != nil {
		return fmt.Errorf("store: save hand record: %w", err)
	}
	return nil
}

// CountHandRecords returns the number of recorded hands for a profile.
func (s *Store) CountHandRecords(ctx context.Context, profileID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hand_records WHERE profile_id = ?`, profileID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count hand records: %w", err)
	}
	return n, nil
}

// ListZoneStats aggregates recorded hand outcomes per zone. Recorded
// hands are ground truth: restored zone counters are reconciled
// against these totals.
func (s *Store) ListZoneStats(ctx context.Context, profileID string) ([]snapshot.ZoneStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT zone_id,
			COUNT(*),
			COUNT(*) FILTER (WHERE winner = 'hero'),
			COUNT(*) FILTER (WHERE winner = 'tie')
		FROM hand_records
		WHERE profile_id = ?
		GROUP BY zone_id`, profileID)
	if err != nil {
		return nil, fmt.Errorf("store: list zone stats: %w", err)
	}
	defer rows.Close()

	var stats []snapshot.ZoneStats
	for rows.Next() {
		var zs snapshot.ZoneStats
		if err := rows.Scan(&zs.ZoneID, &zs.HandsPlayed, &zs.HandsWon, &zs.HandsTied); err != nil {
			return nil, fmt.Errorf("store: scan zone stats: %w", err)
		}
		stats = append(stats, zs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate zone stats: %w", err)
	}
	return stats, nil
}

// ListHandRecords returns the most recent hands for a profile, newest
// first.
func (s *Store) ListHandRecords(ctx context.Context, profileID string, limit int) ([]RecordSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, zone_id, created_at, winner, pot, big_blind, result_text
		FROM hand_records
		WHERE profile_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list hand records: %w", err)
	}
	defer rows.Close()

	var out []RecordSummary
	for rows.Next() {
		var sum RecordSummary
		var createdAt int64
		if err := rows.Scan(&sum.ID, &sum.ZoneID, &createdAt, &sum.Winner, &sum.Pot, &sum.BigBlind, &sum.ResultText); err != nil {
			return nil, fmt.Errorf("store: scan hand record: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate hand records: %w", err)
	}
	return out, nil
}

// GetHandRecord loads a full hand record by id, or nil when absent.
func (s *Store) GetHandRecord(ctx context.Context, id string) (*HandRecord, error) {
	var rec HandRecord
	var createdAt int64
	var stageChips, history, bankroll, heroStats, prog, hand string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, zone_id, created_at, winner, hero_seat, pot, big_blind, result_text,
			stage_chips_json, action_history_json, bankroll_json, hero_stats_json, progress_json, hand_json
		FROM hand_records WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.ProfileID, &rec.ZoneID, &createdAt, &rec.Winner, &rec.HeroSeat,
		&rec.Pot, &rec.BigBlind, &rec.ResultText,
		&stageChips, &history, &bankroll, &heroStats, &prog, &hand)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load hand record: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	decode := func(name, raw string, target any) error {
		if err := json.Unmarshal([]byte(raw), target); err != nil {
			return fmt.Errorf("store: decode %s: %w", name, err)
		}
		return nil
	}
	if err := decode("stage chips", stageChips, &rec.StageChips); err != nil {
		return nil, err
	}
	if err := decode("action history", history, &rec.ActionHistory); err != nil {
		return nil, err
	}
	if err := decode("bankroll", bankroll, &rec.Bankroll); err != nil {
		return nil, err
	}
	if err := decode("hero stats", heroStats, &rec.HeroStats); err != nil {
		return nil, err
	}
	if err := decode("progress", prog, &rec.Progress); err != nil {
		return nil, err
	}
	if err := decode("hand", hand, &rec.Hand); err != nil {
		return nil, err
	}
	return &rec, nil
}
