package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/snapshot"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trainer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestEnsureProfile(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	created, err := s.EnsureProfile(ctx, "local", "Hero")
	require.NoError(t, err)
	assert.Equal(t, "local", created.ID)
	assert.Equal(t, "Hero", created.DisplayName)
	assert.False(t, created.CreatedAt.IsZero())

	// Second call keeps the original display name and creation time.
	again, err := s.EnsureProfile(ctx, "local", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Hero", again.DisplayName)
	assert.Equal(t, created.CreatedAt.UnixMilli(), again.CreatedAt.UnixMilli())
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.EnsureProfile(ctx, "local", "Hero")
	require.NoError(t, err)

	loaded, err := s.LoadSnapshot(ctx, "local")
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing snapshot loads as nil, not an error")

	env := snapshot.Envelope{
		SchemaVersion: snapshot.SchemaVersion,
		SavedAt:       time.Now().UTC(),
		ZoneIndex:     1,
		AutoPlay:      true,
	}
	require.NoError(t, s.SaveSnapshot(ctx, "local", env))

	loaded, err = s.LoadSnapshot(ctx, "local")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1, loaded.ZoneIndex)
	assert.True(t, loaded.AutoPlay)

	// Saving again overwrites in place.
	env.ZoneIndex = 2
	require.NoError(t, s.SaveSnapshot(ctx, "local", env))
	loaded, err = s.LoadSnapshot(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.ZoneIndex)
}

func TestLoadSnapshotRejectsSchemaMismatch(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.EnsureProfile(ctx, "local", "Hero")
	require.NoError(t, err)

	env := snapshot.Envelope{SchemaVersion: snapshot.SchemaVersion + 1}
	require.NoError(t, s.SaveSnapshot(ctx, "local", env))

	_, err = s.LoadSnapshot(ctx, "local")
	require.ErrorIs(t, err, ErrSnapshotSchema)
}

func record(id string, createdAt time.Time, zoneID, winner string) HandRecord {
	return HandRecord{
		ID:         id,
		ProfileID:  "local",
		ZoneID:     zoneID,
		CreatedAt:  createdAt,
		Winner:     winner,
		HeroSeat:   "btn",
		Pot:        40,
		BigBlind:   2,
		ResultText: "Hero takes the pot of 40",
		StageChips: map[engine.Street]int{engine.Preflop: 10, engine.Flop: 30},
		ActionHistory: []engine.LogEntry{
			{Street: engine.Preflop, ActorID: "btn", ActorName: "Hero", Action: engine.Raise, Amount: 6, Text: "Hero raises 6"},
		},
		Bankroll: map[string]int{"btn": 220, "bb": 180},
		Hand:     engine.Hand{ID: id, Winner: winner, Pot: 40},
	}
}

func TestHandRecordRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.EnsureProfile(ctx, "local", "Hero")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.SaveHandRecord(ctx, record("h1", now, "rookie", engine.WinnerHero)))

	got, err := s.GetHandRecord(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rookie", got.ZoneID)
	assert.Equal(t, engine.WinnerHero, got.Winner)
	assert.Equal(t, now, got.CreatedAt)
	assert.Equal(t, 30, got.StageChips[engine.Flop])
	require.Len(t, got.ActionHistory, 1)
	assert.Equal(t, "Hero raises 6", got.ActionHistory[0].Text)
	assert.Equal(t, 220, got.Bankroll["btn"])
	assert.Equal(t, "h1", got.Hand.ID)

	missing, err := s.GetHandRecord(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveHandRecordRequiresIDs(t *testing.T) {
	s := openStore(t)
	err := s.SaveHandRecord(context.Background(), HandRecord{ID: "h1"})
	require.Error(t, err)
}

func TestListHandRecordsNewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.EnsureProfile(ctx, "local", "Hero")
	require.NoError(t, err)

	base := time.Now().UTC()
	for i, id := range []string{"h1", "h2", "h3"} {
		require.NoError(t, s.SaveHandRecord(ctx, record(id, base.Add(time.Duration(i)*time.Minute), "rookie", engine.WinnerOpponent)))
	}

	list, err := s.ListHandRecords(ctx, "local", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "h3", list[0].ID)
	assert.Equal(t, "h2", list[1].ID)

	n, err := s.CountHandRecords(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestListZoneStats(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.EnsureProfile(ctx, "local", "Hero")
	require.NoError(t, err)

	base := time.Now().UTC()
	require.NoError(t, s.SaveHandRecord(ctx, record("h1", base, "rookie", engine.WinnerHero)))
	require.NoError(t, s.SaveHandRecord(ctx, record("h2", base.Add(time.Second), "rookie", engine.WinnerOpponent)))
	require.NoError(t, s.SaveHandRecord(ctx, record("h3", base.Add(2*time.Second), "rookie", engine.WinnerTie)))
	require.NoError(t, s.SaveHandRecord(ctx, record("h4", base.Add(3*time.Second), "grinder", engine.WinnerHero)))

	stats, err := s.ListZoneStats(ctx, "local")
	require.NoError(t, err)

	byZone := map[string]snapshot.ZoneStats{}
	for _, zs := range stats {
		byZone[zs.ZoneID] = zs
	}
	require.Contains(t, byZone, "rookie")
	assert.Equal(t, 3, byZone["rookie"].HandsPlayed)
	assert.Equal(t, 1, byZone["rookie"].HandsWon)
	assert.Equal(t, 1, byZone["rookie"].HandsTied)
	require.Contains(t, byZone, "grinder")
	assert.Equal(t, 1, byZone["grinder"].HandsPlayed)
}
