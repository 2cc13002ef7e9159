package snapshot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/ledger"
	"github.com/lox/pokertrainer/internal/table"
)

func pickFirst(zone engine.Zone) *engine.Profile {
	if len(zone.Pool) == 0 {
		return nil
	}
	p := zone.Pool[0]
	return &p
}

func defaultSeats(zone engine.Zone) []table.Seat {
	return table.DefaultSeats(zone, rand.New(rand.NewSource(1)))
}

func TestSerializeSeatsRoundTrip(t *testing.T) {
	zone := engine.ZoneByIndex(0)
	seats := defaultSeats(zone)
	persisted := SerializeSeats(seats)
	require.Len(t, persisted, len(table.Layout))

	restored := RestoreSeats(persisted, zone, pickFirst)
	require.Len(t, restored, len(table.Layout))
	for i := range seats {
		assert.Equal(t, seats[i].ID, restored[i].ID)
		assert.Equal(t, seats[i].Role, restored[i].Role)
		if seats[i].Role == table.RoleOpponent {
			require.NotNil(t, restored[i].Profile)
			assert.Equal(t, seats[i].Profile.ID, restored[i].Profile.ID)
		}
	}
}

func TestRestoreSeatsForcesHeroToAnchor(t *testing.T) {
	zone := engine.ZoneByIndex(0)

	// A corrupted snapshot claiming the hero sits elsewhere.
	persisted := []PersistedSeat{
		{ID: "utg", Role: string(table.RoleHero)},
		{ID: "bb", Role: string(table.RoleOpponent), ProfileID: zone.Pool[0].ID},
	}
	seats := RestoreSeats(persisted, zone, pickFirst)

	hero := table.ByID(seats, table.HeroSeatID)
	require.NotNil(t, hero)
	assert.Equal(t, table.RoleHero, hero.Role)
	assert.NotEqual(t, table.RoleHero, table.ByID(seats, "utg").Role)
}

func TestRestoreSeatsRedrawsUnknownProfiles(t *testing.T) {
	zone := engine.ZoneByIndex(0)
	persisted := []PersistedSeat{
		{ID: "bb", Role: string(table.RoleOpponent), ProfileID: "no-such-profile"},
	}
	seats := RestoreSeats(persisted, zone, pickFirst)

	bb := table.ByID(seats, "bb")
	require.NotNil(t, bb.Profile)
	assert.Equal(t, zone.Pool[0].ID, bb.Profile.ID)
}

func TestRestoreSeatsSeedsAnOpponent(t *testing.T) {
	zone := engine.ZoneByIndex(0)

	// Snapshot with every opponent seat empty: play must still be able
	// to resume, so one opponent gets seated.
	persisted := []PersistedSeat{{ID: "btn", Role: string(table.RoleHero)}}
	seats := RestoreSeats(persisted, zone, pickFirst)

	opponents := 0
	for _, seat := range seats {
		if seat.Role == table.RoleOpponent {
			opponents++
			require.NotNil(t, seat.Profile)
		}
	}
	assert.Equal(t, 1, opponents)
}

func TestRestoreSeatsEmptySnapshot(t *testing.T) {
	zone := engine.ZoneByIndex(0)
	seats := RestoreSeats(nil, zone, pickFirst)
	hero := table.ByID(seats, table.HeroSeatID)
	assert.Equal(t, table.RoleHero, hero.Role)
	for _, seat := range seats {
		if seat.ID != table.HeroSeatID {
			assert.Equal(t, table.RoleEmpty, seat.Role)
		}
	}
}

func TestRestoreZoneTrainingCoversCatalog(t *testing.T) {
	zone := engine.ZoneByIndex(0)
	stored := map[string]ledger.ZoneState{
		zone.ID: func() ledger.ZoneState {
			st := ledger.NewZoneState(zone, defaultSeats(zone))
			st.HandsPlayed = 12
			st.HandsWon = 7
			return st
		}(),
	}

	out := RestoreZoneTraining(stored, defaultSeats)
	require.Len(t, out, len(engine.Zones()))
	for _, z := range engine.Zones() {
		st, ok := out[z.ID]
		require.True(t, ok, "zone %s missing from restored ledgers", z.ID)
		if z.ID == zone.ID {
			assert.Equal(t, 12, st.HandsPlayed)
			assert.Equal(t, 7, st.HandsWon)
		} else {
			assert.Equal(t, 0, st.HandsPlayed)
		}
	}
}

func TestMergeRecordedStatsOverwritesCounters(t *testing.T) {
	zone := engine.ZoneByIndex(0)
	zt := map[string]ledger.ZoneState{
		zone.ID: ledger.NewZoneState(zone, defaultSeats(zone)),
	}

	out := MergeRecordedStats(zt, []ZoneStats{
		{ZoneID: zone.ID, HandsPlayed: 10, HandsWon: 4, HandsTied: 1},
	})
	st := out[zone.ID]
	assert.Equal(t, 10, st.HandsPlayed)
	assert.Equal(t, 4, st.HandsWon)
	assert.Equal(t, 1, st.HandsTied)
}

func TestMergeRecordedStatsClampsInconsistentCounts(t *testing.T) {
	zone := engine.ZoneByIndex(0)
	zt := map[string]ledger.ZoneState{
		zone.ID: ledger.NewZoneState(zone, defaultSeats(zone)),
	}

	out := MergeRecordedStats(zt, []ZoneStats{
		{ZoneID: zone.ID, HandsPlayed: 5, HandsWon: 9, HandsTied: 9},
	})
	st := out[zone.ID]
	assert.Equal(t, 5, st.HandsPlayed)
	assert.Equal(t, 5, st.HandsWon)
	assert.Equal(t, 0, st.HandsTied)

	// Unknown zones pass through untouched.
	out = MergeRecordedStats(zt, []ZoneStats{{ZoneID: "nowhere", HandsPlayed: 99}})
	assert.Equal(t, 0, out[zone.ID].HandsPlayed)
}
