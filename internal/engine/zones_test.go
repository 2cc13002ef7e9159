package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneCatalogOrder(t *testing.T) {
	zones := Zones()
	require.NotEmpty(t, zones)
	assert.Equal(t, "rookie", zones[0].ID)
	assert.Zero(t, zones[0].UnlockXP)

	// Unlock thresholds strictly increase with the tier.
	for i := 1; i < len(zones); i++ {
		assert.Greater(t, zones[i].UnlockXP, zones[i-1].UnlockXP, "zone %s", zones[i].ID)
	}
	for _, z := range zones {
		assert.NotEmpty(t, z.Pool, "zone %s has no opponents", z.ID)
		assert.Equal(t, BigBlindSize, z.BigBlind)
		assert.Equal(t, DefaultStartingStack, z.StartingStack)
	}
}

func TestZoneLookups(t *testing.T) {
	z, ok := ZoneByID("rookie")
	require.True(t, ok)
	assert.Equal(t, "Rookie Room", z.Name)
	_, ok = ZoneByID("nope")
	assert.False(t, ok)

	assert.Equal(t, "rookie", ZoneByIndex(-5).ID)
	last := len(Zones()) - 1
	assert.Equal(t, Zones()[last].ID, ZoneByIndex(99).ID)
	assert.Equal(t, 0, ClampZoneIndex(-1))
	assert.Equal(t, last, ClampZoneIndex(99))
}

func TestFindProfile(t *testing.T) {
	p := FindProfile("rk-milo")
	require.NotNil(t, p)
	assert.Equal(t, "Milo", p.Name)
	assert.Nil(t, FindProfile("ghost"))

	assert.Same(t, p, ZoneByIndex(0).PoolProfile("rk-milo"))
}

func TestLeakProfileTags(t *testing.T) {
	assert.Empty(t, LeakProfile{}.Tags())
	tags := LeakProfile{OverFoldsToRaise: true, OverBluffsRiver: true}.Tags()
	assert.Equal(t, []string{"overFoldsToRaise", "overBluffsRiver"}, tags)
}

func TestNextPositionSkipsAbsentSeats(t *testing.T) {
	players := []PlayerState{
		{ID: "utg", Position: UTG, InHand: true},
		{ID: "btn", Position: BTN, InHand: true},
		{ID: "bb", Position: BB, InHand: true},
	}
	assert.Equal(t, BB, NextPosition(BTN, players))
	assert.Equal(t, UTG, NextPosition(BB, players))
	assert.Equal(t, BTN, NextPosition(CO, players))
}

func TestStreetBoardCards(t *testing.T) {
	assert.Equal(t, 0, Preflop.BoardCards())
	assert.Equal(t, 3, Flop.BoardCards())
	assert.Equal(t, 4, Turn.BoardCards())
	assert.Equal(t, 5, River.BoardCards())
	assert.Equal(t, 5, Showdown.BoardCards())
}

func TestHandCloneIsDeep(t *testing.T) {
	h := &Hand{
		ID:      "h1",
		Board:   []string{"ah", "kd", "7c", "2s", "9h"},
		Players: []PlayerState{{ID: "btn", Cards: []string{"as", "ad"}, Stack: 100}},
		History: []LogEntry{{ActorID: "btn", Text: "Hero checks"}},
	}
	c := h.Clone()
	c.Board[0] = "xx"
	c.Players[0].Cards[0] = "xx"
	c.Players[0].Stack = 0
	c.History[0].Text = "changed"

	assert.Equal(t, "ah", h.Board[0])
	assert.Equal(t, "as", h.Players[0].Cards[0])
	assert.Equal(t, 100, h.Players[0].Stack)
	assert.Equal(t, "Hero checks", h.History[0].Text)
}

func TestVoluntary(t *testing.T) {
	assert.True(t, LogEntry{ActorID: "btn", Action: Call}.Voluntary())
	assert.False(t, LogEntry{ActorID: "btn", Action: Raise, ForcedBlind: "sb"}.Voluntary())
}
