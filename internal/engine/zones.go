package engine

// Blind and stack defaults shared by every training zone.
const (
	SmallBlindSize       = 1
	BigBlindSize         = 2
	StartingBB           = 100
	DefaultStartingStack = BigBlindSize * StartingBB
)

// Zone is a training room: fixed blinds, a starting stack, and a pool
// of scripted opponents tuned to a difficulty tier.
type Zone struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Subtitle      string    `json:"subtitle"`
	UnlockXP      int       `json:"unlockXp"`
	SmallBlind    int       `json:"smallBlind"`
	BigBlind      int       `json:"bigBlind"`
	StartingStack int       `json:"startingStack"`
	Pool          []Profile `json:"pool"`
}

// PoolProfile returns the pool member with the given id, or nil.
func (z Zone) PoolProfile(id string) *Profile {
	for i := range z.Pool {
		if z.Pool[i].ID == id {
			return &z.Pool[i]
		}
	}
	return nil
}

var zones = []Zone{
	{
		ID: "rookie", Name: "Rookie Room", Subtitle: "Loose tables, forgiving mistakes",
		UnlockXP: 0, SmallBlind: SmallBlindSize, BigBlind: BigBlindSize, StartingStack: DefaultStartingStack,
		Pool: []Profile{
			{ID: "rk-milo", Name: "Milo", Archetype: "Nit", Skill: 0.25, Aggression: 0.2, BluffRate: 0.08,
				Leaks: LeakProfile{OverFoldsToRaise: true, MissesThinValue: true}},
			{ID: "rk-tina", Name: "Tina", Archetype: "LAG", Skill: 0.3, Aggression: 0.55, BluffRate: 0.3,
				Leaks: LeakProfile{CallsTooWide: true, OverBluffsRiver: true}},
		},
	},
	{
		ID: "starter", Name: "Starter Hall", Subtitle: "Positional basics start to matter",
		UnlockXP: 320, SmallBlind: SmallBlindSize, BigBlind: BigBlindSize, StartingStack: DefaultStartingStack,
		Pool: []Profile{
			{ID: "st-gus", Name: "Gus", Archetype: "TAG", Skill: 0.4, Aggression: 0.45, BluffRate: 0.18,
				Leaks: LeakProfile{CBetsTooMuch: true}},
			{ID: "st-vera", Name: "Vera", Archetype: "Nit", Skill: 0.42, Aggression: 0.25, BluffRate: 0.1,
				Leaks: LeakProfile{OverFoldsToRaise: true}},
			{ID: "st-kofi", Name: "Kofi", Archetype: "LAG", Skill: 0.38, Aggression: 0.6, BluffRate: 0.34,
				Leaks: LeakProfile{OverBluffsRiver: true, CallsTooWide: true}},
		},
	},
	{
		ID: "advanced", Name: "Advanced Floor", Subtitle: "Opponents fight back on later streets",
		UnlockXP: 900, SmallBlind: SmallBlindSize, BigBlind: BigBlindSize, StartingStack: DefaultStartingStack,
		Pool: []Profile{
			{ID: "ad-rex", Name: "Rex", Archetype: "LAG", Skill: 0.55, Aggression: 0.65, BluffRate: 0.36,
				Leaks: LeakProfile{OverBluffsRiver: true}},
			{ID: "ad-sable", Name: "Sable", Archetype: "TAG", Skill: 0.58, Aggression: 0.5, BluffRate: 0.22,
				Leaks: LeakProfile{CBetsTooMuch: true, MissesThinValue: true}},
		},
	},
	{
		ID: "pro", Name: "Pro Table", Subtitle: "Thin edges, disciplined ranges",
		UnlockXP: 1800, SmallBlind: SmallBlindSize, BigBlind: BigBlindSize, StartingStack: DefaultStartingStack,
		Pool: []Profile{
			{ID: "pr-ines", Name: "Ines", Archetype: "TAG", Skill: 0.7, Aggression: 0.55, BluffRate: 0.24,
				Leaks: LeakProfile{MissesThinValue: true}},
			{ID: "pr-dmitri", Name: "Dmitri", Archetype: "Maniac", Skill: 0.62, Aggression: 0.8, BluffRate: 0.45,
				Leaks: LeakProfile{OverBluffsRiver: true, CallsTooWide: true}},
		},
	},
	{
		ID: "legend", Name: "Legend Lounge", Subtitle: "Every leak gets punished",
		UnlockXP: 3200, SmallBlind: SmallBlindSize, BigBlind: BigBlindSize, StartingStack: DefaultStartingStack,
		Pool: []Profile{
			{ID: "lg-wren", Name: "Wren", Archetype: "TAG", Skill: 0.82, Aggression: 0.6, BluffRate: 0.26,
				Leaks: LeakProfile{}},
			{ID: "lg-orso", Name: "Orso", Archetype: "LAG", Skill: 0.78, Aggression: 0.72, BluffRate: 0.38,
				Leaks: LeakProfile{OverBluffsRiver: true}},
		},
	},
	{
		ID: "godrealm", Name: "God Realm", Subtitle: "The final reading test",
		UnlockXP: 5200, SmallBlind: SmallBlindSize, BigBlind: BigBlindSize, StartingStack: DefaultStartingStack,
		Pool: []Profile{
			{ID: "gr-aria", Name: "Aria", Archetype: "TAG", Skill: 0.92, Aggression: 0.64, BluffRate: 0.28,
				Leaks: LeakProfile{}},
			{ID: "gr-void", Name: "Void", Archetype: "Maniac", Skill: 0.88, Aggression: 0.85, BluffRate: 0.5,
				Leaks: LeakProfile{OverBluffsRiver: true}},
		},
	},
}

// Zones returns the ordered training zone catalog. The slice is shared;
// callers must not mutate it.
func Zones() []Zone {
	return zones
}

// ZoneByID looks a zone up by id.
func ZoneByID(id string) (Zone, bool) {
	for _, z := range zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// ZoneByIndex returns the zone at idx, clamped into range.
func ZoneByIndex(idx int) Zone {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(zones) {
		idx = len(zones) - 1
	}
	return zones[idx]
}

// ClampZoneIndex clamps idx into the catalog range.
func ClampZoneIndex(idx int) int {
	if idx < 0 {
		return 0
	}
	if idx >= len(zones) {
		return len(zones) - 1
	}
	return idx
}

// FindProfile searches every zone pool for the profile with the given
// id. Used when restoring persisted seats.
func FindProfile(id string) *Profile {
	for zi := range zones {
		if p := zones[zi].PoolProfile(id); p != nil {
			return p
		}
	}
	return nil
}
