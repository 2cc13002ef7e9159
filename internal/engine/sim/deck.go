package sim

import "math/rand"

var ranks = []byte{'2', '3', '4', '5', '6', '7', '8', '9', 'T', 'J', 'Q', 'K', 'A'}
var suits = []byte{'s', 'h', 'd', 'c'}

// newDeck returns a full 52-card deck shuffled with rng.
func newDeck(rng *rand.Rand) []string {
	deck := make([]string, 0, 52)
	for _, r := range ranks {
		for _, s := range suits {
			deck = append(deck, string([]byte{r, s}))
		}
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

func rankValue(card string) int {
	if len(card) == 0 {
		return 0
	}
	switch card[0] {
	case 'A':
		return 14
	case 'K':
		return 13
	case 'Q':
		return 12
	case 'J':
		return 11
	case 'T':
		return 10
	default:
		return int(card[0] - '0')
	}
}

func suitOf(card string) byte {
	if len(card) < 2 {
		return 0
	}
	return card[1]
}

// category ordering, high to low: straight flush 8 .. high card 0.
const (
	catHighCard = iota
	catPair
	catTwoPair
	catTrips
	catStraight
	catFlush
	catFullHouse
	catQuads
	catStraightFlush
)

// evaluate scores a 5-7 card hand. Higher scores win. The score packs
// the hand category above five kicker ranks so direct comparison is a
// total order.
func evaluate(cards []string) int {
	counts := map[int]int{}
	suitCounts := map[byte][]int{}
	for _, c := range cards {
		v := rankValue(c)
		counts[v]++
		suitCounts[suitOf(c)] = append(suitCounts[suitOf(c)], v)
	}

	var flushRanks []int
	for _, vs := range suitCounts {
		if len(vs) >= 5 {
			flushRanks = vs
			break
		}
	}

	straightHigh := func(values map[int]bool) int {
		best := 0
		for high := 14; high >= 5; high-- {
			ok := true
			for off := 0; off < 5; off++ {
				v := high - off
				if v == 1 {
					v = 14 // wheel ace
				}
				if !values[v] {
					ok = false
					break
				}
			}
			if ok {
				best = high
				break
			}
		}
		return best
	}

	present := map[int]bool{}
	for v := range counts {
		present[v] = true
	}

	if len(flushRanks) >= 5 {
		fp := map[int]bool{}
		for _, v := range flushRanks {
			fp[v] = true
		}
		if high := straightHigh(fp); high > 0 {
			return pack(catStraightFlush, high, 0, 0, 0, 0)
		}
	}

	// group ranks by multiplicity, ties broken by rank
	var quads, trips, pairs, singles []int
	for v, n := range counts {
		switch {
		case n >= 4:
			quads = append(quads, v)
		case n == 3:
			trips = append(trips, v)
		case n == 2:
			pairs = append(pairs, v)
		default:
			singles = append(singles, v)
		}
	}
	sortDesc(quads)
	sortDesc(trips)
	sortDesc(pairs)
	sortDesc(singles)

	kicker := func(exclude map[int]bool, n int) []int {
		all := append([]int(nil), singles...)
		all = append(all, pairs...)
		all = append(all, trips...)
		sortDesc(all)
		out := make([]int, 0, n)
		for _, v := range all {
			if exclude[v] {
				continue
			}
			out = append(out, v)
			if len(out) == n {
				break
			}
		}
		for len(out) < n {
			out = append(out, 0)
		}
		return out
	}

	if len(quads) > 0 {
		k := kicker(map[int]bool{quads[0]: true}, 1)
		return pack(catQuads, quads[0], k[0], 0, 0, 0)
	}
	if len(trips) >= 2 {
		return pack(catFullHouse, trips[0], trips[1], 0, 0, 0)
	}
	if len(trips) == 1 && len(pairs) > 0 {
		return pack(catFullHouse, trips[0], pairs[0], 0, 0, 0)
	}
	if len(flushRanks) >= 5 {
		sortDesc(flushRanks)
		return pack(catFlush, flushRanks[0], flushRanks[1], flushRanks[2], flushRanks[3], flushRanks[4])
	}
	if high := straightHigh(present); high > 0 {
		return pack(catStraight, high, 0, 0, 0, 0)
	}
	if len(trips) == 1 {
		k := kicker(map[int]bool{trips[0]: true}, 2)
		return pack(catTrips, trips[0], k[0], k[1], 0, 0)
	}
	if len(pairs) >= 2 {
		k := kicker(map[int]bool{pairs[0]: true, pairs[1]: true}, 1)
		return pack(catTwoPair, pairs[0], pairs[1], k[0], 0, 0)
	}
	if len(pairs) == 1 {
		k := kicker(map[int]bool{pairs[0]: true}, 3)
		return pack(catPair, pairs[0], k[0], k[1], k[2], 0)
	}
	k := kicker(nil, 5)
	return pack(catHighCard, k[0], k[1], k[2], k[3], k[4])
}

func pack(cat int, a, b, c, d, e int) int {
	return cat<<20 | a<<16 | b<<12 | c<<8 | d<<4 | e
}

func sortDesc(vs []int) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j] > vs[j-1]; j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}
