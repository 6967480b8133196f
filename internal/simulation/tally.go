package simulation

import (
	"sort"

	"github.com/yourusername/paddock/internal/models"
)

// tally accumulates finish-order counts in dense arrays indexed by runner position.
// Tallies from different workers merge by addition.
type tally struct {
	n          int
	trials     int64
	win        []int64
	place      []int64
	exacta     []int64
	trifecta   []int64
	degenerate int64
}

func newTally(n int) *tally {
	t := &tally{
		n:      n,
		win:    make([]int64, n),
		place:  make([]int64, n),
		exacta: make([]int64, n*n),
	}
	if n >= 3 {
		t.trifecta = make([]int64, n*n*n)
	}
	return t
}

func (t *tally) add(order []int) {
	t.trials++
	t.win[order[0]]++

	places := min(3, t.n)
	for _, idx := range order[:places] {
		t.place[idx]++
	}

	a, b := order[0], order[1]
	if a > b {
		a, b = b, a
	}
	t.exacta[a*t.n+b]++

	if t.trifecta != nil {
		t.trifecta[(order[0]*t.n+order[1])*t.n+order[2]]++
	}
}

func (t *tally) merge(o *tally) {
	t.trials += o.trials
	t.degenerate += o.degenerate
	for i, c := range o.win {
		t.win[i] += c
	}
	for i, c := range o.place {
		t.place[i] += c
	}
	for i, c := range o.exacta {
		t.exacta[i] += c
	}
	for i, c := range o.trifecta {
		t.trifecta[i] += c
	}
}

type tripleCount struct {
	key   models.Triple
	count int64
}

// probabilities converts counts to frequencies keyed by runner id. The trifecta map
// keeps only the topN most frequent orderings, ties broken by key order.
func (t *tally) probabilities(ids []int, topN int) (win, place map[int]float64, exacta map[models.Pair]float64, trifecta map[models.Triple]float64) {
	k := float64(t.trials)
	win = make(map[int]float64, t.n)
	place = make(map[int]float64, t.n)
	for i, id := range ids {
		win[id] = float64(t.win[i]) / k
		place[id] = float64(t.place[i]) / k
	}

	exacta = make(map[models.Pair]float64)
	for a := 0; a < t.n; a++ {
		for b := a + 1; b < t.n; b++ {
			if c := t.exacta[a*t.n+b]; c > 0 {
				exacta[models.NewPair(ids[a], ids[b])] = float64(c) / k
			}
		}
	}

	trifecta = make(map[models.Triple]float64)
	if t.trifecta == nil || topN <= 0 {
		return win, place, exacta, trifecta
	}

	counts := make([]tripleCount, 0, 64)
	for idx, c := range t.trifecta {
		if c == 0 {
			continue
		}
		first := idx / (t.n * t.n)
		second := (idx / t.n) % t.n
		third := idx % t.n
		counts = append(counts, tripleCount{
			key:   models.Triple{First: ids[first], Second: ids[second], Third: ids[third]},
			count: c,
		})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].key.Less(counts[j].key)
	})
	if len(counts) > topN {
		counts = counts[:topN]
	}
	for _, tc := range counts {
		trifecta[tc.key] = float64(tc.count) / k
	}
	return win, place, exacta, trifecta
}
