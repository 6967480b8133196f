package allocation

import (
	"math"
	"sort"
	"strconv"

	"github.com/yourusername/paddock/internal/models"
)

// buildCandidates joins a race's simulated probabilities with its odds for each
// enabled market. A selection without odds has no market and yields nothing; a
// selection without a simulated probability is skipped as well, which matters for
// trifectas since the record keeps only the most frequent orderings. Odds that are
// not above 1 are reported through invalid and skipped.
func buildCandidates(record *models.SimulationRecord, book models.OddsBook, markets []models.MarketType,
	invalid func(market models.MarketType, selection string, odds float64)) []models.BettingCandidate {
	var out []models.BettingCandidate

	add := func(market models.MarketType, selection string, p, odds float64) {
		if !(odds > 1) || math.IsInf(odds, 0) {
			invalid(market, selection, odds)
			return
		}
		out = append(out, models.BettingCandidate{
			RaceID:        record.RaceID,
			Market:        market,
			Selection:     selection,
			Probability:   p,
			Odds:          odds,
			ExpectedValue: p * odds,
		})
	}

	for _, market := range markets {
		switch market {
		case models.MarketTypeWin, models.MarketTypePlace:
			prices, probs := book.Win, record.WinProbs
			if market == models.MarketTypePlace {
				prices, probs = book.Place, record.PlaceProbs
			}
			ids := make([]int, 0, len(prices))
			for id := range prices {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			for _, id := range ids {
				p, ok := probs[id]
				if !ok {
					continue
				}
				add(market, strconv.Itoa(id), p, prices[id])
			}

		case models.MarketTypeExacta:
			pairs := make([]models.Pair, 0, len(book.Exacta))
			for pair := range book.Exacta {
				pairs = append(pairs, pair)
			}
			sort.Slice(pairs, func(i, j int) bool {
				if pairs[i].A != pairs[j].A {
					return pairs[i].A < pairs[j].A
				}
				return pairs[i].B < pairs[j].B
			})
			for _, pair := range pairs {
				p, ok := record.ExactaProbs[pair]
				if !ok {
					continue
				}
				add(market, pair.String(), p, book.Exacta[pair])
			}

		case models.MarketTypeTrifecta:
			triples := make([]models.Triple, 0, len(book.Trifecta))
			for triple := range book.Trifecta {
				triples = append(triples, triple)
			}
			sort.Slice(triples, func(i, j int) bool { return triples[i].Less(triples[j]) })
			for _, triple := range triples {
				p, ok := record.TrifectaProbs[triple]
				if !ok {
					continue
				}
				add(market, triple.String(), p, book.Trifecta[triple])
			}
		}
	}
	return out
}
