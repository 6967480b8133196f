package service

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/paddock/internal/models"
)

// OddsValidator cross-checks odds books against the simulated fields
type OddsValidator struct {
	logger *logrus.Entry
}

// NewOddsValidator creates a new odds validator
func NewOddsValidator(logger *logrus.Logger) *OddsValidator {
	return &OddsValidator{logger: logger.WithField("component", "odds_validator")}
}

// Validate returns one warning per race without a record and per priced runner the
// record does not know about. Such odds can never produce a candidate.
func (v *OddsValidator) Validate(records []*models.SimulationRecord, books map[string]models.OddsBook) []string {
	known := make(map[string]map[int]struct{}, len(records))
	for _, r := range records {
		ids := make(map[int]struct{}, len(r.WinProbs))
		for id := range r.WinProbs {
			ids[id] = struct{}{}
		}
		known[r.RaceID] = ids
	}

	raceIDs := make([]string, 0, len(books))
	for raceID := range books {
		raceIDs = append(raceIDs, raceID)
	}
	sort.Strings(raceIDs)

	var warnings []string
	for _, raceID := range raceIDs {
		ids, ok := known[raceID]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("odds for race %s which has no simulation record", raceID))
			continue
		}
		for _, id := range bookRunners(books[raceID]) {
			if _, ok := ids[id]; !ok {
				warnings = append(warnings, fmt.Sprintf("race %s prices runner %d which is not in the field", raceID, id))
			}
		}
	}

	for _, w := range warnings {
		v.logger.Warn(w)
	}
	return warnings
}

func bookRunners(book models.OddsBook) []int {
	seen := make(map[int]struct{})
	add := func(ids ...int) {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	for id := range book.Win {
		add(id)
	}
	for id := range book.Place {
		add(id)
	}
	for p := range book.Exacta {
		add(p.A, p.B)
	}
	for t := range book.Trifecta {
		add(t.First, t.Second, t.Third)
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
