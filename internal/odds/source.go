// Package odds reads market odds from files, the odds service, Redis or a live
// websocket feed and parses them into typed odds books.
package odds

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/paddock/internal/models"
)

const dateLayout = "2006-01-02"

// Source supplies the odds books of a race day keyed by race id
type Source interface {
	Odds(ctx context.Context, date time.Time) (map[string]models.OddsBook, error)
	Name() string
}

// RaceOdds is the wire form of one race: market name to selection key to decimal odds.
// Selection keys are "3" for WIN and PLACE, "1-2" for EXACTA and "1-2-3" for TRIFECTA.
type RaceOdds struct {
	RaceID  string                        `json:"race_id"`
	Markets map[string]map[string]float64 `json:"markets"`
}

// Document is the wire form of one day of odds
type Document struct {
	Date  string     `json:"date"`
	Races []RaceOdds `json:"races"`
}

// Books parses the document into odds books, checking it belongs to date
func (d *Document) Books(date time.Time) (map[string]models.OddsBook, error) {
	want := date.Format(dateLayout)
	if d.Date != "" && d.Date != want {
		return nil, models.NewValidationError("date_mismatch",
			fmt.Sprintf("odds are for %s, requested %s", d.Date, want))
	}

	books := make(map[string]models.OddsBook, len(d.Races))
	for _, race := range d.Races {
		if race.RaceID == "" {
			return nil, models.NewValidationError("race_id_required", "odds entry without race id")
		}
		book, ok := books[race.RaceID]
		if !ok {
			book = models.NewOddsBook(race.RaceID)
		}
		for market, selections := range race.Markets {
			if err := addMarket(&book, market, selections); err != nil {
				return nil, fmt.Errorf("race %s: %w", race.RaceID, err)
			}
		}
		books[race.RaceID] = book
	}
	return books, nil
}

// addMarket parses selection keys once into the typed book
func addMarket(book *models.OddsBook, market string, selections map[string]float64) error {
	mt, err := models.ParseMarketType(market)
	if err != nil {
		return err
	}
	for selection, price := range selections {
		if err := book.Set(mt, selection, price); err != nil {
			return err
		}
	}
	return nil
}
