package models

import (
	"fmt"
	"strings"
)

// MarketType represents the type of pool a bet is placed in
type MarketType string

const (
	MarketTypeWin      MarketType = "WIN"
	MarketTypePlace    MarketType = "PLACE"
	MarketTypeExacta   MarketType = "EXACTA"
	MarketTypeTrifecta MarketType = "TRIFECTA"
)

// ParseMarketType parses a market name case-insensitively
func ParseMarketType(s string) (MarketType, error) {
	switch m := MarketType(strings.ToUpper(strings.TrimSpace(s))); m {
	case MarketTypeWin, MarketTypePlace, MarketTypeExacta, MarketTypeTrifecta:
		return m, nil
	default:
		return "", NewValidationError("invalid_market", fmt.Sprintf("unknown market type %q", s))
	}
}

// OddsBook holds decimal odds per selection for one race. A selection missing from
// a map has no market and is never treated as odds of zero.
type OddsBook struct {
	RaceID   string             `json:"race_id"`
	Win      map[int]float64    `json:"win,omitempty"`
	Place    map[int]float64    `json:"place,omitempty"`
	Exacta   map[Pair]float64   `json:"exacta,omitempty"`
	Trifecta map[Triple]float64 `json:"trifecta,omitempty"`
}

// NewOddsBook returns an empty book for a race
func NewOddsBook(raceID string) OddsBook {
	return OddsBook{
		RaceID:   raceID,
		Win:      make(map[int]float64),
		Place:    make(map[int]float64),
		Exacta:   make(map[Pair]float64),
		Trifecta: make(map[Triple]float64),
	}
}

// Set stores odds for a selection given in its text form ("3", "1-2", "1-2-3")
func (b *OddsBook) Set(market MarketType, selection string, odds float64) error {
	switch market {
	case MarketTypeWin, MarketTypePlace:
		id, err := ParseRunnerID(selection)
		if err != nil {
			return err
		}
		if market == MarketTypeWin {
			if b.Win == nil {
				b.Win = make(map[int]float64)
			}
			b.Win[id] = odds
		} else {
			if b.Place == nil {
				b.Place = make(map[int]float64)
			}
			b.Place[id] = odds
		}
	case MarketTypeExacta:
		var pair Pair
		if err := pair.UnmarshalText([]byte(selection)); err != nil {
			return err
		}
		if b.Exacta == nil {
			b.Exacta = make(map[Pair]float64)
		}
		b.Exacta[pair] = odds
	case MarketTypeTrifecta:
		var triple Triple
		if err := triple.UnmarshalText([]byte(selection)); err != nil {
			return err
		}
		if b.Trifecta == nil {
			b.Trifecta = make(map[Triple]float64)
		}
		b.Trifecta[triple] = odds
	default:
		return NewValidationError("invalid_market", fmt.Sprintf("unknown market type %q", market))
	}
	return nil
}

// Len returns the number of priced selections across all markets
func (b *OddsBook) Len() int {
	return len(b.Win) + len(b.Place) + len(b.Exacta) + len(b.Trifecta)
}
