package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// simIDNamespace scopes sim ids so they never collide with ids from other generators.
var simIDNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("paddock.simulation_record"))

// SimulationRecord is the immutable outcome summary of one race simulation.
//
// TrifectaProbs is truncated to the most frequent orderings and does not sum to 1;
// callers must not assume it lists every ordering that occurred.
type SimulationRecord struct {
	SimID         string             `db:"sim_id" json:"sim_id"`
	RaceID        string             `db:"race_id" json:"race_id"`
	ModelID       string             `db:"model_id" json:"model_id"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	K             int                `db:"k" json:"K"`
	WinProbs      map[int]float64    `json:"win_probs"`
	PlaceProbs    map[int]float64    `json:"place_probs"`
	ExactaProbs   map[Pair]float64   `json:"exacta_probs"`
	TrifectaProbs map[Triple]float64 `json:"trifecta_probs"`
}

// NewSimID derives the record id from race, model and creation time
func NewSimID(raceID, modelID string, createdAt time.Time) string {
	name := fmt.Sprintf("%s|%s|%s", raceID, modelID, createdAt.UTC().Format(time.RFC3339Nano))
	return uuid.NewSHA1(simIDNamespace, []byte(name)).String()
}

// WinMass returns the sum of win probabilities
func (s *SimulationRecord) WinMass() float64 {
	total := 0.0
	for _, p := range s.WinProbs {
		total += p
	}
	return total
}

// ExactaMass returns the sum of exacta probabilities
func (s *SimulationRecord) ExactaMass() float64 {
	total := 0.0
	for _, p := range s.ExactaProbs {
		total += p
	}
	return total
}

// Favourite returns the runner with the highest win probability, lowest id on ties
func (s *SimulationRecord) Favourite() (int, float64) {
	ids := make([]int, 0, len(s.WinProbs))
	for id := range s.WinProbs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	best, bestProb := 0, -1.0
	for _, id := range ids {
		if p := s.WinProbs[id]; p > bestProb {
			best, bestProb = id, p
		}
	}
	return best, bestProb
}
