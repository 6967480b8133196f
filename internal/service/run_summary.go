package service

import (
	"fmt"
	"sync"
	"time"
)

// RunSummary tracks statistics about a daily run
type RunSummary struct {
	mu               sync.RWMutex
	StartTime        time.Time
	Duration         time.Duration
	TotalRaces       int
	SimulatedRaces   int
	RejectedRaces    int
	PersistedRecords int
	PersistFailures  int
	Trials           int
}

// NewRunSummary creates a new summary starting now
func NewRunSummary() *RunSummary {
	return &RunSummary{StartTime: time.Now()}
}

// RecordSimulated counts a simulated race and its trials
func (s *RunSummary) RecordSimulated(trials int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SimulatedRaces++
	s.Trials += trials
}

// RecordRejected counts a race rejected as malformed
func (s *RunSummary) RecordRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RejectedRaces++
}

// RecordPersisted counts a stored record
func (s *RunSummary) RecordPersisted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PersistedRecords++
}

// RecordPersistFailure counts a record that could not be stored
func (s *RunSummary) RecordPersistFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PersistFailures++
}

// Finish stamps the run duration
func (s *RunSummary) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Duration = time.Since(s.StartTime)
}

// String returns a formatted string representation of the summary
func (s *RunSummary) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fmt.Sprintf(
		"RunSummary{Races=%d, Simulated=%d, Rejected=%d, Persisted=%d, PersistFailures=%d, Trials=%d, Duration=%v}",
		s.TotalRaces,
		s.SimulatedRaces,
		s.RejectedRaces,
		s.PersistedRecords,
		s.PersistFailures,
		s.Trials,
		s.Duration,
	)
}
