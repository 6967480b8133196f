// Package repository persists simulation records, allocation plans and race
// parameters on the file system, PostgreSQL or SQLite.
package repository

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/yourusername/paddock/internal/database"
	"github.com/yourusername/paddock/internal/models"
)

const dateLayout = "2006-01-02"

// Repositories holds the repository implementations selected by configuration
type Repositories struct {
	Backend    string
	Records    SimulationRecordRepository
	Plans      AllocationRepository
	Parameters RaceParameterRepository
}

// NewFileRepositories creates file backed repositories rooted at dir
func NewFileRepositories(dir string) *Repositories {
	return &Repositories{
		Backend: "file",
		Records: NewFileSimulationRecordRepository(dir),
		Plans:   NewFileAllocationRepository(dir),
	}
}

// NewPostgresRepositories creates PostgreSQL backed repositories
func NewPostgresRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &Repositories{
		Backend:    "postgres",
		Records:    NewPostgresSimulationRecordRepository(db),
		Plans:      NewPostgresAllocationRepository(db),
		Parameters: NewPostgresRaceParameterRepository(db),
	}, nil
}

// NewSQLiteRepositories creates SQLite backed repositories
func NewSQLiteRepositories(db *sql.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite connection is required")
	}
	return &Repositories{
		Backend: "sqlite",
		Records: NewSQLiteSimulationRecordRepository(db),
		Plans:   NewSQLiteAllocationRepository(db),
	}, nil
}

// LatestPerRace keeps the newest record of each race, ordered by race id
func LatestPerRace(records []*models.SimulationRecord) []*models.SimulationRecord {
	latest := make(map[string]*models.SimulationRecord)
	for _, r := range records {
		if cur, ok := latest[r.RaceID]; !ok || newer(r, cur) {
			latest[r.RaceID] = r
		}
	}

	out := make([]*models.SimulationRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RaceID < out[j].RaceID })
	return out
}

func newer(a, b *models.SimulationRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.SimID > b.SimID
}

func sortRecords(records []*models.SimulationRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].RaceID != records[j].RaceID {
			return records[i].RaceID < records[j].RaceID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

func day(t time.Time) string {
	return t.Format(dateLayout)
}

func dayTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
