package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/paddock/internal/atomicfile"
	"github.com/yourusername/paddock/internal/models"
)

const (
	recordExt   = ".json"
	datePattern = "[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]"
)

// FileSimulationRecordRepository stores one JSON document per record under
// <dir>/<YYYY-MM-DD>/<race_id>/<sim_id>.json
type FileSimulationRecordRepository struct {
	dir string
}

// NewFileSimulationRecordRepository creates a file record repository rooted at dir
func NewFileSimulationRecordRepository(dir string) SimulationRecordRepository {
	return &FileSimulationRecordRepository{dir: dir}
}

// Save writes the record once; an existing sim id is never overwritten
func (r *FileSimulationRecordRepository) Save(ctx context.Context, raceDate time.Time, record *models.SimulationRecord) error {
	if err := ctx.Err(); err != nil {
		return models.NewPersistenceError("save record", err)
	}
	if err := checkPathElement("race id", record.RaceID); err != nil {
		return err
	}
	if err := checkPathElement("sim id", record.SimID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return models.NewPersistenceError("encode record", err)
	}

	path := filepath.Join(r.dir, day(raceDate), record.RaceID, record.SimID+recordExt)
	if err := atomicfile.Create(path, data, 0o644); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("record %s: %w", record.SimID, models.ErrDuplicateKey)
		}
		return models.NewPersistenceError("save record", err)
	}
	return nil
}

// GetByID finds a record by sim id across all dates
func (r *FileSimulationRecordRepository) GetByID(ctx context.Context, simID string) (*models.SimulationRecord, error) {
	if err := checkPathElement("sim id", simID); err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(r.dir, datePattern, "*", simID+recordExt))
	if err != nil {
		return nil, models.NewPersistenceError("find record", err)
	}
	if len(matches) == 0 {
		return nil, models.ErrNotFound
	}
	return readRecord(matches[0])
}

// GetLatestByRace returns the newest record stored for the race on the date
func (r *FileSimulationRecordRepository) GetLatestByRace(ctx context.Context, raceDate time.Time, raceID string) (*models.SimulationRecord, error) {
	if err := checkPathElement("race id", raceID); err != nil {
		return nil, err
	}

	records, err := r.readDir(ctx, filepath.Join(r.dir, day(raceDate), raceID))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, models.ErrNotFound
	}
	return LatestPerRace(records)[0], nil
}

// ListByDate returns every record stored for the date ordered by race and creation time
func (r *FileSimulationRecordRepository) ListByDate(ctx context.Context, raceDate time.Time) ([]*models.SimulationRecord, error) {
	root := filepath.Join(r.dir, day(raceDate))
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewPersistenceError("list records", err)
	}

	var records []*models.SimulationRecord
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		raceRecords, err := r.readDir(ctx, filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		records = append(records, raceRecords...)
	}
	sortRecords(records)
	return records, nil
}

func (r *FileSimulationRecordRepository) readDir(ctx context.Context, dir string) ([]*models.SimulationRecord, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewPersistenceError("list records", err)
	}

	var records []*models.SimulationRecord
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, models.NewPersistenceError("list records", err)
		}
		name := entry.Name()
		// Skip temp files from in-flight writes
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != recordExt {
			continue
		}
		record, err := readRecord(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func readRecord(path string) (*models.SimulationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewPersistenceError("read record", err)
	}
	var record models.SimulationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, models.NewPersistenceError("decode record", fmt.Errorf("%s: %w", path, err))
	}
	return &record, nil
}

// checkPathElement rejects ids that would escape their directory
func checkPathElement(kind, value string) error {
	if value == "" || value == "." || value == ".." ||
		strings.ContainsAny(value, `/\`) || strings.Contains(value, "..") {
		return models.NewValidationError("invalid_path_element", fmt.Sprintf("%s %q cannot be used as a file name", kind, value))
	}
	return nil
}
