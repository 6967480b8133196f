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

const plansDir = "plans"

// FileAllocationRepository stores plans under <dir>/plans/<YYYY-MM-DD>/<plan_id>.json
type FileAllocationRepository struct {
	dir string
}

// NewFileAllocationRepository creates a file plan repository rooted at dir
func NewFileAllocationRepository(dir string) AllocationRepository {
	return &FileAllocationRepository{dir: dir}
}

// Save writes the plan once
func (r *FileAllocationRepository) Save(ctx context.Context, plan *models.AllocationPlan) error {
	if err := ctx.Err(); err != nil {
		return models.NewPersistenceError("save plan", err)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return models.NewPersistenceError("encode plan", err)
	}

	path := filepath.Join(r.dir, plansDir, day(plan.Date), plan.PlanID.String()+recordExt)
	if err := atomicfile.Create(path, data, 0o644); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("plan %s: %w", plan.PlanID, models.ErrDuplicateKey)
		}
		return models.NewPersistenceError("save plan", err)
	}
	return nil
}

// GetLatestByDate returns the most recently created plan for the date
func (r *FileAllocationRepository) GetLatestByDate(ctx context.Context, date time.Time) (*models.AllocationPlan, error) {
	dir := filepath.Join(r.dir, plansDir, day(date))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewPersistenceError("list plans", err)
	}

	var latest *models.AllocationPlan
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != recordExt {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, models.NewPersistenceError("read plan", err)
		}
		var plan models.AllocationPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, models.NewPersistenceError("decode plan", fmt.Errorf("%s: %w", name, err))
		}
		if latest == nil || plan.CreatedAt.After(latest.CreatedAt) {
			latest = &plan
		}
	}
	if latest == nil {
		return nil, models.ErrNotFound
	}
	return latest, nil
}
