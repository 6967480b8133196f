package publisher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yourusername/paddock/internal/atomicfile"
	"github.com/yourusername/paddock/internal/models"
)

// FilePublisher atomically writes the latest plan of each day to <dir>/<YYYY-MM-DD>.json,
// or to path itself when it names a .json file
type FilePublisher struct {
	path string
}

// NewFilePublisher creates a file publisher
func NewFilePublisher(path string) *FilePublisher {
	return &FilePublisher{path: path}
}

// Name returns the publisher name
func (p *FilePublisher) Name() string {
	return "file"
}

// Publish replaces the published plan of the day
func (p *FilePublisher) Publish(ctx context.Context, plan *models.AllocationPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(plan)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(p.target(plan), data, 0o644); err != nil {
		return fmt.Errorf("failed to publish plan %s: %w", plan.PlanID, err)
	}
	return nil
}

func (p *FilePublisher) target(plan *models.AllocationPlan) string {
	if strings.EqualFold(filepath.Ext(p.path), ".json") {
		return p.path
	}
	return filepath.Join(p.path, plan.Date.Format(dateLayout)+".json")
}

// Close is a no-op
func (p *FilePublisher) Close() error {
	return nil
}
