package params

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/paddock/internal/models"
)

// FileProvider reads <dir>/<YYYY-MM-DD>.json
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider reading parameter files from dir
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Name returns the provider name
func (p *FileProvider) Name() string {
	return "file"
}

// RaceParameters reads the parameter file of the date
func (p *FileProvider) RaceParameters(ctx context.Context, date time.Time) ([]models.RaceParameter, error) {
	path := filepath.Join(p.dir, date.Format(dateLayout)+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("parameters file %s: %w", path, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, models.NewValidationError("malformed_parameters",
			fmt.Sprintf("parameters file %s: %v", path, err))
	}
	return doc.races(date)
}
