package odds

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

// FileSource reads <dir>/<YYYY-MM-DD>.json, or a single file when path is not a directory
type FileSource struct {
	path string
}

// NewFileSource creates a source reading odds files under path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the source name
func (s *FileSource) Name() string {
	return "file"
}

// Odds reads the odds document of the date
func (s *FileSource) Odds(ctx context.Context, date time.Time) (map[string]models.OddsBook, error) {
	path := s.path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, date.Format(dateLayout)+".json")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("odds file %s: %w", path, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read odds file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, models.NewValidationError("malformed_odds", fmt.Sprintf("odds file %s: %v", path, err))
	}
	return doc.Books(date)
}
