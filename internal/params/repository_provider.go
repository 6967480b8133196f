package params

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/paddock/internal/models"
	"github.com/yourusername/paddock/internal/repository"
)

// RepositoryProvider reads parameters stored in the database
type RepositoryProvider struct {
	repo repository.RaceParameterRepository
}

// NewRepositoryProvider creates a provider backed by repo
func NewRepositoryProvider(repo repository.RaceParameterRepository) *RepositoryProvider {
	return &RepositoryProvider{repo: repo}
}

// Name returns the provider name
func (p *RepositoryProvider) Name() string {
	return "postgres"
}

// RaceParameters loads the stored races of the date
func (p *RepositoryProvider) RaceParameters(ctx context.Context, date time.Time) ([]models.RaceParameter, error) {
	races, err := p.repo.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(races) == 0 {
		return nil, fmt.Errorf("no stored parameters for %s: %w", date.Format(dateLayout), models.ErrNotFound)
	}
	return races, nil
}
