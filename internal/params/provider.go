// Package params reads the per-race runner parameters produced by the model service.
package params

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/paddock/internal/models"
)

const dateLayout = "2006-01-02"

// Provider supplies the race parameters of a race day
type Provider interface {
	RaceParameters(ctx context.Context, date time.Time) ([]models.RaceParameter, error)
	Name() string
}

// Document is the wire form of one day of parameters, shared by the file and
// HTTP providers
type Document struct {
	Date  string                 `json:"date"`
	Races []models.RaceParameter `json:"races"`
}

// races checks the document belongs to date and returns its races
func (d *Document) races(date time.Time) ([]models.RaceParameter, error) {
	want := date.Format(dateLayout)
	if d.Date != "" && d.Date != want {
		return nil, models.NewValidationError("date_mismatch",
			fmt.Sprintf("parameters are for %s, requested %s", d.Date, want))
	}
	return d.Races, nil
}
