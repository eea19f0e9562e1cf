package weather

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Query describes the point and time range to fetch.
type Query struct {
	Name         string  `validate:"required"`
	Latitude     float64 `validate:"gte=-90,lte=90"`
	Longitude    float64 `validate:"gte=-180,lte=180"`
	Elevation    float64 `validate:"gte=0,lte=9000"`
	PastDays     int     `validate:"gte=0,lte=92"`
	ForecastDays int     `validate:"gte=0,lte=16"`
}

// Validate checks the query is within the ranges the provider accepts.
func (q Query) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid weather query for %q: %w", q.Name, err)
	}
	return nil
}

// Source provides hourly weather series.
type Source interface {
	Fetch(ctx context.Context, q Query) (*Series, error)
}
