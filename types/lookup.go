package types

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups that got a valid but empty answer.
var ErrNotFound = errors.New("not found")

type Coordinates struct {
	Latitude  float64 // WGS84
	Longitude float64 // WGS84
}

type CityProvider interface {
	GetCities(ctx context.Context, postalCode string) ([]string, error)
}

type Geocoder interface {
	GetCoordinates(ctx context.Context, city string) (Coordinates, error)
}

// YieldProvider estimates the annual production in kWh of 1 kWp installed at
// the given position, aspect in degrees where 0 is south, -90 east and 90 west.
type YieldProvider interface {
	GetAnnualYield(ctx context.Context, pos Coordinates, aspect int) (float64, error)
}
