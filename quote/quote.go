package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/angas/solarquote-go/calc"
	"github.com/angas/solarquote-go/metrics"
	"github.com/angas/solarquote-go/optimize"
	"github.com/angas/solarquote-go/types"
	"github.com/go-playground/validator/v10"
)

var ErrInvalidRequest = errors.New("invalid request")

type CitiesRequest struct {
	PostalCode string `validate:"required,numeric,len=5"`
}

type Request struct {
	City          string  `validate:"required,max=120"`
	Aspect        string  `validate:"required,oneof=SUD EST OUEST SUD-EST SUD-OUEST"`
	MonthlyBudget float64 `validate:"gt=0,finite"`
	Connection    string  `validate:"required,oneof=monophase triphase"`
}

type Quote struct {
	City          string
	Position      types.Coordinates
	Aspect        types.Aspect
	AnnualYield   float64 // kWh per installed kW and year
	MonthlyBudget float64
	Connection    calc.ConnectionType
	Selection     optimize.Selection
}

// Service runs the lookups needed to turn a location into a yield and then
// selects the best installation for it.
type Service struct {
	logger   *slog.Logger
	validate *validator.Validate
	cities   types.CityProvider
	geocoder types.Geocoder
	yield    types.YieldProvider
	selector *optimize.Selector
}

func NewService(
	logger *slog.Logger,
	cities types.CityProvider,
	geocoder types.Geocoder,
	yield types.YieldProvider,
	selector *optimize.Selector,
) *Service {
	validate := validator.New()
	// Registration only fails on an empty tag or a nil func
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})

	return &Service{
		logger:   logger,
		validate: validate,
		cities:   cities,
		geocoder: geocoder,
		yield:    yield,
		selector: selector,
	}
}

func (s *Service) Cities(ctx context.Context, postalCode string) ([]string, error) {
	if err := s.validate.Struct(CitiesRequest{PostalCode: postalCode}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	cities, err := s.cities.GetCities(ctx, postalCode)
	if err != nil {
		return nil, fmt.Errorf("looking up cities for %s: %w", postalCode, err)
	}
	return cities, nil
}

func (s *Service) Quote(ctx context.Context, req Request) (Quote, error) {
	if err := s.validate.Struct(req); err != nil {
		metrics.Quotes.WithLabelValues("invalid").Inc()
		return Quote{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Both are validated above
	aspect, _ := types.ParseAspect(req.Aspect)
	conn, _ := calc.ParseConnectionType(req.Connection)

	q, err := s.quote(ctx, req.City, aspect, req.MonthlyBudget, conn)
	if err != nil {
		metrics.Quotes.WithLabelValues("error").Inc()
		return Quote{}, err
	}

	if q.Selection.Best.IsValid() {
		metrics.Quotes.WithLabelValues("found").Inc()
	} else {
		metrics.Quotes.WithLabelValues("none").Inc()
	}
	return q, nil
}

func (s *Service) quote(ctx context.Context, city string, aspect types.Aspect, budget float64, conn calc.ConnectionType) (Quote, error) {
	pos, err := s.geocoder.GetCoordinates(ctx, city)
	if err != nil {
		return Quote{}, fmt.Errorf("looking up coordinates for %q: %w", city, err)
	}

	yield, err := s.yield.GetAnnualYield(ctx, pos, aspect.Degrees())
	if err != nil {
		return Quote{}, fmt.Errorf("estimating yield at %.4f,%.4f: %w", pos.Latitude, pos.Longitude, err)
	}
	if yield <= 0 {
		return Quote{}, fmt.Errorf("estimating yield at %.4f,%.4f: %w", pos.Latitude, pos.Longitude, types.ErrNotFound)
	}

	s.logger.Info("yield estimated",
		slog.String("city", city),
		slog.Float64("lat", pos.Latitude),
		slog.Float64("lon", pos.Longitude),
		slog.String("aspect", string(aspect)),
		slog.Float64("yield", yield))

	sel, err := s.selector.SelectBest(yield, budget, conn)
	if err != nil {
		return Quote{}, fmt.Errorf("selecting installation: %w", err)
	}

	return Quote{
		City:          city,
		Position:      pos,
		Aspect:        aspect,
		AnnualYield:   yield,
		MonthlyBudget: budget,
		Connection:    conn,
		Selection:     sel,
	}, nil
}
