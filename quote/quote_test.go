package quote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/angas/solarquote-go/calc"
	"github.com/angas/solarquote-go/catalog"
	"github.com/angas/solarquote-go/optimize"
	"github.com/angas/solarquote-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCities struct {
	cities []string
	err    error
	called bool
}

func (f *fakeCities) GetCities(ctx context.Context, postalCode string) ([]string, error) {
	f.called = true
	return f.cities, f.err
}

type fakeGeocoder struct {
	pos types.Coordinates
	err error
}

func (f fakeGeocoder) GetCoordinates(ctx context.Context, city string) (types.Coordinates, error) {
	return f.pos, f.err
}

type fakeYield struct {
	kWh    float64
	err    error
	aspect int
}

func (f *fakeYield) GetAnnualYield(ctx context.Context, pos types.Coordinates, aspect int) (float64, error) {
	f.aspect = aspect
	return f.kWh, f.err
}

func newTestService(cities *fakeCities, geo fakeGeocoder, yield *fakeYield) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sel := optimize.NewSelector(logger, catalog.DefaultCatalog(), catalog.DefaultRateTable(), calc.DefaultSavingsProjector())
	return NewService(logger, cities, geo, yield, sel)
}

func TestCities(t *testing.T) {
	cities := &fakeCities{cities: []string{"Toulouse"}}
	s := newTestService(cities, fakeGeocoder{}, &fakeYield{})

	got, err := s.Cities(context.Background(), "31000")
	require.NoError(t, err)
	assert.Equal(t, []string{"Toulouse"}, got)
}

func TestCitiesInvalidPostalCode(t *testing.T) {
	for _, pc := range []string{"", "3100", "ABCDE", "310000"} {
		cities := &fakeCities{}
		s := newTestService(cities, fakeGeocoder{}, &fakeYield{})
		_, err := s.Cities(context.Background(), pc)
		assert.ErrorIs(t, err, ErrInvalidRequest, pc)
		assert.False(t, cities.called, "lookup must not run for %q", pc)
	}
}

func TestCitiesLookupError(t *testing.T) {
	s := newTestService(&fakeCities{err: types.ErrNotFound}, fakeGeocoder{}, &fakeYield{})
	_, err := s.Cities(context.Background(), "00000")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestQuote(t *testing.T) {
	yield := &fakeYield{kWh: 1200}
	geo := fakeGeocoder{pos: types.Coordinates{Latitude: 43.6, Longitude: 1.44}}
	s := newTestService(&fakeCities{}, geo, yield)

	q, err := s.Quote(context.Background(), Request{
		City:          "Toulouse",
		Aspect:        "SUD-EST",
		MonthlyBudget: 200,
		Connection:    "monophase",
	})
	require.NoError(t, err)

	assert.Equal(t, -45, yield.aspect)
	assert.Equal(t, types.AspectSouthEast, q.Aspect)
	assert.Equal(t, calc.ConnectionSinglePhase, q.Connection)
	assert.Equal(t, 1200.0, q.AnnualYield)
	assert.Equal(t, geo.pos, q.Position)
	require.True(t, q.Selection.Best.IsValid())
	assert.Equal(t, catalog.Capacity(7), q.Selection.Best.Value().Capacity)
	require.True(t, q.Selection.NextLower.IsValid())
	assert.Equal(t, catalog.Capacity(6), q.Selection.NextLower.Value().Capacity)
}

func TestQuoteValidation(t *testing.T) {
	valid := Request{City: "Toulouse", Aspect: "SUD", MonthlyBudget: 150, Connection: "triphase"}

	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{name: "missing city", mutate: func(r *Request) { r.City = "" }},
		{name: "unknown aspect", mutate: func(r *Request) { r.Aspect = "NORD" }},
		{name: "zero budget", mutate: func(r *Request) { r.MonthlyBudget = 0 }},
		{name: "negative budget", mutate: func(r *Request) { r.MonthlyBudget = -10 }},
		{name: "infinite budget", mutate: func(r *Request) { r.MonthlyBudget = math.Inf(1) }},
		{name: "NaN budget", mutate: func(r *Request) { r.MonthlyBudget = math.NaN() }},
		{name: "unknown connection", mutate: func(r *Request) { r.Connection = "biphase" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			s := newTestService(&fakeCities{}, fakeGeocoder{}, &fakeYield{kWh: 1200})
			_, err := s.Quote(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestQuoteLookupFailures(t *testing.T) {
	boom := errors.New("boom")

	_, err := newTestService(&fakeCities{}, fakeGeocoder{err: types.ErrNotFound}, &fakeYield{kWh: 1200}).
		Quote(context.Background(), Request{City: "X", Aspect: "SUD", MonthlyBudget: 100, Connection: "monophase"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = newTestService(&fakeCities{}, fakeGeocoder{}, &fakeYield{err: boom}).
		Quote(context.Background(), Request{City: "X", Aspect: "SUD", MonthlyBudget: 100, Connection: "monophase"})
	assert.ErrorIs(t, err, boom)

	_, err = newTestService(&fakeCities{}, fakeGeocoder{}, &fakeYield{kWh: 0}).
		Quote(context.Background(), Request{City: "X", Aspect: "SUD", MonthlyBudget: 100, Connection: "monophase"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}
