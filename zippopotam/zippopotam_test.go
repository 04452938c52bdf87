package zippopotam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angas/solarquote-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestGetCities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fr/31000", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"post code": "31000",
			"country": "France",
			"places": [
				{"place name": "Toulouse", "latitude": "43.6043", "longitude": "1.4437"},
				{"place name": "Toulouse Cedex", "latitude": "43.6043", "longitude": "1.4437"}
			]
		}`))
	}))
	defer srv.Close()

	z := New(srv.URL, 5*time.Second, rate.NewLimiter(rate.Inf, 1))
	cities, err := z.GetCities(context.Background(), "31000")
	require.NoError(t, err)
	assert.Equal(t, []string{"Toulouse", "Toulouse Cedex"}, cities)
}

func TestGetCitiesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 5*time.Second, nil).GetCities(context.Background(), "00000")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetCitiesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, 5*time.Second, nil).GetCities(context.Background(), "31000")
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrNotFound)
}
