package gisco

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/angas/solarquote-go/metrics"
	"github.com/angas/solarquote-go/types"
	"golang.org/x/time/rate"
)

const BASE_URL = "https://gisco-services.ec.europa.eu"

type geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

type feature struct {
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// Gisco geocodes place names with the Eurostat GISCO geocoding service.
type Gisco struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func New(baseURL string, timeout time.Duration, limiter *rate.Limiter) Gisco {
	if baseURL == "" {
		baseURL = BASE_URL
	}
	return Gisco{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

func (g Gisco) GetCoordinates(ctx context.Context, city string) (pos types.Coordinates, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLookup("gisco", start, err) }()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return types.Coordinates{}, fmt.Errorf("waiting for gisco rate limit: %w", err)
		}
	}

	params := url.Values{}
	params.Set("lang", "en")
	params.Set("limit", "1")
	params.Set("q", city)
	reqURL := fmt.Sprintf("%s/api?%s", g.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.Coordinates{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return types.Coordinates{}, fmt.Errorf("failed to fetch coordinates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Coordinates{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return types.Coordinates{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(fc.Features) == 0 || len(fc.Features[0].Geometry.Coordinates) < 2 {
		return types.Coordinates{}, fmt.Errorf("city %q: %w", city, types.ErrNotFound)
	}

	coords := fc.Features[0].Geometry.Coordinates
	return types.Coordinates{Latitude: coords[1], Longitude: coords[0]}, nil
}
