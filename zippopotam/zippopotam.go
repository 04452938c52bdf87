package zippopotam

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

const BASE_URL = "http://api.zippopotam.us"

type place struct {
	PlaceName string `json:"place name"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type response struct {
	PostCode string  `json:"post code"`
	Country  string  `json:"country"`
	Places   []place `json:"places"`
}

// Zippopotam resolves French postal codes into place names.
type Zippopotam struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func New(baseURL string, timeout time.Duration, limiter *rate.Limiter) Zippopotam {
	if baseURL == "" {
		baseURL = BASE_URL
	}
	return Zippopotam{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

func (z Zippopotam) GetCities(ctx context.Context, postalCode string) (cities []string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLookup("zippopotam", start, err) }()

	if z.limiter != nil {
		if err := z.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for zippopotam rate limit: %w", err)
		}
	}

	reqURL := fmt.Sprintf("%s/fr/%s", z.baseURL, url.PathEscape(postalCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := z.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("postal code %s: %w", postalCode, types.ErrNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data response
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(data.Places) == 0 {
		return nil, fmt.Errorf("postal code %s: %w", postalCode, types.ErrNotFound)
	}

	cities = make([]string, 0, len(data.Places))
	for _, p := range data.Places {
		cities = append(cities, p.PlaceName)
	}

	return cities, nil
}
