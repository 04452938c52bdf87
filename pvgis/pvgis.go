package pvgis

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angas/solarquote-go/metrics"
	"github.com/angas/solarquote-go/types"
	"golang.org/x/time/rate"
)

const BASE_URL = "https://re.jrc.ec.europa.eu"

// Parameters of the simulated 1 kWp reference system.
type Parameters struct {
	RadDatabase string  // e.g. "PVGIS-SARAH2"
	Loss        float64 // System losses in percent
	Angle       float64 // Panel inclination in degrees
	PVTech      string  // e.g. "crystSi"
	UseHorizon  bool
}

func DefaultParameters() Parameters {
	return Parameters{
		RadDatabase: "PVGIS-SARAH2",
		Loss:        14,
		Angle:       35,
		PVTech:      "crystSi",
		UseHorizon:  true,
	}
}

// Pvgis estimates yearly production with the JRC PVGIS PVcalc service.
type Pvgis struct {
	baseURL string
	params  Parameters
	client  *http.Client
	limiter *rate.Limiter
}

func New(baseURL string, params Parameters, timeout time.Duration, limiter *rate.Limiter) Pvgis {
	if baseURL == "" {
		baseURL = BASE_URL
	}
	return Pvgis{
		baseURL: baseURL,
		params:  params,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

func (p Pvgis) GetAnnualYield(ctx context.Context, pos types.Coordinates, aspect int) (kWh float64, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLookup("pvgis", start, err) }()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("waiting for pvgis rate limit: %w", err)
		}
	}

	useHorizon := "0"
	if p.params.UseHorizon {
		useHorizon = "1"
	}

	q := url.Values{}
	q.Set("outputformat", "basic")
	q.Set("lat", strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(pos.Longitude, 'f', -1, 64))
	q.Set("raddatabase", p.params.RadDatabase)
	q.Set("peakpower", "1")
	q.Set("loss", strconv.FormatFloat(p.params.Loss, 'f', -1, 64))
	q.Set("pvtechchoice", p.params.PVTech)
	q.Set("angle", strconv.FormatFloat(p.params.Angle, 'f', -1, 64))
	q.Set("aspect", strconv.Itoa(aspect))
	q.Set("usehorizon", useHorizon)
	reqURL := fmt.Sprintf("%s/api/v5_2/PVcalc?%s", p.baseURL, q.Encode())

	slog.Default().Debug("fetching yield from PVGIS...", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch yield: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return parseYearlyYield(bufio.NewScanner(resp.Body))
}

// The basic output format is tab separated, the row starting with "Year"
// has the yearly production in its second column.
func parseYearlyYield(scanner *bufio.Scanner) (float64, error) {
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "Year") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 2 {
			return 0, fmt.Errorf("malformed yearly row %q", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cols[1]), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing yearly production %q: %w", cols[1], err)
		}
		if v <= 0 {
			return 0, fmt.Errorf("yearly production %v: %w", v, types.ErrNotFound)
		}
		return v, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading PVGIS response: %w", err)
	}
	return 0, fmt.Errorf("no yearly production row: %w", types.ErrNotFound)
}
