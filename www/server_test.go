package www

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/angas/solarquote-go/calc"
	"github.com/angas/solarquote-go/catalog"
	"github.com/angas/solarquote-go/config"
	"github.com/angas/solarquote-go/database"
	"github.com/angas/solarquote-go/optimize"
	"github.com/angas/solarquote-go/quote"
	"github.com/angas/solarquote-go/types"
	"github.com/angas/solarquote-go/www/chartjs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuoter struct {
	cities   []string
	citiesFn func(string) error
	quote    quote.Quote
	quoteErr error
	lastReq  quote.Request
}

func (f *fakeQuoter) Cities(_ context.Context, postalCode string) ([]string, error) {
	if f.citiesFn != nil {
		if err := f.citiesFn(postalCode); err != nil {
			return nil, err
		}
	}
	return f.cities, nil
}

func (f *fakeQuoter) Quote(_ context.Context, req quote.Request) (quote.Quote, error) {
	f.lastReq = req
	return f.quote, f.quoteErr
}

type fakeLog struct {
	entries []database.LogEntryRow
	filter  database.LogFilter
}

func (f *fakeLog) GetLogEntries(_ context.Context, filter database.LogFilter, page, pageSize int) ([]database.LogEntryRow, error) {
	f.filter = filter
	return f.entries, nil
}

func (f *fakeLog) LogModules(context.Context) ([]string, error) {
	return []string{"pvgis", "quote"}, nil
}

func newTestSelector() *optimize.Selector {
	return optimize.NewSelector(slog.Default(), catalog.DefaultCatalog(), catalog.DefaultRateTable(), calc.DefaultSavingsProjector())
}

func newTestServer(t *testing.T, quoter *fakeQuoter, logs *fakeLog) http.Handler {
	t.Helper()
	sel := newTestSelector()
	s, err := NewServer(config.AppConfigApi{}, config.AppConfigGui{}, Dependencies{
		Quoter:  quoter,
		Reports: sel,
		Log:     logs,
		SysInfo: NewSysInfo("1.2.3", catalog.DefaultCatalog(), catalog.DefaultRateTable(), calc.DefaultSavingsProjector()),
	})
	require.NoError(t, err)
	return s.Handler()
}

func postForm(target string, values url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	h := newTestServer(t, &fakeQuoter{}, &fakeLog{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="postal_code"`)
	assert.NotContains(t, rec.Body.String(), `action="/calculate"`)
}

func TestIndexCitiesKeptInSession(t *testing.T) {
	h := newTestServer(t, &fakeQuoter{cities: []string{"Toulouse", "Balma"}}, &fakeLog{})

	rec := serve(h, postForm("/", url.Values{"postal_code": {"31000"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="Balma">`)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = serve(h, req)
	assert.Contains(t, rec.Body.String(), `value="31000"`)
	assert.Contains(t, rec.Body.String(), `<option value="Toulouse">`)
}

func TestIndexCityErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid", quote.ErrInvalidRequest, "Invalid postal code"},
		{"not found", types.ErrNotFound, "No city found"},
		{"unavailable", errors.New("timeout"), "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeQuoter{citiesFn: func(string) error { return tt.err }}, &fakeLog{})
			rec := serve(h, postForm("/", url.Values{"postal_code": {"3100"}}))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestCalculate(t *testing.T) {
	sel, err := newTestSelector().SelectBest(1200, 200, calc.ConnectionSinglePhase)
	require.NoError(t, err)
	quoter := &fakeQuoter{quote: quote.Quote{
		City:          "Toulouse",
		Position:      types.Coordinates{Latitude: 43.6, Longitude: 1.44},
		Aspect:        types.AspectSouth,
		AnnualYield:   1200,
		MonthlyBudget: 200,
		Connection:    calc.ConnectionSinglePhase,
		Selection:     sel,
	}}
	h := newTestServer(t, quoter, &fakeLog{})

	rec := serve(h, postForm("/calculate", url.Values{
		"selected_city":         {" Toulouse "},
		"aspect":                {"sud"},
		"depense_mensuelle_max": {"200,5"},
		"type_branchement":      {"Monophase"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, quote.Request{City: "Toulouse", Aspect: "SUD", MonthlyBudget: 200.5, Connection: "monophase"}, quoter.lastReq)
	body := rec.Body.String()
	assert.Contains(t, body, "Recommended installation")
	assert.Contains(t, body, "<h3>7 kW</h3>")
	assert.Contains(t, body, "Smaller alternative")
	assert.Contains(t, body, "<h3>6 kW</h3>")
	assert.Contains(t, body, "16457 EUR")
	assert.Contains(t, body, `data-capacity="6"`)
}

func TestCalculateNothingAffordable(t *testing.T) {
	sel, err := newTestSelector().SelectBest(1200, 50, calc.ConnectionSinglePhase)
	require.NoError(t, err)
	h := newTestServer(t, &fakeQuoter{quote: quote.Quote{City: "Toulouse", Selection: sel}}, &fakeLog{})

	rec := serve(h, postForm("/calculate", url.Values{
		"selected_city":         {"Toulouse"},
		"aspect":                {"SUD"},
		"depense_mensuelle_max": {"50"},
		"type_branchement":      {"monophase"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No installation fits")
	assert.NotContains(t, rec.Body.String(), "Smaller alternative")
}

func TestCalculateBackToFormWithFlash(t *testing.T) {
	h := newTestServer(t, &fakeQuoter{quoteErr: quote.ErrInvalidRequest}, &fakeLog{})

	for _, budget := range []string{"abc", "Inf", "NaN", "100"} {
		rec := serve(h, postForm("/calculate", url.Values{"depense_mensuelle_max": {budget}}))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		rec = serve(h, req)
		assert.Contains(t, rec.Body.String(), `class="error"`)
	}
}

func TestCalculateLookupErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{types.ErrNotFound, http.StatusNotFound},
		{errors.New("pvgis down"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		h := newTestServer(t, &fakeQuoter{quoteErr: tt.err}, &fakeLog{})
		rec := serve(h, postForm("/calculate", url.Values{"depense_mensuelle_max": {"100"}}))
		assert.Equal(t, tt.code, rec.Code)
		assert.Contains(t, rec.Body.String(), `class="error"`)
	}
}

func TestCalculateMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, &fakeQuoter{}, &fakeLog{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/calculate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSavingsChart(t *testing.T) {
	h := newTestServer(t, &fakeQuoter{}, &fakeLog{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/savings_chart?capacity=6&productible=1200&type_branchement=monophase", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var chart chartjs.Chart
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&chart))
	// Break-even after 9 years plus the years shown after it
	require.Len(t, chart.Data.Labels, 9+chartExtraYears)
	require.Len(t, chart.Data.Datasets, 3)

	cumulative, netCost, annual := chart.Data.Datasets[0], chart.Data.Datasets[1], chart.Data.Datasets[2]
	assert.Equal(t, 1656.0, *annual.Data[0])
	assert.Equal(t, 1656.0, *cumulative.Data[0])
	assert.Equal(t, 18260.0, *cumulative.Data[8])
	assert.Equal(t, 16457.0, *netCost.Data[13])

	amount := chart.Options.Scales[chartjs.AxisAmount]
	require.NotNil(t, amount.Min)
	require.NotNil(t, amount.Max)
	assert.Equal(t, 0.0, *amount.Min)
	// Cumulative savings reach 32455.35 in year 14
	assert.Equal(t, 33000.0, *amount.Max)
	assert.Nil(t, chart.Options.Scales[chartjs.AxisAnnual].Max)
}

func TestSavingsChartBadRequest(t *testing.T) {
	h := newTestServer(t, &fakeQuoter{}, &fakeLog{})
	for _, q := range []string{
		"capacity=11&productible=1200&type_branchement=monophase",
		"capacity=x&productible=1200&type_branchement=monophase",
		"capacity=6&productible=0&type_branchement=monophase",
		"capacity=6&productible=NaN&type_branchement=monophase",
		"capacity=6&productible=Inf&type_branchement=monophase",
		"capacity=6&productible=1200&type_branchement=biphase",
	} {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/savings_chart?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestLog(t *testing.T) {
	logs := &fakeLog{entries: []database.LogEntryRow{
		{Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), Level: int(slog.LevelWarn), Module: "optimize", Message: "negative net cost"},
	}}
	h := newTestServer(t, &fakeQuoter{}, logs)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/log", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="pvgis">`)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/log?page=1&level=warn&module=optimize", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "negative net cost")
	assert.Contains(t, rec.Body.String(), "2026-03-01 12:00:00")
	assert.NotContains(t, rec.Body.String(), "next-page")
	assert.Equal(t, database.LogFilter{MinLevel: slog.LevelWarn, Module: "optimize"}, logs.filter)
}

func TestSysInfo(t *testing.T) {
	h := newTestServer(t, &fakeQuoter{}, &fakeLog{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/sys_info", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1.2.3")
	assert.Contains(t, rec.Body.String(), "<td>12</td><td>29900</td>")
	assert.Contains(t, rec.Body.String(), "<td>180</td><td>5.618</td>")
}

func TestStaticAndMetrics(t *testing.T) {
	h := newTestServer(t, &fakeQuoter{}, &fakeLog{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/static/css/style.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
