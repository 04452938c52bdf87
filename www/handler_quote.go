package www

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/angas/solarquote-go/calc"
	"github.com/angas/solarquote-go/quote"
	"github.com/angas/solarquote-go/types"
	"github.com/gorilla/sessions"
)

const (
	sessionName       = "solarquote"
	sessionPostalCode = "postal_code"
	sessionCities     = "cities"
)

// Quoter is the quote service as seen by the web layer.
type Quoter interface {
	Cities(ctx context.Context, postalCode string) ([]string, error)
	Quote(ctx context.Context, req quote.Request) (quote.Quote, error)
}

type indexView struct {
	PostalCode  string
	Cities      []string
	Aspects     []types.Aspect
	Connections []calc.ConnectionType
	Errors      []string
}

type resultView struct {
	Quote     quote.Quote
	Generated time.Time
	Error     string
}

func newIndexView() indexView {
	return indexView{
		Aspects:     types.Aspects(),
		Connections: []calc.ConnectionType{calc.ConnectionSinglePhase, calc.ConnectionThreePhase},
	}
}

// NewIndexHandler serves the search form. A POST resolves the cities of the
// postal code, which are kept in the session for the next steps.
func NewIndexHandler(logger *slog.Logger, tm *TemplateManager, store sessions.Store, quoter Quoter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := store.Get(r, sessionName)
		if err != nil {
			logger.Debug("discarding invalid session", slog.Any("error", err))
		}

		view := newIndexView()

		switch r.Method {
		case http.MethodGet:
			view.PostalCode, _ = session.Values[sessionPostalCode].(string)
			view.Cities, _ = session.Values[sessionCities].([]string)
			for _, f := range session.Flashes() {
				if msg, ok := f.(string); ok {
					view.Errors = append(view.Errors, msg)
				}
			}

		case http.MethodPost:
			view.PostalCode = strings.TrimSpace(r.PostFormValue("postal_code"))
			cities, err := quoter.Cities(r.Context(), view.PostalCode)
			switch {
			case err == nil:
				view.Cities = cities
				session.Values[sessionPostalCode] = view.PostalCode
				session.Values[sessionCities] = cities
			case errors.Is(err, quote.ErrInvalidRequest):
				view.Errors = append(view.Errors, "Invalid postal code, it must be 5 digits.")
			case errors.Is(err, types.ErrNotFound):
				view.Errors = append(view.Errors, "No city found for this postal code.")
			default:
				logger.Error("city lookup failed", slog.String("postal_code", view.PostalCode), slog.Any("error", err))
				view.Errors = append(view.Errors, "The city lookup service is unavailable, please try again later.")
			}
			if len(view.Errors) > 0 {
				delete(session.Values, sessionPostalCode)
				delete(session.Values, sessionCities)
			}

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := session.Save(r, w); err != nil {
			logger.Warn("saving session failed", slog.Any("error", err))
		}
		render(w, logger, tm, "index.html", view, http.StatusOK)
	}
}

// NewCalculateHandler runs a quote for the submitted form. Invalid input
// sends the user back to the form with a message.
func NewCalculateHandler(logger *slog.Logger, tm *TemplateManager, store sessions.Store, quoter Quoter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		budget, err := parseAmount(r.PostFormValue("depense_mensuelle_max"))
		if err != nil {
			backToForm(w, r, logger, store, "The maximum monthly spending must be a number.")
			return
		}

		req := quote.Request{
			City:          strings.TrimSpace(r.PostFormValue("selected_city")),
			Aspect:        strings.ToUpper(strings.TrimSpace(r.PostFormValue("aspect"))),
			MonthlyBudget: budget,
			Connection:    strings.ToLower(strings.TrimSpace(r.PostFormValue("type_branchement"))),
		}

		q, err := quoter.Quote(r.Context(), req)
		switch {
		case err == nil:
			render(w, logger, tm, "result.html", resultView{Quote: q, Generated: time.Now()}, http.StatusOK)
		case errors.Is(err, quote.ErrInvalidRequest):
			logger.Debug("invalid quote request", slog.Any("error", err))
			backToForm(w, r, logger, store, "Please select a city, an orientation, a connection type and a positive monthly spending.")
		case errors.Is(err, types.ErrNotFound):
			logger.Info("no data for quote", slog.String("city", req.City), slog.Any("error", err))
			render(w, logger, tm, "result.html", resultView{Error: "Unable to locate this city or estimate its solar yield."}, http.StatusNotFound)
		default:
			logger.Error("quote failed", slog.String("city", req.City), slog.Any("error", err))
			render(w, logger, tm, "result.html", resultView{Error: "A lookup service is unavailable, please try again later."}, http.StatusBadGateway)
		}
	}
}

func backToForm(w http.ResponseWriter, r *http.Request, logger *slog.Logger, store sessions.Store, msg string) {
	session, _ := store.Get(r, sessionName)
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		logger.Warn("saving session failed", slog.Any("error", err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render executes into a buffer first so a failing template never leaves a
// half written page behind.
func render(w http.ResponseWriter, logger *slog.Logger, tm *TemplateManager, name string, data any, status int) {
	buf, err := tm.Execute(name, data)
	if err != nil {
		logger.Error("rendering template", slog.String("template", name), slog.Any("error", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Debug("writing response", slog.Any("error", err))
	}
}
