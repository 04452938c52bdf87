package www

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/angas/solarquote-go/database"
	"github.com/angas/solarquote-go/logging"
)

type LogReader interface {
	GetLogEntries(ctx context.Context, f database.LogFilter, page, pageSize int) ([]database.LogEntryRow, error)
	LogModules(ctx context.Context) ([]string, error)
}

type logPageView struct {
	Level   string
	Module  string
	Levels  []string
	Modules []string
}

type logEntriesView struct {
	Page     int
	NextPage int
	PageSize int
	Level    string
	Module   string
	Entries  []database.LogEntryRow
}

// NewLogHandler serves the log viewer. Without a page parameter it renders
// the page shell, with one it renders that page of entries.
func NewLogHandler(logger *slog.Logger, db LogReader, tm *TemplateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		levelName := strings.ToUpper(r.URL.Query().Get("level"))
		level := logging.LevelFromString(&levelName)
		if levelName == "" {
			level = slog.LevelDebug
		}
		module := r.URL.Query().Get("module")

		page := intOrDefault(r.URL, "page", 0)
		if page < 1 {
			modules, err := db.LogModules(r.Context())
			if err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			render(w, logger, tm, "log.html", logPageView{
				Level:   level.String(),
				Module:  module,
				Levels:  []string{"DEBUG", "INFO", "WARN", "ERROR"},
				Modules: modules,
			}, http.StatusOK)
			return
		}

		pageSize := intOrDefault(r.URL, "pageSize", 25)
		if pageSize < 1 {
			pageSize = 25
		}

		entries, err := db.GetLogEntries(r.Context(), database.LogFilter{MinLevel: level, Module: module}, page, pageSize)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		view := logEntriesView{
			Page:     page,
			PageSize: pageSize,
			Level:    level.String(),
			Module:   module,
			Entries:  entries,
		}
		if len(entries) == pageSize {
			view.NextPage = page + 1
		}
		render(w, logger, tm, "log_entries.html", view, http.StatusOK)
	}
}
