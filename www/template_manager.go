package www

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/angas/solarquote-go/convert"
	"github.com/angas/solarquote-go/optimize"
	"github.com/angas/solarquote-go/quote"
	"github.com/angas/solarquote-go/types/maybe"
	"github.com/fsnotify/fsnotify"
)

//go:embed templates
var templatesDirEmbed embed.FS

// installationView is what the installation block of the result page renders.
type installationView struct {
	Report optimize.InstallationReport
	Quote  quote.Quote
}

type TemplateManager struct {
	templates *template.Template
	funcs     template.FuncMap
	mutex     sync.RWMutex
	logger    *slog.Logger
	watcher   *fsnotify.Watcher
}

func newFuncMap(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"TwoDecimals": func(n float64) string {
			return fmt.Sprintf("%.2f", convert.TwoDecimals(n))
		},
		"Amount": func(n float64) string {
			return fmt.Sprintf("%.0f", n)
		},
		"Installment": func(m maybe.Maybe[float64]) string {
			if v, ok := m.Get(); ok {
				return fmt.Sprintf("%.2f", v)
			}
			return "-"
		},
		"LocalTime": func(t time.Time) string {
			return t.In(loc).Format("2006-01-02 15:04:05")
		},
		"LevelName": func(level int) string {
			return slog.Level(level).String()
		},
		"InstallationOf": func(r optimize.InstallationReport, q quote.Quote) installationView {
			return installationView{Report: r, Quote: q}
		},
	}
}

// NewTemplateManager parses the embedded templates, or the templates in
// extDir/templates when extDir is set. External templates are reloaded
// when they change on disk.
func NewTemplateManager(logger *slog.Logger, extDir *string, loc *time.Location) (*TemplateManager, error) {
	tm := &TemplateManager{
		logger: logger,
		funcs:  newFuncMap(loc),
	}

	if extDir != nil && *extDir != "" {
		if err := tm.loadExternalTemplates(*extDir); err != nil {
			return nil, err
		}
	} else if err := tm.loadInternalTemplates(); err != nil {
		return nil, err
	}

	return tm, nil
}

func (tm *TemplateManager) loadInternalTemplates() error {
	tm.logger.Debug("loading embedded templates...")
	tmpl, err := template.New("").Funcs(tm.funcs).ParseFS(templatesDirEmbed, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	tm.templates = tmpl
	return nil
}

func (tm *TemplateManager) loadExternalTemplates(extDir string) error {
	templatesDir := filepath.Join(extDir, "templates")
	reload := func() error {
		tm.logger.Debug("loading external templates...")
		tmpl, err := template.New("").Funcs(tm.funcs).ParseGlob(filepath.Join(templatesDir, "*.html"))
		if err != nil {
			return fmt.Errorf("failed to parse templates: %w", err)
		}

		tm.mutex.Lock()
		tm.templates = tmpl
		tm.mutex.Unlock()
		return nil
	}

	if err := reload(); err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create template watcher: %w", err)
	}
	if err := watcher.Add(templatesDir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch templates: %w", err)
	}
	tm.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					if err := reload(); err != nil {
						tm.logger.Error("error reloading templates", slog.Any("error", err))
					} else {
						tm.logger.Debug("templates reloaded", slog.String("file", event.Name))
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				tm.logger.Debug("error watching templates", slog.Any("error", err))
			}
		}
	}()

	return nil
}

// Close stops watching external templates.
func (tm *TemplateManager) Close() error {
	if tm.watcher == nil {
		return nil
	}
	return tm.watcher.Close()
}

func (tm *TemplateManager) Execute(name string, data any) (bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := tm.ExecuteToWriter(name, data, &buf); err != nil {
		return bytes.Buffer{}, err
	}
	return buf, nil
}

func (tm *TemplateManager) ExecuteToWriter(name string, data any, wr io.Writer) error {
	tm.mutex.RLock()
	err := tm.templates.ExecuteTemplate(wr, name, data)
	tm.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return nil
}
