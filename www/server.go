package www

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/angas/solarquote-go/config"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static
var embeddedStaticDir embed.FS

type Server struct {
	logger  *slog.Logger
	config  config.AppConfigApi
	tm      *TemplateManager
	handler http.Handler
}

// Dependencies are the services the pages are rendered from.
type Dependencies struct {
	Quoter  Quoter
	Reports ReportBuilder
	Log     LogReader
	SysInfo SysInfo
}

func NewServer(cnfg config.AppConfigApi, gui config.AppConfigGui, deps Dependencies) (*Server, error) {
	logger := slog.Default().With("module", "www")

	loc, err := time.LoadLocation(gui.GetTimezone())
	if err != nil {
		return nil, fmt.Errorf("load gui timezone %q: %w", gui.GetTimezone(), err)
	}

	tm, err := NewTemplateManager(logger, cnfg.WwwDir, loc)
	if err != nil {
		return nil, fmt.Errorf("template manager initialization: %w", err)
	}

	s := &Server{
		logger: logger,
		config: cnfg,
		tm:     tm,
	}

	store := sessions.NewCookieStore(sessionKey(logger, cnfg.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	mux := http.NewServeMux()

	mux.Handle("/static/", http.StripPrefix("/static/", staticFilesHandler(logger, cnfg.WwwDir)))

	mux.Handle("/{$}", logReqMW(NewIndexHandler(
		logger.With(slog.String("handler", "index")),
		tm,
		store,
		deps.Quoter)))

	mux.Handle("/calculate", logReqMW(NewCalculateHandler(
		logger.With(slog.String("handler", "calculate")),
		tm,
		store,
		deps.Quoter)))

	mux.Handle("/savings_chart", logReqMW(NewSavingsChartHandler(
		logger.With(slog.String("handler", "savings_chart")),
		deps.Reports)))

	mux.Handle("/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		deps.Log,
		tm)))

	mux.Handle("/sys_info", logReqMW(NewSysInfoHandler(
		logger.With(slog.String("handler", "sys_info")),
		tm,
		deps.SysInfo)))

	mux.Handle("/metrics", promhttp.Handler())

	s.handler = mux
	return s, nil
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.tm.Close()

	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	s.logger.Info("starting server...", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErrors := make(chan error, 1)
	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	}
}

// sessionKey falls back to a random key, sessions then don't survive a restart.
func sessionKey(logger *slog.Logger, configured string) []byte {
	if len(configured) >= 32 {
		return []byte(configured)
	}
	logger.Warn("no session key of at least 32 bytes configured, using a random key")
	return securecookie.GenerateRandomKey(32)
}

func staticFilesHandler(logger *slog.Logger, extDir *string) http.Handler {
	if extDir != nil && *extDir != "" {
		staticDir := path.Join(*extDir, "static")
		if _, err := os.Stat(staticDir); err == nil {
			return http.FileServer(http.Dir(staticDir))
		}
		logger.Warn("no static directory in www_dir, serving embedded files", slog.String("dir", staticDir))
	}

	fsys, err := fs.Sub(embeddedStaticDir, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(fsys))
}
