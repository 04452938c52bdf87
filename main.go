package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angas/solarquote-go/config"
	"github.com/angas/solarquote-go/database"
	"github.com/angas/solarquote-go/gisco"
	"github.com/angas/solarquote-go/logging"
	"github.com/angas/solarquote-go/optimize"
	"github.com/angas/solarquote-go/pvgis"
	"github.com/angas/solarquote-go/quote"
	"github.com/angas/solarquote-go/task"
	"github.com/angas/solarquote-go/www"
	"github.com/angas/solarquote-go/zippopotam"
	"github.com/lmittmann/tint"
	"golang.org/x/time/rate"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("solarquote is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	prices, err := cnfg.Catalog.GetCatalog()
	if err != nil {
		panic(fmt.Sprintf("invalid price catalog: %v", err))
	}
	rates, err := cnfg.Catalog.GetRateTable()
	if err != nil {
		panic(fmt.Sprintf("invalid rate table: %v", err))
	}
	projector := cnfg.Savings.GetProjector()

	selector := optimize.NewSelector(logger.With("module", "optimize"), prices, rates, projector)

	timeout := cnfg.Lookup.GetTimeout()
	newLimiter := func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(cnfg.Lookup.GetRequestsPerSecond()), 1)
	}
	quotes := quote.NewService(
		logger.With("module", "quote"),
		zippopotam.New(cnfg.Lookup.ZippopotamUrl, timeout, newLimiter()),
		gisco.New(cnfg.Lookup.GiscoUrl, timeout, newLimiter()),
		pvgis.New(cnfg.Lookup.PvgisUrl, cnfg.Lookup.Pvgis.GetParameters(), timeout, newLimiter()),
		selector)

	tasks := task.NewTasks(db, cnfg)
	if err := tasks.Run(); err != nil {
		panic(fmt.Sprintf("failed to schedule tasks: %v", err))
	}
	defer func() { <-tasks.Stop().Done() }()

	server, err := www.NewServer(cnfg.Api, cnfg.Gui, www.Dependencies{
		Quoter:  quotes,
		Reports: selector,
		Log:     db,
		SysInfo: www.NewSysInfo(Version, prices, rates, projector),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create server: %v", err))
	}

	if err := server.Run(ctx); err != nil {
		exitWithError(logger, err)
	}
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	time.Sleep(2 * time.Second)
	os.Exit(1)
}
