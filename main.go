package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bikeshare-flow/config"
	"bikeshare-flow/models"
	"bikeshare-flow/server"
	"bikeshare-flow/services"
	"bikeshare-flow/storage"
	"bikeshare-flow/utils"
)

// tripStore is a database-backed dataset that can be seeded from CSV.
type tripStore interface {
	storage.RawTripReader
	storage.RawTripWriter
}

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithLevel(utils.ParseLevel(cfg.LogLevel))

	if err := run(cfg, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// run owns every resource the process opens, so its deferred cleanup always
// executes before main exits.
func run(cfg *config.Config, logger *utils.Logger) error {
	profiles, err := config.LoadProfiles(cfg.ProfilesPath)
	if err != nil {
		return fmt.Errorf("load render profiles: %w", err)
	}
	profile, err := profiles.Get(cfg.Profile)
	if err != nil {
		return err
	}

	logger.Info("=== Bike-share flow aggregator starting ===")
	logger.Info("Config: source %s | profile %s | timezone %s | concurrency %d",
		cfg.TripsSource, profile.Name, cfg.TimeZone, cfg.MaxConcurrency)

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid TRIPS_TIMEZONE %q: %w", cfg.TimeZone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	raw, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open trip source: %w", err)
	}
	defer closeSource()

	source := services.NewCleanSource(raw, services.NewCleaner(logger, loc))
	if cfg.RejectsPath != "" {
		source.OnRejected = func(rows []*models.RawTrip) { writeRejects(ctx, cfg.RejectsPath, rows, logger) }
	}

	recomputer := services.NewRecomputer(services.NewAggregator(logger), logger)
	snap, _, err := recomputer.Reload(ctx, source)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	if snap.Result.Trips == 0 {
		logger.Warn("No valid trips were aggregated (%d skipped)", snap.Result.Skipped)
	}

	views := services.NewViews(*profile)
	reportSvc := services.NewReportService(logger, views)
	reportSvc.Print(os.Stdout, reportSvc.Generate(snap.Result))

	if cfg.HTTPAddr == "" {
		fmt.Printf("  Done. Set HTTP_ADDR to serve the views over HTTP.\n\n")
		return nil
	}

	srv := server.New(server.Options{
		Addr:        cfg.HTTPAddr,
		CORSOrigins: cfg.CORSOrigins,
		CacheSize:   cfg.CacheSize,
		Views:       views,
		Recomputer:  recomputer,
		Source:      source,
		Logger:      logger,
	})

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown: %v", err)
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}
	logger.Info("Shutdown complete")
	return nil
}

// openSource returns the configured raw trip source and a function that
// releases it. Database sources are seeded from the CSV files first when
// IMPORT_CSV is set.
func openSource(ctx context.Context, cfg *config.Config, logger *utils.Logger) (services.RawSource, func(), error) {
	csvReader := storage.NewCSVReader(cfg.CSVPaths, cfg.MaxConcurrency, logger)

	var store tripStore
	switch cfg.TripsSource {
	case "csv":
		return csvReader, func() {}, nil
	case "postgres":
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: logger}
		pg, err := storage.NewPostgresStore(ctx, cfg.DSN(), retry)
		if err != nil {
			logger.Error("Check the POSTGRES_* settings and that the server is reachable")
			return nil, nil, err
		}
		store = pg
	case "sqlite":
		lite, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store = lite
	default:
		return nil, nil, fmt.Errorf("TRIPS_SOURCE %q: want csv, postgres or sqlite", cfg.TripsSource)
	}

	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Closing %s store: %v", cfg.TripsSource, err)
		}
	}

	if cfg.ImportCSV {
		rows, err := csvReader.FetchAll(ctx)
		if err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("import csv: %w", err)
		}
		if err := store.WriteRaw(ctx, rows); err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("import csv: %w", err)
		}
		logger.Info("Imported %d rows from CSV into %s", len(rows), cfg.TripsSource)
	}
	return store, closeStore, nil
}

// writeRejects replaces the rejects file with rows; with no rows only the
// header remains. Failures are logged only; they never stop an aggregation.
func writeRejects(ctx context.Context, path string, rows []*models.RawTrip, logger *utils.Logger) {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		logger.Warn("Cannot open rejects file: %v", err)
		return
	}
	defer w.Close()

	if err := w.WriteRaw(ctx, rows); err != nil {
		logger.Warn("Writing rejects failed: %v", err)
		return
	}
	logger.Info("Saved %d rejected rows to %s", len(rows), path)
}
