package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/config"
	"github.com/stemsi/classpoints-backend/internal/handler"
	"github.com/stemsi/classpoints-backend/internal/logger"
	"github.com/stemsi/classpoints-backend/internal/middleware"
	"github.com/stemsi/classpoints-backend/internal/picker"
	"github.com/stemsi/classpoints-backend/internal/repository"
	"github.com/stemsi/classpoints-backend/internal/router"
	"github.com/stemsi/classpoints-backend/internal/service"
	"github.com/stemsi/classpoints-backend/internal/sound"
	"github.com/stemsi/classpoints-backend/internal/validator"
	"github.com/stemsi/classpoints-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("events", cfg.EventsDriver).
		Msg("Starting classpoints backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Storage ───────────────────────────────────────────────────────
	stores, err := repository.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open snapshot store")
	}
	defer stores.Close()

	// ─── Event Bus ─────────────────────────────────────────────────────
	bus, err := openBus(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.EventsDriver).Msg("Failed to open event bus")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	clk := clock.New()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	player := sound.NewBusPlayer(bus, clk)

	snapshotWorker := worker.NewSnapshotWorker(stores.Snapshot, log)
	ledgerWorker := worker.NewLedgerWorker(stores.Ledger, log)

	classroom := service.NewClassroomService(service.ClassroomDeps{
		Store:       stores.Snapshot,
		Persister:   snapshotWorker,
		Recorder:    ledgerWorker,
		Ledger:      stores.Ledger,
		Bus:         bus,
		Player:      player,
		Picker:      picker.New(clk, rand.New(rand.NewSource(rng.Int63())), player, bus, log),
		Clock:       clk,
		Rand:        rng,
		FeedbackTTL: cfg.FeedbackTTL,
	}, log)
	if err := classroom.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load roster")
	}

	transferService := service.NewTransferService(classroom, clk, log)
	spreadsheetService := service.NewSpreadsheetService(classroom, clk, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Catalog:   handler.NewCatalogHandler(),
		Class:     handler.NewClassHandler(classroom, spreadsheetService, cfg.MaxUploadBytes),
		Session:   handler.NewSessionHandler(classroom),
		Student:   handler.NewStudentHandler(classroom),
		Picker:    handler.NewPickerHandler(classroom),
		Transfer:  handler.NewTransferHandler(transferService, spreadsheetService, cfg.MaxUploadBytes, log),
		Fireworks: handler.NewFireworksHandler(log),
		WS:        handler.NewWSHandler(classroom, bus, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(cfg, bus, snapshotWorker, clk),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	importLimiter := middleware.NewRateLimiter(cfg.ImportRateLimit, time.Minute, clk)

	workers.Add(3)
	go func() { defer workers.Done(); snapshotWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); ledgerWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); importLimiter.StartCleanup(workerCtx) }()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, log, importLimiter)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout). Streams end with
	//    their request context.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop workers; the snapshot worker writes the last roster and the
	//    ledger worker flushes its batch.
	workerCancel()
	workers.Wait()

	// 3. Close the bus last so nothing publishes into a closed channel.
	bus.Close()

	log.Info().Int("snapshots_saved", snapshotWorker.Saved()).Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
