package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/arifhasan/khata/internal/api/handlers"
	"github.com/arifhasan/khata/internal/api/middleware"
	"github.com/arifhasan/khata/internal/config"
	"github.com/arifhasan/khata/internal/extract"
	"github.com/arifhasan/khata/internal/logger"
	"github.com/arifhasan/khata/internal/store"
	"github.com/arifhasan/khata/web"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	// Flags override the environment.
	var (
		port    = flag.String("port", cfg.Port, "HTTP server port")
		dataDir = flag.String("data-dir", cfg.DataDir, "directory holding per-user transaction files")
	)
	flag.Parse()
	cfg.Port = *port
	cfg.DataDir = *dataDir

	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	fileStore := store.NewFileStore(cfg.DataDir, log)
	extractor := extract.New(cfg, log)

	transactionsHandler := handlers.NewTransactionsHandler(fileStore, log)
	summaryHandler := handlers.NewSummaryHandler(fileStore, log)
	chatHandler := handlers.NewChatHandler(fileStore, extractor, log)

	mux := handlers.NewRouter(transactionsHandler, summaryHandler, chatHandler, web.Handler())

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Identity(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // the chat endpoint waits on the model
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Str("data_dir", cfg.DataDir).
			Str("extraction_backend", cfg.ExtractionBackend).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}

	log.Info().Msg("Server exited")
}
