package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/churnwatch/backend/internal/actions"
	"github.com/churnwatch/backend/internal/config"
	"github.com/churnwatch/backend/internal/db"
	"github.com/churnwatch/backend/internal/engine"
	httpapi "github.com/churnwatch/backend/internal/http"
	"github.com/churnwatch/backend/internal/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "churnwatch-backend").Logger()

	classifier, err := engine.NewClassifier(cfg.RiskMediumThreshold, cfg.RiskHighThreshold)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid risk thresholds")
	}

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.EnsureDefaultActions(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed retention action catalog")
	}

	actionStore := actions.New(store.InsertAppliedAction)
	applied, err := store.ListAppliedActions(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load applied actions")
	}
	actionStore.Seed(applied)

	var scorer scoring.Scorer
	if cfg.ModelURL == "" {
		scorer = scoring.MockScorer{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock churn model")
	} else {
		scorer = scoring.HTTPScorer{BaseURL: cfg.ModelURL}
	}

	router := httpapi.Router(cfg, store, actionStore, scorer, classifier, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
