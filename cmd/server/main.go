package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/arbiter"
	"github.com/pairplay/sync-server-go/internal/backend"
	"github.com/pairplay/sync-server-go/internal/cache"
	"github.com/pairplay/sync-server-go/internal/config"
	"github.com/pairplay/sync-server-go/internal/engine"
	"github.com/pairplay/sync-server-go/internal/events"
	"github.com/pairplay/sync-server-go/internal/game"
	"github.com/pairplay/sync-server-go/internal/handler"
	"github.com/pairplay/sync-server-go/internal/jobs"
	"github.com/pairplay/sync-server-go/internal/middleware"
	"github.com/pairplay/sync-server-go/internal/remote"
	"github.com/pairplay/sync-server-go/internal/reward"
	"github.com/pairplay/sync-server-go/internal/syncer"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := cache.Open(cfg.CachePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session cache")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.CachePingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping session cache")
	}
	cancel()
	log.Info().Str("path", cfg.CachePath).Msg("session cache opened")

	redisClient, err := remote.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to remote session store")
	}
	defer redisClient.Close()
	log.Info().Msg("remote session store connected")

	sessionRepo := cache.NewSessionRepository(db)
	remoteStore := remote.NewStore(redisClient)
	backendClient := backend.NewClient(cfg.BackendBaseURL)
	ledgerClient := reward.NewClient(cfg.LedgerBaseURL)

	broker := events.NewBroker(redisClient)
	defer broker.Close()

	pairKey := cfg.PairKey()

	sync := syncer.New(
		sessionRepo, remoteStore, backendClient, broker,
		pairKey, cfg.DeviceParticipantID, cfg.SyncPollInterval(),
	)

	var vocab game.Vocabulary
	if cfg.WordListPath != "" {
		wordSet, err := game.LoadWordSet(cfg.WordListPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load word list")
		}
		vocab = wordSet
	}

	content := game.NewStaticContent(time.Now().UnixNano())
	waiter := arbiter.New(remoteStore, cfg.ArbiterPollDelay())

	eng := engine.New(
		sessionRepo, sync, ledgerClient, waiter, content, vocab,
		cfg.DeviceParticipantID, cfg.PartnerParticipantID,
	)

	sync.Start()
	defer sync.Stop()
	sync.Watch(broker.Subscribe(pairKey))

	expiryJob := jobs.NewExpiryJob(eng, config.ExpirySweepInterval)
	expiryJob.Start()
	defer expiryJob.Stop()

	sessionHandler := handler.NewSessionHandler(eng)
	eventsHandler := handler.NewEventsHandler(broker, pairKey)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":        "ok",
			"streamClients": broker.ClientCount(pairKey),
			"timestamp":     time.Now().UnixMilli(),
		})
	})

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Mount("/", sessionHandler.Routes())
	})

	r.Get("/v1/events", eventsHandler.ServeHTTP)

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		// SSE connections stay open indefinitely.
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
