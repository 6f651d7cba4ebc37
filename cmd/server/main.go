package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/rclass/internal/adapters/http"
	"github.com/dkeye/rclass/internal/adapters/rtc"
	sig "github.com/dkeye/rclass/internal/adapters/signal"
	"github.com/dkeye/rclass/internal/adapters/store/badgerstore"
	"github.com/dkeye/rclass/internal/adapters/store/postgres"
	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/app/orch"
	"github.com/dkeye/rclass/internal/config"
	"github.com/dkeye/rclass/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	worker, err := rtc.NewWorker(cfg.Media.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start media worker")
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	// Rooms outlive request contexts; they are finalized when roomsCtx ends.
	roomsCtx, stopRooms := context.WithCancel(context.Background())
	rooms := core.NewRoomManager(roomsCtx, store)

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(backpressurePolicy(cfg.Signal.SlowConsumer)),
		Rooms:    rooms,
		Worker:   worker,
		Store:    store,
		Codecs:   cfg.Media.Codecs,
		Policy:   cfg.Attendance,
	}
	ctrl := sig.NewSignalWSController(o, sig.Options{
		ReadLimit:      cfg.ReadLimit,
		SendBuffer:     cfg.Signal.SendBuffer,
		RequestTimeout: cfg.RequestTimeout,
		ChatLimit:      cfg.Chat.RateLimit,
		ChatInterval:   cfg.Chat.RateInterval,
	})

	r := router.SetupRouter(ctx, cfg, o, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Msg("rclass server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Archive whatever is still live before the store goes away.
	stopRooms()
	for rooms.Len() > 0 && shutdownCtx.Err() == nil {
		time.Sleep(50 * time.Millisecond)
	}
	if n := rooms.Len(); n > 0 {
		log.Warn().Int("rooms", n).Msg("rooms still open at exit")
	}
	log.Info().Msg("Server exited gracefully")
}

func openStore(ctx context.Context, cfg config.Store) (core.Store, error) {
	switch cfg.Driver {
	case config.StorePostgres:
		return postgres.Open(ctx, cfg.Postgres)
	case config.StoreBadger:
		return badgerstore.Open(cfg.BadgerPath)
	default:
		return badgerstore.Open("")
	}
}

func backpressurePolicy(mode string) app.Policy {
	if mode == "drop" {
		return app.PolicyFunc(func(app.SessionID) app.BackpressureAction { return app.DropFrame })
	}
	return app.SimplePolicy{}
}
