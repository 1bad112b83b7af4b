package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/vividbreeze/planning-poker/internal/adapters/http"
	"github.com/vividbreeze/planning-poker/internal/adapters/ws"
	"github.com/vividbreeze/planning-poker/internal/app"
	"github.com/vividbreeze/planning-poker/internal/config"
	"github.com/vividbreeze/planning-poker/internal/registry"
	"github.com/vividbreeze/planning-poker/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	clock := clockwork.NewRealClock()

	var st store.Store
	if cfg.RedisAddr != "" {
		st = store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = st.Ping(pingCtx)
		pingCancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable")
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis store")
	} else {
		mem := store.NewMemory(clock)
		mem.StartJanitor(ctx, time.Minute)
		st = mem
		log.Warn().Msg("no redis_addr configured, rooms will not survive restarts")
	}
	defer st.Close()

	rooms := registry.New(st, clock, cfg.RoomTTL, cfg.ReservationTTL)
	orch := app.NewOrchestrator(rooms, app.NewConnRegistry(), clock, cfg.MaxParticipants, cfg.AdminGrace)
	ctl := ws.NewController(orch, cfg.ReadLimit, cfg.PingPeriod)

	r := router.SetupRouter(ctx, cfg, ctl, st)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("planning poker server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
