package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scrumkit/pokerd/internal/gateway"
	"github.com/scrumkit/pokerd/internal/identity"
	"github.com/scrumkit/pokerd/internal/locale"
	"github.com/scrumkit/pokerd/internal/notify"
	"github.com/scrumkit/pokerd/internal/session"
	"github.com/scrumkit/pokerd/internal/store"
	"github.com/scrumkit/pokerd/internal/store/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	setupLogging()
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable local identity; survives restarts so rejoining a room keeps
	// the same participant row.
	if err := os.MkdirAll(filepath.Dir(cfg.ProfilePath), 0o755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.ProfilePath).Msg("failed to create profile directory")
	}
	storage, err := identity.OpenSQLite(cfg.ProfilePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ProfilePath).Msg("failed to open profile storage")
	}
	defer storage.Close()

	profile, err := identity.Bootstrap(storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap identity")
	}
	if sel := os.Getenv("POKERD_LOCALE"); sel != "" && sel != profile.Locale {
		if err := profile.SetLocale(sel); err != nil {
			log.Fatal().Err(err).Str("locale", sel).Msg("failed to persist locale")
		}
	}
	log.Info().
		Str("participant_id", profile.Participant.ID).
		Str("locale", profile.Locale).
		Msg("identity ready")

	strs, err := locale.Resolve(profile.Locale)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load locale bundles")
	}

	st, hub, cleanup := setupBackend(ctx, cfg)
	defer cleanup()

	ctrl := session.NewController(st, hub, profile.Participant, clockwork.NewRealClock(), session.Config{
		PollInterval: cfg.PollInterval,
	})
	defer ctrl.Close()

	gwCfg := gateway.DefaultConfig()
	gwCfg.ShareBaseURL = cfg.ShareBaseURL
	gw := gateway.NewManager(ctrl, strs, profile, gwCfg)
	go gw.Start(ctx)

	srv := setupServer(cfg.Port, gw)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func setupLogging() {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if getEnv("LOG_FORMAT", "console") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// setupBackend wires the shared store and the push hub. With no backend the
// daemon still serves its gateway; session actions report the store as
// unavailable until it is configured.
func setupBackend(ctx context.Context, cfg Config) (store.Store, notify.Hub, func()) {
	if cfg.Backend == "none" {
		log.Warn().Msg("no backend configured, running detached")
		return nil, notify.NewMemHub(), func() {}
	}

	pool, err := setupDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	st := postgres.NewRepository(pool)

	switch cfg.Hub {
	case "nats":
		hub, err := notify.NewNATSHub(notify.NATSHubConfig{
			URL:           cfg.NATSURL,
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		return st, hub, func() {
			hub.Close()
			pool.Close()
		}
	case "mem":
		return st, notify.NewMemHub(), pool.Close
	default:
		pgCfg := notify.DefaultPGHubConfig()
		pgCfg.DatabaseURL = cfg.Database.DSN()
		hub, err := notify.NewPGHub(pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start pg listener")
		}
		go func() {
			if err := hub.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pg listener stopped")
			}
		}()
		return st, hub, func() {
			hub.Close()
			pool.Close()
		}
	}
}
