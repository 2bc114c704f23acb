package notify

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// PGHubConfig holds settings for the Postgres LISTEN/NOTIFY hub.
type PGHubConfig struct {
	DatabaseURL          string
	Channel              string // NOTIFY channel; payload is the room code
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
	PingInterval         time.Duration
}

// DefaultPGHubConfig returns defaults for everything but the DSN.
func DefaultPGHubConfig() PGHubConfig {
	return PGHubConfig{
		Channel:              "room_events",
		MinReconnectInterval: 10 * time.Second,
		MaxReconnectInterval: time.Minute,
		PingInterval:         90 * time.Second,
	}
}

// PGHub implements Hub over a single Postgres NOTIFY channel. Every mutation
// publishes the room code as the payload; subscribers filter on it. Postgres
// drops notifications for disconnected listeners, which is fine here.
type PGHub struct {
	listener *pq.Listener
	db       *sql.DB
	cfg      PGHubConfig

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func()
}

// NewPGHub connects the listener and a publishing connection.
func NewPGHub(cfg PGHubConfig) (*PGHub, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		cfg.MinReconnectInterval,
		cfg.MaxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("pg listener event")
			}
		},
	)
	if err := l.Listen(cfg.Channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen on channel: %w", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to open publish connection: %w", err)
	}

	log.Info().Str("channel", cfg.Channel).Msg("listening for room notifications")

	return &PGHub{
		listener: l,
		db:       db,
		cfg:      cfg,
		subs:     make(map[string]map[int]func()),
	}, nil
}

// Start dispatches notifications until ctx is cancelled.
func (h *PGHub) Start(ctx context.Context) error {
	pingTicker := time.NewTicker(h.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("pg hub shutting down")
			return h.Close()
		case note := <-h.listener.Notify:
			if note == nil {
				// nil notification means the connection was re-established;
				// in-between signals are lost, the poll loop covers them.
				continue
			}
			h.dispatch(note.Extra)
		case <-pingTicker.C:
			if err := h.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping pg listener")
			}
		}
	}
}

func (h *PGHub) Subscribe(code string, onChange func()) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[code] == nil {
		h.subs[code] = make(map[int]func())
	}
	id := h.nextID
	h.nextID++
	h.subs[code][id] = onChange

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[code], id)
		if len(h.subs[code]) == 0 {
			delete(h.subs, code)
		}
	}, nil
}

// Publish raises a NOTIFY with the room code as payload.
func (h *PGHub) Publish(ctx context.Context, code string) error {
	if _, err := h.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", h.cfg.Channel, code); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close tears down the listener and the publishing connection.
func (h *PGHub) Close() error {
	err := h.listener.Close()
	if dbErr := h.db.Close(); err == nil {
		err = dbErr
	}
	return err
}

func (h *PGHub) dispatch(code string) {
	h.mu.Lock()
	callbacks := make([]func(), 0, len(h.subs[code]))
	for _, cb := range h.subs[code] {
		callbacks = append(callbacks, cb)
	}
	h.mu.Unlock()

	log.Debug().Str("code", code).Int("subscribers", len(callbacks)).Msg("room notification")
	for _, cb := range callbacks {
		go cb()
	}
}
