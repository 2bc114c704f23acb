package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// natsSubjectPrefix namespaces room signals on the shared NATS instance.
const natsSubjectPrefix = "room."

// NATSHubConfig holds connection settings for the NATS hub.
type NATSHubConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSHubConfig returns defaults suitable for a local NATS server.
func DefaultNATSHubConfig() NATSHubConfig {
	return NATSHubConfig{
		URL:           nats.DefaultURL,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSHub implements Hub over core NATS pub/sub, one subject per room.
// Core NATS is fire-and-forget, which matches the hub contract exactly.
type NATSHub struct {
	nc *nats.Conn
}

// NewNATSHub connects to the NATS server.
func NewNATSHub(cfg NATSHubConfig) (*NATSHub, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSHub{nc: nc}, nil
}

func (h *NATSHub) Subscribe(code string, onChange func()) (func(), error) {
	sub, err := h.nc.Subscribe(natsSubjectPrefix+code, func(_ *nats.Msg) {
		onChange()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to room subject: %w", err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Str("code", code).Msg("failed to unsubscribe from room subject")
		}
	}, nil
}

func (h *NATSHub) Publish(_ context.Context, code string) error {
	if err := h.nc.Publish(natsSubjectPrefix+code, nil); err != nil {
		return fmt.Errorf("failed to publish room signal: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (h *NATSHub) Close() error {
	return h.nc.Drain()
}
