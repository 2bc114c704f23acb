package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scrumkit/pokerd/internal/deck"
	"github.com/scrumkit/pokerd/internal/metrics"
	"github.com/scrumkit/pokerd/internal/session"
)

// command is one JSON message from a presentation client.
type command struct {
	Action string `json:"action"`
	Name   string `json:"name,omitempty"`
	Code   string `json:"code,omitempty"`
	Value  string `json:"value,omitempty"`
	Deck   string `json:"deck,omitempty"`
	Story  string `json:"story,omitempty"`

	// Bounds for a generated numeric deck.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
	Step string `json:"step,omitempty"`
}

// noticeEvent tells one client that its command failed and why.
type noticeEvent struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

const commandTimeout = 15 * time.Second

func (m *Manager) handleCommand(conn *Connection, message []byte) {
	if !conn.limiter.Allow() {
		m.sendNotice(conn, "", "notice.busy")
		return
	}

	var cmd command
	if err := json.Unmarshal(message, &cmd); err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", conn.ID).
			Msg("discarding malformed client command")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch cmd.Action {
	case "create":
		if cmd.Name == "" {
			m.sendNotice(conn, cmd.Action, "notice.name_required")
			return
		}
		err = m.create(ctx, cmd)
		if err == nil {
			m.saveName(cmd.Name)
		}
	case "join":
		if cmd.Code == "" {
			m.sendNotice(conn, cmd.Action, "notice.code_required")
			return
		}
		err = m.controller.Join(ctx, cmd.Code)
	case "vote":
		err = m.controller.SetVote(ctx, cmd.Value)
	case "reveal":
		err = m.controller.Reveal(ctx)
	case "reset":
		err = m.controller.Reset(ctx)
	case "deck":
		err = m.controller.UpdateDeck(ctx, cmd.Deck)
	case "deck_range":
		err = m.rangeDeck(ctx, cmd)
	case "story":
		err = m.controller.UpdateStory(ctx, cmd.Story)
	case "name":
		if cmd.Name == "" {
			m.sendNotice(conn, cmd.Action, "notice.name_required")
			return
		}
		err = m.controller.Rename(ctx, cmd.Name)
		if err == nil {
			m.saveName(cmd.Name)
		}
	case "leave":
		err = m.controller.Leave(ctx)
	case "refresh":
		err = m.controller.Refresh(ctx)
	default:
		log.Warn().
			Str("connection_id", conn.ID).
			Str("action", cmd.Action).
			Msg("unknown client command")
		return
	}

	if err != nil {
		metrics.CommandErrors.WithLabelValues(cmd.Action).Inc()
		log.Warn().
			Err(err).
			Str("action", cmd.Action).
			Msg("client command failed")
		m.sendNotice(conn, cmd.Action, noticeKey(err))
	}
}

func (m *Manager) create(ctx context.Context, cmd command) error {
	cards := deck.Default
	if cmd.Deck != "" {
		cards = deck.Parse(cmd.Deck)
	}
	_, err := m.controller.Create(ctx, cmd.Name, cards)
	return err
}

func (m *Manager) rangeDeck(ctx context.Context, cmd command) error {
	values, err := deck.GenerateRange(cmd.From, cmd.To, cmd.Step)
	if err != nil {
		return err
	}
	return m.controller.UpdateDeck(ctx, deck.Serialize(values))
}

func (m *Manager) saveName(name string) {
	if m.names == nil {
		return
	}
	if err := m.names.SetDisplayName(name); err != nil {
		log.Warn().Err(err).Msg("failed to persist display name")
	}
}

func (m *Manager) sendNotice(conn *Connection, action, key string) {
	data, err := json.Marshal(noticeEvent{
		Type:    "notice",
		Action:  action,
		Key:     key,
		Message: m.strings.T(key),
	})
	if err != nil {
		return
	}
	select {
	case conn.Send <- data:
	default:
	}
}

// noticeKey maps a controller failure to its localized bundle key.
func noticeKey(err error) string {
	switch {
	case errors.Is(err, session.ErrBackendUnavailable):
		return "notice.backend_unavailable"
	case errors.Is(err, session.ErrSessionNotFound):
		return "notice.session_not_found"
	case errors.Is(err, session.ErrCreateFailed):
		return "notice.create_failed"
	case errors.Is(err, session.ErrJoinFailed):
		return "notice.join_failed"
	case errors.Is(err, session.ErrVoteFailed):
		return "notice.vote_failed"
	case errors.Is(err, session.ErrRevealFailed):
		return "notice.reveal_failed"
	case errors.Is(err, session.ErrResetFailed):
		return "notice.reset_failed"
	case errors.Is(err, session.ErrEmptyDeck):
		return "notice.empty_deck"
	case errors.Is(err, session.ErrDeckUpdateFailed):
		return "notice.deck_update_failed"
	case errors.Is(err, session.ErrStoryUpdateFailed):
		return "notice.story_update_failed"
	case errors.Is(err, deck.ErrInvalidRange):
		return "notice.invalid_range"
	case errors.Is(err, session.ErrBusy):
		return "notice.busy"
	case errors.Is(err, session.ErrNoSession):
		return "notice.session_not_found"
	default:
		return "notice.action_failed"
	}
}
