package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scrumkit/pokerd/internal/models"
)

const (
	keyUserID   = "user_id"
	keyUserName = "user_name"
	keyLocale   = "locale"

	defaultLocale = "en"
)

// Profile is the resolved local participant state.
type Profile struct {
	Participant models.Participant
	Locale      string

	storage Storage
}

// Bootstrap reads the profile from storage, minting and persisting a fresh
// participant id on first run. The id never changes afterwards.
func Bootstrap(storage Storage) (*Profile, error) {
	id, err := storage.Get(keyUserID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		if err := storage.Set(keyUserID, id); err != nil {
			return nil, fmt.Errorf("failed to persist participant id: %w", err)
		}
		log.Info().Str("participant_id", id).Msg("minted participant id")
	}

	name, err := storage.Get(keyUserName)
	if err != nil {
		return nil, err
	}

	locale, err := storage.Get(keyLocale)
	if err != nil {
		return nil, err
	}
	if locale == "" {
		locale = defaultLocale
	}

	return &Profile{
		Participant: models.Participant{ID: id, DisplayName: name},
		Locale:      locale,
		storage:     storage,
	}, nil
}

// SetDisplayName updates the name in memory and writes it through.
func (p *Profile) SetDisplayName(name string) error {
	p.Participant.DisplayName = name
	return p.storage.Set(keyUserName, name)
}

// SetLocale updates the locale preference and writes it through.
func (p *Profile) SetLocale(locale string) error {
	p.Locale = locale
	return p.storage.Set(keyLocale, locale)
}
