// Package memory is an in-process session store. It backs the demo mode and
// the controller/gateway tests; semantics mirror the postgres store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scrumkit/pokerd/internal/models"
	"github.com/scrumkit/pokerd/internal/store"
)

// Store holds sessions and votes in maps guarded by one mutex.
type Store struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	votes    map[string]map[string]models.Vote
	now      func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]models.Session),
		votes:    make(map[string]map[string]models.Vote),
		now:      time.Now,
	}
}

// SetNow overrides the timestamp source. Tests use this to get
// deterministic updated_at values.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) CreateSession(_ context.Context, code, displayName string, deck []string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[code]; exists {
		return nil, store.ErrCodeTaken
	}

	now := s.now()
	session := models.Session{
		Code:        code,
		DisplayName: displayName,
		Deck:        append([]string(nil), deck...),
		Revealed:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.sessions[code] = session
	s.votes[code] = make(map[string]models.Vote)

	out := cloneSession(session)
	return &out, nil
}

func (s *Store) GetSession(_ context.Context, code string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[code]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	out := cloneSession(session)
	return &out, nil
}

func (s *Store) UpdateSession(_ context.Context, code string, patch models.SessionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[code]
	if !ok {
		return store.ErrSessionNotFound
	}
	if patch.DisplayName != nil {
		session.DisplayName = *patch.DisplayName
	}
	if patch.Deck != nil {
		session.Deck = append([]string(nil), (*patch.Deck)...)
	}
	if patch.Story != nil {
		session.Story = *patch.Story
	}
	if patch.Revealed != nil {
		session.Revealed = *patch.Revealed
	}
	session.UpdatedAt = s.now()
	s.sessions[code] = session
	return nil
}

func (s *Store) ListVotes(_ context.Context, code string) ([]models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.votes[code]
	out := make([]models.Vote, 0, len(rows))
	for _, v := range rows {
		out = append(out, cloneVote(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out, nil
}

func (s *Store) UpsertVote(_ context.Context, code, participantID, displayName string, value *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.votes[code]
	if !ok {
		rows = make(map[string]models.Vote)
		s.votes[code] = rows
	}
	rows[participantID] = models.Vote{
		SessionCode:   code,
		ParticipantID: participantID,
		DisplayName:   displayName,
		Value:         cloneValue(value),
		UpdatedAt:     s.now(),
	}
	return nil
}

func (s *Store) EnsureVote(_ context.Context, code, participantID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.votes[code]
	if !ok {
		rows = make(map[string]models.Vote)
		s.votes[code] = rows
	}
	if existing, ok := rows[participantID]; ok {
		existing.DisplayName = displayName
		existing.UpdatedAt = s.now()
		rows[participantID] = existing
		return nil
	}
	rows[participantID] = models.Vote{
		SessionCode:   code,
		ParticipantID: participantID,
		DisplayName:   displayName,
		UpdatedAt:     s.now(),
	}
	return nil
}

func (s *Store) ClearVotes(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, v := range s.votes[code] {
		v.Value = nil
		v.UpdatedAt = s.now()
		s.votes[code][id] = v
	}
	return nil
}

func (s *Store) DeleteVote(_ context.Context, code, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.votes[code], participantID)
	return nil
}

func cloneSession(s models.Session) models.Session {
	s.Deck = append([]string(nil), s.Deck...)
	return s
}

func cloneVote(v models.Vote) models.Vote {
	v.Value = cloneValue(v.Value)
	return v
}

func cloneValue(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
