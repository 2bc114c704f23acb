package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrumkit/pokerd/internal/models"
	"github.com/scrumkit/pokerd/internal/notify"
)

// versionedStore tags the session and the vote list with a shared version so
// a test can detect a snapshot stitched together from two different fetches.
// When gate is set, fetches capture their version and then block until the
// gate opens.
type versionedStore struct {
	mu      sync.Mutex
	version int
	gate    chan struct{}
}

func (s *versionedStore) snapshotInputs() (int, chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, s.gate
}

func (s *versionedStore) GetSession(_ context.Context, code string) (*models.Session, error) {
	v, gate := s.snapshotInputs()
	if gate != nil {
		<-gate
	}
	return &models.Session{
		Code:  code,
		Story: fmt.Sprintf("v%d", v),
		Deck:  []string{"1", "2", "3"},
	}, nil
}

func (s *versionedStore) ListVotes(_ context.Context, code string) ([]models.Vote, error) {
	v, gate := s.snapshotInputs()
	if gate != nil {
		<-gate
	}
	value := fmt.Sprintf("v%d", v)
	return []models.Vote{{
		SessionCode:   code,
		ParticipantID: "user_tag",
		DisplayName:   "Tag",
		Value:         &value,
	}}, nil
}

func (s *versionedStore) CreateSession(_ context.Context, code, displayName string, deck []string) (*models.Session, error) {
	return &models.Session{Code: code, DisplayName: displayName, Deck: deck}, nil
}

func (s *versionedStore) UpdateSession(context.Context, string, models.SessionPatch) error {
	return nil
}

func (s *versionedStore) UpsertVote(context.Context, string, string, string, *string) error {
	return nil
}

func (s *versionedStore) EnsureVote(context.Context, string, string, string) error { return nil }
func (s *versionedStore) ClearVotes(context.Context, string) error                 { return nil }
func (s *versionedStore) DeleteVote(context.Context, string, string) error         { return nil }

func snapshotTags(s Snapshot) (string, string) {
	sessionTag := ""
	if s.Session != nil {
		sessionTag = s.Session.Story
	}
	voteTag := ""
	if len(s.Votes) == 1 && s.Votes[0].Value != nil {
		voteTag = *s.Votes[0].Value
	}
	return sessionTag, voteTag
}

func TestRefresh_OutOfOrderCompletionsNeverMixFetches(t *testing.T) {
	vs := &versionedStore{version: 1}
	hub := notify.NewMemHub()
	c := NewController(vs, hub, models.Participant{ID: "user_tag", DisplayName: "Tag"}, clockwork.NewFakeClock(), DefaultConfig())
	t.Cleanup(c.Close)

	_, err := c.Create(context.Background(), "", nil)
	require.NoError(t, err)

	// Refresh A captures version 1 in both fetches, then stalls.
	gate := make(chan struct{})
	vs.mu.Lock()
	vs.gate = gate
	vs.mu.Unlock()

	aDone := make(chan error, 1)
	go func() { aDone <- c.Refresh(context.Background()) }()

	// Give A's two fetch goroutines time to capture version 1.
	time.Sleep(20 * time.Millisecond)

	// Refresh B runs start-to-finish against version 2.
	vs.mu.Lock()
	vs.gate = nil
	vs.version = 2
	vs.mu.Unlock()
	require.NoError(t, c.Refresh(context.Background()))

	sessionTag, voteTag := snapshotTags(c.Snapshot())
	assert.Equal(t, "v2", sessionTag)
	assert.Equal(t, "v2", voteTag)

	// A completes late and installs its older but internally consistent
	// result: last completion wins, and the snapshot is wholly one fetch's.
	close(gate)
	require.NoError(t, <-aDone)

	sessionTag, voteTag = snapshotTags(c.Snapshot())
	assert.Equal(t, sessionTag, voteTag, "snapshot mixes session and votes from different fetches")
}
