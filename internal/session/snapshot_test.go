package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrumkit/pokerd/internal/models"
)

func strptr(s string) *string { return &s }

func snapshotWith(revealed bool, votes ...models.Vote) Snapshot {
	return Snapshot{
		State:   StateActive,
		Session: &models.Session{Code: "ABC234", Revealed: revealed, Deck: []string{"1", "2", "3"}},
		Votes:   votes,
	}
}

func TestSnapshot_OwnVote(t *testing.T) {
	snap := snapshotWith(false,
		models.Vote{ParticipantID: "user_a", Value: strptr("5")},
		models.Vote{ParticipantID: "user_b"},
	)

	own := snap.OwnVote("user_a")
	require.NotNil(t, own)
	assert.Equal(t, "5", *own)

	assert.Nil(t, snap.OwnVote("user_b"))
	assert.Nil(t, snap.OwnVote("user_unknown"))
}

func TestSnapshot_Counts(t *testing.T) {
	snap := snapshotWith(false,
		models.Vote{ParticipantID: "user_a", Value: strptr("5")},
		models.Vote{ParticipantID: "user_b"},
		models.Vote{ParticipantID: "user_c", Value: strptr("13")},
	)

	assert.Equal(t, 2, snap.VotedCount())
	assert.Equal(t, 3, snap.TotalCount())
}

func TestSnapshot_EmptyCounts(t *testing.T) {
	var snap Snapshot
	assert.Zero(t, snap.VotedCount())
	assert.Zero(t, snap.TotalCount())
	assert.False(t, snap.Revealed())
	assert.Empty(t, snap.Participants())
}

func TestParticipants_MaskedBeforeReveal(t *testing.T) {
	snap := snapshotWith(false,
		models.Vote{ParticipantID: "user_a", DisplayName: "Ada", Value: strptr("5")},
		models.Vote{ParticipantID: "user_b", DisplayName: "Bert"},
	)

	views := snap.Participants()
	require.Len(t, views, 2)

	assert.Equal(t, StatusVoted, views[0].Status)
	assert.Empty(t, views[0].Value, "a hidden pick must not leak its value")
	assert.Equal(t, StatusWaiting, views[1].Status)
	assert.Empty(t, views[1].Value)
}

func TestParticipants_LiteralAfterReveal(t *testing.T) {
	snap := snapshotWith(true,
		models.Vote{ParticipantID: "user_a", DisplayName: "Ada", Value: strptr("5")},
		models.Vote{ParticipantID: "user_b", DisplayName: "Bert"},
	)

	views := snap.Participants()
	require.Len(t, views, 2)

	assert.Equal(t, StatusRevealed, views[0].Status)
	assert.Equal(t, "5", views[0].Value)
	assert.Equal(t, StatusNoVote, views[1].Status)
	assert.Empty(t, views[1].Value)
}

func TestParticipants_OrderMatchesVoteList(t *testing.T) {
	snap := snapshotWith(false,
		models.Vote{ParticipantID: "user_c"},
		models.Vote{ParticipantID: "user_a"},
		models.Vote{ParticipantID: "user_b"},
	)

	views := snap.Participants()
	require.Len(t, views, 3)
	assert.Equal(t, "user_c", views[0].ParticipantID)
	assert.Equal(t, "user_a", views[1].ParticipantID)
	assert.Equal(t, "user_b", views[2].ParticipantID)
}

func TestParticipants_EmptyStringValueCountsAsNoPick(t *testing.T) {
	snap := snapshotWith(true, models.Vote{ParticipantID: "user_a", Value: strptr("")})
	views := snap.Participants()
	require.Len(t, views, 1)
	assert.Equal(t, StatusNoVote, views[0].Status)
}
