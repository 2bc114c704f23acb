// Package store defines the remote session store contract the controller
// depends on. The store is the sole source of truth; the controller only
// caches snapshots of it.
package store

import (
	"context"
	"errors"

	"github.com/scrumkit/pokerd/internal/models"
)

// ErrSessionNotFound is returned by GetSession for an unknown room code.
var ErrSessionNotFound = errors.New("session not found")

// ErrCodeTaken is returned by CreateSession when the room code is already in
// use. The controller's create loop retries with a fresh code.
var ErrCodeTaken = errors.New("room code already taken")

// Store is the remote document store holding sessions and votes.
type Store interface {
	// CreateSession atomically creates a session under code. Fails with
	// ErrCodeTaken when the code is already claimed.
	CreateSession(ctx context.Context, code, displayName string, deck []string) (*models.Session, error)

	// GetSession fetches a session by code, ErrSessionNotFound if absent.
	GetSession(ctx context.Context, code string) (*models.Session, error)

	// UpdateSession applies a partial patch to a session.
	UpdateSession(ctx context.Context, code string, patch models.SessionPatch) error

	// ListVotes returns the session's vote rows in stable participant-id
	// order.
	ListVotes(ctx context.Context, code string) ([]models.Vote, error)

	// UpsertVote writes the vote row keyed by (code, participantID). The
	// display name is refreshed on every call; value nil means no pick.
	UpsertVote(ctx context.Context, code, participantID, displayName string, value *string) error

	// EnsureVote is the join path: inserts a pickless row if the participant
	// has none, otherwise only refreshes the display name. An existing pick
	// survives a rejoin.
	EnsureVote(ctx context.Context, code, participantID, displayName string) error

	// ClearVotes nulls every vote value in the session. Used by reset before
	// the revealed flag is lowered.
	ClearVotes(ctx context.Context, code string) error

	// DeleteVote removes a participant's row. Deleting an absent row is not
	// an error.
	DeleteVote(ctx context.Context, code, participantID string) error
}
