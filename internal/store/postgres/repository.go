// Package postgres implements the session store on a shared PostgreSQL
// instance.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scrumkit/pokerd/internal/models"
	"github.com/scrumkit/pokerd/internal/store"
)

// Postgres unique_violation error code.
const uniqueViolation = "23505"

// Repository implements store.Store over a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a session repository on the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateSession inserts a session row. A primary-key collision on the room
// code maps to store.ErrCodeTaken so the controller can retry with a fresh
// code.
func (r *Repository) CreateSession(ctx context.Context, code, displayName string, deck []string) (*models.Session, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO rooms (code, display_name, deck)
		VALUES ($1, $2, $3)
		RETURNING code, display_name, deck, story, revealed, created_at, updated_at`,
		code, displayName, deck,
	)

	session, err := scanSession(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, store.ErrCodeTaken
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession fetches one session by room code.
func (r *Repository) GetSession(ctx context.Context, code string) (*models.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT code, display_name, deck, story, revealed, created_at, updated_at
		FROM rooms
		WHERE code = $1`,
		code,
	)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// UpdateSession applies the non-nil patch fields to the session row.
func (r *Repository) UpdateSession(ctx context.Context, code string, patch models.SessionPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	sets := []string{"updated_at = now()"}
	args := []any{code}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.DisplayName != nil {
		appendSet("display_name", *patch.DisplayName)
	}
	if patch.Deck != nil {
		appendSet("deck", *patch.Deck)
	}
	if patch.Story != nil {
		appendSet("story", *patch.Story)
	}
	if patch.Revealed != nil {
		appendSet("revealed", *patch.Revealed)
	}

	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf("UPDATE rooms SET %s WHERE code = $1", strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

// ListVotes returns the session's vote rows ordered by participant id so
// seat order is stable across refreshes.
func (r *Repository) ListVotes(ctx context.Context, code string) ([]models.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT room_code, participant_id, display_name, value, updated_at
		FROM votes
		WHERE room_code = $1
		ORDER BY participant_id`,
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.SessionCode, &v.ParticipantID, &v.DisplayName, &v.Value, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}
	return votes, nil
}

// UpsertVote writes the vote row keyed by (room_code, participant_id),
// refreshing the display name on conflict.
func (r *Repository) UpsertVote(ctx context.Context, code, participantID, displayName string, value *string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO votes (room_code, participant_id, display_name, value, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (room_code, participant_id)
		DO UPDATE SET display_name = EXCLUDED.display_name,
		              value = EXCLUDED.value,
		              updated_at = now()`,
		code, participantID, displayName, value,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}

// EnsureVote inserts a pickless membership row, or refreshes only the
// display name when the participant already has one. The vote value is
// deliberately left alone so rejoining mid-round keeps the pick.
func (r *Repository) EnsureVote(ctx context.Context, code, participantID, displayName string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO votes (room_code, participant_id, display_name, value, updated_at)
		VALUES ($1, $2, $3, NULL, now())
		ON CONFLICT (room_code, participant_id)
		DO UPDATE SET display_name = EXCLUDED.display_name,
		              updated_at = now()`,
		code, participantID, displayName,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure vote: %w", err)
	}
	return nil
}

// ClearVotes nulls every vote value for the session.
func (r *Repository) ClearVotes(ctx context.Context, code string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE votes SET value = NULL, updated_at = now()
		WHERE room_code = $1`,
		code,
	)
	if err != nil {
		return fmt.Errorf("failed to clear votes: %w", err)
	}
	return nil
}

// DeleteVote removes a participant's row; absent rows are a no-op.
func (r *Repository) DeleteVote(ctx context.Context, code, participantID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM votes
		WHERE room_code = $1 AND participant_id = $2`,
		code, participantID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	if err := row.Scan(&s.Code, &s.DisplayName, &s.Deck, &s.Story, &s.Revealed, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
