package session

import (
	"errors"

	"github.com/scrumkit/pokerd/internal/store"
)

// Every failure is local to one user action: it surfaces as a notice, never
// corrupts the last-good snapshot, and is recovered by retrying the action.
var (
	// ErrBackendUnavailable means no store is configured; no network call
	// was attempted.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrCreateFailed means the code-collision retries were exhausted or the
	// store rejected the create.
	ErrCreateFailed = errors.New("create failed")

	// ErrSessionNotFound mirrors the store sentinel for join/fetch on a
	// code that does not exist.
	ErrSessionNotFound = store.ErrSessionNotFound

	// ErrJoinFailed covers the membership upsert failing after the session
	// was found.
	ErrJoinFailed = errors.New("join failed")

	ErrVoteFailed   = errors.New("vote failed")
	ErrRevealFailed = errors.New("reveal failed")
	ErrResetFailed  = errors.New("reset failed")

	// ErrEmptyDeck is local validation; no network call was made.
	ErrEmptyDeck = errors.New("deck must contain at least one card")

	ErrDeckUpdateFailed  = errors.New("deck update failed")
	ErrStoryUpdateFailed = errors.New("story update failed")

	// ErrBusy rejects a user action while another one is still in flight.
	// Background refreshes are not affected.
	ErrBusy = errors.New("another action is in flight")

	// ErrNoSession rejects session-scoped actions outside the Active state.
	ErrNoSession = errors.New("no active session")
)
