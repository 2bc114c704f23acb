// Package notify carries the payload-free "something changed" signals between
// daemons sharing a session. Delivery is best-effort in every implementation;
// the poll loop, not the hub, is the correctness backstop.
package notify

import "context"

// Hub is the push channel between participants of a session.
type Hub interface {
	// Subscribe registers onChange for a room code and returns a disposer.
	// The callback receives no payload: subscribers re-fetch full state.
	// Callbacks may fire on any goroutine and may be dropped, duplicated,
	// or delayed.
	Subscribe(code string, onChange func()) (func(), error)

	// Publish signals that something about the session changed.
	Publish(ctx context.Context, code string) error
}
