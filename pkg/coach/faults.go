package coach

import "errors"

// Fault taxonomy for the conversation engine. Everything here is
// recoverable at the session level; none of these end a session.
var (
	// ErrSessionBusy rejects a second concurrent turn for the same
	// session. Sessions are single-writer.
	ErrSessionBusy = errors.New("session already has a turn in flight")

	// ErrSubmitted rejects draft mutation after the one-way submit
	// transition. Conversation may continue; merges may not.
	ErrSubmitted = errors.New("submission is finalized; the draft is frozen")

	// ErrStaleGeneration discards work from a round that started before
	// the session was reset. The post-reset draft must survive.
	ErrStaleGeneration = errors.New("session was reset while the round was in flight")

	// ErrGateway marks a model backend failure that survived the
	// automatic retry.
	ErrGateway = errors.New("model gateway failure")
)
