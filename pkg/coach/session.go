package coach

import (
	"sync"

	"radar-coach-be/pkg/llm"
	"radar-coach-be/pkg/radar"
)

// Submission status. The open -> submitted transition is one-way.
type Status string

const (
	StatusOpen      Status = "open"
	StatusSubmitted Status = "submitted"
)

// Session owns one user's draft submission, the full ordered turn history,
// and the submission status. It is single-writer: one tool-use loop at a
// time. Every mutation is tagged with the reset-generation captured when
// the loop began, so a reset mid-flight invalidates the loop's remaining
// writes instead of letting them clobber the fresh draft.
type Session struct {
	id string

	mu         sync.Mutex
	draft      *radar.BlipSubmission
	history    []llm.Message
	status     Status
	generation uint64
	inFlight   bool
}

func NewSession(id string) *Session {
	return &Session{
		id:     id,
		draft:  &radar.BlipSubmission{},
		status: StatusOpen,
	}
}

func (s *Session) ID() string { return s.id }

// BeginTurn claims the single-writer slot and returns the generation the
// turn runs under. A second in-flight turn is rejected, never interleaved.
func (s *Session) BeginTurn() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return 0, ErrSessionBusy
	}
	s.inFlight = true
	return s.generation, nil
}

func (s *Session) EndTurn() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// AppendTurn records a conversation turn, unless the session was reset
// since the turn began.
func (s *Session) AppendTurn(gen uint64, msg llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrStaleGeneration
	}
	s.history = append(s.history, msg)
	return nil
}

// HistorySnapshot copies the ordered history for a gateway round.
func (s *Session) HistorySnapshot(gen uint64) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrStaleGeneration
	}
	return append([]llm.Message(nil), s.history...), nil
}

// DraftSnapshot returns a deep copy of the current draft.
func (s *Session) DraftSnapshot() *radar.BlipSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// ApplyPatch merges a validated patch into the draft. The merge is atomic
// over the patch: a frozen or reset session rejects it without touching
// any field.
func (s *Session) ApplyPatch(gen uint64, p *radar.Patch) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrStaleGeneration
	}
	if s.status == StatusSubmitted {
		return nil, ErrSubmitted
	}
	return s.draft.Apply(p), nil
}

// MarkSubmitted performs the one-way open -> submitted transition.
func (s *Session) MarkSubmitted(gen uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrStaleGeneration
	}
	if s.status == StatusSubmitted {
		return ErrSubmitted
	}
	s.status = StatusSubmitted
	return nil
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Submitted() bool { return s.Status() == StatusSubmitted }

// Reset re-initializes the draft and history in place and reopens the
// session. The generation bump makes any in-flight round stale; its
// eventual writes are discarded rather than applied to the fresh draft.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.draft = &radar.BlipSubmission{}
	s.history = nil
	s.status = StatusOpen
}
