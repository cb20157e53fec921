package chat

import (
	"time"

	"github.com/google/uuid"

	"infra-rag/internal/mode"
)

// Turn is one answered question. Turns are append-only and ordered by
// occurrence; each records the mode that was active when it was answered.
type Turn struct {
	Question  string
	Rewritten string
	Answer    string
	Sources   []string
	Diagram   string
	Mode      mode.Mode
	AskedAt   time.Time
}

// Session is the conversational context for one user interaction sequence.
// It is passed explicitly into every orchestrator call; there is no ambient
// session state, so multiple sessions coexist safely.
type Session struct {
	ID    string
	Mode  mode.Mode
	Turns []Turn
}

// NewSession starts a session in the given mode.
func NewSession(m mode.Mode) *Session {
	return &Session{ID: uuid.NewString(), Mode: m}
}

// Reset clears the conversation history. Mode is kept.
func (s *Session) Reset() {
	s.Turns = nil
}

// lastTurn returns the most recent turn, or nil for a fresh session.
func (s *Session) lastTurn() *Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}
