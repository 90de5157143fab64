// Package session owns one grid on behalf of an operator: the current
// snapshot, the focused district and the conversation transcript.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resqgrid/internal/grid"
	"resqgrid/internal/incident"
	"resqgrid/internal/types"
)

var (
	// ErrBusy is returned when a submission arrives while another is in flight.
	ErrBusy = errors.New("session is processing another submission")

	// ErrEmptyInput is returned for blank submissions.
	ErrEmptyInput = errors.New("input is empty")
)

// Sender identifies who wrote a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Processor runs one utterance against a snapshot.
// *incident.Orchestrator satisfies it.
type Processor interface {
	Process(ctx context.Context, text string, prev grid.Snapshot) incident.Outcome
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the transcript clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session serializes submissions against a single grid. At most one
// submission is in flight; a second one is rejected with ErrBusy rather
// than queued.
type Session struct {
	processor Processor
	now       func() time.Time
	logger    *zap.Logger

	mu         sync.Mutex
	busy       bool
	grid       grid.Snapshot
	focus      string
	last       types.Classification
	transcript []Message
}

// New creates a session starting from initial.
func New(p Processor, initial grid.Snapshot, opts ...Option) *Session {
	s := &Session{
		processor: p,
		now:       time.Now,
		logger:    zap.NewNop(),
		grid:      initial,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit processes text against the current grid and installs the result.
func (s *Session) Submit(ctx context.Context, text string) (incident.Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return incident.Outcome{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return incident.Outcome{}, ErrBusy
	}
	s.busy = true
	prev := s.grid
	s.appendLocked(SenderUser, text)
	s.mu.Unlock()

	// Cleared on every exit, including a panicking processor.
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	out := s.processor.Process(ctx, text, prev)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = out.Grid
	s.last = out.Classification
	s.appendLocked(SenderAI, out.Classification.HumanMessage())
	s.updateFocusLocked(out)

	s.logger.Debug("submission applied",
		zap.String("kind", string(out.Classification.Kind())),
		zap.Int("matched", len(out.Match)),
		zap.String("focus", s.focus))
	return out, nil
}

// updateFocusLocked applies the focus rules:
// a reset clears focus, a match focuses the first matched district, and a
// command whose known location matched nothing clears focus.
func (s *Session) updateFocusLocked(out incident.Outcome) {
	c := out.Classification
	switch {
	case types.SignalsReset(c):
		s.focus = ""
	case !out.Match.Empty():
		if cell, ok := out.Grid.Lookup(out.Match[0]); ok {
			s.focus = cell.SubRegion
		}
	case c.Kind() == types.KindCommand && !types.LocationOf(c).Unresolved():
		s.focus = ""
	}
}

func (s *Session) appendLocked(sender Sender, text string) {
	s.transcript = append(s.transcript, Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: s.now(),
	})
}

// Snapshot returns the current grid.
func (s *Session) Snapshot() grid.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

// Focus returns the focused district, or "" when nothing is focused.
func (s *Session) Focus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// SetFocus focuses a district directly, as clicking a cell would.
func (s *Session) SetFocus(district string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = district
}

// Last returns the most recent classification, or nil before the first
// submission completes.
func (s *Session) Last() types.Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}
