package mentor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hackfund/server/internal/ledger"
)

// State of a mentor conversation.
type State int

const (
	// StateIdle means the panel is closed and the session holds no state.
	StateIdle State = iota
	// StateAwaitingProjectContext means the panel is open and the next
	// user message becomes the project description.
	StateAwaitingProjectContext
	// StateConversing is the steady state: each turn runs the two-stage
	// pipeline.
	StateConversing
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingProjectContext:
		return "awaiting_project_context"
	case StateConversing:
		return "conversing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session errors.
var (
	// ErrEmptyMessage rejects blank input before any state transition.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrTurnInProgress rejects a new message while a prior turn's stage
	// pipeline is still outstanding.
	ErrTurnInProgress = errors.New("a turn is already in progress")
	// ErrSessionClosed rejects messages after the panel is closed.
	ErrSessionClosed = errors.New("session is closed")
)

// Session is a mentor conversation state machine for one open panel.
// Turns are strictly sequential: at most one stage pipeline is in flight,
// and assistant messages append in user-message order.
type Session struct {
	mu             sync.Mutex
	state          State
	history        []Message
	projectContext string
	turnPending    bool

	research ResearchProvider
	mentor   MentorProvider
	ledger   *ledger.Ledger

	// ctx is cancelled by Close so in-flight stage calls do not write
	// into a torn-down session.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession opens a mentor panel: it creates conversation state and
// appends the greeting listing the team's purchased offerings. No stage
// client is called.
func NewSession(research ResearchProvider, mentorClient MentorProvider, l *ledger.Ledger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		state:    StateAwaitingProjectContext,
		research: research,
		mentor:   mentorClient,
		ledger:   l,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.history = append(s.history, Message{
		Role:      RoleAssistant,
		Content:   greetingMessage(l.Snapshot().PurchasedNames()),
		Timestamp: time.Now(),
	})
	return s
}

// Send runs one conversation turn and returns the assistant message
// appended for it. Empty or whitespace-only input is rejected before any
// transition; a second Send while a turn is outstanding returns
// ErrTurnInProgress.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	switch {
	case s.state == StateIdle:
		s.mu.Unlock()
		return Message{}, ErrSessionClosed
	case s.turnPending:
		s.mu.Unlock()
		return Message{}, ErrTurnInProgress
	}

	s.history = append(s.history, Message{Role: RoleUser, Content: text, Timestamp: time.Now()})

	// First substantive message becomes the project context, verbatim.
	// The acknowledgment is static text: no external call is spent
	// before context exists.
	if s.state == StateAwaitingProjectContext {
		s.projectContext = text
		s.state = StateConversing
		reply := Message{Role: RoleAssistant, Content: projectIdeaAck, Timestamp: time.Now()}
		s.history = append(s.history, reply)
		s.mu.Unlock()
		return reply, nil
	}

	// Steady state: snapshot what the pipeline needs, then release the
	// lock for the duration of the network calls. The recent-history
	// window excludes the message being answered.
	s.turnPending = true
	projectContext := s.projectContext
	recent := recentWindow(s.history[:len(s.history)-1], historyWindow)
	s.mu.Unlock()

	reply := s.converseTurn(ctx, text, projectContext, recent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		// Panel closed while the turn was in flight; drop the result.
		return Message{}, ErrSessionClosed
	}
	s.turnPending = false
	msg := Message{Role: RoleAssistant, Content: reply, Timestamp: time.Now()}
	s.history = append(s.history, msg)
	return msg, nil
}

// converseTurn runs the two-stage pipeline. It always returns some reply:
// research failures degrade into the mentor prompt, mentor failures yield
// the stage-failure text, and anything unexpected is caught and replaced
// by the last-resort fallback.
func (s *Session) converseTurn(ctx context.Context, userText, projectContext string, recent []Message) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("mentor turn pipeline failed unexpectedly", "panic", r)
			reply = panicFallbackReply
		}
	}()

	turnCtx, cancelTurn := context.WithCancel(ctx)
	defer cancelTurn()
	stop := context.AfterFunc(s.ctx, cancelTurn)
	defer stop()

	findings, err := s.research.Research(turnCtx, userText, projectContext)
	if err != nil {
		slog.Warn("research stage failed", "error", err)
		findings = fmt.Sprintf("Error calling research API: %v", err)
	}

	snap := s.ledger.Snapshot()
	reply, err = s.mentor.Mentor(turnCtx, Request{
		UserMessage:        userText,
		ProjectContext:     projectContext,
		ResearchFindings:   findings,
		RecentHistory:      recent,
		RemainingBudget:    snap.Remaining,
		PurchasedItemNames: snap.PurchasedNames(),
	})
	if err != nil {
		slog.Warn("mentor stage failed", "error", err)
		reply = stageFailureReply
	}
	return reply
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// ProjectContext returns the captured project description, if any.
func (s *Session) ProjectContext() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectContext
}

// State returns the current conversation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AwaitingProjectContext reports whether the next message will be captured
// as the project description.
func (s *Session) AwaitingProjectContext() bool {
	return s.State() == StateAwaitingProjectContext
}

// Close discards all conversation state and cancels any in-flight stage
// call. Reopening the panel means a fresh NewSession; nothing leaks
// across sessions.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.history = nil
	s.projectContext = ""
	s.turnPending = false
}

// recentWindow returns the last n messages of history.
func recentWindow(history []Message, n int) []Message {
	if len(history) <= n {
		out := make([]Message, len(history))
		copy(out, history)
		return out
	}
	out := make([]Message, n)
	copy(out, history[len(history)-n:])
	return out
}
