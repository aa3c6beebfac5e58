package mentor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/hackfund/server/internal/config"
	"github.com/hackfund/server/internal/identity"
	"github.com/hackfund/server/internal/ledger"
	"github.com/hackfund/server/internal/store"
)

// WebSocketHandler serves the mentor chat panel over WebSocket. The
// connection maps one-to-one onto a conversation session: accept = panel
// open (greeting pushed), close = panel close (state discarded).
type WebSocketHandler struct {
	repo          store.Repository
	ledgers       *ledger.Manager
	research      ResearchProvider
	mentor        MentorProvider
	limiter       *RateLimiter
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates the mentor chat handler.
func NewWebSocketHandler(repo store.Repository, ledgers *ledger.Manager, research ResearchProvider, mentorClient MentorProvider, cfg *config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		repo:          repo,
		ledgers:       ledgers,
		research:      research,
		mentor:        mentorClient,
		limiter:       NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration),
		allowedOrigin: cfg.FrontendURL,
		isDev:         cfg.IsDevelopment(),
	}
}

// chatFrame is the wire format in both directions.
type chatFrame struct {
	Type      string    `json:"type"`
	Role      string    `json:"role,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Frame types.
const (
	frameMessage   = "message"
	frameAssistant = "assistant"
	frameError     = "error"
	frameBusy      = "busy"
	framePing      = "ping"
	framePong      = "pong"
)

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		http.Error(w, `{"error": "team_id is required"}`, http.StatusBadRequest)
		return
	}

	team, err := h.repo.GetTeam(r.Context(), teamID)
	if err != nil || team == nil {
		http.Error(w, `{"error": "team not found"}`, http.StatusNotFound)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "panel closed"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	slog.Info("Mentor panel opened", "user_id", userID, "team_id", teamID)

	session := NewSession(h.research, h.mentor, h.ledgers.ForTeam(teamID))
	defer session.Close()
	defer slog.Info("Mentor panel closed", "user_id", userID, "team_id", teamID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Push the greeting that NewSession appended.
	greeting := session.History()[0]
	if err := h.writeFrame(ctx, ws, chatFrame{
		Type:      frameAssistant,
		Role:      greeting.Role,
		Content:   greeting.Content,
		Timestamp: greeting.Timestamp,
	}); err != nil {
		slog.Warn("Failed to send mentor greeting", "error", err, "user_id", userID)
		return
	}

	h.readLoop(ctx, ws, session, userID, teamID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, session *Session, userID, teamID string) {
	for {
		_, raw, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else if !errors.Is(err, context.Canceled) {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var frame chatFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			if writeErr := h.writeFrame(ctx, ws, chatFrame{Type: frameError, Content: "invalid frame"}); writeErr != nil {
				return
			}
			continue
		}

		switch frame.Type {
		case framePing:
			if err := h.writeFrame(ctx, ws, chatFrame{Type: framePong}); err != nil {
				return
			}
		case frameMessage:
			// Blank input is rejected before the limiter so it cannot
			// burn quota.
			if strings.TrimSpace(frame.Content) == "" {
				if err := h.writeFrame(ctx, ws, chatFrame{Type: frameError, Content: "message is empty"}); err != nil {
					return
				}
				continue
			}
			if !h.limiter.Allow(userID) {
				if err := h.writeFrame(ctx, ws, chatFrame{Type: frameError, Content: "rate limit exceeded"}); err != nil {
					return
				}
				continue
			}
			// Run the turn off the read loop so a send arriving while a
			// pipeline is outstanding hits the session's busy guard and
			// gets a busy frame instead of silently queueing.
			// coder/websocket serializes concurrent writers.
			go h.handleTurn(ctx, ws, session, userID, teamID, frame.Content)
		default:
			if err := h.writeFrame(ctx, ws, chatFrame{Type: frameError, Content: "unknown frame type"}); err != nil {
				return
			}
		}

		// Touch the user's last-seen timestamp off the hot path.
		go func() {
			updateCtx, cancelUpdate := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelUpdate()
			if err := h.repo.UpdateLastSeen(updateCtx, userID, time.Now()); err != nil {
				slog.Warn("Failed to update last seen", "error", err, "user_id", userID)
			}
		}()
	}
}

func (h *WebSocketHandler) handleTurn(ctx context.Context, ws *websocket.Conn, session *Session, userID, teamID, content string) {
	slog.Info("Mentor chat turn",
		"user_id", userID,
		"team_id", teamID,
		"state", session.State().String(),
		"message_length", len(content),
	)

	reply, err := session.Send(ctx, content)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		err = h.writeFrame(ctx, ws, chatFrame{Type: frameError, Content: "message is empty"})
	case errors.Is(err, ErrTurnInProgress):
		err = h.writeFrame(ctx, ws, chatFrame{Type: frameBusy, Content: "previous turn still in progress"})
	case errors.Is(err, ErrSessionClosed):
		return
	case err != nil:
		slog.Error("Mentor turn failed", "error", err, "user_id", userID)
		err = h.writeFrame(ctx, ws, chatFrame{Type: frameError, Content: "turn failed"})
	default:
		err = h.writeFrame(ctx, ws, chatFrame{
			Type:      frameAssistant,
			Role:      reply.Role,
			Content:   reply.Content,
			Timestamp: reply.Timestamp,
		})
	}
	if err != nil {
		slog.Warn("Failed to write chat frame", "error", err, "user_id", userID)
	}
}

func (h *WebSocketHandler) writeFrame(ctx context.Context, ws *websocket.Conn, frame chatFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
