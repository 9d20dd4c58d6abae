package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kimchunsik17/yacht-online/internal/game/match"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
	"github.com/kimchunsik17/yacht-online/internal/game/turn"
	"github.com/kimchunsik17/yacht-online/internal/gameserver"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 50 * time.Second
)

// action is one inbound client message.
type action struct {
	Action      string `json:"action"`
	KeepIndices []int  `json:"keep_indices"`
	Category    string `json:"category"`
}

// Server exposes the match handler over HTTP and WebSockets.
type Server struct {
	handler  *gameserver.MatchHandler
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a Server.
//
// Precondition: handler, hub, and logger must be non-nil.
func NewServer(handler *gameserver.MatchHandler, hub *Hub, logger *zap.Logger) *Server {
	return &Server{
		handler: handler,
		hub:     hub,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the chi routing tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/matches", s.handleListMatches)
	r.Post("/matches", s.handleCreateMatch)
	r.Get("/matches/{matchID}", s.handleGetMatch)
	r.Delete("/matches/{matchID}", s.handleDeleteMatch)
	r.Get("/matches/{matchID}/ws", s.handleWebSocket)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleCreateMatch starts a new match and returns its opening state.
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	view, err := s.handler.CreateMatch(r.Context())
	if err != nil {
		s.logger.Error("creating match", zap.Error(err))
		http.Error(w, "failed to create match", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleListMatches returns every in-progress match.
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	views, err := s.handler.ListInProgress(r.Context())
	if err != nil {
		s.logger.Error("listing matches", zap.Error(err))
		http.Error(w, "failed to list matches", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleDeleteMatch abandons a match.
func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "matchID"))
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	err = s.handler.DeleteMatch(r.Context(), id)
	if errors.Is(err, gameserver.ErrMatchNotFound) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("deleting match", zap.String("match_id", id.String()), zap.Error(err))
		http.Error(w, "failed to delete match", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetMatch returns a match's current state.
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "matchID"))
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	view, err := s.handler.State(r.Context(), id)
	if errors.Is(err, gameserver.ErrMatchNotFound) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("loading match", zap.String("match_id", id.String()), zap.Error(err))
		http.Error(w, "failed to load match", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleWebSocket upgrades the connection, subscribes it to the match, and
// pumps actions in and events out until either side closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "matchID"))
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	view, err := s.handler.State(r.Context(), id)
	if errors.Is(err, gameserver.ErrMatchNotFound) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to load match", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed",
			zap.String("match_id", id.String()), zap.Error(err))
		return
	}

	events, unsubscribe := s.hub.Subscribe(id)
	defer unsubscribe()

	s.logger.Info("client connected",
		zap.String("match_id", id.String()),
		zap.String("remote", r.RemoteAddr))

	// Writer goroutine: hub events and pings out, current state first.
	done := make(chan struct{})
	go s.writeLoop(conn, view, events, done)

	s.readLoop(conn, id)
	close(done)
	_ = conn.Close()
}

// writeLoop serializes all writes to the connection.
func (s *Server) writeLoop(conn *websocket.Conn, first *gameserver.MatchView, events <-chan gameserver.Event, done <-chan struct{}) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	if err := writeEvent(conn, gameserver.Event{Type: gameserver.EventState, State: first}); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(conn, event); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readLoop dispatches inbound actions until the connection drops.
func (s *Server) readLoop(conn *websocket.Conn, id uuid.UUID) {
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed",
					zap.String("match_id", id.String()), zap.Error(err))
			}
			return
		}

		var act action
		if err := json.Unmarshal(payload, &act); err != nil {
			s.sendError(conn, "invalid_input", "malformed action payload")
			continue
		}
		s.dispatch(conn, id, act)
	}
}

// dispatch applies one client action. The human always plays side A.
func (s *Server) dispatch(conn *websocket.Conn, id uuid.UUID, act action) {
	ctx := context.Background()
	var err error
	switch act.Action {
	case "roll":
		_, err = s.handler.ApplyRoll(ctx, id, match.SideA, act.KeepIndices)
	case "select_category":
		_, err = s.handler.ApplySelect(ctx, id, match.SideA, scoring.Category(act.Category))
	default:
		s.sendError(conn, "invalid_input", "unknown action "+act.Action)
		return
	}
	if err != nil {
		s.sendError(conn, reasonFor(err), err.Error())
	}
}

// reasonFor maps engine errors onto wire reason codes.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, turn.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, turn.ErrIllegalMove):
		return "illegal_move"
	case errors.Is(err, match.ErrNotYourTurn), errors.Is(err, match.ErrMatchOver):
		return "not_your_turn"
	case errors.Is(err, match.ErrScriptInconsistency):
		return "script_inconsistency"
	case errors.Is(err, gameserver.ErrMatchNotFound):
		return "match_not_found"
	default:
		return "internal_error"
	}
}

// sendError reports a rejected action to this client only.
func (s *Server) sendError(conn *websocket.Conn, reason, detail string) {
	_ = writeEvent(conn, gameserver.Event{
		Type:   gameserver.EventError,
		Reason: reason,
		Text:   detail,
	})
}

func writeEvent(conn *websocket.Conn, event gameserver.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(event)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
