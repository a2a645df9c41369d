// ABOUTME: HTTP and WebSocket entry point for the dashboard channel
// ABOUTME: /api/chat, /api/clear, /api/health, /health and a /ws chat socket sharing one JSON shape
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/metrics"
	"github.com/WildEllie/t3nets/internal/models"
	"github.com/WildEllie/t3nets/internal/routing"
)

// DefaultConversation is used when a request names none
const DefaultConversation = "dashboard-default"

const maxBodySize = 1 << 20

// Router handles one message end to end
type Router interface {
	HandleMessage(ctx context.Context, req routing.Request) (*routing.Reply, error)
}

// Conversations can forget a conversation
type Conversations interface {
	ClearConversation(ctx context.Context, tenantID, conversationID string) error
}

// Options describe the deployment for the health endpoint
type Options struct {
	TenantID string
	Model    string
	Skills   []string
	// Integrations lists the tenant's connected integrations
	Integrations func(ctx context.Context, tenantID string) ([]string, error)
	Stats        *metrics.Stats
}

// ChatRequest is the body of /api/chat and of every /ws message
type ChatRequest struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id"`
	TenantID       string `json:"tenant_id,omitempty"`
}

// ChatResponse is the reply to a ChatRequest
type ChatResponse struct {
	Text           string         `json:"text"`
	ConversationID string         `json:"conversation_id"`
	Tokens         int            `json:"tokens"`
	Route          models.Route   `json:"route,omitempty"`
	Raw            bool           `json:"raw"`
	Skill          string         `json:"skill,omitempty"`
	Action         string         `json:"action,omitempty"`
	Error          map[string]any `json:"error,omitempty"`
}

// Server serves the chat API
type Server struct {
	router   Router
	history  Conversations
	opts     Options
	started  time.Time
	upgrader websocket.Upgrader
	logger   zerolog.Logger
	http     *http.Server
}

// New creates a server
func New(router Router, history Conversations, opts Options) *Server {
	return &Server{
		router:  router,
		history: history,
		opts:    opts,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Local dashboard; the browser origin is not enforced
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logging.Get("server"),
	}
}

// Handler returns the routed handler with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/clear", s.handleClear)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleLiveness)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return corsMiddleware(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Model calls plus a skill round trip can take a while
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// chat runs one request through the router
func (s *Server) chat(ctx context.Context, req ChatRequest, channel models.ChannelType) (*ChatResponse, error) {
	conversation := strings.TrimSpace(req.ConversationID)
	if conversation == "" {
		conversation = DefaultConversation
	}
	tenant := strings.TrimSpace(req.TenantID)
	if tenant == "" {
		tenant = s.opts.TenantID
	}

	reply, err := s.router.HandleMessage(ctx, routing.Request{
		TenantID:       tenant,
		ConversationID: conversation,
		Text:           req.Text,
		Channel:        channel,
		User:           &models.User{ID: string(channel) + "-user", TenantID: tenant},
	})
	if err != nil {
		return nil, err
	}

	resp := &ChatResponse{
		Text:           reply.Text,
		ConversationID: conversation,
		Tokens:         reply.Metrics.Tokens,
		Route:          reply.Route,
		Raw:            reply.Raw,
		Skill:          reply.Skill,
		Action:         reply.Action,
	}
	if reply.Error != nil {
		resp.Error = reply.Error.Map()
	}
	return resp, nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Empty message")
		return
	}

	resp, err := s.chat(r.Context(), req, models.ChannelDashboard)
	if errors.Is(err, routing.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "Empty message")
		return
	}
	if errors.Is(err, routing.ErrTenantInactive) {
		writeError(w, http.StatusForbidden, "Tenant is not active")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Chat failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	}
	conversation := strings.TrimSpace(req.ConversationID)
	if conversation == "" {
		conversation = DefaultConversation
	}
	tenant := strings.TrimSpace(req.TenantID)
	if tenant == "" {
		tenant = s.opts.TenantID
	}

	if err := s.history.ClearConversation(r.Context(), tenant, conversation); err != nil {
		s.logger.Error().Err(err).Str("conversation", conversation).Msg("Clear failed")
		writeError(w, http.StatusInternalServerError, "Failed to clear conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true, "conversation_id": conversation})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started) / time.Second),
		"tenant":         s.opts.TenantID,
		"model":          s.opts.Model,
		"skills":         nonNil(s.opts.Skills),
	}
	if s.opts.Stats != nil {
		body["routing"] = s.opts.Stats.Snapshot()
	}
	if s.opts.Integrations != nil {
		connected, err := s.opts.Integrations(r.Context(), s.opts.TenantID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to list integrations")
		}
		body["integrations"] = nonNil(connected)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebSocket answers each ChatRequest frame with a ChatResponse frame, in order
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(maxBodySize)

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Msg("WebSocket read ended")
			}
			return
		}

		var out any
		resp, err := s.chat(r.Context(), req, models.ChannelWebSocket)
		switch {
		case errors.Is(err, routing.ErrEmptyMessage):
			out = map[string]string{"error": "Empty message"}
		case errors.Is(err, routing.ErrTenantInactive):
			out = map[string]string{"error": "Tenant is not active"}
		case err != nil:
			s.logger.Error().Err(err).Msg("WebSocket chat failed")
			out = map[string]string{"error": "Internal error"}
		default:
			out = resp
		}
		if err := conn.WriteJSON(out); err != nil {
			s.logger.Debug().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
