package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/realtime"
	"github.com/atendimento/crm-dashboard/pkg/logger"
)

// RealtimeHandler attaches dashboard sessions to the hub over WebSocket
// or, for clients that cannot upgrade, Server-Sent Events.
type RealtimeHandler struct {
	hub          *realtime.Hub
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	logger       *logger.Logger
}

// NewRealtimeHandler creates a new realtime handler. origins is the same
// allow-list used for CORS.
func NewRealtimeHandler(hub *realtime.Hub, origins []string, pingInterval time.Duration, log *logger.Logger) *RealtimeHandler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(origins),
		},
		pingInterval: pingInterval,
		logger:       log,
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// HeartbeatEvent keeps idle SSE connections open through proxies.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// Events handles GET /api/events
func (h *RealtimeHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// The server write timeout would otherwise cut the stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	session, err := h.hub.Register(ctx, "sse")
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "realtime unavailable")
		return
	}
	defer h.hub.Unregister(session)
	log := h.logger.WithSession(session.ID(), "sse")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.pingInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-session.Done():
			return

		case evt := <-session.Events():
			if err := sendSSEEvent(w, flusher, string(evt.Type), evt.Data); err != nil {
				log.Debug("sse write failed", zap.Error(err))
				return
			}

		case <-heartbeat.C:
			if err := sendSSEEvent(w, flusher, "heartbeat", &HeartbeatEvent{Timestamp: time.Now()}); err != nil {
				return
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
