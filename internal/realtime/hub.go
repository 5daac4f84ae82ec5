// Package realtime fans state changes out to connected dashboard sessions.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/pkg/logger"
	"github.com/atendimento/crm-dashboard/pkg/metrics"
)

const (
	defaultSessionBuffer = 256
	defaultOutboxSize    = 1024
)

// SnapshotFunc returns the conversation list sent to a new session.
type SnapshotFunc func(ctx context.Context) []model.Conversation

// HubConfig configures a Hub.
type HubConfig struct {
	// SessionBuffer is how many events may queue for one session before it
	// is considered too slow and disconnected.
	SessionBuffer int
	OutboxSize    int
}

// Hub keeps the set of connected sessions and delivers every published
// event to each of them. Events travel through the backplane so sessions
// connected to other instances receive them too.
type Hub struct {
	backplane Backplane
	snapshot  SnapshotFunc
	logger    *logger.Logger
	buffer    int

	outbox chan model.Event

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewHub creates a hub. Run must be started before events are delivered.
func NewHub(cfg HubConfig, backplane Backplane, snapshot SnapshotFunc, log *logger.Logger) *Hub {
	if cfg.SessionBuffer <= 0 {
		cfg.SessionBuffer = defaultSessionBuffer
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = defaultOutboxSize
	}
	if backplane == nil {
		backplane = NewLocalBackplane()
	}
	return &Hub{
		backplane: backplane,
		snapshot:  snapshot,
		logger:    logger.OrGlobal(log).Named("realtime"),
		buffer:    cfg.SessionBuffer,
		outbox:    make(chan model.Event, cfg.OutboxSize),
		sessions:  make(map[string]*Session),
	}
}

// Backplane returns the backplane the hub publishes through.
func (h *Hub) Backplane() Backplane {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.backplane
}

// Publish queues evt for delivery and returns immediately.
func (h *Hub) Publish(evt model.Event) {
	select {
	case h.outbox <- evt:
	default:
		// Outbox saturated: skip the backplane so local sessions still
		// see the event.
		h.logger.Warn("outbox full, delivering locally", zap.String("type", string(evt.Type)))
		h.deliver(evt)
	}
}

// Run subscribes to the backplane and forwards queued events to it until
// ctx is done. When the subscription cannot be established the hub keeps
// serving this instance through a local backplane.
func (h *Hub) Run(ctx context.Context) error {
	bp := h.Backplane()
	if err := bp.Subscribe(ctx, h.deliver); err != nil {
		metrics.BackplaneErrorsTotal.WithLabelValues(bp.Name()).Inc()
		h.logger.Warn("backplane subscribe failed, events stay on this instance",
			zap.String("backplane", bp.Name()),
			zap.Error(err),
		)
		local := NewLocalBackplane()
		if err := local.Subscribe(ctx, h.deliver); err != nil {
			return err
		}
		h.mu.Lock()
		h.backplane = local
		h.mu.Unlock()
		bp = local
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-h.outbox:
			if err := bp.Publish(ctx, evt); err != nil {
				metrics.BackplaneErrorsTotal.WithLabelValues(bp.Name()).Inc()
				h.logger.Warn("backplane publish failed, delivering locally",
					zap.String("backplane", bp.Name()),
					zap.String("type", string(evt.Type)),
					zap.Error(err),
				)
				h.deliver(evt)
			}
		}
	}
}

// deliver hands evt to every local session without blocking. Sessions
// whose buffer is full are disconnected; they will resync on reconnect.
func (h *Hub) deliver(evt model.Event) {
	metrics.EventsBroadcastTotal.WithLabelValues(string(evt.Type)).Inc()

	h.mu.RLock()
	var slow []*Session
	for _, s := range h.sessions {
		if !s.enqueue(evt) {
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		metrics.SessionsDroppedTotal.Inc()
		h.logger.Warn("dropping slow session", zap.String("session_id", s.id), zap.String("transport", s.transport))
		h.Unregister(s)
	}
}

// Register adds a session and queues its init snapshot. Events published
// while the snapshot is loading are held back and follow the init event.
func (h *Hub) Register(ctx context.Context, transport string) (*Session, error) {
	s := newSession(uuid.NewString(), transport, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.sessions[s.id] = s
	h.mu.Unlock()

	var convs []model.Conversation
	if h.snapshot != nil {
		convs = h.snapshot(ctx)
	}
	if convs == nil {
		convs = []model.Conversation{}
	}
	initEvt, err := model.NewEvent(model.EventInit, convs)
	if err != nil {
		h.Unregister(s)
		return nil, err
	}
	if !s.start(initEvt) {
		h.Unregister(s)
		return nil, ErrSessionClosed
	}

	metrics.IncrementSessions(transport)
	h.logger.Info("session connected",
		zap.String("session_id", s.id),
		zap.String("transport", transport),
		zap.Int("conversations", len(convs)),
	)
	return s, nil
}

// Unregister removes and closes the session. It is safe to call more than once.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()

	s.close()
	if ok && s.started() {
		metrics.DecrementSessions(s.transport)
		h.logger.Info("session disconnected", zap.String("session_id", s.id), zap.String("transport", s.transport))
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close disconnects every session and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		h.Unregister(s)
	}
}
