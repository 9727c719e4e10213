// Package relay fans one conversation out to every connected websocket
// session.
package relay

import (
	"context"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voxhr/internal/event"
	"voxhr/pkg/protocol"
)

// Toggler flips voice listening on and off.
type Toggler interface {
	Toggle()
}

type Options struct {
	QueueDepth   int           // per-session outbound frames before the session is dropped
	WriteTimeout time.Duration // per websocket write
	PollInterval time.Duration // how often Pump drains the event queue
}

func DefaultOptions() Options {
	return Options{
		QueueDepth:   64,
		WriteTimeout: 10 * time.Second,
		PollInterval: 100 * time.Millisecond,
	}
}

type Hub struct {
	conv *Conversation
	ctl  Toggler
	opts Options

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub(conv *Conversation, ctl Toggler, opts Options) *Hub {
	def := DefaultOptions()
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = def.QueueDepth
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}

	return &Hub{
		conv:     conv,
		ctl:      ctl,
		opts:     opts,
		sessions: make(map[string]*Session),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Attach registers peer. Its writer replays the assistant's side of the
// transcript before any broadcast queued after registration.
func (h *Hub) Attach(peer Peer) *Session {
	s := newSession(peer, h.opts.QueueDepth)

	h.mu.Lock()
	turns := h.conv.AssistantTurns()
	h.sessions[s.ID] = s
	n := len(h.sessions)
	h.mu.Unlock()

	replay := make([]protocol.Message, 0, len(turns))
	now := time.Now()
	for _, text := range turns {
		replay = append(replay, protocol.Chat(protocol.RoleAssistant, text, now))
	}
	go s.writeLoop(replay, h.dropOnError)

	log.Info("Client connected", "session", s.ID, "sessions", n, "replay", len(replay))
	return s
}

func (h *Hub) Detach(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID)
	n := len(h.sessions)
	h.mu.Unlock()

	if s.close() {
		log.Info("Client disconnected", "session", s.ID, "sessions", n)
	}
}

func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast queues m on every session. Each session's writer sends
// independently; a session that cannot take the frame is dropped without
// affecting the rest.
func (h *Hub) Broadcast(m protocol.Message) {
	h.mu.RLock()
	var stalled []*Session
	for _, s := range h.sessions {
		if !s.enqueue(m) {
			stalled = append(stalled, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range stalled {
		log.Warn("Dropping session, outbound queue full", "session", s.ID)
		h.Detach(s)
	}
}

func (h *Hub) dropOnError(s *Session, err error) {
	log.Warn("Send failed, dropping session", "session", s.ID, "err", err)
	h.Detach(s)
}

// Handle processes one inbound frame from s.
func (h *Hub) Handle(ctx context.Context, s *Session, data []byte) {
	msg, err := protocol.Parse(data)
	if err != nil {
		log.Warn("Failed to parse", "session", s.ID, "msg", string(data), "err", err)
		return
	}

	switch msg.Type {
	case protocol.TypeMessage:
		log.Info("Message received", "session", s.ID, "chars", len(msg.Content))
		reply := h.conv.Ask(ctx, msg.Content)
		h.Broadcast(protocol.Chat(protocol.RoleAssistant, reply, time.Now()))

	case protocol.TypeCommand:
		switch msg.Command {
		case protocol.CommandToggle:
			h.ctl.Toggle()
		default:
			log.Warn("Unknown command", "session", s.ID, "cmd", msg.Command)
		}

	default:
		log.Warn("Unexpected frame from client", "session", s.ID, "type", msg.Type)
	}
}

// Pump forwards the voice loop's events to every session until ctx is
// done. System diagnostics stay in the server log.
func (h *Hub) Pump(ctx context.Context, q *event.Queue) {
	tick := time.NewTicker(h.opts.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.Ready():
		case <-tick.C:
		}

		for _, e := range q.Drain() {
			h.forward(e)
		}
	}
}

func (h *Hub) forward(e event.Event) {
	switch e.Kind {
	case event.Status:
		h.Broadcast(protocol.Status(e.Listening, e.Time))
	case event.User:
		h.Broadcast(protocol.Chat(protocol.RoleUser, e.Text, e.Time))
	case event.Assistant:
		h.Broadcast(protocol.Chat(protocol.RoleAssistant, e.Text, e.Time))
	default:
		log.Info("Voice", "status", e.Text)
	}
}

// ServeHTTP upgrades to a websocket and serves the session until the
// client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	s := h.Attach(&wsPeer{conn: conn, timeout: h.opts.WriteTimeout})
	defer h.Detach(s)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !protocol.IsClosed(err) {
				log.Debug("Read failed", "session", s.ID, "err", err)
			}
			return
		}
		h.Handle(r.Context(), s, data)
	}
}
