package relay

import (
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxhr/pkg/protocol"
)

// Peer is the sending half of one connected client.
type Peer interface {
	Send(m protocol.Message) error
	Close() error
}

// Session delivers frames to its peer in the order they were queued. A
// single writer goroutine owns the peer.
type Session struct {
	ID   string
	peer Peer
	out  chan protocol.Message
	done chan struct{}
	once sync.Once
}

func newSession(peer Peer, depth int) *Session {
	return &Session{
		ID:   uuid.Must(uuid.NewV7()).String(),
		peer: peer,
		out:  make(chan protocol.Message, depth),
		done: make(chan struct{}),
	}
}

// enqueue reports false when the session is closed or its queue is full.
func (s *Session) enqueue(m protocol.Message) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.out <- m:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// writeLoop sends replay, then drains the outbound queue until the session
// closes.
func (s *Session) writeLoop(replay []protocol.Message, onFail func(*Session, error)) {
	for _, m := range replay {
		select {
		case <-s.done:
			return
		default:
		}
		if err := s.peer.Send(m); err != nil {
			onFail(s, err)
			return
		}
	}

	for {
		select {
		case <-s.done:
			return
		case m := <-s.out:
			if err := s.peer.Send(m); err != nil {
				onFail(s, err)
				return
			}
		}
	}
}

func (s *Session) close() bool {
	closed := false
	s.once.Do(func() {
		close(s.done)
		if err := s.peer.Close(); err != nil {
			log.Debug("Close peer", "session", s.ID, "err", err)
		}
		closed = true
	})
	return closed
}

// Closed is closed once the session has been dropped.
func (s *Session) Closed() <-chan struct{} {
	return s.done
}

type wsPeer struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (p *wsPeer) Send(m protocol.Message) error {
	if p.timeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.timeout))
	}
	data, err := m.Encode()
	if err != nil {
		return err
	}
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *wsPeer) Close() error {
	return p.conn.Close()
}
