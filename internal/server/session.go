package server

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/codenames/internal/game"
	"github.com/udisondev/codenames/internal/protocol"
)

// Default write queue / timeout constants, overridden by config values.
const (
	defaultSendQueueSize = 256
	defaultWriteTimeout  = 5 * time.Second
)

var (
	// ErrSessionClosed reports an operation on a closed session.
	ErrSessionClosed = errors.New("session closed")
	// ErrAlreadySeated reports a second JoinRoom while still in a room.
	ErrAlreadySeated = errors.New("session already seated in a room")
)

// Session — одно подключение клиента. Владеет своим write-циклом:
// записи уходят через буферизованный канал в выделенную writer-горутину,
// поэтому конкурентные Send никогда не перемешивают байты одной записи.
type Session struct {
	conn net.Conn
	ip   string

	// state использует atomic для lock-free reads в hot path диспетчера.
	state atomic.Int32

	// mu защищает token, userID, nickname, room (редкие операции).
	mu       sync.Mutex
	token    string
	userID   string
	nickname string
	room     *game.Room

	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once

	writeTimeout time.Duration
}

// NewSession creates session state for an accepted connection.
// The caller starts the writer with go s.writePump().
func NewSession(conn net.Conn, sendQueueSize int, writeTimeout time.Duration) *Session {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	s := &Session{
		conn:         conn,
		ip:           host,
		sendCh:       make(chan []byte, sendQueueSize),
		closeCh:      make(chan struct{}),
		writeTimeout: writeTimeout,
	}
	s.state.Store(int32(StateAuthenticating))
	return s
}

// Conn returns the underlying network connection.
func (s *Session) Conn() net.Conn { return s.conn }

// IP returns the peer's remote address.
func (s *Session) IP() string { return s.ip }

// State returns the current session state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// SetState sets the session state.
func (s *Session) SetState(st SessionState) {
	s.state.Store(int32(st))
}

// Token returns the bearer token minted at login, empty before.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// UserID returns the login handle of the authenticated account.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Nickname returns the display name of the authenticated account.
func (s *Session) Nickname() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nickname
}

// SetAuth stores the identity established by a successful login or signup.
func (s *Session) SetAuth(token, userID, nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userID = userID
	s.nickname = nickname
}

// SetNickname updates the display name after EDIT_NICK.
func (s *Session) SetNickname(nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nickname = nick
}

// Room returns the current room, nil outside a match.
func (s *Session) Room() *game.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// JoinRoom seats the session: sets the back-reference and moves the state
// to IN_GAME. Fails when the session is closed or already seated.
func (s *Session) JoinRoom(r *game.Room) error {
	select {
	case <-s.closeCh:
		return ErrSessionClosed
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != nil {
		return ErrAlreadySeated
	}
	s.room = r
	s.state.Store(int32(StateInGame))
	return nil
}

// LeaveRoom clears the room back-reference and returns the session to the
// lobby. Safe to call when the session never joined a room.
func (s *Session) LeaveRoom() {
	s.mu.Lock()
	s.room = nil
	s.mu.Unlock()

	// Закрытая сессия остаётся в своём терминальном состоянии.
	select {
	case <-s.closeCh:
		return
	default:
	}
	s.state.Store(int32(StateInLobby))
}

// Send enqueues one record for asynchronous delivery.
// Non-blocking: a full queue marks the peer slow and closes it, so no lock
// holder ever stalls on a dead connection.
func (s *Session) Send(rec protocol.Record) {
	wire := rec.AppendWire(make([]byte, 0, 64))
	select {
	case s.sendCh <- wire:
	case <-s.closeCh:
	default:
		slog.Warn("send queue full, disconnecting slow client", "remote", s.ip)
		s.CloseAsync()
	}
}

// writePump is the dedicated writer goroutine for this session.
// Batches queued records into one writev when the peer falls behind.
func (s *Session) writePump() {
	bufs := make(net.Buffers, 0, 16)

	for {
		select {
		case wire := <-s.sendCh:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
				s.CloseAsync()
				return
			}

			queued := len(s.sendCh)
			if queued == 0 {
				if _, err := s.conn.Write(wire); err != nil {
					slog.Debug("write failed", "remote", s.ip, "err", err)
					s.CloseAsync()
					return
				}
				continue
			}

			bufs = bufs[:0]
			bufs = append(bufs, wire)
			for range queued {
				bufs = append(bufs, <-s.sendCh)
			}
			if _, err := bufs.WriteTo(s.conn); err != nil {
				slog.Debug("batch write failed", "remote", s.ip, "err", err)
				s.CloseAsync()
				return
			}

		case <-s.closeCh:
			return
		}
	}
}

// CloseAsync signals the writer to stop without touching the socket.
// Safe to call multiple times.
func (s *Session) CloseAsync() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
}

// Close closes the connection and stops the writer. Idempotent.
func (s *Session) Close() error {
	s.CloseAsync()
	return s.conn.Close()
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}
