package server

import (
	"errors"
	"net"
	"sync"

	"github.com/udisondev/codenames/internal/protocol"
)

var (
	// ErrDuplicateSocket reports a second Add for the same connection.
	ErrDuplicateSocket = errors.New("socket already registered")
	// ErrDuplicateToken reports a token already bound to another session.
	ErrDuplicateToken = errors.New("token already bound")
)

// Registry индексирует живые сессии: socket → session и token → socket.
// Оба индекса меняются атомарно под одним мьютексом, поэтому они всегда
// согласованы. Блокировка никогда не держится во время socket I/O.
type Registry struct {
	mu       sync.RWMutex
	bySocket map[net.Conn]*Session
	byToken  map[string]net.Conn
	// tokenOf хранит обратную привязку socket → token, чтобы Remove и
	// повторный логин чистили byToken за O(1).
	tokenOf map[net.Conn]string
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		bySocket: make(map[net.Conn]*Session, 64),
		byToken:  make(map[string]net.Conn, 64),
		tokenOf:  make(map[net.Conn]string, 64),
	}
}

// Add registers a freshly accepted session. Fails on a duplicate socket;
// the rejected session is not tracked and must be closed by the caller.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.bySocket[s.Conn()]; dup {
		return ErrDuplicateSocket
	}
	r.bySocket[s.Conn()] = s
	return nil
}

// BindToken binds token to the session after a successful login or signup.
// A stale binding of the same session (re-login) is replaced; a token held
// by a different live session is rejected.
func (r *Registry) BindToken(token string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, dup := r.byToken[token]; dup && holder != s.Conn() {
		return ErrDuplicateToken
	}
	if old, ok := r.tokenOf[s.Conn()]; ok {
		delete(r.byToken, old)
	}
	r.byToken[token] = s.Conn()
	r.tokenOf[s.Conn()] = token
	return nil
}

// Remove drops the session from both indexes. Idempotent.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token, ok := r.tokenOf[s.Conn()]; ok {
		delete(r.byToken, token)
		delete(r.tokenOf, s.Conn())
	}
	delete(r.bySocket, s.Conn())
}

// FindByToken resolves a token to a live session, nil when unbound.
func (r *Registry) FindByToken(token string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byToken[token]
	if !ok {
		return nil
	}
	return r.bySocket[conn]
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySocket)
}

// BroadcastAll sends rec to every registered session.
// Список снимается под блокировкой, отправка идёт уже без неё —
// реестр не ждёт медленных клиентов.
func (r *Registry) BroadcastAll(rec protocol.Record) {
	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.bySocket))
	for _, s := range r.bySocket {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	for _, s := range snapshot {
		s.Send(rec)
	}
}
