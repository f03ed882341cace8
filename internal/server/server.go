package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"github.com/udisondev/codenames/internal/config"
	"github.com/udisondev/codenames/internal/game"
	"github.com/udisondev/codenames/internal/matching"
	"github.com/udisondev/codenames/internal/protocol"
	"github.com/udisondev/codenames/internal/users"
)

const defaultWorkers = 4

// Server — игровой сервер: TCP accept loop, чтение записей по строкам и
// ограниченный пул обработки. Каждое соединение получает reader- и
// writer-горутину; декодированные записи обрабатываются под семафором
// из cfg.Workers слотов, reader ждёт завершения своей записи, поэтому
// порядок внутри сессии сохраняется.
type Server struct {
	cfg      config.Server
	store    *users.Store
	registry *Registry
	queue    *matching.Queue
	rooms    *game.Registry
	handler  *Handler

	// sem — ограниченный диспетчерский пул.
	sem *semaphore.Weighted

	listener net.Listener
	mu       sync.Mutex
}

// NewServer assembles the runtime around the credential store and word list.
func NewServer(cfg config.Server, store *users.Store, words *game.WordList) *Server {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	registry := NewRegistry()
	queue := matching.NewQueue(game.RoomSize)
	rooms := game.NewRegistry(words, store)

	return &Server{
		cfg:      cfg,
		store:    store,
		registry: registry,
		queue:    queue,
		rooms:    rooms,
		handler:  NewHandler(store, registry, queue, rooms),
		sem:      semaphore.NewWeighted(int64(workers)),
	}
}

// Registry возвращает реестр сессий (для тестов и интеграции).
func (s *Server) Registry() *Registry { return s.registry }

// Rooms возвращает реестр комнат.
func (s *Server) Rooms() *game.Registry { return s.rooms }

// Addr возвращает адрес, на котором слушает сервер.
// Возвращает nil если сервер ещё не запущен.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close закрывает listener и останавливает сервер.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run begins listening for client connections on cfg.BindAddress:cfg.Port.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve принимает готовый listener и запускает accept loop.
// Используется в тестах с произвольным listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		slog.Info("game server started", "address", ln.Addr())
		s.acceptLoop(ctx, &wg, ln)
	})

	wg.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("accept failed", "err", err)
				continue
			}
			wg.Go(func() {
				s.handleConnection(ctx, conn)
			})
		}
	}
}

// handleConnection owns one peer for its whole life: registration, the
// newline-framed read loop, and teardown.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	sess := NewSession(conn, s.cfg.SendQueueSize, time.Duration(s.cfg.WriteTimeout)*time.Second)
	if err := s.registry.Add(sess); err != nil {
		slog.Error("registering session", "remote", sess.IP(), "err", err)
		return
	}
	go sess.writePump()
	defer s.teardown(ctx, sess)

	slog.Info("new connection", "remote", sess.IP())

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 1024), protocol.MaxRecordSize)
	s.armReadDeadline(conn)
	for sc.Scan() {
		s.armReadDeadline(conn)

		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if !utf8.ValidString(line) {
			slog.Warn("invalid utf-8 frame, closing", "remote", sess.IP())
			return
		}
		rec, err := protocol.Parse(line)
		if err != nil {
			slog.Warn("malformed record, closing", "remote", sess.IP(), "err", err)
			return
		}

		if err := s.dispatch(ctx, sess, rec); err != nil {
			return
		}
		if sess.Closed() {
			return
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Debug("read loop ended", "remote", sess.IP(), "err", err)
	}
}

// armReadDeadline pushes the idle deadline forward; zero disables it.
func (s *Server) armReadDeadline(conn net.Conn) {
	if s.cfg.ReadTimeout <= 0 {
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.ReadTimeout) * time.Second))
}

// dispatch runs one record through the bounded pool. The reader blocks
// until its record is handled, so at most one record per session is in
// flight and per-session ordering holds.
func (s *Server) dispatch(ctx context.Context, sess *Session, rec protocol.Record) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	defer func() {
		// Паника обработчика закрывает только эту сессию, не сервер.
		if r := recover(); r != nil {
			slog.Error("handler panic", "remote", sess.IP(), "type", rec.Type,
				"panic", r, "stack", string(debug.Stack()))
			sess.CloseAsync()
		}
	}()

	s.handler.Handle(ctx, sess, rec)
	return nil
}

// teardown unwinds one session: registry, matching queue, and its room.
// Endgame and disconnect share this path, so back-references never dangle.
func (s *Server) teardown(ctx context.Context, sess *Session) {
	sess.CloseAsync()
	s.registry.Remove(sess)
	s.queue.Cancel(sess)

	if room := sess.Room(); room != nil {
		room.HandleDisconnect(ctx, sess)
	}
	sess.LeaveRoom()

	slog.Info("connection closed", "remote", sess.IP())
}
