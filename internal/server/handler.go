package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/udisondev/codenames/internal/game"
	"github.com/udisondev/codenames/internal/matching"
	"github.com/udisondev/codenames/internal/protocol"
	"github.com/udisondev/codenames/internal/users"
)

// Handler диспетчеризует декодированные записи по состоянию сессии.
// Ошибки аутентификации уходят только отправителю; нарушения игровых
// правил молча игнорируются — комната сама решает, что валидно.
type Handler struct {
	store    *users.Store
	registry *Registry
	queue    *matching.Queue
	rooms    *game.Registry
}

// NewHandler wires the dispatcher to its collaborators.
func NewHandler(store *users.Store, registry *Registry, queue *matching.Queue, rooms *game.Registry) *Handler {
	return &Handler{store: store, registry: registry, queue: queue, rooms: rooms}
}

// Handle routes one record by the session's current state.
func (h *Handler) Handle(ctx context.Context, s *Session, rec protocol.Record) {
	switch s.State() {
	case StateAuthenticating:
		h.handleAuth(ctx, s, rec)
	case StateInLobby, StateWaitingMatch:
		h.handleLobby(ctx, s, rec)
	case StateInGame:
		h.handleGame(ctx, s, rec)
	}
}

// handleAuth serves the AUTHENTICATING family. The same handlers back the
// lobby states, so a logged-in peer can re-login or validate its token.
func (h *Handler) handleAuth(ctx context.Context, s *Session, rec protocol.Record) {
	switch rec.Type {
	case protocol.TypeCheckID:
		h.handleCheckID(ctx, s, rec)
	case protocol.TypeSignup:
		h.handleSignup(ctx, s, rec)
	case protocol.TypeLogin:
		h.handleLogin(ctx, s, rec)
	case protocol.TypeToken:
		h.handleToken(s, rec)
	case protocol.TypeEditNick:
		h.handleEditNick(ctx, s, rec)
	default:
		s.Send(protocol.New(protocol.TypeAuthError, protocol.ReasonUnknownPacket))
	}
}

func (h *Handler) handleCheckID(ctx context.Context, s *Session, rec protocol.Record) {
	id := rec.Field(0)
	if id == "" {
		s.Send(protocol.New(protocol.TypeAuthError, protocol.ReasonMalformed))
		return
	}
	exists, err := h.store.CheckID(ctx, id)
	if err != nil {
		slog.Error("check id failed", "remote", s.IP(), "err", err)
		s.Send(protocol.New(protocol.TypeCheckIDError))
		return
	}
	if exists {
		s.Send(protocol.New(protocol.TypeCheckIDDuplicate))
		return
	}
	s.Send(protocol.New(protocol.TypeCheckIDOK))
}

func (h *Handler) handleSignup(ctx context.Context, s *Session, rec protocol.Record) {
	id, pw, nick := rec.Field(0), rec.Field(1), rec.Field(2)
	if id == "" || pw == "" || nick == "" {
		s.Send(protocol.New(protocol.TypeAuthError, protocol.ReasonMalformed))
		return
	}
	if err := h.store.Signup(ctx, id, pw, nick); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			s.Send(protocol.New(protocol.TypeSignupDuplicate))
			return
		}
		slog.Error("signup failed", "remote", s.IP(), "err", err)
		s.Send(protocol.New(protocol.TypeSignupError))
		return
	}
	token, err := h.establish(s, id, nick)
	if err != nil {
		slog.Error("binding token after signup", "remote", s.IP(), "err", err)
		s.Send(protocol.New(protocol.TypeSignupError))
		return
	}
	s.Send(protocol.New(protocol.TypeSignupOK, token))
}

func (h *Handler) handleLogin(ctx context.Context, s *Session, rec protocol.Record) {
	id, pw := rec.Field(0), rec.Field(1)
	if id == "" || pw == "" {
		s.Send(protocol.New(protocol.TypeAuthError, protocol.ReasonMalformed))
		return
	}
	u, err := h.store.Login(ctx, id, pw)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNoAccount):
			s.Send(protocol.New(protocol.TypeLoginNoAccount))
		case errors.Is(err, users.ErrWrongPassword):
			s.Send(protocol.New(protocol.TypeLoginWrongPW))
		case errors.Is(err, users.ErrSuspended):
			s.Send(protocol.New(protocol.TypeLoginSuspended))
		default:
			slog.Error("login failed", "remote", s.IP(), "err", err)
			s.Send(protocol.New(protocol.TypeLoginError))
		}
		return
	}
	token, err := h.establish(s, u.ID, u.Nickname)
	if err != nil {
		slog.Error("binding token after login", "remote", s.IP(), "err", err)
		s.Send(protocol.New(protocol.TypeLoginError))
		return
	}
	s.Send(protocol.New(protocol.TypeLoginOK, token))
}

// establish mints a bearer token, binds it in the registry, and moves the
// session into the lobby. On re-login the previous binding is replaced.
func (h *Handler) establish(s *Session, userID, nickname string) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := h.registry.BindToken(token, s); err != nil {
		return "", err
	}
	s.SetAuth(token, userID, nickname)
	if s.State() == StateAuthenticating {
		s.SetState(StateInLobby)
	}
	slog.Info("session authenticated", "remote", s.IP(), "nickname", nickname)
	return token, nil
}

func (h *Handler) handleToken(s *Session, rec protocol.Record) {
	token := rec.Field(0)
	if token == "" || token != s.Token() {
		s.Send(protocol.New(protocol.TypeInvalidToken))
		return
	}
	s.Send(protocol.New(protocol.TypeTokenValid, s.Nickname()))
}

func (h *Handler) handleEditNick(ctx context.Context, s *Session, rec protocol.Record) {
	token, nick := rec.Field(0), rec.Field(1)
	if token == "" || token != s.Token() {
		s.Send(protocol.New(protocol.TypeInvalidToken))
		return
	}
	if nick == "" {
		s.Send(protocol.New(protocol.TypeNickEditError))
		return
	}
	if err := h.store.UpdateNickname(ctx, s.UserID(), nick); err != nil {
		if !errors.Is(err, users.ErrDuplicate) {
			slog.Error("nickname edit failed", "remote", s.IP(), "err", err)
		}
		s.Send(protocol.New(protocol.TypeNickEditError))
		return
	}
	s.SetNickname(nick)
	s.Send(protocol.New(protocol.TypeNickEditOK))
}

// handleLobby serves IN_LOBBY and WAITING_MATCH. The auth family stays
// reachable so one connection can re-login or validate its token.
func (h *Handler) handleLobby(ctx context.Context, s *Session, rec protocol.Record) {
	switch rec.Type {
	case protocol.TypeCmd:
		if rec.Field(0) != protocol.CmdQueryWait {
			s.Send(protocol.New(protocol.TypeLobbyError, protocol.ReasonUnknownPacket))
			return
		}
		h.handleQueryWait(ctx, s, rec.Field(1))
	case protocol.TypeMatchingCancel:
		h.handleMatchingCancel(s, rec.Field(0))
	case protocol.TypeSessionReady:
		h.handleSessionReady(s, rec.Field(0))
	case protocol.TypeReport:
		h.handleReport(ctx, s, rec)
	case protocol.TypeCheckID, protocol.TypeSignup, protocol.TypeLogin,
		protocol.TypeToken, protocol.TypeEditNick:
		h.handleAuth(ctx, s, rec)
	default:
		s.Send(protocol.New(protocol.TypeLobbyError, protocol.ReasonUnknownPacket))
	}
}

// handleQueryWait admits the session to the matching queue. The sixth
// admission drains the queue: the chosen six hear QUEUE_FULL before room
// construction begins.
func (h *Handler) handleQueryWait(ctx context.Context, s *Session, token string) {
	if token == "" || token != s.Token() {
		s.Send(protocol.New(protocol.TypeInvalidToken))
		return
	}

	waiters, full, err := h.queue.Enqueue(s)
	if err != nil {
		s.Send(protocol.New(protocol.TypeQueueError))
		return
	}
	s.SetState(StateWaitingMatch)

	if !full {
		reply := protocol.New(protocol.TypeWaitReply,
			strconv.Itoa(len(waiters)), strconv.Itoa(game.RoomSize))
		for _, w := range waiters {
			w.(*Session).Send(reply)
		}
		return
	}

	players := make([]game.Player, len(waiters))
	for i, w := range waiters {
		sess := w.(*Session)
		sess.Send(protocol.New(protocol.TypeQueueFull))
		players[i] = sess
	}
	if _, err := h.rooms.Create(players); err != nil {
		// Реестр уже вернул выживших в лобби и разослал GAME_CREATE_ERROR.
		slog.Error("room creation failed", "err", err)
	}
}

func (h *Handler) handleMatchingCancel(s *Session, token string) {
	if token == "" || token != s.Token() {
		s.Send(protocol.New(protocol.TypeInvalidToken))
		return
	}
	// Вернуть в лобби можно только того, кого отмена действительно сняла
	// с очереди: шестой QUERY_WAIT на другом соединении мог уже усадить
	// сессию в комнату.
	if h.queue.Cancel(s) {
		s.SetState(StateInLobby)
	}
	// CANCEL_OK и при повторной отмене: операция идемпотентна.
	s.Send(protocol.New(protocol.TypeCancelOK))
}

func (h *Handler) handleSessionReady(s *Session, token string) {
	if h.registry.FindByToken(token) == nil {
		s.Send(protocol.New(protocol.TypeSessionNotFound))
		return
	}
	s.Send(protocol.New(protocol.TypeSessionAck))
}

func (h *Handler) handleReport(ctx context.Context, s *Session, rec protocol.Record) {
	token, nick := rec.Field(0), rec.Field(1)
	if token == "" || token != s.Token() {
		s.Send(protocol.New(protocol.TypeInvalidToken))
		return
	}
	count, suspendedNow, err := h.store.Report(ctx, nick)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.Send(protocol.New(protocol.TypeReportError, protocol.ReasonNotFound))
			return
		}
		slog.Error("report failed", "remote", s.IP(), "target", nick, "err", err)
		s.Send(protocol.New(protocol.TypeReportError, protocol.ReasonDBError))
		return
	}
	if suspendedNow {
		s.Send(protocol.New(protocol.TypeReportOK, strconv.Itoa(count), protocol.ReportSuspended))
		return
	}
	s.Send(protocol.New(protocol.TypeReportOK, strconv.Itoa(count)))
}

// handleGame routes in-game records to the session's room. Records that
// violate the rules never advance state; unknown types are dropped.
func (h *Handler) handleGame(ctx context.Context, s *Session, rec protocol.Record) {
	if rec.Type == protocol.TypeReport {
		h.handleReport(ctx, s, rec)
		return
	}

	room := s.Room()
	if room == nil {
		// Гонка с разбором комнаты: партия уже завершилась.
		return
	}

	switch rec.Type {
	case protocol.TypeHint:
		n, err := strconv.Atoi(rec.Field(1))
		if err != nil {
			return
		}
		room.HandleHint(s, rec.Field(0), n)
	case protocol.TypeAnswer:
		room.HandleAnswer(ctx, s, rec.Field(0))
	case protocol.TypeChat:
		room.HandleChat(s, rec.Tail(0))
	default:
		slog.Debug("unknown in-game record dropped", "remote", s.IP(), "type", rec.Type)
	}
}
