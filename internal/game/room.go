package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/codenames/internal/protocol"
)

// Player — сидящее за столом соединение глазами комнаты.
// Реализуется сессией; комната никогда не трогает её внутренности.
type Player interface {
	// Nickname returns the display name used in broadcasts.
	Nickname() string
	// Send enqueues one record for delivery. Must never block.
	Send(rec protocol.Record)
	// JoinRoom moves the peer into the room: state to in-game plus the
	// back-reference. Fails when the peer is closed or already seated.
	JoinRoom(r *Room) error
	// LeaveRoom returns the peer to the lobby and clears the
	// back-reference. Safe to call when the peer never joined.
	LeaveRoom()
}

// ResultWriter persists per-player match outcomes.
// Implemented by the credential store.
type ResultWriter interface {
	SaveResult(ctx context.Context, nickname, result string) error
}

// Winner codes on the wire.
const (
	WinnerRed  = 0
	WinnerBlue = 1
	// WinnerNone marks a forced end (disconnect); no results are written.
	WinnerNone = -1
)

// Match result strings persisted through ResultWriter.
const (
	resultWin  = "WIN"
	resultLoss = "LOSS"
)

// Room владеет одной партией: места, доска, ход/фаза, счёт, финал.
// Все переходы состояния сериализуются mu; рассылки уходят внутри
// критической секции, поэтому каждый наблюдатель видит согласованную
// последовательность записей.
type Room struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	seats     [RoomSize]Player
	cards     [BoardSize]Card

	turn           Team
	phase          Phase
	redScore       int
	blueScore      int
	hintWord       string
	hintCount      int
	remainingTries int
	gameOver       bool

	// departed — игроки, чей teardown пришёл раньше рассадки.
	// Start вычищает их места и разбирает комнату до первого broadcast.
	departed map[Player]struct{}

	results ResultWriter
	// onEnd уведомляет реестр после release mu — реестр никогда не
	// вызывается под блокировкой комнаты.
	onEnd func(roomID string)
}

func newRoom(id string, words []string, results ResultWriter, onEnd func(string)) *Room {
	return &Room{
		id:        id,
		createdAt: time.Now(),
		cards:     dealBoard(words),
		turn:      TeamRed,
		phase:     PhaseHint,
		departed:  make(map[Player]struct{}),
		results:   results,
		onEnd:     onEnd,
	}
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// seat places players by arrival order. Called once by the registry before
// Start; slots and roles are fixed for the whole match.
func (r *Room) seat(players []Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy(r.seats[:], players)
}

// Start opens the match: the full initial broadcast sequence in protocol
// order, ending with the first TURN_UPDATE. A peer lost during construction
// makes the match unplayable, so such a room is torn down here instead of
// starting with a dead seat.
func (r *Room) Start() {
	r.mu.Lock()
	aborted := r.startLocked()
	r.mu.Unlock()

	if aborted {
		r.onEnd(r.id)
	}
}

func (r *Room) startLocked() (aborted bool) {
	if r.gameOver {
		// Игрок отвалился между рассадкой и стартом, HandleDisconnect
		// уже разобрал комнату.
		return false
	}

	// Teardown, успевший раньше рассадки, не нашёл своего места: такие
	// игроки помечены в departed, их места освобождаем здесь.
	for slot, p := range r.seats {
		if p == nil {
			continue
		}
		if _, gone := r.departed[p]; gone {
			r.seats[slot] = nil
		}
	}
	if r.playerCountLocked() < RoomSize {
		r.gameOver = true
		r.broadcastLocked(protocol.New(protocol.TypeGameCreateError))
		for slot, p := range r.seats {
			if p == nil {
				continue
			}
			p.LeaveRoom()
			r.seats[slot] = nil
		}
		slog.Info("room aborted before start", "room", r.id)
		return true
	}

	r.broadcastLocked(protocol.New(protocol.TypeGameStart, itoa(int(r.createdAt.Unix()))))

	init := make([]string, 0, RoomSize*4)
	for slot, p := range r.seats {
		nick := protocol.EmptySlot
		if p != nil {
			nick = p.Nickname()
		}
		leader := "0"
		if SlotLeader(slot) {
			leader = "1"
		}
		init = append(init, nick, itoa(slot), itoa(int(SlotTeam(slot))), leader)
	}
	r.broadcastLocked(protocol.New(protocol.TypeGameInit, init...))

	cards := make([]string, 0, BoardSize*3)
	for _, c := range r.cards {
		cards = append(cards, c.Word, itoa(int(c.Type)), "0")
	}
	r.broadcastLocked(protocol.New(protocol.TypeAllCards, cards...))

	r.broadcastTurnLocked()
	r.systemChatLocked("game started, RED team picks a hint")

	slog.Info("room started", "room", r.id, "players", r.playerCountLocked())
	return false
}

// HandleHint processes HINT|word|n from a seated peer.
// Only the current team's leader during the HINT phase with n >= 1 is
// accepted; everything else is silently ignored.
func (r *Room) HandleHint(p Player, word string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameOver || r.phase != PhaseHint || word == "" || n < 1 {
		return
	}
	slot, ok := r.slotOfLocked(p)
	if !ok || !SlotLeader(slot) || SlotTeam(slot) != r.turn {
		return
	}

	r.hintWord = word
	r.hintCount = n
	r.remainingTries = n
	r.phase = PhaseGuess

	r.broadcastLocked(protocol.New(protocol.TypeHint, itoa(int(r.turn)), word, itoa(n)))
	r.broadcastTurnLocked()
}

// HandleAnswer processes ANSWER|word from a seated peer.
// Rule violations (wrong team, role, phase, no tries left) are silent;
// an unknown or already revealed word gets a private ANSWER_RESULT.
func (r *Room) HandleAnswer(ctx context.Context, p Player, word string) {
	r.mu.Lock()
	ended := r.handleAnswerLocked(ctx, p, word)
	r.mu.Unlock()

	if ended {
		r.onEnd(r.id)
	}
}

func (r *Room) handleAnswerLocked(ctx context.Context, p Player, word string) (ended bool) {
	if r.gameOver || r.phase != PhaseGuess || r.remainingTries <= 0 {
		return false
	}
	slot, ok := r.slotOfLocked(p)
	if !ok || SlotLeader(slot) || SlotTeam(slot) != r.turn {
		return false
	}

	idx := -1
	for i, c := range r.cards {
		if !c.Revealed && c.Word == word {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.Send(protocol.New(protocol.TypeAnswerResult, protocol.AnswerInvalid, word))
		return false
	}

	r.cards[idx].Revealed = true
	card := r.cards[idx]
	nick := p.Nickname()

	switch card.Type {
	case TeamCard(r.turn):
		if r.turn == TeamRed {
			r.redScore++
		} else {
			r.blueScore++
		}
		r.remainingTries--
		r.cardUpdateLocked(idx)
		r.systemChatLocked(fmt.Sprintf("%s found %s: a %s card", nick, card.Word, r.turn))
		if winner, over := r.winnerLocked(); over {
			return r.endGameLocked(ctx, winner)
		}
		if r.remainingTries == 0 {
			r.endTurnLocked()
		}
	case TeamCard(r.turn.Opponent()):
		if r.turn.Opponent() == TeamRed {
			r.redScore++
		} else {
			r.blueScore++
		}
		r.remainingTries = 0
		r.cardUpdateLocked(idx)
		r.systemChatLocked(fmt.Sprintf("%s revealed %s: a %s card", nick, card.Word, r.turn.Opponent()))
		if winner, over := r.winnerLocked(); over {
			return r.endGameLocked(ctx, winner)
		}
		r.endTurnLocked()
	case CardNeutral:
		r.remainingTries = 0
		r.cardUpdateLocked(idx)
		r.systemChatLocked(fmt.Sprintf("%s revealed %s: a neutral card", nick, card.Word))
		r.endTurnLocked()
	case CardAssassin:
		r.remainingTries = 0
		r.cardUpdateLocked(idx)
		r.systemChatLocked(fmt.Sprintf("%s revealed %s: the assassin", nick, card.Word))
		winner := WinnerBlue
		if r.turn == TeamBlue {
			winner = WinnerRed
		}
		return r.endGameLocked(ctx, winner)
	}
	return false
}

// HandleChat relays CHAT|text from any seated peer to the whole room.
func (r *Room) HandleChat(p Player, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if text == "" {
		return
	}
	slot, ok := r.slotOfLocked(p)
	if !ok {
		return
	}
	r.broadcastLocked(protocol.New(protocol.TypeChat,
		itoa(int(SlotTeam(slot))), itoa(slot), p.Nickname(), text))
}

// HandleDisconnect vacates the peer's seat. A seat lost before game over
// makes the match unplayable, so the room force-ends with no winner rather
// than leave the remaining peers stuck in game. A peer lost before seating
// is remembered so Start aborts the room instead of playing with a dead seat.
func (r *Room) HandleDisconnect(ctx context.Context, p Player) {
	r.mu.Lock()
	slot, ok := r.slotOfLocked(p)
	if !ok {
		if !r.gameOver {
			r.departed[p] = struct{}{}
		}
		r.mu.Unlock()
		return
	}
	r.seats[slot] = nil
	ended := false
	if !r.gameOver {
		r.systemChatLocked(fmt.Sprintf("%s left the game", p.Nickname()))
		ended = r.endGameLocked(ctx, WinnerNone)
	}
	r.mu.Unlock()

	if ended {
		r.onEnd(r.id)
	}
}

// endGameLocked finishes the match: game-over flag, winner announcement,
// result persistence, and release of every seat back to the lobby.
// Returns true so callers notify the registry after unlocking.
func (r *Room) endGameLocked(ctx context.Context, winner int) bool {
	if r.gameOver {
		return false
	}
	r.gameOver = true

	switch winner {
	case WinnerRed:
		r.systemChatLocked("RED team wins")
	case WinnerBlue:
		r.systemChatLocked("BLUE team wins")
	default:
		r.systemChatLocked("game aborted")
	}
	r.broadcastLocked(protocol.New(protocol.TypeGameOver, itoa(winner)))

	for slot, p := range r.seats {
		if p == nil {
			continue
		}
		if winner != WinnerNone {
			result := resultLoss
			if int(SlotTeam(slot)) == winner {
				result = resultWin
			}
			// Ошибка записи не должна задержать разбор комнаты:
			// финальный broadcast уже ушёл.
			if err := r.results.SaveResult(ctx, p.Nickname(), result); err != nil {
				slog.Error("saving match result", "room", r.id, "nickname", p.Nickname(), "err", err)
			}
		}
		p.LeaveRoom()
		r.seats[slot] = nil
	}

	slog.Info("room finished", "room", r.id, "winner", winner,
		"red", r.redScore, "blue", r.blueScore)
	return true
}

// winnerLocked evaluates the score-based win conditions.
func (r *Room) winnerLocked() (int, bool) {
	if r.redScore >= RedCardCount {
		return WinnerRed, true
	}
	if r.blueScore >= BlueCardCount {
		return WinnerBlue, true
	}
	return 0, false
}

// endTurnLocked swaps the turn and resets the hint state.
func (r *Room) endTurnLocked() {
	r.turn = r.turn.Opponent()
	r.phase = PhaseHint
	r.hintWord = ""
	r.hintCount = 0
	r.remainingTries = 0
	r.broadcastTurnLocked()
}

func (r *Room) cardUpdateLocked(idx int) {
	r.broadcastLocked(protocol.New(protocol.TypeCardUpdate,
		itoa(idx), "1", itoa(r.remainingTries)))
}

func (r *Room) broadcastTurnLocked() {
	r.broadcastLocked(protocol.New(protocol.TypeTurnUpdate,
		itoa(int(r.turn)), itoa(int(r.phase)), itoa(r.redScore), itoa(r.blueScore)))
}

func (r *Room) systemChatLocked(text string) {
	r.broadcastLocked(protocol.New(protocol.TypeChat,
		itoa(int(TeamSystem)), "0", protocol.SystemNick, text))
}

func (r *Room) broadcastLocked(rec protocol.Record) {
	for _, p := range r.seats {
		if p != nil {
			p.Send(rec)
		}
	}
}

func (r *Room) slotOfLocked(p Player) (int, bool) {
	for i, seated := range r.seats {
		if seated == p && seated != nil {
			return i, true
		}
	}
	return 0, false
}

func (r *Room) playerCountLocked() int {
	n := 0
	for _, p := range r.seats {
		if p != nil {
			n++
		}
	}
	return n
}

// GameOver reports whether the match has finished.
func (r *Room) GameOver() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameOver
}

// Scores returns the current red and blue scores.
func (r *Room) Scores() (red, blue int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redScore, r.blueScore
}

// Turn returns the acting team and phase.
func (r *Room) Turn() (Team, Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn, r.phase
}

// RemainingTries returns the guesses left in the current turn.
func (r *Room) RemainingTries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remainingTries
}

// Cards returns a snapshot of the board (tests and debugging).
func (r *Room) Cards() [BoardSize]Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cards
}
