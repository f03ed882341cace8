// Package e2e гоняет сценарии приёмки по живому TCP: настоящий сервер,
// настоящие клиенты, только хранилище пользователей — in-memory.
package e2e

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/codenames/internal/config"
	"github.com/udisondev/codenames/internal/game"
	"github.com/udisondev/codenames/internal/server"
	"github.com/udisondev/codenames/internal/testutil"
	"github.com/udisondev/codenames/internal/users"
)

type env struct {
	srv  *server.Server
	repo *testutil.FakeUserRepository
	addr string
}

func startServer(t *testing.T) *env {
	t.Helper()

	repo := testutil.NewFakeUserRepository()
	srv := server.NewServer(config.Default(), users.NewStore(repo), game.NewWordList(nil))

	ln, addr := testutil.ListenTCP(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return &env{srv: srv, repo: repo, addr: addr}
}

func TestScenario_AuthSuccess(t *testing.T) {
	e := startServer(t)
	client := testutil.DialLine(t, e.addr)

	token := client.Signup("alice", "pw1", "Alice")
	require.Len(t, token, 32)

	token2 := client.Login("alice", "pw1")
	require.Len(t, token2, 32)
	assert.NotEqual(t, token, token2)

	client.Send("TOKEN|" + token2)
	client.ExpectExact("TOKEN_VALID|Alice")
}

func TestScenario_AuthFailureAndSuspension(t *testing.T) {
	e := startServer(t)

	alice := testutil.DialLine(t, e.addr)
	alice.Signup("alice", "pw1", "Alice")

	probe := testutil.DialLine(t, e.addr)
	probe.Send("LOGIN|alice|wrong")
	probe.ExpectExact("LOGIN_WRONG_PW")

	// Пять жалоб от разных игроков блокируют аккаунт.
	for i := range users.SuspendThreshold {
		reporter := testutil.DialLine(t, e.addr)
		token := reporter.Signup(fmt.Sprintf("rep%d", i), "pw", fmt.Sprintf("Rep%d", i))
		reporter.Send("REPORT|" + token + "|Alice")
		rec := reporter.Expect("REPORT_OK")
		if i == users.SuspendThreshold-1 {
			assert.Equal(t, fmt.Sprintf("REPORT_OK|%d|SUSPENDED", users.SuspendThreshold), rec)
		}
	}

	probe.Send("LOGIN|alice|pw1")
	probe.ExpectExact("LOGIN_SUSPENDED")
}

// match — запущенная партия: клиенты по слотам и разобранная доска.
type match struct {
	env     *env
	clients [game.RoomSize]*testutil.LineClient
	tokens  [game.RoomSize]string
	words   [game.BoardSize]string
	types   [game.BoardSize]int
	used    map[string]bool
}

// startMatch проводит шестерых через матчмейкинг и стартовую серию.
func startMatch(t *testing.T) *match {
	t.Helper()

	e := startServer(t)
	m := &match{env: e, used: make(map[string]bool)}

	for i := range game.RoomSize {
		client := testutil.DialLine(t, e.addr)
		m.clients[i] = client
		m.tokens[i] = client.Signup(fmt.Sprintf("u%d", i), "pw", fmt.Sprintf("U%d", i))
		client.Send("CMD|QUERY_WAIT|" + m.tokens[i])
		if i < game.RoomSize-1 {
			client.ExpectExact(fmt.Sprintf("WAIT_REPLY|%d|6", i+1))
		}
	}

	for slot, client := range m.clients {
		// Ранние участники слышали WAIT_REPLY на каждого следующего.
		for k := slot + 2; k <= game.RoomSize-1; k++ {
			client.ExpectExact(fmt.Sprintf("WAIT_REPLY|%d|6", k))
		}
		client.ExpectExact("QUEUE_FULL")
		client.Expect("GAME_START")

		init := testutil.Fields(client.Expect("GAME_INIT"))
		require.Len(t, init, 1+game.RoomSize*4)
		for s := range game.RoomSize {
			assert.NotEqual(t, "EMPTY", init[1+s*4], "slot %d tuple", s)
		}

		cards := testutil.Fields(client.Expect("ALL_CARDS"))
		require.Len(t, cards, 1+game.BoardSize*3)
		if slot == 0 {
			for i := range game.BoardSize {
				m.words[i] = cards[1+i*3]
				typ, err := strconv.Atoi(cards[2+i*3])
				require.NoError(t, err)
				m.types[i] = typ
				require.Equal(t, "0", cards[3+i*3])
			}
		}

		client.ExpectExact("TURN_UPDATE|0|0|0|0")
		client.Expect("CHAT") // системное объявление старта
	}

	return m
}

// wordOfType возвращает ещё не использованное в тесте слово с нужным
// wire-кодом типа (1 RED, 2 BLUE, 3 NEUTRAL, 4 ASSASSIN).
func (m *match) wordOfType(t *testing.T, typ int) string {
	t.Helper()
	for i, w := range m.words {
		if m.types[i] == typ && !m.used[w] {
			m.used[w] = true
			return w
		}
	}
	t.Fatalf("no unused word of type %d", typ)
	return ""
}

func (m *match) broadcast(t *testing.T, expect string) {
	t.Helper()
	for _, client := range m.clients {
		client.ExpectExact(expect)
	}
}

func TestScenario_MatchmakingFillsRoom(t *testing.T) {
	m := startMatch(t)
	assert.Equal(t, 1, m.env.srv.Rooms().Count())
}

func TestScenario_OneHintOneCorrectGuess(t *testing.T) {
	m := startMatch(t)

	// Лидер красных даёт подсказку на одну карту.
	m.clients[0].Send("HINT|river|1")
	m.broadcast(t, "HINT|0|river|1")
	m.broadcast(t, "TURN_UPDATE|0|1|0|0")

	// Агент красных вскрывает красную карту: ход закончен, счёт 1:0.
	red := m.wordOfType(t, 1)
	m.clients[1].Send("ANSWER|" + red)
	for _, client := range m.clients {
		update := testutil.Fields(client.Expect("CARD_UPDATE"))
		require.Len(t, update, 4)
		assert.Equal(t, "1", update[2])
		assert.Equal(t, "0", update[3])
		client.Expect("CHAT")
	}
	m.broadcast(t, "TURN_UPDATE|1|0|1|0")
}

func TestScenario_AssassinEndsGame(t *testing.T) {
	m := startMatch(t)

	m.clients[0].Send("HINT|doom|3")
	m.broadcast(t, "HINT|0|doom|3")
	m.broadcast(t, "TURN_UPDATE|0|1|0|0")

	// Красный агент вскрывает убийцу: побеждают синие.
	m.clients[1].Send("ANSWER|" + m.wordOfType(t, 4))
	for _, client := range m.clients {
		client.Expect("CARD_UPDATE")
		client.Expect("CHAT")
		client.SkipUntil("GAME_OVER")
	}

	// Комната разобрана, все шестеро снова в лобби и могут встать в очередь.
	require.Eventually(t, func() bool {
		return m.env.srv.Rooms().Count() == 0
	}, 2*time.Second, 10*time.Millisecond)

	m.clients[2].Send("CMD|QUERY_WAIT|" + m.tokens[2])
	m.clients[2].ExpectExact("WAIT_REPLY|1|6")

	// Результаты записаны: красные в минусе, синие в плюсе.
	for slot := range game.RoomSize {
		u := m.env.repo.User(fmt.Sprintf("u%d", slot))
		require.NotNil(t, u)
		if slot < game.RoomSize/2 {
			assert.Equal(t, 1, u.Losses, "slot %d", slot)
			assert.Equal(t, 0, u.Wins, "slot %d", slot)
		} else {
			assert.Equal(t, 1, u.Wins, "slot %d", slot)
			assert.Equal(t, 0, u.Losses, "slot %d", slot)
		}
	}
}

func TestScenario_InvalidGuesses(t *testing.T) {
	m := startMatch(t)

	m.clients[0].Send("HINT|river|2")
	m.broadcast(t, "HINT|0|river|2")
	m.broadcast(t, "TURN_UPDATE|0|1|0|0")

	// Агент синих в чужой ход: молчание.
	m.clients[4].Send("ANSWER|" + m.words[0])
	// Неизвестное слово от красного агента: приватный ответ.
	m.clients[1].Send("ANSWER|no-such-word")
	m.clients[1].ExpectExact("ANSWER_RESULT|INVALID|no-such-word")

	// Валидный ход проходит первым же broadcast-сообщением: значит,
	// предыдущие попытки ничего не разослали.
	red := m.wordOfType(t, 1)
	m.clients[1].Send("ANSWER|" + red)
	for _, client := range m.clients {
		client.Expect("CARD_UPDATE")
		client.Expect("CHAT")
	}

	// Уже вскрытое слово — снова приватная ошибка.
	m.clients[2].Send("ANSWER|" + red)
	m.clients[2].ExpectExact("ANSWER_RESULT|INVALID|" + red)
}

func TestScenario_ChatRelay(t *testing.T) {
	m := startMatch(t)

	m.clients[4].Send("CHAT|good luck all")
	m.broadcast(t, "CHAT|1|4|U4|good luck all")
}

func TestScenario_DisconnectForcesEnd(t *testing.T) {
	m := startMatch(t)

	m.clients[2].Close()

	for slot, client := range m.clients {
		if slot == 2 {
			continue
		}
		rec := client.SkipUntil("GAME_OVER")
		assert.Equal(t, "GAME_OVER|-1", rec)
	}

	require.Eventually(t, func() bool {
		return m.env.srv.Rooms().Count() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Принудительный финал не трогает статистику.
	for slot := range game.RoomSize {
		u := m.env.repo.User(fmt.Sprintf("u%d", slot))
		require.NotNil(t, u)
		assert.Zero(t, u.Wins)
		assert.Zero(t, u.Losses)
	}
}
