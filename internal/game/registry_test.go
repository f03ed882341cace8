package game

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vanishingPlayer рвёт соединение сразу после посадки: его teardown
// успевает вызвать HandleDisconnect до того, как реестр рассадит партию.
type vanishingPlayer struct {
	fakePlayer
}

func (v *vanishingPlayer) JoinRoom(r *Room) error {
	if err := v.fakePlayer.JoinRoom(r); err != nil {
		return err
	}
	r.HandleDisconnect(context.Background(), v)
	return nil
}

func fakeParty(n int) ([]Player, []*fakePlayer) {
	players := make([]Player, n)
	fakes := make([]*fakePlayer, n)
	for i := range players {
		fakes[i] = &fakePlayer{nick: fmt.Sprintf("p%d", i)}
		players[i] = fakes[i]
	}
	return players, fakes
}

func TestRegistry_CreateSeatsAndStarts(t *testing.T) {
	reg := NewRegistry(NewWordList(testWords()), newResultRecorder())
	players, fakes := fakeParty(RoomSize)

	room, err := reg.Create(players)
	require.NoError(t, err)
	require.NotNil(t, room)

	assert.Equal(t, 1, reg.Count())
	assert.Same(t, room, reg.Get(room.ID()))

	for _, f := range fakes {
		assert.Same(t, room, f.room, "back-reference set")
		assert.NotEmpty(t, f.ofType("GAME_START"))
		assert.NotEmpty(t, f.ofType("GAME_INIT"))
		assert.NotEmpty(t, f.ofType("ALL_CARDS"))
	}
}

func TestRegistry_CreateRejectsWrongPartySize(t *testing.T) {
	reg := NewRegistry(NewWordList(testWords()), newResultRecorder())
	players, _ := fakeParty(RoomSize - 1)

	_, err := reg.Create(players)
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Count())
}

func TestRegistry_CreateUnwindsOnSeatFailure(t *testing.T) {
	reg := NewRegistry(NewWordList(testWords()), newResultRecorder())
	players, fakes := fakeParty(RoomSize)
	fakes[3].joinErr = errors.New("connection lost")

	_, err := reg.Create(players)
	require.Error(t, err)
	assert.Equal(t, 0, reg.Count())

	for i, f := range fakes {
		if i == 3 {
			continue
		}
		assert.True(t, f.left, "player %d returned to lobby", i)
		assert.Equal(t, []string{"GAME_CREATE_ERROR"}, f.ofType("GAME_CREATE_ERROR"), "player %d", i)
	}
	assert.Empty(t, fakes[3].ofType("GAME_CREATE_ERROR"))
}

// Игрок, потерянный между посадкой и рассадкой, не должен оставлять
// комнату с мёртвым местом: партия разбирается до первого игрового
// broadcast, пятеро выживших возвращаются в лобби.
func TestRegistry_DisconnectDuringCreateAbortsRoom(t *testing.T) {
	reg := NewRegistry(NewWordList(testWords()), newResultRecorder())
	players, fakes := fakeParty(RoomSize)
	gone := &vanishingPlayer{fakePlayer: fakePlayer{nick: "p0"}}
	players[0] = gone

	room, err := reg.Create(players)
	require.NoError(t, err)
	require.NotNil(t, room)

	assert.True(t, room.GameOver())
	assert.Equal(t, 0, reg.Count(), "aborted room must leave the registry")

	for i, f := range fakes[1:] {
		assert.True(t, f.left, "player %d returned to lobby", i+1)
		assert.Equal(t, []string{"GAME_CREATE_ERROR"}, f.ofType("GAME_CREATE_ERROR"), "player %d", i+1)
		assert.Empty(t, f.ofType("GAME_START"), "player %d must not see a start", i+1)
	}
}

func TestRegistry_RoomIDsAreUnique(t *testing.T) {
	reg := NewRegistry(NewWordList(testWords()), newResultRecorder())

	p1, _ := fakeParty(RoomSize)
	p2, _ := fakeParty(RoomSize)

	r1, err := reg.Create(p1)
	require.NoError(t, err)
	r2, err := reg.Create(p2)
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID(), r2.ID())
	assert.Equal(t, 2, reg.Count())
}

func TestRegistry_DestroyIsIdempotent(t *testing.T) {
	reg := NewRegistry(NewWordList(testWords()), newResultRecorder())
	players, _ := fakeParty(RoomSize)

	room, err := reg.Create(players)
	require.NoError(t, err)

	reg.Destroy(room.ID())
	reg.Destroy(room.ID())
	assert.Equal(t, 0, reg.Count())
	assert.Nil(t, reg.Get(room.ID()))
}
