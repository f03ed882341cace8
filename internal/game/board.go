// Package game реализует игровую логику комнаты: раздачу карт,
// машину ходов и фаз, подсчёт очков и завершение партии.
package game

import (
	"math/rand/v2"
	"strconv"
)

// Team identifies a side of the match. Wire codes are part of the protocol.
type Team int

const (
	TeamRed    Team = 0
	TeamBlue   Team = 1
	TeamSystem Team = 2 // server-issued chat lines only
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "RED"
	case TeamBlue:
		return "BLUE"
	case TeamSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Opponent returns the other playing team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Phase is the sub-state of a turn.
type Phase int

const (
	PhaseHint  Phase = 0
	PhaseGuess Phase = 1
)

func (p Phase) String() string {
	if p == PhaseHint {
		return "HINT"
	}
	return "GUESS"
}

// CardType uses the server wire codes 1..4 end-to-end.
type CardType int

const (
	CardRed      CardType = 1
	CardBlue     CardType = 2
	CardNeutral  CardType = 3
	CardAssassin CardType = 4
)

// TeamCard returns the card type scored by team.
func TeamCard(t Team) CardType {
	if t == TeamRed {
		return CardRed
	}
	return CardBlue
}

// Card is one cell of the board.
type Card struct {
	Word     string
	Type     CardType
	Revealed bool
}

// Board layout constants. The distribution is fixed: the red team opens the
// match and gets the extra card.
const (
	BoardSize     = 25
	RedCardCount  = 9
	BlueCardCount = 8
	NeutralCount  = 7
	AssassinCount = 1
)

// RoomSize — число мест в комнате: две команды по лидеру и два агента.
const RoomSize = 6

// SlotTeam returns the team of a seat: 0..2 red, 3..5 blue.
func SlotTeam(slot int) Team {
	if slot < RoomSize/2 {
		return TeamRed
	}
	return TeamBlue
}

// SlotLeader reports whether a seat is the team's spymaster.
// Roles are positional: the first seat of each team leads.
func SlotLeader(slot int) bool {
	return slot == 0 || slot == RoomSize/2
}

// dealBoard pairs words with a uniformly shuffled type placement.
// words must hold exactly BoardSize entries; the word list guarantees that.
func dealBoard(words []string) [BoardSize]Card {
	types := make([]CardType, 0, BoardSize)
	for range RedCardCount {
		types = append(types, CardRed)
	}
	for range BlueCardCount {
		types = append(types, CardBlue)
	}
	for range NeutralCount {
		types = append(types, CardNeutral)
	}
	for range AssassinCount {
		types = append(types, CardAssassin)
	}
	rand.Shuffle(len(types), func(i, j int) {
		types[i], types[j] = types[j], types[i]
	})

	var board [BoardSize]Card
	for i := range board {
		board[i] = Card{Word: words[i], Type: types[i]}
	}
	return board
}

// itoa keeps wire formatting in one place.
func itoa(n int) string {
	return strconv.Itoa(n)
}
