// Package server реализует сетевой рантайм: сессии, реестр сессий,
// диспетчеризацию записей и accept loop на TCP.
package server

// SessionState represents the state machine for one connected peer.
type SessionState int32

const (
	StateAuthenticating SessionState = iota // TCP connected, credentials pending
	StateInLobby                            // logged in, not queued
	StateWaitingMatch                       // admitted to the matching queue
	StateInGame                             // seated in a room
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateInLobby:
		return "IN_LOBBY"
	case StateWaitingMatch:
		return "WAITING_MATCH"
	case StateInGame:
		return "IN_GAME"
	default:
		return "UNKNOWN"
	}
}
