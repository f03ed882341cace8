package game

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/codenames/internal/protocol"
)

// Registry владеет живыми комнатами и их временем жизни.
// Блокировка реестра охраняет только map и никогда не держится
// во время вызовов в комнату.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	// seq различает комнаты, созданные в одну секунду.
	seq atomic.Int64

	words   *WordList
	results ResultWriter
}

// NewRegistry creates an empty room registry drawing boards from words and
// persisting match outcomes through results.
func NewRegistry(words *WordList, results ResultWriter) *Registry {
	return &Registry{
		rooms:   make(map[string]*Room, 16),
		words:   words,
		results: results,
	}
}

// Create builds a room for exactly RoomSize players, seats them, and starts
// the match. On any seating failure the creation unwinds: the room is
// removed, every surviving player is returned to the lobby and told the
// game could not start.
func (g *Registry) Create(players []Player) (*Room, error) {
	if len(players) != RoomSize {
		return nil, fmt.Errorf("room needs %d players, got %d", RoomSize, len(players))
	}

	id := fmt.Sprintf("room_%d_%d", time.Now().Unix(), g.seq.Add(1))
	r := newRoom(id, g.words.Draw(BoardSize), g.results, g.Destroy)

	g.mu.Lock()
	g.rooms[id] = r
	g.mu.Unlock()

	for i, p := range players {
		if err := p.JoinRoom(r); err != nil {
			g.Destroy(id)
			for j, q := range players {
				if j == i {
					continue // сам виновник обычно уже закрыт
				}
				q.LeaveRoom()
				q.Send(protocol.New(protocol.TypeGameCreateError))
			}
			return nil, fmt.Errorf("seating %s in %s: %w", p.Nickname(), id, err)
		}
	}

	r.seat(players)
	r.Start()

	slog.Info("room created", "room", id)
	return r, nil
}

// Destroy removes the room from the registry. Idempotent; the room itself
// has already released its seats by the time this runs.
func (g *Registry) Destroy(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[id]; !ok {
		return
	}
	delete(g.rooms, id)
	slog.Debug("room destroyed", "room", id)
}

// Get returns the room with id, nil when absent.
func (g *Registry) Get(id string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rooms[id]
}

// Count returns the number of live rooms.
func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}
