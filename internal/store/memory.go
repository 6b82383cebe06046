// internal/store/memory.go
//
// In-memory implementation of game.Repository.
// Used for development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores games keyed by ID plus a creation-order index.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Every value handed out is a deep copy, so readers never see a guess
//     that is still being appended.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
)

// Memory is a map-based game.Repository.
type Memory struct {
	mu     sync.RWMutex
	games  map[string]*game.Game // keyed by Game.ID
	order  []string              // Game.IDs, oldest first
	active map[string]string     // playerID → IN_PROGRESS Game.ID
}

// NewMemory constructs an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		games:  make(map[string]*game.Game),
		active: make(map[string]string),
	}
}

var _ game.Repository = (*Memory)(nil)

// FindActiveGame returns a copy of the player's running game, or nil.
func (m *Memory) FindActiveGame(ctx context.Context, playerID string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.active[playerID]
	if !ok {
		return nil, nil
	}
	return m.games[id].Clone(), nil
}

// CreateGame adds a new IN_PROGRESS game.
func (m *Memory) CreateGame(ctx context.Context, playerID, target string, startedAt time.Time) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[playerID]; ok {
		return nil, game.ErrAlreadyPlaying
	}
	g := &game.Game{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Target:    target,
		Guesses:   []game.Guess{},
		Status:    game.StatusInProgress,
		StartedAt: startedAt.UTC(),
	}
	m.games[g.ID] = g
	m.order = append(m.order, g.ID)
	m.active[playerID] = g.ID
	return g.Clone(), nil
}

// AppendGuess appends word to a running game.
func (m *Memory) AppendGuess(ctx context.Context, gameID, word string, at time.Time) (game.Guess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok || g.Status != game.StatusInProgress {
		return game.Guess{}, game.ErrNoActiveGame
	}
	gs := game.Guess{
		GameID:    gameID,
		Position:  len(g.Guesses) + 1,
		Word:      word,
		CreatedAt: at.UTC(),
	}
	g.Guesses = append(g.Guesses, gs)
	return gs, nil
}

// UpdateGameStatus moves a running game to a terminal status.
func (m *Memory) UpdateGameStatus(ctx context.Context, gameID string, status game.Status, endedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok || g.Status != game.StatusInProgress {
		return game.ErrNoActiveGame
	}
	g.Status, g.EndedAt = status, endedAt
	if status.Terminal() {
		delete(m.active, g.PlayerID)
	}
	return nil
}

// ListFinishedGames returns copies of terminal games, oldest first.
func (m *Memory) ListFinishedGames(ctx context.Context, playerID string) ([]game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []game.Game{}
	for _, id := range m.order {
		g := m.games[id]
		if g.Status.Terminal() && matches(g, playerID) {
			out = append(out, *g.Clone())
		}
	}
	return out, nil
}

// CountFinishedGames counts terminal games.
func (m *Memory) CountFinishedGames(ctx context.Context, playerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, g := range m.games {
		if g.Status.Terminal() && matches(g, playerID) {
			n++
		}
	}
	return n, nil
}

// CountGames counts every game, running ones included.
func (m *Memory) CountGames(ctx context.Context, playerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if playerID == game.AllPlayers {
		return len(m.games), nil
	}
	n := 0
	for _, g := range m.games {
		if g.PlayerID == playerID {
			n++
		}
	}
	return n, nil
}

func matches(g *game.Game, playerID string) bool {
	return playerID == game.AllPlayers || g.PlayerID == playerID
}
