package game

import (
	"context"
	"time"
)

// AllPlayers is the player id that selects every player's games in the
// listing and counting operations.
const AllPlayers = ""

// Repository is the persistence collaborator of the engine.
//
// Implementations must make each call atomic with respect to readers: a
// listing never observes a half-appended guess. Listings are ordered by
// creation (oldest first) and carry their guesses in append order.
type Repository interface {
	// FindActiveGame returns the player's IN_PROGRESS game or nil, nil.
	FindActiveGame(ctx context.Context, playerID string) (*Game, error)

	// CreateGame inserts an IN_PROGRESS game started at startedAt. Returns
	// ErrAlreadyPlaying if the player already has one.
	CreateGame(ctx context.Context, playerID, target string, startedAt time.Time) (*Game, error)

	// AppendGuess appends word, made at the given time, to an IN_PROGRESS
	// game. Returns ErrNoActiveGame if the game is missing or already terminal.
	AppendGuess(ctx context.Context, gameID, word string, at time.Time) (Guess, error)

	// UpdateGameStatus moves an IN_PROGRESS game to a terminal status.
	UpdateGameStatus(ctx context.Context, gameID string, status Status, endedAt time.Time) error

	// ListFinishedGames returns terminal games, oldest first.
	ListFinishedGames(ctx context.Context, playerID string) ([]Game, error)

	// CountFinishedGames counts terminal games.
	CountFinishedGames(ctx context.Context, playerID string) (int, error)

	// CountGames counts every game ever started, IN_PROGRESS included.
	CountGames(ctx context.Context, playerID string) (int, error)
}

// Locker serializes mutations per key. unlock must be safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// WordSet is the word-validity oracle the engine consults.
type WordSet interface {
	IsValid(w string) bool
	RandomAnswer() string
}
