// internal/game/types.go
//
// Core type definitions for the game engine.
// Defines:
//   - Mark: per-letter result of a guess (correct/present/absent).
//   - Status: lifecycle state of a game.
//   - Game, Guess: one play session and its append-only guesses.

package game

import "time"

const (
	// MaxGuesses is the guess budget of a single game.
	MaxGuesses = 6
	// WordLength is the number of letters in every target and guess.
	WordLength = 5
)

// Mark represents the evaluation result for a single letter in a guess.
//   - "correct": letter is in the target at this position.
//   - "present": letter is in the target at another, not yet accounted, position.
//   - "absent":  no remaining occurrence of the letter in the target.
type Mark string

const (
	MarkCorrect Mark = "correct"
	MarkPresent Mark = "present"
	MarkAbsent  Mark = "absent"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusWon        Status = "WON"
	StatusLost       Status = "LOST"
	StatusQuit       Status = "QUIT"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusQuit
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	return s == StatusInProgress || s.Terminal()
}

// Guess is a single attempt. Position is 1-based and follows append order.
type Guess struct {
	GameID    string
	Position  int
	Word      string
	CreatedAt time.Time
}

// Game holds the state of one play session.
type Game struct {
	ID        string
	PlayerID  string
	Target    string // lowercase; only revealed once the game is terminal
	Guesses   []Guess
	Status    Status
	StartedAt time.Time
	EndedAt   time.Time // zero while IN_PROGRESS
}

// Words returns the guessed words in order.
func (g *Game) Words() []string {
	out := make([]string, len(g.Guesses))
	for i, gs := range g.Guesses {
		out[i] = gs.Word
	}
	return out
}

// Opener returns the first guess, or "" if none was made.
func (g *Game) Opener() string {
	if len(g.Guesses) == 0 {
		return ""
	}
	return g.Guesses[0].Word
}

// Duration is EndedAt-StartedAt for terminal games, zero otherwise.
func (g *Game) Duration() time.Duration {
	if g.EndedAt.IsZero() {
		return 0
	}
	return g.EndedAt.Sub(g.StartedAt)
}

// Clone returns a deep copy so callers never share the guess slice.
func (g *Game) Clone() *Game {
	c := *g
	c.Guesses = append([]Guess(nil), g.Guesses...)
	return &c
}
