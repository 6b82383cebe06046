// internal/game/engine.go
//
// Core game engine: one active game per player.
// Responsibilities:
//   - Start (or resume) a player's game with a random answer.
//   - Validate and apply guesses (length, word list, active game).
//   - Track state transitions: IN_PROGRESS → WON/LOST/QUIT.
//
// Notes:
//   - Every mutation holds the player's lock across read‑validate‑append‑evaluate.
//   - State lives in the Repository; the engine itself keeps none between calls.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// StartPolicy decides what Start does when a game is already running.
type StartPolicy int

const (
	// ResumeActive returns the running game unchanged.
	ResumeActive StartPolicy = iota
	// RejectActive fails with ErrAlreadyPlaying.
	RejectActive
)

const defaultLockWait = 5 * time.Second

// Options tune an Engine. Zero values pick the defaults.
type Options struct {
	Policy   StartPolicy
	LockWait time.Duration
	Now      func() time.Time
}

// Engine owns the game lifecycle for all players.
type Engine struct {
	repo     Repository
	words    WordSet
	locks    Locker
	policy   StartPolicy
	lockWait time.Duration
	now      func() time.Time
}

// GuessResult is the outcome of a single accepted guess.
type GuessResult struct {
	Game     *Game
	Feedback []Mark
}

// NewEngine wires an Engine to its collaborators.
func NewEngine(repo Repository, words WordSet, locks Locker, opts Options) *Engine {
	e := &Engine{
		repo:     repo,
		words:    words,
		locks:    locks,
		policy:   opts.Policy,
		lockWait: opts.LockWait,
		now:      opts.Now,
	}
	if e.lockWait <= 0 {
		e.lockWait = defaultLockWait
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

// Start returns the player's IN_PROGRESS game, creating one if none exists.
// Under RejectActive an existing game yields ErrAlreadyPlaying instead.
func (e *Engine) Start(ctx context.Context, playerID string) (*Game, error) {
	unlock, err := e.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := e.active(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if g != nil {
		if e.policy == RejectActive {
			return nil, ErrAlreadyPlaying
		}
		return g, nil
	}

	g, err = e.repo.CreateGame(ctx, playerID, e.words.RandomAnswer(), e.now())
	if errors.Is(err, ErrAlreadyPlaying) && e.policy == ResumeActive {
		// Lost a creation race to another process; resume its game.
		g, err = e.active(ctx, playerID)
		if err == nil && g == nil {
			err = ErrNoActiveGame
		}
		return g, err
	}
	if err != nil {
		return nil, StorageError("create game", err)
	}
	log.Info().Str("player", playerID).Str("gameId", g.ID).Msg("game started")
	return g, nil
}

// Active returns the player's IN_PROGRESS game or ErrNoActiveGame.
func (e *Engine) Active(ctx context.Context, playerID string) (*Game, error) {
	unlock, err := e.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := e.active(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoActiveGame
	}
	return g, nil
}

// Guess validates and applies a guess for the player's active game.
//
// Validation order: length, word list, active game. A guess equal to the
// target wins immediately; otherwise the MaxGuesses-th guess loses.
func (e *Engine) Guess(ctx context.Context, playerID, word string) (*GuessResult, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if utf8.RuneCountInString(word) != WordLength {
		return nil, ErrInvalidLength
	}
	if !e.words.IsValid(word) {
		return nil, ErrInvalidWord
	}

	unlock, err := e.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := e.active(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoActiveGame
	}

	gs, err := e.repo.AppendGuess(ctx, g.ID, word, e.now())
	if err != nil {
		return nil, StorageError("append guess", err)
	}
	g.Guesses = append(g.Guesses, gs)
	marks := Score(g.Target, word)

	switch {
	case word == g.Target:
		err = e.finish(ctx, g, StatusWon)
	case len(g.Guesses) >= MaxGuesses:
		err = e.finish(ctx, g, StatusLost)
	}
	if err != nil {
		return nil, err
	}

	log.Debug().Str("player", playerID).Str("gameId", g.ID).
		Int("guess", len(g.Guesses)).Str("status", string(g.Status)).Msg("guess applied")
	return &GuessResult{Game: g, Feedback: marks}, nil
}

// Quit ends the player's active game. The returned game carries the target.
func (e *Engine) Quit(ctx context.Context, playerID string) (*Game, error) {
	unlock, err := e.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := e.active(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoActiveGame
	}
	if err := e.finish(ctx, g, StatusQuit); err != nil {
		return nil, err
	}
	return g, nil
}

// finish persists a terminal transition and mirrors it onto g.
func (e *Engine) finish(ctx context.Context, g *Game, status Status) error {
	ended := e.now()
	if err := e.repo.UpdateGameStatus(ctx, g.ID, status, ended); err != nil {
		return StorageError("update game status", err)
	}
	g.Status, g.EndedAt = status, ended
	log.Info().Str("player", g.PlayerID).Str("gameId", g.ID).
		Str("status", string(status)).Int("guesses", len(g.Guesses)).Msg("game finished")
	return nil
}

// active loads the player's running game and checks the stored state.
//
// A game whose last guess hit the target, or that holds MaxGuesses guesses,
// was interrupted between AppendGuess and UpdateGameStatus. It is finished
// here and reported as no active game.
func (e *Engine) active(ctx context.Context, playerID string) (*Game, error) {
	g, err := e.repo.FindActiveGame(ctx, playerID)
	if err != nil {
		return nil, StorageError("find active game", err)
	}
	if g == nil {
		return nil, nil
	}
	if err := checkActive(g); err != nil {
		log.Error().Err(err).Str("player", playerID).Str("gameId", g.ID).Msg("corrupt game state")
		return nil, err
	}
	if status, ok := pendingFinish(g); ok {
		if err := e.finish(ctx, g, status); err != nil {
			return nil, err
		}
		log.Warn().Str("player", playerID).Str("gameId", g.ID).Str("status", string(status)).
			Msg("completed interrupted game")
		return nil, nil
	}
	return g, nil
}

// checkActive rejects stored IN_PROGRESS games no sequence of engine calls
// can produce.
func checkActive(g *Game) error {
	switch {
	case g.Status != StatusInProgress:
		return fmt.Errorf("%w: active game has status %s", ErrInvariantViolation, g.Status)
	case len(g.Guesses) > MaxGuesses:
		return fmt.Errorf("%w: active game holds %d guesses", ErrInvariantViolation, len(g.Guesses))
	case len(g.Target) != WordLength:
		return fmt.Errorf("%w: target %q is not %d letters", ErrInvariantViolation, g.Target, WordLength)
	}
	for i, gs := range g.Guesses {
		if gs.Word == g.Target && i != len(g.Guesses)-1 {
			return fmt.Errorf("%w: guesses continued after the target was found", ErrInvariantViolation)
		}
	}
	return nil
}

// pendingFinish reports the terminal status a checked game already earned.
func pendingFinish(g *Game) (Status, bool) {
	n := len(g.Guesses)
	switch {
	case n > 0 && g.Guesses[n-1].Word == g.Target:
		return StatusWon, true
	case n >= MaxGuesses:
		return StatusLost, true
	}
	return "", false
}

// lock acquires the player's lock, waiting at most lockWait.
func (e *Engine) lock(ctx context.Context, playerID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, e.lockWait)
	defer cancel()

	unlock, err := e.locks.Lock(waitCtx, "player:"+playerID)
	if err == nil {
		return unlock, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, ErrPlayerBusy
	}
	return nil, StorageError("lock player", err)
}
