package game

import (
	"errors"
	"fmt"
)

// Player-facing, recoverable conditions.
var (
	ErrInvalidLength  = errors.New("guesses must be 5 letters long")
	ErrInvalidWord    = errors.New("not a valid word")
	ErrNoActiveGame   = errors.New("no game in progress")
	ErrAlreadyPlaying = errors.New("a game is already in progress")
	ErrPlayerBusy     = errors.New("another action for this player is still running")
)

// ErrStorageUnavailable wraps every failure of the Repository or Locker
// backends. The engine never retries.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrInvariantViolation signals corrupt stored state, e.g. an IN_PROGRESS
// game that already holds MaxGuesses guesses.
var ErrInvariantViolation = errors.New("game invariant violated")

// StorageError wraps err as ErrStorageUnavailable, tagging it with op.
// Domain sentinels returned by a backend pass through unchanged.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNoActiveGame, ErrAlreadyPlaying, ErrInvariantViolation, ErrStorageUnavailable} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
