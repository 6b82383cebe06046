// Package history pages through a player's finished games, newest first.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
)

var (
	ErrNoHistory         = errors.New("no finished games yet")
	ErrHistoryOutOfRange = errors.New("history page out of range")
)

// Source is the slice of game.Repository the browser reads.
type Source interface {
	CountFinishedGames(ctx context.Context, playerID string) (int, error)
	ListFinishedGames(ctx context.Context, playerID string) ([]game.Game, error)
}

// Page is one finished game plus what a pager needs to draw
// "Game X of N" and enable newest/newer/older/oldest controls.
type Page struct {
	Game     game.Game
	Offset   int // 0 = newest
	Total    int
	Number   int // chronological position, Total-Offset
	HasNewer bool
	HasOlder bool
	Duration time.Duration
}

// Browser serves history pages.
type Browser struct {
	repo Source
}

func NewBrowser(repo Source) *Browser { return &Browser{repo: repo} }

// Page returns the finished game offset positions back from the newest.
func (b *Browser) Page(ctx context.Context, playerID string, offset int) (*Page, error) {
	total, err := b.repo.CountFinishedGames(ctx, playerID)
	if err != nil {
		return nil, game.StorageError("count finished games", err)
	}
	if total == 0 {
		return nil, ErrNoHistory
	}
	if offset < 0 || offset >= total {
		return nil, ErrHistoryOutOfRange
	}

	games, err := b.repo.ListFinishedGames(ctx, playerID)
	if err != nil {
		return nil, game.StorageError("list finished games", err)
	}
	// A game may have finished between the two reads.
	total = len(games)
	if offset >= total {
		return nil, ErrHistoryOutOfRange
	}

	g := games[total-1-offset]
	return &Page{
		Game:     g,
		Offset:   offset,
		Total:    total,
		Number:   total - offset,
		HasNewer: offset > 0,
		HasOlder: offset < total-1,
		Duration: g.Duration(),
	}, nil
}
