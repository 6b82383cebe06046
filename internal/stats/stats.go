// internal/stats/stats.go
//
// Statistics derived from completed game history.
//
// One aggregator serves both a single player and the whole population; the
// Scope only changes which games are read. All computations are pure over
// the listed games; nothing is stored.
//
// Streaks are per player. For the global scope MaxStreak is the longest run
// any player reached and CurrentStreak the longest run still alive.

package stats

import (
	"context"
	"errors"
	"sort"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
)

// ErrInsufficientData is returned when a figure has nothing to divide by,
// or a scope has no games at all.
var ErrInsufficientData = errors.New("not enough games for statistics")

// Scope selects whose games are aggregated.
type Scope struct {
	PlayerID string // game.AllPlayers for everyone
}

// Global aggregates every player's games.
var Global = Scope{PlayerID: game.AllPlayers}

// Player aggregates a single player's games.
func Player(id string) Scope { return Scope{PlayerID: id} }

// IsGlobal reports whether s spans all players.
func (s Scope) IsGlobal() bool { return s.PlayerID == game.AllPlayers }

// WordCount is one row of a frequency leaderboard.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Summary is the derived record of a scope.
type Summary struct {
	Scope Scope

	Started  int // every game, IN_PROGRESS included
	Finished int // terminal games
	Wins     int
	Losses   int
	Quits    int

	CurrentStreak int
	MaxStreak     int

	// Distribution[i] counts wins that took i+1 guesses.
	Distribution [game.MaxGuesses]int

	TotalGuesses  int // over finished games
	UniqueGuesses int

	wonGuesses int
	guesses    map[string]int
	openers    map[string]int
}

// Summarize folds terminal games (oldest first) into a Summary. Games still
// IN_PROGRESS are skipped. started is the caller's count of all games.
func Summarize(scope Scope, started int, games []game.Game) *Summary {
	s := &Summary{
		Scope:   scope,
		Started: started,
		guesses: make(map[string]int),
		openers: make(map[string]int),
	}
	runs := make(map[string]*run)
	for i := range games {
		g := &games[i]
		if !g.Status.Terminal() {
			continue
		}
		s.Finished++

		r := runs[g.PlayerID]
		if r == nil {
			r = &run{}
			runs[g.PlayerID] = r
		}
		r.add(g.Status == game.StatusWon)

		switch g.Status {
		case game.StatusWon:
			s.Wins++
			s.wonGuesses += len(g.Guesses)
			if n := len(g.Guesses); n >= 1 && n <= game.MaxGuesses {
				s.Distribution[n-1]++
			}
		case game.StatusLost:
			s.Losses++
		case game.StatusQuit:
			s.Quits++
		}

		s.TotalGuesses += len(g.Guesses)
		for _, gs := range g.Guesses {
			s.guesses[gs.Word]++
		}
		if w := g.Opener(); w != "" {
			s.openers[w]++
		}
	}
	s.UniqueGuesses = len(s.guesses)

	for _, r := range runs {
		s.CurrentStreak = max(s.CurrentStreak, r.current)
		s.MaxStreak = max(s.MaxStreak, r.best)
	}
	return s
}

// run tracks consecutive wins for one player.
type run struct {
	current int
	best    int
}

func (r *run) add(won bool) {
	if !won {
		r.current = 0
		return
	}
	r.current++
	r.best = max(r.best, r.current)
}

// TopGuesses returns the n most frequent guesses, count desc then word asc.
func (s *Summary) TopGuesses(n int) []WordCount { return top(s.guesses, n) }

// TopOpeners ranks first guesses the same way.
func (s *Summary) TopOpeners(n int) []WordCount { return top(s.openers, n) }

// PerGame is the mean number of guesses per finished game.
func (s *Summary) PerGame() (float64, error) {
	if s.Finished == 0 {
		return 0, ErrInsufficientData
	}
	return float64(s.TotalGuesses) / float64(s.Finished), nil
}

// PerWin is the mean number of guesses per won game.
func (s *Summary) PerWin() (float64, error) {
	if s.Wins == 0 {
		return 0, ErrInsufficientData
	}
	return float64(s.wonGuesses) / float64(s.Wins), nil
}

// WinRate is wins over finished games, in [0,1].
func (s *Summary) WinRate() (float64, error) {
	if s.Finished == 0 {
		return 0, ErrInsufficientData
	}
	return float64(s.Wins) / float64(s.Finished), nil
}

func top(counts map[string]int, n int) []WordCount {
	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Source is the slice of game.Repository the aggregator reads.
type Source interface {
	ListFinishedGames(ctx context.Context, playerID string) ([]game.Game, error)
	CountGames(ctx context.Context, playerID string) (int, error)
}

// Aggregator computes summaries from a repository.
type Aggregator struct {
	repo Source
}

// NewAggregator returns an Aggregator reading from repo.
func NewAggregator(repo Source) *Aggregator { return &Aggregator{repo: repo} }

// Summary reads the scope's history and summarizes it. A scope that never
// started a game yields ErrInsufficientData.
func (a *Aggregator) Summary(ctx context.Context, scope Scope) (*Summary, error) {
	started, err := a.repo.CountGames(ctx, scope.PlayerID)
	if err != nil {
		return nil, game.StorageError("count games", err)
	}
	if started == 0 {
		return nil, ErrInsufficientData
	}
	games, err := a.repo.ListFinishedGames(ctx, scope.PlayerID)
	if err != nil {
		return nil, game.StorageError("list finished games", err)
	}
	return Summarize(scope, started, games), nil
}
