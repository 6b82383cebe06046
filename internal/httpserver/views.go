// internal/httpserver/views.go
//
// JSON shapes returned to clients. The target word only appears once a game
// is terminal.

package httpserver

import (
	"time"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/history"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/stats"
)

type guessView struct {
	Word  string      `json:"word"`
	Marks []game.Mark `json:"marks"`
}

type boardView struct {
	GameID    string               `json:"gameId"`
	Status    game.Status          `json:"status"`
	Guesses   []guessView          `json:"guesses"`
	Remaining int                  `json:"remaining"`
	Keyboard  map[string]game.Mark `json:"keyboard"`
	StartedAt time.Time            `json:"startedAt"`
	EndedAt   *time.Time           `json:"endedAt,omitempty"`
	Answer    string               `json:"answer,omitempty"`
	Share     string               `json:"share,omitempty"`
}

type guessRes struct {
	Board    boardView   `json:"board"`
	Feedback []game.Mark `json:"feedback"`
}

func newBoard(g *game.Game) boardView {
	words := g.Words()
	b := boardView{
		GameID:    g.ID,
		Status:    g.Status,
		Guesses:   make([]guessView, 0, len(words)),
		Remaining: game.MaxGuesses - len(words),
		Keyboard:  game.Keyboard(g.Target, words),
		StartedAt: g.StartedAt,
	}
	for _, w := range words {
		b.Guesses = append(b.Guesses, guessView{Word: w, Marks: game.Score(g.Target, w)})
	}
	if g.Status.Terminal() {
		ended := g.EndedAt
		b.EndedAt = &ended
		b.Answer = g.Target
		b.Share = game.ShareGrid(g)
		b.Remaining = 0
	}
	return b
}

type historyPage struct {
	Board    boardView `json:"board"`
	Offset   int       `json:"offset"`
	Total    int       `json:"total"`
	Number   int       `json:"number"`
	HasNewer bool      `json:"hasNewer"`
	HasOlder bool      `json:"hasOlder"`
	Seconds  float64   `json:"durationSeconds"`
}

func newHistoryPage(p *history.Page) historyPage {
	return historyPage{
		Board:    newBoard(&p.Game),
		Offset:   p.Offset,
		Total:    p.Total,
		Number:   p.Number,
		HasNewer: p.HasNewer,
		HasOlder: p.HasOlder,
		Seconds:  p.Duration.Seconds(),
	}
}

type statsView struct {
	Player        string   `json:"player,omitempty"`
	Started       int      `json:"started"`
	Finished      int      `json:"finished"`
	Wins          int      `json:"wins"`
	Losses        int      `json:"losses"`
	Quits         int      `json:"quits"`
	CurrentStreak int      `json:"currentStreak"`
	MaxStreak     int      `json:"maxStreak"`
	Distribution  []int    `json:"distribution"`
	WinRate       *float64 `json:"winRate,omitempty"`
	PerGame       *float64 `json:"guessesPerGame,omitempty"`
	PerWin        *float64 `json:"guessesPerWin,omitempty"`
}

func newStatsView(s *stats.Summary) statsView {
	v := statsView{
		Player:        s.Scope.PlayerID,
		Started:       s.Started,
		Finished:      s.Finished,
		Wins:          s.Wins,
		Losses:        s.Losses,
		Quits:         s.Quits,
		CurrentStreak: s.CurrentStreak,
		MaxStreak:     s.MaxStreak,
		Distribution:  s.Distribution[:],
	}
	v.WinRate = optional(s.WinRate())
	v.PerGame = optional(s.PerGame())
	v.PerWin = optional(s.PerWin())
	return v
}

type guessStats struct {
	Player     string            `json:"player,omitempty"`
	Total      int               `json:"total"`
	Unique     int               `json:"unique"`
	PerGame    *float64          `json:"perGame,omitempty"`
	PerWin     *float64          `json:"perWin,omitempty"`
	TopGuesses []stats.WordCount `json:"topGuesses"`
	TopOpeners []stats.WordCount `json:"topOpeners"`
}

func newGuessStats(s *stats.Summary) guessStats {
	return guessStats{
		Player:     s.Scope.PlayerID,
		Total:      s.TotalGuesses,
		Unique:     s.UniqueGuesses,
		PerGame:    optional(s.PerGame()),
		PerWin:     optional(s.PerWin()),
		TopGuesses: s.TopGuesses(topN),
		TopOpeners: s.TopOpeners(topN),
	}
}

// optional drops averages that have no data behind them.
func optional(v float64, err error) *float64 {
	if err != nil {
		return nil
	}
	return &v
}
