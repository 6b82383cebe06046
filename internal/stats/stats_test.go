package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
)

func finished(player string, status game.Status, words ...string) game.Game {
	g := game.Game{ID: player + "-" + string(status), PlayerID: player, Target: "crane", Status: status}
	for i, w := range words {
		g.Guesses = append(g.Guesses, game.Guess{Position: i + 1, Word: w})
	}
	return g
}

func TestSummarize_Streaks(t *testing.T) {
	// WIN, WIN, LOSS, WIN, WIN, WIN, QUIT
	games := []game.Game{
		finished("p", game.StatusWon, "crane"),
		finished("p", game.StatusWon, "slate", "crane"),
		finished("p", game.StatusLost, "slate", "slate", "slate", "slate", "slate", "slate"),
		finished("p", game.StatusWon, "slate", "sheep", "crane"),
		finished("p", game.StatusWon, "crane"),
		finished("p", game.StatusWon, "slate", "crane"),
		finished("p", game.StatusQuit, "slate"),
	}
	s := Summarize(Player("p"), 8, games)

	assert.Equal(t, 3, s.MaxStreak)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 8, s.Started)
	assert.Equal(t, 7, s.Finished)
	assert.Equal(t, 5, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 1, s.Quits)
	assert.Equal(t, [game.MaxGuesses]int{2, 2, 1, 0, 0, 0}, s.Distribution)
}

func TestSummarize_TrailingStreak(t *testing.T) {
	games := []game.Game{
		finished("p", game.StatusWon, "crane"),
		finished("p", game.StatusQuit),
		finished("p", game.StatusWon, "crane"),
		finished("p", game.StatusWon, "crane"),
	}
	s := Summarize(Player("p"), 4, games)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.MaxStreak)
}

func TestSummarize_SkipsInProgress(t *testing.T) {
	games := []game.Game{
		finished("p", game.StatusWon, "slate", "crane"),
		finished("p", game.StatusInProgress, "sheep", "sheep", "sheep"),
	}
	s := Summarize(Player("p"), 2, games)
	assert.Equal(t, 1, s.Finished)
	assert.Equal(t, 2, s.TotalGuesses)
	assert.Equal(t, 2, s.UniqueGuesses)
	assert.Equal(t, 1, s.CurrentStreak)

	perGame, err := s.PerGame()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, perGame, 1e-9)
}

func TestSummarize_GlobalStreaksArePerPlayer(t *testing.T) {
	// Interleaved: a's wins are split by b's loss in time, not in a's history.
	games := []game.Game{
		finished("a", game.StatusWon, "crane"),
		finished("b", game.StatusLost, "slate", "slate", "slate", "slate", "slate", "slate"),
		finished("a", game.StatusWon, "crane"),
		finished("b", game.StatusWon, "crane"),
		finished("a", game.StatusWon, "crane"),
		finished("a", game.StatusQuit),
	}
	s := Summarize(Global, 6, games)
	assert.Equal(t, 3, s.MaxStreak)
	assert.Equal(t, 1, s.CurrentStreak) // b is on 1, a was reset
	assert.Equal(t, 4, s.Wins)
}

func TestTopGuessesAndOpeners(t *testing.T) {
	games := []game.Game{
		finished("p", game.StatusWon, "slate", "crane"),
		finished("p", game.StatusLost, "crane", "adieu", "slate", "adieu", "stomp", "fling"),
		finished("p", game.StatusQuit, "adieu"),
		finished("p", game.StatusWon, "slate", "sheep"),
	}
	s := Summarize(Player("p"), 4, games)

	assert.Equal(t, []WordCount{
		{Word: "adieu", Count: 3},
		{Word: "slate", Count: 3},
		{Word: "crane", Count: 2},
	}, s.TopGuesses(3))

	assert.Equal(t, []WordCount{
		{Word: "slate", Count: 2},
		{Word: "adieu", Count: 1},
		{Word: "crane", Count: 1},
	}, s.TopOpeners(10))

	assert.Equal(t, 11, s.TotalGuesses)
	assert.Equal(t, 6, s.UniqueGuesses)
	assert.Empty(t, Summarize(Player("q"), 1, nil).TopGuesses(5))
}

func TestAverages(t *testing.T) {
	s := Summarize(Player("p"), 3, []game.Game{
		finished("p", game.StatusWon, "slate", "crane"),
		finished("p", game.StatusWon, "slate", "sheep", "speed", "crane"),
		finished("p", game.StatusQuit, "adieu", "stomp", "fling"),
	})
	perGame, err := s.PerGame()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, perGame, 1e-9)

	perWin, err := s.PerWin()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, perWin, 1e-9)

	rate, err := s.WinRate()
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, rate, 1e-9)
}

func TestAverages_InsufficientData(t *testing.T) {
	s := Summarize(Player("p"), 1, nil)
	_, err := s.PerGame()
	require.ErrorIs(t, err, ErrInsufficientData)
	_, err = s.WinRate()
	require.ErrorIs(t, err, ErrInsufficientData)

	s = Summarize(Player("p"), 1, []game.Game{finished("p", game.StatusLost, "slate")})
	_, err = s.PerGame()
	require.NoError(t, err)
	_, err = s.PerWin()
	require.ErrorIs(t, err, ErrInsufficientData)
}

type sourceMock struct {
	mock.Mock
}

func (m *sourceMock) ListFinishedGames(ctx context.Context, playerID string) ([]game.Game, error) {
	args := m.Called(playerID)
	games, _ := args.Get(0).([]game.Game)
	return games, args.Error(1)
}

func (m *sourceMock) CountGames(ctx context.Context, playerID string) (int, error) {
	args := m.Called(playerID)
	return args.Int(0), args.Error(1)
}

func TestAggregator_Summary(t *testing.T) {
	src := new(sourceMock)
	src.On("CountGames", "p").Return(3, nil)
	src.On("ListFinishedGames", "p").Return([]game.Game{
		finished("p", game.StatusWon, "crane"),
		finished("p", game.StatusWon, "slate", "crane"),
	}, nil)

	s, err := NewAggregator(src).Summary(context.Background(), Player("p"))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Started)
	assert.Equal(t, 2, s.Finished)
	assert.Equal(t, 2, s.CurrentStreak)
	src.AssertExpectations(t)
}

func TestAggregator_NoGames(t *testing.T) {
	src := new(sourceMock)
	src.On("CountGames", game.AllPlayers).Return(0, nil)

	_, err := NewAggregator(src).Summary(context.Background(), Global)
	require.ErrorIs(t, err, ErrInsufficientData)
	src.AssertNotCalled(t, "ListFinishedGames", mock.Anything)
}

func TestAggregator_StorageFailure(t *testing.T) {
	src := new(sourceMock)
	src.On("CountGames", "p").Return(0, errors.New("connection refused"))

	_, err := NewAggregator(src).Summary(context.Background(), Player("p"))
	require.ErrorIs(t, err, game.ErrStorageUnavailable)
}
