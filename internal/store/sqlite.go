// internal/store/sqlite.go
//
// SQLite implementation of game.Repository (default durable backend).
//
// Schema lives in assets/sql. Timestamps are stored as RFC3339Nano text in
// UTC; games.seq preserves creation order for listings.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
)

// SQLite is a game.Repository over database/sql + go-sqlite3.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an opened, migrated database.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

var _ game.Repository = (*SQLite)(nil)

const gameColumns = `id, player_id, target, status, started_at, COALESCE(ended_at,'')`

// FindActiveGame loads the player's IN_PROGRESS game with its guesses.
func (s *SQLite) FindActiveGame(ctx context.Context, playerID string) (*game.Game, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games
	                                WHERE player_id=? AND status=?`, playerID, string(game.StatusInProgress))
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT game_id, position, word, created_at
	                                   FROM guesses WHERE game_id=? ORDER BY position`, g.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		gs, err := scanGuess(rows)
		if err != nil {
			return nil, err
		}
		g.Guesses = append(g.Guesses, gs)
	}
	return g, rows.Err()
}

// CreateGame inserts an IN_PROGRESS game. The partial unique index on
// (player_id) WHERE status='IN_PROGRESS' rejects a second active game.
func (s *SQLite) CreateGame(ctx context.Context, playerID, target string, startedAt time.Time) (*game.Game, error) {
	g := &game.Game{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Target:    target,
		Guesses:   []game.Guess{},
		Status:    game.StatusInProgress,
		StartedAt: startedAt.UTC(),
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO games (id, player_id, target, status, started_at)
	                                 VALUES (?,?,?,?,?)`,
		g.ID, g.PlayerID, g.Target, string(g.Status), formatTime(g.StartedAt))
	if isUniqueViolation(err) {
		return nil, game.ErrAlreadyPlaying
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// AppendGuess inserts the next guess inside one transaction, after checking
// the game is still running.
func (s *SQLite) AppendGuess(ctx context.Context, gameID, word string, at time.Time) (game.Guess, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return game.Guess{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM games WHERE id=?`, gameID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && game.Status(status) != game.StatusInProgress) {
		return game.Guess{}, game.ErrNoActiveGame
	}
	if err != nil {
		return game.Guess{}, err
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM guesses WHERE game_id=?`, gameID).Scan(&n); err != nil {
		return game.Guess{}, err
	}
	gs := game.Guess{GameID: gameID, Position: n + 1, Word: word, CreatedAt: at.UTC()}
	if _, err := tx.ExecContext(ctx, `INSERT INTO guesses (game_id, position, word, created_at) VALUES (?,?,?,?)`,
		gs.GameID, gs.Position, gs.Word, formatTime(gs.CreatedAt)); err != nil {
		return game.Guess{}, err
	}
	if err := tx.Commit(); err != nil {
		return game.Guess{}, err
	}
	return gs, nil
}

// UpdateGameStatus finishes a running game.
func (s *SQLite) UpdateGameStatus(ctx context.Context, gameID string, status game.Status, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE games SET status=?, ended_at=? WHERE id=? AND status=?`,
		string(status), formatTime(endedAt), gameID, string(game.StatusInProgress))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return game.ErrNoActiveGame
	}
	return nil
}

// ListFinishedGames reads terminal games and their guesses from a single
// snapshot, oldest first.
func (s *SQLite) ListFinishedGames(ctx context.Context, playerID string) ([]game.Game, error) {
	where, args := finishedFilter("g.", playerID)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT g.id, g.player_id, g.target, g.status, g.started_at, COALESCE(g.ended_at,'')
	                                   FROM games g WHERE `+where+` ORDER BY g.seq`, args...)
	if err != nil {
		return nil, err
	}
	out := []game.Game{}
	index := map[string]int{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[g.ID] = len(out)
		out = append(out, *g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT gs.game_id, gs.position, gs.word, gs.created_at
	                                  FROM guesses gs JOIN games g ON g.id = gs.game_id
	                                  WHERE `+where+` ORDER BY g.seq, gs.position`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		gs, err := scanGuess(rows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[gs.GameID]; ok {
			out[i].Guesses = append(out[i].Guesses, gs)
		}
	}
	return out, rows.Err()
}

// CountFinishedGames counts terminal games.
func (s *SQLite) CountFinishedGames(ctx context.Context, playerID string) (int, error) {
	where, args := finishedFilter("", playerID)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM games WHERE `+where, args...).Scan(&n)
	return n, err
}

// CountGames counts every game, running ones included.
func (s *SQLite) CountGames(ctx context.Context, playerID string) (int, error) {
	q, args := `SELECT COUNT(1) FROM games`, []any{}
	if playerID != game.AllPlayers {
		q += ` WHERE player_id=?`
		args = append(args, playerID)
	}
	var n int
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// finishedFilter builds the WHERE clause selecting terminal games.
func finishedFilter(alias, playerID string) (string, []any) {
	where := []string{alias + `status <> ?`}
	args := []any{string(game.StatusInProgress)}
	if playerID != game.AllPlayers {
		where = append(where, alias+`player_id = ?`)
		args = append(args, playerID)
	}
	return strings.Join(where, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*game.Game, error) {
	var (
		g              game.Game
		status         string
		started, ended string
	)
	if err := row.Scan(&g.ID, &g.PlayerID, &g.Target, &status, &started, &ended); err != nil {
		return nil, err
	}
	g.Status = game.Status(status)
	if !g.Status.Valid() {
		return nil, fmt.Errorf("%w: game %s has unknown status %q", game.ErrInvariantViolation, g.ID, status)
	}
	g.StartedAt = parseTime(started)
	g.EndedAt = parseTime(ended)
	g.Guesses = []game.Guess{}
	return &g, nil
}

func scanGuess(row scanner) (game.Guess, error) {
	var (
		gs      game.Guess
		created string
	)
	if err := row.Scan(&gs.GameID, &gs.Position, &gs.Word, &created); err != nil {
		return game.Guess{}, err
	}
	gs.CreatedAt = parseTime(created)
	return gs, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// parseTime parses RFC3339 timestamps; on error or empty input returns zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
