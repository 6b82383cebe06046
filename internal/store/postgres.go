// internal/store/postgres.go
//
// Postgres implementation of game.Repository on gorm, for deployments where
// several bot processes share one database.

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
)

type gameRow struct {
	Seq       uint       `gorm:"primaryKey;autoIncrement"`
	ID        string     `gorm:"uniqueIndex;size:36;not null"`
	PlayerID  string     `gorm:"index:idx_games_player_status;not null"`
	Target    string     `gorm:"size:5;not null"`
	Status    string     `gorm:"index:idx_games_player_status;size:16;not null"`
	StartedAt time.Time  `gorm:"not null"`
	EndedAt   *time.Time
	Guesses   []guessRow `gorm:"foreignKey:GameID;references:ID;constraint:OnDelete:CASCADE"`
}

func (gameRow) TableName() string { return "games" }

type guessRow struct {
	GameID    string    `gorm:"primaryKey;size:36"`
	Position  int       `gorm:"primaryKey;autoIncrement:false"`
	Word      string    `gorm:"size:5;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (guessRow) TableName() string { return "guesses" }

// Postgres is a game.Repository over gorm.
type Postgres struct {
	db *gorm.DB
}

var _ game.Repository = (*Postgres)(nil)

// OpenPostgres connects with duplicate-key errors translated to
// gorm.ErrDuplicatedKey.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// NewPostgres migrates the schema and returns the repository.
func NewPostgres(db *gorm.DB) (*Postgres, error) {
	if err := db.AutoMigrate(&gameRow{}, &guessRow{}); err != nil {
		return nil, err
	}
	// At most one IN_PROGRESS game per player.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_games_active_player
	                   ON games (player_id) WHERE status = 'IN_PROGRESS'`).Error; err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// FindActiveGame loads the player's IN_PROGRESS game with its guesses.
func (p *Postgres) FindActiveGame(ctx context.Context, playerID string) (*game.Game, error) {
	var row gameRow
	err := p.db.WithContext(ctx).
		Preload("Guesses", orderByPosition).
		Where("player_id = ? AND status = ?", playerID, string(game.StatusInProgress)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toGame(), nil
}

// CreateGame inserts an IN_PROGRESS game.
func (p *Postgres) CreateGame(ctx context.Context, playerID, target string, startedAt time.Time) (*game.Game, error) {
	row := gameRow{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Target:    target,
		Status:    string(game.StatusInProgress),
		StartedAt: startedAt.UTC(),
	}
	err := p.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, game.ErrAlreadyPlaying
	}
	if err != nil {
		return nil, err
	}
	return row.toGame(), nil
}

// AppendGuess locks the game row (SELECT ... FOR UPDATE) and inserts the
// next position.
func (p *Postgres) AppendGuess(ctx context.Context, gameID, word string, at time.Time) (game.Guess, error) {
	var gs guessRow
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row gameRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", gameID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.ErrNoActiveGame
		}
		if err != nil {
			return err
		}
		if row.Status != string(game.StatusInProgress) {
			return game.ErrNoActiveGame
		}

		var n int64
		if err := tx.Model(&guessRow{}).Where("game_id = ?", gameID).Count(&n).Error; err != nil {
			return err
		}
		gs = guessRow{GameID: gameID, Position: int(n) + 1, Word: word, CreatedAt: at.UTC()}
		return tx.Create(&gs).Error
	})
	if err != nil {
		return game.Guess{}, err
	}
	return gs.toGuess(), nil
}

// UpdateGameStatus finishes a running game.
func (p *Postgres) UpdateGameStatus(ctx context.Context, gameID string, status game.Status, endedAt time.Time) error {
	res := p.db.WithContext(ctx).Model(&gameRow{}).
		Where("id = ? AND status = ?", gameID, string(game.StatusInProgress)).
		Updates(map[string]any{"status": string(status), "ended_at": endedAt.UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return game.ErrNoActiveGame
	}
	return nil
}

// ListFinishedGames reads terminal games and guesses in one repeatable-read
// transaction, oldest first.
func (p *Postgres) ListFinishedGames(ctx context.Context, playerID string) ([]game.Game, error) {
	var rows []gameRow
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return finished(tx, playerID).
			Preload("Guesses", orderByPosition).
			Order("seq").
			Find(&rows).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]game.Game, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toGame())
	}
	return out, nil
}

// CountFinishedGames counts terminal games.
func (p *Postgres) CountFinishedGames(ctx context.Context, playerID string) (int, error) {
	var n int64
	err := finished(p.db.WithContext(ctx).Model(&gameRow{}), playerID).Count(&n).Error
	return int(n), err
}

// CountGames counts every game, running ones included.
func (p *Postgres) CountGames(ctx context.Context, playerID string) (int, error) {
	q := p.db.WithContext(ctx).Model(&gameRow{})
	if playerID != game.AllPlayers {
		q = q.Where("player_id = ?", playerID)
	}
	var n int64
	err := q.Count(&n).Error
	return int(n), err
}

func finished(tx *gorm.DB, playerID string) *gorm.DB {
	tx = tx.Where("status <> ?", string(game.StatusInProgress))
	if playerID != game.AllPlayers {
		tx = tx.Where("player_id = ?", playerID)
	}
	return tx
}

func orderByPosition(tx *gorm.DB) *gorm.DB { return tx.Order("position") }

func (r *gameRow) toGame() *game.Game {
	g := &game.Game{
		ID:        r.ID,
		PlayerID:  r.PlayerID,
		Target:    r.Target,
		Status:    game.Status(r.Status),
		StartedAt: r.StartedAt.UTC(),
		Guesses:   make([]game.Guess, 0, len(r.Guesses)),
	}
	if r.EndedAt != nil {
		g.EndedAt = r.EndedAt.UTC()
	}
	for _, gs := range r.Guesses {
		g.Guesses = append(g.Guesses, gs.toGuess())
	}
	return g
}

func (r guessRow) toGuess() game.Guess {
	return game.Guess{GameID: r.GameID, Position: r.Position, Word: r.Word, CreatedAt: r.CreatedAt.UTC()}
}
