package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"werewolf/contexts/game/session-service/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ReplayArchive persists finished games at teardown. Live session state
// stays in memory; only the final roster reaches the database.
type ReplayArchive struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewReplayArchive(db *gorm.DB, logger *slog.Logger) *ReplayArchive {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplayArchive{db: db, logger: logger}
}

type replayModel struct {
	SessionID   string    `gorm:"column:session_id;primaryKey"`
	GuildID     string    `gorm:"column:guild_id"`
	Players     []byte    `gorm:"column:players;type:jsonb"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	DestroyedAt time.Time `gorm:"column:destroyed_at"`
}

func (replayModel) TableName() string {
	return "game_replays"
}

func (a *ReplayArchive) SaveReplay(ctx context.Context, replay entities.Replay) error {
	players, err := json.Marshal(replay.Players)
	if err != nil {
		return err
	}

	row := replayModel{
		SessionID:   replay.SessionID,
		GuildID:     replay.GuildID,
		Players:     players,
		CreatedAt:   replay.CreatedAt.UTC(),
		DestroyedAt: replay.DestroyedAt.UTC(),
	}
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// Teardown removes the session before archiving, so a duplicate
			// row can only be a replayed write.
			return nil
		}
		a.logger.Error("replay insert failed",
			"event", "session_replay_insert_failed",
			"module", "game/session-service",
			"layer", "adapter",
			"session_id", replay.SessionID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// Migrate creates the replay table.
func (a *ReplayArchive) Migrate() error {
	return a.db.AutoMigrate(&replayModel{})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
