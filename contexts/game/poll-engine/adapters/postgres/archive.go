package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"werewolf/contexts/game/poll-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Archive persists finalized poll results. In-flight poll state never
// touches the database; only completed tallies are written.
type Archive struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewArchive(db *gorm.DB, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{db: db, logger: logger}
}

type pollResultModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Topic         string    `gorm:"column:topic"`
	ChannelID     string    `gorm:"column:channel_id"`
	Winners       []byte    `gorm:"column:winners;type:jsonb"`
	Counts        []byte    `gorm:"column:counts;type:jsonb"`
	AnonymousVote bool      `gorm:"column:anonymous_vote"`
	FinalizedAt   time.Time `gorm:"column:finalized_at"`
}

func (pollResultModel) TableName() string {
	return "poll_results"
}

func (a *Archive) SavePollResult(ctx context.Context, result ports.PollResult) error {
	winners, err := json.Marshal(result.Winners)
	if err != nil {
		return err
	}
	counts := result.Counts
	if result.AnonymousVote {
		// Anonymous polls archive counts only, never voter identities.
		for i := range counts {
			counts[i].Voters = nil
		}
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return err
	}

	row := pollResultModel{
		ID:            result.PollID,
		Topic:         result.Topic,
		ChannelID:     result.ChannelID,
		Winners:       winners,
		Counts:        countsJSON,
		AnonymousVote: result.AnonymousVote,
		FinalizedAt:   result.FinalizedAt.UTC(),
	}
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// Finalize runs at most once per poll; a duplicate row means a
			// replayed write and is safe to ignore.
			return nil
		}
		a.logger.Error("poll result insert failed",
			"event", "poll_archive_insert_failed",
			"module", "game/poll-engine",
			"layer", "adapter",
			"poll_id", result.PollID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// Migrate creates the archive table.
func (a *Archive) Migrate() error {
	return a.db.AutoMigrate(&pollResultModel{})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
