package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"livepolls/contexts/live-polls/vote-engine/domain/entities"
	domainerrors "livepolls/contexts/live-polls/vote-engine/domain/errors"
)

// Repository is the Postgres vote registry. The composite unique index on
// (poll_id, session_id) enforces the one-live-choice invariant at the storage
// layer, so racing requests from the same session collapse into exactly one
// surviving row.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// Migrate creates the vote table and its constraints.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&voteModel{})
}

func (r *Repository) GetChoice(ctx context.Context, sessionID string, pollID string) (entities.Choice, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Choice{}, false, nil
		}
		return entities.Choice{}, false, r.wrapError("vote_registry_get_choice_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) RecordChoice(ctx context.Context, choice entities.Choice) error {
	row := voteModelFromEntity(choice)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrChoiceExists
		}
		return r.wrapError("vote_registry_record_choice_failed", err,
			"vote_id", row.ID,
			"poll_id", row.PollID,
		)
	}
	return nil
}

// ReplaceChoice deletes the prior record and inserts the next one in a single
// transaction, keeping vote history replace-not-update as the audit model
// expects. Zero deleted rows means the expected prior choice raced away.
func (r *Repository) ReplaceChoice(ctx context.Context, sessionID string, pollID string, oldOptionID string, next entities.Choice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Where("session_id = ?", strings.TrimSpace(sessionID)).
			Where("poll_id = ?", strings.TrimSpace(pollID)).
			Where("option_id = ?", strings.TrimSpace(oldOptionID)).
			Delete(&voteModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domainerrors.ErrChoiceNotFound
		}
		row := voteModelFromEntity(next)
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrChoiceNotFound) {
			return domainerrors.ErrChoiceNotFound
		}
		if isUniqueViolation(err) {
			return domainerrors.ErrChoiceExists
		}
		return r.wrapError("vote_registry_replace_choice_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	return nil
}

func (r *Repository) DeleteChoice(ctx context.Context, sessionID string, pollID string, optionID string) error {
	res := r.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("option_id = ?", strings.TrimSpace(optionID)).
		Delete(&voteModel{})
	if res.Error != nil {
		return r.wrapError("vote_registry_delete_choice_failed", res.Error,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrChoiceNotFound
	}
	return nil
}

func (r *Repository) CountByOption(ctx context.Context, pollID string) (map[string]int64, error) {
	var rows []struct {
		OptionID string
		Votes    int64
	}
	err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Select("option_id, COUNT(*) AS votes").
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Group("option_id").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.wrapError("vote_registry_count_by_option_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Votes
	}
	return counts, nil
}

func (r *Repository) wrapError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "live-polls/vote-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("vote registry operation failed", fields...)
	return fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
}

type voteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	PollID    string    `gorm:"column:poll_id;uniqueIndex:idx_vote_poll_session"`
	SessionID string    `gorm:"column:session_id;uniqueIndex:idx_vote_poll_session"`
	OptionID  string    `gorm:"column:option_id;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string { return "vote" }

func voteModelFromEntity(choice entities.Choice) voteModel {
	row := voteModel{
		ID:        strings.TrimSpace(choice.VoteID),
		PollID:    strings.TrimSpace(choice.PollID),
		SessionID: strings.TrimSpace(choice.SessionID),
		OptionID:  strings.TrimSpace(choice.OptionID),
		CreatedAt: choice.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m voteModel) toEntity() entities.Choice {
	return entities.Choice{
		VoteID:    m.ID,
		PollID:    m.PollID,
		SessionID: m.SessionID,
		OptionID:  m.OptionID,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
