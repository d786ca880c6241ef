package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"livepolls/contexts/live-polls/poll-catalog/domain/entities"
	domainerrors "livepolls/contexts/live-polls/poll-catalog/domain/errors"
)

type pollModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	Title     string `gorm:"size:512;not null"`
	CreatedAt time.Time
}

func (pollModel) TableName() string { return "poll" }

type optionModel struct {
	ID       string `gorm:"primaryKey;size:64"`
	PollID   string `gorm:"size:64;not null;index:idx_poll_option_poll"`
	Title    string `gorm:"size:512;not null"`
	Position int    `gorm:"not null"`
}

func (optionModel) TableName() string { return "poll_option" }

// Migrate creates the poll tables if they do not exist yet.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&pollModel{}, &optionModel{})
}

// Repository persists polls in Postgres through gorm.
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

func (r *Repository) SavePoll(ctx context.Context, poll entities.Poll) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := pollModel{
			ID:        poll.PollID,
			Title:     poll.Title,
			CreatedAt: poll.CreatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		for _, option := range poll.Options {
			optionRecord := optionModel{
				ID:       option.OptionID,
				PollID:   option.PollID,
				Title:    option.Title,
				Position: option.Position,
			}
			if err := tx.Create(&optionRecord).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrPollExists
		}
		return r.wrapError("save_poll", err)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	var record pollModel
	err := r.db.WithContext(ctx).First(&record, "id = ?", pollID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, domainerrors.ErrPollNotFound
		}
		return entities.Poll{}, r.wrapError("get_poll", err)
	}

	var optionRecords []optionModel
	err = r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("position ASC").
		Find(&optionRecords).Error
	if err != nil {
		return entities.Poll{}, r.wrapError("get_poll_options", err)
	}

	poll := entities.Poll{
		PollID:    record.ID,
		Title:     record.Title,
		CreatedAt: record.CreatedAt,
		Options:   make([]entities.Option, 0, len(optionRecords)),
	}
	for _, optionRecord := range optionRecords {
		poll.Options = append(poll.Options, entities.Option{
			OptionID: optionRecord.ID,
			PollID:   optionRecord.PollID,
			Title:    optionRecord.Title,
			Position: optionRecord.Position,
		})
	}
	return poll, nil
}

func (r *Repository) ListPollIDs(ctx context.Context) ([]string, error) {
	var pollIDs []string
	err := r.db.WithContext(ctx).
		Model(&pollModel{}).
		Order("created_at ASC").
		Pluck("id", &pollIDs).Error
	if err != nil {
		return nil, r.wrapError("list_poll_ids", err)
	}
	return pollIDs, nil
}

func (r *Repository) wrapError(operation string, err error) error {
	r.logger.Error("poll repository failure",
		"event", "poll_repository_error",
		"module", "poll-catalog",
		"layer", "adapter",
		"operation", operation,
		"error", err,
	)
	return fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
