package ports

import (
	"context"
	"time"

	"livepolls/contexts/live-polls/vote-engine/domain/entities"
)

// ScoreLedger is the materialized per-option vote counter store. Increment
// must be atomic per (pollID, optionID) key under concurrent callers.
type ScoreLedger interface {
	Increment(ctx context.Context, pollID string, optionID string, delta int64) (int64, error)
	Snapshot(ctx context.Context, pollID string) (map[string]int64, error)
}

// VoteRegistry is the durable record of each session's current choice per
// poll. RecordChoice enforces the one-live-choice invariant at the storage
// layer and fails with ErrChoiceExists on a duplicate; ReplaceChoice swaps
// atomically and fails with ErrChoiceNotFound when the expected prior record
// raced away.
type VoteRegistry interface {
	GetChoice(ctx context.Context, sessionID string, pollID string) (entities.Choice, bool, error)
	RecordChoice(ctx context.Context, choice entities.Choice) error
	ReplaceChoice(ctx context.Context, sessionID string, pollID string, oldOptionID string, next entities.Choice) error
	DeleteChoice(ctx context.Context, sessionID string, pollID string, optionID string) error
	CountByOption(ctx context.Context, pollID string) (map[string]int64, error)
}

// DeltaPublisher fans a score event out to the poll's current watchers.
// Delivery is fire-and-forget; publish failures never reach the voter.
type DeltaPublisher interface {
	Publish(ctx context.Context, pollID string, delta entities.ScoreDelta)
}

// PollDirectory resolves poll membership for vote validation and
// reconciliation without coupling the engine to the catalog module.
type PollDirectory interface {
	ListOptionIDs(ctx context.Context, pollID string) ([]string, error)
	ListPollIDs(ctx context.Context) ([]string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
