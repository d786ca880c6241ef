package badgeradapter

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	domainerrors "livepolls/contexts/live-polls/vote-engine/domain/errors"
)

const scorePrefix = "score/"

// Ledger stores per-(poll, option) vote counters in BadgerDB. Badger's
// serializable transactions give the per-key atomicity the ScoreLedger
// contract requires; write conflicts are retried until the increment lands.
type Ledger struct {
	db     *badger.DB
	logger *slog.Logger
}

func NewLedger(db *badger.DB, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{db: db, logger: logger}
}

func (l *Ledger) Increment(ctx context.Context, pollID string, optionID string, delta int64) (int64, error) {
	key := scoreKey(pollID, optionID)
	var next int64
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		err := l.db.Update(func(txn *badger.Txn) error {
			current, err := readScore(txn, key)
			if err != nil {
				return err
			}
			next = current + delta
			return txn.Set(key, encodeScore(next))
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			l.logger.Error("ledger increment failed",
				"event", "ledger_increment_failed",
				"module", "live-polls/vote-engine",
				"layer", "adapter",
				"poll_id", pollID,
				"option_id", optionID,
				"error", err.Error(),
			)
			return 0, fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
		}
		return next, nil
	}
}

func (l *Ledger) Snapshot(ctx context.Context, pollID string) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(scorePrefix + strings.TrimSpace(pollID) + "/")
	snapshot := make(map[string]int64)
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			optionID := strings.TrimPrefix(string(item.Key()), string(prefix))
			if err := item.Value(func(val []byte) error {
				snapshot[optionID] = decodeScore(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.logger.Error("ledger snapshot failed",
			"event", "ledger_snapshot_failed",
			"module", "live-polls/vote-engine",
			"layer", "adapter",
			"poll_id", pollID,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
	}
	return snapshot, nil
}

func scoreKey(pollID, optionID string) []byte {
	return []byte(scorePrefix + strings.TrimSpace(pollID) + "/" + strings.TrimSpace(optionID))
}

func readScore(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var score int64
	err = item.Value(func(val []byte) error {
		score = decodeScore(val)
		return nil
	})
	return score, err
}

func encodeScore(score int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(score))
	return buf
}

func decodeScore(val []byte) int64 {
	if len(val) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(val))
}
