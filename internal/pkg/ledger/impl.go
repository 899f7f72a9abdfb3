package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"
	"github.com/vreid/rps/internal/pkg/common"
	"go.etcd.io/bbolt"
)

var (
	ErrHistoryBucketNotFound = errors.New("history bucket doesn't exist")
	ErrMissingID             = errors.New("entry has no id")
)

// LedgerService keeps the local, best-effort history of finished games.
// It is never consulted as a source of truth for on-chain state.
type LedgerService struct {
	DatabaseService *common.DatabaseService
	Logger          *slog.Logger
}

func NewLedgerService(i do.Injector) (*LedgerService, error) {
	databaseService := do.MustInvoke[*common.DatabaseService](i)
	logger := do.MustInvoke[*slog.Logger](i)

	return &LedgerService{
		DatabaseService: databaseService,
		Logger:          logger,
	}, nil
}

// Append inserts entry at the front of the account's history. It reports
// false without writing when an entry with the same id is already present.
func (s *LedgerService) Append(mode Mode, account string, entry Entry) (bool, error) {
	if entry.ID == "" {
		return false, ErrMissingID
	}

	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}

	key := []byte(Key(mode, account))
	inserted := false

	err := s.DatabaseService.DB.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(common.LedgerHistoryBucket))
		if bucket == nil {
			return ErrHistoryBucketNotFound
		}

		history, err := decode(bucket.Get(key))
		if err != nil {
			return err
		}

		for _, existing := range history {
			if existing.ID == entry.ID {
				return nil
			}
		}

		history = append([]Entry{entry}, history...)
		if len(history) > MaxEntries {
			history = history[:MaxEntries]
		}

		data, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}

		err = bucket.Put(key, data)
		if err != nil {
			return fmt.Errorf("failed to put history: %w", err)
		}

		inserted = true

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to append %s: %w", key, err)
	}

	return inserted, nil
}

// List returns the account's history newest first. Absence and storage
// errors both yield an empty list.
func (s *LedgerService) List(mode Mode, account string) []Entry {
	key := []byte(Key(mode, account))
	history := []Entry{}

	err := s.DatabaseService.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(common.LedgerHistoryBucket))
		if bucket == nil {
			return ErrHistoryBucketNotFound
		}

		decoded, err := decode(bucket.Get(key))
		if err != nil {
			return err
		}

		history = decoded

		return nil
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("failed to read history", "key", string(key), "error", err)
		}

		return []Entry{}
	}

	return history
}

func decode(data []byte) ([]Entry, error) {
	history := []Entry{}
	if len(data) == 0 {
		return history, nil
	}

	err := json.Unmarshal(data, &history)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	return history, nil
}
