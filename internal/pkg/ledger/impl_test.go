package ledger_test

import (
	"log/slog"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/rps/internal/pkg/common"
	"github.com/vreid/rps/internal/pkg/game"
	"github.com/vreid/rps/internal/pkg/ledger"
	"go.etcd.io/bbolt"
)

const (
	accountA = "0xAbC0000000000000000000000000000000000001"
	accountB = "0xabc0000000000000000000000000000000000002"
)

func newLedger(t *testing.T) *ledger.LedgerService {
	t.Helper()

	databaseService, err := common.OpenDatabaseService(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = databaseService.Shutdown()
	})

	return &ledger.LedgerService{
		DatabaseService: databaseService,
		Logger:          slog.New(slog.DiscardHandler),
	}
}

func entry(id string) ledger.Entry {
	return ledger.Entry{
		ID:     id,
		Result: game.OutcomeWon,
		Vs:     game.MoveRock,
		Payout: decimal.RequireFromString("0.0002"),
	}
}

func TestListEmpty(t *testing.T) {
	t.Parallel()

	s := newLedger(t)

	history := s.List(ledger.ModeHouse, accountA)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestAppendIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newLedger(t)

	inserted, err := s.Append(ledger.ModePvP, accountA, entry("7"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Append(ledger.ModePvP, accountA, entry("7"))
	require.NoError(t, err)
	assert.False(t, inserted)

	history := s.List(ledger.ModePvP, accountA)
	require.Len(t, history, 1)
	assert.Equal(t, "7", history[0].ID)
	assert.NotZero(t, history[0].Timestamp)
	assert.True(t, decimal.RequireFromString("0.0002").Equal(history[0].Payout))
	assert.Equal(t, game.MoveRock, history[0].Vs)
}

func TestAppendKeepsNewestTwenty(t *testing.T) {
	t.Parallel()

	s := newLedger(t)

	for n := range 25 {
		_, err := s.Append(ledger.ModeHouse, accountA, entry(strconv.Itoa(n)))
		require.NoError(t, err)
	}

	history := s.List(ledger.ModeHouse, accountA)
	require.Len(t, history, ledger.MaxEntries)

	for idx, e := range history {
		assert.Equal(t, strconv.Itoa(24-idx), e.ID)
	}
}

func TestAccountsAndModesAreIsolated(t *testing.T) {
	t.Parallel()

	s := newLedger(t)

	_, err := s.Append(ledger.ModeHouse, accountA, entry("0xaa"))
	require.NoError(t, err)

	_, err = s.Append(ledger.ModePvP, accountB, entry("1"))
	require.NoError(t, err)

	assert.Empty(t, s.List(ledger.ModeHouse, accountB))
	assert.Empty(t, s.List(ledger.ModePvP, accountA))

	require.Len(t, s.List(ledger.ModeHouse, accountA), 1)
	require.Len(t, s.List(ledger.ModePvP, accountB), 1)
}

func TestAccountKeyIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	s := newLedger(t)

	_, err := s.Append(ledger.ModeHouse, accountA, entry("0x01"))
	require.NoError(t, err)

	history := s.List(ledger.ModeHouse, "0xabc0000000000000000000000000000000000001")
	require.Len(t, history, 1)

	assert.Equal(t, "rps_history_0xabc0000000000000000000000000000000000001", ledger.Key(ledger.ModeHouse, accountA))
	assert.Equal(t, "rps_multiplayer_history_0xabc0000000000000000000000000000000000001", ledger.Key(ledger.ModePvP, accountA))
}

func TestAppendRequiresID(t *testing.T) {
	t.Parallel()

	s := newLedger(t)

	_, err := s.Append(ledger.ModeHouse, accountA, ledger.Entry{})
	require.ErrorIs(t, err, ledger.ErrMissingID)
}

func TestListSurvivesCorruptHistory(t *testing.T) {
	t.Parallel()

	s := newLedger(t)

	err := s.DatabaseService.DB.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(common.LedgerHistoryBucket)).
			Put([]byte(ledger.Key(ledger.ModeHouse, accountA)), []byte("{not json"))
	})
	require.NoError(t, err)

	assert.Empty(t, s.List(ledger.ModeHouse, accountA))
}
