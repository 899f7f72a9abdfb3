package chain_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/rps/internal/pkg/chain"
	"github.com/vreid/rps/internal/pkg/chain/chaintest"
)

func TestDecodeGameResult(t *testing.T) {
	t.Parallel()

	decoder := chain.NewEventDecoder(chaintest.HouseAddress, chain.HouseABI)

	log := chaintest.GameResultLog(chaintest.HouseAddress, chaintest.PlayerA, 1, 2, "Lose", big.NewInt(0))

	event, err := decoder.Decode(*log)
	require.NoError(t, err)

	result, ok := event.(*chain.GameResult)
	require.True(t, ok)
	assert.Equal(t, chaintest.PlayerA, result.Player)
	assert.Equal(t, uint8(1), result.PlayerMove)
	assert.Equal(t, uint8(2), result.ComputerMove)
	assert.Equal(t, "Lose", result.Result)
	assert.Equal(t, 0, result.Payout.Sign())
}

func TestDecodeArenaEvents(t *testing.T) {
	t.Parallel()

	decoder := chain.NewEventDecoder(chaintest.ArenaAddress, chain.ArenaABI)
	bet := big.NewInt(1_000_000_000_000_000)

	receipt := &types.Receipt{Logs: []*types.Log{
		chaintest.GameCreatedLog(chaintest.ArenaAddress, 42, chaintest.PlayerA, bet),
		chaintest.PlayerJoinedLog(chaintest.ArenaAddress, 42, chaintest.PlayerB),
		chaintest.GameFinishedLog(chaintest.ArenaAddress, 42, chaintest.PlayerB, 1, 2),
	}}

	events := decoder.DecodeReceipt(receipt)
	require.Len(t, events, 3)

	created, ok := chain.First[*chain.GameCreated](events)
	require.True(t, ok)
	assert.Equal(t, int64(42), created.GameID.Int64())
	assert.Equal(t, chaintest.PlayerA, created.Player1)
	assert.Equal(t, 0, bet.Cmp(created.Bet))

	joined, ok := chain.First[*chain.PlayerJoined](events)
	require.True(t, ok)
	assert.Equal(t, chaintest.PlayerB, joined.Player2)

	finished, ok := chain.First[*chain.GameFinished](events)
	require.True(t, ok)
	assert.Equal(t, chaintest.PlayerB, finished.Winner)
	assert.Equal(t, uint8(1), finished.P1Move)
	assert.Equal(t, uint8(2), finished.P2Move)
}

func TestDecodeSkipsForeignLogs(t *testing.T) {
	t.Parallel()

	decoder := chain.NewEventDecoder(chaintest.HouseAddress, chain.HouseABI)

	// Same shape, different emitter.
	foreign := chaintest.GameResultLog(chaintest.OtherAddress, chaintest.PlayerA, 1, 3, "Win", big.NewInt(200))

	_, err := decoder.Decode(*foreign)
	require.ErrorIs(t, err, chain.ErrForeignLog)

	events := decoder.DecodeReceipt(&types.Receipt{Logs: []*types.Log{
		foreign,
		chaintest.GameResultLog(chaintest.HouseAddress, chaintest.PlayerA, 1, 2, "Lose", big.NewInt(0)),
	}})
	require.Len(t, events, 1)

	result, ok := chain.First[*chain.GameResult](events)
	require.True(t, ok)
	assert.Equal(t, "Lose", result.Result)
}

func TestDecodeFailsClosed(t *testing.T) {
	t.Parallel()

	decoder := chain.NewEventDecoder(chaintest.HouseAddress, chain.HouseABI)

	_, err := decoder.Decode(types.Log{Address: chaintest.HouseAddress})
	require.ErrorIs(t, err, chain.ErrUnknownEvent)

	_, err = decoder.Decode(types.Log{
		Address: chaintest.HouseAddress,
		Topics:  []common.Hash{common.HexToHash("0x01")},
	})
	require.ErrorIs(t, err, chain.ErrUnknownEvent)

	truncated := chaintest.GameResultLog(chaintest.HouseAddress, chaintest.PlayerA, 1, 2, "Lose", big.NewInt(0))
	truncated.Data = truncated.Data[:40]

	_, err = decoder.Decode(*truncated)
	require.ErrorIs(t, err, chain.ErrMalformedEvent)

	events := decoder.DecodeReceipt(&types.Receipt{Logs: []*types.Log{truncated}})
	require.Len(t, events, 1)

	unparsable, ok := chain.First[*chain.Unparsable](events)
	require.True(t, ok)
	require.ErrorIs(t, unparsable.Err, chain.ErrMalformedEvent)

	_, ok = chain.First[*chain.GameResult](events)
	assert.False(t, ok)
}

func TestDecodeReceiptNil(t *testing.T) {
	t.Parallel()

	decoder := chain.NewEventDecoder(chaintest.HouseAddress, chain.HouseABI)
	assert.Empty(t, decoder.DecodeReceipt(nil))
}
