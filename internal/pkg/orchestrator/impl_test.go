package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/rps/internal/pkg/chain"
	"github.com/vreid/rps/internal/pkg/chain/chaintest"
	"github.com/vreid/rps/internal/pkg/orchestrator"
)

var errRPC = errors.New("connection refused")

func newOrchestrator() *orchestrator.Orchestrator {
	return &orchestrator.Orchestrator{Logger: slog.New(slog.DiscardHandler)}
}

func playCall(stake string) orchestrator.Call {
	return orchestrator.Call{
		Method:  "play",
		Args:    []any{uint8(1)},
		Payable: true,
		Stake:   decimal.RequireFromString(stake),
		Expect:  []string{chain.EventGameResult},
	}
}

func TestSubmitRejectsInvalidStakeLocally(t *testing.T) {
	t.Parallel()

	house := chaintest.NewHouse()

	for _, stake := range []string{"0", "-0.1", "0.0000000000000000001"} {
		result, err := newOrchestrator().Submit(context.Background(), house, playCall(stake))
		require.ErrorIs(t, err, orchestrator.ErrInvalidStake, stake)
		assert.Nil(t, result)
	}

	assert.Empty(t, house.Submissions())
}

func TestSubmitConfirmed(t *testing.T) {
	t.Parallel()

	house := chaintest.NewHouse()
	house.BalanceWei = big.NewInt(5_000_000_000_000_000)
	house.Logs = []*types.Log{
		chaintest.GameResultLog(chaintest.HouseAddress, chaintest.PlayerA, 1, 3, "Win", big.NewInt(200_000_000_000_000)),
	}

	result, err := newOrchestrator().Submit(context.Background(), house, playCall("0.0001"))
	require.NoError(t, err)

	assert.Equal(t, orchestrator.StatusConfirmed, result.Status)
	assert.NotEqual(t, common.Hash{}, result.TxHash)
	require.NotNil(t, result.Balance)
	assert.True(t, decimal.RequireFromString("0.005").Equal(*result.Balance))

	event, ok := chain.First[*chain.GameResult](result.Events)
	require.True(t, ok)
	assert.Equal(t, "Win", event.Result)

	submissions := house.Submissions()
	require.Len(t, submissions, 1)
	assert.Equal(t, "play", submissions[0].Method)
	assert.Equal(t, "100000000000000", submissions[0].Value.String())
}

func TestSubmitNonPayableSendsNoValue(t *testing.T) {
	t.Parallel()

	house := chaintest.NewHouse()

	result, err := newOrchestrator().Submit(context.Background(), house, orchestrator.Call{Method: "withdraw"})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusConfirmed, result.Status)

	submissions := house.Submissions()
	require.Len(t, submissions, 1)
	assert.Nil(t, submissions[0].Value)
}

func TestSubmitClassifiesFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		setup     func(c *chaintest.Contract)
		status    orchestrator.Status
		err       error
		http      int
		submitted bool
	}{
		{
			name:   "declined",
			setup:  func(c *chaintest.Contract) { c.SubmitErr = fmt.Errorf("failed to submit play: %w", chain.ErrRejected) },
			status: orchestrator.StatusRejected,
			err:    orchestrator.ErrRejected,
			http:   http.StatusForbidden,
		},
		{
			name:   "rpc down",
			setup:  func(c *chaintest.Contract) { c.SubmitErr = errRPC },
			status: orchestrator.StatusFailed,
			err:    orchestrator.ErrSubmissionFailed,
			http:   http.StatusBadGateway,
		},
		{
			name:      "receipt lost",
			setup:     func(c *chaintest.Contract) { c.WaitErr = errRPC },
			status:    orchestrator.StatusReceiptUnavailable,
			err:       orchestrator.ErrReceiptUnavailable,
			http:      http.StatusGatewayTimeout,
			submitted: true,
		},
		{
			name:      "reverted",
			setup:     func(c *chaintest.Contract) { c.Reverted = true },
			status:    orchestrator.StatusReverted,
			err:       orchestrator.ErrReverted,
			http:      http.StatusUnprocessableEntity,
			submitted: true,
		},
		{
			name: "event missing",
			setup: func(c *chaintest.Contract) {
				c.Logs = []*types.Log{
					chaintest.GameResultLog(chaintest.OtherAddress, chaintest.PlayerA, 1, 2, "Lose", big.NewInt(0)),
				}
			},
			status:    orchestrator.StatusUnparsable,
			err:       orchestrator.ErrUnparsable,
			http:      http.StatusBadGateway,
			submitted: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			house := chaintest.NewHouse()
			tc.setup(house)

			result, err := newOrchestrator().Submit(context.Background(), house, playCall("0.0001"))
			require.ErrorIs(t, err, tc.err)
			require.NotNil(t, result)

			assert.Equal(t, tc.status, result.Status)
			assert.Equal(t, tc.submitted, result.Status.Submitted())
			assert.Equal(t, tc.http, orchestrator.HTTPStatus(err))
			require.ErrorIs(t, result.Err, tc.err)

			if tc.submitted {
				assert.NotEqual(t, common.Hash{}, result.TxHash)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusOK, orchestrator.HTTPStatus(nil))
	assert.Equal(t, http.StatusConflict, orchestrator.HTTPStatus(chain.ErrBusy))
	assert.Equal(t, http.StatusServiceUnavailable, orchestrator.HTTPStatus(chain.ErrNotConnected))
	assert.Equal(t, http.StatusBadRequest, orchestrator.HTTPStatus(orchestrator.ErrInvalidStake))
	assert.Equal(t, http.StatusInternalServerError, orchestrator.HTTPStatus(errRPC))
}
