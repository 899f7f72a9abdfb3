package poller_test

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/rps/internal/pkg/chain"
	"github.com/vreid/rps/internal/pkg/chain/chaintest"
	"github.com/vreid/rps/internal/pkg/poller"
)

const interval = 10 * time.Millisecond

func newPoller() *poller.Poller {
	return &poller.Poller{
		Interval: interval,
		Logger:   slog.New(slog.DiscardHandler),
	}
}

func pending() chaintest.MatchStep {
	return chaintest.MatchStep{State: &chain.MatchState{Started: true}}
}

func finished(winner common.Address) chaintest.MatchStep {
	return chaintest.MatchStep{State: &chain.MatchState{
		Player1:  chaintest.PlayerA,
		Player2:  chaintest.PlayerB,
		Stake:    big.NewInt(1000),
		Move1:    1,
		Move2:    3,
		Started:  true,
		Finished: true,
		Winner:   winner,
	}}
}

func waitDone(t *testing.T, handle *poller.Handle) {
	t.Helper()

	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollerStopsAfterThirdQuery(t *testing.T) {
	t.Parallel()

	arena := chaintest.NewArena()
	arena.Matches = []chaintest.MatchStep{pending(), pending(), finished(chaintest.PlayerA)}

	var resolved atomic.Pointer[chain.MatchState]

	calls := 0
	started := time.Now()

	handle := newPoller().Start(context.Background(), arena, big.NewInt(7), func(state *chain.MatchState) {
		calls++
		resolved.Store(state)
	})

	waitDone(t, handle)

	assert.GreaterOrEqual(t, time.Since(started), 2*interval)
	assert.Equal(t, 3, arena.MatchCalls())
	assert.Equal(t, 1, calls)

	state := resolved.Load()
	require.NotNil(t, state)
	assert.Equal(t, chaintest.PlayerA, state.Winner)
	assert.Equal(t, int64(7), state.GameID.Int64())

	time.Sleep(5 * interval)
	assert.Equal(t, 3, arena.MatchCalls())
}

func TestPollerSurvivesQueryErrors(t *testing.T) {
	t.Parallel()

	arena := chaintest.NewArena()
	arena.Matches = []chaintest.MatchStep{
		{Err: errors.New("rpc timeout")},
		pending(),
		{Err: errors.New("rpc timeout")},
		finished(common.Address{}),
	}

	var resolved atomic.Pointer[chain.MatchState]

	handle := newPoller().Start(context.Background(), arena, big.NewInt(1), func(state *chain.MatchState) {
		resolved.Store(state)
	})

	waitDone(t, handle)

	assert.Equal(t, 4, arena.MatchCalls())
	require.NotNil(t, resolved.Load())
	assert.True(t, resolved.Load().Draw())
}

func TestPollerStopHaltsQueries(t *testing.T) {
	t.Parallel()

	arena := chaintest.NewArena()
	arena.Matches = []chaintest.MatchStep{pending()}

	handle := newPoller().Start(context.Background(), arena, big.NewInt(3), func(*chain.MatchState) {
		t.Error("unexpected resolution")
	})

	require.Eventually(t, func() bool { return arena.MatchCalls() >= 2 }, time.Second, interval)

	handle.Stop()
	handle.Stop()
	waitDone(t, handle)

	calls := arena.MatchCalls()

	time.Sleep(5 * interval)
	assert.Equal(t, calls, arena.MatchCalls())
}

func TestPollerStopsWithContext(t *testing.T) {
	t.Parallel()

	arena := chaintest.NewArena()
	arena.Matches = []chaintest.MatchStep{pending()}

	ctx, cancel := context.WithCancel(context.Background())

	handle := newPoller().Start(ctx, arena, big.NewInt(3), func(*chain.MatchState) {
		t.Error("unexpected resolution")
	})

	cancel()
	waitDone(t, handle)
}
