package poller

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/do/v2"
	"github.com/vreid/rps/internal/pkg/chain"
)

const DefaultInterval = 3 * time.Second

var pollQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rps_match_poll_queries_total",
	Help: "Match state queries issued while waiting for an opponent",
}, []string{"result"})

type MatchReader interface {
	Match(ctx context.Context, gameID *big.Int) (*chain.MatchState, error)
}

type Poller struct {
	Interval time.Duration
	Logger   *slog.Logger
}

func NewPoller(i do.Injector) (*Poller, error) {
	interval := do.MustInvokeNamed[time.Duration](i, "poll-interval")
	logger := do.MustInvoke[*slog.Logger](i)

	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Poller{
		Interval: interval,
		Logger:   logger,
	}, nil
}

// Handle controls one running poll loop.
type Handle struct {
	GameID *big.Int

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop ends the loop. It does not wait and is safe to call more than once,
// including from the resolution callback.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start queries the match right away and then once per interval until it is
// finished, ctx is done or the handle is stopped. onResolved runs at most
// once, on the poll goroutine.
func (p *Poller) Start(ctx context.Context, reader MatchReader, gameID *big.Int, onResolved func(*chain.MatchState)) *Handle {
	ctx, cancel := context.WithCancel(ctx)

	handle := &Handle{
		GameID: new(big.Int).Set(gameID),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(handle.done)
		defer handle.Stop()

		p.run(ctx, reader, handle.GameID, onResolved)
	}()

	return handle
}

func (p *Poller) run(ctx context.Context, reader MatchReader, gameID *big.Int, onResolved func(*chain.MatchState)) {
	logger := p.Logger.With("game_id", gameID.String())
	logger.Info("waiting for opponent")

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		// The loop owns the only query in flight, so ticks never overlap.
		state, err := reader.Match(ctx, gameID)

		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			pollQueriesTotal.WithLabelValues("error").Inc()
			logger.Warn("failed to query match", "error", err)
		case state.Finished:
			pollQueriesTotal.WithLabelValues("finished").Inc()
			logger.Info("match finished", "winner", state.Winner.Hex())
			onResolved(state)

			return
		default:
			pollQueriesTotal.WithLabelValues("pending").Inc()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
