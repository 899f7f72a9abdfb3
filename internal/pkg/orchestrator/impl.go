package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/do/v2"
	"github.com/vreid/rps/internal/pkg/chain"
)

var (
	ErrInvalidStake       = errors.New("stake must be a positive amount")
	ErrRejected           = errors.New("transaction rejected")
	ErrSubmissionFailed   = errors.New("transaction was not submitted")
	ErrReceiptUnavailable = errors.New("transaction submitted but receipt unavailable")
	ErrReverted           = errors.New("transaction reverted")
	ErrUnparsable         = errors.New("transaction completed but its result could not be parsed")
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rps_transactions_total",
		Help: "Submitted contract calls by method and outcome",
	}, []string{"method", "status"})

	contractBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rps_contract_balance_ether",
		Help: "Last observed native balance of a game contract",
	}, []string{"contract"})
)

type Orchestrator struct {
	Logger *slog.Logger
}

func NewOrchestrator(i do.Injector) (*Orchestrator, error) {
	logger := do.MustInvoke[*slog.Logger](i)

	return &Orchestrator{
		Logger: logger,
	}, nil
}

// Submit sends call to contract and waits for its receipt. Any status other
// than confirmed comes back with a non-nil error wrapping the matching
// sentinel; the result is nil only when the call was invalid and never sent.
//
//nolint:cyclop,funlen
func (o *Orchestrator) Submit(ctx context.Context, contract chain.Contract, call Call) (*Result, error) {
	var value *big.Int

	if call.Payable {
		value = chain.ToWei(call.Stake)
		if value.Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStake, call.Stake)
		}
	}

	logger := o.Logger.With("method", call.Method, "contract", contract.Address().Hex())

	tx, err := contract.Submit(ctx, call.Method, value, call.Args...)
	if err != nil {
		if errors.Is(err, chain.ErrRejected) {
			return o.finish(logger, call, &Result{Status: StatusRejected}, fmt.Errorf("%w: %w", ErrRejected, err))
		}

		return o.finish(logger, call, &Result{Status: StatusFailed}, fmt.Errorf("%w: %w", ErrSubmissionFailed, err))
	}

	result := &Result{TxHash: tx.Hash()}

	logger.Info("transaction submitted", "tx", tx.Hash().Hex())

	receipt, err := contract.Wait(ctx, tx)
	if err != nil {
		result.Status = StatusReceiptUnavailable

		return o.finish(logger, call, result, fmt.Errorf("%w: %w", ErrReceiptUnavailable, err))
	}

	result.Receipt = receipt
	o.refreshBalance(ctx, logger, contract, result)

	if receipt.Status != types.ReceiptStatusSuccessful {
		result.Status = StatusReverted

		return o.finish(logger, call, result, fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex()))
	}

	result.Events = contract.Decoder().DecodeReceipt(receipt)

	if len(call.Expect) > 0 && !containsAny(result.Events, call.Expect) {
		result.Status = StatusUnparsable

		return o.finish(logger, call, result, fmt.Errorf("%w: %s has none of %v", ErrUnparsable, tx.Hash().Hex(), call.Expect))
	}

	result.Status = StatusConfirmed

	return o.finish(logger, call, result, nil)
}

func (o *Orchestrator) finish(logger *slog.Logger, call Call, result *Result, err error) (*Result, error) {
	result.Err = err

	transactionsTotal.WithLabelValues(call.Method, string(result.Status)).Inc()

	if err != nil {
		logger.Warn("transaction did not complete",
			"status", result.Status,
			"submitted", result.Status.Submitted(),
			"error", err)

		return result, err
	}

	logger.Info("transaction confirmed", "tx", result.TxHash.Hex(), "events", len(result.Events))

	return result, nil
}

func (o *Orchestrator) refreshBalance(ctx context.Context, logger *slog.Logger, contract chain.Contract, result *Result) {
	wei, err := contract.Balance(ctx)
	if err != nil {
		logger.Warn("failed to refresh contract balance", "error", err)

		return
	}

	balance := chain.FromWei(wei)
	result.Balance = &balance

	contractBalance.WithLabelValues(contract.Address().Hex()).Set(balance.InexactFloat64())
}

func containsAny(events []chain.Event, names []string) bool {
	for _, event := range events {
		if slices.Contains(names, event.EventName()) {
			return true
		}
	}

	return false
}
