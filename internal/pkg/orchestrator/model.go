package orchestrator

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/vreid/rps/internal/pkg/chain"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	// StatusRejected means the signer declined; nothing was sent.
	StatusRejected Status = "rejected"
	// StatusFailed means the call never made it into the mempool.
	StatusFailed Status = "failed"
	// StatusReceiptUnavailable means the call was sent but its inclusion could not be observed.
	StatusReceiptUnavailable Status = "receipt_unavailable"
	StatusReverted           Status = "reverted"
	// StatusUnparsable means the call was included but the expected event is missing.
	StatusUnparsable Status = "unparsable"
)

// Submitted reports whether funds may have moved.
func (s Status) Submitted() bool {
	switch s {
	case StatusConfirmed, StatusReceiptUnavailable, StatusReverted, StatusUnparsable:
		return true
	default:
		return false
	}
}

type Call struct {
	Method string
	Args   []any

	Payable bool
	Stake   decimal.Decimal

	// Expect lists event names of which at least one must be in the receipt.
	Expect []string
}

type Result struct {
	Status  Status
	TxHash  common.Hash
	Receipt *types.Receipt
	Events  []chain.Event

	// Balance is the contract balance after inclusion; nil when the refresh failed.
	Balance *decimal.Decimal

	Err error
}
