package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrRejected         = errors.New("signature request declined")
	ErrUnexpectedOutput = errors.New("unexpected call output")
)

// Backend is the part of an RPC client the contracts need. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Contract is a contract handle bound to the session's signer.
type Contract interface {
	Address() common.Address
	Decoder() *EventDecoder

	// Submit signs and sends a call; value is attached when non-nil.
	Submit(ctx context.Context, method string, value *big.Int, args ...any) (*types.Transaction, error)
	Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	// Balance reads the contract's own native balance.
	Balance(ctx context.Context) (*big.Int, error)
}

type House interface {
	Contract

	Owner(ctx context.Context) (common.Address, error)
}

type Arena interface {
	Contract

	Match(ctx context.Context, gameID *big.Int) (*MatchState, error)
}

type MatchState struct {
	GameID   *big.Int
	Player1  common.Address
	Player2  common.Address
	Stake    *big.Int
	Move1    uint8
	Move2    uint8
	Started  bool
	Finished bool
	Winner   common.Address
}

func (m *MatchState) Draw() bool {
	return m.Winner == (common.Address{})
}

type rawMatch struct {
	Player1  common.Address `abi:"player1"`
	Player2  common.Address `abi:"player2"`
	Stake    *big.Int       `abi:"stake"`
	Move1    uint8          `abi:"move1"`
	Move2    uint8          `abi:"move2"`
	Started  bool           `abi:"started"`
	Finished bool           `abi:"finished"`
	Winner   common.Address `abi:"winner"`
}

type BoundContract struct {
	address  common.Address
	backend  Backend
	contract *bind.BoundContract
	opts     *bind.TransactOpts
	decoder  *EventDecoder
}

func NewBoundContract(backend Backend, address common.Address, contractABI abi.ABI, opts *bind.TransactOpts) *BoundContract {
	return &BoundContract{
		address:  address,
		backend:  backend,
		contract: bind.NewBoundContract(address, contractABI, backend, backend, backend),
		opts:     opts,
		decoder:  NewEventDecoder(address, contractABI),
	}
}

func (c *BoundContract) Address() common.Address {
	return c.address
}

func (c *BoundContract) Decoder() *EventDecoder {
	return c.decoder
}

func (c *BoundContract) Submit(ctx context.Context, method string, value *big.Int, args ...any) (*types.Transaction, error) {
	opts := *c.opts
	opts.Context = ctx
	opts.Value = value

	tx, err := c.contract.Transact(&opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s: %w", method, err)
	}

	return tx, nil
}

func (c *BoundContract) Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for %s: %w", tx.Hash().Hex(), err)
	}

	return receipt, nil
}

func (c *BoundContract) Balance(ctx context.Context) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, c.address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance of %s: %w", c.address.Hex(), err)
	}

	return balance, nil
}

func (c *BoundContract) Match(ctx context.Context, gameID *big.Int) (*MatchState, error) {
	var raw rawMatch

	out := []any{&raw}

	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "games", gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query game %s: %w", gameID, err)
	}

	return &MatchState{
		GameID:   new(big.Int).Set(gameID),
		Player1:  raw.Player1,
		Player2:  raw.Player2,
		Stake:    raw.Stake,
		Move1:    raw.Move1,
		Move2:    raw.Move2,
		Started:  raw.Started,
		Finished: raw.Finished,
		Winner:   raw.Winner,
	}, nil
}

func (c *BoundContract) Owner(ctx context.Context) (common.Address, error) {
	var out []any

	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "owner")
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to query owner: %w", err)
	}

	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("%w: owner returned %d values", ErrUnexpectedOutput, len(out))
	}

	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: owner is %T", ErrUnexpectedOutput, out[0])
	}

	return owner, nil
}
