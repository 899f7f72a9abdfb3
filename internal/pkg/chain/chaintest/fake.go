// Package chaintest provides in-memory contract fakes and log builders for tests.
package chaintest

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vreid/rps/internal/pkg/chain"
)

var ErrNoMatchScript = errors.New("no scripted match state")

var (
	HouseAddress = common.HexToAddress("0x105d08A3639A2D48C31D9a218b3202A749bD46e4")
	ArenaAddress = common.HexToAddress("0xB2E837bF680b33EF3d9BB68732F57590bee0981a")
	OtherAddress = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	PlayerA      = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	PlayerB      = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
)

type Submission struct {
	Method string
	Value  *big.Int
	Args   []any
}

type MatchStep struct {
	State *chain.MatchState
	Err   error
}

// Contract is a scripted chain.House and chain.Arena.
type Contract struct {
	Addr common.Address
	ABI  abi.ABI

	SubmitErr  error
	WaitErr    error
	Reverted   bool
	Logs       []*types.Log
	BalanceWei *big.Int
	BalanceErr error
	OwnerAddr  common.Address

	// Matches are served in order; the last one repeats.
	Matches []MatchStep

	mu          sync.Mutex
	submissions []Submission
	matchCalls  int
	nonce       uint64
}

func NewHouse() *Contract {
	return &Contract{Addr: HouseAddress, ABI: chain.HouseABI, BalanceWei: big.NewInt(0)}
}

func NewArena() *Contract {
	return &Contract{Addr: ArenaAddress, ABI: chain.ArenaABI, BalanceWei: big.NewInt(0)}
}

func (c *Contract) Address() common.Address {
	return c.Addr
}

func (c *Contract) Decoder() *chain.EventDecoder {
	return chain.NewEventDecoder(c.Addr, c.ABI)
}

func (c *Contract) Submit(_ context.Context, method string, value *big.Int, args ...any) (*types.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SubmitErr != nil {
		return nil, c.SubmitErr
	}

	c.submissions = append(c.submissions, Submission{Method: method, Value: value, Args: args})
	c.nonce++

	to := c.Addr

	return types.NewTx(&types.LegacyTx{Nonce: c.nonce, To: &to, Value: value}), nil
}

func (c *Contract) Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if c.WaitErr != nil {
		return nil, c.WaitErr
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := types.ReceiptStatusSuccessful
	if c.Reverted {
		status = types.ReceiptStatusFailed
	}

	logs := make([]*types.Log, 0, len(c.Logs))
	for idx, log := range c.Logs {
		copied := *log
		copied.TxHash = tx.Hash()
		copied.Index = uint(idx)
		logs = append(logs, &copied)
	}

	return &types.Receipt{
		Status: status,
		TxHash: tx.Hash(),
		Logs:   logs,
	}, nil
}

func (c *Contract) Balance(context.Context) (*big.Int, error) {
	if c.BalanceErr != nil {
		return nil, c.BalanceErr
	}

	return c.BalanceWei, nil
}

func (c *Contract) Owner(context.Context) (common.Address, error) {
	return c.OwnerAddr, nil
}

func (c *Contract) Match(ctx context.Context, gameID *big.Int) (*chain.MatchState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.Matches) == 0 {
		return nil, ErrNoMatchScript
	}

	idx := c.matchCalls
	if idx >= len(c.Matches) {
		idx = len(c.Matches) - 1
	}

	c.matchCalls++

	step := c.Matches[idx]
	if step.Err != nil {
		return nil, step.Err
	}

	state := *step.State
	state.GameID = new(big.Int).Set(gameID)

	return &state, ctx.Err()
}

func (c *Contract) Submissions() []Submission {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Submission{}, c.submissions...)
}

func (c *Contract) MatchCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.matchCalls
}

// Log packs an event of contractABI as emitted by address.
func Log(address common.Address, contractABI abi.ABI, name string, args ...any) *types.Log {
	event := contractABI.Events[name]

	data, err := event.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		panic(err)
	}

	return &types.Log{
		Address: address,
		Topics:  []common.Hash{event.ID},
		Data:    data,
	}
}

func GameResultLog(address, player common.Address, playerMove, computerMove uint8, result string, payout *big.Int) *types.Log {
	return Log(address, chain.HouseABI, chain.EventGameResult, player, playerMove, computerMove, result, payout)
}

func GameCreatedLog(address common.Address, gameID int64, player common.Address, bet *big.Int) *types.Log {
	return Log(address, chain.ArenaABI, chain.EventGameCreated, big.NewInt(gameID), player, bet)
}

func PlayerJoinedLog(address common.Address, gameID int64, player common.Address) *types.Log {
	return Log(address, chain.ArenaABI, chain.EventPlayerJoined, big.NewInt(gameID), player)
}

func GameFinishedLog(address common.Address, gameID int64, winner common.Address, move1, move2 uint8) *types.Log {
	return Log(address, chain.ArenaABI, chain.EventGameFinished, big.NewInt(gameID), winner, move1, move2)
}

func NewSession(account common.Address, house, arena *Contract) *chain.Session {
	return chain.NewSession(account, big.NewInt(1337), house, arena, nil)
}
