package chain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrForeignLog     = errors.New("log emitted by another contract")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrMalformedEvent = errors.New("malformed event")
)

const (
	EventGameResult   = "GameResult"
	EventGameCreated  = "GameCreated"
	EventPlayerJoined = "PlayerJoined"
	EventGameFinished = "GameFinished"
	EventUnparsable   = "Unparsable"
)

// Event is one decoded receipt log. The concrete type tells which one.
type Event interface {
	EventName() string
}

type GameResult struct {
	Player       common.Address `abi:"player"`
	PlayerMove   uint8          `abi:"playerMove"`
	ComputerMove uint8          `abi:"computerMove"`
	Result       string         `abi:"result"`
	Payout       *big.Int       `abi:"payout"`
}

func (*GameResult) EventName() string { return EventGameResult }

type GameCreated struct {
	GameID  *big.Int       `abi:"gameId"`
	Player1 common.Address `abi:"player1"`
	Bet     *big.Int       `abi:"bet"`
}

func (*GameCreated) EventName() string { return EventGameCreated }

type PlayerJoined struct {
	GameID  *big.Int       `abi:"gameId"`
	Player2 common.Address `abi:"player2"`
}

func (*PlayerJoined) EventName() string { return EventPlayerJoined }

type GameFinished struct {
	GameID *big.Int       `abi:"gameId"`
	Winner common.Address `abi:"winner"`
	P1Move uint8          `abi:"p1Move"`
	P2Move uint8          `abi:"p2Move"`
}

func (*GameFinished) EventName() string { return EventGameFinished }

// Unparsable stands in for a log of the bound contract that could not be decoded.
type Unparsable struct {
	Index uint
	Err   error
}

func (*Unparsable) EventName() string { return EventUnparsable }

type EventDecoder struct {
	address common.Address
	abi     abi.ABI
}

func NewEventDecoder(address common.Address, contractABI abi.ABI) *EventDecoder {
	return &EventDecoder{
		address: address,
		abi:     contractABI,
	}
}

func (d *EventDecoder) Decode(log types.Log) (Event, error) {
	if log.Address != d.address {
		return nil, ErrForeignLog
	}

	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("%w: log has no topics", ErrUnknownEvent)
	}

	abiEvent, err := d.abi.EventByID(log.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, log.Topics[0].Hex())
	}

	var event Event

	switch abiEvent.Name {
	case EventGameResult:
		event = &GameResult{}
	case EventGameCreated:
		event = &GameCreated{}
	case EventPlayerJoined:
		event = &PlayerJoined{}
	case EventGameFinished:
		event = &GameFinished{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, abiEvent.Name)
	}

	err = d.abi.UnpackIntoInterface(event, abiEvent.Name, log.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedEvent, abiEvent.Name, err)
	}

	return event, nil
}

// DecodeReceipt decodes every log of the bound contract in receipt order.
// Logs of other contracts are skipped; logs of this contract that fail to
// decode come back as *Unparsable.
func (d *EventDecoder) DecodeReceipt(receipt *types.Receipt) []Event {
	events := []Event{}
	if receipt == nil {
		return events
	}

	for _, log := range receipt.Logs {
		if log == nil {
			continue
		}

		event, err := d.Decode(*log)
		if errors.Is(err, ErrForeignLog) {
			continue
		}

		if err != nil {
			events = append(events, &Unparsable{Index: log.Index, Err: err})

			continue
		}

		events = append(events, event)
	}

	return events
}

func First[T Event](events []Event) (T, bool) {
	for _, event := range events {
		if typed, ok := event.(T); ok {
			return typed, true
		}
	}

	var zero T

	return zero, false
}
