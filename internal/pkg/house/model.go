package house

import (
	"github.com/shopspring/decimal"
	"github.com/vreid/rps/internal/pkg/game"
	"github.com/vreid/rps/internal/pkg/orchestrator"
)

// BalancePlaces is how many decimals the contract balance is shown with.
const BalancePlaces = 4

type PlayRequest struct {
	Move  game.Move `json:"move"`
	Stake string    `json:"stake"`
}

type DepositRequest struct {
	Amount string `json:"amount"`
}

type PlayResult struct {
	Status       orchestrator.Status `json:"status"`
	TxHash       string              `json:"tx_hash,omitempty"`
	PlayerMove   game.Move           `json:"player_move"`
	ComputerMove game.Move           `json:"computer_move,omitempty"`
	Outcome      game.Outcome        `json:"outcome,omitempty"`
	Payout       decimal.Decimal     `json:"payout"`
	Balance      *decimal.Decimal    `json:"balance,omitempty"`
	Message      string              `json:"message,omitempty"`
}

type ActionResult struct {
	Status  orchestrator.Status `json:"status"`
	TxHash  string              `json:"tx_hash,omitempty"`
	Balance *decimal.Decimal    `json:"balance,omitempty"`
	Message string              `json:"message,omitempty"`
}

type Balance struct {
	Contract string          `json:"contract"`
	Balance  decimal.Decimal `json:"balance"`
	Display  string          `json:"display"`
}

// Score counts rounds won by each side since the session started.
type Score struct {
	User     int `json:"user"`
	Computer int `json:"computer"`
}
