package pvp

import (
	"github.com/shopspring/decimal"
	"github.com/vreid/rps/internal/pkg/game"
	"github.com/vreid/rps/internal/pkg/orchestrator"
)

type Role string

const (
	RoleCreator Role = "creator"
	RoleJoiner  Role = "joiner"
)

type MoveRequest struct {
	Move  game.Move `json:"move"`
	Stake string    `json:"stake"`
}

type PendingMatch struct {
	GameID string          `json:"game_id"`
	Role   Role            `json:"role"`
	MyMove game.Move       `json:"my_move"`
	Stake  decimal.Decimal `json:"stake"`
	TxHash string          `json:"tx_hash"`
}

type Resolution struct {
	GameID       string          `json:"game_id"`
	Role         Role            `json:"role"`
	Outcome      game.Outcome    `json:"outcome"`
	Move1        game.Move       `json:"move1"`
	Move2        game.Move       `json:"move2"`
	OpponentMove game.Move       `json:"opponent_move"`
	Winner       string          `json:"winner"`
	Payout       decimal.Decimal `json:"payout"`
	Message      string          `json:"message"`
}

type ActionResult struct {
	Status     orchestrator.Status `json:"status"`
	TxHash     string              `json:"tx_hash,omitempty"`
	GameID     string              `json:"game_id,omitempty"`
	Pending    *PendingMatch       `json:"pending,omitempty"`
	Resolution *Resolution         `json:"resolution,omitempty"`
	Balance    *decimal.Decimal    `json:"balance,omitempty"`
	Message    string              `json:"message,omitempty"`
}

type PendingStatus struct {
	Pending *PendingMatch `json:"pending"`
	Last    *Resolution   `json:"last"`
}

type MatchView struct {
	GameID   string          `json:"game_id"`
	Player1  string          `json:"player1"`
	Player2  string          `json:"player2"`
	Stake    decimal.Decimal `json:"stake"`
	Move1    uint8           `json:"move1"`
	Move2    uint8           `json:"move2"`
	Started  bool            `json:"started"`
	Finished bool            `json:"finished"`
	Winner   string          `json:"winner"`
}
