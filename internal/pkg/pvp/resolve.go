package pvp

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/vreid/rps/internal/pkg/chain"
	"github.com/vreid/rps/internal/pkg/game"
)

// Resolve reads a finished match from me's side. The contract reports no
// payout, so it is derived from the on-chain stake: the pot on a win, the
// stake back on a draw.
func Resolve(state *chain.MatchState, me common.Address, role Role) (*Resolution, error) {
	move1, err := game.MoveFromUint8(state.Move1)
	if err != nil {
		return nil, fmt.Errorf("failed to read player 1 move: %w", err)
	}

	move2, err := game.MoveFromUint8(state.Move2)
	if err != nil {
		return nil, fmt.Errorf("failed to read player 2 move: %w", err)
	}

	stake := chain.FromWei(state.Stake)

	resolution := &Resolution{
		GameID:       state.GameID.String(),
		Role:         role,
		Move1:        move1,
		Move2:        move2,
		OpponentMove: move2,
		Winner:       state.Winner.Hex(),
	}

	if role == RoleJoiner {
		resolution.OpponentMove = move1
	}

	switch {
	case state.Draw():
		resolution.Outcome = game.OutcomeDrawPvP
		resolution.Payout = stake
	case state.Winner == me:
		resolution.Outcome = game.OutcomeWon
		resolution.Payout = stake.Mul(decimal.NewFromInt(2))
	default:
		resolution.Outcome = game.OutcomeLost
		resolution.Payout = decimal.Zero
	}

	resolution.Message = game.MatchMessage(resolution.Outcome, move1, move2)

	return resolution, nil
}

func viewOf(state *chain.MatchState) *MatchView {
	return &MatchView{
		GameID:   state.GameID.String(),
		Player1:  state.Player1.Hex(),
		Player2:  state.Player2.Hex(),
		Stake:    chain.FromWei(state.Stake),
		Move1:    state.Move1,
		Move2:    state.Move2,
		Started:  state.Started,
		Finished: state.Finished,
		Winner:   state.Winner.Hex(),
	}
}
