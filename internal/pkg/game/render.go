package game

import "fmt"

// HouseMessage renders a single player round from the player's point of view.
func HouseMessage(player, computer Move, outcome Outcome) string {
	switch {
	case outcome.IsWin():
		return fmt.Sprintf("%s beats %s. You win!", player, computer)
	case outcome.IsLoss():
		return fmt.Sprintf("%s loses to %s. You Lost.", player, computer)
	default:
		return fmt.Sprintf("%s equals %s. It's a draw.", player, computer)
	}
}

// MatchMessage renders a finished peer match.
func MatchMessage(outcome Outcome, move1, move2 Move) string {
	headline := "DRAW!"

	switch {
	case outcome.IsWin():
		headline = "YOU WON!"
	case outcome.IsLoss():
		headline = "YOU LOST!"
	}

	return fmt.Sprintf("%s\nP1 (%s) vs P2 (%s)", headline, move1, move2)
}
