package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/vreid/rps/internal/pkg/account"
	"github.com/vreid/rps/internal/pkg/game"
	"github.com/vreid/rps/internal/pkg/house"
	"github.com/vreid/rps/internal/pkg/ledger"
	"github.com/vreid/rps/internal/pkg/pvp"
)

const hashPrefix = 10

// ShortID keeps long transaction hashes readable in tables.
func ShortID(id string) string {
	if len(id) <= 2*hashPrefix {
		return id
	}

	return id[:hashPrefix] + "…" + id[len(id)-4:]
}

func HistoryTable(entries []ledger.Entry) pterm.TableData {
	data := pterm.TableData{{"When", "Result", "Vs", "Payout", "ID"}}

	for _, entry := range entries {
		data = append(data, []string{
			time.UnixMilli(entry.Timestamp).Format(time.DateTime),
			string(entry.Result),
			entry.Vs.String(),
			entry.Payout.String(),
			ShortID(entry.ID),
		})
	}

	return data
}

func RenderHistory(entries []ledger.Entry) error {
	if len(entries) == 0 {
		pterm.Info.Println("No games yet.")

		return nil
	}

	err := pterm.DefaultTable.WithHasHeader().WithData(HistoryTable(entries)).Render()
	if err != nil {
		return fmt.Errorf("failed to render history: %w", err)
	}

	return nil
}

func outcomePrinter(outcome game.Outcome) *pterm.PrefixPrinter {
	switch {
	case outcome.IsWin():
		return &pterm.Success
	case outcome.IsLoss():
		return &pterm.Error
	default:
		return &pterm.Info
	}
}

func RenderPlay(result *house.PlayResult) {
	outcomePrinter(result.Outcome).Println(result.Message)

	if !result.Payout.IsZero() {
		pterm.Info.Printfln("Payout: %s ETH", result.Payout)
	}

	pterm.Debug.Printfln("Transaction: %s", result.TxHash)

	if result.Balance != nil {
		pterm.Info.Printfln("House balance: %s ETH", result.Balance.StringFixed(house.BalancePlaces))
	}
}

func RenderAction(result *house.ActionResult) {
	pterm.Success.Println(result.Message)

	if result.Balance != nil {
		pterm.Info.Printfln("House balance: %s ETH", result.Balance.StringFixed(house.BalancePlaces))
	}
}

func RenderResolution(resolution *pvp.Resolution) {
	outcomePrinter(resolution.Outcome).Println(resolution.Message)

	if !resolution.Payout.IsZero() {
		pterm.Info.Printfln("Payout: %s ETH", resolution.Payout)
	}
}

func RenderMatch(view *pvp.MatchView) error {
	data := pterm.TableData{
		{"Game", view.GameID},
		{"Player 1", view.Player1},
		{"Player 2", view.Player2},
		{"Stake", view.Stake.String() + " ETH"},
		{"Started", fmt.Sprint(view.Started)},
		{"Finished", fmt.Sprint(view.Finished)},
	}

	if view.Finished {
		data = append(data,
			[]string{"Moves", fmt.Sprintf("%s vs %s", game.Move(view.Move1), game.Move(view.Move2))},
			[]string{"Winner", view.Winner},
		)
	}

	err := pterm.DefaultTable.WithData(data).Render()
	if err != nil {
		return fmt.Errorf("failed to render game: %w", err)
	}

	return nil
}

func RenderSession(view *account.SessionView) {
	pterm.Info.Printfln("Account:  %s", view.Account)
	pterm.Info.Printfln("Chain ID: %s", view.ChainID)
	pterm.Info.Printfln("House:    %s", view.House)
	pterm.Info.Printfln("Arena:    %s", view.Arena)

	if view.Busy {
		pterm.Warning.Println("An action is still in flight.")
	}
}

func RenderScore(score *house.Score) {
	pterm.Info.Printfln("You %d : %d Computer", score.User, score.Computer)
}

// RenderError explains a failed action. A failure after submission is called
// out since the transaction may still have moved funds.
func RenderError(err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		pterm.Error.Println(err.Error())

		return
	}

	pterm.Error.Println(apiErr.Message)

	if apiErr.Submitted() && apiErr.TxHash != "" {
		pterm.Warning.Printfln("Transaction %s was submitted; check it before retrying.", apiErr.TxHash)
	}
}
