package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"
	"github.com/vreid/rps/internal/pkg/account"
	"github.com/vreid/rps/internal/pkg/client"
	"github.com/vreid/rps/internal/pkg/game"
	"github.com/vreid/rps/internal/pkg/house"
	"github.com/vreid/rps/internal/pkg/ledger"
	"github.com/vreid/rps/internal/pkg/pvp"
)

var ErrMissingArgument = errors.New("missing argument")

func newClient(cmd *cli.Command) *client.Client {
	return client.New(cmd.String("server"))
}

func argument(cmd *cli.Command, idx int, name string) (string, error) {
	value := cmd.Args().Get(idx)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}

	return value, nil
}

func moveArgument(cmd *cli.Command, idx int) (game.Move, error) {
	value, err := argument(cmd, idx, "move")
	if err != nil {
		return 0, err
	}

	//nolint:wrapcheck
	return game.ParseMove(value)
}

// failed renders err and hands it back so the exit status reflects it.
func failed(err error) error {
	client.RenderError(err)

	return err
}

func runSession(ctx context.Context, cmd *cli.Command) error {
	c := newClient(cmd)

	var (
		view *account.SessionView
		err  error
	)

	if address := cmd.Args().First(); address != "" {
		view, err = c.SwitchAccount(ctx, address)
	} else {
		view, err = c.Session(ctx)
	}

	if err != nil {
		return failed(err)
	}

	client.RenderSession(view)

	return nil
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	move, err := moveArgument(cmd, 0)
	if err != nil {
		return err
	}

	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Waiting for the house...")

	result, err := newClient(cmd).Play(ctx, house.PlayRequest{Move: move, Stake: cmd.String("stake")})

	_ = spinner.Stop()

	if err != nil {
		return failed(err)
	}

	client.RenderPlay(result)

	return nil
}

func runDeposit(ctx context.Context, cmd *cli.Command) error {
	amount, err := argument(cmd, 0, "amount")
	if err != nil {
		return err
	}

	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Processing deposit...")

	result, err := newClient(cmd).Deposit(ctx, amount)

	_ = spinner.Stop()

	if err != nil {
		return failed(err)
	}

	client.RenderAction(result)

	return nil
}

func runWithdraw(ctx context.Context, cmd *cli.Command) error {
	result, err := newClient(cmd).Withdraw(ctx)
	if err != nil {
		return failed(err)
	}

	client.RenderAction(result)

	return nil
}

func runBalance(ctx context.Context, cmd *cli.Command) error {
	balance, err := newClient(cmd).Balance(ctx)
	if err != nil {
		return failed(err)
	}

	pterm.Info.Printfln("House balance: %s ETH", balance.Display)

	return nil
}

func runScore(ctx context.Context, cmd *cli.Command) error {
	score, err := newClient(cmd).Score(ctx)
	if err != nil {
		return failed(err)
	}

	client.RenderScore(score)

	return nil
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	mode := ledger.ModeHouse
	if cmd.Bool("pvp") {
		mode = ledger.ModePvP
	}

	entries, err := newClient(cmd).History(ctx, mode, cmd.String("account"))
	if err != nil {
		return failed(err)
	}

	return client.RenderHistory(entries)
}

func waitForResolution(ctx context.Context, cmd *cli.Command, c *client.Client, gameID string) error {
	spinner, _ := pterm.DefaultSpinner.
		WithRemoveWhenDone(true).
		Start(fmt.Sprintf("Waiting for the result of game %s...", gameID))

	resolution, err := c.WaitForResolution(ctx, gameID, cmd.Duration("wait-interval"))

	_ = spinner.Stop()

	if err != nil {
		return failed(err)
	}

	client.RenderResolution(resolution)

	return nil
}

func runCreate(ctx context.Context, cmd *cli.Command) error {
	move, err := moveArgument(cmd, 0)
	if err != nil {
		return err
	}

	c := newClient(cmd)

	result, err := c.CreateGame(ctx, pvp.MoveRequest{Move: move, Stake: cmd.String("stake")})
	if err != nil {
		return failed(err)
	}

	pterm.Success.Println(result.Message)

	if cmd.Bool("no-wait") {
		return nil
	}

	return waitForResolution(ctx, cmd, c, result.GameID)
}

func runJoin(ctx context.Context, cmd *cli.Command) error {
	gameID, err := argument(cmd, 0, "game-id")
	if err != nil {
		return err
	}

	move, err := moveArgument(cmd, 1)
	if err != nil {
		return err
	}

	c := newClient(cmd)

	result, err := c.JoinGame(ctx, gameID, pvp.MoveRequest{Move: move, Stake: cmd.String("stake")})
	if err != nil {
		return failed(err)
	}

	if result.Resolution != nil {
		client.RenderResolution(result.Resolution)

		return nil
	}

	pterm.Info.Println(result.Message)

	return waitForResolution(ctx, cmd, c, result.GameID)
}

func runGame(ctx context.Context, cmd *cli.Command) error {
	gameID, err := argument(cmd, 0, "game-id")
	if err != nil {
		return err
	}

	view, err := newClient(cmd).Game(ctx, gameID)
	if err != nil {
		return failed(err)
	}

	return client.RenderMatch(view)
}
