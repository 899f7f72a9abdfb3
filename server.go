package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pterm/pterm"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"github.com/vreid/rps/internal/pkg/account"
	"github.com/vreid/rps/internal/pkg/chain"
	"github.com/vreid/rps/internal/pkg/common"
	"github.com/vreid/rps/internal/pkg/house"
	"github.com/vreid/rps/internal/pkg/ledger"
	"github.com/vreid/rps/internal/pkg/orchestrator"
	"github.com/vreid/rps/internal/pkg/poller"
	"github.com/vreid/rps/internal/pkg/pvp"
)

const shutdownTimeout = 10 * time.Second

var (
	ErrNoWallet       = errors.New("either --private-key or --keystore-dir is required")
	ErrInvalidAddress = errors.New("invalid contract address")
)

type RPSService struct {
	EchoService    *common.EchoService  `do:""`
	SessionService *chain.SessionService `do:""`

	AccountService *account.AccountService `do:""`
	HouseService   *house.HouseService     `do:""`
	PvPService     *pvp.PvPService         `do:""`
}

func keySource(cmd *cli.Command, logger *slog.Logger) (chain.KeySource, error) {
	if key := cmd.String("private-key"); key != "" {
		//nolint:wrapcheck
		return chain.NewPrivateKeySource(key)
	}

	if dir := cmd.String("keystore-dir"); dir != "" {
		return chain.NewKeystoreSource(dir, cmd.String("passphrase"), logger), nil
	}

	return nil, ErrNoWallet
}

func contractAddress(cmd *cli.Command, name string) (ethcommon.Address, error) {
	value := cmd.String(name)
	if !ethcommon.IsHexAddress(value) {
		return ethcommon.Address{}, fmt.Errorf("%w: --%s %q", ErrInvalidAddress, name, value)
	}

	return ethcommon.HexToAddress(value), nil
}

func confirmSignature(account ethcommon.Address, tx *types.Transaction) bool {
	text := fmt.Sprintf("Sign transaction to %s from %s sending %s wei?",
		tx.To().Hex(), account.Hex(), tx.Value())

	confirmed, err := pterm.DefaultInteractiveConfirm.WithDefaultText(text).Show()

	return err == nil && confirmed
}

func newDialer(cmd *cli.Command, logger *slog.Logger) (*chain.Dialer, error) {
	keys, err := keySource(cmd, logger)
	if err != nil {
		return nil, err
	}

	houseAddress, err := contractAddress(cmd, "house-address")
	if err != nil {
		return nil, err
	}

	arenaAddress, err := contractAddress(cmd, "arena-address")
	if err != nil {
		return nil, err
	}

	dialer := &chain.Dialer{
		RPCURL:       cmd.String("rpc-url"),
		HouseAddress: houseAddress,
		ArenaAddress: arenaAddress,
		Keys:         keys,
	}

	if cmd.Bool("confirm") {
		dialer.Approve = confirmSignature
	}

	return dialer, nil
}

// serveUntilDone runs start until it fails or ctx ends. An ended ctx is a
// clean stop and yields nil.
func serveUntilDone(ctx context.Context, start func() error) error {
	errs := make(chan error, 1)

	go func() {
		errs <- start()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return nil
	}
}

//nolint:funlen
func runServer(ctx context.Context, cmd *cli.Command) error {
	logger := common.NewLogger(cmd.String("log-level"))
	slog.SetDefault(logger)

	dialer, err := newDialer(cmd, logger)
	if err != nil {
		return err
	}

	i := do.New()

	do.ProvideNamedValue(i, "port", cmd.Int("port"))
	do.ProvideNamedValue(i, "data-dir", cmd.String("data-dir"))
	do.ProvideNamedValue(i, "poll-interval", cmd.Duration("poll-interval"))

	do.ProvideValue(i, logger)
	do.ProvideValue[chain.Connector](i, dialer)

	do.Provide(i, common.NewEchoService)
	do.Provide(i, common.NewDatabaseService)

	do.Provide(i, chain.NewSessionService)
	do.Provide(i, ledger.NewLedgerService)
	do.Provide(i, orchestrator.NewOrchestrator)
	do.Provide(i, poller.NewPoller)

	do.Provide(i, account.NewAccountService)
	do.Provide(i, house.NewHouseService)
	do.Provide(i, pvp.NewPvPService)

	do.Provide(i, do.InvokeStruct[RPSService])

	rpsService, err := do.Invoke[RPSService](i)
	if err != nil {
		return fmt.Errorf("failed to create rps service: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var initial ethcommon.Address
	if value := cmd.String("account"); value != "" {
		initial = ethcommon.HexToAddress(value)
	}

	if _, connectErr := rpsService.SessionService.Connect(ctx, initial); connectErr != nil {
		logger.Warn("starting without a session, use PUT /api/session to retry", "error", connectErr)
	}

	if interval := cmd.Duration("chain-watch-interval"); interval > 0 {
		go rpsService.SessionService.Watch(ctx, interval)
	}

	err = serveUntilDone(ctx, rpsService.EchoService.Start)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	rpsService.SessionService.Disconnect()

	report := i.ShutdownWithContext(shutdownCtx)
	if report != nil && !report.Succeed {
		logger.Error("failed to shut down cleanly", "error", report.Error())
	}

	dialer.Shutdown()

	return err
}
