package house

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"github.com/vreid/rps/internal/pkg/chain"
	"github.com/vreid/rps/internal/pkg/common"
	"github.com/vreid/rps/internal/pkg/game"
	"github.com/vreid/rps/internal/pkg/ledger"
	"github.com/vreid/rps/internal/pkg/orchestrator"
)

var ErrNotOwner = errors.New("only the contract owner can withdraw")

type HouseService struct {
	Sessions     *chain.SessionService
	Ledger       *ledger.LedgerService
	Orchestrator *orchestrator.Orchestrator
	Logger       *slog.Logger

	mu    sync.Mutex
	score Score
}

func NewHouseService(i do.Injector) (*HouseService, error) {
	result := New(
		do.MustInvoke[*chain.SessionService](i),
		do.MustInvoke[*ledger.LedgerService](i),
		do.MustInvoke[*orchestrator.Orchestrator](i),
		do.MustInvoke[*slog.Logger](i),
	)

	echoService, err := do.Invoke[*common.EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	echoService.Register(func(e *echo.Echo) {
		apiGroup := e.Group("/api")

		houseGroup := apiGroup.Group("/house")

		houseGroup.GET("/balance", result.GetBalance)
		houseGroup.POST("/play", result.PostPlay)
		houseGroup.POST("/deposit", result.PostDeposit)
		houseGroup.POST("/withdraw", result.PostWithdraw)
		houseGroup.GET("/score", result.GetScore)
		houseGroup.GET("/history", result.GetHistory)
	})

	return result, nil
}

func New(
	sessions *chain.SessionService,
	ledgerService *ledger.LedgerService,
	orch *orchestrator.Orchestrator,
	logger *slog.Logger,
) *HouseService {
	result := &HouseService{
		Sessions:     sessions,
		Ledger:       ledgerService,
		Orchestrator: orch,
		Logger:       logger,
	}

	sessions.OnReset(func(*chain.Session) {
		result.mu.Lock()
		defer result.mu.Unlock()

		result.score = Score{}
	})

	return result
}

// Play wagers stake on one round against the contract and records the
// result in the account's history.
//
//nolint:funlen
func (s *HouseService) Play(ctx context.Context, req PlayRequest) (*PlayResult, error) {
	session, err := s.Sessions.Current()
	if err != nil {
		return nil, err
	}

	if !req.Move.Valid() {
		return nil, fmt.Errorf("%w: %d", game.ErrInvalidMove, uint8(req.Move))
	}

	stake, err := chain.ParseEther(req.Stake)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrInvalidStake, err)
	}

	release, ok := session.Busy.Acquire()
	if !ok {
		return nil, chain.ErrBusy
	}
	defer release()

	result, err := s.Orchestrator.Submit(ctx, session.House, orchestrator.Call{
		Method:  "play",
		Args:    []any{uint8(req.Move)},
		Payable: true,
		Stake:   stake,
		Expect:  []string{chain.EventGameResult},
	})
	if err != nil {
		return playResult(req.Move, result, err), err
	}

	response := playResult(req.Move, result, nil)

	event, _ := chain.First[*chain.GameResult](result.Events)

	outcome, err := game.ParseHouseOutcome(event.Result)
	if err == nil {
		response.ComputerMove, err = game.MoveFromUint8(event.ComputerMove)
	}

	if err != nil {
		err = fmt.Errorf("%w: %w", orchestrator.ErrUnparsable, err)
		response.Status = orchestrator.StatusUnparsable
		response.Message = err.Error()

		return response, err
	}

	response.Outcome = outcome
	response.Payout = chain.FromWei(event.Payout)
	response.Message = game.HouseMessage(req.Move, response.ComputerMove, outcome)

	s.mu.Lock()
	switch {
	case outcome.IsWin():
		s.score.User++
	case outcome.IsLoss():
		s.score.Computer++
	}
	s.mu.Unlock()

	_, err = s.Ledger.Append(ledger.ModeHouse, session.Account.Hex(), ledger.Entry{
		ID:     response.TxHash,
		Result: outcome,
		Vs:     response.ComputerMove,
		Payout: response.Payout,
	})
	if err != nil {
		s.Logger.Error("failed to record round", "tx", response.TxHash, "error", err)
	}

	return response, nil
}

// Deposit funds the house with amount.
func (s *HouseService) Deposit(ctx context.Context, req DepositRequest) (*ActionResult, error) {
	session, err := s.Sessions.Current()
	if err != nil {
		return nil, err
	}

	amount, err := chain.ParseEther(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrInvalidStake, err)
	}

	release, ok := session.Busy.Acquire()
	if !ok {
		return nil, chain.ErrBusy
	}
	defer release()

	result, err := s.Orchestrator.Submit(ctx, session.House, orchestrator.Call{
		Method:  "deposit",
		Payable: true,
		Stake:   amount,
	})

	response := actionResult(result, err)
	if err == nil {
		response.Message = "Deposit successful! House is funded."
	}

	return response, err
}

// Withdraw drains the house to its owner. Only the owner may call it.
func (s *HouseService) Withdraw(ctx context.Context) (*ActionResult, error) {
	session, err := s.Sessions.Current()
	if err != nil {
		return nil, err
	}

	owner, err := session.House.Owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read owner: %w", err)
	}

	if owner != session.Account {
		return nil, fmt.Errorf("%w: owner is %s", ErrNotOwner, owner.Hex())
	}

	release, ok := session.Busy.Acquire()
	if !ok {
		return nil, chain.ErrBusy
	}
	defer release()

	result, err := s.Orchestrator.Submit(ctx, session.House, orchestrator.Call{
		Method: "withdraw",
	})

	response := actionResult(result, err)
	if err == nil {
		response.Message = "Withdrawal successful."
	}

	return response, err
}

func (s *HouseService) Balance(ctx context.Context) (*Balance, error) {
	session, err := s.Sessions.Current()
	if err != nil {
		return nil, err
	}

	wei, err := session.House.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	balance := chain.FromWei(wei)

	return &Balance{
		Contract: session.House.Address().Hex(),
		Balance:  balance,
		Display:  balance.StringFixed(BalancePlaces),
	}, nil
}

func (s *HouseService) Score() Score {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.score
}

func (s *HouseService) History(account string) ([]ledger.Entry, error) {
	if account == "" {
		session, err := s.Sessions.Current()
		if err != nil {
			return nil, err
		}

		account = session.Account.Hex()
	}

	if !ethcommon.IsHexAddress(account) {
		return nil, fmt.Errorf("%w: %q", chain.ErrUnknownAccount, account)
	}

	return s.Ledger.List(ledger.ModeHouse, account), nil
}

func playResult(move game.Move, result *orchestrator.Result, err error) *PlayResult {
	if result == nil {
		return nil
	}

	response := &PlayResult{
		Status:     result.Status,
		PlayerMove: move,
		Balance:    result.Balance,
	}

	if result.Status.Submitted() {
		response.TxHash = result.TxHash.Hex()
	}

	if err != nil {
		response.Message = err.Error()
	}

	return response
}

func actionResult(result *orchestrator.Result, err error) *ActionResult {
	if result == nil {
		return nil
	}

	response := &ActionResult{
		Status:  result.Status,
		Balance: result.Balance,
	}

	if result.Status.Submitted() {
		response.TxHash = result.TxHash.Hex()
	}

	if err != nil {
		response.Message = err.Error()
	}

	return response
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, chain.ErrUnknownAccount):
		return http.StatusBadRequest
	default:
		return orchestrator.HTTPStatus(err)
	}
}

func (s *HouseService) PostPlay(c echo.Context) error {
	var req PlayRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.Play(c.Request().Context(), req)
	if err != nil && result == nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(httpStatus(err), result)
}

func (s *HouseService) PostDeposit(c echo.Context) error {
	var req DepositRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.Deposit(c.Request().Context(), req)
	if err != nil && result == nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(httpStatus(err), result)
}

func (s *HouseService) PostWithdraw(c echo.Context) error {
	result, err := s.Withdraw(c.Request().Context())
	if err != nil && result == nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(httpStatus(err), result)
}

func (s *HouseService) GetBalance(c echo.Context) error {
	balance, err := s.Balance(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, balance)
}

func (s *HouseService) GetScore(c echo.Context) error {
	//nolint:wrapcheck
	return c.JSON(http.StatusOK, s.Score())
}

func (s *HouseService) GetHistory(c echo.Context) error {
	history, err := s.History(c.QueryParam("account"))
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, history)
}
