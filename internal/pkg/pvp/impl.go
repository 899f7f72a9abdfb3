package pvp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"github.com/shopspring/decimal"
	"github.com/vreid/rps/internal/pkg/chain"
	rpscommon "github.com/vreid/rps/internal/pkg/common"
	"github.com/vreid/rps/internal/pkg/game"
	"github.com/vreid/rps/internal/pkg/ledger"
	"github.com/vreid/rps/internal/pkg/orchestrator"
	"github.com/vreid/rps/internal/pkg/poller"
)

var ErrInvalidGameID = errors.New("invalid game id")

type tracked struct {
	session *chain.Session
	pending PendingMatch
	handle  *poller.Handle
	release func()
}

type PvPService struct {
	Sessions     *chain.SessionService
	Ledger       *ledger.LedgerService
	Orchestrator *orchestrator.Orchestrator
	Poller       *poller.Poller
	Logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	tracked *tracked
	last    *Resolution
}

func NewPvPService(i do.Injector) (*PvPService, error) {
	result := New(
		do.MustInvoke[*chain.SessionService](i),
		do.MustInvoke[*ledger.LedgerService](i),
		do.MustInvoke[*orchestrator.Orchestrator](i),
		do.MustInvoke[*poller.Poller](i),
		do.MustInvoke[*slog.Logger](i),
	)

	echoService, err := do.Invoke[*rpscommon.EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	echoService.Register(func(e *echo.Echo) {
		result.Register(e)
	})

	return result, nil
}

func New(
	sessions *chain.SessionService,
	ledgerService *ledger.LedgerService,
	orch *orchestrator.Orchestrator,
	matchPoller *poller.Poller,
	logger *slog.Logger,
) *PvPService {
	ctx, cancel := context.WithCancel(context.Background())

	result := &PvPService{
		Sessions:     sessions,
		Ledger:       ledgerService,
		Orchestrator: orch,
		Poller:       matchPoller,
		Logger:       logger,

		ctx:    ctx,
		cancel: cancel,
	}

	sessions.OnReset(result.reset)

	return result
}

func (s *PvPService) Register(e *echo.Echo) {
	pvpGroup := e.Group("/api/pvp")

	pvpGroup.POST("/games", s.PostGame)
	pvpGroup.POST("/games/:id/join", s.PostJoin)
	pvpGroup.GET("/games/:id", s.GetGame)
	pvpGroup.GET("/pending", s.GetPending)
	pvpGroup.GET("/history", s.GetHistory)
}

func (s *PvPService) Shutdown() {
	s.cancel()
}

// Create opens a match and waits for an opponent in the background. The
// session stays busy until the match resolves.
func (s *PvPService) Create(ctx context.Context, req MoveRequest) (*ActionResult, error) {
	session, stake, release, err := s.begin(req)
	if err != nil {
		return nil, err
	}

	result, err := s.Orchestrator.Submit(ctx, session.Arena, orchestrator.Call{
		Method:  "createGame",
		Args:    []any{uint8(req.Move)},
		Payable: true,
		Stake:   stake,
		Expect:  []string{chain.EventGameCreated},
	})
	if err != nil {
		release()

		return actionResult(result, err), err
	}

	created, _ := chain.First[*chain.GameCreated](result.Events)

	pending := PendingMatch{
		GameID: created.GameID.String(),
		Role:   RoleCreator,
		MyMove: req.Move,
		Stake:  stake,
		TxHash: result.TxHash.Hex(),
	}

	s.track(session, pending, created.GameID, release)

	response := actionResult(result, nil)
	response.GameID = pending.GameID
	response.Pending = &pending
	response.Message = fmt.Sprintf("Game created! ID: %s. Waiting for opponent to join...", pending.GameID)

	return response, nil
}

// Join enters an open match. When the join receipt already carries the
// result the match resolves right away, otherwise it is polled.
//
//nolint:funlen
func (s *PvPService) Join(ctx context.Context, gameID string, req MoveRequest) (*ActionResult, error) {
	id, ok := new(big.Int).SetString(gameID, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameID, gameID)
	}

	session, stake, release, err := s.begin(req)
	if err != nil {
		return nil, err
	}

	result, err := s.Orchestrator.Submit(ctx, session.Arena, orchestrator.Call{
		Method:  "joinGame",
		Args:    []any{id, uint8(req.Move)},
		Payable: true,
		Stake:   stake,
		Expect:  []string{chain.EventGameFinished, chain.EventPlayerJoined},
	})
	if err != nil {
		release()

		return actionResult(result, err), err
	}

	response := actionResult(result, nil)
	response.GameID = id.String()

	finished, ok := chain.First[*chain.GameFinished](result.Events)
	if !ok {
		pending := PendingMatch{
			GameID: id.String(),
			Role:   RoleJoiner,
			MyMove: req.Move,
			Stake:  stake,
			TxHash: result.TxHash.Hex(),
		}

		s.track(session, pending, id, release)

		response.Pending = &pending
		response.Message = fmt.Sprintf("Joined game %s. Waiting for the result...", pending.GameID)

		return response, nil
	}

	defer release()

	state := &chain.MatchState{
		GameID:   finished.GameID,
		Stake:    chain.ToWei(stake),
		Move1:    finished.P1Move,
		Move2:    finished.P2Move,
		Started:  true,
		Finished: true,
		Winner:   finished.Winner,
	}

	onChain, err := session.Arena.Match(ctx, id)
	if err == nil && onChain.Stake != nil {
		state.Stake = onChain.Stake
	} else if err != nil {
		s.Logger.Warn("failed to read match stake, using submitted stake", "game_id", id.String(), "error", err)
	}

	resolution, err := Resolve(state, session.Account, RoleJoiner)
	if err != nil {
		response.Status = orchestrator.StatusUnparsable
		response.Message = err.Error()

		return response, fmt.Errorf("%w: %w", orchestrator.ErrUnparsable, err)
	}

	s.mu.Lock()
	s.last = resolution
	s.mu.Unlock()

	s.record(session, resolution)

	response.Resolution = resolution
	response.Message = resolution.Message

	return response, nil
}

func (s *PvPService) begin(req MoveRequest) (*chain.Session, decimal.Decimal, func(), error) {
	session, err := s.Sessions.Current()
	if err != nil {
		return nil, decimal.Zero, nil, err
	}

	if !req.Move.Valid() {
		return nil, decimal.Zero, nil, fmt.Errorf("%w: %d", game.ErrInvalidMove, uint8(req.Move))
	}

	stake, err := chain.ParseEther(req.Stake)
	if err != nil {
		return nil, decimal.Zero, nil, fmt.Errorf("%w: %w", orchestrator.ErrInvalidStake, err)
	}

	release, ok := session.Busy.Acquire()
	if !ok {
		return nil, decimal.Zero, nil, chain.ErrBusy
	}

	return session, stake, release, nil
}

func (s *PvPService) track(session *chain.Session, pending PendingMatch, gameID *big.Int, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracked != nil {
		s.tracked.handle.Stop()
		s.tracked.release()
	}

	entry := &tracked{
		session: session,
		pending: pending,
		release: release,
	}

	entry.handle = s.Poller.Start(s.ctx, session.Arena, gameID, func(state *chain.MatchState) {
		s.resolved(entry, state)
	})

	s.tracked = entry
	s.last = nil
}

// resolved retires entry and publishes its resolution under one lock, so
// Pending always shows either the match or its result.
func (s *PvPService) resolved(entry *tracked, state *chain.MatchState) {
	resolution, err := Resolve(state, entry.session.Account, entry.pending.Role)

	s.mu.Lock()
	if s.tracked != entry {
		s.mu.Unlock()

		return
	}

	s.tracked = nil
	if err == nil {
		s.last = resolution
	}
	s.mu.Unlock()

	defer entry.release()

	if err != nil {
		s.Logger.Error("failed to resolve match", "game_id", entry.pending.GameID, "error", err)

		return
	}

	s.record(entry.session, resolution)
}

func (s *PvPService) record(session *chain.Session, resolution *Resolution) {
	_, err := s.Ledger.Append(ledger.ModePvP, session.Account.Hex(), ledger.Entry{
		ID:     resolution.GameID,
		Result: resolution.Outcome,
		Vs:     resolution.OpponentMove,
		Payout: resolution.Payout,
	})
	if err != nil {
		s.Logger.Error("failed to record match", "game_id", resolution.GameID, "error", err)
	}

	s.Logger.Info("match resolved",
		"game_id", resolution.GameID,
		"outcome", resolution.Outcome,
		"payout", resolution.Payout.String())
}

func (s *PvPService) reset(old *chain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracked != nil && s.tracked.session == old {
		s.tracked.handle.Stop()
		s.tracked.release()
		s.tracked = nil
	}

	s.last = nil
}

func (s *PvPService) Pending() PendingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := PendingStatus{Last: s.last}

	if s.tracked != nil {
		pending := s.tracked.pending
		status.Pending = &pending
	}

	return status
}

func (s *PvPService) Game(ctx context.Context, gameID string) (*MatchView, error) {
	id, ok := new(big.Int).SetString(gameID, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameID, gameID)
	}

	session, err := s.Sessions.Current()
	if err != nil {
		return nil, err
	}

	state, err := session.Arena.Match(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read game: %w", err)
	}

	return viewOf(state), nil
}

func (s *PvPService) History(account string) ([]ledger.Entry, error) {
	if account == "" {
		session, err := s.Sessions.Current()
		if err != nil {
			return nil, err
		}

		account = session.Account.Hex()
	}

	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("%w: %q", chain.ErrUnknownAccount, account)
	}

	return s.Ledger.List(ledger.ModePvP, account), nil
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

func respond(c echo.Context, result *ActionResult, err error) error {
	if err != nil && result == nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(httpStatus(err), result)
}

func httpStatus(err error) int {
	if errors.Is(err, ErrInvalidGameID) {
		return http.StatusBadRequest
	}

	return orchestrator.HTTPStatus(err)
}

func (s *PvPService) PostGame(c echo.Context) error {
	var req MoveRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.Create(c.Request().Context(), req)
	if err == nil {
		//nolint:wrapcheck
		return c.JSON(http.StatusAccepted, result)
	}

	return respond(c, result, err)
}

func (s *PvPService) PostJoin(c echo.Context) error {
	var req MoveRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.Join(c.Request().Context(), c.Param("id"), req)

	return respond(c, result, err)
}

func (s *PvPService) GetGame(c echo.Context) error {
	view, err := s.Game(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, view)
}

func (s *PvPService) GetPending(c echo.Context) error {
	//nolint:wrapcheck
	return c.JSON(http.StatusOK, s.Pending())
}

func (s *PvPService) GetHistory(c echo.Context) error {
	history, err := s.History(c.QueryParam("account"))
	if err != nil {
		if errors.Is(err, chain.ErrUnknownAccount) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		return echo.NewHTTPError(httpStatus(err), err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, history)
}
