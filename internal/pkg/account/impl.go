package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"github.com/vreid/rps/internal/pkg/chain"
	"github.com/vreid/rps/internal/pkg/common"
)

var ErrInvalidAccount = errors.New("invalid account address")

type SessionView struct {
	ID      string `json:"id"`
	Account string `json:"account"`
	ChainID string `json:"chain_id"`
	House   string `json:"house"`
	Arena   string `json:"arena"`
	Busy    bool   `json:"busy"`
}

type SwitchRequest struct {
	Account string `json:"account"`
}

// AccountService exposes the wallet session over HTTP.
type AccountService struct {
	Sessions *chain.SessionService
	Logger   *slog.Logger
}

func NewAccountService(i do.Injector) (*AccountService, error) {
	sessions := do.MustInvoke[*chain.SessionService](i)
	logger := do.MustInvoke[*slog.Logger](i)

	result := &AccountService{
		Sessions: sessions,
		Logger:   logger,
	}

	echoService, err := do.Invoke[*common.EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	echoService.Register(func(e *echo.Echo) {
		apiGroup := e.Group("/api")

		apiGroup.GET("/session", result.GetSession)
		apiGroup.PUT("/session", result.PutSession)
	})

	return result, nil
}

func ViewOf(session *chain.Session) *SessionView {
	return &SessionView{
		ID:      session.ID,
		Account: session.Account.Hex(),
		ChainID: session.ChainID.String(),
		House:   session.House.Address().Hex(),
		Arena:   session.Arena.Address().Hex(),
		Busy:    session.Busy.Held(),
	}
}

func (s *AccountService) Session() (*SessionView, error) {
	session, err := s.Sessions.Current()
	if err != nil {
		return nil, err
	}

	return ViewOf(session), nil
}

// Switch replaces the session with one bound to account. An empty account
// selects the default one of the key source.
func (s *AccountService) Switch(ctx context.Context, account string) (*SessionView, error) {
	var address ethcommon.Address

	if account != "" {
		if !ethcommon.IsHexAddress(account) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAccount, account)
		}

		address = ethcommon.HexToAddress(account)
	}

	session, err := s.Sessions.Connect(ctx, address)
	if err != nil {
		return nil, err
	}

	return ViewOf(session), nil
}

func (s *AccountService) GetSession(c echo.Context) error {
	view, err := s.Session()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, view)
}

func (s *AccountService) PutSession(c echo.Context) error {
	var req SwitchRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	view, err := s.Switch(c.Request().Context(), req.Account)

	switch {
	case errors.Is(err, ErrInvalidAccount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, chain.ErrUnknownAccount), errors.Is(err, chain.ErrNoAccounts):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case err != nil:
		s.Logger.Warn("failed to switch account", "account", req.Account, "error", err)

		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, view)
}
