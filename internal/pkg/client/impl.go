package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/vreid/rps/internal/pkg/account"
	"github.com/vreid/rps/internal/pkg/house"
	"github.com/vreid/rps/internal/pkg/ledger"
	"github.com/vreid/rps/internal/pkg/orchestrator"
	"github.com/vreid/rps/internal/pkg/poller"
	"github.com/vreid/rps/internal/pkg/pvp"
)

const DefaultServer = "http://127.0.0.1:3000"

var ErrMatchAbandoned = errors.New("match is no longer tracked by the server")

// APIError is a non-2xx answer of the server.
type APIError struct {
	StatusCode int
	Message    string
	Status     orchestrator.Status
	TxHash     string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.StatusCode, e.Status)
	}

	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

// Submitted reports whether the failed action may still have moved funds.
func (e *APIError) Submitted() bool {
	return e.Status.Submitted()
}

type errorBody struct {
	Message string              `json:"message"`
	Status  orchestrator.Status `json:"status"`
	TxHash  string              `json:"tx_hash"`
}

type Client struct {
	http *resty.Client
}

func New(server string) *Client {
	httpClient := resty.New().
		SetBaseURL(server).
		SetHeader("Accept", "application/json")

	return &Client{
		http: httpClient,
	}
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var (
		result  T
		failure errorBody
	)

	req := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&failure)

	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		if failure.Message == "" {
			failure.Message = http.StatusText(resp.StatusCode())
		}

		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Message:    failure.Message,
			Status:     failure.Status,
			TxHash:     failure.TxHash,
		}
	}

	return &result, nil
}

func (c *Client) Session(ctx context.Context) (*account.SessionView, error) {
	return call[account.SessionView](ctx, c, http.MethodGet, "/api/session", nil)
}

func (c *Client) SwitchAccount(ctx context.Context, address string) (*account.SessionView, error) {
	return call[account.SessionView](ctx, c, http.MethodPut, "/api/session", account.SwitchRequest{Account: address})
}

func (c *Client) Balance(ctx context.Context) (*house.Balance, error) {
	return call[house.Balance](ctx, c, http.MethodGet, "/api/house/balance", nil)
}

func (c *Client) Play(ctx context.Context, req house.PlayRequest) (*house.PlayResult, error) {
	return call[house.PlayResult](ctx, c, http.MethodPost, "/api/house/play", req)
}

func (c *Client) Deposit(ctx context.Context, amount string) (*house.ActionResult, error) {
	return call[house.ActionResult](ctx, c, http.MethodPost, "/api/house/deposit", house.DepositRequest{Amount: amount})
}

func (c *Client) Withdraw(ctx context.Context) (*house.ActionResult, error) {
	return call[house.ActionResult](ctx, c, http.MethodPost, "/api/house/withdraw", nil)
}

func (c *Client) Score(ctx context.Context) (*house.Score, error) {
	return call[house.Score](ctx, c, http.MethodGet, "/api/house/score", nil)
}

func (c *Client) History(ctx context.Context, mode ledger.Mode, address string) ([]ledger.Entry, error) {
	path := "/api/house/history"
	if mode == ledger.ModePvP {
		path = "/api/pvp/history"
	}

	if address != "" {
		path += "?account=" + address
	}

	entries, err := call[[]ledger.Entry](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	return *entries, nil
}

func (c *Client) CreateGame(ctx context.Context, req pvp.MoveRequest) (*pvp.ActionResult, error) {
	return call[pvp.ActionResult](ctx, c, http.MethodPost, "/api/pvp/games", req)
}

func (c *Client) JoinGame(ctx context.Context, gameID string, req pvp.MoveRequest) (*pvp.ActionResult, error) {
	return call[pvp.ActionResult](ctx, c, http.MethodPost, "/api/pvp/games/"+gameID+"/join", req)
}

func (c *Client) Game(ctx context.Context, gameID string) (*pvp.MatchView, error) {
	return call[pvp.MatchView](ctx, c, http.MethodGet, "/api/pvp/games/"+gameID, nil)
}

func (c *Client) Pending(ctx context.Context) (*pvp.PendingStatus, error) {
	return call[pvp.PendingStatus](ctx, c, http.MethodGet, "/api/pvp/pending", nil)
}

// WaitForResolution asks the server every interval until the match gameID
// has resolved. Failed requests are retried. A non-positive interval falls
// back to poller.DefaultInterval.
func (c *Client) WaitForResolution(ctx context.Context, gameID string, interval time.Duration) (*pvp.Resolution, error) {
	if interval <= 0 {
		interval = poller.DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.Pending(ctx)
		if err == nil {
			if status.Last != nil && status.Last.GameID == gameID {
				return status.Last, nil
			}

			if status.Pending == nil || status.Pending.GameID != gameID {
				return nil, fmt.Errorf("%w: %s", ErrMatchAbandoned, gameID)
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("stopped waiting for game %s: %w", gameID, ctx.Err())
		case <-ticker.C:
		}
	}
}
