package account_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/rps/internal/pkg/account"
	"github.com/vreid/rps/internal/pkg/chain"
	"github.com/vreid/rps/internal/pkg/chain/chaintest"
	"github.com/vreid/rps/internal/pkg/common"
)

type connector struct{}

func (connector) Connect(_ context.Context, address ethcommon.Address) (*chain.Session, error) {
	switch address {
	case ethcommon.Address{}, chaintest.PlayerA:
		return chaintest.NewSession(chaintest.PlayerA, chaintest.NewHouse(), chaintest.NewArena()), nil
	case chaintest.PlayerB:
		return chaintest.NewSession(chaintest.PlayerB, chaintest.NewHouse(), chaintest.NewArena()), nil
	default:
		return nil, fmt.Errorf("%w: %s", chain.ErrUnknownAccount, address.Hex())
	}
}

func newService() *account.AccountService {
	logger := slog.New(slog.DiscardHandler)

	return &account.AccountService{
		Sessions: &chain.SessionService{Connector: connector{}, Logger: logger},
		Logger:   logger,
	}
}

func TestSessionBeforeConnect(t *testing.T) {
	t.Parallel()

	_, err := newService().Session()
	require.ErrorIs(t, err, chain.ErrNotConnected)
}

func TestSwitchAccount(t *testing.T) {
	t.Parallel()

	service := newService()

	view, err := service.Switch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, chaintest.PlayerA.Hex(), view.Account)
	assert.Equal(t, "1337", view.ChainID)
	assert.Equal(t, chaintest.HouseAddress.Hex(), view.House)

	first := view.ID

	view, err = service.Switch(context.Background(), strings.ToLower(chaintest.PlayerB.Hex()))
	require.NoError(t, err)
	assert.Equal(t, chaintest.PlayerB.Hex(), view.Account)
	assert.NotEqual(t, first, view.ID)

	_, err = service.Switch(context.Background(), "not-an-address")
	require.ErrorIs(t, err, account.ErrInvalidAccount)

	_, err = service.Switch(context.Background(), chaintest.OtherAddress.Hex())
	require.ErrorIs(t, err, chain.ErrUnknownAccount)

	current, err := service.Session()
	require.NoError(t, err)
	assert.Equal(t, chaintest.PlayerB.Hex(), current.Account)
}

func TestPutSessionStatusCodes(t *testing.T) {
	t.Parallel()

	service := newService()
	e := common.NewEcho()

	for _, tc := range []struct {
		body   string
		status int
	}{
		{`{"account":""}`, http.StatusOK},
		{`{"account":"0x12"}`, http.StatusBadRequest},
		{fmt.Sprintf(`{"account":%q}`, chaintest.OtherAddress.Hex()), http.StatusNotFound},
	} {
		req := httptest.NewRequest(http.MethodPut, "/api/session", strings.NewReader(tc.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		rec := httptest.NewRecorder()

		err := service.PutSession(e.NewContext(req, rec))

		status := rec.Code

		var httpErr *echo.HTTPError
		if err != nil {
			require.ErrorAs(t, err, &httpErr)

			status = httpErr.Code
		}

		assert.Equal(t, tc.status, status, tc.body)
	}
}
