package orchestrator

import (
	"errors"
	"net/http"

	"github.com/vreid/rps/internal/pkg/chain"
	"github.com/vreid/rps/internal/pkg/game"
)

// HTTPStatus maps the errors of a user action to the status the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidStake), errors.Is(err, chain.ErrInvalidAmount), errors.Is(err, game.ErrInvalidMove):
		return http.StatusBadRequest
	case errors.Is(err, chain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, chain.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrRejected):
		return http.StatusForbidden
	case errors.Is(err, ErrReceiptUnavailable):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrReverted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSubmissionFailed), errors.Is(err, ErrUnparsable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
