package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vreid/rps/internal/pkg/game"
)

// MaxEntries bounds every history list; older entries drop off the end.
const MaxEntries = 20

type Mode string

const (
	ModeHouse Mode = "rps"
	ModePvP   Mode = "rps_multiplayer"
)

type Entry struct {
	ID        string          `json:"id"`
	Result    game.Outcome    `json:"result"`
	Vs        game.Move       `json:"vs"`
	Payout    decimal.Decimal `json:"payout"`
	Timestamp int64           `json:"timestamp"`
}

func Key(mode Mode, account string) string {
	return fmt.Sprintf("%s_history_%s", mode, strings.ToLower(account))
}
