package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

const etherDecimals = 18

// ParseEther reads a positive decimal ether amount that is representable in wei.
func ParseEther(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if ToWei(amount).Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, s)
	}

	return amount, nil
}

// ToWei truncates anything below one wei.
func ToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(etherDecimals).BigInt()
}

func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(wei, -etherDecimals)
}
