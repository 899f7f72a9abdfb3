package chain_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/rps/internal/pkg/chain"
)

func TestParseEther(t *testing.T) {
	t.Parallel()

	amount, err := chain.ParseEther("0.0001")
	require.NoError(t, err)
	assert.Equal(t, "100000000000000", chain.ToWei(amount).String())

	for _, input := range []string{"", "  ", "0", "-1", "abc", "0.0000000000000000001"} {
		_, err := chain.ParseEther(input)
		require.ErrorIs(t, err, chain.ErrInvalidAmount, input)
	}
}

func TestFromWei(t *testing.T) {
	t.Parallel()

	wei, ok := new(big.Int).SetString("2500000000000000000", 10)
	require.True(t, ok)

	assert.True(t, decimal.RequireFromString("2.5").Equal(chain.FromWei(wei)))
	assert.True(t, decimal.Zero.Equal(chain.FromWei(nil)))
}
