package chain_test

import (
	"bytes"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/rps/internal/pkg/chain"
)

func newKeystore(t *testing.T, passphrase string) (string, common.Address) {
	t.Helper()

	dir := t.TempDir()

	account, err := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP).NewAccount(passphrase)
	require.NoError(t, err)

	return dir, account.Address
}

func signWith(t *testing.T, source chain.KeySource, account common.Address) error {
	t.Helper()

	opts, err := source.Transactor(account, big.NewInt(1337))
	require.NoError(t, err)

	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx := types.NewTx(&types.LegacyTx{To: &to, Value: big.NewInt(1), Gas: 21_000, GasPrice: big.NewInt(1)})

	_, err = opts.Signer(account, tx)

	return err //nolint:wrapcheck
}

func TestKeystoreUnlockFailureIsLogged(t *testing.T) {
	t.Parallel()

	dir, account := newKeystore(t, "right")

	var logs bytes.Buffer

	source := chain.NewKeystoreSource(dir, "wrong", slog.New(slog.NewTextHandler(&logs, nil)))

	assert.Equal(t, []common.Address{account}, source.Accounts())
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "failed to unlock keystore account")
	assert.Contains(t, logs.String(), account.Hex())

	require.ErrorIs(t, signWith(t, source, account), keystore.ErrLocked)
}

func TestKeystoreUnlocksWithPassphrase(t *testing.T) {
	t.Parallel()

	dir, account := newKeystore(t, "right")

	var logs bytes.Buffer

	source := chain.NewKeystoreSource(dir, "right", slog.New(slog.NewTextHandler(&logs, nil)))

	assert.Empty(t, logs.String())
	require.NoError(t, signWith(t, source, account))

	_, err := source.Transactor(common.HexToAddress("0x00000000000000000000000000000000000000bb"), big.NewInt(1337))
	require.ErrorIs(t, err, chain.ErrUnknownAccount)
}
