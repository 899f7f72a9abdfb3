package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	ErrUnknownAccount = errors.New("account not available")
	ErrNoAccounts     = errors.New("no accounts available")
)

// KeySource is the wallet: it lists accounts and builds signers for them.
type KeySource interface {
	Accounts() []common.Address
	Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}

// Approver is asked before every signature; false declines it.
type Approver func(account common.Address, tx *types.Transaction) bool

type PrivateKeySource struct {
	key     *ecdsa.PrivateKey
	account common.Address
}

func NewPrivateKeySource(hexKey string) (*PrivateKeySource, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &PrivateKeySource{
		key:     key,
		account: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *PrivateKeySource) Accounts() []common.Address {
	return []common.Address{s.account}
}

func (s *PrivateKeySource) Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if account != s.account {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}

	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	return opts, nil
}

// KeystoreSource signs with encrypted key files. Accounts that fail to
// unlock stay locked and every signature they attempt is declined.
type KeystoreSource struct {
	ks *keystore.KeyStore
}

func NewKeystoreSource(dir, passphrase string, logger *slog.Logger) *KeystoreSource {
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)

	for _, account := range ks.Accounts() {
		if err := ks.Unlock(account, passphrase); err != nil {
			logger.Warn("failed to unlock keystore account, its signatures will be declined",
				"account", account.Address.Hex(),
				"error", err)
		}
	}

	return &KeystoreSource{ks: ks}
}

func (s *KeystoreSource) Accounts() []common.Address {
	result := []common.Address{}
	for _, account := range s.ks.Accounts() {
		result = append(result, account.Address)
	}

	return result
}

func (s *KeystoreSource) Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if !s.ks.HasAddress(account) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}

	opts, err := bind.NewKeyStoreTransactorWithChainID(s.ks, accounts.Account{Address: account}, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	return opts, nil
}

func withApproval(opts *bind.TransactOpts, approve Approver) {
	sign := opts.Signer

	opts.Signer = func(account common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if approve != nil && !approve(account, tx) {
			return nil, ErrRejected
		}

		signed, err := sign(account, tx)
		if errors.Is(err, keystore.ErrLocked) {
			return nil, fmt.Errorf("%w: %w", ErrRejected, err)
		}

		return signed, err
	}
}

// Dialer connects sessions over one JSON-RPC endpoint.
type Dialer struct {
	RPCURL       string
	HouseAddress common.Address
	ArenaAddress common.Address
	Keys         KeySource
	Approve      Approver

	mu     sync.Mutex
	client *ethclient.Client
}

func (d *Dialer) backend(ctx context.Context) (*ethclient.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return d.client, nil
	}

	client, err := ethclient.DialContext(ctx, d.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", d.RPCURL, err)
	}

	d.client = client

	return client, nil
}

func (d *Dialer) Connect(ctx context.Context, account common.Address) (*Session, error) {
	client, err := d.backend(ctx)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}

	if account == (common.Address{}) {
		available := d.Keys.Accounts()
		if len(available) == 0 {
			return nil, ErrNoAccounts
		}

		account = available[0]
	}

	opts, err := d.Keys.Transactor(account, chainID)
	if err != nil {
		return nil, err
	}

	withApproval(opts, d.Approve)

	return NewSession(account, chainID,
		NewBoundContract(client, d.HouseAddress, HouseABI, opts),
		NewBoundContract(client, d.ArenaAddress, ArenaABI, opts),
		client,
	), nil
}

func (d *Dialer) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		d.client.Close()
		d.client = nil
	}
}
