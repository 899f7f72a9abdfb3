package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/samber/do/v2"
)

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrBusy         = errors.New("another action is still in flight")
)

// Busy is the "can I act now" flag of a session. Only the holder of the
// release func returned by Acquire can clear it.
type Busy struct {
	held atomic.Bool
}

func (b *Busy) Acquire() (func(), bool) {
	if !b.held.CompareAndSwap(false, true) {
		return nil, false
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			b.held.Store(false)
		})
	}, true
}

func (b *Busy) Held() bool {
	return b.held.Load()
}

type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Session is everything bound to one connected account on one chain.
// It is replaced as a whole when either changes.
type Session struct {
	ID      string
	Account common.Address
	ChainID *big.Int

	House House
	Arena Arena

	Busy Busy

	chain ChainIDReader
}

func NewSession(account common.Address, chainID *big.Int, house House, arena Arena, chain ChainIDReader) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Account: account,
		ChainID: chainID,
		House:   house,
		Arena:   arena,
		chain:   chain,
	}
}

type Connector interface {
	// Connect binds a new session; the zero account selects the default one.
	Connect(ctx context.Context, account common.Address) (*Session, error)
}

type SessionService struct {
	Connector Connector
	Logger    *slog.Logger

	mu      sync.RWMutex
	current *Session
	hooks   []func(old *Session)
}

func NewSessionService(i do.Injector) (*SessionService, error) {
	connector := do.MustInvoke[Connector](i)
	logger := do.MustInvoke[*slog.Logger](i)

	return &SessionService{
		Connector: connector,
		Logger:    logger,
	}, nil
}

// OnReset registers fn to run with the outgoing session whenever it is replaced or dropped.
func (s *SessionService) OnReset(fn func(old *Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, fn)
}

func (s *SessionService) Current() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNotConnected
	}

	return s.current, nil
}

func (s *SessionService) Connect(ctx context.Context, account common.Address) (*Session, error) {
	session, err := s.Connector.Connect(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	s.Set(session)

	s.Logger.Info("session connected",
		"session", session.ID,
		"account", session.Account.Hex(),
		"chain_id", session.ChainID)

	return session, nil
}

// Set replaces the current session, nil disconnects.
func (s *SessionService) Set(session *Session) {
	s.mu.Lock()
	old := s.current
	s.current = session
	hooks := append([]func(*Session){}, s.hooks...)
	s.mu.Unlock()

	if old == nil {
		return
	}

	for _, hook := range hooks {
		hook(old)
	}
}

func (s *SessionService) Disconnect() {
	s.Set(nil)
}

// Watch reconnects the current account whenever the endpoint reports a
// different chain id. It returns when ctx is done.
func (s *SessionService) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkChain(ctx)
		}
	}
}

func (s *SessionService) checkChain(ctx context.Context) {
	session, err := s.Current()
	if err != nil || session.chain == nil {
		return
	}

	chainID, err := session.chain.ChainID(ctx)
	if err != nil {
		s.Logger.Warn("failed to read chain id", "error", err)

		return
	}

	if session.ChainID != nil && chainID.Cmp(session.ChainID) == 0 {
		return
	}

	s.Logger.Info("chain changed, resetting session",
		"from", session.ChainID,
		"to", chainID)

	_, err = s.Connect(ctx, session.Account)
	if err != nil {
		s.Logger.Error("failed to reconnect after chain change", "error", err)
		s.Disconnect()
	}
}
