package wallet

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/sync/singleflight"
)

// Manager owns the wallet seed and hands out derived accounts. Accounts are
// derived lazily and cached by the literal path string, so repeated requests
// for the same path return the identical instance.
type Manager struct {
	cfg Config
	rpc *rpc.Client

	mu       sync.RWMutex
	seed     []byte
	accounts map[string]*Account
	group    singleflight.Group
	disposed bool
}

// New creates a Manager over a copy of the given seed. An empty RPCURL in
// the config is allowed and restricts the manager to offline operations.
func New(seed []byte, cfg Config) (*Manager, error) {
	if len(seed) == 0 {
		return nil, ErrNullSeed
	}

	var client *rpc.Client
	if cfg.RPCURL != "" {
		client = rpc.New(cfg.RPCURL)
	}

	owned := make([]byte, len(seed))
	copy(owned, seed)

	return &Manager{
		cfg:      cfg,
		rpc:      client,
		seed:     owned,
		accounts: make(map[string]*Account),
	}, nil
}

// NewFromMnemonic creates a Manager from a BIP-39 mnemonic.
func NewFromMnemonic(mnemonic string, cfg Config) (*Manager, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)
	return New(seed, cfg)
}

// Account returns the account at the canonical path 0'/0/{index}.
func (m *Manager) Account(index int) (*Account, error) {
	if index < 0 {
		return nil, ErrNegativeAccountIndex
	}
	return m.AccountByPath(fmt.Sprintf("0'/0/%d", index))
}

// AccountByPath returns the account derived along the given path, deriving
// and caching it on first request. Concurrent first requests for the same
// path collapse onto a single derivation.
func (m *Manager) AccountByPath(path string) (*Account, error) {
	m.mu.RLock()
	if m.disposed {
		m.mu.RUnlock()
		return nil, ErrWalletDisposed
	}
	if account, ok := m.accounts[path]; ok {
		m.mu.RUnlock()
		return account, nil
	}
	m.mu.RUnlock()

	v, err, _ := m.group.Do(path, func() (interface{}, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.disposed {
			return nil, ErrWalletDisposed
		}
		if account, ok := m.accounts[path]; ok {
			return account, nil
		}

		account, err := m.deriveAccount(path)
		if err != nil {
			return nil, err
		}
		m.accounts[path] = account
		return account, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

// deriveAccount must be called with the write lock held.
func (m *Manager) deriveAccount(path string) (*Account, error) {
	parsed, err := ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}

	full := parsed
	if !strings.HasPrefix(strings.TrimSpace(path), "m/") {
		full = append(append(DerivationPath{}, BaseDerivationPath...), parsed...)
	}

	key := deriveKey(m.seed, full)
	return newAccount(path, parsed.Index(), key, m.cfg, m.rpc), nil
}

// Close disposes all cached accounts, clears the cache and zeroes the seed.
// It is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return nil
	}

	for _, account := range m.accounts {
		account.Close()
	}
	m.accounts = make(map[string]*Account)

	zeroBytes(m.seed)
	m.seed = nil
	m.disposed = true
	return nil
}

func (m *Manager) guard() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.disposed {
		return ErrWalletDisposed
	}
	return nil
}
