// Package host is the execution environment routes run in: a token-account
// bank whose transactions either commit every write or none.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAccountNotFound   = errors.New("token account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMintMismatch      = errors.New("token accounts hold different mints")
	ErrBalanceOverflow   = errors.New("token account balance overflow")
	ErrConflict          = errors.New("transaction read state changed before commit")
	ErrTxDone            = errors.New("transaction already committed or rolled back")
)

type TokenAccount struct {
	Address solana.PublicKey `json:"address"`
	Mint    solana.PublicKey `json:"mint"`
	Owner   solana.PublicKey `json:"owner"`
	Amount  uint64           `json:"amount"`
}

// AccountLoader fetches accounts the bank has not seen yet.
type AccountLoader interface {
	LoadTokenAccount(ctx context.Context, address solana.PublicKey) (*TokenAccount, error)
}

// MintResolver answers mint lookups from a cache. A token account's mint never
// changes, so a resolved mint is not recorded as a transaction read.
type MintResolver interface {
	CachedMint(address solana.PublicKey) (solana.PublicKey, bool)
}

type versioned struct {
	account TokenAccount
	version uint64
}

type Bank struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey]*versioned
	loader   AccountLoader
	mints    MintResolver
}

// NewBank creates an empty bank. loader may be nil. A loader that also
// implements MintResolver answers TokenMint before any account is loaded.
func NewBank(loader AccountLoader) *Bank {
	b := &Bank{
		accounts: make(map[solana.PublicKey]*versioned),
		loader:   loader,
	}
	if r, ok := loader.(MintResolver); ok {
		b.mints = r
	}
	return b
}

// Put creates or overwrites an account outside any transaction.
func (b *Bank) Put(account TokenAccount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.accounts[account.Address]; ok {
		existing.account = account
		existing.version++
		return
	}
	b.accounts[account.Address] = &versioned{account: account, version: 1}
}

// TokenAccount returns the committed state of an account.
func (b *Bank) TokenAccount(ctx context.Context, address solana.PublicKey) (TokenAccount, error) {
	v, err := b.lookup(ctx, address)
	if err != nil {
		return TokenAccount{}, err
	}
	return v.account, nil
}

func (b *Bank) TokenBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	account, err := b.TokenAccount(ctx, address)
	if err != nil {
		return 0, err
	}
	return account.Amount, nil
}

func (b *Bank) TokenMint(ctx context.Context, address solana.PublicKey) (solana.PublicKey, error) {
	if mint, ok := b.cachedMint(address); ok {
		return mint, nil
	}
	account, err := b.TokenAccount(ctx, address)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return account.Mint, nil
}

func (b *Bank) cachedMint(address solana.PublicKey) (solana.PublicKey, bool) {
	if b.mints == nil {
		return solana.PublicKey{}, false
	}
	return b.mints.CachedMint(address)
}

// hydrateConcurrency bounds parallel loader calls during Hydrate.
const hydrateConcurrency = 8

// Hydrate loads the given accounts through the loader, replacing cached copies.
// Nothing is stored unless every load succeeds.
func (b *Bank) Hydrate(ctx context.Context, addresses []solana.PublicKey) error {
	if b.loader == nil {
		return errors.New("bank has no account loader")
	}
	loaded := make([]*TokenAccount, len(addresses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i, address := range addresses {
		g.Go(func() error {
			account, err := b.loader.LoadTokenAccount(gctx, address)
			if err != nil {
				return fmt.Errorf("failed to hydrate %s: %w", address, err)
			}
			loaded[i] = account
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, account := range loaded {
		b.Put(*account)
	}
	log.Info().Int("accounts", len(addresses)).Msg("[HostBank] hydrated accounts")
	return nil
}

func (b *Bank) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.accounts)
}

// lookup returns a copy of the versioned entry, loading it on first touch.
func (b *Bank) lookup(ctx context.Context, address solana.PublicKey) (versioned, error) {
	b.mu.RLock()
	v, ok := b.accounts[address]
	var out versioned
	if ok {
		out = *v
	}
	b.mu.RUnlock()
	if ok {
		return out, nil
	}

	if b.loader == nil {
		return versioned{}, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	account, err := b.loader.LoadTokenAccount(ctx, address)
	if err != nil {
		return versioned{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.accounts[address]; ok {
		return *v, nil
	}
	loaded := &versioned{account: *account, version: 1}
	b.accounts[address] = loaded
	return *loaded, nil
}

// Begin opens a copy-on-write transaction over the bank.
func (b *Bank) Begin() *Tx {
	return &Tx{
		bank:   b,
		reads:  make(map[solana.PublicKey]uint64),
		writes: make(map[solana.PublicKey]*TokenAccount),
	}
}

// Credit adds amount to an existing account outside any transaction. Open
// transactions that read the account will fail to commit.
func (b *Bank) Credit(address solana.PublicKey, amount uint64) (TokenAccount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.accounts[address]
	if !ok {
		return TokenAccount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if v.account.Amount > ^uint64(0)-amount {
		return TokenAccount{}, fmt.Errorf("%w: %s", ErrBalanceOverflow, address)
	}
	v.account.Amount += amount
	v.version++
	return v.account, nil
}
