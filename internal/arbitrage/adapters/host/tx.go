package host

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Tx stages writes over a Bank. It is owned by a single attempt and is not
// safe for concurrent use.
type Tx struct {
	bank   *Bank
	reads  map[solana.PublicKey]uint64
	writes map[solana.PublicKey]*TokenAccount
	done   bool
}

func (tx *Tx) TokenAccount(ctx context.Context, address solana.PublicKey) (TokenAccount, error) {
	if tx.done {
		return TokenAccount{}, ErrTxDone
	}
	if staged, ok := tx.writes[address]; ok {
		return *staged, nil
	}
	v, err := tx.bank.lookup(ctx, address)
	if err != nil {
		return TokenAccount{}, err
	}
	if _, seen := tx.reads[address]; !seen {
		tx.reads[address] = v.version
	}
	return v.account, nil
}

func (tx *Tx) TokenBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	account, err := tx.TokenAccount(ctx, address)
	if err != nil {
		return 0, err
	}
	return account.Amount, nil
}

func (tx *Tx) TokenMint(ctx context.Context, address solana.PublicKey) (solana.PublicKey, error) {
	if tx.done {
		return solana.PublicKey{}, ErrTxDone
	}
	if staged, ok := tx.writes[address]; ok {
		return staged.Mint, nil
	}
	if mint, ok := tx.bank.cachedMint(address); ok {
		return mint, nil
	}
	account, err := tx.TokenAccount(ctx, address)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return account.Mint, nil
}

// Transfer moves amount between two accounts of the same mint.
func (tx *Tx) Transfer(ctx context.Context, from, to solana.PublicKey, amount uint64) error {
	src, err := tx.TokenAccount(ctx, from)
	if err != nil {
		return err
	}
	dst, err := tx.TokenAccount(ctx, to)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("%w: %s -> %s", ErrMintMismatch, src.Mint, dst.Mint)
	}
	if from.Equals(to) {
		return nil
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from, src.Amount, amount)
	}
	credited := dst.Amount + amount
	if credited < dst.Amount {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}
	src.Amount -= amount
	dst.Amount = credited
	tx.writes[from] = &src
	tx.writes[to] = &dst
	return nil
}

// Commit validates that nothing this transaction read has changed, runs fn
// and applies the staged writes only if fn succeeds. The bank stays locked
// for the whole sequence.
func (tx *Tx) Commit(fn func() error) error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true

	b := tx.bank
	b.mu.Lock()
	defer b.mu.Unlock()

	for address, version := range tx.reads {
		current, ok := b.accounts[address]
		if !ok || current.version != version {
			return fmt.Errorf("%w: %s", ErrConflict, address)
		}
	}

	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}

	for address, staged := range tx.writes {
		if current, ok := b.accounts[address]; ok {
			current.account = *staged
			current.version++
			continue
		}
		b.accounts[address] = &versioned{account: *staged, version: 1}
	}
	return nil
}

// Rollback discards staged writes. Safe to call after Commit.
func (tx *Tx) Rollback() {
	tx.done = true
	tx.writes = nil
}
