package host

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func newTestAccount(mint solana.PublicKey, amount uint64) TokenAccount {
	return TokenAccount{
		Address: solana.NewWallet().PublicKey(),
		Mint:    mint,
		Owner:   solana.NewWallet().PublicKey(),
		Amount:  amount,
	}
}

func TestTransferCommit(t *testing.T) {
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	a := newTestAccount(mint, 100)
	b := newTestAccount(mint, 5)
	bank := NewBank(nil)
	bank.Put(a)
	bank.Put(b)

	tx := bank.Begin()
	if err := tx.Transfer(ctx, a.Address, b.Address, 40); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got, _ := bank.TokenBalance(ctx, a.Address); got != 100 {
		t.Fatalf("staged write leaked into bank: %d", got)
	}
	if got, _ := tx.TokenBalance(ctx, b.Address); got != 45 {
		t.Fatalf("expected staged 45, got %d", got)
	}
	if err := tx.Commit(nil); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if got, _ := bank.TokenBalance(ctx, a.Address); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	if got, _ := bank.TokenBalance(ctx, b.Address); got != 45 {
		t.Fatalf("expected 45, got %d", got)
	}
}

func TestRollbackDiscards(t *testing.T) {
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	a := newTestAccount(mint, 100)
	b := newTestAccount(mint, 0)
	bank := NewBank(nil)
	bank.Put(a)
	bank.Put(b)

	tx := bank.Begin()
	if err := tx.Transfer(ctx, a.Address, b.Address, 100); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	tx.Rollback()

	if got, _ := bank.TokenBalance(ctx, a.Address); got != 100 {
		t.Fatalf("expected 100 after rollback, got %d", got)
	}
	if err := tx.Commit(nil); !errors.Is(err, ErrTxDone) {
		t.Fatalf("expected ErrTxDone, got %v", err)
	}
}

func TestCommitCallbackFailureAppliesNothing(t *testing.T) {
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	a := newTestAccount(mint, 10)
	b := newTestAccount(mint, 0)
	bank := NewBank(nil)
	bank.Put(a)
	bank.Put(b)

	tx := bank.Begin()
	_ = tx.Transfer(ctx, a.Address, b.Address, 10)
	boom := errors.New("persist failed")
	if err := tx.Commit(func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if got, _ := bank.TokenBalance(ctx, b.Address); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestCommitConflict(t *testing.T) {
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	a := newTestAccount(mint, 10)
	b := newTestAccount(mint, 0)
	bank := NewBank(nil)
	bank.Put(a)
	bank.Put(b)

	first := bank.Begin()
	second := bank.Begin()
	_ = first.Transfer(ctx, a.Address, b.Address, 10)
	_ = second.Transfer(ctx, a.Address, b.Address, 10)

	if err := first.Commit(nil); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	if err := second.Commit(nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if got, _ := bank.TokenBalance(ctx, b.Address); got != 10 {
		t.Fatalf("double spend: %d", got)
	}
}

func TestTransferGuards(t *testing.T) {
	ctx := context.Background()
	a := newTestAccount(solana.NewWallet().PublicKey(), 10)
	b := newTestAccount(solana.NewWallet().PublicKey(), 0)
	c := newTestAccount(a.Mint, 0)
	bank := NewBank(nil)
	bank.Put(a)
	bank.Put(b)
	bank.Put(c)

	tx := bank.Begin()
	if err := tx.Transfer(ctx, a.Address, b.Address, 1); !errors.Is(err, ErrMintMismatch) {
		t.Fatalf("expected ErrMintMismatch, got %v", err)
	}
	if err := tx.Transfer(ctx, a.Address, c.Address, 11); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := tx.TokenBalance(ctx, solana.NewWallet().PublicKey()); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

type stubLoader struct {
	calls    atomic.Int32
	accounts map[solana.PublicKey]TokenAccount
}

func (l *stubLoader) LoadTokenAccount(_ context.Context, address solana.PublicKey) (*TokenAccount, error) {
	l.calls.Add(1)
	account, ok := l.accounts[address]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func TestLoaderOnFirstTouch(t *testing.T) {
	ctx := context.Background()
	a := newTestAccount(solana.NewWallet().PublicKey(), 77)
	loader := &stubLoader{accounts: map[solana.PublicKey]TokenAccount{a.Address: a}}
	bank := NewBank(loader)

	for i := 0; i < 3; i++ {
		got, err := bank.TokenBalance(ctx, a.Address)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 77 {
			t.Fatalf("expected 77, got %d", got)
		}
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected one load, got %d", loader.calls.Load())
	}
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	loader := &stubLoader{accounts: make(map[solana.PublicKey]TokenAccount)}
	addresses := make([]solana.PublicKey, 20)
	for i := range addresses {
		a := newTestAccount(mint, uint64(i))
		loader.accounts[a.Address] = a
		addresses[i] = a.Address
	}
	bank := NewBank(loader)

	if err := bank.Hydrate(ctx, addresses); err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if bank.Size() != len(addresses) {
		t.Fatalf("expected %d accounts, got %d", len(addresses), bank.Size())
	}
	if got, _ := bank.TokenBalance(ctx, addresses[7]); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}

	missing := append([]solana.PublicKey{solana.NewWallet().PublicKey()}, addresses...)
	fresh := NewBank(loader)
	if err := fresh.Hydrate(ctx, missing); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if fresh.Size() != 0 {
		t.Fatalf("failed hydrate stored %d accounts", fresh.Size())
	}
	if err := NewBank(nil).Hydrate(ctx, addresses); err == nil {
		t.Fatal("expected error without loader")
	}
}

func TestCreditInvalidatesOpenTx(t *testing.T) {
	ctx := context.Background()
	bank := NewBank(nil)
	mint := solana.NewWallet().PublicKey()
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	bank.Put(TokenAccount{Address: a, Mint: mint, Amount: 10})
	bank.Put(TokenAccount{Address: b, Mint: mint})

	tx := bank.Begin()
	if err := tx.Transfer(ctx, a, b, 5); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	account, err := bank.Credit(a, 90)
	if err != nil || account.Amount != 100 {
		t.Fatalf("expected credited balance 100, got %d (%v)", account.Amount, err)
	}
	if err := tx.Commit(nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := bank.Credit(a, ^uint64(0)); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected ErrBalanceOverflow, got %v", err)
	}
	if _, err := bank.Credit(solana.NewWallet().PublicKey(), 1); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
