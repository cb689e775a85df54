package blockchain

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/hxuan190/arb-engine/internal/arbitrage/adapters/host"
	"github.com/hxuan190/arb-engine/internal/common"
)

type fakeRPC struct {
	accounts map[solana.PublicKey]*rpc.Account
	calls    int
}

func (f *fakeRPC) GetAccountInfoWithOpts(_ context.Context, account solana.PublicKey, _ *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	f.calls++
	acc, ok := f.accounts[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: acc}, nil
}

func tokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, 165)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	return data
}

func TestParseTokenAccount(t *testing.T) {
	address := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	account, err := ParseTokenAccount(address, tokenAccountData(mint, owner, 123_456_789))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !account.Mint.Equals(mint) || !account.Owner.Equals(owner) || account.Amount != 123_456_789 {
		t.Fatalf("unexpected account: %+v", account)
	}
	if _, err := ParseTokenAccount(address, make([]byte, 71)); err == nil {
		t.Fatal("expected error for short data")
	}
}

func TestLoadTokenAccount(t *testing.T) {
	address := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	foreign := solana.NewWallet().PublicKey()
	client := &fakeRPC{accounts: map[solana.PublicKey]*rpc.Account{
		address: {Owner: common.TokenProgramID, Data: rpc.DataBytesOrJSONFromBytes(tokenAccountData(mint, solana.NewWallet().PublicKey(), 42))},
		foreign: {Owner: common.SystemProgramID, Data: rpc.DataBytesOrJSONFromBytes(make([]byte, 165))},
	}}
	reader, err := NewTokenAccountReader(client, 8)
	if err != nil {
		t.Fatalf("new reader failed: %v", err)
	}

	account, err := reader.LoadTokenAccount(context.Background(), address)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if account.Amount != 42 {
		t.Fatalf("expected amount 42, got %d", account.Amount)
	}

	got, ok := reader.CachedMint(address)
	if !ok || !got.Equals(mint) {
		t.Fatalf("expected cached mint %s, got %s (%v)", mint, got, ok)
	}
	if _, ok := reader.CachedMint(solana.NewWallet().PublicKey()); ok {
		t.Fatal("unseen account must miss the cache")
	}
	if client.calls != 1 {
		t.Fatalf("mint lookup should hit the cache, rpc calls = %d", client.calls)
	}

	if _, err := reader.LoadTokenAccount(context.Background(), foreign); err == nil {
		t.Fatal("expected error for non token account")
	}
	if _, err := reader.LoadTokenAccount(context.Background(), solana.NewWallet().PublicKey()); !errors.Is(err, host.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestReaderFeedsBank(t *testing.T) {
	address := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	client := &fakeRPC{accounts: map[solana.PublicKey]*rpc.Account{
		address: {Owner: common.TokenProgramID, Data: rpc.DataBytesOrJSONFromBytes(tokenAccountData(mint, solana.NewWallet().PublicKey(), 7))},
	}}
	reader, _ := NewTokenAccountReader(client, 0)
	bank := host.NewBank(reader)

	balance, err := bank.TokenBalance(context.Background(), address)
	if err != nil || balance != 7 {
		t.Fatalf("expected balance 7, got %d (%v)", balance, err)
	}
	_, _ = bank.TokenBalance(context.Background(), address)
	if client.calls != 1 {
		t.Fatalf("bank should load once, rpc calls = %d", client.calls)
	}
}

func TestTxTokenMintUsesReaderCache(t *testing.T) {
	ctx := context.Background()
	address := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	client := &fakeRPC{accounts: map[solana.PublicKey]*rpc.Account{
		address: {Owner: common.TokenProgramID, Data: rpc.DataBytesOrJSONFromBytes(tokenAccountData(mint, solana.NewWallet().PublicKey(), 7))},
	}}
	reader, _ := NewTokenAccountReader(client, 0)
	bank := host.NewBank(reader)

	// The first lookup misses the cache and loads the account.
	first := bank.Begin()
	for i := 0; i < 3; i++ {
		got, err := first.TokenMint(ctx, address)
		if err != nil || !got.Equals(mint) {
			t.Fatalf("lookup %d: expected mint %s, got %s (%v)", i, mint, got, err)
		}
	}
	if client.calls != 1 {
		t.Fatalf("expected one rpc call, got %d", client.calls)
	}
	if reader.CacheLen() != 1 {
		t.Fatalf("expected one cached mint, got %d", reader.CacheLen())
	}

	// A cached mint records no read, so a concurrent credit does not conflict.
	second := bank.Begin()
	if _, err := second.TokenMint(ctx, address); err != nil {
		t.Fatalf("cached lookup failed: %v", err)
	}
	if _, err := bank.Credit(address, 1); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := second.Commit(nil); err != nil {
		t.Fatalf("mint-only transaction should commit, got %v", err)
	}
	if err := first.Commit(nil); !errors.Is(err, host.ErrConflict) {
		t.Fatalf("loading transaction read the account and should conflict, got %v", err)
	}
	if mint2, err := bank.TokenMint(ctx, address); err != nil || !mint2.Equals(mint) {
		t.Fatalf("bank mint lookup: got %s (%v)", mint2, err)
	}
	if client.calls != 1 {
		t.Fatalf("cached lookups must not reach rpc, got %d calls", client.calls)
	}
}
