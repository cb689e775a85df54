package domain

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestOpenSwapStateRejectsOversizedInput(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	_, err := OpenSwapState(999, 1000, token)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestOpenSwapState(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	state, err := OpenSwapState(1_000_000, 400_000, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.IsValid {
		t.Fatal("expected session to be open")
	}
	if state.SwapInput != 400_000 || state.AmountIn != 400_000 {
		t.Fatalf("unexpected amounts: swapInput=%d amountIn=%d", state.SwapInput, state.AmountIn)
	}
	if state.StartBalance != 1_000_000 {
		t.Fatalf("expected start balance 1000000, got %d", state.StartBalance)
	}
	if !state.CurrentToken.Equals(token) {
		t.Fatal("current token should start at the input token")
	}
}

func TestAdvanceKeepsAmountIn(t *testing.T) {
	input := solana.NewWallet().PublicKey()
	mid := solana.NewWallet().PublicKey()
	state, _ := OpenSwapState(1_000_000, 1_000_000, input)

	if err := state.Advance(1_010_000, mid); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if state.SwapInput != 1_010_000 || !state.CurrentToken.Equals(mid) {
		t.Fatalf("advance not recorded: %+v", state)
	}
	if state.AmountIn != 1_000_000 {
		t.Fatalf("amount in changed to %d", state.AmountIn)
	}
}

func TestAdvanceAfterClose(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	state, _ := OpenSwapState(10, 10, token)
	if _, err := state.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := state.Advance(5, token); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
}

func TestCloseOnce(t *testing.T) {
	input := solana.NewWallet().PublicKey()
	output := solana.NewWallet().PublicKey()
	state, _ := OpenSwapState(100, 80, input)
	_ = state.Advance(120, output)

	snap, err := state.Close()
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if snap.FinalAmount != 120 || snap.AmountIn != 80 || snap.StartBalance != 100 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !snap.FinalToken.Equals(output) || !snap.InputToken.Equals(input) {
		t.Fatalf("unexpected snapshot tokens: %+v", snap)
	}
	if state.IsValid {
		t.Fatal("session still valid after close")
	}
	if _, err := state.Close(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected InvalidState on second close, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	state, _ := OpenSwapState(10, 10, token)
	clone := state.Clone()
	_, _ = clone.Close()
	if !state.IsValid {
		t.Fatal("closing the clone closed the original")
	}
}
