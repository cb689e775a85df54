package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// SwapState is the session record of one in-flight arbitrage attempt.
type SwapState struct {
	Address       solana.PublicKey `json:"address"`
	Owner         solana.PublicKey `json:"owner"`
	Nonce         uint64           `json:"nonce"`
	SourceAccount solana.PublicKey `json:"sourceAccount"`
	InputToken    solana.PublicKey `json:"inputToken"`
	CurrentToken  solana.PublicKey `json:"currentToken"`
	StartBalance  uint64           `json:"startBalance"`

	// AmountIn is the requested input at open and never changes afterwards.
	// Fees and the emitted amount_in are computed from it.
	AmountIn uint64 `json:"amountIn"`

	// SwapInput feeds the next hop; each hop overwrites it with its realized output.
	SwapInput uint64 `json:"swapInput"`

	IsValid  bool      `json:"isValid"`
	OpenedAt time.Time `json:"openedAt"`
}

// SessionSnapshot is what Close hands to the profit gate.
type SessionSnapshot struct {
	InputToken   solana.PublicKey
	FinalToken   solana.PublicKey
	StartBalance uint64
	AmountIn     uint64
	FinalAmount  uint64
}

// OpenSwapState starts a session over a source token account holding sourceBalance.
func OpenSwapState(sourceBalance, requestedInput uint64, sourceToken solana.PublicKey) (*SwapState, error) {
	if requestedInput > sourceBalance {
		return nil, InvalidInput("requested input %d exceeds source balance %d", requestedInput, sourceBalance)
	}
	return &SwapState{
		InputToken:   sourceToken,
		CurrentToken: sourceToken,
		StartBalance: sourceBalance,
		AmountIn:     requestedInput,
		SwapInput:    requestedInput,
		IsValid:      true,
		OpenedAt:     time.Now().UTC(),
	}, nil
}

// Advance records the realized output of a hop as the next hop's input.
func (s *SwapState) Advance(realizedOut uint64, newToken solana.PublicKey) error {
	if !s.IsValid {
		return InvalidState("session %s is closed", s.Address)
	}
	s.SwapInput = realizedOut
	s.CurrentToken = newToken
	return nil
}

// Close invalidates the session exactly once.
func (s *SwapState) Close() (SessionSnapshot, error) {
	if !s.IsValid {
		return SessionSnapshot{}, InvalidState("session %s already closed", s.Address)
	}
	s.IsValid = false
	return SessionSnapshot{
		InputToken:   s.InputToken,
		FinalToken:   s.CurrentToken,
		StartBalance: s.StartBalance,
		AmountIn:     s.AmountIn,
		FinalAmount:  s.SwapInput,
	}, nil
}

func (s *SwapState) Clone() *SwapState {
	c := *s
	return &c
}
