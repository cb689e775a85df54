// Package venue puts every supported exchange behind one swap contract and
// measures what each hop actually delivered from balance deltas.
package venue

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/arb-engine/internal/domain"
)

// ErrSlippage is returned by venue clients whose own minimum-output check failed.
var ErrSlippage = errors.New("venue minimum output not met")

// Env is the token-account view a hop runs against. host.Tx satisfies it.
type Env interface {
	TokenBalance(ctx context.Context, address solana.PublicKey) (uint64, error)
	TokenMint(ctx context.Context, address solana.PublicKey) (solana.PublicKey, error)
	Transfer(ctx context.Context, from, to solana.PublicKey, amount uint64) error
}

// Report is what a venue says it delivered. It is informational only.
type Report struct {
	AmountOut uint64
	Reported  bool
}

// Leg is the token movement every venue call performs: user source into the
// pool's input vault, pool output vault into the user destination.
type Leg struct {
	UserSource      solana.PublicKey `json:"userSource"`
	UserDestination solana.PublicKey `json:"userDestination"`
	PoolSource      solana.PublicKey `json:"poolSource"`
	PoolDestination solana.PublicKey `json:"poolDestination"`
	Authority       solana.PublicKey `json:"authority"`
}

// Call is one fully encoded venue invocation.
type Call struct {
	Venue            domain.Venue
	Instruction      solana.Instruction
	Leg              Leg
	AmountIn         uint64
	MinimumAmountOut uint64
}

// Invoker executes encoded venue calls. On chain this is the cross-program
// invoke; in paper mode it is a pool simulator.
type Invoker interface {
	Invoke(ctx context.Context, env Env, call *Call) (Report, error)
}

// Adapter is the uniform swap contract over one venue market and direction.
type Adapter interface {
	Venue() domain.Venue
	Market() solana.PublicKey
	OutputMint() solana.PublicKey
	SourceAccount() solana.PublicKey
	DestinationAccount() solana.PublicKey
	Invoke(ctx context.Context, env Env, amountIn, minimumAmountOut uint64) (Report, error)
}

// base carries the fields every venue adapter shares.
type base struct {
	venue      domain.Venue
	market     solana.PublicKey
	outputMint solana.PublicKey
	leg        Leg
	invoker    Invoker
}

func (b *base) Venue() domain.Venue {
	return b.venue
}

func (b *base) Market() solana.PublicKey {
	return b.market
}

func (b *base) OutputMint() solana.PublicKey {
	return b.outputMint
}

func (b *base) SourceAccount() solana.PublicKey {
	return b.leg.UserSource
}

func (b *base) DestinationAccount() solana.PublicKey {
	return b.leg.UserDestination
}

func (b *base) call(ctx context.Context, env Env, ix solana.Instruction, amountIn, minOut uint64) (Report, error) {
	return b.invoker.Invoke(ctx, env, &Call{
		Venue:            b.venue,
		Instruction:      ix,
		Leg:              b.leg,
		AmountIn:         amountIn,
		MinimumAmountOut: minOut,
	})
}

func meta(key solana.PublicKey, writable, signer bool) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: key, IsWritable: writable, IsSigner: signer}
}
