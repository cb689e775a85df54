package venue

import (
	"context"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
)

var (
	orcaSwapDiscriminator = domain.AnchorDiscriminator("global", "swap")

	// Whirlpool sqrt price bounds, used as "no limit" in the swap direction.
	orcaMinSqrtPrice = bin.Uint128{Lo: 4295048016, Hi: 0}
	orcaMaxSqrtPrice = bin.Uint128{Lo: 3871828160200520623, Hi: 4294886577}
)

type OrcaAccounts struct {
	Whirlpool   solana.PublicKey    `json:"whirlpool"`
	MintA       solana.PublicKey    `json:"mintA"`
	MintB       solana.PublicKey    `json:"mintB"`
	TokenVaultA solana.PublicKey    `json:"tokenVaultA"`
	TokenVaultB solana.PublicKey    `json:"tokenVaultB"`
	TokenOwnerA solana.PublicKey    `json:"tokenOwnerA"`
	TokenOwnerB solana.PublicKey    `json:"tokenOwnerB"`
	TickArrays  [3]solana.PublicKey `json:"tickArrays"`
	Oracle      solana.PublicKey    `json:"oracle"`
	Authority   solana.PublicKey    `json:"authority"`
}

// Orca swaps through a Whirlpool. The program returns nothing about the
// amount delivered.
type Orca struct {
	base
	accounts OrcaAccounts
	aToB     bool
}

func NewOrca(accounts OrcaAccounts, outputMint solana.PublicKey, invoker Invoker) (*Orca, error) {
	aToB, err := direction(domain.VenueOrca, accounts.MintA, accounts.MintB, outputMint)
	if err != nil {
		return nil, err
	}
	leg := Leg{
		UserSource:      accounts.TokenOwnerA,
		UserDestination: accounts.TokenOwnerB,
		PoolSource:      accounts.TokenVaultA,
		PoolDestination: accounts.TokenVaultB,
		Authority:       accounts.Authority,
	}
	if !aToB {
		leg.UserSource, leg.UserDestination = accounts.TokenOwnerB, accounts.TokenOwnerA
		leg.PoolSource, leg.PoolDestination = accounts.TokenVaultB, accounts.TokenVaultA
	}
	return &Orca{
		base: base{
			venue:      domain.VenueOrca,
			market:     accounts.Whirlpool,
			outputMint: outputMint,
			leg:        leg,
			invoker:    invoker,
		},
		accounts: accounts,
		aToB:     aToB,
	}, nil
}

func (o *Orca) Instruction(amountIn, minimumAmountOut uint64) (solana.Instruction, error) {
	limit := orcaMaxSqrtPrice
	if o.aToB {
		limit = orcaMinSqrtPrice
	}
	data, err := instructionData(orcaSwapDiscriminator[:], func(enc *bin.Encoder) error {
		if err := enc.WriteUint64(amountIn, bin.LE); err != nil {
			return err
		}
		if err := enc.WriteUint64(minimumAmountOut, bin.LE); err != nil {
			return err
		}
		if err := enc.WriteUint128(limit, bin.LE); err != nil {
			return err
		}
		if err := enc.WriteBool(true); err != nil {
			return err
		}
		return enc.WriteBool(o.aToB)
	})
	if err != nil {
		return nil, err
	}

	a := o.accounts
	return solana.NewInstruction(common.OrcaWhirlpoolProgramID, solana.AccountMetaSlice{
		meta(common.TokenProgramID, false, false),
		meta(a.Authority, false, true),
		meta(a.Whirlpool, true, false),
		meta(a.TokenOwnerA, true, false),
		meta(a.TokenVaultA, true, false),
		meta(a.TokenOwnerB, true, false),
		meta(a.TokenVaultB, true, false),
		meta(a.TickArrays[0], true, false),
		meta(a.TickArrays[1], true, false),
		meta(a.TickArrays[2], true, false),
		meta(a.Oracle, false, false),
	}, data), nil
}

func (o *Orca) Invoke(ctx context.Context, env Env, amountIn, minimumAmountOut uint64) (Report, error) {
	ix, err := o.Instruction(amountIn, minimumAmountOut)
	if err != nil {
		return Report{}, err
	}
	return o.call(ctx, env, ix, amountIn, minimumAmountOut)
}
