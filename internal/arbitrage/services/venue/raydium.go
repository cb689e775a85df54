package venue

import (
	"context"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
)

const raydiumSwapBaseIn uint8 = 9

type RaydiumAccounts struct {
	Amm                   solana.PublicKey `json:"amm"`
	AmmAuthority          solana.PublicKey `json:"ammAuthority"`
	AmmOpenOrders         solana.PublicKey `json:"ammOpenOrders"`
	AmmTargetOrders       solana.PublicKey `json:"ammTargetOrders"`
	CoinMint              solana.PublicKey `json:"coinMint"`
	PcMint                solana.PublicKey `json:"pcMint"`
	PoolCoinTokenAccount  solana.PublicKey `json:"poolCoinTokenAccount"`
	PoolPcTokenAccount    solana.PublicKey `json:"poolPcTokenAccount"`
	SerumMarket           solana.PublicKey `json:"serumMarket"`
	SerumBids             solana.PublicKey `json:"serumBids"`
	SerumAsks             solana.PublicKey `json:"serumAsks"`
	SerumEventQueue       solana.PublicKey `json:"serumEventQueue"`
	SerumCoinVaultAccount solana.PublicKey `json:"serumCoinVaultAccount"`
	SerumPcVaultAccount   solana.PublicKey `json:"serumPcVaultAccount"`
	SerumVaultSigner      solana.PublicKey `json:"serumVaultSigner"`
	UserCoinTokenAccount  solana.PublicKey `json:"userCoinTokenAccount"`
	UserPcTokenAccount    solana.PublicKey `json:"userPcTokenAccount"`
	UserSourceOwner       solana.PublicKey `json:"userSourceOwner"`
}

// Raydium swaps through an AMM v4 pool backed by a Serum market.
type Raydium struct {
	base
	accounts RaydiumAccounts
}

func NewRaydium(accounts RaydiumAccounts, outputMint solana.PublicKey, invoker Invoker) (*Raydium, error) {
	coinToPc, err := direction(domain.VenueRaydium, accounts.CoinMint, accounts.PcMint, outputMint)
	if err != nil {
		return nil, err
	}
	leg := Leg{
		UserSource:      accounts.UserCoinTokenAccount,
		UserDestination: accounts.UserPcTokenAccount,
		PoolSource:      accounts.PoolCoinTokenAccount,
		PoolDestination: accounts.PoolPcTokenAccount,
		Authority:       accounts.UserSourceOwner,
	}
	if !coinToPc {
		leg.UserSource, leg.UserDestination = accounts.UserPcTokenAccount, accounts.UserCoinTokenAccount
		leg.PoolSource, leg.PoolDestination = accounts.PoolPcTokenAccount, accounts.PoolCoinTokenAccount
	}
	return &Raydium{
		base: base{
			venue:      domain.VenueRaydium,
			market:     accounts.Amm,
			outputMint: outputMint,
			leg:        leg,
			invoker:    invoker,
		},
		accounts: accounts,
	}, nil
}

func (r *Raydium) Instruction(amountIn, minimumAmountOut uint64) (solana.Instruction, error) {
	data, err := instructionData(nil, func(enc *bin.Encoder) error {
		if err := enc.WriteUint8(raydiumSwapBaseIn); err != nil {
			return err
		}
		if err := enc.WriteUint64(amountIn, bin.LE); err != nil {
			return err
		}
		return enc.WriteUint64(minimumAmountOut, bin.LE)
	})
	if err != nil {
		return nil, err
	}

	a := r.accounts
	return solana.NewInstruction(common.RaydiumAmmProgramID, solana.AccountMetaSlice{
		meta(common.TokenProgramID, false, false),
		meta(a.Amm, true, false),
		meta(a.AmmAuthority, false, false),
		meta(a.AmmOpenOrders, true, false),
		meta(a.AmmTargetOrders, true, false),
		meta(a.PoolCoinTokenAccount, true, false),
		meta(a.PoolPcTokenAccount, true, false),
		meta(common.SerumDexProgramID, false, false),
		meta(a.SerumMarket, true, false),
		meta(a.SerumBids, true, false),
		meta(a.SerumAsks, true, false),
		meta(a.SerumEventQueue, true, false),
		meta(a.SerumCoinVaultAccount, true, false),
		meta(a.SerumPcVaultAccount, true, false),
		meta(a.SerumVaultSigner, false, false),
		meta(r.leg.UserSource, true, false),
		meta(r.leg.UserDestination, true, false),
		meta(a.UserSourceOwner, false, true),
	}, data), nil
}

func (r *Raydium) Invoke(ctx context.Context, env Env, amountIn, minimumAmountOut uint64) (Report, error) {
	ix, err := r.Instruction(amountIn, minimumAmountOut)
	if err != nil {
		return Report{}, err
	}
	return r.call(ctx, env, ix, amountIn, minimumAmountOut)
}
