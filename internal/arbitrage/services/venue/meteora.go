package venue

import (
	"context"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
)

var meteoraSwapDiscriminator = domain.AnchorDiscriminator("global", "swap")

type MeteoraAccounts struct {
	LbPair                  solana.PublicKey   `json:"lbPair"`
	BinArrayBitmapExtension solana.PublicKey   `json:"binArrayBitmapExtension,omitempty"`
	ReserveX                solana.PublicKey   `json:"reserveX"`
	ReserveY                solana.PublicKey   `json:"reserveY"`
	TokenXMint              solana.PublicKey   `json:"tokenXMint"`
	TokenYMint              solana.PublicKey   `json:"tokenYMint"`
	UserTokenX              solana.PublicKey   `json:"userTokenX"`
	UserTokenY              solana.PublicKey   `json:"userTokenY"`
	Oracle                  solana.PublicKey   `json:"oracle"`
	User                    solana.PublicKey   `json:"user"`
	BinArrays               []solana.PublicKey `json:"binArrays"`
}

// Meteora swaps through a DLMM pair, walking the supplied bin arrays.
type Meteora struct {
	base
	accounts       MeteoraAccounts
	swapForY       bool
	eventAuthority solana.PublicKey
}

func NewMeteora(accounts MeteoraAccounts, outputMint solana.PublicKey, invoker Invoker) (*Meteora, error) {
	swapForY, err := direction(domain.VenueMeteora, accounts.TokenXMint, accounts.TokenYMint, outputMint)
	if err != nil {
		return nil, err
	}
	if len(accounts.BinArrays) == 0 {
		return nil, domain.InvalidInput("meteora pair %s needs at least one bin array", accounts.LbPair)
	}
	leg := Leg{
		UserSource:      accounts.UserTokenX,
		UserDestination: accounts.UserTokenY,
		PoolSource:      accounts.ReserveX,
		PoolDestination: accounts.ReserveY,
		Authority:       accounts.User,
	}
	if !swapForY {
		leg.UserSource, leg.UserDestination = accounts.UserTokenY, accounts.UserTokenX
		leg.PoolSource, leg.PoolDestination = accounts.ReserveY, accounts.ReserveX
	}
	eventAuthority, _, err := solana.FindProgramAddress([][]byte{[]byte(common.EventAuthoritySeed)}, common.MeteoraDlmmProgramID)
	if err != nil {
		return nil, err
	}
	return &Meteora{
		base: base{
			venue:      domain.VenueMeteora,
			market:     accounts.LbPair,
			outputMint: outputMint,
			leg:        leg,
			invoker:    invoker,
		},
		accounts:       accounts,
		swapForY:       swapForY,
		eventAuthority: eventAuthority,
	}, nil
}

func (m *Meteora) Instruction(amountIn, minimumAmountOut uint64) (solana.Instruction, error) {
	data, err := instructionData(meteoraSwapDiscriminator[:], func(enc *bin.Encoder) error {
		if err := enc.WriteUint64(amountIn, bin.LE); err != nil {
			return err
		}
		return enc.WriteUint64(minimumAmountOut, bin.LE)
	})
	if err != nil {
		return nil, err
	}

	a := m.accounts
	// Optional accounts are passed as the program ID.
	bitmap := a.BinArrayBitmapExtension
	if bitmap.IsZero() {
		bitmap = common.MeteoraDlmmProgramID
	}
	accounts := solana.AccountMetaSlice{
		meta(a.LbPair, true, false),
		meta(bitmap, false, false),
		meta(a.ReserveX, true, false),
		meta(a.ReserveY, true, false),
		meta(m.leg.UserSource, true, false),
		meta(m.leg.UserDestination, true, false),
		meta(a.TokenXMint, false, false),
		meta(a.TokenYMint, false, false),
		meta(a.Oracle, true, false),
		meta(common.MeteoraDlmmProgramID, false, false),
		meta(a.User, false, true),
		meta(common.TokenProgramID, false, false),
		meta(common.TokenProgramID, false, false),
		meta(m.eventAuthority, false, false),
		meta(common.MeteoraDlmmProgramID, false, false),
	}
	for _, binArray := range a.BinArrays {
		accounts = append(accounts, meta(binArray, true, false))
	}
	return solana.NewInstruction(common.MeteoraDlmmProgramID, accounts, data), nil
}

func (m *Meteora) Invoke(ctx context.Context, env Env, amountIn, minimumAmountOut uint64) (Report, error) {
	ix, err := m.Instruction(amountIn, minimumAmountOut)
	if err != nil {
		return Report{}, err
	}
	return m.call(ctx, env, ix, amountIn, minimumAmountOut)
}
