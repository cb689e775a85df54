package venue

import (
	"context"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
)

var lifinitySwapDiscriminator = domain.AnchorDiscriminator("global", "swap")

type LifinityAccounts struct {
	Amm             solana.PublicKey `json:"amm"`
	Authority       solana.PublicKey `json:"authority"`
	MintA           solana.PublicKey `json:"mintA"`
	MintB           solana.PublicKey `json:"mintB"`
	VaultA          solana.PublicKey `json:"vaultA"`
	VaultB          solana.PublicKey `json:"vaultB"`
	UserTokenA      solana.PublicKey `json:"userTokenA"`
	UserTokenB      solana.PublicKey `json:"userTokenB"`
	PoolMint        solana.PublicKey `json:"poolMint"`
	FeeAccount      solana.PublicKey `json:"feeAccount"`
	OracleMain      solana.PublicKey `json:"oracleMain"`
	OracleSub       solana.PublicKey `json:"oracleSub"`
	OraclePc        solana.PublicKey `json:"oraclePc"`
	UserTransferKey solana.PublicKey `json:"userTransferAuthority"`
}

// Lifinity swaps through an oracle-anchored Lifinity v2 pool.
type Lifinity struct {
	base
	accounts LifinityAccounts
}

func NewLifinity(accounts LifinityAccounts, outputMint solana.PublicKey, invoker Invoker) (*Lifinity, error) {
	aToB, err := direction(domain.VenueLifinity, accounts.MintA, accounts.MintB, outputMint)
	if err != nil {
		return nil, err
	}
	leg := Leg{
		UserSource:      accounts.UserTokenA,
		UserDestination: accounts.UserTokenB,
		PoolSource:      accounts.VaultA,
		PoolDestination: accounts.VaultB,
		Authority:       accounts.UserTransferKey,
	}
	if !aToB {
		leg.UserSource, leg.UserDestination = accounts.UserTokenB, accounts.UserTokenA
		leg.PoolSource, leg.PoolDestination = accounts.VaultB, accounts.VaultA
	}
	return &Lifinity{
		base: base{
			venue:      domain.VenueLifinity,
			market:     accounts.Amm,
			outputMint: outputMint,
			leg:        leg,
			invoker:    invoker,
		},
		accounts: accounts,
	}, nil
}

func (l *Lifinity) Instruction(amountIn, minimumAmountOut uint64) (solana.Instruction, error) {
	data, err := instructionData(lifinitySwapDiscriminator[:], func(enc *bin.Encoder) error {
		if err := enc.WriteUint64(amountIn, bin.LE); err != nil {
			return err
		}
		return enc.WriteUint64(minimumAmountOut, bin.LE)
	})
	if err != nil {
		return nil, err
	}

	a := l.accounts
	return solana.NewInstruction(common.LifinityV2ProgramID, solana.AccountMetaSlice{
		meta(a.Authority, false, false),
		meta(a.Amm, true, false),
		meta(a.UserTransferKey, false, true),
		meta(l.leg.UserSource, true, false),
		meta(l.leg.UserDestination, true, false),
		meta(l.leg.PoolSource, true, false),
		meta(l.leg.PoolDestination, true, false),
		meta(a.PoolMint, true, false),
		meta(a.FeeAccount, true, false),
		meta(common.TokenProgramID, false, false),
		meta(a.OracleMain, false, false),
		meta(a.OracleSub, false, false),
		meta(a.OraclePc, false, false),
	}, data), nil
}

func (l *Lifinity) Invoke(ctx context.Context, env Env, amountIn, minimumAmountOut uint64) (Report, error) {
	ix, err := l.Instruction(amountIn, minimumAmountOut)
	if err != nil {
		return Report{}, err
	}
	return l.call(ctx, env, ix, amountIn, minimumAmountOut)
}
