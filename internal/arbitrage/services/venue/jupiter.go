package venue

import (
	"context"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
)

var jupiterSharedRouteDiscriminator = domain.AnchorDiscriminator("global", "shared_accounts_route")

type JupiterAccounts struct {
	ProgramAuthority               solana.PublicKey `json:"programAuthority"`
	UserTransferAuthority          solana.PublicKey `json:"userTransferAuthority"`
	SourceMint                     solana.PublicKey `json:"sourceMint"`
	DestinationMint                solana.PublicKey `json:"destinationMint"`
	SourceTokenAccount             solana.PublicKey `json:"sourceTokenAccount"`
	DestinationTokenAccount        solana.PublicKey `json:"destinationTokenAccount"`
	ProgramSourceTokenAccount      solana.PublicKey `json:"programSourceTokenAccount"`
	ProgramDestinationTokenAccount solana.PublicKey `json:"programDestinationTokenAccount"`

	// RouteID and RoutePlan are produced by the Jupiter quote API. RoutePlan is
	// the borsh-encoded Vec<RoutePlanStep> and is passed through untouched.
	RouteID   uint8                 `json:"routeId"`
	RoutePlan []byte                `json:"routePlan"`
	Remaining []*solana.AccountMeta `json:"-"`
}

// Jupiter executes a pre-quoted aggregator route through shared accounts.
// Quoted output is pinned to the hop's minimum with zero slippage, so the
// aggregator enforces the same floor.
type Jupiter struct {
	base
	accounts       JupiterAccounts
	eventAuthority solana.PublicKey
}

func NewJupiter(accounts JupiterAccounts, invoker Invoker) (*Jupiter, error) {
	if accounts.SourceMint.Equals(accounts.DestinationMint) {
		return nil, domain.InvalidInput("jupiter route %d swaps %s into itself", accounts.RouteID, accounts.SourceMint)
	}
	eventAuthority, _, err := solana.FindProgramAddress([][]byte{[]byte(common.EventAuthoritySeed)}, common.JupiterV6ProgramID)
	if err != nil {
		return nil, err
	}
	return &Jupiter{
		base: base{
			venue:      domain.VenueJupiter,
			market:     accounts.ProgramAuthority,
			outputMint: accounts.DestinationMint,
			leg: Leg{
				UserSource:      accounts.SourceTokenAccount,
				UserDestination: accounts.DestinationTokenAccount,
				PoolSource:      accounts.ProgramSourceTokenAccount,
				PoolDestination: accounts.ProgramDestinationTokenAccount,
				Authority:       accounts.UserTransferAuthority,
			},
			invoker: invoker,
		},
		accounts:       accounts,
		eventAuthority: eventAuthority,
	}, nil
}

func (j *Jupiter) Instruction(amountIn, minimumAmountOut uint64) (solana.Instruction, error) {
	data, err := instructionData(jupiterSharedRouteDiscriminator[:], func(enc *bin.Encoder) error {
		if err := enc.WriteUint8(j.accounts.RouteID); err != nil {
			return err
		}
		if len(j.accounts.RoutePlan) == 0 {
			// empty Vec<RoutePlanStep>
			if err := enc.WriteUint32(0, bin.LE); err != nil {
				return err
			}
		} else if err := enc.WriteBytes(j.accounts.RoutePlan, false); err != nil {
			return err
		}
		if err := enc.WriteUint64(amountIn, bin.LE); err != nil {
			return err
		}
		if err := enc.WriteUint64(minimumAmountOut, bin.LE); err != nil {
			return err
		}
		// slippage_bps
		if err := enc.WriteUint16(0, bin.LE); err != nil {
			return err
		}
		// platform_fee_bps
		return enc.WriteUint8(0)
	})
	if err != nil {
		return nil, err
	}

	a := j.accounts
	accounts := solana.AccountMetaSlice{
		meta(common.TokenProgramID, false, false),
		meta(a.ProgramAuthority, false, false),
		meta(a.UserTransferAuthority, false, true),
		meta(a.SourceTokenAccount, true, false),
		meta(a.ProgramSourceTokenAccount, true, false),
		meta(a.ProgramDestinationTokenAccount, true, false),
		meta(a.DestinationTokenAccount, true, false),
		meta(a.SourceMint, false, false),
		meta(a.DestinationMint, false, false),
		meta(common.JupiterV6ProgramID, false, false),
		meta(common.JupiterV6ProgramID, false, false),
		meta(j.eventAuthority, false, false),
		meta(common.JupiterV6ProgramID, false, false),
	}
	accounts = append(accounts, a.Remaining...)
	return solana.NewInstruction(common.JupiterV6ProgramID, accounts, data), nil
}

func (j *Jupiter) Invoke(ctx context.Context, env Env, amountIn, minimumAmountOut uint64) (Report, error) {
	ix, err := j.Instruction(amountIn, minimumAmountOut)
	if err != nil {
		return Report{}, err
	}
	return j.call(ctx, env, ix, amountIn, minimumAmountOut)
}
