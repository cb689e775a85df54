package venue

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/hxuan190/arb-engine/internal/arbitrage/services/fees"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
)

// ConstantProduct is a paper Invoker: every venue call is filled against an
// x*y=k pool formed by the call's two pool vaults, charging the venue's fee
// rate on the input.
type ConstantProduct struct{}

// QuoteConstantProduct returns reserveOut * in' / (reserveIn + in'), in' being
// amountIn net of feeBps.
func QuoteConstantProduct(reserveIn, reserveOut, amountIn, feeBps uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("pool has no liquidity")
	}
	if feeBps >= fees.BpsDenominator {
		return 0, fmt.Errorf("fee %d bps consumes the whole input", feeBps)
	}
	netIn := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(fees.BpsDenominator-feeBps))
	numerator := new(uint256.Int).Mul(netIn, uint256.NewInt(reserveOut))
	denominator := new(uint256.Int).Mul(uint256.NewInt(reserveIn), uint256.NewInt(fees.BpsDenominator))
	denominator.Add(denominator, netIn)
	out := new(uint256.Int).Div(numerator, denominator)
	if !out.IsUint64() {
		return 0, fmt.Errorf("quote overflows u64")
	}
	return out.Uint64(), nil
}

func (ConstantProduct) Invoke(ctx context.Context, env Env, call *Call) (Report, error) {
	reserveIn, err := env.TokenBalance(ctx, call.Leg.PoolSource)
	if err != nil {
		return Report{}, err
	}
	reserveOut, err := env.TokenBalance(ctx, call.Leg.PoolDestination)
	if err != nil {
		return Report{}, err
	}
	feeBps, err := fees.RateBps(call.Venue)
	if err != nil {
		return Report{}, err
	}
	out, err := QuoteConstantProduct(reserveIn, reserveOut, call.AmountIn, feeBps)
	if err != nil {
		return Report{}, fmt.Errorf("%s paper pool: %w", call.Venue, err)
	}
	if out < call.MinimumAmountOut {
		return Report{}, fmt.Errorf("%w: %s quoted %d, minimum %d", ErrSlippage, call.Venue, out, call.MinimumAmountOut)
	}
	if err := env.Transfer(ctx, call.Leg.UserSource, call.Leg.PoolSource, call.AmountIn); err != nil {
		return Report{}, err
	}
	if err := env.Transfer(ctx, call.Leg.PoolDestination, call.Leg.UserDestination, out); err != nil {
		return Report{}, err
	}
	return Report{AmountOut: out, Reported: true}, nil
}

// PaperPool is a two-mint pool simulated over two vault token accounts.
type PaperPool struct {
	Venue  domain.Venue     `json:"venue"`
	Market solana.PublicKey `json:"market"`
	MintA  solana.PublicKey `json:"mintA"`
	MintB  solana.PublicKey `json:"mintB"`
	VaultA solana.PublicKey `json:"vaultA"`
	VaultB solana.PublicKey `json:"vaultB"`
}

// PaperTrader is the operator side of a paper pool.
type PaperTrader struct {
	Authority solana.PublicKey
	AccountA  solana.PublicKey
	AccountB  solana.PublicKey
}

// BuildPaperAdapters returns the venue adapters trading pool in both
// directions. Venue accounts the simulator does not read are derived from
// the market address.
func BuildPaperAdapters(pool PaperPool, trader PaperTrader, invoker Invoker) ([]Adapter, error) {
	out := make([]Adapter, 0, 2)
	for _, outputMint := range []solana.PublicKey{pool.MintB, pool.MintA} {
		adapter, err := buildPaperAdapter(pool, trader, outputMint, invoker)
		if err != nil {
			return nil, fmt.Errorf("%s paper market %s: %w", pool.Venue, pool.Market, err)
		}
		out = append(out, adapter)
	}
	return out, nil
}

func buildPaperAdapter(pool PaperPool, trader PaperTrader, outputMint solana.PublicKey, invoker Invoker) (Adapter, error) {
	m := pool.Market
	switch pool.Venue {
	case domain.VenueOrca:
		p := common.OrcaWhirlpoolProgramID
		return NewOrca(OrcaAccounts{
			Whirlpool:   m,
			MintA:       pool.MintA,
			MintB:       pool.MintB,
			TokenVaultA: pool.VaultA,
			TokenVaultB: pool.VaultB,
			TokenOwnerA: trader.AccountA,
			TokenOwnerB: trader.AccountB,
			TickArrays:  [3]solana.PublicKey{placeholder("tick_array_0", m, p), placeholder("tick_array_1", m, p), placeholder("tick_array_2", m, p)},
			Oracle:      placeholder("oracle", m, p),
			Authority:   trader.Authority,
		}, outputMint, invoker)
	case domain.VenueRaydium:
		p := common.RaydiumAmmProgramID
		s := common.SerumDexProgramID
		return NewRaydium(RaydiumAccounts{
			Amm:                   m,
			AmmAuthority:          placeholder("amm_authority", m, p),
			AmmOpenOrders:         placeholder("open_orders", m, p),
			AmmTargetOrders:       placeholder("target_orders", m, p),
			CoinMint:              pool.MintA,
			PcMint:                pool.MintB,
			PoolCoinTokenAccount:  pool.VaultA,
			PoolPcTokenAccount:    pool.VaultB,
			SerumMarket:           placeholder("market", m, s),
			SerumBids:             placeholder("bids", m, s),
			SerumAsks:             placeholder("asks", m, s),
			SerumEventQueue:       placeholder("event_queue", m, s),
			SerumCoinVaultAccount: placeholder("coin_vault", m, s),
			SerumPcVaultAccount:   placeholder("pc_vault", m, s),
			SerumVaultSigner:      placeholder("vault_signer", m, s),
			UserCoinTokenAccount:  trader.AccountA,
			UserPcTokenAccount:    trader.AccountB,
			UserSourceOwner:       trader.Authority,
		}, outputMint, invoker)
	case domain.VenueMeteora:
		p := common.MeteoraDlmmProgramID
		return NewMeteora(MeteoraAccounts{
			LbPair:     m,
			ReserveX:   pool.VaultA,
			ReserveY:   pool.VaultB,
			TokenXMint: pool.MintA,
			TokenYMint: pool.MintB,
			UserTokenX: trader.AccountA,
			UserTokenY: trader.AccountB,
			Oracle:     placeholder("oracle", m, p),
			User:       trader.Authority,
			BinArrays:  []solana.PublicKey{placeholder("bin_array", m, p)},
		}, outputMint, invoker)
	case domain.VenuePhoenix:
		return NewPhoenix(PhoenixAccounts{
			Market:       m,
			LogAuthority: placeholder("log", m, common.PhoenixProgramID),
			Trader:       trader.Authority,
			BaseMint:     pool.MintA,
			QuoteMint:    pool.MintB,
			BaseAccount:  trader.AccountA,
			QuoteAccount: trader.AccountB,
			BaseVault:    pool.VaultA,
			QuoteVault:   pool.VaultB,
			BaseLotSize:  1,
			QuoteLotSize: 1,
		}, outputMint, invoker)
	case domain.VenueLifinity:
		p := common.LifinityV2ProgramID
		return NewLifinity(LifinityAccounts{
			Amm:             m,
			Authority:       placeholder("authority", m, p),
			MintA:           pool.MintA,
			MintB:           pool.MintB,
			VaultA:          pool.VaultA,
			VaultB:          pool.VaultB,
			UserTokenA:      trader.AccountA,
			UserTokenB:      trader.AccountB,
			PoolMint:        placeholder("pool_mint", m, p),
			FeeAccount:      placeholder("fee", m, p),
			OracleMain:      placeholder("oracle_main", m, p),
			OracleSub:       placeholder("oracle_sub", m, p),
			OraclePc:        placeholder("oracle_pc", m, p),
			UserTransferKey: trader.Authority,
		}, outputMint, invoker)
	case domain.VenueJupiter:
		accounts := JupiterAccounts{
			ProgramAuthority:               m,
			UserTransferAuthority:          trader.Authority,
			SourceMint:                     pool.MintA,
			DestinationMint:                pool.MintB,
			SourceTokenAccount:             trader.AccountA,
			DestinationTokenAccount:        trader.AccountB,
			ProgramSourceTokenAccount:      pool.VaultA,
			ProgramDestinationTokenAccount: pool.VaultB,
		}
		if outputMint.Equals(pool.MintA) {
			accounts.SourceMint, accounts.DestinationMint = pool.MintB, pool.MintA
			accounts.SourceTokenAccount, accounts.DestinationTokenAccount = trader.AccountB, trader.AccountA
			accounts.ProgramSourceTokenAccount, accounts.ProgramDestinationTokenAccount = pool.VaultB, pool.VaultA
		}
		return NewJupiter(accounts, invoker)
	default:
		return nil, domain.InvalidInput("unknown venue tag %d", uint8(pool.Venue))
	}
}
