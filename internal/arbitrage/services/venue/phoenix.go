package venue

import (
	"context"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
)

const (
	phoenixSwapTag           uint8 = 0
	phoenixImmediateOrCancel uint8 = 2
	phoenixSelfTradeAbort    uint8 = 0
)

type PhoenixSide uint8

const (
	PhoenixBid PhoenixSide = iota
	PhoenixAsk
)

type PhoenixAccounts struct {
	Market       solana.PublicKey `json:"market"`
	LogAuthority solana.PublicKey `json:"logAuthority"`
	Trader       solana.PublicKey `json:"trader"`
	BaseMint     solana.PublicKey `json:"baseMint"`
	QuoteMint    solana.PublicKey `json:"quoteMint"`
	BaseAccount  solana.PublicKey `json:"baseAccount"`
	QuoteAccount solana.PublicKey `json:"quoteAccount"`
	BaseVault    solana.PublicKey `json:"baseVault"`
	QuoteVault   solana.PublicKey `json:"quoteVault"`

	// Atoms per lot on each side of the book.
	BaseLotSize  uint64 `json:"baseLotSize"`
	QuoteLotSize uint64 `json:"quoteLotSize"`
}

// Phoenix sends an immediate-or-cancel order to a Phoenix order book.
// Amounts are converted to lots; the input is rounded down to whole lots and
// the minimum fill is rounded up.
type Phoenix struct {
	base
	accounts PhoenixAccounts
	side     PhoenixSide
}

func NewPhoenix(accounts PhoenixAccounts, outputMint solana.PublicKey, invoker Invoker) (*Phoenix, error) {
	if accounts.BaseLotSize == 0 || accounts.QuoteLotSize == 0 {
		return nil, domain.InvalidInput("phoenix market %s has zero lot size", accounts.Market)
	}
	sellBase, err := direction(domain.VenuePhoenix, accounts.BaseMint, accounts.QuoteMint, outputMint)
	if err != nil {
		return nil, err
	}
	side := PhoenixBid
	leg := Leg{
		UserSource:      accounts.QuoteAccount,
		UserDestination: accounts.BaseAccount,
		PoolSource:      accounts.QuoteVault,
		PoolDestination: accounts.BaseVault,
		Authority:       accounts.Trader,
	}
	if sellBase {
		side = PhoenixAsk
		leg.UserSource, leg.UserDestination = accounts.BaseAccount, accounts.QuoteAccount
		leg.PoolSource, leg.PoolDestination = accounts.BaseVault, accounts.QuoteVault
	}
	return &Phoenix{
		base: base{
			venue:      domain.VenuePhoenix,
			market:     accounts.Market,
			outputMint: outputMint,
			leg:        leg,
			invoker:    invoker,
		},
		accounts: accounts,
		side:     side,
	}, nil
}

type phoenixOrder struct {
	numBaseLots        uint64
	numQuoteLots       uint64
	minBaseLotsToFill  uint64
	minQuoteLotsToFill uint64
	amountInAtoms      uint64
}

func ceilDiv(a, b uint64) uint64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

func (p *Phoenix) order(amountIn, minimumAmountOut uint64) (phoenixOrder, error) {
	a := p.accounts
	var o phoenixOrder
	if p.side == PhoenixAsk {
		o.numBaseLots = amountIn / a.BaseLotSize
		o.minQuoteLotsToFill = ceilDiv(minimumAmountOut, a.QuoteLotSize)
		o.amountInAtoms = o.numBaseLots * a.BaseLotSize
		if o.numBaseLots == 0 {
			return o, domain.InvalidInput("phoenix: amount %d is below one base lot of %d", amountIn, a.BaseLotSize)
		}
		return o, nil
	}
	o.numQuoteLots = amountIn / a.QuoteLotSize
	o.minBaseLotsToFill = ceilDiv(minimumAmountOut, a.BaseLotSize)
	o.amountInAtoms = o.numQuoteLots * a.QuoteLotSize
	if o.numQuoteLots == 0 {
		return o, domain.InvalidInput("phoenix: amount %d is below one quote lot of %d", amountIn, a.QuoteLotSize)
	}
	return o, nil
}

func (p *Phoenix) Instruction(amountIn, minimumAmountOut uint64) (solana.Instruction, uint64, error) {
	o, err := p.order(amountIn, minimumAmountOut)
	if err != nil {
		return nil, 0, err
	}
	data, err := instructionData(nil, func(enc *bin.Encoder) error {
		for _, b := range []uint8{phoenixSwapTag, phoenixImmediateOrCancel, uint8(p.side)} {
			if err := enc.WriteUint8(b); err != nil {
				return err
			}
		}
		// price_in_ticks: None
		if err := enc.WriteUint8(0); err != nil {
			return err
		}
		for _, v := range []uint64{o.numBaseLots, o.numQuoteLots, o.minBaseLotsToFill, o.minQuoteLotsToFill} {
			if err := enc.WriteUint64(v, bin.LE); err != nil {
				return err
			}
		}
		if err := enc.WriteUint8(phoenixSelfTradeAbort); err != nil {
			return err
		}
		// match_limit: None
		if err := enc.WriteUint8(0); err != nil {
			return err
		}
		// client_order_id
		if err := enc.WriteUint128(bin.Uint128{}, bin.LE); err != nil {
			return err
		}
		// use_only_deposited_funds, last_valid_slot: None, last_valid_unix_timestamp: None
		for _, b := range []uint8{0, 0, 0} {
			if err := enc.WriteUint8(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	a := p.accounts
	return solana.NewInstruction(common.PhoenixProgramID, solana.AccountMetaSlice{
		meta(common.PhoenixProgramID, false, false),
		meta(a.LogAuthority, false, false),
		meta(a.Market, true, false),
		meta(a.Trader, false, true),
		meta(a.BaseAccount, true, false),
		meta(a.QuoteAccount, true, false),
		meta(a.BaseVault, true, false),
		meta(a.QuoteVault, true, false),
		meta(common.TokenProgramID, false, false),
	}, data), o.amountInAtoms, nil
}

func (p *Phoenix) Invoke(ctx context.Context, env Env, amountIn, minimumAmountOut uint64) (Report, error) {
	ix, atoms, err := p.Instruction(amountIn, minimumAmountOut)
	if err != nil {
		return Report{}, err
	}
	return p.call(ctx, env, ix, atoms, minimumAmountOut)
}
