package venue

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
)

func TestBuildPaperAdaptersEveryVenue(t *testing.T) {
	for _, v := range domain.AllVenues {
		t.Run(v.String(), func(t *testing.T) {
			f := newFixture(v, 1_000, 1_000, 10)
			adapters, err := BuildPaperAdapters(f.pool, f.trader, ConstantProduct{})
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			if len(adapters) != 2 {
				t.Fatalf("expected both directions, got %d", len(adapters))
			}
			if !adapters[0].OutputMint().Equals(f.pool.MintB) || !adapters[1].OutputMint().Equals(f.pool.MintA) {
				t.Fatal("unexpected adapter directions")
			}
			if !adapters[0].DestinationAccount().Equals(f.trader.AccountB) {
				t.Fatal("A to B should deliver into the trader's B account")
			}
			if adapters[0].Venue() != v {
				t.Fatalf("expected venue %s, got %s", v, adapters[0].Venue())
			}
		})
	}
}

func TestAdapterRejectsForeignOutputMint(t *testing.T) {
	f := newFixture(domain.VenueOrca, 1, 1, 1)
	_, err := buildPaperAdapter(f.pool, f.trader, solana.NewWallet().PublicKey(), ConstantProduct{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestPhoenixLotConversion(t *testing.T) {
	f := newFixture(domain.VenuePhoenix, 1_000_000, 1_000_000, 1_000)
	invoker := &scriptedInvoker{deliver: 50}
	p, err := NewPhoenix(PhoenixAccounts{
		Market:       f.pool.Market,
		Trader:       f.trader.Authority,
		BaseMint:     f.pool.MintA,
		QuoteMint:    f.pool.MintB,
		BaseAccount:  f.trader.AccountA,
		QuoteAccount: f.trader.AccountB,
		BaseVault:    f.pool.VaultA,
		QuoteVault:   f.pool.VaultB,
		BaseLotSize:  100,
		QuoteLotSize: 10,
	}, f.pool.MintB, invoker)
	if err != nil {
		t.Fatalf("failed to build phoenix adapter: %v", err)
	}

	o, err := p.order(250, 41)
	if err != nil {
		t.Fatalf("order failed: %v", err)
	}
	if o.numBaseLots != 2 || o.amountInAtoms != 200 {
		t.Fatalf("expected 2 base lots / 200 atoms, got %d / %d", o.numBaseLots, o.amountInAtoms)
	}
	if o.minQuoteLotsToFill != 5 {
		t.Fatalf("expected min fill rounded up to 5 quote lots, got %d", o.minQuoteLotsToFill)
	}

	ix, atoms, err := p.Instruction(250, 41)
	if err != nil || atoms != 200 {
		t.Fatalf("instruction failed: %d atoms (%v)", atoms, err)
	}
	data, _ := ix.Data()
	// tags, price None, four lot counts, self trade, match limit None, u128 order id, three trailing options
	if len(data) != 3+1+32+1+1+16+3 {
		t.Fatalf("unexpected data length %d", len(data))
	}
	if !bytes.Equal(data[38:54], make([]byte, 16)) {
		t.Fatalf("client order id should be zero, got %x", data[38:54])
	}

	if _, _, err := Swap(context.Background(), f.bank.Begin(), p, 250, 0); err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if invoker.calls[0].AmountIn != 200 {
		t.Fatalf("venue should receive whole lots only, got %d", invoker.calls[0].AmountIn)
	}

	if _, _, err := Swap(context.Background(), f.bank.Begin(), p, 99, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput below one lot, got %v", err)
	}
}

func TestRaydiumInstruction(t *testing.T) {
	f := newFixture(domain.VenueRaydium, 1, 1, 1)
	adapter, err := buildPaperAdapter(f.pool, f.trader, f.pool.MintB, ConstantProduct{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	ix, err := adapter.(*Raydium).Instruction(1_000, 900)
	if err != nil {
		t.Fatalf("instruction failed: %v", err)
	}
	if !ix.ProgramID().Equals(common.RaydiumAmmProgramID) {
		t.Fatalf("unexpected program %s", ix.ProgramID())
	}
	if n := len(ix.Accounts()); n != 18 {
		t.Fatalf("expected 18 accounts, got %d", n)
	}
	data, _ := ix.Data()
	want := []byte{9, 0xe8, 0x03, 0, 0, 0, 0, 0, 0, 0x84, 0x03, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(data, want) {
		t.Fatalf("unexpected data %x", data)
	}
}

func TestOrcaInstructionDirection(t *testing.T) {
	f := newFixture(domain.VenueOrca, 1, 1, 1)
	adapters, _ := BuildPaperAdapters(f.pool, f.trader, ConstantProduct{})

	aToB, _ := adapters[0].(*Orca).Instruction(1, 0)
	bToA, _ := adapters[1].(*Orca).Instruction(1, 0)
	dataAB, _ := aToB.Data()
	dataBA, _ := bToA.Data()
	if !bytes.Equal(dataAB[:8], orcaSwapDiscriminator[:]) {
		t.Fatal("missing swap discriminator")
	}
	// discriminator, amount, other_amount_threshold, sqrt_price_limit, amount_specified_is_input, a_to_b
	if len(dataAB) != 8+8+8+16+1+1 {
		t.Fatalf("unexpected data length %d", len(dataAB))
	}
	var minLimit [16]byte
	binary.LittleEndian.PutUint64(minLimit[:8], 4295048016)
	if !bytes.Equal(dataAB[24:40], minLimit[:]) {
		t.Fatalf("a to b should use the minimum sqrt price, got %x", dataAB[24:40])
	}
	var maxLimit [16]byte
	binary.LittleEndian.PutUint64(maxLimit[:8], 3871828160200520623)
	binary.LittleEndian.PutUint64(maxLimit[8:], 4294886577)
	if !bytes.Equal(dataBA[24:40], maxLimit[:]) {
		t.Fatalf("b to a should use the maximum sqrt price, got %x", dataBA[24:40])
	}
	if dataAB[40] != 1 || dataBA[40] != 1 {
		t.Fatal("amount should be specified as input")
	}
	if dataAB[41] != 1 || dataBA[41] != 0 {
		t.Fatalf("unexpected direction flags %d %d", dataAB[41], dataBA[41])
	}
	if len(aToB.Accounts()) != 11 {
		t.Fatalf("expected 11 whirlpool accounts, got %d", len(aToB.Accounts()))
	}
}

func TestRegistryResolve(t *testing.T) {
	f := newFixture(domain.VenueOrca, 1, 1, 1)
	adapters, _ := BuildPaperAdapters(f.pool, f.trader, ConstantProduct{})
	r := NewRegistry()
	for _, a := range adapters {
		r.Register(a)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 adapters, got %d", r.Len())
	}

	got, err := r.Resolve(domain.ArbitrageStep{Venue: domain.VenueOrca, OutputToken: f.pool.MintA})
	if err != nil || got != adapters[1] {
		t.Fatalf("default resolution failed: %v", err)
	}
	got, err = r.Resolve(domain.ArbitrageStep{Venue: domain.VenueOrca, OutputToken: f.pool.MintB, Market: f.pool.Market})
	if err != nil || got != adapters[0] {
		t.Fatalf("pinned resolution failed: %v", err)
	}
	if _, err := r.Resolve(domain.ArbitrageStep{Venue: domain.VenueRaydium, OutputToken: f.pool.MintB}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput for unknown venue market, got %v", err)
	}
	if _, err := r.Resolve(domain.ArbitrageStep{Venue: domain.VenueOrca, OutputToken: f.pool.MintB, Market: solana.NewWallet().PublicKey()}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput for unknown market, got %v", err)
	}
}
