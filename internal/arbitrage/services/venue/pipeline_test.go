package venue

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/arb-engine/internal/arbitrage/adapters/host"
	"github.com/hxuan190/arb-engine/internal/domain"
)

// scriptedInvoker moves deliver atoms into the destination and claims report.
type scriptedInvoker struct {
	deliver uint64
	report  Report
	err     error
	calls   []*Call
}

func (s *scriptedInvoker) Invoke(ctx context.Context, env Env, call *Call) (Report, error) {
	s.calls = append(s.calls, call)
	if s.err != nil {
		return Report{}, s.err
	}
	if err := env.Transfer(ctx, call.Leg.UserSource, call.Leg.PoolSource, call.AmountIn); err != nil {
		return Report{}, err
	}
	if err := env.Transfer(ctx, call.Leg.PoolDestination, call.Leg.UserDestination, s.deliver); err != nil {
		return Report{}, err
	}
	return s.report, nil
}

type fixture struct {
	bank   *host.Bank
	pool   PaperPool
	trader PaperTrader
}

func newFixture(venue domain.Venue, reserveA, reserveB, userA uint64) *fixture {
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	f := &fixture{
		bank: host.NewBank(nil),
		pool: PaperPool{
			Venue:  venue,
			Market: solana.NewWallet().PublicKey(),
			MintA:  mintA,
			MintB:  mintB,
			VaultA: solana.NewWallet().PublicKey(),
			VaultB: solana.NewWallet().PublicKey(),
		},
		trader: PaperTrader{
			Authority: solana.NewWallet().PublicKey(),
			AccountA:  solana.NewWallet().PublicKey(),
			AccountB:  solana.NewWallet().PublicKey(),
		},
	}
	f.put(f.pool.VaultA, mintA, reserveA)
	f.put(f.pool.VaultB, mintB, reserveB)
	f.put(f.trader.AccountA, mintA, userA)
	f.put(f.trader.AccountB, mintB, 0)
	return f
}

func (f *fixture) put(address, mint solana.PublicKey, amount uint64) {
	f.bank.Put(host.TokenAccount{Address: address, Mint: mint, Owner: f.trader.Authority, Amount: amount})
}

func (f *fixture) adapter(t *testing.T, invoker Invoker) Adapter {
	t.Helper()
	adapters, err := BuildPaperAdapters(f.pool, f.trader, invoker)
	if err != nil {
		t.Fatalf("failed to build adapters: %v", err)
	}
	// first adapter delivers MintB
	return adapters[0]
}

func TestSwapUsesBalanceDeltaNotReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(domain.VenueMeteora, 10_000, 10_000, 1_000)
	invoker := &scriptedInvoker{deliver: 900, report: Report{AmountOut: 5_000, Reported: true}}
	adapter := f.adapter(t, invoker)

	tx := f.bank.Begin()
	realized, report, err := Swap(ctx, tx, adapter, 1_000, 0)
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if realized != 900 {
		t.Fatalf("expected realized 900 from balance delta, got %d", realized)
	}
	if report.AmountOut != 5_000 {
		t.Fatalf("report should be passed through, got %d", report.AmountOut)
	}
}

func TestSwapCountsOnlyTheDelta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(domain.VenueOrca, 10_000, 10_000, 1_000)
	// destination already holds funds before the hop
	f.put(f.trader.AccountB, f.pool.MintB, 7_777)
	adapter := f.adapter(t, &scriptedInvoker{deliver: 10})

	realized, _, err := Swap(ctx, f.bank.Begin(), adapter, 100, 0)
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if realized != 10 {
		t.Fatalf("expected 10, got %d", realized)
	}
}

func TestSwapSlippage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(domain.VenueRaydium, 10_000, 10_000, 1_000)

	adapter := f.adapter(t, &scriptedInvoker{deliver: 99})
	if _, _, err := Swap(ctx, f.bank.Begin(), adapter, 100, 100); !errors.Is(err, domain.ErrSlippageExceeded) {
		t.Fatalf("expected SlippageExceeded on realized floor, got %v", err)
	}

	adapter = f.adapter(t, &scriptedInvoker{err: ErrSlippage})
	if _, _, err := Swap(ctx, f.bank.Begin(), adapter, 100, 100); !errors.Is(err, domain.ErrSlippageExceeded) {
		t.Fatalf("expected SlippageExceeded from venue, got %v", err)
	}
}

func TestSwapExternalFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(domain.VenueLifinity, 10_000, 10_000, 1_000)
	boom := errors.New("program failed to complete")
	adapter := f.adapter(t, &scriptedInvoker{err: boom})

	_, _, err := Swap(ctx, f.bank.Begin(), adapter, 100, 0)
	if !errors.Is(err, domain.ErrExternalCallFailed) {
		t.Fatalf("expected ExternalCallFailed, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("venue error should be propagated, got %v", err)
	}
}

func TestRunHopAdvancesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(domain.VenueJupiter, 1_000_000, 1_000_000, 10_000)
	adapter := f.adapter(t, ConstantProduct{})
	state, _ := domain.OpenSwapState(10_000, 10_000, f.pool.MintA)

	hop, err := RunHop(ctx, f.bank.Begin(), state, adapter, domain.ArbitrageStep{
		Venue:       domain.VenueJupiter,
		OutputToken: f.pool.MintB,
	})
	if err != nil {
		t.Fatalf("hop failed: %v", err)
	}
	want, _ := QuoteConstantProduct(1_000_000, 1_000_000, 10_000, 10)
	if hop.AmountOut != want || state.SwapInput != want {
		t.Fatalf("expected %d, got hop=%d session=%d", want, hop.AmountOut, state.SwapInput)
	}
	if !state.CurrentToken.Equals(f.pool.MintB) {
		t.Fatalf("session token not advanced")
	}
	if state.AmountIn != 10_000 {
		t.Fatalf("original input changed to %d", state.AmountIn)
	}
}

func TestRunHopOnClosedSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(domain.VenueOrca, 1_000, 1_000, 100)
	invoker := &scriptedInvoker{deliver: 1}
	adapter := f.adapter(t, invoker)
	state, _ := domain.OpenSwapState(100, 100, f.pool.MintA)
	_, _ = state.Close()

	_, err := RunHop(ctx, f.bank.Begin(), state, adapter, domain.ArbitrageStep{Venue: domain.VenueOrca, OutputToken: f.pool.MintB})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
	if len(invoker.calls) != 0 {
		t.Fatal("venue must not be called for a closed session")
	}
}

func TestConstantProductQuote(t *testing.T) {
	out, err := QuoteConstantProduct(1_000_000, 2_000_000, 10_000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 2_000_000 * 10_000 / 1_010_000
	if out != 19_801 {
		t.Fatalf("expected 19801, got %d", out)
	}
	if _, err := QuoteConstantProduct(0, 1, 1, 0); err == nil {
		t.Fatal("expected an error for an empty pool")
	}
}

func TestConstantProductSlippage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(domain.VenueOrca, 1_000, 1_000, 100)
	adapter := f.adapter(t, ConstantProduct{})

	_, _, err := Swap(ctx, f.bank.Begin(), adapter, 100, 1_000)
	if !errors.Is(err, domain.ErrSlippageExceeded) {
		t.Fatalf("expected SlippageExceeded, got %v", err)
	}
}

func BenchmarkRunHop(b *testing.B) {
	ctx := context.Background()
	f := newFixture(domain.VenueOrca, 1_000_000_000, 1_000_000_000, 1_000_000_000)
	adapters, _ := BuildPaperAdapters(f.pool, f.trader, ConstantProduct{})
	step := domain.ArbitrageStep{Venue: domain.VenueOrca, OutputToken: f.pool.MintB}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		state, _ := domain.OpenSwapState(1_000_000, 1_000, f.pool.MintA)
		tx := f.bank.Begin()
		if _, err := RunHop(ctx, tx, state, adapters[0], step); err != nil {
			b.Fatal(err)
		}
		tx.Rollback()
	}
}
