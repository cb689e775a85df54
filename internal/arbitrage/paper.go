package arbitrage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/arb-engine/internal/arbitrage/adapters/host"
	"github.com/hxuan190/arb-engine/internal/arbitrage/services/venue"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/config"
	"github.com/hxuan190/arb-engine/internal/domain"
)

const (
	paperPoolSeed  = "paper_pool"
	paperVaultSeed = "paper_vault"
)

func paperMarket(spec config.PaperPoolSpec) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress([][]byte{
		[]byte(paperPoolSeed), {byte(spec.Venue)}, spec.MintA[:], spec.MintB[:],
	}, common.ArbitrageProgramID)
	return address, err
}

func paperVault(market, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress([][]byte{[]byte(paperVaultSeed), market[:], mint[:]}, common.ArbitrageProgramID)
	return address, err
}

// AddPaperPool seeds a constant-product pool in the bank and registers its
// adapters in both directions for the engine authority.
func (svc *Service) AddPaperPool(ctx context.Context, spec config.PaperPoolSpec) (*venue.PaperPool, error) {
	if !spec.Venue.IsValid() {
		return nil, domain.InvalidInput("unknown venue tag %d", uint8(spec.Venue))
	}
	if spec.MintA.Equals(spec.MintB) {
		return nil, domain.InvalidInput("paper pool mints must differ")
	}
	if spec.ReserveA == 0 || spec.ReserveB == 0 {
		return nil, domain.InvalidInput("paper pool reserves must be positive")
	}

	market, err := paperMarket(spec)
	if err != nil {
		return nil, fmt.Errorf("derive paper market: %w", err)
	}
	vaultA, err := paperVault(market, spec.MintA)
	if err != nil {
		return nil, fmt.Errorf("derive paper vault: %w", err)
	}
	vaultB, err := paperVault(market, spec.MintB)
	if err != nil {
		return nil, fmt.Errorf("derive paper vault: %w", err)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	for _, existing := range svc.pools {
		if existing.Market.Equals(market) {
			return nil, domain.InvalidState("%s paper pool %s already registered", spec.Venue, market)
		}
	}

	accountA, err := svc.traderAccountLocked(ctx, spec.MintA)
	if err != nil {
		return nil, err
	}
	accountB, err := svc.traderAccountLocked(ctx, spec.MintB)
	if err != nil {
		return nil, err
	}

	svc.bank.Put(host.TokenAccount{Address: vaultA, Mint: spec.MintA, Owner: market, Amount: spec.ReserveA})
	svc.bank.Put(host.TokenAccount{Address: vaultB, Mint: spec.MintB, Owner: market, Amount: spec.ReserveB})

	pool := venue.PaperPool{
		Venue:  spec.Venue,
		Market: market,
		MintA:  spec.MintA,
		MintB:  spec.MintB,
		VaultA: vaultA,
		VaultB: vaultB,
	}
	trader := venue.PaperTrader{Authority: svc.authority, AccountA: accountA, AccountB: accountB}
	adapters, err := venue.BuildPaperAdapters(pool, trader, venue.ConstantProduct{})
	if err != nil {
		return nil, err
	}
	for _, adapter := range adapters {
		svc.venues.Register(adapter)
	}
	svc.pools = append(svc.pools, pool)

	svc.logger.Info().
		Str("venue", spec.Venue.String()).
		Str("market", market.String()).
		Uint64("reserveA", spec.ReserveA).
		Uint64("reserveB", spec.ReserveB).
		Msg("[ArbitrageService] registered paper pool")
	return &pool, nil
}

func (svc *Service) PaperPools() []venue.PaperPool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	out := make([]venue.PaperPool, len(svc.pools))
	copy(out, svc.pools)
	return out
}

// TraderAccount returns the authority's token account for mint, creating an
// empty one on first use.
func (svc *Service) TraderAccount(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.traderAccountLocked(ctx, mint)
}

func (svc *Service) traderAccountLocked(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	if address, ok := svc.accounts[mint]; ok {
		return address, nil
	}
	address, _, err := solana.FindAssociatedTokenAddress(svc.authority, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive trader account: %w", err)
	}
	if _, err := svc.bank.TokenAccount(ctx, address); err != nil {
		if !errors.Is(err, host.ErrAccountNotFound) {
			return solana.PublicKey{}, err
		}
		svc.bank.Put(host.TokenAccount{Address: address, Mint: mint, Owner: svc.authority})
	}
	svc.accounts[mint] = address
	return address, nil
}

// FundTraderAccount credits the authority's account for mint. Paper faucet.
func (svc *Service) FundTraderAccount(ctx context.Context, mint solana.PublicKey, amount uint64) (host.TokenAccount, error) {
	if mint.IsZero() || amount == 0 {
		return host.TokenAccount{}, domain.InvalidInput("mint and a positive amount are required")
	}
	address, err := svc.TraderAccount(ctx, mint)
	if err != nil {
		return host.TokenAccount{}, err
	}
	account, err := svc.bank.Credit(address, amount)
	if errors.Is(err, host.ErrBalanceOverflow) {
		return host.TokenAccount{}, domain.ArithmeticOverflow("funding %s overflows its balance", address)
	}
	return account, err
}
