package blockchain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/arb-engine/internal/arbitrage/adapters/host"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/metrics"
)

// SPL token account layout: mint[0:32] owner[32:64] amount[64:72].
const tokenAccountMinLen = 72

const DefaultCacheSize = 4096

// AccountInfoFetcher is the part of rpc.Client the reader needs.
type AccountInfoFetcher interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

// TokenAccountReader loads SPL token accounts over RPC. The mint of an account
// never changes, so it is cached; amounts are always fetched.
type TokenAccountReader struct {
	client AccountInfoFetcher
	mints  *lru.Cache[solana.PublicKey, solana.PublicKey]
}

func NewTokenAccountReader(client AccountInfoFetcher, cacheSize int) (*TokenAccountReader, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[solana.PublicKey, solana.PublicKey](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create account cache: %w", err)
	}
	return &TokenAccountReader{client: client, mints: cache}, nil
}

// ParseTokenAccount decodes raw SPL token account data.
func ParseTokenAccount(address solana.PublicKey, data []byte) (*host.TokenAccount, error) {
	if len(data) < tokenAccountMinLen {
		return nil, fmt.Errorf("token account %s: data too short (%d bytes)", address, len(data))
	}
	return &host.TokenAccount{
		Address: address,
		Mint:    solana.PublicKeyFromBytes(data[0:32]),
		Owner:   solana.PublicKeyFromBytes(data[32:64]),
		Amount:  binary.LittleEndian.Uint64(data[64:72]),
	}, nil
}

// LoadTokenAccount implements host.AccountLoader.
func (r *TokenAccountReader) LoadTokenAccount(ctx context.Context, address solana.PublicKey) (*host.TokenAccount, error) {
	res, err := r.client.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", host.ErrAccountNotFound, address)
		}
		return nil, fmt.Errorf("failed to fetch account %s: %w", address, err)
	}
	if res == nil || res.Value == nil {
		return nil, fmt.Errorf("%w: %s", host.ErrAccountNotFound, address)
	}
	if !res.Value.Owner.Equals(common.TokenProgramID) {
		return nil, fmt.Errorf("account %s is owned by %s, not the token program", address, res.Value.Owner)
	}

	account, err := ParseTokenAccount(address, res.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	r.remember(account)

	log.Debug().
		Str("account", address.String()).
		Str("mint", account.Mint.String()).
		Uint64("amount", account.Amount).
		Uint64("slot", res.Context.Slot).
		Msg("[TokenAccountReader] loaded account")
	return account, nil
}

// CachedMint implements host.MintResolver.
func (r *TokenAccountReader) CachedMint(address solana.PublicKey) (solana.PublicKey, bool) {
	mint, ok := r.mints.Get(address)
	if !ok {
		metrics.AccountCacheMisses.Inc()
		return solana.PublicKey{}, false
	}
	metrics.AccountCacheHits.Inc()
	return mint, true
}

func (r *TokenAccountReader) remember(account *host.TokenAccount) {
	r.mints.Add(account.Address, account.Mint)
	metrics.AccountCacheSize.Set(float64(r.mints.Len()))
}

func (r *TokenAccountReader) CacheLen() int {
	return r.mints.Len()
}
