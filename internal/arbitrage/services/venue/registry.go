package venue

import (
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/arb-engine/internal/domain"
)

type registryKey struct {
	venue      domain.Venue
	outputMint solana.PublicKey
}

// Registry resolves route steps to adapters. A step without a market pin
// resolves to the first adapter registered for its venue and output mint.
type Registry struct {
	mu       sync.RWMutex
	byMarket map[registryKey]map[solana.PublicKey]Adapter
	defaults map[registryKey]Adapter
	count    int
}

func NewRegistry() *Registry {
	return &Registry{
		byMarket: make(map[registryKey]map[solana.PublicKey]Adapter),
		defaults: make(map[registryKey]Adapter),
	}
}

func (r *Registry) Register(adapter Adapter) {
	key := registryKey{venue: adapter.Venue(), outputMint: adapter.OutputMint()}

	r.mu.Lock()
	defer r.mu.Unlock()

	markets, ok := r.byMarket[key]
	if !ok {
		markets = make(map[solana.PublicKey]Adapter)
		r.byMarket[key] = markets
	}
	if _, exists := markets[adapter.Market()]; !exists {
		r.count++
	}
	markets[adapter.Market()] = adapter
	if _, ok := r.defaults[key]; !ok {
		r.defaults[key] = adapter
	}
}

// Resolve returns the adapter that executes step.
func (r *Registry) Resolve(step domain.ArbitrageStep) (Adapter, error) {
	key := registryKey{venue: step.Venue, outputMint: step.OutputToken}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if step.Market.IsZero() {
		if adapter, ok := r.defaults[key]; ok {
			return adapter, nil
		}
		return nil, domain.InvalidInput("no %s market delivers %s", step.Venue, step.OutputToken)
	}
	if adapter, ok := r.byMarket[key][step.Market]; ok {
		return adapter, nil
	}
	return nil, domain.InvalidInput("%s market %s does not deliver %s", step.Venue, step.Market, step.OutputToken)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
