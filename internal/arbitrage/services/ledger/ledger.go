// Package ledger keeps the cumulative profit and trade counters shared by
// every session. Each accepted route is one read-modify-write under the
// ledger lock.
package ledger

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
	"github.com/hxuan190/arb-engine/internal/metrics"
)

// CommitFunc persists next. The in-memory ledger only moves to next if it
// returns nil.
type CommitFunc func(next *domain.ArbitrageState) error

type Ledger struct {
	mu      sync.Mutex
	program solana.PublicKey
	states  map[solana.PublicKey]*domain.ArbitrageState
}

func New(program solana.PublicKey) *Ledger {
	return &Ledger{
		program: program,
		states:  make(map[solana.PublicKey]*domain.ArbitrageState),
	}
}

// DeriveAddress returns the ledger account of authority.
func DeriveAddress(program, authority solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress([][]byte{[]byte(common.ArbitrageStateSeed), authority[:]}, program)
	return address, err
}

// Load restores persisted ledgers. Existing entries are replaced.
func (l *Ledger) Load(states []*domain.ArbitrageState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range states {
		c := *s
		l.states[s.Address] = &c
		metrics.LedgerTrades.WithLabelValues(s.Address.String()).Set(float64(s.TotalTrades))
	}
}

// Initialize creates the zeroed ledger of authority.
func (l *Ledger) Initialize(ctx context.Context, authority solana.PublicKey, commit CommitFunc) (*domain.ArbitrageState, error) {
	if authority.IsZero() {
		return nil, domain.InvalidInput("authority is required")
	}
	address, err := DeriveAddress(l.program, authority)
	if err != nil {
		return nil, domain.InvalidInput("derive ledger address: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.states[address]; exists {
		return nil, domain.InvalidState("ledger %s already initialized", address)
	}
	now := time.Now().UTC()
	state := &domain.ArbitrageState{
		Address:   address,
		Authority: authority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if commit != nil {
		if err := commit(state); err != nil {
			return nil, err
		}
	}
	l.states[address] = state
	log.Info().Str("ledger", address.String()).Str("authority", authority.String()).Msg("[Ledger] initialized")

	c := *state
	return &c, nil
}

func (l *Ledger) Get(address solana.PublicKey) (*domain.ArbitrageState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	state, ok := l.states[address]
	if !ok {
		return nil, domain.NotFound("ledger", address)
	}
	c := *state
	return &c, nil
}

// Apply adds one trade and profit to the ledger. The new counters are
// computed, handed to commit and installed while the lock is held, so two
// concurrent accepts can never lose an update.
func (l *Ledger) Apply(ctx context.Context, address solana.PublicKey, profit uint64, commit CommitFunc) (*domain.ArbitrageState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.states[address]
	if !ok {
		return nil, domain.NotFound("ledger", address)
	}

	totalProfit, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(current.TotalProfit), uint256.NewInt(profit))
	if overflow || !totalProfit.IsUint64() {
		return nil, domain.ArithmeticOverflow("ledger %s total profit overflows", address)
	}
	if current.TotalTrades == ^uint64(0) {
		return nil, domain.ArithmeticOverflow("ledger %s trade counter overflows", address)
	}

	next := *current
	next.TotalProfit = totalProfit.Uint64()
	next.TotalTrades = current.TotalTrades + 1
	next.UpdatedAt = time.Now().UTC()

	if commit != nil {
		if err := commit(&next); err != nil {
			return nil, err
		}
	}
	*current = next
	metrics.LedgerTrades.WithLabelValues(address.String()).Set(float64(next.TotalTrades))

	out := next
	return &out, nil
}

type Stats struct {
	Address       solana.PublicKey `json:"address"`
	TotalProfit   decimal.Decimal  `json:"totalProfit"`
	TotalTrades   uint64           `json:"totalTrades"`
	AverageProfit decimal.Decimal  `json:"averageProfit"`
	LastTradeAt   *time.Time       `json:"lastTradeAt,omitempty"`
}

// Stats summarizes a ledger. Amounts are in input-token atoms.
func (l *Ledger) Stats(address solana.PublicKey) (*Stats, error) {
	state, err := l.Get(address)
	if err != nil {
		return nil, err
	}
	total := decimal.NewFromBigInt(new(big.Int).SetUint64(state.TotalProfit), 0)
	stats := &Stats{
		Address:       address,
		TotalProfit:   total,
		TotalTrades:   state.TotalTrades,
		AverageProfit: decimal.Zero,
	}
	if state.TotalTrades > 0 {
		trades := decimal.NewFromBigInt(new(big.Int).SetUint64(state.TotalTrades), 0)
		stats.AverageProfit = total.DivRound(trades, 2)
		updated := state.UpdatedAt
		stats.LastTradeAt = &updated
	}
	return stats, nil
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.states)
}
