package persistence

import (
	"sync"

	"github.com/hxuan190/arb-engine/internal/domain"
)

// Store is what the arbitrage service persists through.
type Store interface {
	SaveLedger(state *domain.ArbitrageState) error
	LoadLedgers() ([]*domain.ArbitrageState, error)
	SaveSession(state *domain.SwapState) error
	LoadSessions() ([]*domain.SwapState, error)
	SaveSettlement(ledger *domain.ArbitrageState, session *domain.SwapState, record *domain.ExecutionRecord) error
	ListExecutions(limit int) ([]*domain.ExecutionRecord, error)
	SaveEvent(record domain.EventRecord) error
	ListEvents(limit int) ([]domain.EventRecord, error)
	Close() error
}

// MemoryStorage keeps everything in process. Used when persistence is
// disabled and in tests.
type MemoryStorage struct {
	mu         sync.RWMutex
	ledgers    map[string]*domain.ArbitrageState
	sessions   map[string]*domain.SwapState
	executions []*domain.ExecutionRecord
	events     []domain.EventRecord

	// FailSettlement makes SaveSettlement return this error.
	FailSettlement error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		ledgers:  make(map[string]*domain.ArbitrageState),
		sessions: make(map[string]*domain.SwapState),
	}
}

func (m *MemoryStorage) SaveLedger(state *domain.ArbitrageState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *state
	m.ledgers[state.Address.String()] = &c
	return nil
}

func (m *MemoryStorage) LoadLedgers() ([]*domain.ArbitrageState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.ArbitrageState, 0, len(m.ledgers))
	for _, s := range m.ledgers {
		c := *s
		out = append(out, &c)
	}
	return out, nil
}

func (m *MemoryStorage) SaveSession(state *domain.SwapState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.Address.String()] = state.Clone()
	return nil
}

func (m *MemoryStorage) LoadSessions() ([]*domain.SwapState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.SwapState, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (m *MemoryStorage) SaveSettlement(ledger *domain.ArbitrageState, session *domain.SwapState, record *domain.ExecutionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSettlement != nil {
		return m.FailSettlement
	}
	l := *ledger
	r := *record
	m.ledgers[ledger.Address.String()] = &l
	m.sessions[session.Address.String()] = session.Clone()
	m.executions = append(m.executions, &r)
	return nil
}

func (m *MemoryStorage) ListExecutions(limit int) ([]*domain.ExecutionRecord, error) {
	m.mu.RLock()
	records := make([]*domain.ExecutionRecord, len(m.executions))
	copy(records, m.executions)
	m.mu.RUnlock()
	return newestExecutions(records, limit), nil
}

func (m *MemoryStorage) SaveEvent(record domain.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, record)
	return nil
}

func (m *MemoryStorage) ListEvents(limit int) ([]domain.EventRecord, error) {
	m.mu.RLock()
	records := make([]domain.EventRecord, len(m.events))
	copy(records, m.events)
	m.mu.RUnlock()
	return newestEvents(records, limit), nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

var (
	_ Store = (*Storage)(nil)
	_ Store = (*MemoryStorage)(nil)
)
