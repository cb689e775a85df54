package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/arb-engine/internal/domain"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(filepath.Join(t.TempDir(), "arb.db"))
	if err != nil {
		t.Fatalf("open storage failed: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func settlementFixture(at time.Time, trade uint64) (*domain.ArbitrageState, *domain.SwapState, *domain.ExecutionRecord) {
	token := solana.NewWallet().PublicKey()
	ledger := &domain.ArbitrageState{
		Address:     solana.NewWallet().PublicKey(),
		Authority:   solana.NewWallet().PublicKey(),
		TotalProfit: 46_000 * trade,
		TotalTrades: trade,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	session := &domain.SwapState{
		Address:       solana.NewWallet().PublicKey(),
		Owner:         solana.NewWallet().PublicKey(),
		Nonce:         trade,
		SourceAccount: solana.NewWallet().PublicKey(),
		InputToken:    token,
		CurrentToken:  token,
		StartBalance:  1_000_000,
		AmountIn:      1_000_000,
		SwapInput:     1_050_000,
		OpenedAt:      at,
	}
	record := &domain.ExecutionRecord{
		Ledger:      ledger.Address,
		Session:     session.Address,
		TradeNumber: trade,
		Event: domain.ArbitrageExecuted{
			InputToken:  token,
			OutputToken: token,
			AmountIn:    1_000_000,
			AmountOut:   1_050_000,
			Profit:      46_000,
		},
		TotalFees: 4_000,
		Hops: []domain.HopRecord{
			{Venue: domain.VenueOrca, Market: solana.NewWallet().PublicKey(), OutputToken: solana.NewWallet().PublicKey(), AmountIn: 1_000_000, AmountOut: 1_010_000},
			{Venue: domain.VenueJupiter, Market: solana.NewWallet().PublicKey(), OutputToken: token, AmountIn: 1_010_000, AmountOut: 1_050_000, ReportedOut: 1_049_000},
		},
		ExecutedAt: at,
	}
	return ledger, session, record
}

func TestSaveSettlementWritesAllRecords(t *testing.T) {
	storage := openTestStorage(t)
	ledger, session, record := settlementFixture(time.Now().UTC(), 1)

	if err := storage.SaveSettlement(ledger, session, record); err != nil {
		t.Fatalf("save settlement failed: %v", err)
	}

	ledgers, err := storage.LoadLedgers()
	if err != nil {
		t.Fatalf("load ledgers failed: %v", err)
	}
	if len(ledgers) != 1 || ledgers[0].TotalProfit != 46_000 || !ledgers[0].Authority.Equals(ledger.Authority) {
		t.Fatalf("unexpected ledgers: %+v", ledgers)
	}

	sessions, err := storage.LoadSessions()
	if err != nil {
		t.Fatalf("load sessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].IsValid || sessions[0].Nonce != 1 || !sessions[0].SourceAccount.Equals(session.SourceAccount) {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	executions, err := storage.ListExecutions(10)
	if err != nil {
		t.Fatalf("list executions failed: %v", err)
	}
	if len(executions) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(executions))
	}
	got := executions[0]
	if got.Event.Profit != 46_000 || got.TotalFees != 4_000 || len(got.Hops) != 2 {
		t.Fatalf("unexpected execution: %+v", got)
	}
	if got.Hops[1].Venue != domain.VenueJupiter || got.Hops[1].ReportedOut != 1_049_000 {
		t.Fatalf("hop not restored: %+v", got.Hops[1])
	}
}

func TestListExecutionsNewestFirst(t *testing.T) {
	storage := openTestStorage(t)
	base := time.Now().UTC()
	for i := uint64(1); i <= 3; i++ {
		ledger, session, record := settlementFixture(base.Add(time.Duration(i)*time.Second), i)
		if err := storage.SaveSettlement(ledger, session, record); err != nil {
			t.Fatalf("save settlement failed: %v", err)
		}
	}
	executions, err := storage.ListExecutions(2)
	if err != nil {
		t.Fatalf("list executions failed: %v", err)
	}
	if len(executions) != 2 || executions[0].TradeNumber != 3 || executions[1].TradeNumber != 2 {
		t.Fatalf("expected trades 3,2 got %+v", executions)
	}
}

func TestSaveEvent(t *testing.T) {
	storage := openTestStorage(t)
	at := time.Now().UTC()
	if err := storage.SaveEvent(domain.EventRecord{Name: "ArbitrageExecuted", Data: []byte{1, 2, 3}, EmittedAt: at}); err != nil {
		t.Fatalf("save event failed: %v", err)
	}
	events, err := storage.ListEvents(0)
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if len(events) != 1 || events[0].Name != "ArbitrageExecuted" || string(events[0].Data) != string([]byte{1, 2, 3}) {
		t.Fatalf("unexpected events: %+v", events)
	}
	if !events[0].EmittedAt.Equal(at) {
		t.Fatalf("expected %s, got %s", at, events[0].EmittedAt)
	}
}

func TestSaveEventSameInstant(t *testing.T) {
	storage := openTestStorage(t)
	memory := NewMemoryStorage()
	at := time.Now().UTC()
	for _, s := range []Store{storage, memory} {
		for i := byte(0); i < 2; i++ {
			if err := s.SaveEvent(domain.EventRecord{Name: "ArbitrageExecuted", Data: []byte{i}, EmittedAt: at}); err != nil {
				t.Fatalf("save event %d failed: %v", i, err)
			}
		}
	}

	stored, err := storage.ListEvents(0)
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	inMemory, _ := memory.ListEvents(0)
	if len(stored) != 2 || len(inMemory) != 2 {
		t.Fatalf("expected both events kept, got %d stored and %d in memory", len(stored), len(inMemory))
	}
	if stored[0].Data[0] == stored[1].Data[0] {
		t.Fatalf("one event overwrote the other: %+v", stored)
	}
}

func TestMemoryStorageFailSettlement(t *testing.T) {
	m := NewMemoryStorage()
	ledger, session, record := settlementFixture(time.Now().UTC(), 1)
	m.FailSettlement = errTest
	if err := m.SaveSettlement(ledger, session, record); err != errTest {
		t.Fatalf("expected injected error, got %v", err)
	}
	executions, _ := m.ListExecutions(0)
	ledgers, _ := m.LoadLedgers()
	if len(executions) != 0 || len(ledgers) != 0 {
		t.Fatal("failed settlement must write nothing")
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("injected")
