package persistence

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/arb-engine/internal/domain"
)

type StoredLedger struct {
	Address     string `json:"address"`
	Authority   string `json:"authority"`
	TotalProfit string `json:"totalProfit"` // u64 as string
	TotalTrades uint64 `json:"totalTrades"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

type StoredSession struct {
	Address       string `json:"address"`
	Owner         string `json:"owner"`
	Nonce         uint64 `json:"nonce"`
	SourceAccount string `json:"sourceAccount"`
	InputToken    string `json:"inputToken"`
	CurrentToken  string `json:"currentToken"`
	StartBalance  uint64 `json:"startBalance"`
	AmountIn      uint64 `json:"amountIn"`
	SwapInput     uint64 `json:"swapInput"`
	IsValid       bool   `json:"isValid"`
	OpenedAt      int64  `json:"openedAt"`
}

type StoredHop struct {
	Venue       uint8  `json:"venue"`
	Market      string `json:"market"`
	OutputToken string `json:"outputToken"`
	AmountIn    uint64 `json:"amountIn"`
	AmountOut   uint64 `json:"amountOut"`
	ReportedOut uint64 `json:"reportedOut,omitempty"`
}

type StoredExecution struct {
	Ledger      string      `json:"ledger"`
	Session     string      `json:"session"`
	TradeNumber uint64      `json:"tradeNumber"`
	InputToken  string      `json:"inputToken"`
	OutputToken string      `json:"outputToken"`
	AmountIn    uint64      `json:"amountIn"`
	AmountOut   uint64      `json:"amountOut"`
	Profit      uint64      `json:"profit"`
	TotalFees   uint64      `json:"totalFees"`
	Hops        []StoredHop `json:"hops"`
	ExecutedAt  int64       `json:"executedAt"`
}

type StoredEvent struct {
	Name      string `json:"name"`
	Data      string `json:"data"` // base64
	EmittedAt int64  `json:"emittedAt"`
}

func ledgerToStored(state *domain.ArbitrageState) *StoredLedger {
	return &StoredLedger{
		Address:     state.Address.String(),
		Authority:   state.Authority.String(),
		TotalProfit: strconv.FormatUint(state.TotalProfit, 10),
		TotalTrades: state.TotalTrades,
		CreatedAt:   state.CreatedAt.UnixNano(),
		UpdatedAt:   state.UpdatedAt.UnixNano(),
	}
}

func storedToLedger(stored *StoredLedger) (*domain.ArbitrageState, error) {
	address, err := solana.PublicKeyFromBase58(stored.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	authority, err := solana.PublicKeyFromBase58(stored.Authority)
	if err != nil {
		return nil, fmt.Errorf("invalid authority: %w", err)
	}
	profit, err := strconv.ParseUint(stored.TotalProfit, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid totalProfit: %w", err)
	}
	return &domain.ArbitrageState{
		Address:     address,
		Authority:   authority,
		TotalProfit: profit,
		TotalTrades: stored.TotalTrades,
		CreatedAt:   time.Unix(0, stored.CreatedAt).UTC(),
		UpdatedAt:   time.Unix(0, stored.UpdatedAt).UTC(),
	}, nil
}

func sessionToStored(state *domain.SwapState) *StoredSession {
	return &StoredSession{
		Address:       state.Address.String(),
		Owner:         state.Owner.String(),
		Nonce:         state.Nonce,
		SourceAccount: state.SourceAccount.String(),
		InputToken:    state.InputToken.String(),
		CurrentToken:  state.CurrentToken.String(),
		StartBalance:  state.StartBalance,
		AmountIn:      state.AmountIn,
		SwapInput:     state.SwapInput,
		IsValid:       state.IsValid,
		OpenedAt:      state.OpenedAt.UnixNano(),
	}
}

func storedToSession(stored *StoredSession) (*domain.SwapState, error) {
	keys, err := parseKeys(map[string]string{
		"address":       stored.Address,
		"owner":         stored.Owner,
		"sourceAccount": stored.SourceAccount,
		"inputToken":    stored.InputToken,
		"currentToken":  stored.CurrentToken,
	})
	if err != nil {
		return nil, err
	}
	return &domain.SwapState{
		Address:       keys["address"],
		Owner:         keys["owner"],
		Nonce:         stored.Nonce,
		SourceAccount: keys["sourceAccount"],
		InputToken:    keys["inputToken"],
		CurrentToken:  keys["currentToken"],
		StartBalance:  stored.StartBalance,
		AmountIn:      stored.AmountIn,
		SwapInput:     stored.SwapInput,
		IsValid:       stored.IsValid,
		OpenedAt:      time.Unix(0, stored.OpenedAt).UTC(),
	}, nil
}

func executionToStored(record *domain.ExecutionRecord) *StoredExecution {
	hops := make([]StoredHop, len(record.Hops))
	for i, hop := range record.Hops {
		hops[i] = StoredHop{
			Venue:       uint8(hop.Venue),
			Market:      hop.Market.String(),
			OutputToken: hop.OutputToken.String(),
			AmountIn:    hop.AmountIn,
			AmountOut:   hop.AmountOut,
			ReportedOut: hop.ReportedOut,
		}
	}
	return &StoredExecution{
		Ledger:      record.Ledger.String(),
		Session:     record.Session.String(),
		TradeNumber: record.TradeNumber,
		InputToken:  record.Event.InputToken.String(),
		OutputToken: record.Event.OutputToken.String(),
		AmountIn:    record.Event.AmountIn,
		AmountOut:   record.Event.AmountOut,
		Profit:      record.Event.Profit,
		TotalFees:   record.TotalFees,
		Hops:        hops,
		ExecutedAt:  record.ExecutedAt.UnixNano(),
	}
}

func storedToExecution(stored *StoredExecution) (*domain.ExecutionRecord, error) {
	keys, err := parseKeys(map[string]string{
		"ledger":      stored.Ledger,
		"session":     stored.Session,
		"inputToken":  stored.InputToken,
		"outputToken": stored.OutputToken,
	})
	if err != nil {
		return nil, err
	}
	hops := make([]domain.HopRecord, 0, len(stored.Hops))
	for i, hop := range stored.Hops {
		market, err := solana.PublicKeyFromBase58(hop.Market)
		if err != nil {
			return nil, fmt.Errorf("hop %d: invalid market: %w", i, err)
		}
		output, err := solana.PublicKeyFromBase58(hop.OutputToken)
		if err != nil {
			return nil, fmt.Errorf("hop %d: invalid outputToken: %w", i, err)
		}
		hops = append(hops, domain.HopRecord{
			Venue:       domain.Venue(hop.Venue),
			Market:      market,
			OutputToken: output,
			AmountIn:    hop.AmountIn,
			AmountOut:   hop.AmountOut,
			ReportedOut: hop.ReportedOut,
		})
	}
	return &domain.ExecutionRecord{
		Ledger:      keys["ledger"],
		Session:     keys["session"],
		TradeNumber: stored.TradeNumber,
		Event: domain.ArbitrageExecuted{
			InputToken:  keys["inputToken"],
			OutputToken: keys["outputToken"],
			AmountIn:    stored.AmountIn,
			AmountOut:   stored.AmountOut,
			Profit:      stored.Profit,
		},
		TotalFees:  stored.TotalFees,
		Hops:       hops,
		ExecutedAt: time.Unix(0, stored.ExecutedAt).UTC(),
	}, nil
}

func eventToStored(record domain.EventRecord) *StoredEvent {
	return &StoredEvent{
		Name:      record.Name,
		Data:      base64.StdEncoding.EncodeToString(record.Data),
		EmittedAt: record.EmittedAt.UnixNano(),
	}
}

func storedToEvent(stored *StoredEvent) (domain.EventRecord, error) {
	data, err := base64.StdEncoding.DecodeString(stored.Data)
	if err != nil {
		return domain.EventRecord{}, fmt.Errorf("invalid data: %w", err)
	}
	return domain.EventRecord{
		Name:      stored.Name,
		Data:      data,
		EmittedAt: time.Unix(0, stored.EmittedAt).UTC(),
	}, nil
}

func parseKeys(raw map[string]string) (map[string]solana.PublicKey, error) {
	out := make(map[string]solana.PublicKey, len(raw))
	for field, value := range raw {
		key, err := solana.PublicKeyFromBase58(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", field, err)
		}
		out[field] = key
	}
	return out, nil
}

// Keys sort by time so bucket order matches emission order.
func executionKey(record *domain.ExecutionRecord) string {
	return fmt.Sprintf("%020d:%s", record.ExecutedAt.UnixNano(), record.Session)
}

// seq separates events emitted in the same nanosecond.
func eventKey(record domain.EventRecord, seq uint64) string {
	return fmt.Sprintf("%020d:%s:%020d", record.EmittedAt.UnixNano(), record.Name, seq)
}

func newestExecutions(records []*domain.ExecutionRecord, limit int) []*domain.ExecutionRecord {
	sort.Slice(records, func(i, j int) bool {
		return records[i].ExecutedAt.After(records[j].ExecutedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

func newestEvents(records []domain.EventRecord, limit int) []domain.EventRecord {
	sort.Slice(records, func(i, j int) bool {
		return records[i].EmittedAt.After(records[j].EmittedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
