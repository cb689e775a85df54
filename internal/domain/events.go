package domain

import (
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Event is anything emitted as an Anchor-style program event.
type Event interface {
	EventName() string
	MarshalWithEncoder(encoder *bin.Encoder) error
}

// ArbitrageExecuted is emitted once per accepted route.
type ArbitrageExecuted struct {
	InputToken  solana.PublicKey `json:"inputToken"`
	OutputToken solana.PublicKey `json:"outputToken"`
	AmountIn    uint64           `json:"amountIn"`
	AmountOut   uint64           `json:"amountOut"`
	Profit      uint64           `json:"profit"`
}

func (e ArbitrageExecuted) EventName() string {
	return "ArbitrageExecuted"
}

func (e ArbitrageExecuted) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(e.InputToken[:], false); err != nil {
		return err
	}
	if err := encoder.WriteBytes(e.OutputToken[:], false); err != nil {
		return err
	}
	if err := encoder.WriteUint64(e.AmountIn, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint64(e.AmountOut, bin.LE); err != nil {
		return err
	}
	return encoder.WriteUint64(e.Profit, bin.LE)
}

// CandidateTokensRequested marks a token discovery request. Discovery itself
// runs outside the engine.
type CandidateTokensRequested struct {
	Requester   solana.PublicKey `json:"requester"`
	RequestedAt int64            `json:"requestedAt"`
}

func (e CandidateTokensRequested) EventName() string {
	return "CandidateTokensRequested"
}

func (e CandidateTokensRequested) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(e.Requester[:], false); err != nil {
		return err
	}
	return encoder.WriteInt64(e.RequestedAt, bin.LE)
}

// HopRecord is the audit trail of one executed hop.
type HopRecord struct {
	Venue       Venue            `json:"venue"`
	Market      solana.PublicKey `json:"market"`
	OutputToken solana.PublicKey `json:"outputToken"`
	AmountIn    uint64           `json:"amountIn"`
	AmountOut   uint64           `json:"amountOut"`

	// ReportedOut is what the venue claimed, zero when it reports nothing.
	ReportedOut uint64 `json:"reportedOut,omitempty"`
}

// ExecutionRecord is returned to the caller and persisted for every accepted route.
type ExecutionRecord struct {
	Ledger      solana.PublicKey  `json:"ledger"`
	Session     solana.PublicKey  `json:"session"`
	TradeNumber uint64            `json:"tradeNumber"`
	Event       ArbitrageExecuted `json:"event"`
	TotalFees   uint64            `json:"totalFees"`
	Hops        []HopRecord       `json:"hops"`
	ExecutedAt  time.Time         `json:"executedAt"`
}

// EventRecord is an encoded event as it was emitted.
type EventRecord struct {
	Name      string    `json:"name"`
	Data      []byte    `json:"data"`
	EmittedAt time.Time `json:"emittedAt"`
}
