package domain

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DefaultMaxHops bounds a route when the caller does not configure one.
const DefaultMaxHops = 8

// ArbitrageStep is one venue-tagged hop of a route plan.
type ArbitrageStep struct {
	Venue Venue `json:"venue"`

	// MinimumAmountOut is the venue slippage floor for this hop.
	MinimumAmountOut uint64 `json:"minimumAmountOut"`

	// OutputToken is the mint the hop is expected to deliver. Routing metadata
	// supplies it; it is never derived from the venue.
	OutputToken solana.PublicKey `json:"outputToken"`

	// Market optionally pins the venue market. Zero selects the venue default
	// for OutputToken.
	Market solana.PublicKey `json:"market,omitempty"`

	// AmountIn is the planner's expected input, kept for audit only. Execution
	// always feeds the session's running amount.
	AmountIn uint64 `json:"amountIn,omitempty"`
}

// RoutePlan is an ordered hop sequence decided by an external planner.
type RoutePlan struct {
	InputToken  solana.PublicKey `json:"inputToken"`
	OutputToken solana.PublicKey `json:"outputToken"`
	Steps       []ArbitrageStep  `json:"steps"`
}

// Venues returns the venue of every step in order.
func (p *RoutePlan) Venues() []Venue {
	venues := make([]Venue, len(p.Steps))
	for i, step := range p.Steps {
		venues[i] = step.Venue
	}
	return venues
}

// Validate checks the plan shape. Token continuity against the realized
// chain is checked by the executor.
func (p *RoutePlan) Validate(maxHops int) error {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	if len(p.Steps) == 0 {
		return InvalidInput("route plan has no steps")
	}
	if len(p.Steps) > maxHops {
		return InvalidInput("route plan has %d steps, max %d", len(p.Steps), maxHops)
	}
	if p.InputToken.IsZero() || p.OutputToken.IsZero() {
		return InvalidInput("route plan input and output tokens are required")
	}
	for i, step := range p.Steps {
		if !step.Venue.IsValid() {
			return InvalidInput("step %d: unknown venue tag %d", i, uint8(step.Venue))
		}
		if step.OutputToken.IsZero() {
			return InvalidInput("step %d: output token is required", i)
		}
	}
	if last := p.Steps[len(p.Steps)-1]; !last.OutputToken.Equals(p.OutputToken) {
		return InvalidInput("last step delivers %s, plan declares %s", last.OutputToken, p.OutputToken)
	}
	return nil
}

func (s ArbitrageStep) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint8(uint8(s.Venue)); err != nil {
		return err
	}
	if err := encoder.WriteUint64(s.MinimumAmountOut, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint64(s.AmountIn, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteBytes(s.OutputToken[:], false); err != nil {
		return err
	}
	return encoder.WriteBytes(s.Market[:], false)
}

func (s *ArbitrageStep) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	tag, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	s.Venue = Venue(tag)
	if !s.Venue.IsValid() {
		return fmt.Errorf("unknown venue tag %d", tag)
	}
	if s.MinimumAmountOut, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if s.AmountIn, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if s.OutputToken, err = readPublicKey(decoder); err != nil {
		return err
	}
	s.Market, err = readPublicKey(decoder)
	return err
}

func (p RoutePlan) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint32(uint32(len(p.Steps)), bin.LE); err != nil {
		return err
	}
	for _, step := range p.Steps {
		if err := step.MarshalWithEncoder(encoder); err != nil {
			return err
		}
	}
	if err := encoder.WriteBytes(p.InputToken[:], false); err != nil {
		return err
	}
	return encoder.WriteBytes(p.OutputToken[:], false)
}

func (p *RoutePlan) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	count, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}
	if count > 64 {
		return fmt.Errorf("route plan declares %d steps", count)
	}
	p.Steps = make([]ArbitrageStep, count)
	for i := range p.Steps {
		if err := p.Steps[i].UnmarshalWithDecoder(decoder); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	if p.InputToken, err = readPublicKey(decoder); err != nil {
		return err
	}
	p.OutputToken, err = readPublicKey(decoder)
	return err
}

// ExecuteArbitrageDiscriminator prefixes execute_arbitrage instruction data.
var ExecuteArbitrageDiscriminator = AnchorDiscriminator("global", "execute_arbitrage")

// EncodeExecuteArbitrage builds execute_arbitrage instruction data.
func EncodeExecuteArbitrage(plan RoutePlan) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(ExecuteArbitrageDiscriminator[:])
	if err := plan.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("failed to encode route plan: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeExecuteArbitrage parses execute_arbitrage instruction data.
func DecodeExecuteArbitrage(data []byte) (*RoutePlan, error) {
	if len(data) < len(ExecuteArbitrageDiscriminator) {
		return nil, InvalidInput("instruction data too short")
	}
	if !bytes.Equal(data[:8], ExecuteArbitrageDiscriminator[:]) {
		return nil, InvalidInput("instruction is not execute_arbitrage")
	}
	var plan RoutePlan
	if err := plan.UnmarshalWithDecoder(bin.NewBorshDecoder(data[8:])); err != nil {
		return nil, InvalidInput("malformed route plan: %v", err)
	}
	return &plan, nil
}

func readPublicKey(decoder *bin.Decoder) (solana.PublicKey, error) {
	raw, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}
