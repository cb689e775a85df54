// Package events encodes program events the way Anchor programs emit them:
// an 8-byte discriminator of "event:<Name>" followed by the borsh payload,
// logged base64 as a "Program data:" line.
package events

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/arb-engine/internal/domain"
)

const programDataPrefix = "Program data: "

type Emitter interface {
	Emit(ctx context.Context, event domain.Event) error
}

// Sink stores emitted event records.
type Sink interface {
	SaveEvent(record domain.EventRecord) error
}

// Encode returns discriminator || borsh(event).
func Encode(event domain.Event) ([]byte, error) {
	buf := new(bytes.Buffer)
	disc := domain.AnchorDiscriminator("event", event.EventName())
	buf.Write(disc[:])
	if err := event.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", event.EventName(), err)
	}
	return buf.Bytes(), nil
}

// LogLine renders data as the program log line carrying it.
func LogLine(data []byte) string {
	return programDataPrefix + base64.StdEncoding.EncodeToString(data)
}

// LogEmitter writes every event to the process log.
type LogEmitter struct{}

func (LogEmitter) Emit(_ context.Context, event domain.Event) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	log.Info().Str("event", event.EventName()).Msg(LogLine(data))
	return nil
}

// SinkEmitter encodes events and hands them to a Sink.
type SinkEmitter struct {
	sink Sink
	now  func() time.Time
}

func NewSinkEmitter(sink Sink) *SinkEmitter {
	return &SinkEmitter{sink: sink, now: func() time.Time { return time.Now().UTC() }}
}

func (e *SinkEmitter) Emit(_ context.Context, event domain.Event) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	return e.sink.SaveEvent(domain.EventRecord{Name: event.EventName(), Data: data, EmittedAt: e.now()})
}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *Recorder) Emit(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Multi fans an event out to every emitter and joins their errors.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
