package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/arb-engine/internal/domain"
)

const (
	LedgersBucket    = "ledgers"
	SessionsBucket   = "sessions"
	ExecutionsBucket = "executions"
	EventsBucket     = "events"

	DefaultDBPath = "./data/arb-engine.db"
)

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string

	// eventSeq starts at the open time so keys stay unique across restarts.
	eventSeq atomic.Uint64
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[ArbStorage] opened database")

	s := &Storage{
		db:     db,
		dbPath: dbPath,
	}
	s.eventSeq.Store(uint64(time.Now().UnixNano()))
	return s, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SaveLedger(state *domain.ArbitrageState) error {
	data, err := sonic.Marshal(ledgerToStored(state))
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	return s.db.Set(LedgersBucket, []byte(state.Address.String()), data)
}

func (s *Storage) LoadLedgers() ([]*domain.ArbitrageState, error) {
	data, err := s.db.List(LedgersBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	states := make([]*domain.ArbitrageState, 0, len(data))
	for address, value := range data {
		var stored StoredLedger
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("address", address).Err(err).Msg("[ArbStorage] failed to unmarshal ledger, skipping")
			continue
		}
		state, err := storedToLedger(&stored)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[ArbStorage] failed to convert stored ledger, skipping")
			continue
		}
		states = append(states, state)
	}
	log.Info().Int("total_in_db", len(data)).Int("loaded", len(states)).Msg("[ArbStorage] ledgers loaded")
	return states, nil
}

func (s *Storage) SaveSession(state *domain.SwapState) error {
	data, err := sonic.Marshal(sessionToStored(state))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.db.Set(SessionsBucket, []byte(state.Address.String()), data)
}

func (s *Storage) LoadSessions() ([]*domain.SwapState, error) {
	data, err := s.db.List(SessionsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	states := make([]*domain.SwapState, 0, len(data))
	for address, value := range data {
		var stored StoredSession
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("address", address).Err(err).Msg("[ArbStorage] failed to unmarshal session, skipping")
			continue
		}
		state, err := storedToSession(&stored)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[ArbStorage] failed to convert stored session, skipping")
			continue
		}
		states = append(states, state)
	}
	log.Info().Int("total_in_db", len(data)).Int("loaded", len(states)).Msg("[ArbStorage] sessions loaded")
	return states, nil
}

// SaveSettlement writes the ledger, the closed session and the execution
// record in one batch.
func (s *Storage) SaveSettlement(ledger *domain.ArbitrageState, session *domain.SwapState, record *domain.ExecutionRecord) error {
	ledgerData, err := sonic.Marshal(ledgerToStored(ledger))
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	sessionData, err := sonic.Marshal(sessionToStored(session))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	recordData, err := sonic.Marshal(executionToStored(record))
	if err != nil {
		return fmt.Errorf("failed to marshal execution record: %w", err)
	}

	batch := s.db.NewBatch()
	ops := []struct {
		bucket string
		key    string
		value  []byte
	}{
		{LedgersBucket, ledger.Address.String(), ledgerData},
		{SessionsBucket, session.Address.String(), sessionData},
		{ExecutionsBucket, executionKey(record), recordData},
	}
	for _, o := range ops {
		value := o.value
		op := &boltdb.WriteOperation{
			Bucket: []byte(o.bucket),
			Key:    []byte(o.key),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", o.bucket, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Str("session", session.Address.String()).Msg("[ArbStorage] FAILED to execute settlement batch")
		return err
	}
	return nil
}

func (s *Storage) ListExecutions(limit int) ([]*domain.ExecutionRecord, error) {
	data, err := s.db.List(ExecutionsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	records := make([]*domain.ExecutionRecord, 0, len(data))
	for key, value := range data {
		var stored StoredExecution
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Warn().Str("key", key).Err(err).Msg("[ArbStorage] failed to unmarshal execution, skipping")
			continue
		}
		record, err := storedToExecution(&stored)
		if err != nil {
			log.Warn().Str("key", key).Err(err).Msg("[ArbStorage] invalid stored execution, skipping")
			continue
		}
		records = append(records, record)
	}
	return newestExecutions(records, limit), nil
}

func (s *Storage) SaveEvent(record domain.EventRecord) error {
	data, err := sonic.Marshal(eventToStored(record))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.db.Set(EventsBucket, []byte(eventKey(record, s.eventSeq.Add(1))), data)
}

func (s *Storage) ListEvents(limit int) ([]domain.EventRecord, error) {
	data, err := s.db.List(EventsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	records := make([]domain.EventRecord, 0, len(data))
	for key, value := range data {
		var stored StoredEvent
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Warn().Str("key", key).Err(err).Msg("[ArbStorage] failed to unmarshal event, skipping")
			continue
		}
		record, err := storedToEvent(&stored)
		if err != nil {
			log.Warn().Str("key", key).Err(err).Msg("[ArbStorage] invalid stored event, skipping")
			continue
		}
		records = append(records, record)
	}
	return newestEvents(records, limit), nil
}
