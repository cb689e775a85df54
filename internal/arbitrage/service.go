package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/arb-engine/internal/adapters/persistence"
	"github.com/hxuan190/arb-engine/internal/arbitrage/adapters/blockchain"
	"github.com/hxuan190/arb-engine/internal/arbitrage/adapters/host"
	"github.com/hxuan190/arb-engine/internal/arbitrage/services/events"
	"github.com/hxuan190/arb-engine/internal/arbitrage/services/executor"
	"github.com/hxuan190/arb-engine/internal/arbitrage/services/ledger"
	"github.com/hxuan190/arb-engine/internal/arbitrage/services/session"
	"github.com/hxuan190/arb-engine/internal/arbitrage/services/venue"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/config"
	"github.com/hxuan190/arb-engine/internal/domain"
	"github.com/hxuan190/arb-engine/internal/metrics"
	"github.com/hxuan190/arb-engine/internal/services"
)

const ARBITRAGE_SERVICE = "arbitrage-service"

const DefaultExecutionsLimit = 50

type Options struct {
	Store persistence.Store

	// Loader fetches token accounts the bank has not seen. Nil keeps the
	// bank purely local.
	Loader host.AccountLoader

	// Authority owns the paper trader accounts. Generated when zero.
	Authority solana.PublicKey

	MaxHops int

	// Emitters receive every event in addition to the log and the store.
	Emitters []events.Emitter
}

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	engineConfig *config.EngineConfig
	venueConfig  *config.VenueConfig

	store    persistence.Store
	bank     *host.Bank
	ledger   *ledger.Ledger
	sessions *session.Registry
	venues   *venue.Registry
	executor *executor.Executor
	emitter  events.Emitter

	mu        sync.RWMutex
	authority solana.PublicKey
	accounts  map[solana.PublicKey]solana.PublicKey // mint -> trader token account
	pools     []venue.PaperPool
}

// New builds a ready service without the DI container.
func New(opts Options) *Service {
	svc := &Service{}
	svc.init(opts)
	return svc
}

func (svc *Service) ID() string {
	return ARBITRAGE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.engineConfig = c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	svc.venueConfig = c.GetConfig(config.VENUE_CONFIG_KEY).(*config.VenueConfig)

	opts := Options{
		Authority: svc.engineConfig.Authority,
		MaxHops:   svc.engineConfig.MaxHops,
	}

	if svc.engineConfig.PersistenceEnabled {
		storage, err := persistence.NewStorage(svc.engineConfig.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open engine storage: %w", err)
		}
		opts.Store = storage
	}

	if svc.engineConfig.Mode == config.ForkMode {
		rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
		if err := rpcConfig.Validate(); err != nil {
			return err
		}
		client := rpc.NewWithHeaders(rpcConfig.RPCUrl, rpcConfig.Headers())
		reader, err := blockchain.NewTokenAccountReader(client, svc.engineConfig.AccountCacheSize)
		if err != nil {
			return err
		}
		opts.Loader = reader
	}

	svc.init(opts)
	return nil
}

func (svc *Service) init(opts Options) {
	svc.logger = services.NewServiceLogger(svc)
	if opts.Store == nil {
		opts.Store = persistence.NewMemoryStorage()
	}
	if opts.Authority.IsZero() {
		opts.Authority = solana.NewWallet().PublicKey()
	}

	svc.store = opts.Store
	svc.bank = host.NewBank(opts.Loader)
	svc.ledger = ledger.New(common.ArbitrageProgramID)
	svc.sessions = session.NewRegistry(common.ArbitrageProgramID)
	svc.venues = venue.NewRegistry()
	svc.executor = executor.New(svc.venues, opts.MaxHops)
	svc.emitter = append(events.Multi{events.LogEmitter{}, events.NewSinkEmitter(svc.store)}, opts.Emitters...)
	svc.authority = opts.Authority
	svc.accounts = make(map[solana.PublicKey]solana.PublicKey)
}

func (svc *Service) Start() error {
	ctx := context.Background()

	if ledgers, err := svc.store.LoadLedgers(); err != nil {
		svc.logger.Warn().Err(err).Msg("[ArbitrageService] could not load ledgers, starting empty")
	} else {
		svc.ledger.Load(ledgers)
	}
	if sessions, err := svc.store.LoadSessions(); err != nil {
		svc.logger.Warn().Err(err).Msg("[ArbitrageService] could not load sessions, starting empty")
	} else {
		svc.sessions.Load(sessions)
	}

	if svc.engineConfig != nil {
		if svc.engineConfig.Mode == config.ForkMode && len(svc.engineConfig.HydrateAccounts) > 0 {
			if err := svc.bank.Hydrate(ctx, svc.engineConfig.HydrateAccounts); err != nil {
				return err
			}
		}
		for _, spec := range svc.venueConfig.PaperPools {
			if _, err := svc.AddPaperPool(ctx, spec); err != nil {
				return err
			}
		}
	}

	metrics.BankAccounts.Set(float64(svc.bank.Size()))
	svc.logger.Info().
		Str("authority", svc.authority.String()).
		Int("ledgers", svc.ledger.Len()).
		Int("sessions", svc.sessions.Len()).
		Int("adapters", svc.venues.Len()).
		Msg("[ArbitrageService] started")
	return nil
}

func (svc *Service) Stop() error {
	return svc.store.Close()
}

func (svc *Service) Authority() solana.PublicKey {
	return svc.authority
}

// Initialize creates the ledger owned by authority.
func (svc *Service) Initialize(ctx context.Context, authority solana.PublicKey) (*domain.ArbitrageState, error) {
	return svc.ledger.Initialize(ctx, authority, svc.store.SaveLedger)
}

func (svc *Service) GetLedger(address solana.PublicKey) (*domain.ArbitrageState, error) {
	return svc.ledger.Get(address)
}

func (svc *Service) LedgerStats(address solana.PublicKey) (*ledger.Stats, error) {
	return svc.ledger.Stats(address)
}

type OpenSessionRequest struct {
	Owner         solana.PublicKey
	SourceAccount solana.PublicKey
	Amount        uint64
}

// OpenSession starts a session over the current balance of the source account.
func (svc *Service) OpenSession(ctx context.Context, req OpenSessionRequest) (*domain.SwapState, error) {
	account, err := svc.bank.TokenAccount(ctx, req.SourceAccount)
	if err != nil {
		if errors.Is(err, host.ErrAccountNotFound) {
			return nil, domain.NotFound("source account", req.SourceAccount)
		}
		return nil, domain.ExternalCallFailed(err, "read source account %s", req.SourceAccount)
	}
	return svc.sessions.Open(ctx, session.OpenRequest{
		Owner:         req.Owner,
		SourceAccount: req.SourceAccount,
		SourceBalance: account.Amount,
		SourceToken:   account.Mint,
		Amount:        req.Amount,
	}, svc.store.SaveSession)
}

func (svc *Service) GetSession(address solana.PublicKey) (*domain.SwapState, error) {
	return svc.sessions.Get(address)
}

// ExecuteRoute runs plan for a session and settles it into a ledger. Either
// the bank writes, the ledger update, the closed session and the execution
// record all land, or none of them do.
func (svc *Service) ExecuteRoute(ctx context.Context, ledgerAddress, sessionAddress solana.PublicKey, plan *domain.RoutePlan) (*domain.ExecutionRecord, error) {
	if plan == nil {
		return nil, domain.InvalidInput("route plan is required")
	}
	if _, err := svc.ledger.Get(ledgerAddress); err != nil {
		return nil, err
	}
	lease, err := svc.sessions.Acquire(sessionAddress)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	working := lease.State()
	tx := svc.bank.Begin()
	defer tx.Rollback()

	var record *domain.ExecutionRecord
	settler := executor.SettlerFunc(func(ctx context.Context, s *executor.Settlement) error {
		_, err := svc.ledger.Apply(ctx, ledgerAddress, s.Profit, func(next *domain.ArbitrageState) error {
			candidate := &domain.ExecutionRecord{
				Ledger:      ledgerAddress,
				Session:     sessionAddress,
				TradeNumber: next.TotalTrades,
				Event:       s.Event,
				TotalFees:   s.TotalFees,
				Hops:        s.Hops,
				ExecutedAt:  next.UpdatedAt,
			}
			err := tx.Commit(func() error {
				return svc.store.SaveSettlement(next, working, candidate)
			})
			switch {
			case errors.Is(err, host.ErrConflict):
				return domain.InvalidState("token accounts changed during execution: %v", err)
			case err != nil:
				return fmt.Errorf("failed to persist settlement: %w", err)
			}
			record = candidate
			return nil
		})
		return err
	})

	logger := svc.logger.With("session", sessionAddress.String())
	outcome, err := svc.executor.Execute(ctx, tx, working, plan, settler)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("reason", domain.ReasonOf(err)).
			Str("state", string(outcomeState(outcome))).
			Msg("[ArbitrageService] route rejected")
		return nil, err
	}
	if err := lease.Commit(working); err != nil {
		return nil, err
	}
	metrics.BankAccounts.Set(float64(svc.bank.Size()))

	logger.Info().
		Uint64("trade", record.TradeNumber).
		Uint64("profit", record.Event.Profit).
		Int("hops", len(record.Hops)).
		Msg("[ArbitrageService] route committed")

	if err := svc.emitter.Emit(ctx, record.Event); err != nil {
		logger.Error().Err(err).Msg("[ArbitrageService] failed to emit ArbitrageExecuted")
	}
	return record, nil
}

func outcomeState(outcome *executor.Outcome) executor.State {
	if outcome == nil {
		return executor.StateIdle
	}
	return outcome.State
}

// FetchCandidateTokens records a token discovery request. Discovery itself
// is left to whoever consumes the event.
func (svc *Service) FetchCandidateTokens(ctx context.Context, requester solana.PublicKey) (*domain.CandidateTokensRequested, error) {
	if requester.IsZero() {
		return nil, domain.InvalidInput("requester is required")
	}
	event := domain.CandidateTokensRequested{Requester: requester, RequestedAt: time.Now().Unix()}
	if err := svc.emitter.Emit(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to emit %s: %w", event.EventName(), err)
	}
	return &event, nil
}

func (svc *Service) ListExecutions(limit int) ([]*domain.ExecutionRecord, error) {
	if limit <= 0 {
		limit = DefaultExecutionsLimit
	}
	return svc.store.ListExecutions(limit)
}

func (svc *Service) ListEvents(limit int) ([]domain.EventRecord, error) {
	if limit <= 0 {
		limit = DefaultExecutionsLimit
	}
	return svc.store.ListEvents(limit)
}

func (svc *Service) TokenAccount(ctx context.Context, address solana.PublicKey) (host.TokenAccount, error) {
	account, err := svc.bank.TokenAccount(ctx, address)
	if errors.Is(err, host.ErrAccountNotFound) {
		return host.TokenAccount{}, domain.NotFound("token account", address)
	}
	return account, err
}
