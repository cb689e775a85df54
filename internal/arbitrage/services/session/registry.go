// Package session tracks swap sessions and hands each one to at most one
// route execution at a time.
package session

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/domain"
	"github.com/hxuan190/arb-engine/internal/metrics"
)

// CommitFunc persists a session record before the registry installs it.
type CommitFunc func(state *domain.SwapState) error

type entry struct {
	state  *domain.SwapState
	leased bool
}

type Registry struct {
	mu       sync.Mutex
	program  solana.PublicKey
	sessions map[solana.PublicKey]*entry
	nonces   map[solana.PublicKey]uint64
}

func NewRegistry(program solana.PublicKey) *Registry {
	return &Registry{
		program:  program,
		sessions: make(map[solana.PublicKey]*entry),
		nonces:   make(map[solana.PublicKey]uint64),
	}
}

// DeriveAddress returns the session account of owner for nonce.
func DeriveAddress(program, owner solana.PublicKey, nonce uint64) (solana.PublicKey, error) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	address, _, err := solana.FindProgramAddress([][]byte{[]byte(common.SwapStateSeed), owner[:], n[:]}, program)
	return address, err
}

// Load restores persisted sessions and advances owner nonces past them.
func (r *Registry) Load(states []*domain.SwapState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range states {
		r.sessions[s.Address] = &entry{state: s.Clone()}
		if next := s.Nonce + 1; next > r.nonces[s.Owner] {
			r.nonces[s.Owner] = next
		}
	}
	r.syncGauge()
}

type OpenRequest struct {
	Owner         solana.PublicKey
	SourceAccount solana.PublicKey
	SourceBalance uint64
	SourceToken   solana.PublicKey
	Amount        uint64
}

// Open starts a fresh session for req.Owner at the owner's next nonce.
func (r *Registry) Open(ctx context.Context, req OpenRequest, commit CommitFunc) (*domain.SwapState, error) {
	if req.Owner.IsZero() || req.SourceAccount.IsZero() {
		return nil, domain.InvalidInput("owner and source account are required")
	}
	if req.Amount == 0 {
		return nil, domain.InvalidInput("requested input must be positive")
	}
	state, err := domain.OpenSwapState(req.SourceBalance, req.Amount, req.SourceToken)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	nonce := r.nonces[req.Owner]
	address, err := DeriveAddress(r.program, req.Owner, nonce)
	if err != nil {
		return nil, domain.InvalidInput("derive session address: %v", err)
	}
	state.Address = address
	state.Owner = req.Owner
	state.Nonce = nonce
	state.SourceAccount = req.SourceAccount

	if commit != nil {
		if err := commit(state); err != nil {
			return nil, err
		}
	}
	r.nonces[req.Owner] = nonce + 1
	r.sessions[address] = &entry{state: state}
	r.syncGauge()

	log.Debug().
		Str("session", address.String()).
		Str("owner", req.Owner.String()).
		Uint64("amountIn", req.Amount).
		Uint64("startBalance", req.SourceBalance).
		Msg("[SessionRegistry] opened")
	return state.Clone(), nil
}

func (r *Registry) Get(address solana.PublicKey) (*domain.SwapState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[address]
	if !ok {
		return nil, domain.NotFound("session", address)
	}
	return e.state.Clone(), nil
}

// Acquire takes exclusive use of a session. The lease must end with Commit
// or Release.
func (r *Registry) Acquire(address solana.PublicKey) (*Lease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[address]
	if !ok {
		return nil, domain.NotFound("session", address)
	}
	if e.leased {
		return nil, domain.InvalidState("session %s is in use by another execution", address)
	}
	e.leased = true
	return &Lease{registry: r, address: address, state: e.state.Clone()}, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// syncGauge must be called with r.mu held.
func (r *Registry) syncGauge() {
	open := 0
	for _, e := range r.sessions {
		if e.state.IsValid {
			open++
		}
	}
	metrics.OpenSessions.Set(float64(open))
}

func (r *Registry) finish(address solana.PublicKey, next *domain.SwapState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[address]
	if !ok {
		return
	}
	if next != nil {
		e.state = next.Clone()
	}
	e.leased = false
	r.syncGauge()
}

// Lease is exclusive access to one session.
type Lease struct {
	registry *Registry
	address  solana.PublicKey
	state    *domain.SwapState
	done     bool
}

// State returns a private copy of the leased session.
func (l *Lease) State() *domain.SwapState {
	return l.state.Clone()
}

// Commit installs next as the session record and ends the lease.
func (l *Lease) Commit(next *domain.SwapState) error {
	if l.done {
		return domain.InvalidState("session %s lease already ended", l.address)
	}
	if !next.Address.Equals(l.address) {
		return domain.InvalidInput("lease for %s cannot commit %s", l.address, next.Address)
	}
	l.done = true
	l.registry.finish(l.address, next)
	return nil
}

// Release ends the lease leaving the session as it was. Safe to call after Commit.
func (l *Lease) Release() {
	if l.done {
		return
	}
	l.done = true
	l.registry.finish(l.address, nil)
}
