// Package executor drives a route plan through the venue adapters and gates
// the result on profit.
package executor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/arb-engine/internal/arbitrage/services/venue"
	"github.com/hxuan190/arb-engine/internal/domain"
	"github.com/hxuan190/arb-engine/internal/metrics"
)

// Resolver maps a route step to the adapter that executes it.
type Resolver interface {
	Resolve(step domain.ArbitrageStep) (venue.Adapter, error)
}

// Settler commits an accepted settlement. A settler error aborts the attempt.
type Settler interface {
	Settle(ctx context.Context, settlement *Settlement) error
}

type SettlerFunc func(ctx context.Context, settlement *Settlement) error

func (f SettlerFunc) Settle(ctx context.Context, settlement *Settlement) error {
	return f(ctx, settlement)
}

type Outcome struct {
	State      State
	Trail      []State
	Settlement *Settlement
	Hops       []domain.HopRecord
}

type Executor struct {
	resolver Resolver
	maxHops  int
}

func New(resolver Resolver, maxHops int) *Executor {
	if maxHops <= 0 {
		maxHops = domain.DefaultMaxHops
	}
	return &Executor{resolver: resolver, maxHops: maxHops}
}

// Execute runs plan against session inside env. session must be a private
// copy: it is advanced hop by hop and closed by the gate. Nothing outside env
// and session is touched before settler runs, so an aborted attempt leaves no
// trace once the caller discards both.
func (e *Executor) Execute(ctx context.Context, env venue.Env, session *domain.SwapState, plan *domain.RoutePlan, settler Settler) (*Outcome, error) {
	sm := NewStateMachine()
	start := time.Now()
	metrics.RouteHops.Observe(float64(len(plan.Steps)))

	outcome := &Outcome{}
	abort := func(err error) (*Outcome, error) {
		sm.Apply(EventAbort)
		outcome.State = sm.State
		outcome.Trail = sm.Trail()
		metrics.RouteExecutions.WithLabelValues(string(StateAborted), domain.ReasonOf(err)).Inc()
		metrics.RouteDuration.Observe(time.Since(start).Seconds())
		log.Debug().Err(err).Str("session", session.Address.String()).Msg("[Executor] route aborted")
		return outcome, err
	}

	if err := plan.Validate(e.maxHops); err != nil {
		return abort(err)
	}
	if !session.IsValid {
		return abort(domain.InvalidState("session %s is closed", session.Address))
	}
	if !plan.InputToken.Equals(session.InputToken) {
		return abort(domain.InvalidInput("plan starts from %s, session holds %s", plan.InputToken, session.InputToken))
	}
	sm.Apply(EventOpen)

	// Each hop spends from the account the previous hop paid into.
	source := session.SourceAccount
	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return abort(domain.ExternalCallFailed(err, "step %d: attempt cancelled", i))
		}
		adapter, err := e.resolver.Resolve(step)
		if err != nil {
			return abort(err)
		}
		if !adapter.OutputMint().Equals(step.OutputToken) {
			return abort(domain.InvalidInput("step %d: %s market %s delivers %s, plan expects %s", i, step.Venue, adapter.Market(), adapter.OutputMint(), step.OutputToken))
		}
		if !source.IsZero() && !adapter.SourceAccount().Equals(source) {
			return abort(domain.InvalidInput("step %d: %s market %s spends from %s, expected %s", i, step.Venue, adapter.Market(), adapter.SourceAccount(), source))
		}
		mint, err := env.TokenMint(ctx, adapter.DestinationAccount())
		if err != nil {
			return abort(domain.ExternalCallFailed(err, "step %d: read destination mint", i))
		}
		if !mint.Equals(step.OutputToken) {
			return abort(domain.InvalidInput("step %d: destination account holds %s, plan expects %s", i, mint, step.OutputToken))
		}

		hop, err := venue.RunHop(ctx, env, session, adapter, step)
		if err != nil {
			return abort(err)
		}
		outcome.Hops = append(outcome.Hops, hop)
		source = adapter.DestinationAccount()
	}

	if !session.CurrentToken.Equals(plan.OutputToken) {
		return abort(domain.InvalidInput("route ended in %s, plan declares %s", session.CurrentToken, plan.OutputToken))
	}
	sm.Apply(EventFinalize)

	settlement, err := Gate(session, plan)
	if err != nil {
		return abort(err)
	}
	settlement.Hops = outcome.Hops
	outcome.Settlement = settlement

	if settler != nil {
		if err := settler.Settle(ctx, settlement); err != nil {
			outcome.Settlement = nil
			return abort(err)
		}
	}
	sm.Apply(EventCommit)

	outcome.State = sm.State
	outcome.Trail = sm.Trail()
	metrics.RouteExecutions.WithLabelValues(string(StateCommitted), "").Inc()
	metrics.RouteDuration.Observe(time.Since(start).Seconds())
	metrics.Profit.Observe(float64(settlement.Profit))
	log.Info().
		Str("session", session.Address.String()).
		Int("hops", len(plan.Steps)).
		Uint64("profit", settlement.Profit).
		Msg("[Executor] route committed")
	return outcome, nil
}
