package venue

import (
	"context"
	"errors"
	"time"

	"github.com/hxuan190/arb-engine/internal/domain"
	"github.com/hxuan190/arb-engine/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Swap runs one venue call and returns the realized output: the destination
// balance after the call minus the balance before it. What the venue reports
// is compared against the delta and otherwise ignored.
func Swap(ctx context.Context, env Env, adapter Adapter, amountIn, minimumAmountOut uint64) (uint64, Report, error) {
	destination := adapter.DestinationAccount()

	before, err := env.TokenBalance(ctx, destination)
	if err != nil {
		return 0, Report{}, domain.ExternalCallFailed(err, "%s: read destination balance", adapter.Venue())
	}

	report, err := adapter.Invoke(ctx, env, amountIn, minimumAmountOut)
	if err != nil {
		var arbErr *domain.ArbError
		switch {
		case errors.As(err, &arbErr):
			return 0, Report{}, err
		case errors.Is(err, ErrSlippage):
			return 0, Report{}, domain.SlippageExceeded(err, "%s", adapter.Venue())
		default:
			return 0, Report{}, domain.ExternalCallFailed(err, "%s swap", adapter.Venue())
		}
	}

	after, err := env.TokenBalance(ctx, destination)
	if err != nil {
		return 0, report, domain.ExternalCallFailed(err, "%s: read destination balance", adapter.Venue())
	}
	if after < before {
		return 0, report, domain.ArithmeticOverflow("%s: destination balance fell from %d to %d", adapter.Venue(), before, after)
	}
	realized := after - before

	if report.Reported && report.AmountOut != realized {
		metrics.ReportMismatches.WithLabelValues(adapter.Venue().String()).Inc()
		log.Warn().
			Str("venue", adapter.Venue().String()).
			Uint64("reported", report.AmountOut).
			Uint64("realized", realized).
			Msg("[Venue] reported output differs from balance delta")
	}

	if realized < minimumAmountOut {
		return 0, report, domain.SlippageExceeded(nil, "%s: realized %d below minimum %d", adapter.Venue(), realized, minimumAmountOut)
	}
	return realized, report, nil
}

// RunHop is the per-step pipeline: it feeds the session's running amount into
// the adapter and records the realized output back into the session.
func RunHop(ctx context.Context, env Env, state *domain.SwapState, adapter Adapter, step domain.ArbitrageStep) (domain.HopRecord, error) {
	if !state.IsValid {
		return domain.HopRecord{}, domain.InvalidState("session %s is closed", state.Address)
	}

	amountIn := state.SwapInput
	log.Debug().
		Str("venue", step.Venue.String()).
		Msgf("swap amount in: %d for token: %s", amountIn, state.CurrentToken)

	start := time.Now()
	realized, report, err := Swap(ctx, env, adapter, amountIn, step.MinimumAmountOut)
	metrics.HopDuration.WithLabelValues(step.Venue.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.HopFailures.WithLabelValues(step.Venue.String(), domain.ReasonOf(err)).Inc()
		return domain.HopRecord{}, err
	}

	if err := state.Advance(realized, step.OutputToken); err != nil {
		return domain.HopRecord{}, err
	}
	log.Debug().
		Str("venue", step.Venue.String()).
		Uint64("reported", report.AmountOut).
		Msgf("swap amount out: %d for token: %s", realized, step.OutputToken)

	return domain.HopRecord{
		Venue:       step.Venue,
		Market:      adapter.Market(),
		OutputToken: step.OutputToken,
		AmountIn:    amountIn,
		AmountOut:   realized,
		ReportedOut: report.AmountOut,
	}, nil
}
