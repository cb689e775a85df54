package executor

import (
	"strconv"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/arb-engine/internal/arbitrage/services/fees"
	"github.com/hxuan190/arb-engine/internal/domain"
)

// Settlement is an accepted route, ready to be committed.
type Settlement struct {
	Snapshot  domain.SessionSnapshot
	TotalFees uint64
	Profit    uint64
	Event     domain.ArbitrageExecuted
	Hops      []domain.HopRecord
}

// Gate closes the session and accepts the route only if the final amount
// strictly exceeds the starting balance plus the fees of every hop, each fee
// taken on the original input amount.
func Gate(session *domain.SwapState, plan *domain.RoutePlan) (*Settlement, error) {
	snapshot, err := session.Close()
	if err != nil {
		return nil, err
	}

	totalFees, err := fees.Total(plan.Venues(), snapshot.AmountIn)
	if err != nil {
		return nil, err
	}

	threshold, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(snapshot.StartBalance), uint256.NewInt(totalFees))
	if overflow || !threshold.IsUint64() {
		return nil, domain.ArithmeticOverflow("start balance %d plus fees %d overflows", snapshot.StartBalance, totalFees)
	}

	final := uint256.NewInt(snapshot.FinalAmount)
	log.Info().
		Uint64("old", snapshot.StartBalance).
		Uint64("new", snapshot.FinalAmount).
		Str("diff", signedDiff(snapshot.FinalAmount, snapshot.StartBalance)).
		Uint64("fees", totalFees).
		Msg("[Gate] profit check")
	if !final.Gt(threshold) {
		return nil, domain.NoProfit("final %d does not exceed start %d plus fees %d", snapshot.FinalAmount, snapshot.StartBalance, totalFees)
	}

	profit, underflow := new(uint256.Int).SubOverflow(final, threshold)
	if underflow {
		return nil, domain.ArithmeticOverflow("profit underflow")
	}

	return &Settlement{
		Snapshot:  snapshot,
		TotalFees: totalFees,
		Profit:    profit.Uint64(),
		Event: domain.ArbitrageExecuted{
			InputToken:  plan.InputToken,
			OutputToken: plan.OutputToken,
			AmountIn:    snapshot.AmountIn,
			AmountOut:   snapshot.FinalAmount,
			Profit:      profit.Uint64(),
		},
	}, nil
}

// signedDiff renders a-b without leaving uint64.
func signedDiff(a, b uint64) string {
	if a >= b {
		return "+" + strconv.FormatUint(a-b, 10)
	}
	return "-" + strconv.FormatUint(b-a, 10)
}
