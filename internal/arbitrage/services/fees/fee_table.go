// Package fees holds the fixed per-venue fee rates used by the profit gate.
package fees

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/arb-engine/internal/domain"
)

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10_000

var feeBps = map[domain.Venue]uint64{
	domain.VenueOrca:     30,
	domain.VenueRaydium:  25,
	domain.VenueMeteora:  20,
	domain.VenuePhoenix:  15,
	domain.VenueLifinity: 35,
	domain.VenueJupiter:  10,
}

// RateBps returns the fee rate of a venue in basis points.
func RateBps(venue domain.Venue) (uint64, error) {
	bps, ok := feeBps[venue]
	if !ok {
		return 0, domain.InvalidInput("no fee rate for venue %s", venue)
	}
	return bps, nil
}

// Fee is amount * rate / 10000, rounded down. The multiplication is checked.
func Fee(venue domain.Venue, amount uint64) (uint64, error) {
	bps, err := RateBps(venue)
	if err != nil {
		return 0, err
	}
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amount), uint256.NewInt(bps))
	if overflow || !product.IsUint64() {
		return 0, domain.ArithmeticOverflow("fee %s: %d * %d overflows", venue, amount, bps)
	}
	return product.Uint64() / BpsDenominator, nil
}

// Total sums the fee of every venue, each applied to the same amount.
func Total(venues []domain.Venue, amount uint64) (uint64, error) {
	var total uint64
	for _, venue := range venues {
		fee, err := Fee(venue, amount)
		if err != nil {
			return 0, err
		}
		sum := total + fee
		if sum < total {
			return 0, domain.ArithmeticOverflow("total fees overflow")
		}
		total = sum
	}
	return total, nil
}
