package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/arb-engine/internal/domain"
)

// PaperPoolSpec describes one simulated pool.
type PaperPoolSpec struct {
	Venue    domain.Venue
	MintA    solana.PublicKey
	MintB    solana.PublicKey
	ReserveA uint64
	ReserveB uint64
}

type VenueConfig struct {
	// PaperPools come from VENUE_PAPER_POOLS, a comma separated list of
	// venue:mintA:mintB:reserveA:reserveB.
	PaperPools []PaperPoolSpec
}

func (c *VenueConfig) Key() string {
	return VENUE_CONFIG_KEY
}

func (c *VenueConfig) Load() error {
	pools, err := ParsePaperPools(os.Getenv("VENUE_PAPER_POOLS"))
	if err != nil {
		return err
	}
	c.PaperPools = pools
	return nil
}

func (c *VenueConfig) Validate() error {
	return nil
}

func ParsePaperPools(raw string) ([]PaperPoolSpec, error) {
	var pools []PaperPoolSpec
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.Split(p, ":")
		if len(parts) != 5 {
			return nil, fmt.Errorf("paper pool %q: want venue:mintA:mintB:reserveA:reserveB", p)
		}
		venue, err := domain.ParseVenue(parts[0])
		if err != nil {
			return nil, fmt.Errorf("paper pool %q: %w", p, err)
		}
		mintA, err := solana.PublicKeyFromBase58(parts[1])
		if err != nil {
			return nil, fmt.Errorf("paper pool %q: mintA: %w", p, err)
		}
		mintB, err := solana.PublicKeyFromBase58(parts[2])
		if err != nil {
			return nil, fmt.Errorf("paper pool %q: mintB: %w", p, err)
		}
		if mintA.Equals(mintB) {
			return nil, fmt.Errorf("paper pool %q: mints must differ", p)
		}
		reserveA, err := strconv.ParseUint(parts[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("paper pool %q: reserveA: %w", p, err)
		}
		reserveB, err := strconv.ParseUint(parts[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("paper pool %q: reserveB: %w", p, err)
		}
		pools = append(pools, PaperPoolSpec{Venue: venue, MintA: mintA, MintB: mintB, ReserveA: reserveA, ReserveB: reserveB})
	}
	return pools, nil
}
