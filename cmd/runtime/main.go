package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/arb-engine/internal/arbitrage"
	"github.com/hxuan190/arb-engine/internal/common"
	"github.com/hxuan190/arb-engine/internal/config"
	"github.com/hxuan190/arb-engine/internal/http"
)

// @title Arb Engine API
// @version 1.0-beta
// @description Multi-hop arbitrage execution core for Solana venues.
// @description
// @description ## - Flow
// @description 1. Initialize the ledger of an authority (`POST /api/v1/admin/ledger`)
// @description 2. Open a swap session over a funded token account (`POST /api/v1/session`)
// @description 3. Execute a planned route against the session (`POST /api/v1/route/execute`)
// @description
// @description A route commits only when the final amount is strictly greater than the
// @description start balance plus venue fees. Rejected routes leave balances, the ledger
// @description and the session untouched.
// @description
// @description ## - Venue Fees
// @description | Venue | Fee (bps) |
// @description |-------|-----------|
// @description | Orca | 30 |
// @description | Raydium | 25 |
// @description | Meteora | 20 |
// @description | Phoenix | 15 |
// @description | Lifinity | 35 |
// @description | Jupiter | 10 |
// @description
// @description ## - Usage Tips
// @description - Amounts are strings in smallest token units
// @description - Paper mode simulates every venue with constant product pools seeded from `VENUE_PAPER_POOLS`
// @description - Fork mode reads token accounts from the configured RPC on first use
// @BasePath /
// @schemes http https
// @tag.name ledger
// @tag.description Cumulative profit ledger per authority
// @tag.name session
// @tag.description Swap sessions scoped to one route attempt
// @tag.name route
// @tag.description Route execution, execution history and emitted events
// @tag.name tokens
// @tag.description Candidate token discovery requests
// @tag.name paper
// @tag.description Simulated pools and trader accounts

func main() {
	// load env
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("invalid general config")
		return
	}
	common.ConfigureLogger(general.LogLevel, general.Env)
	common.InitRuntime()

	// di container config
	conf := container.NewConf(
		general,
		&config.RPCConfig{},
		&config.EngineConfig{},
		&config.VenueConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&arbitrage.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
