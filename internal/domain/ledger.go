package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// ArbitrageState is the ledger record shared by every session. Counters only
// grow, and only from an accepted route.
type ArbitrageState struct {
	Address     solana.PublicKey `json:"address"`
	Authority   solana.PublicKey `json:"authority"`
	TotalProfit uint64           `json:"totalProfit"`
	TotalTrades uint64           `json:"totalTrades"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}
