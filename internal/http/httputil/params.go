package httputil

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
)

// ParsePublicKey parses a base58 field, naming it in the error.
func ParsePublicKey(field, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s address", field)
	}
	return key, nil
}

// ParseAmount parses a decimal u64 amount. Empty is zero.
func ParseAmount(field, value string) (uint64, error) {
	if value == "" {
		return 0, nil
	}
	amount, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", field)
	}
	return amount, nil
}
