package venue

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/arb-engine/internal/domain"
)

// instructionData writes an optional 8-byte discriminator followed by borsh fields.
func instructionData(prefix []byte, write func(enc *bin.Encoder) error) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(prefix)
	if err := write(bin.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// direction resolves which side of a two-mint pool the output mint is on.
func direction(venue domain.Venue, mintA, mintB, outputMint solana.PublicKey) (aToB bool, err error) {
	switch {
	case outputMint.Equals(mintB):
		return true, nil
	case outputMint.Equals(mintA):
		return false, nil
	default:
		return false, domain.InvalidInput("%s pool does not hold output mint %s", venue, outputMint)
	}
}

// placeholder derives a stable address for a venue account that a paper
// market does not otherwise populate.
func placeholder(label string, market, program solana.PublicKey) solana.PublicKey {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(label), market[:]}, program)
	if err != nil {
		return market
	}
	return addr
}
