package domain

import "crypto/sha256"

// AnchorDiscriminator returns the 8-byte sha256("<namespace>:<name>") prefix
// Anchor programs use for instructions ("global") and events ("event").
func AnchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}
