// Package crypto provides the wallet's key management and signing
// primitives: ed25519 identities, detached signatures and BLAKE3 hashing.
package crypto

import (
	"github.com/Klingon-tech/octra-wallet/pkg/types"
	"github.com/zeebo/blake3"
)

// HashConcat computes the BLAKE3-256 hash of the concatenation of parts.
func HashConcat(parts ...[]byte) types.Hash {
	h := blake3.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}
