package crypto

import (
	"crypto/ed25519"
	"fmt"
)

// Sign produces a detached ed25519 signature over msg. The identity is
// re-validated first so a corrupted key never yields a signature.
func (id *Identity) Sign(msg []byte) ([]byte, error) {
	if !Validate(id) {
		return nil, fmt.Errorf("%w: identity failed validation", ErrInvalidKeyMaterial)
	}
	return ed25519.Sign(id.SecretKey, msg), nil
}

// PublicKeyBytes returns a copy of the public key.
func (id *Identity) PublicKeyBytes() []byte {
	out := make([]byte, len(id.PublicKey))
	copy(out, id.PublicKey)
	return out
}

// VerifySignature checks a detached ed25519 signature. Returns false on any
// malformed input.
func VerifySignature(msg, signature, publicKey []byte) bool {
	if len(publicKey) != PublicKeySize || len(signature) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), msg, signature)
}
