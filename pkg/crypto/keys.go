package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// Key sizes (ed25519, tweetnacl layout).
const (
	SecretKeySize = ed25519.PrivateKeySize // seed(32) || public key(32)
	SeedSize      = ed25519.SeedSize
	PublicKeySize = ed25519.PublicKeySize
	SignatureSize = ed25519.SignatureSize
)

// Key management errors.
var (
	ErrInvalidKeyLength   = errors.New("invalid secret key length")
	ErrInvalidKeyMaterial = errors.New("invalid secret key material")
)

// selfTestMessage is signed and verified when importing a key to confirm the
// secret and public halves belong together.
var selfTestMessage = []byte("octra-wallet key self-test")

// Identity is the wallet's signing keypair and the address derived from it.
type Identity struct {
	SecretKey ed25519.PrivateKey
	PublicKey ed25519.PublicKey
	Address   types.Address
}

// Generate creates a new random identity. It only fails if the system
// entropy source fails.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newIdentity(priv, pub)
}

// FromSeed derives an identity from a 32-byte ed25519 seed.
func FromSeed(seed []byte) (*Identity, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidKeyLength, SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return newIdentity(priv, priv.Public().(ed25519.PublicKey))
}

// ImportFromSecret builds an identity from a 64-byte secret key. The public
// half must match the key re-derived from the seed half, and a sign/verify
// round trip must succeed.
func ImportFromSecret(secret []byte) (*Identity, error) {
	if len(secret) != SecretKeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidKeyLength, SecretKeySize, len(secret))
	}
	derived := ed25519.NewKeyFromSeed(secret[:SeedSize])
	if subtle.ConstantTimeCompare(derived, secret) != 1 {
		return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidKeyMaterial)
	}
	pub := derived.Public().(ed25519.PublicKey)
	if !ed25519.Verify(pub, selfTestMessage, ed25519.Sign(derived, selfTestMessage)) {
		return nil, fmt.Errorf("%w: sign/verify round trip failed", ErrInvalidKeyMaterial)
	}
	return newIdentity(derived, pub)
}

// ParseSecret decodes a base64 secret key (standard or URL alphabet) and
// imports it.
func ParseSecret(s string) (*Identity, error) {
	raw, err := DecodeKey(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return ImportFromSecret(raw)
}

// DecodeKey decodes base64 key text in either alphabet, padded or not.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.URLEncoding,
		base64.RawStdEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("not valid base64")
}

// Validate re-derives the public key and address from the secret key and
// checks them against the stored values. A false result means the identity
// is corrupted and must not be used for signing.
func Validate(id *Identity) bool {
	if id == nil || len(id.SecretKey) != SecretKeySize || len(id.PublicKey) != PublicKeySize {
		return false
	}
	derived := ed25519.NewKeyFromSeed(id.SecretKey.Seed())
	if subtle.ConstantTimeCompare(derived, id.SecretKey) != 1 {
		return false
	}
	pub := derived.Public().(ed25519.PublicKey)
	if !bytes.Equal(pub, id.PublicKey) {
		return false
	}
	addr, err := types.AddressFromPubKey(pub)
	if err != nil {
		return false
	}
	return addr == id.Address
}

// Equal reports whether two identities hold the same secret key.
func (id *Identity) Equal(other *Identity) bool {
	if id == nil || other == nil {
		return id == other
	}
	return subtle.ConstantTimeCompare(id.SecretKey, other.SecretKey) == 1
}

// SecretBase64 returns the secret key in standard base64, the export format.
func (id *Identity) SecretBase64() string {
	return base64.StdEncoding.EncodeToString(id.SecretKey)
}

// PublicBase64 returns the public key in standard base64, the wire format.
func (id *Identity) PublicBase64() string {
	return base64.StdEncoding.EncodeToString(id.PublicKey)
}

// Zero wipes the secret key bytes.
func (id *Identity) Zero() {
	for i := range id.SecretKey {
		id.SecretKey[i] = 0
	}
}

func newIdentity(priv ed25519.PrivateKey, pub ed25519.PublicKey) (*Identity, error) {
	addr, err := types.AddressFromPubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("derive address: %w", err)
	}
	return &Identity{SecretKey: priv, PublicKey: pub, Address: addr}, nil
}
