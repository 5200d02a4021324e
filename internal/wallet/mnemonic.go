package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/Klingon-tech/octra-wallet/pkg/crypto"
)

// MnemonicEntropyBits is the entropy size for 24-word mnemonics.
const MnemonicEntropyBits = 256

// ErrInvalidMnemonic is returned for phrases that fail BIP-39 validation.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// ed25519MasterKey is the SLIP-0010 HMAC key for the ed25519 curve.
var ed25519MasterKey = []byte("ed25519 seed")

// GenerateMnemonic creates a new 24-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalizeMnemonic(mnemonic))
}

// IdentityFromMnemonic derives the wallet key from a BIP-39 phrase. The
// BIP-39 seed is turned into an ed25519 seed with the SLIP-0010 master key
// step; no child derivation is applied.
func IdentityFromMnemonic(mnemonic, passphrase string) (*crypto.Identity, error) {
	mnemonic = normalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return crypto.FromSeed(masterKey(seed))
}

// masterKey returns the SLIP-0010 ed25519 master secret for a BIP-39 seed.
func masterKey(seed []byte) []byte {
	mac := hmac.New(sha512.New, ed25519MasterKey)
	mac.Write(seed)
	return mac.Sum(nil)[:crypto.SeedSize]
}

func normalizeMnemonic(m string) string {
	return strings.Join(strings.Fields(strings.ToLower(m)), " ")
}
