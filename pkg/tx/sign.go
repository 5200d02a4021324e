package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/octra-wallet/pkg/crypto"
)

// ErrSigningFailure is returned when a transaction cannot be signed with
// the given identity.
var ErrSigningFailure = errors.New("signing failure")

// Sign produces a SignedTransaction over t.SigningBytes(). The identity is
// re-validated here so corrupted key material never produces a signature.
func Sign(t *Transaction, id *crypto.Identity) (*SignedTransaction, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrSigningFailure)
	}
	if !crypto.Validate(id) {
		return nil, fmt.Errorf("%w: identity failed validation", ErrSigningFailure)
	}
	if t.From != id.Address {
		return nil, fmt.Errorf("%w: sender %s is not the signing identity", ErrSigningFailure, t.From.Short())
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	sig, err := id.Sign(t.SigningBytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailure, err)
	}
	return &SignedTransaction{
		Transaction: *t,
		Signature:   sig,
		PublicKey:   id.PublicKeyBytes(),
	}, nil
}

// Verify reports whether st carries a valid signature from the key behind
// its sender address.
func Verify(st *SignedTransaction) bool {
	return st != nil && st.Verify()
}
