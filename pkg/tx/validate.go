package tx

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// Validation errors.
var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrMessageTooLong = errors.New("message too long")
	ErrNonceOverflow  = errors.New("nonce overflow")
	ErrBadFeeTier     = errors.New("fee tier does not match amount")
)

// Validate checks that the transaction is a well-formed transfer request.
// It does not check anything the node decides (balance, nonce ordering).
func (t *Transaction) Validate() error {
	if _, err := types.ParseAddress(t.From.String()); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if _, err := types.ParseAddress(t.To.String()); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	if t.Amount == 0 {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if t.FeeTier != FeeTierFor(t.Amount) {
		return fmt.Errorf("%w: got %q, want %q", ErrBadFeeTier, t.FeeTier, FeeTierFor(t.Amount))
	}
	if t.Nonce == 0 {
		return fmt.Errorf("nonce must be at least 1")
	}
	if math.IsNaN(t.Timestamp) || math.IsInf(t.Timestamp, 0) || t.Timestamp <= 0 {
		return fmt.Errorf("invalid timestamp %v", t.Timestamp)
	}
	if n := utf8.RuneCountInString(t.Message); n > MaxMessageLength {
		return fmt.Errorf("%w: %d characters, max %d", ErrMessageTooLong, n, MaxMessageLength)
	}
	return nil
}
