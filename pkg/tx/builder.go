package tx

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// MaxJitter bounds the random fraction added to timestamps so rapid
// successive sends do not hash identically.
const MaxJitter = 0.001

// maxFraction keeps a jittered timestamp inside its wall-clock second.
const maxFraction = 0.999999

// Builder constructs unsigned transfers. It never touches the network;
// the caller supplies the current confirmed nonce.
type Builder struct {
	now    func() time.Time
	jitter func() float64
}

// NewBuilder creates a builder using the wall clock and random jitter.
func NewBuilder() *Builder {
	return &Builder{
		now:    time.Now,
		jitter: func() float64 { return rand.Float64() * MaxJitter },
	}
}

// WithClock replaces the time source.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithJitter replaces the jitter source. Values are clamped to [0, MaxJitter).
func (b *Builder) WithJitter(jitter func() float64) *Builder {
	b.jitter = jitter
	return b
}

// Build assembles a transfer of decimalAmount OCT. The raw amount is
// floor(decimalAmount * 10^6) and the nonce is currentNonce+1.
func (b *Builder) Build(from, to types.Address, decimalAmount float64, currentNonce uint64, message string) (*Transaction, error) {
	if math.IsNaN(decimalAmount) || math.IsInf(decimalAmount, 0) {
		return nil, fmt.Errorf("%w: not a finite number", ErrInvalidAmount)
	}
	if decimalAmount <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	amount, err := types.AmountFromFloat(decimalAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return b.BuildRaw(from, to, amount, currentNonce, message)
}

// BuildRaw is Build for an amount already expressed in raw units.
func (b *Builder) BuildRaw(from, to types.Address, amount types.Amount, currentNonce uint64, message string) (*Transaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: below the smallest unit", ErrInvalidAmount)
	}
	if _, err := types.ParseAddress(from.String()); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if _, err := types.ParseAddress(to.String()); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if n := utf8.RuneCountInString(message); n > MaxMessageLength {
		return nil, fmt.Errorf("%w: %d characters, max %d", ErrMessageTooLong, n, MaxMessageLength)
	}
	if currentNonce == math.MaxUint64 {
		return nil, ErrNonceOverflow
	}

	return &Transaction{
		From:      from,
		To:        to,
		Amount:    amount,
		Nonce:     currentNonce + 1,
		FeeTier:   FeeTierFor(amount),
		Timestamp: b.timestamp(),
		Message:   message,
	}, nil
}

// timestamp returns wall-clock seconds with microsecond precision plus
// jitter, never crossing into the next second.
func (b *Builder) timestamp() float64 {
	t := b.now()
	j := b.jitter()
	if j < 0 || math.IsNaN(j) {
		j = 0
	}
	if j >= MaxJitter {
		j = MaxJitter
	}
	frac := float64(t.Nanosecond())/1e9 + j
	if frac > maxFraction {
		frac = maxFraction
	}
	frac = math.Floor(frac*1e6) / 1e6
	return float64(t.Unix()) + frac
}
