package tx

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/octra-wallet/pkg/crypto"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

func testIdentity(t *testing.T) *crypto.Identity {
	t.Helper()
	id, err := crypto.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return id
}

func fixedBuilder() *Builder {
	return NewBuilder().
		WithClock(func() time.Time { return time.Unix(1700000000, 123456789) }).
		WithJitter(func() float64 { return 0 })
}

func TestBuild_EndToEnd(t *testing.T) {
	from := testIdentity(t)
	to := testIdentity(t)

	txn, err := fixedBuilder().Build(from.Address, to.Address, 10.5, 5, "hi")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if txn.Amount.Raw() != "10500000" {
		t.Errorf("amount = %s, want 10500000", txn.Amount.Raw())
	}
	if txn.Nonce != 6 {
		t.Errorf("nonce = %d, want 6", txn.Nonce)
	}
	if txn.FeeTier != FeeTierLow {
		t.Errorf("fee tier = %q, want %q", txn.FeeTier, FeeTierLow)
	}
	if txn.Message != "hi" {
		t.Errorf("message = %q, want hi", txn.Message)
	}
	if math.Abs(txn.Timestamp-1700000000.123456) > 1e-6 {
		t.Errorf("timestamp = %f, want 1700000000.123456", txn.Timestamp)
	}

	sb := string(txn.SigningBytes())
	wantPrefix := `{"from":"` + from.Address.String() + `","to_":"` + to.Address.String() +
		`","amount":"10500000","nonce":6,"ou":"1","timestamp":`
	if !strings.HasPrefix(sb, wantPrefix) {
		t.Errorf("signing bytes = %s, want prefix %s", sb, wantPrefix)
	}
	if strings.Contains(sb, "hi") || strings.Contains(sb, "message") {
		t.Errorf("signing bytes must not include the message: %s", sb)
	}
}

func TestBuild_InvalidAmounts(t *testing.T) {
	from := testIdentity(t)
	to := testIdentity(t)
	b := fixedBuilder()

	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1), 0.0000001} {
		if _, err := b.Build(from.Address, to.Address, v, 0, ""); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Build(%v) error = %v, want ErrInvalidAmount", v, err)
		}
	}
}

func TestBuild_InvalidAddress(t *testing.T) {
	from := testIdentity(t)
	b := fixedBuilder()

	if _, err := b.Build(from.Address, types.Address("octnope"), 1, 0, ""); !errors.Is(err, types.ErrInvalidAddress) {
		t.Errorf("bad recipient error = %v, want ErrInvalidAddress", err)
	}
	if _, err := b.Build(types.Address(""), from.Address, 1, 0, ""); !errors.Is(err, types.ErrInvalidAddress) {
		t.Errorf("bad sender error = %v, want ErrInvalidAddress", err)
	}
}

func TestBuild_MessageLength(t *testing.T) {
	from := testIdentity(t)
	to := testIdentity(t)
	b := fixedBuilder()

	// Multi-byte characters count once each.
	ok := strings.Repeat("é", MaxMessageLength)
	if _, err := b.Build(from.Address, to.Address, 1, 0, ok); err != nil {
		t.Fatalf("Build() with %d chars error: %v", MaxMessageLength, err)
	}
	if _, err := b.Build(from.Address, to.Address, 1, 0, ok+"x"); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("Build() with long message error = %v, want ErrMessageTooLong", err)
	}
}

func TestBuild_NonceOverflow(t *testing.T) {
	from := testIdentity(t)
	to := testIdentity(t)
	if _, err := fixedBuilder().BuildRaw(from.Address, to.Address, 1, math.MaxUint64, ""); !errors.Is(err, ErrNonceOverflow) {
		t.Errorf("BuildRaw() error = %v, want ErrNonceOverflow", err)
	}
}

func TestBuild_SameNonceDistinctTimestamps(t *testing.T) {
	from := testIdentity(t)
	to := testIdentity(t)

	jitters := []float64{0.0001, 0.0005}
	i := 0
	b := NewBuilder().
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }).
		WithJitter(func() float64 { j := jitters[i]; i++; return j })

	a, err := b.Build(from.Address, to.Address, 1, 3, "")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	c, err := b.Build(from.Address, to.Address, 1, 3, "")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if a.Nonce != c.Nonce {
		t.Fatalf("nonces differ: %d vs %d", a.Nonce, c.Nonce)
	}
	if a.Timestamp == c.Timestamp {
		t.Error("timestamps should differ with different jitter")
	}
	if string(a.SigningBytes()) == string(c.SigningBytes()) {
		t.Error("signing bytes should differ")
	}
}

func TestBuild_TimestampStaysInSecond(t *testing.T) {
	from := testIdentity(t)
	to := testIdentity(t)
	b := NewBuilder().
		WithClock(func() time.Time { return time.Unix(1700000000, 999999999) }).
		WithJitter(func() float64 { return 5 })

	txn, err := b.Build(from.Address, to.Address, 1, 0, "")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if txn.Timestamp >= 1700000001 || txn.Timestamp < 1700000000 {
		t.Errorf("timestamp %f left its second", txn.Timestamp)
	}
}

func TestBuild_DefaultJitterBounded(t *testing.T) {
	from := testIdentity(t)
	to := testIdentity(t)
	b := NewBuilder().WithClock(func() time.Time { return time.Unix(1700000000, 0) })

	for i := 0; i < 50; i++ {
		txn, err := b.Build(from.Address, to.Address, 1, 0, "")
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		if d := txn.Timestamp - 1700000000; d < 0 || d > MaxJitter {
			t.Fatalf("jitter %f out of range", d)
		}
	}
}
