package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func testPubKey() []byte {
	pub := make([]byte, PublicKeySize)
	for i := range pub {
		pub[i] = byte(i * 7)
	}
	return pub
}

func TestAddressFromPubKey(t *testing.T) {
	addr, err := AddressFromPubKey(testPubKey())
	if err != nil {
		t.Fatalf("AddressFromPubKey() error: %v", err)
	}
	s := addr.String()
	if !strings.HasPrefix(s, AddressPrefix) {
		t.Errorf("address %q missing prefix", s)
	}
	if len(s) != len(AddressPrefix)+AddressBodyLen {
		t.Errorf("address length = %d, want %d", len(s), len(AddressPrefix)+AddressBodyLen)
	}
	if !ValidateAddress(s) {
		t.Errorf("ValidateAddress(%q) = false", s)
	}
}

func TestAddressFromPubKey_InvalidLength(t *testing.T) {
	for _, n := range []int{0, 31, 33, 64} {
		if _, err := AddressFromPubKey(make([]byte, n)); err == nil {
			t.Errorf("AddressFromPubKey(%d bytes) should fail", n)
		}
	}
}

func TestAddress_PubKeyRoundtrip(t *testing.T) {
	pub := testPubKey()
	addr, err := AddressFromPubKey(pub)
	if err != nil {
		t.Fatalf("AddressFromPubKey() error: %v", err)
	}
	got, err := addr.PubKey()
	if err != nil {
		t.Fatalf("PubKey() error: %v", err)
	}
	if !bytes.Equal(got, pub) {
		t.Error("PubKey() does not match original key")
	}
}

func TestParseAddress_RejectsAlternateSpelling(t *testing.T) {
	addr, err := AddressFromPubKey(testPubKey())
	if err != nil {
		t.Fatalf("AddressFromPubKey() error: %v", err)
	}
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	s := addr.String()
	last := len(s) - 2 // final data character, before the '=' pad
	idx := strings.IndexByte(alphabet, s[last])
	variant := s[:last] + string(alphabet[idx^1]) + s[last+1:]

	if _, err := ParseAddress(variant); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("ParseAddress(%q) error = %v, want ErrInvalidAddress", variant, err)
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	valid, _ := AddressFromPubKey(testPubKey())

	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no prefix", valid.String()[3:]},
		{"wrong prefix", "okt" + valid.String()[3:]},
		{"too short", valid.String()[:len(valid)-1]},
		{"too long", valid.String() + "A"},
		{"invalid charset", "oct" + strings.Repeat("!", AddressBodyLen)},
		{"std base64 chars", "oct" + strings.Repeat("+", AddressBodyLen-1) + "="},
		{"padding in middle", "oct" + strings.Repeat("A", 20) + "=" + strings.Repeat("A", 23)},
		{"decodes to 33 bytes", "oct" + strings.Repeat("x", AddressBodyLen)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.in)
			if err == nil {
				t.Fatalf("ParseAddress(%q) should fail", tt.in)
			}
			if !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("error = %v, want ErrInvalidAddress", err)
			}
			if ValidateAddress(tt.in) {
				t.Errorf("ValidateAddress(%q) = true", tt.in)
			}
		})
	}
}

func TestAddress_UnmarshalJSON(t *testing.T) {
	addr, _ := AddressFromPubKey(testPubKey())

	var got Address
	data, _ := json.Marshal(addr.String())
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got != addr {
		t.Errorf("got %q, want %q", got, addr)
	}

	if err := json.Unmarshal([]byte(`""`), &got); err != nil {
		t.Fatalf("Unmarshal(empty) error: %v", err)
	}
	if !got.IsZero() {
		t.Error("empty string should decode to zero address")
	}

	if err := json.Unmarshal([]byte(`"octnope"`), &got); err == nil {
		t.Error("Unmarshal(invalid) should fail")
	}
}

func TestAddress_Short(t *testing.T) {
	addr, _ := AddressFromPubKey(testPubKey())
	short := addr.Short()
	if !strings.HasPrefix(short, "oct") || len([]rune(short)) != 15 {
		t.Errorf("Short() = %q", short)
	}
	if Address("oct12").Short() != "oct12" {
		t.Error("Short() should not truncate short strings")
	}
}
