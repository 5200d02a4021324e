package types

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AddressPrefix is the human-readable prefix of every Octra address.
const AddressPrefix = "oct"

// AddressBodyLen is the number of encoded characters after the prefix
// (base64 of a 32-byte public key, padded).
const AddressBodyLen = 44

// PublicKeySize is the length of the key encoded in an address.
const PublicKeySize = 32

// ErrInvalidAddress is returned for strings that are not well-formed addresses.
var ErrInvalidAddress = errors.New("invalid address")

// addressEncoding rejects non-zero padding bits so each key has exactly
// one address spelling.
var addressEncoding = base64.URLEncoding.Strict()

// Address is a textual account identifier: "oct" followed by the
// base64url encoding of an ed25519 public key.
type Address string

// AddressFromPubKey derives the address for a 32-byte public key.
func AddressFromPubKey(pub []byte) (Address, error) {
	if len(pub) != PublicKeySize {
		return "", fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(pub))
	}
	return Address(AddressPrefix + addressEncoding.EncodeToString(pub)), nil
}

// ParseAddress validates s and returns it as an Address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, AddressPrefix) {
		return "", fmt.Errorf("%w: missing %q prefix", ErrInvalidAddress, AddressPrefix)
	}
	body := s[len(AddressPrefix):]
	if len(body) != AddressBodyLen {
		return "", fmt.Errorf("%w: expected %d characters after prefix, got %d", ErrInvalidAddress, AddressBodyLen, len(body))
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '=' && i == len(body)-1 {
			continue
		}
		if !isBase64URL(c) {
			return "", fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidAddress, c, i)
		}
	}
	pub, err := addressEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(pub) != PublicKeySize {
		return "", fmt.Errorf("%w: encodes %d bytes, want %d", ErrInvalidAddress, len(pub), PublicKeySize)
	}
	return Address(s), nil
}

// ValidateAddress reports whether s is a well-formed address.
func ValidateAddress(s string) bool {
	_, err := ParseAddress(s)
	return err == nil
}

func isBase64URL(c byte) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_'
}

// String returns the address text.
func (a Address) String() string {
	return string(a)
}

// IsZero returns true for the empty address.
func (a Address) IsZero() bool {
	return a == ""
}

// PubKey decodes the public key embedded in the address.
func (a Address) PubKey() ([]byte, error) {
	if _, err := ParseAddress(string(a)); err != nil {
		return nil, err
	}
	return addressEncoding.DecodeString(string(a)[len(AddressPrefix):])
}

// Short returns an abbreviated form for display ("octAbCd…wxyz").
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 16 {
		return s
	}
	return s[:8] + "…" + s[len(s)-6:]
}

// UnmarshalJSON decodes and validates an address string. An empty string
// decodes to the zero address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = ""
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
