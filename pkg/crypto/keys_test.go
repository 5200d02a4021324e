package crypto

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

func TestGenerate(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(id.SecretKey) != SecretKeySize {
		t.Errorf("SecretKey length = %d, want %d", len(id.SecretKey), SecretKeySize)
	}
	if len(id.PublicKey) != PublicKeySize {
		t.Errorf("PublicKey length = %d, want %d", len(id.PublicKey), PublicKeySize)
	}
	if !types.ValidateAddress(id.Address.String()) {
		t.Errorf("ValidateAddress(%q) = false", id.Address)
	}
	if !Validate(id) {
		t.Error("Validate() = false for fresh identity")
	}
}

func TestGenerate_Unique(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if a.Equal(b) {
		t.Error("two generated identities should differ")
	}
}

func TestImportFromSecret_Roundtrip(t *testing.T) {
	for i := 0; i < 16; i++ {
		orig, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error: %v", err)
		}
		imported, err := ImportFromSecret(orig.SecretKey)
		if err != nil {
			t.Fatalf("ImportFromSecret() error: %v", err)
		}
		want, err := types.AddressFromPubKey(orig.SecretKey[SeedSize:])
		if err != nil {
			t.Fatalf("AddressFromPubKey() error: %v", err)
		}
		if imported.Address != want || imported.Address != orig.Address {
			t.Errorf("imported address %q, want %q", imported.Address, want)
		}
		if !imported.Equal(orig) {
			t.Error("imported identity should equal original")
		}
	}
}

func TestImportFromSecret_InvalidLength(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"seed only", make([]byte, 32)},
		{"too short", make([]byte, 63)},
		{"too long", make([]byte, 65)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportFromSecret(tt.data)
			if !errors.Is(err, ErrInvalidKeyLength) {
				t.Errorf("error = %v, want ErrInvalidKeyLength", err)
			}
		})
	}
}

func TestImportFromSecret_InvalidMaterial(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	bad := make([]byte, SecretKeySize)
	copy(bad, id.SecretKey)
	bad[40] ^= 0xff // corrupt the public half

	_, err = ImportFromSecret(bad)
	if !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("error = %v, want ErrInvalidKeyMaterial", err)
	}

	zero := make([]byte, SecretKeySize)
	if _, err := ImportFromSecret(zero); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("all-zero key error = %v, want ErrInvalidKeyMaterial", err)
	}
}

func TestFromSeed_Deterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, SeedSize)
	a, err := FromSeed(seed)
	if err != nil {
		t.Fatalf("FromSeed() error: %v", err)
	}
	b, err := FromSeed(seed)
	if err != nil {
		t.Fatalf("FromSeed() error: %v", err)
	}
	if a.Address != b.Address {
		t.Error("same seed should produce same address")
	}
	if _, err := FromSeed(make([]byte, 16)); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("short seed error = %v, want ErrInvalidKeyLength", err)
	}
}

func TestParseSecret(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	got, err := ParseSecret(id.SecretBase64())
	if err != nil {
		t.Fatalf("ParseSecret() error: %v", err)
	}
	if !got.Equal(id) {
		t.Error("ParseSecret() should restore the same identity")
	}
	if _, err := ParseSecret("%%%not-base64%%%"); err == nil {
		t.Error("ParseSecret() should reject garbage")
	}
}

func TestValidate(t *testing.T) {
	fresh := func(t *testing.T) *Identity {
		t.Helper()
		id, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error: %v", err)
		}
		return id
	}

	tests := []struct {
		name   string
		mutate func(id *Identity) *Identity
	}{
		{"nil", func(*Identity) *Identity { return nil }},
		{"short secret", func(id *Identity) *Identity {
			id.SecretKey = id.SecretKey[:32]
			return id
		}},
		{"wrong public key", func(id *Identity) *Identity {
			other, _ := Generate()
			id.PublicKey = other.PublicKey
			return id
		}},
		{"wrong address", func(id *Identity) *Identity {
			other, _ := Generate()
			id.Address = other.Address
			return id
		}},
		{"corrupted secret", func(id *Identity) *Identity {
			sk := make(ed25519.PrivateKey, SecretKeySize)
			copy(sk, id.SecretKey)
			sk[0] ^= 0x01
			id.SecretKey = sk
			return id
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Validate(tt.mutate(fresh(t))) {
				t.Error("Validate() = true for corrupted identity")
			}
		})
	}
}

func TestIdentity_Equal(t *testing.T) {
	a, _ := Generate()
	b, _ := ImportFromSecret(a.SecretKey)
	c, _ := Generate()

	if !a.Equal(b) {
		t.Error("identities with same secret should be equal")
	}
	if a.Equal(c) {
		t.Error("identities with different secrets should differ")
	}
	var nilID *Identity
	if nilID.Equal(a) {
		t.Error("nil should not equal non-nil")
	}
}

func TestIdentity_Zero(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	id.Zero()
	for i, b := range id.SecretKey {
		if b != 0 {
			t.Fatalf("SecretKey[%d] = %d after Zero()", i, b)
		}
	}
	if Validate(id) {
		t.Error("zeroed identity should not validate")
	}
}
