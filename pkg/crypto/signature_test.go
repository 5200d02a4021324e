package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestSign_Verify(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	msg := []byte("test message")
	sig, err := id.Sign(msg)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if len(sig) != SignatureSize {
		t.Errorf("signature length = %d, want %d", len(sig), SignatureSize)
	}
	if !VerifySignature(msg, sig, id.PublicKeyBytes()) {
		t.Error("signature should verify against the correct key and message")
	}
}

func TestSign_Deterministic(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	msg := []byte("deterministic test")
	sig1, err := id.Sign(msg)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	sig2, err := id.Sign(msg)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !bytes.Equal(sig1, sig2) {
		t.Error("ed25519 signatures should be deterministic (same key + same message = same sig)")
	}
}

func TestSign_CorruptedIdentity(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	id.SecretKey = id.SecretKey[:40]

	_, err = id.Sign([]byte("msg"))
	if !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("Sign() error = %v, want ErrInvalidKeyMaterial", err)
	}
}

func TestVerify_WrongMessage(t *testing.T) {
	id, _ := Generate()
	sig, err := id.Sign([]byte("message"))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if VerifySignature([]byte("different message"), sig, id.PublicKeyBytes()) {
		t.Error("signature should not verify with wrong message")
	}
}

func TestVerify_WrongKey(t *testing.T) {
	id1, _ := Generate()
	id2, _ := Generate()
	sig, err := id1.Sign([]byte("message"))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if VerifySignature([]byte("message"), sig, id2.PublicKeyBytes()) {
		t.Error("signature should not verify with wrong public key")
	}
}

func TestVerify_CorruptedSignature(t *testing.T) {
	id, _ := Generate()
	sig, err := id.Sign([]byte("message"))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	corrupted := make([]byte, len(sig))
	copy(corrupted, sig)
	corrupted[0] ^= 0x01

	if VerifySignature([]byte("message"), corrupted, id.PublicKeyBytes()) {
		t.Error("corrupted signature should not verify")
	}
}

func TestVerify_InvalidInputs(t *testing.T) {
	tests := []struct {
		name      string
		signature []byte
		publicKey []byte
	}{
		{"empty signature", nil, make([]byte, 32)},
		{"short signature", make([]byte, 63), make([]byte, 32)},
		{"empty pubkey", make([]byte, 64), nil},
		{"long pubkey", make([]byte, 64), make([]byte, 33)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifySignature([]byte("m"), tt.signature, tt.publicKey) {
				t.Error("VerifySignature() should return false")
			}
		})
	}
}
