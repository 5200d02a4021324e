package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHexToHash(t *testing.T) {
	s := strings.Repeat("ab", HashSize)
	h, err := HexToHash(s)
	if err != nil {
		t.Fatalf("HexToHash() error: %v", err)
	}
	if h.String() != s || h.IsZero() {
		t.Errorf("HexToHash() = %s", h)
	}

	for _, bad := range []string{"zz", "abcd", strings.Repeat("ab", HashSize+1)} {
		if _, err := HexToHash(bad); err == nil {
			t.Errorf("HexToHash(%q) should fail", bad)
		}
	}
}

func TestHash_JSON(t *testing.T) {
	h, _ := HexToHash(strings.Repeat("01", HashSize))
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var got Hash
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got != h {
		t.Error("hash changed through JSON")
	}

	var empty Hash
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil || !empty.IsZero() {
		t.Errorf("empty string should decode to zero hash, got %s, %v", empty, err)
	}
}

func TestHash_BytesIsCopy(t *testing.T) {
	var h Hash
	b := h.Bytes()
	b[0] = 1
	if !h.IsZero() {
		t.Error("Bytes() should return a copy")
	}
}
