package wallet

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Klingon-tech/octra-wallet/internal/storage"
	"github.com/Klingon-tech/octra-wallet/pkg/crypto"
	"github.com/Klingon-tech/octra-wallet/pkg/tx"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

func signedTx(t *testing.T, id *crypto.Identity, to types.Address, nonce uint64) *tx.SignedTransaction {
	t.Helper()
	b := tx.NewBuilder().WithClock(func() time.Time { return time.Unix(1700000000, 0) }).WithJitter(func() float64 { return 0 })
	txn, err := b.BuildRaw(id.Address, to, 1_000_000, nonce, "memo")
	if err != nil {
		t.Fatalf("BuildRaw() error: %v", err)
	}
	st, err := tx.Sign(txn, id)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	return st
}

func TestJournal_AppendList(t *testing.T) {
	db := storage.NewMemory()
	j := NewJournal(db)
	alice, _ := crypto.Generate()
	bob, _ := crypto.Generate()

	for _, n := range []uint64{1, 9, 10} {
		if err := j.Append(signedTx(t, alice, bob.Address, n), `{"status":"accepted"}`); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
	if err := j.Append(signedTx(t, bob, alice.Address, 0), "ok"); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	entries, err := j.List(alice.Address)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() = %d entries, want 3", len(entries))
	}
	for i, want := range []uint64{11, 10, 2} {
		if entries[i].Nonce != want {
			t.Errorf("entry %d nonce = %d, want %d", i, entries[i].Nonce, want)
		}
	}

	e := entries[0]
	if e.To != bob.Address || e.Message != "memo" || e.NodeReply != `{"status":"accepted"}` {
		t.Errorf("entry = %+v", e)
	}
	var st tx.SignedTransaction
	if err := json.Unmarshal(e.Wire, &st); err != nil {
		t.Fatalf("decode wire: %v", err)
	}
	if !st.Verify() || st.Fingerprint() != e.Fingerprint {
		t.Error("journaled wire transaction does not match its fingerprint")
	}
}

func TestJournal_Purge(t *testing.T) {
	db := storage.NewMemory()
	j := NewJournal(db)
	alice, _ := crypto.Generate()
	bob, _ := crypto.Generate()

	if err := j.Append(signedTx(t, alice, bob.Address, 0), ""); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := j.Append(signedTx(t, bob, alice.Address, 0), ""); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := j.Purge(alice.Address); err != nil {
		t.Fatalf("Purge() error: %v", err)
	}

	if entries, _ := j.List(alice.Address); len(entries) != 0 {
		t.Errorf("alice entries after purge = %d", len(entries))
	}
	if entries, _ := j.List(bob.Address); len(entries) != 1 {
		t.Errorf("bob entries after purge = %d, want 1", len(entries))
	}
	if err := j.Purge(alice.Address); err != nil {
		t.Errorf("Purge() of empty journal error: %v", err)
	}
}
