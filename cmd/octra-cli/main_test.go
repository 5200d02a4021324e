package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/octra-wallet/internal/account"
	"github.com/Klingon-tech/octra-wallet/internal/storage"
	"github.com/Klingon-tech/octra-wallet/internal/wallet"
	"github.com/Klingon-tech/octra-wallet/pkg/crypto"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

func TestParseRecipients(t *testing.T) {
	a, _ := crypto.Generate()
	b, _ := crypto.Generate()
	data := []byte(`[
		{"to":"` + a.Address.String() + `","amount":"1.5"},
		{"to":"` + b.Address.String() + `","amount":"1000","message":"big"}
	]`)

	payments, total, err := parseRecipients(data)
	if err != nil {
		t.Fatalf("parseRecipients() error: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("payments = %d, want 2", len(payments))
	}
	if payments[0].Amount != 1_500_000 || payments[1].Message != "big" {
		t.Errorf("payments = %+v", payments)
	}
	if total != 1001_500_000 {
		t.Errorf("total = %s", total)
	}
}

func TestParseRecipients_Invalid(t *testing.T) {
	a, _ := crypto.Generate()
	addr := a.Address.String()
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"empty", `[]`},
		{"missing amount", `[{"to":"` + addr + `"}]`},
		{"bad address", `[{"to":"octxyz","amount":"1"}]`},
		{"too many decimals", `[{"to":"` + addr + `","amount":"0.0000001"}]`},
		{"zero", `[{"to":"` + addr + `","amount":"0"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseRecipients([]byte(tt.data)); err == nil {
				t.Error("parseRecipients() should fail")
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	if v, err := parseAmount(" 10.5 "); err != nil || v != 10.5 {
		t.Errorf("parseAmount(10.5) = %v, %v", v, err)
	}
	for _, s := range []string{"", "abc", "0", "-1"} {
		if _, err := parseAmount(s); err == nil {
			t.Errorf("parseAmount(%q) should fail", s)
		}
	}
}

func TestHistoryFormatting(t *testing.T) {
	epoch := uint64(42)
	in := account.Record{Kind: account.Incoming, Amount: 2_500_000, Epoch: &epoch}
	out := account.Record{Kind: account.Outgoing, Amount: types.Coin}

	if got := signedAmount(in); got != "+2.500000" {
		t.Errorf("signedAmount(in) = %q", got)
	}
	if got := signedAmount(out); got != "-1.000000" {
		t.Errorf("signedAmount(out) = %q", got)
	}
	if status(in) != "epoch 42" || status(out) != "pending" {
		t.Errorf("status = %q, %q", status(in), status(out))
	}
	if direction(in.Kind) != "in" || direction(out.Kind) != "out" {
		t.Error("direction mismatch")
	}
	if formatTime(time.Time{}) != "-" {
		t.Error("zero time should format as -")
	}
	if !strings.HasPrefix(formatTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), "2024-01-02") {
		t.Error("formatTime date prefix")
	}
}

func TestRun_ClosesDatabaseOnError(t *testing.T) {
	dir := t.TempDir()
	if code := run([]string{"--datadir", dir, "wallet", "create"}); code != 0 {
		t.Fatalf("wallet create exit code = %d, want 0", code)
	}
	if code := run([]string{"--datadir", dir, "wallet", "set-rpc", "ftp://broken"}); code != 1 {
		t.Fatalf("wallet set-rpc exit code = %d, want 1", code)
	}
	if code := run([]string{"--datadir", dir, "bogus"}); code != 1 {
		t.Fatalf("unknown command exit code = %d, want 1", code)
	}

	// The Badger directory lock is only released by Close.
	db, err := storage.NewBadger(filepath.Join(dir, "db"))
	if err != nil {
		t.Fatalf("NewBadger() after failed commands error: %v", err)
	}
	defer db.Close()
	if ok, err := wallet.NewStore(db).Exists(); err != nil || !ok {
		t.Errorf("wallet record missing after reopen: %v, %v", ok, err)
	}
}

func TestApp_ReleaseWipesKeys(t *testing.T) {
	id, err := crypto.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	a := &app{}
	a.track(&wallet.Wallet{Identity: id})
	a.release()

	if crypto.Validate(id) {
		t.Error("released identity should no longer validate")
	}
	if _, err := id.Sign([]byte("m")); err == nil {
		t.Error("Sign() with a released identity should fail")
	}
	if len(a.opened) != 0 {
		t.Errorf("opened = %d after release, want 0", len(a.opened))
	}
}
