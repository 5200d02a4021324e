package wallet

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/octra-wallet/internal/storage"
)

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore(storage.NewMemory())
	if _, err := s.Load(); !errors.Is(err, ErrNoWallet) {
		t.Errorf("Load() error = %v, want ErrNoWallet", err)
	}
	ok, err := s.Exists()
	if err != nil || ok {
		t.Errorf("Exists() = %v, %v", ok, err)
	}
}

func TestStore_SaveLoad(t *testing.T) {
	s := NewStore(storage.NewMemory())
	rec := &Record{SecretKey: "abc", RPCEndpoint: DefaultEndpoint, CreatedAt: time.Unix(1700000000, 0).UTC()}
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.SecretKey != "abc" || got.Version != RecordVersion || !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("Load() = %+v", got)
	}
}

func TestStore_CorruptAndVersion(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"garbage", "{not json", ErrCorruptRecord},
		{"bad address", `{"secret_key":"x","address":"octnope"}`, ErrCorruptRecord},
		{"no secret", `{"address":""}`, ErrCorruptRecord},
		{"future version", `{"secret_key":"x","version":9}`, ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := db.Put([]byte("wallet/wallet"), []byte(tt.raw)); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			if _, err := s.Load(); !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStore_BackupSameSecond(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	var keys []string
	for _, body := range []string{"first", "second", "third"} {
		if err := db.Put([]byte("wallet/wallet"), []byte(body)); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		key, err := s.Backup(time.Unix(42, 0))
		if err != nil {
			t.Fatalf("Backup() error: %v", err)
		}
		keys = append(keys, key)
	}
	if strings.Join(keys, ",") != "corrupt-42,corrupt-42-1,corrupt-42-2" {
		t.Fatalf("Backup() keys = %v", keys)
	}
	got, err := db.Get([]byte("wallet/corrupt-42"))
	if err != nil || string(got) != "first" {
		t.Errorf("first backup = %q, %v", got, err)
	}
}

func TestStore_BackupAndClear(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	if err := db.Put([]byte("wallet/wallet"), []byte("junk")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	key, err := s.Backup(time.Unix(42, 0))
	if err != nil {
		t.Fatalf("Backup() error: %v", err)
	}
	if key != "corrupt-42" {
		t.Errorf("Backup() key = %q", key)
	}
	got, err := db.Get([]byte("wallet/corrupt-42"))
	if err != nil || string(got) != "junk" {
		t.Errorf("backup contents = %q, %v", got, err)
	}

	// Unrelated keys survive Clear.
	if err := db.Put([]byte("sent/x"), []byte("1")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	var left []string
	_ = db.ForEach(nil, func(k, _ []byte) error {
		left = append(left, string(k))
		return nil
	})
	if strings.Join(left, ",") != "sent/x" {
		t.Errorf("keys after Clear = %v", left)
	}
}
