package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/octra-wallet/internal/storage"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// RecordVersion is the current wallet record format.
const RecordVersion = 1

// Record store errors.
var (
	ErrNoWallet           = errors.New("no wallet")
	ErrWalletExists       = errors.New("wallet already exists")
	ErrCorruptRecord      = errors.New("corrupt wallet record")
	ErrPasswordRequired   = errors.New("wallet is encrypted, password required")
	ErrUnsupportedVersion = errors.New("unsupported wallet record version")
)

var recordKey = []byte("wallet")

// Record is the persisted wallet. SecretKey holds standard base64 of the
// 64-byte secret, or a sealed envelope when Encrypted is set.
type Record struct {
	SecretKey   string        `json:"secret_key"`
	Address     types.Address `json:"address"`
	RPCEndpoint string        `json:"rpc_endpoint"`
	Encrypted   bool          `json:"encrypted"`
	CreatedAt   time.Time     `json:"created_at"`
	Version     int           `json:"version"`
}

// Store loads and saves the single wallet record.
type Store struct {
	db *storage.Namespace
}

// NewStore returns a record store in the wallet namespace of db.
func NewStore(db storage.DB) *Store {
	return &Store{db: storage.NewNamespace(db, "wallet")}
}

// Load returns the stored record. It returns ErrNoWallet when none exists
// and ErrCorruptRecord when the stored bytes cannot be decoded.
func (s *Store) Load() (*Record, error) {
	raw, err := s.db.Get(recordKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoWallet
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.Version > RecordVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version)
	}
	if rec.SecretKey == "" {
		return nil, fmt.Errorf("%w: missing secret key", ErrCorruptRecord)
	}
	return &rec, nil
}

// Save writes rec, replacing any existing record.
func (s *Store) Save(rec *Record) error {
	if rec.Version == 0 {
		rec.Version = RecordVersion
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal wallet record: %w", err)
	}
	if err := s.db.Put(recordKey, data); err != nil {
		return fmt.Errorf("write wallet record: %w", err)
	}
	return nil
}

// Exists reports whether a record is stored.
func (s *Store) Exists() (bool, error) {
	return s.db.Has(recordKey)
}

// Clear removes the record and any corrupt-record backups.
func (s *Store) Clear() error {
	return s.db.DeletePrefix(nil)
}

// Backup copies the raw stored bytes aside under a timestamped key and
// returns that key. Backups taken within the same second get a numeric
// suffix. It is a no-op when nothing is stored.
func (s *Store) Backup(now time.Time) (string, error) {
	raw, err := s.db.Get(recordKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("corrupt-%d", now.Unix())
	for n := 1; ; n++ {
		taken, err := s.db.Has([]byte(key))
		if err != nil {
			return "", err
		}
		if !taken {
			break
		}
		key = fmt.Sprintf("corrupt-%d-%d", now.Unix(), n)
	}
	if err := s.db.Put([]byte(key), raw); err != nil {
		return "", fmt.Errorf("back up wallet record: %w", err)
	}
	return key, nil
}
