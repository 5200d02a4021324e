// Package wallet manages the single persisted wallet: creating, importing,
// loading and clearing it, optional password encryption of the secret key,
// BIP-39 mnemonic import and the local journal of sent transactions.
package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	klog "github.com/Klingon-tech/octra-wallet/internal/log"
	"github.com/Klingon-tech/octra-wallet/internal/rpcclient"
	"github.com/Klingon-tech/octra-wallet/internal/storage"
	"github.com/Klingon-tech/octra-wallet/pkg/crypto"
)

// DefaultEndpoint is the node used when none is configured.
const DefaultEndpoint = "https://octra.network"

// Wallet is a loaded, validated wallet.
type Wallet struct {
	Identity  *crypto.Identity
	Endpoint  string
	Encrypted bool
	CreatedAt time.Time
}

// Exported is the backup form of a wallet.
type Exported struct {
	SecretKey   string `json:"priv"`
	PublicKey   string `json:"pub"`
	Address     string `json:"addr"`
	RPCEndpoint string `json:"rpc"`
}

// Export returns the wallet's key material in backup form.
func (w *Wallet) Export() Exported {
	return Exported{
		SecretKey:   w.Identity.SecretBase64(),
		PublicKey:   w.Identity.PublicBase64(),
		Address:     w.Identity.Address.String(),
		RPCEndpoint: w.Endpoint,
	}
}

// Options control how a new wallet is stored.
type Options struct {
	Endpoint string // empty means DefaultEndpoint
	Password []byte // non-empty encrypts the secret key at rest
	Replace  bool   // overwrite an existing wallet
}

// Manager owns the wallet record and the send journal in one database.
type Manager struct {
	store   *Store
	journal *Journal
	params  EncryptionParams
	logger  zerolog.Logger
	now     func() time.Time
}

// NewManager returns a manager over db.
func NewManager(db storage.DB) *Manager {
	return &Manager{
		store:   NewStore(db),
		journal: NewJournal(db),
		params:  DefaultParams(),
		logger:  klog.Wallet,
		now:     time.Now,
	}
}

// SetParams sets the Argon2id parameters used for new encrypted records.
func (m *Manager) SetParams(p EncryptionParams) {
	m.params = p
}

// Journal returns the send journal.
func (m *Manager) Journal() *Journal {
	return m.journal
}

// Exists reports whether a wallet record is stored.
func (m *Manager) Exists() (bool, error) {
	return m.store.Exists()
}

// Create generates a new random wallet.
func (m *Manager) Create(opts Options) (*Wallet, error) {
	id, err := crypto.Generate()
	if err != nil {
		return nil, err
	}
	return m.Import(id, opts)
}

// CreateWithMnemonic generates a new mnemonic and stores the wallet
// derived from it. The mnemonic is returned for the user to write down;
// it is not persisted.
func (m *Manager) CreateWithMnemonic(passphrase string, opts Options) (*Wallet, string, error) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		return nil, "", err
	}
	w, err := m.ImportMnemonic(mnemonic, passphrase, opts)
	if err != nil {
		return nil, "", err
	}
	return w, mnemonic, nil
}

// ImportSecret stores a wallet from a base64 64-byte secret key.
func (m *Manager) ImportSecret(secret string, opts Options) (*Wallet, error) {
	id, err := crypto.ParseSecret(secret)
	if err != nil {
		return nil, err
	}
	return m.Import(id, opts)
}

// ImportMnemonic stores a wallet derived from a BIP-39 mnemonic.
func (m *Manager) ImportMnemonic(mnemonic, passphrase string, opts Options) (*Wallet, error) {
	id, err := IdentityFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return m.Import(id, opts)
}

// Import stores id as the wallet. It fails with ErrWalletExists unless
// opts.Replace is set.
func (m *Manager) Import(id *crypto.Identity, opts Options) (*Wallet, error) {
	if !crypto.Validate(id) {
		return nil, crypto.ErrInvalidKeyMaterial
	}
	endpoint, err := resolveEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}
	if !opts.Replace {
		exists, err := m.store.Exists()
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrWalletExists
		}
	}

	rec := &Record{
		Address:     id.Address,
		RPCEndpoint: endpoint,
		CreatedAt:   m.now().UTC(),
		Version:     RecordVersion,
	}
	if len(opts.Password) > 0 {
		env, err := SealSecret(id.SecretKey, opts.Password, m.params)
		if err != nil {
			return nil, fmt.Errorf("encrypt secret key: %w", err)
		}
		rec.SecretKey = env
		rec.Encrypted = true
	} else {
		rec.SecretKey = id.SecretBase64()
	}

	if err := m.store.Save(rec); err != nil {
		return nil, err
	}
	m.logger.Info().
		Str("address", id.Address.Short()).
		Bool("encrypted", rec.Encrypted).
		Msg("Wallet saved")

	return &Wallet{
		Identity:  id,
		Endpoint:  endpoint,
		Encrypted: rec.Encrypted,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// Load reads and validates the stored wallet. The password is only used
// for encrypted records.
func (m *Manager) Load(password []byte) (*Wallet, error) {
	rec, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	id, err := m.unlock(rec, password)
	if err != nil {
		return nil, err
	}
	endpoint := rec.RPCEndpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Wallet{
		Identity:  id,
		Endpoint:  endpoint,
		Encrypted: rec.Encrypted,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// Bootstrap loads the wallet, creating one when none exists. A record
// whose key material fails validation is backed up and replaced by a
// fresh wallet, keeping its endpoint when that is still valid. The
// returned flag reports whether a new wallet was created. A wrong
// password or unsupported record version is returned as an error and the
// record is left untouched.
func (m *Manager) Bootstrap(opts Options) (*Wallet, bool, error) {
	w, err := m.Load(opts.Password)
	switch {
	case err == nil:
		return w, false, nil
	case errors.Is(err, ErrNoWallet):
		w, err := m.Create(opts)
		if err != nil {
			return nil, false, err
		}
		return w, true, nil
	case errors.Is(err, ErrCorruptRecord):
	default:
		return nil, false, err
	}

	backup, berr := m.store.Backup(m.now())
	if berr != nil {
		return nil, false, fmt.Errorf("%w (backup failed: %v)", err, berr)
	}
	m.logger.Warn().Err(err).Str("backup", backup).Msg("Stored wallet is corrupted, generating a new one")

	opts.Endpoint = m.recoveryEndpoint(opts.Endpoint)
	opts.Replace = true
	w, err = m.Create(opts)
	if err != nil {
		return nil, false, err
	}
	return w, true, nil
}

// SetEndpoint changes the node endpoint of the stored wallet. The secret
// key is not touched, so no password is needed.
func (m *Manager) SetEndpoint(endpoint string) error {
	endpoint, err := resolveEndpoint(endpoint)
	if err != nil {
		return err
	}
	rec, err := m.store.Load()
	if err != nil {
		return err
	}
	rec.RPCEndpoint = endpoint
	if err := m.store.Save(rec); err != nil {
		return err
	}
	m.logger.Info().Str("endpoint", endpoint).Msg("Endpoint updated")
	return nil
}

// Clear deletes the wallet and its journal entries.
func (m *Manager) Clear() error {
	rec, err := m.store.Load()
	switch {
	case err == nil:
		if err := m.journal.Purge(rec.Address); err != nil {
			return fmt.Errorf("purge journal: %w", err)
		}
	case errors.Is(err, ErrNoWallet):
		return ErrNoWallet
	case errors.Is(err, ErrCorruptRecord):
		// Address unknown; the journal is left for the next wallet to ignore.
	default:
		return err
	}
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clear wallet record: %w", err)
	}
	m.logger.Info().Msg("Wallet cleared")
	return nil
}

// unlock decodes the secret key of rec and checks it against the stored
// address.
func (m *Manager) unlock(rec *Record, password []byte) (*crypto.Identity, error) {
	var (
		secret []byte
		err    error
	)
	if rec.Encrypted {
		if len(password) == 0 {
			return nil, ErrPasswordRequired
		}
		secret, err = OpenSecret(rec.SecretKey, password)
		if errors.Is(err, ErrWrongPassword) {
			return nil, err
		}
	} else {
		secret, err = crypto.DecodeKey(rec.SecretKey)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	id, err := crypto.ImportFromSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.Address != "" && rec.Address != id.Address {
		return nil, fmt.Errorf("%w: address does not match secret key", ErrCorruptRecord)
	}
	return id, nil
}

// recoveryEndpoint picks the endpoint for a wallet regenerated over a
// corrupt record: the stored one when it is still usable, then seed, then
// the default.
func (m *Manager) recoveryEndpoint(seed string) string {
	if rec, err := m.store.Load(); err == nil && rec.RPCEndpoint != "" {
		if endpoint, err := resolveEndpoint(rec.RPCEndpoint); err == nil {
			return endpoint
		}
		m.logger.Warn().Str("endpoint", rec.RPCEndpoint).Msg("Stored endpoint is invalid, not reusing it")
	}
	if endpoint, err := resolveEndpoint(seed); err == nil {
		return endpoint
	}
	return DefaultEndpoint
}

func resolveEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return DefaultEndpoint, nil
	}
	if err := rpcclient.ValidateEndpoint(endpoint); err != nil {
		return "", err
	}
	return rpcclient.New(endpoint).Endpoint(), nil
}
