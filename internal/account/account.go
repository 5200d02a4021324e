// Package account reconciles the wallet's local view of its account
// (balance, nonce, staged transactions, history) against a node, and sends
// transfers from it.
package account

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	klog "github.com/Klingon-tech/octra-wallet/internal/log"
	"github.com/Klingon-tech/octra-wallet/internal/rpcclient"
	"github.com/Klingon-tech/octra-wallet/pkg/crypto"
	"github.com/Klingon-tech/octra-wallet/pkg/tx"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// Reconciler errors.
var (
	ErrWalletNotReady = errors.New("wallet not ready")
	ErrFetchFailed    = errors.New("fetch failed")
	ErrRemoteRejected = errors.New("transaction rejected by node")
)

// Defaults.
const (
	DefaultSettleDelay      = 2 * time.Second
	DefaultFetchConcurrency = 8
)

// Node is the transport the reconciler talks to. *rpcclient.Client
// implements it.
type Node interface {
	GetBalance(ctx context.Context, addr types.Address) (*rpcclient.BalanceReply, error)
	GetAddressInfo(ctx context.Context, addr types.Address, limit int) (*rpcclient.AddressInfo, error)
	GetTransaction(ctx context.Context, hash string) (*rpcclient.TxDetail, error)
	GetStaging(ctx context.Context) (*rpcclient.Staging, error)
	SendTransaction(ctx context.Context, st *tx.SignedTransaction) (*rpcclient.SendReply, error)
}

// Journal records transactions the node accepted.
type Journal interface {
	Append(st *tx.SignedTransaction, nodeReply string) error
}

// Config controls refresh and settle behaviour.
type Config struct {
	HistoryLimit     int           // recent transactions requested per refresh
	FetchConcurrency int           // parallel tx-detail fetches
	SettleDelay      time.Duration // wait before the post-send refresh
}

// DefaultConfig returns the default reconciler configuration.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:     rpcclient.DefaultHistoryLimit,
		FetchConcurrency: DefaultFetchConcurrency,
		SettleDelay:      DefaultSettleDelay,
	}
}

// Kind is the direction of a history record relative to the wallet.
type Kind string

// Record directions.
const (
	Incoming Kind = "incoming"
	Outgoing Kind = "outgoing"
)

// Record is one entry of the account history.
type Record struct {
	Hash         string
	Time         time.Time
	Amount       types.Amount // always non-negative, direction is Kind
	Counterparty types.Address
	Kind         Kind
	Nonce        uint64
	Epoch        *uint64 // nil while pending
	Message      string
}

// Pending reports whether the transaction has no confirmation epoch yet.
func (r Record) Pending() bool {
	return r.Epoch == nil
}

// State is a snapshot of the local account view.
type State struct {
	Balance      types.Amount
	Nonce        uint64
	NonceKnown   bool // false until a balance refresh succeeds
	StagingCount int
	History      []Record // most recent first
	UpdatedAt    time.Time
}

func (s State) clone() State {
	out := s
	if s.History != nil {
		out.History = make([]Record, len(s.History))
		for i, rec := range s.History {
			if rec.Epoch != nil {
				e := *rec.Epoch
				rec.Epoch = &e
			}
			out.History[i] = rec
		}
	}
	return out
}

// Reconciler owns one wallet's account state.
//
// Refreshes may run concurrently; each touches its own fields. Sends read
// the nonce as a snapshot, so a caller must let a send settle before
// issuing the next one or both will carry the same nonce.
type Reconciler struct {
	node    Node
	id      *crypto.Identity
	cfg     Config
	builder *tx.Builder
	journal Journal
	logger  zerolog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	state State
}

// New creates a reconciler for id. A nil id yields a reconciler whose
// operations all fail with ErrWalletNotReady.
func New(node Node, id *crypto.Identity, cfg Config) *Reconciler {
	def := DefaultConfig()
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = def.FetchConcurrency
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}

	logger := klog.Account
	if id != nil {
		logger = logger.With().Str("address", id.Address.Short()).Logger()
	}
	return &Reconciler{
		node:    node,
		id:      id,
		cfg:     cfg,
		builder: tx.NewBuilder(),
		logger:  logger,
		now:     time.Now,
	}
}

// SetJournal sets where accepted transactions are recorded.
func (r *Reconciler) SetJournal(j Journal) {
	r.journal = j
}

// SetBuilder replaces the transaction builder.
func (r *Reconciler) SetBuilder(b *tx.Builder) {
	r.builder = b
}

// Address returns the wallet address, or "" without an identity.
func (r *Reconciler) Address() types.Address {
	if r.id == nil {
		return ""
	}
	return r.id.Address
}

// State returns a copy of the current account state.
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.clone()
}

func (r *Reconciler) address() (types.Address, error) {
	if r.id == nil {
		return "", ErrWalletNotReady
	}
	return r.id.Address, nil
}
