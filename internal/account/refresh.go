package account

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	klog "github.com/Klingon-tech/octra-wallet/internal/log"
	"github.com/Klingon-tech/octra-wallet/internal/rpcclient"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// RefreshBalance fetches balance and nonce. Malformed values normalize to
// zero. On a failed fetch both are zeroed and the nonce is marked unknown.
func (r *Reconciler) RefreshBalance(ctx context.Context) error {
	addr, err := r.address()
	if err != nil {
		return err
	}

	reply, err := r.node.GetBalance(ctx, addr)
	if err != nil {
		r.mu.Lock()
		r.state.Balance = 0
		r.state.Nonce = 0
		r.state.NonceKnown = false
		r.state.UpdatedAt = r.now()
		r.mu.Unlock()
		r.logger.Warn().Err(err).Msg("Balance fetch failed")
		return fmt.Errorf("%w: balance: %w", ErrFetchFailed, err)
	}

	balance, nonce := reply.Normalize()
	if reply.Variant == rpcclient.BalanceUnknown {
		r.logger.Warn().Msg("Unrecognized balance response, using zero")
	}

	r.mu.Lock()
	r.state.Balance = balance
	r.state.Nonce = nonce
	r.state.NonceKnown = true
	r.state.UpdatedAt = r.now()
	r.mu.Unlock()

	r.logger.Debug().
		Str("balance", balance.String()).
		Uint64("nonce", nonce).
		Str("variant", reply.Variant.String()).
		Msg("Balance refreshed")
	return nil
}

// RefreshHistory rebuilds the history from the node. Transaction details
// are fetched concurrently; a detail that fails to load or decode is
// dropped. The previous history is always replaced, with an empty one if
// the hash list cannot be fetched.
func (r *Reconciler) RefreshHistory(ctx context.Context) error {
	addr, err := r.address()
	if err != nil {
		return err
	}
	defer klog.Benchmark("refresh_history")()

	info, err := r.node.GetAddressInfo(ctx, addr, r.cfg.HistoryLimit)
	if err != nil {
		r.replaceHistory(nil)
		r.logger.Warn().Err(err).Msg("Address info fetch failed")
		return fmt.Errorf("%w: address info: %w", ErrFetchFailed, err)
	}

	hashes := info.Hashes()
	slots := make([]*Record, len(hashes))

	var g errgroup.Group
	g.SetLimit(r.cfg.FetchConcurrency)
	for i, hash := range hashes {
		g.Go(func() error {
			detail, err := r.node.GetTransaction(ctx, hash)
			if err != nil {
				r.logger.Debug().Err(err).Str("hash", hash).Msg("Dropping transaction, detail fetch failed")
				return nil
			}
			rec, ok := toRecord(detail, hash, addr)
			if !ok {
				r.logger.Debug().Str("hash", hash).Msg("Dropping malformed transaction detail")
				return nil
			}
			slots[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		r.replaceHistory(nil)
		return fmt.Errorf("%w: history: %w", ErrFetchFailed, err)
	}

	records := make([]Record, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	sortHistory(records)
	r.replaceHistory(records)

	if dropped := len(hashes) - len(records); dropped > 0 {
		r.logger.Info().Int("dropped", dropped).Int("kept", len(records)).Msg("History refreshed with gaps")
	}
	return nil
}

// RefreshStaging counts this wallet's transactions in the node's staging
// pool. Malformed entries are skipped; a failed fetch counts as zero.
func (r *Reconciler) RefreshStaging(ctx context.Context) error {
	addr, err := r.address()
	if err != nil {
		return err
	}

	staging, err := r.node.GetStaging(ctx)
	if err != nil {
		r.setStaging(0)
		r.logger.Warn().Err(err).Msg("Staging fetch failed")
		return fmt.Errorf("%w: staging: %w", ErrFetchFailed, err)
	}

	count, skipped := staging.CountFrom(addr)
	if skipped > 0 {
		r.logger.Debug().Int("skipped", skipped).Msg("Skipped malformed staging entries")
	}
	r.setStaging(count)
	return nil
}

// RefreshAll runs the balance, history and staging refreshes in parallel
// and returns their errors joined.
func (r *Reconciler) RefreshAll(ctx context.Context) error {
	if _, err := r.address(); err != nil {
		return err
	}

	refreshers := []func(context.Context) error{
		r.RefreshBalance,
		r.RefreshHistory,
		r.RefreshStaging,
	}
	errs := make([]error, len(refreshers))

	var wg sync.WaitGroup
	for i, refresh := range refreshers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = refresh(ctx)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (r *Reconciler) replaceHistory(records []Record) {
	r.mu.Lock()
	r.state.History = records
	r.state.UpdatedAt = r.now()
	r.mu.Unlock()
}

func (r *Reconciler) setStaging(n int) {
	r.mu.Lock()
	r.state.StagingCount = n
	r.state.UpdatedAt = r.now()
	r.mu.Unlock()
}

// toRecord converts a node transaction detail into a history record seen
// from addr. Details without a parsed transfer or a readable amount are
// rejected.
func toRecord(detail *rpcclient.TxDetail, hash string, addr types.Address) (Record, bool) {
	p := detail.ParsedTx
	if p == nil {
		return Record{}, false
	}
	amount, ok := p.Value()
	if !ok {
		return Record{}, false
	}

	rec := Record{
		Hash:    detail.Hash,
		Amount:  amount,
		Message: p.Message,
	}
	if rec.Hash == "" {
		rec.Hash = hash
	}
	if rec.Message == "" {
		rec.Message = detail.Message
	}

	recipient := p.Recipient()
	if recipient == addr.String() {
		rec.Kind = Incoming
		rec.Counterparty = types.Address(p.From)
	} else {
		rec.Kind = Outgoing
		rec.Counterparty = types.Address(recipient)
	}

	if ts, ok := p.Timestamp.Float64(); ok && ts > 0 {
		sec, frac := math.Modf(ts)
		rec.Time = time.Unix(int64(sec), int64(frac*1e9))
	}
	rec.Nonce, _ = p.Nonce.Uint64()
	if epoch, ok := detail.Epoch.Uint64(); ok {
		rec.Epoch = &epoch
	}
	return rec, true
}

// sortHistory orders records most recent first. Equal timestamps fall back
// to the higher nonce, then to the node's order.
func sortHistory(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Time.Equal(b.Time) {
			return a.Time.After(b.Time)
		}
		return a.Nonce > b.Nonce
	})
}
