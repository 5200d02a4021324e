package account

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Klingon-tech/octra-wallet/internal/rpcclient"
	"github.com/Klingon-tech/octra-wallet/pkg/tx"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// SendResult describes a transaction the node accepted.
type SendResult struct {
	Transaction *tx.SignedTransaction
	Fingerprint types.Hash
	Reply       *rpcclient.SendReply
}

// Payment is one leg of a multi-recipient send.
type Payment struct {
	To      types.Address
	Amount  types.Amount
	Message string
}

// Send builds, signs and submits a transfer of decimalAmount OCT using the
// last refreshed nonce. It does not change local state; call Settle (or use
// SendAndSettle) to pick up the node's view afterwards.
func (r *Reconciler) Send(ctx context.Context, to types.Address, decimalAmount float64, message string) (*SendResult, error) {
	nonce, err := r.readyNonce()
	if err != nil {
		return nil, err
	}
	txn, err := r.builder.Build(r.id.Address, to, decimalAmount, nonce, message)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, txn)
}

// SendRaw is Send for an amount already in raw units.
func (r *Reconciler) SendRaw(ctx context.Context, to types.Address, amount types.Amount, message string) (*SendResult, error) {
	nonce, err := r.readyNonce()
	if err != nil {
		return nil, err
	}
	txn, err := r.builder.BuildRaw(r.id.Address, to, amount, nonce, message)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, txn)
}

// Settle waits for the configured settle delay and then refreshes all
// account state. It returns early if ctx is cancelled.
func (r *Reconciler) Settle(ctx context.Context) error {
	if d := r.cfg.SettleDelay; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.RefreshAll(ctx)
}

// SendAndSettle sends and then settles. The result is returned even when
// only the settle step fails.
func (r *Reconciler) SendAndSettle(ctx context.Context, to types.Address, decimalAmount float64, message string) (*SendResult, error) {
	res, err := r.Send(ctx, to, decimalAmount, message)
	if err != nil {
		return nil, err
	}
	if err := r.Settle(ctx); err != nil {
		return res, fmt.Errorf("settle: %w", err)
	}
	return res, nil
}

// SendMany sends payments one after another, settling after each so the
// next one builds on the node's updated nonce. All payments are checked
// before anything is sent. It stops at the first failure and returns the
// results of the payments that went through. A settle step only aborts
// the batch when the nonce could not be refreshed; history and staging
// failures are logged.
func (r *Reconciler) SendMany(ctx context.Context, payments []Payment) ([]*SendResult, error) {
	if _, err := r.readyNonce(); err != nil {
		return nil, err
	}
	for i, p := range payments {
		if err := checkPayment(p); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
	}

	results := make([]*SendResult, 0, len(payments))
	for i, p := range payments {
		res, err := r.SendRaw(ctx, p.To, p.Amount, p.Message)
		if err != nil {
			return results, fmt.Errorf("payment %d of %d: %w", i+1, len(payments), err)
		}
		results = append(results, res)
		if err := r.Settle(ctx); err != nil {
			if ctx.Err() != nil || !r.nonceKnown() {
				return results, fmt.Errorf("settle after payment %d of %d: %w", i+1, len(payments), err)
			}
			r.logger.Warn().Err(err).Int("payment", i+1).Msg("Partial refresh after send, continuing")
		}
	}
	return results, nil
}

func checkPayment(p Payment) error {
	if _, err := types.ParseAddress(p.To.String()); err != nil {
		return err
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: must be greater than zero", tx.ErrInvalidAmount)
	}
	if n := utf8.RuneCountInString(p.Message); n > tx.MaxMessageLength {
		return fmt.Errorf("%w: %d characters, max %d", tx.ErrMessageTooLong, n, tx.MaxMessageLength)
	}
	return nil
}

// readyNonce returns the confirmed nonce, or ErrWalletNotReady when there
// is no identity or no successful balance refresh.
func (r *Reconciler) readyNonce() (uint64, error) {
	if r.id == nil {
		return 0, fmt.Errorf("%w: no identity loaded", ErrWalletNotReady)
	}
	r.mu.RLock()
	nonce, known := r.state.Nonce, r.state.NonceKnown
	r.mu.RUnlock()
	if !known {
		return 0, fmt.Errorf("%w: nonce unknown, refresh balance first", ErrWalletNotReady)
	}
	return nonce, nil
}

func (r *Reconciler) nonceKnown() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.NonceKnown
}

func (r *Reconciler) submit(ctx context.Context, txn *tx.Transaction) (*SendResult, error) {
	st, err := tx.Sign(txn, r.id)
	if err != nil {
		return nil, err
	}
	fp := st.Fingerprint()

	reply, err := r.node.SendTransaction(ctx, st)
	if err != nil {
		var he *rpcclient.HTTPError
		if errors.As(err, &he) {
			r.logger.Warn().
				Str("fingerprint", fp.String()).
				Int("status", he.StatusCode).
				Str("reason", he.Message).
				Msg("Transaction rejected")
			return nil, fmt.Errorf("%w: %w", ErrRemoteRejected, he)
		}
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	r.logger.Info().
		Str("fingerprint", fp.String()).
		Str("to", st.To.Short()).
		Str("amount", st.Amount.String()).
		Uint64("nonce", st.Nonce).
		Msg("Transaction sent")

	if r.journal != nil {
		if err := r.journal.Append(st, reply.Body); err != nil {
			r.logger.Warn().Err(err).Str("fingerprint", fp.String()).Msg("Failed to journal sent transaction")
		}
	}

	return &SendResult{Transaction: st, Fingerprint: fp, Reply: reply}, nil
}
