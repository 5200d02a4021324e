// Package tx defines transfer transactions, their canonical signing bytes
// and the wire format submitted to a node.
package tx

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Klingon-tech/octra-wallet/pkg/crypto"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// MaxMessageLength is the maximum number of characters in a transfer message.
const MaxMessageLength = 1024

// Transaction is an unsigned transfer.
type Transaction struct {
	From      types.Address
	To        types.Address
	Amount    types.Amount
	Nonce     uint64
	FeeTier   string
	Timestamp float64 // seconds since epoch, fractional
	Message   string  // carried on the wire, not signed
}

// signingFields is the signed subset of a transaction. Field order here is
// the canonical order of the signed JSON object and must not change.
type signingFields struct {
	From      string  `json:"from"`
	To        string  `json:"to_"`
	Amount    string  `json:"amount"`
	Nonce     uint64  `json:"nonce"`
	FeeTier   string  `json:"ou"`
	Timestamp float64 `json:"timestamp"`
}

func (t *Transaction) signingFields() signingFields {
	return signingFields{
		From:      t.From.String(),
		To:        t.To.String(),
		Amount:    t.Amount.Raw(),
		Nonce:     t.Nonce,
		FeeTier:   t.FeeTier,
		Timestamp: t.Timestamp,
	}
}

// SigningBytes returns the canonical byte representation used for signing:
// compact JSON {"from","to_","amount","nonce","ou","timestamp"} in that
// order. The message is never part of it.
func (t *Transaction) SigningBytes() []byte {
	// Marshal of a struct of strings and numbers cannot fail.
	b, _ := json.Marshal(t.signingFields())
	return b
}

// SignedTransaction is a transaction plus its detached signature and the
// signer's public key. It is never modified after Sign returns it.
type SignedTransaction struct {
	Transaction
	Signature []byte
	PublicKey []byte
}

// wireTx is the JSON body posted to /send-tx.
type wireTx struct {
	signingFields
	Message   string `json:"message,omitempty"`
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

// Fingerprint returns a local identifier: BLAKE3(signing bytes || signature).
func (st *SignedTransaction) Fingerprint() types.Hash {
	return crypto.HashConcat(st.SigningBytes(), st.Signature)
}

// Verify checks the signature against the embedded public key and that the
// key belongs to the sender address.
func (st *SignedTransaction) Verify() bool {
	addr, err := types.AddressFromPubKey(st.PublicKey)
	if err != nil || addr != st.From {
		return false
	}
	return crypto.VerifySignature(st.SigningBytes(), st.Signature, st.PublicKey)
}

// MarshalJSON encodes the transaction in the node's wire format.
func (st SignedTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTx{
		signingFields: st.signingFields(),
		Message:       st.Message,
		Signature:     base64.StdEncoding.EncodeToString(st.Signature),
		PublicKey:     base64.StdEncoding.EncodeToString(st.PublicKey),
	})
}

// UnmarshalJSON decodes the wire format.
func (st *SignedTransaction) UnmarshalJSON(data []byte) error {
	var w wireTx
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount, err := strconv.ParseUint(w.Amount, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", w.Amount, err)
	}
	sig, err := crypto.DecodeKey(w.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	pub, err := crypto.DecodeKey(w.PublicKey)
	if err != nil {
		return fmt.Errorf("invalid public key encoding: %w", err)
	}
	*st = SignedTransaction{
		Transaction: Transaction{
			From:      types.Address(w.From),
			To:        types.Address(w.To),
			Amount:    types.Amount(amount),
			Nonce:     w.Nonce,
			FeeTier:   w.FeeTier,
			Timestamp: w.Timestamp,
			Message:   w.Message,
		},
		Signature: sig,
		PublicKey: pub,
	}
	return nil
}
