package rpcclient

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// FlexNumber is a JSON value that may arrive as a number or as a numeric
// string. Decoding never fails; anything else leaves it invalid.
type FlexNumber struct {
	text  string
	valid bool
}

// NewFlexNumber returns a valid FlexNumber holding s.
func NewFlexNumber(s string) FlexNumber {
	return FlexNumber{text: strings.TrimSpace(s), valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	*f = FlexNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if json.Unmarshal(data, &s) == nil {
			*f = NewFlexNumber(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*f = NewFlexNumber(string(data))
	}
	return nil
}

// Valid reports whether a number or string was present.
func (f FlexNumber) Valid() bool { return f.valid }

// String returns the raw text.
func (f FlexNumber) String() string { return f.text }

// Float64 parses the value as a finite float.
func (f FlexNumber) Float64() (float64, bool) {
	if !f.valid {
		return 0, false
	}
	v, err := strconv.ParseFloat(f.text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Uint64 parses the value as a non-negative integer. Integral floats
// ("7.0", 7e0) are accepted.
func (f FlexNumber) Uint64() (uint64, bool) {
	if !f.valid {
		return 0, false
	}
	if v, err := strconv.ParseUint(f.text, 10, 64); err == nil {
		return v, true
	}
	v, ok := f.Float64()
	if !ok || v < 0 || v != math.Trunc(v) || v >= math.MaxUint64 {
		return 0, false
	}
	return uint64(v), true
}

// Decimal parses the value as an OCT amount ("10.5"), truncated to raw units.
func (f FlexNumber) Decimal() (types.Amount, bool) {
	if !f.valid {
		return 0, false
	}
	a, err := types.TruncateAmount(f.text)
	if err != nil {
		return 0, false
	}
	return a, true
}

// RawUnits parses the value as an integer count of raw units.
func (f FlexNumber) RawUnits() (types.Amount, bool) {
	v, ok := f.Uint64()
	return types.Amount(v), ok
}

// BalanceVariant tags the shape a balance response arrived in.
type BalanceVariant int

// Recognized balance response shapes.
const (
	BalanceUnknown    BalanceVariant = iota // anything unrecognized
	BalanceNumeric                          // {"balance": 1.5, "nonce": 3}
	BalanceStringPair                       // {"balance": "1.5", "nonce": "3"}
	BalanceText                             // 1.5 3
	BalanceNotFound                         // 404
)

func (v BalanceVariant) String() string {
	switch v {
	case BalanceNumeric:
		return "numeric"
	case BalanceStringPair:
		return "string-pair"
	case BalanceText:
		return "text"
	case BalanceNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// BalanceReply is a decoded balance response. Balance and Nonce hold the
// tokens as received; Normalize turns them into numbers.
type BalanceReply struct {
	Variant BalanceVariant
	Balance string
	Nonce   string
}

// DecodeBalance classifies a balance response body. It never fails.
func DecodeBalance(body []byte) *BalanceReply {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &BalanceReply{Variant: BalanceUnknown}
	}

	switch trimmed[0] {
	case '{':
		var obj struct {
			Balance json.RawMessage `json:"balance"`
			Nonce   json.RawMessage `json:"nonce"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return &BalanceReply{Variant: BalanceUnknown}
		}
		bal, balStr := jsonToken(obj.Balance)
		nonce, nonceStr := jsonToken(obj.Nonce)
		variant := BalanceNumeric
		if balStr || nonceStr {
			variant = BalanceStringPair
		}
		return &BalanceReply{Variant: variant, Balance: bal, Nonce: nonce}
	case '"':
		var s string
		if json.Unmarshal(trimmed, &s) != nil {
			return &BalanceReply{Variant: BalanceUnknown}
		}
		return decodeBalanceText(s)
	case '[':
		return &BalanceReply{Variant: BalanceUnknown}
	default:
		return decodeBalanceText(string(trimmed))
	}
}

// decodeBalanceText handles a "<balance> <nonce>" line.
func decodeBalanceText(s string) *BalanceReply {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return &BalanceReply{Variant: BalanceUnknown}
	}
	return &BalanceReply{Variant: BalanceText, Balance: fields[0], Nonce: fields[1]}
}

// jsonToken returns the text of a JSON number or string and whether it was
// a string. Other JSON kinds yield "".
func jsonToken(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return "", true
		}
		return strings.TrimSpace(s), true
	}
	var n json.Number
	if json.Unmarshal(raw, &n) != nil {
		return "", false
	}
	return n.String(), false
}

// Normalize returns the balance in raw units and the confirmed nonce.
// Missing or unparseable values are zero.
func (r *BalanceReply) Normalize() (types.Amount, uint64) {
	switch r.Variant {
	case BalanceNumeric:
		return normalizeNumeric(r.Balance, r.Nonce)
	case BalanceStringPair:
		return normalizeStringPair(r.Balance, r.Nonce)
	case BalanceText:
		return normalizeText(r.Balance, r.Nonce)
	default:
		return 0, 0
	}
}

func normalizeNumeric(balance, nonce string) (types.Amount, uint64) {
	bal, _ := NewFlexNumber(balance).Decimal()
	n, _ := NewFlexNumber(nonce).Uint64()
	return bal, n
}

func normalizeStringPair(balance, nonce string) (types.Amount, uint64) {
	// Strings may carry a unit suffix ("12.5 OCT").
	bal, _ := NewFlexNumber(firstField(balance)).Decimal()
	n, _ := NewFlexNumber(firstField(nonce)).Uint64()
	return bal, n
}

func normalizeText(balance, nonce string) (types.Amount, uint64) {
	bal, _ := NewFlexNumber(balance).Decimal()
	n, _ := NewFlexNumber(nonce).Uint64()
	return bal, n
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// AddressInfo is the /address/{a} response.
type AddressInfo struct {
	RecentTransactions []TxRef `json:"recent_transactions"`
}

// TxRef references a transaction by hash.
type TxRef struct {
	Hash string `json:"hash"`
}

// Hashes returns the non-empty transaction hashes in response order.
func (a *AddressInfo) Hashes() []string {
	out := make([]string, 0, len(a.RecentTransactions))
	for _, ref := range a.RecentTransactions {
		if h := strings.TrimSpace(ref.Hash); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// TxDetail is the /tx/{h} response.
type TxDetail struct {
	Hash     string     `json:"hash"`
	Epoch    FlexNumber `json:"epoch"`
	Message  string     `json:"message"`
	ParsedTx *ParsedTx  `json:"parsed_tx"`
}

// ParsedTx is the transfer embedded in a TxDetail.
type ParsedTx struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	ToAlt     string     `json:"to_"`
	Amount    FlexNumber `json:"amount"`
	AmountRaw FlexNumber `json:"amount_raw"`
	Nonce     FlexNumber `json:"nonce"`
	Timestamp FlexNumber `json:"timestamp"`
	Message   string     `json:"message"`
}

// Recipient returns the "to" field, falling back to "to_".
func (p *ParsedTx) Recipient() string {
	if p.To != "" {
		return p.To
	}
	return p.ToAlt
}

// Value returns the transferred amount in raw units: amount_raw when
// present, otherwise the decimal amount field.
func (p *ParsedTx) Value() (types.Amount, bool) {
	if a, ok := p.AmountRaw.RawUnits(); ok {
		return a, true
	}
	return p.Amount.Decimal()
}

// Staging is the /staging response. Entries are kept raw so one malformed
// entry does not fail the whole decode.
type Staging struct {
	StagedTransactions []json.RawMessage `json:"staged_transactions"`
}

// CountFrom returns how many staged entries were sent by addr, and how many
// entries were skipped as malformed.
func (s *Staging) CountFrom(addr types.Address) (count, skipped int) {
	for _, raw := range s.StagedTransactions {
		var entry struct {
			From string `json:"from"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			skipped++
			continue
		}
		if entry.From == addr.String() {
			count++
		}
	}
	return count, skipped
}

// SendReply is the node's acknowledgement of a submitted transaction.
type SendReply struct {
	Status string `json:"status"`
	TxHash string `json:"tx_hash"`
	// Body is the response as received.
	Body string `json:"-"`
}

// DecodeSendReply parses a /send-tx response. Bodies that are not JSON
// objects are kept in Body only.
func DecodeSendReply(body []byte) *SendReply {
	var r SendReply
	_ = json.Unmarshal(body, &r)
	r.Body = strings.TrimSpace(string(body))
	return &r
}
