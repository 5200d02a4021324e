package wallet

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Klingon-tech/octra-wallet/internal/storage"
	"github.com/Klingon-tech/octra-wallet/pkg/tx"
	"github.com/Klingon-tech/octra-wallet/pkg/types"
)

// JournalEntry is a transaction the node accepted, as it was sent.
type JournalEntry struct {
	Fingerprint types.Hash      `json:"fingerprint"`
	From        types.Address   `json:"from"`
	To          types.Address   `json:"to"`
	Amount      types.Amount    `json:"amount"`
	Nonce       uint64          `json:"nonce"`
	Message     string          `json:"message,omitempty"`
	Wire        json.RawMessage `json:"wire"`
	NodeReply   string          `json:"node_reply"`
	SentAt      time.Time       `json:"sent_at"`
}

// Journal keeps a local log of sent transactions, keyed by sender so
// entries list in nonce order.
type Journal struct {
	db  *storage.Namespace
	now func() time.Time
}

// NewJournal returns a journal in the sent namespace of db.
func NewJournal(db storage.DB) *Journal {
	return &Journal{db: storage.NewNamespace(db, "sent"), now: time.Now}
}

// Append records st with the node's reply.
func (j *Journal) Append(st *tx.SignedTransaction, nodeReply string) error {
	wire, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	fp := st.Fingerprint()
	entry := JournalEntry{
		Fingerprint: fp,
		From:        st.From,
		To:          st.To,
		Amount:      st.Amount,
		Nonce:       st.Nonce,
		Message:     st.Message,
		Wire:        wire,
		NodeReply:   nodeReply,
		SentAt:      j.now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	return j.db.Put(journalKey(st.From, st.Nonce, fp), data)
}

// List returns the entries sent from addr, highest nonce first.
func (j *Journal) List(addr types.Address) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := j.db.ForEach(addrPrefix(addr), func(_, value []byte) error {
		var e JournalEntry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decode journal entry: %w", err)
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Nonce > entries[b].Nonce
	})
	return entries, nil
}

// Purge removes every entry sent from addr.
func (j *Journal) Purge(addr types.Address) error {
	return j.db.DeletePrefix(addrPrefix(addr))
}

func addrPrefix(addr types.Address) []byte {
	return []byte(addr.String() + "/")
}

func journalKey(addr types.Address, nonce uint64, fp types.Hash) []byte {
	return []byte(fmt.Sprintf("%s/%020d/%s", addr, nonce, fp))
}
