package blockchain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// SystemAddress is the reserved sender used for reward minting.
// Transactions from this address bypass balance validation.
const SystemAddress = "SYSTEM"

// TxHashLength is the number of hex characters kept from the transaction digest.
const TxHashLength = 16

/**
 * Transaction represents a single validated transfer recorded on the chain.
 * The hash is content-addressed: derived once from the transaction fields at
 * creation time and never recomputed afterwards.
 */
type Transaction struct {
	TxHash     string  `json:"txHash"`               // Truncated SHA-256 digest of the transaction content
	From       string  `json:"from"`                 // Sender address (or SystemAddress for mints)
	To         string  `json:"to"`                   // Receiver address
	Amount     float64 `json:"amount"`               // Transferred amount, always > 0
	Timestamp  float64 `json:"timestamp"`            // Unix timestamp (seconds) at creation
	BlockIndex *uint64 `json:"blockIndex,omitempty"` // Index of the sealing block, nil while pending
}

/**
 * NewTransaction creates a transaction stamped with the current time and a
 * freshly derived content hash.
 */
func NewTransaction(from, to string, amount float64) *Transaction {
	tx := &Transaction{
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	}
	tx.TxHash = tx.generateHash()
	return tx
}

// generateHash computes the SHA-256 digest over the transaction content,
// truncated to TxHashLength hex characters. Order matters for consistency.
func (t *Transaction) generateHash() string {
	var records []string
	records = append(records, t.From)
	records = append(records, t.To)
	records = append(records, strconv.FormatFloat(t.Amount, 'f', 8, 64))
	records = append(records, strconv.FormatFloat(t.Timestamp, 'f', 6, 64))

	h := sha256.Sum256([]byte(strings.Join(records, "|")))
	return hex.EncodeToString(h[:])[:TxHashLength]
}

// IsMint reports whether the transaction was issued by the system address.
func (t *Transaction) IsMint() bool {
	return t.From == SystemAddress
}
