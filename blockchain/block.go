package blockchain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// GenesisPreviousHash is the previous-hash value of the genesis block.
const GenesisPreviousHash = "0000000000000000000000000000000000000000000000000000000000000000"

/**
 * Block represents a single block in the chain. It contains metadata such as
 * index, timestamp and hash linkage, along with the sealed transactions.
 * The nonce is kept as a placeholder for wire compatibility; no proof-of-work
 * is performed in the simulation.
 */
type Block struct {
	Index        uint64         `json:"index"`        // Position of the block in the chain
	Timestamp    float64        `json:"timestamp"`    // Unix timestamp (seconds) when the block was created
	Transactions []*Transaction `json:"transactions"` // Ordered transactions sealed into this block
	PreviousHash string         `json:"previousHash"` // Hash of the previous block in the chain
	Hash         string         `json:"hash"`         // Current block's hash
	Nonce        uint64         `json:"nonce"`        // Unused placeholder, always zero
}

/**
 * NewBlock creates a block for the given position and seals the provided
 * transactions, deriving the block hash immediately.
 */
func NewBlock(index uint64, previousHash string, transactions []*Transaction) *Block {
	if transactions == nil {
		transactions = []*Transaction{}
	}
	block := &Block{
		Index:        index,
		Timestamp:    float64(time.Now().UnixNano()) / 1e9,
		Transactions: transactions,
		PreviousHash: previousHash,
		Nonce:        0,
	}
	block.Hash = block.CalculateHash()
	return block
}

/**
 * CalculateHash generates a SHA-256 hash of the block's content, excluding the
 * Hash field itself. Field order matters for consistent hashing.
 */
func (b *Block) CalculateHash() string {
	txJSON, _ := json.Marshal(b.Transactions)

	var records []string
	records = append(records, strconv.FormatUint(b.Index, 10))
	records = append(records, strconv.FormatFloat(b.Timestamp, 'f', 6, 64))
	records = append(records, string(txJSON))
	records = append(records, b.PreviousHash)
	records = append(records, strconv.FormatUint(b.Nonce, 10))

	h := sha256.New()
	h.Write([]byte(strings.Join(records, "|")))
	return hex.EncodeToString(h.Sum(nil))
}
