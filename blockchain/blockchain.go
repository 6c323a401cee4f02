package blockchain

import "sync"

/**
 * Blockchain owns the ordered, hash-linked sequence of sealed blocks plus the
 * queue of transactions accepted but not yet sealed. Access is protected with
 * a mutex so presentation-facing readers can snapshot state while the single
 * simulation writer mutates it.
 */
type Blockchain struct {
	chain   []*Block       // Ordered list of blocks, never empty
	pending []*Transaction // Transactions waiting to be sealed into a block
	mutex   sync.RWMutex
}

/**
 * NewBlockchain initializes a chain holding only the genesis block
 * (index 0, all-zero previous hash, no transactions).
 */
func NewBlockchain() *Blockchain {
	bc := &Blockchain{
		chain:   make([]*Block, 0, 1),
		pending: make([]*Transaction, 0),
	}
	genesis := NewBlock(0, GenesisPreviousHash, nil)
	bc.chain = append(bc.chain, genesis)
	return bc
}

// AddTransaction appends a validated transaction to the pending queue.
func (bc *Blockchain) AddTransaction(tx *Transaction) {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	bc.pending = append(bc.pending, tx)
}

/**
 * CreateBlock seals a new block at the chain tail. When transactions is nil,
 * the full pending queue is sealed and cleared; an explicit transaction list
 * leaves the queue untouched. Each sealed transaction is stamped with the new
 * block's index before the block hash is derived, so a later IsValid
 * recomputation sees the same content that was hashed.
 */
func (bc *Blockchain) CreateBlock(transactions []*Transaction) *Block {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	txs := transactions
	drainPending := transactions == nil
	if drainPending {
		txs = bc.pending
	}

	last := bc.chain[len(bc.chain)-1]
	index := last.Index + 1
	for _, tx := range txs {
		blockIndex := index
		tx.BlockIndex = &blockIndex
	}

	block := NewBlock(index, last.Hash, txs)
	bc.chain = append(bc.chain, block)
	if drainPending {
		bc.pending = make([]*Transaction, 0)
	}
	return block
}

// LatestBlock returns the most recent block in the chain.
func (bc *Blockchain) LatestBlock() *Block {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.chain[len(bc.chain)-1]
}

// Chain returns a snapshot of all blocks in order.
func (bc *Blockchain) Chain() []*Block {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	out := make([]*Block, len(bc.chain))
	copy(out, bc.chain)
	return out
}

// Length returns the number of blocks in the chain.
func (bc *Blockchain) Length() int {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return len(bc.chain)
}

// PendingTransactions returns a snapshot of the pending queue.
func (bc *Blockchain) PendingTransactions() []*Transaction {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	out := make([]*Transaction, len(bc.pending))
	copy(out, bc.pending)
	return out
}

// PendingCount returns the number of transactions waiting to be sealed.
func (bc *Blockchain) PendingCount() int {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return len(bc.pending)
}

/**
 * IsValid walks the entire chain verifying both the previous-hash linkage and
 * that each block's stored hash matches a fresh recomputation. Any mismatch
 * anywhere fails the whole check.
 */
func (bc *Blockchain) IsValid() bool {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()

	for i := 1; i < len(bc.chain); i++ {
		current := bc.chain[i]
		previous := bc.chain[i-1]

		if current.PreviousHash != previous.Hash {
			return false
		}
		if current.Hash != current.CalculateHash() {
			return false
		}
	}
	return true
}
