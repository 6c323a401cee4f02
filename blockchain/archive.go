package blockchain

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"cryptosimchain_go/utils"
)

// Database key prefixes for better organization
const (
	blockKeyPrefix     = "block_"     // Prefix for accessing blocks by index
	blockHashKeyPrefix = "blockhash_" // Prefix for accessing blocks by hash
	blockHeightKey     = "height"     // Key for the archived chain height
)

/**
 * ChainArchive is an optional write-through export of sealed blocks backed by
 * LevelDB. It exists for inspection across restarts; the live simulation never
 * reads archived blocks back, so the in-memory chain remains the single source
 * of truth.
 */
type ChainArchive struct {
	db        *leveldb.DB
	batchLock sync.Mutex
	path      string
}

// NewChainArchive opens (or creates) the archive database under dataDir.
func NewChainArchive(dataDir string) (*ChainArchive, error) {
	dbPath := filepath.Join(dataDir, "chain_archive")

	options := &opt.Options{
		BlockCacheCapacity: 8 * 1024 * 1024, // 8MB block cache
		WriteBuffer:        4 * 1024 * 1024, // 4MB write buffer
	}

	db, err := leveldb.OpenFile(dbPath, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain archive: %v", err)
	}

	utils.LogInfo("Chain archive initialized at: %s", dbPath)

	return &ChainArchive{
		db:   db,
		path: dbPath,
	}, nil
}

// Close closes the underlying database.
func (ca *ChainArchive) Close() error {
	if ca.db != nil {
		return ca.db.Close()
	}
	return nil
}

// SaveBlock stores a sealed block, indexed both by height and by hash, and
// advances the archived height marker in a single batch.
func (ca *ChainArchive) SaveBlock(block *Block) error {
	ca.batchLock.Lock()
	defer ca.batchLock.Unlock()

	blockData, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to marshal block: %v", err)
	}

	batch := new(leveldb.Batch)
	indexKey := blockKeyPrefix + strconv.FormatUint(block.Index, 10)
	batch.Put([]byte(indexKey), blockData)
	batch.Put([]byte(blockHashKeyPrefix+block.Hash), []byte(indexKey))
	batch.Put([]byte(blockHeightKey), []byte(strconv.FormatUint(block.Index, 10)))

	if err := ca.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to write block batch: %v", err)
	}

	utils.LogDebug("Archived block %d (%s)", block.Index, block.Hash[:TxHashLength])
	return nil
}

// BlockByIndex loads an archived block by chain height.
func (ca *ChainArchive) BlockByIndex(index uint64) (*Block, error) {
	key := blockKeyPrefix + strconv.FormatUint(index, 10)
	data, err := ca.db.Get([]byte(key), nil)
	if err != nil {
		return nil, fmt.Errorf("block %d not found in archive: %v", index, err)
	}

	var block Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archived block %d: %v", index, err)
	}
	return &block, nil
}

// BlockByHash loads an archived block by its hash.
func (ca *ChainArchive) BlockByHash(hash string) (*Block, error) {
	indexKey, err := ca.db.Get([]byte(blockHashKeyPrefix+hash), nil)
	if err != nil {
		return nil, fmt.Errorf("block %s not found in archive: %v", hash, err)
	}

	data, err := ca.db.Get(indexKey, nil)
	if err != nil {
		return nil, fmt.Errorf("dangling hash index for %s: %v", hash, err)
	}

	var block Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archived block %s: %v", hash, err)
	}
	return &block, nil
}

// Height returns the highest archived block index, or an error when the
// archive is empty.
func (ca *ChainArchive) Height() (uint64, error) {
	data, err := ca.db.Get([]byte(blockHeightKey), nil)
	if err != nil {
		return 0, fmt.Errorf("archive height not found: %v", err)
	}
	height, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt archive height value: %v", err)
	}
	return height, nil
}
