package blockchain

import (
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	archive, err := NewChainArchive(t.TempDir())
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer archive.Close()

	bc := NewBlockchain()
	bc.AddTransaction(NewTransaction("alice", "bob", 10))
	block := bc.CreateBlock(nil)

	if err := archive.SaveBlock(block); err != nil {
		t.Fatalf("saving block: %v", err)
	}

	byIndex, err := archive.BlockByIndex(block.Index)
	if err != nil {
		t.Fatalf("loading block by index: %v", err)
	}
	if byIndex.Hash != block.Hash {
		t.Errorf("block hash by index: got %s want %s", byIndex.Hash, block.Hash)
	}
	if len(byIndex.Transactions) != 1 {
		t.Errorf("archived transaction count: got %d want 1", len(byIndex.Transactions))
	}

	byHash, err := archive.BlockByHash(block.Hash)
	if err != nil {
		t.Fatalf("loading block by hash: %v", err)
	}
	if byHash.Index != block.Index {
		t.Errorf("block index by hash: got %d want %d", byHash.Index, block.Index)
	}
}

func TestArchiveHeight(t *testing.T) {
	archive, err := NewChainArchive(t.TempDir())
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer archive.Close()

	bc := NewBlockchain()
	for i := 0; i < 3; i++ {
		bc.AddTransaction(NewTransaction("alice", "bob", 1))
		if err := archive.SaveBlock(bc.CreateBlock(nil)); err != nil {
			t.Fatalf("saving block %d: %v", i, err)
		}
	}

	height, err := archive.Height()
	if err != nil {
		t.Fatalf("reading height: %v", err)
	}
	if height != 3 {
		t.Errorf("archive height: got %d want 3", height)
	}
}

func TestArchiveUnknownBlock(t *testing.T) {
	archive, err := NewChainArchive(t.TempDir())
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer archive.Close()

	if _, err := archive.BlockByIndex(99); err == nil {
		t.Error("loading a missing block should fail")
	}
}
