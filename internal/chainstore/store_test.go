package chainstore

import (
	"errors"
	"testing"

	"github.com/klingnet-tech/klingnet-chainindex/internal/storage"
	"github.com/klingnet-tech/klingnet-chainindex/pkg/chainindex"
	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// hashOf builds a deterministic test hash from a single tag byte.
func hashOf(tag byte) types.Hash {
	var h types.Hash
	for i := range h {
		h[i] = tag
	}
	return h
}

func blockId(height uint32, tag byte) chainindex.BlockId {
	return chainindex.BlockId{Height: height, Hash: hashOf(tag)}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := storage.NewMemory()
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestStore_InitializeAndLoad(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.LoadChain(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("LoadChain on empty store = %v, want ErrNotInitialized", err)
	}

	genesis := hashOf('A')
	if err := store.Initialize(genesis); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	chain, err := store.LoadChain()
	if err != nil {
		t.Fatalf("LoadChain: %v", err)
	}
	if got := chain.GenesisHash(); got != genesis {
		t.Errorf("GenesisHash = %s, want %s", got, genesis)
	}
	if got := chain.Tip().Height(); got != 0 {
		t.Errorf("tip height = %d, want 0", got)
	}
}

func TestStore_Initialize_Idempotent(t *testing.T) {
	store := newTestStore(t)
	genesis := hashOf('A')

	if err := store.Initialize(genesis); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := store.Initialize(genesis); err != nil {
		t.Fatalf("re-Initialize with same genesis: %v", err)
	}

	err := store.Initialize(hashOf('B'))
	var mismatch *GenesisMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Initialize with different genesis = %v, want GenesisMismatchError", err)
	}
	if mismatch.Stored != genesis {
		t.Errorf("mismatch.Stored = %s, want %s", mismatch.Stored, genesis)
	}
}

func TestStore_AppendRoundTrip(t *testing.T) {
	store := newTestStore(t)
	if err := store.Initialize(hashOf('A')); err != nil {
		t.Fatal(err)
	}

	// Drive a LocalChain and mirror every changeset into the store.
	chain := chainindex.FromGenesisHash(hashOf('A'))
	for _, id := range []chainindex.BlockId{blockId(1, 'B'), blockId(2, 'C'), blockId(3, 'D')} {
		cs, err := chain.InsertBlock(id)
		if err != nil {
			t.Fatalf("InsertBlock(%d): %v", id.Height, err)
		}
		if err := store.Append(cs); err != nil {
			t.Fatalf("Append(%d): %v", id.Height, err)
		}
	}

	// A reorg that drops height 3 and rewrites height 2.
	update, err := chainindex.FromBlockIds([]chainindex.BlockId{blockId(1, 'B'), blockId(2, 'E')})
	if err != nil {
		t.Fatal(err)
	}
	cs, err := chain.ApplyUpdate(update.IntoUpdate(false))
	if err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	if err := store.Append(cs); err != nil {
		t.Fatalf("Append reorg: %v", err)
	}

	reloaded, err := store.LoadChain()
	if err != nil {
		t.Fatalf("LoadChain: %v", err)
	}
	if !reloaded.Equal(chain) {
		t.Errorf("reloaded chain differs from live chain:\nlive:     %v\nreloaded: %v", chain.Blocks(), reloaded.Blocks())
	}
	if got := reloaded.Tip().BlockId(); got != blockId(2, 'E') {
		t.Errorf("reloaded tip = %v, want %v", got, blockId(2, 'E'))
	}
}

func TestStore_Append_EmptyIsNoop(t *testing.T) {
	store := newTestStore(t)
	if err := store.Initialize(hashOf('A')); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(chainindex.ChangeSet{}); err != nil {
		t.Fatalf("Append empty: %v", err)
	}
	cs, err := store.ChangeSet()
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 1 {
		t.Errorf("store has %d entries, want just genesis", len(cs))
	}
}

func TestStore_Replace(t *testing.T) {
	store := newTestStore(t)
	if err := store.Initialize(hashOf('A')); err != nil {
		t.Fatal(err)
	}
	cs := chainindex.ChangeSet{}
	cs.Set(1, hashOf('B'))
	cs.Set(2, hashOf('C'))
	if err := store.Append(cs); err != nil {
		t.Fatal(err)
	}

	// Swap in a recovery view: genesis plus a single high checkpoint.
	recovered := chainindex.FromBlockId(hashOf('A'), blockId(500, 'R'))
	if err := store.Replace(recovered.InitialChangeset()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := store.ChangeSet()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("store has %d entries after Replace, want 2 (genesis + recovery): %v", len(got), got)
	}
	if got[500] == nil || *got[500] != hashOf('R') {
		t.Errorf("recovery checkpoint missing: %v", got)
	}
	if _, ok := got[1]; ok {
		t.Error("pre-recovery entry at height 1 should be gone")
	}
}

func TestStore_Oracle(t *testing.T) {
	store := newTestStore(t)
	if err := store.Initialize(hashOf('A')); err != nil {
		t.Fatal(err)
	}
	cs := chainindex.ChangeSet{}
	cs.Set(3, hashOf('C'))
	cs.Set(5, hashOf('E'))
	if err := store.Append(cs); err != nil {
		t.Fatal(err)
	}

	tip, err := store.GetChainTip()
	if err != nil {
		t.Fatalf("GetChainTip: %v", err)
	}
	if tip != blockId(5, 'E') {
		t.Errorf("tip = %v, want %v", tip, blockId(5, 'E'))
	}

	tests := []struct {
		name  string
		block chainindex.BlockId
		want  *bool
	}{
		{"in chain", blockId(3, 'C'), boolPtr(true)},
		{"wrong hash", blockId(3, 'X'), boolPtr(false)},
		{"above tip", blockId(9, 'Z'), nil},
		{"height not stored", blockId(4, 'D'), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.IsBlockInChain(tt.block, tip)
			if err != nil {
				t.Fatalf("IsBlockInChain: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("IsBlockInChain = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("IsBlockInChain = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestStore_Oracle_Empty(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetChainTip(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetChainTip on empty store = %v, want ErrNotInitialized", err)
	}
}

func TestStore_BadgerPersistence(t *testing.T) {
	dir := t.TempDir()

	db, err := storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	store := New(db)
	if err := store.Initialize(hashOf('A')); err != nil {
		t.Fatal(err)
	}
	cs := chainindex.ChangeSet{}
	cs.Set(1, hashOf('B'))
	if err := store.Append(cs); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db2, err := storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger reopen: %v", err)
	}
	defer db2.Close()

	chain, err := New(db2).LoadChain()
	if err != nil {
		t.Fatalf("LoadChain after reopen: %v", err)
	}
	if got := chain.Tip().BlockId(); got != blockId(1, 'B') {
		t.Errorf("tip after reopen = %v, want %v", got, blockId(1, 'B'))
	}
}

func boolPtr(b bool) *bool { return &b }
