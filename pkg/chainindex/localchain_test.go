package chainindex

import (
	"testing"

	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

func buildLocalChain(t *testing.T, pairs ...any) *LocalChain {
	t.Helper()
	blocks := map[uint32]types.Hash{}
	for i := 0; i < len(pairs); i += 2 {
		blocks[uint32(pairs[i].(int))] = mkHash(pairs[i+1].(byte))
	}
	lc, err := FromBlocks(blocks)
	if err != nil {
		t.Fatalf("FromBlocks: %v", err)
	}
	return lc
}

func TestLocalChain_FromGenesisHash(t *testing.T) {
	lc := FromGenesisHash(mkHash('A'))
	if lc.Tip().Height() != 0 || lc.Tip().Hash() != mkHash('A') {
		t.Fatal("unexpected tip")
	}
	if lc.GenesisHash() != mkHash('A') {
		t.Fatal("unexpected genesis hash")
	}
}

func TestLocalChain_FromBlockId_BirthdayAndDetachedTip(t *testing.T) {
	lc := FromBlockId(mkHash('A'), BlockId{Height: 100, Hash: mkHash('X')})
	if lc.birthday != 100 {
		t.Errorf("birthday = %d, want 100", lc.birthday)
	}
	if lc.Tip().Prev() != nil {
		t.Error("tip should have no prev node")
	}
	blocks := lc.Blocks()
	if blocks[0] != mkHash('A') || blocks[100] != mkHash('X') {
		t.Fatalf("index missing expected entries: %v", blocks)
	}
}

func TestLocalChain_FromTip_MissingGenesisFails(t *testing.T) {
	cp := NewCheckPoint(BlockId{Height: 5, Hash: mkHash('B')})
	if _, err := FromTip(cp); err == nil {
		t.Fatal("expected ErrMissingGenesis")
	}
}

func TestLocalChain_ApplyUpdate_ExtendOnTip(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'), 1, byte('B'))
	update := mkChain(t, 1, 'B', 2, 'C')

	cs, err := lc.ApplyUpdate(update.IntoUpdate(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertChangeset(t, cs, map[uint32]*types.Hash{2: changesetHash(t, 'C')})
	if lc.Tip().Height() != 2 || lc.Tip().Hash() != mkHash('C') {
		t.Fatalf("tip not updated: %v", lc.Tip().BlockId())
	}
	if lc.Blocks()[2] != mkHash('C') {
		t.Error("index not updated")
	}
}

func TestLocalChain_ApplyUpdate_Reorg(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'), 1, byte('B'), 2, byte('C'))
	update := mkChain(t, 1, 'B', 2, 'D')

	cs, err := lc.ApplyUpdate(update.IntoUpdate(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertChangeset(t, cs, map[uint32]*types.Hash{2: changesetHash(t, 'D')})
	if lc.Tip().Hash() != mkHash('D') {
		t.Fatal("tip not reorged")
	}
}

func TestLocalChain_ApplyUpdate_Ambiguous(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'), 5, byte('B'))
	update := mkChain(t, 3, 'C', 4, 'D')

	preTip := lc.Tip()
	_, err := lc.ApplyUpdate(update.IntoUpdate(false))
	if err == nil {
		t.Fatal("expected CannotConnectError")
	}
	if lc.Tip() != preTip {
		t.Error("chain mutated despite failed update")
	}
}

func TestLocalChain_Disconnect(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'), 3, byte('C'), 5, byte('E'))
	cs, err := lc.DisconnectFrom(BlockId{Height: 3, Hash: mkHash('C')})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertChangeset(t, cs, map[uint32]*types.Hash{3: nil, 5: nil})
	blocks := lc.Blocks()
	if _, ok := blocks[3]; ok {
		t.Error("height 3 should be gone")
	}
	if _, ok := blocks[5]; ok {
		t.Error("height 5 should be gone")
	}
	if blocks[0] != mkHash('A') {
		t.Error("genesis should survive")
	}
}

func TestLocalChain_Disconnect_NoopWhenAbsent(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'))
	cs, err := lc.DisconnectFrom(BlockId{Height: 3, Hash: mkHash('C')})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cs.IsEmpty() {
		t.Errorf("expected empty changeset, got %v", cs)
	}
}

func TestLocalChain_InsertBlock_Conflict(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'), 3, byte('C'))
	_, err := lc.InsertBlock(BlockId{Height: 3, Hash: mkHash('D')})
	if err == nil {
		t.Fatal("expected AlterCheckPointError")
	}
	alterErr, ok := err.(*AlterCheckPointError)
	if !ok {
		t.Fatalf("expected *AlterCheckPointError, got %T: %v", err, err)
	}
	if alterErr.Height != 3 || alterErr.OriginalHash != mkHash('C') || *alterErr.UpdateHash != mkHash('D') {
		t.Errorf("unexpected error fields: %+v", alterErr)
	}
}

func TestLocalChain_InsertBlock_SameHashNoop(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'), 3, byte('C'))
	cs, err := lc.InsertBlock(BlockId{Height: 3, Hash: mkHash('C')})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cs.IsEmpty() {
		t.Errorf("expected empty changeset, got %v", cs)
	}
}

func TestLocalChain_InsertBlock_NewHeight(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'))
	cs, err := lc.InsertBlock(BlockId{Height: 10, Hash: mkHash('Z')})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertChangeset(t, cs, map[uint32]*types.Hash{10: changesetHash(t, 'Z')})
	if lc.Blocks()[10] != mkHash('Z') {
		t.Error("index not updated")
	}
}

func TestLocalChain_InitialChangesetRoundtrips(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'), 1, byte('B'), 2, byte('C'))
	cs := lc.InitialChangeset()

	rebuilt, err := FromChangeset(cs)
	if err != nil {
		t.Fatalf("FromChangeset: %v", err)
	}
	if !lc.Equal(rebuilt) {
		t.Error("rebuilt chain not equal to original")
	}
}

func TestLocalChain_ApplyChangeset_Idempotent(t *testing.T) {
	lc := buildLocalChain(t, 0, byte('A'), 1, byte('B'))
	cs := ChangeSet{}
	h := mkHash('C')
	cs[2] = &h

	if err := lc.ApplyChangeset(cs); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	first := lc.Blocks()

	if err := lc.ApplyChangeset(cs); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	second := lc.Blocks()

	if len(first) != len(second) {
		t.Fatal("index size changed on replay")
	}
	for h, hash := range first {
		if second[h] != hash {
			t.Fatalf("height %d diverged on replay", h)
		}
	}
}

func TestLocalChain_Equal_RequiresGenesisAgreement(t *testing.T) {
	a := FromBlockId(mkHash('A'), BlockId{Height: 10, Hash: mkHash('X')})
	b := FromBlockId(mkHash('Z'), BlockId{Height: 10, Hash: mkHash('X')}) // different genesis

	if a.Equal(b) {
		t.Error("chains disagreeing on genesis should not be equal")
	}
}

func TestLocalChain_Equal_IgnoresDisagreementBelowHigherBirthday(t *testing.T) {
	// a has a real height-3 entry the other chain doesn't carry (its
	// birthday starts at 10, so height 3 is below both chains' visibility
	// once compared at the higher of the two birthdays).
	a, err := FromBlocks(map[uint32]types.Hash{0: mkHash('A'), 3: mkHash('Q'), 10: mkHash('X')})
	if err != nil {
		t.Fatalf("FromBlocks: %v", err)
	}
	b := FromBlockId(mkHash('A'), BlockId{Height: 10, Hash: mkHash('X')})

	if !a.Equal(b) {
		t.Error("chains agreeing at and above the higher birthday should be equal")
	}
}
