package chainindex

import "testing"

func TestChainPosition_ConfirmedVsUnconfirmed(t *testing.T) {
	confirmed := ConfirmedPosition[BlockId](BlockId{Height: 5, Hash: mkHash('A')})
	unconfirmed := UnconfirmedPosition[BlockId](1234)

	if !confirmed.IsConfirmed() {
		t.Error("expected Confirmed")
	}
	if unconfirmed.IsConfirmed() {
		t.Error("expected Unconfirmed")
	}

	if _, ok := confirmed.LastSeen(); ok {
		t.Error("Confirmed position should not report LastSeen")
	}
	if lastSeen, ok := unconfirmed.LastSeen(); !ok || lastSeen != 1234 {
		t.Errorf("got (%d, %v), want (1234, true)", lastSeen, ok)
	}
}

func TestChainPosition_Less(t *testing.T) {
	unconfirmed := UnconfirmedPosition[BlockId](5)
	confirmed := ConfirmedPosition[BlockId](BlockId{Height: 1, Hash: mkHash('A')})

	if !unconfirmed.Less(confirmed) {
		t.Error("Unconfirmed should be Less than Confirmed")
	}
	if confirmed.Less(unconfirmed) {
		t.Error("Confirmed should not be Less than Unconfirmed")
	}

	lower := ConfirmedPosition[BlockId](BlockId{Height: 1, Hash: mkHash('A')})
	higher := ConfirmedPosition[BlockId](BlockId{Height: 2, Hash: mkHash('A')})
	if !lower.Less(higher) {
		t.Error("lower height should be Less")
	}

	a := ConfirmedPosition[BlockId](BlockId{Height: 1, Hash: mkHash('A')})
	b := ConfirmedPosition[BlockId](BlockId{Height: 1, Hash: mkHash('B')})
	if !a.Less(b) {
		t.Error("at equal height, should break tie by hash")
	}
}
