package chainindex

import (
	"fmt"

	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// BlockId identifies a single block by height and hash.
type BlockId struct {
	Height uint32
	Hash   types.Hash
}

// String renders "height:hash" for logs and error messages.
func (b BlockId) String() string {
	return fmt.Sprintf("%d:%s", b.Height, b.Hash)
}

// AnchorBlock implements Anchor: a BlockId anchors itself.
func (b BlockId) AnchorBlock() BlockId {
	return b
}

// ConfirmationHeightUpperBound implements Anchor: when a BlockId is used
// directly as an anchor, the confirmation block and the anchor block are
// the same block.
func (b BlockId) ConfirmationHeightUpperBound() uint32 {
	return b.Height
}
