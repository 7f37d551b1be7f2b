package chainindex

import (
	"errors"
	"fmt"

	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// ErrMissingGenesis is returned when a LocalChain is constructed or mutated
// in a way that would leave it without a height-0 checkpoint.
var ErrMissingGenesis = errors.New("chainindex: chain has no genesis block")

// CannotConnectError is returned by a merge when the update cannot be
// unambiguously connected to the original chain: the two sides never agree
// on a block, or they agree at a height while the original holds a block
// above it that the update neither confirms nor invalidates.
// TryIncludeHeight is the height of the last original checkpoint the merge
// examined before giving up; the caller should add that height to the
// update before retrying.
type CannotConnectError struct {
	TryIncludeHeight uint32
}

func (e *CannotConnectError) Error() string {
	return fmt.Sprintf("chainindex: cannot connect update to original chain; retry including height %d", e.TryIncludeHeight)
}

// AlterCheckPointError is returned when an insert would overwrite or
// remove an existing checkpoint whose hash conflicts with the insert.
// Conflicting history is only ever rewritten through ApplyUpdate, where
// the merge proves which side wins; InsertBlock refuses.
type AlterCheckPointError struct {
	Height       uint32
	OriginalHash types.Hash
	UpdateHash   *types.Hash
}

func (e *AlterCheckPointError) Error() string {
	if e.UpdateHash == nil {
		return fmt.Sprintf("chainindex: cannot remove existing block %d (hash %s)", e.Height, e.OriginalHash)
	}
	return fmt.Sprintf("chainindex: cannot replace existing block %d (hash %s) with conflicting hash %s", e.Height, e.OriginalHash, e.UpdateHash)
}

// InconsistentBlocksError is returned by ApplyHeaderConnectedTo when the
// connecting-to block is neither the header's own block nor its parent and
// does not sit strictly below the parent's height (or the header is at
// height 0).
type InconsistentBlocksError struct {
	Header     BlockId
	ConnectsTo BlockId
}

func (e *InconsistentBlocksError) Error() string {
	return fmt.Sprintf("chainindex: header %s is inconsistent with connecting-to block %s", e.Header, e.ConnectsTo)
}

// ApplyHeaderError wraps the two ways applying a single header can fail.
type ApplyHeaderError struct {
	Inconsistent  *InconsistentBlocksError
	CannotConnect *CannotConnectError
}

func (e *ApplyHeaderError) Error() string {
	if e.Inconsistent != nil {
		return e.Inconsistent.Error()
	}
	return e.CannotConnect.Error()
}

func (e *ApplyHeaderError) Unwrap() error {
	if e.Inconsistent != nil {
		return e.Inconsistent
	}
	return e.CannotConnect
}
