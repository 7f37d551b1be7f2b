package chainindex

import (
	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// CoinbaseMaturity is the number of confirmations a coinbase output must
// accumulate before it is spendable. The host supplies this; 100 is the
// conventional Bitcoin-like default.
var CoinbaseMaturity uint32 = 100

// debugAssertionsEnabled gates the same class of "this should be
// impossible" checks Rust's debug_assert! covers, without requiring a
// separate build configuration. Tests may flip it to observe the assertion
// path; production code leaves it at its default.
var debugAssertionsEnabled = true

// SpentBy records where a txout's spending transaction sits in the chain.
type SpentBy[A Anchor] struct {
	Position ChainPosition[A]
	Txid     types.Hash
}

// FullTxOut associates a transaction output with its chain position and,
// if spent, the position and identity of the spending transaction.
type FullTxOut[A Anchor] struct {
	Outpoint      types.Outpoint
	TxOut         types.TxOut
	ChainPosition ChainPosition[A]
	SpentBy       *SpentBy[A]
	IsOnCoinbase  bool
}

// IsMature reports whether this output is old enough to spend, given the
// current chain tip height. Non-coinbase outputs are always mature.
//
// A coinbase output can never be Unconfirmed — if it somehow is, that is a
// caller bug: IsMature panics when debugAssertionsEnabled is set, and
// otherwise reports false.
func (o FullTxOut[A]) IsMature(tip uint32) bool {
	if !o.IsOnCoinbase {
		return true
	}
	txHeight, confirmed := o.ChainPosition.ConfirmationHeightUpperBound()
	if !confirmed {
		if debugAssertionsEnabled {
			panic("chainindex: coinbase output is unconfirmed")
		}
		return false
	}
	age := saturatingSub(tip, txHeight)
	return age+1 >= CoinbaseMaturity
}

// IsConfirmedAndSpendable reports whether this output is mature, confirmed
// at or before tip, unspent (or its spend is not yet confirmed at or
// before tip). It does not evaluate any output-specific relative-time
// lock: the upper-bound nature of confirmation heights means this can
// return a false negative but never a false positive.
func (o FullTxOut[A]) IsConfirmedAndSpendable(tip uint32) bool {
	if !o.IsMature(tip) {
		return false
	}
	confirmationHeight, confirmed := o.ChainPosition.ConfirmationHeightUpperBound()
	if !confirmed {
		return false
	}
	if confirmationHeight > tip {
		return false
	}
	if o.SpentBy != nil {
		if spendingHeight, ok := o.SpentBy.Position.ConfirmationHeightUpperBound(); ok {
			if spendingHeight <= tip {
				return false
			}
		}
	}
	return true
}

// saturatingSub returns a-b, floored at 0.
func saturatingSub(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}
