// Package chainindex maintains a process-local view of the best chain for a
// Bitcoin-like proof-of-work blockchain, as an append-and-reorganize-able
// sequence of (height, block hash) checkpoints.
//
// It does not verify proof-of-work, choose between competing chains by
// cumulative work, parse headers, hash anything, store blocks or
// transactions, or touch the network — those are host concerns. What it
// does is answer one question precisely: given the chain the host currently
// believes in and a candidate update, what is the minimal, unambiguous set
// of changes needed to adopt it (or why can't we tell)?
//
// LocalChain is the mutable entry point; CheckPoint is the persistent,
// shared-ownership linked list backing it; ChangeSet is both the output of
// a merge and the unit of persistence. ChainPosition and FullTxOut build on
// top of an Anchor to classify where a transaction or output sits relative
// to the current tip.
//
// Callers serialize their own mutations — a LocalChain is not safe for
// concurrent writers, though cloned CheckPoint handles may be read from any
// number of goroutines independently of further mutation.
package chainindex
