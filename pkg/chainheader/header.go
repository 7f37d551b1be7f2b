// Package chainheader defines the block header type consumed by
// pkg/chainindex. In a full node this would be provided by a consensus or
// wire package (e.g. btcd's wire.BlockHeader); it lives here, adapted from
// Klingnet's own block header, so the index has a concrete, hashable header
// to exercise chainindex.FromHeader and LocalChain.ApplyHeader against.
package chainheader

import (
	"encoding/binary"

	"github.com/klingnet-tech/klingnet-chainindex/pkg/crypto"
	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// BlockHeader contains the block metadata needed to link a block to its
// parent and to compute its own hash. It intentionally does not carry its
// own height — the chain index always takes height as an explicit
// parameter, since a header alone can't disambiguate a reorg'd height from
// an extension of it.
type BlockHeader struct {
	Version    uint32
	Prev       types.Hash
	MerkleRoot types.Hash
	Timestamp  uint64
	Nonce      uint64
}

// BlockHash computes the header's hash. Excludes nothing mutable after
// construction, so it is stable for use as a map key.
func (h *BlockHeader) BlockHash() types.Hash {
	return crypto.Hash(h.signingBytes())
}

// PrevBlockHash returns the hash of the block this header extends.
func (h *BlockHeader) PrevBlockHash() types.Hash {
	return h.Prev
}

// signingBytes returns the canonical byte encoding hashed to produce the
// block hash: version(4) | prev_hash(32) | merkle_root(32) | timestamp(8) | nonce(8).
func (h *BlockHeader) signingBytes() []byte {
	buf := make([]byte, 0, 84)
	buf = binary.LittleEndian.AppendUint32(buf, h.Version)
	buf = append(buf, h.Prev[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Timestamp)
	buf = binary.LittleEndian.AppendUint64(buf, h.Nonce)
	return buf
}
