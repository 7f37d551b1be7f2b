// Package crypto provides the hashing primitive backing BlockHeader.BlockHash.
//
// The chain index itself never hashes anything — cryptographic hashing is a
// host concern (see pkg/chainindex's doc comment). This package exists so
// pkg/chainheader has a concrete, testable BlockHash implementation to
// exercise the index against.
package crypto

import (
	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}
