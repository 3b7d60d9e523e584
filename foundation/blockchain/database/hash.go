package database

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
	"math/bits"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HashLength is the number of bytes in a block hash.
const HashLength = sha256.Size

// BlockHash represents the SHA-256 digest that identifies a block.
type BlockHash [HashLength]byte

// ZeroHash is the previous hash carried by the genesis block.
var ZeroHash BlockHash

// IsZero reports whether every byte of the hash is zero.
func (h BlockHash) IsZero() bool {
	return h == ZeroHash
}

// TrailingZeros counts the trailing zero bits of the hash. The scan starts at
// the last byte and stops at the first byte that is not entirely zero after
// crediting that byte's own trailing zeros.
func (h BlockHash) TrailingZeros() uint {
	var zeros uint
	for i := len(h) - 1; i >= 0; i-- {
		n := uint(bits.TrailingZeros8(h[i]))
		zeros += n

		if n != 8 {
			break
		}
	}

	return zeros
}

// IsSolved checks the hash meets the proof of work rules for the specified
// difficulty.
func (h BlockHash) IsSolved(difficulty uint) bool {
	return h.TrailingZeros() >= difficulty
}

// String returns the hex form of the hash for display.
func (h BlockHash) String() string {
	return hexutil.Encode(h[:])
}

// Short returns an abbreviated hex form of the hash for logging.
func (h BlockHash) Short() string {
	s := h.String()
	return s[:10] + ".." + s[len(s)-6:]
}

// =============================================================================

// Nonce is the 128 bit value varied by miners. Hi holds the most significant
// 64 bits.
type Nonce struct {
	Hi uint64
	Lo uint64
}

// Bytes returns the big endian representation of the nonce.
func (n Nonce) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], n.Hi)
	binary.BigEndian.PutUint64(b[8:], n.Lo)
	return b
}

// String returns the decimal form of the nonce.
func (n Nonce) String() string {
	b := n.Bytes()
	return new(big.Int).SetBytes(b[:]).String()
}

// =============================================================================

// ComputeHash derives a block hash from its fields. The layout is the big
// endian height, the raw previous hash, the big endian nonce and then the
// transaction bytes when there are transactions.
func ComputeHash(height uint64, prevHash BlockHash, nonce Nonce, trans []Transaction) BlockHash {
	h := sha256.New()

	var num [8]byte
	binary.BigEndian.PutUint64(num[:], height)
	h.Write(num[:])

	h.Write(prevHash[:])

	nb := nonce.Bytes()
	h.Write(nb[:])

	for _, tx := range trans {
		h.Write(tx.Bytes())
	}

	var hash BlockHash
	copy(hash[:], h.Sum(nil))
	return hash
}
