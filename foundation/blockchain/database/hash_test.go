package database_test

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

// hashWithZeros builds a hash with exactly the specified number of trailing
// zero bits.
func hashWithZeros(zeros uint) database.BlockHash {
	var h database.BlockHash
	for i := range h {
		h[i] = 0xFF
	}

	full := int(zeros / 8)
	for i := 0; i < full; i++ {
		h[len(h)-1-i] = 0x00
	}

	if full < len(h) {
		h[len(h)-1-full] = 0xFF << (zeros % 8)
	}

	return h
}

func Test_IsSolved(t *testing.T) {
	t.Log("Given the need to validate proof of work difficulty.")
	{
		for d := uint(0); d <= 32; d++ {
			h := hashWithZeros(d)

			if got := h.TrailingZeros(); got != d {
				t.Fatalf("\t%s\tShould count %d trailing zeros, got %d: %s", failed, d, got, h)
			}

			if !h.IsSolved(d) {
				t.Fatalf("\t%s\tShould solve difficulty %d: %s", failed, d, h)
			}

			if h.IsSolved(d + 1) {
				t.Fatalf("\t%s\tShould not solve difficulty %d: %s", failed, d+1, h)
			}
		}
		t.Logf("\t%s\tShould solve exactly the engineered difficulty for 0 through 32.", success)
	}
}

func Test_TrailingZerosStopsAtFirstNonZeroByte(t *testing.T) {
	var h database.BlockHash
	h[31] = 0x10 // 4 trailing zeros.
	h[30] = 0x00 // Never reached.

	if got := h.TrailingZeros(); got != 4 {
		t.Logf("got: %d", got)
		t.Logf("exp: %d", 4)
		t.Fatalf("Should stop scanning at the first non zero byte.")
	}

	var zero database.BlockHash
	if got := zero.TrailingZeros(); got != 256 {
		t.Logf("got: %d", got)
		t.Logf("exp: %d", 256)
		t.Fatalf("Should credit 8 bits for every zero byte.")
	}
}

func Test_ComputeHashLayout(t *testing.T) {
	prev := database.BlockHash{1, 2, 3}
	nonce := database.Nonce{Hi: 0x0102030405060708, Lo: 0x1112131415161718}

	var data []byte
	data = binary.BigEndian.AppendUint64(data, 7)
	data = append(data, prev[:]...)
	data = binary.BigEndian.AppendUint64(data, nonce.Hi)
	data = binary.BigEndian.AppendUint64(data, nonce.Lo)
	exp := database.BlockHash(sha256.Sum256(data))

	got := database.ComputeHash(7, prev, nonce, nil)
	if got != exp {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should hash height, prev hash and nonce in big endian order.")
	}

	block := database.NewBlock(7, prev, nonce, nil)
	if block.Hash() != exp {
		t.Fatalf("Should derive the block hash on construction.")
	}

	var pub database.PubKey
	pub[0] = 0x04
	tx := database.NewBlockReward(pub)

	data = append(data, 0, 0, 0, 1, byte(database.ActionBlockReward))
	data = append(data, pub[:]...)
	exp = database.BlockHash(sha256.Sum256(data))

	got = database.ComputeHash(7, prev, nonce, []database.Transaction{tx})
	if got != exp {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should append the transaction bytes after the nonce.")
	}
}

func Test_NonceBytes(t *testing.T) {
	n := database.Nonce{Hi: 1, Lo: 2}
	b := n.Bytes()

	if b[7] != 1 || b[15] != 2 {
		t.Fatalf("Should write the nonce most significant half first: %x", b)
	}

	if n.String() != "18446744073709551618" {
		t.Logf("got: %s", n.String())
		t.Fatalf("Should render the nonce as a 128 bit decimal.")
	}
}

func Test_Genesis(t *testing.T) {
	g := database.Genesis()

	if g.Height() != 0 {
		t.Fatalf("Should have a genesis height of 0, got %d", g.Height())
	}

	if !g.PrevHash().IsZero() {
		t.Fatalf("Should have a zero previous hash, got %s", g.PrevHash())
	}

	if g.Hash() != database.Genesis().Hash() {
		t.Fatalf("Should construct the same genesis block every time.")
	}
}
