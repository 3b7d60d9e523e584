// Package baseenc renders bytes as text using an alphabet whose usable size is
// a power of two. Each character carries floor(log2(len(alphabet))) bits of
// the input, most significant bit first. It is used to display hashes and keys
// and has no bearing on block validity.
package baseenc

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Alphabet is the default alphabet. It drops characters that are easy to
// confuse when read by people, which leaves 57 characters carrying 5 bits each.
const Alphabet = "ABCDEFGHIJKMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz123456789"

// Base64Alphabet is the standard base64 alphabet carrying 6 bits per character.
const Base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Set of errors returned by the package.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidAlphabet = errors.New("invalid alphabet")
)

// DecodeError reports the first character that could not be decoded.
type DecodeError struct {
	Pos  int
	Char rune
}

// Error implements the error interface.
func (de *DecodeError) Error() string {
	return fmt.Sprintf("invalid input: character %q at position %d", de.Char, de.Pos)
}

// Is allows errors.Is to match ErrInvalidInput.
func (de *DecodeError) Is(target error) bool {
	return target == ErrInvalidInput
}

// =============================================================================

// Encoding is a bit packing text encoding defined by an alphabet.
type Encoding struct {
	alphabet []rune
	index    map[rune]uint32
	bits     uint
}

// Default encodings.
var (
	Std    = MustNewEncoding(Alphabet)
	Base64 = MustNewEncoding(Base64Alphabet)
)

// NewEncoding constructs an encoding for the alphabet. The alphabet must hold
// between 2 and 511 unique characters so each character carries 1 to 8 bits.
func NewEncoding(alphabet string) (*Encoding, error) {
	runes := []rune(alphabet)
	if len(runes) < 2 || len(runes) > 511 {
		return nil, fmt.Errorf("length %d: %w", len(runes), ErrInvalidAlphabet)
	}

	index := make(map[rune]uint32, len(runes))
	for i, r := range runes {
		if _, exists := index[r]; exists {
			return nil, fmt.Errorf("duplicate character %q: %w", r, ErrInvalidAlphabet)
		}
		index[r] = uint32(i)
	}

	enc := Encoding{
		alphabet: runes,
		index:    index,
		bits:     uint(bits.Len(uint(len(runes)))) - 1,
	}

	return &enc, nil
}

// MustNewEncoding is like NewEncoding but panics if the alphabet is invalid.
func MustNewEncoding(alphabet string) *Encoding {
	enc, err := NewEncoding(alphabet)
	if err != nil {
		panic(err)
	}
	return enc
}

// EncodeToString encodes the data. A final partial chunk is padded with
// zero bits.
func (e *Encoding) EncodeToString(data []byte) string {
	mask := uint32(1)<<e.bits - 1

	var sb strings.Builder
	sb.Grow((len(data)*8 + int(e.bits) - 1) / int(e.bits))

	var buf uint32
	var n uint
	for _, b := range data {
		buf = buf<<8 | uint32(b)
		n += 8

		for n >= e.bits {
			n -= e.bits
			sb.WriteRune(e.alphabet[(buf>>n)&mask])
		}
		buf &= 1<<n - 1
	}

	if n > 0 {
		sb.WriteRune(e.alphabet[(buf<<(e.bits-n))&mask])
	}

	return sb.String()
}

// DecodeString decodes text produced by EncodeToString. Trailing bits that do
// not fill a byte are dropped. A character outside the usable part of the
// alphabet returns a *DecodeError.
func (e *Encoding) DecodeString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)*int(e.bits)/8)

	var buf uint32
	var n uint
	var pos int
	for _, r := range s {
		v, exists := e.index[r]
		if !exists || v>>e.bits != 0 {
			return nil, &DecodeError{Pos: pos, Char: r}
		}
		pos++

		buf = buf<<e.bits | v
		n += e.bits

		if n >= 8 {
			n -= 8
			out = append(out, byte(buf>>n))
			buf &= 1<<n - 1
		}
	}

	return out, nil
}

// =============================================================================

// Encode encodes the data with the default alphabet.
func Encode(data []byte) string {
	return Std.EncodeToString(data)
}

// Decode decodes text produced by Encode.
func Decode(s string) ([]byte, error) {
	return Std.DecodeString(s)
}
