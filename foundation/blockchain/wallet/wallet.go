// Package wallet provides key management and message signing for accounts
// that receive block rewards. Nothing in block validation depends on it.
package wallet

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// blocksimID is an arbitrary number added to the recovery id of every
// signature. Ethereum and Bitcoin do this as well, but they use 27.
const blocksimID = 29

// maxGenerateAttempts bounds how many random scalars are drawn looking for a
// valid private key.
const maxGenerateAttempts = 16

// Set of errors returned by the wallet support.
var (
	ErrKeyGeneration    = errors.New("unable to generate a valid private key")
	ErrInvalidSignature = errors.New("invalid signature")
)

// =============================================================================

// Context holds what wallet operations need from the process. Callers
// construct one and pass it where keys are generated or messages are signed.
type Context struct {
	random io.Reader
}

// NewContext constructs a signing context. A nil reader uses the operating
// system's secure random source.
func NewContext(random io.Reader) *Context {
	if random == nil {
		random = rand.Reader
	}

	return &Context{
		random: random,
	}
}

// Generate creates a wallet with a new secp256k1 private key.
func (c *Context) Generate() (Wallet, error) {
	seed := make([]byte, 32)

	for range maxGenerateAttempts {
		if _, err := io.ReadFull(c.random, seed); err != nil {
			return Wallet{}, fmt.Errorf("reading random seed: %w", err)
		}

		// Scalars of zero or beyond the curve order are rejected, draw again.
		privateKey, err := crypto.ToECDSA(seed)
		if err != nil {
			continue
		}

		return Wallet{privateKey: privateKey}, nil
	}

	return Wallet{}, ErrKeyGeneration
}

// Load reads a hex encoded private key from the specified file.
func (c *Context) Load(path string) (Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return Wallet{}, fmt.Errorf("loading key: %w", err)
	}

	return Wallet{privateKey: privateKey}, nil
}

// FromHex constructs a wallet from a hex encoded private key.
func (c *Context) FromHex(hexKey string) (Wallet, error) {
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return Wallet{}, fmt.Errorf("decoding key: %w", err)
	}

	return Wallet{privateKey: privateKey}, nil
}

// Sign produces a 65 byte [R|S|V] signature over the data with the blocksim
// id added to V.
func (c *Context) Sign(w Wallet, data []byte) ([]byte, error) {
	if w.privateKey == nil {
		return nil, errors.New("wallet has no private key")
	}

	hash := stamp(data)

	sig, err := crypto.Sign(hash, w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}

	sig[crypto.RecoveryIDOffset] += blocksimID

	return sig, nil
}

// Verify checks the signature over the data was produced by the private key
// behind the specified public key.
func (c *Context) Verify(pub database.PubKey, data []byte, sig []byte) error {
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("length %d: %w", len(sig), ErrInvalidSignature)
	}

	// Check the recovery id is either 0 or 1.
	v := sig[crypto.RecoveryIDOffset] - blocksimID
	if v != 0 && v != 1 {
		return fmt.Errorf("recovery id %d: %w", sig[crypto.RecoveryIDOffset], ErrInvalidSignature)
	}

	hash := stamp(data)

	raw := make([]byte, crypto.SignatureLength)
	copy(raw, sig)
	raw[crypto.RecoveryIDOffset] = v

	recovered, err := crypto.SigToPub(hash, raw)
	if err != nil {
		return fmt.Errorf("recovering key: %s: %w", err, ErrInvalidSignature)
	}

	if database.PublicKeyToPubKey(*recovered) != pub {
		return fmt.Errorf("signer mismatch: %w", ErrInvalidSignature)
	}

	if !crypto.VerifySignature(pub[:], hash, raw[:crypto.RecoveryIDOffset]) {
		return ErrInvalidSignature
	}

	return nil
}

// SignatureString returns the signature as a hex string.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// =============================================================================

// Wallet holds a single private key.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
}

// PubKey returns the uncompressed public key used as a reward receiver.
func (w Wallet) PubKey() database.PubKey {
	return database.PublicKeyToPubKey(w.privateKey.PublicKey)
}

// Address returns the ethereum style address for the public key.
func (w Wallet) Address() string {
	return crypto.PubkeyToAddress(w.privateKey.PublicKey).Hex()
}

// HexKey returns the private key hex encoded without a prefix.
func (w Wallet) HexKey() string {
	return fmt.Sprintf("%x", crypto.FromECDSA(w.privateKey))
}

// Save writes the private key hex encoded to the specified file.
func (w Wallet) Save(path string) error {
	if err := crypto.SaveECDSA(path, w.privateKey); err != nil {
		return fmt.Errorf("saving key: %w", err)
	}
	return nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the data with the
// blocksim stamp embedded into the final hash.
func stamp(data []byte) []byte {
	dataHash := crypto.Keccak256(data)

	stamp := []byte("\x19Blocksim Signed Message:\n32")

	return crypto.Keccak256(stamp, dataHash)
}
