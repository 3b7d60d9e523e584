package database

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// PubKeyLength is the size of an uncompressed secp256k1 public key.
const PubKeyLength = 65

// PubKey represents the uncompressed public key of an account that can be
// credited with a block reward.
type PubKey [PubKeyLength]byte

// PublicKeyToPubKey converts the ecdsa public key to a PubKey value.
func PublicKeyToPubKey(pk ecdsa.PublicKey) PubKey {
	var pub PubKey
	copy(pub[:], crypto.FromECDSAPub(&pk))
	return pub
}

// ToPubKey converts a hex-encoded string to a PubKey and validates the
// string represents a point on the curve.
func ToPubKey(hex string) (PubKey, error) {
	data, err := hexutil.Decode(hex)
	if err != nil {
		return PubKey{}, err
	}

	if len(data) != PubKeyLength {
		return PubKey{}, errors.New("invalid public key length")
	}

	if _, err := crypto.UnmarshalPubkey(data); err != nil {
		return PubKey{}, err
	}

	var pub PubKey
	copy(pub[:], data)
	return pub, nil
}

// ECDSA returns the public key in its ecdsa form.
func (pk PubKey) ECDSA() (*ecdsa.PublicKey, error) {
	return crypto.UnmarshalPubkey(pk[:])
}

// String returns the hex form of the key.
func (pk PubKey) String() string {
	return hexutil.Encode(pk[:])
}
