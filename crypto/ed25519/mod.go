// Package ed25519 signs the transactions of the ledger with Schnorr signatures
// over the Ed25519 curve of kyber.
//
// An account is identified by the digest of the binary form of its public
// key, and a signer is saved on disk as the binary form of its scalar.
package ed25519

import (
	"bytes"
	"encoding/hex"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"go.dedis.ch/kyber/v3/suites"
	"go.dedis.ch/kyber/v3/util/key"
	"go.dedis.ch/piggybank/crypto"
	"golang.org/x/xerrors"
)

// textPrefix starts the text form of a public key.
const textPrefix = "ed25519:"

// shortLen is the number of bytes of a public key shown by String.
const shortLen = 8

var suite = suites.MustFind("Ed25519")

// PublicKey is the key that verifies the signatures of an account.
//
// - implements crypto.PublicKey
type PublicKey struct {
	point kyber.Point
}

// NewPublicKey decodes a public key from its binary form.
func NewPublicKey(data []byte) (PublicKey, error) {
	point := suite.Point()

	err := point.UnmarshalBinary(data)
	if err != nil {
		return PublicKey{}, xerrors.Errorf("invalid point: %v", err)
	}

	return PublicKey{point: point}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return pk.point.MarshalBinary()
}

// MarshalText implements encoding.TextMarshaler. The key is written in
// hexadecimal after the curve prefix.
func (pk PublicKey) MarshalText() ([]byte, error) {
	data, err := pk.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal point: %v", err)
	}

	return []byte(textPrefix + hex.EncodeToString(data)), nil
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	data, err := pk.MarshalBinary()
	if err != nil || len(data) < shortLen {
		return textPrefix + "?"
	}

	return textPrefix + hex.EncodeToString(data[:shortLen])
}

// Verify implements crypto.PublicKey. Only signatures of this package are
// accepted.
func (pk PublicKey) Verify(msg []byte, sig crypto.Signature) error {
	signature, ok := sig.(Signature)
	if !ok {
		return xerrors.Errorf("unsupported signature '%T'", sig)
	}

	err := schnorr.Verify(suite, pk.point, msg, signature.data)
	if err != nil {
		return xerrors.Errorf("schnorr: %v", err)
	}

	return nil
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	otherKey, ok := other.(PublicKey)

	return ok && otherKey.point.Equal(pk.point)
}

// Signature is the Schnorr signature of a transaction identifier.
//
// - implements crypto.Signature
type Signature struct {
	data []byte
}

// NewSignature wraps the binary form of a signature.
func NewSignature(data []byte) Signature {
	return Signature{data: data}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (sig Signature) MarshalBinary() ([]byte, error) {
	return sig.data, nil
}

// Equal implements crypto.Signature.
func (sig Signature) Equal(other crypto.Signature) bool {
	otherSig, ok := other.(Signature)

	return ok && bytes.Equal(sig.data, otherSig.data)
}

// Signer holds the key pair of an account.
//
// - implements crypto.Signer
type Signer struct {
	pair *key.Pair
}

// NewSigner generates a signer with a random key pair.
func NewSigner() Signer {
	return Signer{pair: key.NewKeyPair(suite)}
}

// NewSignerFromBytes restores a signer from the key file content produced by
// MarshalBinary.
func NewSignerFromBytes(data []byte) (Signer, error) {
	scalar := suite.Scalar()

	err := scalar.UnmarshalBinary(data)
	if err != nil {
		return Signer{}, xerrors.Errorf("invalid scalar: %v", err)
	}

	pair := &key.Pair{
		Private: scalar,
		Public:  suite.Point().Mul(scalar, nil),
	}

	return Signer{pair: pair}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the private
// scalar.
func (s Signer) MarshalBinary() ([]byte, error) {
	return s.pair.Private.MarshalBinary()
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return PublicKey{point: s.pair.Public}
}

// Sign implements crypto.Signer.
func (s Signer) Sign(msg []byte) (crypto.Signature, error) {
	data, err := schnorr.Sign(suite, s.pair.Private, msg)
	if err != nil {
		return nil, xerrors.Errorf("schnorr: %v", err)
	}

	return Signature{data: data}, nil
}
