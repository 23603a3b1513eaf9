// Package txn defines the abstraction of transactions.
//
// A transaction is a contract input. It is uniquely identifiable via a digest
// and it can be sorted with the nonce that acts as a sequence number. The
// transaction is also created by an account that pays for its execution.
//
// The manager helps to create transactions as the nonce needs to be correct for
// the transaction to be valid.
package txn

import (
	"encoding/binary"
	"io"

	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/crypto"
	"golang.org/x/xerrors"
)

// Keys of the arguments understood by the ledger.
const (
	// KindArg is the kind of the call, either InitKind or UpdateKind.
	KindArg = "piggybank.Kind"

	// ContractArg is the name of the contract to instantiate.
	ContractArg = "piggybank.Contract"

	// AddressArg is the index of the instance to call.
	AddressArg = "piggybank.Address"

	// EntrypointArg is the name of the entrypoint to call.
	EntrypointArg = "piggybank.Entrypoint"

	// ParameterArg is the parameter passed to the entrypoint.
	ParameterArg = "piggybank.Parameter"

	// AmountArg is the amount attached to the call.
	AmountArg = "piggybank.Amount"

	// EnergyArg is the maximum energy the call can use.
	EnergyArg = "piggybank.Energy"
)

// Kinds of call.
const (
	InitKind   = "init"
	UpdateKind = "update"
)

// Transaction is what triggers a contract execution by passing it as part of
// the input.
type Transaction interface {
	// Fingerprint writes a deterministic binary representation of the
	// transaction.
	Fingerprint(w io.Writer) error

	// GetID returns the unique identifier for the transaction.
	GetID() []byte

	// GetNonce returns the nonce of the transaction which corresponds to the
	// sequence number of a unique identity.
	GetNonce() uint64

	// GetIdentity returns the identity that created the transaction.
	GetIdentity() access.Identity

	// GetPublicKey returns the public key of the signer.
	GetPublicKey() crypto.PublicKey

	// GetSignature returns the signature of the transaction, or nil.
	GetSignature() crypto.Signature

	// GetArg is a getter for the arguments of the transaction.
	GetArg(key string) []byte
}

// Arg is a generic argument that can be stored in a transaction.
type Arg struct {
	Key   string
	Value []byte
}

// NewArg returns an argument made of a string value.
func NewArg(key, value string) Arg {
	return Arg{Key: key, Value: []byte(value)}
}

// NewUint64Arg returns an argument made of the little-endian encoding of the
// value.
func NewUint64Arg(key string, value uint64) Arg {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	return Arg{Key: key, Value: buffer}
}

// Uint64Of reads an argument encoded with NewUint64Arg. A missing argument is
// zero.
func Uint64Of(tx Transaction, key string) (uint64, error) {
	value := tx.GetArg(key)
	if len(value) == 0 {
		return 0, nil
	}

	if len(value) != 8 {
		return 0, xerrors.Errorf("argument '%s' has invalid length %d", key, len(value))
	}

	return binary.LittleEndian.Uint64(value), nil
}

// Manager is a manager to create transaction. It can help creating
// transactions when some information is required like the current nonce.
type Manager interface {
	Make(args ...Arg) (Transaction, error)

	Sync() error
}
