// Package access defines the identities known by the ledger: accounts, which
// are fixed-width addresses derived from a public key, and contract instances.
//
// A call is always sent by an Address, which is either an account or a
// contract. Only accounts can own a contract instance.
package access

import (
	"bytes"
	"crypto/sha256"
	"encoding"
	"encoding/hex"
	"fmt"

	"golang.org/x/xerrors"
)

// AccountAddressLength is the size in bytes of an account address.
const AccountAddressLength = 32

// Identity is an abstraction to uniquely identify a signer.
type Identity interface {
	encoding.TextMarshaler
}

// AccountAddress is the address of an account on the ledger.
//
// - implements access.Identity
type AccountAddress [AccountAddressLength]byte

// NewAccountAddress returns the account address made of the given bytes. The
// length must match exactly.
func NewAccountAddress(data []byte) (AccountAddress, error) {
	var addr AccountAddress

	if len(data) != AccountAddressLength {
		return addr, xerrors.Errorf("invalid address length: %d != %d",
			len(data), AccountAddressLength)
	}

	copy(addr[:], data)

	return addr, nil
}

// AccountOf derives the account address of a public key. It is the SHA-256
// digest of its binary form.
func AccountOf(key encoding.BinaryMarshaler) (AccountAddress, error) {
	data, err := key.MarshalBinary()
	if err != nil {
		return AccountAddress{}, xerrors.Errorf("failed to marshal key: %v", err)
	}

	return AccountAddress(sha256.Sum256(data)), nil
}

// ParseAccountAddress parses the hexadecimal representation of an address.
func ParseAccountAddress(text string) (AccountAddress, error) {
	data, err := hex.DecodeString(text)
	if err != nil {
		return AccountAddress{}, xerrors.Errorf("malformed address: %v", err)
	}

	return NewAccountAddress(data)
}

// Equal returns true when both addresses are the same byte-for-byte.
func (a AccountAddress) Equal(other AccountAddress) bool {
	return bytes.Equal(a[:], other[:])
}

// MarshalText implements encoding.TextMarshaler. It returns the hexadecimal
// representation of the address.
func (a AccountAddress) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(a[:])), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountAddress) UnmarshalText(text []byte) error {
	addr, err := ParseAccountAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}

// String implements fmt.Stringer. It returns a short form of the address.
func (a AccountAddress) String() string {
	return fmt.Sprintf("account:%x", a[:8])
}

// ContractAddress is the address of a contract instance.
type ContractAddress struct {
	Index    uint64
	Subindex uint64
}

// String implements fmt.Stringer.
func (c ContractAddress) String() string {
	return fmt.Sprintf("<%d,%d>", c.Index, c.Subindex)
}

// AddressKind tells which variant an address holds.
type AddressKind byte

const (
	// AccountKind is the kind of an address that is an account.
	AccountKind AddressKind = iota

	// ContractKind is the kind of an address that is a contract instance.
	ContractKind
)

// Address is either an account or a contract instance. It is the type of the
// sender of a call.
type Address struct {
	kind     AddressKind
	account  AccountAddress
	contract ContractAddress
}

// NewAccountSender returns an address that is the given account.
func NewAccountSender(addr AccountAddress) Address {
	return Address{kind: AccountKind, account: addr}
}

// NewContractSender returns an address that is the given contract instance.
func NewContractSender(addr ContractAddress) Address {
	return Address{kind: ContractKind, contract: addr}
}

// Kind returns the variant of the address.
func (a Address) Kind() AddressKind {
	return a.kind
}

// Account returns the account address and true if the address is an account.
func (a Address) Account() (AccountAddress, bool) {
	return a.account, a.kind == AccountKind
}

// Contract returns the contract address and true if the address is a contract
// instance.
func (a Address) Contract() (ContractAddress, bool) {
	return a.contract, a.kind == ContractKind
}

// MatchesAccount returns true if the address is an account with exactly the
// same bytes as the given one. A contract never matches an account even if
// the bytes of its index would.
func (a Address) MatchesAccount(addr AccountAddress) bool {
	return a.kind == AccountKind && a.account.Equal(addr)
}

// String implements fmt.Stringer.
func (a Address) String() string {
	if a.kind == ContractKind {
		return "contract:" + a.contract.String()
	}

	return a.account.String()
}
