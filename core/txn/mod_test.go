package txn

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/crypto"
)

func TestNewArg(t *testing.T) {
	arg := NewArg(KindArg, InitKind)
	require.Equal(t, Arg{Key: KindArg, Value: []byte("init")}, arg)
}

func TestUint64Of(t *testing.T) {
	tx := fakeTx{args: map[string][]byte{}}

	value, err := Uint64Of(tx, AmountArg)
	require.NoError(t, err)
	require.Equal(t, uint64(0), value)

	arg := NewUint64Arg(AmountArg, 42)
	tx.args[arg.Key] = arg.Value

	value, err = Uint64Of(tx, AmountArg)
	require.NoError(t, err)
	require.Equal(t, uint64(42), value)

	tx.args[EnergyArg] = []byte{1, 2}
	_, err = Uint64Of(tx, EnergyArg)
	require.EqualError(t, err, "argument 'piggybank.Energy' has invalid length 2")
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeTx struct {
	args map[string][]byte
}

func (tx fakeTx) Fingerprint(io.Writer) error {
	return nil
}

func (tx fakeTx) GetID() []byte {
	return nil
}

func (tx fakeTx) GetNonce() uint64 {
	return 0
}

func (tx fakeTx) GetIdentity() access.Identity {
	return nil
}

func (tx fakeTx) GetPublicKey() crypto.PublicKey {
	return nil
}

func (tx fakeTx) GetSignature() crypto.Signature {
	return nil
}

func (tx fakeTx) GetArg(key string) []byte {
	return tx.args[key]
}
