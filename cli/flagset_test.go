package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlagSet_String(t *testing.T) {
	fset := FlagSet{"sender": "alice", "contract": 2}

	require.Equal(t, "alice", fset.String("sender"))
	require.Equal(t, "", fset.String("contract"))
	require.Equal(t, "", fset.String("unknown"))
}

func TestFlagSet_Path(t *testing.T) {
	fset := FlagSet{"config": "/tmp/piggybank", "driver": 123}

	require.Equal(t, "/tmp/piggybank", fset.Path("config"))
	require.Equal(t, "", fset.Path("driver"))
}

func TestFlagSet_Uint64(t *testing.T) {
	fset := FlagSet{
		"amount":   uint64(42),
		"contract": 7,
		"energy":   -7,
		"balance":  "oops",
	}

	require.Equal(t, uint64(42), fset.Uint64("amount"))
	require.Equal(t, uint64(7), fset.Uint64("contract"))
	require.Equal(t, uint64(0), fset.Uint64("energy"))
	require.Equal(t, uint64(0), fset.Uint64("balance"))
	require.Equal(t, uint64(0), fset.Uint64("unknown"))
}

func TestFlagSet_Bool(t *testing.T) {
	fset := FlagSet{"tracing": true, "verbose": "oops"}

	require.True(t, fset.Bool("tracing"))
	require.False(t, fset.Bool("verbose"))
	require.False(t, fset.Bool("unknown"))
}
