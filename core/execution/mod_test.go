package execution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestReject(t *testing.T) {
	rej := Reject(-2, []byte{1})
	require.Equal(t, int32(-2), rej.Reason())
	require.Equal(t, []byte{1}, rej.ReturnValue())
	require.EqualError(t, rej, "rejected: -2")

	rej = Reject(0, nil)
	require.Equal(t, RejectUnspecified, rej.Reason())
	require.Nil(t, rej.ReturnValue())

	require.Equal(t, int32(math.MinInt32), ErrRejected.(Rejection).Reason())
	require.EqualError(t, ErrRejected, "rejected: unspecified")
}

func TestReasonName(t *testing.T) {
	require.Equal(t, "unspecified", ReasonName(RejectUnspecified))
	require.Equal(t, "parse error", ReasonName(RejectParse))
	require.Equal(t, "not payable", ReasonName(RejectNotPayable))
	require.Equal(t, "out of energy", ReasonName(RejectOutOfEnergy))
	require.Equal(t, "read only", ReasonName(RejectReadOnly))
	require.Equal(t, "-1", ReasonName(-1))
}

func TestResultOf(t *testing.T) {
	res := ResultOf([]byte{1, 2}, nil)
	require.Equal(t, Result{Accepted: true, ReturnValue: []byte{1, 2}}, res)

	res = ResultOf(nil, Reject(-3, []byte{2}))
	require.False(t, res.Accepted)
	require.Equal(t, int32(-3), res.Reason)
	require.Equal(t, []byte{2}, res.ReturnValue)
	require.Equal(t, "rejected: -3", res.Message)

	res = ResultOf([]byte{1}, xerrors.New("oops"))
	require.False(t, res.Accepted)
	require.Equal(t, RejectUnspecified, res.Reason)
	require.Nil(t, res.ReturnValue)
	require.Equal(t, "oops", res.Message)
}
