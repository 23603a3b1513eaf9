// Package execution defines the boundary between a contract and the host that
// runs it.
//
// A contract never touches the ledger directly. It reads the identities of the
// call from a Context and reaches its balance, its state and the transfer
// primitive through a Host. A call ends with a Result that is either accepted
// or rejected with a reason code and an optional return value.
package execution

import (
	"fmt"
	"math"

	"go.dedis.ch/piggybank/core/access"
	"golang.org/x/xerrors"
)

// Reject reasons reserved by the host. Contracts use negative codes starting
// at -1 for their own errors.
const (
	// RejectUnspecified is the reason of a rejection without any detail.
	RejectUnspecified int32 = math.MinInt32 + iota

	// RejectParse is the reason when the parameter cannot be decoded.
	RejectParse

	// RejectNotPayable is the reason when an amount is sent to an entrypoint
	// that does not accept any.
	RejectNotPayable

	// RejectOutOfEnergy is the reason when the call exceeds its energy limit.
	RejectOutOfEnergy

	// RejectReadOnly is the reason when a read-only entrypoint tries to
	// update the state.
	RejectReadOnly
)

// Context gives the identities involved in the current call.
type Context interface {
	// Owner returns the account that initialized the instance.
	Owner() access.AccountAddress

	// Sender returns the immediate sender of the call, which is an account or
	// a contract.
	Sender() access.Address

	// Invoker returns the account that signed the transaction.
	Invoker() access.AccountAddress

	// Self returns the address of the instance being called.
	Self() access.ContractAddress
}

// Host is the set of primitives the ledger offers to a running contract.
type Host interface {
	// State returns the persisted state of the instance.
	State() ([]byte, error)

	// SetState replaces the persisted state of the instance.
	SetState(data []byte) error

	// SelfBalance returns the balance of the instance, including the amount
	// attached to the current call.
	SelfBalance() uint64

	// Transfer moves the amount from the instance to the account.
	Transfer(to access.AccountAddress, amount uint64) error
}

// Step is the input of an entrypoint call.
type Step struct {
	Entrypoint string
	Amount     uint64
	Parameter  []byte
	Context    Context
}

// Result is the result of a contract execution.
type Result struct {
	// Accepted is the success state of the call.
	Accepted bool

	// Message gives a chance to the execution to explain why a call has
	// failed.
	Message string

	// Reason is the reject reason of a refused call. It is zero when the call
	// is accepted.
	Reason int32

	// ReturnValue is the data returned by the entrypoint, either the result
	// of an accepted call or the error payload of a rejected one.
	ReturnValue []byte
}

// Accept returns an accepted result with the return value.
func Accept(value []byte) Result {
	return Result{
		Accepted:    true,
		ReturnValue: value,
	}
}

// Rejection is an error that carries a reject reason and a return value.
type Rejection interface {
	error

	// Reason returns the reject reason code, which is never zero.
	Reason() int32

	// ReturnValue returns the payload of the rejection, or nil.
	ReturnValue() []byte
}

// rejection is the default implementation of a rejection.
//
// - implements execution.Rejection
type rejection struct {
	code  int32
	value []byte
}

// ErrRejected is the generic rejection, without any payload.
var ErrRejected = Reject(RejectUnspecified, nil)

// Reject returns a rejection with the code and the return value. A zero code
// is replaced by RejectUnspecified.
func Reject(code int32, value []byte) Rejection {
	if code == 0 {
		code = RejectUnspecified
	}

	return rejection{code: code, value: value}
}

// Reason implements execution.Rejection.
func (r rejection) Reason() int32 {
	return r.code
}

// ReturnValue implements execution.Rejection.
func (r rejection) ReturnValue() []byte {
	return r.value
}

// Error implements error. It returns a human readable name of the reason.
func (r rejection) Error() string {
	return fmt.Sprintf("rejected: %s", ReasonName(r.code))
}

// ReasonName returns the name of a host reject reason, or the code itself for
// contract reasons.
func ReasonName(code int32) string {
	switch code {
	case RejectUnspecified:
		return "unspecified"
	case RejectParse:
		return "parse error"
	case RejectNotPayable:
		return "not payable"
	case RejectOutOfEnergy:
		return "out of energy"
	case RejectReadOnly:
		return "read only"
	default:
		return fmt.Sprintf("%d", code)
	}
}

// ResultOf converts the outcome of an entrypoint into a result. A nil error
// accepts the call. A rejection keeps its reason and return value, and any
// other error is an unspecified rejection.
func ResultOf(value []byte, err error) Result {
	if err == nil {
		return Accept(value)
	}

	res := Result{
		Accepted: false,
		Message:  err.Error(),
		Reason:   RejectUnspecified,
	}

	var rej Rejection
	if xerrors.As(err, &rej) {
		res.Reason = rej.Reason()
		res.ReturnValue = rej.ReturnValue()
	}

	return res
}
