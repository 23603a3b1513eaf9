package bank

import (
	"encoding/binary"

	"go.dedis.ch/piggybank/core/execution"
	"golang.org/x/xerrors"
)

// State is the lifecycle of a piggy bank. Smashed is terminal.
type State byte

const (
	// Intact is the state of a piggy bank that accepts deposits.
	Intact State = iota

	// Smashed is the state of a piggy bank that has been emptied by its
	// owner.
	Smashed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Intact:
		return "Intact"
	case Smashed:
		return "Smashed"
	default:
		return "Unknown"
	}
}

// MarshalBinary implements encoding.BinaryMarshaler. The state is a single
// byte.
func (s State) MarshalBinary() ([]byte, error) {
	return []byte{byte(s)}, nil
}

// ParseState decodes the binary form of a state.
func ParseState(data []byte) (State, error) {
	if len(data) != 1 {
		return 0, xerrors.Errorf("invalid state length %d", len(data))
	}

	state := State(data[0])
	if state > Smashed {
		return 0, xerrors.Errorf("unknown state tag %d", data[0])
	}

	return state, nil
}

// SmashError is the reason a smash is refused.
//
// - implements execution.Rejection
type SmashError byte

const (
	// NotOwner is returned when the sender is not the owner of the piggy
	// bank.
	NotOwner SmashError = iota

	// AlreadySmashed is returned when the piggy bank is already smashed.
	AlreadySmashed

	// TransferError is returned when the balance cannot be transferred to
	// the owner.
	TransferError
)

// Error implements error.
func (e SmashError) Error() string {
	switch e {
	case NotOwner:
		return "NotOwner"
	case AlreadySmashed:
		return "AlreadySmashed"
	case TransferError:
		return "TransferError"
	default:
		return "Unknown"
	}
}

// Reason implements execution.Rejection. Errors are numbered from -1 in the
// order of declaration.
func (e SmashError) Reason() int32 {
	return -(int32(e) + 1)
}

// ReturnValue implements execution.Rejection. It returns the tag of the error.
func (e SmashError) ReturnValue() []byte {
	return []byte{byte(e)}
}

// SmashErrorOf returns the error of a rejected smash, or false if the result
// does not carry one.
func SmashErrorOf(res execution.Result) (SmashError, bool) {
	if res.Accepted || res.Reason >= 0 || res.Reason < TransferError.Reason() {
		return 0, false
	}

	return SmashError(-res.Reason - 1), true
}

// ViewResult is the content returned by the view entrypoint.
type ViewResult struct {
	Balance uint64
	State   State
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the balance in
// little-endian followed by the state.
func (v ViewResult) MarshalBinary() ([]byte, error) {
	data := make([]byte, 9)
	binary.LittleEndian.PutUint64(data, v.Balance)
	data[8] = byte(v.State)

	return data, nil
}

// ParseViewResult decodes the return value of the view entrypoint.
func ParseViewResult(data []byte) (ViewResult, error) {
	if len(data) != 9 {
		return ViewResult{}, xerrors.Errorf("invalid view length %d", len(data))
	}

	state, err := ParseState(data[8:])
	if err != nil {
		return ViewResult{}, xerrors.Errorf("invalid state: %v", err)
	}

	res := ViewResult{
		Balance: binary.LittleEndian.Uint64(data),
		State:   state,
	}

	return res, nil
}
