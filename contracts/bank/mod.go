// Package bank implements a piggy bank as a native contract.
//
// Anyone can insert an amount into an intact piggy bank. The owner, the
// account that created the instance, can smash it once to get the whole
// balance back. After that the piggy bank refuses any deposit and any other
// smash.
package bank

import (
	"go.dedis.ch/piggybank"
	"go.dedis.ch/piggybank/core/execution"
	"go.dedis.ch/piggybank/core/execution/native"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "piggybank"

	// ContractUID is the unique identifier of the contract.
	ContractUID = "PIGB"
)

// Names of the entrypoints.
const (
	InsertEntrypoint = "insert"
	SmashEntrypoint  = "smash"
	ViewEntrypoint   = "view"
)

// RegisterContract registers the piggy bank contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the adapter of the piggy bank to the native execution.
//
// - implements native.Contract
type Contract struct{}

// NewContract creates a new piggy bank contract.
func NewContract() Contract {
	return Contract{}
}

// UID implements native.Contract.
func (c Contract) UID() string {
	return ContractUID
}

// Init implements native.Contract. It writes the state of a new piggy bank.
func (c Contract) Init(ctx execution.Context, host execution.Host) error {
	data, _ := Init().MarshalBinary()

	err := host.SetState(data)
	if err != nil {
		return xerrors.Errorf("failed to write state: %v", err)
	}

	piggybank.Logger.Info().
		Str("contract", ContractName).
		Stringer("owner", ctx.Owner()).
		Msg("piggy bank created")

	return nil
}

// Entrypoints implements native.Contract.
func (c Contract) Entrypoints() []native.Entrypoint {
	return []native.Entrypoint{
		{
			Name:    InsertEntrypoint,
			Payable: true,
			Handler: c.insert,
		},
		{
			Name:    SmashEntrypoint,
			Mutable: true,
			Handler: c.smash,
		},
		{
			Name:    ViewEntrypoint,
			Handler: c.view,
		},
	}
}

func (c Contract) insert(step execution.Step, host execution.Host) ([]byte, error) {
	state, err := readState(host)
	if err != nil {
		return nil, err
	}

	err = Insert(state)
	if err != nil {
		return nil, err
	}

	piggybank.Logger.Debug().
		Str("contract", ContractName).
		Stringer("sender", step.Context.Sender()).
		Uint64("amount", step.Amount).
		Msg("inserted")

	return nil, nil
}

func (c Contract) smash(step execution.Step, host execution.Host) ([]byte, error) {
	state, err := readState(host)
	if err != nil {
		return nil, err
	}

	effect, err := Smash(step.Context.Sender(), step.Context.Owner(), state, host.SelfBalance())
	if err != nil {
		return nil, err
	}

	data, _ := effect.State.MarshalBinary()

	err = host.SetState(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to write state: %v", err)
	}

	err = host.Transfer(effect.Transfer.To, effect.Transfer.Amount)
	if err != nil {
		piggybank.Logger.Warn().Err(err).
			Str("contract", ContractName).
			Msg("transfer to the owner failed")

		return nil, TransferError
	}

	piggybank.Logger.Info().
		Str("contract", ContractName).
		Stringer("owner", effect.Transfer.To).
		Uint64("amount", effect.Transfer.Amount).
		Msg("smashed")

	return nil, nil
}

func (c Contract) view(step execution.Step, host execution.Host) ([]byte, error) {
	state, err := readState(host)
	if err != nil {
		return nil, err
	}

	return View(state, host.SelfBalance()).MarshalBinary()
}

func readState(host execution.Host) (State, error) {
	data, err := host.State()
	if err != nil {
		return 0, xerrors.Errorf("failed to read state: %v", err)
	}

	state, err := ParseState(data)
	if err != nil {
		return 0, xerrors.Errorf("invalid state: %v", err)
	}

	return state, nil
}
