// Package native implements an execution service to run native smart contracts.
//
// A native smart contract is written in Go and packaged with the application.
// It declares an initialization function and a list of entrypoints. The
// service dispatches the calls and enforces the attributes of the entrypoints
// before the contract code runs.
package native

import (
	"sort"

	"go.dedis.ch/piggybank"
	"go.dedis.ch/piggybank/core/execution"
	"golang.org/x/xerrors"
)

// Handler is the function executed when an entrypoint is called. It returns
// the return value of the call, or an error to reject it.
type Handler func(step execution.Step, host execution.Host) ([]byte, error)

// Entrypoint describes a function of a contract that can be called.
type Entrypoint struct {
	Name string

	// Payable entrypoints accept an amount attached to the call.
	Payable bool

	// Mutable entrypoints are allowed to update the state of the instance.
	Mutable bool

	Handler Handler
}

// Contract is the interface to implement to register a smart contract that will
// be executed natively.
type Contract interface {
	// Init initializes the state of a new instance.
	Init(ctx execution.Context, host execution.Host) error

	// Entrypoints returns the functions that can be called on an instance.
	Entrypoints() []Entrypoint

	// UID returns the 4-byte unique identifier of the contract.
	UID() string
}

type registered struct {
	contract    Contract
	entrypoints map[string]Entrypoint
}

// Service is an execution service for packaged applications.
type Service struct {
	contracts    map[string]registered
	contractUIDs map[string]struct{}
}

// NewExecution returns a new native execution.
func NewExecution() *Service {
	return &Service{
		contracts:    map[string]registered{},
		contractUIDs: map[string]struct{}{},
	}
}

// Set stores the contract using the name as the key. A transaction can create
// an instance of this contract by using the same name.
func (ns *Service) Set(name string, contract Contract) {
	// Check if the contract is already registered
	if _, ok := ns.contracts[name]; ok {
		panic(xerrors.Errorf("contract '%s' already registered", name))
	}

	uid := contract.UID()

	// UIDs are expected to be 4 bytes long, always.
	if len(uid) != 4 {
		panic(xerrors.Errorf("contract UID '%x' for '%s' is not 4 bytes long", uid, name))
	}

	// Check if the contract's UID is already registered
	if _, ok := ns.contractUIDs[uid]; ok {
		panic(xerrors.Errorf("contract UID '%x' for '%s' already registered", uid, name))
	}

	entrypoints := make(map[string]Entrypoint)
	for _, ep := range contract.Entrypoints() {
		if _, ok := entrypoints[ep.Name]; ok {
			panic(xerrors.Errorf("entrypoint '%s' of '%s' already registered", ep.Name, name))
		}

		entrypoints[ep.Name] = ep
	}

	ns.contracts[name] = registered{
		contract:    contract,
		entrypoints: entrypoints,
	}
	ns.contractUIDs[uid] = struct{}{}
}

// Has returns true if a contract is registered with the name.
func (ns *Service) Has(name string) bool {
	_, found := ns.contracts[name]
	return found
}

// Entrypoints returns the names of the entrypoints of the contract in
// alphabetical order, or an error if the contract is unknown.
func (ns *Service) Entrypoints(name string) ([]string, error) {
	reg, found := ns.contracts[name]
	if !found {
		return nil, xerrors.Errorf("unknown contract '%s'", name)
	}

	names := make([]string, 0, len(reg.entrypoints))
	for ep := range reg.entrypoints {
		names = append(names, ep)
	}

	sort.Strings(names)

	return names, nil
}

// Init runs the initialization of a new instance of the contract. An
// initialization never accepts an amount.
func (ns *Service) Init(name string, ctx execution.Context, host execution.Host, amount uint64) (execution.Result, error) {
	reg, found := ns.contracts[name]
	if !found {
		return execution.Result{}, xerrors.Errorf("unknown contract '%s'", name)
	}

	if amount > 0 {
		return execution.ResultOf(nil, execution.Reject(execution.RejectNotPayable, nil)), nil
	}

	err := reg.contract.Init(ctx, host)

	res := execution.ResultOf(nil, err)
	if !res.Accepted {
		piggybank.Logger.Debug().
			Str("contract", name).
			Str("reason", execution.ReasonName(res.Reason)).
			Msg("initialization rejected")
	}

	return res, nil
}

// Execute runs the entrypoint of the step on an instance of the contract. It
// returns an error only if the contract or the entrypoint do not exist. A
// refusal of the contract is a rejected result.
func (ns *Service) Execute(name string, host execution.Host, step execution.Step) (execution.Result, error) {
	reg, found := ns.contracts[name]
	if !found {
		return execution.Result{}, xerrors.Errorf("unknown contract '%s'", name)
	}

	ep, found := reg.entrypoints[step.Entrypoint]
	if !found {
		return execution.Result{}, xerrors.Errorf("unknown entrypoint '%s' for '%s'", step.Entrypoint, name)
	}

	if !ep.Payable && step.Amount > 0 {
		return execution.ResultOf(nil, execution.Reject(execution.RejectNotPayable, nil)), nil
	}

	if !ep.Mutable {
		host = readOnlyHost{Host: host}
	}

	value, err := ep.Handler(step, host)

	res := execution.ResultOf(value, err)
	if !res.Accepted {
		piggybank.Logger.Debug().
			Str("contract", name).
			Str("entrypoint", step.Entrypoint).
			Str("reason", execution.ReasonName(res.Reason)).
			Msg("call rejected")
	}

	return res, nil
}

// readOnlyHost is a host that refuses any update of the state.
//
// - implements execution.Host
type readOnlyHost struct {
	execution.Host
}

// SetState implements execution.Host. It always returns a rejection.
func (h readOnlyHost) SetState([]byte) error {
	return execution.Reject(execution.RejectReadOnly, nil)
}
