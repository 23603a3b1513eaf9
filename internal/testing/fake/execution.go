package fake

import (
	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/core/execution"
)

// Context is a fake implementation of the identities of a call.
//
// - implements execution.Context
type Context struct {
	OwnerAddr   access.AccountAddress
	SenderAddr  access.Address
	InvokerAddr access.AccountAddress
	SelfAddr    access.ContractAddress
}

// NewContext returns a context where the owner is the sender and the invoker.
func NewContext() Context {
	return NewContextFor(access.AccountAddress{}, access.NewAccountSender(access.AccountAddress{}))
}

// NewContextFor returns a context of a call from the sender on an instance
// owned by the owner.
func NewContextFor(owner access.AccountAddress, sender access.Address) Context {
	invoker, ok := sender.Account()
	if !ok {
		invoker = owner
	}

	return Context{
		OwnerAddr:   owner,
		SenderAddr:  sender,
		InvokerAddr: invoker,
	}
}

// Owner implements execution.Context.
func (ctx Context) Owner() access.AccountAddress {
	return ctx.OwnerAddr
}

// Sender implements execution.Context.
func (ctx Context) Sender() access.Address {
	return ctx.SenderAddr
}

// Invoker implements execution.Context.
func (ctx Context) Invoker() access.AccountAddress {
	return ctx.InvokerAddr
}

// Self implements execution.Context.
func (ctx Context) Self() access.ContractAddress {
	return ctx.SelfAddr
}

// Transfer is a transfer recorded by the fake host.
type Transfer struct {
	To     access.AccountAddress
	Amount uint64
}

// Host is a fake implementation of the contract host. Its state and balance
// are kept in memory and every transfer is recorded.
//
// - implements execution.Host
type Host struct {
	Data      []byte
	Balance   uint64
	Transfers []Transfer

	ErrState    error
	ErrSetState error
	ErrTransfer error
}

// NewHost returns a new host with an empty state and a zero balance.
func NewHost() *Host {
	return &Host{}
}

// NewHostWithBalance returns a new host with the state and the balance.
func NewHostWithBalance(data []byte, balance uint64) *Host {
	return &Host{
		Data:    data,
		Balance: balance,
	}
}

// NewBadHost returns a host that fails every operation.
func NewBadHost() *Host {
	return &Host{
		ErrState:    fakeErr,
		ErrSetState: fakeErr,
		ErrTransfer: fakeErr,
	}
}

// State implements execution.Host.
func (h *Host) State() ([]byte, error) {
	if h.ErrState != nil {
		return nil, h.ErrState
	}

	return append([]byte{}, h.Data...), nil
}

// SetState implements execution.Host.
func (h *Host) SetState(data []byte) error {
	if h.ErrSetState != nil {
		return h.ErrSetState
	}

	h.Data = data

	return nil
}

// SelfBalance implements execution.Host.
func (h *Host) SelfBalance() uint64 {
	return h.Balance
}

// Transfer implements execution.Host. The balance is debited only when the
// transfer succeeds.
func (h *Host) Transfer(to access.AccountAddress, amount uint64) error {
	if h.ErrTransfer != nil {
		return h.ErrTransfer
	}

	if amount > h.Balance {
		return execution.ErrRejected
	}

	h.Balance -= amount
	h.Transfers = append(h.Transfers, Transfer{To: to, Amount: amount})

	return nil
}
