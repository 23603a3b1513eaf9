package chain

import (
	"math"

	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/core/store"
	"golang.org/x/xerrors"
)

// callContext is the set of identities of a call.
//
// - implements execution.Context
type callContext struct {
	owner   access.AccountAddress
	sender  access.Address
	invoker access.AccountAddress
	self    access.ContractAddress
}

// Owner implements execution.Context.
func (ctx callContext) Owner() access.AccountAddress {
	return ctx.owner
}

// Sender implements execution.Context.
func (ctx callContext) Sender() access.Address {
	return ctx.sender
}

// Invoker implements execution.Context.
func (ctx callContext) Invoker() access.AccountAddress {
	return ctx.invoker
}

// Self implements execution.Context.
func (ctx callContext) Self() access.ContractAddress {
	return ctx.self
}

// host gives a running contract access to its instance inside the staged
// snapshot of the transaction. Every operation is metered.
//
// - implements execution.Host
type host struct {
	snap     store.Snapshot
	index    uint64
	instance *instanceRecord
	meter    *meter
	schedule Schedule
}

// State implements execution.Host. It returns the state of the instance.
func (h *host) State() ([]byte, error) {
	err := h.meter.charge(h.schedule.StateRead)
	if err != nil {
		return nil, err
	}

	data, err := h.snap.Get(stateKey(h.index))
	if err != nil {
		return nil, xerrors.Errorf("failed to read state: %v", err)
	}

	return data, nil
}

// SetState implements execution.Host. It replaces the state of the instance.
func (h *host) SetState(data []byte) error {
	size := uint64(len(data))

	cost := h.schedule.StateWrite
	if h.schedule.StateByte > 0 && size > (math.MaxUint64-cost)/h.schedule.StateByte {
		cost = math.MaxUint64
	} else {
		cost += size * h.schedule.StateByte
	}

	err := h.meter.charge(cost)
	if err != nil {
		return err
	}

	err = h.snap.Set(stateKey(h.index), data)
	if err != nil {
		return xerrors.Errorf("failed to write state: %v", err)
	}

	return nil
}

// SelfBalance implements execution.Host. It returns the balance of the
// instance.
func (h *host) SelfBalance() uint64 {
	return h.instance.Balance
}

// Transfer implements execution.Host. It moves the amount from the instance to
// an existing account.
func (h *host) Transfer(to access.AccountAddress, amount uint64) error {
	err := h.meter.charge(h.schedule.Transfer)
	if err != nil {
		return err
	}

	if amount > h.instance.Balance {
		return xerrors.Errorf("insufficient balance: %d < %d", h.instance.Balance, amount)
	}

	acc, found, err := readAccount(h.snap, to)
	if err != nil {
		return xerrors.Errorf("failed to read receiver: %v", err)
	}

	if !found {
		return xerrors.Errorf("missing receiver %v", to)
	}

	if acc.Balance > math.MaxUint64-amount {
		return xerrors.Errorf("balance overflow for %v", to)
	}

	acc.Balance += amount

	err = writeAccount(h.snap, to, acc)
	if err != nil {
		return xerrors.Errorf("failed to credit receiver: %v", err)
	}

	h.instance.Balance -= amount

	err = writeInstance(h.snap, h.index, *h.instance)
	if err != nil {
		return xerrors.Errorf("failed to debit instance: %v", err)
	}

	return nil
}
