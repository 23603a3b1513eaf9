package bank

import (
	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/core/execution"
)

// Transfer is an amount to send to an account.
type Transfer struct {
	To     access.AccountAddress
	Amount uint64
}

// Effect is what a successful smash asks the host to apply: the new state and
// the outgoing transfer.
type Effect struct {
	State    State
	Transfer Transfer
}

// Init returns the state of a new piggy bank.
func Init() State {
	return Intact
}

// Insert accepts a deposit as long as the piggy bank is intact. The amount is
// already part of the balance kept by the host.
func Insert(state State) error {
	if state != Intact {
		return execution.ErrRejected
	}

	return nil
}

// Smash empties the piggy bank to its owner. Only the owner can smash it, and
// only once.
func Smash(sender access.Address, owner access.AccountAddress, state State, balance uint64) (Effect, error) {
	if !sender.MatchesAccount(owner) {
		return Effect{}, NotOwner
	}

	if state != Intact {
		return Effect{}, AlreadySmashed
	}

	effect := Effect{
		State: Smashed,
		Transfer: Transfer{
			To:     owner,
			Amount: balance,
		},
	}

	return effect, nil
}

// View returns the balance and the state of the piggy bank.
func View(state State, balance uint64) ViewResult {
	return ViewResult{
		Balance: balance,
		State:   state,
	}
}
