package chain

import (
	"go.dedis.ch/piggybank/core/execution"
)

// DefaultEnergyLimit is the energy given to a call that does not set a limit.
const DefaultEnergyLimit uint64 = 10_000

// Schedule is the energy cost of the operations of the ledger.
type Schedule struct {
	// Init is the base cost of the creation of an instance.
	Init uint64

	// Update is the base cost of a call to an entrypoint.
	Update uint64

	// StateRead is the cost of reading the state of the instance.
	StateRead uint64

	// StateWrite is the cost of writing the state of the instance.
	StateWrite uint64

	// StateByte is the additional cost per byte of state written.
	StateByte uint64

	// Transfer is the cost of a transfer from the instance.
	Transfer uint64
}

// DefaultSchedule is the schedule of a chain created without option.
var DefaultSchedule = Schedule{
	Init:       300,
	Update:     100,
	StateRead:  10,
	StateWrite: 20,
	StateByte:  1,
	Transfer:   50,
}

// meter counts the energy used by a call. Once the limit is reached every
// charge fails and the whole limit is used.
type meter struct {
	limit     uint64
	used      uint64
	exhausted bool
}

func newMeter(limit uint64) *meter {
	return &meter{limit: limit}
}

func (m *meter) charge(amount uint64) error {
	if m.exhausted || amount > m.limit-m.used {
		m.used = m.limit
		m.exhausted = true

		return execution.Reject(execution.RejectOutOfEnergy, nil)
	}

	m.used += amount

	return nil
}
