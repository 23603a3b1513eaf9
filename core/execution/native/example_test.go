package native

import (
	"encoding/binary"
	"fmt"

	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/core/execution"
)

func ExampleService_Execute() {
	srvc := NewExecution()
	srvc.Set("example", exampleContract{})

	host := &exampleHost{}

	_, err := srvc.Init("example", nil, host, 0)
	if err != nil {
		panic("failed to initialize: " + err.Error())
	}

	increment := make([]byte, 8)
	binary.LittleEndian.PutUint64(increment, 5)

	step := execution.Step{
		Entrypoint: "increment",
		Parameter:  increment,
	}

	for i := 0; i < 2; i++ {
		res, err := srvc.Execute("example", host, step)
		if err != nil {
			panic("failed to execute: " + err.Error())
		}

		if res.Accepted {
			fmt.Println("accepted")
		}
	}

	fmt.Println(binary.LittleEndian.Uint64(host.state))

	// Output: accepted
	// accepted
	// 10
}

// exampleContract is a contract that increments a counter.
//
// - implements native.Contract
type exampleContract struct{}

func (exampleContract) Init(ctx execution.Context, host execution.Host) error {
	return host.SetState(make([]byte, 8))
}

func (exampleContract) Entrypoints() []Entrypoint {
	return []Entrypoint{
		{
			Name:    "increment",
			Mutable: true,
			Handler: func(step execution.Step, host execution.Host) ([]byte, error) {
				state, err := host.State()
				if err != nil {
					return nil, err
				}

				counter := binary.LittleEndian.Uint64(state)
				counter += binary.LittleEndian.Uint64(step.Parameter)

				binary.LittleEndian.PutUint64(state, counter)

				return nil, host.SetState(state)
			},
		},
	}
}

func (exampleContract) UID() string {
	return "EXPL"
}

// exampleHost keeps the state in memory.
//
// - implements execution.Host
type exampleHost struct {
	state []byte
}

func (h *exampleHost) State() ([]byte, error) {
	return append([]byte{}, h.state...), nil
}

func (h *exampleHost) SetState(data []byte) error {
	h.state = data
	return nil
}

func (h *exampleHost) SelfBalance() uint64 {
	return 0
}

func (h *exampleHost) Transfer(access.AccountAddress, uint64) error {
	return nil
}
