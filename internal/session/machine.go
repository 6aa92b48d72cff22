package session

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Machine states. These stay untyped so they convert to statekit.StateID.
const (
	StateIdle       = "idle"
	StateSubmitting = "submitting"
	StatePolling    = "polling"
	StateSucceeded  = "succeeded"
	StateFailed     = "failed"
)

const (
	eventSubmit       = "submit"
	eventCreated      = "created"
	eventCreateFailed = "create_failed"
	eventSucceed      = "succeed"
	eventFail         = "fail"
	eventReset        = "reset"
)

type machineContext struct{}

// machine is the lifecycle of one generation attempt.
// It is not safe for concurrent use; Session serializes access.
type machine struct {
	interpreter *statekit.Interpreter[machineContext]
}

func newMachine() (*machine, error) {
	builder := statekit.NewMachine[machineContext]("generation-session").
		WithInitial(statekit.StateID(StateIdle)).
		WithContext(machineContext{})

	builder.State(StateIdle).
		On(eventSubmit).Target(StateSubmitting).
		Done()

	builder.State(StateSubmitting).
		On(eventCreated).Target(StatePolling).
		On(eventCreateFailed).Target(StateFailed).
		On(eventReset).Target(StateIdle).
		Done()

	builder.State(StatePolling).
		On(eventSucceed).Target(StateSucceeded).
		On(eventFail).Target(StateFailed).
		On(eventReset).Target(StateIdle).
		Done()

	builder.State(StateSucceeded).
		On(eventReset).Target(StateIdle).
		On(eventSubmit).Target(StateSubmitting).
		Done()

	builder.State(StateFailed).
		On(eventReset).Target(StateIdle).
		On(eventSubmit).Target(StateSubmitting).
		Done()

	m, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("building session machine: %w", err)
	}
	interpreter := statekit.NewInterpreter(m)
	interpreter.Start()
	return &machine{interpreter: interpreter}, nil
}

// send applies event and reports an error when the current state has no
// transition for it.
func (m *machine) send(event string) error {
	before := m.current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if m.current() == before {
		return fmt.Errorf("event %q not allowed in state %q", event, before)
	}
	return nil
}

func (m *machine) current() string {
	return string(m.interpreter.State().Value)
}
