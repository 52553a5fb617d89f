// Package status tracks the transport connection lifecycle through an
// explicit transition table. The reducer only ever sees the collapsed
// connected/disconnected flag; this machine is the adapter's richer
// view, including the bounded reconnect loop.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/WinstonKong/bubble-chat/internal/bus"
)

// State is a transport connection state.
type State string

const (
	Uninitialized State = "UNINITIALIZED"
	Connecting    State = "CONNECTING"
	Connected     State = "CONNECTED"
	Reconnecting  State = "RECONNECTING"
	Disconnected  State = "DISCONNECTED"
)

// validTransitions defines allowed state transitions. Disconnected is
// left only by a user-triggered reconnect.
var validTransitions = map[State][]State{
	Uninitialized: {Connecting},
	Connecting:    {Connected, Reconnecting, Disconnected},
	Connected:     {Reconnecting, Disconnected},
	Reconnecting:  {Connecting, Disconnected},
	Disconnected:  {Connecting},
}

// Machine tracks and enforces connection state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine starting in Uninitialized.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Uninitialized, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition table forbids it.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:    "transport.status_changed",
			Payload: StatusChange{From: from, To: to},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
