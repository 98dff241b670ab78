// Package gpio provides the tank controller's hardware abstraction: the
// ultrasonic range sensor, the overflow float switch, and the pump relay.
// The real implementations use the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import (
	"errors"
	"time"
)

// Default pin assignments (BCM numbering)
const (
	DefaultTriggerPin  = 23 // ultrasonic trigger, output
	DefaultEchoPin     = 24 // ultrasonic echo, input
	DefaultOverflowPin = 17 // overflow float switch, input, active-low
	DefaultPumpPin     = 27 // pump relay, output, active-high
)

// EchoTimeout bounds the wait for each echo edge. 30 ms of flight time is
// roughly five metres of range, well past any domestic tank.
const EchoTimeout = 30 * time.Millisecond

// ErrEchoTimeout is returned when an echo edge does not arrive within
// EchoTimeout. Callers substitute an out-of-range distance and carry on;
// a dead sensor must never stall the control loop.
var ErrEchoTimeout = errors.New("gpio: echo timeout")

// RangeSensor measures the distance from the sensor face down to the water
// surface.
type RangeSensor interface {
	// MeasureDistance runs one pulse-echo cycle and returns centimetres.
	// Returns ErrEchoTimeout when no echo arrives in time.
	MeasureDistance() (float64, error)

	// Close releases GPIO resources.
	Close() error
}

// OverflowSensor reads the tank-full float switch.
type OverflowSensor interface {
	// Triggered reports whether the water is at or above the safety
	// maximum.
	Triggered() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// PumpRelay drives the pump contactor.
type PumpRelay interface {
	// Set energizes or releases the relay. Commanding the state already
	// applied must not touch the hardware.
	Set(on bool) error

	// Close forces the pump off, then releases GPIO resources.
	Close() error
}
