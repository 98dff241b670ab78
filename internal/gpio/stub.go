//go:build !linux

package gpio

import "errors"

var errNotSupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealRangeSensor is not available on non-Linux platforms.
type RealRangeSensor struct{}

// NewRealRangeSensor returns an error on non-Linux platforms.
func NewRealRangeSensor(chipName string, triggerPin, echoPin int) (*RealRangeSensor, error) {
	return nil, errNotSupported
}

// MeasureDistance is not implemented on non-Linux platforms.
func (s *RealRangeSensor) MeasureDistance() (float64, error) {
	return 0, errNotSupported
}

// Close is not implemented on non-Linux platforms.
func (s *RealRangeSensor) Close() error {
	return nil
}

// RealOverflowSensor is not available on non-Linux platforms.
type RealOverflowSensor struct{}

// NewRealOverflowSensor returns an error on non-Linux platforms.
func NewRealOverflowSensor(chipName string, pin int) (*RealOverflowSensor, error) {
	return nil, errNotSupported
}

// Triggered is not implemented on non-Linux platforms.
func (s *RealOverflowSensor) Triggered() (bool, error) {
	return false, errNotSupported
}

// Close is not implemented on non-Linux platforms.
func (s *RealOverflowSensor) Close() error {
	return nil
}

// RealPumpRelay is not available on non-Linux platforms.
type RealPumpRelay struct{}

// NewRealPumpRelay returns an error on non-Linux platforms.
func NewRealPumpRelay(chipName string, pin int) (*RealPumpRelay, error) {
	return nil, errNotSupported
}

// Set is not implemented on non-Linux platforms.
func (r *RealPumpRelay) Set(on bool) error {
	return errNotSupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealPumpRelay) Close() error {
	return nil
}
