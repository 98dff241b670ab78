package gpio

import "errors"

// Measurement is one scripted range sensor result.
type Measurement struct {
	Distance float64
	Err      error
}

// FakeRangeSensor is a test double that returns scripted measurements.
type FakeRangeSensor struct {
	// Measurements contains scripted results. Each call to
	// MeasureDistance consumes the next one; the last repeats.
	Measurements []Measurement

	// index tracks current position in Measurements
	index int

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeRangeSensor creates a FakeRangeSensor returning the given
// distances in order. Error steps are scripted via Measurements directly.
func NewFakeRangeSensor(distances ...float64) *FakeRangeSensor {
	measurements := make([]Measurement, len(distances))
	for i, d := range distances {
		measurements[i] = Measurement{Distance: d}
	}
	return &FakeRangeSensor{Measurements: measurements}
}

// MeasureDistance returns the next scripted measurement.
// If measurements are exhausted, the last one repeats.
func (f *FakeRangeSensor) MeasureDistance() (float64, error) {
	if len(f.Measurements) == 0 {
		return 0, errors.New("no measurements configured")
	}

	m := f.Measurements[f.index]
	if f.index < len(f.Measurements)-1 {
		f.index++
	}

	if m.Err != nil {
		return 0, m.Err
	}
	return m.Distance, nil
}

// Close marks the sensor as closed.
func (f *FakeRangeSensor) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the script.
func (f *FakeRangeSensor) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOverflowSensor is a test double that returns scripted switch states.
type FakeOverflowSensor struct {
	// States contains scripted Triggered values; the last repeats.
	States []bool

	// ReadError, if set, will be returned by Triggered()
	ReadError error

	index  int
	Closed bool
}

// NewFakeOverflowSensor creates a FakeOverflowSensor with the given states.
func NewFakeOverflowSensor(states ...bool) *FakeOverflowSensor {
	return &FakeOverflowSensor{States: states}
}

// Triggered returns the next scripted state.
// If states are exhausted, the last one repeats.
func (f *FakeOverflowSensor) Triggered() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.States) == 0 {
		return false, nil
	}

	state := f.States[f.index]
	if f.index < len(f.States)-1 {
		f.index++
	}

	return state, nil
}

// Close marks the sensor as closed.
func (f *FakeOverflowSensor) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the script.
func (f *FakeOverflowSensor) Reset() {
	f.index = 0
	f.Closed = false
}

// FakePumpRelay records relay commands for tests.
type FakePumpRelay struct {
	// On is the currently applied state.
	On bool

	// Writes records every hardware write. Re-commanding the applied
	// state is dropped before it reaches the hardware, mirroring the
	// real relay, so Writes holds only actual transitions.
	Writes []bool

	// SetError, if set, will be returned by Set()
	SetError error

	Closed bool
}

// Set applies the commanded state, recording the write if it is a change.
func (f *FakePumpRelay) Set(on bool) error {
	if on == f.On {
		return nil
	}
	if f.SetError != nil {
		return f.SetError
	}

	f.Writes = append(f.Writes, on)
	f.On = on
	return nil
}

// Close marks the relay as closed and releases it.
func (f *FakePumpRelay) Close() error {
	f.On = false
	f.Closed = true
	return nil
}
