package gpio

import (
	"errors"
	"testing"
)

func TestFakeRangeSensorScript(t *testing.T) {
	f := NewFakeRangeSensor(70, 65, 60)

	for i, want := range []float64{70, 65, 60} {
		d, err := f.MeasureDistance()
		if err != nil {
			t.Fatalf("measurement %d: unexpected error: %v", i, err)
		}
		if d != want {
			t.Errorf("measurement %d: expected %v, got %v", i, want, d)
		}
	}

	// Fourth call repeats the last measurement
	d, err := f.MeasureDistance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 60 {
		t.Errorf("repeat: expected 60, got %v", d)
	}
}

func TestFakeRangeSensorNoMeasurements(t *testing.T) {
	f := NewFakeRangeSensor()

	_, err := f.MeasureDistance()
	if err == nil {
		t.Error("expected error with no measurements")
	}
}

func TestFakeRangeSensorErrorStep(t *testing.T) {
	f := &FakeRangeSensor{Measurements: []Measurement{
		{Distance: 70},
		{Err: ErrEchoTimeout},
		{Distance: 68},
	}}

	if d, err := f.MeasureDistance(); err != nil || d != 70 {
		t.Fatalf("step 0: got (%v, %v)", d, err)
	}

	_, err := f.MeasureDistance()
	if !errors.Is(err, ErrEchoTimeout) {
		t.Fatalf("step 1: expected echo timeout, got %v", err)
	}

	if d, err := f.MeasureDistance(); err != nil || d != 68 {
		t.Fatalf("step 2: got (%v, %v)", d, err)
	}
}

func TestFakeRangeSensorCloseAndReset(t *testing.T) {
	f := NewFakeRangeSensor(70, 65)

	f.MeasureDistance()
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed {
		t.Error("should not be closed after Reset()")
	}
	if d, _ := f.MeasureDistance(); d != 70 {
		t.Errorf("after reset: expected 70, got %v", d)
	}
}

func TestFakeOverflowSensorScript(t *testing.T) {
	f := NewFakeOverflowSensor(false, true, false)

	for i, want := range []bool{false, true, false} {
		got, err := f.Triggered()
		if err != nil {
			t.Fatalf("state %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("state %d: expected %v, got %v", i, want, got)
		}
	}

	// Repeat of the last state
	got, _ := f.Triggered()
	if got != false {
		t.Error("repeat: expected false")
	}
}

func TestFakeOverflowSensorDefaultsUntriggered(t *testing.T) {
	f := NewFakeOverflowSensor()

	got, err := f.Triggered()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("expected untriggered with no states configured")
	}
}

func TestFakeOverflowSensorError(t *testing.T) {
	f := NewFakeOverflowSensor(false)
	f.ReadError = errors.New("simulated error")

	_, err := f.Triggered()
	if err == nil {
		t.Error("expected error to be returned")
	}
}

func TestFakePumpRelayRecordsTransitionsOnly(t *testing.T) {
	f := &FakePumpRelay{}

	// Matching command: no hardware write
	if err := f.Set(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Writes) != 0 {
		t.Errorf("expected no writes, got %v", f.Writes)
	}

	// Transition on
	if err := f.Set(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.On {
		t.Error("expected relay on")
	}

	// Held on: still one write
	f.Set(true)
	f.Set(true)

	// Transition off
	f.Set(false)

	want := []bool{true, false}
	if len(f.Writes) != len(want) {
		t.Fatalf("expected %d writes, got %v", len(want), f.Writes)
	}
	for i := range want {
		if f.Writes[i] != want[i] {
			t.Errorf("write %d: expected %v, got %v", i, want[i], f.Writes[i])
		}
	}
}

func TestFakePumpRelaySetError(t *testing.T) {
	f := &FakePumpRelay{SetError: errors.New("simulated error")}

	if err := f.Set(true); err == nil {
		t.Error("expected error to be returned")
	}
	if f.On {
		t.Error("failed write must not change state")
	}
}

func TestFakePumpRelayClose(t *testing.T) {
	f := &FakePumpRelay{}
	f.Set(true)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	if f.On {
		t.Error("close must release the relay")
	}
}
