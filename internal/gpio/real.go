//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Speed of sound in air, for converting echo pulse width to distance.
// The echo covers the round trip, so the distance is half.
const speedOfSoundCmPerUs = 0.0343

// RealRangeSensor drives an HC-SR04 class ultrasonic sensor through the
// Linux GPIO character device. Echo edges arrive as kernel-timestamped
// events, so the pulse width does not depend on scheduling latency.
type RealRangeSensor struct {
	chip    *gpiocdev.Chip
	trigger *gpiocdev.Line
	echo    *gpiocdev.Line
	events  chan gpiocdev.LineEvent
}

// NewRealRangeSensor creates a range sensor on actual Raspberry Pi hardware.
func NewRealRangeSensor(chipName string, triggerPin, echoPin int) (*RealRangeSensor, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &RealRangeSensor{
		chip:   chip,
		events: make(chan gpiocdev.LineEvent, 4),
	}

	trigger, err := chip.RequestLine(triggerPin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request trigger pin %d: %w", triggerPin, err)
	}
	s.trigger = trigger

	echo, err := chip.RequestLine(echoPin,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handleEdge))
	if err != nil {
		trigger.Close()
		chip.Close()
		return nil, fmt.Errorf("request echo pin %d: %w", echoPin, err)
	}
	s.echo = echo

	return s, nil
}

func (s *RealRangeSensor) handleEdge(evt gpiocdev.LineEvent) {
	select {
	case s.events <- evt:
	default:
		// Channel full: a stale buffered edge is worse than a lost one.
	}
}

// MeasureDistance fires one trigger pulse and times the echo.
func (s *RealRangeSensor) MeasureDistance() (float64, error) {
	s.drainEvents()

	// ~10 us trigger pulse starts the ultrasonic burst.
	if err := s.trigger.SetValue(1); err != nil {
		return 0, fmt.Errorf("set trigger: %w", err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := s.trigger.SetValue(0); err != nil {
		return 0, fmt.Errorf("clear trigger: %w", err)
	}

	rise, err := s.waitEdge(gpiocdev.LineEventRisingEdge)
	if err != nil {
		return 0, err
	}
	fall, err := s.waitEdge(gpiocdev.LineEventFallingEdge)
	if err != nil {
		return 0, err
	}

	width := fall.Timestamp - rise.Timestamp
	return float64(width.Microseconds()) * speedOfSoundCmPerUs / 2, nil
}

// drainEvents discards edges left over from an earlier cycle, such as a
// falling edge that arrived after its measurement timed out.
func (s *RealRangeSensor) drainEvents() {
	for {
		select {
		case <-s.events:
		default:
			return
		}
	}
}

func (s *RealRangeSensor) waitEdge(want gpiocdev.LineEventType) (gpiocdev.LineEvent, error) {
	timer := time.NewTimer(EchoTimeout)
	defer timer.Stop()

	for {
		select {
		case evt := <-s.events:
			if evt.Type == want {
				return evt, nil
			}
			// Opposite edge from a previous late echo; keep waiting.
		case <-timer.C:
			return gpiocdev.LineEvent{}, ErrEchoTimeout
		}
	}
}

// Close releases GPIO resources. Pins are reconfigured to input with
// pull-down (the Pi boot default) before closing so external modules see a
// clean state across restarts.
func (s *RealRangeSensor) Close() error {
	var errs []error

	if s.trigger != nil {
		if err := s.trigger.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure trigger pin: %w", err))
		}
		if err := s.trigger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger pin: %w", err))
		}
	}
	if s.echo != nil {
		if err := s.echo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close echo pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOverflowSensor reads the float switch through the Linux GPIO
// character device.
type RealOverflowSensor struct {
	chip *gpiocdev.Chip
	pin  *gpiocdev.Line
}

// NewRealOverflowSensor creates an overflow sensor on actual hardware.
// The switch closes to ground when the water lifts the float, so the line
// is pulled up and read active-low.
func NewRealOverflowSensor(chipName string, pin int) (*RealOverflowSensor, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request overflow pin %d: %w", pin, err)
	}

	return &RealOverflowSensor{chip: chip, pin: line}, nil
}

// Triggered reports the float switch state. Raw low (0) = triggered.
func (s *RealOverflowSensor) Triggered() (bool, error) {
	raw, err := s.pin.Value()
	if err != nil {
		return false, fmt.Errorf("read overflow pin: %w", err)
	}
	return raw == 0, nil
}

// Close releases GPIO resources.
func (s *RealOverflowSensor) Close() error {
	var errs []error

	if s.pin != nil {
		if err := s.pin.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure overflow pin: %w", err))
		}
		if err := s.pin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close overflow pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealPumpRelay drives the pump contactor through the Linux GPIO character
// device. Active-high: raw 1 energizes the relay.
type RealPumpRelay struct {
	chip *gpiocdev.Chip
	pin  *gpiocdev.Line
	on   bool
}

// NewRealPumpRelay creates a pump relay on actual hardware. The line is
// requested driven low, so the pump always comes up released regardless of
// what state the pin was left in.
func NewRealPumpRelay(chipName string, pin int) (*RealPumpRelay, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pump pin %d: %w", pin, err)
	}

	return &RealPumpRelay{chip: chip, pin: line}, nil
}

// Set applies the commanded state. Re-commanding the applied state is a
// no-op: no hardware write, no wear on the relay.
func (r *RealPumpRelay) Set(on bool) error {
	if on == r.on {
		return nil
	}

	value := 0
	if on {
		value = 1
	}
	if err := r.pin.SetValue(value); err != nil {
		return fmt.Errorf("set pump pin: %w", err)
	}

	r.on = on
	return nil
}

// Close drives the pump off, then releases GPIO resources.
func (r *RealPumpRelay) Close() error {
	var errs []error

	if r.pin != nil {
		if err := r.pin.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release pump pin: %w", err))
		}
		if err := r.pin.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pump pin: %w", err))
		}
		if err := r.pin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pump pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
