package logic

import "time"

const (
	// HysteresisPercent separates the start threshold from the derived
	// stop threshold.
	HysteresisPercent = 10

	// MaxRuntime is the ceiling on one continuous pump run.
	MaxRuntime = 5 * time.Minute

	// MinRunGrace exempts a fresh run from the dry-run check long enough
	// for the level to respond.
	MinRunGrace = 30 * time.Second
)

// NewThresholds derives the hysteresis band from a start threshold.
// Both ends clamp to [0, 100], so HighPercent >= LowPercent always holds.
func NewThresholds(lowPercent int) Thresholds {
	low := clampPercent(lowPercent)
	return Thresholds{
		LowPercent:  low,
		HighPercent: clampPercent(low + HysteresisPercent),
	}
}

// Controller decides the pump state once per tick. Rules are evaluated in a
// fixed order with later rules overriding earlier ones: the hysteresis band
// proposes a state, the overflow interlock forces OFF, and the runtime
// cutoffs stop an active run. The decision is a pure function of the input
// sample, the thresholds, and the PumpState carried from the previous tick.
type Controller struct {
	thresholds Thresholds
	pump       PumpState
}

// NewController creates a controller with the pump off and no run history.
func NewController(thresholds Thresholds) *Controller {
	return &Controller{thresholds: thresholds}
}

// Process takes one control sample and returns the commanded pump state,
// plus a transition event if the state changed. StartedAt is stamped only
// on the OFF -> ON transition; a maintained state touches nothing, since
// re-stamping would reset the runtime cutoffs every tick.
func (c *Controller) Process(input Input) (bool, *Event) {
	want, cause := c.decide(input)

	var event *Event
	if want != c.pump.On {
		if want {
			c.pump.StartedAt = input.Time
		}
		c.pump.On = want
		event = &Event{
			Timestamp: input.Time,
			Type:      eventTypeFor(want),
			Cause:     cause,
			Percent:   input.Percent,
		}
	}

	// Recorded after the decision so the next tick's dry-run check
	// compares against this sample.
	c.pump.LastPercent = input.Percent

	return c.pump.On, event
}

func (c *Controller) decide(input Input) (bool, Cause) {
	want := c.pump.On
	var cause Cause

	// Hysteresis base decision. Inside the dead-band neither branch
	// fires and the previous state holds.
	if input.Percent < c.thresholds.LowPercent {
		want, cause = true, CauseLowLevel
	} else if input.Percent > c.thresholds.HighPercent {
		want, cause = false, CauseHighLevel
	}

	// Overflow interlock wins over level, unconditionally.
	if input.Overflow {
		want, cause = false, CauseOverflow
	}

	// Runtime cutoffs can stop a run, never start one.
	if c.pump.On {
		elapsed := input.Time.Sub(c.pump.StartedAt)
		if elapsed > MaxRuntime {
			want, cause = false, CauseMaxRuntime
		} else if elapsed > MinRunGrace && input.Percent <= c.pump.LastPercent {
			want, cause = false, CauseDryRun
		}
	}

	return want, cause
}

// SetThresholds swaps the hysteresis band. Called between ticks when a
// configuration patch changes the start threshold.
func (c *Controller) SetThresholds(t Thresholds) {
	c.thresholds = t
}

// Thresholds returns the active hysteresis band.
func (c *Controller) Thresholds() Thresholds {
	return c.thresholds
}

// Pump returns a copy of the pump state carried across ticks.
func (c *Controller) Pump() PumpState {
	return c.pump
}

func eventTypeFor(on bool) EventType {
	if on {
		return EventPumpOn
	}
	return EventPumpOff
}
