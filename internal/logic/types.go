// Package logic contains pure business logic for water level estimation and
// pump control. This package has NO external dependencies (no GPIO, MQTT, OS,
// or time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// EventType represents a pump transition event.
type EventType string

const (
	EventPumpOn  EventType = "PUMP_ON"
	EventPumpOff EventType = "PUMP_OFF"
)

// Cause identifies the rule that produced a pump transition.
type Cause string

const (
	CauseLowLevel   Cause = "low_level"
	CauseHighLevel  Cause = "high_level"
	CauseOverflow   Cause = "overflow"
	CauseMaxRuntime Cause = "max_runtime"
	CauseDryRun     Cause = "dry_run"
)

// Event represents a pump transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Cause     Cause
	Percent   int
}

// Geometry describes the tank as an upright cylinder. Height is measured
// from the sensor face (tank top) straight down to the bottom.
type Geometry struct {
	HeightCm float64
	RadiusCm float64
}

// Reading is one estimated water level. Ephemeral: rebuilt from a single
// sensor sample every tick, never partially updated.
type Reading struct {
	// Raw sensor-to-surface distance this reading was derived from
	DistanceCm float64
	// Water column height, clamped to >= 0
	HeightCm float64
	// Fill level in [0, 100]
	Percent int
	// Cylindrical volume estimate, rounded to one decimal place
	VolumeLiters float64
	// False when geometry was degenerate and the reading is a placeholder
	Valid bool
}

// PumpState is the only state carried across ticks.
type PumpState struct {
	// Whether the relay is commanded on
	On bool
	// Time of the most recent OFF -> ON transition
	StartedAt time.Time
	// Level percent seen by the previous tick, for the dry-run check
	LastPercent int
}

// Thresholds holds the hysteresis band for the pump decision.
// HighPercent is always derived from LowPercent, never set directly.
type Thresholds struct {
	LowPercent  int
	HighPercent int
}

// Input represents a single control sample.
type Input struct {
	Percent  int
	Overflow bool // true = top float switch triggered
	Time     time.Time
}
