// Package status provides a thread-safe status tracker for the tank
// controller daemon. It is read by HTTP handlers, the websocket hub, and
// MQTT publishers; only the control loop writes to it.
package status

import (
	"sync"
	"time"

	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/logic"
)

// recentEventCap bounds the transition history kept for display.
const recentEventCap = 10

// Config contains daemon configuration for display.
type Config struct {
	IntervalMs  int64
	Broker      string
	HTTPAddr    string
	GPIOChip    string
	TriggerPin  int
	EchoPin     int
	OverflowPin int
	PumpPin     int
}

// Counts tracks controller activity since startup.
type Counts struct {
	PumpStarts      int
	StopsHighLevel  int
	StopsOverflow   int
	StopsMaxRuntime int
	StopsDryRun     int
	SensorTimeouts  int
	PatchesApplied  int
	PatchesDropped  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Reading       logic.Reading
	PumpOn        bool
	PumpSince     time.Time // zero while the pump is off
	Overflow      bool
	Geometry      logic.Geometry
	Thresholds    logic.Thresholds
	Recent        []logic.Event // newest last; copied on Snapshot()
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, display config,
// and boot-time control settings.
func NewTracker(startTime time.Time, cfg Config, geometry logic.Geometry, thresholds logic.Thresholds) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:  startTime,
			Config:     cfg,
			Geometry:   geometry,
			Thresholds: thresholds,
		},
	}
}

// UpdateTick records the outcome of one control tick.
// Called from the control loop on every tick.
func (t *Tracker) UpdateTick(reading logic.Reading, pumpOn bool, pumpSince time.Time, overflow bool, geometry logic.Geometry, thresholds logic.Thresholds) {
	t.mu.Lock()
	t.snap.Reading = reading
	t.snap.PumpOn = pumpOn
	if pumpOn {
		t.snap.PumpSince = pumpSince
	} else {
		t.snap.PumpSince = time.Time{}
	}
	t.snap.Overflow = overflow
	t.snap.Geometry = geometry
	t.snap.Thresholds = thresholds
	t.mu.Unlock()
}

// UpdateSettings refreshes the live geometry and thresholds outside the
// tick cycle. Called when a configuration patch is applied, so the
// immediate out-of-cycle report carries the patched values instead of
// waiting for the next tick.
func (t *Tracker) UpdateSettings(geometry logic.Geometry, thresholds logic.Thresholds) {
	t.mu.Lock()
	t.snap.Geometry = geometry
	t.snap.Thresholds = thresholds
	t.mu.Unlock()
}

// RecordEvent counts a pump transition and keeps it in the recent history.
func (t *Tracker) RecordEvent(event logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Type {
	case logic.EventPumpOn:
		t.snap.Counts.PumpStarts++
	case logic.EventPumpOff:
		switch event.Cause {
		case logic.CauseHighLevel:
			t.snap.Counts.StopsHighLevel++
		case logic.CauseOverflow:
			t.snap.Counts.StopsOverflow++
		case logic.CauseMaxRuntime:
			t.snap.Counts.StopsMaxRuntime++
		case logic.CauseDryRun:
			t.snap.Counts.StopsDryRun++
		}
	}

	t.snap.Recent = append(t.snap.Recent, event)
	if len(t.snap.Recent) > recentEventCap {
		t.snap.Recent = t.snap.Recent[len(t.snap.Recent)-recentEventCap:]
	}
}

// RecordSensorTimeout counts a failed measurement.
func (t *Tracker) RecordSensorTimeout() {
	t.mu.Lock()
	t.snap.Counts.SensorTimeouts++
	t.mu.Unlock()
}

// RecordPatchApplied counts a configuration patch delivered to the loop.
func (t *Tracker) RecordPatchApplied() {
	t.mu.Lock()
	t.snap.Counts.PatchesApplied++
	t.mu.Unlock()
}

// RecordPatchDropped counts a patch discarded before reaching the loop
// (malformed payload or full queue).
func (t *Tracker) RecordPatchDropped() {
	t.mu.Lock()
	t.snap.Counts.PatchesDropped++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Recent = append([]logic.Event(nil), t.snap.Recent...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
