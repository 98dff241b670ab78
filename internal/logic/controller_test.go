package logic

import (
	"testing"
	"time"
)

func TestNewThresholds(t *testing.T) {
	tests := []struct {
		low      int
		wantLow  int
		wantHigh int
	}{
		{30, 30, 40},
		{0, 0, 10},
		{95, 95, 100},
		{100, 100, 100},
		{-5, 0, 10},
		{150, 100, 100},
	}

	for _, tt := range tests {
		got := NewThresholds(tt.low)
		if got.LowPercent != tt.wantLow || got.HighPercent != tt.wantHigh {
			t.Errorf("NewThresholds(%d) = {%d, %d}, want {%d, %d}",
				tt.low, got.LowPercent, got.HighPercent, tt.wantLow, tt.wantHigh)
		}
		if got.HighPercent < got.LowPercent {
			t.Errorf("NewThresholds(%d): high %d below low %d",
				tt.low, got.HighPercent, got.LowPercent)
		}
	}
}

func TestStartsBelowLowThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, percent := range []int{0, 15, 29} {
		c := NewController(NewThresholds(30))
		on, ev := c.Process(Input{Percent: percent, Time: now})
		if !on {
			t.Errorf("percent %d: expected pump on", percent)
		}
		if ev == nil {
			t.Fatalf("percent %d: expected transition event", percent)
		}
		if ev.Type != EventPumpOn {
			t.Errorf("percent %d: expected PUMP_ON, got %s", percent, ev.Type)
		}
		if ev.Cause != CauseLowLevel {
			t.Errorf("percent %d: expected cause low_level, got %s", percent, ev.Cause)
		}
	}

	// At exactly the low threshold the pump must NOT start.
	c := NewController(NewThresholds(30))
	on, ev := c.Process(Input{Percent: 30, Time: now})
	if on {
		t.Error("expected pump off at exactly the low threshold")
	}
	if ev != nil {
		t.Errorf("expected no event, got %v", ev)
	}
}

func TestStopsAboveHighThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// From ON: crossing the high threshold stops the pump.
	c := setupRunningController(t, now)
	on, ev := c.Process(Input{Percent: 41, Time: now.Add(time.Second)})
	if on {
		t.Error("expected pump off above high threshold")
	}
	if ev == nil {
		t.Fatal("expected transition event")
	}
	if ev.Type != EventPumpOff {
		t.Errorf("expected PUMP_OFF, got %s", ev.Type)
	}
	if ev.Cause != CauseHighLevel {
		t.Errorf("expected cause high_level, got %s", ev.Cause)
	}

	// From OFF: stays off, no event.
	c2 := NewController(NewThresholds(30))
	on, ev = c2.Process(Input{Percent: 100, Time: now})
	if on {
		t.Error("expected pump off")
	}
	if ev != nil {
		t.Errorf("expected no event, got %v", ev)
	}

	// At exactly the high threshold the pump must NOT stop.
	c3 := setupRunningController(t, now)
	on, ev = c3.Process(Input{Percent: 40, Time: now.Add(time.Second)})
	if !on {
		t.Error("expected pump still on at exactly the high threshold")
	}
	if ev != nil {
		t.Errorf("expected no event, got %v", ev)
	}
}

func TestDeadBandHoldsPriorState(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, percent := range []int{30, 35, 40} {
		// Prior state OFF: stays off.
		c := NewController(NewThresholds(30))
		on, ev := c.Process(Input{Percent: percent, Time: now})
		if on {
			t.Errorf("percent %d: expected pump to stay off in dead-band", percent)
		}
		if ev != nil {
			t.Errorf("percent %d: expected no event, got %v", percent, ev)
		}

		// Prior state ON: stays on.
		c2 := setupRunningController(t, now)
		on, ev = c2.Process(Input{Percent: percent, Time: now.Add(time.Second)})
		if !on {
			t.Errorf("percent %d: expected pump to stay on in dead-band", percent)
		}
		if ev != nil {
			t.Errorf("percent %d: expected no event, got %v", percent, ev)
		}
	}
}

func TestOverflowForcesOff(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Running pump: overflow stops it whatever the level reads.
	for _, percent := range []int{0, 35, 100} {
		c := setupRunningController(t, now)
		on, ev := c.Process(Input{Percent: percent, Overflow: true, Time: now.Add(time.Second)})
		if on {
			t.Errorf("percent %d: expected overflow to force pump off", percent)
		}
		if ev == nil {
			t.Fatalf("percent %d: expected transition event", percent)
		}
		if ev.Cause != CauseOverflow {
			t.Errorf("percent %d: expected cause overflow, got %s", percent, ev.Cause)
		}
	}

	// The would-start case: level below the low threshold wants the pump
	// on, overflow still wins.
	c := NewController(NewThresholds(30))
	on, ev := c.Process(Input{Percent: 5, Overflow: true, Time: now})
	if on {
		t.Error("expected overflow to block the start")
	}
	if ev != nil {
		t.Errorf("expected no event (pump already off), got %v", ev)
	}
}

func TestDryRunCutoff(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := setupRunningController(t, now)

	// Level flat at 20% for the whole grace period: the pump holds
	// because the grace has not elapsed yet.
	tick := now
	for i := 0; i < 30; i++ {
		tick = tick.Add(time.Second)
		on, ev := c.Process(Input{Percent: 20, Time: tick})
		if !on {
			t.Fatalf("tick %d (%v elapsed): pump stopped inside grace period", i+1, tick.Sub(now))
		}
		if ev != nil {
			t.Fatalf("tick %d: unexpected event %v", i+1, ev)
		}
	}

	// One tick past the grace period with the level still not rising.
	tick = tick.Add(time.Second)
	on, ev := c.Process(Input{Percent: 20, Time: tick})
	if on {
		t.Error("expected dry-run cutoff to stop the pump")
	}
	if ev == nil {
		t.Fatal("expected transition event")
	}
	if ev.Type != EventPumpOff {
		t.Errorf("expected PUMP_OFF, got %s", ev.Type)
	}
	if ev.Cause != CauseDryRun {
		t.Errorf("expected cause dry_run, got %s", ev.Cause)
	}
}

func TestDryRunIgnoresRisingLevel(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := setupRunningController(t, now)

	// Flat level through the grace period, then a 1%-per-tick climb.
	// Every post-grace sample rises, so the dry-run check never fires
	// and the run survives well past the grace boundary.
	tick := now
	for i := 0; i < 30; i++ {
		tick = tick.Add(time.Second)
		on, ev := c.Process(Input{Percent: 20, Time: tick})
		if !on || ev != nil {
			t.Fatalf("grace tick %d: got on=%v ev=%v", i+1, on, ev)
		}
	}
	percent := 20
	for i := 0; i < 15; i++ {
		tick = tick.Add(time.Second)
		percent++
		on, ev := c.Process(Input{Percent: percent, Time: tick})
		if !on {
			t.Fatalf("post-grace tick %d: pump stopped on a rising level (%v)", i+1, ev)
		}
		if ev != nil {
			t.Fatalf("post-grace tick %d: unexpected event %v", i+1, ev)
		}
	}
	if !c.Pump().On {
		t.Error("expected pump still running with rising level")
	}
}

func TestDryRunCatchesFallingLevel(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := setupRunningController(t, now)

	// Past the grace period a falling level trips the cutoff too
	// (percent <= lastPercent covers flat and falling).
	on, ev := c.Process(Input{Percent: 15, Time: now.Add(31 * time.Second)})
	if on {
		t.Error("expected dry-run cutoff on non-rising level")
	}
	if ev == nil || ev.Cause != CauseDryRun {
		t.Fatalf("expected dry_run event, got %v", ev)
	}
}

func TestMaxRuntimeCutoff(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := setupRunningController(t, now)

	// Rising level defeats the dry-run check; only the runtime ceiling
	// can stop this run.
	on, ev := c.Process(Input{Percent: 22, Time: now.Add(2 * time.Minute)})
	if !on || ev != nil {
		t.Fatalf("expected pump still on at 2m, got on=%v ev=%v", on, ev)
	}

	on, ev = c.Process(Input{Percent: 24, Time: now.Add(4 * time.Minute)})
	if !on || ev != nil {
		t.Fatalf("expected pump still on at 4m, got on=%v ev=%v", on, ev)
	}

	on, ev = c.Process(Input{Percent: 26, Time: now.Add(5*time.Minute + time.Second)})
	if on {
		t.Error("expected max-runtime cutoff to stop the pump")
	}
	if ev == nil {
		t.Fatal("expected transition event")
	}
	if ev.Cause != CauseMaxRuntime {
		t.Errorf("expected cause max_runtime, got %s", ev.Cause)
	}
}

func TestMaxRuntimeExactBoundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := setupRunningController(t, now)

	// At exactly the ceiling the run is still legal; the cutoff fires
	// only once elapsed exceeds it.
	on, _ := c.Process(Input{Percent: 25, Time: now.Add(MaxRuntime)})
	if !on {
		t.Error("expected pump on at exactly the runtime ceiling")
	}
}

func TestMaintainedRunNeverRestamps(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := setupRunningController(t, now)

	// Many maintain-ON ticks, each only 50s after the previous. If any
	// of them re-stamped StartedAt, elapsed would never reach the
	// ceiling and the cutoff below could not fire.
	tick := now
	percent := 20
	for i := 0; i < 5; i++ {
		tick = tick.Add(50 * time.Second)
		percent++
		on, ev := c.Process(Input{Percent: percent, Time: tick})
		if !on || ev != nil {
			t.Fatalf("tick %d: expected quiet maintain, got on=%v ev=%v", i+1, on, ev)
		}
		if !c.Pump().StartedAt.Equal(now) {
			t.Fatalf("tick %d: StartedAt re-stamped to %v", i+1, c.Pump().StartedAt)
		}
	}

	// 250s in; 51s later the total elapsed passes 5m and the ceiling fires.
	tick = tick.Add(51 * time.Second)
	on, ev := c.Process(Input{Percent: percent + 1, Time: tick})
	if on {
		t.Error("expected max-runtime cutoff after accumulated maintain ticks")
	}
	if ev == nil || ev.Cause != CauseMaxRuntime {
		t.Fatalf("expected max_runtime event, got %v", ev)
	}
}

func TestOffToOnStampsStartTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(NewThresholds(30))

	c.Process(Input{Percent: 10, Time: now})
	if !c.Pump().StartedAt.Equal(now) {
		t.Errorf("expected StartedAt %v, got %v", now, c.Pump().StartedAt)
	}

	// Stop, then start again later: the new run gets a fresh stamp.
	c.Process(Input{Percent: 50, Time: now.Add(time.Minute)})
	restart := now.Add(2 * time.Minute)
	c.Process(Input{Percent: 10, Time: restart})
	if !c.Pump().StartedAt.Equal(restart) {
		t.Errorf("expected fresh StartedAt %v, got %v", restart, c.Pump().StartedAt)
	}
}

func TestRestartAfterCutoff(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := setupRunningController(t, now)

	// Dry-run stops the pump.
	on, _ := c.Process(Input{Percent: 20, Time: now.Add(31 * time.Second)})
	if on {
		t.Fatal("expected dry-run cutoff")
	}

	// There is no lockout: the next tick re-evaluates from scratch and
	// the low level starts a fresh run with a fresh timer.
	restart := now.Add(32 * time.Second)
	on, ev := c.Process(Input{Percent: 20, Time: restart})
	if !on {
		t.Error("expected pump to restart on low level")
	}
	if ev == nil || ev.Type != EventPumpOn {
		t.Fatalf("expected PUMP_ON event, got %v", ev)
	}
	if !c.Pump().StartedAt.Equal(restart) {
		t.Errorf("expected fresh StartedAt %v, got %v", restart, c.Pump().StartedAt)
	}
}

func TestLastPercentUpdatedEveryTick(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(NewThresholds(30))

	for i, percent := range []int{50, 35, 20, 22} {
		c.Process(Input{Percent: percent, Time: now.Add(time.Duration(i) * time.Second)})
		if c.Pump().LastPercent != percent {
			t.Errorf("tick %d: expected LastPercent %d, got %d", i, percent, c.Pump().LastPercent)
		}
	}
}

func TestSetThresholds(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(NewThresholds(30))

	// 35% is inside the original dead-band: pump stays off.
	on, _ := c.Process(Input{Percent: 35, Time: now})
	if on {
		t.Fatal("expected pump off in dead-band")
	}

	// Raising the threshold to 40 moves the same level below the band.
	c.SetThresholds(NewThresholds(40))
	if c.Thresholds().LowPercent != 40 || c.Thresholds().HighPercent != 50 {
		t.Fatalf("unexpected thresholds %+v", c.Thresholds())
	}
	on, ev := c.Process(Input{Percent: 35, Time: now.Add(time.Second)})
	if !on {
		t.Error("expected pump on after threshold raise")
	}
	if ev == nil || ev.Cause != CauseLowLevel {
		t.Fatalf("expected low_level event, got %v", ev)
	}
}

func TestEventTypeFor(t *testing.T) {
	if eventTypeFor(true) != EventPumpOn {
		t.Error("eventTypeFor(true) should be PUMP_ON")
	}
	if eventTypeFor(false) != EventPumpOff {
		t.Error("eventTypeFor(false) should be PUMP_OFF")
	}
}

// setupRunningController returns a controller whose pump started at startAt
// with the level at 20% and thresholds 30/40.
func setupRunningController(t *testing.T, startAt time.Time) *Controller {
	t.Helper()
	c := NewController(NewThresholds(30))

	on, ev := c.Process(Input{Percent: 20, Time: startAt})
	if !on || ev == nil || ev.Type != EventPumpOn {
		t.Fatal("failed to start pump")
	}

	return c
}
