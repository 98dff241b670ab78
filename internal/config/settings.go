package config

import (
	"sync"

	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/logic"
)

// Settings is the runtime-mutable slice of the configuration: tank geometry
// and the pump threshold band. The control loop is the only writer; web and
// MQTT handlers read concurrently. The lock is held only around the struct
// copy, never across sensor or network calls.
type Settings struct {
	mu         sync.RWMutex
	geometry   logic.Geometry
	thresholds logic.Thresholds
}

// NewSettings creates the live settings from the boot configuration.
func NewSettings(geometry logic.Geometry, thresholds logic.Thresholds) *Settings {
	return &Settings{geometry: geometry, thresholds: thresholds}
}

// Geometry returns the current tank geometry.
func (s *Settings) Geometry() logic.Geometry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geometry
}

// Thresholds returns the current threshold band.
func (s *Settings) Thresholds() logic.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// Snapshot returns geometry and thresholds from one consistent read.
func (s *Settings) Snapshot() (logic.Geometry, logic.Thresholds) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geometry, s.thresholds
}

// Apply merges a patch field-wise. Out-of-range values are dropped per
// field, not per patch: a patch with a bad height and a good threshold
// still applies the threshold. Reports whether anything changed.
func (s *Settings) Apply(p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if p.Threshold != nil && *p.Threshold >= 0 && *p.Threshold <= 100 {
		t := logic.NewThresholds(*p.Threshold)
		if t != s.thresholds {
			s.thresholds = t
			changed = true
		}
	}
	if p.Height != nil && *p.Height > 0 {
		if *p.Height != s.geometry.HeightCm {
			s.geometry.HeightCm = *p.Height
			changed = true
		}
	}
	if p.Radius != nil && *p.Radius > 0 {
		if *p.Radius != s.geometry.RadiusCm {
			s.geometry.RadiusCm = *p.Radius
			changed = true
		}
	}
	return changed
}
