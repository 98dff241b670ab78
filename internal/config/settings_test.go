package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/logic"
)

func newTestSettings() *Settings {
	return NewSettings(
		logic.Geometry{HeightCm: 100, RadiusCm: 30},
		logic.NewThresholds(30),
	)
}

func TestSettingsApplyThreshold(t *testing.T) {
	s := newTestSettings()
	threshold := 25

	changed := s.Apply(Patch{Threshold: &threshold})
	assert.True(t, changed)

	// New band derives from the patched start threshold.
	assert.Equal(t, logic.Thresholds{LowPercent: 25, HighPercent: 35}, s.Thresholds())

	// Geometry untouched.
	assert.Equal(t, logic.Geometry{HeightCm: 100, RadiusCm: 30}, s.Geometry())
}

func TestSettingsApplyGeometry(t *testing.T) {
	s := newTestSettings()
	height := 150.0
	radius := 45.0

	changed := s.Apply(Patch{Height: &height, Radius: &radius})
	assert.True(t, changed)
	assert.Equal(t, logic.Geometry{HeightCm: 150, RadiusCm: 45}, s.Geometry())
	assert.Equal(t, logic.Thresholds{LowPercent: 30, HighPercent: 40}, s.Thresholds())
}

func TestSettingsApplyEmptyPatch(t *testing.T) {
	s := newTestSettings()

	changed := s.Apply(Patch{})
	assert.False(t, changed)
	assert.Equal(t, logic.Geometry{HeightCm: 100, RadiusCm: 30}, s.Geometry())
	assert.Equal(t, logic.Thresholds{LowPercent: 30, HighPercent: 40}, s.Thresholds())
}

func TestSettingsApplyDropsOutOfRangeFieldwise(t *testing.T) {
	s := newTestSettings()

	badThreshold := 140
	goodHeight := 110.0
	changed := s.Apply(Patch{Threshold: &badThreshold, Height: &goodHeight})

	// The bad threshold is dropped, the good height still lands.
	assert.True(t, changed)
	assert.Equal(t, logic.Thresholds{LowPercent: 30, HighPercent: 40}, s.Thresholds())
	assert.Equal(t, 110.0, s.Geometry().HeightCm)

	negHeight := -5.0
	zeroRadius := 0.0
	changed = s.Apply(Patch{Height: &negHeight, Radius: &zeroRadius})
	assert.False(t, changed)
	assert.Equal(t, 110.0, s.Geometry().HeightCm)
	assert.Equal(t, 30.0, s.Geometry().RadiusCm)
}

func TestSettingsApplySameValueNotChanged(t *testing.T) {
	s := newTestSettings()
	threshold := 30

	changed := s.Apply(Patch{Threshold: &threshold})
	assert.False(t, changed)
}

func TestSettingsSnapshotConsistent(t *testing.T) {
	s := newTestSettings()

	geom, thr := s.Snapshot()
	assert.Equal(t, logic.Geometry{HeightCm: 100, RadiusCm: 30}, geom)
	assert.Equal(t, logic.Thresholds{LowPercent: 30, HighPercent: 40}, thr)
}

func TestSettingsConcurrentReaders(t *testing.T) {
	s := newTestSettings()
	height := 150.0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g := s.Geometry()
				if g.HeightCm != 100 && g.HeightCm != 150 {
					t.Errorf("torn read: %+v", g)
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		s.Apply(Patch{Height: &height})
	}
	wg.Wait()
}
