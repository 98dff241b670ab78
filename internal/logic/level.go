package logic

import "math"

// OutOfRangeCm is added to the tank height to fabricate a distance when a
// measurement fails. The resulting reading clamps to an empty tank rather
// than halting the loop; the dry-run cutoff covers the case where that
// starts the pump against a dead sensor.
const OutOfRangeCm = 10.0

// Estimate converts one raw distance measurement into a level reading for
// the given tank geometry. Distance is sensor-to-surface, so a full tank
// reads near zero and anything past the tank floor reads empty.
func Estimate(distanceCm float64, geom Geometry) Reading {
	r := Reading{DistanceCm: distanceCm}

	// Degenerate geometry would divide by zero below. The original
	// firmware never guarded this; treat it as 0% and mark invalid.
	if geom.HeightCm <= 0 {
		return r
	}

	height := geom.HeightCm - distanceCm
	if height < 0 {
		height = 0
	}

	r.HeightCm = height
	r.Percent = clampPercent(int(math.Round(height / geom.HeightCm * 100)))
	r.VolumeLiters = math.Round(math.Pi*geom.RadiusCm*geom.RadiusCm*height/1000*10) / 10
	r.Valid = true
	return r
}

// OutOfRangeDistance returns the sentinel distance substituted for a failed
// measurement: strictly past the tank floor for the given geometry.
func OutOfRangeDistance(geom Geometry) float64 {
	return geom.HeightCm + OutOfRangeCm
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
