package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Patch is a sparse configuration update delivered over the web socket, the
// config POST endpoint, or MQTT. Absent fields leave the live value
// untouched; unknown keys are ignored.
type Patch struct {
	Threshold *int     `json:"threshold,omitempty"`
	Height    *float64 `json:"height,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
}

// ParsePatch decodes a patch payload. Malformed payloads (bad JSON, wrong
// value types) return an error and must be discarded by the caller without
// touching any state.
func ParsePatch(data []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return Patch{}, fmt.Errorf("parse config patch: %w", err)
	}
	return p, nil
}

// Empty reports whether the patch carries no recognized fields. An empty
// patch is still a valid patch: it changes nothing but still earns the
// sender an immediate status broadcast.
func (p Patch) Empty() bool {
	return p.Threshold == nil && p.Height == nil && p.Radius == nil
}

// String renders the patch for log lines, e.g. "threshold=25 height=120".
func (p Patch) String() string {
	var parts []string
	if p.Threshold != nil {
		parts = append(parts, fmt.Sprintf("threshold=%d", *p.Threshold))
	}
	if p.Height != nil {
		parts = append(parts, fmt.Sprintf("height=%g", *p.Height))
	}
	if p.Radius != nil {
		parts = append(parts, fmt.Sprintf("radius=%g", *p.Radius))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}
