package status

import (
	"encoding/json"
	"math"
	"time"
)

// Report is the flat record broadcast to every gateway listener: websocket
// clients and the MQTT status topic. The keys are the wire contract shared
// with the dashboard page and any scripted consumers; do not rename them.
type Report struct {
	Water        int     `json:"water"`
	Pump         int     `json:"pump"`
	Threshold    int     `json:"threshold"`
	TopTriggered int     `json:"topTriggered"`
	Height       int     `json:"height"`
	Volume       float64 `json:"volume"`
	TankHeight   int     `json:"tankHeight"`
	TankRadius   int     `json:"tankRadius"`
}

// BuildReport projects a snapshot onto the flat wire record.
func BuildReport(snap Snapshot) Report {
	return Report{
		Water:        snap.Reading.Percent,
		Pump:         boolToInt(snap.PumpOn),
		Threshold:    snap.Thresholds.LowPercent,
		TopTriggered: boolToInt(snap.Overflow),
		Height:       int(math.Round(snap.Reading.HeightCm)),
		Volume:       snap.Reading.VolumeLiters,
		TankHeight:   int(math.Round(snap.Geometry.HeightCm)),
		TankRadius:   int(math.Round(snap.Geometry.RadiusCm)),
	}
}

// FormatReport returns the flat record as compact JSON.
func FormatReport(snap Snapshot) []byte {
	data, _ := json.Marshal(BuildReport(snap))
	return data
}

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Water         WaterJSON   `json:"water"`
	Pump          PumpJSON    `json:"pump"`
	Overflow      bool        `json:"overflow"`
	Thresholds    BandJSON    `json:"thresholds"`
	Tank          TankJSON    `json:"tank"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"counts"`
	Recent        []EventJSON `json:"recent_events,omitempty"`
	Config        ConfigJSON  `json:"config"`
}

// WaterJSON is the JSON representation of the current reading.
type WaterJSON struct {
	Percent      int     `json:"percent"`
	HeightCm     float64 `json:"height_cm"`
	VolumeLiters float64 `json:"volume_liters"`
	DistanceCm   float64 `json:"distance_cm"`
	Valid        bool    `json:"valid"`
}

// PumpJSON is the JSON representation of the pump state.
type PumpJSON struct {
	State          string `json:"state"`
	RunningSeconds int64  `json:"running_seconds,omitempty"`
}

// BandJSON is the JSON representation of the hysteresis band.
type BandJSON struct {
	LowPercent  int `json:"low_percent"`
	HighPercent int `json:"high_percent"`
}

// TankJSON is the JSON representation of the tank geometry.
type TankJSON struct {
	HeightCm float64 `json:"height_cm"`
	RadiusCm float64 `json:"radius_cm"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// CountsJSON is the JSON representation of activity counters.
type CountsJSON struct {
	PumpStarts      int `json:"pump_starts"`
	StopsHighLevel  int `json:"stops_high_level"`
	StopsOverflow   int `json:"stops_overflow"`
	StopsMaxRuntime int `json:"stops_max_runtime"`
	StopsDryRun     int `json:"stops_dry_run"`
	SensorTimeouts  int `json:"sensor_timeouts"`
	PatchesApplied  int `json:"patches_applied"`
	PatchesDropped  int `json:"patches_dropped"`
}

// EventJSON is the JSON representation of one pump transition.
type EventJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Cause     string `json:"cause"`
	Water     int    `json:"water"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	IntervalMs  int64  `json:"interval_ms"`
	Broker      string `json:"broker,omitempty"`
	HTTPAddr    string `json:"http_addr"`
	GPIOChip    string `json:"gpio_chip"`
	TriggerPin  int    `json:"trigger_pin"`
	EchoPin     int    `json:"echo_pin"`
	OverflowPin int    `json:"overflow_pin"`
	PumpPin     int    `json:"pump_pin"`
}

func buildInner(snap Snapshot) StatusInner {
	pump := PumpJSON{State: "OFF"}
	if snap.PumpOn {
		pump.State = "ON"
		if !snap.PumpSince.IsZero() {
			pump.RunningSeconds = int64(snap.Now.Sub(snap.PumpSince).Truncate(time.Second).Seconds())
		}
	}

	var recent []EventJSON
	for _, e := range snap.Recent {
		recent = append(recent, EventJSON{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(e.Type),
			Cause:     string(e.Cause),
			Water:     e.Percent,
		})
	}

	return StatusInner{
		Water: WaterJSON{
			Percent:      snap.Reading.Percent,
			HeightCm:     snap.Reading.HeightCm,
			VolumeLiters: snap.Reading.VolumeLiters,
			DistanceCm:   snap.Reading.DistanceCm,
			Valid:        snap.Reading.Valid,
		},
		Pump:     pump,
		Overflow: snap.Overflow,
		Thresholds: BandJSON{
			LowPercent:  snap.Thresholds.LowPercent,
			HighPercent: snap.Thresholds.HighPercent,
		},
		Tank: TankJSON{
			HeightCm: snap.Geometry.HeightCm,
			RadiusCm: snap.Geometry.RadiusCm,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PumpStarts:      snap.Counts.PumpStarts,
			StopsHighLevel:  snap.Counts.StopsHighLevel,
			StopsOverflow:   snap.Counts.StopsOverflow,
			StopsMaxRuntime: snap.Counts.StopsMaxRuntime,
			StopsDryRun:     snap.Counts.StopsDryRun,
			SensorTimeouts:  snap.Counts.SensorTimeouts,
			PatchesApplied:  snap.Counts.PatchesApplied,
			PatchesDropped:  snap.Counts.PatchesDropped,
		},
		Recent: recent,
		Config: ConfigJSON{
			IntervalMs:  snap.Config.IntervalMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			GPIOChip:    snap.Config.GPIOChip,
			TriggerPin:  snap.Config.TriggerPin,
			EchoPin:     snap.Config.EchoPin,
			OverflowPin: snap.Config.OverflowPin,
			PumpPin:     snap.Config.PumpPin,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
