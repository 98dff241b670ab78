// Package metrics exposes Prometheus instrumentation for the tank controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "watertank"

var (
	WaterLevelPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "water_level_percent",
		Namespace: Namespace,
		Help:      "Current water level as a percentage of tank height.",
	})

	WaterVolumeLiters = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "water_volume_liters",
		Namespace: Namespace,
		Help:      "Estimated water volume in liters.",
	})

	PumpRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "pump_running",
		Namespace: Namespace,
		Help:      "Whether the pump relay is energized (1) or not (0).",
	})

	OverflowTriggered = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "overflow_triggered",
		Namespace: Namespace,
		Help:      "Whether the top float switch is triggered (1) or not (0).",
	})

	MQTTConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "mqtt_connected",
		Namespace: Namespace,
		Help:      "Whether the MQTT broker connection is up (1) or not (0).",
	})

	PumpStartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "pump_starts_total",
		Namespace: Namespace,
		Help:      "The total number of pump starts since the application started.",
	})

	PumpStopsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "pump_stops_total",
		Namespace: Namespace,
		Help:      "The total number of pump stops since the application started, by cause.",
	},
		[]string{"cause"},
	)

	SensorTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "sensor_timeouts_total",
		Namespace: Namespace,
		Help:      "The total number of ultrasonic echo timeouts since the application started.",
	})

	ConfigPatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "config_patches_total",
		Namespace: Namespace,
		Help:      "The total number of runtime configuration patches received, by result.",
	},
		[]string{"result"},
	)
)
