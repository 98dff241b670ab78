// Command tank-controller measures the tank water level, drives the pump
// relay, and serves telemetry over HTTP, WebSocket, and MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/config"
	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/gpio"
	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/logic"
	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/metrics"
	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/mqtt"
	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/status"
	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/web"
)

// patchQueueSize bounds configuration patches waiting for the control loop.
const patchQueueSize = 16

func main() {
	configPath := flag.String("config", "/etc/tank-controller.yaml", "YAML configuration file")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config)")
	broker := flag.String("broker", "", `MQTT broker address (overrides config; "off" disables)`)
	interval := flag.Duration("interval", 0, "Control loop interval (overrides config)")
	printReading := flag.Bool("print-reading", false, "Measure once, print the reading, and exit")
	initConfig := flag.Bool("init-config", false, "Write the default configuration file and exit")

	flag.Parse()

	if *initConfig {
		if err := config.Default().Save(*configPath); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		fmt.Printf("wrote default configuration to %s\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	applyOverrides(cfg, *httpAddr, *broker, *interval)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid configuration: %v", err)
	}

	if err := run(cfg, *printReading); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyOverrides lets command-line flags take precedence over file values.
// A zero value leaves the file value in place; broker "off" disables MQTT,
// since the empty string already means "use the file value".
func applyOverrides(cfg *config.Config, httpAddr, broker string, interval time.Duration) {
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	switch broker {
	case "":
	case "off":
		cfg.MQTT.Broker = ""
	default:
		cfg.MQTT.Broker = broker
	}
	if interval > 0 {
		cfg.Control.Interval = interval
	}
}

func run(cfg *config.Config, printReading bool) error {
	// Initialize GPIO
	sensor, err := gpio.NewRealRangeSensor(cfg.GPIO.Chip, cfg.GPIO.TriggerPin, cfg.GPIO.EchoPin)
	if err != nil {
		return fmt.Errorf("init range sensor: %w", err)
	}
	defer sensor.Close()

	// Print reading mode
	if printReading {
		distance, err := sensor.MeasureDistance()
		if err != nil {
			return fmt.Errorf("measure: %w", err)
		}
		reading := logic.Estimate(distance, logic.Geometry{HeightCm: cfg.Tank.HeightCm, RadiusCm: cfg.Tank.RadiusCm})
		fmt.Printf("distance: %.1f cm, water: %d%% (%.1f cm, %.1f L)\n",
			reading.DistanceCm, reading.Percent, reading.HeightCm, reading.VolumeLiters)
		return nil
	}

	overflow, err := gpio.NewRealOverflowSensor(cfg.GPIO.Chip, cfg.GPIO.OverflowPin)
	if err != nil {
		return fmt.Errorf("init overflow sensor: %w", err)
	}
	defer overflow.Close()

	// The relay line is requested driven low, so the pump is off before
	// the first decision runs.
	relay, err := gpio.NewRealPumpRelay(cfg.GPIO.Chip, cfg.GPIO.PumpPin)
	if err != nil {
		return fmt.Errorf("init pump relay: %w", err)
	}
	defer relay.Close()

	// Live settings seeded from the boot configuration
	settings := config.NewSettings(
		logic.Geometry{HeightCm: cfg.Tank.HeightCm, RadiusCm: cfg.Tank.RadiusCm},
		logic.NewThresholds(cfg.Control.LowThresholdPercent),
	)
	geometry, thresholds := settings.Snapshot()

	tracker := status.NewTracker(time.Now(), status.Config{
		IntervalMs:  cfg.Control.Interval.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		GPIOChip:    cfg.GPIO.Chip,
		TriggerPin:  cfg.GPIO.TriggerPin,
		EchoPin:     cfg.GPIO.EchoPin,
		OverflowPin: cfg.GPIO.OverflowPin,
		PumpPin:     cfg.GPIO.PumpPin,
	}, geometry, thresholds)

	// Patch queue: the web socket, POST /config, and MQTT all feed it;
	// only the control loop consumes it.
	patches := make(chan config.Patch, patchQueueSize)

	// Start the web gateway
	var broadcast func([]byte)
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, patches)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		broadcast = srv.Broadcast
		log.Printf("http server listening on %s", cfg.HTTP.Addr)
	}

	// Initialize MQTT (empty broker = local-only mode)
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, func(payload []byte) {
			enqueuePatch(payload, patches, tracker)
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer real.Close()
		publisher = real
		mqttStatus = real

		// Publish startup event with full status snapshot
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	} else {
		log.Printf("mqtt disabled (no broker configured)")
	}

	log.Printf("started: interval=%v threshold=%d%% tank=%.0fx%.0fcm broker=%q",
		cfg.Control.Interval, cfg.Control.LowThresholdPercent, cfg.Tank.HeightCm, cfg.Tank.RadiusCm, cfg.MQTT.Broker)

	ticker := time.NewTicker(cfg.Control.Interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(sensor, overflow, relay, settings, tracker, publisher, mqttStatus, broadcast, patches, time.Now, ticker.C, sigCh)
}

// enqueuePatch parses and queues a patch received over MQTT. Runs on the
// paho client's goroutine; the queue send must not block it.
func enqueuePatch(payload []byte, patches chan<- config.Patch, tracker *status.Tracker) {
	patch, err := config.ParsePatch(payload)
	if err != nil {
		log.Printf("mqtt: discarding malformed patch: %v", err)
		tracker.RecordPatchDropped()
		metrics.ConfigPatchesTotal.WithLabelValues("dropped").Inc()
		return
	}
	select {
	case patches <- patch:
	default:
		log.Printf("mqtt: patch queue full, dropping %s", patch)
		tracker.RecordPatchDropped()
		metrics.ConfigPatchesTotal.WithLabelValues("dropped").Inc()
	}
}

// runLoop is the single writer for the relay, the controller, and the live
// settings. publisher, mqttStatus, and broadcast may be nil when the
// corresponding gateway is disabled.
func runLoop(sensor gpio.RangeSensor, overflow gpio.OverflowSensor, relay gpio.PumpRelay, settings *config.Settings, tracker *status.Tracker, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, broadcast func([]byte), patches <-chan config.Patch, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	controller := logic.NewController(settings.Thresholds())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)

			// Pump off before anything that could fail.
			if err := relay.Set(false); err != nil {
				log.Printf("pump off on shutdown: %v", err)
			}

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  now(),
					Event:      "SHUTDOWN",
					Reason:     signalName,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case patch := <-patches:
			changed := settings.Apply(patch)
			geometry, thresholds := settings.Snapshot()
			controller.SetThresholds(thresholds)
			// The tracker must see the new values now, not on the next
			// tick: the out-of-cycle report below is how the sender
			// observes its own change.
			tracker.UpdateSettings(geometry, thresholds)
			tracker.RecordPatchApplied()
			metrics.ConfigPatchesTotal.WithLabelValues("applied").Inc()
			if changed {
				log.Printf("config patch applied: %s", patch)
			} else {
				log.Printf("config patch applied: %s (no change)", patch)
			}
			// Any accepted patch earns an immediate report, even one
			// that changed nothing.
			publishReport(tracker, broadcast, publisher)

		case <-tick:
			t := now()
			geometry := settings.Geometry()

			distance, err := sensor.MeasureDistance()
			if err != nil {
				// A failed measurement reads as an empty tank. If that
				// starts the pump against a dead sensor, the dry-run
				// cutoff stops it within the grace window.
				log.Printf("sensor error: %v", err)
				distance = logic.OutOfRangeDistance(geometry)
				tracker.RecordSensorTimeout()
				metrics.SensorTimeoutsTotal.Inc()
			}
			reading := logic.Estimate(distance, geometry)

			topTriggered, err := overflow.Triggered()
			if err != nil {
				// An unreadable switch counts as a full tank.
				log.Printf("overflow switch error: %v", err)
				topTriggered = true
			}

			on, event := controller.Process(logic.Input{
				Percent:  reading.Percent,
				Overflow: topTriggered,
				Time:     t,
			})

			// Commanded every tick; the relay skips no-op writes.
			if err := relay.Set(on); err != nil {
				log.Printf("relay error: %v", err)
			}

			if event != nil {
				log.Printf("event: %s cause=%s water=%d%%", event.Type, event.Cause, event.Percent)
				tracker.RecordEvent(*event)
				switch event.Type {
				case logic.EventPumpOn:
					metrics.PumpStartsTotal.Inc()
				case logic.EventPumpOff:
					metrics.PumpStopsTotal.WithLabelValues(string(event.Cause)).Inc()
				}
				if publisher != nil {
					if err := publisher.PublishEvent(*event); err != nil {
						log.Printf("publish error: %v", err)
						// Don't crash on publish failure
					}
				}
			}

			connected := false
			if mqttStatus != nil {
				connected = mqttStatus.IsConnected()
			}
			tracker.UpdateTick(reading, on, controller.Pump().StartedAt, topTriggered, geometry, controller.Thresholds())
			tracker.SetMQTTConnected(connected)

			metrics.WaterLevelPercent.Set(float64(reading.Percent))
			metrics.WaterVolumeLiters.Set(reading.VolumeLiters)
			metrics.PumpRunning.Set(boolGauge(on))
			metrics.OverflowTriggered.Set(boolGauge(topTriggered))
			metrics.MQTTConnected.Set(boolGauge(connected))

			publishReport(tracker, broadcast, publisher)
		}
	}
}

// publishReport pushes the current flat report to every gateway listener:
// connected websocket clients and the MQTT status topic.
func publishReport(tracker *status.Tracker, broadcast func([]byte), publisher mqtt.Publisher) {
	report := status.FormatReport(tracker.Snapshot())
	if broadcast != nil {
		broadcast(report)
	}
	if publisher != nil {
		if err := publisher.PublishStatus(report); err != nil {
			log.Printf("status publish error: %v", err)
		}
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
