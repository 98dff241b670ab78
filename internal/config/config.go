// Package config holds the daemon configuration: the YAML file read at
// startup and the runtime-mutable settings that inbound patches update.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	Tank    TankConfig    `yaml:"tank"`
	Control ControlConfig `yaml:"control"`
}

// HTTPConfig contains the status server configuration.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// MQTTConfig contains the broker connection configuration.
type MQTTConfig struct {
	Broker string `yaml:"broker"` // empty disables MQTT
}

// GPIOConfig contains chip name and BCM pin assignments.
type GPIOConfig struct {
	Chip        string `yaml:"chip"`
	TriggerPin  int    `yaml:"trigger_pin"`
	EchoPin     int    `yaml:"echo_pin"`
	OverflowPin int    `yaml:"overflow_pin"`
	PumpPin     int    `yaml:"pump_pin"`
}

// TankConfig contains the tank geometry at boot. Patches update the live
// copy only; the file is never rewritten behind the operator's back.
type TankConfig struct {
	HeightCm float64 `yaml:"height_cm"`
	RadiusCm float64 `yaml:"radius_cm"`
}

// ControlConfig contains the control loop parameters.
type ControlConfig struct {
	LowThresholdPercent int           `yaml:"low_threshold_percent"`
	Interval            time.Duration `yaml:"interval"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr: ":80",
		},
		MQTT: MQTTConfig{
			Broker: "", // local-only unless pointed at a broker
		},
		GPIO: GPIOConfig{
			Chip:        "gpiochip0",
			TriggerPin:  23,
			EchoPin:     24,
			OverflowPin: 17,
			PumpPin:     27,
		},
		Tank: TankConfig{
			HeightCm: 100,
			RadiusCm: 30,
		},
		Control: ControlConfig{
			LowThresholdPercent: 30,
			Interval:            time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects configurations the control loop cannot run with.
func (c *Config) Validate() error {
	if c.Tank.HeightCm <= 0 {
		return fmt.Errorf("tank height must be positive, got %v", c.Tank.HeightCm)
	}
	if c.Tank.RadiusCm <= 0 {
		return fmt.Errorf("tank radius must be positive, got %v", c.Tank.RadiusCm)
	}
	if c.Control.LowThresholdPercent < 0 || c.Control.LowThresholdPercent > 100 {
		return fmt.Errorf("low threshold must be within [0, 100], got %d", c.Control.LowThresholdPercent)
	}
	if c.Control.Interval <= 0 {
		return fmt.Errorf("control interval must be positive, got %v", c.Control.Interval)
	}
	return nil
}

// ensureDefaults fills fields whose zero value is never a usable setting.
// An explicit threshold of 0 is legal (never auto-start) and left alone.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if c.GPIO.TriggerPin == 0 {
		c.GPIO.TriggerPin = def.GPIO.TriggerPin
	}
	if c.GPIO.EchoPin == 0 {
		c.GPIO.EchoPin = def.GPIO.EchoPin
	}
	if c.GPIO.OverflowPin == 0 {
		c.GPIO.OverflowPin = def.GPIO.OverflowPin
	}
	if c.GPIO.PumpPin == 0 {
		c.GPIO.PumpPin = def.GPIO.PumpPin
	}

	if c.Tank.HeightCm == 0 {
		c.Tank.HeightCm = def.Tank.HeightCm
	}
	if c.Tank.RadiusCm == 0 {
		c.Tank.RadiusCm = def.Tank.RadiusCm
	}

	if c.Control.Interval == 0 {
		c.Control.Interval = def.Control.Interval
	}
}
