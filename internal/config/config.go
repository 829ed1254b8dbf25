// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/output"
)

// GloveConfig selects the physical glove link or the simulator.
type GloveConfig struct {
	SerialPort string `yaml:"serial_port"`
	BaudRate   uint   `yaml:"baud_rate"`
	Simulated  bool   `yaml:"simulated"`
}

// SamplingConfig sets the scheduler tick and per-modality rates.
type SamplingConfig struct {
	TickMs         int `yaml:"tick_ms"`
	FlexRateHz     int `yaml:"flex_rate_hz"`
	InertialRateHz int `yaml:"inertial_rate_hz"`
	CameraRateHz   int `yaml:"camera_rate_hz"`
	TouchRateHz    int `yaml:"touch_rate_hz"`
}

// CameraConfig controls the optional vision modality.
type CameraConfig struct {
	Enabled  bool `yaml:"enabled"`
	DeviceID int  `yaml:"device_id"`
}

// TouchConfig controls the touch modality.
type TouchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FusionConfig tunes the orientation correction.
type FusionConfig struct {
	Damping float64 `yaml:"damping"`
}

// DetectionConfig tunes matching and emission.
type DetectionConfig struct {
	Threshold  float64 `yaml:"threshold"`
	DebounceMs int     `yaml:"debounce_ms"`
}

// OutputConfig selects the startup output mode.
type OutputConfig struct {
	Mode string `yaml:"mode"`
}

// ServerConfig sets the HTTP listener.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// MQTTConfig enables telemetry publishing.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// StoreConfig sets the database location. An empty path defers to the
// per-user default under the home directory.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// TrayConfig enables the desktop tray icon.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the top-level structure of mudra.yaml.
type Config struct {
	Glove     GloveConfig     `yaml:"glove"`
	Sampling  SamplingConfig  `yaml:"sampling"`
	Camera    CameraConfig    `yaml:"camera"`
	Touch     TouchConfig     `yaml:"touch"`
	Fusion    FusionConfig    `yaml:"fusion"`
	Detection DetectionConfig `yaml:"detection"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Store     StoreConfig     `yaml:"store"`
	Tray      TrayConfig      `yaml:"tray"`
}

// Default returns the configuration used when no file is given. The camera
// starts disabled and touch enabled, matching the glove's shipping setup.
func Default() Config {
	return Config{
		Glove: GloveConfig{
			SerialPort: "/dev/ttyUSB0",
			BaudRate:   115200,
		},
		Sampling: SamplingConfig{
			TickMs:         5,
			FlexRateHz:     50,
			InertialRateHz: 100,
			CameraRateHz:   15,
			TouchRateHz:    20,
		},
		Camera: CameraConfig{Enabled: false, DeviceID: 0},
		Touch:  TouchConfig{Enabled: true},
		Fusion: FusionConfig{Damping: 0.1},
		Detection: DetectionConfig{
			Threshold:  0.7,
			DebounceMs: 500,
		},
		Output: OutputConfig{Mode: string(output.ModeText)},
		Server: ServerConfig{Addr: ":8080"},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "mudra",
			TopicPrefix: "mudra",
		},
	}
}

// Load reads the YAML file at path over the defaults, so absent keys keep
// their default values. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if !c.Glove.Simulated {
		if c.Glove.SerialPort == "" {
			return fmt.Errorf("glove: serial_port required unless simulated")
		}
		if c.Glove.BaudRate == 0 {
			return fmt.Errorf("glove: baud_rate required unless simulated")
		}
	}
	if c.Sampling.TickMs <= 0 {
		return fmt.Errorf("sampling: tick_ms must be positive")
	}
	for name, rate := range map[string]int{
		"flex_rate_hz":     c.Sampling.FlexRateHz,
		"inertial_rate_hz": c.Sampling.InertialRateHz,
		"camera_rate_hz":   c.Sampling.CameraRateHz,
		"touch_rate_hz":    c.Sampling.TouchRateHz,
	} {
		if rate <= 0 {
			return fmt.Errorf("sampling: %s must be positive", name)
		}
	}
	if c.Camera.DeviceID < 0 {
		return fmt.Errorf("camera: device_id must not be negative")
	}
	if c.Fusion.Damping <= 0 || c.Fusion.Damping > 0.1 {
		return fmt.Errorf("fusion: damping must be in (0, 0.1]")
	}
	if c.Detection.Threshold <= 0 || c.Detection.Threshold > 1 {
		return fmt.Errorf("detection: threshold must be in (0, 1]")
	}
	if c.Detection.DebounceMs <= 0 {
		return fmt.Errorf("detection: debounce_ms must be positive")
	}
	if _, err := output.ParseMode(c.Output.Mode); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server: addr required")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt: broker required when enabled")
		}
		if c.MQTT.ClientID == "" {
			return fmt.Errorf("mqtt: client_id required when enabled")
		}
	}
	return nil
}
