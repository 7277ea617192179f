// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Session SessionConfig `yaml:"session"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
	Monitor MonitorConfig `yaml:"monitor"`

	// Optional sinks. Nil means disabled.
	Mirror *MirrorConfig `yaml:"mirror"`
	Redis  *RedisConfig  `yaml:"redis"`
}

// ---- SESSION ----

type SessionConfig struct {
	Port               string `yaml:"port"`
	Driver             string `yaml:"driver"`
	BaudRate           int    `yaml:"baud_rate"`
	SamplingIntervalMs int    `yaml:"sampling_interval_ms"`
	DeviceAddress      uint8  `yaml:"device_address"`

	// Caller-side restart after a fault. 0 = never.
	RestartDelayMs int `yaml:"restart_delay_ms"`
}

// ---- ENGINE TIMING / POLICY ----

type EngineConfig struct {
	ProbeCommand         uint8 `yaml:"probe_command"`
	ProbeParameter       uint8 `yaml:"probe_parameter"`
	ProbeTimeoutMs       int   `yaml:"probe_timeout_ms"`
	ResponseTimeoutMs    int   `yaml:"response_timeout_ms"`
	PollGranularityMs    int   `yaml:"poll_granularity_ms"`
	MaxConsecutiveMisses int   `yaml:"max_consecutive_misses"`
	StaleAfterMs         int   `yaml:"stale_after_ms"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// ---- METRICS ----

type MonitorConfig struct {
	Enabled     bool `yaml:"enabled"`
	MetricsPort int  `yaml:"metrics_port"`
}

// ---- SINKS ----

// MirrorConfig places the device status block in Modbus TCP holding registers.
type MirrorConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot"`
	DeviceName string `yaml:"device_name"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// Load reads and decodes a YAML config file. It does not validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	return &cfg, nil
}
