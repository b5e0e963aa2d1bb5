package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/thermwatch/pkg/channel"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
// Thermistor calibration is fixed at build time and deliberately absent.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Board       BoardConfig       `yaml:"board"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// BoardConfig selects the PCB revision.
type BoardConfig struct {
	Revision string `yaml:"revision"` // "A" (4 channels) or "B" (8 channels)
}

// AcquisitionConfig configures host-side acquisition (thermctl acquire).
type AcquisitionConfig struct {
	ADC           string        `yaml:"adc"`            // "mcp3008", "ads1115" or "sim"
	SPIPort       string        `yaml:"spi_port"`       // periph SPI port name, empty for the first one
	I2CBus        string        `yaml:"i2c_bus"`        // periph I2C bus name, empty for the first one
	SupplyVoltage float64       `yaml:"supply_voltage"` // Divider supply seen by the ADS1115 (V)
	Output        string        `yaml:"output"`         // "-" for stdout, otherwise a serial port
	ChannelDelay  time.Duration `yaml:"channel_delay"`
	CycleDelay    time.Duration `yaml:"cycle_delay"`
}

// MonitorConfig contains host monitor parameters.
type MonitorConfig struct {
	LogFile         string        `yaml:"log_file"`
	WatchdogTimeout time.Duration `yaml:"watchdog_timeout"`
	History         time.Duration `yaml:"history"`
	MinCelsius      int           `yaml:"min_celsius"`      // Lines below are rejected as malformed
	MaxCelsius      int           `yaml:"max_celsius"`      // Lines above are rejected as malformed
	WarnCelsius     int           `yaml:"warn_celsius"`     // Yellow from here
	HotCelsius      int           `yaml:"hot_celsius"`      // Red from here
	ShutdownCelsius int           `yaml:"shutdown_celsius"` // Guard trips above this
	ShutdownCommand []string      `yaml:"shutdown_command"` // Empty: log only
}

// MockConfig contains simulated board configuration.
type MockConfig struct {
	Ambient      float64       `yaml:"ambient"`       // Idle temperature (C)
	LoadRise     float64       `yaml:"load_rise"`     // Temperature rise under load (C)
	LoadDuration time.Duration `yaml:"load_duration"` // Length of a load period
	LoadPeriod   time.Duration `yaml:"load_period"`   // Time between load periods
	ThermalTau   time.Duration `yaml:"thermal_tau"`   // First order thermal time constant
	NoiseLevel   float64       `yaml:"noise_level"`   // Noise amplitude (C)
	Spread       float64       `yaml:"spread"`        // Per-channel offset of the load rise (C)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Board: BoardConfig{
			Revision: "B",
		},
		Acquisition: AcquisitionConfig{
			ADC:           "mcp3008",
			SupplyVoltage: 3.3,
			Output:        "-",
			ChannelDelay:  50 * time.Millisecond,
			CycleDelay:    time.Second,
		},
		Monitor: MonitorConfig{
			LogFile:         "temp_log.txt",
			WatchdogTimeout: 2500 * time.Millisecond,
			History:         10 * time.Minute,
			MinCelsius:      -20,
			MaxCelsius:      150,
			WarnCelsius:     65,
			HotCelsius:      80,
			ShutdownCelsius: 100,
		},
		Mock: MockConfig{
			Ambient:      30,
			LoadRise:     35,
			LoadDuration: 60 * time.Second,
			LoadPeriod:   180 * time.Second,
			ThermalTau:   20 * time.Second,
			NoiseLevel:   0.5,
			Spread:       3,
		},
	}
}

// Revision returns the configured board revision, B when unrecognised.
func (c *Config) Revision() channel.Revision {
	rev, _ := channel.ParseRevision(c.Board.Revision)
	return rev
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

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if _, ok := channel.ParseRevision(c.Board.Revision); !ok {
		c.Board.Revision = def.Board.Revision
	}

	if c.Acquisition.ADC == "" {
		c.Acquisition.ADC = def.Acquisition.ADC
	}
	if c.Acquisition.SupplyVoltage <= 0 {
		c.Acquisition.SupplyVoltage = def.Acquisition.SupplyVoltage
	}
	if c.Acquisition.Output == "" {
		c.Acquisition.Output = def.Acquisition.Output
	}
	if c.Acquisition.CycleDelay == 0 {
		c.Acquisition.CycleDelay = def.Acquisition.CycleDelay
	}

	if c.Monitor.LogFile == "" {
		c.Monitor.LogFile = def.Monitor.LogFile
	}
	if c.Monitor.WatchdogTimeout == 0 {
		c.Monitor.WatchdogTimeout = def.Monitor.WatchdogTimeout
	}
	if c.Monitor.History == 0 {
		c.Monitor.History = def.Monitor.History
	}
	if c.Monitor.MinCelsius == 0 && c.Monitor.MaxCelsius == 0 {
		c.Monitor.MinCelsius = def.Monitor.MinCelsius
		c.Monitor.MaxCelsius = def.Monitor.MaxCelsius
	}
	if c.Monitor.WarnCelsius == 0 {
		c.Monitor.WarnCelsius = def.Monitor.WarnCelsius
	}
	if c.Monitor.HotCelsius == 0 {
		c.Monitor.HotCelsius = def.Monitor.HotCelsius
	}
	if c.Monitor.ShutdownCelsius == 0 {
		c.Monitor.ShutdownCelsius = def.Monitor.ShutdownCelsius
	}

	if c.Mock.LoadPeriod == 0 {
		c.Mock.LoadPeriod = def.Mock.LoadPeriod
	}
	if c.Mock.LoadDuration == 0 {
		c.Mock.LoadDuration = def.Mock.LoadDuration
	}
	if c.Mock.ThermalTau == 0 {
		c.Mock.ThermalTau = def.Mock.ThermalTau
	}
}
