package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// Operational modes of the station data source.
const (
	ModeHardware   = "hardware"
	ModeSimulation = "simulation"
)

// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	Flag      FlagConfig      `yaml:"-"`
	Debug     DebugConfig     `yaml:"debug"`
	Station   StationConfig   `yaml:"station"`
	Webserver WebserverConfig `yaml:"webserver"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// FlagConfig defines the configured command line flags.
type FlagConfig struct {
	ConfigFile string
	LogLevel   string
}

// StationConfig defines the WS-3000 console connection parameters.
// Durations are written to the config file as plain numbers (milliseconds
// for the usb timeout, seconds for the rest) and derived on load.
type StationConfig struct {
	Model string `yaml:"model"`
	// Mode selects the data source: hardware or simulation.
	Mode string `yaml:"mode"`

	VendorID   uint16 `yaml:"vendorid"`
	ProductID  uint16 `yaml:"productid"`
	Interface  int    `yaml:"interface"`
	PacketSize int    `yaml:"packetsize"`

	TimeoutInt         int           `yaml:"timeout"`
	Timeout            time.Duration `yaml:"-"`
	WaitBeforeRetrySec float64       `yaml:"waitbeforeretry"`
	WaitBeforeRetry    time.Duration `yaml:"-"`
	MaxTries           int           `yaml:"maxtries"`
	LoopIntervalInt    int           `yaml:"loopinterval"`
	LoopInterval       time.Duration `yaml:"-"`

	// SensorMap overrides entries of the default destination field mapping.
	SensorMap map[string]string `yaml:"sensormap"`
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection string `yaml:"connection"`
	Topic      string `yaml:"topic"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

// NewConfig returns the config structure with the WS-3000 defaults. The usb
// timeout default of 1000 ms is intentionally large, short timeouts are
// unreliable on constrained hosts like a Raspberry Pi.
func NewConfig() *Config {
	return &Config{
		Flag: FlagConfig{},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Station: StationConfig{
			Model:              "WS3000",
			Mode:               ModeHardware,
			VendorID:           0x0483,
			ProductID:          0x5750,
			Interface:          0,
			PacketSize:         64,
			TimeoutInt:         1000,
			WaitBeforeRetrySec: 5.0,
			MaxTries:           3,
			LoopIntervalInt:    10,
			SensorMap:          map[string]string{},
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"data":    true,
			},
		},
		MQTT: MQTTConfig{
			Connection: "tcp://127.0.0.1:1883",
			Topic:      "/weather/ws3000",
		},
	}
}

// LoadConfig reads the configuration file and derives the duration fields.
func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.LogLevel != "" {
		c.Debug.FlagString = c.Flag.LogLevel
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	c.Station.Timeout = time.Duration(c.Station.TimeoutInt) * time.Millisecond
	c.Station.WaitBeforeRetry = time.Duration(c.Station.WaitBeforeRetrySec * float64(time.Second))
	c.Station.LoopInterval = time.Duration(c.Station.LoopIntervalInt) * time.Second

	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
