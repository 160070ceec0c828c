package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	stn := cfg.Station
	if stn.Model != "WS3000" {
		t.Errorf("Model = %q, want WS3000", stn.Model)
	}
	if stn.Mode != ModeHardware {
		t.Errorf("Mode = %q, want %q", stn.Mode, ModeHardware)
	}
	if stn.VendorID != 0x0483 || stn.ProductID != 0x5750 {
		t.Errorf("ids = 0x%04x/0x%04x, want 0x0483/0x5750", stn.VendorID, stn.ProductID)
	}
	if stn.Interface != 0 {
		t.Errorf("Interface = %d, want 0", stn.Interface)
	}
	if stn.PacketSize != 64 {
		t.Errorf("PacketSize = %d, want 64", stn.PacketSize)
	}
	if stn.TimeoutInt != 1000 {
		t.Errorf("TimeoutInt = %d, want 1000", stn.TimeoutInt)
	}
	if stn.WaitBeforeRetrySec != 5.0 {
		t.Errorf("WaitBeforeRetrySec = %v, want 5.0", stn.WaitBeforeRetrySec)
	}
	if stn.MaxTries != 3 {
		t.Errorf("MaxTries = %d, want 3", stn.MaxTries)
	}
	if stn.LoopIntervalInt != 10 {
		t.Errorf("LoopIntervalInt = %d, want 10", stn.LoopIntervalInt)
	}
}

func TestLoadConfig(t *testing.T) {
	content := `
station:
  model: WS3000-X5
  mode: simulation
  vendorid: 0x1234
  productid: 0x5678
  timeout: 2000
  waitbeforeretry: 0.5
  maxtries: 5
  loopinterval: 30
  sensormap:
    inTemp: t_1
mqtt:
  connection: tcp://broker:1883
  topic: /weather/test
`
	file := filepath.Join(t.TempDir(), "ws3000.yaml")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	cfg.Flag.ConfigFile = file
	if err := cfg.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	stn := cfg.Station
	if stn.Model != "WS3000-X5" {
		t.Errorf("Model = %q, want WS3000-X5", stn.Model)
	}
	if stn.Mode != ModeSimulation {
		t.Errorf("Mode = %q, want %q", stn.Mode, ModeSimulation)
	}
	if stn.VendorID != 0x1234 || stn.ProductID != 0x5678 {
		t.Errorf("ids = 0x%04x/0x%04x, want 0x1234/0x5678", stn.VendorID, stn.ProductID)
	}
	if stn.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", stn.Timeout)
	}
	if stn.WaitBeforeRetry != 500*time.Millisecond {
		t.Errorf("WaitBeforeRetry = %v, want 500ms", stn.WaitBeforeRetry)
	}
	if stn.MaxTries != 5 {
		t.Errorf("MaxTries = %d, want 5", stn.MaxTries)
	}
	if stn.LoopInterval != 30*time.Second {
		t.Errorf("LoopInterval = %v, want 30s", stn.LoopInterval)
	}
	if stn.SensorMap["inTemp"] != "t_1" {
		t.Errorf("SensorMap = %v, want inTemp -> t_1", stn.SensorMap)
	}

	// values absent from the file keep their defaults
	if stn.PacketSize != 64 {
		t.Errorf("PacketSize = %d, want default 64", stn.PacketSize)
	}
	if stn.Interface != 0 {
		t.Errorf("Interface = %d, want default 0", stn.Interface)
	}

	if cfg.MQTT.Connection != "tcp://broker:1883" {
		t.Errorf("MQTT.Connection = %q", cfg.MQTT.Connection)
	}
	if cfg.MQTT.Topic != "/weather/test" {
		t.Errorf("MQTT.Topic = %q", cfg.MQTT.Topic)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := NewConfig()
	cfg.Flag.ConfigFile = filepath.Join(t.TempDir(), "does-not-exist.yaml")

	if err := cfg.LoadConfig(); err == nil {
		t.Fatal("LoadConfig() expected an error for a missing file")
	}
}

func TestLogLevelFlagOverride(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ws3000.yaml")
	if err := os.WriteFile(file, []byte("debug:\n  flag: standard\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	cfg.Flag.ConfigFile = file
	cfg.Flag.LogLevel = "trace"
	if err := cfg.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Debug.FlagString != "trace" {
		t.Errorf("Debug.FlagString = %q, want trace", cfg.Debug.FlagString)
	}
}
