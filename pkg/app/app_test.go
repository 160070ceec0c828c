package app

import (
	"errors"
	"os"
	"testing"

	"ws3000/pkg/app/config"
	"ws3000/pkg/ws3000"

	"github.com/womat/debug"
)

func TestMain(m *testing.M) {
	debug.SetDebug(os.Stderr, 0)
	os.Exit(m.Run())
}

// TestCloseAfterFailedOpen: when the initial open fails (no device on the
// bus) the app must come down cleanly with the open error. The data source
// must stay nil so the cleanup path does not call into a station that never
// existed.
func TestCloseAfterFailedOpen(t *testing.T) {
	cfg := config.NewConfig() // default mode is hardware

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	dialErr := errors.New("usb device not found")
	a.dial = func() (ws3000.Transport, error) {
		return nil, dialErr
	}

	if err := a.init(); !errors.Is(err, dialErr) {
		t.Fatalf("init() error = %v, want %v", err, dialErr)
	}
	if a.source != nil {
		t.Fatal("source is not nil after a failed open")
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

// TestOpenSourceSimulation: simulation mode needs no usb device at all.
func TestOpenSourceSimulation(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Station.Mode = config.ModeSimulation

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	src, err := a.openSource()
	if err != nil {
		t.Fatalf("openSource() error = %v", err)
	}
	if src == nil {
		t.Fatal("openSource() returned no data source")
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
