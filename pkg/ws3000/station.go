// Package ws3000 implements the reading session against the WS-3000 console:
// one command/response/decode cycle per attempt, wrapped in a bounded retry
// and reconnect policy that tolerates the console hanging at the link level.
package ws3000

import (
	"errors"
	"fmt"
	"time"

	"ws3000/pkg/frame"

	"github.com/womat/debug"
)

var (
	// ErrRetriesExceeded is terminal: MaxTries attempts failed and the
	// session is dead. The caller must stop polling or escalate.
	ErrRetriesExceeded = errors.New("max retries exceeded while fetching usb reports")
	// ErrNoData is a read that completed without returning any bytes.
	// An unanswered request is a failed attempt, not an empty success.
	ErrNoData = errors.New("no data received from the station")
	// ErrLinkDown means the previous reconnect failed and there is no open
	// link to talk to.
	ErrLinkDown = errors.New("usb link is not open")
)

// State tracks the reading session through one request cycle.
type State int

const (
	// Idle: no request in flight.
	Idle State = iota
	// Requesting: command sent, waiting for a decodable response.
	Requesting
	// Retrying: the attempt failed, the link is torn down and rebuilt.
	Retrying
	// Exhausted: MaxTries attempts failed, the session is dead.
	Exhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Retrying:
		return "retrying"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transport is the bulk transfer link to the console. Implemented by
// usb.Link; tests substitute fakes.
type Transport interface {
	Write(p []byte) (int, error)
	Read(max int) ([]byte, error)
	Close() error
}

// DialFunc opens a fresh Transport. It is called once on Connect and again
// on every reconnect while retrying.
type DialFunc func() (Transport, error)

// Config are the reading session parameters, populated from the station
// section of the configuration file.
type Config struct {
	Model           string
	MaxTries        int
	WaitBeforeRetry time.Duration
	PacketSize      int
	SensorMap       SensorMap
}

// Station is one logical reading session. It exclusively owns its link and
// is not safe for concurrent use.
type Station struct {
	Config

	dial  DialFunc
	link  Transport
	state State
}

// Connect opens the initial link to the console. Unlike the retry path a
// failure here is fatal, there is no device to retry against.
func Connect(cfg Config, dial DialFunc) (*Station, error) {
	link, err := dial()
	if err != nil {
		return nil, err
	}

	return &Station{
		Config: cfg,
		dial:   dial,
		link:   link,
		state:  Idle,
	}, nil
}

// State returns the current session state.
func (s *Station) State() State {
	return s.state
}

// GetCurrentValues runs request cycles until a sensor record is decoded or
// MaxTries attempts failed. Between attempts the link is fully closed and
// reopened: the observed failure mode is the console becoming unresponsive
// at the link level, not a lost packet, so resending on the same handle
// would not recover it.
func (s *Station) GetCurrentValues() (Packet, error) {
	// Exhausted is sticky: a dead session stays dead until the caller
	// builds a new one.
	if s.state == Exhausted {
		return Packet{}, ErrRetriesExceeded
	}

	for try := 0; try < s.MaxTries; try++ {
		s.state = Requesting

		record, err := s.request(frame.SensorValues)
		if err == nil {
			s.state = Idle
			return s.SensorMap.Apply(record, time.Now(), MetricWX), nil
		}

		debug.ErrorLog.Printf("attempt %d/%d failed: %v", try+1, s.MaxTries, err)

		s.state = Retrying
		s.reconnect()
		time.Sleep(s.WaitBeforeRetry)
	}

	s.state = Exhausted
	debug.ErrorLog.Print("max retries exceeded while fetching usb reports")
	return Packet{}, ErrRetriesExceeded
}

// request performs one command/response/decode cycle.
func (s *Station) request(cmd frame.Command) (frame.Record, error) {
	if s.link == nil {
		return nil, ErrLinkDown
	}

	debug.DebugLog.Printf("sending request for %v", cmd)
	if _, err := s.link.Write(frame.BuildCommand(cmd)); err != nil {
		return nil, fmt.Errorf("write %v command: %w", cmd, err)
	}

	buf, err := s.link.Read(s.PacketSize)
	if err != nil {
		return nil, fmt.Errorf("read %v response: %w", cmd, err)
	}
	if len(buf) == 0 {
		return nil, ErrNoData
	}

	frm, err := frame.Extract(buf, s.PacketSize)
	if err != nil {
		return nil, err
	}

	return frame.Decode(frm, cmd)
}

// reconnect tears the link down and dials a new one, including a full device
// reset and endpoint re-enumeration. A failed dial leaves the station without
// a link; the next attempt reports that and counts as failed.
func (s *Station) reconnect() {
	if s.link != nil {
		_ = s.link.Close()
		s.link = nil
	}

	link, err := s.dial()
	if err != nil {
		debug.ErrorLog.Printf("reconnect: %v", err)
		return
	}
	s.link = link
}

// Close releases the link.
func (s *Station) Close() error {
	if s.link == nil {
		return nil
	}

	err := s.link.Close()
	s.link = nil
	return err
}
