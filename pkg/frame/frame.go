// Package frame implements the WS-3000 console protocol: command framing,
// response frame extraction and decoding of the current sensor values record.
package frame

import (
	"errors"
	"fmt"
)

// Command identifies a console request.
type Command byte

// The commands understood by the WS-3000 console. Only SensorValues is
// requested by the datalogger, the remaining codes are part of the console
// protocol and kept for reference and logging.
const (
	SensorValues        Command = 0x03
	DeviceConfiguration Command = 0x04
	CalibrationValues   Command = 0x05
	Unknown             Command = 0x06
	TempAlarmConfig     Command = 0x08
	HumidityAlarmConfig Command = 0x09
	IntervalValue       Command = 0x41
)

const (
	// startByte opens every frame exchanged with the console.
	startByte = 0x7b

	// terminator1/terminator2 mark the end of data within a buffer.
	// The console reuses its transfer buffer, everything after the
	// terminator pair is stale data of a previous response.
	terminator1 = 0x40
	terminator2 = 0x7d
)

var (
	ErrInvalidSize    = errors.New("invalid buffer size")
	ErrInvalidStart   = errors.New("invalid start byte")
	ErrNoTerminator   = errors.New("no terminating bytes in buffer")
	ErrInvalidPayload = errors.New("invalid payload length")
)

// String returns the protocol name of the command.
func (c Command) String() string {
	switch c {
	case SensorValues:
		return "sensor_values"
	case DeviceConfiguration:
		return "device_configuration"
	case CalibrationValues:
		return "calibration_values"
	case Unknown:
		return "unknown"
	case TempAlarmConfig:
		return "temp_alarm_configuration"
	case HumidityAlarmConfig:
		return "humidity_alarm_configuration"
	case IntervalValue:
		return "interval_value"
	}
	return fmt.Sprintf("0x%02x", byte(c))
}

// BuildCommand returns the 4 byte request sequence for a console command.
func BuildCommand(c Command) []byte {
	return []byte{startByte, byte(c), terminator1, terminator2}
}

// Extract validates a raw transfer buffer and cuts out the frame up to and
// including the terminator pair. The console always answers with packetSize
// bytes, a shorter buffer is a truncated transfer and is dropped.
func Extract(buf []byte, packetSize int) ([]byte, error) {
	if len(buf) != packetSize {
		return nil, fmt.Errorf("%w: %d != %d", ErrInvalidSize, len(buf), packetSize)
	}

	if buf[0] != startByte {
		return nil, fmt.Errorf("%w: 0x%02x != 0x%02x", ErrInvalidStart, buf[0], startByte)
	}

	for i := 0; i < len(buf)-1; i++ {
		if buf[i] == terminator1 && buf[i+1] == terminator2 {
			return buf[:i+2], nil
		}
	}

	return nil, ErrNoTerminator
}
