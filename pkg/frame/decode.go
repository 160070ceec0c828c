package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/womat/debug"
)

const (
	// sensorPayloadSize is the exact length of a current sensor values frame:
	// start byte, 8 channels of 3 bytes each, terminator pair.
	sensorPayloadSize = 27

	// channels is the number of remote sensors addressable by DIP switch.
	channels = 8

	// tempAbsentMSB/tempAbsentLSB is the raw word of a channel without a
	// temperature reading, humidityAbsent the byte of one without humidity.
	tempAbsentMSB  = 0x7f
	tempAbsentLSB  = 0xff
	humidityAbsent = 0xff
)

// Record maps channel field keys (t_1..t_8, h_1..h_8) to measured values.
// Channels without a sensor are not present in the record.
type Record map[string]float64

// TemperatureKey returns the record key of a channel's temperature.
func TemperatureKey(ch int) string {
	return fmt.Sprintf("t_%d", ch)
}

// HumidityKey returns the record key of a channel's humidity.
func HumidityKey(ch int) string {
	return fmt.Sprintf("h_%d", ch)
}

// Decode interprets an extracted frame as the response to the given command.
// Only sensor value frames carry a known layout; any other command yields an
// empty record, which is logged but not an error.
//
// Each channel occupies 3 bytes: a big endian signed 16 bit temperature in
// tenths of a degree followed by the humidity percentage. The signed
// interpretation matters, an unsigned conversion turns -5.0 °C into 6548.6.
func Decode(frm []byte, c Command) (Record, error) {
	record := Record{}

	if c != SensorValues {
		debug.DebugLog.Printf("unknown data for command %v: % x", c, frm)
		return record, nil
	}

	if len(frm) != sensorPayloadSize {
		return nil, fmt.Errorf("%w: %d != %d", ErrInvalidPayload, len(frm), sensorPayloadSize)
	}

	for ch := 0; ch < channels; ch++ {
		idx := 1 + ch*3

		if !(frm[idx] == tempAbsentMSB && frm[idx+1] == tempAbsentLSB) {
			record[TemperatureKey(ch+1)] = float64(int16(binary.BigEndian.Uint16(frm[idx:idx+2]))) / 10
		}

		if frm[idx+2] != humidityAbsent {
			record[HumidityKey(ch+1)] = float64(frm[idx+2])
		}
	}

	return record, nil
}
