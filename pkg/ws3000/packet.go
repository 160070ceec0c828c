package ws3000

import (
	"fmt"
	"time"

	"ws3000/pkg/frame"
)

// MetricWX is the units tag attached to every packet: temperatures in °C,
// humidity in percent.
const MetricWX = "metricwx"

// SensorMap assigns channel field keys (t_1..t_8, h_1..h_8) to the
// destination field names of the output packet.
type SensorMap map[string]string

// DefaultSensorMap places all 8 channels on the extraTemp/extraHumid fields.
// The WS-3000 is typically a secondary station extending a primary one with
// additional sensors, so the usual inTemp/outTemp fields are left alone.
func DefaultSensorMap() SensorMap {
	m := make(SensorMap, 16)
	for ch := 1; ch <= 8; ch++ {
		m[fmt.Sprintf("extraTemp%d", ch)] = frame.TemperatureKey(ch)
		m[fmt.Sprintf("extraHumid%d", ch)] = frame.HumidityKey(ch)
	}
	return m
}

// Merge replaces entries of the map with configured overrides.
func (m SensorMap) Merge(overrides map[string]string) {
	for dest, src := range overrides {
		m[dest] = src
	}
}

// Packet is one timestamped set of mapped measurements.
type Packet struct {
	Time   time.Time          `json:"dateTime"`
	Units  string             `json:"usUnits"`
	Values map[string]float64 `json:"values"`
}

// Apply maps a decoded record to the destination fields of a packet. Only
// destinations whose source key is present in the record are emitted. The
// timestamp is taken at mapping time, the moment the value became available
// to the caller.
func (m SensorMap) Apply(record frame.Record, ts time.Time, units string) Packet {
	p := Packet{
		Time:   ts,
		Units:  units,
		Values: make(map[string]float64, len(record)),
	}

	for dest, src := range m {
		if v, ok := record[src]; ok {
			p.Values[dest] = v
		}
	}

	return p
}
