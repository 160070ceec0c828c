// Package simulator generates synthetic sensor packets so the datalogger can
// run without a console attached. It produces the same packet type as the
// hardware station but shares none of its transport or retry logic.
package simulator

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"ws3000/pkg/ws3000"
)

// observation is one slowly oscillating synthetic measurement.
type observation struct {
	magnitude float64
	average   float64
	period    time.Duration
	phaseLag  time.Duration
	start     time.Time
}

// valueAt samples the observation at time t.
func (o observation) valueAt(t time.Time) float64 {
	phase := 2 * math.Pi * (t.Sub(o.start) - o.phaseLag).Hours() / o.period.Hours()
	return o.average + o.magnitude*math.Cos(phase)
}

// Station fakes a WS-3000 console with one observation per destination field
// of the sensor map. Temperature fields oscillate around room temperature,
// humidity fields around 50 percent; periods and phases are randomized so the
// fields do not move in lockstep.
type Station struct {
	observations map[string]observation
}

// New creates a simulated station for the given sensor map.
func New(m ws3000.SensorMap) *Station {
	start := time.Now()
	s := &Station{observations: make(map[string]observation, len(m))}

	for dest := range m {
		o := observation{
			period:   hours(uniform(22, 26)),
			phaseLag: hours(uniform(6, 18)),
			start:    start,
		}

		switch {
		case strings.Contains(strings.ToLower(dest), "temp"):
			o.magnitude = uniform(4, 8)
			o.average = uniform(18, 22)
		case strings.Contains(strings.ToLower(dest), "humid"):
			o.magnitude = uniform(2, 20)
			o.average = uniform(40, 60)
		default:
			continue
		}

		s.observations[dest] = o
	}

	return s
}

// GetCurrentValues returns the synthetic packet for the current time.
func (s *Station) GetCurrentValues() (ws3000.Packet, error) {
	now := time.Now()

	p := ws3000.Packet{
		Time:   now,
		Units:  ws3000.MetricWX,
		Values: make(map[string]float64, len(s.observations)),
	}

	for dest, o := range s.observations {
		p.Values[dest] = o.valueAt(now)
	}

	return p, nil
}

// Close implements the data source interface, there is nothing to release.
func (s *Station) Close() error {
	return nil
}

func uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
