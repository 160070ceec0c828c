package ws3000

import (
	"testing"
	"time"

	"ws3000/pkg/frame"
)

func TestDefaultSensorMap(t *testing.T) {
	m := DefaultSensorMap()

	if len(m) != 16 {
		t.Fatalf("len = %d, want 16", len(m))
	}
	if m["extraTemp3"] != "t_3" {
		t.Errorf("extraTemp3 = %q, want t_3", m["extraTemp3"])
	}
	if m["extraHumid8"] != "h_8" {
		t.Errorf("extraHumid8 = %q, want h_8", m["extraHumid8"])
	}
}

func TestMerge(t *testing.T) {
	m := DefaultSensorMap()
	m.Merge(map[string]string{
		"extraTemp1": "t_2",
		"inTemp":     "t_1",
	})

	if m["extraTemp1"] != "t_2" {
		t.Errorf("extraTemp1 = %q, want t_2", m["extraTemp1"])
	}
	if m["inTemp"] != "t_1" {
		t.Errorf("inTemp = %q, want t_1", m["inTemp"])
	}
	if m["extraTemp2"] != "t_2" {
		t.Errorf("extraTemp2 = %q, untouched entries must survive a merge", m["extraTemp2"])
	}
}

// TestApply: only destinations whose source key exists in the record are
// emitted, and every mapped present key is.
func TestApply(t *testing.T) {
	record := frame.Record{
		"t_1": 23.5,
		"h_1": 37,
		"t_5": -5.0,
	}

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	p := DefaultSensorMap().Apply(record, ts, MetricWX)

	if !p.Time.Equal(ts) {
		t.Errorf("Time = %v, want %v", p.Time, ts)
	}
	if p.Units != MetricWX {
		t.Errorf("Units = %q, want %q", p.Units, MetricWX)
	}

	want := map[string]float64{
		"extraTemp1":  23.5,
		"extraHumid1": 37,
		"extraTemp5":  -5.0,
	}
	if len(p.Values) != len(want) {
		t.Fatalf("Values = %v, want %v", p.Values, want)
	}
	for k, v := range want {
		if p.Values[k] != v {
			t.Errorf("Values[%q] = %v, want %v", k, p.Values[k], v)
		}
	}
}

func TestApplyIgnoresUnmappedKeys(t *testing.T) {
	record := frame.Record{
		"t_1": 23.5,
		"x_9": 1.0, // no destination points here
	}

	p := DefaultSensorMap().Apply(record, time.Now(), MetricWX)
	if len(p.Values) != 1 {
		t.Fatalf("Values = %v, want only extraTemp1", p.Values)
	}
}

func TestApplyEmptyRecord(t *testing.T) {
	p := DefaultSensorMap().Apply(frame.Record{}, time.Now(), MetricWX)
	if len(p.Values) != 0 {
		t.Fatalf("Values = %v, want empty", p.Values)
	}
}
