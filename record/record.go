package record

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/timgluz/openeew/window"
)

type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

var Axes = []Axis{AxisX, AxisY, AxisZ}

// ReferenceTime names the record field sample times are derived from.
type ReferenceTime string

const (
	CloudTime  ReferenceTime = "cloud_t"
	DeviceTime ReferenceTime = "device_t"
)

var (
	ErrUnknownAxis          = fmt.Errorf("unknown axis")
	ErrUnknownReferenceTime = fmt.Errorf("unknown reference time")
	ErrMissingDeviceID      = fmt.Errorf("record has no device_id")
	ErrInvalidSampleRate    = fmt.Errorf("record sample rate must be positive")
	ErrMissingXAxis         = fmt.Errorf("record has no x axis readings")
)

// Record is one accelerometer reading batch as stored in the dataset. Axis
// values are in gal; cloud_t is the time the batch reached the cloud.
type Record struct {
	DeviceID string       `json:"device_id"`
	CloudT   window.Epoch `json:"cloud_t"`
	DeviceT  window.Epoch `json:"device_t"`
	SR       float64      `json:"sr"`
	X        []float64    `json:"x,omitempty"`
	Y        []float64    `json:"y,omitempty"`
	Z        []float64    `json:"z,omitempty"`
}

func ParseAxis(s string) (Axis, error) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(s))); a {
	case AxisX, AxisY, AxisZ:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAxis, s)
	}
}

func ParseReferenceTime(s string) (ReferenceTime, error) {
	switch ref := ReferenceTime(strings.ToLower(strings.TrimSpace(s))); ref {
	case CloudTime, DeviceTime:
		return ref, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownReferenceTime, s)
	}
}

// Timestamp returns cloud_t, the time used for filtering and ordering.
func (r Record) Timestamp() time.Time {
	return r.CloudT.Time()
}

// Axis returns the readings of one axis, nil when the axis is absent.
func (r Record) Axis(a Axis) []float64 {
	switch a {
	case AxisX:
		return r.X
	case AxisY:
		return r.Y
	case AxisZ:
		return r.Z
	default:
		return nil
	}
}

func (r Record) HasAxis(a Axis) bool {
	return len(r.Axis(a)) > 0
}

func (r Record) Reference(ref ReferenceTime) window.Epoch {
	if ref == DeviceTime {
		return r.DeviceT
	}

	return r.CloudT
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.DeviceID) == "" {
		return ErrMissingDeviceID
	}

	if r.SR <= 0 || math.IsNaN(r.SR) || math.IsInf(r.SR, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, r.SR)
	}

	// x gives the default sample count when records are flattened
	if !r.HasAxis(AxisX) {
		return ErrMissingXAxis
	}

	return nil
}

// SampleTimes estimates the Unix time of each of n sample points taken at
// rate sr, the last one taken at ref. Values are rounded to milliseconds.
func SampleTimes(ref float64, n int, sr float64) []float64 {
	if n <= 0 || sr <= 0 {
		return nil
	}

	times := make([]float64, n)
	for i := range n {
		times[i] = round3(ref - float64(n-1-i)/sr)
	}

	return times
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
