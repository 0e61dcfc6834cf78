package table

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/timgluz/openeew/record"
)

var ErrMissingAxis = fmt.Errorf("record has no values for reference axis")

// Columns lists the table columns in output order.
var Columns = []string{"device_id", "sample_t", "cloud_t", "device_t", "sr", "x", "y", "z"}

// Row is one sample point. Axis values are nil when the record had no value
// at that index.
type Row struct {
	DeviceID string
	SampleT  float64
	CloudT   float64
	DeviceT  float64
	SR       float64
	X        *float64
	Y        *float64
	Z        *float64
}

type Table struct {
	rows []Row
}

type options struct {
	referenceTime record.ReferenceTime
	referenceAxis record.Axis
}

type Option func(*options)

// WithReferenceTime selects the record field sample times are counted back from.
func WithReferenceTime(ref record.ReferenceTime) Option {
	return func(o *options) {
		o.referenceTime = ref
	}
}

// WithReferenceAxis selects the axis whose length gives the number of samples.
func WithReferenceAxis(axis record.Axis) Option {
	return func(o *options) {
		o.referenceAxis = axis
	}
}

// FromRecords flattens records to one row per sample point, sorted by
// device_id, sample_t and device_t. An empty input gives an empty table.
func FromRecords(records []record.Record, opts ...Option) (*Table, error) {
	o := options{
		referenceTime: record.CloudTime,
		referenceAxis: record.AxisX,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := record.ParseReferenceTime(string(o.referenceTime)); err != nil {
		return nil, err
	}

	if _, err := record.ParseAxis(string(o.referenceAxis)); err != nil {
		return nil, err
	}

	var rows []Row
	for _, r := range records {
		ref := r.Axis(o.referenceAxis)
		if len(ref) == 0 {
			return nil, fmt.Errorf("%w %q: device %s at %s", ErrMissingAxis, o.referenceAxis, r.DeviceID, r.CloudT)
		}

		sampleTimes := record.SampleTimes(float64(r.Reference(o.referenceTime)), len(ref), r.SR)
		if sampleTimes == nil {
			return nil, fmt.Errorf("%w: device %s at %s", record.ErrInvalidSampleRate, r.DeviceID, r.CloudT)
		}

		for i, sampleT := range sampleTimes {
			rows = append(rows, Row{
				DeviceID: r.DeviceID,
				SampleT:  sampleT,
				CloudT:   float64(r.CloudT),
				DeviceT:  float64(r.DeviceT),
				SR:       r.SR,
				X:        valueAt(r.X, i),
				Y:        valueAt(r.Y, i),
				Z:        valueAt(r.Z, i),
			})
		}
	}

	slices.SortStableFunc(rows, compareRows)
	return &Table{rows: rows}, nil
}

func compareRows(a, b Row) int {
	if c := strings.Compare(a.DeviceID, b.DeviceID); c != 0 {
		return c
	}

	if c := cmp.Compare(a.SampleT, b.SampleT); c != 0 {
		return c
	}

	return cmp.Compare(a.DeviceT, b.DeviceT)
}

func valueAt(values []float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}

	v := values[i]
	return &v
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Columns() []string {
	return slices.Clone(Columns)
}

func (t *Table) Rows() []Row {
	return slices.Clone(t.rows)
}

// Row returns the i-th row in table order. Like slice indexing it panics
// unless 0 <= i < Len().
func (t *Table) Row(i int) Row {
	return t.rows[i]
}
