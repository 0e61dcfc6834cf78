package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timgluz/openeew/window"
)

func TestSampleTimes(t *testing.T) {
	testCases := []struct {
		name     string
		ref      float64
		n        int
		sr       float64
		expected []float64
	}{
		{
			name:     "two samples at 2 Hz",
			ref:      101.0,
			n:        2,
			sr:       2.0,
			expected: []float64{100.5, 101.0},
		},
		{
			name:     "three samples at 2 Hz",
			ref:      100.0,
			n:        3,
			sr:       2.0,
			expected: []float64{99.0, 99.5, 100.0},
		},
		{
			name:     "rounded to milliseconds",
			ref:      1518824378.1234,
			n:        3,
			sr:       31.25,
			expected: []float64{1518824378.059, 1518824378.091, 1518824378.123},
		},
		{
			name:     "no samples",
			ref:      100.0,
			n:        0,
			sr:       2.0,
			expected: nil,
		},
		{
			name:     "invalid sample rate",
			ref:      100.0,
			n:        3,
			sr:       0,
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := SampleTimes(tc.ref, tc.n, tc.sr)
			require.Len(t, result, len(tc.expected))
			for i := range tc.expected {
				assert.InDelta(t, tc.expected[i], result[i], 1e-6, "sample %d", i)
			}
		})
	}
}

func TestRecordValidate(t *testing.T) {
	testCases := []struct {
		name     string
		record   Record
		expected error
	}{
		{
			name:   "valid",
			record: Record{DeviceID: "001", SR: 31.25, X: []float64{0.1}},
		},
		{
			name:     "y and z without x",
			record:   Record{DeviceID: "001", SR: 31.25, Y: []float64{0.1}, Z: []float64{0.1}},
			expected: ErrMissingXAxis,
		},
		{
			name:     "missing device id",
			record:   Record{SR: 31.25, X: []float64{0.1}},
			expected: ErrMissingDeviceID,
		},
		{
			name:     "zero sample rate",
			record:   Record{DeviceID: "001", X: []float64{0.1}},
			expected: ErrInvalidSampleRate,
		},
		{
			name:     "no axis",
			record:   Record{DeviceID: "001", SR: 31.25},
			expected: ErrMissingXAxis,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.record.Validate()
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestRecordAccessors(t *testing.T) {
	r := Record{DeviceID: "001", CloudT: 1518824378.5, DeviceT: 1518824377, SR: 31.25, Y: []float64{1, 2}}

	assert.Equal(t, time.Date(2018, 2, 16, 23, 39, 38, 500000000, time.UTC), r.Timestamp())
	assert.Equal(t, []float64{1, 2}, r.Axis(AxisY))
	assert.Nil(t, r.Axis(AxisX))
	assert.False(t, r.HasAxis(AxisZ))
	assert.Equal(t, window.Epoch(1518824377), r.Reference(DeviceTime))
	assert.Equal(t, window.Epoch(1518824378.5), r.Reference(CloudTime))
}

func TestParseAxisAndReference(t *testing.T) {
	a, err := ParseAxis(" Y ")
	require.NoError(t, err)
	assert.Equal(t, AxisY, a)

	_, err = ParseAxis("w")
	assert.ErrorIs(t, err, ErrUnknownAxis)

	ref, err := ParseReferenceTime("device_t")
	require.NoError(t, err)
	assert.Equal(t, DeviceTime, ref)

	_, err = ParseReferenceTime("sample_t")
	assert.ErrorIs(t, err, ErrUnknownReferenceTime)
}

func TestSortIsStable(t *testing.T) {
	records := []Record{
		{DeviceID: "008", CloudT: 20, DeviceT: 1, X: []float64{1}},
		{DeviceID: "001", CloudT: 20, DeviceT: 2, X: []float64{2}},
		{DeviceID: "001", CloudT: 10, DeviceT: 5, X: []float64{3}},
		{DeviceID: "001", CloudT: 20, DeviceT: 1, X: []float64{4}},
		{DeviceID: "001", CloudT: 20, DeviceT: 1, X: []float64{5}},
	}

	Sort(records)

	var order []float64
	for _, r := range records {
		order = append(order, r.X[0])
	}
	assert.Equal(t, []float64{3, 4, 5, 2, 1}, order)
}

func TestFilter(t *testing.T) {
	w, err := window.Parse("2018-02-16 23:39:00", "2018-02-16 23:42:00")
	require.NoError(t, err)

	start := float64(window.FromTime(w.Start))
	end := float64(window.FromTime(w.End))

	records := []Record{
		{DeviceID: "001", CloudT: window.Epoch(start - 0.001)},
		{DeviceID: "001", CloudT: window.Epoch(start)},
		{DeviceID: "008", CloudT: window.Epoch(start + 60)},
		{DeviceID: "010", CloudT: window.Epoch(start + 61)},
		{DeviceID: "001", CloudT: window.Epoch(end)},
	}

	testCases := []struct {
		name      string
		deviceIDs []string
		expected  int
	}{
		{name: "no device filter", deviceIDs: nil, expected: 3},
		{name: "subset", deviceIDs: []string{"001", "008"}, expected: 2},
		{name: "unknown device", deviceIDs: []string{"999"}, expected: 0},
		{name: "empty filter selects nothing", deviceIDs: []string{}, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Filter(records, w, tc.deviceIDs)
			assert.Len(t, result, tc.expected)
			for _, r := range result {
				assert.True(t, w.ContainsEpoch(r.CloudT))
			}
		})
	}
}
