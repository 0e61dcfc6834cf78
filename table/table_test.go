package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timgluz/openeew/record"
)

func TestFromRecordsDefaults(t *testing.T) {
	records := []record.Record{
		{DeviceID: "test01", X: []float64{1, 2}, SR: 2.0, CloudT: 101.0, DeviceT: 100.0},
	}

	tbl, err := FromRecords(records)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	assert.InDelta(t, 100.5, tbl.Row(0).SampleT, 1e-9)
	assert.InDelta(t, 101.0, tbl.Row(1).SampleT, 1e-9)
	assert.InDelta(t, 1.0, *tbl.Row(0).X, 1e-9)
	assert.Nil(t, tbl.Row(0).Y)
	assert.Equal(t, Columns, tbl.Columns())
}

func TestRowIndexOutOfRange(t *testing.T) {
	tbl, err := FromRecords([]record.Record{
		{DeviceID: "test01", X: []float64{1, 2}, SR: 2.0, CloudT: 101.0, DeviceT: 100.0},
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() { tbl.Row(tbl.Len() - 1) })
	assert.Panics(t, func() { tbl.Row(tbl.Len()) })
	assert.Panics(t, func() { tbl.Row(-1) })
}

func TestFromRecordsReferenceOptions(t *testing.T) {
	records := []record.Record{
		{DeviceID: "test01", Y: []float64{3, 4, 5}, SR: 2.0, CloudT: 101.0, DeviceT: 100.0},
	}

	_, err := FromRecords(records)
	assert.ErrorIs(t, err, ErrMissingAxis)

	tbl, err := FromRecords(records, WithReferenceAxis(record.AxisY))
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())
	assert.InDelta(t, 100.0, tbl.Row(0).SampleT, 1e-9)
	assert.InDelta(t, 101.0, tbl.Row(2).SampleT, 1e-9)

	tbl, err = FromRecords(records, WithReferenceAxis(record.AxisY), WithReferenceTime(record.DeviceTime))
	require.NoError(t, err)
	assert.InDelta(t, 99.0, tbl.Row(0).SampleT, 1e-9)
	assert.InDelta(t, 100.0, tbl.Row(2).SampleT, 1e-9)

	_, err = FromRecords(records, WithReferenceAxis("w"))
	assert.ErrorIs(t, err, record.ErrUnknownAxis)

	_, err = FromRecords(records, WithReferenceTime("sample_t"))
	assert.ErrorIs(t, err, record.ErrUnknownReferenceTime)
}

func TestFromRecordsRowCountAndOrder(t *testing.T) {
	records := []record.Record{
		{DeviceID: "008", X: []float64{1, 2, 3}, Y: []float64{1, 2, 3}, SR: 1.0, CloudT: 20.0, DeviceT: 19.0},
		{DeviceID: "001", X: []float64{4, 5}, SR: 1.0, CloudT: 30.0, DeviceT: 29.0},
		{DeviceID: "001", X: []float64{6, 7}, SR: 1.0, CloudT: 10.0, DeviceT: 9.0},
	}

	tbl, err := FromRecords(records)
	require.NoError(t, err)
	assert.Equal(t, 7, tbl.Len())

	var devices []string
	var sampleTimes []float64
	for _, row := range tbl.Rows() {
		devices = append(devices, row.DeviceID)
		sampleTimes = append(sampleTimes, row.SampleT)
	}

	assert.Equal(t, []string{"001", "001", "001", "001", "008", "008", "008"}, devices)
	assert.Equal(t, []float64{9, 10, 29, 30, 18, 19, 20}, sampleTimes)
}

func TestFromRecordsEmpty(t *testing.T) {
	tbl, err := FromRecords(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestFromRecordsUnevenAxes(t *testing.T) {
	records := []record.Record{
		{DeviceID: "001", X: []float64{1, 2}, Z: []float64{9}, SR: 2.0, CloudT: 101.0},
	}

	tbl, err := FromRecords(records)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	require.NotNil(t, tbl.Row(0).Z)
	assert.Nil(t, tbl.Row(1).Z)
}

func TestWriteCSV(t *testing.T) {
	records := []record.Record{
		{DeviceID: "001", X: []float64{0.5, -0.25}, Z: []float64{1}, SR: 2.0, CloudT: 101.0, DeviceT: 100.0},
	}

	tbl, err := FromRecords(records)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"device_id,sample_t,cloud_t,device_t,sr,x,y,z",
		"001,100.5,101,100,2,0.5,,1",
		"001,101,101,100,2,-0.25,,",
	}, lines)
}

func TestToSenML(t *testing.T) {
	records := []record.Record{
		{DeviceID: "001", X: []float64{100, 200}, Y: []float64{-50}, SR: 2.0, CloudT: 101.0},
	}

	tbl, err := FromRecords(records)
	require.NoError(t, err)

	pack := tbl.ToSenML()
	require.Len(t, pack, 3)

	assert.Equal(t, "urn:dev:openeew:001:x", pack[0].Name)
	assert.Equal(t, SenMLUnit, pack[0].Unit)
	assert.InDelta(t, 100.5, pack[0].Time, 1e-9)
	require.NotNil(t, pack[0].Value)
	assert.InDelta(t, 1.0, *pack[0].Value, 1e-9)

	assert.Equal(t, "urn:dev:openeew:001:y", pack[1].Name)
	assert.InDelta(t, -0.5, *pack[1].Value, 1e-9)

	assert.Equal(t, "urn:dev:openeew:001:x", pack[2].Name)
	assert.InDelta(t, 101.0, pack[2].Time, 1e-9)
}
