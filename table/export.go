package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/diwise/senml"
	"github.com/timgluz/openeew/record"
)

const (
	// SenMLUnit is the SenML unit of acceleration; the dataset stores gal.
	SenMLUnit = "m/s2"

	galToMetersPerSecondSquared = 0.01
	senmlNamePrefix             = "urn:dev:openeew:"
)

// WriteCSV writes a header line followed by one line per row. Missing axis
// values are written as empty fields.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range t.rows {
		if err := writer.Write(row.fields()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (r Row) fields() []string {
	return []string{
		r.DeviceID,
		formatFloat(r.SampleT),
		formatFloat(r.CloudT),
		formatFloat(r.DeviceT),
		formatFloat(r.SR),
		formatOptional(r.X),
		formatOptional(r.Y),
		formatOptional(r.Z),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}

	return formatFloat(*v)
}

// ToSenML converts the table to a SenML pack with one record per axis value,
// named urn:dev:openeew:<device_id>:<axis> and timed at the sample time.
func (t *Table) ToSenML() senml.Pack {
	pack := make(senml.Pack, 0, len(t.rows)*len(record.Axes))

	for _, row := range t.rows {
		values := map[record.Axis]*float64{
			record.AxisX: row.X,
			record.AxisY: row.Y,
			record.AxisZ: row.Z,
		}

		for _, axis := range record.Axes {
			v := values[axis]
			if v == nil {
				continue
			}

			value := *v * galToMetersPerSecondSquared
			pack = append(pack, senml.Record{
				Name:  senmlNamePrefix + row.DeviceID + ":" + string(axis),
				Unit:  SenMLUnit,
				Time:  row.SampleT,
				Value: &value,
			})
		}
	}

	return pack
}
