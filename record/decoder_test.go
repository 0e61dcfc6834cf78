package record

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "records/country_code=mx/device_id=001/year=2018/month=02/day=16/hour=23/39.jsonl"

const testObject = `{"device_id":"001","cloud_t":1518824378.0,"device_t":1518824377.9,"sr":31.25,"x":[0.1,0.2],"y":[0.3,0.4],"z":[0.5,0.6]}
{"device_id":"001","cloud_t":1518824379.0,"device_t":1518824378.9,"sr":31.25,"x":[0.1,0.2]

{"device_id":"001","cloud_t":1518824380.0,"device_t":1518824379.9,"sr":0,"x":[0.1]}
{"device_id":"001","cloud_t":1518824381.0,"device_t":1518824380.9,"sr":31.25,"x":[0.7]}`

func TestDecodeLenient(t *testing.T) {
	decoder := NewDecoder(Lenient, slog.New(slog.DiscardHandler))

	records, warnings, err := decoder.Decode(testKey, strings.NewReader(testObject))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "001", records[0].DeviceID)
	assert.Equal(t, []float64{0.5, 0.6}, records[0].Z)
	assert.Equal(t, []float64{0.7}, records[1].X)

	require.Len(t, warnings, 2)
	assert.Equal(t, testKey, warnings[0].Key)
	assert.Equal(t, 2, warnings[0].Line)
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, warnings[0].Err, &syntaxErr)

	assert.Equal(t, 4, warnings[1].Line)
	assert.ErrorIs(t, &warnings[1], ErrInvalidSampleRate)
}

func TestDecodeStrict(t *testing.T) {
	decoder := NewDecoder(Strict, nil)

	records, warnings, err := decoder.Decode(testKey, strings.NewReader(testObject))
	assert.Nil(t, records)
	assert.Nil(t, warnings)

	var warning *DecodeWarning
	require.ErrorAs(t, err, &warning)
	assert.Equal(t, testKey, warning.Key)
	assert.Equal(t, 2, warning.Line)
	assert.Contains(t, err.Error(), testKey)
}

func TestDecodeEmptyObject(t *testing.T) {
	decoder := NewDecoder(Strict, nil)

	records, warnings, err := decoder.Decode(testKey, strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, warnings)
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "lenient", Lenient.String())
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "Policy(7)", Policy(7).String())
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		input       string
		expected    Policy
		expectError bool
	}{
		{input: "", expected: Lenient},
		{input: "lenient", expected: Lenient},
		{input: "STRICT", expected: Strict},
		{input: "panic", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			p, err := ParsePolicy(tc.input)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrUnknownPolicy)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}
}
