package window

import (
	"math"
	"strconv"
	"time"
)

// Epoch is a Unix time in seconds with sub-second precision, as stored in the dataset.
type Epoch float64

func FromTime(t time.Time) Epoch {
	return Epoch(float64(t.Unix()) + float64(t.Nanosecond())/1e9)
}

func (e Epoch) Time() time.Time {
	whole, frac := math.Modf(float64(e))
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC()
}

func (e Epoch) String() string {
	return strconv.FormatFloat(float64(e), 'f', -1, 64)
}
