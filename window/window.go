package window

import (
	"fmt"
	"time"

	"github.com/sosodev/duration"
)

// DateTimeLayout is the layout of UTC datetimes accepted by Parse, e.g. "2018-02-16 23:39:38".
const DateTimeLayout = "2006-01-02 15:04:05"

var ErrInvalidWindow = fmt.Errorf("end of window should not be earlier than start")

// Window is a half-open UTC retrieval window [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) (Window, error) {
	w := Window{Start: start.UTC(), End: end.UTC()}
	if w.End.Before(w.Start) {
		return Window{}, ErrInvalidWindow
	}

	return w, nil
}

// Parse builds a window from two UTC datetimes formatted with DateTimeLayout.
func Parse(start, end string) (Window, error) {
	startTime, err := ParseDateTime(start)
	if err != nil {
		return Window{}, err
	}

	endTime, err := ParseDateTime(end)
	if err != nil {
		return Window{}, err
	}

	return New(startTime, endTime)
}

func ParseDateTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse UTC datetime %q: %w", value, err)
	}

	return t, nil
}

// NewFromISO8601Duration builds a window starting at start and spanning the given
// ISO 8601 duration, e.g. "PT3M".
func NewFromISO8601Duration(start time.Time, iso8601 string) (Window, error) {
	d, err := duration.Parse(iso8601)
	if err != nil {
		return Window{}, fmt.Errorf("failed to parse ISO 8601 duration %q: %w", iso8601, err)
	}

	return New(start, start.Add(d.ToTimeDuration()))
}

func (w Window) IsEmpty() bool {
	return !w.Start.Before(w.End)
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ContainsEpoch reports whether a Unix time in (fractional) seconds lies in the window.
func (w Window) ContainsEpoch(e Epoch) bool {
	return e >= FromTime(w.Start) && e < FromTime(w.End)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// LastInstant returns the latest time still inside the window.
// For an empty window it returns Start.
func (w Window) LastInstant() time.Time {
	if w.IsEmpty() {
		return w.Start
	}

	return w.End.Add(-time.Nanosecond)
}

// String renders the window as "<start>/<ISO 8601 duration>".
func (w Window) String() string {
	isoDuration := duration.FromTimeDuration(w.Duration())
	return w.Start.Format(time.RFC3339) + "/" + isoDuration.String()
}
