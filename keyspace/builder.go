package keyspace

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Granularity is a level of the datetime hierarchy used in object keys.
type Granularity int

const (
	Year Granularity = iota
	Month
	Day
	Hour
	Minute
)

var granularityNames = [...]string{"year", "month", "day", "hour", "minute"}

// minimum value of each datetime part, indexed by Granularity
var minValues = [...]int{1, 1, 1, 0, 0}

func (g Granularity) String() string {
	if g < Year || g > Minute {
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
	return granularityNames[g]
}

var ErrMissingYearPart = errors.New("year part of key template must be set")

// DateTimeKeyBuilder builds the datetime part of keys organised by a
// year/month/day/hour/minute hierarchy. Each template part is a fmt format
// with a single integer verb, e.g. "year=%04d/" or "%02d".
type DateTimeKeyBuilder struct {
	parts []string
}

// NewDateTimeKeyBuilder takes template parts in order of increasing granularity.
// Parts after the first empty one are ignored.
func NewDateTimeKeyBuilder(parts ...string) (*DateTimeKeyBuilder, error) {
	if len(parts) == 0 || parts[0] == "" {
		return nil, ErrMissingYearPart
	}

	if len(parts) > len(granularityNames) {
		return nil, fmt.Errorf("too many key template parts: %d", len(parts))
	}

	b := &DateTimeKeyBuilder{}
	for _, p := range parts {
		if p == "" {
			break
		}
		b.parts = append(b.parts, p)
	}

	return b, nil
}

// Granularity returns the most granular part the builder knows about.
func (b *DateTimeKeyBuilder) Granularity() Granularity {
	return Granularity(len(b.parts) - 1)
}

func (b *DateTimeKeyBuilder) TemplateParts() []string {
	return slices.Clone(b.parts)
}

// MaxKey returns the greatest key part for t, at full granularity.
func (b *DateTimeKeyBuilder) MaxKey(t time.Time) string {
	return b.format(dateValues(t), Minute)
}

// MinKey returns the smallest key part that can hold data for t: the most
// granular part is replaced with its minimum value.
func (b *DateTimeKeyBuilder) MinKey(t time.Time) string {
	g := b.Granularity()
	values := dateValues(t)
	values[g] = minValues[g]

	return b.format(values, g)
}

// KeyPart returns the key for t up to the requested granularity, capped at the
// builder's own granularity.
func (b *DateTimeKeyBuilder) KeyPart(t time.Time, g Granularity) string {
	return b.format(dateValues(t), g)
}

// PrefixesWithinRange returns one search prefix per day between start and end,
// both inclusive, without duplicates.
func (b *DateTimeKeyBuilder) PrefixesWithinRange(start, end time.Time) ([]string, error) {
	start, end = start.UTC(), end.UTC()
	if end.Before(start) {
		return nil, fmt.Errorf("end date should not be earlier than start date")
	}

	var prefixes []string
	day := truncateToDay(start)
	last := truncateToDay(end)
	for !day.After(last) {
		prefix := b.KeyPart(day, Day)
		if !slices.Contains(prefixes, prefix) {
			prefixes = append(prefixes, prefix)
		}
		day = day.AddDate(0, 0, 1)
	}

	return prefixes, nil
}

func (b *DateTimeKeyBuilder) format(values [5]int, g Granularity) string {
	if g > b.Granularity() {
		g = b.Granularity()
	}

	var sb strings.Builder
	for i := Year; i <= g; i++ {
		fmt.Fprintf(&sb, b.parts[i], values[i])
	}

	return sb.String()
}

func dateValues(t time.Time) [5]int {
	t = t.UTC()
	return [5]int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute()}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
