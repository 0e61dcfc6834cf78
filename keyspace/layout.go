package keyspace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"github.com/timgluz/openeew/window"
)

const (
	DefaultBucket = "grillo-openeew"
	DefaultRegion = "us-east-1"

	// RecordKeySuffix is appended to the minute part of every record key.
	RecordKeySuffix = ".jsonl"

	recordsCountryTemplate  = "records/country_code=%s/"
	recordsDeviceTemplate   = "device_id=%s/"
	devicesManifestTemplate = "devices/country_code=%s/devices.jsonl"
	deviceIDMarker          = "device_id="
)

var ErrInvalidCountryCode = fmt.Errorf("invalid ISO 3166 two-letter country code")

// record keys look like
// records/country_code=mx/device_id=001/year=2018/month=02/day=16/hour=23/39.jsonl
var recordDateTimeParts = []string{"year=%04d/", "month=%02d/", "day=%02d/", "hour=%02d/", "%02d"}

// RecordLayout knows where records and device metadata of one country live.
type RecordLayout struct {
	country string
	builder *DateTimeKeyBuilder
}

func NewRecordLayout(country string) (*RecordLayout, error) {
	code, err := NormalizeCountryCode(country)
	if err != nil {
		return nil, err
	}

	return &RecordLayout{
		country: code,
		builder: &DateTimeKeyBuilder{parts: recordDateTimeParts},
	}, nil
}

// NormalizeCountryCode lower-cases and validates an ISO 3166 alpha-2 code.
func NormalizeCountryCode(country string) (string, error) {
	code := slug.Make(strings.TrimSpace(country))
	if len(code) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCountryCode, country)
	}

	for _, c := range code {
		if c < 'a' || c > 'z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCountryCode, country)
		}
	}

	return code, nil
}

func (l *RecordLayout) Country() string {
	return l.country
}

func (l *RecordLayout) Builder() *DateTimeKeyBuilder {
	return l.builder
}

func (l *RecordLayout) CountryPrefix() string {
	return fmt.Sprintf(recordsCountryTemplate, l.country)
}

func (l *RecordLayout) DevicePrefix(deviceID string) string {
	return l.CountryPrefix() + fmt.Sprintf(recordsDeviceTemplate, deviceID)
}

// DeviceIDFromPrefix extracts the device ID from a common prefix such as
// "records/country_code=mx/device_id=001/".
func (l *RecordLayout) DeviceIDFromPrefix(prefix string) (string, bool) {
	_, rest, found := strings.Cut(prefix, deviceIDMarker)
	if !found {
		return "", false
	}

	id := strings.TrimSuffix(rest, "/")
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}

	return id, true
}

func (l *RecordLayout) DevicesManifestKey() string {
	return fmt.Sprintf(devicesManifestTemplate, l.country)
}

// DayPrefixes returns the day-partitioned prefixes that can hold records of w.
func (l *RecordLayout) DayPrefixes(w window.Window) []string {
	if w.IsEmpty() {
		return nil
	}

	prefixes, err := l.builder.PrefixesWithinRange(w.Start, w.LastInstant())
	if err != nil {
		return nil
	}

	return prefixes
}

// SelectKeys picks, among keys listed under devicePrefix, the ones that may
// hold records of w. An object holds samples from the minute in its name
// onwards, so of all keys not later than the start minute only the greatest
// one is kept.
//
// The search starts at the first minute of the start hour. An object from an
// earlier hour is never selected, even when its records run into w; with the
// start at 23:00:30, hour=22/59.jsonl is skipped.
func (l *RecordLayout) SelectKeys(devicePrefix string, keys []string, w window.Window) []string {
	if w.IsEmpty() || len(keys) == 0 {
		return nil
	}

	lower := devicePrefix + l.builder.MinKey(w.Start)
	upper := devicePrefix + l.builder.MaxKey(w.LastInstant()) + RecordKeySuffix
	startUpper := devicePrefix + l.builder.MaxKey(w.Start) + RecordKeySuffix

	candidates := make([]string, 0, len(keys))
	for _, k := range keys {
		if k >= lower && k <= upper {
			candidates = append(candidates, k)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	floor := -1
	for i, k := range candidates {
		if k > startUpper {
			break
		}
		floor = i
	}

	if floor < 0 {
		return candidates
	}

	return candidates[floor:]
}
