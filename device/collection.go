package device

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

var (
	ErrInvalidDeviceID   = fmt.Errorf("invalid device ID")
	ErrMalformedManifest = fmt.Errorf("malformed device manifest")
)

type Collection struct {
	Devices DeviceList `json:"devices"`
}

// DecodeManifest parses a devices.jsonl manifest, one device row per line.
// Blank lines are ignored; any other malformed line fails the whole manifest.
func DecodeManifest(r io.Reader) (*Collection, error) {
	reader := bufio.NewReader(r)
	collection := &Collection{}

	lineNo := 0
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}

		if len(line) > 0 {
			lineNo++
			if d, ok, decodeErr := decodeLine(line); decodeErr != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedManifest, lineNo, decodeErr)
			} else if ok {
				collection.Devices = append(collection.Devices, d)
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
	}

	return collection, nil
}

func decodeLine(line []byte) (Device, bool, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Device{}, false, nil
	}

	var d Device
	if err := json.Unmarshal(line, &d); err != nil {
		return Device{}, false, err
	}

	d.ID = strings.TrimSpace(d.ID)
	if d.ID == "" {
		return Device{}, false, ErrInvalidDeviceID
	}

	return d, true, nil
}

func (c *Collection) Len() int {
	return len(c.Devices)
}

// All returns every manifest row, the full history of all devices.
func (c *Collection) All() DeviceList {
	return slices.Clone(c.Devices)
}

// Current returns the rows flagged as current, one per device ID, sorted by
// ID. When a device has several current rows the last one wins.
func (c *Collection) Current() DeviceList {
	return latestPerID(c.Devices, func(d Device) bool { return d.IsCurrentRow })
}

// AsOf returns the rows that were valid at t, one per device ID, sorted by ID.
func (c *Collection) AsOf(t time.Time) DeviceList {
	return latestPerID(c.Devices, func(d Device) bool { return d.IsEffectiveAt(t) })
}

// IDs returns the distinct device IDs of the collection, sorted.
func (c *Collection) IDs() []string {
	ids := make([]string, 0, len(c.Devices))
	for _, d := range c.Devices {
		ids = append(ids, d.ID)
	}

	slices.Sort(ids)
	return slices.Compact(ids)
}

func latestPerID(devices DeviceList, keep func(Device) bool) DeviceList {
	byID := make(map[string]Device)
	for _, d := range devices {
		if keep(d) {
			byID[d.ID] = d
		}
	}

	result := make(DeviceList, 0, len(byID))
	for _, d := range byID {
		result = append(result, d)
	}

	slices.SortFunc(result, func(a, b Device) int { return strings.Compare(a.ID, b.ID) })
	return result
}
