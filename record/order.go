package record

import (
	"cmp"
	"slices"
	"strings"

	"github.com/timgluz/openeew/window"
)

// Compare orders records by cloud_t, then device_id, then device_t.
func Compare(a, b Record) int {
	if c := cmp.Compare(a.CloudT, b.CloudT); c != 0 {
		return c
	}

	if c := strings.Compare(a.DeviceID, b.DeviceID); c != 0 {
		return c
	}

	return cmp.Compare(a.DeviceT, b.DeviceT)
}

// Sort sorts records in place; records that compare equal keep their order.
func Sort(records []Record) {
	slices.SortStableFunc(records, Compare)
}

// Filter returns the records whose cloud_t lies within w. A nil deviceIDs
// keeps every device, an empty one keeps none.
func Filter(records []Record, w window.Window, deviceIDs []string) []Record {
	var allowed map[string]struct{}
	if deviceIDs != nil {
		allowed = make(map[string]struct{}, len(deviceIDs))
		for _, id := range deviceIDs {
			allowed[id] = struct{}{}
		}
	}

	result := make([]Record, 0, len(records))
	for _, r := range records {
		if !w.ContainsEpoch(r.CloudT) {
			continue
		}

		if allowed != nil {
			if _, ok := allowed[r.DeviceID]; !ok {
				continue
			}
		}

		result = append(result, r)
	}

	return result
}
