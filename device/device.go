package device

import (
	"time"

	"github.com/timgluz/openeew/window"
)

// Device is one row of the device manifest. A device may appear in several
// rows when its location changed; is_current_row marks the valid one.
type Device struct {
	ID            string       `json:"device_id"`
	Latitude      float64      `json:"latitude"`
	Longitude     float64      `json:"longitude"`
	EffectiveFrom window.Epoch `json:"effective_from"`
	EffectiveTo   window.Epoch `json:"effective_to"`
	IsCurrentRow  bool         `json:"is_current_row"`
}

type DeviceList []Device

// IsEffectiveAt reports whether the row was valid at t. Both bounds are
// inclusive.
func (d Device) IsEffectiveAt(t time.Time) bool {
	ts := window.FromTime(t)
	return d.EffectiveFrom <= ts && ts <= d.EffectiveTo
}

func (d Device) EffectiveFromTime() time.Time {
	return d.EffectiveFrom.Time()
}

func (d Device) EffectiveToTime() time.Time {
	return d.EffectiveTo.Time()
}
