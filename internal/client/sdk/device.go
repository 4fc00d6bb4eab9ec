package sdk

import (
	"fmt"

	"github.com/google/uuid"
)

// NewDeviceID mints a fresh device identity the first time a client
// installs on a device, the way the teacher's append_events.go mints
// a UUIDv7 per event row. Unlike event_id (a TypeID, §3.1), device_id
// carries no tag prefix in the wire format, so a plain UUIDv7 string
// is enough: callers persist the result locally and reuse it across
// every New() call for that install.
func NewDeviceID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new device id: %w", err)
	}
	return id.String(), nil
}
