package bridge

import (
	"context"
	"log"

	"mobile-bridge/protocol"
)

// Session is the bridge state a page needs on load.
type Session struct {
	Available  bool
	Platform   protocol.Platform
	DeviceInfo *protocol.DeviceInfo
	Err        error
}

// LoadSession reports availability and platform, and loads device info when
// a transport is present. A failed device-info call is logged and kept in Err.
func (c *Caller) LoadSession(ctx context.Context) Session {
	s := Session{
		Available: c.Available(),
		Platform:  c.Platform(),
	}
	if !s.Available {
		return s
	}
	info, err := c.GetDeviceInfo(ctx)
	if err != nil {
		log.Printf("[Bridge] Failed to get device info: %v", err)
		s.Err = err
		return s
	}
	s.DeviceInfo = &info
	return s
}
