package sim

import (
	"time"

	"mobile-bridge/native"
	"mobile-bridge/protocol"
)

// SetAuthorization fixes the current answer for a permission.
func (d *Device) SetAuthorization(permission protocol.PermissionType, auth native.Authorization) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.authorizations[permission] = auth
}

// SetRequestOutcome fixes what the user answers when prompted for a permission.
func (d *Device) SetRequestOutcome(permission protocol.PermissionType, status protocol.PermissionStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcomes[permission] = status
}

// SetLocationServices switches location services on or off.
func (d *Device) SetLocationServices(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locationEnabled = enabled
}

// SetLocation fixes the location fix, the time it takes, and an optional failure.
func (d *Device) SetLocation(loc protocol.LocationInfo, delay time.Duration, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.location = loc
	d.locationDelay = delay
	d.locationErr = err
}

// Toasts returns the toasts shown so far.
func (d *Device) Toasts() []Toast {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Toast(nil), d.toasts...)
}

// Screens returns the native screens opened so far.
func (d *Device) Screens() []Screen {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Screen(nil), d.screens...)
}

// Shares returns the share sheets opened so far.
func (d *Device) Shares() []protocol.ShareOptions {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.ShareOptions(nil), d.shares...)
}

// Vibrations returns the vibration durations requested so far.
func (d *Device) Vibrations() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.vibrations...)
}

// Clipboard returns the clipboard contents.
func (d *Device) Clipboard() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clipboard
}

// Closed reports whether the app was asked to close.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
