// Package sim provides an in-memory device that satisfies native.Capabilities.
// The device host serves it, and adapter tests use it to observe what a
// handler asked the platform to do.
package sim

import (
	"context"
	"sync"
	"time"

	"mobile-bridge/native"
	"mobile-bridge/protocol"
)

// Profile describes the simulated hardware.
type Profile struct {
	OSVersion    string
	AppVersion   string
	DeviceModel  string
	ScreenWidth  float64
	ScreenHeight float64
	IsTablet     bool
}

// Toast is one toast the device was asked to show.
type Toast struct {
	Message  string
	Duration time.Duration
}

// Screen is one native screen the device was asked to open.
type Screen struct {
	Name   string
	Params map[string]any
}

// Device is a simulated host platform.
type Device struct {
	mu sync.Mutex

	profile         Profile
	locationEnabled bool
	location        protocol.LocationInfo
	locationErr     error
	locationDelay   time.Duration
	authorizations  map[protocol.PermissionType]native.Authorization
	outcomes        map[protocol.PermissionType]protocol.PermissionStatus

	toasts     []Toast
	screens    []Screen
	shares     []protocol.ShareOptions
	vibrations []time.Duration
	clipboard  string
	closed     bool
}

// NewDevice creates a device with location services on, location granted,
// every other permission undetermined, and prompts that grant.
func NewDevice(profile Profile) *Device {
	accuracy := 10.0
	return &Device{
		profile:         profile,
		locationEnabled: true,
		location: protocol.LocationInfo{
			Latitude:  37.5665,
			Longitude: 126.9780,
			Accuracy:  &accuracy,
		},
		authorizations: map[protocol.PermissionType]native.Authorization{
			protocol.PermissionLocation: native.AuthorizationGranted,
		},
		outcomes: make(map[protocol.PermissionType]protocol.PermissionStatus),
	}
}

// DeviceInfo implements native.Capabilities.
func (d *Device) DeviceInfo() protocol.DeviceInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return protocol.DeviceInfo{
		OSVersion:    d.profile.OSVersion,
		AppVersion:   d.profile.AppVersion,
		DeviceModel:  d.profile.DeviceModel,
		ScreenWidth:  d.profile.ScreenWidth,
		ScreenHeight: d.profile.ScreenHeight,
		IsTablet:     d.profile.IsTablet,
	}
}

// AppVersion implements native.Capabilities.
func (d *Device) AppVersion() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profile.AppVersion
}

// ShowToast implements native.Capabilities.
func (d *Device) ShowToast(message string, duration time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.toasts = append(d.toasts, Toast{Message: message, Duration: duration})
}

// OpenScreen implements native.Capabilities.
func (d *Device) OpenScreen(name string, params map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screens = append(d.screens, Screen{Name: name, Params: params})
}

// Share implements native.Capabilities.
func (d *Device) Share(opts protocol.ShareOptions) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shares = append(d.shares, opts)
}

// LocationServicesEnabled implements native.Capabilities.
func (d *Device) LocationServicesEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locationEnabled
}

// Location implements native.Capabilities. It waits for the configured fix
// delay, honoring ctx.
func (d *Device) Location(ctx context.Context) (protocol.LocationInfo, error) {
	d.mu.Lock()
	delay, loc, err := d.locationDelay, d.location, d.locationErr
	d.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return protocol.LocationInfo{}, ctx.Err()
		}
	}
	if err != nil {
		return protocol.LocationInfo{}, err
	}
	return loc, nil
}

// Authorization implements native.Capabilities.
func (d *Device) Authorization(permission protocol.PermissionType) native.Authorization {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authorizations[permission]
}

// RequestAccess implements native.Capabilities. The configured outcome
// (granted by default) becomes the permission's authorization.
func (d *Device) RequestAccess(ctx context.Context, permission protocol.PermissionType) (protocol.PermissionStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	status, ok := d.outcomes[permission]
	if !ok {
		status = protocol.StatusGranted
	}
	switch status {
	case protocol.StatusGranted:
		d.authorizations[permission] = native.AuthorizationGranted
	case protocol.StatusNeverAskAgain:
		d.authorizations[permission] = native.AuthorizationNeverAskAgain
	default:
		d.authorizations[permission] = native.AuthorizationDenied
	}
	return status, nil
}

// Vibrate implements native.Capabilities.
func (d *Device) Vibrate(duration time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vibrations = append(d.vibrations, duration)
}

// SetClipboard implements native.Capabilities.
func (d *Device) SetClipboard(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clipboard = text
}

// Close implements native.Capabilities.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}
