// Package native implements the host side of the bridge: a dispatch table of
// capability handlers and the Android and iOS adapters that receive requests
// from a WebView and deliver responses back into it.
package native

import (
	"context"
	"time"

	"mobile-bridge/protocol"
)

// Authorization is the platform's current answer for one permission.
type Authorization int

const (
	AuthorizationNotDetermined Authorization = iota
	AuthorizationGranted
	AuthorizationDenied
	AuthorizationNeverAskAgain
	// AuthorizationUnsupported means the platform has no such permission.
	AuthorizationUnsupported
)

func (a Authorization) String() string {
	switch a {
	case AuthorizationGranted:
		return "GRANTED"
	case AuthorizationDenied:
		return "DENIED"
	case AuthorizationNeverAskAgain:
		return "NEVER_ASK_AGAIN"
	case AuthorizationUnsupported:
		return "UNSUPPORTED"
	default:
		return "NOT_DETERMINED"
	}
}

// Status maps a determined authorization onto the wire status.
func (a Authorization) Status() (protocol.PermissionStatus, bool) {
	switch a {
	case AuthorizationGranted:
		return protocol.StatusGranted, true
	case AuthorizationDenied:
		return protocol.StatusDenied, true
	case AuthorizationNeverAskAgain:
		return protocol.StatusNeverAskAgain, true
	default:
		return "", false
	}
}

// Capabilities is what a host platform offers the bridge. UI-affecting
// methods are called on the adapter's main looper.
type Capabilities interface {
	DeviceInfo() protocol.DeviceInfo
	AppVersion() string
	ShowToast(message string, duration time.Duration)
	OpenScreen(name string, params map[string]any)
	Share(opts protocol.ShareOptions)
	LocationServicesEnabled() bool
	Location(ctx context.Context) (protocol.LocationInfo, error)
	Authorization(permission protocol.PermissionType) Authorization
	RequestAccess(ctx context.Context, permission protocol.PermissionType) (protocol.PermissionStatus, error)
	Vibrate(duration time.Duration)
	SetClipboard(text string)
	Close()
}
