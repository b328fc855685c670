package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mobile-bridge/protocol"
)

const (
	defaultToastDuration   = 2000 * time.Millisecond
	defaultVibrateDuration = 200 * time.Millisecond
)

// GetDeviceInfo returns the host device description.
func (c *Caller) GetDeviceInfo(ctx context.Context) (protocol.DeviceInfo, error) {
	return callAs[protocol.DeviceInfo](ctx, c, protocol.MethodGetDeviceInfo, nil)
}

// ShowToast shows a transient message. A zero duration means two seconds.
func (c *Caller) ShowToast(ctx context.Context, message string, duration time.Duration) error {
	if duration <= 0 {
		duration = defaultToastDuration
	}
	_, err := c.Call(ctx, protocol.MethodShowToast, map[string]any{
		"message":  message,
		"duration": duration.Milliseconds(),
	})
	return err
}

// OpenNativeScreen navigates the host app to a native screen.
func (c *Caller) OpenNativeScreen(ctx context.Context, screenName string, params map[string]any) error {
	p := map[string]any{"screenName": screenName}
	if params != nil {
		p["params"] = params
	}
	_, err := c.Call(ctx, protocol.MethodOpenNativeScreen, p)
	return err
}

// Share opens the native share sheet.
func (c *Caller) Share(ctx context.Context, opts protocol.ShareOptions) error {
	p := make(map[string]any)
	if opts.Title != "" {
		p["title"] = opts.Title
	}
	if opts.Text != "" {
		p["text"] = opts.Text
	}
	if opts.URL != "" {
		p["url"] = opts.URL
	}
	if len(opts.Files) > 0 {
		files := make([]any, 0, len(opts.Files))
		for _, f := range opts.Files {
			files = append(files, f)
		}
		p["files"] = files
	}
	_, err := c.Call(ctx, protocol.MethodShare, p)
	return err
}

// GetLocation returns the current device location.
func (c *Caller) GetLocation(ctx context.Context) (protocol.LocationInfo, error) {
	return callAs[protocol.LocationInfo](ctx, c, protocol.MethodGetLocation, nil)
}

// RequestPermission asks the host for a permission. Denial is a status, not an error.
func (c *Caller) RequestPermission(ctx context.Context, permission protocol.PermissionType) (protocol.PermissionStatus, error) {
	result, err := callAs[protocol.PermissionResult](ctx, c, protocol.MethodRequestPermission, map[string]any{
		"permission": string(permission),
	})
	if err != nil {
		return "", err
	}
	return result.Status, nil
}

// Vibrate vibrates the device. A zero duration means 200ms.
func (c *Caller) Vibrate(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		duration = defaultVibrateDuration
	}
	_, err := c.Call(ctx, protocol.MethodVibrate, map[string]any{
		"duration": duration.Milliseconds(),
	})
	return err
}

// CopyToClipboard writes text to the system clipboard.
func (c *Caller) CopyToClipboard(ctx context.Context, text string) error {
	_, err := c.Call(ctx, protocol.MethodCopyToClipboard, map[string]any{"text": text})
	return err
}

// GetAppVersion returns the host app version string.
func (c *Caller) GetAppVersion(ctx context.Context) (string, error) {
	return callAs[string](ctx, c, protocol.MethodGetAppVersion, nil)
}

// CloseApp asks the host to close the app.
func (c *Caller) CloseApp(ctx context.Context) error {
	_, err := c.Call(ctx, protocol.MethodCloseApp, nil)
	return err
}

// CallCustomMethod invokes a host-defined method through the custom escape hatch.
func (c *Caller) CallCustomMethod(ctx context.Context, methodName string, params map[string]any) (json.RawMessage, error) {
	p := map[string]any{"methodName": methodName}
	if params != nil {
		p["params"] = params
	}
	return c.Call(ctx, protocol.MethodCustom, p)
}

func callAs[T any](ctx context.Context, c *Caller, method protocol.Method, params map[string]any) (T, error) {
	var out T
	data, err := c.Call(ctx, method, params)
	if err != nil {
		return out, err
	}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s result: %w", method, err)
	}
	return out, nil
}
