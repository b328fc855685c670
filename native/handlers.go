package native

import (
	"context"
	"time"

	"mobile-bridge/protocol"
)

const (
	defaultToastMillis   = 2000
	defaultVibrateMillis = 200
	defaultAppVersion    = "1.0.0"
)

type handlers struct {
	platform protocol.Platform
	caps     Capabilities
	looper   *Looper
	table    *Table
}

// NewTable builds the standard dispatch table for platform. UI work is
// posted to looper; a nil looper runs it on the calling goroutine.
func NewTable(platform protocol.Platform, caps Capabilities, looper *Looper) *Table {
	t := NewEmptyTable()
	h := &handlers{platform: platform, caps: caps, looper: looper, table: t}

	t.Set(protocol.MethodGetDeviceInfo, Entry{Handle: h.getDeviceInfo, Inline: true})
	t.Set(protocol.MethodShowToast, Entry{Handle: h.showToast})
	t.Set(protocol.MethodOpenNativeScreen, Entry{Handle: h.openNativeScreen})
	t.Set(protocol.MethodShare, Entry{Handle: h.share})
	t.Set(protocol.MethodGetLocation, Entry{Handle: h.getLocation})
	t.Set(protocol.MethodRequestPermission, Entry{Handle: h.requestPermission})
	t.Set(protocol.MethodVibrate, Entry{Handle: h.vibrate})
	t.Set(protocol.MethodCopyToClipboard, Entry{Handle: h.copyToClipboard})
	t.Set(protocol.MethodGetAppVersion, Entry{Handle: h.getAppVersion, Inline: true})
	t.Set(protocol.MethodCloseApp, Entry{Handle: h.closeApp})
	t.Set(protocol.MethodCustom, Entry{Handle: h.custom})
	return t
}

func (h *handlers) onMain(fn func()) {
	if h.looper == nil || !h.looper.Post(fn) {
		fn()
	}
}

func (h *handlers) appVersion() string {
	if v := h.caps.AppVersion(); v != "" {
		return v
	}
	return defaultAppVersion
}

func (h *handlers) getDeviceInfo(_ context.Context, _ *Call) (any, error) {
	info := h.caps.DeviceInfo()
	info.Platform = h.platform
	if info.AppVersion == "" {
		info.AppVersion = h.appVersion()
	}
	return info, nil
}

func (h *handlers) showToast(_ context.Context, call *Call) (any, error) {
	message, ok := call.Params.String("message")
	if !ok {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "Message is required")
	}
	duration := millis(call.Params.Number("duration", defaultToastMillis))
	h.onMain(func() { h.caps.ShowToast(message, duration) })
	return nil, nil
}

func (h *handlers) openNativeScreen(_ context.Context, call *Call) (any, error) {
	screen, ok := call.Params.String("screenName")
	if !ok {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "Screen name is required")
	}
	screenParams := call.Params.Map("params")
	h.onMain(func() { h.caps.OpenScreen(screen, screenParams) })
	return nil, nil
}

func (h *handlers) share(_ context.Context, call *Call) (any, error) {
	opts := protocol.ShareOptions{
		Title: call.Params.StringOr("title", ""),
		Text:  call.Params.StringOr("text", ""),
		URL:   call.Params.StringOr("url", ""),
	}
	if files, ok := call.Params["files"].([]any); ok {
		for _, f := range files {
			if s, ok := f.(string); ok {
				opts.Files = append(opts.Files, s)
			}
		}
	}
	h.onMain(func() { h.caps.Share(opts) })
	return nil, nil
}

func (h *handlers) getLocation(ctx context.Context, call *Call) (any, error) {
	if !h.caps.LocationServicesEnabled() {
		return nil, protocol.NewError(protocol.CodeServiceDisabled, "Location services are disabled")
	}
	if h.caps.Authorization(protocol.PermissionLocation) != AuthorizationGranted {
		return nil, protocol.NewError(protocol.CodePermissionDenied, "Location permission not granted")
	}
	call.Go(func() (any, error) {
		return h.caps.Location(ctx)
	})
	return nil, nil
}

func (h *handlers) requestPermission(ctx context.Context, call *Call) (any, error) {
	tag, ok := call.Params.String("permission")
	if !ok {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "Permission type is required")
	}
	permission, ok := protocol.ParsePermission(tag)
	if !ok {
		return nil, protocol.NewError(protocol.CodeInvalidPermission, "Invalid permission type: "+tag)
	}

	auth := h.caps.Authorization(permission)
	if auth == AuthorizationUnsupported {
		return nil, protocol.NewError(protocol.CodeInvalidPermission, "Invalid permission type: "+tag)
	}
	if status, determined := auth.Status(); determined {
		return protocol.PermissionResult{Status: status}, nil
	}

	// Not determined yet: prompt, and answer when the user decides.
	call.Go(func() (any, error) {
		status, err := h.caps.RequestAccess(ctx, permission)
		if err != nil {
			return nil, err
		}
		return protocol.PermissionResult{Status: status}, nil
	})
	return nil, nil
}

func (h *handlers) vibrate(_ context.Context, call *Call) (any, error) {
	duration := millis(call.Params.Number("duration", defaultVibrateMillis))
	h.onMain(func() { h.caps.Vibrate(duration) })
	return nil, nil
}

func (h *handlers) copyToClipboard(_ context.Context, call *Call) (any, error) {
	text, ok := call.Params.String("text")
	if !ok {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "Text is required")
	}
	h.onMain(func() { h.caps.SetClipboard(text) })
	return nil, nil
}

func (h *handlers) getAppVersion(_ context.Context, _ *Call) (any, error) {
	return h.appVersion(), nil
}

func (h *handlers) closeApp(_ context.Context, _ *Call) (any, error) {
	h.onMain(h.caps.Close)
	return nil, nil
}

func (h *handlers) custom(ctx context.Context, call *Call) (any, error) {
	name, ok := call.Params.String("methodName")
	if !ok {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "Method name is required")
	}
	if fn, ok := h.table.lookupCustom(name); ok {
		return fn(ctx, protocol.Params(call.Params.Map("params")))
	}
	return protocol.CustomResult{Method: name, Executed: true}, nil
}

func millis(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}
