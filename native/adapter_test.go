package native_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"mobile-bridge/bridge"
	"mobile-bridge/native"
	"mobile-bridge/protocol"
	"mobile-bridge/sim"
)

// recordingView keeps every script the host evaluates and forwards it to the
// web runtime.
type recordingView struct {
	mu      sync.Mutex
	scripts []string
	runtime *bridge.Runtime
}

func (v *recordingView) EvaluateJavascript(script string) error {
	v.mu.Lock()
	v.scripts = append(v.scripts, script)
	v.mu.Unlock()
	return v.runtime.EvaluateJavascript(script)
}

func (v *recordingView) Scripts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.scripts...)
}

type harness struct {
	caller   *bridge.Caller
	device   *sim.Device
	view     *recordingView
	registry *bridge.Registry
}

func testProfile() sim.Profile {
	return sim.Profile{
		OSVersion:    "14",
		AppVersion:   "2.1.0",
		DeviceModel:  "Pixel 8",
		ScreenWidth:  412,
		ScreenHeight: 915,
	}
}

func newAndroidHarness(t *testing.T) (*harness, *native.AndroidAdapter) {
	t.Helper()
	looper := native.NewLooper()
	t.Cleanup(looper.Close)

	registry := bridge.NewRegistry()
	view := &recordingView{runtime: bridge.NewRuntime(registry)}
	device := sim.NewDevice(testProfile())
	adapter := native.NewAndroidAdapter(device, view, looper)
	t.Cleanup(adapter.Close)

	caller := bridge.NewCaller(bridge.Android(adapter), bridge.WithRegistry(registry), bridge.WithTimeout(2*time.Second))
	return &harness{caller: caller, device: device, view: view, registry: registry}, adapter
}

func newIOSHarness(t *testing.T) (*harness, *native.IOSAdapter) {
	t.Helper()
	looper := native.NewLooper()
	t.Cleanup(looper.Close)

	registry := bridge.NewRegistry()
	view := &recordingView{runtime: bridge.NewRuntime(registry)}
	device := sim.NewDevice(testProfile())
	adapter := native.NewIOSAdapter(device, view, looper)
	t.Cleanup(adapter.Close)

	caller := bridge.NewCaller(bridge.IOS(adapter), bridge.WithRegistry(registry), bridge.WithTimeout(2*time.Second))
	return &harness{caller: caller, device: device, view: view, registry: registry}, adapter
}

func TestAndroidShowToastDeliveredThroughWebView(t *testing.T) {
	h, _ := newAndroidHarness(t)

	if err := h.caller.ShowToast(context.Background(), "hi", 2000*time.Millisecond); err != nil {
		t.Fatalf("show toast: %v", err)
	}

	toasts := h.device.Toasts()
	if len(toasts) != 1 || toasts[0].Message != "hi" || toasts[0].Duration != 2*time.Second {
		t.Fatalf("unexpected toasts %+v", toasts)
	}
	scripts := h.view.Scripts()
	if len(scripts) != 1 {
		t.Fatalf("expected one delivery, got %d", len(scripts))
	}
	resp, err := protocol.ParseDeliveryScript(scripts[0])
	if err != nil {
		t.Fatalf("parse delivery: %v", err)
	}
	if !resp.Success || resp.Data != nil {
		t.Fatalf("expected success without data, got %+v", resp)
	}
	if h.registry.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", h.registry.Len())
	}
}

func TestAndroidDeviceInfoInline(t *testing.T) {
	h, _ := newAndroidHarness(t)

	data, err := h.caller.Call(context.Background(), protocol.MethodGetDeviceInfo, nil)
	if err != nil {
		t.Fatalf("get device info: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"osVersion", "appVersion", "deviceModel"} {
		if _, ok := fields[key].(string); !ok {
			t.Fatalf("expected string %s, got %v", key, fields[key])
		}
	}
	for _, key := range []string{"screenWidth", "screenHeight"} {
		if _, ok := fields[key].(float64); !ok {
			t.Fatalf("expected number %s, got %v", key, fields[key])
		}
	}
	if _, ok := fields["isTablet"].(bool); !ok {
		t.Fatalf("expected bool isTablet, got %v", fields["isTablet"])
	}
	if fields["platform"] != "android" {
		t.Fatalf("expected platform android, got %v", fields["platform"])
	}
	if n := len(h.view.Scripts()); n != 0 {
		t.Fatalf("expected inline answer, got %d deliveries", n)
	}
}

func TestAndroidUnknownMethod(t *testing.T) {
	h, adapter := newAndroidHarness(t)
	adapter.Table().Remove(protocol.MethodVibrate)

	err := h.caller.Vibrate(context.Background(), 0)
	if protocol.CodeOf(err) != protocol.CodeUnknownMethod {
		t.Fatalf("expected UNKNOWN_METHOD, got %v", err)
	}
	if err.Error() != "Unknown method: vibrate" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(h.device.Vibrations()) != 0 {
		t.Fatal("expected no vibration")
	}
}

func TestRequestPermissionCamera(t *testing.T) {
	tests := []struct {
		name string
		auth native.Authorization
		want protocol.PermissionStatus
	}{
		{"granted", native.AuthorizationGranted, protocol.StatusGranted},
		{"denied", native.AuthorizationDenied, protocol.StatusDenied},
		{"never ask again", native.AuthorizationNeverAskAgain, protocol.StatusNeverAskAgain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newAndroidHarness(t)
			h.device.SetAuthorization(protocol.PermissionCamera, tt.auth)

			status, err := h.caller.RequestPermission(context.Background(), protocol.PermissionCamera)
			if err != nil {
				t.Fatalf("request permission: %v", err)
			}
			if status != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, status)
			}
		})
	}
}

func TestRequestPermissionPrompts(t *testing.T) {
	h, _ := newIOSHarness(t)
	h.device.SetRequestOutcome(protocol.PermissionMicrophone, protocol.StatusDenied)

	status, err := h.caller.RequestPermission(context.Background(), protocol.PermissionMicrophone)
	if err != nil {
		t.Fatalf("request permission: %v", err)
	}
	if status != protocol.StatusDenied {
		t.Fatalf("expected denied, got %s", status)
	}
	if got := h.device.Authorization(protocol.PermissionMicrophone); got != native.AuthorizationDenied {
		t.Fatalf("expected authorization DENIED, got %s", got)
	}
}

func TestRequestPermissionInvalid(t *testing.T) {
	h, _ := newAndroidHarness(t)

	_, err := h.caller.Call(context.Background(), protocol.MethodRequestPermission, map[string]any{
		"permission": "not-a-real-permission",
	})
	if protocol.CodeOf(err) != protocol.CodeInvalidPermission {
		t.Fatalf("expected INVALID_PERMISSION, got %v", err)
	}
	if err.Error() != "Invalid permission type: not-a-real-permission" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	h.device.SetAuthorization(protocol.PermissionStorage, native.AuthorizationUnsupported)
	_, err = h.caller.RequestPermission(context.Background(), protocol.PermissionStorage)
	if protocol.CodeOf(err) != protocol.CodeInvalidPermission {
		t.Fatalf("expected INVALID_PERMISSION for unsupported permission, got %v", err)
	}

	_, err = h.caller.Call(context.Background(), protocol.MethodRequestPermission, nil)
	if protocol.CodeOf(err) != protocol.CodeInvalidParams {
		t.Fatalf("expected INVALID_PARAMS, got %v", err)
	}
}

func TestGetLocation(t *testing.T) {
	h, _ := newAndroidHarness(t)

	loc, err := h.caller.GetLocation(context.Background())
	if err != nil {
		t.Fatalf("get location: %v", err)
	}
	if loc.Latitude != 37.5665 || loc.Longitude != 126.9780 {
		t.Fatalf("unexpected location %+v", loc)
	}
	if loc.Accuracy == nil || *loc.Accuracy != 10 {
		t.Fatalf("expected accuracy 10, got %v", loc.Accuracy)
	}
}

func TestGetLocationPreconditions(t *testing.T) {
	h, _ := newIOSHarness(t)

	h.device.SetAuthorization(protocol.PermissionLocation, native.AuthorizationDenied)
	_, err := h.caller.GetLocation(context.Background())
	if protocol.CodeOf(err) != protocol.CodePermissionDenied {
		t.Fatalf("expected PERMISSION_DENIED, got %v", err)
	}

	h.device.SetLocationServices(false)
	_, err = h.caller.GetLocation(context.Background())
	if protocol.CodeOf(err) != protocol.CodeServiceDisabled {
		t.Fatalf("expected SERVICE_DISABLED, got %v", err)
	}
	if err.Error() != "Location services are disabled" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestGetLocationFailure(t *testing.T) {
	h, _ := newAndroidHarness(t)
	h.device.SetLocation(protocol.LocationInfo{}, 10*time.Millisecond, errors.New("no fix"))

	_, err := h.caller.GetLocation(context.Background())
	if protocol.CodeOf(err) != protocol.CodeException {
		t.Fatalf("expected EXCEPTION, got %v", err)
	}
	if err.Error() != "no fix" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

// crashingDevice panics while acquiring a location fix.
type crashingDevice struct {
	*sim.Device
}

func (crashingDevice) Location(context.Context) (protocol.LocationInfo, error) {
	panic("location provider crashed")
}

func TestGetLocationPanicBecomesException(t *testing.T) {
	looper := native.NewLooper()
	t.Cleanup(looper.Close)

	registry := bridge.NewRegistry()
	view := &recordingView{runtime: bridge.NewRuntime(registry)}
	adapter := native.NewAndroidAdapter(crashingDevice{sim.NewDevice(testProfile())}, view, looper)
	t.Cleanup(adapter.Close)
	caller := bridge.NewCaller(bridge.Android(adapter), bridge.WithRegistry(registry), bridge.WithTimeout(2*time.Second))

	_, err := caller.GetLocation(context.Background())
	if protocol.CodeOf(err) != protocol.CodeException {
		t.Fatalf("expected EXCEPTION, got %v", err)
	}
	if err.Error() != "location provider crashed" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	// The host keeps serving after the crash.
	if _, err := caller.GetAppVersion(context.Background()); err != nil {
		t.Fatalf("get app version: %v", err)
	}
}

func TestInvalidParams(t *testing.T) {
	h, _ := newAndroidHarness(t)

	tests := []struct {
		method  protocol.Method
		message string
	}{
		{protocol.MethodShowToast, "Message is required"},
		{protocol.MethodOpenNativeScreen, "Screen name is required"},
		{protocol.MethodCopyToClipboard, "Text is required"},
		{protocol.MethodCustom, "Method name is required"},
	}
	for _, tt := range tests {
		_, err := h.caller.Call(context.Background(), tt.method, nil)
		if protocol.CodeOf(err) != protocol.CodeInvalidParams {
			t.Fatalf("%s: expected INVALID_PARAMS, got %v", tt.method, err)
		}
		if err.Error() != tt.message {
			t.Fatalf("%s: expected %q, got %q", tt.method, tt.message, err.Error())
		}
	}
}

func TestUIMethods(t *testing.T) {
	h, _ := newIOSHarness(t)
	ctx := context.Background()

	if err := h.caller.OpenNativeScreen(ctx, "settings", map[string]any{"tab": "privacy"}); err != nil {
		t.Fatalf("open screen: %v", err)
	}
	if err := h.caller.Share(ctx, protocol.ShareOptions{Title: "t", URL: "https://example.com", Files: []string{"a.png"}}); err != nil {
		t.Fatalf("share: %v", err)
	}
	if err := h.caller.Vibrate(ctx, 0); err != nil {
		t.Fatalf("vibrate: %v", err)
	}
	if err := h.caller.CopyToClipboard(ctx, "copied"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if err := h.caller.CloseApp(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	screens := h.device.Screens()
	if len(screens) != 1 || screens[0].Name != "settings" || screens[0].Params["tab"] != "privacy" {
		t.Fatalf("unexpected screens %+v", screens)
	}
	shares := h.device.Shares()
	if len(shares) != 1 || shares[0].URL != "https://example.com" || len(shares[0].Files) != 1 {
		t.Fatalf("unexpected shares %+v", shares)
	}
	if v := h.device.Vibrations(); len(v) != 1 || v[0] != 200*time.Millisecond {
		t.Fatalf("expected one 200ms vibration, got %v", v)
	}
	if h.device.Clipboard() != "copied" {
		t.Fatalf("expected clipboard copied, got %q", h.device.Clipboard())
	}
	if !h.device.Closed() {
		t.Fatal("expected app closed")
	}
}

func TestCustomMethods(t *testing.T) {
	h, adapter := newAndroidHarness(t)
	adapter.Table().Custom("sum", func(_ context.Context, params protocol.Params) (any, error) {
		return params.Number("a", 0) + params.Number("b", 0), nil
	})

	data, err := h.caller.CallCustomMethod(context.Background(), "sum", map[string]any{"a": 2, "b": 3})
	if err != nil {
		t.Fatalf("custom sum: %v", err)
	}
	if string(data) != "5" {
		t.Fatalf("expected 5, got %s", data)
	}

	data, err = h.caller.CallCustomMethod(context.Background(), "unregistered", nil)
	if err != nil {
		t.Fatalf("custom default: %v", err)
	}
	var result protocol.CustomResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Method != "unregistered" || !result.Executed {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAndroidMalformedRequest(t *testing.T) {
	_, adapter := newAndroidHarness(t)

	resp, err := protocol.DecodeResponse([]byte(adapter.CallNative(`{"id":"req_1"}`)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Error.Code != protocol.CodeException {
		t.Fatalf("expected EXCEPTION, got %+v", resp)
	}

	var raw protocol.Response
	if err := json.Unmarshal([]byte(adapter.CallNative("{not json")), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw.ID != "" || raw.Error == nil || raw.Error.Code != protocol.CodeException {
		t.Fatalf("expected EXCEPTION with empty id, got %+v", raw)
	}
}

func TestAndroidExposesOnlyCallNative(t *testing.T) {
	_, adapter := newAndroidHarness(t)
	if _, ok := adapter.Method("getDeviceInfo"); ok {
		t.Fatal("expected no per-method function")
	}
	if _, ok := adapter.Method(bridge.AndroidFallback); !ok {
		t.Fatal("expected callNative")
	}
}

func TestIOSDeliversEverything(t *testing.T) {
	h, adapter := newIOSHarness(t)
	adapter.Table().Remove(protocol.MethodVibrate)

	info, err := h.caller.GetDeviceInfo(context.Background())
	if err != nil {
		t.Fatalf("get device info: %v", err)
	}
	if info.Platform != protocol.PlatformIOS || info.DeviceModel != "Pixel 8" {
		t.Fatalf("unexpected device info %+v", info)
	}
	err = h.caller.Vibrate(context.Background(), 0)
	if protocol.CodeOf(err) != protocol.CodeUnknownMethod {
		t.Fatalf("expected UNKNOWN_METHOD, got %v", err)
	}

	scripts := h.view.Scripts()
	if len(scripts) != 2 {
		t.Fatalf("expected two deliveries, got %d", len(scripts))
	}
	for _, script := range scripts {
		if !strings.HasPrefix(script, "window.bridgeResponse(") {
			t.Fatalf("unexpected script %q", script)
		}
	}
}

func TestIOSDropsInvalidMessages(t *testing.T) {
	h, adapter := newIOSHarness(t)
	if _, ok := adapter.Handler("getDeviceInfo"); ok {
		t.Fatal("expected only the bridge handler")
	}

	for _, body := range []any{"nope", map[string]any{"method": "getDeviceInfo"}, (*protocol.Request)(nil)} {
		if err := adapter.PostMessage(body); err != nil {
			t.Fatalf("post message: %v", err)
		}
	}
	// Post a valid message and wait for it; the looper is ordered.
	if _, err := h.caller.GetAppVersion(context.Background()); err != nil {
		t.Fatalf("get app version: %v", err)
	}
	if n := len(h.view.Scripts()); n != 1 {
		t.Fatalf("expected only the valid message answered, got %d deliveries", n)
	}
}
