package mcpbridge

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mobile-bridge/protocol"
)

// ToolHandler abstracts the bridge communication.
// Implemented by bridge.Caller.
type ToolHandler interface {
	Call(ctx context.Context, method protocol.Method, params map[string]any) (json.RawMessage, error)
}

type Tools struct {
	Handler ToolHandler
}

func (t *Tools) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_device_info",
		Description: "Get the host device description: OS version, app version, model, screen size and whether it is a tablet",
	}, t.handleGetDeviceInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "show_toast",
		Description: "Show a transient native toast message",
	}, t.handleShowToast)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "open_native_screen",
		Description: "Navigate the host app to a named native screen",
	}, t.handleOpenNativeScreen)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share",
		Description: "Open the native share sheet with a title, text, URL or files",
	}, t.handleShare)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_location",
		Description: "Get the current device location. Fails when location services are off or permission is not granted.",
	}, t.handleGetLocation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "request_permission",
		Description: "Request a runtime permission (camera, location, storage, contacts, microphone, notifications). Returns granted, denied or never_ask_again.",
	}, t.handleRequestPermission)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "vibrate",
		Description: "Vibrate the device",
	}, t.handleVibrate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "copy_to_clipboard",
		Description: "Copy text to the system clipboard",
	}, t.handleCopyToClipboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_app_version",
		Description: "Get the host app version string",
	}, t.handleGetAppVersion)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "close_app",
		Description: "Ask the host to close the app",
	}, t.handleCloseApp)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "call_custom_method",
		Description: "Invoke a host-defined custom method by name",
	}, t.handleCallCustomMethod)
}

type showToastArgs struct {
	Message  string `json:"message" jsonschema:"the text to show"`
	Duration int    `json:"duration,omitempty" jsonschema:"display time in milliseconds (default 2000)"`
}

type openNativeScreenArgs struct {
	ScreenName string         `json:"screenName" jsonschema:"the native screen to open"`
	Params     map[string]any `json:"params,omitempty" jsonschema:"optional screen parameters"`
}

type shareArgs struct {
	Title string   `json:"title,omitempty" jsonschema:"share sheet title"`
	Text  string   `json:"text,omitempty" jsonschema:"text to share"`
	URL   string   `json:"url,omitempty" jsonschema:"URL to share"`
	Files []string `json:"files,omitempty" jsonschema:"file paths or URIs to share"`
}

type requestPermissionArgs struct {
	Permission string `json:"permission" jsonschema:"one of camera, location, storage, contacts, microphone, notifications"`
}

type vibrateArgs struct {
	Duration int `json:"duration,omitempty" jsonschema:"vibration time in milliseconds (default 200)"`
}

type copyToClipboardArgs struct {
	Text string `json:"text" jsonschema:"the text to copy"`
}

type callCustomMethodArgs struct {
	MethodName string         `json:"methodName" jsonschema:"the custom method registered by the host"`
	Params     map[string]any `json:"params,omitempty" jsonschema:"optional method parameters"`
}

func (t *Tools) handleGetDeviceInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, any, error) {
	data, err := t.Handler.Call(ctx, protocol.MethodGetDeviceInfo, nil)
	return renderResponse(data, err)
}

func (t *Tools) handleShowToast(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	args showToastArgs,
) (*mcp.CallToolResult, any, error) {
	params := map[string]any{"message": args.Message}
	if args.Duration > 0 {
		params["duration"] = args.Duration
	}
	data, err := t.Handler.Call(ctx, protocol.MethodShowToast, params)
	return renderResponse(data, err)
}

func (t *Tools) handleOpenNativeScreen(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	args openNativeScreenArgs,
) (*mcp.CallToolResult, any, error) {
	params := map[string]any{"screenName": args.ScreenName}
	if args.Params != nil {
		params["params"] = args.Params
	}
	data, err := t.Handler.Call(ctx, protocol.MethodOpenNativeScreen, params)
	return renderResponse(data, err)
}

func (t *Tools) handleShare(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	args shareArgs,
) (*mcp.CallToolResult, any, error) {
	params := make(map[string]any)
	if args.Title != "" {
		params["title"] = args.Title
	}
	if args.Text != "" {
		params["text"] = args.Text
	}
	if args.URL != "" {
		params["url"] = args.URL
	}
	if len(args.Files) > 0 {
		files := make([]any, 0, len(args.Files))
		for _, f := range args.Files {
			files = append(files, f)
		}
		params["files"] = files
	}
	data, err := t.Handler.Call(ctx, protocol.MethodShare, params)
	return renderResponse(data, err)
}

func (t *Tools) handleGetLocation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, any, error) {
	data, err := t.Handler.Call(ctx, protocol.MethodGetLocation, nil)
	return renderResponse(data, err)
}

func (t *Tools) handleRequestPermission(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	args requestPermissionArgs,
) (*mcp.CallToolResult, any, error) {
	data, err := t.Handler.Call(ctx, protocol.MethodRequestPermission, map[string]any{
		"permission": args.Permission,
	})
	return renderResponse(data, err)
}

func (t *Tools) handleVibrate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	args vibrateArgs,
) (*mcp.CallToolResult, any, error) {
	params := make(map[string]any)
	if args.Duration > 0 {
		params["duration"] = args.Duration
	}
	data, err := t.Handler.Call(ctx, protocol.MethodVibrate, params)
	return renderResponse(data, err)
}

func (t *Tools) handleCopyToClipboard(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	args copyToClipboardArgs,
) (*mcp.CallToolResult, any, error) {
	data, err := t.Handler.Call(ctx, protocol.MethodCopyToClipboard, map[string]any{
		"text": args.Text,
	})
	return renderResponse(data, err)
}

func (t *Tools) handleGetAppVersion(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, any, error) {
	data, err := t.Handler.Call(ctx, protocol.MethodGetAppVersion, nil)
	return renderResponse(data, err)
}

func (t *Tools) handleCloseApp(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, any, error) {
	data, err := t.Handler.Call(ctx, protocol.MethodCloseApp, nil)
	return renderResponse(data, err)
}

func (t *Tools) handleCallCustomMethod(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	args callCustomMethodArgs,
) (*mcp.CallToolResult, any, error) {
	params := map[string]any{"methodName": args.MethodName}
	if args.Params != nil {
		params["params"] = args.Params
	}
	data, err := t.Handler.Call(ctx, protocol.MethodCustom, params)
	return renderResponse(data, err)
}

func renderResponse(data json.RawMessage, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		text := err.Error()
		if code := protocol.CodeOf(err); code != "" {
			text = string(code) + ": " + text
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: text},
			},
			IsError: true,
		}, nil, nil
	}

	payload := "null"
	if len(data) > 0 {
		payload = string(data)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: payload},
		},
	}, nil, nil
}
